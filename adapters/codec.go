package adapters

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Payload formats understood by ToJSON.
const (
	FormatJSON    = "json"
	FormatNDJSON  = "ndjson"
	FormatParquet = "parquet"
)

// FormatOf infers the payload format of a resource from its extension.
func FormatOf(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".parquet":
		return FormatParquet
	default:
		return FormatJSON
	}
}

// ToJSON converts a fetched payload to JSON. JSON payloads are returned
// unchanged; NDJSON and Parquet payloads become a JSON array of rows.
func ToJSON(name string, payload []byte) ([]byte, error) {
	var (
		rows []map[string]interface{}
		err  error
	)
	switch FormatOf(name) {
	case FormatNDJSON:
		rows, err = decodeNDJSON(payload)
	case FormatParquet:
		rows, err = decodeParquet(payload)
	default:
		return payload, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	return json.Marshal(rows)
}

func decodeNDJSON(payload []byte) ([]map[string]interface{}, error) {
	reader := bufio.NewScanner(bytes.NewReader(payload))
	buf := make([]byte, 0, 64*1024)
	reader.Buffer(buf, 10*1024*1024)
	var rows []map[string]interface{}
	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		var row map[string]interface{}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// decodeParquet reads rows with the file's own schema. Leaf columns are
// keyed by their dotted path; repeated columns become arrays.
func decodeParquet(payload []byte) ([]map[string]interface{}, error) {
	f, err := parquet.OpenFile(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, err
	}

	schema := f.Schema()
	paths := schema.Columns()
	names := make([]string, len(paths))
	repeated := make([]bool, len(paths))
	for i, p := range paths {
		names[i] = strings.Join(p, ".")
		if leaf, ok := schema.Lookup(p...); ok {
			repeated[i] = leaf.MaxRepetitionLevel > 0
		}
	}

	var rows []map[string]interface{}
	buf := make([]parquet.Row, 128)
	for _, group := range f.RowGroups() {
		reader := group.Rows()
		for {
			n, err := reader.ReadRows(buf)
			for _, row := range buf[:n] {
				rows = append(rows, rowToMap(row, names, repeated))
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				reader.Close()
				return nil, err
			}
			if n == 0 {
				break
			}
		}
		if err := reader.Close(); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func rowToMap(row parquet.Row, names []string, repeated []bool) map[string]interface{} {
	out := make(map[string]interface{}, len(names))
	for i, name := range names {
		if repeated[i] {
			out[name] = []interface{}{}
		}
	}
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(names) {
			continue
		}
		name := names[col]
		if !repeated[col] {
			out[name] = parquetValue(v)
			continue
		}
		if !v.IsNull() {
			out[name] = append(out[name].([]interface{}), parquetValue(v))
		}
	}
	return out
}

func parquetValue(v parquet.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return v.Int32()
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return v.Float()
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
