package pipeline

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/ballistics/pointdeck/record"
)

// TrajectoryKeys are the series every trajectory record must carry, stored
// as JSON-encoded arrays under `trajectory_<key>`.
var TrajectoryKeys = []string{"Re", "Mn", "time"}

const trajectoryPrefix = "trajectory_"

// Trajectory maps a series name to its samples.
type Trajectory map[string][]interface{}

func parseDocument(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	return gjson.ParseBytes(data), nil
}

// parseRecords decodes a JSON array of objects. Elements that are not
// objects are skipped.
func parseRecords(data []byte) ([]record.Record, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of records", ErrMalformedPayload)
	}
	return recordsOf(doc), nil
}

func recordsOf(array gjson.Result) []record.Record {
	var records []record.Record
	array.ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			records = append(records, recordOf(value))
		}
		return true
	})
	return records
}

func recordOf(obj gjson.Result) record.Record {
	r := make(record.Record)
	obj.ForEach(func(key, value gjson.Result) bool {
		r[key.String()] = value.Value()
		return true
	})
	return r
}

// parseTrajectories builds per-point series. Records missing any of
// TrajectoryKeys, or carrying a series that does not decode to an array,
// are left out; the second return value counts them.
func parseTrajectories(data []byte) (map[string]Trajectory, int, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, 0, err
	}
	if !doc.IsArray() {
		return nil, 0, fmt.Errorf("%w: expected an array of trajectory records", ErrMalformedPayload)
	}

	trajectories := make(map[string]Trajectory)
	skipped := 0
	doc.ForEach(func(_, entry gjson.Result) bool {
		pointkey := record.PointKey(record.String(entry.Get(record.FieldKey).Value()),
			record.String(entry.Get(record.FieldIdx).Value()))
		traj, ok := trajectoryOf(entry)
		if !ok {
			skipped++
			return true
		}
		trajectories[pointkey] = traj
		return true
	})
	return trajectories, skipped, nil
}

func trajectoryOf(entry gjson.Result) (Trajectory, bool) {
	traj := make(Trajectory, len(TrajectoryKeys))
	for _, key := range TrajectoryKeys {
		field := entry.Get(trajectoryPrefix + key)
		if !field.Exists() || field.Type == gjson.Null {
			return nil, false
		}
		series := field
		if field.Type == gjson.String {
			if !gjson.Valid(field.Str) {
				return nil, false
			}
			series = gjson.Parse(field.Str)
		}
		if !series.IsArray() {
			return nil, false
		}
		values, _ := series.Value().([]interface{})
		if values == nil {
			values = []interface{}{}
		}
		traj[key] = values
	}
	return traj, true
}

// resultFile is one entry of the results list.
type resultFile struct {
	Location string
	Entry    record.Record
}

func parseResultsList(data []byte) ([]resultFile, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of result files", ErrMalformedPayload)
	}
	var files []resultFile
	doc.ForEach(func(_, value gjson.Result) bool {
		if location := value.Get("location").String(); location != "" {
			files = append(files, resultFile{Location: location, Entry: recordOf(value)})
		}
		return true
	})
	return files, nil
}

// parseResults decodes a result file: its metadata and its rows, each row
// stamped with the file key and its position in the file.
func parseResults(data []byte) (record.Record, []record.Record, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, nil, err
	}
	if !doc.IsObject() {
		return nil, nil, fmt.Errorf("%w: expected a result object", ErrMalformedPayload)
	}

	meta := make(record.Record)
	doc.ForEach(func(key, value gjson.Result) bool {
		if key.String() != "results" {
			meta[key.String()] = value.Value()
		}
		return true
	})
	key := record.String(meta[record.FieldKey])

	var rows []record.Record
	idx := 0
	doc.Get("results").ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			row := recordOf(value)
			row[record.FieldKey] = key
			row[record.FieldIdx] = idx
			rows = append(rows, row)
		}
		idx++
		return true
	})
	return meta, rows, nil
}

// parseReferences decodes `{"references": [...]}` into a map by key.
func parseReferences(data []byte) (map[string]record.Record, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	list := doc.Get("references")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected a references array", ErrMalformedPayload)
	}
	refs := make(map[string]record.Record)
	for _, r := range recordsOf(list) {
		if key := r.Key(); key != "" {
			refs[key] = r
		}
	}
	return refs, nil
}
