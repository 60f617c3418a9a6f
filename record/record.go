// Package record defines the data point representation shared by the
// formatter, sorter, filter evaluator and point indexer.
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reserved field names and the companion marker.
const (
	// Marker prefixes formatted companions (`_diam` holds the display form of `diam`).
	Marker = "_"

	FieldKey      = "key"
	FieldIdx      = "idx"
	FieldPointKey = "pointkey"
	FieldRowIdx   = "rowidx"
)

// Record is one data point: raw scalar fields keyed by field name plus the
// identity fields `key` and `idx` and any derived companions.
type Record map[string]interface{}

// PointIndex maps a pointkey to its record.
type PointIndex map[string]Record

// Key returns the source identifier of the record.
func (r Record) Key() string {
	return String(r[FieldKey])
}

// Idx returns the position of the record within its source, rendered as text.
func (r Record) Idx() string {
	return String(r[FieldIdx])
}

// PointKey returns the synthetic identity `<key>-<idx>`.
func (r Record) PointKey() string {
	return PointKey(r.Key(), r.Idx())
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Float returns the numeric value of a field when it holds a finite number
// or a string that parses as one.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r[field]
	if !ok {
		return 0, false
	}
	return Number(v)
}

// IsCompanion reports whether a field name carries the companion marker.
func IsCompanion(field string) bool {
	return strings.HasPrefix(field, Marker)
}

// CompanionOf returns the companion field name for a raw field.
func CompanionOf(field string) string {
	return Marker + field
}

// PointKey joins a source key and index.
func PointKey(key, idx string) string {
	return key + "-" + idx
}

// CloneAll copies every record of a collection.
func CloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Number converts a scalar to a finite float64. Strings are trimmed and
// parsed; anything else that is not numeric reports false.
func Number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String renders a scalar the way it is shown when no formatting applies.
// Integral floats drop their fractional part so that idx 3.0 renders "3".
func String(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprint(v)
	}
}
