package index

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballistics/pointdeck/format"
	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/params"
	"github.com/ballistics/pointdeck/record"
)

func newIndexer(opts ...Option) (*Indexer, *params.Registry, *format.Formatter) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	reg := params.New([]params.Descriptor{
		{Key: "key", Primary: true},
		{Key: "idx", Primary: true},
		{Key: "diam", Units: "m", Primary: true},
		{Key: "desc"},
	}, params.WithLogger(logger))
	f := format.New()
	return New(reg, f, append([]Option{WithLogger(logger)}, opts...)...), reg, f
}

func sample() []record.Record {
	return []record.Record{
		{"key": "A", "idx": 0, "diam": "0.025"},
		{"key": "A", "idx": 1, "diam": "0.030"},
	}
}

func TestIndexScenario(t *testing.T) {
	x, reg, f := newIndexer()

	idx := x.Index(sample())

	require.Len(t, idx, 2)
	require.Contains(t, idx, "A-0")
	require.Contains(t, idx, "A-1")

	diam, ok := reg.Lookup("diam")
	require.True(t, ok)
	assert.Equal(t, f.Format("0.025", &diam), idx["A-0"]["_diam"])
	assert.Equal(t, f.Format("0.030", &diam), idx["A-1"]["_diam"])
	assert.Equal(t, "0.025 m", idx["A-0"]["_diam"])
	assert.Equal(t, "0.03 m", idx["A-1"]["_diam"])
	assert.Equal(t, "A-1", idx["A-1"][record.FieldPointKey])
}

func TestIndexSkipsIdenticalCompanions(t *testing.T) {
	x, _, _ := newIndexer()

	idx := x.Index([]record.Record{{"key": "A", "idx": 0, "desc": "a mortar", "count": "12"}})

	r := idx["A-0"]
	assert.NotContains(t, r, "_key")
	assert.NotContains(t, r, "_idx")
	assert.NotContains(t, r, "_desc")
	assert.NotContains(t, r, "_count")
	assert.NotContains(t, r, "_pointkey")
}

func TestIndexIsIdempotent(t *testing.T) {
	x, _, _ := newIndexer()
	records := sample()

	first := x.Index(records)
	snapshot := make(map[string]record.Record, len(first))
	for k, r := range first {
		snapshot[k] = r.Clone()
	}

	second := x.Index(records)

	require.Equal(t, len(snapshot), len(second))
	for k, r := range snapshot {
		assert.Equal(t, r, second[k])
	}
}

func TestMergeOverwritesSamePointKey(t *testing.T) {
	x, _, _ := newIndexer()
	idx := x.Index(sample())

	x.Merge(idx, []record.Record{
		{"key": "A", "idx": 1, "diam": 0.04},
		{"key": "B", "idx": 0},
	})

	require.Len(t, idx, 3)
	assert.Equal(t, 0.04, idx["A-1"]["diam"])
	assert.Equal(t, "0.04 m", idx["A-1"]["_diam"])
	assert.Contains(t, idx, "B-0")
}

func TestIndexToleratesPartialData(t *testing.T) {
	x, _, _ := newIndexer()

	idx := x.Index([]record.Record{{"diam": nil}, nil, {"key": "C"}})

	assert.Contains(t, idx, "C-")
	assert.Contains(t, idx, "-")
	assert.NotContains(t, idx["-"], "_diam")
}

func TestIndexWithUpdateReconciles(t *testing.T) {
	x, reg, _ := newIndexer()
	before := reg.Len()

	x.IndexWithUpdate(sample(), nil)
	assert.Equal(t, before, reg.Len(), "every sampled field is registered")

	x.IndexWithUpdate([]record.Record{{"key": "A", "idx": 2, "charge": 1.5}},
		map[string]params.Partial{"charge": {Units: "kg"}})

	charge, ok := reg.Lookup("charge")
	require.True(t, ok)
	assert.Equal(t, "kg", charge.Units)
	assert.Equal(t, before, charge.Index)
}

func TestIndexWithUpdateFormatsNewUnits(t *testing.T) {
	x, _, _ := newIndexer()

	idx := x.IndexWithUpdate([]record.Record{{"key": "A", "idx": 0, "charge": 1.5}},
		map[string]params.Partial{"charge": {Units: "kg"}})

	assert.Equal(t, "1.5 kg", idx["A-0"]["_charge"])
}

func TestObserved(t *testing.T) {
	observed := Observed([]record.Record{
		{"key": "A", "idx": 0, "_diam": "x", "pointkey": "A-0", "rowidx": 3},
		{"diam": 1},
	})

	assert.Len(t, observed, 3)
	assert.Contains(t, observed, "key")
	assert.Contains(t, observed, "idx")
	assert.Contains(t, observed, "diam")
}

func TestIndexReportsSize(t *testing.T) {
	m := metric.New()
	x, _, _ := newIndexer(WithMetrics(m))

	x.Index(sample())

	assert.Equal(t, float64(2), testutil.ToFloat64(m.IndexedPoints))
}
