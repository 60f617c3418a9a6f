package filter

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/record"
)

func sample() []record.Record {
	return []record.Record{
		{"key": "A", "idx": 0, "diam": "0.025"},
		{"key": "A", "idx": 1, "diam": "0.030"},
	}
}

func newTestEvaluator(buf *bytes.Buffer, opts ...Option) *Evaluator {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

func TestFilterNumericComparison(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEvaluator(&buf)
	in := sample()

	out := e.Filter(in, "d.diam > 0.025")

	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0]["idx"])
	assert.Equal(t, "0.030", out[0]["diam"], "returned records keep their raw values")
	assert.Empty(t, buf.String())
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	e := New()
	in := sample()

	e.Filter(in, "d.diam > 0")

	assert.Equal(t, "0.025", in[0]["diam"])
	assert.Len(t, in[0], 3)
}

func TestFilterInvalidExpressionFailsOpen(t *testing.T) {
	var buf bytes.Buffer
	m := metric.New()
	e := newTestEvaluator(&buf, WithMetrics(m))
	in := sample()

	out := e.Filter(in, "d.diam >")

	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i], out[i])
	}
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "filter failed")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FilterFailures))
}

func TestFilterRuntimeErrorFailsOpen(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEvaluator(&buf)
	in := sample()

	out := e.Filter(in, "d.key + 1 == 2")

	assert.Len(t, out, len(in))
	assert.Contains(t, buf.String(), "level=ERROR")
}

// Expressions only see d, i and data; names from the surrounding program
// are not reachable.
func TestFilterRejectsForeignIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEvaluator(&buf)
	in := sample()

	_, err := e.Compile("window.location != nil")
	require.Error(t, err)

	out := e.Filter(in, "secret == 1 || d.diam > 0.025")
	assert.Len(t, out, len(in), "a foreign name makes the filter a no-op")
	assert.Contains(t, buf.String(), "secret")
}

func TestFilterIndexAndData(t *testing.T) {
	e := New()
	in := []record.Record{{"v": 3}, {"v": 1}, {"v": 2}}

	assert.Len(t, e.Filter(in, "i > 0"), 2)
	assert.Len(t, e.Filter(in, "len(data) == 3"), 3)

	out := e.Filter(in, "d.v > data[0].v - 2")
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0]["v"])
	assert.Equal(t, 2, out[1]["v"])
}

func TestFilterJavaScriptAliases(t *testing.T) {
	e := New()
	in := []record.Record{{"key": "A", "note": "x"}, {"key": "B"}}

	assert.Len(t, e.Filter(in, `d.key === "A"`), 1)
	assert.Len(t, e.Filter(in, `d.key !== "A"`), 1)

	out := e.Filter(in, "d.note === undefined")
	require.Len(t, out, 1)
	assert.Equal(t, "B", out[0]["key"])
}

func TestMissingFieldsDoNotMatchOrderings(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEvaluator(&buf)
	in := []record.Record{{"diam": 0.05}, {"key": "no diameter"}, {"diam": "wide"}}

	out := e.Filter(in, "d.diam > 0.025")

	require.Len(t, out, 1)
	assert.Equal(t, 0.05, out[0]["diam"])
	assert.Empty(t, buf.String())
}

func TestFilterTruthiness(t *testing.T) {
	e := New()
	in := []record.Record{{"diam": 0.02}, {"diam": ""}, {}}

	assert.Len(t, e.Filter(in, "d.diam"), 1)
}

func TestEmptyExpressionReturnsInput(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEvaluator(&buf)
	in := sample()

	assert.Equal(t, in, e.Filter(in, "   "))
	assert.Empty(t, buf.String())
}

func TestCompiledProgramsAreCached(t *testing.T) {
	e := New()

	first, err := e.Compile("d.diam > 1")
	require.NoError(t, err)
	second, err := e.Compile("  d.diam > 1 ")
	require.NoError(t, err)

	assert.Same(t, first.program, second.program)
	assert.Equal(t, "d.diam > 1", second.Expression())
}

func TestPredicateMatch(t *testing.T) {
	e := New()
	p, err := e.Compile("d.diam >= 0.03")
	require.NoError(t, err)

	in := sample()
	ok, err := p.Match(in, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Match(in, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = p.Match(in, 5)
	assert.Error(t, err)
}

func TestStringLiteralComparisonsOnNumericText(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEvaluator(&buf)
	in := []record.Record{{"date": "1850"}, {"date": "1860"}}

	out := e.Filter(in, `d.date == "1850"`)
	require.Len(t, out, 1)
	assert.Equal(t, "1850", out[0]["date"])

	assert.Len(t, e.Filter(in, `d.date === '1850'`), 1)
	assert.Len(t, e.Filter(in, `d.date != "1850"`), 1)

	out = e.Filter(in, `d.date > "1855"`)
	require.Len(t, out, 1)
	assert.Equal(t, "1860", out[0]["date"])

	assert.Len(t, e.Filter(in, `d.date == 1850`), 1, "numeric text equals a number of the same value")
	assert.Len(t, e.Filter(in, `d.date >= 1850`), 2)
	assert.Empty(t, buf.String())
}

func TestEqualityWithMixedTypes(t *testing.T) {
	e := New()
	in := []record.Record{
		{"idx": 1},
		{"idx": 1.0},
		{"idx": "1"},
		{"idx": "one"},
		{"idx": nil},
		{},
	}

	assert.Len(t, e.Filter(in, "d.idx == 1"), 3)
	assert.Len(t, e.Filter(in, "d.idx == nil"), 2)
	assert.Len(t, e.Filter(in, `d.idx != "one"`), 5)
	assert.Len(t, e.Filter(in, `d.idx < "p"`), 2, "strings order lexically against strings")
}
