package sorting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballistics/pointdeck/record"
)

func column(records []record.Record, field string) []interface{} {
	out := make([]interface{}, len(records))
	for i, r := range records {
		out[i] = r[field]
	}
	return out
}

func TestSortAscendingAndDescending(t *testing.T) {
	s := New()
	in := []record.Record{{"a": 2}, {"a": 1}, {"a": 3}}

	asc := s.Sort(in, []Directive{NewDirective("a", "")})
	assert.Equal(t, []interface{}{1, 2, 3}, column(asc, "a"))
	assert.Equal(t, []interface{}{0, 1, 2}, column(asc, record.FieldRowIdx))

	desc := s.Sort(in, []Directive{NewDirective("a", "descending")})
	assert.Equal(t, []interface{}{3, 2, 1}, column(desc, "a"))
	assert.Equal(t, []interface{}{0, 1, 2}, column(desc, record.FieldRowIdx))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	s := New()
	in := []record.Record{{"a": "b"}, {"a": "a"}}

	out := s.Sort(in, []Directive{{Field: "a"}})

	require.Len(t, out, 2)
	assert.Equal(t, "b", in[0]["a"])
	assert.Equal(t, "a", in[1]["a"])
	_, stamped := in[0][record.FieldRowIdx]
	assert.False(t, stamped)
	assert.Equal(t, "a", out[0]["a"])
}

func TestSortIsStable(t *testing.T) {
	s := New()
	in := []record.Record{
		{"a": 1, "id": "first"},
		{"a": 1, "id": "second"},
		{"a": 2, "id": "third"},
		{"a": 1, "id": "fourth"},
	}

	out := s.Sort(in, []Directive{{Field: "a"}})

	assert.Equal(t, []interface{}{"first", "second", "fourth", "third"}, column(out, "id"))
}

func TestFirstDirectiveIsMostSignificant(t *testing.T) {
	s := New()
	in := []record.Record{
		{"group": "b", "n": 1},
		{"group": "a", "n": 2},
		{"group": "b", "n": 0},
		{"group": "a", "n": 1},
	}

	out := s.Sort(in, []Directive{{Field: "group"}, {Field: "n", Descending: true}})

	assert.Equal(t, []interface{}{"a", "a", "b", "b"}, column(out, "group"))
	assert.Equal(t, []interface{}{2, 1, 1, 0}, column(out, "n"))
}

func TestSortByPointKey(t *testing.T) {
	s := New()
	in := []record.Record{
		{"key": "B", "idx": 0},
		{"key": "A", "idx": 10},
		{"key": "A", "idx": 2},
		{"key": "A", "idx": 1},
	}

	out := s.Sort(in, []Directive{{Field: FieldPointKey}})
	assert.Equal(t, []interface{}{"A", "A", "A", "B"}, column(out, "key"))
	assert.Equal(t, []interface{}{1, 2, 10, 0}, column(out, "idx"), "idx compares numerically")

	out = s.Sort(in, []Directive{{Field: FieldPointKey, Descending: true}})
	assert.Equal(t, []interface{}{"B", "A", "A", "A"}, column(out, "key"))
	assert.Equal(t, []interface{}{0, 10, 2, 1}, column(out, "idx"))
}

func TestUndefinedValues(t *testing.T) {
	s := New()
	in := []record.Record{{"a": 2, "id": 0}, {"id": 1}, {"a": 1, "id": 2}, {"a": nil, "id": 3}}

	asc := s.Sort(in, []Directive{{Field: "a"}})
	assert.Equal(t, []interface{}{1, 3, 2, 0}, column(asc, "id"))

	desc := s.Sort(in, []Directive{{Field: "a", Descending: true}})
	assert.Equal(t, []interface{}{0, 2, 1, 3}, column(desc, "id"))
}

func TestNumericStringsCompareNumerically(t *testing.T) {
	s := New()
	in := []record.Record{{"v": "10"}, {"v": "9"}, {"v": 100.5}}

	out := s.Sort(in, []Directive{{Field: "v"}})

	assert.Equal(t, []interface{}{"9", "10", 100.5}, column(out, "v"))
}

func TestLocaleComparison(t *testing.T) {
	s := New()

	out := s.Sort([]record.Record{{"v": "Banana"}, {"v": "apple"}, {"v": "cherry"}}, []Directive{{Field: "v"}})
	assert.Equal(t, []interface{}{"apple", "Banana", "cherry"}, column(out, "v"))

	out = s.Sort([]record.Record{{"v": "a-c"}, {"v": "ab"}}, []Directive{{Field: "v"}})
	assert.Equal(t, []interface{}{"ab", "a-c"}, column(out, "v"), "punctuation is ignored")
}

func TestCompareStringsIsMemoized(t *testing.T) {
	s := New(WithCapacity(4))

	first := s.CompareStrings("alpha", "beta")
	second := s.CompareStrings("alpha", "beta")

	assert.Equal(t, -1, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.CompareStrings("beta", "alpha"))
	stats := s.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 2, stats.Entries)

	s.Reset()
	assert.Equal(t, 0, s.CacheStats().Entries)
}

func TestSortWithoutDirectivesKeepsOrder(t *testing.T) {
	s := New()
	in := []record.Record{{"a": 3}, {"a": 1}}

	out := s.Sort(in, nil)

	assert.Equal(t, []interface{}{3, 1}, column(out, "a"))
	assert.Equal(t, []interface{}{0, 1}, column(out, record.FieldRowIdx))
}

func TestCompareStringsOrdersDistinctStrings(t *testing.T) {
	s := New()

	for _, pair := range [][2]string{{"apple", "banana"}, {"a", "b"}, {"xy", "xz"}, {"Jones", "Smith"}, {"ab", "a c"}} {
		assert.Equal(t, -1, s.CompareStrings(pair[0], pair[1]), "%q < %q", pair[0], pair[1])
		assert.Equal(t, 1, s.CompareStrings(pair[1], pair[0]), "%q > %q", pair[1], pair[0])
	}
	assert.Equal(t, 0, s.CompareStrings("same", "same"))
	assert.NotEqual(t, 0, s.CompareStrings("apple", "Apple"), "case breaks ties")
	assert.NotEqual(t, 0, s.CompareStrings("a-b", "ab"), "punctuation breaks ties")
}

func TestSortByTextKeys(t *testing.T) {
	s := New()
	in := []record.Record{{"v": "Smith"}, {"v": "Jones"}, {"v": "adams"}}

	out := s.Sort(in, []Directive{{Field: "v"}})
	assert.Equal(t, []interface{}{"adams", "Jones", "Smith"}, column(out, "v"))

	out = s.Sort(in, []Directive{{Field: "v", Descending: true}})
	assert.Equal(t, []interface{}{"Smith", "Jones", "adams"}, column(out, "v"))
}
