package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballistics/pointdeck/params"
)

func diameter() *params.Descriptor {
	return &params.Descriptor{Key: "diam", Name: "Diameter", Units: "m"}
}

func TestFormatWithUnits(t *testing.T) {
	f := New()

	assert.Equal(t, "0.025 m", f.Format("0.025", diameter()))
	assert.Equal(t, "0.025 m", f.Format(0.025, diameter()))
	assert.Equal(t, "1.5e-7 m", f.Format(1.5e-7, diameter()))
}

func TestFormatWithoutDescriptor(t *testing.T) {
	f := New()

	assert.Equal(t, "42", f.Format("42.0", nil))
	assert.Equal(t, "0.333333", f.Format(1.0/3.0, nil))
	assert.Equal(t, "7", f.Format(7, &params.Descriptor{Key: "count"}))
}

func TestFormatPassesTextThrough(t *testing.T) {
	f := New()

	assert.Equal(t, "hello", f.Format("hello", diameter()))
	assert.Equal(t, "", f.Format(nil, diameter()))
	assert.Equal(t, "", f.Format("", nil))
	assert.Equal(t, "Trajectory A", f.Format("Trajectory A", nil))
}

func TestFormatIsMemoized(t *testing.T) {
	f := New()

	first := f.Format("0.025", diameter())
	second := f.Format("0.025", diameter())

	assert.Equal(t, first, second)
	stats := f.CacheStats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Entries)
}

func TestFormatCacheKeyedByField(t *testing.T) {
	f := New()

	assert.Equal(t, "2 m", f.Format(2, diameter()))
	assert.Equal(t, "2 kg", f.Format(2, &params.Descriptor{Key: "mass", Units: "kg"}))
	assert.Equal(t, "2", f.Format(2, nil))
	assert.Equal(t, 3, f.CacheStats().Entries)
}

func TestFormatCacheBounded(t *testing.T) {
	f := New(WithCapacity(2))

	f.Format(1, nil)
	f.Format(2, nil)
	assert.Equal(t, 2, f.CacheStats().Entries)

	f.Format(3, nil)
	stats := f.CacheStats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Clears)

	assert.Equal(t, "1", f.Format(1, nil), "results are unchanged after a clear")
}

func TestFormatDisplayUnits(t *testing.T) {
	f := New(WithDisplayUnits(map[string]string{"diam": "mm", "mass": "furlong"}))

	assert.Equal(t, "25 mm", f.Format(0.025, diameter()))

	mass := &params.Descriptor{Key: "mass", Units: "kg"}
	assert.Equal(t, "3 kg", f.Format(3, mass), "unconvertible overrides fall back to the field unit")
}

func TestFormatReset(t *testing.T) {
	f := New()
	f.Format(1, nil)
	require.Equal(t, 1, f.CacheStats().Entries)

	f.Reset()
	assert.Equal(t, 0, f.CacheStats().Entries)
}
