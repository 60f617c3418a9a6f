// Package format converts raw field values into display strings.
//
// Numeric values are rendered with a fixed significant-digit policy and, for
// fields whose descriptor carries units, suffixed with the unit (optionally
// converted to a configured display unit). Textual values pass through
// unchanged. Results are memoized in a bounded cache keyed by field and raw
// value.
package format

import (
	"github.com/ballistics/pointdeck/memo"
	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/params"
	"github.com/ballistics/pointdeck/record"
	"github.com/ballistics/pointdeck/units"
)

const noDescriptor = "none"

// Formatter renders values for display. It is safe for concurrent use.
type Formatter struct {
	cache        *memo.Cache[string]
	displayUnits map[string]string
}

// Option configures a Formatter.
type Option func(*config)

type config struct {
	capacity     int
	displayUnits map[string]string
	metrics      *metric.Metrics
}

// WithCapacity sets the memo cache capacity.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithDisplayUnits maps field keys to the unit their values are shown in.
func WithDisplayUnits(byField map[string]string) Option {
	return func(c *config) {
		c.displayUnits = byField
	}
}

// WithMetrics reports cache activity.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// New creates a Formatter.
func New(opts ...Option) *Formatter {
	cfg := &config{capacity: memo.DefaultCapacity}
	for _, opt := range opts {
		opt(cfg)
	}
	display := make(map[string]string, len(cfg.displayUnits))
	for k, v := range cfg.displayUnits {
		display[k] = v
	}
	return &Formatter{
		cache:        memo.New[string](cfg.capacity, memo.WithMetrics(cfg.metrics, "format")),
		displayUnits: display,
	}
}

// Format returns the display string for value. desc may be nil. Format
// never fails: values that are not finite numbers are returned as text.
func (f *Formatter) Format(value interface{}, desc *params.Descriptor) string {
	raw := record.String(value)
	key := noDescriptor
	if desc != nil && desc.Key != "" {
		key = desc.Key
	}
	cacheKey := key + "\x1f" + raw

	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached
	}
	result := f.render(value, raw, desc)
	f.cache.Set(cacheKey, result)
	return result
}

func (f *Formatter) render(value interface{}, raw string, desc *params.Descriptor) string {
	number, ok := record.Number(value)
	if !ok {
		return raw
	}
	if desc == nil || desc.Units == "" {
		return FormatNumber(number)
	}

	unit := desc.Units
	if target, ok := f.displayUnits[desc.Key]; ok && target != "" && target != unit {
		if converted, err := units.Convert(number, unit, target); err == nil {
			number, unit = converted, target
		}
	}
	return FormatNumber(number) + " " + unit
}

// Reset empties the memo cache.
func (f *Formatter) Reset() {
	f.cache.Reset()
}

// CacheStats exposes memo cache activity.
func (f *Formatter) CacheStats() memo.Stats {
	return f.cache.Stats()
}
