// Package sorting orders record collections by an ordered list of
// directives.
//
// Values compare numerically when both sides parse as finite numbers and
// with a locale collator otherwise. Punctuation and spaces are ignored and
// case only breaks ties. Collator results are memoized per ordered pair of
// strings.
package sorting

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ballistics/pointdeck/memo"
	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/record"
)

// DefaultLocale is the collation locale.
var DefaultLocale = language.Und

// Sorter sorts records. It is safe for concurrent use.
type Sorter struct {
	cache *memo.Cache[int]

	mu     sync.Mutex
	loose  *collate.Collator
	strict *collate.Collator
}

// Option configures a Sorter.
type Option func(*config)

type config struct {
	capacity int
	locale   language.Tag
	metrics  *metric.Metrics
}

// WithCapacity sets the compare cache capacity.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithLocale selects the collation locale.
func WithLocale(tag language.Tag) Option {
	return func(c *config) {
		c.locale = tag
	}
}

// WithMetrics reports compare cache activity.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// New creates a Sorter.
func New(opts ...Option) *Sorter {
	cfg := &config{capacity: memo.DefaultCapacity, locale: DefaultLocale}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Sorter{
		cache:  memo.New[int](cfg.capacity, memo.WithMetrics(cfg.metrics, "compare")),
		loose:  collate.New(cfg.locale, collate.Loose),
		strict: collate.New(cfg.locale),
	}
}

// Sort returns sorted copies of records with rowidx set to each record's
// output position. The input slice and its records are not modified. Records
// that tie on every directive keep their relative order.
func (s *Sorter) Sort(records []record.Record, directives []Directive) []record.Record {
	out := record.CloneAll(records)
	if len(directives) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return s.Compare(out[i], out[j], directives) < 0
		})
	}
	for i, r := range out {
		r[record.FieldRowIdx] = i
	}
	return out
}

// Compare orders two records. Directives are evaluated from the last to the
// first and each non-zero result replaces the previous one, so the first
// directive in the list decides unless it ties.
func (s *Sorter) Compare(a, b record.Record, directives []Directive) int {
	result := 0
	for i := len(directives) - 1; i >= 0; i-- {
		if c := s.compareDirective(a, b, directives[i]); c != 0 {
			result = c
		}
	}
	return result
}

func (s *Sorter) compareDirective(a, b record.Record, d Directive) int {
	var c int
	if d.Field == FieldPointKey {
		c = s.compareField(a, b, record.FieldKey)
		if c == 0 {
			c = s.compareField(a, b, record.FieldIdx)
		}
	} else {
		c = s.compareField(a, b, d.Field)
	}
	if d.Descending {
		return -c
	}
	return c
}

func (s *Sorter) compareField(a, b record.Record, field string) int {
	av, aok := a[field]
	bv, bok := b[field]
	aok = aok && av != nil
	bok = bok && bv != nil

	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	as, bs := record.String(av), record.String(bv)
	if as == bs {
		return 0
	}
	if an, ok := record.Number(av); ok {
		if bn, ok := record.Number(bv); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	return s.CompareStrings(as, bs)
}

// CompareStrings compares two strings with the locale collator, ignoring
// punctuation, spaces, case and accents first. Strings equal under that
// comparison are ordered by the full collation and then bytewise, so only
// identical strings compare equal.
func (s *Sorter) CompareStrings(a, b string) int {
	return s.cache.GetOrCompute(a+"\x00"+b, func() int {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c := s.loose.CompareString(stripIgnorable(a), stripIgnorable(b)); c != 0 {
			return c
		}
		if c := s.strict.CompareString(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

func stripIgnorable(v string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, v)
}

// Reset empties the compare cache.
func (s *Sorter) Reset() {
	s.cache.Reset()
}

// CacheStats exposes compare cache activity.
func (s *Sorter) CacheStats() memo.Stats {
	return s.cache.Stats()
}
