// Package index merges record collections into a point index keyed by
// `<key>-<idx>` and attaches formatted display companions to every field.
package index

import (
	"log/slog"

	"github.com/ballistics/pointdeck/format"
	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/params"
	"github.com/ballistics/pointdeck/record"
)

// Indexer builds point indices using a registry for field metadata and a
// formatter for display companions.
type Indexer struct {
	registry  *params.Registry
	formatter *format.Formatter
	logger    *slog.Logger
	metrics   *metric.Metrics
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Indexer) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// WithMetrics reports the index size.
func WithMetrics(m *metric.Metrics) Option {
	return func(x *Indexer) {
		x.metrics = m
	}
}

// New creates an Indexer.
func New(registry *params.Registry, formatter *format.Formatter, opts ...Option) *Indexer {
	x := &Indexer{
		registry:  registry,
		formatter: formatter,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Index builds a new point index from records.
func (x *Indexer) Index(records []record.Record) record.PointIndex {
	return x.Merge(make(record.PointIndex, len(records)), records)
}

// IndexWithUpdate reconciles the registry with observed before indexing.
// A nil observed reconciles against the fields present in records.
func (x *Indexer) IndexWithUpdate(records []record.Record, observed map[string]params.Partial) record.PointIndex {
	if observed == nil {
		observed = Observed(records)
	}
	x.registry.Reconcile(observed)
	return x.Index(records)
}

// Merge adds records to an existing index, overwriting entries with the same
// pointkey. Each record is stamped with its pointkey and its formatted
// companions in place.
func (x *Indexer) Merge(into record.PointIndex, records []record.Record) record.PointIndex {
	if into == nil {
		into = make(record.PointIndex, len(records))
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		x.Decorate(r)
		into[r.PointKey()] = r
	}
	x.metrics.SetIndexedPoints(len(into))
	x.logger.Debug("indexed records", "records", len(records), "points", len(into))
	return into
}

// Decorate stamps the pointkey and writes a companion for every raw field
// whose formatted value differs from its raw text. Companions that would
// repeat the raw text are removed.
func (x *Indexer) Decorate(r record.Record) {
	r[record.FieldPointKey] = r.PointKey()

	fields := make([]string, 0, len(r))
	for field := range r {
		if !record.IsCompanion(field) {
			fields = append(fields, field)
		}
	}

	for _, field := range fields {
		value := r[field]
		var desc *params.Descriptor
		if d, ok := x.registry.Lookup(field); ok {
			desc = &d
		}
		formatted := x.formatter.Format(value, desc)
		companion := record.CompanionOf(field)
		if formatted != record.String(value) {
			r[companion] = formatted
		} else {
			delete(r, companion)
		}
	}
}

// Observed collects the raw fields present in records, excluding companions
// and the derived pointkey and rowidx fields.
func Observed(records []record.Record) map[string]params.Partial {
	observed := make(map[string]params.Partial)
	for _, r := range records {
		for field := range r {
			if record.IsCompanion(field) || field == record.FieldPointKey || field == record.FieldRowIdx {
				continue
			}
			observed[field] = params.Partial{}
		}
	}
	return observed
}
