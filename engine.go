// Package pointdeck assembles the data engine for the ballistics dataset
// browser: the parameter registry, value formatter, sorter, filter
// evaluator and point indexer, held by one Engine with an explicit Reset.
package pointdeck

import (
	"log/slog"

	"github.com/ballistics/pointdeck/adapters"
	"github.com/ballistics/pointdeck/filter"
	"github.com/ballistics/pointdeck/format"
	"github.com/ballistics/pointdeck/index"
	"github.com/ballistics/pointdeck/memo"
	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/params"
	"github.com/ballistics/pointdeck/pipeline"
	"github.com/ballistics/pointdeck/record"
	"github.com/ballistics/pointdeck/sorting"
)

// Engine owns one registry and one set of memo caches. Independent engines
// share no state.
type Engine struct {
	Registry  *params.Registry
	Formatter *format.Formatter
	Sorter    *sorting.Sorter
	Evaluator *filter.Evaluator
	Indexer   *index.Indexer

	logger  *slog.Logger
	metrics *metric.Metrics
}

// Config tunes an Engine. Zero values select defaults.
type Config struct {
	Descriptors     []params.Descriptor
	FormatCapacity  int
	CompareCapacity int
	DisplayUnits    map[string]string
	Presets         map[string]string
	Logger          *slog.Logger
	Metrics         *metric.Metrics
}

// New builds an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defs := cfg.Descriptors
	if defs == nil {
		defs = params.DefaultDescriptors()
	}
	formatCap := cfg.FormatCapacity
	if formatCap <= 0 {
		formatCap = memo.DefaultCapacity
	}
	compareCap := cfg.CompareCapacity
	if compareCap <= 0 {
		compareCap = memo.DefaultCapacity
	}

	registry := params.New(defs, params.WithLogger(logger.With("component", "registry")))
	formatter := format.New(
		format.WithCapacity(formatCap),
		format.WithDisplayUnits(cfg.DisplayUnits),
		format.WithMetrics(cfg.Metrics),
	)
	return &Engine{
		Registry:  registry,
		Formatter: formatter,
		Sorter: sorting.New(
			sorting.WithCapacity(compareCap),
			sorting.WithMetrics(cfg.Metrics),
		),
		Evaluator: filter.New(
			filter.WithLogger(logger.With("component", "filter")),
			filter.WithMetrics(cfg.Metrics),
			filter.WithPresets(cfg.Presets),
		),
		Indexer: index.New(registry, formatter,
			index.WithLogger(logger.With("component", "index")),
			index.WithMetrics(cfg.Metrics),
		),
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// Format renders value for the named field.
func (e *Engine) Format(value interface{}, field string) string {
	if d, ok := e.Registry.Lookup(field); ok {
		return e.Formatter.Format(value, &d)
	}
	return e.Formatter.Format(value, nil)
}

// Sort returns sorted copies of records.
func (e *Engine) Sort(records []record.Record, directives []sorting.Directive) []record.Record {
	return e.Sorter.Sort(records, directives)
}

// Filter returns the records matching expression, or records unchanged when
// the expression fails.
func (e *Engine) Filter(records []record.Record, expression string) []record.Record {
	return e.Evaluator.Filter(records, expression)
}

// Index builds a point index over records.
func (e *Engine) Index(records []record.Record) record.PointIndex {
	return e.Indexer.Index(records)
}

// NewWorker creates a pipeline worker fetching from source and indexing with
// this engine.
func (e *Engine) NewWorker(source adapters.ResourceSource, opts ...pipeline.Option) *pipeline.Worker {
	base := []pipeline.Option{
		pipeline.WithLogger(e.logger.With("component", "pipeline", "source", source.Name())),
		pipeline.WithMetrics(e.metrics),
	}
	return pipeline.New(source, e.Indexer, append(base, opts...)...)
}

// Reset restores the registry to its definitions and empties every cache.
func (e *Engine) Reset() {
	e.Registry.Reset()
	e.Formatter.Reset()
	e.Sorter.Reset()
	e.Evaluator.Reset()
}
