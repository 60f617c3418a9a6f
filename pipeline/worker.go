// Package pipeline runs the fetch and transform worker: it fetches named
// JSON resources from a source, indexes them and posts the results back on
// a response channel.
//
// Requests are independent. A failed fetch produces a response carrying a
// *FetchError, is copied to the Errors channel and does not affect other
// requests in flight.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ballistics/pointdeck/adapters"
	"github.com/ballistics/pointdeck/index"
	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/record"
)

// Actions served by the worker.
const (
	ActionPlotData     = "getplotdata"
	ActionTrajectories = "gettrajectories"
	ActionResults      = "getresults"
	ActionReferences   = "getreferences"
)

// Resources names the documents each action fetches.
type Resources struct {
	PlotData     string `json:"plotdata" yaml:"plotdata"`
	Trajectories string `json:"trajectories" yaml:"trajectories"`
	ResultsList  string `json:"resultslist" yaml:"resultslist"`
	References   string `json:"references" yaml:"references"`
}

// DefaultResources returns the published dataset file names.
func DefaultResources() Resources {
	return Resources{
		PlotData:     "totallist.json",
		Trajectories: "trajectories.json",
		ResultsList:  "resultslist.json",
		References:   "references.json",
	}
}

func (r Resources) withDefaults() Resources {
	d := DefaultResources()
	if r.PlotData == "" {
		r.PlotData = d.PlotData
	}
	if r.Trajectories == "" {
		r.Trajectories = d.Trajectories
	}
	if r.ResultsList == "" {
		r.ResultsList = d.ResultsList
	}
	if r.References == "" {
		r.References = d.References
	}
	return r
}

// Request asks the worker to run an action. An empty action runs both
// getplotdata and gettrajectories.
type Request struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`
}

// Response is the result of one action.
type Response struct {
	RequestID    string                   `json:"request_id"`
	Action       string                   `json:"action"`
	PlotData     []record.Record          `json:"plotdata,omitempty"`
	PointKeys    record.PointIndex        `json:"pointkeys,omitempty"`
	Trajectories map[string]Trajectory    `json:"trajectories,omitempty"`
	References   map[string]record.Record `json:"references,omitempty"`
	Err          error                    `json:"-"`
}

// Worker processes requests from a bounded queue.
type Worker struct {
	source    adapters.ResourceSource
	indexer   *index.Indexer
	resources Resources

	queueSize   int
	concurrency int
	fetchLimit  int
	logger      *slog.Logger
	metrics     *metric.Metrics

	requests  chan Request
	responses chan Response
	errs      chan error
	wg        sync.WaitGroup

	lifecycleMu sync.RWMutex
	started     bool
	stopped     bool

	pointsMu sync.RWMutex
	points   record.PointIndex
}

// Option configures a Worker.
type Option func(*Worker)

// WithResources overrides resource names. Empty names keep their defaults.
func WithResources(r Resources) Option {
	return func(w *Worker) {
		w.resources = r.withDefaults()
	}
}

// WithQueueSize bounds the request, response and error channels.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithConcurrency sets how many requests are processed at once.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithFetchLimit bounds parallel result file fetches within one request.
func WithFetchLimit(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.fetchLimit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metric.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// New creates a worker fetching from source and indexing with indexer.
func New(source adapters.ResourceSource, indexer *index.Indexer, opts ...Option) *Worker {
	w := &Worker{
		source:      source,
		indexer:     indexer,
		resources:   DefaultResources(),
		queueSize:   16,
		concurrency: 2,
		fetchLimit:  8,
		logger:      slog.Default(),
		points:      make(record.PointIndex),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.requests = make(chan Request, w.queueSize)
	w.responses = make(chan Response, w.queueSize)
	w.errs = make(chan error, w.queueSize)
	return w
}

// Start launches the worker goroutines. They exit when ctx is done or Stop
// is called.
func (w *Worker) Start(ctx context.Context) error {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	if w.started {
		return ErrWorkerAlreadyStarted
	}
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}
	w.started = true
	return nil
}

// Submit queues a request, blocking while the queue is full. It returns the
// request ID, generating one when req.ID is empty.
func (w *Worker) Submit(ctx context.Context, req Request) (string, error) {
	w.lifecycleMu.RLock()
	defer w.lifecycleMu.RUnlock()

	if !w.started {
		return "", ErrWorkerNotStarted
	}
	if w.stopped {
		return "", ErrWorkerStopped
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	select {
	case w.requests <- req:
		return req.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Responses delivers one response per action run and must be drained;
// workers block while it is full. It is closed by Stop.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

// Errors delivers fetch and transform failures. Failures are dropped when
// nobody drains the channel. It is closed by Stop.
func (w *Worker) Errors() <-chan error {
	return w.errs
}

// Stop stops accepting requests, waits for queued work and closes the
// response and error channels.
func (w *Worker) Stop() error {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	if !w.started || w.stopped {
		return nil
	}
	w.stopped = true
	close(w.requests)
	w.wg.Wait()
	close(w.responses)
	close(w.errs)
	return nil
}

// Points returns a copy of the worker's merged point index.
func (w *Worker) Points() record.PointIndex {
	w.pointsMu.RLock()
	defer w.pointsMu.RUnlock()
	out := make(record.PointIndex, len(w.points))
	for k, r := range w.points {
		out[k] = r.Clone()
	}
	return out
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.requests:
			if !ok {
				return
			}
			for _, resp := range w.Handle(ctx, req) {
				if resp.Err != nil {
					w.report(resp.Err)
				}
				select {
				case w.responses <- resp:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *Worker) report(err error) {
	select {
	case w.errs <- err:
	default:
		w.logger.Warn("error channel full, dropping error", "error", err)
	}
}

// Handle runs a request synchronously and returns its responses.
func (w *Worker) Handle(ctx context.Context, req Request) []Response {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Action == "" {
		return []Response{
			w.run(ctx, req.ID, ActionPlotData),
			w.run(ctx, req.ID, ActionTrajectories),
		}
	}
	return []Response{w.run(ctx, req.ID, req.Action)}
}

func (w *Worker) run(ctx context.Context, id, action string) Response {
	start := time.Now()
	resp := Response{RequestID: id, Action: action}

	err := guard(func() error {
		switch action {
		case ActionPlotData:
			w.plotData(ctx, &resp)
		case ActionTrajectories:
			w.trajectories(ctx, &resp)
		case ActionResults:
			w.results(ctx, &resp)
		case ActionReferences:
			w.references(ctx, &resp)
		default:
			resp.Err = &FetchError{RequestID: id, Action: action, Err: ErrUnknownAction}
		}
		return nil
	})
	if err != nil {
		resp = Response{RequestID: id, Action: action, Err: &FetchError{RequestID: id, Action: action, Err: err}}
	}

	status := "ok"
	if resp.Err != nil {
		status = "error"
		w.logger.Error("pipeline request failed",
			"request_id", id,
			"action", action,
			"error", resp.Err)
	} else {
		w.logger.Debug("pipeline request done",
			"request_id", id,
			"action", action,
			"elapsed", time.Since(start))
	}
	w.metrics.RecordRequest(action, status, time.Since(start))
	return resp
}
