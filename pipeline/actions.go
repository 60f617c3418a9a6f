package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ballistics/pointdeck/adapters"
	"github.com/ballistics/pointdeck/record"
)

func (w *Worker) fetch(ctx context.Context, id, action, name string) ([]byte, error) {
	var data []byte
	err := guard(func() error {
		raw, err := w.source.Fetch(ctx, name)
		if err != nil {
			return err
		}
		data, err = adapters.ToJSON(name, raw)
		return err
	})
	if err != nil {
		return nil, &FetchError{RequestID: id, Action: action, Resource: name, Err: err}
	}
	return data, nil
}

func (w *Worker) transformError(id, action, name string, err error) error {
	return &FetchError{RequestID: id, Action: action, Resource: name, Err: err}
}

// remember copies indexed points into the worker's own index so later
// mutation of a response does not reach it.
func (w *Worker) remember(points record.PointIndex) {
	w.pointsMu.Lock()
	defer w.pointsMu.Unlock()
	for k, r := range points {
		w.points[k] = r.Clone()
	}
}

func (w *Worker) plotData(ctx context.Context, resp *Response) {
	name := w.resources.PlotData
	data, err := w.fetch(ctx, resp.RequestID, resp.Action, name)
	if err != nil {
		resp.Err = err
		return
	}
	records, err := parseRecords(data)
	if err != nil {
		resp.Err = w.transformError(resp.RequestID, resp.Action, name, err)
		return
	}
	resp.PointKeys = w.indexer.Index(records)
	resp.PlotData = records
	w.remember(resp.PointKeys)
}

func (w *Worker) trajectories(ctx context.Context, resp *Response) {
	name := w.resources.Trajectories
	data, err := w.fetch(ctx, resp.RequestID, resp.Action, name)
	if err != nil {
		resp.Err = err
		return
	}
	trajectories, skipped, err := parseTrajectories(data)
	if err != nil {
		resp.Err = w.transformError(resp.RequestID, resp.Action, name, err)
		return
	}
	if skipped > 0 {
		w.logger.Debug("skipped incomplete trajectories", "request_id", resp.RequestID, "skipped", skipped)
	}
	resp.Trajectories = trajectories
}

// results fetches the results list and then every listed file in parallel.
// Rows of all files that could be read are merged and indexed; failed files
// are reported in resp.Err without discarding the rest.
func (w *Worker) results(ctx context.Context, resp *Response) {
	listName := w.resources.ResultsList
	data, err := w.fetch(ctx, resp.RequestID, resp.Action, listName)
	if err != nil {
		resp.Err = err
		return
	}
	files, err := parseResultsList(data)
	if err != nil {
		resp.Err = w.transformError(resp.RequestID, resp.Action, listName, err)
		return
	}

	type fileResult struct {
		meta record.Record
		rows []record.Record
	}
	loaded := make([]fileResult, len(files))

	var (
		mu       sync.Mutex
		failures []error
	)
	fail := func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.fetchLimit)
	for i, file := range files {
		g.Go(func() error {
			body, err := w.fetch(gctx, resp.RequestID, resp.Action, file.Location)
			if err != nil {
				fail(err)
				return nil
			}
			var meta record.Record
			var rows []record.Record
			err = guard(func() (err error) {
				meta, rows, err = parseResults(body)
				return err
			})
			if err != nil {
				fail(w.transformError(resp.RequestID, resp.Action, file.Location, err))
				return nil
			}
			loaded[i] = fileResult{meta: meta, rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fail(err)
	}

	var rows []record.Record
	refs := make(map[string]record.Record)
	for _, f := range loaded {
		if f.meta == nil {
			continue
		}
		rows = append(rows, f.rows...)
		if key := f.meta.Key(); key != "" {
			refs[key] = f.meta
		}
	}

	resp.PlotData = rows
	resp.PointKeys = w.indexer.Index(rows)
	resp.References = refs
	w.remember(resp.PointKeys)

	if len(failures) > 0 {
		resp.Err = errors.Join(failures...)
	}
}

func (w *Worker) references(ctx context.Context, resp *Response) {
	name := w.resources.References
	data, err := w.fetch(ctx, resp.RequestID, resp.Action, name)
	if err != nil {
		resp.Err = err
		return
	}
	refs, err := parseReferences(data)
	if err != nil {
		resp.Err = w.transformError(resp.RequestID, resp.Action, name, fmt.Errorf("references: %w", err))
		return
	}
	resp.References = refs
}
