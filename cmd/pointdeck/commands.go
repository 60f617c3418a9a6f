package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ballistics/pointdeck"
	"github.com/ballistics/pointdeck/adapters"
	"github.com/ballistics/pointdeck/format"
	"github.com/ballistics/pointdeck/metric"
	"github.com/ballistics/pointdeck/pipeline"
	"github.com/ballistics/pointdeck/record"
	"github.com/ballistics/pointdeck/sorting"
	"github.com/ballistics/pointdeck/units"
)

// session is the engine, source and worker shared by the data commands.
type session struct {
	engine   *pointdeck.Engine
	source   adapters.ResourceSource
	worker   *pipeline.Worker
	logger   *slog.Logger
	metrics  *metric.Metrics
	registry *prometheus.Registry
}

func newSession(withSource bool) (*session, error) {
	logger, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		return nil, err
	}
	reg, metrics, err := metric.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	ec := engineConfig(loaded, logger)
	ec.Metrics = metrics
	engine := pointdeck.New(ec)
	if err := reconcileRegistry(loaded, engine.Registry); err != nil {
		return nil, err
	}

	s := &session{engine: engine, logger: logger, metrics: metrics, registry: reg}
	if !withSource {
		return s, nil
	}

	source, err := adapters.CreateSource(sourceSettings(loaded))
	if err != nil {
		return nil, fmt.Errorf("creating source: %w", err)
	}
	s.source = source
	s.worker = engine.NewWorker(source, pipeline.WithResources(resources(loaded)))
	return s, nil
}

func (s *session) Close() {
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			s.logger.Warn("closing source", "error", err)
		}
	}
}

// handle runs action synchronously and fails on the first response error.
func (s *session) handle(ctx context.Context, action string) (pipeline.Response, error) {
	responses := s.worker.Handle(ctx, pipeline.Request{Action: action})
	if len(responses) == 0 {
		return pipeline.Response{}, fmt.Errorf("%s: no response", action)
	}
	return responses[0], responses[0].Err
}

func defineCommands() {
	paramsCmd := &Command{
		Name:        "params",
		Description: "List the parameter registry",
		FlagSet:     flag.NewFlagSet("params", flag.ExitOnError),
	}
	primaryOnly := paramsCmd.FlagSet.Bool("primary", false, "Only list primary parameters")
	paramsJSON := paramsCmd.FlagSet.Bool("json", false, "Write JSON instead of a table")
	paramsCmd.Run = func() error {
		s, err := newSession(false)
		if err != nil {
			return err
		}
		return runParams(s, *primaryOnly, *paramsJSON)
	}
	commands[paramsCmd.Name] = paramsCmd

	indexCmd := &Command{
		Name:        "index",
		Description: "Fetch the data points and print the point index",
		FlagSet:     flag.NewFlagSet("index", flag.ExitOnError),
	}
	withResults := indexCmd.FlagSet.Bool("results", false, "Also merge the per-file results")
	indexCmd.Run = func() error {
		s, err := newSession(true)
		if err != nil {
			return err
		}
		defer s.Close()
		return runIndex(context.Background(), s, *withResults)
	}
	commands[indexCmd.Name] = indexCmd

	tableCmd := &Command{
		Name:        "table",
		Description: "Print the data points filtered and sorted",
		FlagSet:     flag.NewFlagSet("table", flag.ExitOnError),
	}
	tableOpts := tableOptions{}
	tableCmd.FlagSet.StringVar(&tableOpts.filter, "filter", "", "Filter expression, e.g. d.range > 1000")
	tableCmd.FlagSet.StringVar(&tableOpts.preset, "preset", "", "Named filter preset")
	tableCmd.FlagSet.StringVar(&tableOpts.sort, "sort", "", "Sort directives, e.g. key,-range")
	tableCmd.FlagSet.StringVar(&tableOpts.columns, "columns", "", "Comma separated columns")
	tableCmd.FlagSet.IntVar(&tableOpts.limit, "limit", 0, "Maximum rows to print")
	tableCmd.Run = func() error {
		s, err := newSession(true)
		if err != nil {
			return err
		}
		defer s.Close()
		return runTable(context.Background(), s, tableOpts)
	}
	commands[tableCmd.Name] = tableCmd

	trajCmd := &Command{
		Name:        "trajectories",
		Description: "Summarize the trajectory series",
		FlagSet:     flag.NewFlagSet("trajectories", flag.ExitOnError),
	}
	trajKey := trajCmd.FlagSet.String("point", "", "Print the samples of one trajectory by pointkey")
	trajCmd.Run = func() error {
		s, err := newSession(true)
		if err != nil {
			return err
		}
		defer s.Close()
		return runTrajectories(context.Background(), s, *trajKey)
	}
	commands[trajCmd.Name] = trajCmd

	unitsCmd := &Command{
		Name:        "units",
		Description: "Convert a value between units or list known units",
		FlagSet:     flag.NewFlagSet("units", flag.ExitOnError),
	}
	value := unitsCmd.FlagSet.Float64("value", 1, "Value to convert")
	from := unitsCmd.FlagSet.String("from", "", "Source unit expression")
	to := unitsCmd.FlagSet.String("to", "", "Target unit expression")
	unitsCmd.Run = func() error {
		if *from == "" && *to == "" {
			return listUnits()
		}
		return convertUnits(*value, *from, *to)
	}
	commands[unitsCmd.Name] = unitsCmd

	watchCmd := &Command{
		Name:        "watch",
		Description: "Run the pipeline worker and refetch on source changes",
		FlagSet:     flag.NewFlagSet("watch", flag.ExitOnError),
	}
	watchCmd.Run = func() error {
		s, err := newSession(true)
		if err != nil {
			return err
		}
		defer s.Close()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, s, *metricsAddr)
	}
	commands[watchCmd.Name] = watchCmd
}

func runParams(s *session, primaryOnly, asJSON bool) error {
	descriptors := s.engine.Registry.Descriptors()
	if primaryOnly {
		descriptors = s.engine.Registry.Primary()
	}
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(descriptors)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tKEY\tTITLE\tUNITS\tPRIMARY")
	for _, d := range descriptors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", d.Index, d.Key, d.Title(), d.Units, d.Primary)
	}
	return tw.Flush()
}

func runIndex(ctx context.Context, s *session, withResults bool) error {
	resp, err := s.handle(ctx, pipeline.ActionPlotData)
	if err != nil {
		return err
	}
	points := resp.PointKeys
	if points == nil {
		points = record.PointIndex{}
	}
	if withResults {
		results, err := s.handle(ctx, pipeline.ActionResults)
		if err != nil && results.PointKeys == nil {
			return err
		}
		if err != nil {
			s.logger.Warn("partial results", "error", err)
		}
		for k, r := range results.PointKeys {
			points[k] = r
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

type tableOptions struct {
	filter  string
	preset  string
	sort    string
	columns string
	limit   int
}

func runTable(ctx context.Context, s *session, opts tableOptions) error {
	resp, err := s.handle(ctx, pipeline.ActionPlotData)
	if err != nil {
		return err
	}
	rows := resp.PlotData
	if opts.preset != "" {
		if _, ok := s.engine.Evaluator.Preset(opts.preset); !ok {
			return fmt.Errorf("unknown preset %q (have %s)", opts.preset,
				strings.Join(s.engine.Evaluator.PresetNames(), ", "))
		}
		rows = s.engine.Evaluator.FilterPreset(rows, opts.preset)
	}
	if opts.filter != "" {
		rows = s.engine.Filter(rows, opts.filter)
	}
	rows = s.engine.Sort(rows, sorting.ParseDirectives(opts.sort))
	if opts.limit > 0 && len(rows) > opts.limit {
		rows = rows[:opts.limit]
	}

	columns := splitColumns(opts.columns)
	if len(columns) == 0 {
		columns = defaultColumns(s, rows)
	}
	return writeTable(s, rows, columns)
}

func splitColumns(text string) []string {
	var out []string
	for _, c := range strings.Split(text, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// defaultColumns is the pointkey followed by the primary parameters present
// in at least one row.
func defaultColumns(s *session, rows []record.Record) []string {
	columns := []string{record.FieldPointKey}
	for _, d := range s.engine.Registry.Primary() {
		for _, r := range rows {
			if v, ok := r[d.Key]; ok && v != nil {
				columns = append(columns, d.Key)
				break
			}
		}
	}
	return columns
}

func writeTable(s *session, rows []record.Record, columns []string) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
		if d, ok := s.engine.Registry.Lookup(c); ok {
			headers[i] = d.Title()
		}
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	cells := make([]string, len(columns))
	for _, r := range rows {
		for i, c := range columns {
			cells[i] = cell(r, c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// cell prefers the formatted companion of a field over its raw text.
func cell(r record.Record, field string) string {
	if v, ok := r[record.CompanionOf(field)].(string); ok {
		return v
	}
	v, ok := r[field]
	if !ok || v == nil {
		return "-"
	}
	return record.String(v)
}

func runTrajectories(ctx context.Context, s *session, key string) error {
	resp, err := s.handle(ctx, pipeline.ActionTrajectories)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	if key != "" {
		traj, ok := resp.Trajectories[key]
		if !ok {
			return fmt.Errorf("no trajectory for %q", key)
		}
		fmt.Fprintln(tw, strings.Join(pipeline.TrajectoryKeys, "\t"))
		for i := range traj[pipeline.TrajectoryKeys[0]] {
			cells := make([]string, len(pipeline.TrajectoryKeys))
			for j, k := range pipeline.TrajectoryKeys {
				cells[j] = "-"
				if i < len(traj[k]) {
					cells[j] = record.String(traj[k][i])
				}
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		return tw.Flush()
	}

	keys := make([]string, 0, len(resp.Trajectories))
	for k := range resp.Trajectories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(tw, "KEY\tSAMPLES")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%d\n", k, len(resp.Trajectories[k][pipeline.TrajectoryKeys[0]]))
	}
	return tw.Flush()
}

func listUnits() error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tALIASES\tPREFIX\tDESCRIPTION")
	for _, d := range units.List() {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", d.Names[0], strings.Join(d.Names[1:], ","), d.Prefix, d.Desc)
	}
	return tw.Flush()
}

func convertUnits(value float64, from, to string) error {
	if from == "" || to == "" {
		return errors.New("both -from and -to are required")
	}
	converted, err := units.Convert(value, from, to)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s %s\n", format.FormatNumber(converted), to)
	return err
}

// runWatch serves requests until ctx is done. The initial request loads
// everything; afterwards a change to a resource refetches its action when
// the source can be watched.
func runWatch(ctx context.Context, s *session, addr string) error {
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server", "error", err)
			}
		}()
		defer server.Close()
		s.logger.Info("serving metrics", "addr", addr)
	}

	if err := s.worker.Start(ctx); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for resp := range s.worker.Responses() {
			if resp.Err != nil {
				continue
			}
			s.logger.Info("response",
				"request_id", resp.RequestID,
				"action", resp.Action,
				"points", len(resp.PointKeys),
				"trajectories", len(resp.Trajectories))
		}
	}()
	go func() {
		for err := range s.worker.Errors() {
			s.logger.Warn("request failed", "error", err)
		}
	}()

	submit := func(action string) {
		if _, err := s.worker.Submit(ctx, pipeline.Request{Action: action}); err != nil && ctx.Err() == nil {
			s.logger.Error("submit", "action", action, "error", err)
		}
	}
	submit("")

	if watcher, ok := s.source.(adapters.Watcher); ok {
		changes, err := watcher.Watch(ctx)
		if err != nil {
			return err
		}
		actions := actionsByResource(resources(loaded))
		for name := range changes {
			if action, ok := actions[name]; ok {
				s.logger.Debug("resource changed", "resource", name, "action", action)
				submit(action)
			}
		}
	} else {
		s.logger.Info("source cannot be watched, serving until interrupted", "source", s.source.Name())
		<-ctx.Done()
	}

	err := s.worker.Stop()
	<-done
	return err
}

func actionsByResource(r pipeline.Resources) map[string]string {
	d := pipeline.DefaultResources()
	pick := func(name, fallback string) string {
		if name != "" {
			return name
		}
		return fallback
	}
	return map[string]string{
		pick(r.PlotData, d.PlotData):         pipeline.ActionPlotData,
		pick(r.Trajectories, d.Trajectories): pipeline.ActionTrajectories,
		pick(r.ResultsList, d.ResultsList):   pipeline.ActionResults,
		pick(r.References, d.References):     pipeline.ActionReferences,
	}
}
