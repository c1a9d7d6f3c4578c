// Package analysis runs the delta, flow and year-total analyses against a
// document source. It is shared by the CLI commands and the MCP tools.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/lulcflow/pkg/aggregate"
	"github.com/Sumatoshi-tech/lulcflow/pkg/flowgraph"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
	"github.com/Sumatoshi-tech/lulcflow/pkg/metrics"
	"github.com/Sumatoshi-tech/lulcflow/pkg/observability"
	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
)

// ErrNoData indicates the source produced no class area at all.
var ErrNoData = errors.New("no class area in source")

const tracerName = "lulcflow/analysis"

// Service runs analyses. The zero value is not usable; use NewService.
type Service struct {
	catalog  *lulc.Catalog
	registry *metrics.Registry
	delta    *aggregate.ClassDeltaMetric
	totals   *aggregate.YearTotalsMetric
	flow     *flowgraph.TransitionFlowMetric
	load     source.LoadOptions
	metrics  *observability.SourceMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLoadOptions sets the options passed to source.Load.
func WithLoadOptions(opts source.LoadOptions) Option {
	return func(s *Service) { s.load = opts }
}

// WithSourceMetrics records dataset loads.
func WithSourceMetrics(m *observability.SourceMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service over catalog; nil uses the default catalog.
func NewService(catalog *lulc.Catalog, opts ...Option) *Service {
	if catalog == nil {
		catalog = lulc.DefaultCatalog()
	}

	s := &Service{
		catalog:  catalog,
		registry: metrics.NewRegistry(),
		delta:    aggregate.NewClassDeltaMetric(catalog),
		totals:   aggregate.NewYearTotalsMetric(),
		flow:     flowgraph.NewTransitionFlowMetric(),
		tracer:   otel.Tracer(tracerName),
		logger:   slog.Default(),
	}

	metrics.Register(s.registry, s.delta)
	metrics.Register(s.registry, s.totals)
	metrics.Register(s.registry, s.flow)

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.load.Logger == nil {
		s.load.Logger = s.logger
	}

	return s
}

// Catalog returns the class catalog.
func (s *Service) Catalog() *lulc.Catalog {
	return s.catalog
}

// Metrics returns the descriptors of the computations the service runs.
func (s *Service) Metrics() []metrics.Descriptor {
	return s.registry.Descriptors()
}

// DeltaRequest selects the years of a delta analysis.
type DeltaRequest struct {
	// Years are snapshot years to fetch besides FromYear and ToYear.
	Years []int
	// FromYear and ToYear default to the first and last year with data.
	FromYear int
	ToYear   int
}

// Delta compares the class areas of two years.
func (s *Service) Delta(ctx context.Context, src source.Source, req DeltaRequest) (aggregate.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.delta")
	defer span.End()

	years := append(s.snapshotYears(ctx, src, req.Years), req.FromYear, req.ToYear)

	ds, err := s.loadDataset(ctx, src, years, false)
	if err != nil {
		return aggregate.Summary{}, fail(span, err)
	}

	table, mode := ds.Table()
	if len(table) == 0 {
		return aggregate.Summary{}, fail(span, ErrNoData)
	}

	fromYear, toYear := aggregate.DefaultYears(table)
	if req.FromYear != 0 {
		fromYear = req.FromYear
	}

	if req.ToYear != 0 {
		toYear = req.ToYear
	}

	err = aggregate.CheckYears(table, fromYear, toYear)
	if err != nil {
		return aggregate.Summary{}, fail(span, err)
	}

	summary := s.delta.Compute(aggregate.DeltaInput{Table: table, Mode: mode, FromYear: fromYear, ToYear: toYear})

	span.SetAttributes(
		attribute.Int("aggregate.from_year", fromYear),
		attribute.Int("aggregate.to_year", toYear),
		attribute.String("aggregate.mode", string(mode)),
		attribute.Int("aggregate.rows", len(summary.Rows)),
	)

	return summary, nil
}

// Flow builds the acyclic transition graph.
func (s *Service) Flow(ctx context.Context, src source.Source) (flowgraph.Graph, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.flow")
	defer span.End()

	ds, err := s.loadDataset(ctx, src, nil, false)
	if err != nil {
		return flowgraph.Graph{}, fail(span, err)
	}

	graph := s.flow.Compute(ds.Transitions)

	span.SetAttributes(
		attribute.Int("flow.transitions", graph.TotalTransitions),
		attribute.Int("flow.edges", len(graph.Edges)),
		attribute.Int("flow.rejected", len(graph.Rejected)),
	)

	if len(graph.Rejected) > 0 && s.logger.Enabled(ctx, slog.LevelDebug) {
		for _, e := range graph.Rejected {
			s.logger.DebugContext(ctx, "edge dropped to break cycle",
				"source", e.Source, "target", e.Target, "value", e.Value, "cycle", graph.ClosingCycle(e))
		}
	}

	return graph, nil
}

// YearsRequest selects the data of a year-totals analysis.
type YearsRequest struct {
	// Years are snapshot years to fetch besides the transition document.
	Years []int
	// SnapshotsOnly skips the transition document.
	SnapshotsOnly bool
}

// Years returns the total classified area per year.
func (s *Service) Years(ctx context.Context, src source.Source, req YearsRequest) ([]aggregate.YearTotal, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.years")
	defer span.End()

	ds, err := s.loadDataset(ctx, src, s.snapshotYears(ctx, src, req.Years), req.SnapshotsOnly)
	if err != nil {
		return nil, fail(span, err)
	}

	table, _ := ds.Table()

	return s.totals.Compute(table), nil
}

type yearLister interface {
	ListedYears() ([]int, bool, error)
}

// snapshotYears returns a copy of requested, or the years the source lists
// when none were requested.
func (s *Service) snapshotYears(ctx context.Context, src source.Source, requested []int) []int {
	if len(requested) > 0 {
		return slices.Clone(requested)
	}

	lister, ok := src.(yearLister)
	if !ok {
		return nil
	}

	years, ok, err := lister.ListedYears()
	if err != nil {
		s.logger.WarnContext(ctx, "listing snapshot years failed", "error", err)

		return nil
	}

	if ok {
		s.logger.DebugContext(ctx, "snapshot years discovered", "years", years)
	}

	return years
}

type cacheReporter interface {
	CacheStats() (source.CacheStats, bool)
}

func (s *Service) loadDataset(
	ctx context.Context, src source.Source, years []int, snapshotsOnly bool,
) (source.Dataset, error) {
	opts := s.load
	opts.SkipTransitions = snapshotsOnly

	reporter, _ := src.(cacheReporter)
	before := cacheStats(reporter)
	start := time.Now()

	ds, err := source.Load(ctx, src, years, opts)
	if err != nil {
		return source.Dataset{}, err
	}

	_, mode := ds.Table()

	after := cacheStats(reporter)

	s.metrics.RecordLoad(ctx, observability.LoadStats{
		Mode:         string(mode),
		Documents:    ds.Fetched,
		MissingYears: len(ds.Missing),
		Duration:     time.Since(start),
		CacheHits:    after.Hits - before.Hits,
		CacheMisses:  after.Misses - before.Misses,
	})

	return ds, nil
}

func cacheStats(r cacheReporter) source.CacheStats {
	if r == nil {
		return source.CacheStats{}
	}

	stats, _ := r.CacheStats()

	return stats
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return fmt.Errorf("analysis: %w", err)
}
