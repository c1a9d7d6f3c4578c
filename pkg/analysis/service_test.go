package analysis_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/lulcflow/pkg/aggregate"
	"github.com/Sumatoshi-tech/lulcflow/pkg/analysis"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
	"github.com/Sumatoshi-tech/lulcflow/pkg/observability"
	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
)

// Water→Trees five times, Trees→Water twice, Trees→Crops three times.
const transitions = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 1, "to_class_code": 2, "from_year": 2017, "to_year": 2023, "area_km2": 1}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 1, "to_class_code": 2, "from_year": 2017, "to_year": 2023, "area_km2": 1}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 1, "to_class_code": 2, "from_year": 2017, "to_year": 2023, "area_km2": 1}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 1, "to_class_code": 2, "from_year": 2017, "to_year": 2023, "area_km2": 1}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 1, "to_class_code": 2, "from_year": 2017, "to_year": 2023, "area_km2": 1}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 2, "to_class_code": 1, "from_year": 2017, "to_year": 2023, "area_km2": 2}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 2, "to_class_code": 1, "from_year": 2017, "to_year": 2023, "area_km2": 2}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 2, "to_class_code": 5, "from_year": 2017, "to_year": 2023, "area_km2": 3}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 2, "to_class_code": 5, "from_year": 2017, "to_year": 2023, "area_km2": 3}},
  {"type": "Feature", "geometry": null, "properties": {"from_class_code": 2, "to_class_code": 5, "from_year": 2015, "to_year": 2017, "area_km2": 3}}
]}`

const snapshot2017 = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "geometry": null, "properties": {"class_code": 1, "area_km2": 40}},
  {"type": "Feature", "geometry": null, "properties": {"class_code": 2, "area_km2": 60}}
]}`

func writeDir(t *testing.T, docs map[string]string) source.Source {
	t.Helper()

	dir := t.TempDir()
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	return source.NewDocuments(source.NewDirSource(dir))
}

func TestService_Delta(t *testing.T) {
	t.Parallel()

	src := writeDir(t, map[string]string{source.TransitionsDocument: transitions})
	svc := analysis.NewService(nil)

	summary, err := svc.Delta(context.Background(), src, analysis.DeltaRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2017, summary.FromYear)
	assert.Equal(t, 2023, summary.ToYear)
	assert.Equal(t, aggregate.ModeTransitions, summary.Mode)
	assert.InDelta(t, 3.0, summary.TotalFromKm2, 1e-9)
	assert.InDelta(t, 15.0, summary.TotalToKm2, 1e-9)
	require.Len(t, summary.Rows, 3)
	assert.Equal(t, lulc.ClassCode(2), summary.Rows[0].Code)
	assert.InDelta(t, 5.0, summary.Rows[0].DeltaKm2, 1e-9)
}

func TestService_Delta_UnknownYear(t *testing.T) {
	t.Parallel()

	src := writeDir(t, map[string]string{source.TransitionsDocument: transitions})

	_, err := analysis.NewService(nil).Delta(context.Background(), src, analysis.DeltaRequest{FromYear: 1990})
	require.ErrorIs(t, err, aggregate.ErrYearNotFound)
}

func TestService_Delta_NoData(t *testing.T) {
	t.Parallel()

	src := writeDir(t, map[string]string{})

	_, err := analysis.NewService(nil).Delta(context.Background(), src, analysis.DeltaRequest{FromYear: 2017, ToYear: 2023})
	require.ErrorIs(t, err, analysis.ErrNoData)
}

func TestService_Flow(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	src := writeDir(t, map[string]string{source.TransitionsDocument: transitions})
	svc := analysis.NewService(nil, analysis.WithTracer(tp.Tracer("test")))

	graph, err := svc.Flow(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 10, graph.TotalTransitions)
	require.Len(t, graph.Edges, 2)
	require.Len(t, graph.Rejected, 1)
	assert.Equal(t, lulc.ClassCode(2), graph.Rejected[0].Source)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "analysis.flow", spans[0].Name)
}

func TestService_Flow_LogsClosingCycle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	src := writeDir(t, map[string]string{source.TransitionsDocument: transitions})

	_, err := analysis.NewService(nil, analysis.WithLogger(logger)).Flow(context.Background(), src)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "edge dropped to break cycle")
	assert.Contains(t, out, "cycle=\"[2 1 2]\"")
}

func TestService_Years(t *testing.T) {
	t.Parallel()

	src := writeDir(t, map[string]string{
		source.TransitionsDocument:    transitions,
		source.SnapshotDocument(2017): snapshot2017,
	})
	svc := analysis.NewService(nil)

	totals, err := svc.Years(context.Background(), src, analysis.YearsRequest{Years: []int{2017}})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 2017, totals[0].Year)
	assert.InDelta(t, 3.0, totals[0].TotalKm2, 1e-9)

	totals, err = svc.Years(context.Background(), src, analysis.YearsRequest{Years: []int{2017}, SnapshotsOnly: true})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.InDelta(t, 100.0, totals[0].TotalKm2, 1e-9)
}

func TestService_RecordsLoadMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	sm, err := observability.NewSourceMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	src := writeDir(t, map[string]string{source.TransitionsDocument: transitions})
	svc := analysis.NewService(nil, analysis.WithSourceMetrics(sm))

	_, err = svc.Years(context.Background(), src, analysis.YearsRequest{Years: []int{2017, 2020}})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	values := map[string]int64{}

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) > 0 {
				values[m.Name] = sum.DataPoints[0].Value
			}
		}
	}

	assert.Equal(t, int64(1), values["lulcflow.source.documents.total"])
	assert.Equal(t, int64(2), values["lulcflow.source.missing_years.total"])
}

func TestService_Metrics(t *testing.T) {
	t.Parallel()

	svc := analysis.NewService(lulc.DefaultCatalog())

	names := make([]string, 0, 3)
	for _, d := range svc.Metrics() {
		names = append(names, d.Name())
	}

	assert.Equal(t, []string{"class_delta", "transition_flow", "year_totals"}, names)
	assert.Equal(t, 9, svc.Catalog().Len())
}

func TestService_Years_DiscoversDirectoryYears(t *testing.T) {
	t.Parallel()

	snapshot2020 := `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "geometry": null, "properties": {"class_code": 5, "area_km2": 7}}
]}`

	src := writeDir(t, map[string]string{
		source.SnapshotDocument(2017): snapshot2017,
		source.SnapshotDocument(2020): snapshot2020,
	})

	totals, err := analysis.NewService(nil).Years(context.Background(), src, analysis.YearsRequest{SnapshotsOnly: true})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 2020, totals[1].Year)
	assert.InDelta(t, 7.0, totals[1].TotalKm2, 1e-9)

	summary, err := analysis.NewService(nil).Delta(context.Background(), src, analysis.DeltaRequest{})
	require.NoError(t, err)
	assert.Equal(t, aggregate.ModeSnapshots, summary.Mode)
	assert.Equal(t, 2017, summary.FromYear)
	assert.Equal(t, 2020, summary.ToYear)
}
