package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lulcflow/pkg/aggregate"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
)

const transitionsDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": null,
     "properties": {"from_class_code": 2, "to_class_code": 5, "from_year": 2017, "to_year": 2023, "area_km2": 1.5}},
    {"type": "Feature", "geometry": null,
     "properties": {"class_from": "1", "class_to": "2", "year_from": "2017", "year_to": "2023", "area": 2}}
  ]
}`

const snapshotDoc2017 = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": null, "properties": {"code": 1, "area_km2": 100}},
    {"type": "Feature", "geometry": null, "properties": {"code": 0, "area_km2": 50}}
  ]
}`

const snapshotDoc2023 = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": null, "properties": {"class_code": 1, "area_km2": 80}}
  ]
}`

const noYearTransitionsDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": null, "properties": {"source": 1, "target": 2}}
  ]
}`

func writeDocs(t *testing.T, docs map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	return dir
}

func TestSnapshotDocument(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "lulc_classes_2017.geojson", source.SnapshotDocument(2017))
}

func TestDirSource_Documents(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{
		source.TransitionsDocument:      transitionsDoc,
		source.SnapshotDocument(2017):   snapshotDoc2017,
		source.SnapshotDocument(2023):   snapshotDoc2023,
		"lulc_classes_notayear.geojson": snapshotDoc2023,
	})

	src := source.NewDocuments(source.NewDirSource(dir), source.WithValidation(true))

	fc, err := src.Transitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	snap, err := src.Snapshot(context.Background(), 2017)
	require.NoError(t, err)
	assert.Len(t, snap.Features, 2)

	_, err = src.Snapshot(context.Background(), 1999)
	require.ErrorIs(t, err, source.ErrNotFound)

	years, err := source.ListYears(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{2017, 2023}, years)
}

func TestDirSource_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.NewDirSource(t.TempDir()).Fetch(ctx, source.TransitionsDocument)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDocuments_InvalidJSON(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{source.TransitionsDocument: `{"type": "Feature"`})

	_, err := source.NewDocuments(source.NewDirSource(dir)).Transitions(context.Background())
	require.ErrorIs(t, err, source.ErrInvalidDocument)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{
		source.TransitionsDocument:    transitionsDoc,
		source.SnapshotDocument(2017): snapshotDoc2017,
		source.SnapshotDocument(2023): snapshotDoc2023,
	})

	ds, err := source.Load(context.Background(), source.NewDocuments(source.NewDirSource(dir)),
		[]int{2017, 2023, 2017, 2020}, source.LoadOptions{MaxConcurrency: 2})
	require.NoError(t, err)

	require.Len(t, ds.Transitions, 2)
	assert.Equal(t, lulc.ClassCode(1), ds.Transitions[1].FromClass)
	assert.Equal(t, 2023, ds.Transitions[1].ToYear)
	assert.Equal(t, []int{2020}, ds.Missing)
	assert.Equal(t, 3, ds.Fetched)
	assert.Equal(t, []lulc.Snapshot{{Code: 1, AreaKm2: 100}}, ds.Snapshots[2017])

	table, mode := ds.Table()
	assert.Equal(t, aggregate.ModeTransitions, mode)
	assert.InDelta(t, 1.5, table[2023][5], 1e-9)
	assert.InDelta(t, 2.0, table[2023][2], 1e-9)
}

func TestLoad_SnapshotFallback(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{
		source.TransitionsDocument:    noYearTransitionsDoc,
		source.SnapshotDocument(2017): snapshotDoc2017,
		source.SnapshotDocument(2023): snapshotDoc2023,
	})

	ds, err := source.Load(context.Background(), source.NewDocuments(source.NewDirSource(dir)),
		[]int{2017, 2023}, source.LoadOptions{})
	require.NoError(t, err)

	table, mode := ds.Table()
	assert.Equal(t, aggregate.ModeSnapshots, mode)
	assert.InDelta(t, 100.0, table[2017][1], 1e-9)
	assert.InDelta(t, 80.0, table[2023][1], 1e-9)
}

func TestLoad_MissingTransitions(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{source.SnapshotDocument(2023): snapshotDoc2023})

	ds, err := source.Load(context.Background(), source.NewDocuments(source.NewDirSource(dir)),
		[]int{2023}, source.LoadOptions{})
	require.NoError(t, err)
	assert.Empty(t, ds.Transitions)
	assert.Len(t, ds.Snapshots[2023], 1)
}

func TestLoad_PropagatesErrors(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{source.TransitionsDocument: `not json`})

	_, err := source.Load(context.Background(), source.NewDocuments(source.NewDirSource(dir)), nil, source.LoadOptions{})
	require.ErrorIs(t, err, source.ErrInvalidDocument)
}

func TestHTTPSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/geojson/class_changes.geojson":
			_, _ = w.Write([]byte(transitionsDoc))
		case "/api/geojson/lulc_classes_2023.geojson":
			_, _ = w.Write([]byte(snapshotDoc2023))
		case "/api/geojson/lulc_classes_2000.geojson":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	httpSrc, err := source.NewHTTPSource(srv.URL+"/api/", time.Second, source.DefaultBreakerSettings())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/api/geojson/class_changes.geojson", httpSrc.URL(source.TransitionsDocument))

	src := source.NewDocuments(httpSrc)

	fc, err := src.Transitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	_, err = src.Snapshot(context.Background(), 2017)
	require.ErrorIs(t, err, source.ErrNotFound)

	_, err = src.Snapshot(context.Background(), 2000)
	require.ErrorIs(t, err, source.ErrUnexpectedStatus)
}

func TestHTTPSource_BreakerOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	settings := source.BreakerSettings{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureRatio: 0.5, MinRequests: 2}

	httpSrc, err := source.NewHTTPSource(srv.URL, time.Second, settings)
	require.NoError(t, err)

	for range 2 {
		_, err = httpSrc.Fetch(context.Background(), source.TransitionsDocument)
		require.ErrorIs(t, err, source.ErrUnexpectedStatus)
	}

	assert.Equal(t, gobreaker.StateOpen, httpSrc.State())

	_, err = httpSrc.Fetch(context.Background(), source.TransitionsDocument)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPSource_MaxDocumentBytes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(transitionsDoc))
	}))
	t.Cleanup(srv.Close)

	size := int64(len(transitionsDoc))

	exact, err := source.NewHTTPSource(srv.URL, time.Second, source.DefaultBreakerSettings(), source.WithMaxDocumentBytes(size))
	require.NoError(t, err)

	body, err := exact.Fetch(context.Background(), source.TransitionsDocument)
	require.NoError(t, err)
	assert.Len(t, body, len(transitionsDoc))

	small, err := source.NewHTTPSource(srv.URL, time.Second, source.DefaultBreakerSettings(), source.WithMaxDocumentBytes(size-1))
	require.NoError(t, err)

	dir := t.TempDir()
	cached := source.NewCachedSource(small, source.CacheOptions{Dir: dir, Namespace: srv.URL})

	_, err = cached.Fetch(context.Background(), source.TransitionsDocument)
	require.ErrorIs(t, err, source.ErrDocumentTooLarge)

	entries, err := filepath.Glob(filepath.Join(dir, "*.lz4"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewHTTPSource_RejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := source.NewHTTPSource("not a url", 0, source.DefaultBreakerSettings())
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	_, err := source.Open(source.Options{})
	require.ErrorIs(t, err, source.ErrNoSource)

	src, err := source.Open(source.Options{Dir: t.TempDir(), URL: "http://ignored"})
	require.NoError(t, err)
	assert.NotNil(t, src)

	src, err = source.Open(source.Options{URL: "http://example.invalid", CacheDir: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, src)
}

type countingFetcher struct {
	calls atomic.Int32
	body  []byte
}

func (f *countingFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.calls.Add(1)

	return f.body, nil
}

func TestCachedSource_RoundTrip(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{body: []byte(transitionsDoc + transitionsDoc + transitionsDoc)}
	dir := t.TempDir()

	cached := source.NewCachedSource(next, source.CacheOptions{Dir: dir, Namespace: "upstream", TTL: time.Hour})

	first, err := cached.Fetch(context.Background(), source.TransitionsDocument)
	require.NoError(t, err)

	second, err := cached.Fetch(context.Background(), source.TransitionsDocument)
	require.NoError(t, err)

	assert.Equal(t, next.body, first)
	assert.Equal(t, next.body, second)
	assert.Equal(t, int32(1), next.calls.Load())

	entries, err := filepath.Glob(filepath.Join(dir, "*.lz4"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	info, err := os.Stat(entries[0])
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(next.body)))

	require.NoError(t, cached.Purge())

	_, err = cached.Fetch(context.Background(), source.TransitionsDocument)
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, source.CacheStats{Hits: 1, Misses: 2}, cached.Stats())

	docs := source.NewDocuments(cached)
	stats, ok := docs.CacheStats()
	assert.True(t, ok)
	assert.Equal(t, int64(1), stats.Hits)

	_, ok = source.NewDocuments(source.NewDirSource(dir)).CacheStats()
	assert.False(t, ok)
}

func TestCachedSource_Incompressible(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{body: []byte("ab")}
	cached := source.NewCachedSource(next, source.CacheOptions{Dir: t.TempDir()})

	for range 2 {
		got, err := cached.Fetch(context.Background(), "tiny")
		require.NoError(t, err)
		assert.Equal(t, []byte("ab"), got)
	}

	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedSource_Expired(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{body: []byte(snapshotDoc2023)}
	dir := t.TempDir()
	cached := source.NewCachedSource(next, source.CacheOptions{Dir: dir, TTL: time.Minute})

	_, err := cached.Fetch(context.Background(), "doc")
	require.NoError(t, err)

	entries, err := filepath.Glob(filepath.Join(dir, "*.lz4"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(entries[0], old, old))

	_, err = cached.Fetch(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedSource_CorruptEntryRefetches(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{body: []byte(snapshotDoc2023)}
	dir := t.TempDir()
	cached := source.NewCachedSource(next, source.CacheOptions{Dir: dir})

	_, err := cached.Fetch(context.Background(), "doc")
	require.NoError(t, err)

	entries, err := filepath.Glob(filepath.Join(dir, "*.lz4"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(entries[0], []byte{9}, 0o600))

	got, err := cached.Fetch(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, next.body, got)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestDocuments_RejectedDocumentLeavesCache(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{body: []byte(`not json`)}
	dir := t.TempDir()

	docs := source.NewDocuments(source.NewCachedSource(next, source.CacheOptions{Dir: dir, TTL: time.Hour}))

	for range 2 {
		_, err := docs.Transitions(context.Background())
		require.ErrorIs(t, err, source.ErrInvalidDocument)
	}

	assert.Equal(t, int32(2), next.calls.Load())

	entries, err := filepath.Glob(filepath.Join(dir, "*.lz4"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDocuments_PurgeCache(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{body: []byte(transitionsDoc)}
	docs := source.NewDocuments(source.NewCachedSource(next, source.CacheOptions{Dir: t.TempDir()}))

	_, err := docs.Transitions(context.Background())
	require.NoError(t, err)

	purged, err := docs.PurgeCache()
	require.NoError(t, err)
	assert.True(t, purged)

	_, err = docs.Transitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())

	purged, err = source.NewDocuments(source.NewDirSource(t.TempDir())).PurgeCache()
	require.NoError(t, err)
	assert.False(t, purged)
}

func TestCheck(t *testing.T) {
	t.Parallel()

	report, err := source.Check([]byte(transitionsDoc))
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Issues)

	report, err = source.Check([]byte(`{"type": "Feature", "features": [{"type": "Feature"}]}`))
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.Issues)

	_, err = source.Check([]byte(`{`))
	require.ErrorIs(t, err, source.ErrMalformedJSON)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, source.Validate([]byte(snapshotDoc2017)))

	err := source.Validate([]byte(`{"type": "FeatureCollection"}`))
	require.ErrorIs(t, err, source.ErrInvalidDocument)
	assert.Contains(t, err.Error(), "features")

	assert.NotEmpty(t, source.Schema())
}

func TestCachedSource_MaxEntryBytes(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{body: []byte(snapshotDoc2023)}
	dir := t.TempDir()
	cached := source.NewCachedSource(next, source.CacheOptions{Dir: dir, MaxEntryBytes: 16})

	for range 2 {
		got, err := cached.Fetch(context.Background(), "doc")
		require.NoError(t, err)
		assert.Equal(t, next.body, got)
	}

	assert.Equal(t, int32(2), next.calls.Load())

	entries, err := filepath.Glob(filepath.Join(dir, "*.lz4"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestOpen_Transport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(snapshotDoc2023))
	}))
	t.Cleanup(srv.Close)

	var seen atomic.Int32

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen.Add(1)

		return http.DefaultTransport.RoundTrip(req)
	})

	src, err := source.Open(source.Options{URL: srv.URL, Transport: rt})
	require.NoError(t, err)

	fc, err := src.Snapshot(context.Background(), 2023)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
	assert.Equal(t, int32(1), seen.Load())
}
