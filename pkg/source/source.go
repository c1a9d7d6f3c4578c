// Package source loads land-cover GeoJSON documents from a directory or the
// upstream HTTP API and normalises them into records.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Document names served by the upstream API.
const (
	TransitionsDocument = "class_changes.geojson"
	snapshotPrefix      = "lulc_classes_"
	geojsonExt          = ".geojson"
)

const tracerName = "lulcflow/source"

// Sentinel errors.
var (
	// ErrNoSource is returned when neither a directory nor a URL is configured.
	ErrNoSource = errors.New("no data source configured")
	// ErrUnexpectedStatus is returned for non-2xx HTTP responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrInvalidDocument is returned when a document is not a GeoJSON FeatureCollection.
	ErrInvalidDocument = errors.New("invalid GeoJSON document")
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrDocumentTooLarge is returned when a response body exceeds the size limit.
	ErrDocumentTooLarge = errors.New("document too large")
)

// SnapshotDocument returns the document name of the snapshot for year.
func SnapshotDocument(year int) string {
	return snapshotPrefix + strconv.Itoa(year) + geojsonExt
}

// Fetcher retrieves raw documents by name.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Source provides the decoded upstream collections.
type Source interface {
	// Transitions returns the class-change collection.
	Transitions(ctx context.Context) (*geojson.FeatureCollection, error)
	// Snapshot returns the classification collection of one year.
	Snapshot(ctx context.Context, year int) (*geojson.FeatureCollection, error)
}

// Documents decodes the documents of a Fetcher.
type Documents struct {
	fetcher  Fetcher
	validate bool
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures Documents.
type Option func(*Documents)

// WithValidation checks every document against the FeatureCollection schema
// before decoding.
func WithValidation(enabled bool) Option {
	return func(d *Documents) { d.validate = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Documents) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDocuments wraps fetcher as a Source.
func NewDocuments(fetcher Fetcher, opts ...Option) *Documents {
	d := &Documents{
		fetcher: fetcher,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Transitions implements Source.
func (d *Documents) Transitions(ctx context.Context) (*geojson.FeatureCollection, error) {
	return d.collection(ctx, TransitionsDocument)
}

// Snapshot implements Source.
func (d *Documents) Snapshot(ctx context.Context, year int) (*geojson.FeatureCollection, error) {
	return d.collection(ctx, SnapshotDocument(year))
}

// CacheStats reports the disk cache counters when the fetcher is cached.
func (d *Documents) CacheStats() (CacheStats, bool) {
	cached, ok := d.fetcher.(*CachedSource)
	if !ok {
		return CacheStats{}, false
	}

	return cached.Stats(), true
}

// PurgeCache removes every disk cache entry. purged is false when the
// fetcher is not cached.
func (d *Documents) PurgeCache() (purged bool, err error) {
	cached, ok := d.fetcher.(*CachedSource)
	if !ok {
		return false, nil
	}

	return true, cached.Purge()
}

// ListedYears returns the snapshot years of a directory source. ok is false
// for sources that cannot list their documents.
func (d *Documents) ListedYears() (years []int, ok bool, err error) {
	dir, ok := d.fetcher.(*DirSource)
	if !ok {
		return nil, false, nil
	}

	years, err = ListYears(dir.Dir())

	return years, true, err
}

func (d *Documents) collection(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	ctx, span := d.tracer.Start(ctx, "source.fetch", trace.WithAttributes(attribute.String("source.document", name)))
	defer span.End()

	body, err := d.fetcher.Fetch(ctx, name)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}

	if d.validate {
		err = Validate(body)
		if err != nil {
			span.RecordError(err)
			d.forget(ctx, name)

			return nil, fmt.Errorf("validate %s: %w", name, err)
		}
	}

	fc, err := Decode(body)
	if err != nil {
		span.RecordError(err)
		d.forget(ctx, name)

		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	span.SetAttributes(attribute.Int("source.features", len(fc.Features)))
	d.logger.DebugContext(ctx, "document loaded", "document", name, "features", len(fc.Features), "bytes", len(body))

	return fc, nil
}

// forget drops a rejected document from the disk cache so the next call
// refetches it.
func (d *Documents) forget(ctx context.Context, name string) {
	cached, ok := d.fetcher.(*CachedSource)
	if !ok {
		return
	}

	err := cached.Forget(name)
	if err != nil {
		d.logger.WarnContext(ctx, "dropping rejected document from cache failed", "document", name, "error", err)
	}
}

// Decode parses a GeoJSON FeatureCollection.
func Decode(body []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return fc, nil
}
