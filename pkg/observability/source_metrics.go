package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricDocumentsTotal   = "lulcflow.source.documents.total"
	metricMissingTotal     = "lulcflow.source.missing_years.total"
	metricLoadDuration     = "lulcflow.source.load.duration.seconds"
	metricCacheHitsTotal   = "lulcflow.source.cache.hits.total"
	metricCacheMissesTotal = "lulcflow.source.cache.misses.total"

	attrAggregation = "aggregate.mode"
)

// SourceMetrics holds OTel instruments for dataset loads.
type SourceMetrics struct {
	documentsTotal metric.Int64Counter
	missingTotal   metric.Int64Counter
	loadDuration   metric.Float64Histogram
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
}

// LoadStats summarises one dataset load, decoupled from source types.
type LoadStats struct {
	// Mode is the aggregation mode the dataset ended up in.
	Mode         string
	Documents    int
	MissingYears int
	Duration     time.Duration
	CacheHits    int64
	CacheMisses  int64
}

// NewSourceMetrics creates dataset load instruments from the given meter.
func NewSourceMetrics(mt metric.Meter) (*SourceMetrics, error) {
	docs, err := mt.Int64Counter(metricDocumentsTotal,
		metric.WithDescription("GeoJSON documents fetched"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDocumentsTotal, err)
	}

	missing, err := mt.Int64Counter(metricMissingTotal,
		metric.WithDescription("Requested snapshot years the source did not have"),
		metric.WithUnit("{year}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMissingTotal, err)
	}

	loadDur, err := mt.Float64Histogram(metricLoadDuration,
		metric.WithDescription("Dataset load duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLoadDuration, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Document cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("Document cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	return &SourceMetrics{
		documentsTotal: docs,
		missingTotal:   missing,
		loadDuration:   loadDur,
		cacheHits:      hits,
		cacheMisses:    misses,
	}, nil
}

// RecordLoad records the statistics of a completed load.
// Safe to call on a nil receiver (no-op).
func (sm *SourceMetrics) RecordLoad(ctx context.Context, stats LoadStats) {
	if sm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrAggregation, stats.Mode))

	sm.documentsTotal.Add(ctx, int64(stats.Documents), attrs)
	sm.missingTotal.Add(ctx, int64(stats.MissingYears), attrs)
	sm.loadDuration.Record(ctx, stats.Duration.Seconds(), attrs)
	sm.cacheHits.Add(ctx, stats.CacheHits)
	sm.cacheMisses.Add(ctx, stats.CacheMisses)
}
