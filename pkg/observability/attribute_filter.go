package observability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exportedPrefixes lists the attribute namespaces lulcflow spans may export.
var exportedPrefixes = []string{
	"lulcflow.",
	"aggregate.",
	"cache.",
	"error.",
	"flow.",
	"http.",
	"mcp.",
	"report.",
	"source.",
	"url.",
}

// strippedKeys never leave the process, whatever their namespace.
var strippedKeys = []string{
	"http.request.header.authorization",
	"http.request.body",
	"http.response.body",
	"source.body",
}

// attributeFilter is a SpanProcessor that drops span attributes outside
// exportedPrefixes, and those in strippedKeys, before the delegate sees them.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
	warned   sync.Map
}

// NewAttributeFilter wraps delegate. When logger is non-nil every dropped
// key is reported once.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger}
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

// exported reports whether key may leave the process.
func (f *attributeFilter) exported(key string) bool {
	ok := key == "error" ||
		!slices.Contains(strippedKeys, key) &&
			slices.ContainsFunc(exportedPrefixes, func(p string) bool { return strings.HasPrefix(key, p) })

	if !ok && f.logger != nil {
		if _, seen := f.warned.LoadOrStore(key, struct{}{}); !seen {
			f.logger.Warn("span attribute dropped", "key", key)
		}
	}

	return ok
}

// filteredSpan exposes only the exported attributes of a finished span.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	return slices.DeleteFunc(slices.Clone(s.ReadOnlySpan.Attributes()), func(kv attribute.KeyValue) bool {
		return !s.filter.exported(string(kv.Key))
	})
}
