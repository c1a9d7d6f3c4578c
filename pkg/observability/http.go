package observability

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	httpOpPrefix       = "http "
	attrHTTPTarget     = "http.target"
	attrHTTPServerHost = "http.host"
)

// statusRecorder captures the first status code written.
type statusRecorder struct {
	http.ResponseWriter

	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.code == 0 {
		sr.code = code
	}

	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(buf []byte) (int, error) {
	if sr.code == 0 {
		sr.code = http.StatusOK
	}

	return sr.ResponseWriter.Write(buf) //nolint:wrapcheck // pass-through writer
}

// HTTPMiddleware wraps next with a server span named "METHOD /path" and,
// when red is non-nil, RED metrics under op "http /path". Incoming W3C
// trace context becomes the span parent.
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		parent := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parent, hr.Method+" "+hr.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				attribute.String(attrHTTPTarget, hr.URL.Path),
			),
		)
		defer span.End()

		op := httpOpPrefix + hr.URL.Path
		start := time.Now()

		if red != nil {
			done := red.TrackInflight(ctx, op)
			defer done()
		}

		sr := &statusRecorder{ResponseWriter: rw}
		next.ServeHTTP(sr, hr.WithContext(ctx))

		if sr.code == 0 {
			sr.code = http.StatusOK
		}

		span.SetAttributes(semconv.HTTPResponseStatusCode(sr.code))

		status := StatusOK
		if sr.code >= http.StatusInternalServerError {
			status = StatusError
			span.SetStatus(codes.Error, http.StatusText(sr.code))
		}

		if red != nil {
			red.RecordRequest(ctx, op, status, time.Since(start))
		}
	})
}

// Transport is an [http.RoundTripper] that traces outgoing requests and
// injects W3C trace context into their headers.
type Transport struct {
	tracer trace.Tracer
	base   http.RoundTripper
}

// NewTransport wraps base, or [http.DefaultTransport] when nil.
func NewTransport(tracer trace.Tracer, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{tracer: tracer, base: base}
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(req.Context(), req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			attribute.String(attrHTTPServerHost, req.URL.Host),
			attribute.String(attrHTTPTarget, req.URL.Path),
			semconv.URLFull(req.URL.Redacted()),
		),
	)
	defer span.End()

	out := req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(out.Header))

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err //nolint:wrapcheck // RoundTripper must not wrap
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}
