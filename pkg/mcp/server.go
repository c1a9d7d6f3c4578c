// Package mcp implements a Model Context Protocol server exposing the
// lulcflow analyses as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/lulcflow/pkg/analysis"
	"github.com/Sumatoshi-tech/lulcflow/pkg/observability"
	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
	"github.com/Sumatoshi-tech/lulcflow/pkg/version"
)

const (
	serverName = "lulcflow"

	toolCount = 3
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Service runs the analyses. Nil uses a service over the default catalog.
	Service *analysis.Service

	// Source is the default source; tool inputs may override Dir or URL.
	Source source.Options
}

// Server wraps the MCP SDK server with the lulcflow tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
	handler *toolHandler
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	svc := deps.Service
	if svc == nil {
		svcOpts := []analysis.Option{}
		if deps.Logger != nil {
			svcOpts = append(svcOpts, analysis.WithLogger(deps.Logger))
		}

		if deps.Tracer != nil {
			svcOpts = append(svcOpts, analysis.WithTracer(deps.Tracer))
		}

		svc = analysis.NewService(nil, svcOpts...)
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		handler: newToolHandler(svc, deps.Source),
	}

	if deps.Source.Dir == "" && deps.Source.URL != "" {
		_, err := srv.handler.urlSource(deps.Source)
		if err != nil && deps.Logger != nil {
			deps.Logger.Warn("default source unavailable", "error", err)
		}
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := slices.Clone(s.tools)
	slices.Sort(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	h := s.handler

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameDelta,
		Description: h.describe("class_delta", deltaToolUsage),
	}, withMetrics(s.metrics, ToolNameDelta, withTracing(s.tracer, ToolNameDelta, h.handleDelta)))
	s.trackTool(ToolNameDelta)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameFlow,
		Description: h.describe("transition_flow", flowToolUsage),
	}, withMetrics(s.metrics, ToolNameFlow, withTracing(s.tracer, ToolNameFlow, h.handleFlow)))
	s.trackTool(ToolNameFlow)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameYears,
		Description: h.describe("year_totals", yearsToolUsage),
	}, withMetrics(s.metrics, ToolNameYears, withTracing(s.tracer, ToolNameYears, h.handleYears)))
	s.trackTool(ToolNameYears)
}

const (
	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
	toolLogKey     = "tool"
)

type toolFunc[Input any] = mcpsdk.ToolHandlerFor[Input, ToolOutput]

// withTracing wraps a tool handler in a span and appends the trace_id to
// the response content when the span is sampled.
func withTracing[Input any](tracer trace.Tracer, toolName string, handler toolFunc[Input]) toolFunc[Input] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx = observability.WithLogAttrs(ctx, slog.String(toolLogKey, toolName))

		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: traceIDMetaKey + "=" + sc.TraceID().String()})
		}

		return result, output, err
	}
}

// withMetrics wraps a tool handler to record RED metrics per invocation.
func withMetrics[Input any](metrics *observability.REDMetrics, toolName string, handler toolFunc[Input]) toolFunc[Input] {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, op)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}
