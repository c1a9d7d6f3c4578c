package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lulcflow/pkg/mcp"
	"github.com/Sumatoshi-tech/lulcflow/pkg/observability"
	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
)

const (
	metricsPath            = "/metrics"
	metricsReadHeaderLimit = 5 * time.Second
	metricsShutdownTimeout = 5 * time.Second
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(global *GlobalOptions) *cobra.Command {
	var (
		sf          sourceFlags
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the land-cover analyses as tools that AI agents
can discover and invoke:
  - lulc_delta: per-class area change between two years
  - lulc_flow: acyclic class transition flow graph
  - lulc_years: years present with their total area

Source flags set the default source for tool calls that name none.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			obs := observability.DefaultConfig()
			obs.Mode = observability.ModeMCP
			obs.LogJSON = true
			obs.Prometheus = metricsAddr != ""
			obs.DebugTrace = debug

			e, err := startup(cmd, global, &sf, obs)
			if err != nil {
				return err
			}
			defer e.close()

			red, err := observability.NewREDMetrics(e.providers.Meter)
			if err != nil {
				return err
			}

			svc, err := e.service()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if metricsAddr != "" {
				stop, serveErr := serveMetrics(ctx, e, red, metricsAddr)
				if serveErr != nil {
					return serveErr
				}
				defer stop()
			}

			if e.purgeCache {
				_, err = e.openSource()
				if err != nil && !errors.Is(err, source.ErrNoSource) {
					return err
				}
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  e.logger,
				Metrics: red,
				Tracer:  e.providers.Tracer,
				Service: svc,
				Source:  e.sourceOptions(),
			})

			return srv.Run(ctx)
		},
	}

	sf.bind(cmd)
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}

// serveMetrics exposes the Prometheus handler until stop is called.
func serveMetrics(ctx context.Context, e *env, red *observability.REDMetrics, addr string) (func(), error) {
	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, e.providers.MetricsHandler)

	srv := &http.Server{
		Handler:           observability.HTTPMiddleware(e.providers.Tracer, red, mux),
		ReadHeaderTimeout: metricsReadHeaderLimit,
	}

	go func() {
		serveErr := srv.Serve(ln)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			e.logger.Error("metrics server failed", "error", serveErr)
		}
	}()

	e.logger.Info("serving metrics", "addr", ln.Addr().String(), "path", metricsPath)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		shutdownErr := srv.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			e.logger.Warn("metrics server shutdown failed", "error", shutdownErr)
		}
	}, nil
}
