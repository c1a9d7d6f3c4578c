package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lulcflow/pkg/analysis"
	"github.com/Sumatoshi-tech/lulcflow/pkg/config"
	"github.com/Sumatoshi-tech/lulcflow/pkg/observability"
	"github.com/Sumatoshi-tech/lulcflow/pkg/report"
	"github.com/Sumatoshi-tech/lulcflow/pkg/report/terminal"
	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
	"github.com/Sumatoshi-tech/lulcflow/pkg/version"
)

// ErrUnknownTheme indicates an unsupported --theme value.
var ErrUnknownTheme = errors.New("unknown theme")

// sourceFlags override the source section of the configuration.
type sourceFlags struct {
	dir      string
	url      string
	years    []int
	timeout  time.Duration
	cacheDir string
	noCache  bool
	purge    bool
	validate bool
}

func (sf *sourceFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&sf.dir, "dir", "", "read documents from a local directory (overrides --url)")
	flags.StringVar(&sf.url, "url", "", "LULC API base URL")
	flags.IntSliceVar(&sf.years, "years", nil, "snapshot years to fetch (e.g. 2017,2020,2023)")
	flags.DurationVar(&sf.timeout, "timeout", 0, "upstream request timeout (e.g. 30s)")
	flags.StringVar(&sf.cacheDir, "cache-dir", "", "cache upstream documents in this directory")
	flags.BoolVar(&sf.noCache, "no-cache", false, "disable the document cache")
	flags.BoolVar(&sf.purge, "purge-cache", false, "remove cached documents before fetching")
	flags.BoolVar(&sf.validate, "validate", false, "validate documents against the GeoJSON schema")
}

func (sf *sourceFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("dir") {
		cfg.Source.Dir = sf.dir
	}

	if flags.Changed("url") {
		cfg.Source.URL = sf.url

		if !flags.Changed("dir") {
			cfg.Source.Dir = ""
		}
	}

	if flags.Changed("years") {
		cfg.Source.Years = sf.years
	}

	if sf.timeout > 0 {
		cfg.Source.Timeout = sf.timeout
	}

	if sf.cacheDir != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Directory = sf.cacheDir
	}

	if sf.noCache {
		cfg.Cache.Enabled = false
	}

	if flags.Changed("validate") {
		cfg.Source.Validate = sf.validate
	}
}

// reportFlags select the output of a report command.
type reportFlags struct {
	format string
	output string
	theme  string
}

func (rf *reportFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&rf.format, "format", "f", report.FormatText, "output format: text, table, json, yaml, plot")
	flags.StringVarP(&rf.output, "output", "o", "", "write the report to a file instead of stdout")
	flags.StringVar(&rf.theme, "theme", string(report.ThemeLight), "plot theme: light, dark")
}

func (rf *reportFlags) validate() (string, error) {
	format, err := report.ValidateFormat(rf.format)
	if err != nil {
		return "", err
	}

	switch report.Theme(rf.theme) {
	case report.ThemeLight, report.ThemeDark:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, rf.theme)
	}

	return format, nil
}

func (rf *reportFlags) renderer(global *GlobalOptions, cfg *config.Config) *report.Renderer {
	term := terminal.NewConfig()
	if global.NoColor || rf.output != "" {
		term.NoColor = true
	}

	return report.NewRenderer(cfg.ClassCatalog(),
		report.WithTerminal(term),
		report.WithTheme(report.Theme(rf.theme)),
	)
}

// write runs render against stdout or the --output file.
func (rf *reportFlags) write(cmd *cobra.Command, render func(io.Writer) error) error {
	if rf.output == "" {
		return render(cmd.OutOrStdout())
	}

	f, err := os.Create(rf.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	renderErr := render(f)

	return errors.Join(renderErr, f.Close())
}

// env holds what a command needs after startup.
type env struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	// purgeCache empties the document cache when the source is opened.
	purgeCache bool
}

func (e *env) close() {
	err := e.providers.Shutdown(context.Background())
	if err != nil {
		e.logger.Warn("observability shutdown failed", "error", err)
	}
}

// startup loads configuration, applies flag overrides and initializes
// logging and telemetry.
func startup(cmd *cobra.Command, global *GlobalOptions, sf *sourceFlags, obs observability.Config) (*env, error) {
	cfg, err := config.LoadConfig(global.ConfigPath)
	if err != nil {
		return nil, err
	}

	if sf != nil {
		sf.apply(cmd, cfg)
	}

	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	switch {
	case global.Quiet:
		level = slog.LevelError
	case global.Verbose, obs.DebugTrace:
		level = slog.LevelDebug
	}

	obs.ServiceVersion = version.Version
	obs.LogLevel = level
	obs.LogJSON = obs.LogJSON || cfg.Logging.Format == "json"
	obs.LogOutput = cmd.ErrOrStderr()
	obs.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obs.OTLPInsecure = cfg.Telemetry.Insecure
	obs.SampleRatio = cfg.Telemetry.SampleRatio

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		obs.OTLPEndpoint = endpoint
		obs.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
		obs.OTLPInsecure = obs.OTLPInsecure || os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	}

	providers, err := observability.Init(obs)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	e := &env{cfg: cfg, providers: providers, logger: providers.Logger}
	if sf != nil {
		e.purgeCache = sf.purge
	}

	return e, nil
}

// service builds the analysis service from the configuration.
func (e *env) service() (*analysis.Service, error) {
	sm, err := observability.NewSourceMetrics(e.providers.Meter)
	if err != nil {
		return nil, err
	}

	return analysis.NewService(e.cfg.ClassCatalog(),
		analysis.WithLoadOptions(source.LoadOptions{MaxConcurrency: e.cfg.Source.MaxConcurrency}),
		analysis.WithSourceMetrics(sm),
		analysis.WithTracer(e.providers.Tracer),
		analysis.WithLogger(e.logger),
	), nil
}

func (e *env) sourceOptions() source.Options {
	opts := e.cfg.SourceOptions(os.UserCacheDir, e.logger)
	opts.Transport = observability.NewTransport(e.providers.Tracer, nil)

	return opts
}

func (e *env) openSource() (*source.Documents, error) {
	src, err := source.Open(e.sourceOptions())
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	if e.purgeCache {
		purged, purgeErr := src.PurgeCache()

		switch {
		case purgeErr != nil:
			return nil, fmt.Errorf("purge cache: %w", purgeErr)
		case purged:
			e.logger.Info("document cache purged")
		default:
			e.logger.Warn("no document cache to purge")
		}
	}

	return src, nil
}
