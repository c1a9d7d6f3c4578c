package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
)

// Sentinel validation errors.
var (
	ErrInvalidTimeout      = errors.New("source timeout must be positive")
	ErrInvalidConcurrency  = errors.New("source max concurrency must be positive")
	ErrInvalidYear         = errors.New("source years must be positive")
	ErrInvalidCacheSize    = errors.New("invalid cache max entry size")
	ErrInvalidFailureRatio = errors.New("breaker failure ratio must be within (0, 1]")
	ErrInvalidMinRequests  = errors.New("breaker min requests must be positive")
	ErrInvalidLogLevel     = errors.New("invalid logging level")
	ErrInvalidLogFormat    = errors.New("invalid logging format")
	ErrInvalidSampleRatio  = errors.New("telemetry sample ratio must be within [0, 1]")
	ErrInvalidClass        = errors.New("invalid catalog class")
)

// EnvPrefix is the prefix of environment overrides, e.g. LULCFLOW_SOURCE_URL.
const EnvPrefix = "LULCFLOW"

// Config holds all lulcflow configuration.
type Config struct {
	Source    SourceConfig    `mapstructure:"source"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	// Catalog replaces the built-in class table when non-empty.
	Catalog []lulc.Class `mapstructure:"catalog"`
}

// SourceConfig selects where documents come from.
type SourceConfig struct {
	Dir            string        `mapstructure:"dir"`
	URL            string        `mapstructure:"url"`
	Years          []int         `mapstructure:"years"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Validate       bool          `mapstructure:"validate"`
}

// CacheConfig holds the on-disk document cache settings.
type CacheConfig struct {
	Directory    string        `mapstructure:"directory"`
	MaxEntrySize string        `mapstructure:"max_entry_size"`
	TTL          time.Duration `mapstructure:"ttl"`
	Enabled      bool          `mapstructure:"enabled"`
}

// BreakerConfig tunes the upstream circuit breaker.
type BreakerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Insecure     bool    `mapstructure:"insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches ./lulcflow.yaml, ./config and /etc/lulcflow.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("lulcflow")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/lulcflow")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("source.dir", "")
	viperCfg.SetDefault("source.url", DefaultSourceURL)
	viperCfg.SetDefault("source.years", []int{})
	viperCfg.SetDefault("source.timeout", DefaultSourceTimeout)
	viperCfg.SetDefault("source.max_concurrency", DefaultSourceMaxConcurrency)
	viperCfg.SetDefault("source.validate", DefaultSourceValidate)

	viperCfg.SetDefault("cache.enabled", DefaultCacheEnabled)
	viperCfg.SetDefault("cache.directory", DefaultCacheDirectory)
	viperCfg.SetDefault("cache.ttl", DefaultCacheTTL)
	viperCfg.SetDefault("cache.max_entry_size", DefaultCacheMaxEntrySize)

	viperCfg.SetDefault("breaker.max_requests", DefaultBreakerMaxRequests)
	viperCfg.SetDefault("breaker.interval", DefaultBreakerInterval)
	viperCfg.SetDefault("breaker.timeout", DefaultBreakerTimeout)
	viperCfg.SetDefault("breaker.failure_ratio", DefaultBreakerFailureRatio)
	viperCfg.SetDefault("breaker.min_requests", DefaultBreakerMinRequests)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.format", DefaultLoggingFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.insecure", DefaultTelemetryInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
}

func validateConfig(config *Config) error {
	if config.Source.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, config.Source.Timeout)
	}

	if config.Source.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, config.Source.MaxConcurrency)
	}

	for _, year := range config.Source.Years {
		if year <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidYear, year)
		}
	}

	_, sizeErr := config.Cache.MaxEntryBytes()
	if sizeErr != nil {
		return sizeErr
	}

	if config.Breaker.FailureRatio <= 0 || config.Breaker.FailureRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidFailureRatio, config.Breaker.FailureRatio)
	}

	if config.Breaker.MinRequests == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMinRequests, config.Breaker.MinRequests)
	}

	_, levelErr := ParseLevel(config.Logging.Level)
	if levelErr != nil {
		return levelErr
	}

	switch strings.ToLower(config.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	for _, class := range config.Catalog {
		if !class.Code.Valid() || class.Label == "" {
			return fmt.Errorf("%w: code %d label %q", ErrInvalidClass, class.Code, class.Label)
		}
	}

	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}

	return level, nil
}

// MaxEntryBytes parses MaxEntrySize; an empty size means no limit.
func (c CacheConfig) MaxEntryBytes() (uint64, error) {
	if c.MaxEntrySize == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(c.MaxEntrySize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCacheSize, c.MaxEntrySize)
	}

	return n, nil
}

// CacheDir resolves the cache directory; empty when caching is disabled.
// An enabled cache without a directory lives under the user cache dir.
func (c CacheConfig) CacheDir(userCacheDir func() (string, error)) string {
	if !c.Enabled {
		return ""
	}

	if c.Directory != "" {
		return c.Directory
	}

	base, err := userCacheDir()
	if err != nil {
		return ""
	}

	return filepath.Join(base, "lulcflow")
}

// Settings converts the section into source circuit breaker settings.
func (b BreakerConfig) Settings() source.BreakerSettings {
	return source.BreakerSettings{
		MaxRequests:  b.MaxRequests,
		Interval:     b.Interval,
		Timeout:      b.Timeout,
		FailureRatio: b.FailureRatio,
		MinRequests:  b.MinRequests,
	}
}

// SourceOptions builds the options for source.Open.
func (c *Config) SourceOptions(userCacheDir func() (string, error), logger *slog.Logger) source.Options {
	maxEntry, err := c.Cache.MaxEntryBytes()
	if err != nil {
		maxEntry = 0
	}

	return source.Options{
		Dir:                c.Source.Dir,
		URL:                c.Source.URL,
		Timeout:            c.Source.Timeout,
		Breaker:            c.Breaker.Settings(),
		CacheDir:           c.Cache.CacheDir(userCacheDir),
		CacheTTL:           c.Cache.TTL,
		CacheMaxEntryBytes: maxEntry,
		Validate:           c.Source.Validate,
		Logger:             logger,
	}
}

// ClassCatalog returns the configured catalog, or the built-in one.
func (c *Config) ClassCatalog() *lulc.Catalog {
	if len(c.Catalog) == 0 {
		return lulc.DefaultCatalog()
	}

	return lulc.NewCatalog(c.Catalog)
}
