package source

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Options selects and tunes a source.
type Options struct {
	// Dir reads documents from a local directory. Takes precedence over URL.
	Dir string
	// URL is the upstream API base URL.
	URL     string
	Timeout time.Duration
	Breaker BreakerSettings
	// Transport replaces the HTTP transport of URL sources.
	Transport http.RoundTripper
	// CacheDir enables the on-disk cache for URL sources when set.
	CacheDir           string
	CacheTTL           time.Duration
	CacheMaxEntryBytes uint64
	// Validate checks every document against the FeatureCollection schema.
	Validate bool
	Logger   *slog.Logger
}

// Open builds a Source from opts.
func Open(opts Options) (*Documents, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fetcher, err := openFetcher(opts, logger)
	if err != nil {
		return nil, err
	}

	return NewDocuments(fetcher, WithValidation(opts.Validate), WithLogger(logger)), nil
}

func openFetcher(opts Options, logger *slog.Logger) (Fetcher, error) {
	if opts.Dir != "" {
		return NewDirSource(opts.Dir), nil
	}

	if opts.URL == "" {
		return nil, ErrNoSource
	}

	httpOpts := []HTTPOption{WithHTTPLogger(logger)}
	if opts.Transport != nil {
		httpOpts = append(httpOpts, WithTransport(opts.Transport))
	}

	httpSrc, err := NewHTTPSource(opts.URL, opts.Timeout, opts.Breaker, httpOpts...)
	if err != nil {
		return nil, err
	}

	if opts.CacheDir == "" {
		return httpSrc, nil
	}

	return NewCachedSource(httpSrc, CacheOptions{
		Dir:           opts.CacheDir,
		Namespace:     opts.URL,
		TTL:           opts.CacheTTL,
		MaxEntryBytes: opts.CacheMaxEntryBytes,
		Logger:        logger,
	}), nil
}

// ListYears returns the snapshot years present in dir, ascending.
func ListYears(dir string) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, snapshotPrefix+"*"+geojsonExt))
	if err != nil {
		return nil, err
	}

	years := make([]int, 0, len(matches))

	for _, m := range matches {
		base := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), snapshotPrefix), geojsonExt)

		year, convErr := strconv.Atoi(base)
		if convErr != nil || year <= 0 {
			continue
		}

		info, statErr := os.Stat(m)
		if statErr != nil || info.IsDir() {
			continue
		}

		years = append(years, year)
	}

	slices.Sort(years)

	return years, nil
}
