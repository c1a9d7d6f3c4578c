package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Default HTTP settings.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxDocumentBytes = 512 << 20
	documentsPath           = "geojson"
	breakerName       = "lulcflow-upstream"
	statusClassFactor = 100
	statusClassOK     = 2
)

// BreakerSettings configures the circuit breaker around upstream calls.
type BreakerSettings struct {
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval is the cyclic reset period of the closed-state counts.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// FailureRatio trips the breaker once reached, after MinRequests.
	FailureRatio float64
	// MinRequests is the minimum request count before the ratio applies.
	MinRequests uint32
}

// DefaultBreakerSettings returns production defaults.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  3,
	}
}

// HTTPSource fetches documents from the upstream API at <base>/geojson/<name>.
type HTTPSource struct {
	base    *url.URL
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
	// maxBytes caps a response body.
	maxBytes int64
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTransport sets the transport of the HTTP client, keeping its timeout.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(s *HTTPSource) {
		s.client.Transport = rt
	}
}

// WithMaxDocumentBytes caps the size of a fetched document; n <= 0 keeps
// DefaultMaxDocumentBytes.
func WithMaxDocumentBytes(n int64) HTTPOption {
	return func(s *HTTPSource) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithHTTPLogger sets the logger used for breaker state changes.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(s *HTTPSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHTTPSource creates an HTTPSource for baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration, breaker BreakerSettings, opts ...HTTPOption) (*HTTPSource, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("parse base URL: %q: missing scheme or host", baseURL)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &HTTPSource{
		base:   base,
		client:   &http.Client{Timeout: timeout},
		logger:   slog.Default(),
		maxBytes: DefaultMaxDocumentBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: breaker.MaxRequests,
		Interval:    breaker.Interval,
		Timeout:     breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breaker.MinRequests || counts.Requests == 0 {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= breaker.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return s, nil
}

// URL returns the absolute URL of a document.
func (s *HTTPSource) URL(name string) string {
	return s.base.JoinPath(documentsPath, name).String()
}

// Fetch implements Fetcher.
func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.get(ctx, s.URL(name))
	})
	if err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}

	return body, nil
}

func (s *HTTPSource) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}

	if resp.StatusCode/statusClassFactor != statusClassOK {
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes: %s", ErrDocumentTooLarge, s.maxBytes, target)
	}

	return body, nil
}

// State returns the current breaker state.
func (s *HTTPSource) State() gobreaker.State {
	return s.breaker.State()
}
