// Package config loads lulcflow configuration from YAML files and
// LULCFLOW_* environment variables.
package config

import "time"

// Source defaults.
const (
	DefaultSourceURL            = "http://127.0.0.1:8000"
	DefaultSourceTimeout        = 30 * time.Second
	DefaultSourceMaxConcurrency = 4
	DefaultSourceValidate       = false
)

// Cache defaults.
const (
	DefaultCacheEnabled      = false
	DefaultCacheDirectory    = ""
	DefaultCacheTTL          = 24 * time.Hour
	DefaultCacheMaxEntrySize = "256MB"
)

// Circuit breaker defaults.
const (
	DefaultBreakerMaxRequests  = 1
	DefaultBreakerInterval     = time.Minute
	DefaultBreakerTimeout      = 30 * time.Second
	DefaultBreakerFailureRatio = 0.6
	DefaultBreakerMinRequests  = 3
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
)

// Telemetry defaults.
const (
	DefaultTelemetryInsecure    = false
	DefaultTelemetrySampleRatio = 1.0
)
