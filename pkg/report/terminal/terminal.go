// Package terminal provides terminal rendering utilities for CLI reports.
package terminal

import (
	"os"
	"strconv"
)

// Default width constants.
const (
	DefaultWidth = 80
	MinWidth     = 60
	MaxWidth     = 120
)

// Config holds terminal rendering configuration.
type Config struct {
	Width   int
	NoColor bool
}

// NewConfig creates a Config from the environment.
// NO_COLOR disables colour; COLUMNS sets the width, clamped to [MinWidth, MaxWidth].
func NewConfig() Config {
	return Config{
		Width:   ClampWidth(DetectWidth()),
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// DetectWidth returns the terminal width from COLUMNS environment variable,
// or DefaultWidth if not set or invalid.
func DetectWidth() int {
	columnsEnv := os.Getenv("COLUMNS")
	if columnsEnv == "" {
		return DefaultWidth
	}

	width, err := strconv.Atoi(columnsEnv)
	if err != nil || width <= 0 {
		return DefaultWidth
	}

	return width
}

// ClampWidth restricts width to [MinWidth, MaxWidth].
func ClampWidth(width int) int {
	return max(MinWidth, min(width, MaxWidth))
}
