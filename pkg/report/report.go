// Package report renders class-area comparisons, year totals and transition
// flow graphs as text, tables, JSON, YAML or interactive HTML plots.
package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/lulcflow/pkg/aggregate"
	"github.com/Sumatoshi-tech/lulcflow/pkg/flowgraph"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
	"github.com/Sumatoshi-tech/lulcflow/pkg/report/terminal"
)

// Output formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatPlot  = "plot"

	// FormatYMLAlias is accepted for FormatYAML.
	FormatYMLAlias = "yml"
)

// ErrUnsupportedFormat indicates the requested output format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formats returns the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatTable, FormatJSON, FormatYAML, FormatPlot}
}

// NormalizeFormat canonicalizes a user-provided output format string.
func NormalizeFormat(format string) string {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if normalized == FormatYMLAlias {
		return FormatYAML
	}

	return normalized
}

// ValidateFormat returns the canonical format or ErrUnsupportedFormat.
func ValidateFormat(format string) (string, error) {
	normalized := NormalizeFormat(format)
	if slices.Contains(Formats(), normalized) {
		return normalized, nil
	}

	return "", fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, format, strings.Join(Formats(), ", "))
}

// Renderer writes reports in any supported format.
type Renderer struct {
	catalog *lulc.Catalog
	term    terminal.Config
	theme   Theme
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTerminal sets the terminal configuration used by text output.
func WithTerminal(cfg terminal.Config) Option {
	return func(r *Renderer) { r.term = cfg }
}

// WithTheme sets the plot theme.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) { r.theme = theme }
}

// NewRenderer creates a Renderer labelling classes from catalog.
func NewRenderer(catalog *lulc.Catalog, opts ...Option) *Renderer {
	if catalog == nil {
		catalog = lulc.DefaultCatalog()
	}

	r := &Renderer{
		catalog: catalog,
		term:    terminal.NewConfig(),
		theme:   ThemeLight,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Delta writes a year-to-year class comparison.
func (r *Renderer) Delta(w io.Writer, format string, summary aggregate.Summary) error {
	normalized, err := ValidateFormat(format)
	if err != nil {
		return err
	}

	switch normalized {
	case FormatText:
		return r.deltaText(w, summary)
	case FormatTable:
		return r.deltaTable(w, summary)
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatYAML:
		return writeYAML(w, summary)
	default:
		return r.deltaPlot(w, summary)
	}
}

// Flow writes a transition flow graph.
func (r *Renderer) Flow(w io.Writer, format string, graph flowgraph.Graph) error {
	normalized, err := ValidateFormat(format)
	if err != nil {
		return err
	}

	doc := NewFlowDocument(r.catalog, graph)

	switch normalized {
	case FormatText:
		return r.flowText(w, doc)
	case FormatTable:
		return r.flowTable(w, doc)
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatYAML:
		return writeYAML(w, doc)
	default:
		return r.flowPlot(w, doc)
	}
}

// Years writes the total area of every year.
func (r *Renderer) Years(w io.Writer, format string, totals []aggregate.YearTotal) error {
	normalized, err := ValidateFormat(format)
	if err != nil {
		return err
	}

	if totals == nil {
		totals = []aggregate.YearTotal{}
	}

	switch normalized {
	case FormatText:
		return r.yearsText(w, totals)
	case FormatTable:
		return r.yearsTable(w, totals)
	case FormatJSON:
		return writeJSON(w, totals)
	case FormatYAML:
		return writeYAML(w, totals)
	default:
		return r.yearsPlot(w, totals)
	}
}
