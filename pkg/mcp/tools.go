package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/lulcflow/pkg/analysis"
	"github.com/Sumatoshi-tech/lulcflow/pkg/report"
	"github.com/Sumatoshi-tech/lulcflow/pkg/source"
)

// Tool name constants.
const (
	ToolNameDelta = "lulc_delta"
	ToolNameFlow  = "lulc_flow"
	ToolNameYears = "lulc_years"
)

// Sentinel errors for tool input validation.
var (
	// ErrConflictingSource indicates both dir and url were given.
	ErrConflictingSource = errors.New("dir and url are mutually exclusive")
	// ErrDirNotAbsolute indicates the dir parameter is a relative path.
	ErrDirNotAbsolute = errors.New("dir must be an absolute path")
	// ErrInvalidYear indicates a non-positive year.
	ErrInvalidYear = errors.New("years must be positive")
)

// SourceInput selects the data source of a tool call. Empty fields fall back
// to the server defaults.
type SourceInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"absolute path of a directory holding class_changes.geojson and lulc_classes_<year>.geojson"`
	URL string `json:"url,omitempty" jsonschema:"base URL of the LULC API serving /geojson/<document>"`
}

// DeltaInput is the input schema for the lulc_delta tool.
type DeltaInput struct {
	SourceInput

	Years    []int `json:"years,omitempty"     jsonschema:"extra snapshot years to fetch"`
	FromYear int   `json:"from_year,omitempty" jsonschema:"baseline year (default: first year with data)"`
	ToYear   int   `json:"to_year,omitempty"   jsonschema:"comparison year (default: last year with data)"`
}

// FlowInput is the input schema for the lulc_flow tool.
type FlowInput struct {
	SourceInput
}

// YearsInput is the input schema for the lulc_years tool.
type YearsInput struct {
	SourceInput

	Years         []int `json:"years,omitempty"          jsonschema:"snapshot years to fetch"`
	SnapshotsOnly bool  `json:"snapshots_only,omitempty" jsonschema:"ignore the transition document"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

const (
	deltaToolUsage = "Inputs: optional dir or url, from_year, to_year, years."
	flowToolUsage  = "Inputs: optional dir or url. " +
		"Returns nodes with layers, accepted edges and the edges dropped to break cycles."
	yearsToolUsage = "Inputs: optional dir or url, years, snapshots_only."
)

// maxURLSources bounds the upstream sources kept between tool calls.
const maxURLSources = 16

type toolHandler struct {
	service  *analysis.Service
	defaults source.Options

	mu sync.Mutex
	// urlSources keeps one source per upstream URL so its circuit breaker
	// and cache counters survive across tool calls.
	urlSources map[string]*source.Documents
}

func newToolHandler(svc *analysis.Service, defaults source.Options) *toolHandler {
	return &toolHandler{
		service:    svc,
		defaults:   defaults,
		urlSources: make(map[string]*source.Documents),
	}
}

// describe builds a tool description from the metric it computes.
func (h *toolHandler) describe(metricName, usage string) string {
	for _, d := range h.service.Metrics() {
		if d.Name() == metricName {
			return d.Description() + " " + usage
		}
	}

	return usage
}

func (h *toolHandler) handleDelta(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input DeltaInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateYears(append(append([]int{}, input.Years...), nonZero(input.FromYear, input.ToYear)...))
	if err != nil {
		return errorResult(err)
	}

	src, err := h.open(input.SourceInput)
	if err != nil {
		return errorResult(err)
	}

	summary, err := h.service.Delta(ctx, src, analysis.DeltaRequest{
		Years:    input.Years,
		FromYear: input.FromYear,
		ToYear:   input.ToYear,
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(summary)
}

func (h *toolHandler) handleFlow(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input FlowInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	src, err := h.open(input.SourceInput)
	if err != nil {
		return errorResult(err)
	}

	graph, err := h.service.Flow(ctx, src)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(report.NewFlowDocument(h.service.Catalog(), graph))
}

func (h *toolHandler) handleYears(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input YearsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateYears(input.Years)
	if err != nil {
		return errorResult(err)
	}

	src, err := h.open(input.SourceInput)
	if err != nil {
		return errorResult(err)
	}

	totals, err := h.service.Years(ctx, src, analysis.YearsRequest{
		Years:         input.Years,
		SnapshotsOnly: input.SnapshotsOnly,
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(totals)
}

// open resolves the tool's source against the server defaults. Directory
// sources are opened per call; URL sources are shared.
func (h *toolHandler) open(input SourceInput) (source.Source, error) {
	opts := h.defaults

	switch {
	case input.Dir != "" && input.URL != "":
		return nil, ErrConflictingSource
	case input.Dir != "":
		if !filepath.IsAbs(input.Dir) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotAbsolute, input.Dir)
		}

		opts.Dir, opts.URL = input.Dir, ""
	case input.URL != "":
		opts.Dir, opts.URL = "", input.URL
	}

	if opts.Dir == "" && opts.URL != "" {
		return h.urlSource(opts)
	}

	docs, err := source.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	return docs, nil
}

func (h *toolHandler) urlSource(opts source.Options) (*source.Documents, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if docs, ok := h.urlSources[opts.URL]; ok {
		return docs, nil
	}

	docs, err := source.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	if len(h.urlSources) >= maxURLSources {
		for key := range h.urlSources {
			if key != h.defaults.URL {
				delete(h.urlSources, key)

				break
			}
		}
	}

	h.urlSources[opts.URL] = docs

	return docs, nil
}

func validateYears(years []int) error {
	for _, y := range years {
		if y <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidYear, y)
		}
	}

	return nil
}

func nonZero(values ...int) []int {
	out := make([]int, 0, len(values))

	for _, v := range values {
		if v != 0 {
			out = append(out, v)
		}
	}

	return out
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
