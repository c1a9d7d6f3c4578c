package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/lulcflow/pkg/aggregate"
	"github.com/Sumatoshi-tech/lulcflow/pkg/alg/stats"
	"github.com/Sumatoshi-tech/lulcflow/pkg/report/terminal"
)

// Text output constants.
const (
	textIndent         = "  "
	textIndentBothSide = 2
	textLabelWidth     = 20
	textNumberWidth    = 12
	textPctWidth       = 9
	textBarWidth       = 20
	textMaxRejected    = 10
	arrow              = "→"
	arrowPadWidth      = 3
	areaFormat         = "#,###.##"
	pctFormat          = "#,###.#"
)

// FormatArea formats km² with thousands separators and two decimals.
func FormatArea(km2 float64) string {
	return humanize.FormatFloat(areaFormat, km2)
}

// FormatSignedArea formats a km² delta with an explicit sign.
func FormatSignedArea(km2 float64) string {
	if km2 > 0 {
		return "+" + FormatArea(km2)
	}

	return FormatArea(km2)
}

// FormatSignedPct formats a percentage change with an explicit sign.
func FormatSignedPct(pct float64) string {
	s := humanize.FormatFloat(pctFormat, pct) + "%"
	if pct > 0 {
		return "+" + s
	}

	return s
}

func (r *Renderer) separator() string {
	return terminal.DrawSeparator(r.term.Width - len(textIndent)*textIndentBothSide)
}

func (r *Renderer) section(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s\n", textIndent, r.term.Colorize(title, terminal.ColorBlue))
	fmt.Fprintf(w, "%s%s\n", textIndent, r.separator())
}

func (r *Renderer) deltaText(w io.Writer, s aggregate.Summary) error {
	fmt.Fprintln(w, terminal.DrawHeader("Land Cover Change",
		fmt.Sprintf("%d %s %d", s.FromYear, arrow, s.ToYear), r.term.Width))
	fmt.Fprintln(w)

	r.section(w, "Summary")
	fmt.Fprintf(w, "%s%-22s %s km²\n", textIndent, fmt.Sprintf("Total area %d", s.FromYear), FormatArea(s.TotalFromKm2))
	fmt.Fprintf(w, "%s%-22s %s km²\n", textIndent, fmt.Sprintf("Total area %d", s.ToYear), FormatArea(s.TotalToKm2))
	fmt.Fprintf(w, "%s%-22s %s\n", textIndent, "Source", string(s.Mode))
	fmt.Fprintf(w, "%s%-22s %s\n", textIndent, "Years available", joinYears(s.Years))
	fmt.Fprintln(w)

	r.section(w, "Class Changes")

	if s.Empty() {
		fmt.Fprintf(w, "%s%s\n\n", textIndent, r.term.Colorize("No class area for the selected years.", terminal.ColorGray))

		return nil
	}

	fmt.Fprintf(w, "%s%s %s %s %s %s\n", textIndent,
		terminal.PadRight("Class", textLabelWidth),
		terminal.PadLeft(fmt.Sprintf("%d", s.FromYear), textNumberWidth),
		terminal.PadLeft(fmt.Sprintf("%d", s.ToYear), textNumberWidth),
		terminal.PadLeft("Δ km²", textNumberWidth),
		terminal.PadLeft("Δ %", textPctWidth))

	for _, row := range s.Rows {
		col := terminal.ColorForDelta(row.DeltaKm2)

		fmt.Fprintf(w, "%s%s %s %s %s %s\n", textIndent,
			terminal.PadRight(terminal.TruncateWithEllipsis(row.Label, textLabelWidth), textLabelWidth),
			terminal.PadLeft(FormatArea(row.FromKm2), textNumberWidth),
			terminal.PadLeft(FormatArea(row.ToKm2), textNumberWidth),
			r.term.Colorize(terminal.PadLeft(FormatSignedArea(row.DeltaKm2), textNumberWidth), col),
			r.term.Colorize(terminal.PadLeft(FormatSignedPct(row.DeltaPct), textPctWidth), col))
	}

	fmt.Fprintln(w)

	return nil
}

func (r *Renderer) flowText(w io.Writer, doc FlowDocument) error {
	fmt.Fprintln(w, terminal.DrawHeader("Transition Flow",
		fmt.Sprintf("%s transitions", humanize.Comma(int64(doc.TotalTransitions))), r.term.Width))
	fmt.Fprintln(w)

	if doc.Empty() {
		fmt.Fprintf(w, "%s%s\n\n", textIndent, r.term.Colorize("No class transitions to show.", terminal.ColorGray))

		return nil
	}

	r.section(w, "Flows")

	pairWidth := textLabelWidth*2 + arrowPadWidth

	for _, e := range doc.Edges {
		pair := terminal.TruncateWithEllipsis(e.SourceLabel, textLabelWidth) + " " + arrow + " " +
			terminal.TruncateWithEllipsis(e.TargetLabel, textLabelWidth)

		fmt.Fprintf(w, "%s%s %s\n", textIndent,
			terminal.DrawPercentBar(pair, e.Percentage, pairWidth, textBarWidth),
			r.term.Colorize("("+humanize.Comma(int64(e.Value))+")", terminal.ColorGray))
	}

	fmt.Fprintln(w)
	r.section(w, "Columns")

	for i, layer := range nodeLayers(doc.Nodes) {
		fmt.Fprintf(w, "%s%d: %s\n", textIndent, i+1, strings.Join(layer, ", "))
	}

	if len(doc.Rejected) > 0 {
		fmt.Fprintln(w)
		r.section(w, "Dropped To Break Cycles")

		shown := min(len(doc.Rejected), textMaxRejected)
		for _, e := range doc.Rejected[:shown] {
			fmt.Fprintf(w, "%s%s %s %s  %s (%s%%)\n", textIndent,
				e.SourceLabel, arrow, e.TargetLabel,
				humanize.Comma(int64(e.Value)), humanize.FormatFloat(pctFormat, e.Percentage))
		}

		if len(doc.Rejected) > shown {
			fmt.Fprintf(w, "%s%s\n", textIndent,
				r.term.Colorize(fmt.Sprintf("... and %d more", len(doc.Rejected)-shown), terminal.ColorGray))
		}
	}

	fmt.Fprintln(w)

	return nil
}

func (r *Renderer) yearsText(w io.Writer, totals []aggregate.YearTotal) error {
	fmt.Fprintln(w, terminal.DrawHeader("Classified Area By Year", fmt.Sprintf("%d years", len(totals)), r.term.Width))
	fmt.Fprintln(w)

	if len(totals) == 0 {
		fmt.Fprintf(w, "%s%s\n\n", textIndent, r.term.Colorize("No years with classified area.", terminal.ColorGray))

		return nil
	}

	largest := 0.0
	for _, t := range totals {
		largest = max(largest, t.TotalKm2)
	}

	for _, t := range totals {
		share := stats.Percentage(t.TotalKm2, largest, stats.PercentDecimals)

		fmt.Fprintf(w, "%s%d  %s  %s km²  %d classes\n", textIndent, t.Year,
			terminal.DrawProgressBar(share/terminal.PercentMultiplier, textBarWidth),
			terminal.PadLeft(FormatArea(t.TotalKm2), textNumberWidth), t.Classes)
	}

	fmt.Fprintln(w)

	return nil
}

func joinYears(years []int) string {
	if len(years) == 0 {
		return "none"
	}

	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = fmt.Sprintf("%d", y)
	}

	return strings.Join(parts, ", ")
}

// nodeLayers groups node labels by layer.
func nodeLayers(nodes []NodeView) [][]string {
	deepest := -1
	for _, n := range nodes {
		deepest = max(deepest, n.Layer)
	}

	layers := make([][]string, deepest+1)
	for _, n := range nodes {
		layers[n.Layer] = append(layers[n.Layer], n.Label)
	}

	return layers
}
