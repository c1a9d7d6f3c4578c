package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/lulcflow/pkg/aggregate"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

func rightAligned(cols ...int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, len(cols))
	for _, c := range cols {
		configs = append(configs, table.ColumnConfig{Number: c, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}

	return configs
}

func (r *Renderer) deltaTable(w io.Writer, s aggregate.Summary) error {
	tbl := newTable(w)
	tbl.SetTitle(fmt.Sprintf("Land cover change %d %s %d (km²)", s.FromYear, arrow, s.ToYear))
	tbl.AppendHeader(table.Row{"Code", "Class", s.FromYear, s.ToYear, "Δ km²", "Δ %"})
	tbl.SetColumnConfigs(rightAligned(1, 3, 4, 5, 6))

	for _, row := range s.Rows {
		tbl.AppendRow(table.Row{
			int(row.Code),
			row.Label,
			FormatArea(row.FromKm2),
			FormatArea(row.ToKm2),
			FormatSignedArea(row.DeltaKm2),
			FormatSignedPct(row.DeltaPct),
		})
	}

	tbl.AppendFooter(table.Row{"", "Total", FormatArea(s.TotalFromKm2), FormatArea(s.TotalToKm2), "", ""})
	tbl.Render()

	return nil
}

func (r *Renderer) flowTable(w io.Writer, doc FlowDocument) error {
	tbl := newTable(w)
	tbl.SetTitle("Transition flow")
	tbl.AppendHeader(table.Row{"From", "To", "Count", "Share", "Status"})
	tbl.SetColumnConfigs(rightAligned(3, 4))

	for _, e := range doc.Edges {
		tbl.AppendRow(table.Row{e.SourceLabel, e.TargetLabel, humanize.Comma(int64(e.Value)), FormatPct(e.Percentage), "kept"})
	}

	for _, e := range doc.Rejected {
		tbl.AppendRow(table.Row{e.SourceLabel, e.TargetLabel, humanize.Comma(int64(e.Value)), FormatPct(e.Percentage), "dropped (cycle)"})
	}

	tbl.AppendFooter(table.Row{"", "Total", humanize.Comma(int64(doc.TotalTransitions)), "", ""})
	tbl.Render()

	return nil
}

func (r *Renderer) yearsTable(w io.Writer, totals []aggregate.YearTotal) error {
	tbl := newTable(w)
	tbl.SetTitle("Classified area by year")
	tbl.AppendHeader(table.Row{"Year", "Area km²", "Classes"})
	tbl.SetColumnConfigs(rightAligned(2, 3))

	for _, t := range totals {
		tbl.AppendRow(table.Row{t.Year, FormatArea(t.TotalKm2), t.Classes})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d years", len(totals)), ""})
	tbl.Render()

	return nil
}

// FormatPct formats a share in percent with one decimal.
func FormatPct(pct float64) string {
	return humanize.FormatFloat(pctFormat, pct) + "%"
}
