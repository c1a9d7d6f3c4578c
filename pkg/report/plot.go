package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/lulcflow/pkg/aggregate"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// Plot constants.
const (
	chartWidth     = "100%"
	chartHeight    = "520px"
	sankeyHeight   = "640px"
	xAxisRotate    = 30
	linkCurveness  = 0.5
	pageTitle      = "lulcflow"
	emptySubtitle  = "No data"
	sankeySeries   = "Transitions"
	deltaSeries    = "Δ km²"
	totalSeries    = "Area km²"
	yAxisAreaLabel = "km²"
)

func renderPage(w io.Writer, charters ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = pageTitle
	page.AddCharts(charters...)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func (r *Renderer) deltaPlot(w io.Writer, s aggregate.Summary) error {
	co := newChartOpts(r.theme)
	subtitle := fmt.Sprintf("%d → %d", s.FromYear, s.ToYear)

	if s.Empty() {
		subtitle = emptySubtitle
	}

	labels := make([]string, len(s.Rows))
	fromData := make([]opts.BarData, len(s.Rows))
	toData := make([]opts.BarData, len(s.Rows))
	deltaData := make([]opts.BarData, len(s.Rows))

	for i, row := range s.Rows {
		labels[i] = row.Label
		fromData[i] = opts.BarData{Value: row.FromKm2}
		toData[i] = opts.BarData{Value: row.ToKm2, ItemStyle: &opts.ItemStyle{Color: row.Color}}
		deltaData[i] = opts.BarData{Value: row.DeltaKm2, ItemStyle: &opts.ItemStyle{Color: co.deltaColor(row.DeltaKm2)}}
	}

	areas := charts.NewBar()
	areas.SetGlobalOptions(
		charts.WithInitializationOpts(co.Init(chartWidth, chartHeight)),
		charts.WithTitleOpts(co.Title("Class Area", subtitle)),
		charts.WithTooltipOpts(co.Tooltip("axis")),
		charts.WithLegendOpts(co.Legend()),
		charts.WithGridOpts(co.Grid()),
		charts.WithXAxisOpts(co.XAxis()),
		charts.WithYAxisOpts(co.YAxis(yAxisAreaLabel)),
	)
	areas.SetXAxis(labels)
	areas.AddSeries(fmt.Sprintf("%d", s.FromYear), fromData, charts.WithItemStyleOpts(opts.ItemStyle{Color: co.theme.ChartAxis}))
	areas.AddSeries(fmt.Sprintf("%d", s.ToYear), toData)

	delta := charts.NewBar()
	delta.SetGlobalOptions(
		charts.WithInitializationOpts(co.Init(chartWidth, chartHeight)),
		charts.WithTitleOpts(co.Title("Class Area Change", subtitle)),
		charts.WithTooltipOpts(co.Tooltip("axis")),
		charts.WithGridOpts(co.Grid()),
		charts.WithXAxisOpts(co.XAxis()),
		charts.WithYAxisOpts(co.YAxis(yAxisAreaLabel)),
	)
	delta.SetXAxis(labels)
	delta.AddSeries(deltaSeries, deltaData)

	return renderPage(w, areas, delta)
}

func (r *Renderer) flowPlot(w io.Writer, doc FlowDocument) error {
	co := newChartOpts(r.theme)

	subtitle := fmt.Sprintf("%d transitions, %d dropped to break cycles", doc.TotalTransitions, len(doc.Rejected))
	if doc.Empty() {
		subtitle = emptySubtitle
	}

	names := sankeyNames(doc.Nodes)

	nodes := make([]opts.SankeyNode, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodes = append(nodes, opts.SankeyNode{Name: names[n.Code], ItemStyle: &opts.ItemStyle{Color: n.Color}})
	}

	links := make([]opts.SankeyLink, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		links = append(links, opts.SankeyLink{Source: names[e.Source], Target: names[e.Target], Value: float32(e.Value)})
	}

	sankey := charts.NewSankey()
	sankey.SetGlobalOptions(
		charts.WithInitializationOpts(co.Init(chartWidth, sankeyHeight)),
		charts.WithTitleOpts(co.Title("Land Cover Transitions", subtitle)),
		charts.WithTooltipOpts(co.Tooltip("item")),
	)
	sankey.AddSeries(sankeySeries, nodes, links,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Color: co.theme.ChartText}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "source", Curveness: linkCurveness}),
	)

	return renderPage(w, sankey)
}

// sankeyNames gives every node a distinct series name. Sankey nodes are
// matched by name, so labels shared by several codes get the code appended.
func sankeyNames(nodes []NodeView) map[lulc.ClassCode]string {
	codesPerLabel := make(map[string]int, len(nodes))
	for _, n := range nodes {
		codesPerLabel[n.Label]++
	}

	names := make(map[lulc.ClassCode]string, len(nodes))
	for _, n := range nodes {
		names[n.Code] = n.Label
		if codesPerLabel[n.Label] > 1 {
			names[n.Code] = fmt.Sprintf("%s (%d)", n.Label, n.Code)
		}
	}

	return names
}

func (r *Renderer) yearsPlot(w io.Writer, totals []aggregate.YearTotal) error {
	co := newChartOpts(r.theme)

	labels := make([]string, len(totals))
	data := make([]opts.BarData, len(totals))

	for i, t := range totals {
		labels[i] = fmt.Sprintf("%d", t.Year)
		data[i] = opts.BarData{Value: t.TotalKm2}
	}

	subtitle := fmt.Sprintf("%d years", len(totals))
	if len(totals) == 0 {
		subtitle = emptySubtitle
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(co.Init(chartWidth, chartHeight)),
		charts.WithTitleOpts(co.Title("Classified Area By Year", subtitle)),
		charts.WithTooltipOpts(co.Tooltip("axis")),
		charts.WithGridOpts(co.Grid()),
		charts.WithXAxisOpts(co.XAxis()),
		charts.WithYAxisOpts(co.YAxis(yAxisAreaLabel)),
	)
	bar.SetXAxis(labels)
	bar.AddSeries(totalSeries, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: co.theme.Good}))

	return renderPage(w, bar)
}
