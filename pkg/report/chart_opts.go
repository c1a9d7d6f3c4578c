package report

import (
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Theme represents a colour theme for plots.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// themeConfig holds chart styling values for one theme.
type themeConfig struct {
	ChartBackground string
	ChartGrid       string
	ChartAxis       string
	ChartText       string
	ChartTextMuted  string
	Good            string
	Bad             string
}

var lightTheme = themeConfig{
	ChartBackground: "#ffffff",
	ChartGrid:       "#e7e5e4", // stone-200.
	ChartAxis:       "#a8a29e", // stone-400.
	ChartText:       "#44403c", // stone-700.
	ChartTextMuted:  "#78716c", // stone-500.
	Good:            "#16a34a", // green-600.
	Bad:             "#dc2626", // red-600.
}

var darkTheme = themeConfig{
	ChartBackground: "#1c1917", // stone-900.
	ChartGrid:       "#44403c", // stone-700.
	ChartAxis:       "#57534e", // stone-600.
	ChartText:       "#d6d3d1", // stone-300.
	ChartTextMuted:  "#a8a29e", // stone-400.
	Good:            "#22c55e", // green-500.
	Bad:             "#ef4444", // red-500.
}

func getThemeConfig(theme Theme) themeConfig {
	if theme == ThemeDark {
		return darkTheme
	}

	return lightTheme
}

// chartOpts provides themed chart options.
type chartOpts struct {
	theme themeConfig
}

func newChartOpts(theme Theme) *chartOpts {
	return &chartOpts{theme: getThemeConfig(theme)}
}

func (c *chartOpts) Init(width, height string) opts.Initialization {
	return opts.Initialization{
		Width:           width,
		Height:          height,
		BackgroundColor: c.theme.ChartBackground,
	}
}

func (c *chartOpts) Title(title, subtitle string) opts.Title {
	return opts.Title{
		Title:         title,
		Subtitle:      subtitle,
		Left:          "center",
		TitleStyle:    &opts.TextStyle{Color: c.theme.ChartText},
		SubtitleStyle: &opts.TextStyle{Color: c.theme.ChartTextMuted},
	}
}

func (c *chartOpts) Legend() opts.Legend {
	return opts.Legend{
		Show:      opts.Bool(true),
		Type:      "scroll",
		Top:       "10%",
		Left:      "center",
		TextStyle: &opts.TextStyle{Color: c.theme.ChartTextMuted},
	}
}

func (c *chartOpts) XAxis() opts.XAxis {
	return opts.XAxis{
		AxisLabel: &opts.AxisLabel{Color: c.theme.ChartTextMuted, Interval: "0", Rotate: xAxisRotate},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.theme.ChartAxis}},
	}
}

func (c *chartOpts) YAxis(name string) opts.YAxis {
	return opts.YAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: c.theme.ChartTextMuted},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.theme.ChartAxis}},
		SplitLine: &opts.SplitLine{
			Show:      opts.Bool(true),
			LineStyle: &opts.LineStyle{Color: c.theme.ChartGrid},
		},
	}
}

func (c *chartOpts) Grid() opts.Grid {
	return opts.Grid{
		Top:          "25%",
		Bottom:       "15%",
		Left:         "5%",
		Right:        "5%",
		ContainLabel: opts.Bool(true),
	}
}

func (c *chartOpts) Tooltip(trigger string) opts.Tooltip {
	return opts.Tooltip{Show: opts.Bool(true), Trigger: trigger}
}

// deltaColor colours gains and losses.
func (c *chartOpts) deltaColor(delta float64) string {
	if delta < 0 {
		return c.theme.Bad
	}

	return c.theme.Good
}
