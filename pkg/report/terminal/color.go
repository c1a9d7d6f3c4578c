package terminal

import (
	"github.com/fatih/color"
)

// Color represents terminal colours.
type Color int

// Color constants.
const (
	ColorNone Color = iota
	ColorGreen
	ColorYellow
	ColorRed
	ColorBlue
	ColorGray
)

var attributes = map[Color]color.Attribute{
	ColorGreen:  color.FgGreen,
	ColorYellow: color.FgYellow,
	ColorRed:    color.FgRed,
	ColorBlue:   color.FgBlue,
	ColorGray:   color.FgHiBlack,
}

// Colorize applies colour to text. If NoColor is true, returns text unchanged.
func (c Config) Colorize(text string, col Color) string {
	attr, ok := attributes[col]
	if c.NoColor || !ok {
		return text
	}

	painter := color.New(attr)
	painter.EnableColor()

	return painter.Sprint(text)
}

// Bold renders text in bold unless colour is disabled.
func (c Config) Bold(text string) string {
	if c.NoColor {
		return text
	}

	painter := color.New(color.Bold)
	painter.EnableColor()

	return painter.Sprint(text)
}

// ColorForDelta returns green for gains, red for losses and gray for no change.
func ColorForDelta(delta float64) Color {
	switch {
	case delta > 0:
		return ColorGreen
	case delta < 0:
		return ColorRed
	default:
		return ColorGray
	}
}
