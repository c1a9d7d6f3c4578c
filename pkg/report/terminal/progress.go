package terminal

import (
	"fmt"
	"strings"
)

// Bar characters.
const (
	ProgressFilled = "█"
	ProgressEmpty  = "░"
)

// DrawProgressBar draws a bar of the given width filled to value in [0, 1].
// Example: DrawProgressBar(0.7, 10) returns "███████░░░".
func DrawProgressBar(value float64, width int) string {
	if width <= 0 {
		return ""
	}

	value = max(0, min(value, 1))

	filled := int(value * float64(width))

	return strings.Repeat(ProgressFilled, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// PercentMultiplier converts 0-1 to 0-100.
const PercentMultiplier = 100

// DrawPercentBar draws a labeled share bar.
// Example: "Trees          ████████████░░░░░░░░  61.2%".
func DrawPercentBar(label string, percent float64, labelWidth, barWidth int) string {
	paddedLabel := PadRight(TruncateWithEllipsis(label, labelWidth), labelWidth)
	bar := DrawProgressBar(percent/PercentMultiplier, barWidth)

	return fmt.Sprintf("%s %s %5.1f%%", paddedLabel, bar, percent)
}
