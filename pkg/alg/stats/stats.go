// Package stats provides small numeric helpers shared by the area and flow
// computations: decimal rounding, percentages and map sums.
package stats

import "math"

// Decimal places used for reported values.
const (
	AreaDecimals    = 2
	PercentDecimals = 1
)

// percentScale converts a ratio to a percentage.
const percentScale = 100

// Number is the set of numeric types the helpers accept.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	scale := math.Pow(10, float64(places))

	return math.Round(v*scale) / scale
}

// Percentage returns part/total*100 rounded to places.
// Returns 0 when total is zero.
func Percentage[T Number](part, total T, places int) float64 {
	if total == 0 {
		return 0
	}

	return Round(float64(part)/float64(total)*percentScale, places)
}

// RelativeChange returns (to-from)/from*100 rounded to places.
// A change from zero to a positive value is reported as 100, zero to zero as 0.
func RelativeChange(from, to float64, places int) float64 {
	switch {
	case from > 0:
		return Round((to-from)/from*percentScale, places)
	case to > 0:
		return percentScale
	default:
		return 0
	}
}

// SumValues returns the sum of all values of m.
func SumValues[K comparable, T Number](m map[K]T) T {
	var result T

	for _, v := range m {
		result += v
	}

	return result
}
