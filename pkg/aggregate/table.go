// Package aggregate reduces land-cover records into per-year, per-class area
// totals and compares two years class by class.
package aggregate

import (
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/lulcflow/pkg/alg/stats"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// ClassAreas maps a class to its cumulative area in km².
type ClassAreas map[lulc.ClassCode]float64

// Total returns the sum of all class areas.
func (ca ClassAreas) Total() float64 {
	return stats.SumValues(ca)
}

// YearClassAreaTable maps a year to its class areas.
type YearClassAreaTable map[int]ClassAreas

// Years returns the years present, sorted ascending.
func (t YearClassAreaTable) Years() []int {
	return slices.Sorted(maps.Keys(t))
}

// Year returns the class areas of year, or nil when absent.
func (t YearClassAreaTable) Year(year int) ClassAreas {
	return t[year]
}

// Has reports whether the table has any area bucket for year.
func (t YearClassAreaTable) Has(year int) bool {
	_, ok := t[year]

	return ok
}

// add accumulates area into table[year][code].
func (t YearClassAreaTable) add(year int, code lulc.ClassCode, area float64) {
	bucket, ok := t[year]
	if !ok {
		bucket = make(ClassAreas)
		t[year] = bucket
	}

	bucket[code] += area
}

// YearTotal is the total classified area of one year.
type YearTotal struct {
	Year     int     `json:"year"      yaml:"year"`
	TotalKm2 float64 `json:"total_km2" yaml:"total_km2"`
	Classes  int     `json:"classes"   yaml:"classes"`
}

// Totals returns one YearTotal per year, ascending.
func (t YearClassAreaTable) Totals() []YearTotal {
	years := t.Years()
	out := make([]YearTotal, 0, len(years))

	for _, year := range years {
		out = append(out, YearTotal{
			Year:     year,
			TotalKm2: stats.Round(t[year].Total(), stats.AreaDecimals),
			Classes:  len(t[year]),
		})
	}

	return out
}
