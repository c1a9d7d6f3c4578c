package aggregate

import (
	"math"
	"slices"

	"github.com/Sumatoshi-tech/lulcflow/pkg/alg/stats"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// DeltaRow is the change of one class between two years.
type DeltaRow struct {
	Code     lulc.ClassCode `json:"code"      yaml:"code"`
	Label    string         `json:"label"     yaml:"label"`
	Color    string         `json:"color"     yaml:"color"`
	FromKm2  float64        `json:"from_km2"  yaml:"from_km2"`
	ToKm2    float64        `json:"to_km2"    yaml:"to_km2"`
	DeltaKm2 float64        `json:"delta_km2" yaml:"delta_km2"`
	DeltaPct float64        `json:"delta_pct" yaml:"delta_pct"`
}

// Compare computes per-class deltas from one year's areas to another's over
// the catalog classes. Classes with zero area in both years are omitted.
// Rows are ordered by descending absolute delta; ties keep catalog order.
func Compare(catalog *lulc.Catalog, from, to ClassAreas) []DeltaRow {
	if catalog == nil {
		catalog = lulc.DefaultCatalog()
	}

	rows := make([]DeltaRow, 0, catalog.Len())

	for _, cls := range catalog.Classes() {
		fromKm2 := stats.Round(from[cls.Code], stats.AreaDecimals)
		toKm2 := stats.Round(to[cls.Code], stats.AreaDecimals)

		if fromKm2 <= 0 && toKm2 <= 0 {
			continue
		}

		rows = append(rows, DeltaRow{
			Code:     cls.Code,
			Label:    catalog.Label(cls.Code),
			Color:    catalog.Color(cls.Code),
			FromKm2:  fromKm2,
			ToKm2:    toKm2,
			DeltaKm2: stats.Round(toKm2-fromKm2, stats.AreaDecimals),
			DeltaPct: stats.RelativeChange(fromKm2, toKm2, stats.PercentDecimals),
		})
	}

	slices.SortStableFunc(rows, func(a, b DeltaRow) int {
		absA, absB := math.Abs(a.DeltaKm2), math.Abs(b.DeltaKm2)

		switch {
		case absA > absB:
			return -1
		case absA < absB:
			return 1
		default:
			return 0
		}
	})

	return rows
}
