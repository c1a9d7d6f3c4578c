package aggregate

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/lulcflow/pkg/alg/stats"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// ErrYearNotFound indicates a requested year has no area in the table.
var ErrYearNotFound = errors.New("year not found")

// Summary is a year-to-year comparison ready for rendering.
type Summary struct {
	FromYear     int        `json:"from_year"      yaml:"from_year"`
	ToYear       int        `json:"to_year"        yaml:"to_year"`
	TotalFromKm2 float64    `json:"total_from_km2" yaml:"total_from_km2"`
	TotalToKm2   float64    `json:"total_to_km2"   yaml:"total_to_km2"`
	Mode         Mode       `json:"mode"           yaml:"mode"`
	Years        []int      `json:"years"          yaml:"years"`
	Rows         []DeltaRow `json:"rows"           yaml:"rows"`
}

// Empty reports whether the summary has nothing to show.
func (s Summary) Empty() bool {
	return len(s.Rows) == 0
}

// Summarize compares fromYear with toYear. Missing years compare as empty;
// use CheckYears first to reject them.
func Summarize(catalog *lulc.Catalog, table YearClassAreaTable, mode Mode, fromYear, toYear int) Summary {
	from := table.Year(fromYear)
	to := table.Year(toYear)

	return Summary{
		FromYear:     fromYear,
		ToYear:       toYear,
		TotalFromKm2: stats.Round(from.Total(), stats.AreaDecimals),
		TotalToKm2:   stats.Round(to.Total(), stats.AreaDecimals),
		Mode:         mode,
		Years:        table.Years(),
		Rows:         Compare(catalog, from, to),
	}
}

// CheckYears returns ErrYearNotFound for the first year absent from table.
func CheckYears(table YearClassAreaTable, years ...int) error {
	for _, year := range years {
		if !table.Has(year) {
			return fmt.Errorf("%w: %d (available: %v)", ErrYearNotFound, year, table.Years())
		}
	}

	return nil
}

// DefaultYears picks the first and last year of the table.
// Both are zero for an empty table.
func DefaultYears(table YearClassAreaTable) (fromYear, toYear int) {
	years := table.Years()
	if len(years) == 0 {
		return 0, 0
	}

	return years[0], years[len(years)-1]
}
