package aggregate

import (
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
	"github.com/Sumatoshi-tech/lulcflow/pkg/metrics"
)

// DeltaInput is the input of ClassDeltaMetric.
type DeltaInput struct {
	Table    YearClassAreaTable
	Mode     Mode
	FromYear int
	ToYear   int
}

// ClassDeltaMetric compares two years of a table class by class.
type ClassDeltaMetric struct {
	metrics.MetricMeta

	catalog *lulc.Catalog
}

// NewClassDeltaMetric creates the class delta metric over catalog.
func NewClassDeltaMetric(catalog *lulc.Catalog) *ClassDeltaMetric {
	if catalog == nil {
		catalog = lulc.DefaultCatalog()
	}

	return &ClassDeltaMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "class_delta",
			MetricDisplayName: "Class Area Delta",
			MetricDescription: "Per-class area change between two years in km² and percent. " +
				"Rows are ordered by the absolute size of the change.",
			MetricType: "table",
		},
		catalog: catalog,
	}
}

// Compute returns the year-to-year summary.
func (m *ClassDeltaMetric) Compute(input DeltaInput) Summary {
	return Summarize(m.catalog, input.Table, input.Mode, input.FromYear, input.ToYear)
}

// YearTotalsMetric reports the total classified area per year.
type YearTotalsMetric struct {
	metrics.MetricMeta
}

// NewYearTotalsMetric creates the year totals metric.
func NewYearTotalsMetric() *YearTotalsMetric {
	return &YearTotalsMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "year_totals",
			MetricDisplayName: "Year Totals",
			MetricDescription: "Total classified area in km² for every year present in the data.",
			MetricType:        "aggregate",
		},
	}
}

// Compute returns one total per year, ascending.
func (m *YearTotalsMetric) Compute(table YearClassAreaTable) []YearTotal {
	return table.Totals()
}
