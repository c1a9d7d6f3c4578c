package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

const floatDelta = 1e-9

const (
	testYearFrom = 2017
	testYearTo   = 2023
)

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	table := Aggregate(nil)

	require.NotNil(t, table)
	assert.Empty(t, table)
	assert.Empty(t, table.Years())
}

func TestAggregate_SumsByDestination(t *testing.T) {
	t.Parallel()

	records := []lulc.TransitionRecord{
		{FromClass: 2, ToClass: 5, FromYear: testYearFrom, ToYear: testYearTo, AreaKm2: 1.5},
		{FromClass: 1, ToClass: 5, FromYear: testYearFrom, ToYear: testYearTo, AreaKm2: 2.5},
		{FromClass: 5, ToClass: 7, FromYear: testYearFrom, ToYear: testYearTo, AreaKm2: 0.25},
		{FromClass: 5, ToClass: 2, FromYear: 2020, ToYear: testYearFrom, AreaKm2: 10},
	}

	table := Aggregate(records)

	assert.Equal(t, []int{testYearFrom, testYearTo}, table.Years())
	assert.InDelta(t, 4.0, table[testYearTo][5], floatDelta)
	assert.InDelta(t, 0.25, table[testYearTo][7], floatDelta)
	assert.InDelta(t, 10.0, table[testYearFrom][2], floatDelta)

	// Source classes are never credited.
	_, hasSource := table[testYearFrom][5]
	assert.False(t, hasSource)
}

func TestAggregate_SkipsUnresolved(t *testing.T) {
	t.Parallel()

	records := []lulc.TransitionRecord{
		{FromClass: 1, ToClass: 2, AreaKm2: 3},
		{FromClass: 1, ToYear: testYearTo, AreaKm2: 3},
		{},
	}

	assert.Empty(t, Aggregate(records))
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := []lulc.TransitionRecord{{FromClass: 1, ToClass: 2, ToYear: testYearTo, AreaKm2: 3}}
	snapshot := append([]lulc.TransitionRecord(nil), records...)

	_ = Aggregate(records)

	assert.Equal(t, snapshot, records)
}

func TestAggregateWithFallback_PrefersTransitions(t *testing.T) {
	t.Parallel()

	records := []lulc.TransitionRecord{{FromClass: 1, ToClass: 2, ToYear: testYearTo, AreaKm2: 3}}
	snaps := SnapshotSet{testYearFrom: {{Code: 1, AreaKm2: 100}}}

	table, mode := AggregateWithFallback(records, snaps)

	assert.Equal(t, ModeTransitions, mode)
	assert.Equal(t, []int{testYearTo}, table.Years())
}

func TestAggregateWithFallback_UsesSnapshots(t *testing.T) {
	t.Parallel()

	records := []lulc.TransitionRecord{{FromClass: 1, ToClass: 2, AreaKm2: 3}}
	snaps := SnapshotSet{
		testYearFrom: {{Code: 1, AreaKm2: 100}, {Code: 1, AreaKm2: 20}, {Code: 2, AreaKm2: 5}},
		testYearTo:   {{Code: 1, AreaKm2: 80}, {Code: lulc.NoData, AreaKm2: 999}},
	}

	table, mode := AggregateWithFallback(records, snaps)

	assert.Equal(t, ModeSnapshots, mode)
	assert.InDelta(t, 120.0, table[testYearFrom][1], floatDelta)
	assert.InDelta(t, 5.0, table[testYearFrom][2], floatDelta)
	assert.InDelta(t, 80.0, table[testYearTo][1], floatDelta)
	assert.Len(t, table[testYearTo], 1)
}

func TestAggregateWithFallback_Empty(t *testing.T) {
	t.Parallel()

	table, mode := AggregateWithFallback(nil, nil)
	assert.Equal(t, ModeEmpty, mode)
	assert.Empty(t, table)

	table, mode = AggregateWithFallback(nil, SnapshotSet{testYearTo: nil})
	assert.Equal(t, ModeEmpty, mode)
	assert.Empty(t, table)
}

func TestCompare_DeltaSignAndOmission(t *testing.T) {
	t.Parallel()

	rows := Compare(lulc.DefaultCatalog(), ClassAreas{1: 100, 2: 0}, ClassAreas{1: 80, 2: 0})

	require.Len(t, rows, 1)
	assert.Equal(t, lulc.ClassCode(1), rows[0].Code)
	assert.Equal(t, "Water", rows[0].Label)
	assert.InDelta(t, -20.0, rows[0].DeltaKm2, floatDelta)
	assert.InDelta(t, -20.0, rows[0].DeltaPct, floatDelta)
}

func TestCompare_ZeroToNonZero(t *testing.T) {
	t.Parallel()

	rows := Compare(lulc.DefaultCatalog(), ClassAreas{1: 0}, ClassAreas{1: 50})

	require.Len(t, rows, 1)
	assert.InDelta(t, 100.0, rows[0].DeltaPct, floatDelta)
	assert.InDelta(t, 50.0, rows[0].DeltaKm2, floatDelta)
}

func TestCompare_NonZeroToZero(t *testing.T) {
	t.Parallel()

	rows := Compare(lulc.DefaultCatalog(), ClassAreas{5: 12.5}, nil)

	require.Len(t, rows, 1)
	assert.InDelta(t, -100.0, rows[0].DeltaPct, floatDelta)
	assert.InDelta(t, -12.5, rows[0].DeltaKm2, floatDelta)
}

func TestCompare_OrderByAbsoluteDelta(t *testing.T) {
	t.Parallel()

	from := ClassAreas{1: 10, 2: 50, 5: 30, 7: 5}
	to := ClassAreas{1: 12, 2: 20, 5: 70, 7: 7}

	rows := Compare(lulc.DefaultCatalog(), from, to)

	codes := make([]lulc.ClassCode, len(rows))
	for i, r := range rows {
		codes[i] = r.Code
	}

	// 5: +40, 2: -30, then 1 and 7 tie at +2 and keep catalog order.
	assert.Equal(t, []lulc.ClassCode{5, 2, 1, 7}, codes)
}

func TestCompare_RoundsValues(t *testing.T) {
	t.Parallel()

	rows := Compare(lulc.DefaultCatalog(), ClassAreas{2: 1.004}, ClassAreas{2: 2.0049})

	require.Len(t, rows, 1)
	assert.InDelta(t, 1.0, rows[0].FromKm2, floatDelta)
	assert.InDelta(t, 2.0, rows[0].ToKm2, floatDelta)
	assert.InDelta(t, 1.0, rows[0].DeltaKm2, floatDelta)
	assert.InDelta(t, 100.0, rows[0].DeltaPct, floatDelta)
}

func TestCompare_IgnoresClassesOutsideCatalog(t *testing.T) {
	t.Parallel()

	rows := Compare(lulc.DefaultCatalog(), ClassAreas{3: 10}, ClassAreas{3: 20})

	assert.Empty(t, rows)
}

func TestCompare_NilCatalogUsesDefault(t *testing.T) {
	t.Parallel()

	rows := Compare(nil, ClassAreas{11: 1}, ClassAreas{11: 2})

	require.Len(t, rows, 1)
	assert.Equal(t, "Rangeland", rows[0].Label)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	table := YearClassAreaTable{
		testYearFrom: {1: 100, 2: 50},
		testYearTo:   {1: 80, 2: 75},
	}

	sum := Summarize(lulc.DefaultCatalog(), table, ModeTransitions, testYearFrom, testYearTo)

	assert.InDelta(t, 150.0, sum.TotalFromKm2, floatDelta)
	assert.InDelta(t, 155.0, sum.TotalToKm2, floatDelta)
	assert.Equal(t, []int{testYearFrom, testYearTo}, sum.Years)
	require.Len(t, sum.Rows, 2)
	assert.Equal(t, lulc.ClassCode(2), sum.Rows[0].Code)
	assert.False(t, sum.Empty())
}

func TestCheckYears(t *testing.T) {
	t.Parallel()

	table := YearClassAreaTable{testYearFrom: {1: 1}}

	require.NoError(t, CheckYears(table, testYearFrom))
	require.ErrorIs(t, CheckYears(table, testYearFrom, testYearTo), ErrYearNotFound)
}

func TestDefaultYears(t *testing.T) {
	t.Parallel()

	from, to := DefaultYears(YearClassAreaTable{2023: {}, 2017: {}, 2020: {}})
	assert.Equal(t, 2017, from)
	assert.Equal(t, 2023, to)

	from, to = DefaultYears(nil)
	assert.Zero(t, from)
	assert.Zero(t, to)
}

func TestTotals(t *testing.T) {
	t.Parallel()

	table := YearClassAreaTable{testYearTo: {1: 1.111, 2: 2.222}, testYearFrom: {1: 3}}

	totals := NewYearTotalsMetric().Compute(table)

	require.Len(t, totals, 2)
	assert.Equal(t, YearTotal{Year: testYearFrom, TotalKm2: 3, Classes: 1}, totals[0])
	assert.InDelta(t, 3.33, totals[1].TotalKm2, floatDelta)
}

func TestClassDeltaMetric(t *testing.T) {
	t.Parallel()

	m := NewClassDeltaMetric(nil)

	assert.Equal(t, "class_delta", m.Name())
	assert.Equal(t, "table", m.Type())

	sum := m.Compute(DeltaInput{
		Table:    YearClassAreaTable{testYearFrom: {1: 100}, testYearTo: {1: 80}},
		Mode:     ModeSnapshots,
		FromYear: testYearFrom,
		ToYear:   testYearTo,
	})

	assert.Equal(t, ModeSnapshots, sum.Mode)
	require.Len(t, sum.Rows, 1)
	assert.InDelta(t, -20.0, sum.Rows[0].DeltaPct, floatDelta)
}
