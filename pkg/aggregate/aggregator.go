package aggregate

import (
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// Mode identifies which input produced a table.
type Mode string

// Aggregation modes.
const (
	// ModeTransitions means the table was built from class-change records.
	ModeTransitions Mode = "transitions"
	// ModeSnapshots means the change records carried no usable years and the
	// per-year snapshot collections were used instead.
	ModeSnapshots Mode = "snapshots"
	// ModeEmpty means neither input produced any area.
	ModeEmpty Mode = "empty"
)

// SnapshotSet maps a year to the snapshot features classified for that year.
type SnapshotSet map[int][]lulc.Snapshot

// Aggregate sums record areas into table[ToYear][ToClass].
// Records without a resolved destination year and class are skipped.
func Aggregate(records []lulc.TransitionRecord) YearClassAreaTable {
	table := make(YearClassAreaTable)

	for _, rec := range records {
		if !rec.HasDestination() {
			continue
		}

		table.add(rec.ToYear, rec.ToClass, rec.AreaKm2)
	}

	return table
}

// AggregateSnapshots sums snapshot areas into table[year][code].
func AggregateSnapshots(snapshots SnapshotSet) YearClassAreaTable {
	table := make(YearClassAreaTable)

	for year, snaps := range snapshots {
		if year == 0 {
			continue
		}

		for _, snap := range snaps {
			if !snap.Code.Valid() {
				continue
			}

			table.add(year, snap.Code, snap.AreaKm2)
		}
	}

	return table
}

// AggregateWithFallback aggregates records and, when they resolve no year at
// all, falls back to the snapshot collections.
func AggregateWithFallback(records []lulc.TransitionRecord, snapshots SnapshotSet) (YearClassAreaTable, Mode) {
	table := Aggregate(records)
	if len(table) > 0 {
		return table, ModeTransitions
	}

	if len(snapshots) == 0 {
		return table, ModeEmpty
	}

	fallback := AggregateSnapshots(snapshots)
	if len(fallback) == 0 {
		return fallback, ModeEmpty
	}

	return fallback, ModeSnapshots
}
