package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/lulcflow/pkg/aggregate"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// DefaultMaxConcurrency bounds parallel document fetches.
const DefaultMaxConcurrency = 4

// Dataset holds everything fetched for one analysis.
type Dataset struct {
	Transitions []lulc.TransitionRecord
	Snapshots   aggregate.SnapshotSet
	// Missing lists snapshot years that the source does not have.
	Missing []int
	// Fetched counts the documents retrieved.
	Fetched int
}

// Table aggregates the dataset, falling back to snapshots when the
// transitions carry no destination years.
func (d Dataset) Table() (aggregate.YearClassAreaTable, aggregate.Mode) {
	return aggregate.AggregateWithFallback(d.Transitions, d.Snapshots)
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// MaxConcurrency bounds parallel fetches; <= 0 uses DefaultMaxConcurrency.
	MaxConcurrency int
	// SkipTransitions fetches only the snapshots.
	SkipTransitions bool
	Logger          *slog.Logger
}

// Load fetches the transition collection and the snapshot of every year
// concurrently. A missing snapshot is recorded in Dataset.Missing; a missing
// transition document leaves Transitions empty so the snapshot fallback applies.
func Load(ctx context.Context, src Source, years []int, opts LoadOptions) (Dataset, error) {
	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu      sync.Mutex
		dataset = Dataset{
			Transitions: []lulc.TransitionRecord{},
			Snapshots:   make(aggregate.SnapshotSet, len(years)),
		}
	)

	if !opts.SkipTransitions {
		g.Go(func() error {
			fc, err := src.Transitions(gctx)
			if errors.Is(err, ErrNotFound) {
				logger.WarnContext(gctx, "transition document not available")

				return nil
			}

			if err != nil {
				return fmt.Errorf("load transitions: %w", err)
			}

			records := lulc.TransitionsFromCollection(fc)

			mu.Lock()
			dataset.Transitions = records
			dataset.Fetched++
			mu.Unlock()

			return nil
		})
	}

	for _, year := range uniqueYears(years) {
		g.Go(func() error {
			fc, err := src.Snapshot(gctx, year)
			if errors.Is(err, ErrNotFound) {
				logger.WarnContext(gctx, "snapshot not available", "year", year)

				mu.Lock()
				dataset.Missing = append(dataset.Missing, year)
				mu.Unlock()

				return nil
			}

			if err != nil {
				return fmt.Errorf("load snapshot %d: %w", year, err)
			}

			snaps := lulc.SnapshotsFromCollection(fc)

			mu.Lock()
			dataset.Snapshots[year] = snaps
			dataset.Fetched++
			mu.Unlock()

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return Dataset{}, err
	}

	slices.Sort(dataset.Missing)

	logger.InfoContext(ctx, "dataset loaded",
		"transitions", len(dataset.Transitions),
		"snapshot_years", len(dataset.Snapshots),
		"missing_years", len(dataset.Missing))

	return dataset, nil
}

func uniqueYears(years []int) []int {
	seen := make(map[int]bool, len(years))
	out := make([]int, 0, len(years))

	for _, y := range years {
		if y == 0 || seen[y] {
			continue
		}

		seen[y] = true
		out = append(out, y)
	}

	return out
}
