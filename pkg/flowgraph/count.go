// Package flowgraph builds an acyclic class-transition graph for layered
// flow (Sankey) diagrams.
//
// Transitions are counted per (from, to) class pair and ranked by count.
// Edges are accepted greedily, heaviest first, unless they would close a
// cycle with edges already accepted. The result is a DAG that keeps the
// statistically strongest transitions.
package flowgraph

import (
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// Pair is an ordered (source, target) class pair.
type Pair struct {
	Source lulc.ClassCode
	Target lulc.ClassCode
}

// Candidate is a counted transition pair before selection.
type Candidate struct {
	Pair

	Value int
}

// Count groups records by class pair, skipping unresolved classes and
// self-transitions. Candidates are returned in order of first occurrence.
func Count(records []lulc.TransitionRecord) []Candidate {
	index := make(map[Pair]int)
	candidates := make([]Candidate, 0)

	for _, rec := range records {
		if !rec.HasClasses() || rec.IsSelfTransition() {
			continue
		}

		p := Pair{Source: rec.FromClass, Target: rec.ToClass}

		i, ok := index[p]
		if !ok {
			i = len(candidates)
			index[p] = i
			candidates = append(candidates, Candidate{Pair: p})
		}

		candidates[i].Value++
	}

	return candidates
}
