package flowgraph

import (
	"slices"

	"github.com/Sumatoshi-tech/lulcflow/pkg/alg/stats"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// Edge is a weighted transition between two classes.
type Edge struct {
	Source     lulc.ClassCode `json:"source"     yaml:"source"`
	Target     lulc.ClassCode `json:"target"     yaml:"target"`
	Value      int            `json:"value"      yaml:"value"`
	Percentage float64        `json:"percentage" yaml:"percentage"`
}

// Graph is the acyclic flow graph.
//
// TotalTransitions is the sum over every counted pair, so percentages of
// rejected edges are comparable with accepted ones. Rejected lists the edges
// dropped to break cycles, in ranked order.
type Graph struct {
	Nodes            []lulc.ClassCode `json:"nodes"             yaml:"nodes"`
	Edges            []Edge           `json:"edges"             yaml:"edges"`
	Rejected         []Edge           `json:"rejected"          yaml:"rejected"`
	TotalTransitions int              `json:"total_transitions" yaml:"total_transitions"`
}

// Empty reports whether there is nothing to render.
func (g Graph) Empty() bool {
	return len(g.Edges) == 0
}

// AcceptedTotal returns the sum of accepted edge values.
func (g Graph) AcceptedTotal() int {
	total := 0
	for _, e := range g.Edges {
		total += e.Value
	}

	return total
}

// DAG returns the accepted edges as a DAG.
func (g Graph) DAG() *DAG {
	dag := NewDAG()
	for _, e := range g.Edges {
		dag.AddEdge(e.Source, e.Target)
	}

	return dag
}

// ClosingCycle returns the accepted path that the rejected edge e would have
// closed, as e.Source -> e.Target -> ... -> e.Source. Empty when e closes no
// cycle.
func (g Graph) ClosingCycle(e Edge) []lulc.ClassCode {
	dag := g.DAG()
	dag.AddEdge(e.Source, e.Target)

	return dag.FindCycle(e.Source)
}

// Layers groups the nodes into Sankey columns by longest-path depth.
func (g Graph) Layers() [][]lulc.ClassCode {
	return g.DAG().Layers()
}

func emptyGraph() Graph {
	return Graph{
		Nodes:    []lulc.ClassCode{},
		Edges:    []Edge{},
		Rejected: []Edge{},
	}
}

// Build counts the transitions in records and selects an acyclic edge set.
func Build(records []lulc.TransitionRecord) Graph {
	return FromCandidates(Count(records))
}

// FromCandidates ranks candidates by value, heaviest first with ties kept in
// input order, and accepts each edge unless its target already reaches its
// source through accepted edges.
func FromCandidates(candidates []Candidate) Graph {
	total := 0
	for _, c := range candidates {
		total += c.Value
	}

	if total <= 0 {
		return emptyGraph()
	}

	ranked := make([]Edge, 0, len(candidates))

	for _, c := range candidates {
		if c.Value <= 0 {
			continue
		}

		ranked = append(ranked, Edge{
			Source:     c.Source,
			Target:     c.Target,
			Value:      c.Value,
			Percentage: stats.Percentage(c.Value, total, stats.PercentDecimals),
		})
	}

	slices.SortStableFunc(ranked, func(a, b Edge) int {
		return b.Value - a.Value
	})

	graph := emptyGraph()
	graph.TotalTransitions = total

	dag := NewDAG()

	for _, e := range ranked {
		if dag.HasPath(e.Target, e.Source) {
			graph.Rejected = append(graph.Rejected, e)

			continue
		}

		dag.AddEdge(e.Source, e.Target)
		graph.Edges = append(graph.Edges, e)
	}

	graph.Nodes = dag.Nodes()

	return graph
}
