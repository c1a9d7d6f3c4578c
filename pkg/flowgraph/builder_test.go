package flowgraph_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lulcflow/pkg/flowgraph"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

const floatDelta = 1e-9

func repeat(from, to lulc.ClassCode, n int) []lulc.TransitionRecord {
	out := make([]lulc.TransitionRecord, n)
	for i := range out {
		out[i] = lulc.TransitionRecord{FromClass: from, ToClass: to, FromYear: 2017, ToYear: 2023, AreaKm2: 1}
	}

	return out
}

func concat(parts ...[]lulc.TransitionRecord) []lulc.TransitionRecord {
	var out []lulc.TransitionRecord
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

func hasEdge(edges []flowgraph.Edge, from, to lulc.ClassCode) bool {
	for _, e := range edges {
		if e.Source == from && e.Target == to {
			return true
		}
	}

	return false
}

func TestCount_FirstOccurrenceOrder(t *testing.T) {
	t.Parallel()

	records := concat(repeat(2, 5, 1), repeat(1, 2, 2), repeat(2, 5, 1), repeat(3, 3, 4))
	records = append(records, lulc.TransitionRecord{FromClass: 0, ToClass: 2}, lulc.TransitionRecord{FromClass: 2})

	got := flowgraph.Count(records)

	require.Len(t, got, 2)
	assert.Equal(t, flowgraph.Pair{Source: 2, Target: 5}, got[0].Pair)
	assert.Equal(t, 2, got[0].Value)
	assert.Equal(t, flowgraph.Pair{Source: 1, Target: 2}, got[1].Pair)
	assert.Equal(t, 2, got[1].Value)
}

func TestBuild_EndToEnd(t *testing.T) {
	t.Parallel()

	records := concat(repeat(1, 2, 5), repeat(2, 1, 2), repeat(2, 5, 3))

	graph := flowgraph.Build(records)

	assert.Equal(t, 10, graph.TotalTransitions)
	assert.Equal(t, []flowgraph.Edge{
		{Source: 1, Target: 2, Value: 5, Percentage: 50},
		{Source: 2, Target: 5, Value: 3, Percentage: 30},
	}, graph.Edges)
	assert.Equal(t, []flowgraph.Edge{
		{Source: 2, Target: 1, Value: 2, Percentage: 20},
	}, graph.Rejected)
	assert.False(t, hasEdge(graph.Edges, 2, 1))
	assert.ElementsMatch(t, []lulc.ClassCode{1, 2, 5}, graph.Nodes)
	assert.Equal(t, [][]lulc.ClassCode{{1}, {2}, {5}}, graph.Layers())
}

func TestBuild_SelfTransitionsExcluded(t *testing.T) {
	t.Parallel()

	graph := flowgraph.Build(concat(repeat(4, 4, 100), repeat(1, 2, 1)))

	assert.Equal(t, 1, graph.TotalTransitions)
	require.Len(t, graph.Edges, 1)
	assert.NotContains(t, graph.Nodes, lulc.ClassCode(4))

	for _, e := range graph.Edges {
		assert.NotEqual(t, e.Source, e.Target)
	}
}

func TestBuild_WeightPreference(t *testing.T) {
	t.Parallel()

	// The lighter edge comes first in the input and still loses.
	graph := flowgraph.Build(concat(repeat(2, 1, 3), repeat(1, 2, 10)))

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, lulc.ClassCode(1), graph.Edges[0].Source)
	assert.Equal(t, lulc.ClassCode(2), graph.Edges[0].Target)
	assert.True(t, hasEdge(graph.Rejected, 2, 1))
}

func TestBuild_TieBreakFirstSeen(t *testing.T) {
	t.Parallel()

	graph := flowgraph.Build(concat(repeat(5, 7, 4), repeat(7, 5, 4)))

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, flowgraph.Edge{Source: 5, Target: 7, Value: 4, Percentage: 50}, graph.Edges[0])
	assert.Equal(t, []lulc.ClassCode{5, 7}, graph.Nodes)
}

func TestBuild_LongCycle(t *testing.T) {
	t.Parallel()

	graph := flowgraph.Build(concat(repeat(1, 2, 9), repeat(2, 5, 8), repeat(5, 7, 7), repeat(7, 1, 1)))

	assert.Len(t, graph.Edges, 3)
	assert.Equal(t, []flowgraph.Edge{{Source: 7, Target: 1, Value: 1, Percentage: 4}}, graph.Rejected)
	assert.Equal(t, 25, graph.TotalTransitions)
}

func TestGraph_ClosingCycle(t *testing.T) {
	t.Parallel()

	graph := flowgraph.Build(concat(repeat(1, 2, 9), repeat(2, 5, 8), repeat(5, 7, 7), repeat(7, 1, 1)))
	require.Len(t, graph.Rejected, 1)

	assert.Equal(t, []lulc.ClassCode{7, 1, 2, 5, 7}, graph.ClosingCycle(graph.Rejected[0]))
	assert.Empty(t, graph.ClosingCycle(flowgraph.Edge{Source: 1, Target: 9}))
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	for name, records := range map[string][]lulc.TransitionRecord{
		"nil":        nil,
		"self only":  repeat(1, 1, 3),
		"unresolved": {{FromClass: 0, ToClass: 0}, {FromClass: 1}},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			graph := flowgraph.Build(records)

			assert.True(t, graph.Empty())
			assert.NotNil(t, graph.Nodes)
			assert.NotNil(t, graph.Edges)
			assert.Empty(t, graph.Nodes)
			assert.Empty(t, graph.Edges)
			assert.Zero(t, graph.TotalTransitions)
		})
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := concat(repeat(2, 1, 1), repeat(1, 2, 3))
	before := append([]lulc.TransitionRecord(nil), records...)

	_ = flowgraph.Build(records)

	assert.Equal(t, before, records)
}

func TestBuild_RandomInvariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 7))
	codes := lulc.DefaultCatalog().Classes()

	for range 50 {
		records := make([]lulc.TransitionRecord, 200)
		for i := range records {
			records[i] = lulc.TransitionRecord{
				FromClass: codes[rng.IntN(len(codes))].Code,
				ToClass:   codes[rng.IntN(len(codes))].Code,
			}
		}

		graph := flowgraph.Build(records)

		_, acyclic := graph.DAG().TopoSort()
		assert.True(t, acyclic)

		total := 0
		for _, c := range flowgraph.Count(records) {
			total += c.Value
		}

		rejected := 0
		for _, e := range graph.Rejected {
			rejected += e.Value
		}

		assert.Equal(t, total, graph.TotalTransitions)
		assert.Equal(t, total, graph.AcceptedTotal()+rejected)

		incident := map[lulc.ClassCode]bool{}
		for _, e := range graph.Edges {
			assert.NotEqual(t, e.Source, e.Target)

			incident[e.Source] = true
			incident[e.Target] = true
		}

		assert.Len(t, graph.Nodes, len(incident))

		for _, n := range graph.Nodes {
			assert.True(t, incident[n])
		}

		// Deterministic for identical input.
		assert.Equal(t, graph, flowgraph.Build(records))
	}
}

func TestBuild_PercentageAgainstTotal(t *testing.T) {
	t.Parallel()

	graph := flowgraph.Build(concat(repeat(1, 2, 1), repeat(2, 5, 2)))

	require.Len(t, graph.Edges, 2)
	assert.InDelta(t, 66.7, graph.Edges[0].Percentage, floatDelta)
	assert.InDelta(t, 33.3, graph.Edges[1].Percentage, floatDelta)
}

func TestTransitionFlowMetric(t *testing.T) {
	t.Parallel()

	m := flowgraph.NewTransitionFlowMetric()

	assert.Equal(t, "transition_flow", m.Name())
	assert.Equal(t, "graph", m.Type())
	assert.Equal(t, 3, m.Compute(repeat(1, 2, 3)).TotalTransitions)
}
