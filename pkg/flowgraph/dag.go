package flowgraph

import (
	"slices"

	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// DAG is a directed graph over class codes that tracks in-degrees for
// topological ordering. Nodes are kept in insertion order.
type DAG struct {
	// adj[u] lists v for every edge u -> v, in insertion order.
	adj      map[lulc.ClassCode][]lulc.ClassCode
	inDegree map[lulc.ClassCode]int
	order    []lulc.ClassCode
}

// NewDAG creates an empty graph.
func NewDAG() *DAG {
	return &DAG{
		adj:      make(map[lulc.ClassCode][]lulc.ClassCode),
		inDegree: make(map[lulc.ClassCode]int),
	}
}

// AddNode adds a node. Returns false if it was already present.
func (g *DAG) AddNode(id lulc.ClassCode) bool {
	if _, ok := g.inDegree[id]; ok {
		return false
	}

	g.inDegree[id] = 0
	g.order = append(g.order, id)

	return true
}

// AddEdge adds a directed edge from u to v.
// Returns true if the edge was added, false if it already existed.
func (g *DAG) AddEdge(u, v lulc.ClassCode) bool {
	g.AddNode(u)
	g.AddNode(v)

	if slices.Contains(g.adj[u], v) {
		return false
	}

	g.adj[u] = append(g.adj[u], v)
	g.inDegree[v]++

	return true
}

// Nodes returns the nodes in insertion order.
func (g *DAG) Nodes() []lulc.ClassCode {
	return slices.Clone(g.order)
}

// HasPath reports whether to is reachable from from. A node reaches itself.
func (g *DAG) HasPath(from, to lulc.ClassCode) bool {
	if from == to {
		return true
	}

	visited := map[lulc.ClassCode]bool{from: true}
	stack := []lulc.ClassCode{from}

	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, v := range g.adj[u] {
			if v == to {
				return true
			}

			if !visited[v] {
				visited[v] = true
				stack = append(stack, v)
			}
		}
	}

	return false
}

// TopoSort orders the nodes with Kahn's algorithm, always taking the smallest
// available code first. Returns false if the graph has a cycle; the partial
// order is still returned.
func (g *DAG) TopoSort() ([]lulc.ClassCode, bool) {
	inDegree := make(map[lulc.ClassCode]int, len(g.inDegree))

	queue := make([]lulc.ClassCode, 0)

	for _, id := range g.order {
		inDegree[id] = g.inDegree[id]
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	slices.Sort(queue)

	result := make([]lulc.ClassCode, 0, len(g.order))

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		result = append(result, u)

		for _, v := range g.adj[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				insertSorted(&queue, v)
			}
		}
	}

	return result, len(result) == len(g.order)
}

// Layers assigns every node the length of the longest path reaching it and
// groups nodes by that depth. Nodes within a layer are sorted ascending.
// Returns nil if the graph has a cycle.
func (g *DAG) Layers() [][]lulc.ClassCode {
	sorted, ok := g.TopoSort()
	if !ok {
		return nil
	}

	depth := make(map[lulc.ClassCode]int, len(sorted))
	deepest := 0

	for _, u := range sorted {
		for _, v := range g.adj[u] {
			if d := depth[u] + 1; d > depth[v] {
				depth[v] = d
				deepest = max(deepest, d)
			}
		}
	}

	if len(sorted) == 0 {
		return [][]lulc.ClassCode{}
	}

	layers := make([][]lulc.ClassCode, deepest+1)
	for _, u := range sorted {
		layers[depth[u]] = append(layers[depth[u]], u)
	}

	for _, layer := range layers {
		slices.Sort(layer)
	}

	return layers
}

// FindCycle returns a cycle through start as start -> ... -> start,
// or an empty slice if start is on no cycle.
func (g *DAG) FindCycle(start lulc.ClassCode) []lulc.ClassCode {
	parent := map[lulc.ClassCode]lulc.ClassCode{}
	seen := map[lulc.ClassCode]bool{start: true}
	queue := []lulc.ClassCode{start}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.adj[u] {
			if v == start {
				cycle := []lulc.ClassCode{start}
				for cur := u; cur != start; cur = parent[cur] {
					cycle = append(cycle, cur)
				}

				cycle = append(cycle, start)
				slices.Reverse(cycle)

				return cycle
			}

			if !seen[v] {
				seen[v] = true
				parent[v] = u
				queue = append(queue, v)
			}
		}
	}

	return []lulc.ClassCode{}
}

// insertSorted inserts v into the sorted slice s.
func insertSorted(s *[]lulc.ClassCode, v lulc.ClassCode) {
	i, _ := slices.BinarySearch(*s, v)
	*s = slices.Insert(*s, i, v)
}
