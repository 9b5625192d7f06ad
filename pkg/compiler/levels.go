package compiler

import (
	"container/heap"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// ExtraPasses bounds relaxation at len(nodes)+ExtraPasses passes.
// Acyclic graphs settle within len(nodes) passes; the cap only matters for
// cycles, whose levels are then under-propagated rather than diverging.
const ExtraPasses = 5

// Levels assigns every node its longest-path distance from an unconstrained
// source by repeated edge relaxation. It terminates on any input, including
// cyclic graphs. Edges whose endpoints are not in nodes are ignored.
func Levels(nodes []domain.Node, edges []domain.Edge) map[string]int {
	levels := make(map[string]int, len(nodes))
	for _, n := range nodes {
		levels[n.ID] = 0
	}

	valid := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		_, src := levels[e.Source]
		_, dst := levels[e.Target]
		if src && dst {
			valid = append(valid, e)
		}
	}

	maxPasses := len(nodes) + ExtraPasses
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, e := range valid {
			if levels[e.Source]+1 > levels[e.Target] {
				levels[e.Target] = levels[e.Source] + 1
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return levels
}

// StrictLevels layers the graph with Kahn's algorithm. It returns a
// *GraphError wrapping domain.ErrCycleDetected when the graph has a cycle.
func StrictLevels(nodes []domain.Node, edges []domain.Edge) (map[string]int, error) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = i
		}
	}

	outgoing := make([][]int, len(nodes))
	indeg := make([]int, len(nodes))
	for _, e := range edges {
		s, okS := index[e.Source]
		t, okT := index[e.Target]
		if !okS || !okT {
			continue
		}
		outgoing[s] = append(outgoing[s], t)
		indeg[t]++
	}

	level := make([]int, len(nodes))
	ready := &intMinHeap{}
	for i, d := range indeg {
		if d == 0 && index[nodes[i].ID] == i {
			heap.Push(ready, i)
		}
	}

	visited := 0
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		visited++
		for _, m := range outgoing[n] {
			if level[n]+1 > level[m] {
				level[m] = level[n] + 1
			}
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}

	if visited < len(index) {
		return nil, cycleError(findCycle(nodes, outgoing))
	}

	out := make(map[string]int, len(index))
	for id, i := range index {
		out[id] = level[i]
	}
	return out, nil
}

// findCycle runs a DFS in node input order and returns one cycle, named by
// node display name (or id when unnamed), closed on its first entry.
func findCycle(nodes []domain.Node, outgoing [][]int) []string {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(nodes))
	parent := make([]int, len(nodes))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range outgoing[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back edge u -> v: walk parents from u back to v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range nodes {
		if color[i] == white && dfs(i) {
			break
		}
	}

	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, label(nodes[cycle[i]]))
	}
	return out
}

func label(n domain.Node) string {
	if n.Data.Name != "" {
		return n.Data.Name
	}
	return n.ID
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
