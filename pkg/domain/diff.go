package domain

import (
	"reflect"
)

// GraphDiff represents the changes between two graph snapshots.
// It is designed to be serialized to JSON for partial updates on the canvas.
type GraphDiff struct {
	// AddedNodes and ChangedNodes carry the full new node.
	AddedNodes   []Node   `json:"added_nodes,omitempty"`
	ChangedNodes []Node   `json:"changed_nodes,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`

	AddedEdges   []Edge   `json:"added_edges,omitempty"`
	ChangedEdges []Edge   `json:"changed_edges,omitempty"`
	RemovedEdges []string `json:"removed_edges,omitempty"`

	// FocusID is set when the focus pointer moved; an empty string pointer
	// means the focus was cleared.
	FocusID *string `json:"focus_id,omitempty"`
}

// Diff calculates the difference between oldGraph and newGraph.
// If oldGraph is nil, it returns a diff representing the entire newGraph (initial load).
// It returns nil when nothing changed, which is how callers detect that a
// silent no-op mutation (unknown id, missing edge) took no effect.
func Diff(oldGraph, newGraph *Graph) *GraphDiff {
	if newGraph == nil {
		return nil
	}
	if oldGraph == nil {
		oldGraph = &Graph{}
	}

	diff := &GraphDiff{}

	oldNodes := make(map[string]Node, len(oldGraph.Nodes))
	for _, n := range oldGraph.Nodes {
		oldNodes[n.ID] = n
	}
	newNodeIDs := make(map[string]bool, len(newGraph.Nodes))
	for _, n := range newGraph.Nodes {
		newNodeIDs[n.ID] = true
		prev, exists := oldNodes[n.ID]
		switch {
		case !exists:
			diff.AddedNodes = append(diff.AddedNodes, n)
		case !reflect.DeepEqual(prev, n):
			diff.ChangedNodes = append(diff.ChangedNodes, n)
		}
	}
	for _, n := range oldGraph.Nodes {
		if !newNodeIDs[n.ID] {
			diff.RemovedNodes = append(diff.RemovedNodes, n.ID)
		}
	}

	oldEdges := make(map[string]Edge, len(oldGraph.Edges))
	for _, e := range oldGraph.Edges {
		oldEdges[e.ID] = e
	}
	newEdgeIDs := make(map[string]bool, len(newGraph.Edges))
	for _, e := range newGraph.Edges {
		newEdgeIDs[e.ID] = true
		prev, exists := oldEdges[e.ID]
		switch {
		case !exists:
			diff.AddedEdges = append(diff.AddedEdges, e)
		case prev != e:
			diff.ChangedEdges = append(diff.ChangedEdges, e)
		}
	}
	for _, e := range oldGraph.Edges {
		if !newEdgeIDs[e.ID] {
			diff.RemovedEdges = append(diff.RemovedEdges, e.ID)
		}
	}

	if oldGraph.FocusID != newGraph.FocusID {
		focus := newGraph.FocusID
		diff.FocusID = &focus
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *GraphDiff) IsEmpty() bool {
	return len(d.AddedNodes) == 0 &&
		len(d.ChangedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.ChangedEdges) == 0 &&
		len(d.RemovedEdges) == 0 &&
		d.FocusID == nil
}
