package graph

import (
	"slices"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/naming"
)

// DefaultBaseName is used for name allocation when a node has no label.
const DefaultBaseName = "Component"

// PasteOffset is added to the clipboard position of a pasted node.
var PasteOffset = domain.Position{X: 50, Y: 50}

// AddNode appends node. An unnamed node receives a name unique among all
// current nodes, derived from its label.
func AddNode(g domain.Graph, node domain.Node) domain.Graph {
	node = node.Clone()
	if node.Data.Name == "" {
		node.Data.Name = naming.GenerateUniqueName(baseName(node.Data), g.Names())
	}

	out := g
	out.Nodes = append(slices.Clip(g.Nodes), node)
	return out
}

// UpdateNodeData shallow-merges patch into the data of node id.
// Unknown ids are ignored.
func UpdateNodeData(g domain.Graph, id string, patch domain.NodeDataPatch) domain.Graph {
	idx := indexOfNode(g.Nodes, id)
	if idx < 0 {
		return g
	}

	out := g
	out.Nodes = slices.Clone(g.Nodes)
	out.Nodes[idx].Data = patch.Apply(g.Nodes[idx].Data)
	return out
}

// DeleteSelected removes every selected node, the focused node, every
// selected edge and every edge touching a removed node.
func DeleteSelected(g domain.Graph) domain.Graph {
	removed := make(map[string]struct{})
	nodes := make([]domain.Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Selected || (g.FocusID != "" && n.ID == g.FocusID) {
			removed[n.ID] = struct{}{}
			continue
		}
		nodes = append(nodes, n)
	}

	edges := make([]domain.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Selected {
			continue
		}
		_, src := removed[e.Source]
		_, dst := removed[e.Target]
		if src || dst {
			continue
		}
		edges = append(edges, e)
	}

	out := g
	out.Nodes = nodes
	out.Edges = edges
	if _, ok := removed[g.FocusID]; ok {
		out.FocusID = ""
	}
	return out
}

// Connect appends an edge for conn. Duplicates and cycles are accepted.
func Connect(g domain.Graph, conn domain.Connection, edgeID string) domain.Graph {
	out := g
	out.Edges = append(slices.Clip(g.Edges), domain.Edge{
		ID:           edgeID,
		Source:       conn.Source,
		Target:       conn.Target,
		SourceHandle: conn.SourceHandle,
		TargetHandle: conn.TargetHandle,
	})
	return out
}

// InsertNodeOnEdge splits edge s→t into s→node (id inID) and node→t (id outID).
// The original source and target handles are kept on their side.
// Unknown edge ids are ignored.
func InsertNodeOnEdge(g domain.Graph, edgeID string, node domain.Node, inID, outID string) domain.Graph {
	idx := slices.IndexFunc(g.Edges, func(e domain.Edge) bool { return e.ID == edgeID })
	if idx < 0 {
		return g
	}
	split := g.Edges[idx]

	out := AddNode(g, node)

	edges := make([]domain.Edge, 0, len(g.Edges)+1)
	edges = append(edges, g.Edges[:idx]...)
	edges = append(edges, g.Edges[idx+1:]...)
	edges = append(edges,
		domain.Edge{
			ID:           inID,
			Source:       split.Source,
			Target:       node.ID,
			SourceHandle: split.SourceHandle,
		},
		domain.Edge{
			ID:           outID,
			Source:       node.ID,
			Target:       split.Target,
			TargetHandle: split.TargetHandle,
		},
	)
	out.Edges = edges
	return out
}

// CopyNode captures the focused node, or the first selected node when
// nothing is focused. The clipboard is left untouched when neither exists.
func CopyNode(g domain.Graph) domain.Graph {
	var (
		src   domain.Node
		found bool
	)
	if g.FocusID != "" {
		src, found = g.Node(g.FocusID)
	} else {
		idx := slices.IndexFunc(g.Nodes, func(n domain.Node) bool { return n.Selected })
		if idx >= 0 {
			src, found = g.Nodes[idx], true
		}
	}
	if !found {
		return g
	}

	snapshot := src.Clone()
	out := g
	out.Clipboard = &snapshot
	return out
}

// PasteNode adds a copy of the clipboard node under newID, offset by
// PasteOffset, and makes it the only selected node.
// The copy is named uniquely among nodes of the same component type.
func PasteNode(g domain.Graph, newID string) domain.Graph {
	if g.Clipboard == nil {
		return g
	}

	clone := g.Clipboard.Clone()
	clone.ID = newID
	clone.Position.X += PasteOffset.X
	clone.Position.Y += PasteOffset.Y
	clone.Selected = true

	var sameType []string
	for _, n := range g.Nodes {
		if n.Data.ComponentType == clone.Data.ComponentType {
			sameType = append(sameType, n.Data.Name)
		}
	}
	clone.Data.Name = naming.GenerateUniqueName(baseName(clone.Data), sameType)

	out := g
	out.Nodes = make([]domain.Node, 0, len(g.Nodes)+1)
	for _, n := range g.Nodes {
		n.Selected = false
		out.Nodes = append(out.Nodes, n)
	}
	out.Nodes = append(out.Nodes, clone)
	return out
}

// SetNodes replaces the node collection. Edges are left as they are.
func SetNodes(g domain.Graph, nodes []domain.Node) domain.Graph {
	out := g
	out.Nodes = cloneNodes(nodes)
	return out
}

// SetEdges replaces the edge collection.
func SetEdges(g domain.Graph, edges []domain.Edge) domain.Graph {
	out := g
	out.Edges = slices.Clone(edges)
	if out.Edges == nil {
		out.Edges = []domain.Edge{}
	}
	return out
}

// Reset returns an empty graph.
func Reset(domain.Graph) domain.Graph {
	return domain.NewGraph()
}

// SetFocus focuses node id. An empty id clears the focus; unknown ids are ignored.
func SetFocus(g domain.Graph, id string) domain.Graph {
	if id != "" && indexOfNode(g.Nodes, id) < 0 {
		return g
	}
	out := g
	out.FocusID = id
	return out
}

// Select replaces the selection with exactly the given nodes and edges.
func Select(g domain.Graph, nodeIDs, edgeIDs []string) domain.Graph {
	out := g
	out.Nodes = make([]domain.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Selected = slices.Contains(nodeIDs, n.ID)
		out.Nodes[i] = n
	}
	out.Edges = make([]domain.Edge, len(g.Edges))
	for i, e := range g.Edges {
		e.Selected = slices.Contains(edgeIDs, e.ID)
		out.Edges[i] = e
	}
	return out
}

// MoveNode sets the position of node id. Unknown ids are ignored.
func MoveNode(g domain.Graph, id string, pos domain.Position) domain.Graph {
	idx := indexOfNode(g.Nodes, id)
	if idx < 0 {
		return g
	}
	out := g
	out.Nodes = slices.Clone(g.Nodes)
	out.Nodes[idx].Position = pos
	return out
}

func baseName(d domain.NodeData) string {
	switch {
	case d.Name != "":
		return d.Name
	case d.Label != "":
		return d.Label
	default:
		return DefaultBaseName
	}
}

func indexOfNode(nodes []domain.Node, id string) int {
	return slices.IndexFunc(nodes, func(n domain.Node) bool { return n.ID == id })
}

func cloneNodes(nodes []domain.Node) []domain.Node {
	out := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
