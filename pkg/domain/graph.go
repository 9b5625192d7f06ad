package domain

// Graph is the canonical node/edge state of one canvas.
// It is treated as an immutable value: transforms in package graph return a
// new Graph instead of mutating the receiver's slices.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`

	// FocusID is the node currently focused in the editor, if any.
	FocusID string `json:"focusId,omitempty" yaml:"focusId,omitempty"`

	// Clipboard holds the node captured by the last copy.
	Clipboard *Node `json:"clipboard,omitempty" yaml:"clipboard,omitempty"`
}

// NewGraph returns an empty graph with non-nil collections.
func NewGraph() Graph {
	return Graph{
		Nodes: []Node{},
		Edges: []Edge{},
	}
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge with the given id.
func (g Graph) Edge(id string) (Edge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// Names returns the display names of all named nodes, in node order.
func (g Graph) Names() []string {
	names := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Data.Name != "" {
			names = append(names, n.Data.Name)
		}
	}
	return names
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes:   make([]Node, len(g.Nodes)),
		Edges:   make([]Edge, len(g.Edges)),
		FocusID: g.FocusID,
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Edges, g.Edges)
	if g.Clipboard != nil {
		c := g.Clipboard.Clone()
		out.Clipboard = &c
	}
	return out
}
