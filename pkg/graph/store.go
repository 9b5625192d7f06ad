package graph

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kanvas-io/kanvas/pkg/domain"
)

// IDGenerator returns a fresh unique id for nodes and edges.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// Listener receives every snapshot published by a Store.
type Listener func(op string, g domain.Graph)

// Store is the live graph of one canvas.
//
// Store is not safe for concurrent use. A workspace has a single logical
// writer; callers sharing a store across goroutines serialize access
// themselves (see package session).
type Store struct {
	state     domain.Graph
	newID     IDGenerator
	logger    *slog.Logger
	listeners map[int]Listener
	nextSub   int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithInitial seeds the store with an existing graph.
func WithInitial(g domain.Graph) Option {
	return func(s *Store) {
		s.state = g.Clone()
		if s.state.Nodes == nil {
			s.state.Nodes = []domain.Node{}
		}
		if s.state.Edges == nil {
			s.state.Edges = []domain.Edge{}
		}
	}
}

// WithLogger sets the logger used for mutation traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:     domain.NewGraph(),
		newID:     NewUUID,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current graph. The value must be treated as
// read-only; use Clone before modifying it.
func (s *Store) Snapshot() domain.Graph {
	return s.state
}

// Subscribe registers fn for every published snapshot and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *Store) apply(op string, next domain.Graph) {
	s.state = next
	s.logger.Debug("graph mutation",
		"op", op,
		"nodes", len(next.Nodes),
		"edges", len(next.Edges),
	)
	for _, fn := range s.listeners {
		fn(op, next)
	}
}

// nodeID keeps a supplied id unless it is empty or already taken.
func (s *Store) nodeID(id string) string {
	for {
		if _, taken := s.state.Node(id); id != "" && !taken {
			return id
		}
		id = s.newID()
	}
}

// AddNode adds node and returns its id. A node without id, or with an id
// already in the graph, gets a generated one.
func (s *Store) AddNode(node domain.Node) string {
	node.ID = s.nodeID(node.ID)
	s.apply("add_node", AddNode(s.state, node))
	return node.ID
}

// UpdateNodeData shallow-merges patch into node id. Unknown ids are ignored.
func (s *Store) UpdateNodeData(id string, patch domain.NodeDataPatch) {
	s.apply("update_node_data", UpdateNodeData(s.state, id, patch))
}

// DeleteSelectedElements removes the selection and the focused node,
// cascading to incident edges.
func (s *Store) DeleteSelectedElements() {
	s.apply("delete_selected", DeleteSelected(s.state))
}

// Connect adds an edge for conn and returns its id.
func (s *Store) Connect(conn domain.Connection) string {
	id := s.newID()
	s.apply("connect", Connect(s.state, conn, id))
	return id
}

// InsertNodeOnEdge splits edge edgeID with node. It returns the node id and
// false when the edge does not exist.
func (s *Store) InsertNodeOnEdge(edgeID string, node domain.Node) (string, bool) {
	if _, ok := s.state.Edge(edgeID); !ok {
		return "", false
	}
	node.ID = s.nodeID(node.ID)
	s.apply("insert_node_on_edge", InsertNodeOnEdge(s.state, edgeID, node, s.newID(), s.newID()))
	return node.ID, true
}

// CopyNode captures the focused or first selected node.
func (s *Store) CopyNode() {
	s.apply("copy_node", CopyNode(s.state))
}

// PasteNode pastes the clipboard. It returns the new node id and false when
// the clipboard is empty.
func (s *Store) PasteNode() (string, bool) {
	if s.state.Clipboard == nil {
		return "", false
	}
	id := s.newID()
	s.apply("paste_node", PasteNode(s.state, id))
	return id, true
}

// SetNodes replaces all nodes.
func (s *Store) SetNodes(nodes []domain.Node) {
	s.apply("set_nodes", SetNodes(s.state, nodes))
}

// SetEdges replaces all edges.
func (s *Store) SetEdges(edges []domain.Edge) {
	s.apply("set_edges", SetEdges(s.state, edges))
}

// Reset clears the graph.
func (s *Store) Reset() {
	s.apply("reset", Reset(s.state))
}

// SetFocus focuses node id; an empty id clears the focus.
func (s *Store) SetFocus(id string) {
	s.apply("set_focus", SetFocus(s.state, id))
}

// Select replaces the current selection.
func (s *Store) Select(nodeIDs, edgeIDs []string) {
	s.apply("select", Select(s.state, nodeIDs, edgeIDs))
}

// MoveNode sets the position of node id.
func (s *Store) MoveNode(id string, pos domain.Position) {
	s.apply("move_node", MoveNode(s.state, id, pos))
}
