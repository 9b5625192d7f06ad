package graph

import (
	"fmt"
	"testing"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestStore_PublishesSnapshots(t *testing.T) {
	s := NewStore(WithIDGenerator(sequentialIDs()))

	var ops []string
	var last domain.Graph
	unsubscribe := s.Subscribe(func(op string, g domain.Graph) {
		ops = append(ops, op)
		last = g
	})

	a := s.AddNode(domain.Node{Data: domain.NodeData{Label: "web"}})
	b := s.AddNode(domain.Node{Data: domain.NodeData{Label: "web"}})
	e := s.Connect(domain.Connection{Source: a, Target: b})

	assert.Equal(t, []string{"add_node", "add_node", "connect"}, ops)
	assert.Equal(t, "id-1", a)
	assert.Equal(t, "id-3", e)
	require.Len(t, last.Nodes, 2)
	assert.Equal(t, "web 1", last.Nodes[1].Data.Name)

	unsubscribe()
	s.Reset()
	assert.Len(t, ops, 3)
	assert.Empty(t, s.Snapshot().Nodes)
}

func TestStore_SnapshotIsStable(t *testing.T) {
	s := NewStore()
	s.AddNode(domain.Node{ID: "a"})
	before := s.Snapshot()

	s.UpdateNodeData("a", domain.NodeDataPatch{Image: domain.Ptr("redis")})

	assert.Empty(t, before.Nodes[0].Data.Image)
	assert.Equal(t, "redis", s.Snapshot().Nodes[0].Data.Image)
}

func TestStore_TakenIDsAreReplaced(t *testing.T) {
	s := NewStore(WithIDGenerator(sequentialIDs()))

	first := s.AddNode(domain.Node{ID: "a"})
	second := s.AddNode(domain.Node{ID: "a"})
	assert.Equal(t, "a", first)
	assert.Equal(t, "id-1", second)

	b := s.AddNode(domain.Node{ID: "b"})
	e := s.Connect(domain.Connection{Source: first, Target: b})
	inserted, ok := s.InsertNodeOnEdge(e, domain.Node{ID: "b"})
	require.True(t, ok)
	assert.NotEqual(t, "b", inserted)

	seen := make(map[string]bool)
	for _, n := range s.Snapshot().Nodes {
		assert.False(t, seen[n.ID], "duplicate node id %s", n.ID)
		seen[n.ID] = true
	}
	assert.Len(t, seen, 4)
}

func TestStore_InsertNodeOnEdge(t *testing.T) {
	s := NewStore(WithIDGenerator(sequentialIDs()))
	a := s.AddNode(domain.Node{Data: domain.NodeData{Name: "A"}})
	b := s.AddNode(domain.Node{Data: domain.NodeData{Name: "B"}})
	e := s.Connect(domain.Connection{Source: a, Target: b})

	_, ok := s.InsertNodeOnEdge("missing", domain.Node{})
	assert.False(t, ok)

	n, ok := s.InsertNodeOnEdge(e, domain.Node{})
	require.True(t, ok)

	g := s.Snapshot()
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)
	assert.Equal(t, a, g.Edges[0].Source)
	assert.Equal(t, n, g.Edges[0].Target)
	assert.Equal(t, n, g.Edges[1].Source)
	assert.Equal(t, b, g.Edges[1].Target)
}

func TestStore_CopyPaste(t *testing.T) {
	s := NewStore(WithIDGenerator(sequentialIDs()))
	_, ok := s.PasteNode()
	assert.False(t, ok)

	a := s.AddNode(domain.Node{Data: domain.NodeData{Name: "api", ComponentType: domain.ComponentWebservice}})
	s.SetFocus(a)
	s.CopyNode()

	id, ok := s.PasteNode()
	require.True(t, ok)
	pasted, found := s.Snapshot().Node(id)
	require.True(t, found)
	assert.True(t, pasted.Selected)
	assert.Equal(t, "api 1", pasted.Data.Name)
}

func TestStore_WithInitial(t *testing.T) {
	initial := domain.Graph{Nodes: []domain.Node{{ID: "x", Data: domain.NodeData{Name: "X"}}}}
	s := NewStore(WithInitial(initial))

	s.Select([]string{"x"}, nil)
	s.DeleteSelectedElements()

	assert.Empty(t, s.Snapshot().Nodes)
	assert.NotNil(t, s.Snapshot().Edges)
	assert.Len(t, initial.Nodes, 1)
}
