package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/graph"
	"github.com/kanvas-io/kanvas/pkg/ports"
	"github.com/kanvas-io/kanvas/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data  map[string]*domain.Workspace
	saves int
	mu    sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Workspace)
	}
	s.data[workspaceID] = ws.Clone()
	s.saves++
	return nil
}

func (s *SlowStore) Load(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.data[workspaceID]; ok {
		return ws.Clone(), nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (s *SlowStore) Delete(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, workspaceID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *SlowStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func TestManager_MutateSerializesWriters(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Without serialization, read-modify-write cycles would lose nodes and
	// hand out duplicate names.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Mutate(ctx, id, func(s *graph.Store) error {
				s.AddNode(domain.Node{Data: domain.NodeData{Label: "Worker"}})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ws, err := manager.View(ctx, id)
	require.NoError(t, err)
	require.Len(t, ws.Graph.Nodes, concurrentWrites)

	names := make(map[string]bool)
	for _, n := range ws.Graph.Nodes {
		assert.False(t, names[n.Data.Name], "duplicate name %q", n.Data.Name)
		names[n.Data.Name] = true
	}
	assert.True(t, names["Worker"])
	assert.True(t, names[fmt.Sprintf("Worker %d", concurrentWrites-1)])
}

func TestManager_MutateErrorDiscardsEdits(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := manager.Mutate(ctx, "ws", func(s *graph.Store) error {
		s.AddNode(domain.Node{})
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = manager.View(ctx, "ws")
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}

func TestManager_NoOpMutationSkipsSave(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	_, err := manager.Create(ctx, "ws", "Demo")
	require.NoError(t, err)
	require.Equal(t, 1, store.saveCount())

	// Unknown ids are silent no-ops.
	ws, err := manager.Mutate(ctx, "ws", func(s *graph.Store) error {
		s.UpdateNodeData("missing", domain.NodeDataPatch{Image: domain.Ptr("x")})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Demo", ws.Name)
	assert.Equal(t, 1, store.saveCount())

	// Copy only moves the clipboard, which still has to be persisted.
	_, err = manager.Mutate(ctx, "ws", func(s *graph.Store) error {
		id := s.AddNode(domain.Node{})
		s.SetFocus(id)
		return nil
	})
	require.NoError(t, err)
	_, err = manager.Mutate(ctx, "ws", func(s *graph.Store) error {
		s.CopyNode()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, store.saveCount())

	ws, err = manager.View(ctx, "ws")
	require.NoError(t, err)
	assert.NotNil(t, ws.Graph.Clipboard)
}

func TestManager_CreateIsIdempotent(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := manager.Create(ctx, "atomic-init", "Demo")
			assert.NoError(t, err)
			assert.NotNil(t, ws)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.saveCount())
}

func TestManager_Hooks(t *testing.T) {
	var ops []string
	var diffs []*domain.GraphDiff
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	ids := 0
	manager := session.NewManager(&SlowStore{},
		session.WithClock(func() time.Time { return fixed }),
		session.WithIDGenerator(func() string { ids++; return fmt.Sprintf("id-%d", ids) }),
		session.WithHooks(domain.LifecycleHooks{
			OnMutation: func(ctx context.Context, ev *domain.MutationEvent) {
				assert.Equal(t, "ws", ev.WorkspaceID)
				assert.Equal(t, domain.EventMutation, ev.Type)
				ops = append(ops, ev.Operation)
				diffs = append(diffs, ev.Diff)
			},
		}),
	)

	ws, err := manager.Mutate(context.Background(), "ws", func(s *graph.Store) error {
		a := s.AddNode(domain.Node{})
		b := s.AddNode(domain.Node{})
		s.Connect(domain.Connection{Source: a, Target: b})
		s.UpdateNodeData("missing", domain.NodeDataPatch{})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, fixed, ws.UpdatedAt)
	assert.Equal(t, "id-1", ws.Graph.Nodes[0].ID)

	assert.Equal(t, []string{"add_node", "add_node", "connect", "update_node_data"}, ops)
	require.Len(t, diffs, 4)
	assert.Len(t, diffs[0].AddedNodes, 1)
	assert.Len(t, diffs[2].AddedEdges, 1)
	assert.Nil(t, diffs[3], "no-op reports an empty diff")
}

type recordingLocker struct {
	mu     sync.Mutex
	locked []string
	ttl    time.Duration
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	l.ttl = ttl
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))

	_, err := manager.Mutate(context.Background(), "ws-1", func(s *graph.Store) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, []string{"ws-1"}, locker.locked)
	assert.Equal(t, 5*time.Second, locker.ttl)
}
