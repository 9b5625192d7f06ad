package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/graph"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	return nil, domain.ErrWorkspaceNotFound
}
func (m *MockStore) Delete(ctx context.Context, workspaceID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)           { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	// 1. Create and Delete many workspaces
	for i := 0; i < count; i++ {
		wid := fmt.Sprintf("workspace-%d", i)
		_, _ = mgr.Mutate(ctx, wid, func(s *graph.Store) error {
			s.AddNode(domain.Node{})
			return nil
		})
		_ = mgr.Delete(ctx, wid)
	}

	// 2. Count locks remaining in map
	lockCount := len(mgr.locks)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
