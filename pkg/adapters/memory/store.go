package memory

import (
	"context"
	"sync"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// Store implements ports.WorkspaceStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Workspace
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Workspace),
	}
}

// Save persists the workspace in memory.
func (s *Store) Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := ws.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[workspaceID] = copied
	return nil
}

// Load retrieves the workspace from memory.
func (s *Store) Load(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.data[workspaceID]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}

	// Create a copy on read so caller can't mutate store state directly by pointer
	return ws.Clone(), nil
}

// Delete removes the workspace.
func (s *Store) Delete(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, workspaceID)
	return nil
}

// List returns stored workspaces.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
