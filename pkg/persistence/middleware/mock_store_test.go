package middleware_test

import (
	"context"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Workspace
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Workspace),
	}
}

func (s *MockStore) Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error {
	s.data[workspaceID] = ws
	return nil
}

func (s *MockStore) Load(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	ws, ok := s.data[workspaceID]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	return ws, nil
}

func (s *MockStore) Delete(ctx context.Context, workspaceID string) error {
	delete(s.data, workspaceID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.WorkspaceStore = (*MockStore)(nil)
