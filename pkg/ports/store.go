package ports

import (
	"context"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// WorkspaceStore defines the interface for persisting canvas workspaces.
// It lets a workspace survive restarts and move between replicas.
type WorkspaceStore interface {
	// Save persists the workspace under the given ID.
	Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error

	// Load retrieves the workspace with the given ID.
	// Returns domain.ErrWorkspaceNotFound if the workspace does not exist.
	Load(ctx context.Context, workspaceID string) (*domain.Workspace, error)

	// Delete removes the workspace. Deleting a missing workspace is not an error.
	Delete(ctx context.Context, workspaceID string) error

	// List returns the IDs of all stored workspaces.
	List(ctx context.Context) ([]string, error)
}
