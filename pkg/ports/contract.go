package ports

import (
	"context"
	"testing"
	"time"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWorkspaceStoreContract runs a suite of tests to verify that a WorkspaceStore
// implementation adheres to the defined interface contract.
func RunWorkspaceStoreContract(t *testing.T, store WorkspaceStore) {
	ctx := context.Background()
	workspaceID := "contract-test-workspace-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a workspace
		ws := domain.NewWorkspace(workspaceID)
		ws.Name = "contract"
		ws.Graph.Nodes = []domain.Node{
			{
				ID:       "api",
				Position: domain.Position{X: 100, Y: 330},
				Data: domain.NodeData{
					Name:          "api",
					ComponentType: domain.ComponentWebservice,
					Replicas:      2,
					Enabled:       true,
					Traits: domain.Traits{
						Probes: []domain.Probe{{Type: domain.ProbeLiveness, PeriodSeconds: domain.Ptr(10)}},
						Extra:  map[string]any{"ingress": map[string]any{"host": "example.com"}},
					},
				},
			},
			{
				ID: "creds",
				Data: domain.NodeData{
					Name:          "creds",
					ComponentType: domain.ComponentConfigSecret,
					OriginalType:  domain.SourceSecret,
					SecretData: []domain.KeyValue{
						{ID: "0", Key: "b", Value: "Yg=="},
						{ID: "1", Key: "a", Value: "YQ=="},
					},
				},
			},
		}
		ws.Graph.Edges = []domain.Edge{{ID: "e1", Source: "creds", Target: "api"}}

		// 2. Save
		err := store.Save(ctx, workspaceID, ws)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, workspaceID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, workspaceID, loaded.ID)
		assert.Equal(t, "contract", loaded.Name)
		require.Len(t, loaded.Graph.Nodes, 2)
		assert.Equal(t, ws.Graph.Nodes[0].Data.Traits.Probes, loaded.Graph.Nodes[0].Data.Traits.Probes)
		assert.Contains(t, loaded.Graph.Nodes[0].Data.Traits.Extra, "ingress")
		assert.Equal(t, ws.Graph.Nodes[1].Data.SecretData, loaded.Graph.Nodes[1].Data.SecretData)
		assert.Equal(t, ws.Graph.Edges, loaded.Graph.Edges)
		assert.Empty(t, loaded.Sealed, "stores must hand back an open workspace")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+workspaceID)
		assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
	})

	t.Run("Loaded copy is isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, workspaceID, domain.NewWorkspace(workspaceID)))

		loaded, err := store.Load(ctx, workspaceID)
		require.NoError(t, err)
		loaded.Graph.Nodes = append(loaded.Graph.Nodes, domain.Node{ID: "mutated"})

		again, err := store.Load(ctx, workspaceID)
		require.NoError(t, err)
		assert.Empty(t, again.Graph.Nodes)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, workspaceID, domain.NewWorkspace(workspaceID))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, workspaceID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, workspaceID)
		assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound, "Load after Delete should return ErrWorkspaceNotFound")
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 workspaces
		id1 := workspaceID + "-1"
		id2 := workspaceID + "-2"
		_ = store.Save(ctx, id1, domain.NewWorkspace(id1))
		_ = store.Save(ctx, id2, domain.NewWorkspace(id2))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
