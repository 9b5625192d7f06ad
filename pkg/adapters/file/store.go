package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

const ext = ".json"

// Store implements ports.WorkspaceStore using the local filesystem.
// It stores one JSON file per workspace in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".kanvas/workspaces".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".kanvas", "workspaces")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(workspaceID string) (string, error) {
	if workspaceID == "" {
		return "", fmt.Errorf("workspaceID cannot be empty")
	}
	if strings.ContainsAny(workspaceID, `/\`) || workspaceID == "." || workspaceID == ".." {
		return "", fmt.Errorf("invalid workspaceID %q", workspaceID)
	}
	return filepath.Join(s.BasePath, workspaceID+ext), nil
}

// Save writes the workspace atomically: a temp file in the same directory is
// written, fsynced and renamed over the destination.
func (s *Store) Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error {
	destPath, err := s.path(workspaceID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure workspace directory: %w", err)
	}

	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+workspaceID+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing workspace file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to workspace file: %w", err)
	}
	return nil
}

// Load reads the workspace file.
func (s *Store) Load(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	filePath, err := s.path(workspaceID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to read workspace file: %w", err)
	}

	var ws domain.Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}
	return &ws, nil
}

// Delete removes the workspace file.
func (s *Store) Delete(ctx context.Context, workspaceID string) error {
	filePath, err := s.path(workspaceID)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete workspace file: %w", err)
	}
	return nil
}

// List returns all stored workspace IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	return ids, nil
}
