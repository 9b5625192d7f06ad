package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanvas-io/kanvas"
	"github.com/kanvas-io/kanvas/internal/cli"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/dsl"
)

const scratchWorkspace = "scratch"

// source is the workspace a read-only command works on.
type source struct {
	svc         *kanvas.Service
	workspaceID string
	close       func() error
}

// openSource resolves either --file (a DSL document compiled in memory) or
// the workspace id argument against the configured store.
func openSource(cmd *cobra.Command, args []string) (*source, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := loadLogger(cmd, cfg, true)
	if err != nil {
		return nil, err
	}

	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		svc, err := scratchService(cfg, logger)
		if err != nil {
			return nil, err
		}
		if _, err := svc.ImportDSL(cmd.Context(), scratchWorkspace, data, dsl.FormatFromPath(file)); err != nil {
			return nil, err
		}
		return &source{svc: svc, workspaceID: scratchWorkspace, close: func() error { return nil }}, nil
	}

	if len(args) == 0 {
		return nil, errors.New("a workspace id or --file is required")
	}
	svc, backend, err := cli.NewService(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &source{svc: svc, workspaceID: args[0], close: backend.Close}, nil
}

func (s *source) workspace(cmd *cobra.Command) (*domain.Workspace, error) {
	return s.svc.Get(cmd.Context(), s.workspaceID)
}
