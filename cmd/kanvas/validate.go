package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanvas-io/kanvas/internal/cli"
	"github.com/kanvas-io/kanvas/internal/validator"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/dsl"
	"github.com/kanvas-io/kanvas/pkg/mapper"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a project document or a stored workspace",
	Long: `Checks that a document parses, that every component is well formed and
that dependencies name existing components. With --workspace the stored canvas
is checked for broken links and naming conflicts instead. With --strict the
dependency graph must also be acyclic.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var (
			g     domain.Graph
			label string
		)
		workspaceID, _ := cmd.Flags().GetString("workspace")
		switch {
		case workspaceID != "":
			logger, err := loadLogger(cmd, cfg, true)
			if err != nil {
				return err
			}
			svc, backend, err := cli.NewService(cfg, logger)
			if err != nil {
				return err
			}
			defer backend.Close()
			ws, err := svc.Get(cmd.Context(), workspaceID)
			if err != nil {
				return err
			}
			g, label = ws.Graph, "workspace "+workspaceID
		case len(args) == 1:
			g, err = readDocument(args[0])
			if err != nil {
				return err
			}
			label = args[0]
		default:
			return errors.New("a document file or --workspace is required")
		}

		var opts []validator.Option
		if cfg.Compiler.Strict {
			opts = append(opts, validator.RequireAcyclic())
		}
		if err := validator.ValidateGraph(g, opts...); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d components, %d dependencies\n", label, len(g.Nodes), len(g.Edges))
		return nil
	},
}

func readDocument(path string) (domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := dsl.Decode(data, dsl.FormatFromPath(path), path)
	if err != nil {
		return domain.Graph{}, err
	}
	if err := mapper.Validate(doc.Descriptors()); err != nil {
		return domain.Graph{}, err
	}
	return doc.ToGraph()
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("workspace", "w", "", "Validate a stored workspace instead of a file")
}
