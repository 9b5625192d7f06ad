package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanvas-io/kanvas/internal/cli"
	"github.com/kanvas-io/kanvas/pkg/dsl"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace a workspace with a project document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := loadLogger(cmd, cfg, false)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		svc, backend, err := cli.NewService(cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		workspaceID, _ := cmd.Flags().GetString("workspace")
		ws, err := svc.ImportDSL(cmd.Context(), workspaceID, data, dsl.FormatFromPath(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d components and %d edges into workspace %q\n", len(ws.Graph.Nodes), len(ws.Graph.Edges), ws.ID)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <workspace>",
	Short: "Print a workspace as a project document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource(cmd, args)
		if err != nil {
			return err
		}
		defer src.close()

		format, _ := cmd.Flags().GetString("format")
		meta := dsl.Meta{}
		meta.Project, _ = cmd.Flags().GetString("project")
		meta.Version, _ = cmd.Flags().GetString("doc-version")

		data, err := src.svc.ExportDSL(cmd.Context(), src.workspaceID, meta, dsl.Format(format))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringP("workspace", "w", "default", "Target workspace id")

	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", "yaml", "Output format: yaml or json")
	exportCmd.Flags().String("project", "", "Project name written in the document header")
	exportCmd.Flags().String("doc-version", "", "Version written in the document header")
}
