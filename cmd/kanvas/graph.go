package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kanvas-io/kanvas/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph [workspace]",
	Short: "Export the canvas as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart of the canvas with one subgraph per deployment step.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource(cmd, args)
		if err != nil {
			return err
		}
		defer src.close()

		ws, err := src.workspace(cmd)
		if err != nil {
			return err
		}

		steps, err := src.svc.Compile(cmd.Context(), ws.Graph)
		if err != nil {
			return err
		}
		if flat, _ := cmd.Flags().GetBool("flat"); flat {
			steps = nil
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(ws.Graph, steps, graph.OverlayFrom(ws.Graph)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("file", "f", "", "Render a project document instead of a stored workspace")
	graphCmd.Flags().Bool("flat", false, "Do not group nodes by deployment step")
}
