package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kanvas-io/kanvas/internal/presentation/tui"
)

var compileCmd = &cobra.Command{
	Use:   "compile [workspace]",
	Short: "Compile a canvas into deployment steps",
	Long: `Levels the dependency graph of a workspace (or of a document given with
--file) into ordered steps. Components in one step have no dependency on each
other and can be deployed in parallel.`,
	Args: cobra.MaximumNArgs(1),
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
		steps, err := src.svc.Workflow(cmd.Context(), src.workspaceID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(steps)
		}

		styled := out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
		return tui.RenderPlan(out, ws.Name, steps, styled)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("file", "f", "", "Compile a project document (yaml, json or hcl) instead of a stored workspace")
	compileCmd.Flags().Bool("json", false, "Print the steps as JSON")
}
