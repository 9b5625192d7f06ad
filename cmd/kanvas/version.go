package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kanvas-io/kanvas"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of kanvas",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kanvas version %s\n", strings.TrimSpace(kanvas.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
