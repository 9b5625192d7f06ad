package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanvas-io/kanvas"
	"github.com/kanvas-io/kanvas/internal/cli"
	"github.com/kanvas-io/kanvas/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "kanvas",
	Short: "Kanvas turns component canvases into deployment workflows",
	Long: `Kanvas keeps the graph of a visual component canvas (web services, stores,
config and secret bundles wired by dependency edges) and compiles it into
ordered deployment steps.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "kanvas.yaml", "Path to the configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("store", "", "Override the store backend (memory, file, redis, badger)")
	rootCmd.PersistentFlags().String("templates", "", "Directory of markdown component templates")
	rootCmd.PersistentFlags().Bool("strict", false, "Reject cyclic graphs instead of leveling them best-effort")
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Backend, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("templates") {
		cfg.Catalog.Dir, _ = cmd.Flags().GetString("templates")
	}
	if cmd.Flags().Changed("strict") {
		cfg.Compiler.Strict, _ = cmd.Flags().GetBool("strict")
	}
	return cfg, cfg.Validate()
}

func loadLogger(cmd *cobra.Command, cfg config.Config, quiet bool) (*slog.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewLogger(cfg.Log, debug, quiet)
}

// scratchService builds an in-memory service for commands that work on a
// document file instead of a stored workspace.
func scratchService(cfg config.Config, logger *slog.Logger) (*kanvas.Service, error) {
	opts := []kanvas.Option{
		kanvas.WithLogger(logger),
		kanvas.WithStrictLeveling(cfg.Compiler.Strict),
	}
	if cfg.Catalog.Dir != "" {
		opts = append(opts, kanvas.WithTemplateDir(cfg.Catalog.Dir))
	}
	return kanvas.New(opts...)
}
