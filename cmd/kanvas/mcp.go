package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kanvas-io/kanvas/internal/cli"
	"github.com/kanvas-io/kanvas/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts kanvas as an MCP Server so AI agents can edit canvases and compile
workflows as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger, err := loadLogger(cmd, cfg, false)
		if err != nil {
			return err
		}

		svc, backend, err := cli.NewService(cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		srv := mcp.NewServer(svc, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting Kanvas MCP Server (Stdio)")
			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("MCP Server execution failed: %w", err)
			}
			return nil
		case "sse":
			logger.Info("Starting Kanvas MCP Server (SSE)", "port", port)
			sc := cli.NewSignalContext(cmd.Context())
			defer sc.Cancel()
			if err := srv.ServeSSE(sc, port); err != nil {
				return fmt.Errorf("MCP Server execution failed: %w", err)
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
