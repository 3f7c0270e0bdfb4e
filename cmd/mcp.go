package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/commitwatch/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server communicates via stdio and exposes the tools check_now,
start_watching, stop_watching, show_remote_commit, get_status and get_history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "🚀 Starting MCP server on stdio (Ctrl+C to stop)")

		ctx, cancel := setupSignalHandler()
		defer cancel()

		server := mcp.NewServer(app.watcher, Version, app.logger)
		if err := server.Serve(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}
