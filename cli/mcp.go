// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for assistant integrations
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/expirytrack/handlers"
)

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := a.runner()
			if err != nil {
				return err
			}
			a.logger.Info("Starting expirytrack MCP server")

			server := handlers.NewServer(a.svc, runner, Version)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
