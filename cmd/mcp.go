package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/theapemachine/ukg/pkg/tools"
)

var (
	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ukg tools over MCP stdio",
		Long:  longMCP,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, eng)

			return server.ServeStdio(tools.NewServer(eng, "1.0.0"))
		},
	}
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var longMCP = `
Serve ukg_query, ukg_graph_search and ukg_memory_recall to an MCP client over
stdio. Logs go to stderr, or to --log-file.

Examples:
  ukg mcp --log-file /tmp/ukg-mcp.log
`
