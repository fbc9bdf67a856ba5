package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coursemate/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server exposing the course tools.

The search_course_content and get_course_outline tools are always served.
Unless --tools-only is set, the server also answers questions with the
ask_courses tool and exposes course outlines as resources; that needs a
configured language model.

By default the server talks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead, for example for MCP Inspector.

Examples:
  coursemate mcp serve
  coursemate mcp serve --port 8080
  coursemate mcp serve --tools-only`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("tools-only", false, "serve only the search and outline tools")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	toolsOnly, err := cmd.Flags().GetBool("tools-only")
	if err != nil {
		return fmt.Errorf("getting tools-only flag: %w", err)
	}

	needs := NeedLLM
	if toolsOnly {
		needs = NeedIndex
	}
	svc, err := loadServices(needs)
	if err != nil {
		return err
	}

	ports := &mcp.Ports{Tools: svc.Tools}
	if !toolsOnly {
		ports.Query = svc.Query
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
