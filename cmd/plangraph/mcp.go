package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/plangraph/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [plan]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts plangraph as an MCP Server so AI agents can walk plans and read
stored runs as tools (walk_plan, get_run, list_runs, get_graph).

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnv(cmd)
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		services, err := cli.NewServices(sigCtx, env, planArg(args))
		if err != nil {
			log.Fatalf("Error initializing plangraph: %v", err)
		}
		defer services.Close()

		srv := services.MCPServer()

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			env.Logger.Info("Starting plangraph MCP Server (Stdio)")
			if err := srv.ServeStdio(); err != nil {
				env.Logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			env.Logger.Info("Starting plangraph MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				env.Logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
			env.Logger.Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
