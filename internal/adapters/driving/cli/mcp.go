package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/visarag/internal/adapters/driving/mcp"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can retrieve
visa policy passages as grounding context.

The server exposes the "retrieve" tool, the "eligibility" prompt and the
visarag://index/manifest and visarag://index/builds resources. When an
answer model is configured it also offers the "ask" tool. It serves the
current index build and switches to new builds as they are published.

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve streamable HTTP instead; HTTP mode also exposes
Prometheus metrics at /metrics.

Examples:
  # Stdio mode (default, for desktop assistants)
  visarag mcp serve

  # HTTP mode (for MCP Inspector, remote access, scraping)
  visarag mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	ctx := commandContext(cmd)

	// Serving starts even without a build; queries report the index as unavailable.
	if deps.LoadCurrent != nil {
		if err := deps.LoadCurrent(ctx); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("loading index: %w", err)
			}
			logger.Warn("No index build published yet; waiting for one")
		}
	}

	if deps.WatchBuilds != nil && deps.LoadCurrent != nil {
		err := deps.WatchBuilds(ctx, func(id string) {
			if err := deps.LoadCurrent(ctx); err != nil {
				logger.Error(err, "Failed to load build %s, still serving the previous one", id)
			}
		})
		if err != nil {
			logger.Warn("Hot reload disabled: %v", err)
		}
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Index:     indexService,
		Answer:    answerService,
	}

	var opts []mcp.Option
	if deps.MetricsHandler != nil {
		opts = append(opts, mcp.WithMetricsHandler(deps.MetricsHandler))
	}

	server, err := mcp.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
