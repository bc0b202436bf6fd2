package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Model Context Protocol server",
	Long: `Exposes dispatch, suggestion and the command list as MCP tools and
resources, over stdio (default) or SSE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("transport") {
			cfg.MCP.Transport, _ = flags.GetString("transport")
		}
		if flags.Changed("addr") {
			cfg.MCP.Addr, _ = flags.GetString("addr")
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		app, err := startApp(sc)
		if err != nil {
			return err
		}
		defer closeApp(app)

		srv := mcp.NewServer(app.Dispatcher, app.Logger)
		switch cfg.MCP.Transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			baseURL, _ := flags.GetString("base-url")
			if baseURL == "" {
				baseURL = "http://localhost" + cfg.MCP.Addr
			}
			return srv.ServeSSE(sc, cfg.MCP.Addr, baseURL)
		default:
			return fmt.Errorf("unknown transport %q", cfg.MCP.Transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Address for the SSE transport")
	mcpCmd.Flags().String("base-url", "", "Public base URL for the SSE transport")
}
