package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/ziadkadry99/caseshelf/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio exposing the
list_cases, get_case and search_cases tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		session, err := openSession(ctx, cfg)
		if err != nil {
			return err
		}
		startSearch(ctx, cfg, session)

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		logger.Info("caseshelf MCP server started on stdio",
			zap.Int("cases", session.Manifest.Len()),
			zap.Bool("search", cfg.Search.Enabled),
		)

		srv := mcpserver.NewServer(session, logger)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
