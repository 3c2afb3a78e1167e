package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/logging"
)

var (
	cfgFile string
	verbose bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "caseshelf",
	Short: "Browse a portfolio case library from a JSON manifest",
	Long: `caseshelf serves a library of case studies described by a JSON manifest.
It renders a collapsible sidebar, loads case fragments on demand, keeps
per-viewer bookmarks, and builds a semantic search index over the cases.
The same library can be exported as a static site or exposed to AI agents
over MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".caseshelf.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
