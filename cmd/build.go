package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/config"
	"github.com/ziadkadry99/caseshelf/internal/progress"
	"github.com/ziadkadry99/caseshelf/internal/site"
)

var (
	buildOutput   string
	buildNoSearch bool
	buildStrict   bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export the case library as a static site",
	Long: `Pre-renders index.html and one page per case under c/, writes
search-index.json, and copies the site's assets into the output directory.
Pages are browsable without a server; search runs in the browser.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output directory (overrides build.output_dir)")
	buildCmd.Flags().BoolVar(&buildNoSearch, "no-search", false, "skip embedding; the exported index still lists every case")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "fail when any case fragment cannot be loaded")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if buildOutput != "" {
		cfg.Build.OutputDir = buildOutput
	}
	if buildNoSearch {
		cfg.Search.Enabled = false
	}

	ctx := context.Background()
	session, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	startSearch(ctx, cfg, session)
	if cfg.Search.Enabled {
		if err := session.WaitSearch(ctx); err != nil {
			logger.Warn("search index unavailable, exporting case list only", zap.Error(err))
		}
	}

	exporter := &site.Exporter{
		Session:   session,
		OutputDir: cfg.Build.OutputDir,
		Assets:    cfg.Build.Assets,
		Exclude:   cfg.Build.Exclude,
		Reporter:  progress.NewReporter(),
		Log:       logger,
	}
	if cfg.Source.Kind == config.SourceDir || cfg.Source.Kind == "" {
		exporter.AssetsDir = cfg.Source.Root
	}

	res, err := exporter.Export(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Exported %s to %s: %d page(s), %d asset(s)\n",
		sessionSummary(session), cfg.Build.OutputDir, res.Pages, res.Assets)
	for _, id := range res.Failed {
		fmt.Fprintf(os.Stderr, "  failed to load: %s\n", id)
	}
	if buildStrict && len(res.Failed) > 0 {
		return fmt.Errorf("%d case(s) could not be loaded", len(res.Failed))
	}
	return nil
}
