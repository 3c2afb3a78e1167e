package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/caseshelf/internal/config"
	"github.com/ziadkadry99/caseshelf/internal/lint"
	"github.com/ziadkadry99/caseshelf/internal/shell"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the manifest and its fragments",
	Long: `Reports duplicate case ids, cases missing an id or src, fragments that
cannot be fetched, and fragment files under the content root that no case
references. Exits non-zero when anything is found.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fetcher, err := shell.NewFetcher(cfg.Source)
	if err != nil {
		return err
	}

	ctx := context.Background()
	data, err := fetcher.Fetch(ctx, cfg.Source.Manifest)
	if err != nil {
		return fmt.Errorf("fetching manifest: %w", err)
	}

	checker := &lint.Checker{
		Fetcher:   fetcher,
		Fragments: cfg.Build.Fragments,
		Exclude:   cfg.Build.Exclude,
		HomeSrc:   cfg.Site.HomeSrc,
		Log:       logger,
	}
	if cfg.Source.Kind == config.SourceDir || cfg.Source.Kind == "" {
		checker.Root = cfg.Source.Root
	}

	report, err := checker.Check(ctx, data)
	if err != nil {
		return err
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, issue := range report.Issues {
			fmt.Println(issue)
		}
		fmt.Printf("%d case(s), %d fragment file(s), %d issue(s)\n", report.Cases, report.Fragments, len(report.Issues))
	}

	if !report.OK() {
		return fmt.Errorf("check found %d issue(s)", len(report.Issues))
	}
	return nil
}
