package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/caseshelf/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize caseshelf configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to describe your case library and writes a .caseshelf.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
