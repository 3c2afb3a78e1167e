package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/caseshelf/internal/content"
)

var showWidth int

var showCmd = &cobra.Command{
	Use:   "show <case-id>",
	Short: "Print a case in the terminal",
	Long:  `Loads a case fragment the way the viewer does and renders it as styled Markdown in the terminal.`,
	Args:  cobra.ExactArgs(1),
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

		c, ok := session.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no case with id %q", args[0])
		}
		raw, err := session.Loader.Fetch(ctx, c.Src)
		if err != nil {
			return fmt.Errorf("loading %s: %w", c.Src, err)
		}

		md := string(raw)
		if !content.IsMarkdown(c.Src) {
			frag, err := content.ParseFragment(raw)
			if err != nil {
				return err
			}
			md = frag.Markdown()
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(showWidth),
		)
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		out, err := renderer.Render(md)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&showWidth, "width", 80, "wrap width")
	rootCmd.AddCommand(showCmd)
}
