package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the
// resulting Config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to caseshelf! Let's configure your case library.")
	fmt.Println()

	cfg := DefaultConfig()

	kindPrompt := promptui.Select{
		Label: "Where do the manifest and fragments live",
		Items: []string{
			"dir  — a local directory",
			"http — a remote site",
		},
	}
	kindIdx, _, err := kindPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("source selection: %w", err)
	}
	cfg.Source.Kind = []SourceKind{SourceDir, SourceHTTP}[kindIdx]

	rootDefault := detectRoot()
	if cfg.Source.Kind == SourceHTTP {
		rootDefault = "https://"
	}
	rootPrompt := promptui.Prompt{
		Label:   "Content root (directory or base URL)",
		Default: rootDefault,
	}
	if cfg.Source.Root, err = rootPrompt.Run(); err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}

	manifestPrompt := promptui.Prompt{
		Label:   "Manifest path",
		Default: cfg.Source.Manifest,
	}
	if cfg.Source.Manifest, err = manifestPrompt.Run(); err != nil {
		return nil, fmt.Errorf("manifest path: %w", err)
	}

	namePrompt := promptui.Prompt{
		Label:   "Site name",
		Default: cfg.Site.Name,
	}
	if cfg.Site.Name, err = namePrompt.Run(); err != nil {
		return nil, fmt.Errorf("site name: %w", err)
	}
	cfg.Site.HomeTitle = cfg.Site.Name

	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	searchPrompt := promptui.Select{
		Label: "Search embeddings",
		Items: []string{
			"hash   — local, no network",
			"openai — text-embedding-3-small",
			"off    — disable search",
		},
	}
	searchIdx, _, err := searchPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("search selection: %w", err)
	}
	switch searchIdx {
	case 0:
		cfg.Search.Provider = EmbeddingHash
	case 1:
		cfg.Search.Provider = EmbeddingOpenAI
		cfg.Search.Model = "text-embedding-3-small"
	default:
		cfg.Search.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(cfg.Search.Provider); cfg.Search.Enabled && envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running caseshelf serve.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// detectRoot suggests a content root by looking for a manifest nearby.
func detectRoot() string {
	for _, dir := range []string{".", "public", "site", "docs"} {
		if _, err := os.Stat(dir + "/portfolio.json"); err == nil {
			return dir
		}
	}
	return "."
}
