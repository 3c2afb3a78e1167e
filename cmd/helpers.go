package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/config"
	"github.com/ziadkadry99/caseshelf/internal/embeddings"
	"github.com/ziadkadry99/caseshelf/internal/shell"
)

// createEmbedderFromConfig creates the embeddings.Embedder selected by the
// search config. Shared by serve, build and mcp.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Search.Provider {
	case config.EmbeddingOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.EmbeddingOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, cfg.Search.Model, cfg.Search.Dimensions), nil
	case config.EmbeddingHash, "":
		return embeddings.NewHashEmbedder(cfg.Search.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Search.Provider)
	}
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `caseshelf init` to create a config file", err)
	}
	return cfg, nil
}

// openSession fetches the manifest named by cfg. A manifest failure still
// yields a session so the caller can render the failure state; the error
// is returned alongside it.
func openSession(ctx context.Context, cfg *config.Config) (*shell.Session, error) {
	fetcher, err := shell.NewFetcher(cfg.Source)
	if err != nil {
		return shell.Failed(cfg, err, logger), err
	}
	session, err := shell.Load(ctx, cfg, fetcher, logger)
	if err != nil {
		logger.Error("manifest unavailable", zap.String("manifest", cfg.Source.Manifest), zap.Error(err))
		return shell.Failed(cfg, err, logger), err
	}
	return session, nil
}

// startSearch builds the search index in the background. When the embedder
// cannot be created the search controls report unavailable.
func startSearch(ctx context.Context, cfg *config.Config, session *shell.Session) {
	if !cfg.Search.Enabled || session.Err() != nil {
		return
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		logger.Warn("search disabled", zap.Error(err))
		session.DisableSearch()
		return
	}
	go session.BuildSearch(ctx, embedder)
}

// sessionSummary describes a session for command output.
func sessionSummary(s *shell.Session) string {
	if s.Err() != nil {
		return "manifest unavailable"
	}
	return fmt.Sprintf("%d case(s)", s.Manifest.Len())
}
