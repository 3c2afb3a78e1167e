package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "CASESHELF_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CASESHELF_*). A double underscore
// separates nested keys: CASESHELF_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validSourceKinds = map[SourceKind]bool{
	SourceDir:  true,
	SourceHTTP: true,
}

var validProviders = map[EmbeddingProvider]bool{
	EmbeddingHash:   true,
	EmbeddingOpenAI: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validSourceKinds[c.Source.Kind] {
		return fmt.Errorf("invalid source.kind %q: must be one of dir, http", c.Source.Kind)
	}
	if c.Source.Root == "" {
		return fmt.Errorf("source.root is required")
	}
	if c.Source.Kind == SourceHTTP && !strings.HasPrefix(c.Source.Root, "http://") && !strings.HasPrefix(c.Source.Root, "https://") {
		return fmt.Errorf("source.root %q must be an http(s) URL when source.kind is http", c.Source.Root)
	}
	if c.Source.Manifest == "" {
		return fmt.Errorf("source.manifest is required")
	}

	if c.Site.HomeID == "" {
		return fmt.Errorf("site.home_id is required")
	}
	if c.Site.HomeSrc == "" {
		return fmt.Errorf("site.home_src is required")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Search.Enabled {
		if !validProviders[c.Search.Provider] {
			return fmt.Errorf("invalid search.provider %q: must be one of hash, openai", c.Search.Provider)
		}
		if c.Search.Provider == EmbeddingHash && c.Search.Dimensions <= 0 {
			return fmt.Errorf("search.dimensions must be positive")
		}
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

// APIKeyEnvVar returns the environment variable holding the API key for
// the given embedding provider, or "" if the provider needs none.
func APIKeyEnvVar(p EmbeddingProvider) string {
	if p == EmbeddingOpenAI {
		return "OPENAI_API_KEY"
	}
	return ""
}
