package config

// SourceKind identifies where the manifest and fragments are fetched from.
type SourceKind string

const (
	SourceDir  SourceKind = "dir"
	SourceHTTP SourceKind = "http"
)

// EmbeddingProvider selects the embedder used by the search index.
type EmbeddingProvider string

const (
	EmbeddingHash   EmbeddingProvider = "hash"
	EmbeddingOpenAI EmbeddingProvider = "openai"
)

// Config is the top-level caseshelf configuration, corresponding to .caseshelf.yml.
type Config struct {
	Source  SourceConfig `yaml:"source" koanf:"source"`
	Site    SiteConfig   `yaml:"site" koanf:"site"`
	Server  ServerConfig `yaml:"server" koanf:"server"`
	Search  SearchConfig `yaml:"search" koanf:"search"`
	Build   BuildConfig  `yaml:"build" koanf:"build"`
	DataDir string       `yaml:"data_dir" koanf:"data_dir"`
}

// SourceConfig describes where the manifest and case fragments live.
type SourceConfig struct {
	Kind     SourceKind `yaml:"kind" koanf:"kind"`
	Root     string     `yaml:"root" koanf:"root"` // directory path or base URL
	Manifest string     `yaml:"manifest" koanf:"manifest"`
}

// SiteConfig holds the fixed strings and identifiers of the rendered site.
type SiteConfig struct {
	Name          string `yaml:"name" koanf:"name"`
	HomeID        string `yaml:"home_id" koanf:"home_id"`
	HomeSrc       string `yaml:"home_src" koanf:"home_src"`
	HomeTitle     string `yaml:"home_title" koanf:"home_title"`
	HomeSubtitle  string `yaml:"home_subtitle" koanf:"home_subtitle"`
	FallbackTitle string `yaml:"fallback_title" koanf:"fallback_title"`
	Logo          string `yaml:"logo" koanf:"logo"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
	Watch    bool `yaml:"watch" koanf:"watch"`
}

// SearchConfig controls the search index.
type SearchConfig struct {
	Enabled    bool              `yaml:"enabled" koanf:"enabled"`
	Provider   EmbeddingProvider `yaml:"provider" koanf:"provider"`
	Model      string            `yaml:"model" koanf:"model"`
	Dimensions int               `yaml:"dimensions" koanf:"dimensions"`
}

// BuildConfig controls the static export and the fragment checker.
type BuildConfig struct {
	OutputDir string   `yaml:"output_dir" koanf:"output_dir"`
	Assets    []string `yaml:"assets" koanf:"assets"`
	Fragments []string `yaml:"fragments" koanf:"fragments"`
	Exclude   []string `yaml:"exclude" koanf:"exclude"`
}
