package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Source.Kind != SourceDir {
		t.Errorf("expected default source kind %q, got %q", SourceDir, cfg.Source.Kind)
	}
	if cfg.Site.HomeID != "home" {
		t.Errorf("expected default home id %q, got %q", "home", cfg.Site.HomeID)
	}
	if cfg.Site.HomeSrc != "portfolio/home.html" {
		t.Errorf("expected default home src, got %q", cfg.Site.HomeSrc)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Search.Provider != EmbeddingHash {
		t.Errorf("expected default provider %q, got %q", EmbeddingHash, cfg.Search.Provider)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.caseshelf.yml")

	original := DefaultConfig()
	original.Source.Kind = SourceHTTP
	original.Source.Root = "https://example.com/site/"
	original.Site.Name = "Field Notes"
	original.Server.Port = 9090
	original.Build.Assets = []string{"img/**"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Source.Kind != original.Source.Kind {
		t.Errorf("source.kind: got %q, want %q", loaded.Source.Kind, original.Source.Kind)
	}
	if loaded.Source.Root != original.Source.Root {
		t.Errorf("source.root: got %q, want %q", loaded.Source.Root, original.Source.Root)
	}
	if loaded.Site.Name != original.Site.Name {
		t.Errorf("site.name: got %q, want %q", loaded.Site.Name, original.Site.Name)
	}
	if loaded.Server.Port != original.Server.Port {
		t.Errorf("server.port: got %d, want %d", loaded.Server.Port, original.Server.Port)
	}
	if len(loaded.Build.Assets) != 1 || loaded.Build.Assets[0] != "img/**" {
		t.Errorf("build.assets: got %v", loaded.Build.Assets)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Source.Manifest != "portfolio.json" {
		t.Errorf("expected default manifest, got %q", cfg.Source.Manifest)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("CASESHELF_SERVER__PORT", "7000")
	t.Setenv("CASESHELF_DATA_DIR", "/var/lib/caseshelf")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != 7000 {
		t.Errorf("env override failed: got port %d, want 7000", loaded.Server.Port)
	}
	if loaded.DataDir != "/var/lib/caseshelf" {
		t.Errorf("env override failed: got data_dir %q", loaded.DataDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"invalid source kind", func(c *Config) { c.Source.Kind = "ftp" }, true},
		{"empty root", func(c *Config) { c.Source.Root = "" }, true},
		{"http root without scheme", func(c *Config) { c.Source.Kind = SourceHTTP; c.Source.Root = "example.com" }, true},
		{"http root", func(c *Config) { c.Source.Kind = SourceHTTP; c.Source.Root = "https://example.com" }, false},
		{"empty manifest", func(c *Config) { c.Source.Manifest = "" }, true},
		{"empty home id", func(c *Config) { c.Site.HomeID = "" }, true},
		{"empty home src", func(c *Config) { c.Site.HomeSrc = "" }, true},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, true},
		{"invalid provider", func(c *Config) { c.Search.Provider = "cohere" }, true},
		{"invalid provider with search off", func(c *Config) { c.Search.Enabled = false; c.Search.Provider = "cohere" }, false},
		{"zero dimensions", func(c *Config) { c.Search.Dimensions = 0 }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(EmbeddingOpenAI); got != "OPENAI_API_KEY" {
		t.Errorf("APIKeyEnvVar(openai) = %q", got)
	}
	if got := APIKeyEnvVar(EmbeddingHash); got != "" {
		t.Errorf("APIKeyEnvVar(hash) = %q, want empty", got)
	}
}
