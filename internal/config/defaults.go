package config

// DefaultAssets are glob patterns copied verbatim by the static export.
var DefaultAssets = []string{
	"**/*.css",
	"**/*.js",
	"**/*.png",
	"**/*.jpg",
	"**/*.jpeg",
	"**/*.gif",
	"**/*.svg",
	"**/*.webp",
}

// DefaultFragments are glob patterns the checker treats as case fragments.
var DefaultFragments = []string{
	"portfolio/**/*.html",
	"portfolio/**/*.md",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:     SourceDir,
			Root:     ".",
			Manifest: "portfolio.json",
		},
		Site: SiteConfig{
			Name:          "Portfolio",
			HomeID:        "home",
			HomeSrc:       "portfolio/home.html",
			HomeTitle:     "Portfolio",
			HomeSubtitle:  "Case library",
			FallbackTitle: "Case Study",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Search: SearchConfig{
			Enabled:    true,
			Provider:   EmbeddingHash,
			Dimensions: 256,
		},
		Build: BuildConfig{
			OutputDir: "dist",
			Assets:    DefaultAssets,
			Fragments: DefaultFragments,
		},
		DataDir: ".caseshelf",
	}
}
