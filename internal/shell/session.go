// Package shell runs the case library for one viewer at a time. A Session
// holds what every viewer shares and never changes after it is built; a
// Viewer holds one browser's navigation and bookmark state.
package shell

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/config"
	"github.com/ziadkadry99/caseshelf/internal/content"
	"github.com/ziadkadry99/caseshelf/internal/embeddings"
	"github.com/ziadkadry99/caseshelf/internal/fetch"
	"github.com/ziadkadry99/caseshelf/internal/manifest"
	"github.com/ziadkadry99/caseshelf/internal/search"
)

// Fixed texts shown around the search controls and the menu.
const (
	PlaceholderPreparing   = "Preparing search..."
	PlaceholderReady       = "Search cases"
	PlaceholderUnavailable = "Search unavailable"
	MenuErrorText          = "Failed to load menu"
)

// ErrSearchUnavailable is returned when the search index is not ready.
var ErrSearchUnavailable = errors.New("search unavailable")

// SearchControls is the state of the page's search input.
type SearchControls struct {
	Disabled    bool   `json:"disabled"`
	Placeholder string `json:"placeholder"`
}

// Session is the read-only context shared by every viewer of one manifest.
// The search index is published once when its build finishes.
type Session struct {
	Config   *config.Config
	Manifest *manifest.Manifest
	Loader   *content.Loader

	err error
	log *zap.Logger

	searchOnce sync.Once
	searchDone chan struct{}
	index      *search.Index
	indexErr   error
	loadedAt   time.Time
}

// NewFetcher creates the fetcher described by the source config.
func NewFetcher(src config.SourceConfig) (fetch.Fetcher, error) {
	switch src.Kind {
	case config.SourceDir, "":
		return fetch.NewDirFetcher(src.Root), nil
	case config.SourceHTTP:
		return fetch.NewHTTPFetcher(src.Root, &http.Client{Timeout: 30 * time.Second})
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// Load fetches and parses the manifest and returns a ready Session.
func Load(ctx context.Context, cfg *config.Config, fetcher fetch.Fetcher, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := fetcher.Fetch(ctx, cfg.Source.Manifest)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading manifest %s: %w", cfg.Source.Manifest, err)
	}

	s := newSession(cfg, logger)
	s.Manifest = m
	s.Loader = content.NewLoader(fetcher, logger)
	if !cfg.Search.Enabled {
		s.DisableSearch()
	}
	logger.Info("session loaded",
		zap.String("manifest", cfg.Source.Manifest),
		zap.Int("cases", m.Len()),
	)
	return s, nil
}

// Failed returns a Session that records a manifest failure. Viewers of a
// failed session show the menu error and keep search disabled.
func Failed(cfg *config.Config, err error, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := newSession(cfg, logger)
	s.err = err
	s.DisableSearch()
	return s
}

func newSession(cfg *config.Config, logger *zap.Logger) *Session {
	return &Session{
		Config:     cfg,
		log:        logger.Named("session"),
		searchDone: make(chan struct{}),
		loadedAt:   time.Now(),
	}
}

// Err returns the manifest failure, or nil.
func (s *Session) Err() error { return s.err }

// LoadedAt returns when the session was created.
func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// BuildSearch builds the search index with e. Only the first call has an
// effect; it blocks until the build finishes.
func (s *Session) BuildSearch(ctx context.Context, e embeddings.Embedder) {
	if s.err != nil || s.Manifest == nil {
		return
	}
	s.searchOnce.Do(func() {
		start := time.Now()
		idx, err := search.Build(ctx, s.Manifest.Categories(), e, s.FragmentText)
		if err != nil {
			s.log.Warn("search index build failed", zap.Error(err))
			s.publish(nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err))
			return
		}
		s.log.Info("search index ready",
			zap.String("embedder", e.Name()),
			zap.Int("cases", idx.Len()),
			zap.Duration("took", time.Since(start)),
		)
		s.publish(idx, nil)
	})
}

// publish must run inside searchOnce.
func (s *Session) publish(idx *search.Index, err error) {
	s.index, s.indexErr = idx, err
	close(s.searchDone)
}

// DisableSearch marks search unavailable unless a build already ran.
func (s *Session) DisableSearch() {
	s.searchOnce.Do(func() { s.publish(nil, ErrSearchUnavailable) })
}

// FragmentText returns the visible text of a case fragment.
func (s *Session) FragmentText(ctx context.Context, c manifest.Case) (string, error) {
	frag, err := s.Loader.Load(ctx, c.Src)
	if err != nil {
		return "", err
	}
	return frag.Text(), nil
}

// Index returns the search index once it is ready.
func (s *Session) Index() (*search.Index, error) {
	select {
	case <-s.searchDone:
		if s.indexErr != nil {
			return nil, s.indexErr
		}
		return s.index, nil
	default:
		return nil, ErrSearchUnavailable
	}
}

// WaitSearch blocks until the search build finishes or ctx is done.
func (s *Session) WaitSearch(ctx context.Context) error {
	select {
	case <-s.searchDone:
		return s.indexErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SearchControls reports how the search input should be shown.
func (s *Session) SearchControls() SearchControls {
	select {
	case <-s.searchDone:
		if s.indexErr != nil {
			return SearchControls{Disabled: true, Placeholder: PlaceholderUnavailable}
		}
		return SearchControls{Placeholder: PlaceholderReady}
	default:
		return SearchControls{Disabled: true, Placeholder: PlaceholderPreparing}
	}
}

// Lookup resolves id to the src and title of a case. The home id resolves
// to the configured home fragment.
func (s *Session) Lookup(id string) (manifest.Case, bool) {
	if id == s.Config.Site.HomeID {
		return manifest.Case{ID: id, Title: s.Config.Site.HomeTitle, Src: s.Config.Site.HomeSrc}, true
	}
	if s.Manifest == nil {
		return manifest.Case{}, false
	}
	loc, ok := s.Manifest.Lookup(id)
	if !ok {
		return manifest.Case{}, false
	}
	return loc.Case, true
}
