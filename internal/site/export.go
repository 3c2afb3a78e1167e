// Package site exports the case library as a static site: one page per
// case, a home page, a search index, and the site's assets.
package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/bookmarks"
	"github.com/ziadkadry99/caseshelf/internal/db"
	"github.com/ziadkadry99/caseshelf/internal/logging"
	"github.com/ziadkadry99/caseshelf/internal/progress"
	"github.com/ziadkadry99/caseshelf/internal/search"
	"github.com/ziadkadry99/caseshelf/internal/shell"
	"github.com/ziadkadry99/caseshelf/internal/view"
)

// SearchIndexFile is the name of the exported search index.
const SearchIndexFile = "search-index.json"

// Exporter writes a static copy of a session.
type Exporter struct {
	Session   *shell.Session
	OutputDir string
	AssetsDir string   // content root to copy assets from; empty skips assets
	Assets    []string // doublestar patterns relative to AssetsDir
	Exclude   []string // doublestar patterns never copied
	Reporter  progress.Reporter
	Log       *zap.Logger
}

// Result summarizes an export.
type Result struct {
	Pages  int
	Assets int
	Failed []string // case ids whose fragment could not be loaded
}

// Export writes index.html, c/<id>.html for every case, the search index
// and the assets. A case whose fragment fails is exported with the error
// block and listed in Result.Failed.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	if err := e.Session.Err(); err != nil {
		return nil, fmt.Errorf("cannot export: %w", err)
	}
	log := logging.OrNop(e.Log).Named("export")
	reporter := e.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}

	if err := os.MkdirAll(filepath.Join(e.OutputDir, "c"), 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	assets, err := e.collectAssets()
	if err != nil {
		return nil, err
	}
	var stylesheets []string
	for _, a := range assets {
		if strings.HasSuffix(a, ".css") {
			stylesheets = append(stylesheets, a)
		}
	}

	// Pages render against a throwaway bookmark store.
	scratch, err := db.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("opening scratch store: %w", err)
	}
	defer scratch.Close()
	store := bookmarks.NewStore(scratch, "export", log)

	cases := e.Session.Manifest.Cases()
	res := &Result{}
	reporter.Start(len(cases)+1, "Exporting cases")

	home := e.Session.Config.Site.HomeID
	if _, err := e.writePage(ctx, store, home, filepath.Join(e.OutputDir, "index.html"), "./", stylesheets); err != nil {
		if !errors.Is(err, shell.ErrContentUnavailable) {
			return nil, err
		}
		res.Failed = append(res.Failed, home)
	}
	res.Pages++
	reporter.Update(1, home)

	for i, c := range cases {
		out := filepath.Join(e.OutputDir, filepath.FromSlash(PagePath(c.ID)))
		if _, err := e.writePage(ctx, store, c.ID, out, "../", stylesheets); err != nil {
			if !errors.Is(err, shell.ErrContentUnavailable) {
				return nil, fmt.Errorf("exporting %s: %w", c.ID, err)
			}
			log.Warn("case exported with error block", zap.String("id", c.ID), zap.Error(err))
			res.Failed = append(res.Failed, c.ID)
		}
		res.Pages++
		reporter.Update(i+2, c.ID)
	}
	reporter.Finish()

	if err := e.writeSearchIndex(ctx); err != nil {
		return nil, err
	}

	for _, a := range assets {
		if err := copyFile(filepath.Join(e.AssetsDir, filepath.FromSlash(a)), filepath.Join(e.OutputDir, filepath.FromSlash(a))); err != nil {
			return nil, fmt.Errorf("copying %s: %w", a, err)
		}
		res.Assets++
	}

	log.Info("export complete",
		zap.String("dir", e.OutputDir),
		zap.Int("pages", res.Pages),
		zap.Int("assets", res.Assets),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

// writePage renders the page for id with a fresh viewer so only that
// case's sections are expanded.
func (e *Exporter) writePage(ctx context.Context, store *bookmarks.Store, id, out, base string, stylesheets []string) (shell.Page, error) {
	v := shell.NewViewer("export", e.Session, store, e.Log)
	defer v.Close()
	if err := v.Init(ctx); err != nil {
		return shell.Page{}, err
	}
	openErr := v.Open(ctx, id)
	if openErr != nil && !errors.Is(openErr, shell.ErrContentUnavailable) {
		return shell.Page{}, openErr
	}

	page, err := v.View(ctx)
	if err != nil {
		return page, err
	}
	// Static pages search the exported index in the browser.
	page.Search = shell.SearchControls{Placeholder: shell.PlaceholderReady}
	if openErr != nil {
		// The viewer stays where it was; label the failed page itself.
		page.CaseID = id
	}

	f, err := os.Create(out)
	if err != nil {
		return page, err
	}
	defer f.Close()
	if err := view.Render(f, page, view.Options{Mode: view.ModeStatic, BasePath: base, Stylesheets: stylesheets}); err != nil {
		return page, err
	}
	return page, openErr
}

func (e *Exporter) writeSearchIndex(ctx context.Context) error {
	var entries []search.Entry
	if idx, err := e.Session.Index(); err == nil {
		entries = idx.Entries()
	} else {
		entries = search.Collect(ctx, e.Session.Manifest.Categories(), e.Session.FragmentText)
	}
	if entries == nil {
		entries = []search.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding search index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.OutputDir, SearchIndexFile), data, 0o644); err != nil {
		return fmt.Errorf("writing search index: %w", err)
	}
	return nil
}

// collectAssets returns the asset paths under AssetsDir matching Assets,
// minus Exclude and anything inside the output directory.
func (e *Exporter) collectAssets() ([]string, error) {
	if e.AssetsDir == "" || len(e.Assets) == 0 {
		return nil, nil
	}
	fsys := os.DirFS(e.AssetsDir)
	outRel := ""
	if rel, err := filepath.Rel(e.AssetsDir, e.OutputDir); err == nil && !strings.HasPrefix(rel, "..") {
		outRel = filepath.ToSlash(rel)
	}

	seen := make(map[string]bool)
	var out []string
	for _, pattern := range e.Assets {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || excluded(m, e.Exclude) || within(m, outRel) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func excluded(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

func within(p, dir string) bool {
	if dir == "" || dir == "." {
		return false
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// PagePath returns the exported page path of a case id.
func PagePath(id string) string {
	return path.Join("c", id+".html")
}

