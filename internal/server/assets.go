package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// assetHandler serves files under root that match one of the asset
// patterns. Anything else answers 404 without touching the file system:
// dot-segments, excluded paths, paths inside a denied directory, and
// files no pattern names.
type assetHandler struct {
	root     string
	patterns []string
	exclude  []string
	deny     []string // slash paths relative to root
	files    http.Handler
}

func newAssetHandler(root string, patterns, exclude, denyDirs []string, log *zap.Logger) *assetHandler {
	h := &assetHandler{
		root:     root,
		patterns: patterns,
		exclude:  exclude,
		files:    http.FileServer(http.Dir(root)),
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	for _, d := range denyDirs {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue // outside the served tree
		}
		if rel == "." {
			log.Warn("data directory is the content root; serving no assets", zap.String("dir", d))
			h.patterns = nil
			continue
		}
		h.deny = append(h.deny, filepath.ToSlash(rel))
	}
	return h
}

func (h *assetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel, ok := h.servable(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	info, err := os.Lstat(filepath.Join(h.root, filepath.FromSlash(rel)))
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}

// servable reports whether urlPath names an asset, returning it relative
// to the root.
func (h *assetHandler) servable(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if rel == "" {
		return "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	for _, d := range h.deny {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return "", false
		}
	}
	base := path.Base(rel)
	for _, p := range h.exclude {
		p = filepath.ToSlash(p)
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return "", false
		}
		if ok, err := doublestar.Match(p, base); err == nil && ok {
			return "", false
		}
	}
	for _, p := range h.patterns {
		if ok, err := doublestar.Match(filepath.ToSlash(p), rel); err == nil && ok {
			return rel, true
		}
	}
	return "", false
}
