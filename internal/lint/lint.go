// Package lint checks a case library for manifest and fragment problems:
// duplicate ids, fragments that cannot be fetched, and fragment files no
// case references.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/caseshelf/internal/content"
	"github.com/ziadkadry99/caseshelf/internal/fetch"
	"github.com/ziadkadry99/caseshelf/internal/logging"
	"github.com/ziadkadry99/caseshelf/internal/manifest"
)

// Kind classifies an issue.
type Kind string

const (
	KindDuplicateID     Kind = "duplicate-id"
	KindCategoryID      Kind = "category-id"
	KindIncomplete      Kind = "incomplete-case"
	KindMissingFragment Kind = "missing-fragment"
	KindOrphanFragment  Kind = "orphan-fragment"
)

// Issue is one problem found by the checker.
type Issue struct {
	Kind    Kind   `json:"kind"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
}

// Report is the outcome of a check.
type Report struct {
	Cases     int     `json:"cases"`
	Fragments int     `json:"fragments"`
	Issues    []Issue `json:"issues"`
}

// OK reports whether the check found nothing.
func (r *Report) OK() bool { return len(r.Issues) == 0 }

// Count returns the number of issues of the given kind.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, i := range r.Issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// FetchConcurrency bounds the parallel fragment fetches of a check.
const FetchConcurrency = 8

// Checker inspects a manifest and its fragments.
type Checker struct {
	Fetcher   fetch.Fetcher
	Root      string   // local content root for the orphan scan; empty skips it
	Fragments []string // doublestar patterns naming fragment files under Root
	Exclude   []string
	HomeSrc   string // counts as referenced and must be fetchable
	Log       *zap.Logger
}

// ref is one case reference read from the raw manifest.
type ref struct {
	id, title, src, where string
}

// Check reads the manifest document and reports every issue found. It
// returns an error only when the document cannot be decoded at all.
func (c *Checker) Check(ctx context.Context, data []byte) (*Report, error) {
	log := logging.OrNop(c.Log).Named("lint")

	// The raw document is walked directly so every duplicate is reported,
	// not just the first one manifest.Parse stops at.
	var doc manifest.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	refs := collectRefs(doc.MainCategories)

	report := &Report{Issues: categoryIssues(doc.MainCategories)}
	seen := make(map[string]string)
	referenced := make(map[string]bool)
	var fetchable []ref

	for _, r := range refs {
		if r.id == "" || r.src == "" {
			report.Issues = append(report.Issues, Issue{
				Kind:    KindIncomplete,
				ID:      r.id,
				Message: fmt.Sprintf("case %q in %s needs both an id and a src", r.title, r.where),
			})
			continue
		}
		if first, dup := seen[r.id]; dup {
			report.Issues = append(report.Issues, Issue{
				Kind:    KindDuplicateID,
				ID:      r.id,
				Message: fmt.Sprintf("id %q in %s was already used in %s", r.id, r.where, first),
			})
			continue
		}
		seen[r.id] = r.where
		report.Cases++
		referenced[normalize(r.src)] = true
		fetchable = append(fetchable, r)
	}
	if c.HomeSrc != "" {
		referenced[normalize(c.HomeSrc)] = true
		fetchable = append(fetchable, ref{id: "home", src: c.HomeSrc, where: "site config"})
	}

	if c.Fetcher != nil {
		missing, err := c.fetchAll(ctx, log, fetchable)
		if err != nil {
			return nil, err
		}
		report.Issues = append(report.Issues, missing...)
	}

	if c.Root != "" && len(c.Fragments) > 0 {
		files, err := c.fragmentFiles()
		if err != nil {
			return nil, err
		}
		report.Fragments = len(files)
		for _, f := range files {
			if referenced[f] {
				continue
			}
			report.Issues = append(report.Issues, Issue{
				Kind:    KindOrphanFragment,
				Path:    f,
				Message: fmt.Sprintf("fragment %s is not referenced by any case", f),
			})
		}
	}

	log.Debug("check complete",
		zap.Int("cases", report.Cases),
		zap.Int("fragments", report.Fragments),
		zap.Int("issues", len(report.Issues)),
	)
	return report, nil
}

// categoryIssues reports missing and repeated category ids, and subcategory
// ids repeated within one category. Those ids name sidebar sections.
func categoryIssues(cats []manifest.Category) []Issue {
	var issues []Issue
	seen := make(map[string]bool)
	for i, cat := range cats {
		if cat.IsSpacer() {
			continue
		}
		switch {
		case cat.ID == "":
			issues = append(issues, Issue{
				Kind:    KindCategoryID,
				Message: fmt.Sprintf("category %d (%q) has no id", i, cat.Name),
			})
		case seen[cat.ID]:
			issues = append(issues, Issue{
				Kind:    KindCategoryID,
				ID:      cat.ID,
				Message: fmt.Sprintf("category id %q is used more than once", cat.ID),
			})
		}
		seen[cat.ID] = true

		subs := make(map[string]bool)
		for j, sub := range cat.Subcategories {
			switch {
			case sub.ID == "":
				issues = append(issues, Issue{
					Kind:    KindCategoryID,
					Message: fmt.Sprintf("subcategory %d (%q) in category %q has no id", j, sub.Name, cat.ID),
				})
			case subs[sub.ID]:
				issues = append(issues, Issue{
					Kind:    KindCategoryID,
					ID:      sub.ID,
					Message: fmt.Sprintf("subcategory id %q is used more than once in category %q", sub.ID, cat.ID),
				})
			}
			subs[sub.ID] = true
		}
	}
	return issues
}

// fetchAll fetches every referenced fragment concurrently and reports the
// ones that fail at both paths, in reference order.
func (c *Checker) fetchAll(ctx context.Context, log *zap.Logger, refs []ref) ([]Issue, error) {
	loader := content.NewLoader(c.Fetcher, log)
	failed := make([]bool, len(refs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(FetchConcurrency)
	for i, r := range refs {
		eg.Go(func() error {
			if _, err := loader.Fetch(egCtx, r.src); err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				failed[i] = true
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var issues []Issue
	for i, r := range refs {
		if !failed[i] {
			continue
		}
		issues = append(issues, Issue{
			Kind:    KindMissingFragment,
			ID:      r.id,
			Path:    r.src,
			Message: fmt.Sprintf("fragment %s for %q could not be fetched", r.src, r.id),
		})
	}
	return issues, nil
}

func collectRefs(categories []manifest.Category) []ref {
	var refs []ref
	for _, cat := range categories {
		if cat.IsSpacer() {
			continue
		}
		where := fmt.Sprintf("category %q", cat.ID)
		if cat.Src != "" {
			refs = append(refs, ref{id: cat.ID, title: cat.Name, src: cat.Src, where: where})
		}
		for _, cs := range cat.Cases {
			refs = append(refs, ref{id: cs.ID, title: cs.Title, src: cs.Src, where: where})
		}
		for _, sub := range cat.Subcategories {
			subWhere := fmt.Sprintf("subcategory %q of %s", sub.ID, where)
			for _, cs := range sub.Cases {
				refs = append(refs, ref{id: cs.ID, title: cs.Title, src: cs.Src, where: subWhere})
			}
		}
	}
	return refs
}

// fragmentFiles lists the files under Root matching Fragments, minus
// Exclude, as slash-separated paths relative to Root.
func (c *Checker) fragmentFiles() ([]string, error) {
	fsys := os.DirFS(c.Root)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range c.Fragments {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || MatchesExclude(m, c.Exclude) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// MatchesExclude reports whether relPath matches any pattern, either as a
// whole path or by its base name.
func MatchesExclude(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := path.Base(normalized)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.PathMatch(pattern, normalized); err == nil && ok {
			return true
		}
		if ok, err := doublestar.PathMatch(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// normalize turns a manifest src into a root-relative slash path.
func normalize(src string) string {
	src = strings.TrimLeft(strings.TrimPrefix(src, "./"), "/")
	return path.Clean(src)
}
