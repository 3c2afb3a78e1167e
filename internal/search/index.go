// Package search builds the case search index. Documents are embedded into
// an in-memory chromem-go collection and queried by similarity.
package search

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/caseshelf/internal/embeddings"
	"github.com/ziadkadry99/caseshelf/internal/manifest"
)

const collectionName = "cases"

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 10

// Entry is one searchable case.
type Entry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Src         string `json:"src"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Text        string `json:"text,omitempty"`
}

// Result is a search hit.
type Result struct {
	Entry
	Similarity float32 `json:"similarity"`
}

// TextSource supplies extra searchable text for a case, usually the
// fragment body. Returning an error skips the extra text for that case.
type TextSource func(ctx context.Context, c manifest.Case) (string, error)

// Index is an immutable search index over the cases of one manifest.
type Index struct {
	embedder   embeddings.Embedder
	collection *chromem.Collection
	entries    []Entry
	byID       map[string]int
}

// Collect lists every case in categories, direct-link categories
// included, in manifest order. text may be nil.
func Collect(ctx context.Context, categories []manifest.Category, text TextSource) []Entry {
	var entries []Entry
	seen := make(map[string]bool)
	add := func(c manifest.Case, category, subcategory string) {
		if seen[c.ID] {
			return
		}
		seen[c.ID] = true
		entry := Entry{ID: c.ID, Title: c.Title, Src: c.Src, Category: category, Subcategory: subcategory}
		if text != nil {
			if t, err := text(ctx, c); err == nil {
				entry.Text = t
			}
		}
		entries = append(entries, entry)
	}

	for _, cat := range categories {
		if cat.IsSpacer() {
			continue
		}
		if cat.Src != "" && cat.ID != "" {
			add(manifest.Case{ID: cat.ID, Title: cat.Name, Src: cat.Src}, cat.Name, "")
		}
		for _, c := range cat.Cases {
			add(c, cat.Name, "")
		}
		for _, sub := range cat.Subcategories {
			for _, c := range sub.Cases {
				add(c, cat.Name, sub.Name)
			}
		}
	}
	return entries
}

// Build indexes every case in categories. text may be nil.
func Build(ctx context.Context, categories []manifest.Category, e embeddings.Embedder, text TextSource) (*Index, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, embeddings.ToChromemFunc(e))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	idx := &Index{
		embedder:   e,
		collection: col,
		entries:    Collect(ctx, categories, text),
		byID:       make(map[string]int),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(idx.entries) == 0 {
		return idx, nil
	}

	docs := make([]chromem.Document, len(idx.entries))
	for i, entry := range idx.entries {
		idx.byID[entry.ID] = i
		docs[i] = chromem.Document{
			ID:      entry.ID,
			Content: documentText(entry),
			Metadata: map[string]string{
				"category":    entry.Category,
				"subcategory": entry.Subcategory,
			},
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("indexing cases: %w", err)
	}
	return idx, nil
}

func documentText(e Entry) string {
	parts := []string{e.Title, e.Title, e.Category}
	if e.Subcategory != "" {
		parts = append(parts, e.Subcategory)
	}
	if e.Text != "" {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, "\n")
}

// Search returns up to limit cases ranked by similarity to query. Cases
// whose title contains the query rank first. A blank query returns nothing.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" || len(idx.entries) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	// chromem-go requires nResults <= collection size.
	n := min(limit, idx.collection.Count())
	hits, err := idx.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	lower := strings.ToLower(query)
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		i, ok := idx.byID[h.ID]
		if !ok {
			continue
		}
		entry := idx.entries[i]
		if h.Similarity <= 0 && !strings.Contains(strings.ToLower(entry.Title), lower) {
			continue
		}
		results = append(results, Result{Entry: entry, Similarity: h.Similarity})
	}
	sort.SliceStable(results, func(a, b int) bool {
		ta := strings.Contains(strings.ToLower(results[a].Title), lower)
		tb := strings.Contains(strings.ToLower(results[b].Title), lower)
		return ta && !tb
	})
	return results, nil
}

// Lookup returns the indexed entry for id.
func (idx *Index) Lookup(id string) (Entry, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Entries returns the indexed cases in manifest order.
func (idx *Index) Entries() []Entry {
	return append([]Entry(nil), idx.entries...)
}

// Len returns the number of indexed cases.
func (idx *Index) Len() int { return len(idx.entries) }

// Embedder returns the name of the embedder that built the index.
func (idx *Index) Embedder() string { return idx.embedder.Name() }
