package search

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ziadkadry99/caseshelf/internal/embeddings"
	"github.com/ziadkadry99/caseshelf/internal/manifest"
)

const testManifest = `{
  "mainCategories": [
    {"type": "main-category", "id": "profile", "name": "Profile", "src": "portfolio/profile.html"},
    {"type": "main-category-spacer"},
    {"type": "main-category", "id": "career", "name": "Career",
     "cases": [
       {"id": "acme", "title": "Acme billing platform rebuild", "src": "portfolio/career/acme.html"},
       {"id": "globex", "title": "Globex data warehouse", "src": "portfolio/career/globex.html"}
     ]},
    {"type": "main-category", "id": "wins", "name": "Key Wins",
     "subcategories": [
       {"id": "edu", "name": "Education",
        "cases": [{"id": "mentoring", "title": "Mentoring Program", "src": "portfolio/wins/mentoring.md"}]}
     ]}
  ]
}`

func buildTestIndex(t *testing.T, text TextSource) *Index {
	t.Helper()
	m, err := manifest.Parse([]byte(testManifest))
	if err != nil {
		t.Fatalf("parsing manifest: %v", err)
	}
	idx, err := Build(context.Background(), m.Categories(), embeddings.NewHashEmbedder(128), text)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestBuildEntries(t *testing.T) {
	idx := buildTestIndex(t, nil)

	var ids []string
	for _, e := range idx.Entries() {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"profile", "acme", "globex", "mentoring"}, ids); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	e, ok := idx.Lookup("mentoring")
	if !ok {
		t.Fatal("mentoring not indexed")
	}
	if e.Category != "Key Wins" || e.Subcategory != "Education" {
		t.Errorf("entry = %+v", e)
	}
	if idx.Embedder() != "hash" {
		t.Errorf("Embedder = %q", idx.Embedder())
	}
}

func TestSearchRanksTitleMatches(t *testing.T) {
	idx := buildTestIndex(t, nil)

	results, err := idx.Search(context.Background(), "billing", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].ID != "acme" {
		t.Fatalf("top result = %+v, want acme", results)
	}
	if len(results) > 3 {
		t.Errorf("got %d results, limit 3", len(results))
	}
}

func TestSearchUsesFragmentText(t *testing.T) {
	idx := buildTestIndex(t, func(_ context.Context, c manifest.Case) (string, error) {
		switch c.ID {
		case "globex":
			return "kubernetes migration of the reporting cluster", nil
		case "acme":
			return "", errors.New("fetch failed")
		}
		return "", nil
	})

	results, err := idx.Search(context.Background(), "kubernetes cluster", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "globex" {
		t.Errorf("results = %+v, want globex", results)
	}
}

func TestSearchBlankQuery(t *testing.T) {
	idx := buildTestIndex(t, nil)
	results, err := idx.Search(context.Background(), "   ", 5)
	if err != nil || results != nil {
		t.Errorf("blank query = %v, %v", results, err)
	}
}

func TestBuildEmpty(t *testing.T) {
	idx, err := Build(context.Background(), nil, embeddings.NewHashEmbedder(8), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("Len = %d", idx.Len())
	}
	results, err := idx.Search(context.Background(), "anything", 5)
	if err != nil || len(results) != 0 {
		t.Errorf("Search on empty index = %v, %v", results, err)
	}
}

func TestCollectSkipsDuplicatesAndSpacers(t *testing.T) {
	m, err := manifest.Parse([]byte(testManifest))
	if err != nil {
		t.Fatalf("parsing manifest: %v", err)
	}
	cats := append([]manifest.Category(nil), m.Categories()...)
	cats = append(cats, m.Categories()...)
	entries := Collect(context.Background(), cats, nil)
	if len(entries) != 4 {
		t.Errorf("entries = %d, want 4", len(entries))
	}
}
