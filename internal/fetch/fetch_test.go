package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootRelative(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"portfolio/a.html", "/portfolio/a.html"},
		{"/portfolio/a.html", "portfolio/a.html"},
		{"./portfolio/a.html", "/portfolio/a.html"},
		{"//a.html", "a.html"},
	}
	for _, tt := range tests {
		if got := RootRelative(tt.input); got != tt.want {
			t.Errorf("RootRelative(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirFetcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "portfolio/a.html", "<h1>A</h1>")
	writeFile(t, root, "site/portfolio/b.html", "<h1>B</h1>")
	ctx := context.Background()

	f := NewDirFetcher(root)
	data, err := f.Fetch(ctx, "portfolio/a.html")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "<h1>A</h1>" {
		t.Errorf("content = %q", data)
	}

	if _, err := f.Fetch(ctx, "/portfolio/a.html"); err != nil {
		t.Errorf("root-relative fetch: %v", err)
	}

	_, err = f.Fetch(ctx, "portfolio/missing.html")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := f.Fetch(ctx, "../../etc/passwd"); err == nil {
		t.Error("expected an error for a path escaping the root")
	}
}

func TestDirFetcherBase(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site/portfolio/b.html", "B")
	writeFile(t, root, "portfolio/b.html", "root B")
	ctx := context.Background()

	f := &DirFetcher{Root: root, Base: "site"}
	data, err := f.Fetch(ctx, "portfolio/b.html")
	if err != nil {
		t.Fatalf("relative fetch: %v", err)
	}
	if string(data) != "B" {
		t.Errorf("relative fetch = %q, want B", data)
	}

	data, err = f.Fetch(ctx, "/portfolio/b.html")
	if err != nil {
		t.Fatalf("root-relative fetch: %v", err)
	}
	if string(data) != "root B" {
		t.Errorf("root-relative fetch = %q, want root B", data)
	}
}

func TestHTTPFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/site/portfolio/a.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("nested"))
	})
	mux.HandleFunc("/portfolio/a.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("root"))
	})
	mux.HandleFunc("/site/broken.html", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/site/", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	ctx := context.Background()

	data, err := f.Fetch(ctx, "portfolio/a.html")
	if err != nil || string(data) != "nested" {
		t.Errorf("relative fetch = %q, %v; want nested", data, err)
	}
	data, err = f.Fetch(ctx, "/portfolio/a.html")
	if err != nil || string(data) != "root" {
		t.Errorf("root-relative fetch = %q, %v; want root", data, err)
	}

	if _, err := f.Fetch(ctx, "missing.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.Fetch(ctx, "broken.html"); err == nil {
		t.Error("expected an error for a 500 response")
	}
}

func TestFetchRejectsOversizedDocuments(t *testing.T) {
	old := maxDocumentSize
	maxDocumentSize = 16
	t.Cleanup(func() { maxDocumentSize = old })

	mux := http.NewServeMux()
	mux.HandleFunc("/exact.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 16)))
	})
	mux.HandleFunc("/big.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 17)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	ctx := context.Background()
	if data, err := f.Fetch(ctx, "exact.html"); err != nil || len(data) != 16 {
		t.Errorf("document at the limit = %d bytes, %v", len(data), err)
	}
	if _, err := f.Fetch(ctx, "big.html"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized http document: err = %v, want ErrTooLarge", err)
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "big.html"), []byte(strings.Repeat("a", 17)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDirFetcher(root).Fetch(ctx, "big.html"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized file: err = %v, want ErrTooLarge", err)
	}
}

func TestNewHTTPFetcherRejectsScheme(t *testing.T) {
	if _, err := NewHTTPFetcher("ftp://example.com", nil); err == nil {
		t.Error("expected an error for a non-http scheme")
	}
}
