// Package fetch retrieves the manifest and case fragments from a local
// directory or a remote site.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("fetch: not found")

// ErrTooLarge is returned for a document over the size cap.
var ErrTooLarge = errors.New("fetch: document too large")

// maxDocumentSize caps a single document. Larger ones fail instead of
// being cut short.
var maxDocumentSize int64 = 8 << 20

// Fetcher retrieves documents by site path. Relative paths resolve against
// the fetcher's base; paths starting with "/" resolve against the site root.
type Fetcher interface {
	Fetch(ctx context.Context, p string) ([]byte, error)
}

// RootRelative returns the alternate form of p used for the single retry:
// "a/b.html" becomes "/a/b.html" and "/a/b.html" becomes "a/b.html".
// A leading "./" is dropped first.
func RootRelative(p string) string {
	p = strings.TrimPrefix(p, "./")
	if strings.HasPrefix(p, "/") {
		return strings.TrimLeft(p, "/")
	}
	return "/" + p
}

// DirFetcher reads documents from a directory tree.
type DirFetcher struct {
	Root string // site root
	Base string // directory relative paths resolve against; defaults to Root
}

// NewDirFetcher creates a DirFetcher rooted at root.
func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{Root: root}
}

// Fetch reads the document at p. Paths may not escape the root.
func (f *DirFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rel string
	if strings.HasPrefix(p, "/") {
		rel = path.Clean(strings.TrimLeft(p, "/"))
	} else {
		base := f.Base
		if base == "" {
			base = "."
		}
		rel = path.Clean(path.Join(filepath.ToSlash(base), p))
	}
	if rel == "" || !fs.ValidPath(rel) {
		return nil, fmt.Errorf("fetch %s: path escapes root", p)
	}

	fsys := os.DirFS(f.Root)
	if info, err := fs.Stat(fsys, rel); err == nil && info.Size() > maxDocumentSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, p, info.Size(), maxDocumentSize)
	}
	data, err := fs.ReadFile(fsys, rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("fetch %s: %w", p, err)
	}
	return data, nil
}

// HTTPFetcher performs GET requests against a base URL.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. Relative paths resolve against
// baseURL the way a browser resolves them against the page URL.
func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{base: u, client: client}, nil
}

// Fetch GETs the document at p. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	ref, err := url.Parse(p)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", p, err)
	}
	target := f.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	if int64(len(data)) > maxDocumentSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, target, maxDocumentSize)
	}
	return data, nil
}
