// Package content loads case fragments, decorates them with the bookmark
// control, and derives the page title from them.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/fetch"
)

// Loader fetches fragments through a Fetcher.
type Loader struct {
	fetcher fetch.Fetcher
	md      goldmark.Markdown
	log     *zap.Logger
}

// NewLoader creates a Loader. Markdown fragments are converted with GFM,
// syntax highlighting and automatic heading ids.
func NewLoader(fetcher fetch.Fetcher, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		fetcher: fetcher,
		md:      NewMarkdown(),
		log:     logger.Named("content"),
	}
}

// NewMarkdown returns the goldmark converter used for .md fragments.
func NewMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
}

// Fetch returns the raw fragment at src. When the first attempt fails it
// retries once with the root-relative variant of src.
func (l *Loader) Fetch(ctx context.Context, src string) ([]byte, error) {
	data, err := l.fetcher.Fetch(ctx, src)
	if err == nil {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("fetching %s: %w", src, err)
	}

	alt := fetch.RootRelative(src)
	l.log.Debug("retrying fragment fetch", zap.String("src", src), zap.String("alt", alt), zap.Error(err))
	data, altErr := l.fetcher.Fetch(ctx, alt)
	if altErr != nil {
		return nil, fmt.Errorf("fetching %s: %w", src, errors.Join(err, altErr))
	}
	return data, nil
}

// Load fetches and parses the fragment at src.
func (l *Loader) Load(ctx context.Context, src string) (*Fragment, error) {
	data, err := l.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if IsMarkdown(src) {
		var buf bytes.Buffer
		if err := l.md.Convert(data, &buf); err != nil {
			return nil, fmt.Errorf("converting markdown %s: %w", src, err)
		}
		data = buf.Bytes()
	}
	return ParseFragment(data)
}

// IsMarkdown reports whether src names a Markdown fragment.
func IsMarkdown(src string) bool {
	return strings.EqualFold(path.Ext(src), ".md")
}
