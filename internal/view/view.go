// Package view renders the case library page shared by the HTTP server
// and the static export.
package view

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ziadkadry99/caseshelf/internal/shell"
)

//go:embed page.html
var pageHTML string

//go:embed page.js
var pageJS string

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

// Mode selects how the page script talks to its host.
type Mode string

const (
	ModeLive   Mode = "live"   // events go to the server
	ModeStatic Mode = "static" // events become plain page loads
)

// Options controls page rendering.
type Options struct {
	Mode        Mode
	BasePath    string // prefix for links and assets, ends in "/"
	Stylesheets []string
}

type pageData struct {
	Page        shell.Page
	Mode        Mode
	BasePath    string
	HomeHref    string
	Stylesheets []string
	Script      template.JS
}

// Render writes the full page for p.
func Render(w io.Writer, p shell.Page, opts Options) error {
	if opts.Mode == "" {
		opts.Mode = ModeLive
	}
	if opts.BasePath == "" {
		opts.BasePath = "/"
	}
	data := pageData{
		Page:        p,
		Mode:        opts.Mode,
		BasePath:    opts.BasePath,
		Stylesheets: opts.Stylesheets,
		Script:      template.JS(pageJS),
	}
	if opts.Mode == ModeStatic {
		data.HomeHref = "index.html"
	}
	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

// RenderBytes renders the page into memory.
func RenderBytes(p shell.Page, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, p, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
