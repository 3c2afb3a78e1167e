package view

import (
	"strings"
	"testing"

	"github.com/ziadkadry99/caseshelf/internal/shell"
)

func samplePage() shell.Page {
	return shell.Page{
		SiteName: "Portfolio",
		HomeID:   "home",
		CaseID:   "acme",
		Title:    "Platform",
		Subtitle: "Acme Corp",
		Sidebar:  `<ul class="sidebar-menu"></ul>`,
		Content:  `<h1>Acme</h1>`,
		Search:   shell.SearchControls{Placeholder: shell.PlaceholderReady},
	}
}

func TestRenderLive(t *testing.T) {
	out, err := RenderBytes(samplePage(), Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		`<title>Platform | Portfolio</title>`,
		`data-mode="live"`,
		`data-case="acme"`,
		`<ul class="sidebar-menu"></ul>`,
		`<h1>Acme</h1>`,
		`placeholder="Search cases"`,
		`api/events`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, " disabled>") {
		t.Error("search input should be enabled")
	}
}

func TestRenderMenuError(t *testing.T) {
	p := samplePage()
	p.MenuError = shell.MenuErrorText
	p.Search = shell.SearchControls{Disabled: true, Placeholder: shell.PlaceholderUnavailable}

	out, err := RenderBytes(p, Options{Mode: ModeStatic, BasePath: "../"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "Failed to load menu") {
		t.Error("menu error not rendered")
	}
	if strings.Contains(html, "sidebar-menu") {
		t.Error("sidebar should be replaced by the menu error")
	}
	if !strings.Contains(html, `placeholder="Search unavailable" autocomplete="off" disabled`) {
		t.Error("search input should be disabled")
	}
	if !strings.Contains(html, `href="../index.html"`) {
		t.Error("static logo link should point at index.html")
	}
}

func TestRenderEscapesTitle(t *testing.T) {
	p := samplePage()
	p.Title = `<script>x</script>`
	out, err := RenderBytes(p, Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(out), "<script>x</script>") {
		t.Error("title should be escaped")
	}
}
