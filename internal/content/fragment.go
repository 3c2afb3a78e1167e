package content

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrorHTML is shown in the content area when a fragment cannot be loaded.
const ErrorHTML = `<div class="alert alert-danger">The page could not be loaded.</div>`

// ToggleClass marks the injected bookmark control.
const ToggleClass = "bookmark-toggle"

// Fragment is a parsed case fragment ready to be placed in the content area.
type Fragment struct {
	root   *html.Node
	toggle *html.Node
}

// ParseFragment parses an HTML fragment in a body context.
func ParseFragment(data []byte) (*Fragment, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(data), body)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}
	// Reparent under a synthetic root so siblings can be inserted freely.
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Fragment{root: root}, nil
}

// find returns the first element, in document order, that match accepts.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Heading returns the text of the first h1 or h2, or "".
func (f *Fragment) Heading() string {
	h := find(f.root, isHeading)
	if h == nil {
		return ""
	}
	return textContent(h)
}

func isHeading(n *html.Node) bool {
	return n.DataAtom == atom.H1 || n.DataAtom == atom.H2
}

// BadgeTitle returns the text of the first element carrying the badge
// class, or fallback when there is none or it is empty.
func (f *Fragment) BadgeTitle(fallback string) string {
	b := find(f.root, func(n *html.Node) bool { return hasClass(n, "badge") })
	if b == nil {
		return fallback
	}
	if t := textContent(b); t != "" {
		return t
	}
	return fallback
}

// Text returns the visible text of the fragment.
func (f *Fragment) Text() string {
	return textContent(f.root)
}

// InjectToggle inserts a bookmark toggle for id right after the first
// heading, or at the top when the fragment has none. Calling it again
// is a no-op.
func (f *Fragment) InjectToggle(id string) {
	if f.toggle != nil {
		return
	}
	btn := &html.Node{
		Type:     html.ElementNode,
		Data:     "button",
		DataAtom: atom.Button,
		Attr: []html.Attribute{
			{Key: "type", Val: "button"},
			{Key: "class", Val: ToggleClass},
			{Key: "data-id", Val: id},
			{Key: "aria-pressed", Val: "false"},
		},
	}
	icon := &html.Node{
		Type:     html.ElementNode,
		Data:     "i",
		DataAtom: atom.I,
		Attr:     []html.Attribute{{Key: "class", Val: "far fa-bookmark"}},
	}
	btn.AppendChild(icon)

	if h := find(f.root, isHeading); h != nil {
		h.Parent.InsertBefore(btn, h.NextSibling)
	} else {
		f.root.InsertBefore(btn, f.root.FirstChild)
	}
	f.toggle = btn
}

// HasToggle reports whether a bookmark toggle was injected.
func (f *Fragment) HasToggle() bool { return f.toggle != nil }

// SyncToggle sets the toggle's visual state. It is a no-op without a toggle.
func (f *Fragment) SyncToggle(bookmarked bool) {
	if f.toggle == nil {
		return
	}
	class, icon, pressed := ToggleClass, "far fa-bookmark", "false"
	if bookmarked {
		class, icon, pressed = ToggleClass+" bookmarked", "fas fa-bookmark", "true"
	}
	setAttr(f.toggle, "class", class)
	setAttr(f.toggle, "aria-pressed", pressed)
	if f.toggle.FirstChild != nil {
		setAttr(f.toggle.FirstChild, "class", icon)
	}
}

// HTML renders the fragment, injected controls included.
func (f *Fragment) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	for c := f.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("rendering fragment: %w", err)
		}
	}
	return template.HTML(buf.String()), nil
}
