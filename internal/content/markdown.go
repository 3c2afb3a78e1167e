package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headingLevel = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

var blockAtoms = map[atom.Atom]bool{
	atom.Div: true, atom.Section: true, atom.Article: true, atom.Header: true,
	atom.Footer: true, atom.P: true, atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// Markdown returns a plain Markdown rendition of the fragment for terminal
// display. Headings, paragraphs and list items become blocks; other markup
// is flattened to text. The bookmark toggle is left out.
func (f *Fragment) Markdown() string {
	var blocks []string
	add := func(s string) {
		if s != "" {
			blocks = append(blocks, s)
		}
	}

	var visit func(n *html.Node, container bool)
	visit = func(n *html.Node, container bool) {
		switch {
		case n.DataAtom == atom.Button || n.DataAtom == atom.Script || n.DataAtom == atom.Style:
			return
		case headingLevel[n.DataAtom] > 0:
			add(strings.Repeat("#", headingLevel[n.DataAtom]) + " " + textContent(n))
			return
		case n.DataAtom == atom.Li:
			add("- " + textContent(n))
			return
		case n.DataAtom == atom.P || n.DataAtom == atom.Blockquote || n.DataAtom == atom.Pre:
			add(textContent(n))
			return
		case !container && !hasBlockChild(n):
			add(textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				add(strings.Join(strings.Fields(c.Data), " "))
			case html.ElementNode:
				visit(c, false)
			}
		}
	}
	visit(f.root, true)

	// Consecutive list items read as one list.
	var b strings.Builder
	for i, blk := range blocks {
		if i > 0 {
			if strings.HasPrefix(blk, "- ") && strings.HasPrefix(blocks[i-1], "- ") {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(blk)
	}
	return b.String()
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && blockAtoms[c.DataAtom] {
			return true
		}
	}
	return false
}
