// Package nav models the sidebar as an explicit tree of sections and
// entries with parent references. It builds the tree from a manifest,
// resolves the active entry, and reconciles the bookmark section.
package nav

import (
	"net/url"
	"strconv"

	"github.com/ziadkadry99/caseshelf/internal/manifest"
)

// Kind distinguishes the sidebar section types.
type Kind int

const (
	KindCategory Kind = iota
	KindSubcategory
	KindSpacer
	KindBookmarks
)

// BookmarksKey is the fixed key of the bookmark section. It lives outside
// the "section-" namespace so no category id can produce it.
const BookmarksKey = "bookmarks"

// SectionKey derives the stable key of a category section.
func SectionKey(categoryID string) string {
	return "section-" + url.PathEscape(categoryID)
}

// SubsectionKey derives the stable key of a subcategory section. Ids are
// path-escaped so the "/" separator never appears inside either part.
func SubsectionKey(categoryID, subcategoryID string) string {
	return SectionKey(categoryID) + "/" + url.PathEscape(subcategoryID)
}

// Entry is a clickable navigation item.
type Entry struct {
	ID          string
	Title       string
	Src         string
	Active      bool
	Placeholder bool
	Section     *Section
}

// Section is a sidebar group. Collapsible sections expand and collapse;
// a direct-link category is a single header entry and does not.
type Section struct {
	Key      string
	ID       string
	Title    string
	Icon     string
	Kind     Kind
	Expanded bool
	Parent   *Section
	Link     *Entry
	Entries  []*Entry
	Children []*Section

	collapsible bool
}

// Collapsible reports whether the section has an expandable body.
func (s *Section) Collapsible() bool { return s.collapsible }

// IsSpacer reports whether the section only renders as a divider.
func (s *Section) IsSpacer() bool { return s.Kind == KindSpacer }

// IsBookmarks reports whether the section is the bookmark section.
func (s *Section) IsBookmarks() bool { return s.Kind == KindBookmarks }

// HeaderActive reports whether the section header is the active entry.
func (s *Section) HeaderActive() bool { return s.Link != nil && s.Link.Active }

// entry returns the entry with the given id directly in s.
func (s *Section) entry(id string) *Entry {
	if s.Link != nil && s.Link.ID == id {
		return s.Link
	}
	for _, e := range s.Entries {
		if !e.Placeholder && e.ID == id {
			return e
		}
	}
	return nil
}

// Options holds the labels and identifiers the tree needs.
type Options struct {
	HomeID              string
	BookmarksTitle      string
	BookmarksIcon       string
	EmptyLabel          string
	BookmarksEmptyLabel string
}

func (o Options) withDefaults() Options {
	if o.BookmarksTitle == "" {
		o.BookmarksTitle = "Bookmarks"
	}
	if o.BookmarksIcon == "" {
		o.BookmarksIcon = "fas fa-bookmark"
	}
	if o.EmptyLabel == "" {
		o.EmptyLabel = "No cases yet"
	}
	if o.BookmarksEmptyLabel == "" {
		o.BookmarksEmptyLabel = "No bookmarks yet"
	}
	return o
}

// Tree is the navigation state of one viewer. It is not safe for
// concurrent use; the owning viewer serializes access.
type Tree struct {
	Sections  []*Section
	Bookmarks *Section

	opts     Options
	m        *manifest.Manifest
	entries  map[string]*Entry
	sections map[string]*Section
}

// Build converts the manifest into a navigation tree. Output order matches
// manifest order, with the bookmark section first. Every section starts
// collapsed.
func Build(m *manifest.Manifest, bookmarkIDs []string, opts Options) *Tree {
	t := &Tree{
		opts:     opts.withDefaults(),
		m:        m,
		entries:  make(map[string]*Entry),
		sections: make(map[string]*Section),
	}

	t.Bookmarks = t.newBookmarkSection(bookmarkIDs)
	t.Sections = append(t.Sections, t.Bookmarks)

	for i, cat := range m.Categories() {
		if cat.IsSpacer() {
			t.Sections = append(t.Sections, &Section{
				Key:  "spacer-" + strconv.Itoa(i),
				Kind: KindSpacer,
			})
			continue
		}
		t.Sections = append(t.Sections, t.newCategorySection(cat))
	}
	for _, s := range t.Sections {
		t.register(s)
	}
	return t
}

func (t *Tree) newCategorySection(cat manifest.Category) *Section {
	s := &Section{
		Key:   SectionKey(cat.ID),
		ID:    cat.ID,
		Title: cat.Name,
		Icon:  cat.Icon,
		Kind:  KindCategory,
	}
	if cat.Src != "" {
		s.Link = &Entry{ID: cat.ID, Title: cat.Name, Src: cat.Src, Section: s}
		t.entries[cat.ID] = s.Link
	}
	for _, c := range cat.Cases {
		e := &Entry{ID: c.ID, Title: c.Title, Src: c.Src, Section: s}
		s.Entries = append(s.Entries, e)
		t.entries[c.ID] = e
	}
	for _, sub := range cat.Subcategories {
		child := &Section{
			Key:         SubsectionKey(cat.ID, sub.ID),
			ID:          sub.ID,
			Title:       sub.Name,
			Icon:        sub.Icon,
			Kind:        KindSubcategory,
			Parent:      s,
			collapsible: true,
		}
		for _, c := range sub.Cases {
			e := &Entry{ID: c.ID, Title: c.Title, Src: c.Src, Section: child}
			child.Entries = append(child.Entries, e)
			t.entries[c.ID] = e
		}
		if len(child.Entries) == 0 {
			child.Entries = []*Entry{t.placeholder(child, t.opts.EmptyLabel)}
		}
		s.Children = append(s.Children, child)
	}

	switch {
	case cat.HasChildren():
		s.collapsible = true
	case s.Link == nil:
		s.collapsible = true
		s.Entries = []*Entry{t.placeholder(s, t.opts.EmptyLabel)}
	}
	return s
}

func (t *Tree) newBookmarkSection(ids []string) *Section {
	s := &Section{
		Key:         BookmarksKey,
		ID:          "bookmarks",
		Title:       t.opts.BookmarksTitle,
		Icon:        t.opts.BookmarksIcon,
		Kind:        KindBookmarks,
		collapsible: true,
	}
	for _, id := range ids {
		loc, ok := t.m.Lookup(id)
		if !ok {
			continue // stale bookmark
		}
		if s.entry(id) != nil {
			continue
		}
		s.Entries = append(s.Entries, &Entry{
			ID:      id,
			Title:   loc.Case.Title,
			Src:     loc.Case.Src,
			Section: s,
		})
	}
	if len(s.Entries) == 0 {
		s.Entries = []*Entry{t.placeholder(s, t.opts.BookmarksEmptyLabel)}
	}
	return s
}

func (t *Tree) placeholder(s *Section, label string) *Entry {
	return &Entry{Title: label, Placeholder: true, Section: s}
}

func (t *Tree) register(s *Section) {
	t.sections[s.Key] = s
	for _, c := range s.Children {
		t.register(c)
	}
}

func (t *Tree) unregister(s *Section) {
	delete(t.sections, s.Key)
	for _, c := range s.Children {
		t.unregister(c)
	}
}

// Manifest returns the manifest the tree was built from.
func (t *Tree) Manifest() *manifest.Manifest { return t.m }

// HomeID returns the configured home identifier.
func (t *Tree) HomeID() string { return t.opts.HomeID }

// Section returns the section with the given key, or nil.
func (t *Tree) Section(key string) *Section { return t.sections[key] }

// Entry returns the manifest entry for id, ignoring bookmark copies.
func (t *Tree) Entry(id string) *Entry { return t.entries[id] }

// EntryIn returns the entry with id inside the section with the given key.
// It is how a click on a specific element is resolved.
func (t *Tree) EntryIn(sectionKey, id string) *Entry {
	s := t.sections[sectionKey]
	if s == nil {
		return nil
	}
	return s.entry(id)
}

// walk calls fn for every section in the tree, depth first.
func (t *Tree) walk(fn func(*Section)) {
	var visit func(*Section)
	visit = func(s *Section) {
		fn(s)
		for _, c := range s.Children {
			visit(c)
		}
	}
	for _, s := range t.Sections {
		visit(s)
	}
}

// Active returns the active entry, or nil in the home state.
func (t *Tree) Active() *Entry {
	var active *Entry
	t.walk(func(s *Section) {
		if active != nil {
			return
		}
		if s.Link != nil && s.Link.Active {
			active = s.Link
			return
		}
		for _, e := range s.Entries {
			if e.Active {
				active = e
				return
			}
		}
	})
	return active
}

// ExpandedKeys returns the keys of expanded sections in tree order.
func (t *Tree) ExpandedKeys() []string {
	var keys []string
	t.walk(func(s *Section) {
		if s.Expanded {
			keys = append(keys, s.Key)
		}
	})
	return keys
}
