package nav

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSection is returned for a section key the tree does not hold.
	ErrUnknownSection = errors.New("nav: unknown section")
	// ErrNotCollapsible is returned when toggling a direct-link or spacer section.
	ErrNotCollapsible = errors.New("nav: section is not collapsible")
)

// Activate marks the navigation entry for targetID active and expands its
// enclosing sections.
//
// The clicked entry wins when given. Without one, the home id resolves to
// the home state (no active entry) and any other id resolves to its
// manifest entry. When nothing resolves the tree is left untouched and ok
// is false.
func (t *Tree) Activate(targetID string, clicked *Entry) (active *Entry, ok bool) {
	target := t.resolve(targetID, clicked)
	if target == nil {
		if clicked == nil && targetID == t.opts.HomeID && targetID != "" {
			t.DeactivateAll()
			return nil, true
		}
		return nil, false
	}

	t.DeactivateAll()
	target.Active = true
	for s := target.Section; s != nil && s.collapsible; s = s.Parent {
		s.Expanded = true
	}
	return target, true
}

func (t *Tree) resolve(targetID string, clicked *Entry) *Entry {
	if clicked != nil && !clicked.Placeholder && clicked.Section != nil {
		// Only accept entries that still belong to this tree.
		if t.EntryIn(clicked.Section.Key, clicked.ID) == clicked {
			return clicked
		}
	}
	if clicked == nil && targetID == t.opts.HomeID {
		return nil
	}
	return t.entries[targetID]
}

// DeactivateAll clears the active flag on every entry.
func (t *Tree) DeactivateAll() {
	t.walk(func(s *Section) {
		if s.Link != nil {
			s.Link.Active = false
		}
		for _, e := range s.Entries {
			e.Active = false
		}
	})
}

// CollapseAllExceptBookmarks collapses every section other than the
// bookmark section, which keeps its current state.
func (t *Tree) CollapseAllExceptBookmarks() {
	t.walk(func(s *Section) {
		if s.Kind != KindBookmarks {
			s.Expanded = false
		}
	})
}

// ToggleSection flips the expanded state of a collapsible section and
// returns the new state.
func (t *Tree) ToggleSection(key string) (bool, error) {
	s := t.sections[key]
	if s == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownSection, key)
	}
	if !s.collapsible {
		return false, fmt.Errorf("%w: %q", ErrNotCollapsible, key)
	}
	s.Expanded = !s.Expanded
	return s.Expanded, nil
}

// RebuildBookmarks regenerates the bookmark section from ids, keeping the
// ids that still resolve in the manifest, in order. The section's expanded
// state is read before the old section is removed and restored after the
// new one is inserted, so rebuilding never opens or closes it. An active
// bookmark entry stays active if its id survives; otherwise the manifest
// entry for the same id becomes active.
func (t *Tree) RebuildBookmarks(ids []string) {
	old := t.Bookmarks
	expanded := old.Expanded
	activeID := ""
	for _, e := range old.Entries {
		if e.Active {
			activeID = e.ID
		}
	}

	idx := -1
	for i, s := range t.Sections {
		if s == old {
			idx = i
			break
		}
	}
	t.unregister(old)
	if idx >= 0 {
		t.Sections = append(t.Sections[:idx], t.Sections[idx+1:]...)
	} else {
		idx = 0
	}

	fresh := t.newBookmarkSection(ids)
	t.Sections = append(t.Sections[:idx], append([]*Section{fresh}, t.Sections[idx:]...)...)
	t.register(fresh)
	t.Bookmarks = fresh

	fresh.Expanded = expanded
	if activeID != "" {
		if e := fresh.entry(activeID); e != nil {
			e.Active = true
		} else {
			t.Activate(activeID, nil)
		}
	}
}
