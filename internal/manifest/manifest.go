// Package manifest holds the immutable category tree of a case library.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id does not resolve in the manifest.
var ErrNotFound = errors.New("manifest: id not found")

// Manifest is the in-memory, read-only view of a parsed manifest document.
// It is built once per session and never mutated afterwards.
type Manifest struct {
	categories []Category
	index      map[string]Location
	order      []string
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return New(doc.MainCategories)
}

// New builds a Manifest from categories. Case ids must be unique across
// the whole tree, and every case needs an id and a src. Category ids must
// be present and unique, and so must subcategory ids within a category,
// because the sidebar derives its section keys from them.
func New(categories []Category) (*Manifest, error) {
	if err := ValidateCategories(categories); err != nil {
		return nil, err
	}
	m := &Manifest{
		categories: append([]Category(nil), categories...),
		index:      make(map[string]Location),
	}

	for i := range m.categories {
		cat := &m.categories[i]
		if cat.IsSpacer() {
			continue
		}
		if cat.Src != "" && cat.ID != "" {
			if err := m.add(Location{
				Case:     Case{ID: cat.ID, Title: cat.Name, Src: cat.Src},
				Category: cat,
				Direct:   true,
			}); err != nil {
				return nil, err
			}
		}
		for _, c := range cat.Cases {
			if err := m.add(Location{Case: c, Category: cat}); err != nil {
				return nil, err
			}
		}
		for j := range cat.Subcategories {
			sub := &cat.Subcategories[j]
			for _, c := range sub.Cases {
				if err := m.add(Location{Case: c, Category: cat, Subcategory: sub}); err != nil {
					return nil, err
				}
			}
		}
	}
	return m, nil
}

// ValidateCategories checks the category and subcategory ids. Spacers
// carry no id and are skipped.
func ValidateCategories(categories []Category) error {
	seen := make(map[string]bool)
	for i, cat := range categories {
		if cat.IsSpacer() {
			continue
		}
		if cat.ID == "" {
			return fmt.Errorf("category %d (%q) has no id", i, cat.Name)
		}
		if seen[cat.ID] {
			return fmt.Errorf("duplicate category id %q", cat.ID)
		}
		seen[cat.ID] = true

		subs := make(map[string]bool)
		for j, sub := range cat.Subcategories {
			if sub.ID == "" {
				return fmt.Errorf("subcategory %d (%q) in category %q has no id", j, sub.Name, cat.ID)
			}
			if subs[sub.ID] {
				return fmt.Errorf("duplicate subcategory id %q in category %q", sub.ID, cat.ID)
			}
			subs[sub.ID] = true
		}
	}
	return nil
}

func (m *Manifest) add(loc Location) error {
	id := loc.Case.ID
	if id == "" {
		return fmt.Errorf("case %q in category %q has no id", loc.Case.Title, loc.Category.ID)
	}
	if loc.Case.Src == "" {
		return fmt.Errorf("case %q has no src", id)
	}
	if _, dup := m.index[id]; dup {
		return fmt.Errorf("duplicate case id %q", id)
	}
	m.index[id] = loc
	m.order = append(m.order, id)
	return nil
}

// Categories returns the top-level categories in manifest order.
func (m *Manifest) Categories() []Category {
	return m.categories
}

// Lookup resolves an id to its location.
func (m *Manifest) Lookup(id string) (Location, bool) {
	loc, ok := m.index[id]
	return loc, ok
}

// Case returns the case with the given id, or ErrNotFound.
func (m *Manifest) Case(id string) (Case, error) {
	loc, ok := m.index[id]
	if !ok {
		return Case{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return loc.Case, nil
}

// Cases returns every navigable case, direct-link categories included,
// in manifest order.
func (m *Manifest) Cases() []Case {
	out := make([]Case, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.index[id].Case)
	}
	return out
}

// Len returns the number of navigable ids.
func (m *Manifest) Len() int { return len(m.order) }
