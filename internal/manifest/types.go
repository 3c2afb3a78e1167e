package manifest

// TypeSpacer marks a category that only renders as a visual divider.
const TypeSpacer = "main-category-spacer"

// Case is a single navigable entry backed by an HTML or Markdown fragment.
type Case struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Src   string `json:"src"`
}

// Subcategory groups cases one level below a category.
type Subcategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Cases []Case `json:"cases"`
}

// Category is a top-level sidebar section. A category may link directly to
// a fragment (Src), hold cases, hold subcategories, or be a spacer.
type Category struct {
	Type          string        `json:"type,omitempty"`
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name,omitempty"`
	Icon          string        `json:"icon,omitempty"`
	Src           string        `json:"src,omitempty"`
	Cases         []Case        `json:"cases,omitempty"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// IsSpacer reports whether the category is a visual divider.
func (c Category) IsSpacer() bool { return c.Type == TypeSpacer }

// HasChildren reports whether the category expands into a submenu.
func (c Category) HasChildren() bool {
	return len(c.Cases) > 0 || len(c.Subcategories) > 0
}

// Document is the JSON shape of the manifest file.
type Document struct {
	MainCategories []Category `json:"mainCategories"`
}

// Location describes where a resolved id lives in the category tree.
type Location struct {
	Case        Case
	Category    *Category
	Subcategory *Subcategory // nil for cases directly under a category
	Direct      bool         // the id names a direct-link category
}
