package nav

import (
	"bytes"
	"fmt"
	"html/template"
)

const sidebarTemplate = `{{define "entries"}}{{range .}}<div class="submenu-item{{if .Active}} active{{end}}{{if .Placeholder}} placeholder{{end}}"{{if not .Placeholder}} data-id="{{.ID}}" data-section-key="{{.Section.Key}}"{{end}}>{{.Title}}</div>
{{end}}{{end}}<ul class="sidebar-menu" id="sidebar-menu-list">
{{range .}}{{if .IsSpacer}}<li class="menu-spacer" aria-hidden="true"></li>
{{else}}<li class="menu-section{{if .IsBookmarks}} bookmarks{{end}}" data-section-key="{{.Key}}">
<div class="menu-item{{if .HeaderActive}} active{{end}}{{if .Expanded}} open{{end}}" data-section-key="{{.Key}}"{{with .Link}} data-id="{{.ID}}"{{end}}>
<i class="{{.Icon}}"></i><span class="menu-text">{{.Title}}</span>{{if .Collapsible}}<i class="fas fa-chevron-down toggle-icon"></i>{{end}}
</div>
{{if .Collapsible}}<div class="submenu{{if .Expanded}} open{{end}}">
{{template "entries" .Entries}}{{range .Children}}<div class="submenu-category{{if .Expanded}} open{{end}}" data-section-key="{{.Key}}"><i class="{{.Icon}}"></i>{{.Title}}<i class="fas fa-chevron-down toggle-icon"></i></div>
<div class="subcategory-items{{if .Expanded}} open{{end}}">
{{template "entries" .Entries}}</div>
{{end}}</div>
{{end}}</li>
{{end}}{{end}}</ul>
`

var sidebarTmpl = template.Must(template.New("sidebar").Parse(sidebarTemplate))

// HTML renders the sidebar markup for the current tree state.
func (t *Tree) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := sidebarTmpl.Execute(&buf, t.Sections); err != nil {
		return "", fmt.Errorf("rendering sidebar: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// SectionHTML renders a single top-level section, used to swap the
// bookmark section in place after a rebuild.
func (t *Tree) SectionHTML(key string) (template.HTML, error) {
	s := t.sections[key]
	if s == nil {
		return "", fmt.Errorf("unknown section %q", key)
	}
	var buf bytes.Buffer
	if err := sidebarTmpl.Execute(&buf, []*Section{s}); err != nil {
		return "", fmt.Errorf("rendering section %s: %w", key, err)
	}
	return template.HTML(buf.String()), nil
}
