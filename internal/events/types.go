package events

import "context"

// Kind identifies what the viewer did.
type Kind string

const (
	KindNavigate       Kind = "navigate"
	KindToggleSection  Kind = "toggle_section"
	KindToggleBookmark Kind = "toggle_bookmark"
	KindHashChange     Kind = "hashchange"
	KindHome           Kind = "home"
	KindSearchSelect   Kind = "search_select"
)

// Owner is the structural part of the page a handler is bound to.
type Owner string

const (
	OwnerSidebar Owner = "sidebar"
	OwnerContent Owner = "content"
	OwnerShell   Owner = "shell"
)

// Event is a single interaction forwarded from the page.
type Event struct {
	Kind       Kind   `json:"kind"`
	ID         string `json:"id,omitempty"`
	Src        string `json:"src,omitempty"`
	SectionKey string `json:"section_key,omitempty"`
	Hash       string `json:"hash,omitempty"`
	FromSearch bool   `json:"from_search,omitempty"`
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) error
