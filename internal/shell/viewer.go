package shell

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/bookmarks"
	"github.com/ziadkadry99/caseshelf/internal/content"
	"github.com/ziadkadry99/caseshelf/internal/events"
	"github.com/ziadkadry99/caseshelf/internal/nav"
	"github.com/ziadkadry99/caseshelf/internal/search"
)

var (
	// ErrMenuUnavailable is returned by Init when the manifest failed to load.
	ErrMenuUnavailable = errors.New("menu unavailable")
	// ErrUnknownCase is returned when an id resolves to nothing.
	ErrUnknownCase = errors.New("unknown case")
	// ErrContentUnavailable is returned when a fragment failed at both paths.
	ErrContentUnavailable = errors.New("content unavailable")
)

// Request describes one navigation.
type Request struct {
	ID         string
	Src        string // optional; resolved from ID when empty
	SectionKey string // section of the clicked entry, if any
	FromSearch bool
}

// Page is a snapshot of everything the view renders for one viewer.
type Page struct {
	SiteName     string
	Logo         string
	HomeID       string
	CaseID       string
	Title        string
	Subtitle     string
	Sidebar      template.HTML
	MenuError    string
	Content      template.HTML
	ContentError bool
	Bookmarked   bool
	Search       SearchControls
	Query        string
	Results      []search.Result
	Bookmarks    []string
}

// Viewer is the state of one browser. All methods are serialized.
type Viewer struct {
	mu sync.Mutex

	id         string
	session    *Session
	bookmarks  *bookmarks.Store
	dispatcher *events.Dispatcher
	log        *zap.Logger

	initialized    bool
	tree           *nav.Tree
	fragment       *content.Fragment
	disposeSidebar func()
	disposers      []func()

	caseID       string
	title        string
	subtitle     string
	body         template.HTML
	contentError bool
	menuError    string
	query        string
	results      []search.Result
}

// NewViewer creates a Viewer for session. Bookmarks are read from and
// written to store.
func NewViewer(id string, session *Session, store *bookmarks.Store, logger *zap.Logger) *Viewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Viewer{
		id:         id,
		session:    session,
		bookmarks:  store,
		dispatcher: events.NewDispatcher(),
		log:        logger.Named("viewer").With(zap.String("viewer", id)),
	}
}

// ID returns the viewer id.
func (v *Viewer) ID() string { return v.id }

// Session returns the session the viewer was built for.
func (v *Viewer) Session() *Session { return v.session }

// Init builds the sidebar and binds event handlers. It runs once; later
// calls return the first outcome.
func (v *Viewer) Init(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.init(ctx)
}

func (v *Viewer) init(ctx context.Context) error {
	if v.initialized {
		if v.menuError != "" {
			return ErrMenuUnavailable
		}
		return nil
	}

	if err := v.session.Err(); err != nil {
		v.initialized = true
		v.menuError = MenuErrorText
		v.log.Error("manifest unavailable", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMenuUnavailable, err)
	}

	ids, err := v.bookmarks.IDs(ctx)
	if err != nil {
		v.log.Warn("reading bookmarks", zap.Error(err))
	}
	site := v.session.Config.Site
	v.tree = nav.Build(v.session.Manifest, ids, nav.Options{HomeID: site.HomeID})
	v.bindSidebar()
	v.disposers = append(v.disposers,
		v.dispatcher.Bind(events.OwnerContent, map[events.Kind]events.Handler{
			events.KindToggleBookmark: func(ctx context.Context, ev events.Event) error {
				_, err := v.toggleBookmark(ctx, ev.ID)
				return err
			},
		}),
		v.dispatcher.Bind(events.OwnerShell, map[events.Kind]events.Handler{
			events.KindHashChange: func(ctx context.Context, ev events.Event) error {
				return v.open(ctx, ev.Hash)
			},
			events.KindHome: func(ctx context.Context, _ events.Event) error {
				return v.home(ctx)
			},
			events.KindSearchSelect: func(ctx context.Context, ev events.Event) error {
				return v.selectSearchResult(ctx, ev.ID)
			},
		}),
	)
	v.initialized = true
	return nil
}

// bindSidebar binds the handlers owned by the rendered sidebar, replacing
// any earlier binding.
func (v *Viewer) bindSidebar() {
	if v.disposeSidebar != nil {
		v.disposeSidebar()
	}
	v.disposeSidebar = v.dispatcher.Bind(events.OwnerSidebar, map[events.Kind]events.Handler{
		events.KindNavigate: func(ctx context.Context, ev events.Event) error {
			return v.navigate(ctx, Request{ID: ev.ID, SectionKey: ev.SectionKey, FromSearch: ev.FromSearch})
		},
		events.KindToggleSection: func(_ context.Context, ev events.Event) error {
			_, err := v.toggleSection(ev.SectionKey)
			return err
		},
	})
}

// Close disposes every handler binding.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposeSidebar != nil {
		v.disposeSidebar()
		v.disposeSidebar = nil
	}
	for _, fn := range v.disposers {
		fn()
	}
	v.disposers = nil
}

// Dispatch routes a page event to its handler.
func (v *Viewer) Dispatch(ctx context.Context, ev events.Event) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.init(ctx); err != nil {
		return false, err
	}
	return v.dispatcher.Dispatch(ctx, ev)
}

// Handlers returns how many handlers are bound for kind.
func (v *Viewer) Handlers(kind events.Kind) int {
	return v.dispatcher.Count(kind)
}

// Open navigates to the case named by a URL fragment. An empty or
// unresolvable fragment opens the home case.
func (v *Viewer) Open(ctx context.Context, hash string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.init(ctx); err != nil {
		return err
	}
	return v.open(ctx, hash)
}

func (v *Viewer) open(ctx context.Context, hash string) error {
	id := strings.TrimPrefix(strings.TrimSpace(hash), "#")
	if id == "" {
		return v.home(ctx)
	}
	c, ok := v.session.Lookup(id)
	if !ok {
		v.log.Debug("unresolved fragment, opening home", zap.String("hash", id))
		return v.home(ctx)
	}
	return v.navigate(ctx, Request{ID: c.ID, Src: c.Src})
}

// Home opens the home case and clears the active entry.
func (v *Viewer) Home(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.init(ctx); err != nil {
		return err
	}
	return v.home(ctx)
}

func (v *Viewer) home(ctx context.Context) error {
	site := v.session.Config.Site
	return v.navigate(ctx, Request{ID: site.HomeID, Src: site.HomeSrc})
}

// Navigate loads the fragment for req and updates the navigation state.
// When the fragment fails at both paths the content area shows the error
// block, navigation state is left as it was, and ErrContentUnavailable is
// returned.
func (v *Viewer) Navigate(ctx context.Context, req Request) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.init(ctx); err != nil {
		return err
	}
	return v.navigate(ctx, req)
}

func (v *Viewer) navigate(ctx context.Context, req Request) error {
	site := v.session.Config.Site

	var clicked *nav.Entry
	if req.SectionKey != "" {
		clicked = v.tree.EntryIn(req.SectionKey, req.ID)
	}
	src := req.Src
	title := ""
	switch {
	case clicked != nil:
		if src == "" {
			src = clicked.Src
		}
		title = clicked.Title
	default:
		c, ok := v.session.Lookup(req.ID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCase, req.ID)
		}
		if src == "" {
			src = c.Src
		}
		title = c.Title
	}

	frag, err := v.session.Loader.Load(ctx, src)
	if err != nil {
		v.log.Warn("loading case", zap.String("id", req.ID), zap.String("src", src), zap.Error(err))
		v.fragment = nil
		v.body = template.HTML(content.ErrorHTML)
		v.contentError = true
		return fmt.Errorf("%w: %s: %v", ErrContentUnavailable, src, err)
	}

	isHome := req.ID == site.HomeID
	if !isHome {
		frag.InjectToggle(req.ID)
		marked, err := v.bookmarks.IsBookmarked(ctx, req.ID)
		if err != nil {
			v.log.Warn("reading bookmark state", zap.Error(err))
		}
		frag.SyncToggle(marked)
	}
	body, err := frag.HTML()
	if err != nil {
		return err
	}

	v.fragment = frag
	v.body = body
	v.contentError = false
	v.caseID = req.ID
	if isHome {
		v.title, v.subtitle = site.HomeTitle, site.HomeSubtitle
	} else {
		v.title = frag.BadgeTitle(site.FallbackTitle)
		v.subtitle = title
	}

	if req.FromSearch {
		v.tree.DeactivateAll()
		v.tree.CollapseAllExceptBookmarks()
		return nil
	}
	v.tree.Activate(req.ID, clicked)
	return nil
}

// ToggleBookmark flips the bookmark for id and rebuilds the bookmark
// section. It returns the new state; an empty id is a no-op.
func (v *Viewer) ToggleBookmark(ctx context.Context, id string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.init(ctx); err != nil {
		return false, err
	}
	return v.toggleBookmark(ctx, id)
}

func (v *Viewer) toggleBookmark(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	marked, err := v.bookmarks.Toggle(ctx, id)
	if err != nil {
		return marked, err
	}
	ids, err := v.bookmarks.IDs(ctx)
	if err != nil {
		return marked, err
	}
	v.tree.RebuildBookmarks(ids)
	v.bindSidebar()

	if id == v.caseID && v.fragment != nil {
		v.fragment.SyncToggle(marked)
		body, err := v.fragment.HTML()
		if err != nil {
			return marked, err
		}
		v.body = body
	}
	v.log.Debug("bookmark toggled", zap.String("id", id), zap.Bool("bookmarked", marked))
	return marked, nil
}

// ToggleSection expands or collapses the section with key.
func (v *Viewer) ToggleSection(ctx context.Context, key string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.init(ctx); err != nil {
		return false, err
	}
	return v.toggleSection(key)
}

func (v *Viewer) toggleSection(key string) (bool, error) {
	return v.tree.ToggleSection(key)
}

// Search queries the session index and keeps the results for the view.
func (v *Viewer) Search(ctx context.Context, query string) ([]search.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.init(ctx); err != nil {
		return nil, err
	}
	idx, err := v.session.Index()
	if err != nil {
		return nil, err
	}
	results, err := idx.Search(ctx, query, search.DefaultLimit)
	if err != nil {
		return nil, err
	}
	v.query, v.results = query, results
	return results, nil
}

// SelectSearchResult opens a case picked from the search results.
func (v *Viewer) SelectSearchResult(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.init(ctx); err != nil {
		return err
	}
	return v.selectSearchResult(ctx, id)
}

func (v *Viewer) selectSearchResult(ctx context.Context, id string) error {
	c, ok := v.session.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCase, id)
	}
	v.query, v.results = "", nil
	return v.navigate(ctx, Request{ID: c.ID, Src: c.Src, FromSearch: true})
}

// View returns a snapshot of the page state.
func (v *Viewer) View(ctx context.Context) (Page, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	site := v.session.Config.Site
	p := Page{
		SiteName:     site.Name,
		Logo:         site.Logo,
		HomeID:       site.HomeID,
		CaseID:       v.caseID,
		Title:        v.title,
		Subtitle:     v.subtitle,
		MenuError:    v.menuError,
		Content:      v.body,
		ContentError: v.contentError,
		Search:       v.session.SearchControls(),
		Query:        v.query,
		Results:      append([]search.Result(nil), v.results...),
	}
	if v.menuError != "" {
		p.Search = SearchControls{Disabled: true, Placeholder: PlaceholderUnavailable}
		return p, nil
	}
	if v.tree == nil {
		return p, nil
	}

	sidebar, err := v.tree.HTML()
	if err != nil {
		return p, err
	}
	p.Sidebar = sidebar

	ids, err := v.bookmarks.IDs(ctx)
	if err != nil {
		return p, err
	}
	for _, id := range ids {
		if _, ok := v.session.Manifest.Lookup(id); ok {
			p.Bookmarks = append(p.Bookmarks, id)
		}
		if id == v.caseID {
			p.Bookmarked = true
		}
	}
	return p, nil
}

// Tree returns the navigation tree. Callers must not mutate it.
func (v *Viewer) Tree() *nav.Tree {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree
}

// SidebarSection renders one top-level section of the sidebar.
func (v *Viewer) SidebarSection(key string) (template.HTML, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.tree == nil {
		return "", ErrMenuUnavailable
	}
	return v.tree.SectionHTML(key)
}
