package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/events"
	"github.com/ziadkadry99/caseshelf/internal/nav"
	"github.com/ziadkadry99/caseshelf/internal/search"
	"github.com/ziadkadry99/caseshelf/internal/shell"
	"github.com/ziadkadry99/caseshelf/internal/view"
)

// update carries the re-rendered parts of the page after an event.
type update struct {
	Handled      bool                 `json:"handled"`
	CaseID       string               `json:"case_id"`
	Title        string               `json:"title"`
	Subtitle     string               `json:"subtitle"`
	Sidebar      string               `json:"sidebar"`
	Content      string               `json:"content"`
	ContentError bool                 `json:"content_error"`
	Bookmarked   bool                 `json:"bookmarked"`
	Bookmarks    []string             `json:"bookmarks"`
	Search       shell.SearchControls `json:"search"`
	Results      []search.Result      `json:"results,omitempty"`
	Error        string               `json:"error,omitempty"`
}

func newUpdate(p shell.Page) update {
	u := update{
		CaseID:       p.CaseID,
		Title:        p.Title,
		Subtitle:     p.Subtitle,
		Sidebar:      string(p.Sidebar),
		Content:      string(p.Content),
		ContentError: p.ContentError,
		Bookmarked:   p.Bookmarked,
		Bookmarks:    p.Bookmarks,
		Search:       p.Search,
		Results:      p.Results,
	}
	if p.MenuError != "" {
		u.Sidebar = `<div class="alert alert-danger menu-error">` + shell.MenuErrorText + `</div>`
	}
	if u.Bookmarks == nil {
		u.Bookmarks = []string{}
	}
	return u
}

func (s *Server) viewer(w http.ResponseWriter, r *http.Request) (*shell.Viewer, bool) {
	v, err := s.viewers.Get(r.Context(), viewerID(r.Context()))
	if err != nil {
		s.log.Error("loading viewer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "viewer unavailable")
		return nil, false
	}
	return v, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	session := s.viewers.Session()
	resp := map[string]any{
		"status":  "ok",
		"viewers": s.viewers.Len(),
		"search":  session.SearchControls().Placeholder,
	}
	if err := session.Err(); err != nil {
		resp["status"] = "degraded"
		resp["error"] = err.Error()
	} else {
		resp["cases"] = session.Manifest.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleIndex renders the page. ?case= selects the case the way a URL
// fragment does; a viewer with nothing open lands on the home case.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v, ok := s.viewer(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	page, err := v.View(ctx)
	if err != nil {
		s.log.Error("viewing page", zap.Error(err))
	}
	caseID, hasCase := r.URL.Query()["case"]
	if hasCase || (page.CaseID == "" && page.MenuError == "") {
		hash := ""
		if len(caseID) > 0 {
			hash = caseID[0]
		}
		s.open(v, r, hash)
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		if _, err := v.Search(ctx, q); err != nil {
			s.log.Debug("search", zap.Error(err))
		}
	}
	s.render(w, r, v)
}

func (s *Server) handleCase(w http.ResponseWriter, r *http.Request) {
	v, ok := s.viewer(w, r)
	if !ok {
		return
	}
	s.open(v, r, chi.URLParam(r, "id"))
	s.render(w, r, v)
}

func (s *Server) open(v *shell.Viewer, r *http.Request, hash string) {
	err := v.Open(r.Context(), hash)
	switch {
	case err == nil:
	case errors.Is(err, shell.ErrContentUnavailable), errors.Is(err, shell.ErrMenuUnavailable):
		// Shown in the page.
	default:
		s.log.Warn("opening case", zap.String("hash", hash), zap.Error(err))
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, v *shell.Viewer) {
	page, err := v.View(r.Context())
	if err != nil {
		s.log.Error("viewing page", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "rendering failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, page, view.Options{Mode: view.ModeLive}); err != nil {
		s.log.Error("rendering page", zap.Error(err))
	}
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	v, ok := s.viewer(w, r)
	if !ok {
		return
	}
	var ev events.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event: "+err.Error())
		return
	}
	u, status := s.dispatch(r, v, ev)
	writeJSON(w, status, u)
}

// dispatch runs ev and returns the page update and its HTTP status.
func (s *Server) dispatch(r *http.Request, v *shell.Viewer, ev events.Event) (update, int) {
	ctx := r.Context()
	handled, err := v.Dispatch(ctx, ev)

	page, viewErr := v.View(ctx)
	if viewErr != nil {
		s.log.Error("viewing page", zap.Error(viewErr))
		return update{Error: "rendering failed"}, http.StatusInternalServerError
	}
	u := newUpdate(page)
	u.Handled = handled

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, shell.ErrContentUnavailable):
		// The error block is already in the content.
	case errors.Is(err, shell.ErrMenuUnavailable):
		u.Error = shell.MenuErrorText
		status = http.StatusServiceUnavailable
	case errors.Is(err, shell.ErrUnknownCase), errors.Is(err, nav.ErrUnknownSection):
		u.Error = err.Error()
		status = http.StatusNotFound
	case errors.Is(err, nav.ErrNotCollapsible):
		u.Error = err.Error()
		status = http.StatusBadRequest
	default:
		s.log.Warn("event failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
		u.Error = err.Error()
		status = http.StatusInternalServerError
	}
	if !handled && err == nil {
		status = http.StatusUnprocessableEntity
		u.Error = "unhandled event kind " + string(ev.Kind)
	}
	return u, status
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	v, ok := s.viewer(w, r)
	if !ok {
		return
	}
	results, err := v.Search(r.Context(), r.URL.Query().Get("q"))
	controls := v.Session().SearchControls()
	if err != nil {
		if errors.Is(err, shell.ErrSearchUnavailable) || errors.Is(err, shell.ErrMenuUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"error":  err.Error(),
				"search": controls,
			})
			return
		}
		s.log.Error("search", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"search":  controls,
	})
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	v, ok := s.viewer(w, r)
	if !ok {
		return
	}
	page, err := v.View(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ids := page.Bookmarks
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": ids})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
