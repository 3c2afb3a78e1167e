package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/bookmarks"
	"github.com/ziadkadry99/caseshelf/internal/db"
	"github.com/ziadkadry99/caseshelf/internal/logging"
	"github.com/ziadkadry99/caseshelf/internal/shell"
)

// Registry defaults.
const (
	DefaultMaxViewers = 1000
	DefaultMaxIdle    = 30 * time.Minute
)

// Registry maps viewer ids to live viewers of the current session. Live
// viewers are bounded: idle ones are evicted first, then the least
// recently used. An evicted viewer is closed; its bookmarks stay in the
// database and come back with the next request carrying its cookie.
type Registry struct {
	MaxViewers int
	MaxIdle    time.Duration

	db  *db.DB
	log *zap.Logger
	now func() time.Time

	mu      sync.Mutex
	session *shell.Session
	viewers map[string]*liveViewer
}

type liveViewer struct {
	v        *shell.Viewer
	lastUsed time.Time
}

// NewRegistry creates a Registry for session.
func NewRegistry(database *db.DB, session *shell.Session, logger *zap.Logger) *Registry {
	return &Registry{
		MaxViewers: DefaultMaxViewers,
		MaxIdle:    DefaultMaxIdle,
		db:         database,
		log:        logging.OrNop(logger),
		now:        time.Now,
		session:    session,
		viewers:    make(map[string]*liveViewer),
	}
}

// Get returns the viewer for id, creating and initializing it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*shell.Viewer, error) {
	for {
		r.mu.Lock()
		lv, ok := r.viewers[id]
		if ok {
			lv.lastUsed = r.now()
		}
		session := r.session
		r.mu.Unlock()
		if ok {
			return lv.v, nil
		}

		v, err := r.newViewer(ctx, id, session)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.session != session {
			// Swapped while building; retry against the new session.
			r.mu.Unlock()
			v.Close()
			continue
		}
		if cur, ok := r.viewers[id]; ok {
			cur.lastUsed = r.now()
			r.mu.Unlock()
			v.Close()
			return cur.v, nil
		}
		evicted := r.evictLocked()
		r.viewers[id] = &liveViewer{v: v, lastUsed: r.now()}
		r.mu.Unlock()

		for _, old := range evicted {
			old.Close()
		}
		return v, nil
	}
}

// evictLocked removes idle viewers, then the least recently used ones
// until there is room for one more, and returns them for closing. The
// caller holds r.mu.
func (r *Registry) evictLocked() []*shell.Viewer {
	var out []*shell.Viewer
	now := r.now()
	maxIdle := r.MaxIdle
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	for id, lv := range r.viewers {
		if now.Sub(lv.lastUsed) > maxIdle {
			delete(r.viewers, id)
			out = append(out, lv.v)
		}
	}

	limit := r.MaxViewers
	if limit <= 0 {
		limit = DefaultMaxViewers
	}
	for len(r.viewers) >= limit {
		oldestID := ""
		var oldest time.Time
		for id, lv := range r.viewers {
			if oldestID == "" || lv.lastUsed.Before(oldest) {
				oldestID, oldest = id, lv.lastUsed
			}
		}
		out = append(out, r.viewers[oldestID].v)
		delete(r.viewers, oldestID)
	}
	if len(out) > 0 {
		r.log.Debug("viewers evicted", zap.Int("count", len(out)), zap.Int("live", len(r.viewers)))
	}
	return out
}

func (r *Registry) newViewer(ctx context.Context, id string, session *shell.Session) (*shell.Viewer, error) {
	existed, err := r.db.TouchViewer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("registering viewer: %w", err)
	}
	store := bookmarks.NewStore(r.db, "viewer:"+id, r.log)
	v := shell.NewViewer(id, session, store, r.log)
	// A manifest failure is kept in the viewer state and shown on the page.
	if err := v.Init(ctx); err != nil {
		r.log.Debug("viewer init", zap.String("viewer", id), zap.Error(err))
	}
	r.log.Debug("viewer created", zap.String("viewer", id), zap.Bool("returning", existed))
	return v, nil
}

// SetSession swaps the shared session and drops every viewer so each one
// re-initializes against the new manifest on its next request.
func (r *Registry) SetSession(session *shell.Session) {
	r.mu.Lock()
	old := r.viewers
	r.session = session
	r.viewers = make(map[string]*liveViewer)
	r.mu.Unlock()

	for _, lv := range old {
		lv.v.Close()
	}
}

// Session returns the current session.
func (r *Registry) Session() *shell.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Len returns the number of live viewers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers)
}
