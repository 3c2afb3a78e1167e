// Package bookmarks keeps a viewer's ordered set of bookmarked case ids in
// a namespaced key-value store.
package bookmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/logging"
)

// StorageKey is the key the bookmark list is persisted under.
const StorageKey = "bookmarks"

// KV is the persistent key-value medium. *db.DB satisfies it.
type KV interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Put(ctx context.Context, namespace, key, value string) error
}

// Store is an ordered set of case ids. It is loaded lazily on first read
// and written back synchronously after every mutation.
type Store struct {
	kv        KV
	namespace string
	log       *zap.Logger

	mu     sync.Mutex
	loaded bool
	ids    []string
}

// NewStore creates a Store persisting under namespace.
func NewStore(kv KV, namespace string, logger *zap.Logger) *Store {
	return &Store{
		kv:        kv,
		namespace: namespace,
		log:       logging.OrNop(logger).Named("bookmarks"),
	}
}

// ensureLoaded reads the stored list once. Malformed content resets the
// set to empty. Callers hold s.mu.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	raw, ok, err := s.kv.Get(ctx, s.namespace, StorageKey)
	if err != nil {
		return fmt.Errorf("loading bookmarks: %w", err)
	}
	s.ids = nil
	if ok {
		ids, err := decode(raw)
		if err != nil {
			s.log.Warn("discarding malformed bookmark list",
				zap.String("namespace", s.namespace), zap.Error(err))
		} else {
			s.ids = ids
		}
	}
	s.loaded = true
	return nil
}

// decode parses the stored JSON list, dropping empty and repeated ids.
func decode(raw string) ([]string, error) {
	var stored []string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(stored))
	for _, id := range stored {
		if id == "" || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Toggle removes id if present, otherwise appends it, then persists the
// full list. It returns whether id is bookmarked afterwards. An empty id
// is a no-op. If persisting fails the in-memory set is left unchanged.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}

	next := slices.Clone(s.ids)
	bookmarked := false
	if i := slices.Index(next, id); i >= 0 {
		next = slices.Delete(next, i, i+1)
	} else {
		next = append(next, id)
		bookmarked = true
	}

	if err := s.persist(ctx, next); err != nil {
		return !bookmarked, err
	}
	s.ids = next
	s.log.Debug("bookmark toggled", zap.String("id", id), zap.Bool("bookmarked", bookmarked))
	return bookmarked, nil
}

func (s *Store) persist(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding bookmarks: %w", err)
	}
	if err := s.kv.Put(ctx, s.namespace, StorageKey, string(data)); err != nil {
		return fmt.Errorf("saving bookmarks: %w", err)
	}
	return nil
}

// IsBookmarked reports whether id is in the set.
func (s *Store) IsBookmarked(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}
	return slices.Contains(s.ids, id), nil
}

// IDs returns the bookmarked ids in insertion order.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(s.ids), nil
}
