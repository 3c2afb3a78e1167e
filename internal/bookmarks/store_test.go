package bookmarks

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ziadkadry99/caseshelf/internal/db"
)

func setupTestStore(t *testing.T) (*Store, *db.DB) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, "viewer-1", nil), database
}

func mustIDs(t *testing.T, s *Store) []string {
	t.Helper()
	ids, err := s.IDs(context.Background())
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	return ids
}

func TestToggleAddsAndRemoves(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	on, err := s.Toggle(ctx, "acme")
	if err != nil || !on {
		t.Fatalf("first Toggle = %v, %v; want true", on, err)
	}
	ok, _ := s.IsBookmarked(ctx, "acme")
	if !ok {
		t.Error("acme should be bookmarked")
	}

	on, err = s.Toggle(ctx, "acme")
	if err != nil || on {
		t.Fatalf("second Toggle = %v, %v; want false", on, err)
	}
	ok, _ = s.IsBookmarked(ctx, "acme")
	if ok {
		t.Error("acme should no longer be bookmarked")
	}
}

func TestToggleTwiceRestoresSet(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		s.Toggle(ctx, id)
	}
	before := mustIDs(t, s)

	for _, id := range []string{"b", "zzz", "a"} {
		s.Toggle(ctx, id)
		s.Toggle(ctx, id)
		after := mustIDs(t, s)
		if diff := cmp.Diff(before, after, cmpopts.SortSlices(func(x, y string) bool { return x < y })); diff != "" {
			t.Errorf("toggling %s twice changed the set (-before +after):\n%s", id, diff)
		}
	}
}

func TestToggleNeverDuplicates(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	sequence := []string{"a", "b", "a", "a", "c", "b", "b", "a", "c", "c", "c"}
	for _, id := range sequence {
		if _, err := s.Toggle(ctx, id); err != nil {
			t.Fatalf("Toggle(%s): %v", id, err)
		}
		seen := map[string]bool{}
		for _, got := range mustIDs(t, s) {
			if seen[got] {
				t.Fatalf("duplicate id %q after toggling %q", got, id)
			}
			seen[got] = true
		}
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		s.Toggle(ctx, id)
	}
	s.Toggle(ctx, "a")
	s.Toggle(ctx, "a")

	want := []string{"c", "b", "a"}
	if diff := cmp.Diff(want, mustIDs(t, s)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleEmptyIsNoop(t *testing.T) {
	s, database := setupTestStore(t)
	ctx := context.Background()

	on, err := s.Toggle(ctx, "")
	if err != nil || on {
		t.Fatalf("Toggle(\"\") = %v, %v", on, err)
	}
	if _, ok, _ := database.Get(ctx, "viewer-1", StorageKey); ok {
		t.Error("empty toggle should not write to storage")
	}
}

func TestPersistsAcrossStores(t *testing.T) {
	s, database := setupTestStore(t)
	ctx := context.Background()
	s.Toggle(ctx, "x")
	s.Toggle(ctx, "y")

	raw, ok, err := database.Get(ctx, "viewer-1", StorageKey)
	if err != nil || !ok {
		t.Fatalf("stored value missing: %v", err)
	}
	if raw != `["x","y"]` {
		t.Errorf("stored value = %s", raw)
	}

	reopened := NewStore(database, "viewer-1", nil)
	if diff := cmp.Diff([]string{"x", "y"}, mustIDs(t, reopened)); diff != "" {
		t.Errorf("reloaded set mismatch (-want +got):\n%s", diff)
	}

	other := NewStore(database, "viewer-2", nil)
	if got := mustIDs(t, other); len(got) != 0 {
		t.Errorf("other namespace should be empty, got %v", got)
	}
}

func TestMalformedStorageResetsToEmpty(t *testing.T) {
	_, database := setupTestStore(t)
	ctx := context.Background()

	tests := map[string]string{
		"not json":  `{{{`,
		"object":    `{"a": 1}`,
		"numbers":   `[1, 2]`,
		"truncated": `["a", "b"`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			ns := "bad-" + name
			if err := database.Put(ctx, ns, StorageKey, raw); err != nil {
				t.Fatal(err)
			}
			s := NewStore(database, ns, nil)
			if got := mustIDs(t, s); len(got) != 0 {
				t.Errorf("expected empty set, got %v", got)
			}
			on, err := s.Toggle(ctx, "a")
			if err != nil || !on {
				t.Errorf("Toggle after reset = %v, %v", on, err)
			}
		})
	}
}

func TestStoredDuplicatesAreDropped(t *testing.T) {
	_, database := setupTestStore(t)
	ctx := context.Background()
	database.Put(ctx, "dups", StorageKey, `["a","b","a","","b"]`)

	s := NewStore(database, "dups", nil)
	if diff := cmp.Diff([]string{"a", "b"}, mustIDs(t, s)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

type failingKV struct {
	putErr error
	stored string
}

func (f *failingKV) Get(context.Context, string, string) (string, bool, error) {
	if f.stored == "" {
		return "", false, nil
	}
	return f.stored, true, nil
}

func (f *failingKV) Put(context.Context, string, string, string) error { return f.putErr }

func TestFailedPersistRevertsMutation(t *testing.T) {
	kv := &failingKV{stored: `["a"]`, putErr: errors.New("disk full")}
	s := NewStore(kv, "ns", nil)
	ctx := context.Background()

	on, err := s.Toggle(ctx, "b")
	if err == nil {
		t.Fatal("expected an error")
	}
	if on {
		t.Error("failed add should report the previous state (false)")
	}
	if diff := cmp.Diff([]string{"a"}, mustIDs(t, s)); diff != "" {
		t.Errorf("set changed despite failed persist (-want +got):\n%s", diff)
	}

	on, err = s.Toggle(ctx, "a")
	if err == nil || !on {
		t.Errorf("failed remove = %v, %v; want true and an error", on, err)
	}
}
