package server

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	srv, _ := setupTestServer(t)
	reg := srv.Viewers()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg.now = clock.now
	reg.MaxViewers = 2
	ctx := context.Background()

	a, err := reg.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get(a): %v", err)
	}
	clock.t = clock.t.Add(time.Second)
	if _, err := reg.Get(ctx, "b"); err != nil {
		t.Fatalf("Get(b): %v", err)
	}
	clock.t = clock.t.Add(time.Second)
	if again, _ := reg.Get(ctx, "a"); again != a {
		t.Fatal("a live viewer should be reused")
	}

	clock.t = clock.t.Add(time.Second)
	if _, err := reg.Get(ctx, "c"); err != nil {
		t.Fatalf("Get(c): %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reg.Len())
	}
	reg.mu.Lock()
	_, hasA := reg.viewers["a"]
	_, hasB := reg.viewers["b"]
	reg.mu.Unlock()
	if !hasA || hasB {
		t.Errorf("want b evicted and a kept, got a=%v b=%v", hasA, hasB)
	}
}

func TestRegistryEvictsIdleViewers(t *testing.T) {
	srv, _ := setupTestServer(t)
	reg := srv.Viewers()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg.now = clock.now
	reg.MaxIdle = time.Minute
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := reg.Get(ctx, id); err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if _, err := reg.Get(ctx, "c"); err != nil {
		t.Fatalf("Get(c): %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1 after idle eviction", reg.Len())
	}
}

func TestRegistryEvictedViewerKeepsBookmarks(t *testing.T) {
	srv, _ := setupTestServer(t)
	reg := srv.Viewers()
	reg.MaxViewers = 1
	ctx := context.Background()

	v, err := reg.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get(a): %v", err)
	}
	if _, err := v.ToggleBookmark(ctx, "acme"); err != nil {
		t.Fatalf("ToggleBookmark: %v", err)
	}
	if _, err := reg.Get(ctx, "b"); err != nil {
		t.Fatalf("Get(b): %v", err)
	}

	back, err := reg.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get(a) again: %v", err)
	}
	if back == v {
		t.Fatal("a should have been evicted and rebuilt")
	}
	page, err := back.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(page.Bookmarks) != 1 || page.Bookmarks[0] != "acme" {
		t.Errorf("bookmarks after eviction = %v", page.Bookmarks)
	}
}
