package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	for _, table := range []string{"kv", "viewers"} {
		var count int
		if err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}

func TestKV(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	if _, ok, err := d.Get(ctx, "v1", "bookmarks"); err != nil || ok {
		t.Fatalf("Get on empty store = ok:%v err:%v", ok, err)
	}

	if err := d.Put(ctx, "v1", "bookmarks", `["a"]`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := d.Put(ctx, "v1", "bookmarks", `["a","b"]`); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if err := d.Put(ctx, "v2", "bookmarks", `["z"]`); err != nil {
		t.Fatalf("Put other namespace: %v", err)
	}

	v, ok, err := d.Get(ctx, "v1", "bookmarks")
	if err != nil || !ok {
		t.Fatalf("Get = ok:%v err:%v", ok, err)
	}
	if v != `["a","b"]` {
		t.Errorf("value = %q", v)
	}

	if err := d.Delete(ctx, "v1", "bookmarks"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := d.Get(ctx, "v1", "bookmarks"); ok {
		t.Error("value should be gone after Delete")
	}
	if _, ok, _ := d.Get(ctx, "v2", "bookmarks"); !ok {
		t.Error("other namespace should be untouched")
	}
}

func TestTouchViewer(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	existed, err := d.TouchViewer(ctx, "abc")
	if err != nil || existed {
		t.Fatalf("first TouchViewer = %v, %v", existed, err)
	}
	existed, err = d.TouchViewer(ctx, "abc")
	if err != nil || !existed {
		t.Fatalf("second TouchViewer = %v, %v", existed, err)
	}
	n, err := d.CountViewers(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountViewers = %d, %v", n, err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "caseshelf.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := d.Put(ctx, "v", "k", "1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	d.Close()

	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()
	v, ok, err := d.Get(ctx, "v", "k")
	if err != nil || !ok || v != "1" {
		t.Errorf("persisted value = %q ok:%v err:%v", v, ok, err)
	}
}
