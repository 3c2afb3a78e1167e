package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Get returns the value stored under namespace/key. The boolean is false
// when no value is stored.
func (d *DB) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	err := d.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

// Put stores value under namespace/key, replacing any previous value.
func (d *DB) Put(ctx context.Context, namespace, key, value string) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Delete removes namespace/key. Deleting a missing key is not an error.
func (d *DB) Delete(ctx context.Context, namespace, key string) error {
	if _, err := d.ExecContext(ctx,
		`DELETE FROM kv WHERE namespace = ? AND key = ?`, namespace, key,
	); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", namespace, key, err)
	}
	return nil
}

// TouchViewer records that a viewer was seen, creating it if needed.
// It reports whether the viewer already existed.
func (d *DB) TouchViewer(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC()
	res, err := d.ExecContext(ctx,
		`UPDATE viewers SET last_seen = ? WHERE id = ?`, now, id,
	)
	if err != nil {
		return false, fmt.Errorf("updating viewer: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	if _, err := d.ExecContext(ctx,
		`INSERT INTO viewers (id, created_at, last_seen) VALUES (?, ?, ?)`, id, now, now,
	); err != nil {
		return false, fmt.Errorf("inserting viewer: %w", err)
	}
	return false, nil
}

// CountViewers returns the number of known viewers.
func (d *DB) CountViewers(ctx context.Context) (int, error) {
	var n int
	err := d.QueryRowContext(ctx, `SELECT COUNT(*) FROM viewers`).Scan(&n)
	return n, err
}
