// Package cache persists the last loaded work-item snapshot to a
// local SQLite database, so a restart can show the previous timeline
// before the first remote load completes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/activity-timeline/internal/model"
)

// Snapshot is one user's cached work-item graph.
type Snapshot struct {
	WorkItems   map[int]model.WorkItem
	ParentLinks model.ParentLinks
	FetchedAt   time.Time
}

// Cache stores per-user snapshots in a local SQLite database.
type Cache struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func Open(dbPath string) (*Cache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &Cache{db: db, now: time.Now}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *Cache) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Replace swaps the stored snapshot for user with the given graph.
// The previous snapshot is dropped in the same transaction.
func (c *Cache) Replace(ctx context.Context, user string, items map[int]model.WorkItem, links model.ParentLinks) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM work_items WHERE user = ?", user); err != nil {
		return fmt.Errorf("clearing snapshot for %s: %w", user, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO work_items (user, id, rev, parent_id, fields, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	fetchedAt := c.now().UTC()
	for id, item := range items {
		fields, err := json.Marshal(item.Fields)
		if err != nil {
			return fmt.Errorf("marshaling fields for item %d: %w", id, err)
		}

		parent := model.NoParentID
		if p, ok := links[id]; ok {
			parent = p
		}

		_, err = stmt.ExecContext(ctx, user, id, item.Rev, parent, string(fields), fetchedAt)
		if err != nil {
			return fmt.Errorf("inserting item %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// Load returns the stored snapshot for user, or ok=false when none
// exists.
func (c *Cache) Load(ctx context.Context, user string) (Snapshot, bool, error) {
	rows, err := c.db.QueryxContext(ctx,
		"SELECT id, rev, parent_id, fields, fetched_at FROM work_items WHERE user = ?", user)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("querying snapshot for %s: %w", user, err)
	}
	defer rows.Close()

	snap := Snapshot{
		WorkItems:   make(map[int]model.WorkItem),
		ParentLinks: make(model.ParentLinks),
	}

	for rows.Next() {
		var (
			id, rev, parentID int
			fieldsJSON        string
			fetchedAt         time.Time
		)
		if err := rows.Scan(&id, &rev, &parentID, &fieldsJSON, &fetchedAt); err != nil {
			return Snapshot{}, false, fmt.Errorf("scanning item row: %w", err)
		}

		item := model.WorkItem{ID: id, Rev: rev, Fields: make(model.Fields)}
		if err := json.Unmarshal([]byte(fieldsJSON), &item.Fields); err != nil {
			return Snapshot{}, false, fmt.Errorf("unmarshaling fields for item %d: %w", id, err)
		}

		snap.WorkItems[id] = item
		snap.ParentLinks[id] = parentID
		if fetchedAt.After(snap.FetchedAt) {
			snap.FetchedAt = fetchedAt
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, false, err
	}

	if len(snap.WorkItems) == 0 {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}
