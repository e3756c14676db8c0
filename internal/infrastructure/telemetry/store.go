package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps screen-view events in a local SQLite file
type Store struct {
	sql *sql.DB
}

// GroupCount is the number of stored events for one group and category
type GroupCount struct {
	GroupName string
	Category  Category
	Events    int
	Screens   int
}

// OpenStore opens or creates the event database at path
func OpenStore(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS screen_views (
  id           INTEGER PRIMARY KEY,
  atom         TEXT NOT NULL,
  session_id   INTEGER NOT NULL,
  view_id      INTEGER NOT NULL,
  group_name   TEXT NOT NULL,
  uid          INTEGER NOT NULL,
  package_name TEXT NOT NULL,
  category     INTEGER NOT NULL,
  occurred_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_views_group ON screen_views(group_name, category);
`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create event schema: %w", err)
	}
	return &Store{sql: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Write implements Sink
func (s *Store) Write(ctx context.Context, e Event) error {
	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO screen_views(atom, session_id, view_id, group_name, uid, package_name, category, occurred_at) VALUES(?,?,?,?,?,?,?,?)`,
		e.Atom, e.SessionID, e.ViewID, e.GroupName, e.UID, e.PackageName, int32(e.Category), e.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// Counts aggregates stored events by group and category. Screens counts
// distinct view ids.
func (s *Store) Counts(ctx context.Context) ([]GroupCount, error) {
	rows, err := s.sql.QueryContext(ctx, `
SELECT group_name, category, COUNT(*), COUNT(DISTINCT view_id)
FROM screen_views
GROUP BY group_name, category
ORDER BY group_name, category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupCount
	for rows.Next() {
		var (
			gc  GroupCount
			cat int32
		)
		if err := rows.Scan(&gc.GroupName, &cat, &gc.Events, &gc.Screens); err != nil {
			return nil, err
		}
		gc.Category = Category(cat)
		out = append(out, gc)
	}
	return out, rows.Err()
}

// Since returns the events that occurred at or after t, oldest first
func (s *Store) Since(ctx context.Context, t time.Time) ([]Event, error) {
	rows, err := s.sql.QueryContext(ctx, `
SELECT atom, session_id, view_id, group_name, uid, package_name, category, occurred_at
FROM screen_views
WHERE occurred_at >= ?
ORDER BY occurred_at, id`, t.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e   Event
			cat int32
		)
		if err := rows.Scan(&e.Atom, &e.SessionID, &e.ViewID, &e.GroupName, &e.UID, &e.PackageName, &cat, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Category = Category(cat)
		out = append(out, e)
	}
	return out, rows.Err()
}
