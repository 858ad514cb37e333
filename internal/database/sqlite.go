package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS conference_notifies (
	conference TEXT NOT NULL,
	version    INTEGER NOT NULL,
	body       BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (conference, version)
);
`

// SQLiteManager stores conference notifies in a SQLite database
type SQLiteManager struct {
	path string
	db   *sql.DB
}

// NewSQLiteManager creates a manager for the database file at path.
// ":memory:" opens a private in-memory database.
func NewSQLiteManager(path string) *SQLiteManager {
	return &SQLiteManager{path: path}
}

// Initialize opens the database and creates the schema
func (m *SQLiteManager) Initialize() error {
	dsn := m.path
	if m.path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", m.path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", m.path, err)
	}
	// SQLite has a single writer; an in-memory database also only lives
	// as long as its connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database %s: %w", m.path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	m.db = db
	return nil
}

// Close closes the database
func (m *SQLiteManager) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// Append stores a notify. Storing the same version twice replaces it.
func (m *SQLiteManager) Append(ctx context.Context, rec NotifyRecord) error {
	if m.db == nil {
		return ErrNotInitialized
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := m.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO conference_notifies (conference, version, body, created_at) VALUES (?, ?, ?, ?)`,
		rec.Conference, int64(rec.Version), rec.Body, created.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store notify %d for %s: %w", rec.Version, rec.Conference, err)
	}
	return nil
}

// Since returns the notifies of a conference newer than after
func (m *SQLiteManager) Since(ctx context.Context, conference string, after uint) ([]NotifyRecord, error) {
	if m.db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := m.db.QueryContext(ctx,
		`SELECT version, body, created_at FROM conference_notifies WHERE conference = ? AND version > ? ORDER BY version`,
		conference, int64(after))
	if err != nil {
		return nil, fmt.Errorf("failed to query notifies for %s: %w", conference, err)
	}
	defer rows.Close()

	var records []NotifyRecord
	for rows.Next() {
		var version, created int64
		var body []byte
		if err := rows.Scan(&version, &body, &created); err != nil {
			return nil, fmt.Errorf("failed to scan notify: %w", err)
		}
		records = append(records, NotifyRecord{
			Conference: conference,
			Version:    uint(version),
			Body:       body,
			CreatedAt:  time.UnixMilli(created),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifies for %s: %w", conference, err)
	}
	return records, nil
}

// LastVersion returns the highest stored version of a conference
func (m *SQLiteManager) LastVersion(ctx context.Context, conference string) (uint, error) {
	if m.db == nil {
		return 0, ErrNotInitialized
	}
	var version sql.NullInt64
	err := m.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM conference_notifies WHERE conference = ?`, conference).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read last version for %s: %w", conference, err)
	}
	if !version.Valid {
		return 0, nil
	}
	return uint(version.Int64), nil
}

// Prune deletes all but the newest keep notifies of a conference
func (m *SQLiteManager) Prune(ctx context.Context, conference string, keep int) error {
	if m.db == nil {
		return ErrNotInitialized
	}
	_, err := m.db.ExecContext(ctx,
		`DELETE FROM conference_notifies WHERE conference = ? AND version <= (
			SELECT COALESCE(MAX(version), 0) - ? FROM conference_notifies WHERE conference = ?)`,
		conference, keep, conference)
	if err != nil {
		return fmt.Errorf("failed to prune notifies for %s: %w", conference, err)
	}
	return nil
}

// Conferences lists the conferences with stored notifies
func (m *SQLiteManager) Conferences(ctx context.Context) ([]string, error) {
	if m.db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := m.db.QueryContext(ctx, `SELECT DISTINCT conference FROM conference_notifies ORDER BY conference`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conferences: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan conference: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
