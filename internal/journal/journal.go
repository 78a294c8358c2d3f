// Package journal persists consumed MQTT messages to SQLite so traffic
// survives process restarts and can be inspected after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entry represents one journalled message.
type Entry struct {
	ID         int64     `json:"id"`
	Topic      string    `json:"topic"`
	Payload    []byte    `json:"payload"`
	Retained   bool      `json:"retained"`
	ReceivedAt time.Time `json:"received_at"`
}

// Filter controls which entries to return.
type Filter struct {
	Topic  string // optional: exact topic match
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// Pagination bounds.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Repository defines the interface for journal operations.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository stores journal entries in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a journal repository and ensures its
// schema exists.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	r := &SQLiteRepository{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// ensureSchema creates the journal table. The schema is a single
// append-only table, so it lives here rather than in a migration set.
func (r *SQLiteRepository) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS message_journal (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			topic       TEXT    NOT NULL,
			payload     BLOB    NOT NULL,
			retained    INTEGER NOT NULL DEFAULT 0,
			received_at TEXT    NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating journal schema: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_journal_topic ON message_journal (topic)`)
	if err != nil {
		return fmt.Errorf("creating journal index: %w", err)
	}

	return nil
}

// Append inserts one entry. ReceivedAt is filled in when zero.
func (r *SQLiteRepository) Append(ctx context.Context, e *Entry) error {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO message_journal (topic, payload, retained, received_at)
		 VALUES (?, ?, ?, ?)`,
		e.Topic, e.Payload, boolToInt(e.Retained),
		e.ReceivedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading journal entry id: %w", err)
	}
	e.ID = id

	return nil
}

// List returns entries newest-first, honouring the filter.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	query := `SELECT id, topic, payload, retained, received_at
		  FROM message_journal`
	args := []any{}
	if filter.Topic != "" {
		query += ` WHERE topic = ?`
		args = append(args, filter.Topic)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor cleanup

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			retained int
			received string
		)
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &retained, &received); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.Retained = retained != 0
		ts, err := time.Parse(time.RFC3339Nano, received)
		if err != nil {
			return nil, fmt.Errorf("parsing journal timestamp: %w", err)
		}
		e.ReceivedAt = ts
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}

	return entries, nil
}

// Count returns the total number of journalled messages.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message_journal`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting journal entries: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
