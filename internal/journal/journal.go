package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current journal schema version. Bump this when the
// schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the journal database schema version doesn't
// match the expected version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// Entry is one audit record.
type Entry struct {
	ID         int64
	Op         string
	ISBN       string
	BlockID    string
	FromStatus string
	ToStatus   string
	Actor      string
	Detail     string
	CreatedAt  time.Time
}

// Journal manages the audit database.
type Journal struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Path returns the journal database location.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) initSchema(ctx context.Context) error {
	var tableExists int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := j.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit schema: %w", err)
		}
		return nil
	}

	var version int
	if err := j.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate)",
			ErrSchemaMismatch, version, schemaVersion, j.path)
	}
	return nil
}

// Append writes one audit entry.
func (j *Journal) Append(ctx context.Context, entry Entry) error {
	if entry.Op == "" || entry.ISBN == "" {
		return errors.New("journal entry requires op and isbn")
	}
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := j.db.ExecContext(
		ctx,
		`INSERT INTO journal_entries (op, isbn, block_id, from_status, to_status, actor, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Op,
		entry.ISBN,
		entry.BlockID,
		entry.FromStatus,
		entry.ToStatus,
		entry.Actor,
		entry.Detail,
		created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(
		ctx,
		`SELECT id, op, isbn, block_id, from_status, to_status, actor, detail, created_at
         FROM journal_entries ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForISBN returns every entry touching one ISBN, oldest first.
func (j *Journal) ForISBN(ctx context.Context, isbn string) ([]Entry, error) {
	rows, err := j.db.QueryContext(
		ctx,
		`SELECT id, op, isbn, block_id, from_status, to_status, actor, detail, created_at
         FROM journal_entries WHERE isbn = ? ORDER BY id ASC`,
		isbn,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal for %s: %w", isbn, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var created string
		if err := rows.Scan(
			&entry.ID,
			&entry.Op,
			&entry.ISBN,
			&entry.BlockID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.Actor,
			&entry.Detail,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, created); err == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}
	return entries, nil
}
