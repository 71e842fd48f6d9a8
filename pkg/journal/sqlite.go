package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
    id          TEXT PRIMARY KEY,
    request_id  TEXT,
    tree        TEXT NOT NULL DEFAULT '',
    root_tag    TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    error_count INTEGER NOT NULL DEFAULT 0,
    result      TEXT,
    locals      TEXT,
    duration_ns INTEGER NOT NULL,
    ts          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_ts ON evaluations(ts);
CREATE INDEX IF NOT EXISTS idx_evaluations_tree_ts ON evaluations(tree, ts);
`

const selectColumns = `id, request_id, tree, root_tag, outcome, error_count, result, locals, duration_ns, ts`

// SQLStore persists records in a SQLite database.
type SQLStore struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// OpenSQLStore opens (creating if needed) the database at path with the
// named driver, "sqlite" or "sqlite3".
func OpenSQLStore(driver, path string, maxOpenConns int, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if driver != "sqlite" && driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported journal driver %q", driver)
	}
	if path == "" {
		return nil, errors.New("journal path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, storageError(driver, "mkdir", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, storageError(driver, "open", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		maxOpenConns = 1
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	s := &SQLStore{db: db, driver: driver, logger: logger.With("component", "journal.sqlite")}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("journal storage initialized",
		"driver", driver,
		"path", path,
		"max_open_conns", maxOpenConns,
	)
	return s, nil
}

func (s *SQLStore) initialize() error {
	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := s.db.Exec(pragma); err != nil {
			return storageError(s.driver, "pragma", err)
		}
	}
	if _, err := s.db.Exec(schema); err != nil {
		return storageError(s.driver, "create_schema", err)
	}
	return nil
}

// Write inserts a record.
func (s *SQLStore) Write(ctx context.Context, r *Record) error {
	var locals []byte
	if len(r.Locals) > 0 {
		var err error
		if locals, err = json.Marshal(r.Locals); err != nil {
			return storageError(s.driver, "encode_locals", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullString(r.RequestID), r.Tree, r.RootTag, r.Outcome, r.ErrorCount,
		nullString(string(r.Result)), nullString(string(locals)),
		int64(r.Duration), r.Timestamp.UnixNano(),
	)
	if err != nil {
		return storageError(s.driver, "write", err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM evaluations WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(s.driver, "get", err)
	}
	return r, nil
}

// Query returns matching records, newest first.
func (s *SQLStore) Query(ctx context.Context, q *Query) ([]*Record, error) {
	if q == nil {
		q = &Query{}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if q.Tree != "" {
		where = append(where, "tree = ?")
		args = append(args, q.Tree)
	}
	if q.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, q.Outcome)
	}
	if !q.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if !q.Until.IsZero() {
		where = append(where, "ts < ?")
		args = append(args, q.Until.UnixNano())
	}

	stmt := `SELECT ` + selectColumns + ` FROM evaluations`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, " AND ")
	}
	stmt += ` ORDER BY ts DESC, id DESC LIMIT ?`
	args = append(args, q.limit())

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storageError(s.driver, "query", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, storageError(s.driver, "scan", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(s.driver, "query", err)
	}
	return out, nil
}

// DeleteBefore removes records older than t.
func (s *SQLStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM evaluations WHERE ts < ?`, t.UnixNano())
	if err != nil {
		return 0, storageError(s.driver, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError(s.driver, "delete", err)
	}
	return n, nil
}

// Count returns the number of records.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&n); err != nil {
		return 0, storageError(s.driver, "count", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		r                          Record
		requestID, result, locals  sql.NullString
		durationNS, timestampNanos int64
	)
	err := sc.Scan(&r.ID, &requestID, &r.Tree, &r.RootTag, &r.Outcome, &r.ErrorCount,
		&result, &locals, &durationNS, &timestampNanos)
	if err != nil {
		return nil, err
	}

	r.RequestID = requestID.String
	if result.Valid {
		r.Result = json.RawMessage(result.String)
	}
	if locals.Valid && locals.String != "" {
		if err := json.Unmarshal([]byte(locals.String), &r.Locals); err != nil {
			return nil, fmt.Errorf("decode locals: %w", err)
		}
	}
	r.Duration = time.Duration(durationNS)
	r.Timestamp = time.Unix(0, timestampNanos).UTC()
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
