// Package engine is the query engine spec §4.E describes: an embedded
// SQLite connection with the virtual-table catalog (internal/tables),
// the scalar/TVF function set (internal/sqlfuncs), and the fixed view
// catalog installed at open time. Grounded on the teacher's top-level
// Run/Options flow (sqldef.go), generalized from "open once, diff
// once" to "open once, query many times"; database/sql plus driver
// registration is mattn/go-sqlite3's contract, the same driver
// internal/vtab is built on.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/allthingsida/idasql/internal/policy"
	"github.com/allthingsida/idasql/internal/sqlfuncs"
	"github.com/allthingsida/idasql/internal/tables"
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
)

// Session is the open/query/close lifecycle wrapper spec §6 calls for
// ("A Session convenience adds workspace open/close").
type Session struct {
	db       *sql.DB
	registry *tables.Registry
}

// Open installs virtual-table modules, scalar functions, and the view
// catalog over adapter (spec §4.E "open(workspace)"). Each Session
// registers its own uniquely named database/sql driver, since
// database/sql's registry is process-global and a host may open more
// than one workspace in the same process (spec §9 "Global workspace
// ... tests substitute an in-memory stub").
func Open(adapter workspace.Adapter) (*Session, error) {
	return OpenWithSettings(adapter, policy.Default())
}

// OpenWithSettings is Open with caller-supplied initial policy, used
// by hosts that want cache/undo/batch off from the start (e.g. batch
// import tooling) without an extra config() round trip.
func OpenWithSettings(adapter workspace.Adapter, settings *policy.Settings) (*Session, error) {
	registry := tables.NewRegistry(adapter, settings)
	driverName := "idasql-" + uuid.NewString()

	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := vtab.RegisterAll(conn, registry.All()); err != nil {
				return err
			}
			return sqlfuncs.RegisterAll(conn, adapter, settings)
		},
	})

	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("engine.Open: %w", err)
	}
	// One serialized connection: the workspace thread model (spec §5)
	// forbids concurrent re-entry into any virtual-table callback.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("engine.Open: %w", err)
	}
	for _, ddl := range tables.ViewDDL() {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("engine.Open: installing view: %w", err)
		}
	}

	return &Session{db: db, registry: registry}, nil
}

// Settings exposes the session's policy knobs to config(key,value)'s
// host-side counterpart (CLI flags, embedding code).
func (s *Session) Settings() *policy.Settings { return s.registry.Settings }

// Query runs sql and materializes every row (spec §4.E "query(sql) ->
// result"). Errors never escape as a Go error — they're folded into
// Result.Success/Error per spec §7 ("a failed query returns a result
// object with success=false").
func (s *Session) Query(ctx context.Context, query string, args ...any) *Result {
	defer s.flushBatch()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return errorResult("query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errorResult("query", err)
	}

	result := &Result{Success: true, Columns: cols}
	for rows.Next() {
		row, err := scanRow(rows, len(cols))
		if err != nil {
			return errorResult("query", err)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return errorResult("query", err)
	}
	return result
}

// Scalar runs query and returns its first column as text (spec §4.E
// "scalar(sql) -> text").
func (s *Session) Scalar(ctx context.Context, query string, args ...any) (string, error) {
	r := s.Query(ctx, query, args...)
	if !r.Success {
		return "", fmt.Errorf("%s", r.Error)
	}
	return r.Scalar(), nil
}

// Execute streams rows to cb instead of materializing them, for large
// result sets (spec §4.E "execute(sql[, callback, ctx]) — the latter
// streams rows via callback for large results"). cb returning false
// stops iteration early.
func (s *Session) Execute(ctx context.Context, query string, cb func(columns []string, row []any) bool, args ...any) error {
	defer s.flushBatch()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	for rows.Next() {
		row, err := scanRow(rows, len(cols))
		if err != nil {
			return err
		}
		if !cb(cols, row) {
			return nil
		}
	}
	return rows.Err()
}

// flushBatch closes any undo handle left open by a batched mutation
// during this statement (spec §4.G Batch mode), so coalescing never
// leaks a handle across statements.
func (s *Session) flushBatch() {
	if err := s.registry.FlushBatch(); err != nil {
		slog.Warn("flush batch undo handle", "error", err)
	}
}

func scanRow(rows *sql.Rows, n int) ([]any, error) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return vals, nil
}

// Handle exposes the underlying *sql.DB for prepared statements and
// bindings (spec §4.E "handle() — escape hatch exposing the underlying
// statement-preparation primitive").
func (s *Session) Handle() *sql.DB { return s.db }

// Close releases the connection (spec §4.E "close()").
func (s *Session) Close() error { return s.db.Close() }
