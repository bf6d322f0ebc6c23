// Package tables declares every entity table and view of spec §3/§4.C
// as a vtab.TableSpec bound to a workspace.Adapter. Each file groups
// one or a few closely related tables; All() returns the full catalog
// for registration (spec §4.B "Default registration: every table is
// registered at session start").
package tables

import (
	"sync"

	"github.com/allthingsida/idasql/internal/policy"
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// Registry is the shared context every table constructor closes over:
// the live workspace adapter and the session's policy settings. It is
// not itself a vtab.TableSpec — it is the factory that builds them.
type Registry struct {
	Adapter  workspace.Adapter
	Settings *policy.Settings

	batchMu     sync.Mutex
	batchHandle *workspace.UndoHandle
}

// NewRegistry binds a Registry to an adapter and its session policy.
func NewRegistry(a workspace.Adapter, s *policy.Settings) *Registry {
	return &Registry{Adapter: a, Settings: s}
}

// All returns every declarative table spec (spec §4.C catalog).
// Registration order matches the groupings below; SELECT * column
// ordering within a table is this slice's Columns order (spec §6
// "column ordering in SELECT * is declaration order").
func (r *Registry) All() []*vtab.TableSpec {
	return []*vtab.TableSpec{
		r.funcsTable(),
		r.segmentsTable(),
		r.namesTable(),
		r.entriesTable(),
		r.importsTable(),
		r.stringsTable(),
		r.xrefsTable(),
		r.blocksTable(),
		r.bookmarksTable(),
		r.commentsTable(),
		r.breakpointsTable(),
		r.instructionsTable(),
		r.fixupsTable(),
		r.fchunksTable(),
		r.typesTable(),
		r.typeMembersTable(),
		r.enumValuesTable(),
		r.funcArgsTable(),
		r.pseudocodeTable(),
		r.ctreeTable(),
		r.ctreeLvarsTable(),
		r.ctreeCallArgsTable(),
		r.disasmCallsTable(),
		r.disasmLoopsTable(),
	}
}

// withUndo wraps a mutating operation in an undo handle labeled
// "{op} {table}" (spec §4.B), honoring the Undo/Batch policy knobs.
// On failure the handle is closed after recording the error, leaving
// the undo trail consistent (spec §4.B). When Batch is on, the handle
// is left open across calls instead — see withBatchUndo.
func (r *Registry) withUndo(op, table string, fn func() (int64, error)) (int64, error) {
	if !r.Settings.UndoEnabled() {
		return fn()
	}
	if r.Settings.BatchEnabled() {
		return r.withBatchUndo(op, table, fn)
	}
	label := op + " " + table
	h, err := r.Adapter.OpenUndo(label)
	if err != nil {
		return 0, errs.New(table+".mutate", errs.WorkspaceError, err)
	}
	rowid, err := fn()
	if cerr := r.Adapter.CloseUndo(h); cerr != nil && err == nil {
		err = errs.New(table+".mutate", errs.WorkspaceError, cerr)
	}
	return rowid, err
}

// withBatchUndo coalesces every mutation of the current statement into
// one undo handle (spec §4.G "Batch: when true, all mutations in the
// current statement coalesce into a single undo handle instead of one
// per row"), opening it lazily on the first mutating call and leaving
// it open for FlushBatch to close once the statement finishes.
func (r *Registry) withBatchUndo(op, table string, fn func() (int64, error)) (int64, error) {
	r.batchMu.Lock()
	if r.batchHandle == nil {
		h, err := r.Adapter.OpenUndo("batch " + op + " " + table)
		if err != nil {
			r.batchMu.Unlock()
			return 0, errs.New(table+".mutate", errs.WorkspaceError, err)
		}
		r.batchHandle = &h
	}
	r.batchMu.Unlock()

	return fn()
}

// FlushBatch closes any undo handle left open by withBatchUndo,
// coalescing the statement's mutations into one undo entry. Called by
// engine.Session at the end of every query/exec; a no-op when nothing
// was batched or Batch is off.
func (r *Registry) FlushBatch() error {
	r.batchMu.Lock()
	h := r.batchHandle
	r.batchHandle = nil
	r.batchMu.Unlock()
	if h == nil {
		return nil
	}
	if err := r.Adapter.CloseUndo(*h); err != nil {
		return errs.New("registry.FlushBatch", errs.WorkspaceError, err)
	}
	return nil
}

// requireInt64 is a small helper most per-table Mutate functions use
// to read an integer value out of a vtab.Mutation.Values map; it
// reports false when the column is absent or holds a non-integer.
func requireInt64(values map[int]any, col int) (int64, bool) {
	v, ok := values[col]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func requireString(values map[int]any, col int) (string, bool) {
	v, ok := values[col]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
