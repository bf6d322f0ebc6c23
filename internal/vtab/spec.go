// Package vtab is the virtual-table framework: a declarative builder
// for read-only (index- or cache-backed) tables, writable tables, and
// table-valued functions, all sharing one constraint-pushdown contract
// and one cursor lifecycle (spec §4.B). It is built on top of
// github.com/mattn/go-sqlite3, the only library in the reference
// corpus exposing SQLite's virtual-table callback surface.
//
// The pushdown/plan logic (this file, bestindex.go) is pure Go with no
// cgo dependency, so it is unit-testable on its own; module.go is the
// thin adapter that bridges it to mattn/go-sqlite3's callback
// interfaces (spec §9: "avoid inheritance hierarchies" — one generic
// implementation keyed by a Shape tag, not a type per table).
package vtab

import "context"

// Shape is the tag distinguishing the three table kinds spec.md §4.B
// describes.
type Shape int

const (
	// ShapeIndex: backed by Count/AtIndex, O(1) random access.
	ShapeIndex Shape = iota
	// ShapeCache: backed by a Scan that materializes a vector of rows
	// on xFilter.
	ShapeCache
	// ShapeTVF: a table-valued function; hidden columns are the
	// function's constant arguments.
	ShapeTVF
)

// Op is one of the four pushdown predicate kinds spec.md §4.B
// requires a table to be able to recognize.
type Op int

const (
	OpEQ Op = iota
	OpGT
	OpLT
	OpIN
	// OpLimit and OpOffset aren't column predicates: they mark
	// SQLite's LIMIT/OFFSET virtual-table pushdown constraints
	// (SQLITE_INDEX_CONSTRAINT_LIMIT/OFFSET, both delivered with
	// Column == -2, distinguished only by Op). BuildPlan threads them
	// through the same Used/IdxStr machinery as a real column
	// constraint so Filter can recover the bound values.
	OpLimit
	OpOffset
)

func (o Op) String() string {
	switch o {
	case OpEQ:
		return "eq"
	case OpGT:
		return "gt"
	case OpLT:
		return "lt"
	case OpIN:
		return "in"
	case OpLimit:
		return "limit"
	case OpOffset:
		return "offset"
	default:
		return "?"
	}
}

// Row is one row's worth of column values, ordered to match
// TableSpec.Columns (hidden/argument columns included, in declaration
// order).
type Row []any

// Column declares one column of a table.
type Column struct {
	Name string
	// SQLType is the declared SQLite column type used in the CREATE
	// TABLE the module hands back from DeclareVTab: "INTEGER", "TEXT",
	// "REAL", or "BLOB". Column type coercion (spec §4.B) happens at
	// the Column-callback layer, not here.
	SQLType string
	// Writable marks a column eligible for UPDATE (spec §4.B).
	Writable bool
	// Hidden marks a TVF's constant-argument column: it must be bound
	// by '=' in WHERE, or positionally in FROM tvf(arg,...) syntax.
	Hidden bool
	// Pushdown is the set of predicates this column recognizes and
	// will use to restrict its scan.
	Pushdown map[Op]bool
	// Required, combined with an entry in Pushdown, means an
	// unconstrained scan is a hard error unless policy explicitly
	// allows it (spec §4.B pushdown table: instructions.func_addr,
	// blocks.func_ea, pseudocode/ctree*.func_addr, jump_entities's
	// pattern+mode).
	Required bool
}

// FilterArgs is what a table's Scan/AtIndex/TVF-iterate callback
// receives at xFilter time: the constrained values, keyed by column
// index, plus any LIMIT/OFFSET the planner pushed down (-1 means
// unbounded).
type FilterArgs struct {
	Ctx    context.Context
	Values map[int]any
	Limit  int64
	Offset int64
}

// Value returns the constrained value for columnIndex and whether it
// was present.
func (f FilterArgs) Value(columnIndex int) (any, bool) {
	v, ok := f.Values[columnIndex]
	return v, ok
}

// RowIterator is the cursor contract a TVF's xFilter hands back; it is
// consulted incrementally so a LIMIT can stop source iteration early
// (spec §1(d), §4.D jump_entities).
type RowIterator interface {
	// Next advances to the next row. ok is false at end of data.
	Next() (row Row, ok bool, err error)
	Close() error
}

// sliceIterator adapts a pre-materialized []Row to RowIterator, for
// TVF sources that are cheap enough to build eagerly.
type sliceIterator struct {
	rows []Row
	i    int
}

// NewSliceIterator wraps rows as a RowIterator.
func NewSliceIterator(rows []Row) RowIterator { return &sliceIterator{rows: rows} }

func (s *sliceIterator) Next() (Row, bool, error) {
	if s.i >= len(s.rows) {
		return nil, false, nil
	}
	r := s.rows[s.i]
	s.i++
	return r, true, nil
}

func (s *sliceIterator) Close() error { return nil }

// MutationKind distinguishes the three xUpdate shapes (spec §4.B
// "Writable tables").
type MutationKind int

const (
	MutationInsert MutationKind = iota
	MutationUpdate
	MutationDelete
)

// Mutation is the normalized form of a single xUpdate callback,
// translated from SQLite's argv convention (writer.go) into something
// a TableSpec.Mutate implementation can switch on directly.
type Mutation struct {
	Kind     MutationKind
	OldRowID int64           // valid for Update/Delete
	NewRowID *int64          // set by Insert when the caller supplies an explicit rowid
	Values   map[int]any     // column index -> new value (Insert/Update only)
}

// TableSpec declaratively describes one virtual table or
// table-valued function. Exactly one of {Count+AtIndex, Scan,
// TVFIterate} is populated, matching Shape.
type TableSpec struct {
	Name    string
	Shape   Shape
	Columns []Column

	// ShapeIndex.
	Count   func(ctx context.Context) (int, error)
	AtIndex func(ctx context.Context, i int) (Row, error)

	// ShapeCache. EstimatedRows feeds BestIndex's cost estimate when
	// no pushdown constraint is usable.
	Scan          func(args FilterArgs) ([]Row, error)
	EstimatedRows int64

	// ShapeTVF.
	TVFIterate func(args FilterArgs) (RowIterator, error)

	// Writable tables implement Mutate; nil means read-only. Every
	// mutating call is wrapped in an undo handle by the table layer
	// (internal/tables' withUndo), labeled "{op} {table}" per spec §4.B — TableSpec
	// itself stays undo-agnostic so it can be unit tested without a
	// workspace.Adapter.
	Mutate func(m Mutation) (rowid int64, err error)

	// RowID maps a materialized Row back to its stable rowid, used by
	// cache/index cursors to answer xRowid. Writable tables must
	// supply this; read-only tables may leave it nil (the cursor
	// position is used as a synthetic rowid).
	RowID func(row Row) int64
}

// ColumnIndex returns the declaration-order index of name, or -1.
func (t *TableSpec) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
