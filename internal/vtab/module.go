package vtab

import (
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// Register installs spec as a SQLite virtual table module on conn,
// under spec.Name. Called once per connection from the ConnectHook
// installed by engine.Open (spec §4.E "install virtual-table
// modules").
func Register(conn *sqlite3.SQLiteConn, spec *TableSpec) error {
	return conn.CreateModule(spec.Name, &module{spec: spec})
}

// module adapts one TableSpec to sqlite3.Module. It is stateless:
// Create/Connect both just echo the declared schema back, since the
// table's "storage" lives in the workspace, not in the module.
type module struct {
	spec *TableSpec
}

func (m *module) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Connect(c, args)
}

func (m *module) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if err := c.DeclareVTab(createTableSQL(m.spec)); err != nil {
		return nil, err
	}
	return &vtabInstance{spec: m.spec}, nil
}

// createTableSQL renders the CREATE TABLE DeclareVTab needs to learn
// the virtual table's shape, including HIDDEN columns for TVF
// constant arguments (spec §4.D jump_entities, §4.B TVF shape).
func createTableSQL(spec *TableSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, `CREATE TABLE "%s" (`, spec.Name)
	for i, col := range spec.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `"%s" %s`, col.Name, col.SQLType)
		if col.Hidden {
			b.WriteString(" HIDDEN")
		}
	}
	b.WriteString(")")
	return b.String()
}

// vtabInstance implements sqlite3.VTab and, when spec.Mutate != nil,
// sqlite3.VTabUpdater.
type vtabInstance struct {
	spec *TableSpec
}

func (v *vtabInstance) BestIndex(csts []sqlite3.InfoConstraint, obs []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	ourCsts := make([]Constraint, len(csts))
	for i, c := range csts {
		ourCsts[i] = Constraint{Column: c.Column, Op: opFromSQLite(c.Op), Usable: c.Usable}
	}
	ourObs := make([]OrderBy, len(obs))
	for i, o := range obs {
		ourObs[i] = OrderBy{Column: o.Column, Desc: o.Desc}
	}

	plan := BuildPlan(v.spec, ourCsts, ourObs, v.spec.EstimatedRows)
	return &sqlite3.IndexResult{
		Used:           plan.Used,
		IdxNum:         0,
		IdxStr:         plan.IdxStr,
		AlreadyOrdered: false,
		EstimatedCost:  plan.EstimatedCost,
		EstimatedRows:  plan.EstimatedRows,
	}, nil
}

func (v *vtabInstance) Disconnect() error { return nil }
func (v *vtabInstance) Destroy() error    { return nil }

func (v *vtabInstance) Open() (sqlite3.VTabCursor, error) {
	switch v.spec.Shape {
	case ShapeIndex:
		return &indexCursor{spec: v.spec}, nil
	case ShapeCache:
		return &cacheCursor{spec: v.spec}, nil
	case ShapeTVF:
		return &tvfCursor{spec: v.spec}, nil
	default:
		return nil, errs.Newf("vtab.Open", errs.Internal, "unknown shape for table %s", v.spec.Name)
	}
}

// Update implements sqlite3.VTabUpdater, translating SQLite's argv
// convention into a vtab.Mutation (spec §4.B "Writable tables").
func (v *vtabInstance) Update(argv []interface{}) (int64, error) {
	if v.spec.Mutate == nil {
		return 0, errs.Newf("vtab.Update", errs.Unsupported, "table %s is read-only", v.spec.Name)
	}
	m, err := decodeMutation(v.spec, argv)
	if err != nil {
		return 0, err
	}
	rowid, err := v.spec.Mutate(m)
	if err != nil {
		return 0, translateErr("vtab.Update", err)
	}
	return rowid, nil
}

// opFromSQLite maps the raw SQLITE_INDEX_CONSTRAINT_* byte values
// (mattn/go-sqlite3 passes these through unmodified from the C layer)
// onto our own Op enum (spec §4.B: "=", ">", "<", "IN", plus SQLite's
// LIMIT/OFFSET vtab pushdown constraints).
func opFromSQLite(op byte) Op {
	switch op {
	case 2: // SQLITE_INDEX_CONSTRAINT_EQ
		return OpEQ
	case 4: // SQLITE_INDEX_CONSTRAINT_GT
		return OpGT
	case 16: // SQLITE_INDEX_CONSTRAINT_LT
		return OpLT
	case 73: // SQLITE_INDEX_CONSTRAINT_LIMIT
		return OpLimit
	case 74: // SQLITE_INDEX_CONSTRAINT_OFFSET
		return OpOffset
	default:
		// GE/LE and friends collapse onto GT/LT for pushdown-eligibility
		// purposes; exact comparison semantics are the table callback's
		// job, not the framework's.
		switch {
		case op == 32: // GE
			return OpGT
		case op == 8: // LE
			return OpLT
		default:
			return Op(-1) // never matches a declared Pushdown set
		}
	}
}

func translateErr(op string, err error) error {
	if errs.KindOf(err) != errs.Internal {
		return err
	}
	return errs.New(op, errs.WorkspaceError, err)
}
