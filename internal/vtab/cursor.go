package vtab

import (
	"context"

	"github.com/mattn/go-sqlite3"

	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// --- ShapeIndex cursor: Count()/AtIndex(i), forward-only, restartable. ---

type indexCursor struct {
	spec *TableSpec
	i    int
	n    int
	row  Row
}

func (c *indexCursor) Filter(idxNum int, idxStr string, vals []interface{}) error {
	n, err := c.spec.Count(context.Background())
	if err != nil {
		return translateErr("index.Filter", err)
	}
	c.n = n
	c.i = 0
	return c.load()
}

func (c *indexCursor) load() error {
	if c.i >= c.n {
		c.row = nil
		return nil
	}
	row, err := c.spec.AtIndex(context.Background(), c.i)
	if err != nil {
		return translateErr("index.load", err)
	}
	c.row = row
	return nil
}

func (c *indexCursor) Next() error {
	c.i++
	return c.load()
}

func (c *indexCursor) EOF() bool { return c.i >= c.n }

func (c *indexCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	return resultValue(ctx, c.row, col)
}

func (c *indexCursor) Rowid() (int64, error) {
	if c.spec.RowID != nil {
		return c.spec.RowID(c.row), nil
	}
	return int64(c.i), nil
}

func (c *indexCursor) Close() error { return nil }

// --- ShapeCache cursor: Scan() fills a vector of rows once, cursor
// walks an index into it. Freed on Close. ---

type cacheCursor struct {
	spec *TableSpec
	rows []Row
	i    int
}

func (c *cacheCursor) Filter(idxNum int, idxStr string, vals []interface{}) error {
	cols, ops, err := DecodeIdxStr(idxStr)
	if err != nil {
		return translateErr("cache.Filter", err)
	}
	limit, offset := ExtractLimitOffset(cols, ops, vals)
	args := FilterArgs{Ctx: context.Background(), Values: BuildFilterValues(cols, vals), Limit: limit, Offset: offset}

	if requiresConstraint(c.spec) && missingRequiredValue(c.spec, args.Values) {
		return errs.Newf("cache.Filter", errs.ConstraintRequired,
			"%s requires a constraint on its pushdown column(s); unconstrained scan is disabled by policy", c.spec.Name)
	}

	rows, err := c.spec.Scan(args)
	if err != nil {
		return translateErr("cache.Filter", err)
	}
	c.rows = rows
	c.i = 0
	return nil
}

func requiresConstraint(spec *TableSpec) bool {
	for _, col := range spec.Columns {
		if col.Required {
			return true
		}
	}
	return false
}

func missingRequiredValue(spec *TableSpec, values map[int]any) bool {
	for i, col := range spec.Columns {
		if col.Required {
			if _, ok := values[i]; !ok {
				return true
			}
		}
	}
	return false
}

func (c *cacheCursor) Next() error {
	c.i++
	return nil
}

func (c *cacheCursor) EOF() bool { return c.i >= len(c.rows) }

func (c *cacheCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	return resultValue(ctx, c.rows[c.i], col)
}

func (c *cacheCursor) Rowid() (int64, error) {
	row := c.rows[c.i]
	if c.spec.RowID != nil {
		return c.spec.RowID(row), nil
	}
	return int64(c.i), nil
}

func (c *cacheCursor) Close() error {
	c.rows = nil // drop the materialized vector (spec §5 "owned by its cursor and freed on cursor close")
	return nil
}

// --- ShapeTVF cursor: wraps a RowIterator built from the constant
// hidden-column arguments, advancing sources lazily. Any LIMIT/OFFSET
// the planner pushed down reaches TVFIterate through FilterArgs, so
// the source can stop iterating early. ---

type tvfCursor struct {
	spec *TableSpec
	iter RowIterator
	row  Row
	eof  bool
}

func (c *tvfCursor) Filter(idxNum int, idxStr string, vals []interface{}) error {
	cols, ops, err := DecodeIdxStr(idxStr)
	if err != nil {
		return translateErr("tvf.Filter", err)
	}
	limit, offset := ExtractLimitOffset(cols, ops, vals)
	args := FilterArgs{Ctx: context.Background(), Values: BuildFilterValues(cols, vals), Limit: limit, Offset: offset}

	for i, col := range c.spec.Columns {
		if col.Hidden {
			if _, ok := args.Values[i]; !ok {
				return errs.Newf("tvf.Filter", errs.Unsupported, "%s: missing required argument %q", c.spec.Name, col.Name)
			}
		}
	}

	if c.iter != nil {
		c.iter.Close()
	}
	iter, err := c.spec.TVFIterate(args)
	if err != nil {
		return translateErr("tvf.Filter", err)
	}
	c.iter = iter
	return c.advance()
}

func (c *tvfCursor) advance() error {
	row, ok, err := c.iter.Next()
	if err != nil {
		return translateErr("tvf.Next", err)
	}
	c.row, c.eof = row, !ok
	return nil
}

func (c *tvfCursor) Next() error { return c.advance() }

func (c *tvfCursor) EOF() bool { return c.eof }

func (c *tvfCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	return resultValue(ctx, c.row, col)
}

func (c *tvfCursor) Rowid() (int64, error) {
	if c.spec.RowID != nil {
		return c.spec.RowID(c.row), nil
	}
	return 0, nil
}

func (c *tvfCursor) Close() error {
	if c.iter != nil {
		return c.iter.Close()
	}
	return nil
}

// resultValue performs column type coercion (spec §4.B): integers fit
// signed 64, addresses are int64, text is UTF-8 with NULs escaped by
// the table layer before reaching here, NULL means "absent attribute".
func resultValue(ctx *sqlite3.SQLiteContext, row Row, col int) error {
	if row == nil || col < 0 || col >= len(row) {
		ctx.ResultNull()
		return nil
	}
	switch v := row[col].(type) {
	case nil:
		ctx.ResultNull()
	case int:
		ctx.ResultInt64(int64(v))
	case int64:
		ctx.ResultInt64(v)
	case uint64:
		ctx.ResultInt64(int64(v))
	case bool:
		if v {
			ctx.ResultInt(1)
		} else {
			ctx.ResultInt(0)
		}
	case float64:
		ctx.ResultDouble(v)
	case string:
		ctx.ResultText(v)
	case []byte:
		ctx.ResultBlob(v)
	default:
		return errs.Newf("resultValue", errs.Internal, "unsupported column value type %T", v)
	}
	return nil
}
