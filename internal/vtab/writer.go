package vtab

import "github.com/allthingsida/idasql/internal/workspace/errs"

// decodeMutation translates SQLite's xUpdate argv convention (as
// delivered to sqlite3.VTabUpdater.Update) into a normalized Mutation:
//
//   - len(argv) == 1                      -> DELETE, argv[0] is the rowid.
//   - len(argv)  > 1 && argv[0] == nil     -> INSERT; argv[1] is the
//     caller-supplied rowid (nil means "assign one"), argv[2:] are the
//     new column values in declaration order.
//   - otherwise                            -> UPDATE; argv[0] is the old
//     rowid, argv[1] the new rowid (equal to argv[0] unless the
//     statement also reassigns rowid), argv[2:] are the new values.
func decodeMutation(spec *TableSpec, argv []interface{}) (Mutation, error) {
	switch {
	case len(argv) == 1:
		rowid, ok := toInt64(argv[0])
		if !ok {
			return Mutation{}, errs.Newf("vtab.decodeMutation", errs.InvalidArgument, "delete: non-integer rowid %v", argv[0])
		}
		return Mutation{Kind: MutationDelete, OldRowID: rowid}, nil

	case argv[0] == nil:
		values, err := columnValues(spec, argv[2:])
		if err != nil {
			return Mutation{}, err
		}
		m := Mutation{Kind: MutationInsert, Values: values}
		if argv[1] != nil {
			if rowid, ok := toInt64(argv[1]); ok {
				m.NewRowID = &rowid
			}
		}
		return m, nil

	default:
		oldRowid, ok := toInt64(argv[0])
		if !ok {
			return Mutation{}, errs.Newf("vtab.decodeMutation", errs.InvalidArgument, "update: non-integer old rowid %v", argv[0])
		}
		values, err := columnValues(spec, argv[2:])
		if err != nil {
			return Mutation{}, err
		}
		return Mutation{Kind: MutationUpdate, OldRowID: oldRowid, Values: values}, nil
	}
}

// columnValues zips a trailing argv slice (one entry per declared
// column, in order) into a column-index-keyed map, dropping SQL NULLs
// so a TableSpec.Mutate implementation can distinguish "omitted,
// default applies" (spec §4.B INSERT: "new row with defaults for
// omitted columns") from "explicitly set to empty".
func columnValues(spec *TableSpec, raw []interface{}) (map[int]any, error) {
	if len(raw) != len(spec.Columns) {
		return nil, errs.Newf("vtab.columnValues", errs.Internal,
			"%s: expected %d column values, got %d", spec.Name, len(spec.Columns), len(raw))
	}
	values := make(map[int]any, len(raw))
	for i, v := range raw {
		if v != nil {
			values[i] = v
		}
	}
	return values, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}
