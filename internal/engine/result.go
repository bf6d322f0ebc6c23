package engine

import "fmt"

// Result is the uniform shape every query/execute call returns (spec
// §4.E "query(sql) -> result where result carries {success, error,
// columns[], rows[]}, plus convenience accessors scalar, row_count,
// iteration").
type Result struct {
	Success bool
	Error   string
	Columns []string
	Rows    [][]any
}

// RowCount reports how many rows the result carries.
func (r *Result) RowCount() int { return len(r.Rows) }

// Scalar returns the first column of the first row as text, or "" if
// the result is empty or failed (spec §4.E "scalar(sql) -> text").
func (r *Result) Scalar() string {
	if !r.Success || len(r.Rows) == 0 || len(r.Rows[0]) == 0 {
		return ""
	}
	return fmt.Sprint(r.Rows[0][0])
}

// Iterate calls fn for every row until fn returns false or the rows
// are exhausted.
func (r *Result) Iterate(fn func(row []any) bool) {
	for _, row := range r.Rows {
		if !fn(row) {
			return
		}
	}
}

func errorResult(op string, err error) *Result {
	return &Result{Success: false, Error: fmt.Sprintf("%s: %v", op, err)}
}
