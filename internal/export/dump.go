package export

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// columnInfo mirrors one row of `PRAGMA table_info(table)`.
type columnInfo struct {
	name       string
	sqlType    string
	notNull    bool
	defaultVal sql.NullString
	pk         int
}

// Dump renders tables (or, if empty, every non-virtual table in db's
// catalog) as portable SQL text: DROP TABLE IF EXISTS, CREATE TABLE
// reconstructed from table_info, and INSERT ... VALUES for every row
// (spec §4.H, §6 "Export format"). Tables are emitted in the order
// given, or catalog order when discovered automatically.
func Dump(ctx context.Context, db *sql.DB, tables []string) (string, error) {
	names := tables
	if len(names) == 0 {
		var err error
		names, err = nonVirtualTableNames(ctx, db)
		if err != nil {
			return "", err
		}
	}

	var buf strings.Builder
	for _, name := range names {
		if err := dumpTable(ctx, db, name, &buf); err != nil {
			return "", fmt.Errorf("export: dump %q: %w", name, err)
		}
	}
	return buf.String(), nil
}

func nonVirtualTableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		  AND sql NOT LIKE 'CREATE VIRTUAL TABLE%'
		ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func tableInfo(ctx context.Context, db *sql.DB, table string) ([]columnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []columnInfo
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, sqlType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &sqlType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, columnInfo{name: name, sqlType: sqlType, notNull: notNull != 0, defaultVal: dflt, pk: pk})
	}
	return cols, rows.Err()
}

func dumpTable(ctx context.Context, db *sql.DB, table string, buf *strings.Builder) error {
	cols, err := tableInfo(ctx, db, table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("no columns (table not found?)")
	}

	fmt.Fprintf(buf, "DROP TABLE IF EXISTS %s;\n", quoteIdent(table))
	fmt.Fprintf(buf, "CREATE TABLE %s(%s);\n", quoteIdent(table), createTableColumns(cols))

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", quoteIdent(table)))
	if err != nil {
		return err
	}
	defer rows.Close()

	n := len(cols)
	for rows.Next() {
		vals := make([]any, n)
		ptrs := make([]any, n)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		lits := make([]string, n)
		for i, v := range vals {
			lits[i] = formatLiteral(v)
		}
		fmt.Fprintf(buf, "INSERT INTO %s VALUES (%s);\n", quoteIdent(table), strings.Join(lits, ", "))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	buf.WriteString("\n")
	return nil
}

func createTableColumns(cols []columnInfo) string {
	var pkCols []string
	defs := make([]string, len(cols))
	singlePK := countPK(cols) == 1

	for i, c := range cols {
		def := quoteIdent(c.name) + " " + c.sqlType
		if c.notNull {
			def += " NOT NULL"
		}
		if c.defaultVal.Valid {
			def += " DEFAULT " + c.defaultVal.String
		}
		if c.pk > 0 {
			pkCols = append(pkCols, quoteIdent(c.name))
			if singlePK {
				def += " PRIMARY KEY"
			}
		}
		defs[i] = def
	}
	if !singlePK && len(pkCols) > 0 {
		defs = append(defs, "PRIMARY KEY("+strings.Join(pkCols, ", ")+")")
	}
	return strings.Join(defs, ", ")
}

func countPK(cols []columnInfo) int {
	n := 0
	for _, c := range cols {
		if c.pk > 0 {
			n++
		}
	}
	return n
}

// quoteIdent double-quotes name per spec §6 ("Identifiers are
// double-quoted with '\"' doubled").
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// formatLiteral renders v per spec §4.H/§6: NULL -> NULL, integer/
// float -> decimal, text -> single-quoted with ' doubled, BLOB ->
// uppercase X'HH...' hex.
func formatLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(t)) + "'"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(t), "'", "''") + "'"
	}
}
