// Package export is the export/script-runner component spec §4.H
// describes: splitting a SQL script into individual statements, and
// dumping the non-virtual table catalog as portable SQL text. Grounded
// on the teacher's statement splitter (database/parser.go splitDDLs)
// and its DDL dumper (database/sqlite3/database.go DumpDDLs), adapted
// from "schema DDL only" to "schema plus data, quote-aware".
package export

import "strings"

// SplitStatements splits script into individual statements, each
// trimmed of surrounding whitespace and its terminating semicolon
// (spec §4.H "splits it into statements using the SQL engine's
// 'statement complete' primitive; accumulates until a complete
// statement is seen"). Unlike the teacher's splitDDLs, which retries
// parsing a captive SQL grammar to find statement boundaries, idasql
// has no grammar of its own — SQLite is the only parser in the
// system, reached only through database/sql — so boundaries are found
// by tracking quote and comment state directly: a ';' only terminates
// a statement when it appears outside a string/identifier literal and
// outside a comment.
func SplitStatements(script string) []string {
	var stmts []string
	var buf strings.Builder
	runes := []rune(script)
	n := len(runes)

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			stmts = append(stmts, s)
		}
		buf.Reset()
	}

	for i := 0; i < n; i++ {
		c := runes[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			quote := c
			buf.WriteRune(c)
			i++
			for i < n {
				buf.WriteRune(runes[i])
				if runes[i] == quote {
					if i+1 < n && runes[i+1] == quote {
						i++
						buf.WriteRune(runes[i])
						i++
						continue
					}
					break
				}
				i++
			}
		case c == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++
		case c == ';':
			flush()
		default:
			buf.WriteRune(c)
		}
	}
	flush()
	return stmts
}
