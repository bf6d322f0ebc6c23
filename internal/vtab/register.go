package vtab

import "github.com/mattn/go-sqlite3"

// RegisterAll registers every spec as a virtual table module on conn,
// stopping at the first failure. Called from the engine's ConnectHook
// once per new connection (spec §4.E "install virtual-table modules").
func RegisterAll(conn *sqlite3.SQLiteConn, specs []*TableSpec) error {
	for _, spec := range specs {
		if err := Register(conn, spec); err != nil {
			return err
		}
	}
	return nil
}
