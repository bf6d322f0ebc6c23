package export

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDumpEmitsDropCreateInsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE bookmarks(id INTEGER PRIMARY KEY, ea INTEGER NOT NULL, label TEXT, data BLOB)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO bookmarks(id, ea, label, data) VALUES (1, 4096, 'it''s here', X'CAFE')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO bookmarks(id, ea, label, data) VALUES (2, 8192, NULL, NULL)`)
	require.NoError(t, err)

	out, err := Dump(ctx, db, []string{"bookmarks"})
	require.NoError(t, err)

	assert.Contains(t, out, `DROP TABLE IF EXISTS "bookmarks";`)
	assert.Contains(t, out, `CREATE TABLE "bookmarks"(`)
	assert.Contains(t, out, `"id" INTEGER`)
	assert.Contains(t, out, `PRIMARY KEY`)
	assert.Contains(t, out, `INSERT INTO "bookmarks" VALUES (1, 4096, 'it''s here', X'CAFE');`)
	assert.Contains(t, out, `INSERT INTO "bookmarks" VALUES (2, 8192, NULL, NULL);`)
}

func TestDumpDiscoversNonVirtualTablesWhenUnspecified(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE notes(id INTEGER PRIMARY KEY, body TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO notes(id, body) VALUES (1, 'hello')`)
	require.NoError(t, err)

	out, err := Dump(ctx, db, nil)
	require.NoError(t, err)
	assert.Contains(t, out, `"notes"`)
	assert.Contains(t, out, `'hello'`)
}

func TestQuoteIdentDoublesQuotes(t *testing.T) {
	assert.Equal(t, `"weird""name"`, quoteIdent(`weird"name`))
}

func TestFormatLiteral(t *testing.T) {
	assert.Equal(t, "NULL", formatLiteral(nil))
	assert.Equal(t, "42", formatLiteral(int64(42)))
	assert.Equal(t, "'a''b'", formatLiteral("a'b"))
	assert.Equal(t, "X'CAFE'", formatLiteral([]byte{0xCA, 0xFE}))
}
