package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatementsBasic(t *testing.T) {
	stmts := SplitStatements("SELECT 1; SELECT 2;")
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, stmts)
}

func TestSplitStatementsIgnoresSemicolonsInStrings(t *testing.T) {
	stmts := SplitStatements(`INSERT INTO t VALUES ('a;b', 'it''s; here'); SELECT 1;`)
	assert.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "a;b")
	assert.Contains(t, stmts[0], "it''s; here")
}

func TestSplitStatementsIgnoresComments(t *testing.T) {
	stmts := SplitStatements("-- a comment; with semicolon\nSELECT 1; /* block; comment */ SELECT 2;")
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, stmts)
}

func TestSplitStatementsNoTrailingSemicolon(t *testing.T) {
	stmts := SplitStatements("SELECT 1; SELECT 2")
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, stmts)
}

func TestSplitStatementsEmptyInput(t *testing.T) {
	assert.Empty(t, SplitStatements(""))
	assert.Empty(t, SplitStatements("   ;  ; "))
}
