package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSnapshot = `{
	"functions": [{"EA": 4194304, "Name": "main", "EndEA": 4194320}],
	"names": [{"EA": 4194320, "Name": "helper"}]
}`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunQuerySingleStatement(t *testing.T) {
	dbPath := writeTempFile(t, "snap.json", testSnapshot)
	var stdout, stderr strings.Builder

	code := run([]string{"--db", dbPath, "--query", "SELECT name FROM funcs"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "main")
	assert.Empty(t, stderr.String())
}

func TestRunQueryFailureStillExitsZero(t *testing.T) {
	var stdout, stderr strings.Builder
	code := run([]string{"--query", "SELECT * FROM nonexistent"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "-- error:")
}

func TestRunBadFlagExitsNonzero(t *testing.T) {
	var stdout, stderr strings.Builder
	code := run([]string{"--not-a-real-flag"}, strings.NewReader(""), &stdout, &stderr)
	assert.NotEqual(t, 0, code)
}

func TestRunMissingSnapshotFileExitsNonzero(t *testing.T) {
	var stdout, stderr strings.Builder
	code := run([]string{"--db", "/nonexistent/path.json", "--query", "SELECT 1"}, strings.NewReader(""), &stdout, &stderr)
	assert.NotEqual(t, 0, code)
	assert.NotEmpty(t, stderr.String())
}

func TestRunFileExecutesEachStatement(t *testing.T) {
	sqlPath := writeTempFile(t, "script.sql", "SELECT 1; SELECT 2;")
	var stdout, stderr strings.Builder

	code := run([]string{"--file", sqlPath}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	assert.Len(t, lines, 4) // a header line and a row line per statement
}

func TestRunInteractiveReadsStdinLineByLine(t *testing.T) {
	var stdout, stderr strings.Builder
	stdin := strings.NewReader("SELECT 1\nSELECT 2\n")

	code := run([]string{"--interactive"}, stdin, &stdout, &stderr)
	assert.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestRunExportToStdout(t *testing.T) {
	var stdout, stderr strings.Builder
	code := run([]string{"--export"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
}

func TestRunExportToFile(t *testing.T) {
	dbPath := writeTempFile(t, "snap.json", testSnapshot)
	outPath := filepath.Join(t.TempDir(), "out.sql")
	var stdout, stderr strings.Builder

	code := run([]string{"--db", dbPath, "--export", outPath}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 0, code)

	_, err := os.Stat(outPath)
	assert.NoError(t, err)
}

func TestRunVersionFlag(t *testing.T) {
	var stdout, stderr strings.Builder
	code := run([]string{"--version"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), version)
}
