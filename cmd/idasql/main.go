// Command idasql is the thin CLI driver spec §6 describes: it resolves
// flags to engine.Session calls and nothing else — no REPL line-
// editing or history, no natural-language agent logic (spec §1 keeps
// those out of scope). Grounded on the teacher's cmd/sqlite3def/
// sqlite3def.go: a jessevdk/go-flags parser, a database handle opened
// from the resolved options, one dispatch on the requested mode.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/allthingsida/idasql/internal/config"
	"github.com/allthingsida/idasql/internal/engine"
	"github.com/allthingsida/idasql/internal/export"
	"github.com/allthingsida/idasql/internal/logging"
	"github.com/allthingsida/idasql/internal/policy"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/memstub"
)

var version = "dev"

type options struct {
	Database     string `long:"db" short:"s" value-name:"file" description:"Workspace snapshot file (JSON fixture; a live analysis-host binding is out of scope of this engine)"`
	Query        string `long:"query" short:"e" description:"Execute a single SQL query"`
	File         string `long:"file" short:"f" description:"Execute SQL statements from a file"`
	Interactive  bool   `long:"interactive" short:"i" description:"Read and run one statement per line from stdin"`
	Export       string `long:"export" optional:"yes" optional-value:"-" value-name:"file" description:"Dump the table catalog as SQL (default: stdout)"`
	ExportTables string `long:"export-tables" value-name:"t1,t2,..." description:"Restrict --export to these tables (default: all non-virtual tables)"`
	Config       string `long:"config" value-name:"file" description:"YAML config file"`
	Version      bool   `long:"version" description:"Show version and exit"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run contains everything main defers to testability; it never calls
// os.Exit itself. Per spec §6 "Exit codes": nonzero means an uncaught
// host-level error (bad flags, unreadable file); a failed SQL query is
// printed as part of normal output and still exits 0.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[options]"
	if _, err := parser.ParseArgs(args); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}
	if opts.Version {
		fmt.Fprintln(stdout, version)
		return 0
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	if cfg.LogLevel != "" && os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}
	logging.Init()

	adapter, err := openAdapter(cfg.Database)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	settings := policy.Default()
	if cfg.Cache != nil {
		settings.Cache = *cfg.Cache
	}
	if cfg.Undo != nil {
		settings.Undo = *cfg.Undo
	}
	if cfg.Batch != nil {
		settings.Batch = *cfg.Batch
	}

	sess, err := engine.OpenWithSettings(adapter, settings)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer sess.Close()

	ctx := context.Background()

	switch {
	case opts.Export != "":
		return runExport(sess, ctx, opts, cfg, stdout, stderr)
	case opts.Query != "":
		printResult(stdout, sess.Query(ctx, opts.Query))
		return 0
	case opts.File != "":
		return runFile(sess, ctx, opts.File, stdout, stderr)
	case opts.Interactive:
		return runInteractive(sess, ctx, stdin, stdout)
	default:
		parser.WriteHelp(stderr)
		return 1
	}
}

// openAdapter loads the JSON workspace snapshot at path, or an empty
// in-memory workspace when path is empty (spec §1's real-workspace
// binding is external; memstub is the only Adapter this repo ships).
func openAdapter(path string) (workspace.Adapter, error) {
	if path == "" {
		return memstub.New(), nil
	}
	return memstub.LoadSnapshot(path)
}

func runExport(sess *engine.Session, ctx context.Context, opts options, cfg config.Config, stdout, stderr io.Writer) int {
	tables := cfg.ExportTables
	if opts.ExportTables != "" {
		tables = strings.Split(opts.ExportTables, ",")
	}
	out, err := export.Dump(ctx, sess.Handle(), tables)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	dest := opts.Export
	if dest == "-" && cfg.ExportPath != "" {
		dest = cfg.ExportPath
	}
	if dest == "-" {
		fmt.Fprint(stdout, out)
		return 0
	}
	if err := os.WriteFile(dest, []byte(out), 0o644); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func runFile(sess *engine.Session, ctx context.Context, path string, stdout, stderr io.Writer) int {
	buf, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	for _, stmt := range export.SplitStatements(string(buf)) {
		printResult(stdout, sess.Query(ctx, stmt))
	}
	return 0
}

func runInteractive(sess *engine.Session, ctx context.Context, stdin io.Reader, stdout io.Writer) int {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		printResult(stdout, sess.Query(ctx, line))
	}
	return 0
}

// printResult renders a Result as a minimal tab-separated table (a
// header line of column names, then one line per row), or
// its error line (spec §6 "a SQL error that was surfaced as a result
// row" still just prints and moves on).
func printResult(stdout io.Writer, r *engine.Result) {
	if !r.Success {
		fmt.Fprintf(stdout, "-- error: %s\n", r.Error)
		return
	}
	if len(r.Columns) > 0 {
		fmt.Fprintln(stdout, strings.Join(r.Columns, "\t"))
	}
	r.Iterate(func(row []any) bool {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(stdout, strings.Join(cells, "\t"))
		return true
	})
}
