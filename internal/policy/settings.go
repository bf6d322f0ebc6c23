// Package policy holds the per-session knobs spec §4.G describes:
// caching, undo, and batch mode. It is deliberately a plain mutable
// struct plus setters, grounded on the teacher's GeneratorConfig/
// Config shape (database/database.go) rather than anything more
// elaborate — there are only three knobs, each boolean.
package policy

import "sync"

// Settings are per-session; they are mutated only from the workspace
// thread (spec §5 "Policy/settings are per-session and mutated only
// from the workspace thread").
type Settings struct {
	mu sync.Mutex

	// Cache: when false, every decompile call (decompile() and the
	// pseudocode/ctree* tables) passes force=true, so no earlier
	// decompilation is reused. ShapeCache tables still materialize a
	// vector of rows on xFilter whatever this is set to.
	Cache bool
	// Undo: when false, mutating virtual-table calls skip opening an
	// undo handle; used for batch loads.
	Undo bool
	// Batch: when true, all mutations in the current statement
	// coalesce into a single undo handle instead of one per row.
	Batch bool

	// AllowUnconstrainedDecompile is a test-only escape hatch (see
	// DESIGN.md Open Question decisions) letting the in-process test
	// harness run `pseudocode`/`ctree*` without a func_addr constraint.
	// It is never reachable through config(key,value).
	AllowUnconstrainedDecompile bool
}

// Default returns the engine's default policy: caching on, undo on,
// batch off.
func Default() *Settings {
	return &Settings{Cache: true, Undo: true, Batch: false}
}

// Set applies one config(key,value) call (spec §4.G). Unknown values
// are rejected by the caller (sqlfuncs.config) before reaching here;
// Set flips the matching bool and returns false for an unknown key.
func (s *Settings) Set(key string, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case "cache":
		s.Cache = on
	case "undo":
		s.Undo = on
	case "batch":
		s.Batch = on
	default:
		return false
	}
	return true
}

// Get reads back the three session-visible knobs by name.
func (s *Settings) Get(key string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case "cache":
		return s.Cache, true
	case "undo":
		return s.Undo, true
	case "batch":
		return s.Batch, true
	default:
		return false, false
	}
}

// UndoEnabled is a convenience snapshot read used by internal/tables
// before opening an undo handle around a mutation.
func (s *Settings) UndoEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Undo
}

// CacheEnabled is a convenience snapshot read used by the decompile
// call sites (sqlfuncs' effectiveForce, tables' requireFuncAddr).
func (s *Settings) CacheEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Cache
}

// BatchEnabled reports whether mutations in the current statement
// should coalesce into a single undo handle.
func (s *Settings) BatchEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Batch
}
