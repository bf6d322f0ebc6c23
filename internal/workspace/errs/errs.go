// Package errs defines the error taxonomy shared by every component
// that talks to the analysis workspace (spec §7). It is a closed set
// of seven kinds; callers use errors.Is against the exported sentinels
// and errors.As against *Error to recover Op/Kind for logging.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the seven error categories the engine distinguishes.
type Kind int

const (
	// InvalidArgument: malformed SQL argument value (bad pattern, bad
	// ea, out-of-range slot, unknown enum literal).
	InvalidArgument Kind = iota
	// NotFound: address has no function/name/comment/etc. In scalar
	// context this should surface as SQL NULL, not an error.
	NotFound
	// Unsupported: operation unavailable (decompiler absent, TVF
	// called without a required argument).
	Unsupported
	// ConstraintRequired: statement would force a prohibited full scan.
	ConstraintRequired
	// WorkspaceError: the underlying workspace rejected a mutation.
	WorkspaceError
	// Interrupted: cancellation during a long operation.
	Interrupted
	// Internal: programmer error, e.g. a cursor invariant broken.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case Unsupported:
		return "unsupported"
	case ConstraintRequired:
		return "constraint_required"
	case WorkspaceError:
		return "workspace_error"
	case Interrupted:
		return "interrupted"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by workspace and engine
// operations. Op names the failing operation ("funcs.insert",
// "pseudocode.filter", ...) for diagnostics.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op/kind, optionally wrapping cause.
func New(op string, kind Kind, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Newf builds an *Error with a formatted cause message.
func Newf(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind of err, defaulting to Internal if err does
// not wrap an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
