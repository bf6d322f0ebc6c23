// Package workspace defines the capability interface the rest of the
// engine consumes to reach the analysis workspace (spec §4.A). It owns
// no entity storage itself; every method call crosses into whatever
// concrete analysis host (or, in tests, memstub.Adapter) implements it.
package workspace

import "context"

// SearchPattern is a parsed byte-pattern query: hex bytes with
// "?"/"??" = any byte, "( a b c )" = alternative byte set. No nibble
// wildcards, no regex (spec §4.A).
type SearchPattern struct {
	Raw string
}

// AddrRange optionally bounds a scan; nil means unbounded.
type AddrRange struct {
	Start EA
	End   EA
}

// UndoHandle is an opaque marker returned by OpenUndo and passed back
// to CloseUndo. Labels bubble up through the virtual-table layer
// (spec §4.A).
type UndoHandle struct {
	ID    string
	Label string
}

// There is no stop-iteration error: a ForEach callback stops the walk
// early by returning false; see ForEach's doc comment.

// Adapter is the full capability surface a concrete analysis host
// supplies. All operations are synchronous and single-threaded: no
// method is ever re-entered concurrently, and every call must be made
// from the single workspace thread (spec §5).
type Adapter interface {
	// --- Enumerate by index: O(1) random access where supported. ---
	Qty(kind Kind) int
	AtIndex(kind Kind, i int) (any, error)

	// --- Enumerate by traversal. ---
	// ForEach calls fn for every entity of kind in native order. If fn
	// returns false, iteration stops early.
	ForEach(kind Kind, fn func(entity any) bool) error

	// --- Address -> object. ---
	FuncContaining(ea EA) (*Function, error)
	SegmentContaining(ea EA) (*Segment, error)
	NameAt(ea EA) (*Name, error)
	CommentAt(ea EA, repeatable bool) (*Comment, error)
	ItemType(ea EA) (string, error)
	ItemSize(ea EA) (int, error)
	IsCode(ea EA) (bool, error)
	IsData(ea EA) (bool, error)

	// --- Decode / disassemble. ---
	DecodeInstruction(ea EA) (*DecodedInsn, error)
	DisassembleLine(ea EA) (string, error)
	Bytes(ea EA, n int) ([]byte, error)
	NextHead(ea EA) (EA, error)
	PrevHead(ea EA) (EA, error)

	// BasicBlocks returns the control-flow graph's blocks for the
	// function starting at funcEA, in start_ea order (spec §4.B
	// pushdown contract: "blocks.func_ea = : build one function's
	// basic-block graph only").
	BasicBlocks(ctx context.Context, funcEA EA) ([]BasicBlock, error)

	// --- Search. ---
	// SearchBytes returns matching addresses within rng (or the whole
	// address space if rng is nil), calling fn per match; fn returning
	// false stops the scan early (used to implement LIMIT pushdown and
	// search_first).
	SearchBytes(ctx context.Context, pattern SearchPattern, rng *AddrRange, fn func(ea EA) bool) error

	// --- Decompile. ---
	Decompile(ctx context.Context, ea EA, force bool) (*Decompiled, error)
	SetLvarName(ea EA, idx int, name string) error
	SetLvarType(ea EA, idx int, typ string) error
	SetPseudoComment(ea EA, anchor EA, text string, placement CommentPlacement) error

	// --- Mutate: names / comments. ---
	SetName(ea EA, name string) error
	DeleteName(ea EA) error
	SetComment(ea EA, text string, repeatable bool) error
	DeleteComment(ea EA, repeatable bool) error

	// --- Mutate: functions. ---
	CreateFunction(ea EA, endEA *EA, name *string) (*Function, error)
	DeleteFunction(ea EA) error
	RenameFunction(ea EA, name string) error
	SetFunctionFlags(ea EA, flags uint32) error

	// --- Mutate: instructions. ---
	DeleteInstruction(ea EA) error // converts the address to unexplored bytes

	// --- Mutate: segments. ---
	SetSegmentName(startEA EA, name string) error
	SetSegmentClass(startEA EA, class string) error
	SetSegmentPerm(startEA EA, perm int) error
	DeleteSegment(startEA EA) error

	// --- Mutate: bookmarks. ---
	CreateBookmark(slot *int, ea EA, description string) (*Bookmark, error)
	SetBookmarkDescription(slot int, description string) error
	DeleteBookmark(slot int) error

	// --- Mutate: breakpoints. ---
	CreateBreakpoint(bp Breakpoint) (*Breakpoint, error)
	UpdateBreakpoint(bp Breakpoint) error
	DeleteBreakpoint(bptID int64) error

	// --- Mutate: types. ---
	CreateType(t TypeDef) (*TypeDef, error)
	UpdateType(t TypeDef) error
	DeleteType(ordinal int) error
	CreateTypeMember(m TypeMember) (*TypeMember, error)
	UpdateTypeMember(m TypeMember) error
	DeleteTypeMember(typeOrdinal int, memberName string) error
	CreateEnumValue(v EnumValue) (*EnumValue, error)
	UpdateEnumValue(v EnumValue) error
	DeleteEnumValue(typeOrdinal int, valueName string) error

	// --- Types: read the rows owned by a type_ordinal. ---
	TypeMembers(ordinal int) ([]TypeMember, error)
	EnumValues(ordinal int) ([]EnumValue, error)
	// FuncArgs returns the prototype rows of a TypeFunc type, ArgIndex
	// -1 (return) first, then 0..N-1 in order. RO (spec §3).
	FuncArgs(ordinal int) ([]FuncArg, error)

	// --- Strings. ---
	RebuildStrings(minLength int, typeMask int) error

	// --- Undo. ---
	OpenUndo(label string) (UndoHandle, error)
	CloseUndo(h UndoHandle) error

	// --- Persistence. ---
	SaveDatabase() (bool, error)
}
