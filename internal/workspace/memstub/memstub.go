// Package memstub is an in-memory workspace.Adapter used by tests and
// by any host that wants to exercise the engine without a real
// analysis backend (spec §4.A: "tests may supply an in-memory stub").
//
// It mirrors the teacher's dependency-injection pattern of swapping a
// Database implementation per dialect (adapter/sqlite3, adapter/
// postgres, ...): here the thing swapped in is a fixture-backed stub
// standing in for a live analysis workspace.
package memstub

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// Adapter is a mutable, in-memory implementation of workspace.Adapter.
// It is not safe for concurrent use by multiple goroutines without
// external synchronization, matching the single-workspace-thread
// model the rest of the engine assumes (spec §5).
type Adapter struct {
	mu sync.Mutex

	functions []workspace.Function
	segments  []workspace.Segment
	entries   []workspace.Entry
	imports   []workspace.Import
	strItems  []workspace.StringItem
	xrefs     []workspace.Xref
	bookmarks []workspace.Bookmark
	breakpts  []workspace.Breakpoint
	types     []workspace.TypeDef
	members   []workspace.TypeMember
	enumVals  []workspace.EnumValue
	fixups    []workspace.Fixup
	fchunks   []workspace.FChunk
	funcArgs  []workspace.FuncArg

	blocks map[workspace.EA][]workspace.BasicBlock

	names      map[workspace.EA]string
	comments   map[workspace.EA]string
	repeatable map[workspace.EA]string
	insns      map[workspace.EA]workspace.Instruction
	bytes      map[workspace.EA]byte
	decomp     map[workspace.EA]*workspace.Decompiled
	lvarNames  map[workspace.EA]map[int]string
	lvarTypes  map[workspace.EA]map[int]string

	nextBptID int64
	undoLog   []string // labels of every undo handle opened so far, for tests to assert on
}

// New returns an empty adapter. Tests typically follow with a handful
// of Add*/Set* seeding calls before opening an engine.Session over it.
func New() *Adapter {
	return &Adapter{
		blocks:     map[workspace.EA][]workspace.BasicBlock{},
		names:      map[workspace.EA]string{},
		comments:   map[workspace.EA]string{},
		repeatable: map[workspace.EA]string{},
		insns:      map[workspace.EA]workspace.Instruction{},
		bytes:      map[workspace.EA]byte{},
		decomp:     map[workspace.EA]*workspace.Decompiled{},
		lvarNames:  map[workspace.EA]map[int]string{},
		lvarTypes:  map[workspace.EA]map[int]string{},
	}
}

// --- Seeding helpers (test fixture construction, not part of Adapter). ---

func (a *Adapter) AddFunction(f workspace.Function) {
	a.functions = append(a.functions, f)
	sort.Slice(a.functions, func(i, j int) bool { return a.functions[i].EA < a.functions[j].EA })
	a.names[f.EA] = f.Name
}

func (a *Adapter) AddSegment(s workspace.Segment) {
	a.segments = append(a.segments, s)
	sort.Slice(a.segments, func(i, j int) bool { return a.segments[i].StartEA < a.segments[j].StartEA })
}

func (a *Adapter) AddEntry(e workspace.Entry)   { a.entries = append(a.entries, e) }
func (a *Adapter) AddImport(i workspace.Import) { a.imports = append(a.imports, i) }
func (a *Adapter) AddString(s workspace.StringItem) { a.strItems = append(a.strItems, s) }
func (a *Adapter) AddXref(x workspace.Xref)     { a.xrefs = append(a.xrefs, x) }
func (a *Adapter) AddType(t workspace.TypeDef)  { a.types = append(a.types, t) }
func (a *Adapter) AddTypeMember(m workspace.TypeMember) { a.members = append(a.members, m) }
func (a *Adapter) AddEnumValue(v workspace.EnumValue)   { a.enumVals = append(a.enumVals, v) }
func (a *Adapter) AddFixup(f workspace.Fixup)           { a.fixups = append(a.fixups, f) }
func (a *Adapter) AddFChunk(c workspace.FChunk)         { a.fchunks = append(a.fchunks, c) }
func (a *Adapter) AddFuncArg(arg workspace.FuncArg)     { a.funcArgs = append(a.funcArgs, arg) }

// AddBasicBlock seeds one basic block of funcEA's control-flow graph.
// BasicBlocks has no analysis behind it in this stub: tests seed
// exactly the blocks they want returned, in any order.
func (a *Adapter) AddBasicBlock(b workspace.BasicBlock) {
	a.blocks[b.FuncEA] = append(a.blocks[b.FuncEA], b)
	sort.Slice(a.blocks[b.FuncEA], func(i, j int) bool {
		return a.blocks[b.FuncEA][i].StartEA < a.blocks[b.FuncEA][j].StartEA
	})
}

func (a *Adapter) SetInstruction(in workspace.Instruction) {
	a.insns[in.EA] = in
}

func (a *Adapter) SetBytes(ea workspace.EA, bs []byte) {
	for i, b := range bs {
		a.bytes[ea+workspace.EA(i)] = b
	}
}

func (a *Adapter) SetDecompiled(funcEA workspace.EA, d *workspace.Decompiled) {
	a.decomp[funcEA] = d
}

// --- workspace.Adapter implementation. ---

func (a *Adapter) Qty(kind workspace.Kind) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch kind {
	case workspace.KindFunction:
		return len(a.functions)
	case workspace.KindSegment:
		return len(a.segments)
	case workspace.KindEntry:
		return len(a.entries)
	case workspace.KindImport:
		return len(a.imports)
	case workspace.KindString:
		return len(a.strItems)
	case workspace.KindXref:
		return len(a.xrefs)
	case workspace.KindBookmark:
		return len(a.bookmarks)
	case workspace.KindBreakpoint:
		return len(a.breakpts)
	case workspace.KindType:
		return len(a.types)
	case workspace.KindName:
		return len(a.names)
	case workspace.KindFixup:
		return len(a.fixups)
	case workspace.KindFChunk:
		return len(a.fchunks)
	default:
		return 0
	}
}

func (a *Adapter) AtIndex(kind workspace.Kind, i int) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch kind {
	case workspace.KindFunction:
		if i < 0 || i >= len(a.functions) {
			return nil, errs.New("memstub.AtIndex", errs.NotFound, nil)
		}
		return a.functions[i], nil
	case workspace.KindSegment:
		if i < 0 || i >= len(a.segments) {
			return nil, errs.New("memstub.AtIndex", errs.NotFound, nil)
		}
		return a.segments[i], nil
	case workspace.KindEntry:
		if i < 0 || i >= len(a.entries) {
			return nil, errs.New("memstub.AtIndex", errs.NotFound, nil)
		}
		return a.entries[i], nil
	case workspace.KindImport:
		if i < 0 || i >= len(a.imports) {
			return nil, errs.New("memstub.AtIndex", errs.NotFound, nil)
		}
		return a.imports[i], nil
	case workspace.KindType:
		if i < 0 || i >= len(a.types) {
			return nil, errs.New("memstub.AtIndex", errs.NotFound, nil)
		}
		return a.types[i], nil
	case workspace.KindFixup:
		if i < 0 || i >= len(a.fixups) {
			return nil, errs.New("memstub.AtIndex", errs.NotFound, nil)
		}
		return a.fixups[i], nil
	case workspace.KindFChunk:
		if i < 0 || i >= len(a.fchunks) {
			return nil, errs.New("memstub.AtIndex", errs.NotFound, nil)
		}
		return a.fchunks[i], nil
	default:
		return nil, errs.New("memstub.AtIndex", errs.Unsupported, nil)
	}
}

func (a *Adapter) ForEach(kind workspace.Kind, fn func(entity any) bool) error {
	a.mu.Lock()
	// snapshot under lock, iterate outside it so fn may re-enter the
	// adapter (e.g. to read a name while walking functions).
	var snapshot []any
	switch kind {
	case workspace.KindFunction:
		for _, f := range a.functions {
			snapshot = append(snapshot, f)
		}
	case workspace.KindSegment:
		for _, s := range a.segments {
			snapshot = append(snapshot, s)
		}
	case workspace.KindName:
		eas := make([]workspace.EA, 0, len(a.names))
		for ea := range a.names {
			eas = append(eas, ea)
		}
		sort.Slice(eas, func(i, j int) bool { return eas[i] < eas[j] })
		for _, ea := range eas {
			snapshot = append(snapshot, workspace.Name{EA: ea, Name: a.names[ea]})
		}
	case workspace.KindEntry:
		for _, e := range a.entries {
			snapshot = append(snapshot, e)
		}
	case workspace.KindImport:
		for _, im := range a.imports {
			snapshot = append(snapshot, im)
		}
	case workspace.KindString:
		for _, s := range a.strItems {
			snapshot = append(snapshot, s)
		}
	case workspace.KindXref:
		for _, x := range a.xrefs {
			snapshot = append(snapshot, x)
		}
	case workspace.KindBookmark:
		for _, b := range a.bookmarks {
			snapshot = append(snapshot, b)
		}
	case workspace.KindBreakpoint:
		for _, b := range a.breakpts {
			snapshot = append(snapshot, b)
		}
	case workspace.KindType:
		for _, t := range a.types {
			snapshot = append(snapshot, t)
		}
	case workspace.KindFixup:
		for _, f := range a.fixups {
			snapshot = append(snapshot, f)
		}
	case workspace.KindFChunk:
		for _, c := range a.fchunks {
			snapshot = append(snapshot, c)
		}
	case workspace.KindComment:
		eas := make([]workspace.EA, 0, len(a.comments)+len(a.repeatable))
		for ea := range a.comments {
			eas = append(eas, ea)
		}
		for ea := range a.repeatable {
			eas = append(eas, ea)
		}
		sort.Slice(eas, func(i, j int) bool { return eas[i] < eas[j] })
		for _, ea := range eas {
			if c, ok := a.comments[ea]; ok {
				snapshot = append(snapshot, workspace.Comment{EA: ea, Comment: c, Repeatable: false})
			}
			if c, ok := a.repeatable[ea]; ok {
				snapshot = append(snapshot, workspace.Comment{EA: ea, Comment: c, Repeatable: true})
			}
		}
	}
	a.mu.Unlock()

	for _, e := range snapshot {
		if !fn(e) {
			break
		}
	}
	return nil
}

func (a *Adapter) FuncContaining(ea workspace.EA) (*workspace.Function, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.functions {
		f := a.functions[i]
		if ea >= f.EA && ea < f.EndEA {
			return &f, nil
		}
	}
	return nil, errs.New("memstub.FuncContaining", errs.NotFound, nil)
}

func (a *Adapter) SegmentContaining(ea workspace.EA) (*workspace.Segment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.segments {
		s := a.segments[i]
		if ea >= s.StartEA && ea < s.EndEA {
			return &s, nil
		}
	}
	return nil, errs.New("memstub.SegmentContaining", errs.NotFound, nil)
}

func (a *Adapter) NameAt(ea workspace.EA) (*workspace.Name, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.names[ea]; ok {
		return &workspace.Name{EA: ea, Name: n}, nil
	}
	return nil, errs.New("memstub.NameAt", errs.NotFound, nil)
}

func (a *Adapter) CommentAt(ea workspace.EA, repeatable bool) (*workspace.Comment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	store := a.comments
	if repeatable {
		store = a.repeatable
	}
	if c, ok := store[ea]; ok {
		return &workspace.Comment{EA: ea, Comment: c, Repeatable: repeatable}, nil
	}
	return nil, errs.New("memstub.CommentAt", errs.NotFound, nil)
}

func (a *Adapter) ItemType(ea workspace.EA) (string, error) {
	if _, err := a.FuncContaining(ea); err == nil {
		return "code", nil
	}
	return "data", nil
}

func (a *Adapter) ItemSize(ea workspace.EA) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if in, ok := a.insns[ea]; ok {
		return in.Size, nil
	}
	return 1, nil
}

func (a *Adapter) IsCode(ea workspace.EA) (bool, error) {
	t, err := a.ItemType(ea)
	return t == "code", err
}

func (a *Adapter) IsData(ea workspace.EA) (bool, error) {
	t, err := a.ItemType(ea)
	return t == "data", err
}

func (a *Adapter) DecodeInstruction(ea workspace.EA) (*workspace.DecodedInsn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, ok := a.insns[ea]
	if !ok {
		return nil, errs.New("memstub.DecodeInstruction", errs.NotFound, nil)
	}
	return &workspace.DecodedInsn{EA: ea, IType: in.IType, Size: in.Size, Mnemonic: in.Mnemonic, Operands: in.Operands}, nil
}

func (a *Adapter) DisassembleLine(ea workspace.EA) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, ok := a.insns[ea]
	if !ok {
		return "", errs.New("memstub.DisassembleLine", errs.NotFound, nil)
	}
	if in.Disasm != "" {
		return in.Disasm, nil
	}
	return strings.TrimSpace(in.Mnemonic + " " + strings.Join(in.Operands, ", ")), nil
}

func (a *Adapter) Bytes(ea workspace.EA, n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a.bytes[ea+workspace.EA(i)]
	}
	return out, nil
}

func (a *Adapter) NextHead(ea workspace.EA) (workspace.EA, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	best := workspace.EA(0)
	found := false
	for k := range a.insns {
		if k > ea && (!found || k < best) {
			best, found = k, true
		}
	}
	if !found {
		return 0, errs.New("memstub.NextHead", errs.NotFound, nil)
	}
	return best, nil
}

func (a *Adapter) PrevHead(ea workspace.EA) (workspace.EA, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	best := workspace.EA(0)
	found := false
	for k := range a.insns {
		if k < ea && (!found || k > best) {
			best, found = k, true
		}
	}
	if !found {
		return 0, errs.New("memstub.PrevHead", errs.NotFound, nil)
	}
	return best, nil
}

func (a *Adapter) BasicBlocks(ctx context.Context, funcEA workspace.EA) ([]workspace.BasicBlock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]workspace.BasicBlock(nil), a.blocks[funcEA]...), nil
}

func (a *Adapter) SearchBytes(ctx context.Context, pattern workspace.SearchPattern, rng *workspace.AddrRange, fn func(ea workspace.EA) bool) error {
	toks, err := parsePattern(pattern.Raw)
	if err != nil {
		return errs.New("memstub.SearchBytes", errs.InvalidArgument, err)
	}
	a.mu.Lock()
	maxEA := workspace.EA(0)
	for k := range a.bytes {
		if k > maxEA {
			maxEA = k
		}
	}
	a.mu.Unlock()

	start, end := workspace.EA(0), maxEA+1
	if rng != nil {
		start, end = rng.Start, rng.End
	}
	for ea := start; ea+workspace.EA(len(toks)) <= end; ea++ {
		select {
		case <-ctx.Done():
			return errs.New("memstub.SearchBytes", errs.Interrupted, ctx.Err())
		default:
		}
		if a.matchAt(ea, toks) {
			if !fn(ea) {
				return nil
			}
		}
	}
	return nil
}

// patternToken is one position of a parsed byte pattern: either a
// fixed byte, a wildcard ("?"/"??"), or an alternative set ("(a b c)").
type patternToken struct {
	wildcard bool
	set      []byte // len==1 for a fixed byte, >1 for an alternative set
}

func parsePattern(raw string) ([]patternToken, error) {
	fields := strings.Fields(raw)
	var toks []patternToken
	i := 0
	for i < len(fields) {
		f := fields[i]
		switch {
		case f == "?" || f == "??":
			toks = append(toks, patternToken{wildcard: true})
			i++
		case f == "(":
			var set []byte
			i++
			for i < len(fields) && fields[i] != ")" {
				b, err := parseHexByte(fields[i])
				if err != nil {
					return nil, err
				}
				set = append(set, b)
				i++
			}
			if i >= len(fields) {
				return nil, errs.Newf("parsePattern", errs.InvalidArgument, "unterminated alternative set")
			}
			i++ // skip ')'
			toks = append(toks, patternToken{set: set})
		default:
			b, err := parseHexByte(f)
			if err != nil {
				return nil, err
			}
			toks = append(toks, patternToken{set: []byte{b}})
			i++
		}
	}
	if len(toks) == 0 {
		return nil, errs.Newf("parsePattern", errs.InvalidArgument, "empty pattern")
	}
	return toks, nil
}

func parseHexByte(s string) (byte, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "0X")
	if len(s) != 2 {
		return 0, errs.Newf("parseHexByte", errs.InvalidArgument, "not a byte: %q", s)
	}
	var b byte
	for _, c := range s {
		b <<= 4
		switch {
		case c >= '0' && c <= '9':
			b |= byte(c - '0')
		case c >= 'A' && c <= 'F':
			b |= byte(c-'A') + 10
		default:
			return 0, errs.Newf("parseHexByte", errs.InvalidArgument, "not hex: %q", s)
		}
	}
	return b, nil
}

func (a *Adapter) matchAt(ea workspace.EA, toks []patternToken) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range toks {
		if t.wildcard {
			continue
		}
		b := a.bytes[ea+workspace.EA(i)]
		ok := false
		for _, cand := range t.set {
			if cand == b {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func (a *Adapter) Decompile(ctx context.Context, ea workspace.EA, force bool) (*workspace.Decompiled, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.decomp[ea]
	if !ok {
		return nil, errs.New("memstub.Decompile", errs.Unsupported, nil)
	}
	return d, nil
}

func (a *Adapter) SetLvarName(ea workspace.EA, idx int, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.decomp[ea]
	if !ok {
		return errs.New("memstub.SetLvarName", errs.NotFound, nil)
	}
	for i := range d.Lvars {
		if d.Lvars[i].Idx == idx {
			d.Lvars[i].Name = name
			return nil
		}
	}
	return errs.New("memstub.SetLvarName", errs.NotFound, nil)
}

func (a *Adapter) SetLvarType(ea workspace.EA, idx int, typ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.decomp[ea]
	if !ok {
		return errs.New("memstub.SetLvarType", errs.NotFound, nil)
	}
	for i := range d.Lvars {
		if d.Lvars[i].Idx == idx {
			d.Lvars[i].Type = typ
			return nil
		}
	}
	return errs.New("memstub.SetLvarType", errs.NotFound, nil)
}

func (a *Adapter) SetPseudoComment(ea workspace.EA, anchor workspace.EA, text string, placement workspace.CommentPlacement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.decomp[ea]
	if !ok {
		return errs.New("memstub.SetPseudoComment", errs.NotFound, nil)
	}
	for i := range d.Lines {
		if d.Lines[i].EA != nil && *d.Lines[i].EA == anchor {
			t := text
			d.Lines[i].Comment = &t
			d.Lines[i].CommentPlacement = placement
			return nil
		}
	}
	return errs.New("memstub.SetPseudoComment", errs.NotFound, nil)
}

func (a *Adapter) SetName(ea workspace.EA, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for otherEA, n := range a.names {
		if n == name && otherEA != ea {
			return errs.Newf("memstub.SetName", errs.WorkspaceError, "name %q already used at %#x", name, otherEA)
		}
	}
	a.names[ea] = name
	return nil
}

func (a *Adapter) DeleteName(ea workspace.EA) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.names, ea)
	return nil
}

func (a *Adapter) SetComment(ea workspace.EA, text string, repeatable bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if repeatable {
		a.repeatable[ea] = text
	} else {
		a.comments[ea] = text
	}
	return nil
}

func (a *Adapter) DeleteComment(ea workspace.EA, repeatable bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if repeatable {
		delete(a.repeatable, ea)
	} else {
		delete(a.comments, ea)
	}
	return nil
}

func (a *Adapter) CreateFunction(ea workspace.EA, endEA *workspace.EA, name *string) (*workspace.Function, error) {
	a.mu.Lock()
	end := ea + 0x10 // boundary auto-detect stub: fixed-size guess
	if endEA != nil {
		end = *endEA
	}
	fname := ""
	if name != nil {
		fname = *name
	} else {
		fname = "sub_" + hexAddr(ea)
	}
	f := workspace.Function{EA: ea, Name: fname, Size: uint64(end - ea), EndEA: end}
	a.functions = append(a.functions, f)
	sort.Slice(a.functions, func(i, j int) bool { return a.functions[i].EA < a.functions[j].EA })
	a.names[ea] = fname
	a.mu.Unlock()
	return &f, nil
}

func (a *Adapter) DeleteFunction(ea workspace.EA) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, f := range a.functions {
		if f.EA == ea {
			a.functions = append(a.functions[:i], a.functions[i+1:]...)
			return nil
		}
	}
	return errs.New("memstub.DeleteFunction", errs.NotFound, nil)
}

func (a *Adapter) RenameFunction(ea workspace.EA, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.functions {
		if a.functions[i].EA == ea {
			a.functions[i].Name = name
			a.names[ea] = name
			return nil
		}
	}
	return errs.New("memstub.RenameFunction", errs.NotFound, nil)
}

func (a *Adapter) SetFunctionFlags(ea workspace.EA, flags uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.functions {
		if a.functions[i].EA == ea {
			a.functions[i].Flags = flags
			return nil
		}
	}
	return errs.New("memstub.SetFunctionFlags", errs.NotFound, nil)
}

func (a *Adapter) DeleteInstruction(ea workspace.EA) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.insns[ea]; !ok {
		return errs.New("memstub.DeleteInstruction", errs.NotFound, nil)
	}
	delete(a.insns, ea)
	return nil
}

func (a *Adapter) SetSegmentName(startEA workspace.EA, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.segments {
		if a.segments[i].StartEA == startEA {
			a.segments[i].Name = name
			return nil
		}
	}
	return errs.New("memstub.SetSegmentName", errs.NotFound, nil)
}

func (a *Adapter) SetSegmentClass(startEA workspace.EA, class string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.segments {
		if a.segments[i].StartEA == startEA {
			a.segments[i].Class = class
			return nil
		}
	}
	return errs.New("memstub.SetSegmentClass", errs.NotFound, nil)
}

func (a *Adapter) SetSegmentPerm(startEA workspace.EA, perm int) error {
	if perm < 0 || perm > 7 {
		return errs.Newf("memstub.SetSegmentPerm", errs.InvalidArgument, "perm out of range: %d", perm)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.segments {
		if a.segments[i].StartEA == startEA {
			a.segments[i].Perm = perm
			return nil
		}
	}
	return errs.New("memstub.SetSegmentPerm", errs.NotFound, nil)
}

func (a *Adapter) DeleteSegment(startEA workspace.EA) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range a.segments {
		if s.StartEA == startEA {
			a.segments = append(a.segments[:i], a.segments[i+1:]...)
			return nil
		}
	}
	return errs.New("memstub.DeleteSegment", errs.NotFound, nil)
}

func (a *Adapter) CreateBookmark(slot *int, ea workspace.EA, description string) (*workspace.Bookmark, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	used := map[int]bool{}
	for _, b := range a.bookmarks {
		used[b.Slot] = true
	}
	s := 0
	if slot != nil {
		s = *slot
		if used[s] {
			return nil, errs.Newf("memstub.CreateBookmark", errs.WorkspaceError, "slot %d already used", s)
		}
	} else {
		for used[s] {
			s++
		}
	}
	b := workspace.Bookmark{Slot: s, EA: ea, Description: description}
	a.bookmarks = append(a.bookmarks, b)
	return &b, nil
}

func (a *Adapter) SetBookmarkDescription(slot int, description string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.bookmarks {
		if a.bookmarks[i].Slot == slot {
			a.bookmarks[i].Description = description
			return nil
		}
	}
	return errs.New("memstub.SetBookmarkDescription", errs.NotFound, nil)
}

func (a *Adapter) DeleteBookmark(slot int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, b := range a.bookmarks {
		if b.Slot == slot {
			a.bookmarks = append(a.bookmarks[:i], a.bookmarks[i+1:]...)
			return nil
		}
	}
	return errs.New("memstub.DeleteBookmark", errs.NotFound, nil)
}

func (a *Adapter) CreateBreakpoint(bp workspace.Breakpoint) (*workspace.Breakpoint, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextBptID++
	bp.BptID = a.nextBptID
	a.breakpts = append(a.breakpts, bp)
	return &bp, nil
}

func (a *Adapter) UpdateBreakpoint(bp workspace.Breakpoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.breakpts {
		if a.breakpts[i].BptID == bp.BptID {
			bp.BptID = a.breakpts[i].BptID
			a.breakpts[i] = bp
			return nil
		}
	}
	return errs.New("memstub.UpdateBreakpoint", errs.NotFound, nil)
}

func (a *Adapter) DeleteBreakpoint(bptID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, b := range a.breakpts {
		if b.BptID == bptID {
			a.breakpts = append(a.breakpts[:i], a.breakpts[i+1:]...)
			return nil
		}
	}
	return errs.New("memstub.DeleteBreakpoint", errs.NotFound, nil)
}

func (a *Adapter) CreateType(t workspace.TypeDef) (*workspace.TypeDef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.types {
		if existing.Ordinal == t.Ordinal {
			return nil, errs.Newf("memstub.CreateType", errs.WorkspaceError, "ordinal %d already used", t.Ordinal)
		}
	}
	a.types = append(a.types, t)
	return &t, nil
}

func (a *Adapter) UpdateType(t workspace.TypeDef) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.types {
		if a.types[i].Ordinal == t.Ordinal {
			a.types[i] = t
			return nil
		}
	}
	return errs.New("memstub.UpdateType", errs.NotFound, nil)
}

func (a *Adapter) DeleteType(ordinal int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.types {
		if t.Ordinal == ordinal {
			a.types = append(a.types[:i], a.types[i+1:]...)
			return nil
		}
	}
	return errs.New("memstub.DeleteType", errs.NotFound, nil)
}

func (a *Adapter) CreateTypeMember(m workspace.TypeMember) (*workspace.TypeMember, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.members = append(a.members, m)
	return &m, nil
}

func (a *Adapter) UpdateTypeMember(m workspace.TypeMember) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.members {
		if a.members[i].TypeOrdinal == m.TypeOrdinal && a.members[i].MemberName == m.MemberName {
			a.members[i] = m
			return nil
		}
	}
	return errs.New("memstub.UpdateTypeMember", errs.NotFound, nil)
}

func (a *Adapter) DeleteTypeMember(typeOrdinal int, memberName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, m := range a.members {
		if m.TypeOrdinal == typeOrdinal && m.MemberName == memberName {
			a.members = append(a.members[:i], a.members[i+1:]...)
			return nil
		}
	}
	return errs.New("memstub.DeleteTypeMember", errs.NotFound, nil)
}

func (a *Adapter) CreateEnumValue(v workspace.EnumValue) (*workspace.EnumValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enumVals = append(a.enumVals, v)
	return &v, nil
}

func (a *Adapter) UpdateEnumValue(v workspace.EnumValue) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.enumVals {
		if a.enumVals[i].TypeOrdinal == v.TypeOrdinal && a.enumVals[i].ValueName == v.ValueName {
			a.enumVals[i] = v
			return nil
		}
	}
	return errs.New("memstub.UpdateEnumValue", errs.NotFound, nil)
}

func (a *Adapter) DeleteEnumValue(typeOrdinal int, valueName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, v := range a.enumVals {
		if v.TypeOrdinal == typeOrdinal && v.ValueName == valueName {
			a.enumVals = append(a.enumVals[:i], a.enumVals[i+1:]...)
			return nil
		}
	}
	return errs.New("memstub.DeleteEnumValue", errs.NotFound, nil)
}

func (a *Adapter) TypeMembers(ordinal int) ([]workspace.TypeMember, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []workspace.TypeMember
	for _, m := range a.members {
		if m.TypeOrdinal == ordinal {
			out = append(out, m)
		}
	}
	return out, nil
}

func (a *Adapter) EnumValues(ordinal int) ([]workspace.EnumValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []workspace.EnumValue
	for _, v := range a.enumVals {
		if v.TypeOrdinal == ordinal {
			out = append(out, v)
		}
	}
	return out, nil
}

func (a *Adapter) FuncArgs(ordinal int) ([]workspace.FuncArg, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []workspace.FuncArg
	for _, arg := range a.funcArgs {
		if arg.TypeOrdinal == ordinal {
			out = append(out, arg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArgIndex < out[j].ArgIndex })
	return out, nil
}

func (a *Adapter) RebuildStrings(minLength int, typeMask int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	filtered := a.strItems[:0:0]
	for _, s := range a.strItems {
		if s.Length >= minLength {
			filtered = append(filtered, s)
		}
	}
	a.strItems = filtered
	return nil
}

func (a *Adapter) OpenUndo(label string) (workspace.UndoHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := workspace.UndoHandle{ID: uuid.NewString(), Label: label}
	a.undoLog = append(a.undoLog, label)
	return h, nil
}

func (a *Adapter) CloseUndo(h workspace.UndoHandle) error {
	return nil
}

func (a *Adapter) SaveDatabase() (bool, error) {
	return true, nil
}

// UndoLabels returns the labels of every undo handle opened so far, in
// order, for tests to assert the engine wraps mutations in undo.
func (a *Adapter) UndoLabels() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.undoLog))
	copy(out, a.undoLog)
	return out
}

func hexAddr(ea workspace.EA) string {
	const digits = "0123456789ABCDEF"
	if ea == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for ea > 0 {
		i--
		buf[i] = digits[ea&0xF]
		ea >>= 4
	}
	return string(buf[i:])
}
