package memstub

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/allthingsida/idasql/internal/workspace"
)

// Snapshot is a JSON-serializable fixture for seeding an Adapter in
// one shot. Real workspace state lives in whatever on-disk format the
// host analysis tool owns (spec §1 "physical on-disk database file
// formats belonging to the underlying analysis workspace" is out of
// scope); Snapshot is this repo's own stand-in so cmd/idasql's --db
// flag has a concrete, loadable file to point at when no live
// workspace.Adapter binding is wired into the process.
type Snapshot struct {
	Functions    []workspace.Function    `json:"functions,omitempty"`
	Segments     []workspace.Segment     `json:"segments,omitempty"`
	Entries      []workspace.Entry       `json:"entries,omitempty"`
	Imports      []workspace.Import      `json:"imports,omitempty"`
	Strings      []workspace.StringItem  `json:"strings,omitempty"`
	Xrefs        []workspace.Xref        `json:"xrefs,omitempty"`
	Bookmarks    []workspace.Bookmark    `json:"bookmarks,omitempty"`
	Breakpoints  []workspace.Breakpoint  `json:"breakpoints,omitempty"`
	Types        []workspace.TypeDef     `json:"types,omitempty"`
	TypeMembers  []workspace.TypeMember  `json:"type_members,omitempty"`
	EnumValues   []workspace.EnumValue   `json:"enum_values,omitempty"`
	Names        []workspace.Name        `json:"names,omitempty"`
	Comments     []workspace.Comment     `json:"comments,omitempty"`
	Instructions []workspace.Instruction `json:"instructions,omitempty"`
	// Bytes maps a hex address string ("0x1000" or "1000"; always read
	// as base 16) to its raw byte content; JSON object keys must be
	// strings, so addresses can't be the natural uint64 here.
	Bytes map[string][]byte `json:"bytes,omitempty"`
}

// LoadSnapshot reads path and builds an Adapter from it.
func LoadSnapshot(path string) (*Adapter, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memstub: %w", err)
	}
	return ParseSnapshot(buf)
}

// ParseSnapshot decodes JSON bytes into a fresh Adapter.
func ParseSnapshot(buf []byte) (*Adapter, error) {
	var snap Snapshot
	if err := json.Unmarshal(buf, &snap); err != nil {
		return nil, fmt.Errorf("memstub: decoding snapshot: %w", err)
	}

	a := New()
	for _, f := range snap.Functions {
		a.AddFunction(f)
	}
	for _, s := range snap.Segments {
		a.AddSegment(s)
	}
	for _, e := range snap.Entries {
		a.AddEntry(e)
	}
	for _, i := range snap.Imports {
		a.AddImport(i)
	}
	for _, s := range snap.Strings {
		a.AddString(s)
	}
	for _, x := range snap.Xrefs {
		a.AddXref(x)
	}
	for _, t := range snap.Types {
		a.AddType(t)
	}
	for _, m := range snap.TypeMembers {
		a.AddTypeMember(m)
	}
	for _, v := range snap.EnumValues {
		a.AddEnumValue(v)
	}
	for _, in := range snap.Instructions {
		a.SetInstruction(in)
	}
	for addr, bs := range snap.Bytes {
		ea, err := parseSnapshotAddr(addr)
		if err != nil {
			return nil, fmt.Errorf("memstub: snapshot bytes key %q: %w", addr, err)
		}
		a.SetBytes(ea, bs)
	}
	for _, n := range snap.Names {
		if err := a.SetName(n.EA, n.Name); err != nil {
			return nil, fmt.Errorf("memstub: snapshot name at %#x: %w", n.EA, err)
		}
	}
	for _, c := range snap.Comments {
		if err := a.SetComment(c.EA, c.Comment, c.Repeatable); err != nil {
			return nil, fmt.Errorf("memstub: snapshot comment at %#x: %w", c.EA, err)
		}
	}
	for _, b := range snap.Bookmarks {
		slot := b.Slot
		if _, err := a.CreateBookmark(&slot, b.EA, b.Description); err != nil {
			return nil, fmt.Errorf("memstub: snapshot bookmark at %#x: %w", b.EA, err)
		}
	}
	for _, bp := range snap.Breakpoints {
		if _, err := a.CreateBreakpoint(bp); err != nil {
			return nil, fmt.Errorf("memstub: snapshot breakpoint at %#x: %w", bp.EA, err)
		}
	}
	return a, nil
}

func parseSnapshotAddr(s string) (workspace.EA, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, err
	}
	return workspace.EA(v), nil
}
