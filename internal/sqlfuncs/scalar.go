// Package sqlfuncs registers the scalar/TVF SQL functions spec §4.D
// names — pure wrappers over internal/workspace.Adapter plus pattern
// search and entity lookup. Grounded on mattn/go-sqlite3's
// conn.RegisterFunc contract (the same driver internal/vtab builds on)
// and the teacher's "plain function over a narrow interface" style.
package sqlfuncs

import (
	"github.com/allthingsida/idasql/internal/policy"
	"github.com/allthingsida/idasql/internal/util"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// Funcs is the shared context every registered function closes over,
// mirroring internal/tables.Registry's Adapter+Settings pairing.
type Funcs struct {
	Adapter  workspace.Adapter
	Settings *policy.Settings
}

// New binds a Funcs to an adapter and its session policy.
func New(a workspace.Adapter, s *policy.Settings) *Funcs {
	return &Funcs{Adapter: a, Settings: s}
}

// nullOnNotFound turns a NotFound error into (zero, nil) so it
// surfaces as SQL NULL rather than aborting the statement (spec §7
// "NotFound ... in scalar context surfaces as SQL NULL, not an
// error").
func nullOnNotFound[T any](v T, err error) (T, error) {
	if err != nil && errs.Is(err, errs.NotFound) {
		var zero T
		return zero, nil
	}
	return v, err
}

func (f *Funcs) disasm(ea int64) (*string, error) {
	s, err := nullOnNotFound(f.Adapter.DisassembleLine(workspace.EA(ea)))
	if err != nil || s == "" {
		return nil, err
	}
	return &s, nil
}

// disasmN is registered under the same SQL name "disasm" with arity 2
// (spec §4.D "disasm(ea,n)"): n consecutive instructions, one per
// line, walked by decoded size like internal/tables.walkFunctionInstructions.
func (f *Funcs) disasmN(ea int64, n int64) (*string, error) {
	addr := workspace.EA(ea)
	var out string
	for i := int64(0); i < n; i++ {
		insn, err := f.Adapter.DecodeInstruction(addr)
		if err != nil {
			break
		}
		line, err := f.Adapter.DisassembleLine(addr)
		if err != nil {
			break
		}
		if out != "" {
			out += "\n"
		}
		out += line
		if insn.Size <= 0 {
			break
		}
		addr += workspace.EA(insn.Size)
	}
	if out == "" {
		return nil, nil
	}
	return &out, nil
}

func (f *Funcs) bytesHex(ea int64, n int64) (*string, error) {
	bs, err := nullOnNotFound(f.Adapter.Bytes(workspace.EA(ea), int(n)))
	if err != nil || bs == nil {
		return nil, err
	}
	s := hexBytes(bs)
	return &s, nil
}

func (f *Funcs) bytesRaw(ea int64, n int64) ([]byte, error) {
	return nullOnNotFound(f.Adapter.Bytes(workspace.EA(ea), int(n)))
}

func hexBytes(bs []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, 0, len(bs)*3)
	for i, b := range bs {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexDigits[b>>4], hexDigits[b&0xf])
	}
	return string(out)
}

func (f *Funcs) mnemonic(ea int64) (*string, error) {
	insn, err := nullOnNotFound(f.Adapter.DecodeInstruction(workspace.EA(ea)))
	if err != nil || insn == nil {
		return nil, err
	}
	return &insn.Mnemonic, nil
}

func (f *Funcs) operand(ea int64, i int64) (*string, error) {
	insn, err := nullOnNotFound(f.Adapter.DecodeInstruction(workspace.EA(ea)))
	if err != nil || insn == nil || i < 0 || int(i) >= len(insn.Operands) {
		return nil, err
	}
	return &insn.Operands[i], nil
}

func (f *Funcs) nameAt(ea int64) (*string, error) {
	n, err := nullOnNotFound(f.Adapter.NameAt(workspace.EA(ea)))
	if err != nil || n == nil {
		return nil, err
	}
	return &n.Name, nil
}

func (f *Funcs) funcAt(ea int64) (*int64, error) {
	fn, err := nullOnNotFound(f.Adapter.FuncContaining(workspace.EA(ea)))
	if err != nil || fn == nil {
		return nil, err
	}
	v := int64(fn.EA)
	return &v, nil
}

func (f *Funcs) funcStart(ea int64) (*int64, error) {
	fn, err := nullOnNotFound(f.Adapter.FuncContaining(workspace.EA(ea)))
	if err != nil || fn == nil {
		return nil, err
	}
	v := int64(fn.EA)
	return &v, nil
}

func (f *Funcs) funcEnd(ea int64) (*int64, error) {
	fn, err := nullOnNotFound(f.Adapter.FuncContaining(workspace.EA(ea)))
	if err != nil || fn == nil {
		return nil, err
	}
	v := int64(fn.EndEA)
	return &v, nil
}

func (f *Funcs) funcQty() int64 {
	return int64(f.Adapter.Qty(workspace.KindFunction))
}

func (f *Funcs) funcAtIndex(i int64) (*int64, error) {
	e, err := nullOnNotFound[any](f.Adapter.AtIndex(workspace.KindFunction, int(i)))
	if err != nil || e == nil {
		return nil, err
	}
	fn := e.(workspace.Function)
	v := int64(fn.EA)
	return &v, nil
}

func (f *Funcs) nextHead(ea int64) (*int64, error) {
	v, err := nullOnNotFound(f.Adapter.NextHead(workspace.EA(ea)))
	if err != nil {
		return nil, err
	}
	r := int64(v)
	return &r, nil
}

func (f *Funcs) prevHead(ea int64) (*int64, error) {
	v, err := nullOnNotFound(f.Adapter.PrevHead(workspace.EA(ea)))
	if err != nil {
		return nil, err
	}
	r := int64(v)
	return &r, nil
}

func (f *Funcs) segmentAt(ea int64) (*string, error) {
	s, err := nullOnNotFound(f.Adapter.SegmentContaining(workspace.EA(ea)))
	if err != nil || s == nil {
		return nil, err
	}
	return &s.Name, nil
}

func (f *Funcs) commentAt(ea int64) (*string, error) {
	c, err := nullOnNotFound(f.Adapter.CommentAt(workspace.EA(ea), false))
	if err != nil || c == nil {
		return nil, err
	}
	return &c.Comment, nil
}

func (f *Funcs) setComment(ea int64, text string) (int64, error) {
	return f.setCommentRep(ea, text, 0)
}

func (f *Funcs) setCommentRep(ea int64, text string, rep int64) (int64, error) {
	if err := f.Adapter.SetComment(workspace.EA(ea), text, rep != 0); err != nil {
		return 0, err
	}
	return 1, nil
}

func (f *Funcs) setName(ea int64, name string) (int64, error) {
	if err := f.Adapter.SetName(workspace.EA(ea), name); err != nil {
		return 0, err
	}
	return 1, nil
}

func (f *Funcs) itemType(ea int64) (*string, error) {
	s, err := nullOnNotFound(f.Adapter.ItemType(workspace.EA(ea)))
	if err != nil || s == "" {
		return nil, err
	}
	return &s, nil
}

func (f *Funcs) itemSize(ea int64) (*int64, error) {
	n, err := nullOnNotFound(f.Adapter.ItemSize(workspace.EA(ea)))
	if err != nil {
		return nil, err
	}
	v := int64(n)
	return &v, nil
}

func (f *Funcs) isCode(ea int64) (int64, error) {
	b, err := f.Adapter.IsCode(workspace.EA(ea))
	if err != nil {
		return 0, err
	}
	return boolToInt64(b), nil
}

func (f *Funcs) isData(ea int64) (int64, error) {
	b, err := f.Adapter.IsData(workspace.EA(ea))
	if err != nil {
		return 0, err
	}
	return boolToInt64(b), nil
}

// flagsAt has no direct adapter primitive (the capability surface
// exposes is_code/is_data/item_type, not a raw flag word per address);
// it packs those three into a small bitmask rather than adding a new
// adapter method for a single low-value accessor. Bit 0 = code, bit 1
// = data, bit 2 = item_type known.
func (f *Funcs) flagsAt(ea int64) (int64, error) {
	addr := workspace.EA(ea)
	var bits int64
	if ok, err := f.Adapter.IsCode(addr); err == nil && ok {
		bits |= 1
	}
	if ok, err := f.Adapter.IsData(addr); err == nil && ok {
		bits |= 2
	}
	if t, err := f.Adapter.ItemType(addr); err == nil && t != "" {
		bits |= 4
	}
	return bits, nil
}

func (f *Funcs) itype(ea int64) (*int64, error) {
	insn, err := nullOnNotFound(f.Adapter.DecodeInstruction(workspace.EA(ea)))
	if err != nil || insn == nil {
		return nil, err
	}
	v := int64(insn.IType)
	return &v, nil
}

func (f *Funcs) hex(v int64) string {
	return formatHex(v)
}

func formatHex(v int64) string {
	if v == 0 {
		return "0x0"
	}
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	const digits = "0123456789abcdef"
	var buf [16]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = digits[u&0xf]
		u >>= 4
	}
	s := "0x" + string(buf[i:])
	if neg {
		s = "-" + s
	}
	return s
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (f *Funcs) stringCount() int64 {
	return int64(f.Adapter.Qty(workspace.KindString))
}

func (f *Funcs) rebuildStrings() (int64, error) {
	return f.rebuildStringsArgs(0, 0)
}

func (f *Funcs) rebuildStringsMin(minLength int64) (int64, error) {
	return f.rebuildStringsArgs(minLength, 0)
}

func (f *Funcs) rebuildStringsArgs(minLength int64, typeMask int64) (int64, error) {
	if err := f.Adapter.RebuildStrings(int(minLength), int(typeMask)); err != nil {
		return 0, err
	}
	return 1, nil
}

func (f *Funcs) saveDatabase() (int64, error) {
	ok, err := f.Adapter.SaveDatabase()
	if err != nil {
		return 0, err
	}
	return boolToInt64(ok), nil
}

func (f *Funcs) configSet(key string, value string) (int64, error) {
	var on bool
	switch value {
	case "on", "1", "true":
		on = true
	case "off", "0", "false":
		on = false
	default:
		return 0, errs.New("config", errs.InvalidArgument, nil)
	}
	if !f.Settings.Set(key, on) {
		return 0, errs.New("config", errs.InvalidArgument, nil)
	}
	return 1, nil
}

// xrefsTo / xrefsFrom are implemented here rather than delegated to
// internal/tables to keep sqlfuncs decoupled from the vtab layer; the
// filtering logic mirrors tables/xrefs.go's dual-direction scan.
func (f *Funcs) xrefsTo(ea int64) (string, error) {
	target := workspace.EA(ea)
	var addrs []int64
	err := f.Adapter.ForEach(workspace.KindXref, func(e any) bool {
		x := e.(workspace.Xref)
		if x.ToEA == target {
			addrs = append(addrs, int64(x.FromEA))
		}
		return true
	})
	if err != nil {
		return "", err
	}
	return marshalJSON(jsonAddrList(addrs))
}

func (f *Funcs) xrefsFrom(ea int64) (string, error) {
	src := workspace.EA(ea)
	var addrs []int64
	err := f.Adapter.ForEach(workspace.KindXref, func(e any) bool {
		x := e.(workspace.Xref)
		if x.FromEA == src {
			addrs = append(addrs, int64(x.ToEA))
		}
		return true
	})
	if err != nil {
		return "", err
	}
	return marshalJSON(jsonAddrList(addrs))
}

func jsonAddrList(addrs []int64) []map[string]any {
	return util.TransformSlice(addrs, func(a int64) map[string]any {
		return map[string]any{"address": a}
	})
}
