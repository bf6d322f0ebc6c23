package sqlfuncs

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/allthingsida/idasql/internal/workspace"
)

// walkAllInstructions mirrors internal/tables/walk.go's per-function
// decode loop over every function in the workspace, for the full-
// listing generators below.
func walkAllInstructions(a workspace.Adapter, fn func(f workspace.Function, in workspace.DecodedInsn)) {
	n := a.Qty(workspace.KindFunction)
	for i := 0; i < n; i++ {
		e, err := a.AtIndex(workspace.KindFunction, i)
		if err != nil {
			continue
		}
		f := e.(workspace.Function)
		ea := f.EA
		for ea < f.EndEA {
			insn, err := a.DecodeInstruction(ea)
			if err != nil {
				next, nerr := a.NextHead(ea)
				if nerr != nil || next <= ea || next >= f.EndEA {
					break
				}
				ea = next
				continue
			}
			fn(f, *insn)
			if insn.Size <= 0 {
				break
			}
			ea += workspace.EA(insn.Size)
		}
	}
}

// genAsmFile writes a flat disassembly listing, one line per
// instruction, grouped by function (spec §4.D "gen_asm_file").
func (f *Funcs) genAsmFile(path string) (int64, error) {
	var b strings.Builder
	started := false
	var curFunc workspace.EA
	walkAllInstructions(f.Adapter, func(fn workspace.Function, in workspace.DecodedInsn) {
		line, err := f.Adapter.DisassembleLine(in.EA)
		if err != nil {
			line = in.Mnemonic
		}
		if !started || fn.EA != curFunc {
			fmt.Fprintf(&b, "%s:\n", fn.Name)
			started, curFunc = true, fn.EA
		}
		fmt.Fprintf(&b, "%s  %s\n", formatHex(int64(in.EA)), line)
	})
	return 1, os.WriteFile(path, []byte(b.String()), 0o644)
}

// genLstFile is the same walk rendered in IDA-style listing columns
// (address, bytes, mnemonic) rather than assembler source (spec §4.D
// "gen_lst_file").
func (f *Funcs) genLstFile(path string) (int64, error) {
	var b strings.Builder
	walkAllInstructions(f.Adapter, func(fn workspace.Function, in workspace.DecodedInsn) {
		bs, _ := f.Adapter.Bytes(in.EA, in.Size)
		fmt.Fprintf(&b, "%-12s %-20s %s\n", formatHex(int64(in.EA)), hexBytes(bs), in.Mnemonic)
	})
	return 1, os.WriteFile(path, []byte(b.String()), 0o644)
}

// genMapFile writes a symbol map: segments followed by functions,
// sorted by native iteration order (spec §4.D "gen_map_file").
func (f *Funcs) genMapFile(path string) (int64, error) {
	var b strings.Builder
	b.WriteString("Segments:\n")
	nSegs := f.Adapter.Qty(workspace.KindSegment)
	for i := 0; i < nSegs; i++ {
		e, err := f.Adapter.AtIndex(workspace.KindSegment, i)
		if err != nil {
			continue
		}
		s := e.(workspace.Segment)
		fmt.Fprintf(&b, "  %s %s %s\n", formatHex(int64(s.StartEA)), formatHex(int64(s.EndEA)), s.Name)
	}
	b.WriteString("Functions:\n")
	nFuncs := f.Adapter.Qty(workspace.KindFunction)
	for i := 0; i < nFuncs; i++ {
		e, err := f.Adapter.AtIndex(workspace.KindFunction, i)
		if err != nil {
			continue
		}
		fn := e.(workspace.Function)
		fmt.Fprintf(&b, "  %s %s\n", formatHex(int64(fn.EA)), fn.Name)
	}
	return 1, os.WriteFile(path, []byte(b.String()), 0o644)
}

// genIdcFile emits an IDC-style script that would replay every name
// and comment currently in the workspace (spec §4.D "gen_idc_file"),
// the same round-trip idea as internal/export's SQL dump but in the
// host's native scripting format.
func (f *Funcs) genIdcFile(path string) (int64, error) {
	var b strings.Builder
	b.WriteString("#include <idc.idc>\nstatic main() {\n")
	err := f.Adapter.ForEach(workspace.KindName, func(e any) bool {
		n := e.(workspace.Name)
		fmt.Fprintf(&b, "  set_name(%s, %q);\n", formatHex(int64(n.EA)), n.Name)
		return true
	})
	if err != nil {
		return 0, err
	}
	err = f.Adapter.ForEach(workspace.KindComment, func(e any) bool {
		c := e.(workspace.Comment)
		fmt.Fprintf(&b, "  set_cmt(%s, %q, %d);\n", formatHex(int64(c.EA)), c.Comment, boolToInt64(c.Repeatable))
		return true
	})
	if err != nil {
		return 0, err
	}
	b.WriteString("}\n")
	return 1, os.WriteFile(path, []byte(b.String()), 0o644)
}

// genHtmlFile writes a minimal syntax-free HTML table of the
// disassembly (spec §4.D "gen_html_file").
func (f *Funcs) genHtmlFile(path string) (int64, error) {
	var b strings.Builder
	b.WriteString("<html><body><table>\n")
	walkAllInstructions(f.Adapter, func(fn workspace.Function, in workspace.DecodedInsn) {
		line, err := f.Adapter.DisassembleLine(in.EA)
		if err != nil {
			line = in.Mnemonic
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>\n", formatHex(int64(in.EA)), htmlEscape(line))
	})
	b.WriteString("</table></body></html>\n")
	return 1, os.WriteFile(path, []byte(b.String()), 0o644)
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// genCfgDot renders a function's basic-block graph as Graphviz DOT
// (spec §4.D "gen_cfg_dot"), reusing BasicBlocks the same way
// internal/tables/blocks.go does.
func (f *Funcs) genCfgDot(funcEA int64) (string, error) {
	blocks, err := f.Adapter.BasicBlocks(context.Background(), workspace.EA(funcEA))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "digraph func_%s {\n", formatHex(funcEA))
	for _, blk := range blocks {
		fmt.Fprintf(&b, "  %q;\n", formatHex(int64(blk.StartEA)))
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func (f *Funcs) genCfgDotFile(funcEA int64, path string) (int64, error) {
	dot, err := f.genCfgDot(funcEA)
	if err != nil {
		return 0, err
	}
	return 1, os.WriteFile(path, []byte(dot), 0o644)
}

// genSchemaDot renders the fixed table/view catalog as a DOT graph
// (spec §4.D "gen_schema_dot"); edges are a static list of
// table-to-table key relationships (for example blocks/instructions to
// funcs, types_members to types), not derived from the view catalog's
// SQL text.
func (f *Funcs) genSchemaDot() string {
	var b strings.Builder
	b.WriteString("digraph schema {\n")
	for _, name := range schemaTableNames {
		fmt.Fprintf(&b, "  %q;\n", name)
	}
	for _, edge := range schemaEdges {
		fmt.Fprintf(&b, "  %q -> %q;\n", edge[0], edge[1])
	}
	b.WriteString("}\n")
	return b.String()
}

var schemaTableNames = []string{
	"funcs", "segments", "names", "entries", "imports", "strings", "xrefs",
	"blocks", "bookmarks", "comments", "breakpoints", "instructions",
	"fixups", "fchunks", "types", "types_members", "types_enum_values",
	"types_func_args", "pseudocode", "ctree", "ctree_lvars", "ctree_call_args",
	"disasm_calls", "disasm_loops",
}

var schemaEdges = [][2]string{
	{"blocks", "funcs"}, {"instructions", "funcs"}, {"pseudocode", "funcs"},
	{"ctree", "funcs"}, {"ctree_lvars", "ctree"}, {"ctree_call_args", "ctree"},
	{"types_members", "types"}, {"types_enum_values", "types"}, {"types_func_args", "types"},
	{"xrefs", "funcs"}, {"disasm_calls", "funcs"}, {"disasm_loops", "funcs"},
}

// DumpCtreeDebug pretty-prints a decompiled function's AST to stderr
// for interactive debugging, grounded on the teacher's pp.Println(root)
// AST dump (database/mysql/parser.go). Not wired to any SQL function —
// a developer-only helper, called from test code or a debugger.
func DumpCtreeDebug(d *workspace.Decompiled) {
	pp.Println(d)
}
