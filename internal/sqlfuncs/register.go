package sqlfuncs

import (
	"github.com/mattn/go-sqlite3"

	"github.com/allthingsida/idasql/internal/policy"
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
)

// RegisterAll installs every scalar function and the jump_entities TVF
// on conn (spec §4.E "open(workspace) — install virtual-table modules,
// scalar functions, and the view catalog"). Functions overloaded by
// arity (disasm/1 and /2, decompile/1 and /2, ...) are registered
// twice under the same SQL name: mattn/go-sqlite3 forwards each
// registration to sqlite3_create_function keyed by (name, nArg), so
// SQLite picks the matching arity at call time.
func RegisterAll(conn *sqlite3.SQLiteConn, a workspace.Adapter, settings *policy.Settings) error {
	f := New(a, settings)

	// pure marks functions safe for SQLite to treat as deterministic
	// given the current workspace snapshot; mutating calls (set_*,
	// decompile(force), rename_lvar, rebuild_strings, save_database,
	// gen_*_file, config) are registered non-pure so the planner never
	// assumes it can skip or reorder them (spec §7 propagation policy).
	funcs := []struct {
		name string
		impl any
		pure bool
	}{
		{"disasm", f.disasm, true},
		{"disasm", f.disasmN, true},
		{"bytes", f.bytesHex, true},
		{"bytes_raw", f.bytesRaw, true},
		{"mnemonic", f.mnemonic, true},
		{"operand", f.operand, true},
		{"name_at", f.nameAt, true},
		{"func_at", f.funcAt, true},
		{"func_start", f.funcStart, true},
		{"func_end", f.funcEnd, true},
		{"func_qty", f.funcQty, true},
		{"func_at_index", f.funcAtIndex, true},
		{"xrefs_to", f.xrefsTo, true},
		{"xrefs_from", f.xrefsFrom, true},
		{"next_head", f.nextHead, true},
		{"prev_head", f.prevHead, true},
		{"segment_at", f.segmentAt, true},
		{"comment_at", f.commentAt, true},
		{"set_comment", f.setComment, false},
		{"set_comment", f.setCommentRep, false},
		{"set_name", f.setName, false},
		{"item_type", f.itemType, true},
		{"item_size", f.itemSize, true},
		{"is_code", f.isCode, true},
		{"is_data", f.isData, true},
		{"flags_at", f.flagsAt, true},
		{"itype", f.itype, true},
		{"decode_insn", f.decodeInsn, true},
		{"operand_type", f.operandType, true},
		{"operand_value", f.operandValue, true},
		{"decompile", f.decompile, false},
		{"decompile", f.decompileForce, false},
		{"list_lvars", f.listLvars, true},
		{"rename_lvar", f.renameLvar, false},
		{"string_count", f.stringCount, true},
		{"rebuild_strings", f.rebuildStrings, false},
		{"rebuild_strings", f.rebuildStringsMin, false},
		{"rebuild_strings", f.rebuildStringsArgs, false},
		{"save_database", f.saveDatabase, false},
		{"gen_asm_file", f.genAsmFile, false},
		{"gen_lst_file", f.genLstFile, false},
		{"gen_map_file", f.genMapFile, false},
		{"gen_idc_file", f.genIdcFile, false},
		{"gen_html_file", f.genHtmlFile, false},
		{"gen_cfg_dot", f.genCfgDot, true},
		{"gen_cfg_dot_file", f.genCfgDotFile, false},
		{"gen_schema_dot", f.genSchemaDot, true},
		{"hex", f.hex, true},
		{"search_bytes", f.searchBytes, true},
		{"search_bytes", f.searchBytesRange, true},
		{"search_first", f.searchFirst, true},
		{"search_first", f.searchFirstRange, true},
		{"jump_search", f.jumpSearch, true},
		{"jump_query", f.jumpQuery, true},
		{"config", f.configSet, false},
	}

	for _, fn := range funcs {
		if err := conn.RegisterFunc(fn.name, fn.impl, fn.pure); err != nil {
			return err
		}
	}

	return vtab.Register(conn, jumpEntitiesTable(a))
}
