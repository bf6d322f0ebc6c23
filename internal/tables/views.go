package tables

// ViewDDL returns the fixed view catalog (spec §4.B "Views are plain
// SQL expressed over the virtual tables; they include callers,
// callees, string_refs, ctree_v_*, disasm_v_*, types_v_*"), installed
// at session open alongside the table registrations.
func ViewDDL() []string {
	return []string{
		`CREATE VIEW callers AS
			SELECT to_ea AS callee_ea, from_ea AS caller_ea
			FROM xrefs WHERE type = 'call' AND is_code = 1`,
		`CREATE VIEW callees AS
			SELECT from_ea AS caller_ea, to_ea AS callee_ea
			FROM xrefs WHERE type = 'call' AND is_code = 1`,
		`CREATE VIEW string_refs AS
			SELECT s.ea AS string_ea, x.from_ea AS ref_ea
			FROM strings s JOIN xrefs x ON x.to_ea = s.ea`,
		`CREATE VIEW ctree_v_calls AS SELECT * FROM ctree_call_args`,
		`CREATE VIEW ctree_v_lvars AS SELECT * FROM ctree_lvars`,
		`CREATE VIEW disasm_v_calls AS SELECT * FROM disasm_calls`,
		`CREATE VIEW disasm_v_loops AS SELECT * FROM disasm_loops`,
		`CREATE VIEW types_v_members AS
			SELECT t.name AS type_name, m.*
			FROM types_members m JOIN types t ON t.ordinal = m.type_ordinal`,
		`CREATE VIEW types_v_enum_values AS
			SELECT t.name AS type_name, e.*
			FROM types_enum_values e JOIN types t ON t.ordinal = e.type_ordinal`,
	}
}
