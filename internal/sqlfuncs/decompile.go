package sqlfuncs

import (
	"context"
	"strconv"
	"strings"

	"github.com/allthingsida/idasql/internal/util"
	"github.com/allthingsida/idasql/internal/workspace"
)

// decompile forces or reuses a cached decompilation (spec §4.D
// "decompile(ea[, force])"); the rows it produces are queried through
// the pseudocode/ctree* tables, not returned here — this scalar just
// reports whether decompilation succeeded.
func (f *Funcs) decompile(ea int64) (int64, error) {
	return f.decompileForce(ea, 0)
}

func (f *Funcs) decompileForce(ea int64, force int64) (int64, error) {
	_, err := nullOnNotFound(f.Adapter.Decompile(context.Background(), workspace.EA(ea), f.effectiveForce(force != 0)))
	if err != nil {
		return 0, err
	}
	return 1, nil
}

// effectiveForce ORs an explicit force request with the session's
// cache policy (spec §4.G "Cache: when false, ... decompiled results
// are not reused across calls"): disabling the cache makes every
// Decompile call behave as if force were set, even when a caller
// passes force=0 expecting the host's cache to be consulted.
func (f *Funcs) effectiveForce(force bool) bool {
	return force || !f.Settings.CacheEnabled()
}

func (f *Funcs) listLvars(ea int64) (string, error) {
	d, err := nullOnNotFound(f.Adapter.Decompile(context.Background(), workspace.EA(ea), f.effectiveForce(false)))
	if err != nil || d == nil {
		return "", err
	}
	type lvarJSON struct {
		Idx      int    `json:"idx"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Size     int    `json:"size"`
		IsArg    bool   `json:"is_arg"`
		IsStkVar bool   `json:"is_stk_var"`
	}
	out := util.TransformSlice(d.Lvars, func(lv workspace.LocalVar) lvarJSON {
		return lvarJSON{lv.Idx, lv.Name, lv.Type, lv.Size, lv.IsArg, lv.IsStkVar}
	})
	return marshalJSON(out)
}

// renameLvar decompiles to resolve the local-variable index backing
// old, then applies SetLvarName; the next read of the function's
// pseudocode/ctree_lvars re-decompiles and reflects the new name.
func (f *Funcs) renameLvar(ea int64, oldName string, newName string) (int64, error) {
	addr := workspace.EA(ea)
	d, err := f.Adapter.Decompile(context.Background(), addr, f.effectiveForce(false))
	if err != nil {
		return 0, err
	}
	for _, lv := range d.Lvars {
		if lv.Name == oldName {
			if err := f.Adapter.SetLvarName(addr, lv.Idx, newName); err != nil {
				return 0, err
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (f *Funcs) decodeInsn(ea int64) (string, error) {
	insn, err := nullOnNotFound(f.Adapter.DecodeInstruction(workspace.EA(ea)))
	if err != nil || insn == nil {
		return "", err
	}
	return marshalJSON(struct {
		EA       int64    `json:"ea"`
		IType    int      `json:"itype"`
		Size     int      `json:"size"`
		Mnemonic string   `json:"mnemonic"`
		Operands []string `json:"operands"`
	}{int64(insn.EA), insn.IType, insn.Size, insn.Mnemonic, insn.Operands})
}

// operandType/operandValue classify an operand by its disassembly
// text rather than a structured operand-kind from the adapter, the
// same best-effort heuristic internal/tables/disasm.go uses for call
// targets: the adapter exposes operands as rendered text, not a typed
// operand union.
func (f *Funcs) operandType(ea int64, i int64) (*string, error) {
	insn, err := nullOnNotFound(f.Adapter.DecodeInstruction(workspace.EA(ea)))
	if err != nil || insn == nil || i < 0 || int(i) >= len(insn.Operands) {
		return nil, err
	}
	s := classifyOperand(insn.Operands[i])
	return &s, nil
}

func (f *Funcs) operandValue(ea int64, i int64) (*int64, error) {
	insn, err := nullOnNotFound(f.Adapter.DecodeInstruction(workspace.EA(ea)))
	if err != nil || insn == nil || i < 0 || int(i) >= len(insn.Operands) {
		return nil, err
	}
	v, ok := parseOperandHex(insn.Operands[i])
	if !ok {
		return nil, nil
	}
	r := int64(v)
	return &r, nil
}

func classifyOperand(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		return "mem"
	}
	if _, ok := parseOperandHex(s); ok {
		return "imm"
	}
	return "reg"
}

func parseOperandHex(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "h")
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
