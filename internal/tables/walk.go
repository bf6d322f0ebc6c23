package tables

import (
	"strconv"
	"strings"

	"github.com/allthingsida/idasql/internal/workspace"
)

// walkFunctionInstructions decodes every instruction between f.EA and
// f.EndEA, advancing by insn.Size or next_head on decode failure (spec
// §4.C "instructions... iteration walks decode_instruction from
// func.start_ea to func.end_ea, advancing by insn.size or next_head on
// decode failure"). Shared by instructions, disasm_calls and
// disasm_loops, all of which walk the same function body.
func walkFunctionInstructions(a workspace.Adapter, f *workspace.Function) []workspace.Instruction {
	var out []workspace.Instruction
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
		out = append(out, workspace.Instruction{
			EA:       insn.EA,
			FuncEA:   f.EA,
			IType:    insn.IType,
			Mnemonic: insn.Mnemonic,
			Size:     insn.Size,
			Operands: insn.Operands,
		})
		if insn.Size <= 0 {
			break
		}
		ea += workspace.EA(insn.Size)
	}
	return out
}

// parseHexOperand pulls a hex address out of an operand's textual
// rendering. disasm_calls/disasm_loops use it to resolve a branch
// target without a full expression evaluator, since the adapter
// exposes operands as disassembly text rather than structured values.
func parseHexOperand(s string) (workspace.EA, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return workspace.EA(v), true
}

// isBranchMnemonic recognizes call/jump-family mnemonics by prefix,
// tolerant of both Intel-style ("jz", "jmp", "call") and generic
// disassembler naming.
func isBranchMnemonic(mnemonic string) bool {
	m := strings.ToLower(mnemonic)
	return strings.HasPrefix(m, "call") || strings.HasPrefix(m, "j") || strings.HasPrefix(m, "b")
}

func isCallMnemonic(mnemonic string) bool {
	return strings.HasPrefix(strings.ToLower(mnemonic), "call")
}
