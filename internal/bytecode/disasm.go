package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders obj as human-readable mnemonic text: one line per
// instruction, grouped by function-pool entry, with the constant pool
// listed up front. Used by `minilang disasm`; the VM's trace mode logs
// single instructions through TraceLine instead.
func Disassemble(obj *CodeObject) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "constants (%d):\n", len(obj.Constants))
	for i, c := range obj.Constants {
		fmt.Fprintf(&sb, "  %4d = %s\n", i, c.Repr())
	}

	for fi, fn := range obj.Functions {
		name := fmt.Sprintf("function[%d]", fi)
		if fi == 0 {
			name = "main"
		}
		fmt.Fprintf(&sb, "\n%s (argc=%d):\n", name, fn.ArgCount)
		sb.WriteString(DisassembleFunc(&fn))
	}

	return sb.String()
}

// DisassembleFunc renders a single function entry's instruction stream.
func DisassembleFunc(fn *FuncEntry) string {
	var sb strings.Builder
	code := fn.Code
	ip := 0
	for ip < len(code) {
		op := OpCode(code[ip])
		width := operandWidth(op)
		fmt.Fprintf(&sb, "  %04d  %-16s", ip, op.String())
		switch width {
		case 1:
			fmt.Fprintf(&sb, " %d", code[ip+1])
		case 2:
			fmt.Fprintf(&sb, " %d", readU16(code, ip+1))
		}
		sb.WriteString("\n")
		ip += 1 + width
	}
	return sb.String()
}

// TraceLine formats a single instruction about to execute, for the VM's
// opcode trace mode.
func TraceLine(fn *FuncEntry, ip int) string {
	op := OpCode(fn.Code[ip])
	width := operandWidth(op)
	switch width {
	case 1:
		return fmt.Sprintf("%04d  %-16s %d", ip, op.String(), fn.Code[ip+1])
	case 2:
		return fmt.Sprintf("%04d  %-16s %d", ip, op.String(), readU16(fn.Code, ip+1))
	default:
		return fmt.Sprintf("%04d  %-16s", ip, op.String())
	}
}
