package dexfile

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a code-unit stream for
// the emitter's opcode subset. Offsets are in code units. Pool references
// are printed as raw indices; whether those are builder ids or final
// table indices depends on whether the image has been created yet.
func Disassemble(insns []uint16) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(insns); {
		op := Opcode(insns[i] & 0xFF)
		info, ok := insnTable[op]
		if !ok {
			return "", fmt.Errorf("%w: 0x%02X at unit %d", ErrUnknownOpcode, uint8(op), i)
		}
		if i+info.width > len(insns) {
			return "", fmt.Errorf("%w: %s at unit %d", ErrTruncatedCode, op, i)
		}
		sb.WriteString(fmt.Sprintf("%04x: ", i))
		sb.WriteString(formatInsn(op, insns[i:i+info.width], i))
		sb.WriteByte('\n')
		i += info.width
	}
	return sb.String(), nil
}

func formatInsn(op Opcode, units []uint16, offset int) string {
	u := units[0]
	switch op {
	case OpNop, OpReturnVoid:
		return op.String()
	case OpMove, OpMoveObject:
		return fmt.Sprintf("%s v%d, v%d", op, u>>8&0xF, u>>12&0xF)
	case OpReturn, OpReturnWide, OpReturnObject:
		return fmt.Sprintf("%s v%d", op, u>>8)
	case OpConst4:
		imm := int8(u>>8) >> 4 // sign-extend the top nibble
		return fmt.Sprintf("%s v%d, #%+d", op, u>>8&0xF, imm)
	case OpConstString:
		return fmt.Sprintf("%s v%d, string@%d", op, u>>8, units[1])
	case OpNewInstance:
		return fmt.Sprintf("%s v%d, type@%d", op, u>>8, units[1])
	case OpIfEqz:
		rel := int(int16(units[1]))
		return fmt.Sprintf("%s v%d, %+d ; -> %04x", op, u>>8, rel, offset+rel)
	case OpInvokeVirtual, OpInvokeDirect:
		count := int(u >> 12 & 0xF)
		regs := []uint16{
			units[2] & 0xF, units[2] >> 4 & 0xF, units[2] >> 8 & 0xF, units[2] >> 12 & 0xF,
			u >> 8 & 0xF,
		}
		parts := make([]string, 0, count)
		for j := 0; j < count; j++ {
			parts = append(parts, fmt.Sprintf("v%d", regs[j]))
		}
		return fmt.Sprintf("%s {%s}, meth@%d", op, strings.Join(parts, ", "), units[1])
	default:
		return op.String()
	}
}
