package dex

import "github.com/chazu/dexgen/pkg/dexfile"

// Low-level instruction format packers. Each packs operands into 16-bit
// code units for one Dalvik format family; field widths are fixed by the
// format and out-of-range operands are rejected, never truncated. See
// https://source.android.com/devices/tech/dalvik/instruction-formats for
// the format reference.

// encode10x packs the no-operand format: 00|op.
func encode10x(op dexfile.Opcode) uint16 {
	return uint16(op)
}

// encode11x packs a single 8-bit register: AA|op.
func encode11x(op dexfile.Opcode, a int) (uint16, error) {
	if a < 0 || a > 0xFF {
		return 0, &RangeError{Field: "register", Value: a, Min: 0, Max: 0xFF}
	}
	return uint16(a)<<8 | uint16(op), nil
}

// encode11n packs a 4-bit register and a signed 4-bit immediate: B|A|op.
func encode11n(op dexfile.Opcode, a, b int) (uint16, error) {
	if a < 0 || a > 0xF {
		return 0, &RangeError{Field: "register", Value: a, Min: 0, Max: 0xF}
	}
	if b < -8 || b > 7 {
		return 0, &RangeError{Field: "immediate", Value: b, Min: -8, Max: 7}
	}
	return uint16(b&0xF)<<12 | uint16(a)<<8 | uint16(op), nil
}

// encode21c packs an 8-bit register and a 16-bit pool index or branch
// offset: AA|op BBBB.
func encode21c(op dexfile.Opcode, a, b int) ([]uint16, error) {
	if a < 0 || a > 0xFF {
		return nil, &RangeError{Field: "register", Value: a, Min: 0, Max: 0xFF}
	}
	if b < 0 || b > 0xFFFF {
		return nil, &RangeError{Field: "index", Value: b, Min: 0, Max: 0xFFFF}
	}
	return []uint16{uint16(a)<<8 | uint16(op), uint16(b)}, nil
}

// encode35c packs an invoke: up to five 4-bit argument registers and a
// 16-bit method index: A|G|op BBBB F|E|D|C.
func encode35c(op dexfile.Opcode, b int, regs []int) ([]uint16, error) {
	if len(regs) > 5 {
		return nil, &RangeError{Field: "argument count", Value: len(regs), Min: 0, Max: 5}
	}
	if b < 0 || b > 0xFFFF {
		return nil, &RangeError{Field: "index", Value: b, Min: 0, Max: 0xFFFF}
	}
	var nibbles [5]uint16
	for i, r := range regs {
		if r < 0 || r > 0xF {
			return nil, &RangeError{Field: "register", Value: r, Min: 0, Max: 0xF}
		}
		nibbles[i] = uint16(r)
	}
	return []uint16{
		uint16(len(regs))<<12 | nibbles[4]<<8 | uint16(op),
		uint16(b),
		nibbles[3]<<12 | nibbles[2]<<8 | nibbles[1]<<4 | nibbles[0],
	}, nil
}
