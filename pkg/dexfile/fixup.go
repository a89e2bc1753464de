package dexfile

import "fmt"

// remapCode rewrites the builder-assigned pool ids embedded in a code-unit
// stream into final sorted table indices. The remap slices are indexed by
// first-sight id and hold the final index. Branch offsets carry no pool id
// and pass through untouched.
func remapCode(insns []uint16, stringMap, typeMap, methodMap []int) error {
	for i := 0; i < len(insns); {
		op := Opcode(insns[i] & 0xFF)
		info, ok := insnTable[op]
		if !ok {
			return fmt.Errorf("%w: 0x%02X at unit %d", ErrUnknownOpcode, uint8(op), i)
		}
		if i+info.width > len(insns) {
			return fmt.Errorf("%w: %s at unit %d needs %d units, %d remain",
				ErrTruncatedCode, op, i, info.width, len(insns)-i)
		}
		if info.indexKind != IndexNone {
			var remap []int
			var pool string
			switch info.indexKind {
			case IndexString:
				remap, pool = stringMap, "string"
			case IndexType:
				remap, pool = typeMap, "type"
			case IndexMethod:
				remap, pool = methodMap, "method"
			}
			id := int(insns[i+info.indexUnit])
			if id >= len(remap) {
				return fmt.Errorf("%w: %s id %d in %s at unit %d (table has %d)",
					ErrUnknownPoolID, pool, id, op, i, len(remap))
			}
			final := remap[id]
			if final > 0xFFFF {
				return fmt.Errorf("%w: %s index %d in %s at unit %d",
					ErrIndexOverflow, pool, final, op, i)
			}
			insns[i+info.indexUnit] = uint16(final)
		}
		i += info.width
	}
	return nil
}
