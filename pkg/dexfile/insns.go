package dexfile

import "fmt"

// Opcode is a concrete Dalvik opcode byte. Only the opcodes the emitter
// produces are listed; the writer rejects anything else during index fixup.
type Opcode uint8

const (
	// ========================================================================
	// Data movement (0x00-0x1F)
	// ========================================================================

	OpNop          Opcode = 0x00 // No operation
	OpMove         Opcode = 0x01 // move vA, vB
	OpMoveObject   Opcode = 0x07 // move-object vA, vB
	OpReturnVoid   Opcode = 0x0E // return-void
	OpReturn       Opcode = 0x0F // return vAA
	OpReturnWide   Opcode = 0x10 // return-wide vAA
	OpReturnObject Opcode = 0x11 // return-object vAA
	OpConst4       Opcode = 0x12 // const/4 vA, #+B
	OpConstString  Opcode = 0x1A // const-string vAA, string@BBBB

	// ========================================================================
	// Objects (0x20-0x2F)
	// ========================================================================

	OpNewInstance Opcode = 0x22 // new-instance vAA, type@BBBB

	// ========================================================================
	// Branches (0x32-0x3D)
	// ========================================================================

	OpIfEqz Opcode = 0x38 // if-eqz vAA, +BBBB

	// ========================================================================
	// Invocation (0x6E-0x78)
	// ========================================================================

	OpInvokeVirtual Opcode = 0x6E // invoke-virtual {vC..vG}, meth@BBBB
	OpInvokeDirect  Opcode = 0x70 // invoke-direct {vC..vG}, meth@BBBB
)

// String returns the standard Dalvik mnemonic for the opcode.
func (op Opcode) String() string {
	switch op {
	case OpNop:
		return "nop"
	case OpMove:
		return "move"
	case OpMoveObject:
		return "move-object"
	case OpReturnVoid:
		return "return-void"
	case OpReturn:
		return "return"
	case OpReturnWide:
		return "return-wide"
	case OpReturnObject:
		return "return-object"
	case OpConst4:
		return "const/4"
	case OpConstString:
		return "const-string"
	case OpNewInstance:
		return "new-instance"
	case OpIfEqz:
		return "if-eqz"
	case OpInvokeVirtual:
		return "invoke-virtual"
	case OpInvokeDirect:
		return "invoke-direct"
	default:
		return fmt.Sprintf("Opcode(0x%02X)", uint8(op))
	}
}

// IndexKind identifies which constant pool an instruction's index
// operand refers to. The writer needs this to rewrite builder-assigned
// ids into final sorted table indices.
type IndexKind uint8

const (
	IndexNone   IndexKind = 0
	IndexString IndexKind = 1
	IndexType   IndexKind = 2
	IndexMethod IndexKind = 3
)

// insnInfo describes the shape of one concrete instruction: its width in
// 16-bit code units and, if it carries a pool index, which pool and which
// code unit holds the index. Branch offsets are not pool indices and are
// left untouched by fixup.
type insnInfo struct {
	width     int
	indexKind IndexKind
	indexUnit int // code-unit offset of the index field within the instruction
}

var insnTable = map[Opcode]insnInfo{
	OpNop:           {width: 1},
	OpMove:          {width: 1},
	OpMoveObject:    {width: 1},
	OpReturnVoid:    {width: 1},
	OpReturn:        {width: 1},
	OpReturnWide:    {width: 1},
	OpReturnObject:  {width: 1},
	OpConst4:        {width: 1},
	OpConstString:   {width: 2, indexKind: IndexString, indexUnit: 1},
	OpNewInstance:   {width: 2, indexKind: IndexType, indexUnit: 1},
	OpIfEqz:         {width: 2},
	OpInvokeVirtual: {width: 3, indexKind: IndexMethod, indexUnit: 1},
	OpInvokeDirect:  {width: 3, indexKind: IndexMethod, indexUnit: 1},
}

// Width returns the instruction's size in code units, or an error for an
// opcode the writer does not know how to walk.
func (op Opcode) Width() (int, error) {
	info, ok := insnTable[op]
	if !ok {
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, uint8(op))
	}
	return info.width, nil
}
