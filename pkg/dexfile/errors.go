package dexfile

import "errors"

var (
	// ErrImageWritten reports a second CreateImage call on the same DexFile.
	ErrImageWritten = errors.New("image already created for this dex file")

	// ErrUnknownOpcode reports a code unit the writer cannot walk.
	ErrUnknownOpcode = errors.New("unknown opcode in code item")

	// ErrTruncatedCode reports a code item ending mid-instruction.
	ErrTruncatedCode = errors.New("truncated instruction in code item")

	// ErrUnknownPoolID reports a pool id never declared on this dex file.
	ErrUnknownPoolID = errors.New("pool id not declared on this dex file")

	// ErrIndexOverflow reports a final table index too large for its
	// instruction field or id item field.
	ErrIndexOverflow = errors.New("table index exceeds field width")
)
