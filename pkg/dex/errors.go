package dex

import (
	"errors"
	"fmt"
)

// All of these report programmer contract violations. Construction aborts
// as soon as one is detected; no partial or truncated artifact is ever
// produced, and retrying is not meaningful.
var (
	// ErrDoubleEncode reports a second Encode call on one MethodBuilder.
	ErrDoubleEncode = errors.New("method body already encoded")

	// ErrLabelBound reports binding a label that was already bound.
	ErrLabelBound = errors.New("label already bound")

	// ErrLabelUnbound reports a label that was referenced but never bound
	// anywhere in the body.
	ErrLabelUnbound = errors.New("label referenced but never bound")

	// ErrForeignLabel reports a label operand that was not allocated by
	// this method's MakeLabel.
	ErrForeignLabel = errors.New("label not allocated by this method")

	// ErrUnknownSymbol reports a string, type or method id that was never
	// interned by this builder.
	ErrUnknownSymbol = errors.New("symbol not interned by this builder")

	// ErrBadOperand reports an operand kind the operation cannot encode.
	ErrBadOperand = errors.New("operand kind not encodable for this operation")
)

// RangeError reports an operand that exceeds its instruction field's
// representable range. The encoder rejects such operands outright rather
// than truncating them.
type RangeError struct {
	Field string // which field overflowed, e.g. "register" or "immediate"
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d outside [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}
