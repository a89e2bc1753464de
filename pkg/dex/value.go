package dex

import "fmt"

// ValueKind discriminates the six operand kinds.
type ValueKind uint8

const (
	KindLocalRegister ValueKind = iota
	KindParameter
	KindImmediate
	KindStringRef
	KindLabel
	KindTypeRef
)

// String returns a human-readable name for the kind.
func (k ValueKind) String() string {
	switch k {
	case KindLocalRegister:
		return "local"
	case KindParameter:
		return "parameter"
	case KindImmediate:
		return "immediate"
	case KindStringRef:
		return "string"
	case KindLabel:
		return "label"
	case KindTypeRef:
		return "type"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is an immutable tagged operand: a register, parameter, immediate
// constant, string pool reference, label or type pool reference. Locals
// and parameters are separate kinds because a parameter's real register
// number is not known until all locals have been allocated.
type Value struct {
	kind  ValueKind
	value int
}

// Local returns an operand for local register id.
func Local(id int) Value { return Value{KindLocalRegister, id} }

// Parameter returns an operand for the method parameter at index id.
func Parameter(id int) Value { return Value{KindParameter, id} }

// Immediate returns a constant operand.
func Immediate(value int) Value { return Value{KindImmediate, value} }

// StringRef returns an operand referencing an interned string id.
func StringRef(id int) Value { return Value{KindStringRef, id} }

// Label returns an operand referencing a branch label id.
func Label(id int) Value { return Value{KindLabel, id} }

// TypeRef returns an operand referencing an interned type id.
func TypeRef(id int) Value { return Value{KindTypeRef, id} }

// Kind returns the operand kind.
func (v Value) Kind() ValueKind { return v.kind }

// Index returns the raw numeric payload: a register number, parameter
// index, pool id, label id, or the immediate value itself.
func (v Value) Index() int { return v.value }

func (v Value) IsRegister() bool  { return v.kind == KindLocalRegister }
func (v Value) IsParameter() bool { return v.kind == KindParameter }
func (v Value) IsImmediate() bool { return v.kind == KindImmediate }
func (v Value) IsString() bool    { return v.kind == KindStringRef }
func (v Value) IsLabel() bool     { return v.kind == KindLabel }
func (v Value) IsType() bool      { return v.kind == KindTypeRef }

// IsVariable reports whether the operand names a register, either a local
// or a parameter.
func (v Value) IsVariable() bool { return v.IsRegister() || v.IsParameter() }

// String renders the operand the way a disassembly would.
func (v Value) String() string {
	switch v.kind {
	case KindLocalRegister:
		return fmt.Sprintf("v%d", v.value)
	case KindParameter:
		return fmt.Sprintf("p%d", v.value)
	case KindImmediate:
		return fmt.Sprintf("#%d", v.value)
	case KindStringRef:
		return fmt.Sprintf("string@%d", v.value)
	case KindLabel:
		return fmt.Sprintf(":L%d", v.value)
	case KindTypeRef:
		return fmt.Sprintf("type@%d", v.value)
	default:
		return fmt.Sprintf("Value(%d, %d)", uint8(v.kind), v.value)
	}
}
