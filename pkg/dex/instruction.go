package dex

import "fmt"

// Op is a virtual operation. Virtual instructions do not correspond
// one-to-one to Dalvik instructions: they carry information that is only
// resolvable during the encode pass, like parameter register numbers and
// branch target addresses.
type Op uint8

const (
	OpReturn Op = iota
	OpReturnObject
	OpMove
	OpInvokeVirtual
	OpInvokeDirect
	OpBindLabel
	OpBranchEqz
	OpNew
)

// String returns a human-readable name for the virtual op.
func (op Op) String() string {
	switch op {
	case OpReturn:
		return "return"
	case OpReturnObject:
		return "return-object"
	case OpMove:
		return "move"
	case OpInvokeVirtual:
		return "invoke-virtual"
	case OpInvokeDirect:
		return "invoke-direct"
	case OpBindLabel:
		return "bind-label"
	case OpBranchEqz:
		return "branch-eqz"
	case OpNew:
		return "new"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// Instruction is an immutable virtual instruction: an op, an optional
// callee method id, an optional destination operand, and ordered argument
// operands. Instructions are produced during body construction and
// consumed exactly once by the encode pass.
type Instruction struct {
	op       Op
	methodID int
	dest     Value
	hasDest  bool
	args     []Value
}

// OpNoArgs builds an instruction with no destination and no arguments.
func OpNoArgs(op Op) Instruction {
	return Instruction{op: op}
}

// OpWithArgs builds an instruction with an optional destination (nil for
// none) and ordered arguments.
func OpWithArgs(op Op, dest *Value, args ...Value) Instruction {
	inst := Instruction{op: op, args: append([]Value(nil), args...)}
	if dest != nil {
		inst.dest = *dest
		inst.hasDest = true
	}
	return inst
}

// InvokeVirtual builds a virtual method call on the method id returned by
// DexBuilder.GetOrDeclareMethod. The receiver is the first argument.
func InvokeVirtual(methodID int, dest *Value, receiver Value, args ...Value) Instruction {
	return invoke(OpInvokeVirtual, methodID, dest, receiver, args)
}

// InvokeDirect builds a direct call, which is how constructors are
// invoked. The receiver is the first argument.
func InvokeDirect(methodID int, dest *Value, receiver Value, args ...Value) Instruction {
	return invoke(OpInvokeDirect, methodID, dest, receiver, args)
}

func invoke(op Op, methodID int, dest *Value, receiver Value, args []Value) Instruction {
	all := make([]Value, 0, len(args)+1)
	all = append(all, receiver)
	all = append(all, args...)
	inst := Instruction{op: op, methodID: methodID, args: all}
	if dest != nil {
		inst.dest = *dest
		inst.hasDest = true
	}
	return inst
}

// Opcode returns the virtual op.
func (i Instruction) Opcode() Op { return i.op }

// MethodID returns the callee method id for invoke instructions.
func (i Instruction) MethodID() int { return i.methodID }

// Dest returns the destination operand, if any.
func (i Instruction) Dest() (Value, bool) { return i.dest, i.hasDest }

// Args returns the ordered argument operands. The returned slice is owned
// by the instruction and must not be modified.
func (i Instruction) Args() []Value { return i.args }

// String renders the instruction for error messages and debugging.
func (i Instruction) String() string {
	s := i.op.String()
	if i.hasDest {
		s += " " + i.dest.String()
	}
	for _, a := range i.args {
		s += " " + a.String()
	}
	if i.op == OpInvokeVirtual || i.op == OpInvokeDirect {
		s += fmt.Sprintf(" meth@%d", i.methodID)
	}
	return s
}
