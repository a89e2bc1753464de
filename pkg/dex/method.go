package dex

import (
	"fmt"

	"github.com/chazu/dexgen/pkg/dexfile"
)

// labelReference is a pending patch site for a forward label reference:
// the buffer offset where the referring instruction starts and the offset
// of the branch field within it, both in code units.
type labelReference struct {
	instructionOffset int
	fieldOffset       int
}

// labelData tracks one label: its bound address once known, and every
// patch site waiting on it. Labels and instructions never point at each
// other directly, only via buffer offsets.
type labelData struct {
	boundAddress int
	bound        bool
	references   []labelReference
}

// MethodBuilder accumulates a method body as virtual instructions and
// encodes it into code units. One instance builds one method; the Encode
// pass runs exactly once.
type MethodBuilder struct {
	dex   *DexBuilder
	class *dexfile.Class
	decl  *dexfile.MethodDecl

	instructions []Instruction
	buffer       []uint16
	numRegisters int
	labels       []labelData

	// Largest argument count across all calls in the body, used to size
	// the frame's outs area.
	maxArgs int

	encoded bool
}

func newMethodBuilder(dex *DexBuilder, class *dexfile.Class, decl *dexfile.MethodDecl) *MethodBuilder {
	return &MethodBuilder{dex: dex, class: class, decl: decl}
}

// MakeRegister allocates a fresh local register, numbered from 0. These
// are not SSA registers: there is no liveness tracking and no reuse, so
// callers manage register pressure themselves.
func (m *MethodBuilder) MakeRegister() Value {
	r := Local(m.numRegisters)
	m.numRegisters++
	return r
}

// MakeLabel allocates a fresh unbound label for branch targets.
func (m *MethodBuilder) MakeLabel() Value {
	l := Label(len(m.labels))
	m.labels = append(m.labels, labelData{})
	return l
}

// AddInstruction appends a virtual instruction. Call order is program
// order; nothing in the pipeline reorders.
func (m *MethodBuilder) AddInstruction(inst Instruction) {
	m.instructions = append(m.instructions, inst)
}

// BuildReturn emits return-void.
func (m *MethodBuilder) BuildReturn() {
	m.AddInstruction(OpNoArgs(OpReturn))
}

// BuildReturnValue emits a return of a primitive value.
func (m *MethodBuilder) BuildReturnValue(src Value) {
	m.AddInstruction(OpWithArgs(OpReturn, nil, src))
}

// BuildReturnObject emits a return of an object reference.
func (m *MethodBuilder) BuildReturnObject(src Value) {
	m.AddInstruction(OpWithArgs(OpReturnObject, nil, src))
}

// BuildConst4 loads a small constant (-8..7) into target.
func (m *MethodBuilder) BuildConst4(target Value, value int) {
	m.AddInstruction(OpWithArgs(OpMove, &target, Immediate(value)))
}

// BuildConstString loads an interned string constant into target.
func (m *MethodBuilder) BuildConstString(target Value, value string) {
	id := m.dex.GetOrAddString(value).Index
	m.AddInstruction(OpWithArgs(OpMove, &target, StringRef(id)))
}

// BuildBranchEqz branches to label if src is zero.
func (m *MethodBuilder) BuildBranchEqz(src, label Value) {
	m.AddInstruction(OpWithArgs(OpBranchEqz, nil, src, label))
}

// BindLabel marks label as referring to the position after the previously
// added instruction. The actual binding and back-patching happen during
// the encode pass.
func (m *MethodBuilder) BindLabel(label Value) {
	m.AddInstruction(OpWithArgs(OpBindLabel, nil, label))
}

// BuildNew allocates an instance of t in target and invokes the
// constructor matching the given prototype on it. The allocation and the
// constructor call are emitted as a pair; nothing may observe the body
// with one but not the other.
func (m *MethodBuilder) BuildNew(target Value, t TypeDescriptor, constructor Prototype, args ...Value) {
	typeID := m.dex.GetOrAddType(t).Index
	ctor := m.dex.GetOrDeclareMethod(t, "<init>", constructor)
	m.AddInstruction(OpWithArgs(OpNew, &target, TypeRef(typeID)))
	m.AddInstruction(InvokeDirect(ctor.ID, nil, target, args...))
}

// Encode runs the single left-to-right encode pass: each virtual
// instruction is resolved to exactly one concrete format, parameter
// operands get their final register numbers, and label references are
// back-patched as labels are bound. The finished body is attached to the
// owning class and handed back. Calling Encode a second time is a
// contract violation, not an idempotent operation.
func (m *MethodBuilder) Encode() (*dexfile.EncodedMethod, error) {
	name := m.decl.Class.Descriptor.Value + "." + m.decl.Name.Value
	if m.encoded {
		return nil, fmt.Errorf("%s: %w", name, ErrDoubleEncode)
	}
	m.encoded = true

	for i, inst := range m.instructions {
		if err := m.encodeInstruction(inst); err != nil {
			return nil, fmt.Errorf("%s: instruction %d (%s): %w", name, i, inst, err)
		}
	}
	for id := range m.labels {
		if len(m.labels[id].references) > 0 {
			return nil, fmt.Errorf("%s: label %d: %w", name, id, ErrLabelUnbound)
		}
	}

	paramCount := len(m.decl.Prototype.ParamTypes)
	em := &dexfile.EncodedMethod{
		Decl:   m.decl,
		Access: dexfile.AccPublic,
		Code: &dexfile.Code{
			Registers:    m.numRegisters + paramCount,
			InsCount:     paramCount,
			OutsCount:    m.maxArgs,
			Instructions: m.buffer,
		},
	}
	if m.decl.Name.Value == "<init>" {
		em.Access |= dexfile.AccConstructor
		m.class.AddDirectMethod(em)
	} else {
		m.class.AddVirtualMethod(em)
	}
	return em, nil
}

func (m *MethodBuilder) encodeInstruction(inst Instruction) error {
	switch inst.Opcode() {
	case OpReturn:
		return m.encodeReturn(inst, dexfile.OpReturn)
	case OpReturnObject:
		return m.encodeReturn(inst, dexfile.OpReturnObject)
	case OpMove:
		return m.encodeMove(inst)
	case OpInvokeVirtual:
		return m.encodeInvoke(inst, dexfile.OpInvokeVirtual)
	case OpInvokeDirect:
		return m.encodeInvoke(inst, dexfile.OpInvokeDirect)
	case OpBindLabel:
		return m.bindLabel(inst.Args()[0])
	case OpBranchEqz:
		return m.encodeBranch(inst, dexfile.OpIfEqz)
	case OpNew:
		return m.encodeNew(inst)
	default:
		return fmt.Errorf("%w: no encoding for op %s", ErrBadOperand, inst.Opcode())
	}
}

// registerValue resolves an operand to its final register number. Locals
// resolve to their allocation id; parameters occupy the highest-numbered
// registers of the frame, after all locals.
func (m *MethodBuilder) registerValue(v Value) (int, error) {
	switch {
	case v.IsRegister():
		return v.Index(), nil
	case v.IsParameter():
		return m.numRegisters + v.Index(), nil
	default:
		return 0, fmt.Errorf("%w: %s is not a register", ErrBadOperand, v)
	}
}

func (m *MethodBuilder) encodeReturn(inst Instruction, op dexfile.Opcode) error {
	if len(inst.Args()) == 0 {
		m.buffer = append(m.buffer, encode10x(dexfile.OpReturnVoid))
		return nil
	}
	reg, err := m.registerValue(inst.Args()[0])
	if err != nil {
		return err
	}
	unit, err := encode11x(op, reg)
	if err != nil {
		return err
	}
	m.buffer = append(m.buffer, unit)
	return nil
}

// encodeMove selects the concrete constant-load form by source kind:
// immediates become const/4 and string references become const-string.
// Other source kinds are rejected rather than guessed at.
func (m *MethodBuilder) encodeMove(inst Instruction) error {
	dest, ok := inst.Dest()
	if !ok {
		return fmt.Errorf("%w: move needs a destination", ErrBadOperand)
	}
	reg, err := m.registerValue(dest)
	if err != nil {
		return err
	}
	src := inst.Args()[0]
	switch {
	case src.IsImmediate():
		unit, err := encode11n(dexfile.OpConst4, reg, src.Index())
		if err != nil {
			return err
		}
		m.buffer = append(m.buffer, unit)
		return nil
	case src.IsString():
		if src.Index() >= len(m.dex.file.Strings) {
			return fmt.Errorf("%w: string id %d", ErrUnknownSymbol, src.Index())
		}
		units, err := encode21c(dexfile.OpConstString, reg, src.Index())
		if err != nil {
			return err
		}
		m.buffer = append(m.buffer, units...)
		return nil
	default:
		return fmt.Errorf("%w: move from %s operand", ErrBadOperand, src.Kind())
	}
}

func (m *MethodBuilder) encodeInvoke(inst Instruction, op dexfile.Opcode) error {
	if inst.MethodID() >= len(m.dex.file.MethodDecls) {
		return fmt.Errorf("%w: method id %d", ErrUnknownSymbol, inst.MethodID())
	}
	regs := make([]int, len(inst.Args()))
	for i, arg := range inst.Args() {
		reg, err := m.registerValue(arg)
		if err != nil {
			return err
		}
		regs[i] = reg
	}
	units, err := encode35c(op, inst.MethodID(), regs)
	if err != nil {
		return err
	}
	m.buffer = append(m.buffer, units...)
	if len(regs) > m.maxArgs {
		m.maxArgs = len(regs)
	}
	return nil
}

func (m *MethodBuilder) encodeBranch(inst Instruction, op dexfile.Opcode) error {
	reg, err := m.registerValue(inst.Args()[0])
	if err != nil {
		return err
	}
	// The offset field is the second code unit of the instruction. The
	// label must be resolved before the units are appended so the patch
	// site records this instruction's start offset.
	offset, err := m.labelValue(inst.Args()[1], len(m.buffer), 1)
	if err != nil {
		return err
	}
	units, err := encode21c(op, reg, int(offset))
	if err != nil {
		return err
	}
	m.buffer = append(m.buffer, units...)
	return nil
}

func (m *MethodBuilder) encodeNew(inst Instruction) error {
	dest, ok := inst.Dest()
	if !ok {
		return fmt.Errorf("%w: new needs a destination", ErrBadOperand)
	}
	t := inst.Args()[0]
	if !t.IsType() {
		return fmt.Errorf("%w: new from %s operand", ErrBadOperand, t.Kind())
	}
	if t.Index() >= len(m.dex.file.Types) {
		return fmt.Errorf("%w: type id %d", ErrUnknownSymbol, t.Index())
	}
	reg, err := m.registerValue(dest)
	if err != nil {
		return err
	}
	units, err := encode21c(dexfile.OpNewInstance, reg, t.Index())
	if err != nil {
		return err
	}
	m.buffer = append(m.buffer, units...)
	return nil
}

// labelValue returns the branch field value for a label reference made by
// the instruction starting at instructionOffset. A bound label yields the
// relative offset immediately; an unbound one yields a placeholder and
// records a patch site at instructionOffset+fieldOffset.
func (m *MethodBuilder) labelValue(label Value, instructionOffset, fieldOffset int) (uint16, error) {
	if !label.IsLabel() {
		return 0, fmt.Errorf("%w: %s is not a label", ErrBadOperand, label)
	}
	id := label.Index()
	if id >= len(m.labels) {
		return 0, fmt.Errorf("%w: label %d", ErrForeignLabel, id)
	}
	l := &m.labels[id]
	if l.bound {
		return uint16(int16(l.boundAddress - instructionOffset)), nil
	}
	l.references = append(l.references, labelReference{instructionOffset, fieldOffset})
	return 0, nil
}

// bindLabel sets the label's address to the current buffer position and
// patches every pending reference in place. A label binds at most once.
func (m *MethodBuilder) bindLabel(label Value) error {
	if !label.IsLabel() {
		return fmt.Errorf("%w: %s is not a label", ErrBadOperand, label)
	}
	id := label.Index()
	if id >= len(m.labels) {
		return fmt.Errorf("%w: label %d", ErrForeignLabel, id)
	}
	l := &m.labels[id]
	if l.bound {
		return fmt.Errorf("%w: label %d", ErrLabelBound, id)
	}
	l.bound = true
	l.boundAddress = len(m.buffer)
	for _, ref := range l.references {
		m.buffer[ref.instructionOffset+ref.fieldOffset] =
			uint16(int16(l.boundAddress - ref.instructionOffset))
	}
	l.references = nil
	return nil
}
