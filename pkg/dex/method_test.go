package dex

import (
	"errors"
	"testing"
)

// testMethod builds a throwaway method on a fresh builder.
func testMethod(t *testing.T, proto Prototype) (*DexBuilder, *MethodBuilder) {
	t.Helper()
	d := NewDexBuilder()
	cls := d.MakeClass("com.example.Test")
	return d, cls.CreateMethod("test", proto)
}

func TestMakeRegisterNumbersFromZero(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	for i := 0; i < 4; i++ {
		r := m.MakeRegister()
		if r != Local(i) {
			t.Errorf("MakeRegister() #%d = %v, want v%d", i, r, i)
		}
	}
}

func TestParameterRegisterNumbering(t *testing.T) {
	// 3 locals and 2 parameters: parameters occupy the top of the frame,
	// so p0 is v3 and p1 is v4.
	_, m := testMethod(t, NewPrototype(VoidType(), IntType(), IntType()))
	m.MakeRegister()
	m.MakeRegister()
	m.MakeRegister()
	m.BuildReturnValue(Parameter(0))
	m.BuildReturnValue(Parameter(1))

	em, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	code := em.Code
	if code.Registers != 5 {
		t.Errorf("Registers = %d, want 5", code.Registers)
	}
	if code.InsCount != 2 {
		t.Errorf("InsCount = %d, want 2", code.InsCount)
	}
	// return vAA has the register in the high byte.
	if got := code.Instructions[0] >> 8; got != 3 {
		t.Errorf("parameter 0 resolved to v%d, want v3", got)
	}
	if got := code.Instructions[1] >> 8; got != 4 {
		t.Errorf("parameter 1 resolved to v%d, want v4", got)
	}
}

func TestReturnForms(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	m.BuildReturn()
	m.BuildReturnValue(r)
	m.BuildReturnObject(r)
	em, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []uint16{0x000E, 0x000F, 0x0011}
	if len(em.Code.Instructions) != len(want) {
		t.Fatalf("code = %04X, want %04X", em.Code.Instructions, want)
	}
	for i, u := range want {
		if em.Code.Instructions[i] != u {
			t.Errorf("unit %d = 0x%04X, want 0x%04X", i, em.Code.Instructions[i], u)
		}
	}
}

func TestBuildConstString(t *testing.T) {
	d, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	m.BuildConstString(r, "hello")
	m.BuildReturn()
	em, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	wantID := uint16(d.GetOrAddString("hello").Index)
	if em.Code.Instructions[0] != 0x001A {
		t.Errorf("unit 0 = 0x%04X, want const-string v0", em.Code.Instructions[0])
	}
	if em.Code.Instructions[1] != wantID {
		t.Errorf("string id = %d, want %d", em.Code.Instructions[1], wantID)
	}
}

func TestMoveRejectsUnhandledKinds(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	m.AddInstruction(OpWithArgs(OpMove, &r, Label(0)))
	if _, err := m.Encode(); !errors.Is(err, ErrBadOperand) {
		t.Errorf("Encode err = %v, want ErrBadOperand", err)
	}
}

func TestForwardBranchBackpatch(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	label := m.MakeLabel()
	m.BuildConst4(r, 0)        // offset 0, 1 unit
	m.BuildBranchEqz(r, label) // offset 1, 2 units
	m.BuildConst4(r, 1)        // offset 3, 1 unit
	m.BindLabel(label)         // binds to offset 4
	m.BuildReturn()

	em, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Branch field = bound address - branch instruction address = 4 - 1.
	if got := em.Code.Instructions[2]; got != 3 {
		t.Errorf("branch offset = %d, want 3", got)
	}
}

func TestBackwardBranch(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	label := m.MakeLabel()
	m.BindLabel(label) // offset 0
	m.BuildConst4(r, 0)
	m.BuildBranchEqz(r, label) // offset 1: field = 0 - 1 = -1
	m.BuildReturn()

	em, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := em.Code.Instructions[2]; got != 0xFFFF {
		t.Errorf("backward branch offset = 0x%04X, want 0xFFFF (-1)", got)
	}
}

func TestBackwardBranchUnaffectedByLaterCode(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	label := m.MakeLabel()
	m.BuildConst4(r, 0)        // offset 0
	m.BindLabel(label)         // offset 1
	m.BuildConst4(r, 1)        // offset 1
	m.BuildBranchEqz(r, label) // offset 2: field = 1 - 2 = -1
	m.BuildConst4(r, 2)
	m.BuildConst4(r, 3)
	m.BuildReturn()

	em, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := em.Code.Instructions[3]; got != 0xFFFF {
		t.Errorf("branch offset = 0x%04X, want 0xFFFF", got)
	}
}

func TestRebindLabelRejected(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	label := m.MakeLabel()
	m.BindLabel(label)
	m.BindLabel(label)
	m.BuildReturn()
	if _, err := m.Encode(); !errors.Is(err, ErrLabelBound) {
		t.Errorf("Encode err = %v, want ErrLabelBound", err)
	}
}

func TestForeignLabelRejected(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	m.BuildBranchEqz(r, Label(5)) // never allocated here
	m.BuildReturn()
	if _, err := m.Encode(); !errors.Is(err, ErrForeignLabel) {
		t.Errorf("Encode err = %v, want ErrForeignLabel", err)
	}
}

func TestUnboundLabelRejected(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	label := m.MakeLabel()
	m.BuildBranchEqz(r, label)
	m.BuildReturn()
	if _, err := m.Encode(); !errors.Is(err, ErrLabelUnbound) {
		t.Errorf("Encode err = %v, want ErrLabelUnbound", err)
	}
}

func TestDoubleEncodeRejected(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	m.BuildReturn()
	if _, err := m.Encode(); err != nil {
		t.Fatalf("first Encode: %v", err)
	}
	if _, err := m.Encode(); !errors.Is(err, ErrDoubleEncode) {
		t.Errorf("second Encode err = %v, want ErrDoubleEncode", err)
	}
}

func TestConst4Range(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	m.BuildConst4(r, 8) // one past the signed 4-bit maximum
	m.BuildReturn()
	_, err := m.Encode()
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("Encode err = %v, want RangeError", err)
	}
	if re.Value != 8 {
		t.Errorf("RangeError.Value = %d, want 8", re.Value)
	}
}

func TestInvokeTracksOutsCount(t *testing.T) {
	d, m := testMethod(t, NewPrototype(VoidType()))
	target := d.GetOrDeclareMethod(
		ObjectType("java.lang.Object"), "frob",
		NewPrototype(VoidType(), IntType(), IntType()),
	)
	r := m.MakeRegister()
	a := m.MakeRegister()
	b := m.MakeRegister()
	m.AddInstruction(InvokeVirtual(target.ID, nil, r))
	m.AddInstruction(InvokeVirtual(target.ID, nil, r, a, b))
	m.BuildReturn()

	em, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if em.Code.OutsCount != 3 {
		t.Errorf("OutsCount = %d, want 3", em.Code.OutsCount)
	}
	// invoke-virtual {v0, v1, v2}, meth@id
	wantUnit0 := uint16(3)<<12 | uint16(0x6E)
	if em.Code.Instructions[3] != wantUnit0 {
		t.Errorf("second invoke unit 0 = 0x%04X, want 0x%04X", em.Code.Instructions[3], wantUnit0)
	}
	if em.Code.Instructions[4] != uint16(target.ID) {
		t.Errorf("method index = %d, want %d", em.Code.Instructions[4], target.ID)
	}
}

func TestInvokeUnknownMethodRejected(t *testing.T) {
	_, m := testMethod(t, NewPrototype(VoidType()))
	r := m.MakeRegister()
	m.AddInstruction(InvokeVirtual(999, nil, r))
	m.BuildReturn()
	if _, err := m.Encode(); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Encode err = %v, want ErrUnknownSymbol", err)
	}
}

func TestBuildNewEmitsAllocAndConstructorPair(t *testing.T) {
	d, m := testMethod(t, NewPrototype(VoidType()))
	obj := m.MakeRegister()
	m.BuildNew(obj, ObjectType("java.lang.Object"), NewPrototype(VoidType()))
	m.BuildReturn()

	em, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	typeID := uint16(d.GetOrAddType(ObjectType("java.lang.Object")).Index)
	ctor := d.GetOrDeclareMethod(ObjectType("java.lang.Object"), "<init>", NewPrototype(VoidType()))

	code := em.Code.Instructions
	// new-instance v0, type@id
	if code[0] != 0x0022 || code[1] != typeID {
		t.Errorf("new-instance = %04X %04X, want 0022 %04X", code[0], code[1], typeID)
	}
	// invoke-direct {v0}, meth@id immediately after
	wantUnit := uint16(1)<<12 | uint16(0x70)
	if code[2] != wantUnit || code[3] != uint16(ctor.ID) {
		t.Errorf("invoke-direct = %04X %04X, want %04X %04X", code[2], code[3], wantUnit, ctor.ID)
	}
	if em.Code.OutsCount != 1 {
		t.Errorf("OutsCount = %d, want 1", em.Code.OutsCount)
	}
}

func TestConstructorGoesToDirectMethods(t *testing.T) {
	d := NewDexBuilder()
	cls := d.MakeClass("com.example.Ctor")
	ctor := cls.CreateMethod("<init>", NewPrototype(VoidType()))
	ctor.BuildReturn()
	if _, err := ctor.Encode(); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	greet := cls.CreateMethod("greet", NewPrototype(VoidType()))
	greet.BuildReturn()
	if _, err := greet.Encode(); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	class := cls.class
	if len(class.DirectMethods) != 1 {
		t.Errorf("DirectMethods = %d, want 1", len(class.DirectMethods))
	}
	if len(class.VirtualMethods) != 1 {
		t.Errorf("VirtualMethods = %d, want 1", len(class.VirtualMethods))
	}
}
