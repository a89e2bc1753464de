package dex

import "testing"

func TestTypeDescriptors(t *testing.T) {
	tests := []struct {
		desc  TypeDescriptor
		want  string
		short string
	}{
		{VoidType(), "V", "V"},
		{IntType(), "I", "I"},
		{BooleanType(), "Z", "Z"},
		{LongType(), "J", "J"},
		{ObjectType("java.lang.Object"), "Ljava/lang/Object;", "L"},
		{ObjectType("com.example.Deep.Nested"), "Lcom/example/Deep/Nested;", "L"},
	}
	for _, tt := range tests {
		if got := tt.desc.Descriptor(); got != tt.want {
			t.Errorf("Descriptor() = %q, want %q", got, tt.want)
		}
		if got := tt.desc.ShortDescriptor(); got != tt.short {
			t.Errorf("ShortDescriptor() = %q, want %q", got, tt.short)
		}
	}
}

func TestTypeDescriptorIsObject(t *testing.T) {
	if IntType().IsObject() {
		t.Error("IntType().IsObject() = true, want false")
	}
	if !ObjectType("java.lang.String").IsObject() {
		t.Error("ObjectType(...).IsObject() = false, want true")
	}
}

func TestTypeDescriptorCompare(t *testing.T) {
	a := IntType()                      // I
	b := ObjectType("java.lang.Object") // Ljava/lang/Object;
	if a.Compare(b) >= 0 {
		t.Errorf("Compare(%s, %s) = %d, want < 0", a, b, a.Compare(b))
	}
	if b.Compare(a) <= 0 {
		t.Errorf("Compare(%s, %s) = %d, want > 0", b, a, b.Compare(a))
	}
	if a.Compare(IntType()) != 0 {
		t.Errorf("Compare(I, I) = %d, want 0", a.Compare(IntType()))
	}
}

func TestPrototypeShorty(t *testing.T) {
	tests := []struct {
		name  string
		proto Prototype
		want  string
	}{
		{"void no args", NewPrototype(VoidType()), "V"},
		{"void int int", NewPrototype(VoidType(), IntType(), IntType()), "VII"},
		{"object arg", NewPrototype(IntType(), ObjectType("java.lang.String")), "IL"},
		{"all primitives", NewPrototype(VoidType(), BooleanType(), LongType(), DoubleType()), "VZJD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.proto.Shorty(); got != tt.want {
				t.Errorf("Shorty() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrototypeSignature(t *testing.T) {
	p := NewPrototype(VoidType(), IntType(), ObjectType("java.lang.String"))
	want := "(ILjava/lang/String;)V"
	if got := p.Signature(); got != want {
		t.Errorf("Signature() = %q, want %q", got, want)
	}
}

func TestPrototypeCompare(t *testing.T) {
	a := NewPrototype(VoidType(), IntType())
	b := NewPrototype(VoidType(), IntType(), IntType())
	if a.Compare(b) >= 0 {
		t.Errorf("Compare((I)V, (II)V) = %d, want < 0", a.Compare(b))
	}
	if a.Compare(NewPrototype(VoidType(), IntType())) != 0 {
		t.Error("identical prototypes do not compare equal")
	}
}

func TestPrototypeImmutable(t *testing.T) {
	params := []TypeDescriptor{IntType()}
	p := NewPrototype(VoidType(), params...)
	params[0] = LongType()
	if got := p.Shorty(); got != "VI" {
		t.Errorf("Shorty() after mutating input slice = %q, want %q", got, "VI")
	}
	got := p.ParamTypes()
	got[0] = LongType()
	if p.Shorty() != "VI" {
		t.Error("mutating ParamTypes() result changed the prototype")
	}
}
