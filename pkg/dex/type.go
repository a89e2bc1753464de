package dex

import "strings"

// TypeDescriptor wraps a canonical DEX type descriptor string, such as I,
// V, or Ljava/lang/Object;. Descriptors order lexicographically so that
// identical types collapse to one interned id regardless of insertion
// order.
type TypeDescriptor struct {
	descriptor string
}

// Primitive type descriptors.
func VoidType() TypeDescriptor    { return TypeDescriptor{"V"} }
func BooleanType() TypeDescriptor { return TypeDescriptor{"Z"} }
func ByteType() TypeDescriptor    { return TypeDescriptor{"B"} }
func CharType() TypeDescriptor    { return TypeDescriptor{"C"} }
func ShortType() TypeDescriptor   { return TypeDescriptor{"S"} }
func IntType() TypeDescriptor     { return TypeDescriptor{"I"} }
func LongType() TypeDescriptor    { return TypeDescriptor{"J"} }
func FloatType() TypeDescriptor   { return TypeDescriptor{"F"} }
func DoubleType() TypeDescriptor  { return TypeDescriptor{"D"} }


// ObjectType builds a class descriptor from a fully-qualified class name:
// java.lang.Object becomes Ljava/lang/Object;.
func ObjectType(className string) TypeDescriptor {
	return TypeDescriptor{"L" + strings.ReplaceAll(className, ".", "/") + ";"}
}

// Descriptor returns the full descriptor string.
func (t TypeDescriptor) Descriptor() string { return t.descriptor }

// ShortDescriptor returns the one-character shorty form: the descriptor's
// first character, so every class type collapses to L.
func (t TypeDescriptor) ShortDescriptor() string { return t.descriptor[:1] }

// IsObject reports whether the descriptor names a reference type.
func (t TypeDescriptor) IsObject() bool { return t.descriptor[0] == 'L' }

// Compare orders descriptors lexicographically.
func (t TypeDescriptor) Compare(other TypeDescriptor) int {
	return strings.Compare(t.descriptor, other.descriptor)
}

func (t TypeDescriptor) String() string { return t.descriptor }

// Prototype is an immutable method signature: a return type and an
// ordered parameter list. Prototype{VoidType(), IntType()} is the
// function type (Int) -> Void.
type Prototype struct {
	returnType TypeDescriptor
	paramTypes []TypeDescriptor
}

// NewPrototype builds a prototype from a return type and parameters.
func NewPrototype(returnType TypeDescriptor, paramTypes ...TypeDescriptor) Prototype {
	return Prototype{
		returnType: returnType,
		paramTypes: append([]TypeDescriptor(nil), paramTypes...),
	}
}

// ReturnType returns the declared return type.
func (p Prototype) ReturnType() TypeDescriptor { return p.returnType }

// ParamTypes returns a copy of the ordered parameter types.
func (p Prototype) ParamTypes() []TypeDescriptor {
	return append([]TypeDescriptor(nil), p.paramTypes...)
}

// ParamCount returns the number of parameters.
func (p Prototype) ParamCount() int { return len(p.paramTypes) }

// Shorty derives the compact signature string, return type first: the
// prototype (Int, Int) -> Void has the shorty VII.
func (p Prototype) Shorty() string {
	var sb strings.Builder
	sb.WriteString(p.returnType.ShortDescriptor())
	for _, t := range p.paramTypes {
		sb.WriteString(t.ShortDescriptor())
	}
	return sb.String()
}

// Signature returns the full descriptor form, such as (II)V. It is the
// interning key and the lexicographic ordering representation for
// prototypes.
func (p Prototype) Signature() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, t := range p.paramTypes {
		sb.WriteString(t.Descriptor())
	}
	sb.WriteByte(')')
	sb.WriteString(p.returnType.Descriptor())
	return sb.String()
}

// Compare orders prototypes lexicographically over their signature.
func (p Prototype) Compare(other Prototype) int {
	return strings.Compare(p.Signature(), other.Signature())
}

func (p Prototype) String() string { return p.Signature() }
