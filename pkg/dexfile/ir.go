// Package dexfile assembles in-memory DEX (dex035) images from interned
// strings, types, prototypes and encoded method bodies. It is the artifact
// layer behind pkg/dex: the builder interns symbols and encodes method
// bodies; this package owns final on-disk ordering, offset fixup, and the
// container format itself.
package dexfile

// Access flags for classes and methods. Only the flags the emitter needs
// are defined; values match the DEX specification.
const (
	AccPublic      uint32 = 0x0001
	AccPrivate     uint32 = 0x0002
	AccStatic      uint32 = 0x0008
	AccFinal       uint32 = 0x0010
	AccConstructor uint32 = 0x10000
)

// NoIndex is the DEX sentinel for an absent index field.
const NoIndex uint32 = 0xFFFFFFFF

// String is an interned string. Index is the order of first sight during
// the build; the writer assigns the final sorted string_ids index at
// image-creation time.
type String struct {
	Value string
	Index int
}

// Type is an interned type referencing its descriptor string.
type Type struct {
	Descriptor *String
	Index      int
}

// Proto is an interned method prototype.
type Proto struct {
	Shorty     *String
	ReturnType *Type
	ParamTypes []*Type
	Index      int
}

// MethodDecl is an interned method declaration: the triple that
// identifies a method for invocation, declared before (and independent
// of) any body.
type MethodDecl struct {
	Class     *Type
	Name      *String
	Prototype *Proto
	Index     int
}

// Code holds one encoded method body: frame sizing plus the raw code
// units produced by the method encoder.
type Code struct {
	Registers    int      // total register count, locals + ins
	InsCount     int      // incoming argument registers
	OutsCount    int      // argument area for the most argument-heavy call
	Instructions []uint16 // encoded code units, builder-assigned pool ids
}

// EncodedMethod pairs a declaration with its access flags and body.
// Abstract methods carry a nil Code.
type EncodedMethod struct {
	Decl   *MethodDecl
	Access uint32
	Code   *Code
}

// Class is one class definition under construction.
type Class struct {
	Type       *Type
	SuperClass *Type
	SourceFile *String // nil if not set
	Access     uint32

	DirectMethods  []*EncodedMethod
	VirtualMethods []*EncodedMethod
}

// AddDirectMethod appends a constructor/private/static method body.
func (c *Class) AddDirectMethod(m *EncodedMethod) {
	c.DirectMethods = append(c.DirectMethods, m)
}

// AddVirtualMethod appends a virtual method body.
func (c *Class) AddVirtualMethod(m *EncodedMethod) {
	c.VirtualMethods = append(c.VirtualMethods, m)
}

// DexFile is the append-only container for everything declared during one
// build. Nodes returned by the Add methods remain valid until the DexFile
// is released; deduplication is the caller's job (pkg/dex interns, this
// container only stores).
type DexFile struct {
	Strings     []*String
	Types       []*Type
	Protos      []*Proto
	MethodDecls []*MethodDecl
	Classes     []*Class

	written bool
}

// NewDexFile creates an empty container.
func NewDexFile() *DexFile {
	return &DexFile{}
}

// AddString appends a string and returns its handle.
func (f *DexFile) AddString(value string) *String {
	s := &String{Value: value, Index: len(f.Strings)}
	f.Strings = append(f.Strings, s)
	return s
}

// AddType appends a type referencing an already-added descriptor string.
func (f *DexFile) AddType(descriptor *String) *Type {
	t := &Type{Descriptor: descriptor, Index: len(f.Types)}
	f.Types = append(f.Types, t)
	return t
}

// AddProto appends a prototype.
func (f *DexFile) AddProto(shorty *String, returnType *Type, paramTypes []*Type) *Proto {
	p := &Proto{
		Shorty:     shorty,
		ReturnType: returnType,
		ParamTypes: paramTypes,
		Index:      len(f.Protos),
	}
	f.Protos = append(f.Protos, p)
	return p
}

// AddMethodDecl appends a method declaration.
func (f *DexFile) AddMethodDecl(class *Type, name *String, proto *Proto) *MethodDecl {
	m := &MethodDecl{Class: class, Name: name, Prototype: proto, Index: len(f.MethodDecls)}
	f.MethodDecls = append(f.MethodDecls, m)
	return m
}

// AddClass appends a public class definition extending super.
func (f *DexFile) AddClass(t *Type, super *Type) *Class {
	c := &Class{Type: t, SuperClass: super, Access: AccPublic}
	f.Classes = append(f.Classes, c)
	return c
}
