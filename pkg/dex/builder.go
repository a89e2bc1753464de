package dex

import "github.com/chazu/dexgen/pkg/dexfile"

// MethodDeclData is what interning a method yields: the id used as the
// pool index in invoke instructions, and the declaration handle for the
// artifact layer.
type MethodDeclData struct {
	ID   int
	Decl *dexfile.MethodDecl
}

// methodKey identifies a method declaration for interning.
type methodKey struct {
	class     string
	name      string
	signature string
}

// DexBuilder builds a DEX image from scratch. It owns the interning
// tables for strings, types, prototypes and method declarations; all
// interning is idempotent get-or-create, keyed on the canonical
// descriptor representation, so a repeated key always returns the id
// assigned on first sight. Ids reflect first-sight order only — the
// artifact layer re-sorts everything during final assembly.
type DexBuilder struct {
	file *dexfile.DexFile

	strings map[string]*dexfile.String
	types   map[string]*dexfile.Type
	protos  map[string]*dexfile.Proto
	methods map[methodKey]MethodDeclData
}

// NewDexBuilder creates an empty builder. Everything created against it
// is owned by it and must not outlive it.
func NewDexBuilder() *DexBuilder {
	return &DexBuilder{
		file:    dexfile.NewDexFile(),
		strings: make(map[string]*dexfile.String),
		types:   make(map[string]*dexfile.Type),
		protos:  make(map[string]*dexfile.Proto),
		methods: make(map[methodKey]MethodDeclData),
	}
}

// GetOrAddString interns a string, returning the handle assigned on first
// sight.
func (d *DexBuilder) GetOrAddString(value string) *dexfile.String {
	if s, ok := d.strings[value]; ok {
		return s
	}
	s := d.file.AddString(value)
	d.strings[value] = s
	return s
}

// GetOrAddType interns a type, keyed by its descriptor. Use this to
// declare imported classes as well.
func (d *DexBuilder) GetOrAddType(t TypeDescriptor) *dexfile.Type {
	if ty, ok := d.types[t.Descriptor()]; ok {
		return ty
	}
	ty := d.file.AddType(d.GetOrAddString(t.Descriptor()))
	d.types[t.Descriptor()] = ty
	return ty
}

// getOrEncodeProto interns a prototype, keyed by its full signature.
func (d *DexBuilder) getOrEncodeProto(p Prototype) *dexfile.Proto {
	key := p.Signature()
	if proto, ok := d.protos[key]; ok {
		return proto
	}
	params := make([]*dexfile.Type, 0, p.ParamCount())
	for _, t := range p.ParamTypes() {
		params = append(params, d.GetOrAddType(t))
	}
	proto := d.file.AddProto(
		d.GetOrAddString(p.Shorty()),
		d.GetOrAddType(p.ReturnType()),
		params,
	)
	d.protos[key] = proto
	return proto
}

// GetOrDeclareMethod interns a method declaration, keyed by defining
// type, name and prototype. The returned id is what invoke instructions
// embed as their pool index.
func (d *DexBuilder) GetOrDeclareMethod(t TypeDescriptor, name string, proto Prototype) MethodDeclData {
	key := methodKey{class: t.Descriptor(), name: name, signature: proto.Signature()}
	if data, ok := d.methods[key]; ok {
		return data
	}
	decl := d.file.AddMethodDecl(
		d.GetOrAddType(t),
		d.GetOrAddString(name),
		d.getOrEncodeProto(proto),
	)
	data := MethodDeclData{ID: decl.Index, Decl: decl}
	d.methods[key] = data
	return data
}

// MakeClass creates a new public class of the given fully-qualified name,
// extending java.lang.Object.
func (d *DexBuilder) MakeClass(name string) *ClassBuilder {
	t := ObjectType(name)
	class := d.file.AddClass(
		d.GetOrAddType(t),
		d.GetOrAddType(ObjectType("java.lang.Object")),
	)
	return &ClassBuilder{parent: d, typeDesc: t, class: class}
}

// CreateImage assembles the final in-memory image from everything
// declared so far. It runs exactly once per builder; the artifact layer
// performs its own ordering and offset fixup, so the builder's internal
// id assignment order does not survive into the file.
func (d *DexBuilder) CreateImage() ([]byte, error) {
	return d.file.CreateImage()
}

// ClassBuilder composes one class: its metadata and its methods. It holds
// a non-owning reference to the parent builder's symbol tables.
type ClassBuilder struct {
	parent   *DexBuilder
	typeDesc TypeDescriptor
	class    *dexfile.Class
}

// Type returns the class's type descriptor.
func (c *ClassBuilder) Type() TypeDescriptor { return c.typeDesc }

// SetSourceFile records the source file name for the class definition.
func (c *ClassBuilder) SetSourceFile(source string) {
	c.class.SourceFile = c.parent.GetOrAddString(source)
}

// CreateMethod declares a method with the given name and prototype and
// returns a MethodBuilder for filling in its body. A method named <init>
// becomes a direct constructor; everything else is virtual.
func (c *ClassBuilder) CreateMethod(name string, prototype Prototype) *MethodBuilder {
	data := c.parent.GetOrDeclareMethod(c.typeDesc, name, prototype)
	return newMethodBuilder(c.parent, c.class, data.Decl)
}
