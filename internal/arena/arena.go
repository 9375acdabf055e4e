// Package arena is the interning store for a compilation unit.
//
// Every type, signature, class reference, field, method, node and root is
// hash-consed: structurally equal values share one handle. The key is the
// canonical encoding from package ir, so equality is full structural
// equality rather than a digest comparison.
//
// The arena is append-only. Nothing already interned is ever modified, so
// a handle stays valid and its value stays fixed for the arena's lifetime.
// It is not safe for concurrent writers.
package arena

import (
	"fmt"

	"github.com/roach88/ilverify/internal/ir"
)

// Assembly of the platform's well-known classes.
const PlatformAssembly = "System.Runtime"

// table is one hash-consed entity table.
type table[T ir.Encodable] struct {
	items []T
	index map[string]uint32
}

func newTable[T ir.Encodable]() table[T] {
	return table[T]{index: make(map[string]uint32)}
}

func (t *table[T]) intern(v T) uint32 {
	key, err := ir.CanonicalKey(v)
	if err != nil {
		// Encodings built by package ir never contain null or floats.
		panic(fmt.Sprintf("arena: unencodable %T: %v", v, err))
	}
	if id, ok := t.index[key]; ok {
		return id
	}
	id := uint32(len(t.items))
	t.items = append(t.items, v)
	t.index[key] = id
	return id
}

func (t *table[T]) get(id uint32, what string) T {
	if int(id) >= len(t.items) {
		panic(fmt.Sprintf("arena: %s handle %d out of range (%d interned)", what, id, len(t.items)))
	}
	return t.items[id]
}

// Arena owns every entity of a compilation unit.
type Arena struct {
	types        table[ir.Type]
	sigs         table[ir.Signature]
	classes      table[ir.ClassRef]
	defs         map[ir.ClassRefID]ir.ClassDef
	fields       table[ir.FieldDesc]
	staticFields table[ir.StaticFieldDesc]
	methods      table[ir.MethodRef]
	nodes        table[ir.Node]
	roots        table[ir.Root]

	exception  ir.ClassRefID
	typeHandle ir.ClassRefID
}

// New creates an arena with the platform's well-known classes interned.
func New() *Arena {
	a := &Arena{
		types:        newTable[ir.Type](),
		sigs:         newTable[ir.Signature](),
		classes:      newTable[ir.ClassRef](),
		defs:         make(map[ir.ClassRefID]ir.ClassDef),
		fields:       newTable[ir.FieldDesc](),
		staticFields: newTable[ir.StaticFieldDesc](),
		methods:      newTable[ir.MethodRef](),
		nodes:        newTable[ir.Node](),
		roots:        newTable[ir.Root](),
	}
	a.exception = a.InternClassRef(ir.ClassRef{Name: "System.Exception", Assembly: PlatformAssembly})
	a.typeHandle = a.InternClassRef(ir.ClassRef{Name: "System.RuntimeTypeHandle", Assembly: PlatformAssembly, ValueType: true})
	return a
}

// ExceptionClass is the reference class of caught exceptions.
func (a *Arena) ExceptionClass() ir.ClassRefID { return a.exception }

// TypeHandleClass is the value class produced by type-token loads.
func (a *Arena) TypeHandleClass() ir.ClassRefID { return a.typeHandle }

// InternType returns the handle of t, interning it if new.
func (a *Arena) InternType(t ir.Type) ir.TypeID {
	if t == nil {
		panic("arena: nil type")
	}
	return ir.TypeID(a.types.intern(t))
}

// Type resolves a type handle.
func (a *Arena) Type(id ir.TypeID) ir.Type {
	return a.types.get(uint32(id), "type")
}

// PtrTo interns an unmanaged pointer to elem.
func (a *Arena) PtrTo(elem ir.TypeID) ir.TypeID {
	return a.InternType(ir.Ptr{Elem: elem})
}

// RefTo interns a managed reference to elem.
func (a *Arena) RefTo(elem ir.TypeID) ir.TypeID {
	return a.InternType(ir.Ref{Elem: elem})
}

// InternSig returns the handle of s. The arena takes ownership of
// s.Inputs; callers must not modify it afterwards.
func (a *Arena) InternSig(s ir.Signature) ir.SigID {
	return ir.SigID(a.sigs.intern(s))
}

// Sig resolves a signature handle.
func (a *Arena) Sig(id ir.SigID) ir.Signature {
	return a.sigs.get(uint32(id), "signature")
}

// InternClassRef returns the handle of a class reference.
func (a *Arena) InternClassRef(c ir.ClassRef) ir.ClassRefID {
	return ir.ClassRefID(a.classes.intern(c))
}

// ClassRef resolves a class handle.
func (a *Arena) ClassRef(id ir.ClassRefID) ir.ClassRef {
	return a.classes.get(uint32(id), "class")
}

// DefineClass registers the definition of def.Ref. A class may be defined
// once; defining it again with different fields is an error.
func (a *Arena) DefineClass(def ir.ClassDef) error {
	a.ClassRef(def.Ref)
	if prev, ok := a.defs[def.Ref]; ok {
		if !sameFields(prev.Fields, def.Fields) {
			return fmt.Errorf("class %q already defined with different fields", a.ClassRef(def.Ref).Name)
		}
		return nil
	}
	a.defs[def.Ref] = def
	return nil
}

func sameFields(a, b []ir.FieldDef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ClassDef returns the definition of a class, if one is known. Classes
// without a definition are opaque.
func (a *Arena) ClassDef(id ir.ClassRefID) (ir.ClassDef, bool) {
	def, ok := a.defs[id]
	return def, ok
}

// InternField returns the handle of an instance field descriptor.
func (a *Arena) InternField(f ir.FieldDesc) ir.FieldID {
	return ir.FieldID(a.fields.intern(f))
}

// Field resolves a field handle.
func (a *Arena) Field(id ir.FieldID) ir.FieldDesc {
	return a.fields.get(uint32(id), "field")
}

// InternStaticField returns the handle of a static field descriptor.
func (a *Arena) InternStaticField(f ir.StaticFieldDesc) ir.StaticFieldID {
	return ir.StaticFieldID(a.staticFields.intern(f))
}

// StaticField resolves a static field handle.
func (a *Arena) StaticField(id ir.StaticFieldID) ir.StaticFieldDesc {
	return a.staticFields.get(uint32(id), "static field")
}

// InternMethodRef returns the handle of a method reference.
func (a *Arena) InternMethodRef(m ir.MethodRef) ir.MethodRefID {
	return ir.MethodRefID(a.methods.intern(m))
}

// MethodRef resolves a method handle.
func (a *Arena) MethodRef(id ir.MethodRefID) ir.MethodRef {
	return a.methods.get(uint32(id), "method")
}

// InternNode returns the handle of n. Every child of n must already be
// interned, so a node handle is always greater than its children's and
// the node graph cannot contain a cycle.
func (a *Arena) InternNode(n ir.Node) ir.NodeID {
	if n == nil {
		panic("arena: nil node")
	}
	for _, c := range n.Children() {
		if int(c) >= len(a.nodes.items) {
			panic(fmt.Sprintf("arena: %s child %d not interned", n.Kind(), c))
		}
	}
	return ir.NodeID(a.nodes.intern(n))
}

// Node resolves a node handle.
func (a *Arena) Node(id ir.NodeID) ir.Node {
	return a.nodes.get(uint32(id), "node")
}

// InternRoot returns the handle of r. Its operand nodes must already be
// interned.
func (a *Arena) InternRoot(r ir.Root) ir.RootID {
	if r == nil {
		panic("arena: nil root")
	}
	for _, c := range r.Nodes() {
		if int(c) >= len(a.nodes.items) {
			panic(fmt.Sprintf("arena: %s operand %d not interned", r.Kind(), c))
		}
	}
	return ir.RootID(a.roots.intern(r))
}

// Root resolves a root handle.
func (a *Arena) Root(id ir.RootID) ir.Root {
	return a.roots.get(uint32(id), "root")
}

// Len reports how many nodes and roots are interned.
func (a *Arena) Len() (nodes, roots int) {
	return len(a.nodes.items), len(a.roots.items)
}

// RootContentID returns the content ID of a root. Operand handles are
// arena-local, so IDs are comparable across runs that build a unit in the
// same order.
func (a *Arena) RootContentID(id ir.RootID) string {
	return ir.MustContentID(ir.DomainRoot, a.Root(id))
}
