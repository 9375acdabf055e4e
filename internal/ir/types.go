package ir

// Handles issued by the arena. The zero value of each is a valid handle
// (the first entity interned); there is no sentinel.
type (
	TypeID        uint32
	SigID         uint32
	ClassRefID    uint32
	FieldID       uint32
	StaticFieldID uint32
	MethodRefID   uint32
	NodeID        uint32
	RootID        uint32
)

// Type is the closed union of value types. Every variant is a comparable
// value: two Types are equal iff they are structurally equal.
type Type interface {
	isType()
	Encodable
}

// Void is the absence of a value. It can never be sized, loaded, compared
// or held in a local or argument slot.
type Void struct{}

// Bool is a boolean.
type Bool struct{}

// Int is a fixed-width integer. It is itself a Type.
type Int uint8

const (
	I8 Int = iota
	I16
	I32
	I64
	I128
	ISize
	U8
	U16
	U32
	U64
	U128
	USize
)

// Float is a floating point type. It is itself a Type.
type Float uint8

const (
	F32 Float = iota
	F64
)

// Ptr is an unmanaged pointer.
type Ptr struct{ Elem TypeID }

// Ref is a managed (tracked) reference.
type Ref struct{ Elem TypeID }

// FnPtr is a function pointer.
type FnPtr struct{ Sig SigID }

// ClassType is an instance of a nominal class, value-type or reference-type
// as tagged on its ClassRef.
type ClassType struct{ Class ClassRefID }

// PlatformArray is a managed array with a fixed number of dimensions.
type PlatformArray struct {
	Elem TypeID
	Dims uint8
}

// PlatformObject is the root managed object type.
type PlatformObject struct{}

// PlatformString is the managed string type.
type PlatformString struct{}

// GenericKind distinguishes type-level from method-level generic params.
type GenericKind uint8

const (
	GenericType GenericKind = iota
	GenericMethod
)

// PlatformGeneric is an unresolved generic parameter.
type PlatformGeneric struct {
	Index uint32
	Kind  GenericKind
}

func (Void) isType()            {}
func (Bool) isType()            {}
func (Int) isType()             {}
func (Float) isType()           {}
func (Ptr) isType()             {}
func (Ref) isType()             {}
func (FnPtr) isType()           {}
func (ClassType) isType()       {}
func (PlatformArray) isType()   {}
func (PlatformObject) isType()  {}
func (PlatformString) isType()  {}
func (PlatformGeneric) isType() {}

var intNames = [...]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128", ISize: "isize",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128", USize: "usize",
}

// Ints lists every integer type, signed first.
var Ints = []Int{I8, I16, I32, I64, I128, ISize, U8, U16, U32, U64, U128, USize}

// Name returns the short name of the integer type (e.g. "i32").
func (i Int) Name() string {
	if int(i) < len(intNames) {
		return intNames[i]
	}
	return "int?"
}

// Signed reports whether i is a signed integer type.
func (i Int) Signed() bool {
	return i <= ISize
}

// AsUnsigned maps a signed integer type to the unsigned type of the same
// width. Unsigned types map to themselves.
func (i Int) AsUnsigned() Int {
	if i.Signed() {
		return i + U8
	}
	return i
}

// Shiftable reports whether i may be used as a shift amount: every width
// except the 128-bit ones.
func (i Int) Shiftable() bool {
	return i != I128 && i != U128
}

// Name returns the short name of the float type.
func (f Float) Name() string {
	if f == F32 {
		return "f32"
	}
	return "f64"
}

// PointedTo returns the element type of a Ptr or Ref.
func PointedTo(t Type) (TypeID, bool) {
	switch t := t.(type) {
	case Ptr:
		return t.Elem, true
	case Ref:
		return t.Elem, true
	}
	return 0, false
}

// AsInt projects t onto Int.
func AsInt(t Type) (Int, bool) {
	i, ok := t.(Int)
	return i, ok
}

// AsFloat projects t onto Float.
func AsFloat(t Type) (Float, bool) {
	f, ok := t.(Float)
	return f, ok
}

// AsClass projects t onto the class handle of a ClassType.
func AsClass(t Type) (ClassRefID, bool) {
	c, ok := t.(ClassType)
	return c.Class, ok
}

// IsPointerSized reports whether t is ISize or USize.
func IsPointerSized(t Type) bool {
	i, ok := t.(Int)
	return ok && (i == ISize || i == USize)
}

func (Void) Encode() IRObject { return IRObject{"t": IRString("void")} }
func (Bool) Encode() IRObject { return IRObject{"t": IRString("bool")} }
func (i Int) Encode() IRObject {
	return IRObject{"t": IRString("int"), "w": IRString(i.Name())}
}
func (f Float) Encode() IRObject {
	return IRObject{"t": IRString("float"), "w": IRString(f.Name())}
}
func (p Ptr) Encode() IRObject {
	return IRObject{"t": IRString("ptr"), "elem": IRInt(p.Elem)}
}
func (r Ref) Encode() IRObject {
	return IRObject{"t": IRString("ref"), "elem": IRInt(r.Elem)}
}
func (f FnPtr) Encode() IRObject {
	return IRObject{"t": IRString("fnptr"), "sig": IRInt(f.Sig)}
}
func (c ClassType) Encode() IRObject {
	return IRObject{"t": IRString("class"), "class": IRInt(c.Class)}
}
func (a PlatformArray) Encode() IRObject {
	return IRObject{"t": IRString("array"), "elem": IRInt(a.Elem), "dims": IRInt(a.Dims)}
}
func (PlatformObject) Encode() IRObject { return IRObject{"t": IRString("object")} }
func (PlatformString) Encode() IRObject { return IRObject{"t": IRString("string")} }
func (g PlatformGeneric) Encode() IRObject {
	return IRObject{"t": IRString("generic"), "index": IRInt(g.Index), "kind": IRInt(g.Kind)}
}
