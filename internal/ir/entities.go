package ir

// Signature is an ordered list of input types and one output type.
type Signature struct {
	Inputs []TypeID
	Output TypeID
}

// Equal reports structural equality, which is order-sensitive.
func (s Signature) Equal(o Signature) bool {
	if s.Output != o.Output || len(s.Inputs) != len(o.Inputs) {
		return false
	}
	for i := range s.Inputs {
		if s.Inputs[i] != o.Inputs[i] {
			return false
		}
	}
	return true
}

func (s Signature) Encode() IRObject {
	return IRObject{"inputs": idArray(s.Inputs), "output": IRInt(s.Output)}
}

// LocalDef declares a local variable slot. Slots are positional.
type LocalDef struct {
	Name string
	Type TypeID
}

// ClassRef is the nominal identity of a class. ValueType tags instances
// copied by value; everything else is a reference type.
type ClassRef struct {
	Name      string
	Assembly  string
	ValueType bool
}

func (c ClassRef) Encode() IRObject {
	return IRObject{
		"name":      IRString(c.Name),
		"assembly":  IRString(c.Assembly),
		"valuetype": IRBool(c.ValueType),
	}
}

// FieldDef is one field of a class definition.
type FieldDef struct {
	Name   string
	Type   TypeID
	Offset uint32
}

// ClassDef is the resolved definition of a class. A ClassRef without a
// ClassDef is opaque: field presence cannot be checked against it.
type ClassDef struct {
	Ref    ClassRefID
	Fields []FieldDef
}

// HasField reports whether the definition declares a field with exactly
// this name and type.
func (d ClassDef) HasField(name string, tpe TypeID) bool {
	for _, f := range d.Fields {
		if f.Name == name && f.Type == tpe {
			return true
		}
	}
	return false
}

// FieldDesc names an instance field of Owner.
type FieldDesc struct {
	Owner ClassRefID
	Name  string
	Type  TypeID
}

func (f FieldDesc) Encode() IRObject {
	return IRObject{"owner": IRInt(f.Owner), "name": IRString(f.Name), "type": IRInt(f.Type)}
}

// StaticFieldDesc names a static field of Owner.
type StaticFieldDesc struct {
	Owner ClassRefID
	Name  string
	Type  TypeID
}

func (f StaticFieldDesc) Encode() IRObject {
	return IRObject{"owner": IRInt(f.Owner), "name": IRString(f.Name), "type": IRInt(f.Type)}
}

// MethodKind is the call convention of a method.
type MethodKind uint8

const (
	Static MethodKind = iota
	Instance
	Virtual
	Constructor
)

var methodKindNames = [...]string{Static: "static", Instance: "instance", Virtual: "virtual", Constructor: "constructor"}

func (k MethodKind) String() string {
	if int(k) < len(methodKindNames) {
		return methodKindNames[k]
	}
	return "unknown"
}

// ParseMethodKind is the inverse of MethodKind.String.
func ParseMethodKind(s string) (MethodKind, bool) {
	for i, name := range methodKindNames {
		if name == s {
			return MethodKind(i), true
		}
	}
	return 0, false
}

// MethodRef identifies a callee.
type MethodRef struct {
	Class ClassRefID
	Name  string
	Sig   SigID
	Kind  MethodKind
}

func (m MethodRef) Encode() IRObject {
	return IRObject{
		"class": IRInt(m.Class),
		"name":  IRString(m.Name),
		"sig":   IRInt(m.Sig),
		"kind":  IRString(m.Kind.String()),
	}
}
