package ir

import (
	"math"
	"strconv"
)

// Node is a pure expression producing a value. Nodes are interned and form
// a DAG: children are referred to by handle and may be shared.
type Node interface {
	isNode()
	// Kind is the variant name used in diagnostics.
	Kind() string
	// Children lists child nodes in evaluation order.
	Children() []NodeID
	Encodable
}

// ConstInt is an integer constant. Bits holds the two's-complement value
// truncated to 64 bits.
type ConstInt struct {
	Type Int
	Bits uint64
}

// ConstFloat is a float constant stored as its IEEE-754 bit pattern.
type ConstFloat struct {
	Type Float
	Bits uint64
}

// NewConstF64 builds a 64-bit float constant.
func NewConstF64(v float64) ConstFloat {
	return ConstFloat{Type: F64, Bits: math.Float64bits(v)}
}

// NewConstF32 builds a 32-bit float constant.
func NewConstF32(v float32) ConstFloat {
	return ConstFloat{Type: F32, Bits: uint64(math.Float32bits(v))}
}

// ConstBool is a boolean constant.
type ConstBool struct{ Value bool }

// ConstString is a managed string literal.
type ConstString struct{ Value string }

// ConstNull is a null reference of the given class.
type ConstNull struct{ Class ClassRefID }

// BinaryOp applies Op to Lhs and Rhs.
type BinaryOp struct {
	Lhs, Rhs NodeID
	Op       BinOp
}

// UnaryOp applies Op to Arg.
type UnaryOp struct {
	Arg NodeID
	Op  UnOp
}

// LdLoc loads a local variable.
type LdLoc struct{ Local uint32 }

// LdLocA takes the managed address of a local variable.
type LdLocA struct{ Local uint32 }

// LdArg loads an argument.
type LdArg struct{ Arg uint32 }

// LdArgA takes the managed address of an argument.
type LdArgA struct{ Arg uint32 }

// Call is a direct call whose result is used as a value.
type Call struct {
	Method MethodRefID
	Args   []NodeID
	Pure   bool
}

// CallI is an indirect call through a function pointer.
type CallI struct {
	FnPtr NodeID
	Sig   SigID
	Args  []NodeID
}

// IntCast converts Input to an integer type.
type IntCast struct {
	Input  NodeID
	Target Int
	Extend Extend
}

// FloatCast converts Input to a float type. Signed selects how an integer
// input is interpreted.
type FloatCast struct {
	Input  NodeID
	Target Float
	Signed bool
}

// RefToPtr converts a managed reference to a raw pointer to the same pointee.
type RefToPtr struct{ Input NodeID }

// PtrCast reinterprets a pointer-like value as Result.
type PtrCast struct {
	Input  NodeID
	Result TypeID
}

// LdFieldAddress takes the address of a field.
type LdFieldAddress struct {
	Addr  NodeID
	Field FieldID
}

// LdField loads a field.
type LdField struct {
	Addr  NodeID
	Field FieldID
}

// LdInd dereferences Addr expecting a value of Type.
type LdInd struct {
	Addr     NodeID
	Type     TypeID
	Volatile bool
}

// SizeOf yields the size of Type.
type SizeOf struct{ Type TypeID }

// GetException loads the exception being handled.
type GetException struct{}

// IsInst tests whether Object is an instance of Type.
type IsInst struct {
	Object NodeID
	Type   TypeID
}

// CheckedCast casts Object to Type, throwing on failure.
type CheckedCast struct {
	Object NodeID
	Type   TypeID
}

// LocAlloc allocates Size bytes on the stack.
type LocAlloc struct{ Size NodeID }

// LocAllocAligned allocates an aligned stack slot holding a Type.
type LocAllocAligned struct {
	Type  TypeID
	Align uint64
}

// LdStaticField loads a static field.
type LdStaticField struct{ Field StaticFieldID }

// LdStaticFieldAddress takes the address of a static field.
type LdStaticFieldAddress struct{ Field StaticFieldID }

// LdFtn loads a pointer to Method.
type LdFtn struct{ Method MethodRefID }

// LdTypeToken loads the runtime type handle of Type.
type LdTypeToken struct{ Type TypeID }

// LdLen loads the length of a one-dimensional array.
type LdLen struct{ Array NodeID }

// LdElem loads an element of a one-dimensional array.
type LdElem struct {
	Array NodeID
	Index NodeID
}

// UnboxAny unboxes Object to Type.
type UnboxAny struct {
	Object NodeID
	Type   TypeID
}

func (ConstInt) isNode()             {}
func (ConstFloat) isNode()           {}
func (ConstBool) isNode()            {}
func (ConstString) isNode()          {}
func (ConstNull) isNode()            {}
func (BinaryOp) isNode()             {}
func (UnaryOp) isNode()              {}
func (LdLoc) isNode()                {}
func (LdLocA) isNode()               {}
func (LdArg) isNode()                {}
func (LdArgA) isNode()               {}
func (Call) isNode()                 {}
func (CallI) isNode()                {}
func (IntCast) isNode()              {}
func (FloatCast) isNode()            {}
func (RefToPtr) isNode()             {}
func (PtrCast) isNode()              {}
func (LdFieldAddress) isNode()       {}
func (LdField) isNode()              {}
func (LdInd) isNode()                {}
func (SizeOf) isNode()               {}
func (GetException) isNode()         {}
func (IsInst) isNode()               {}
func (CheckedCast) isNode()          {}
func (LocAlloc) isNode()             {}
func (LocAllocAligned) isNode()      {}
func (LdStaticField) isNode()        {}
func (LdStaticFieldAddress) isNode() {}
func (LdFtn) isNode()                {}
func (LdTypeToken) isNode()          {}
func (LdLen) isNode()                {}
func (LdElem) isNode()               {}
func (UnboxAny) isNode()             {}

func (ConstInt) Kind() string             { return "ConstInt" }
func (ConstFloat) Kind() string           { return "ConstFloat" }
func (ConstBool) Kind() string            { return "ConstBool" }
func (ConstString) Kind() string          { return "ConstString" }
func (ConstNull) Kind() string            { return "ConstNull" }
func (BinaryOp) Kind() string             { return "BinOp" }
func (UnaryOp) Kind() string              { return "UnOp" }
func (LdLoc) Kind() string                { return "LdLoc" }
func (LdLocA) Kind() string               { return "LdLocA" }
func (LdArg) Kind() string                { return "LdArg" }
func (LdArgA) Kind() string               { return "LdArgA" }
func (Call) Kind() string                 { return "Call" }
func (CallI) Kind() string                { return "CallI" }
func (IntCast) Kind() string              { return "IntCast" }
func (FloatCast) Kind() string            { return "FloatCast" }
func (RefToPtr) Kind() string             { return "RefToPtr" }
func (PtrCast) Kind() string              { return "PtrCast" }
func (LdFieldAddress) Kind() string       { return "LdFieldAddress" }
func (LdField) Kind() string              { return "LdField" }
func (LdInd) Kind() string                { return "LdInd" }
func (SizeOf) Kind() string               { return "SizeOf" }
func (GetException) Kind() string         { return "GetException" }
func (IsInst) Kind() string               { return "IsInst" }
func (CheckedCast) Kind() string          { return "CheckedCast" }
func (LocAlloc) Kind() string             { return "LocAlloc" }
func (LocAllocAligned) Kind() string      { return "LocAllocAligned" }
func (LdStaticField) Kind() string        { return "LdStaticField" }
func (LdStaticFieldAddress) Kind() string { return "LdStaticFieldAddress" }
func (LdFtn) Kind() string                { return "LdFtn" }
func (LdTypeToken) Kind() string          { return "LdTypeToken" }
func (LdLen) Kind() string                { return "LdLen" }
func (LdElem) Kind() string               { return "LdElem" }
func (UnboxAny) Kind() string             { return "UnboxAny" }

func (ConstInt) Children() []NodeID             { return nil }
func (ConstFloat) Children() []NodeID           { return nil }
func (ConstBool) Children() []NodeID            { return nil }
func (ConstString) Children() []NodeID          { return nil }
func (ConstNull) Children() []NodeID            { return nil }
func (n BinaryOp) Children() []NodeID           { return []NodeID{n.Lhs, n.Rhs} }
func (n UnaryOp) Children() []NodeID            { return []NodeID{n.Arg} }
func (LdLoc) Children() []NodeID                { return nil }
func (LdLocA) Children() []NodeID               { return nil }
func (LdArg) Children() []NodeID                { return nil }
func (LdArgA) Children() []NodeID               { return nil }
func (n Call) Children() []NodeID               { return n.Args }
func (n CallI) Children() []NodeID              { return append([]NodeID{n.FnPtr}, n.Args...) }
func (n IntCast) Children() []NodeID            { return []NodeID{n.Input} }
func (n FloatCast) Children() []NodeID          { return []NodeID{n.Input} }
func (n RefToPtr) Children() []NodeID           { return []NodeID{n.Input} }
func (n PtrCast) Children() []NodeID            { return []NodeID{n.Input} }
func (n LdFieldAddress) Children() []NodeID     { return []NodeID{n.Addr} }
func (n LdField) Children() []NodeID            { return []NodeID{n.Addr} }
func (n LdInd) Children() []NodeID              { return []NodeID{n.Addr} }
func (SizeOf) Children() []NodeID               { return nil }
func (GetException) Children() []NodeID         { return nil }
func (n IsInst) Children() []NodeID             { return []NodeID{n.Object} }
func (n CheckedCast) Children() []NodeID        { return []NodeID{n.Object} }
func (n LocAlloc) Children() []NodeID           { return []NodeID{n.Size} }
func (LocAllocAligned) Children() []NodeID      { return nil }
func (LdStaticField) Children() []NodeID        { return nil }
func (LdStaticFieldAddress) Children() []NodeID { return nil }
func (LdFtn) Children() []NodeID                { return nil }
func (LdTypeToken) Children() []NodeID          { return nil }
func (n LdLen) Children() []NodeID              { return []NodeID{n.Array} }
func (n LdElem) Children() []NodeID             { return []NodeID{n.Array, n.Index} }
func (n UnboxAny) Children() []NodeID           { return []NodeID{n.Object} }

func encodeNode(kind string, kv ...any) IRObject {
	obj := IRObject{"n": IRString(kind)}
	for i := 0; i+1 < len(kv); i += 2 {
		obj[kv[i].(string)] = kv[i+1].(IRValue)
	}
	return obj
}

func (n ConstInt) Encode() IRObject {
	return encodeNode("const_int", "type", IRString(n.Type.Name()), "bits", IRString(formatBits(n.Bits)))
}
func (n ConstFloat) Encode() IRObject {
	return encodeNode("const_float", "type", IRString(n.Type.Name()), "bits", IRString(formatBits(n.Bits)))
}
func (n ConstBool) Encode() IRObject   { return encodeNode("const_bool", "value", IRBool(n.Value)) }
func (n ConstString) Encode() IRObject { return encodeNode("const_string", "value", IRString(n.Value)) }
func (n ConstNull) Encode() IRObject   { return encodeNode("const_null", "class", IRInt(n.Class)) }
func (n BinaryOp) Encode() IRObject {
	return encodeNode("binop", "lhs", IRInt(n.Lhs), "rhs", IRInt(n.Rhs), "op", IRString(n.Op.String()))
}
func (n UnaryOp) Encode() IRObject {
	return encodeNode("unop", "arg", IRInt(n.Arg), "op", IRString(n.Op.String()))
}
func (n LdLoc) Encode() IRObject  { return encodeNode("ldloc", "local", IRInt(n.Local)) }
func (n LdLocA) Encode() IRObject { return encodeNode("ldloca", "local", IRInt(n.Local)) }
func (n LdArg) Encode() IRObject  { return encodeNode("ldarg", "arg", IRInt(n.Arg)) }
func (n LdArgA) Encode() IRObject { return encodeNode("ldarga", "arg", IRInt(n.Arg)) }
func (n Call) Encode() IRObject {
	return encodeNode("call", "method", IRInt(n.Method), "args", idArray(n.Args), "pure", IRBool(n.Pure))
}
func (n CallI) Encode() IRObject {
	return encodeNode("calli", "fnptr", IRInt(n.FnPtr), "sig", IRInt(n.Sig), "args", idArray(n.Args))
}
func (n IntCast) Encode() IRObject {
	return encodeNode("int_cast", "input", IRInt(n.Input), "target", IRString(n.Target.Name()), "extend", IRInt(n.Extend))
}
func (n FloatCast) Encode() IRObject {
	return encodeNode("float_cast", "input", IRInt(n.Input), "target", IRString(n.Target.Name()), "signed", IRBool(n.Signed))
}
func (n RefToPtr) Encode() IRObject { return encodeNode("ref_to_ptr", "input", IRInt(n.Input)) }
func (n PtrCast) Encode() IRObject {
	return encodeNode("ptr_cast", "input", IRInt(n.Input), "result", IRInt(n.Result))
}
func (n LdFieldAddress) Encode() IRObject {
	return encodeNode("ldflda", "addr", IRInt(n.Addr), "field", IRInt(n.Field))
}
func (n LdField) Encode() IRObject {
	return encodeNode("ldfld", "addr", IRInt(n.Addr), "field", IRInt(n.Field))
}
func (n LdInd) Encode() IRObject {
	return encodeNode("ldind", "addr", IRInt(n.Addr), "type", IRInt(n.Type), "volatile", IRBool(n.Volatile))
}
func (n SizeOf) Encode() IRObject     { return encodeNode("sizeof", "type", IRInt(n.Type)) }
func (GetException) Encode() IRObject { return encodeNode("get_exception") }
func (n IsInst) Encode() IRObject {
	return encodeNode("isinst", "object", IRInt(n.Object), "type", IRInt(n.Type))
}
func (n CheckedCast) Encode() IRObject {
	return encodeNode("castclass", "object", IRInt(n.Object), "type", IRInt(n.Type))
}
func (n LocAlloc) Encode() IRObject { return encodeNode("localloc", "size", IRInt(n.Size)) }
func (n LocAllocAligned) Encode() IRObject {
	return encodeNode("localloc_aligned", "type", IRInt(n.Type), "align", IRString(formatBits(n.Align)))
}
func (n LdStaticField) Encode() IRObject { return encodeNode("ldsfld", "field", IRInt(n.Field)) }
func (n LdStaticFieldAddress) Encode() IRObject {
	return encodeNode("ldsflda", "field", IRInt(n.Field))
}
func (n LdFtn) Encode() IRObject       { return encodeNode("ldftn", "method", IRInt(n.Method)) }
func (n LdTypeToken) Encode() IRObject { return encodeNode("ldtoken", "type", IRInt(n.Type)) }
func (n LdLen) Encode() IRObject       { return encodeNode("ldlen", "array", IRInt(n.Array)) }
func (n LdElem) Encode() IRObject {
	return encodeNode("ldelem", "array", IRInt(n.Array), "index", IRInt(n.Index))
}
func (n UnboxAny) Encode() IRObject {
	return encodeNode("unbox_any", "object", IRInt(n.Object), "type", IRInt(n.Type))
}

// formatBits renders a 64-bit pattern as hex. IRInt is signed, so raw bit
// patterns are carried as strings to keep the full unsigned range.
func formatBits(b uint64) string {
	return "0x" + strconv.FormatUint(b, 16)
}
