package ir

// Root is a statement: a side effect or control transfer. Roots are
// interned like nodes but are never children of anything.
type Root interface {
	isRoot()
	// Kind is the variant name used in diagnostics.
	Kind() string
	// Nodes lists operand nodes in left-to-right evaluation order.
	Nodes() []NodeID
	Encodable
}

// StLoc stores Value into a local slot.
type StLoc struct {
	Local uint32
	Value NodeID
}

// BranchCond is the condition of a branch. Lhs alone is used by CondTrue
// and CondFalse; relational kinds use both operands. Unsigned selects the
// unsigned/unordered comparison for Lt, Gt, Le and Ge.
type BranchCond struct {
	Kind     CondKind
	Lhs, Rhs NodeID
	Unsigned bool
}

// Branch jumps to Target (and SubTarget within it) when Cond holds.
type Branch struct {
	Target    uint32
	SubTarget uint32
	Cond      BranchCond
}

// StInd stores Value through Addr as a value of Type.
type StInd struct {
	Addr     NodeID
	Value    NodeID
	Type     TypeID
	Volatile bool
}

// SetField stores Value into Field of the object at Addr.
type SetField struct {
	Field FieldID
	Addr  NodeID
	Value NodeID
}

// CallRoot is a call whose result, if any, is discarded.
type CallRoot struct {
	Method MethodRefID
	Args   []NodeID
	Pure   bool
}

// Ret returns Value.
type Ret struct{ Value NodeID }

// VoidRet returns from a void method.
type VoidRet struct{}

// Pop evaluates and discards Value.
type Pop struct{ Value NodeID }

// Throw throws Value.
type Throw struct{ Value NodeID }

// Rethrow rethrows the exception being handled.
type Rethrow struct{}

// Nop does nothing.
type Nop struct{}

// Break signals a debugger breakpoint.
type Break struct{}

// Unreachable marks code that must never execute.
type Unreachable struct{ Message string }

// SourceFileInfo attaches a source location to the following roots.
type SourceFileInfo struct {
	File   string
	Line   uint32
	Column uint32
}

// SetStaticField stores Value into a static field.
type SetStaticField struct {
	Field StaticFieldID
	Value NodeID
}

// StArg stores Value into an argument slot.
type StArg struct {
	Arg   uint32
	Value NodeID
}

// CpObj copies a value of Type from Src to Dst.
type CpObj struct {
	Dst, Src NodeID
	Type     TypeID
}

// InitObj zero-initializes a value of Type at Addr.
type InitObj struct {
	Addr NodeID
	Type TypeID
}

// CpBlk copies Len bytes from Src to Dst.
type CpBlk struct {
	Dst, Src, Len NodeID
}

// InitBlk sets Count bytes at Dst to Value.
type InitBlk struct {
	Dst, Value, Count NodeID
}

// CallIRoot is an indirect call whose result is discarded.
type CallIRoot struct {
	FnPtr NodeID
	Sig   SigID
	Args  []NodeID
}

// ExitSpecialRegion leaves a protected region towards Target.
type ExitSpecialRegion struct {
	Target uint32
	Source uint32
}

func (StLoc) isRoot()             {}
func (Branch) isRoot()            {}
func (StInd) isRoot()             {}
func (SetField) isRoot()          {}
func (CallRoot) isRoot()          {}
func (Ret) isRoot()               {}
func (VoidRet) isRoot()           {}
func (Pop) isRoot()               {}
func (Throw) isRoot()             {}
func (Rethrow) isRoot()           {}
func (Nop) isRoot()               {}
func (Break) isRoot()             {}
func (Unreachable) isRoot()       {}
func (SourceFileInfo) isRoot()    {}
func (SetStaticField) isRoot()    {}
func (StArg) isRoot()             {}
func (CpObj) isRoot()             {}
func (InitObj) isRoot()           {}
func (CpBlk) isRoot()             {}
func (InitBlk) isRoot()           {}
func (CallIRoot) isRoot()         {}
func (ExitSpecialRegion) isRoot() {}

func (StLoc) Kind() string             { return "StLoc" }
func (Branch) Kind() string            { return "Branch" }
func (StInd) Kind() string             { return "StInd" }
func (SetField) Kind() string          { return "SetField" }
func (CallRoot) Kind() string          { return "Call" }
func (Ret) Kind() string               { return "Ret" }
func (VoidRet) Kind() string           { return "VoidRet" }
func (Pop) Kind() string               { return "Pop" }
func (Throw) Kind() string             { return "Throw" }
func (Rethrow) Kind() string           { return "Rethrow" }
func (Nop) Kind() string               { return "Nop" }
func (Break) Kind() string             { return "Break" }
func (Unreachable) Kind() string       { return "Unreachable" }
func (SourceFileInfo) Kind() string    { return "SourceFileInfo" }
func (SetStaticField) Kind() string    { return "SetStaticField" }
func (StArg) Kind() string             { return "StArg" }
func (CpObj) Kind() string             { return "CpObj" }
func (InitObj) Kind() string           { return "InitObj" }
func (CpBlk) Kind() string             { return "CpBlk" }
func (InitBlk) Kind() string           { return "InitBlk" }
func (CallIRoot) Kind() string         { return "CallI" }
func (ExitSpecialRegion) Kind() string { return "ExitSpecialRegion" }

func (r StLoc) Nodes() []NodeID { return []NodeID{r.Value} }
func (r Branch) Nodes() []NodeID {
	switch {
	case r.Cond.Kind == CondAlways:
		return nil
	case r.Cond.Kind.Relational():
		return []NodeID{r.Cond.Lhs, r.Cond.Rhs}
	default:
		return []NodeID{r.Cond.Lhs}
	}
}
func (r StInd) Nodes() []NodeID           { return []NodeID{r.Addr, r.Value} }
func (r SetField) Nodes() []NodeID        { return []NodeID{r.Addr, r.Value} }
func (r CallRoot) Nodes() []NodeID        { return r.Args }
func (r Ret) Nodes() []NodeID             { return []NodeID{r.Value} }
func (VoidRet) Nodes() []NodeID           { return nil }
func (r Pop) Nodes() []NodeID             { return []NodeID{r.Value} }
func (r Throw) Nodes() []NodeID           { return []NodeID{r.Value} }
func (Rethrow) Nodes() []NodeID           { return nil }
func (Nop) Nodes() []NodeID               { return nil }
func (Break) Nodes() []NodeID             { return nil }
func (Unreachable) Nodes() []NodeID       { return nil }
func (SourceFileInfo) Nodes() []NodeID    { return nil }
func (r SetStaticField) Nodes() []NodeID  { return []NodeID{r.Value} }
func (r StArg) Nodes() []NodeID           { return []NodeID{r.Value} }
func (r CpObj) Nodes() []NodeID           { return []NodeID{r.Dst, r.Src} }
func (r InitObj) Nodes() []NodeID         { return []NodeID{r.Addr} }
func (r CpBlk) Nodes() []NodeID           { return []NodeID{r.Dst, r.Src, r.Len} }
func (r InitBlk) Nodes() []NodeID         { return []NodeID{r.Dst, r.Value, r.Count} }
func (r CallIRoot) Nodes() []NodeID       { return append([]NodeID{r.FnPtr}, r.Args...) }
func (ExitSpecialRegion) Nodes() []NodeID { return nil }

func encodeRoot(kind string, kv ...any) IRObject {
	obj := encodeNode(kind, kv...)
	obj["r"] = obj["n"]
	delete(obj, "n")
	return obj
}

func (r StLoc) Encode() IRObject {
	return encodeRoot("stloc", "local", IRInt(r.Local), "value", IRInt(r.Value))
}
func (r Branch) Encode() IRObject {
	return encodeRoot("branch",
		"target", IRInt(r.Target),
		"sub_target", IRInt(r.SubTarget),
		"cond", IRString(r.Cond.Kind.String()),
		"lhs", IRInt(r.Cond.Lhs),
		"rhs", IRInt(r.Cond.Rhs),
		"unsigned", IRBool(r.Cond.Unsigned),
	)
}
func (r StInd) Encode() IRObject {
	return encodeRoot("stind", "addr", IRInt(r.Addr), "value", IRInt(r.Value), "type", IRInt(r.Type), "volatile", IRBool(r.Volatile))
}
func (r SetField) Encode() IRObject {
	return encodeRoot("stfld", "field", IRInt(r.Field), "addr", IRInt(r.Addr), "value", IRInt(r.Value))
}
func (r CallRoot) Encode() IRObject {
	return encodeRoot("call", "method", IRInt(r.Method), "args", idArray(r.Args), "pure", IRBool(r.Pure))
}
func (r Ret) Encode() IRObject   { return encodeRoot("ret", "value", IRInt(r.Value)) }
func (VoidRet) Encode() IRObject { return encodeRoot("void_ret") }
func (r Pop) Encode() IRObject   { return encodeRoot("pop", "value", IRInt(r.Value)) }
func (r Throw) Encode() IRObject { return encodeRoot("throw", "value", IRInt(r.Value)) }
func (Rethrow) Encode() IRObject { return encodeRoot("rethrow") }
func (Nop) Encode() IRObject     { return encodeRoot("nop") }
func (Break) Encode() IRObject   { return encodeRoot("break") }
func (r Unreachable) Encode() IRObject {
	return encodeRoot("unreachable", "message", IRString(r.Message))
}
func (r SourceFileInfo) Encode() IRObject {
	return encodeRoot("source_info", "file", IRString(r.File), "line", IRInt(r.Line), "column", IRInt(r.Column))
}
func (r SetStaticField) Encode() IRObject {
	return encodeRoot("stsfld", "field", IRInt(r.Field), "value", IRInt(r.Value))
}
func (r StArg) Encode() IRObject {
	return encodeRoot("starg", "arg", IRInt(r.Arg), "value", IRInt(r.Value))
}
func (r CpObj) Encode() IRObject {
	return encodeRoot("cpobj", "dst", IRInt(r.Dst), "src", IRInt(r.Src), "type", IRInt(r.Type))
}
func (r InitObj) Encode() IRObject {
	return encodeRoot("initobj", "addr", IRInt(r.Addr), "type", IRInt(r.Type))
}
func (r CpBlk) Encode() IRObject {
	return encodeRoot("cpblk", "dst", IRInt(r.Dst), "src", IRInt(r.Src), "len", IRInt(r.Len))
}
func (r InitBlk) Encode() IRObject {
	return encodeRoot("initblk", "dst", IRInt(r.Dst), "value", IRInt(r.Value), "count", IRInt(r.Count))
}
func (r CallIRoot) Encode() IRObject {
	return encodeRoot("calli", "fnptr", IRInt(r.FnPtr), "sig", IRInt(r.Sig), "args", idArray(r.Args))
}
func (r ExitSpecialRegion) Encode() IRObject {
	return encodeRoot("exit_region", "target", IRInt(r.Target), "source", IRInt(r.Source))
}
