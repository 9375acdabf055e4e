package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/ilverify/internal/ir"
)

// bodyBuilder compiles the nodes and roots of one method body.
type bodyBuilder struct {
	*builder
	calls []string
	seen  map[string]bool
}

var (
	intsByName   = make(map[string]ir.Int)
	floatsByName = map[string]ir.Float{"f32": ir.F32, "f64": ir.F64}
)

func init() {
	for _, i := range ir.Ints {
		intsByName[i.Name()] = i
	}
}

// single splits a one-key struct into its key and value.
func single(v cue.Value) (string, cue.Value, error) {
	iter, err := v.Fields()
	if err != nil {
		return "", cue.Value{}, errAt(v, "expected a single-key struct")
	}
	if !iter.Next() {
		return "", cue.Value{}, errAt(v, "empty struct has no variant")
	}
	key, val := iter.Label(), iter.Value()
	if iter.Next() {
		return "", cue.Value{}, errAt(v, "expected exactly one variant, got %q and %q", key, iter.Label())
	}
	return key, val, nil
}

func (bb *bodyBuilder) node(v cue.Value, depth int) (ir.NodeID, error) {
	if !v.Exists() {
		return 0, errAt(v, "operand is required")
	}
	if depth > MaxDepth {
		return 0, errAt(v, "expression nested deeper than %d", MaxDepth)
	}
	n, err := bb.nodeOf(v, depth)
	if err != nil {
		return 0, err
	}
	return bb.a.InternNode(n), nil
}

func (bb *bodyBuilder) nodeOf(v cue.Value, depth int) (ir.Node, error) {
	key, val, err := single(v)
	if err != nil {
		return nil, err
	}

	if i, ok := intsByName[key]; ok {
		bits, err := intBits(val)
		if err != nil {
			return nil, err
		}
		return ir.ConstInt{Type: i, Bits: bits}, nil
	}
	if f, ok := floatsByName[key]; ok {
		x, err := val.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if f == ir.F32 {
			return ir.NewConstF32(float32(x)), nil
		}
		return ir.NewConstF64(x), nil
	}
	if op, ok := ir.ParseBinOp(key); ok {
		lhs, rhs, err := bb.pair(val, depth)
		if err != nil {
			return nil, err
		}
		return ir.BinaryOp{Lhs: lhs, Rhs: rhs, Op: op}, nil
	}

	child := func(name string) (ir.NodeID, error) {
		return bb.node(lookup(val, name), depth+1)
	}

	switch key {
	case "bool":
		b, err := val.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.ConstBool{Value: b}, nil
	case "string":
		s, err := val.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.ConstString{Value: s}, nil
	case "null":
		s, err := val.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.ConstNull{Class: bb.ownerRef(s)}, nil

	case "not", "neg":
		arg, err := bb.node(val, depth+1)
		if err != nil {
			return nil, err
		}
		op := ir.Not
		if key == "neg" {
			op = ir.Neg
		}
		return ir.UnaryOp{Arg: arg, Op: op}, nil

	case "ldloc", "ldloca", "ldarg", "ldarga":
		idx, err := uint32Of(val)
		if err != nil {
			return nil, err
		}
		switch key {
		case "ldloc":
			return ir.LdLoc{Local: idx}, nil
		case "ldloca":
			return ir.LdLocA{Local: idx}, nil
		case "ldarg":
			return ir.LdArg{Arg: idx}, nil
		}
		return ir.LdArgA{Arg: idx}, nil

	case "call":
		m, args, pure, err := bb.call(val, depth)
		if err != nil {
			return nil, err
		}
		return ir.Call{Method: m, Args: args, Pure: pure}, nil
	case "calli":
		fnPtr, sig, args, err := bb.callIndirect(val, depth)
		if err != nil {
			return nil, err
		}
		return ir.CallI{FnPtr: fnPtr, Sig: sig, Args: args}, nil

	case "intcast":
		in, err := child("input")
		if err != nil {
			return nil, err
		}
		target, err := bb.intTarget(lookup(val, "target"))
		if err != nil {
			return nil, err
		}
		signed, err := optBool(val, "signed")
		if err != nil {
			return nil, err
		}
		ext := ir.ZeroExtend
		if signed {
			ext = ir.SignExtend
		}
		return ir.IntCast{Input: in, Target: target, Extend: ext}, nil
	case "floatcast":
		in, err := child("input")
		if err != nil {
			return nil, err
		}
		tv := lookup(val, "target")
		s, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		target, ok := floatsByName[s]
		if !ok {
			return nil, errAt(tv, "expected a float type, got %q", s)
		}
		signed, err := optBool(val, "signed")
		if err != nil {
			return nil, err
		}
		return ir.FloatCast{Input: in, Target: target, Signed: signed}, nil
	case "ref_to_ptr":
		in, err := bb.node(val, depth+1)
		if err != nil {
			return nil, err
		}
		return ir.RefToPtr{Input: in}, nil
	case "ptrcast":
		in, err := child("input")
		if err != nil {
			return nil, err
		}
		t, err := bb.typ(lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		return ir.PtrCast{Input: in, Result: t}, nil

	case "ldflda", "ldfld":
		addr, err := child("addr")
		if err != nil {
			return nil, err
		}
		f, err := bb.field(lookup(val, "field"), lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		if key == "ldflda" {
			return ir.LdFieldAddress{Addr: addr, Field: f}, nil
		}
		return ir.LdField{Addr: addr, Field: f}, nil
	case "ldind":
		addr, err := child("addr")
		if err != nil {
			return nil, err
		}
		t, err := bb.typ(lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		volatile, err := optBool(val, "volatile")
		if err != nil {
			return nil, err
		}
		return ir.LdInd{Addr: addr, Type: t, Volatile: volatile}, nil

	case "sizeof", "ldtoken":
		t, err := bb.typ(val)
		if err != nil {
			return nil, err
		}
		if key == "sizeof" {
			return ir.SizeOf{Type: t}, nil
		}
		return ir.LdTypeToken{Type: t}, nil
	case "get_exception":
		return ir.GetException{}, nil
	case "isinst", "castclass", "unbox_any":
		obj, err := child("object")
		if err != nil {
			return nil, err
		}
		t, err := bb.typ(lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		switch key {
		case "isinst":
			return ir.IsInst{Object: obj, Type: t}, nil
		case "castclass":
			return ir.CheckedCast{Object: obj, Type: t}, nil
		}
		return ir.UnboxAny{Object: obj, Type: t}, nil

	case "localloc":
		size, err := bb.node(val, depth+1)
		if err != nil {
			return nil, err
		}
		return ir.LocAlloc{Size: size}, nil
	case "localloc_aligned":
		t, err := bb.typ(lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		align, err := lookup(val, "align").Uint64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.LocAllocAligned{Type: t, Align: align}, nil

	case "ldsfld", "ldsflda":
		name, tpe := val, cue.Value{}
		if val.IncompleteKind() == cue.StructKind {
			name, tpe = lookup(val, "field"), lookup(val, "type")
		}
		f, err := bb.staticField(name, tpe)
		if err != nil {
			return nil, err
		}
		if key == "ldsfld" {
			return ir.LdStaticField{Field: f}, nil
		}
		return ir.LdStaticFieldAddress{Field: f}, nil
	case "ldftn":
		m, err := bb.methodRef(val)
		if err != nil {
			return nil, err
		}
		return ir.LdFtn{Method: m}, nil

	case "ldlen":
		arr, err := bb.node(val, depth+1)
		if err != nil {
			return nil, err
		}
		return ir.LdLen{Array: arr}, nil
	case "ldelem":
		arr, err := child("array")
		if err != nil {
			return nil, err
		}
		idx, err := child("index")
		if err != nil {
			return nil, err
		}
		return ir.LdElem{Array: arr, Index: idx}, nil
	}

	return nil, errAt(v, "unknown node %q", key)
}

// pair compiles a two-element list of operands.
func (bb *bodyBuilder) pair(v cue.Value, depth int) (ir.NodeID, ir.NodeID, error) {
	ids, err := bb.nodes(v, depth)
	if err != nil {
		return 0, 0, err
	}
	if len(ids) != 2 {
		return 0, 0, errAt(v, "expected 2 operands, got %d", len(ids))
	}
	return ids[0], ids[1], nil
}

// nodes compiles an optional list of nodes.
func (bb *bodyBuilder) nodes(v cue.Value, depth int) ([]ir.NodeID, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var ids []ir.NodeID
	for iter.Next() {
		id, err := bb.node(iter.Value(), depth+1)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (bb *bodyBuilder) call(v cue.Value, depth int) (ir.MethodRefID, []ir.NodeID, bool, error) {
	m, err := bb.methodRef(lookup(v, "method"))
	if err != nil {
		return 0, nil, false, err
	}
	args, err := bb.nodes(lookup(v, "args"), depth)
	if err != nil {
		return 0, nil, false, err
	}
	pure, err := optBool(v, "pure")
	return m, args, pure, err
}

func (bb *bodyBuilder) callIndirect(v cue.Value, depth int) (ir.NodeID, ir.SigID, []ir.NodeID, error) {
	fnPtr, err := bb.node(lookup(v, "fnptr"), depth+1)
	if err != nil {
		return 0, 0, nil, err
	}
	sig, err := bb.sig(lookup(v, "sig"))
	if err != nil {
		return 0, 0, nil, err
	}
	args, err := bb.nodes(lookup(v, "args"), depth)
	return fnPtr, sig, args, err
}

// methodRef resolves a method or extern by name and records the reference.
func (bb *bodyBuilder) methodRef(v cue.Value) (ir.MethodRefID, error) {
	name, err := v.String()
	if err != nil {
		return 0, formatCUEError(err)
	}
	id, ok := bb.methods[name]
	if !ok {
		return 0, errAt(v, "unknown method %q", name)
	}
	if !bb.seen[name] {
		bb.seen[name] = true
		bb.calls = append(bb.calls, name)
	}
	return id, nil
}

func (bb *bodyBuilder) intTarget(v cue.Value) (ir.Int, error) {
	s, err := v.String()
	if err != nil {
		return 0, formatCUEError(err)
	}
	i, ok := intsByName[s]
	if !ok {
		return 0, errAt(v, "expected an integer type, got %q", s)
	}
	return i, nil
}

// intBits accepts any integer that fits in 64 bits, signed or not, and
// keeps its two's-complement pattern.
func intBits(v cue.Value) (uint64, error) {
	if i, err := v.Int64(); err == nil {
		return uint64(i), nil
	}
	u, err := v.Uint64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return u, nil
}

func lookup(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

func optBool(v cue.Value, name string) (bool, error) {
	bv := lookup(v, name)
	if !bv.Exists() {
		return false, nil
	}
	b, err := bv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}
