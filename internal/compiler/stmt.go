package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/ilverify/internal/ir"
)

func (bb *bodyBuilder) root(v cue.Value) (ir.Root, error) {
	key, val, err := single(v)
	if err != nil {
		return nil, err
	}

	operand := func(x cue.Value) (ir.NodeID, error) { return bb.node(x, 1) }
	named := func(name string) (ir.NodeID, error) { return operand(lookup(val, name)) }
	index := func(name string) (uint32, error) {
		iv := lookup(val, name)
		if !iv.Exists() {
			return 0, errAt(val, "%s is required", name)
		}
		return uint32Of(iv)
	}

	switch key {
	case "stloc":
		local, err := index("local")
		if err != nil {
			return nil, err
		}
		value, err := named("value")
		if err != nil {
			return nil, err
		}
		return ir.StLoc{Local: local, Value: value}, nil

	case "branch":
		return bb.branch(val)

	case "stind":
		addr, err := named("addr")
		if err != nil {
			return nil, err
		}
		value, err := named("value")
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
		return ir.StInd{Addr: addr, Value: value, Type: t, Volatile: volatile}, nil

	case "stfld":
		f, err := bb.field(lookup(val, "field"), lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		addr, err := named("addr")
		if err != nil {
			return nil, err
		}
		value, err := named("value")
		if err != nil {
			return nil, err
		}
		return ir.SetField{Field: f, Addr: addr, Value: value}, nil

	case "call":
		m, args, pure, err := bb.call(val, 0)
		if err != nil {
			return nil, err
		}
		return ir.CallRoot{Method: m, Args: args, Pure: pure}, nil
	case "calli":
		fnPtr, sig, args, err := bb.callIndirect(val, 0)
		if err != nil {
			return nil, err
		}
		return ir.CallIRoot{FnPtr: fnPtr, Sig: sig, Args: args}, nil

	case "ret", "pop", "throw":
		value, err := operand(val)
		if err != nil {
			return nil, err
		}
		switch key {
		case "ret":
			return ir.Ret{Value: value}, nil
		case "pop":
			return ir.Pop{Value: value}, nil
		}
		return ir.Throw{Value: value}, nil

	case "void_ret":
		return ir.VoidRet{}, nil
	case "rethrow":
		return ir.Rethrow{}, nil
	case "nop":
		return ir.Nop{}, nil
	case "break":
		return ir.Break{}, nil
	case "unreachable":
		msg, err := val.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Unreachable{Message: msg}, nil

	case "source":
		file, err := lookup(val, "file").String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		line, err := index("line")
		if err != nil {
			return nil, err
		}
		col, err := index("column")
		if err != nil {
			return nil, err
		}
		return ir.SourceFileInfo{File: file, Line: line, Column: col}, nil

	case "stsfld":
		f, err := bb.staticField(lookup(val, "field"), lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		value, err := named("value")
		if err != nil {
			return nil, err
		}
		return ir.SetStaticField{Field: f, Value: value}, nil
	case "starg":
		arg, err := index("arg")
		if err != nil {
			return nil, err
		}
		value, err := named("value")
		if err != nil {
			return nil, err
		}
		return ir.StArg{Arg: arg, Value: value}, nil

	case "cpobj":
		dst, err := named("dst")
		if err != nil {
			return nil, err
		}
		src, err := named("src")
		if err != nil {
			return nil, err
		}
		t, err := bb.typ(lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		return ir.CpObj{Dst: dst, Src: src, Type: t}, nil
	case "initobj":
		addr, err := named("addr")
		if err != nil {
			return nil, err
		}
		t, err := bb.typ(lookup(val, "type"))
		if err != nil {
			return nil, err
		}
		return ir.InitObj{Addr: addr, Type: t}, nil
	case "cpblk", "initblk":
		names := [3]string{"dst", "src", "len"}
		if key == "initblk" {
			names = [3]string{"dst", "value", "count"}
		}
		var ops [3]ir.NodeID
		for i, name := range names {
			if ops[i], err = named(name); err != nil {
				return nil, err
			}
		}
		if key == "cpblk" {
			return ir.CpBlk{Dst: ops[0], Src: ops[1], Len: ops[2]}, nil
		}
		return ir.InitBlk{Dst: ops[0], Value: ops[1], Count: ops[2]}, nil

	case "exit_special_region":
		target, err := index("target")
		if err != nil {
			return nil, err
		}
		source, err := index("source")
		if err != nil {
			return nil, err
		}
		return ir.ExitSpecialRegion{Target: target, Source: source}, nil
	}

	return nil, errAt(v, "unknown root %q", key)
}

// branch reads `{ target, sub_target?, cond?, lhs?, rhs?, unsigned? }`.
// The condition defaults to always.
func (bb *bodyBuilder) branch(v cue.Value) (ir.Root, error) {
	tv := lookup(v, "target")
	if !tv.Exists() {
		return nil, errAt(v, "target is required")
	}
	target, err := uint32Of(tv)
	if err != nil {
		return nil, err
	}
	br := ir.Branch{Target: target}
	if sv := lookup(v, "sub_target"); sv.Exists() {
		if br.SubTarget, err = uint32Of(sv); err != nil {
			return nil, err
		}
	}

	if cv := lookup(v, "cond"); cv.Exists() {
		s, err := cv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		kind, ok := ir.ParseCondKind(s)
		if !ok {
			return nil, errAt(cv, "unknown condition %q", s)
		}
		br.Cond.Kind = kind
	}

	switch {
	case br.Cond.Kind == ir.CondAlways:
	case br.Cond.Kind.Relational():
		if br.Cond.Lhs, err = bb.node(lookup(v, "lhs"), 1); err != nil {
			return nil, err
		}
		if br.Cond.Rhs, err = bb.node(lookup(v, "rhs"), 1); err != nil {
			return nil, err
		}
		if br.Cond.Unsigned, err = optBool(v, "unsigned"); err != nil {
			return nil, err
		}
	default:
		if br.Cond.Lhs, err = bb.node(lookup(v, "lhs"), 1); err != nil {
			return nil, err
		}
	}
	return br, nil
}
