package typecheck

import (
	"fmt"

	"github.com/roach88/ilverify/internal/ir"
)

func (c *Checker) node(n ir.Node) (ir.Type, error) {
	switch n := n.(type) {
	case ir.ConstInt:
		return n.Type, nil
	case ir.ConstFloat:
		return n.Type, nil
	case ir.ConstBool:
		return ir.Bool{}, nil
	case ir.ConstString:
		return ir.PlatformString{}, nil
	case ir.ConstNull:
		return ir.ClassType{Class: n.Class}, nil

	case ir.BinaryOp:
		lhs, err := c.Node(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := c.Node(n.Rhs)
		if err != nil {
			return nil, err
		}
		return c.binop(n.Op, lhs, rhs)

	case ir.UnaryOp:
		arg, err := c.Node(n.Arg)
		if err != nil {
			return nil, err
		}
		return c.unop(n.Op, arg)

	case ir.LdLoc:
		t, err := c.local(n.Local)
		if err != nil {
			return nil, err
		}
		return c.a.Type(t), nil
	case ir.LdLocA:
		t, err := c.local(n.Local)
		if err != nil {
			return nil, err
		}
		return ir.Ref{Elem: t}, nil
	case ir.LdArg:
		t, err := c.arg(n.Arg)
		if err != nil {
			return nil, err
		}
		return c.a.Type(t), nil
	case ir.LdArgA:
		t, err := c.arg(n.Arg)
		if err != nil {
			return nil, err
		}
		return ir.Ref{Elem: t}, nil

	case ir.Call:
		return c.call(n)
	case ir.CallI:
		return c.callIndirect(n.FnPtr, n.Sig, n.Args)

	case ir.IntCast:
		in, err := c.Node(n.Input)
		if err != nil {
			return nil, err
		}
		switch in.(type) {
		case ir.Float, ir.Int, ir.Ptr, ir.FnPtr, ir.Bool:
			return n.Target, nil
		}
		return nil, errIntCastInvalidInput(c.mangle(in), n.Target.Name())

	case ir.FloatCast:
		in, err := c.Node(n.Input)
		if err != nil {
			return nil, err
		}
		switch in.(type) {
		case ir.Float, ir.Int:
			return n.Target, nil
		}
		return nil, errFloatCastInvalidInput(c.mangle(in), n.Target.Name())

	case ir.RefToPtr:
		in, err := c.Node(n.Input)
		if err != nil {
			return nil, err
		}
		elem, ok := ir.PointedTo(in)
		if !ok {
			return nil, errRefToPtrArgNotRef(c.mangle(in))
		}
		return ir.Ptr{Elem: elem}, nil

	case ir.PtrCast:
		return c.ptrCast(n)

	case ir.LdFieldAddress:
		field := c.a.Field(n.Field)
		base, err := c.Node(n.Addr)
		if err != nil {
			return nil, err
		}
		// An address can only be taken through a pointer or reference.
		if err := c.fieldBase(base, field, false); err != nil {
			return nil, err
		}
		if _, ok := base.(ir.Ref); ok {
			return ir.Ref{Elem: field.Type}, nil
		}
		return ir.Ptr{Elem: field.Type}, nil

	case ir.LdField:
		field := c.a.Field(n.Field)
		base, err := c.Node(n.Addr)
		if err != nil {
			return nil, err
		}
		if err := c.fieldBase(base, field, true); err != nil {
			return nil, err
		}
		return c.a.Type(field.Type), nil

	case ir.LdInd:
		addr, err := c.Node(n.Addr)
		if err != nil {
			return nil, err
		}
		elem, ok := ir.PointedTo(addr)
		if !ok {
			return nil, errTypeNotPtr(c.mangle(addr))
		}
		pointee, declared := c.a.Type(elem), c.a.Type(n.Type)
		if !Assignable(c.a, pointee, declared) {
			return nil, errDerefWrongPtr(c.mangle(declared), c.mangle(pointee))
		}
		return pointee, nil

	case ir.SizeOf:
		if _, ok := c.a.Type(n.Type).(ir.Void); ok {
			return nil, errSizeOfVoid()
		}
		return ir.I32, nil

	case ir.GetException:
		return ir.ClassType{Class: c.a.ExceptionClass()}, nil

	case ir.IsInst:
		if _, err := c.Node(n.Object); err != nil {
			return nil, err
		}
		return ir.Bool{}, nil

	case ir.CheckedCast:
		if _, err := c.Node(n.Object); err != nil {
			return nil, err
		}
		return c.a.Type(n.Type), nil

	case ir.LocAlloc:
		if _, err := c.Node(n.Size); err != nil {
			return nil, err
		}
		return ir.Ptr{Elem: c.a.InternType(ir.U8)}, nil

	case ir.LocAllocAligned:
		return ir.Ptr{Elem: n.Type}, nil

	case ir.LdStaticField:
		return c.a.Type(c.a.StaticField(n.Field).Type), nil
	case ir.LdStaticFieldAddress:
		return ir.Ptr{Elem: c.a.StaticField(n.Field).Type}, nil

	case ir.LdFtn:
		return ir.FnPtr{Sig: c.a.MethodRef(n.Method).Sig}, nil

	case ir.LdTypeToken:
		return ir.ClassType{Class: c.a.TypeHandleClass()}, nil

	case ir.LdLen:
		arr, err := c.Node(n.Array)
		if err != nil {
			return nil, err
		}
		if _, err := c.array1D(arr); err != nil {
			return nil, err
		}
		return ir.I32, nil

	case ir.LdElem:
		arr, err := c.Node(n.Array)
		if err != nil {
			return nil, err
		}
		index, err := c.Node(n.Index)
		if err != nil {
			return nil, err
		}
		elem, err := c.array1D(arr)
		if err != nil {
			return nil, err
		}
		switch index {
		case ir.Type(ir.I32), ir.Type(ir.U32), ir.Type(ir.I64), ir.Type(ir.USize), ir.Type(ir.ISize):
			return c.a.Type(elem), nil
		}
		return nil, errArrIndexInvalidType(c.mangle(index))

	case ir.UnboxAny:
		obj, err := c.Node(n.Object)
		if err != nil {
			return nil, err
		}
		switch o := obj.(type) {
		case ir.ClassType:
			if c.a.ClassRef(o.Class).ValueType {
				return nil, errExpectedClassGotValuetype(c.mangle(obj))
			}
		case ir.PlatformObject, ir.PlatformString, ir.PlatformGeneric:
		default:
			return nil, errTypeNotClass(c.mangle(obj))
		}
		return c.a.Type(n.Type), nil
	}
	panic(fmt.Sprintf("typecheck: unhandled node %T", n))
}

// call checks a direct call used as a value. A constructor call creates
// its object: the receiver is not passed and the result is the owner.
func (c *Checker) call(n ir.Call) (ir.Type, error) {
	m := c.a.MethodRef(n.Method)
	sig := c.a.Sig(m.Sig)
	inputs := sig.Inputs
	var out ir.Type = c.a.Type(sig.Output)
	if m.Kind == ir.Constructor {
		if len(inputs) > 0 {
			inputs = inputs[1:]
		}
		out = ir.ClassType{Class: m.Class}
	}

	if len(n.Args) != len(inputs) {
		return nil, errCallArgcWrong(len(inputs), len(n.Args), m.Name)
	}
	for i, argID := range n.Args {
		got, err := c.Node(argID)
		if err != nil {
			return nil, err
		}
		want := c.a.Type(inputs[i])
		if !Assignable(c.a, got, want) && !derefEqual(got, want) {
			return nil, errCallArgTypeWrong(c.mangle(got), c.mangle(want), i, m.Name)
		}
	}
	return out, nil
}

// callIndirect checks an indirect call. The callee must be a function
// pointer whatever signature the call supplies; its signature is compared
// only after the arguments check out.
func (c *Checker) callIndirect(fnPtr ir.NodeID, sigID ir.SigID, args []ir.NodeID) (ir.Type, error) {
	ptr, err := c.Node(fnPtr)
	if err != nil {
		return nil, err
	}
	fp, ok := ptr.(ir.FnPtr)
	if !ok {
		return nil, errIndirectCallInvalidFnPtrType(c.mangle(ptr))
	}
	sig := c.a.Sig(sigID)
	if len(args) != len(sig.Inputs) {
		return nil, errIndirectCallArgcWrong(len(sig.Inputs), len(args))
	}
	for i, argID := range args {
		got, err := c.Node(argID)
		if err != nil {
			return nil, err
		}
		want := c.a.Type(sig.Inputs[i])
		if !Assignable(c.a, got, want) {
			return nil, errIndirectCallArgTypeWrong(c.mangle(got), c.mangle(want), i)
		}
	}

	if !c.a.Sig(fp.Sig).Equal(sig) {
		return nil, errIndirectCallInvalidFnPtrSig(c.mangle(ir.FnPtr{Sig: sigID}), c.mangle(ptr))
	}
	return c.a.Type(sig.Output), nil
}

// ptrCast checks that a raw pointer cast neither consumes nor produces a
// managed reference.
func (c *Checker) ptrCast(n ir.PtrCast) (ir.Type, error) {
	in, err := c.Node(n.Input)
	if err != nil {
		return nil, err
	}
	res := c.a.Type(n.Result)

	switch t := in.(type) {
	case ir.Ptr, ir.Ref:
		elem, _ := ir.PointedTo(t)
		if IsGCRef(c.a, c.a.Type(elem)) {
			return nil, errManagedPtrCast(c.mangle(in), c.mangle(res))
		}
	case ir.FnPtr:
	case ir.Int:
		if !ir.IsPointerSized(t) {
			return nil, errInvalidPtrCast(c.mangle(res), c.mangle(in))
		}
	default:
		return nil, errInvalidPtrCast(c.mangle(res), c.mangle(in))
	}

	if IsGCRef(c.a, res) {
		return nil, errManagedPtrCast(c.mangle(in), c.mangle(res))
	}
	return res, nil
}

// array1D returns the element type of a one-dimensional array.
func (c *Checker) array1D(t ir.Type) (ir.TypeID, error) {
	arr, ok := t.(ir.PlatformArray)
	if !ok {
		return 0, errLdLenArgNotArray(c.mangle(t))
	}
	if arr.Dims != 1 {
		return 0, errLdLenArrNot1D(c.mangle(t))
	}
	return arr.Elem, nil
}
