package typecheck

import (
	"github.com/roach88/ilverify/internal/ir"
)

// Root returns nil if the root is well-typed, otherwise the first error
// found in left-to-right order of its operands.
func (c *Checker) Root(id ir.RootID) error {
	switch r := c.a.Root(id).(type) {
	case ir.StLoc:
		got, err := c.Node(r.Value)
		if err != nil {
			return err
		}
		slot, err := c.local(r.Local)
		if err != nil {
			return err
		}
		want := c.a.Type(slot)
		if !Assignable(c.a, got, want) {
			return errLocalAssignmentWrong(r.Local, c.mangle(got), c.mangle(want))
		}
		return nil

	case ir.Branch:
		return c.branch(r.Cond)

	case ir.StInd:
		addr, err := c.Node(r.Addr)
		if err != nil {
			return err
		}
		value, err := c.Node(r.Value)
		if err != nil {
			return err
		}
		declared := c.a.Type(r.Type)
		elem, ok := ir.PointedTo(addr)
		if !ok {
			return errWriteWrongAddr(c.mangle(addr), c.mangle(declared))
		}
		pointee := c.a.Type(elem)
		if !Assignable(c.a, declared, pointee) && !sameIntWidth(pointee, declared) && !boolAsI8(pointee, declared) {
			return errWriteWrongAddr(c.mangle(addr), c.mangle(declared))
		}
		if !Assignable(c.a, value, declared) && !sameIntWidth(value, declared) && !boolAsI8(value, declared) {
			return errWriteWrongValue(c.mangle(declared), c.mangle(value))
		}
		return nil

	case ir.SetField:
		addr, err := c.Node(r.Addr)
		if err != nil {
			return err
		}
		value, err := c.Node(r.Value)
		if err != nil {
			return err
		}
		field := c.a.Field(r.Field)
		want := c.a.Type(field.Type)
		if !Assignable(c.a, value, want) {
			return errFieldAssignWrongType(c.mangle(want), c.fieldName(field), c.mangle(value))
		}
		return c.fieldBase(addr, field, false)

	case ir.CallRoot:
		return c.callRoot(r)

	case ir.CallIRoot:
		_, err := c.callIndirect(r.FnPtr, r.Sig, r.Args)
		return err

	case ir.Ret, ir.VoidRet, ir.Pop, ir.Throw, ir.Rethrow, ir.Nop, ir.Break,
		ir.Unreachable, ir.SourceFileInfo, ir.SetStaticField, ir.StArg,
		ir.CpObj, ir.InitObj, ir.CpBlk, ir.InitBlk, ir.ExitSpecialRegion:
		for _, n := range r.Nodes() {
			if _, err := c.Node(n); err != nil {
				return err
			}
		}
		return nil
	}
	panic("typecheck: unhandled root " + c.a.Root(id).Kind())
}

func (c *Checker) branch(cond ir.BranchCond) error {
	switch {
	case cond.Kind == ir.CondAlways:
		return nil
	case !cond.Kind.Relational():
		t, err := c.Node(cond.Lhs)
		if err != nil {
			return err
		}
		switch t.(type) {
		case ir.Bool, ir.Int:
			return nil
		}
		return errConditionNotBool(c.mangle(t))
	}

	lhs, err := c.Node(cond.Lhs)
	if err != nil {
		return err
	}
	rhs, err := c.Node(cond.Rhs)
	if err != nil {
		return err
	}
	if !Assignable(c.a, lhs, rhs) || isValueClass(c.a, lhs) || isValueClass(c.a, rhs) {
		return errCantCompareTypes(c.mangle(lhs), c.mangle(rhs))
	}
	return nil
}

// callRoot checks a call statement. Only static calls check the argument
// count: for the other kinds the receiver is implicit.
func (c *Checker) callRoot(r ir.CallRoot) error {
	m := c.a.MethodRef(r.Method)
	sig := c.a.Sig(m.Sig)
	if m.Kind == ir.Static && len(r.Args) != len(sig.Inputs) {
		return errCallArgcWrong(len(sig.Inputs), len(r.Args), m.Name)
	}
	for i, argID := range r.Args {
		got, err := c.Node(argID)
		if err != nil {
			return err
		}
		if i >= len(sig.Inputs) {
			continue
		}
		want := c.a.Type(sig.Inputs[i])
		if !Assignable(c.a, got, want) {
			return errCallArgTypeWrong(c.mangle(got), c.mangle(want), i, m.Name)
		}
	}
	return nil
}
