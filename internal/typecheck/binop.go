package typecheck

import (
	"github.com/roach88/ilverify/internal/ir"
)

// binop returns the result type of op applied to lhs and rhs. Each
// operator has its own table; rows that do not match fall through to the
// shared integer fallback.
func (c *Checker) binop(op ir.BinOp, lhs, rhs ir.Type) (ir.Type, error) {
	switch op {
	case ir.Add, ir.Sub:
		switch l := lhs.(type) {
		case ir.Int:
			if rhs == lhs {
				return l, nil
			}
			if ir.IsPointerSized(l) {
				switch rhs.(type) {
				case ir.Ptr, ir.FnPtr:
					return rhs, nil
				}
			}
		case ir.Float:
			if rhs == lhs {
				return l, nil
			}
		case ir.Ptr, ir.FnPtr:
			// Pointer arithmetic is byte-granular, so void pointers are fine.
			if rhs == lhs || ir.IsPointerSized(rhs) {
				return lhs, nil
			}
		case ir.Ref:
			// Offsetting a managed reference is tolerated.
			if ir.IsPointerSized(rhs) {
				return lhs, nil
			}
		}
		return c.intFallback(op, lhs, rhs)

	case ir.Eq:
		if !c.compatible(lhs, rhs) {
			return nil, c.wrongBinop(op, lhs, rhs)
		}
		if isValueClass(c.a, lhs) || isValueClass(c.a, rhs) {
			return nil, errValueTypeCompare(c.mangle(lhs), c.mangle(rhs))
		}
		return ir.Bool{}, nil

	case ir.Mul:
		switch l := lhs.(type) {
		case ir.Int:
			if rhs == lhs {
				return l, nil
			}
			if ir.IsPointerSized(l) {
				switch rhs.(type) {
				case ir.Ptr, ir.FnPtr:
					return rhs, nil
				}
				// Size computations multiply a native int by an i32 count.
				if rhs == ir.Type(ir.I32) {
					return l, nil
				}
			}
		case ir.Float:
			if rhs == lhs {
				return l, nil
			}
		}
		switch {
		case Assignable(c.a, lhs, rhs):
			return rhs, nil
		case Assignable(c.a, rhs, lhs):
			return lhs, nil
		}
		return nil, c.wrongBinop(op, lhs, rhs)

	case ir.Lt, ir.Gt, ir.LtUn, ir.GtUn:
		if c.compatible(lhs, rhs) {
			return ir.Bool{}, nil
		}
		return nil, c.wrongBinop(op, lhs, rhs)

	case ir.Or, ir.XOr, ir.And:
		switch lhs.(type) {
		case ir.Int:
			if rhs == lhs {
				return lhs, nil
			}
		case ir.Bool:
			if rhs == lhs {
				return lhs, nil
			}
		}
		return c.intFallback(op, lhs, rhs)

	case ir.Rem, ir.RemUn:
		switch l := lhs.(type) {
		case ir.Int:
			if rhs == lhs && l.Signed() == (op == ir.Rem) {
				return l, nil
			}
		case ir.Float:
			// Float remainder yields bool.
			if rhs == lhs {
				return ir.Bool{}, nil
			}
		}
		return c.intFallback(op, lhs, rhs)

	case ir.Shl, ir.Shr, ir.ShrUn:
		l, lok := ir.AsInt(lhs)
		r, rok := ir.AsInt(rhs)
		if lok && rok && r.Shiftable() {
			switch {
			case op == ir.Shl,
				op == ir.Shr && l.Signed(),
				op == ir.ShrUn && !l.Signed():
				return l, nil
			}
		}
		return c.intFallback(op, lhs, rhs)

	case ir.Div:
		switch l := lhs.(type) {
		case ir.Int:
			if rhs == lhs && l.Signed() {
				return l, nil
			}
		case ir.Float:
			if rhs == lhs {
				return l, nil
			}
		}
		return c.intFallback(op, lhs, rhs)

	case ir.DivUn:
		if l, ok := ir.AsInt(lhs); ok && rhs == lhs && !l.Signed() && l != ir.U128 {
			return l, nil
		}
		return c.intFallback(op, lhs, rhs)
	}
	panic("typecheck: unknown binary operator " + op.String())
}

// intFallback is the row shared by every operator table: when one operand
// is assignable to the other and at least one is an integer, the result is
// that integer type.
func (c *Checker) intFallback(op ir.BinOp, lhs, rhs ir.Type) (ir.Type, error) {
	li, lok := ir.AsInt(lhs)
	ri, rok := ir.AsInt(rhs)
	if (lok || rok) && c.compatible(lhs, rhs) {
		if lok {
			return li, nil
		}
		return ri, nil
	}
	return nil, c.wrongBinop(op, lhs, rhs)
}

// compatible reports equality or assignability in either direction.
func (c *Checker) compatible(lhs, rhs ir.Type) bool {
	return lhs == rhs || Assignable(c.a, lhs, rhs) || Assignable(c.a, rhs, lhs)
}

func (c *Checker) wrongBinop(op ir.BinOp, lhs, rhs ir.Type) error {
	return errWrongBinopArgs(c.mangle(lhs), c.mangle(rhs), op.String())
}

// unop returns the result type of op applied to arg.
func (c *Checker) unop(op ir.UnOp, arg ir.Type) (ir.Type, error) {
	switch t := arg.(type) {
	case ir.Int:
		if op == ir.Not || t.Signed() {
			return arg, nil
		}
	case ir.Float, ir.Ptr:
		return arg, nil
	}
	return nil, errWrongUnOpArgs(c.mangle(arg), op.String())
}
