package typecheck

import (
	"github.com/roach88/ilverify/internal/arena"
	"github.com/roach88/ilverify/internal/ir"
)

// Assignable reports whether a value of type src may be used where dst is
// expected. Besides equality it admits:
//   - pointers and function pointers interchanged with native-sized ints
//   - any pointer to or from a void pointer
//   - a managed reference where a raw pointer to the same type is expected
//   - reference classes, strings, arrays and generics as the platform object
func Assignable(a *arena.Arena, src, dst ir.Type) bool {
	if src == dst {
		return true
	}
	switch d := dst.(type) {
	case ir.Int:
		if ir.IsPointerSized(d) {
			switch src.(type) {
			case ir.Ptr, ir.FnPtr:
				return true
			}
		}
	case ir.Ptr:
		if ir.IsPointerSized(src) {
			return true
		}
		switch s := src.(type) {
		case ir.Ptr:
			return isVoid(a, d.Elem) || isVoid(a, s.Elem)
		case ir.Ref:
			return s.Elem == d.Elem
		}
	case ir.FnPtr:
		return ir.IsPointerSized(src)
	case ir.PlatformObject:
		switch s := src.(type) {
		case ir.ClassType:
			return !a.ClassRef(s.Class).ValueType
		case ir.PlatformString, ir.PlatformArray, ir.PlatformGeneric:
			return true
		}
	}
	return false
}

// IsGCRef reports whether t is a managed reference type: a reference class,
// the platform object, a string or an array.
func IsGCRef(a *arena.Arena, t ir.Type) bool {
	switch t := t.(type) {
	case ir.ClassType:
		return !a.ClassRef(t.Class).ValueType
	case ir.PlatformObject, ir.PlatformString, ir.PlatformArray:
		return true
	}
	return false
}

func isVoid(a *arena.Arena, id ir.TypeID) bool {
	_, ok := a.Type(id).(ir.Void)
	return ok
}

// derefEqual reports whether both types point to the same element type.
func derefEqual(x, y ir.Type) bool {
	xe, ok := ir.PointedTo(x)
	if !ok {
		return false
	}
	ye, ok := ir.PointedTo(y)
	return ok && xe == ye
}

// isValueClass reports whether t is an instance of a value-type class.
func isValueClass(a *arena.Arena, t ir.Type) bool {
	c, ok := ir.AsClass(t)
	return ok && a.ClassRef(c).ValueType
}

// sameIntWidth reports whether both are integers of the same width,
// ignoring signedness.
func sameIntWidth(x, y ir.Type) bool {
	xi, ok := ir.AsInt(x)
	if !ok {
		return false
	}
	yi, ok := ir.AsInt(y)
	return ok && xi.AsUnsigned() == yi.AsUnsigned()
}

// boolAsI8 reports a bool on the memory side of an i8 store.
func boolAsI8(t, declared ir.Type) bool {
	return t == ir.Type(ir.Bool{}) && declared == ir.Type(ir.I8)
}
