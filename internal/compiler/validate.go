package compiler

import (
	"fmt"
	"sort"

	"github.com/roach88/ilverify/internal/ir"
)

// Validation error codes (E100-E199). These are structural problems of a
// unit, independent of typing.
const (
	ErrEmptyBody          = "E101" // method body has no roots
	ErrBranchOutOfRange   = "E102" // branch target beyond the body
	ErrMissingTerminator  = "E103" // last root can fall through
	ErrDuplicateLocal     = "E104" // two locals share a name
	ErrVoidSlot           = "E105" // local or input declared void
	ErrRecursiveValueType = "E106" // value class contains itself by value
)

// ValidationError represents a structural validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled unit for structural problems.
// Returns all errors found (does not fail-fast).
func Validate(u *Unit) []ValidationError {
	var errs []ValidationError
	for i := range u.Methods {
		errs = append(errs, validateMethod(u, &u.Methods[i])...)
	}
	return append(errs, validateClasses(u)...)
}

func validateMethod(u *Unit, m *Method) []ValidationError {
	var errs []ValidationError
	a := u.Arena
	field := func(format string, args ...any) string {
		return "methods." + m.Name + fmt.Sprintf(format, args...)
	}

	for i, in := range a.Sig(m.Func.Sig).Inputs {
		if _, ok := a.Type(in).(ir.Void); ok {
			errs = append(errs, ValidationError{
				Field:   field(".inputs[%d]", i),
				Message: "argument declared void",
				Code:    ErrVoidSlot,
			})
		}
	}

	names := make(map[string]int)
	for i, l := range m.Func.Locals {
		if _, ok := a.Type(l.Type).(ir.Void); ok {
			errs = append(errs, ValidationError{
				Field:   field(".locals[%d]", i),
				Message: fmt.Sprintf("local %q declared void", l.Name),
				Code:    ErrVoidSlot,
			})
		}
		if l.Name == "" {
			continue
		}
		if prev, dup := names[l.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field(".locals[%d]", i),
				Message: fmt.Sprintf("duplicate local name %q (first at %d)", l.Name, prev),
				Code:    ErrDuplicateLocal,
			})
			continue
		}
		names[l.Name] = i
	}

	if len(m.Roots) == 0 {
		return append(errs, ValidationError{
			Field:   field(".body"),
			Message: "method body is empty",
			Code:    ErrEmptyBody,
		})
	}

	for i, id := range m.Roots {
		var target uint32
		switch r := a.Root(id).(type) {
		case ir.Branch:
			target = r.Target
		case ir.ExitSpecialRegion:
			target = r.Target
		default:
			continue
		}
		if int(target) >= len(m.Roots) {
			errs = append(errs, ValidationError{
				Field:   field(".body[%d]", i),
				Message: fmt.Sprintf("target %d beyond body of %d roots", target, len(m.Roots)),
				Code:    ErrBranchOutOfRange,
			})
		}
	}

	last := len(m.Roots) - 1
	if !terminates(a.Root(m.Roots[last])) {
		errs = append(errs, ValidationError{
			Field:   field(".body[%d]", last),
			Message: fmt.Sprintf("body ends with %s and can fall through", a.Root(m.Roots[last]).Kind()),
			Code:    ErrMissingTerminator,
		})
	}
	return errs
}

// terminates reports whether control never continues past r.
func terminates(r ir.Root) bool {
	switch r := r.(type) {
	case ir.Ret, ir.VoidRet, ir.Throw, ir.Rethrow, ir.Unreachable, ir.ExitSpecialRegion:
		return true
	case ir.Branch:
		return r.Cond.Kind == ir.CondAlways
	}
	return false
}

// validateClasses reports value classes whose layout would be infinite.
func validateClasses(u *Unit) []ValidationError {
	a := u.Arena
	names := make([]string, 0, len(u.Classes))
	for name := range u.Classes {
		names = append(names, name)
	}
	sort.Strings(names)

	// embeds lists the value classes each class holds by value.
	embeds := func(c ir.ClassRefID) []ir.ClassRefID {
		def, ok := a.ClassDef(c)
		if !ok {
			return nil
		}
		var out []ir.ClassRefID
		for _, f := range def.Fields {
			if inner, ok := ir.AsClass(a.Type(f.Type)); ok && a.ClassRef(inner).ValueType {
				out = append(out, inner)
			}
		}
		return out
	}

	var errs []ValidationError
	for _, name := range names {
		start := u.Classes[name]
		if !a.ClassRef(start).ValueType {
			continue
		}
		seen := map[ir.ClassRefID]bool{}
		stack := embeds(start)
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if c == start {
				errs = append(errs, ValidationError{
					Field:   "classes." + name,
					Message: fmt.Sprintf("value class %s contains itself by value", name),
					Code:    ErrRecursiveValueType,
				})
				break
			}
			if seen[c] {
				continue
			}
			seen[c] = true
			stack = append(stack, embeds(c)...)
		}
	}
	return errs
}
