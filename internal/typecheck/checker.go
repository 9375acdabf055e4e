// Package typecheck proves IR nodes and roots well-typed.
//
// A Checker is bound to one function: its signature supplies argument
// types and its locals supply slot types. Checking is demand-driven and
// recursive over the node DAG; the first violated rule is returned as an
// *Error and nothing else is reported for that node or root.
//
// The checker reads the arena and only ever appends to it (derived types
// such as *u8 for stack allocations). It panics only on internal invariant
// violations, never on ill-typed input.
package typecheck

import (
	"fmt"

	"github.com/roach88/ilverify/internal/arena"
	"github.com/roach88/ilverify/internal/ir"
)

// Func is the context a node or root is checked in.
type Func struct {
	Sig    ir.SigID
	Locals []ir.LocalDef
}

type result struct {
	t   ir.Type
	err error
}

// Checker typechecks the nodes and roots of one function. Node results are
// memoized for the Checker's lifetime, so a node shared by several
// expressions is checked once.
type Checker struct {
	a    *arena.Arena
	fn   Func
	sig  ir.Signature
	memo map[ir.NodeID]result
}

// New returns a Checker for fn.
func New(a *arena.Arena, fn Func) *Checker {
	return &Checker{
		a:    a,
		fn:   fn,
		sig:  a.Sig(fn.Sig),
		memo: make(map[ir.NodeID]result),
	}
}

// CheckNode returns the type of a node or the first error found in it.
func CheckNode(a *arena.Arena, fn Func, id ir.NodeID) (ir.Type, error) {
	return New(a, fn).Node(id)
}

// CheckRoot returns nil if the root is well-typed, otherwise the first
// error found in left-to-right order.
func CheckRoot(a *arena.Arena, fn Func, id ir.RootID) error {
	return New(a, fn).Root(id)
}

// Node returns the type of a node or the first error found in it.
func (c *Checker) Node(id ir.NodeID) (ir.Type, error) {
	if r, ok := c.memo[id]; ok {
		return r.t, r.err
	}
	t, err := c.node(c.a.Node(id))
	c.memo[id] = result{t: t, err: err}
	return t, err
}

func (c *Checker) mangle(t ir.Type) string {
	return c.a.MangleType(t)
}

func (c *Checker) mangleID(id ir.TypeID) string {
	return c.a.Mangle(id)
}

func (c *Checker) className(id ir.ClassRefID) string {
	return c.mangle(ir.ClassType{Class: id})
}

func (c *Checker) fieldName(f ir.FieldDesc) string {
	return fmt.Sprintf("%s::%s", c.a.ClassRef(f.Owner).Name, f.Name)
}

func (c *Checker) local(loc uint32) (ir.TypeID, error) {
	if int(loc) >= len(c.fn.Locals) {
		return 0, errLocalOutOfRange(loc, len(c.fn.Locals))
	}
	return c.fn.Locals[loc].Type, nil
}

func (c *Checker) arg(arg uint32) (ir.TypeID, error) {
	if int(arg) >= len(c.sig.Inputs) {
		return 0, errArgOutOfRange(arg, len(c.sig.Inputs))
	}
	return c.sig.Inputs[arg], nil
}

// fieldBase checks that base can reach field: it must point to, or with
// direct set be, an instance of the field's owner, and the owner's known
// definition must declare the field.
func (c *Checker) fieldBase(base ir.Type, field ir.FieldDesc, direct bool) error {
	var pointee ir.Type
	if elem, ok := ir.PointedTo(base); ok {
		pointee = c.a.Type(elem)
	} else if _, ok := base.(ir.ClassType); ok && direct {
		pointee = base
	} else {
		return errTypeNotPtr(c.mangle(base))
	}

	owner, ok := ir.AsClass(pointee)
	if !ok {
		return errFieldAccessInvalidType(c.mangle(pointee), c.fieldName(field))
	}
	if owner != field.Owner {
		return errFieldOwnerMismatch(c.className(owner), c.className(field.Owner), c.fieldName(field))
	}
	if def, ok := c.a.ClassDef(field.Owner); ok && !def.HasField(field.Name, field.Type) {
		return errFieldNotPresent(c.mangleID(field.Type), field.Name, c.className(field.Owner))
	}
	return nil
}
