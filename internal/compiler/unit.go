package compiler

import (
	"fmt"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ilverify/internal/arena"
	"github.com/roach88/ilverify/internal/ir"
	"github.com/roach88/ilverify/internal/typecheck"
)

// MaxDepth bounds how deeply node expressions may nest in a fixture. The
// checker recurses once per level.
const MaxDepth = 256

// DefaultOwner owns methods that do not name a class.
const DefaultOwner = "Program"

// Unit is a compiled fixture: every entity lives in Arena.
type Unit struct {
	Arena *arena.Arena

	// Methods with bodies, sorted by name.
	Methods []Method

	// Classes maps declared class names to their handles.
	Classes map[string]ir.ClassRefID
}

// Method is one method body ready for checking.
type Method struct {
	Name  string
	Ref   ir.MethodRefID
	Func  typecheck.Func
	Roots []ir.RootID

	// Calls lists the names of methods referenced from the body, in order
	// of first reference.
	Calls []string
}

// Method returns the method with the given name.
func (u *Unit) Method(name string) (*Method, bool) {
	i := sort.Search(len(u.Methods), func(i int) bool { return u.Methods[i].Name >= name })
	if i < len(u.Methods) && u.Methods[i].Name == name {
		return &u.Methods[i], true
	}
	return nil, false
}

// Encode lists every method with its signature, locals and the content IDs
// of its roots, in method order.
func (u *Unit) Encode() ir.IRObject {
	methods := make(ir.IRArray, len(u.Methods))
	for i, m := range u.Methods {
		roots := make(ir.IRArray, len(m.Roots))
		for j, id := range m.Roots {
			roots[j] = ir.IRString(u.Arena.RootContentID(id))
		}
		locals := make(ir.IRArray, len(m.Func.Locals))
		for j, l := range m.Func.Locals {
			locals[j] = ir.IRString(u.Arena.Mangle(l.Type))
		}
		methods[i] = ir.IRObject{
			"name":   ir.IRString(m.Name),
			"sig":    ir.IRString(u.Arena.MangleType(ir.FnPtr{Sig: m.Func.Sig})),
			"locals": locals,
			"roots":  roots,
		}
	}
	return ir.IRObject{"methods": methods}
}

// ContentID identifies the unit by the content of its method bodies.
func (u *Unit) ContentID() string {
	return ir.MustContentID(ir.DomainUnit, u)
}

// LoadFile loads and compiles a single CUE fixture file.
func LoadFile(path string) (*Unit, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	cfg := &load.Config{Dir: filepath.Dir(abs)}
	instances := load.Instances([]string{"./" + filepath.Base(abs)}, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("load %s: no instance", path)
	}
	if err := instances[0].Err; err != nil {
		return nil, formatCUEError(err)
	}

	ctx := cuecontext.New()
	v := ctx.BuildInstance(instances[0])
	return CompileUnit(v)
}

// CompileUnit compiles a CUE value into a Unit. Compilation stops at the
// first error.
//
// The value is the fixture root, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`methods: main: { body: [{ void_ret: {} }] }`)
//	unit, err := CompileUnit(v)
func CompileUnit(v cue.Value) (*Unit, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	b := newBuilder()
	if err := b.declareClasses(v.LookupPath(cue.ParsePath("classes"))); err != nil {
		return nil, err
	}
	if err := b.declareExterns(v.LookupPath(cue.ParsePath("externs"))); err != nil {
		return nil, err
	}
	decls, err := b.declareMethods(v.LookupPath(cue.ParsePath("methods")))
	if err != nil {
		return nil, err
	}

	unit := &Unit{Arena: b.a, Classes: make(map[string]ir.ClassRefID, len(b.classes))}
	for name, c := range b.classes {
		unit.Classes[name] = c.ref
	}
	for _, d := range decls {
		m, err := b.compileBody(d)
		if err != nil {
			return nil, err
		}
		unit.Methods = append(unit.Methods, m)
	}
	return unit, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func errAt(v cue.Value, format string, args ...any) *CompileError {
	return &CompileError{
		Field:   v.Path().String(),
		Message: fmt.Sprintf(format, args...),
		Pos:     v.Pos(),
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
