package compiler

import (
	"sort"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/ilverify/internal/arena"
	"github.com/roach88/ilverify/internal/ir"
	"github.com/roach88/ilverify/internal/typecheck"
)

type builder struct {
	a       *arena.Arena
	classes map[string]*classInfo
	methods map[string]ir.MethodRefID
}

type classInfo struct {
	ref     ir.ClassRefID
	fields  map[string]ir.TypeID // nil when the class is opaque
	statics map[string]ir.TypeID
}

// methodDecl is a method whose signature is interned but whose body is not
// compiled yet.
type methodDecl struct {
	name   string
	ref    ir.MethodRefID
	sig    ir.SigID
	locals cue.Value
	body   cue.Value
}

func newBuilder() *builder {
	return &builder{
		a:       arena.New(),
		classes: make(map[string]*classInfo),
		methods: make(map[string]ir.MethodRefID),
	}
}

// declareClasses interns every class before any field type is parsed so
// that classes may refer to each other.
func (b *builder) declareClasses(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	entries, err := sortedFields(v)
	if err != nil {
		return err
	}

	for _, e := range entries {
		ref := ir.ClassRef{Name: e.name}
		if vt := e.value.LookupPath(cue.ParsePath("valuetype")); vt.Exists() {
			if ref.ValueType, err = vt.Bool(); err != nil {
				return formatCUEError(err)
			}
		}
		if asm := e.value.LookupPath(cue.ParsePath("assembly")); asm.Exists() {
			if ref.Assembly, err = asm.String(); err != nil {
				return formatCUEError(err)
			}
		}
		b.classes[e.name] = &classInfo{ref: b.a.InternClassRef(ref), statics: map[string]ir.TypeID{}}
	}

	for _, e := range entries {
		c := b.classes[e.name]
		if fields := e.value.LookupPath(cue.ParsePath("fields")); fields.Exists() {
			if err := b.defineFields(c, fields); err != nil {
				return err
			}
		}
		if statics := e.value.LookupPath(cue.ParsePath("statics")); statics.Exists() {
			iter, err := statics.Fields()
			if err != nil {
				return formatCUEError(err)
			}
			for iter.Next() {
				t, err := b.typ(iter.Value())
				if err != nil {
					return err
				}
				c.statics[iter.Label()] = t
			}
		}
	}
	return nil
}

// defineFields reads `name: "type"` or `name: { type: "...", offset: n }`
// entries in declaration order.
func (b *builder) defineFields(c *classInfo, v cue.Value) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	def := ir.ClassDef{Ref: c.ref}
	c.fields = make(map[string]ir.TypeID)
	for iter.Next() {
		name := iter.Label()
		fv := iter.Value()
		fd := ir.FieldDef{Name: name, Offset: uint32(len(def.Fields))}

		if fv.IncompleteKind() == cue.StructKind {
			if fd.Type, err = b.typ(fv.LookupPath(cue.ParsePath("type"))); err != nil {
				return err
			}
			if off := fv.LookupPath(cue.ParsePath("offset")); off.Exists() {
				if fd.Offset, err = uint32Of(off); err != nil {
					return err
				}
			}
		} else if fd.Type, err = b.typ(fv); err != nil {
			return err
		}

		c.fields[name] = fd.Type
		def.Fields = append(def.Fields, fd)
	}

	if err := b.a.DefineClass(def); err != nil {
		return errAt(v, "%v", err)
	}
	return nil
}

// declareExterns interns methods that are called but have no body.
func (b *builder) declareExterns(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	entries, err := sortedFields(v)
	if err != nil {
		return err
	}
	for _, e := range entries {
		sig, err := b.sigOf(e.value)
		if err != nil {
			return err
		}
		if _, err := b.declareMethod(e.name, e.value, sig); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) declareMethods(v cue.Value) ([]methodDecl, error) {
	if !v.Exists() {
		return nil, nil
	}
	entries, err := sortedFields(v)
	if err != nil {
		return nil, err
	}

	decls := make([]methodDecl, 0, len(entries))
	for _, e := range entries {
		sig, err := b.sigOf(e.value)
		if err != nil {
			return nil, err
		}
		ref, err := b.declareMethod(e.name, e.value, sig)
		if err != nil {
			return nil, err
		}
		decls = append(decls, methodDecl{
			name:   e.name,
			ref:    ref,
			sig:    sig,
			locals: e.value.LookupPath(cue.ParsePath("locals")),
			body:   e.value.LookupPath(cue.ParsePath("body")),
		})
	}
	return decls, nil
}

func (b *builder) declareMethod(name string, v cue.Value, sig ir.SigID) (ir.MethodRefID, error) {
	if _, dup := b.methods[name]; dup {
		return 0, errAt(v, "method %q declared twice", name)
	}

	kind := ir.Static
	if kv := v.LookupPath(cue.ParsePath("kind")); kv.Exists() {
		s, err := kv.String()
		if err != nil {
			return 0, formatCUEError(err)
		}
		var ok bool
		if kind, ok = ir.ParseMethodKind(s); !ok {
			return 0, errAt(kv, "unknown method kind %q", s)
		}
	}

	owner := DefaultOwner
	if cv := v.LookupPath(cue.ParsePath("class")); cv.Exists() {
		var err error
		if owner, err = cv.String(); err != nil {
			return 0, formatCUEError(err)
		}
	}

	ref := b.a.InternMethodRef(ir.MethodRef{Class: b.ownerRef(owner), Name: name, Sig: sig, Kind: kind})
	b.methods[name] = ref
	return ref, nil
}

// ownerRef returns the declared class of that name, or an opaque reference
// class if none is declared.
func (b *builder) ownerRef(name string) ir.ClassRefID {
	if c, ok := b.classes[name]; ok {
		return c.ref
	}
	return b.a.InternClassRef(ir.ClassRef{Name: name})
}

// sigOf reads either `sig: "fn(...)->..."` or `inputs` and `output`.
func (b *builder) sigOf(v cue.Value) (ir.SigID, error) {
	if sv := v.LookupPath(cue.ParsePath("sig")); sv.Exists() {
		return b.sig(sv)
	}

	var sig ir.Signature
	if in := v.LookupPath(cue.ParsePath("inputs")); in.Exists() {
		iter, err := in.List()
		if err != nil {
			return 0, formatCUEError(err)
		}
		for iter.Next() {
			t, err := b.typ(iter.Value())
			if err != nil {
				return 0, err
			}
			sig.Inputs = append(sig.Inputs, t)
		}
	}

	sig.Output = b.a.InternType(ir.Void{})
	if out := v.LookupPath(cue.ParsePath("output")); out.Exists() {
		t, err := b.typ(out)
		if err != nil {
			return 0, err
		}
		sig.Output = t
	}
	return b.a.InternSig(sig), nil
}

func (b *builder) locals(v cue.Value) ([]ir.LocalDef, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var locals []ir.LocalDef
	for iter.Next() {
		lv := iter.Value()
		var def ir.LocalDef
		if nv := lv.LookupPath(cue.ParsePath("name")); nv.Exists() {
			if def.Name, err = nv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if def.Type, err = b.typ(lv.LookupPath(cue.ParsePath("type"))); err != nil {
			return nil, err
		}
		locals = append(locals, def)
	}
	return locals, nil
}

func (b *builder) compileBody(d methodDecl) (Method, error) {
	locals, err := b.locals(d.locals)
	if err != nil {
		return Method{}, err
	}
	m := Method{
		Name: d.name,
		Ref:  d.ref,
		Func: typecheck.Func{Sig: d.sig, Locals: locals},
	}
	if !d.body.Exists() {
		return m, nil
	}

	iter, err := d.body.List()
	if err != nil {
		return Method{}, formatCUEError(err)
	}
	bb := &bodyBuilder{builder: b, seen: make(map[string]bool)}
	for iter.Next() {
		root, err := bb.root(iter.Value())
		if err != nil {
			return Method{}, err
		}
		m.Roots = append(m.Roots, b.a.InternRoot(root))
	}
	m.Calls = bb.calls
	return m, nil
}

// typ parses a mangled type string.
func (b *builder) typ(v cue.Value) (ir.TypeID, error) {
	if !v.Exists() {
		return 0, errAt(v, "type is required")
	}
	s, err := v.String()
	if err != nil {
		return 0, formatCUEError(err)
	}
	id, err := b.a.ParseType(s)
	if err != nil {
		return 0, errAt(v, "%v", err)
	}
	return id, nil
}

func (b *builder) sig(v cue.Value) (ir.SigID, error) {
	id, err := b.typ(v)
	if err != nil {
		return 0, err
	}
	fp, ok := b.a.Type(id).(ir.FnPtr)
	if !ok {
		return 0, errAt(v, "expected a function signature, got %s", b.a.Mangle(id))
	}
	return fp.Sig, nil
}

// field resolves `Class::name` against declared classes. An explicit type
// takes precedence over the class definition, so fields absent from the
// definition can still be referenced.
func (b *builder) field(name, tpe cue.Value) (ir.FieldID, error) {
	owner, fname, t, err := b.member(name, tpe, func(c *classInfo) map[string]ir.TypeID { return c.fields })
	if err != nil {
		return 0, err
	}
	return b.a.InternField(ir.FieldDesc{Owner: owner, Name: fname, Type: t}), nil
}

func (b *builder) staticField(name, tpe cue.Value) (ir.StaticFieldID, error) {
	owner, fname, t, err := b.member(name, tpe, func(c *classInfo) map[string]ir.TypeID { return c.statics })
	if err != nil {
		return 0, err
	}
	return b.a.InternStaticField(ir.StaticFieldDesc{Owner: owner, Name: fname, Type: t}), nil
}

func (b *builder) member(name, tpe cue.Value, members func(*classInfo) map[string]ir.TypeID) (ir.ClassRefID, string, ir.TypeID, error) {
	s, err := name.String()
	if err != nil {
		return 0, "", 0, formatCUEError(err)
	}
	cname, fname, ok := strings.Cut(s, "::")
	if !ok || cname == "" || fname == "" {
		return 0, "", 0, errAt(name, "expected Class::member, got %q", s)
	}
	c, ok := b.classes[cname]
	if !ok {
		return 0, "", 0, errAt(name, "unknown class %q", cname)
	}

	if tpe.Exists() {
		t, err := b.typ(tpe)
		return c.ref, fname, t, err
	}
	t, ok := members(c)[fname]
	if !ok {
		return 0, "", 0, errAt(name, "%s has no member %q; give its type explicitly", cname, fname)
	}
	return c.ref, fname, t, nil
}

type entry struct {
	name  string
	value cue.Value
}

// sortedFields returns the fields of a struct ordered by label, so that
// handles do not depend on declaration order.
func sortedFields(v cue.Value) ([]entry, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var entries []entry
	for iter.Next() {
		entries = append(entries, entry{name: iter.Label(), value: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

func uint32Of(v cue.Value) (uint32, error) {
	n, err := v.Uint64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n > 1<<32-1 {
		return 0, errAt(v, "%d out of range", n)
	}
	return uint32(n), nil
}
