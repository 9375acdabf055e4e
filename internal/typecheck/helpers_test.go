package typecheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ilverify/internal/arena"
	"github.com/roach88/ilverify/internal/ir"
)

// fixture builds IR for one function. Values of arbitrary type are made by
// declaring a local of that type and loading it.
type fixture struct {
	t  *testing.T
	a  *arena.Arena
	fn Func
}

func newFixture(t *testing.T, inputs ...ir.Type) *fixture {
	t.Helper()
	a := arena.New()
	ids := make([]ir.TypeID, len(inputs))
	for i, in := range inputs {
		ids[i] = a.InternType(in)
	}
	sig := a.InternSig(ir.Signature{Inputs: ids, Output: a.InternType(ir.Void{})})
	return &fixture{t: t, a: a, fn: Func{Sig: sig}}
}

func (f *fixture) ty(t ir.Type) ir.TypeID { return f.a.InternType(t) }

func (f *fixture) parse(s string) ir.TypeID {
	f.t.Helper()
	id, err := f.a.ParseType(s)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) typ(s string) ir.Type { return f.a.Type(f.parse(s)) }

func (f *fixture) node(n ir.Node) ir.NodeID { return f.a.InternNode(n) }

// value returns a node producing a value of the mangled type s.
func (f *fixture) value(s string) ir.NodeID {
	f.t.Helper()
	f.fn.Locals = append(f.fn.Locals, ir.LocalDef{Name: s, Type: f.parse(s)})
	return f.node(ir.LdLoc{Local: uint32(len(f.fn.Locals) - 1)})
}

func (f *fixture) check(n ir.Node) (ir.Type, error) {
	return CheckNode(f.a, f.fn, f.node(n))
}

func (f *fixture) checkRoot(r ir.Root) error {
	return CheckRoot(f.a, f.fn, f.a.InternRoot(r))
}

// mustType checks n and returns the mangled result type.
func (f *fixture) mustType(n ir.Node) string {
	f.t.Helper()
	got, err := f.check(n)
	require.NoError(f.t, err)
	return f.a.MangleType(got)
}

// mustFail checks n and returns the typecheck error.
func (f *fixture) mustFail(n ir.Node, code ErrorCode) *Error {
	f.t.Helper()
	_, err := f.check(n)
	require.Error(f.t, err)
	te, ok := err.(*Error)
	require.True(f.t, ok, "expected *Error, got %T", err)
	require.Equal(f.t, code, te.Code, te.Message)
	return te
}

func (f *fixture) method(name, sig string, kind ir.MethodKind) ir.MethodRefID {
	f.t.Helper()
	fp, ok := f.typ(sig).(ir.FnPtr)
	require.True(f.t, ok)
	owner := f.a.InternClassRef(ir.ClassRef{Name: "Owner"})
	return f.a.InternMethodRef(ir.MethodRef{Class: owner, Name: name, Sig: fp.Sig, Kind: kind})
}

func (f *fixture) sig(s string) ir.SigID {
	f.t.Helper()
	fp, ok := f.typ(s).(ir.FnPtr)
	require.True(f.t, ok)
	return fp.Sig
}
