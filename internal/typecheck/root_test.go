package typecheck

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ilverify/internal/ir"
)

func requireCode(t *testing.T, err error, code ErrorCode) *Error {
	t.Helper()
	require.Error(t, err)
	var te *Error
	require.True(t, errors.As(err, &te), "expected *Error, got %T", err)
	require.Equal(t, code, te.Code, te.Message)
	return te
}

func TestStoreLocal(t *testing.T) {
	f := newFixture(t)
	slot := f.value("*void")

	require.NoError(t, f.checkRoot(ir.StLoc{Local: 0, Value: f.value("*u8")}))
	require.NoError(t, f.checkRoot(ir.StLoc{Local: 0, Value: f.value("usize")}))
	require.NoError(t, f.checkRoot(ir.StLoc{Local: 0, Value: slot}))

	err := requireCode(t, f.checkRoot(ir.StLoc{Local: 0, Value: f.value("i32")}), ErrCodeLocalAssignmentWrong)
	assert.Equal(t, "0", err.Details["loc"])
	assert.Equal(t, "i32", err.Details["got"])
	assert.Equal(t, "*void", err.Details["expected"])

	requireCode(t, f.checkRoot(ir.StLoc{Local: 42, Value: slot}), ErrCodeLocalOutOfRange)
}

func TestStoreLocalValueCheckedFirst(t *testing.T) {
	f := newFixture(t)
	bad := f.node(ir.SizeOf{Type: f.parse("void")})

	requireCode(t, f.checkRoot(ir.StLoc{Local: 42, Value: bad}), ErrCodeSizeOfVoid)
}

func TestBranchConditions(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.checkRoot(ir.Branch{Target: 1}))
	require.NoError(t, f.checkRoot(ir.Branch{Target: 1, Cond: ir.BranchCond{Kind: ir.CondTrue, Lhs: f.value("bool")}}))
	require.NoError(t, f.checkRoot(ir.Branch{Target: 1, Cond: ir.BranchCond{Kind: ir.CondFalse, Lhs: f.value("u64")}}))

	err := requireCode(t, f.checkRoot(ir.Branch{Target: 1, Cond: ir.BranchCond{Kind: ir.CondTrue, Lhs: f.value("*u8")}}), ErrCodeConditionNotBool)
	assert.Equal(t, "*u8", err.Details["cond"])
	requireCode(t, f.checkRoot(ir.Branch{Target: 1, Cond: ir.BranchCond{Kind: ir.CondFalse, Lhs: f.value("f32")}}), ErrCodeConditionNotBool)
}

func TestBranchRelational(t *testing.T) {
	kinds := []ir.CondKind{ir.CondEq, ir.CondNe, ir.CondLt, ir.CondGt, ir.CondLe, ir.CondGe}

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			f := newFixture(t)
			cond := func(lhs, rhs string) ir.Root {
				return ir.Branch{Target: 2, SubTarget: 1, Cond: ir.BranchCond{Kind: kind, Lhs: f.value(lhs), Rhs: f.value(rhs), Unsigned: true}}
			}

			require.NoError(t, f.checkRoot(cond("i32", "i32")))
			require.NoError(t, f.checkRoot(cond("*u8", "isize")))
			require.NoError(t, f.checkRoot(cond("class(Handle)", "object")))

			err := requireCode(t, f.checkRoot(cond("i32", "i64")), ErrCodeCantCompareTypes)
			assert.Equal(t, "i32", err.Details["lhs"])
			assert.Equal(t, "i64", err.Details["rhs"])
			requireCode(t, f.checkRoot(cond("valuetype(Point)", "valuetype(Point)")), ErrCodeCantCompareTypes)
		})
	}
}

func TestStoreIndirect(t *testing.T) {
	tests := []struct {
		name        string
		addr, value string
		declared    string
		code        ErrorCode
	}{
		{"exact", "*i32", "i32", "i32", ""},
		{"through ref", "&f64", "f64", "f64", ""},
		{"signedness ignored on address", "*u32", "i32", "i32", ""},
		{"signedness ignored on value", "*i64", "u64", "i64", ""},
		{"bool through i8", "*bool", "i8", "i8", ""},
		{"bool value as i8", "*i8", "bool", "i8", ""},
		{"object slot", "&object", "string", "object", ""},
		{"not an address", "usize", "i32", "i32", ErrCodeWriteWrongAddr},
		{"width mismatch on address", "*i16", "i32", "i32", ErrCodeWriteWrongAddr},
		{"width mismatch on value", "*i32", "i64", "i32", ErrCodeWriteWrongValue},
		{"float into int", "*f32", "i32", "f32", ErrCodeWriteWrongValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.checkRoot(ir.StInd{Addr: f.value(tt.addr), Value: f.value(tt.value), Type: f.parse(tt.declared)})
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			requireCode(t, err, tt.code)
		})
	}
}

func TestSetField(t *testing.T) {
	f, x, missing, foreign, opaque := fieldFixture(t)

	require.NoError(t, f.checkRoot(ir.SetField{Field: x, Addr: f.value("&valuetype(Point)"), Value: f.value("i32")}))
	require.NoError(t, f.checkRoot(ir.SetField{Field: opaque, Addr: f.value("*class(Handle)"), Value: f.value("f64")}))

	err := requireCode(t, f.checkRoot(ir.SetField{Field: x, Addr: f.value("&valuetype(Point)"), Value: f.value("i64")}), ErrCodeFieldAssignWrongType)
	assert.Equal(t, "i32", err.Details["field_type"])
	assert.Equal(t, "Point::x", err.Details["field"])

	// The value is checked before the address.
	requireCode(t, f.checkRoot(ir.SetField{Field: x, Addr: f.value("i32"), Value: f.value("f32")}), ErrCodeFieldAssignWrongType)

	// A bare class instance is not a store target.
	requireCode(t, f.checkRoot(ir.SetField{Field: x, Addr: f.value("valuetype(Point)"), Value: f.value("i32")}), ErrCodeTypeNotPtr)
	requireCode(t, f.checkRoot(ir.SetField{Field: foreign, Addr: f.value("&valuetype(Point)"), Value: f.value("i32")}), ErrCodeFieldOwnerMismatch)
	requireCode(t, f.checkRoot(ir.SetField{Field: missing, Addr: f.value("&valuetype(Point)"), Value: f.value("i32")}), ErrCodeFieldNotPresent)
	requireCode(t, f.checkRoot(ir.SetField{Field: x, Addr: f.value("*u8"), Value: f.value("i32")}), ErrCodeFieldAccessInvalidType)
}

func TestCallRootArgCount(t *testing.T) {
	f := newFixture(t)
	static := f.method("s", "fn(i32,i32,i32)->void", ir.Static)
	x := f.value("i32")

	err := requireCode(t, f.checkRoot(ir.CallRoot{Method: static, Args: []ir.NodeID{x, x}}), ErrCodeCallArgcWrong)
	assert.Equal(t, "3", err.Details["expected"])
	assert.Equal(t, "2", err.Details["got"])

	for _, kind := range []ir.MethodKind{ir.Instance, ir.Virtual, ir.Constructor} {
		m := f.method("m_"+kind.String(), "fn(i32,i32,i32)->void", kind)
		assert.NoError(t, f.checkRoot(ir.CallRoot{Method: m, Args: []ir.NodeID{x, x}}), kind.String())
	}
}

func TestCallRootArgTypes(t *testing.T) {
	f := newFixture(t)
	m := f.method("v", "fn(object,i32)->void", ir.Virtual)

	require.NoError(t, f.checkRoot(ir.CallRoot{Method: m, Args: []ir.NodeID{f.value("string"), f.value("i32")}}))

	err := requireCode(t, f.checkRoot(ir.CallRoot{Method: m, Args: []ir.NodeID{f.value("string"), f.value("u32")}}), ErrCodeCallArgTypeWrong)
	assert.Equal(t, "1", err.Details["idx"])
	assert.Equal(t, "v", err.Details["name"])
}

func TestCatchAllRootsCheckOperands(t *testing.T) {
	f := newFixture(t)
	ok := f.value("i32")
	bad := f.node(ir.SizeOf{Type: f.parse("void")})
	sfld := f.a.InternStaticField(ir.StaticFieldDesc{Owner: f.a.ExceptionClass(), Name: "s", Type: f.ty(ir.I32)})
	vt := f.parse("valuetype(Point)")

	roots := []func(ir.NodeID) ir.Root{
		func(n ir.NodeID) ir.Root { return ir.Ret{Value: n} },
		func(n ir.NodeID) ir.Root { return ir.Pop{Value: n} },
		func(n ir.NodeID) ir.Root { return ir.Throw{Value: n} },
		func(n ir.NodeID) ir.Root { return ir.SetStaticField{Field: sfld, Value: n} },
		func(n ir.NodeID) ir.Root { return ir.StArg{Arg: 0, Value: n} },
		func(n ir.NodeID) ir.Root { return ir.CpObj{Dst: ok, Src: n, Type: vt} },
		func(n ir.NodeID) ir.Root { return ir.InitObj{Addr: n, Type: vt} },
		func(n ir.NodeID) ir.Root { return ir.CpBlk{Dst: ok, Src: ok, Len: n} },
		func(n ir.NodeID) ir.Root { return ir.InitBlk{Dst: n, Value: ok, Count: ok} },
	}

	for i, build := range roots {
		t.Run(fmt.Sprintf("%d/%s", i, build(ok).Kind()), func(t *testing.T) {
			require.NoError(t, f.checkRoot(build(ok)))
			requireCode(t, f.checkRoot(build(bad)), ErrCodeSizeOfVoid)
		})
	}

	for _, r := range []ir.Root{
		ir.VoidRet{}, ir.Rethrow{}, ir.Nop{}, ir.Break{},
		ir.Unreachable{Message: "unreachable"},
		ir.SourceFileInfo{File: "lib.rs", Line: 3, Column: 7},
		ir.ExitSpecialRegion{Target: 4, Source: 1},
	} {
		assert.NoError(t, f.checkRoot(r), r.Kind())
	}
}

func TestCallIRoot(t *testing.T) {
	f := newFixture(t)
	sig := f.sig("fn(i32)->void")

	require.NoError(t, f.checkRoot(ir.CallIRoot{FnPtr: f.value("fn(i32)->void"), Sig: sig, Args: []ir.NodeID{f.value("i32")}}))
	requireCode(t, f.checkRoot(ir.CallIRoot{FnPtr: f.value("*u8"), Sig: sig, Args: []ir.NodeID{f.value("i32")}}), ErrCodeIndirectCallInvalidFnPtrType)
}

func TestFirstErrorLeftToRight(t *testing.T) {
	f := newFixture(t)
	first := f.node(ir.SizeOf{Type: f.parse("void")})
	second := f.node(ir.LdLen{Array: f.value("i32")})

	requireCode(t, f.checkRoot(ir.CpBlk{Dst: first, Src: second, Len: second}), ErrCodeSizeOfVoid)
	requireCode(t, f.checkRoot(ir.CpBlk{Dst: second, Src: first, Len: first}), ErrCodeLdLenArgNotArray)
}
