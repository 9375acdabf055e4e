package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntSignedness(t *testing.T) {
	for _, i := range Ints {
		t.Run(i.Name(), func(t *testing.T) {
			u := i.AsUnsigned()
			assert.False(t, u.Signed())
			if !i.Signed() {
				assert.Equal(t, i, u)
			}
		})
	}

	assert.Equal(t, U32, I32.AsUnsigned())
	assert.Equal(t, USize, ISize.AsUnsigned())
	assert.Equal(t, U128, I128.AsUnsigned())
}

func TestIntShiftable(t *testing.T) {
	assert.False(t, I128.Shiftable())
	assert.False(t, U128.Shiftable())
	assert.True(t, I32.Shiftable())
	assert.True(t, USize.Shiftable())
}

func TestPointedTo(t *testing.T) {
	elem, ok := PointedTo(Ptr{Elem: 7})
	assert.True(t, ok)
	assert.Equal(t, TypeID(7), elem)

	elem, ok = PointedTo(Ref{Elem: 3})
	assert.True(t, ok)
	assert.Equal(t, TypeID(3), elem)

	_, ok = PointedTo(FnPtr{Sig: 1})
	assert.False(t, ok)
	_, ok = PointedTo(I32)
	assert.False(t, ok)
}

func TestTypesAreComparable(t *testing.T) {
	var a, b Type = PlatformArray{Elem: 2, Dims: 1}, PlatformArray{Elem: 2, Dims: 1}
	assert.True(t, a == b)
	assert.False(t, Type(Ptr{Elem: 1}) == Type(Ref{Elem: 1}))
}

func TestBranchNodes(t *testing.T) {
	always := Branch{Cond: BranchCond{Kind: CondAlways, Lhs: 5, Rhs: 6}}
	truthy := Branch{Cond: BranchCond{Kind: CondTrue, Lhs: 5, Rhs: 6}}
	rel := Branch{Cond: BranchCond{Kind: CondLe, Lhs: 5, Rhs: 6}}

	assert.Empty(t, always.Nodes())
	assert.Equal(t, []NodeID{5}, truthy.Nodes())
	assert.Equal(t, []NodeID{5, 6}, rel.Nodes())
}

func TestOperatorNamesRoundTrip(t *testing.T) {
	for _, op := range BinOps {
		parsed, ok := ParseBinOp(op.String())
		assert.True(t, ok, op.String())
		assert.Equal(t, op, parsed)
	}
	_, ok := ParseBinOp("pow")
	assert.False(t, ok)

	kind, ok := ParseMethodKind("virtual")
	assert.True(t, ok)
	assert.Equal(t, Virtual, kind)

	cond, ok := ParseCondKind("ge")
	assert.True(t, ok)
	assert.Equal(t, CondGe, cond)
}
