package typevars_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typeeval/core/internal/typevars"
	"github.com/typeeval/core/internal/types"
)

// trivialAssign is a minimal stand-in for the real assignability engine:
// Any/Unknown absorb, identical types match, everything else fails.
// Good enough to exercise the solver's own branching without pulling in
// internal/assignability (which would create an import cycle in a real
// build, and is exactly the seam the package doc explains).
func trivialAssign(dst, src types.Type) bool {
	if dst == types.AnySimple || src == types.AnySimple || dst == types.Unknown || src == types.Unknown {
		return true
	}
	return dst.Equals(src)
}

// ClassType.Equals compares Details by identity, so every helper call
// shares one ClassDetails per class name.
var (
	intDetails = &types.ClassDetails{Name: "int"}
	strDetails = &types.ClassDetails{Name: "str"}
)

func intObj() types.Type {
	return types.NewInstance(&types.ClassType{Details: intDetails})
}

func strObj() types.Type {
	return types.NewInstance(&types.ClassType{Details: strDetails})
}

func TestAssignWidenUnionsIncompatible(t *testing.T) {
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "f"}

	require.True(t, m.Assign(tv, intObj(), typevars.Widen, trivialAssign))
	got, ok := m.Get(tv)
	require.True(t, ok)
	require.True(t, got.Equals(intObj()))

	require.True(t, m.Assign(tv, strObj(), typevars.Widen, trivialAssign))
	got, _ = m.Get(tv)
	union, ok := got.(*types.UnionType)
	require.True(t, ok, "expected a union after widening with an incompatible type, got %s", got)
	require.Len(t, union.Subtypes, 2)
}

func TestAssignRespectsBound(t *testing.T) {
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "f", Bound: intObj()}

	require.True(t, m.Assign(tv, intObj(), typevars.Widen, trivialAssign))
	require.False(t, m.Assign(tv, strObj(), typevars.Widen, trivialAssign), "str violates the int bound")
}

func TestAssignConstraintSet(t *testing.T) {
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "f", Constraints: []types.Type{intObj(), strObj()}}

	require.True(t, m.Assign(tv, intObj(), typevars.Widen, trivialAssign))
	require.False(t, m.Assign(tv, strObj(), typevars.Widen, trivialAssign), "second constrained assignment must match the first pick")
}

func TestLockedMapRejectsNewWrites(t *testing.T) {
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "f"}
	require.True(t, m.Assign(tv, intObj(), typevars.Widen, trivialAssign))
	m.Lock()

	require.True(t, m.Assign(tv, intObj(), typevars.Widen, trivialAssign), "re-asserting the same solution against a locked map should succeed")
	require.False(t, m.Assign(tv, strObj(), typevars.Widen, trivialAssign), "a locked map must not accept a different solution")
}

func TestCloneIsIndependent(t *testing.T) {
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "f"}
	require.True(t, m.Assign(tv, intObj(), typevars.Widen, trivialAssign))

	clone := m.Clone()
	require.True(t, clone.Assign(tv, strObj(), typevars.Widen, trivialAssign))

	got, _ := m.Get(tv)
	require.True(t, got.Equals(intObj()), "mutating the clone must not affect the original map")
}

func TestSpecializeDefaultsUnsolvedToUnknown(t *testing.T) {
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "f"}
	require.Equal(t, types.Unknown, m.Specialize(tv, true))
}

func TestSpecializeDefaultsUnsolvedTypeVarNestedInClassArgs(t *testing.T) {
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "box"}
	boxed := &types.ClassType{Details: &types.ClassDetails{Name: "box"}, TypeArgs: []types.Type{tv}}

	got := m.Specialize(boxed, true)
	class, ok := got.(*types.ClassType)
	require.True(t, ok)
	require.Len(t, class.TypeArgs, 1)
	require.Equal(t, types.Unknown, class.TypeArgs[0])
}

func TestSpecializeKeepsSolvedTypeVarNestedInClassArgs(t *testing.T) {
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "box"}
	require.True(t, m.Assign(tv, strObj(), typevars.Widen, trivialAssign))
	boxed := &types.ClassType{Details: &types.ClassDetails{Name: "box"}, TypeArgs: []types.Type{tv}}

	got := m.Specialize(boxed, true)
	class, ok := got.(*types.ClassType)
	require.True(t, ok)
	require.True(t, class.TypeArgs[0].Equals(strObj()))
}
