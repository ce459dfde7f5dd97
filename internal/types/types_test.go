package types_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/typeeval/core/internal/types"
)

// cmpOpts ignores the unexported fields every Type variant's struct
// literal carries (none currently, but Class/Function details hold
// pointers compared by identity elsewhere); structural diffs here only
// care about the exported shape NewUnion and Substitute are expected
// to produce.
var cmpOpts = []cmp.Option{cmpopts.EquateComparable()}

// ClassType.Equals compares Details by identity, so every helper call
// shares one ClassDetails per class name.
var (
	intDetails = &types.ClassDetails{Name: "int"}
	strDetails = &types.ClassDetails{Name: "str"}
)

func intClass() *types.ClassType {
	return &types.ClassType{Details: intDetails}
}

func strClass() *types.ClassType {
	return &types.ClassType{Details: strDetails}
}

func TestNewUnionFlattensNestedUnions(t *testing.T) {
	inner := types.NewUnion([]types.Type{types.NewInstance(intClass()), types.None})
	got := types.NewUnion([]types.Type{inner, types.NewInstance(strClass())})

	union, ok := got.(*types.UnionType)
	require.True(t, ok, "expected a flattened union, got %s", got)
	require.Len(t, union.Subtypes, 3, "nested union must flatten rather than nest: %s", got)
}

func TestNewUnionCollapsesSingleton(t *testing.T) {
	got := types.NewUnion([]types.Type{types.NewInstance(intClass())})
	require.True(t, got.Equals(types.NewInstance(intClass())))
	if _, isUnion := got.(*types.UnionType); isUnion {
		t.Fatalf("a one-element union must collapse to its element, got %s", got)
	}
}

func TestNewUnionOfNoneIsNever(t *testing.T) {
	got := types.NewUnion(nil)
	require.True(t, got.Equals(types.Never))
}

func TestNewUnionDedupesLiteralsOnWidening(t *testing.T) {
	one := types.NewInstance(intClass())
	withLiteral := &types.ObjectType{Class: intClass(), Literal: &types.LiteralValue{Kind: types.LiteralInt, IntValue: 1}}

	got := types.NewUnion([]types.Type{one, withLiteral})

	// one literal present alongside its un-literaled class: since a
	// literal member is present, literal identity governs and both
	// members survive as distinct (one has no literal, one does).
	union, ok := got.(*types.UnionType)
	require.True(t, ok)
	require.Len(t, union.Subtypes, 2)

	// but two identical literals collapse.
	again := types.NewUnion([]types.Type{withLiteral, withLiteral})
	require.True(t, again.Equals(withLiteral))
}

func TestClassVsObjectAreDistinctTypes(t *testing.T) {
	class := intClass()
	obj := types.NewInstance(class)

	require.False(t, class.Equals(obj), "Class and its Object must never compare equal")
	require.True(t, obj.Class.Equals(class), "Object.Class must point back at the same Class value")
}

func TestTypeVarIdentityIsNameAndScopeNotStructural(t *testing.T) {
	a := &types.TypeVarType{Name: "T", Scope: "f"}
	b := &types.TypeVarType{Name: "T", Scope: "g"}
	c := &types.TypeVarType{Name: "T", Scope: "f"}

	require.False(t, a.Equals(b), "same name, different scope must not compare equal")
	require.True(t, a.Equals(c), "same name and scope must compare equal despite distinct pointers")
	require.NotEqual(t, a.Key(), b.Key())
}

func TestSubstituteReplacesTypeVarThroughContainers(t *testing.T) {
	tv := &types.TypeVarType{Name: "T", Scope: "f"}
	listOfT := types.NewUnion([]types.Type{tv, types.None})

	subs := map[string]types.Type{tv.Key(): types.NewInstance(intClass())}
	got := listOfT.Substitute(subs)

	want := types.NewUnion([]types.Type{types.NewInstance(intClass()), types.None})
	if diff := cmp.Diff(want.String(), got.String()); diff != "" {
		t.Fatalf("Substitute mismatch (-want +got):\n%s", diff)
	}
}

func TestFunctionTypeEffectiveReturn(t *testing.T) {
	details := &types.FunctionDetails{Name: "f"}
	fn := &types.FunctionType{Details: details}
	require.Equal(t, types.Unknown, fn.EffectiveReturn(), "no declared or inferred return is Unknown")

	fn.InferredReturn = types.NewInstance(intClass())
	require.True(t, fn.EffectiveReturn().Equals(types.NewInstance(intClass())))

	details.DeclaredReturn = types.None
	require.True(t, fn.EffectiveReturn().Equals(types.None), "declared return wins over inferred")
}

func TestLiteralValueEquality(t *testing.T) {
	a := types.LiteralValue{Kind: types.LiteralInt, IntValue: 1}
	b := types.LiteralValue{Kind: types.LiteralInt, IntValue: 1}
	c := types.LiteralValue{Kind: types.LiteralInt, IntValue: 2}

	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))
	require.Empty(t, cmp.Diff(a, b, cmpOpts...))
}
