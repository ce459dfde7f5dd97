package assignability_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typeeval/core/internal/assignability"
	"github.com/typeeval/core/internal/classbuilder"
	"github.com/typeeval/core/internal/typevars"
	"github.com/typeeval/core/internal/types"
)

func objectClassDetails() *types.ClassDetails {
	d := &types.ClassDetails{Name: "object", Fields: types.NewSymbolTable()}
	d.MRO = []*types.ClassDetails{d}
	return d
}

func newClass(name string, fields *types.SymbolTable, bases ...*types.ClassDetails) *types.ClassDetails {
	baseTypes := make([]*types.ClassType, len(bases))
	for i, b := range bases {
		baseTypes[i] = &types.ClassType{Details: b}
	}
	d := &types.ClassDetails{Name: name, Fields: fields, Bases: baseTypes}
	classbuilder.New(nil).BuildMRO(d)
	return d
}

func instance(d *types.ClassDetails) *types.ObjectType {
	return types.NewInstance(&types.ClassType{Details: d})
}

func TestCanAssignIdenticalClass(t *testing.T) {
	object := objectClassDetails()
	c := assignability.New(nil, nil)
	require.True(t, c.CanAssign(instance(object), instance(object), nil, 0))
}

func TestCanAssignAnyAbsorbs(t *testing.T) {
	object := objectClassDetails()
	c := assignability.New(nil, nil)
	require.True(t, c.CanAssign(instance(object), types.AnySimple, nil, 0))
	require.True(t, c.CanAssign(types.AnySimple, instance(object), nil, 0))
	require.True(t, c.CanAssign(instance(object), types.Unknown, nil, 0))
}

func TestCanAssignSubclassToBase(t *testing.T) {
	object := objectClassDetails()
	base := newClass("Base", types.NewSymbolTable(), object)
	derived := newClass("Derived", types.NewSymbolTable(), base)

	c := assignability.New(nil, nil)
	require.True(t, c.CanAssign(instance(base), instance(derived), nil, 0))
	require.False(t, c.CanAssign(instance(derived), instance(base), nil, 0))
}

func TestCanAssignUnionSrcRequiresAllMembers(t *testing.T) {
	object := objectClassDetails()
	a := newClass("A", types.NewSymbolTable(), object)
	b := newClass("B", types.NewSymbolTable(), object)

	c := assignability.New(nil, nil)
	union := types.NewUnion([]types.Type{instance(a), instance(b)})
	require.True(t, c.CanAssign(instance(object), union, nil, 0))
	require.False(t, c.CanAssign(instance(a), union, nil, 0))
}

func TestCanAssignUnionDstAcceptsAnyMember(t *testing.T) {
	object := objectClassDetails()
	a := newClass("A", types.NewSymbolTable(), object)
	b := newClass("B", types.NewSymbolTable(), object)

	c := assignability.New(nil, nil)
	union := types.NewUnion([]types.Type{instance(a), instance(b)})
	require.True(t, c.CanAssign(union, instance(a), nil, 0))
}

func TestCanAssignProtocolStructuralMatch(t *testing.T) {
	object := objectClassDetails()
	lenFn := &types.FunctionType{Details: &types.FunctionDetails{
		Name:           "__len__",
		Parameters:     []*types.Parameter{{Name: "self"}},
		DeclaredReturn: types.NewInstance(&types.ClassType{Details: &types.ClassDetails{Name: "int"}}),
	}}

	protoFields := types.NewSymbolTable()
	protoFields.Set("__len__", &types.Symbol{Name: "__len__", SynthesizedType: classbuilder.BindMethod(lenFn, false)})
	proto := newClass("HasLen", protoFields, object)
	proto.Flags |= types.ClassFlagProtocol

	listFields := types.NewSymbolTable()
	listFields.Set("__len__", &types.Symbol{Name: "__len__", SynthesizedType: classbuilder.BindMethod(lenFn, false)})
	list := newClass("list", listFields, object)

	intFields := types.NewSymbolTable()
	intClass := newClass("int", intFields, object)

	c := assignability.New(nil, nil)
	require.True(t, c.CanAssign(instance(proto), instance(list), nil, 0), "list has __len__, should satisfy HasLen")
	require.False(t, c.CanAssign(instance(proto), instance(intClass), nil, 0), "int has no __len__")
}

func TestCanAssignTypeVarPopulatesMap(t *testing.T) {
	object := objectClassDetails()
	c := assignability.New(nil, nil)
	m := typevars.NewMap()
	tv := &types.TypeVarType{Name: "T", Scope: "head"}

	require.True(t, c.CanAssign(tv, instance(object), m, 0))
	got, ok := m.Get(tv)
	require.True(t, ok)
	require.True(t, got.Equals(instance(object)))
}

func TestFunctionShapeContravariantParameters(t *testing.T) {
	object := objectClassDetails()
	base := newClass("Base", types.NewSymbolTable(), object)
	derived := newClass("Derived", types.NewSymbolTable(), base)

	// dst wants (Base) -> None; src accepts the wider (object) -> None,
	// which is fine: any Base the caller passes is also an object.
	dst := &types.FunctionType{Details: &types.FunctionDetails{
		Parameters:     []*types.Parameter{{Name: "x", Type: instance(base)}},
		DeclaredReturn: types.None,
	}}
	src := &types.FunctionType{Details: &types.FunctionDetails{
		Parameters:     []*types.Parameter{{Name: "x", Type: instance(object)}},
		DeclaredReturn: types.None,
	}}

	c := assignability.New(nil, nil)
	require.True(t, c.CanAssign(dst, src, nil, 0))

	// The reverse fails: src narrower than dst's promised parameter.
	srcNarrow := &types.FunctionType{Details: &types.FunctionDetails{
		Parameters:     []*types.Parameter{{Name: "x", Type: instance(derived)}},
		DeclaredReturn: types.None,
	}}
	require.False(t, c.CanAssign(dst, srcNarrow, nil, 0))
}
