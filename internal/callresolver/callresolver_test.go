package callresolver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typeeval/core/internal/assignability"
	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/cache"
	"github.com/typeeval/core/internal/callresolver"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/types"
)

// intClass/strClass are shared singletons: every intType()/strType()
// call returns an instance over the same ClassDetails pointer, so
// separately constructed instances of "the same" type still compare
// Equals, matching how the real binder hands out one ClassDetails per
// class declaration.
var intClass = func() *types.ClassDetails {
	d := &types.ClassDetails{Name: "int"}
	d.MRO = []*types.ClassDetails{d}
	return d
}()

var strClass = func() *types.ClassDetails {
	d := &types.ClassDetails{Name: "str"}
	d.MRO = []*types.ClassDetails{d}
	return d
}()

func intType() *types.ObjectType {
	return types.NewInstance(&types.ClassType{Details: intClass})
}

func strType() *types.ObjectType {
	return types.NewInstance(&types.ClassType{Details: strClass})
}

func argOf(name string) *ast.Argument {
	return &ast.Argument{Name: name, Value: &ast.Name{Value: name}}
}

func posArg() *ast.Argument {
	return &ast.Argument{Value: &ast.Constant{}}
}

func newResolver(sink *diagnostics.Sink, typed map[ast.Expr]types.Type) *callresolver.Resolver {
	checker := assignability.New(sink, nil)
	argType := func(expr ast.Expr, expected types.Type) types.Type {
		if t, ok := typed[expr]; ok {
			return t
		}
		return types.Unknown
	}
	return callresolver.New(checker, cache.New(), sink, argType)
}

func TestBindArgumentsPositionalMatch(t *testing.T) {
	sink := diagnostics.NewSink()
	arg := posArg()
	typed := map[ast.Expr]types.Type{arg.Value: intType()}
	r := newResolver(sink, typed)

	fn := &types.FunctionType{Details: &types.FunctionDetails{
		Parameters: []*types.Parameter{{Name: "x", Type: intType()}},
	}}
	call := &ast.Call{Args: []*ast.Argument{arg}}
	require.True(t, r.BindArguments(fn, call, nil))
	require.Empty(t, sink.Reports())
}

func TestBindArgumentsMissingRequiredReportsArity(t *testing.T) {
	sink := diagnostics.NewSink()
	r := newResolver(sink, nil)

	fn := &types.FunctionType{Details: &types.FunctionDetails{
		Parameters: []*types.Parameter{{Name: "x", Type: intType()}},
	}}
	call := &ast.Call{}
	require.False(t, r.BindArguments(fn, call, nil))
	require.NotEmpty(t, sink.Reports())
}

func TestBindArgumentsUnexpectedKeywordReportsArity(t *testing.T) {
	sink := diagnostics.NewSink()
	arg := argOf("y")
	typed := map[ast.Expr]types.Type{arg.Value: intType()}
	r := newResolver(sink, typed)

	fn := &types.FunctionType{Details: &types.FunctionDetails{
		Parameters: []*types.Parameter{{Name: "x", Type: intType(), HasDefault: true}},
	}}
	call := &ast.Call{Args: []*ast.Argument{arg}}
	require.False(t, r.BindArguments(fn, call, nil))
}

func TestResolveOverloadPicksFirstMatchingCandidate(t *testing.T) {
	sink := diagnostics.NewSink()
	arg := posArg()
	typed := map[ast.Expr]types.Type{arg.Value: strType()}
	r := newResolver(sink, typed)

	intOverload := &types.FunctionType{Details: &types.FunctionDetails{
		Flags:          types.FuncFlagOverload,
		Parameters:     []*types.Parameter{{Name: "x", Type: intType()}},
		DeclaredReturn: intType(),
	}}
	strOverload := &types.FunctionType{Details: &types.FunctionDetails{
		Flags:          types.FuncFlagOverload,
		Parameters:     []*types.Parameter{{Name: "x", Type: strType()}},
		DeclaredReturn: strType(),
	}}
	call := &ast.Call{Args: []*ast.Argument{arg}}

	chosen, m := r.ResolveOverload([]*types.FunctionType{intOverload, strOverload}, nil, call)
	require.Same(t, strOverload, chosen)
	require.NotNil(t, m)
	require.True(t, m.IsLocked())
}

func TestResolveOverloadNoMatchReportsOVL001(t *testing.T) {
	sink := diagnostics.NewSink()
	arg := posArg()
	typed := map[ast.Expr]types.Type{arg.Value: strType()}
	r := newResolver(sink, typed)

	intOverload := &types.FunctionType{Details: &types.FunctionDetails{
		Flags:      types.FuncFlagOverload,
		Parameters: []*types.Parameter{{Name: "x", Type: intType()}},
	}}
	call := &ast.Call{Args: []*ast.Argument{arg}}

	chosen, m := r.ResolveOverload([]*types.FunctionType{intOverload}, nil, call)
	require.Nil(t, chosen)
	require.Nil(t, m)
	found := false
	for _, rep := range sink.Reports() {
		if rep.Code == diagnostics.OVL001 {
			found = true
		}
	}
	require.True(t, found)
}

// boxClass is a single-TypeParam generic class whose __init__ takes no
// arguments, the shape `seedFromExpected` exists for: nothing in the
// constructor call itself pins the element TypeVar down, so only the
// caller's expected type can.
var boxTypeVar = &types.TypeVarType{Name: "T", Scope: "box"}

var boxClass = func() *types.ClassDetails {
	d := &types.ClassDetails{Name: "box", TypeParams: []*types.TypeVarType{boxTypeVar}}
	d.MRO = []*types.ClassDetails{d}
	return d
}()

func TestResolveConstructorSeedsTypeParamFromExpected(t *testing.T) {
	sink := diagnostics.NewSink()
	r := newResolver(sink, nil)

	class := &types.ClassType{Details: boxClass}
	call := &ast.Call{}
	expected := types.NewInstance(&types.ClassType{Details: boxClass, TypeArgs: []types.Type{strType()}})

	result, ok := r.ResolveConstructor(class, nil, nil, call, expected)
	require.True(t, ok)
	obj, isObj := result.(*types.ObjectType)
	require.True(t, isObj)
	require.Len(t, obj.Class.TypeArgs, 1)
	require.True(t, obj.Class.TypeArgs[0].Equals(strType()))
}

func TestResolveConstructorWithoutExpectedLeavesTypeParamUnknown(t *testing.T) {
	sink := diagnostics.NewSink()
	r := newResolver(sink, nil)

	class := &types.ClassType{Details: boxClass}
	call := &ast.Call{}

	result, ok := r.ResolveConstructor(class, nil, nil, call, nil)
	require.True(t, ok)
	obj, isObj := result.(*types.ObjectType)
	require.True(t, isObj)
	require.Len(t, obj.Class.TypeArgs, 1)
	require.True(t, obj.Class.TypeArgs[0].Equals(types.Unknown))
}

func TestResolveCallSpecializesTypeVarReturn(t *testing.T) {
	sink := diagnostics.NewSink()
	arg := posArg()
	argIntType := intType()
	typed := map[ast.Expr]types.Type{arg.Value: argIntType}
	r := newResolver(sink, typed)

	tv := &types.TypeVarType{Name: "T", Scope: "f"}
	fn := &types.FunctionType{Details: &types.FunctionDetails{
		Parameters:     []*types.Parameter{{Name: "x", Type: tv}},
		DeclaredReturn: tv,
	}}
	call := &ast.Call{Args: []*ast.Argument{arg}}

	result, ok := r.ResolveCall(fn, call)
	require.True(t, ok)
	require.True(t, result.Equals(argIntType))
}
