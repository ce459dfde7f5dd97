package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/config"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/evaluator"
	"github.com/typeeval/core/internal/importresolver"
	"github.com/typeeval/core/internal/symbols"
	"github.com/typeeval/core/internal/types"
)

// classDetails builds a minimal single-class MRO, enough for the
// builtin-lookalike classes these end-to-end scenarios reference (int,
// str) without going through the full classbuilder pipeline.
func classDetails(name string) *types.ClassDetails {
	d := &types.ClassDetails{Name: name, Fields: types.NewSymbolTable()}
	d.MRO = []*types.ClassDetails{d}
	return d
}

func newTestEvaluator() *evaluator.Evaluator {
	e := evaluator.New(importresolver.New(), config.Default())
	e.BuiltinClass = func(name string) *types.ClassDetails { return classDetails(name) }
	return e
}

// TestOptionalNarrowingViaIsNone checks that in the `if x is None`
// branch a reference to x narrows to None; in the else branch it
// narrows to int.
func TestOptionalNarrowingViaIsNone(t *testing.T) {
	e := newTestEvaluator()

	intClass := classDetails("int")
	intType := types.NewInstance(&types.ClassType{Details: intClass})
	optional := types.NewUnion([]types.Type{intType, types.None})

	xSym := &types.Symbol{}
	moduleScope := symbols.NewScope(symbols.ScopeModule, nil)
	fnScope := symbols.NewScope(symbols.ScopeFunction, moduleScope)
	fnScope.Define("x", xSym)

	e.ScopeOf = func(ast.Node) *symbols.Scope { return fnScope }
	// A symbol with no declarations resolves to its synthesized type,
	// so x's `int | None` is given directly instead of through an
	// annotation the evaluator would have to resolve.
	xSym.SynthesizedType = optional

	start := ast.NewFlowNode(1, ast.FlowStart)
	trueCond := ast.NewFlowNode(2, ast.FlowTrueCondition, start)
	falseCond := ast.NewFlowNode(3, ast.FlowFalseCondition, start)

	isNoneTest := &ast.BinaryOp{Op: "is", Left: &ast.Name{Value: "x"}, Right: &ast.Constant{Kind: ast.ConstNone}}
	trueCond.TestExpr = isNoneTest
	trueCond.Reference = &ast.Name{Value: "x"}
	falseCond.TestExpr = isNoneTest
	falseCond.Reference = &ast.Name{Value: "x"}

	refInTrueBranch := &ast.Name{Value: "x"}
	refInFalseBranch := &ast.Name{Value: "x"}
	// GetType caches by node id, so the two references need distinct ids.
	refInTrueBranch.NodeID = 1
	refInFalseBranch.NodeID = 2

	e.FlowNodeFor = func(ref ast.Expr) *ast.FlowNode {
		switch ref {
		case refInTrueBranch:
			return trueCond
		case refInFalseBranch:
			return falseCond
		default:
			return nil
		}
	}
	e.SymbolRefFor = func(ref ast.Expr) (uint64, string, bool) { return 1, "x", true }

	gotTrue := e.GetType(refInTrueBranch, nil, 0)
	require.True(t, gotTrue.Equals(types.None))

	gotFalse := e.GetType(refInFalseBranch, nil, 0)
	require.True(t, gotFalse.Equals(intType))
	require.Empty(t, e.Sink.Reports())
}

// TestGenericFunctionTypeVarSolution checks that calling a
// `head(xs: list[T]) -> T`-shaped function against a
// list[int] argument solves T to int; against a list[str] argument it
// solves to str.
func TestGenericFunctionTypeVarSolution(t *testing.T) {
	e := newTestEvaluator()

	intClass := classDetails("int")
	strClass := classDetails("str")
	listClass := &types.ClassDetails{Name: "list", Fields: types.NewSymbolTable(),
		TypeParams: []*types.TypeVarType{{Name: "T", Scope: "list"}}}
	listClass.MRO = []*types.ClassDetails{listClass}

	tv := &types.TypeVarType{Name: "T", Scope: "head"}
	headFn := &types.FunctionType{Details: &types.FunctionDetails{
		Name: "head",
		Parameters: []*types.Parameter{{
			Name: "xs",
			Type: types.NewInstance(&types.ClassType{Details: listClass, TypeArgs: []types.Type{tv}}),
		}},
		DeclaredReturn: tv,
	}}

	intArg := types.NewInstance(&types.ClassType{Details: listClass, TypeArgs: []types.Type{
		types.NewInstance(&types.ClassType{Details: intClass}),
	}})
	strArg := types.NewInstance(&types.ClassType{Details: listClass, TypeArgs: []types.Type{
		types.NewInstance(&types.ClassType{Details: strClass}),
	}})

	intArgExpr := &ast.Name{Value: "xs_int"}
	strArgExpr := &ast.Name{Value: "xs_str"}
	funcExpr := &ast.Name{Value: "head"}

	moduleScope := symbols.NewScope(symbols.ScopeModule, nil)
	moduleScope.Define("head", &types.Symbol{SynthesizedType: headFn})
	moduleScope.Define("xs_int", &types.Symbol{SynthesizedType: intArg})
	moduleScope.Define("xs_str", &types.Symbol{SynthesizedType: strArg})
	e.ScopeOf = func(ast.Node) *symbols.Scope { return moduleScope }

	callInt := &ast.Call{Func: funcExpr, Args: []*ast.Argument{{Value: intArgExpr}}}
	callStr := &ast.Call{Func: funcExpr, Args: []*ast.Argument{{Value: strArgExpr}}}
	funcExpr.NodeID, intArgExpr.NodeID, strArgExpr.NodeID = 1, 2, 3
	callInt.NodeID, callStr.NodeID = 4, 5

	gotInt := e.GetType(callInt, nil, 0)
	require.True(t, gotInt.Equals(intArg.Class.TypeArgs[0]))

	gotStr := e.GetType(callStr, nil, 0)
	require.True(t, gotStr.Equals(strArg.Class.TypeArgs[0]))
}

// TestOverloadSelectionPicksMatchingCandidate implements spec.md §8
// scenario 3's positive cases: g(int)->str and g(str)->int overloads
// each select their own return type for a matching argument.
func TestOverloadSelectionPicksMatchingCandidate(t *testing.T) {
	e := newTestEvaluator()

	intClass := classDetails("int")
	strClass := classDetails("str")
	intType := types.NewInstance(&types.ClassType{Details: intClass})
	strType := types.NewInstance(&types.ClassType{Details: strClass})

	intOverload := &types.FunctionType{Details: &types.FunctionDetails{
		Name:           "g",
		Flags:          types.FuncFlagOverload,
		Parameters:     []*types.Parameter{{Name: "x", Type: intType}},
		DeclaredReturn: strType,
	}}
	strOverload := &types.FunctionType{Details: &types.FunctionDetails{
		Name:           "g",
		Flags:          types.FuncFlagOverload,
		Parameters:     []*types.Parameter{{Name: "x", Type: strType}},
		DeclaredReturn: intType,
	}}
	overloaded := &types.OverloadedFunctionType{Overloads: []*types.FunctionType{intOverload, strOverload}}

	moduleScope := symbols.NewScope(symbols.ScopeModule, nil)
	moduleScope.Define("g", &types.Symbol{SynthesizedType: overloaded})
	moduleScope.Define("one", &types.Symbol{SynthesizedType: intType})
	moduleScope.Define("a", &types.Symbol{SynthesizedType: strType})
	e.ScopeOf = func(ast.Node) *symbols.Scope { return moduleScope }

	g1, one := &ast.Name{Value: "g"}, &ast.Name{Value: "one"}
	gA, a := &ast.Name{Value: "g"}, &ast.Name{Value: "a"}
	callG1 := &ast.Call{Func: g1, Args: []*ast.Argument{{Value: one}}}
	callGA := &ast.Call{Func: gA, Args: []*ast.Argument{{Value: a}}}
	g1.NodeID, one.NodeID, callG1.NodeID = 1, 2, 3
	gA.NodeID, a.NodeID, callGA.NodeID = 4, 5, 6

	require.True(t, e.GetType(callG1, nil, 0).Equals(strType))
	require.True(t, e.GetType(callGA, nil, 0).Equals(intType))
}

// TestProtocolConformanceViaCanAssignType implements spec.md §8
// scenario 4: a class whose members structurally satisfy a protocol's
// member signatures is assignable to it; one that doesn't, isn't.
func TestProtocolConformanceViaCanAssignType(t *testing.T) {
	e := newTestEvaluator()

	intType := types.NewInstance(&types.ClassType{Details: classDetails("int")})
	lenReturn := intType

	protoLen := &types.FunctionType{Details: &types.FunctionDetails{
		Name:           "__len__",
		DeclaredReturn: lenReturn,
	}}
	protoDetails := &types.ClassDetails{
		Name:   "HasLen",
		Flags:  types.ClassFlagProtocol,
		Fields: types.NewSymbolTable(),
	}
	protoDetails.Fields.Set("__len__", &types.Symbol{SynthesizedType: protoLen})
	protoDetails.MRO = []*types.ClassDetails{protoDetails}
	proto := types.NewInstance(&types.ClassType{Details: protoDetails})

	listLen := &types.FunctionType{Details: &types.FunctionDetails{
		Name:           "__len__",
		DeclaredReturn: intType,
	}}
	listDetails := classDetails("list")
	listDetails.Fields.Set("__len__", &types.Symbol{SynthesizedType: listLen})
	listObj := types.NewInstance(&types.ClassType{Details: listDetails})

	intObj := types.NewInstance(&types.ClassType{Details: classDetails("int")})

	require.True(t, e.CanAssignType(proto, listObj))
	require.False(t, e.CanAssignType(proto, intObj))
}

// movieTypedDict builds a two-key TypedDict class ("title" required,
// "year" not) bound to a "movie" name in module scope, for the delete-
// expression tests below.
func movieTypedDict(e *evaluator.Evaluator) {
	strType := types.NewInstance(&types.ClassType{Details: classDetails("str")})
	tdDetails := &types.ClassDetails{
		Name:          "Movie",
		Flags:         types.ClassFlagTypedDict,
		Fields:        types.NewSymbolTable(),
		TypedDictInfo: &types.TypedDictInfo{Required: map[string]bool{"title": true, "year": false}},
	}
	tdDetails.MRO = []*types.ClassDetails{tdDetails}
	tdDetails.Fields.Set("title", &types.Symbol{SynthesizedType: strType})
	tdDetails.Fields.Set("year", &types.Symbol{SynthesizedType: strType})

	moduleScope := symbols.NewScope(symbols.ScopeModule, nil)
	moduleScope.Define("movie", &types.Symbol{SynthesizedType: types.NewInstance(&types.ClassType{Details: tdDetails})})
	e.ScopeOf = func(ast.Node) *symbols.Scope { return moduleScope }
}

func deleteIndex(key string) *ast.Index {
	movie := &ast.Name{Value: "movie"}
	keyExpr := &ast.StringList{Parts: []string{key}}
	idx := &ast.Index{Value: movie, Items: []ast.Expr{keyExpr}}
	movie.NodeID, keyExpr.NodeID, idx.NodeID = 1, 2, 3
	return idx
}

// TestVerifyDeleteExpressionRejectsRequiredTypedDictKey checks §4.1's
// isRequired enforcement on delete: `del movie['title']` reports TC011
// since "title" is required.
func TestVerifyDeleteExpressionRejectsRequiredTypedDictKey(t *testing.T) {
	e := newTestEvaluator()
	movieTypedDict(e)

	e.VerifyDeleteExpression(deleteIndex("title"))

	found := false
	for _, rep := range e.Sink.Reports() {
		if rep.Code == diagnostics.TC011 {
			found = true
		}
	}
	require.True(t, found, "deleting a required TypedDict key must report TC011")
}

// TestVerifyDeleteExpressionAllowsOptionalTypedDictKey checks the
// complementary case: `del movie['year']` is clean since "year" isn't
// required.
func TestVerifyDeleteExpressionAllowsOptionalTypedDictKey(t *testing.T) {
	e := newTestEvaluator()
	movieTypedDict(e)

	e.VerifyDeleteExpression(deleteIndex("year"))

	for _, rep := range e.Sink.Reports() {
		require.NotEqual(t, diagnostics.TC011, rep.Code, "deleting a non-required key must not report TC011")
	}
}

// TestConstructorCallSpecializesAgainstExpectedType implements §4.1/§4.3's
// bidirectional propagation into constructors: `xs: box[str] = box()`
// fills the otherwise-unconstrained element TypeVar from the annotation
// rather than defaulting it to Unknown.
func TestConstructorCallSpecializesAgainstExpectedType(t *testing.T) {
	e := newTestEvaluator()

	boxTV := &types.TypeVarType{Name: "T", Scope: "box"}
	boxDetails := &types.ClassDetails{
		Name:       "box",
		Fields:     types.NewSymbolTable(),
		TypeParams: []*types.TypeVarType{boxTV},
	}
	boxDetails.MRO = []*types.ClassDetails{boxDetails}
	boxClass := &types.ClassType{Details: boxDetails}

	moduleScope := symbols.NewScope(symbols.ScopeModule, nil)
	moduleScope.Define("box", &types.Symbol{SynthesizedType: boxClass})
	e.ScopeOf = func(ast.Node) *symbols.Scope { return moduleScope }

	strType := types.NewInstance(&types.ClassType{Details: classDetails("str")})
	expected := types.NewInstance(&types.ClassType{Details: boxDetails, TypeArgs: []types.Type{strType}})

	call := &ast.Call{Func: &ast.Name{Value: "box"}}
	got := e.GetType(call, expected, 0)

	obj, ok := got.(*types.ObjectType)
	require.True(t, ok)
	require.Len(t, obj.Class.TypeArgs, 1)
	require.True(t, obj.Class.TypeArgs[0].Equals(strType))
}

// TestConstructorCallWithoutExpectedDefaultsToUnknown checks the
// fallback when no caller-supplied target type is available: the
// otherwise-unconstrained element TypeVar specializes to Unknown
// rather than leaking the raw TypeVar through.
func TestConstructorCallWithoutExpectedDefaultsToUnknown(t *testing.T) {
	e := newTestEvaluator()

	boxTV := &types.TypeVarType{Name: "T", Scope: "box"}
	boxDetails := &types.ClassDetails{
		Name:       "box",
		Fields:     types.NewSymbolTable(),
		TypeParams: []*types.TypeVarType{boxTV},
	}
	boxDetails.MRO = []*types.ClassDetails{boxDetails}
	boxClass := &types.ClassType{Details: boxDetails}

	moduleScope := symbols.NewScope(symbols.ScopeModule, nil)
	moduleScope.Define("box", &types.Symbol{SynthesizedType: boxClass})
	e.ScopeOf = func(ast.Node) *symbols.Scope { return moduleScope }

	call := &ast.Call{Func: &ast.Name{Value: "box"}}
	got := e.GetType(call, nil, 0)

	obj, ok := got.(*types.ObjectType)
	require.True(t, ok)
	require.Len(t, obj.Class.TypeArgs, 1)
	require.True(t, obj.Class.TypeArgs[0].Equals(types.Unknown))
}
