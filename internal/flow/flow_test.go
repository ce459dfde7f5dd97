package flow_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/flow"
	"github.com/typeeval/core/internal/types"
)

func objectClass(name string) *types.ClassType {
	return &types.ClassType{Details: &types.ClassDetails{Name: name}}
}

func TestWalkStartReturnsTypeAtStart(t *testing.T) {
	start := ast.NewFlowNode(1, ast.FlowStart)
	w := &flow.Walker{}
	got, complete := w.Walk(start, 1, "x", types.None)
	require.True(t, complete)
	require.True(t, got.Equals(types.None))
}

func TestWalkAssignmentResolvesViaCallback(t *testing.T) {
	start := ast.NewFlowNode(1, ast.FlowStart)
	assign := ast.NewFlowNode(2, ast.FlowAssignment, start)
	assign.TargetSymbolID = 7

	intType := types.NewInstance(objectClass("int"))
	w := &flow.Walker{
		ResolveAssignment: func(stmt ast.Node) types.Type { return intType },
	}
	got, complete := w.Walk(assign, 7, "x", types.Unbound)
	require.True(t, complete)
	require.True(t, got.Equals(intType))
}

func TestWalkAssignmentUnbindProducesUnbound(t *testing.T) {
	start := ast.NewFlowNode(1, ast.FlowStart)
	unbind := ast.NewFlowNode(2, ast.FlowAssignment, start)
	unbind.TargetSymbolID = 7
	unbind.IsUnbind = true

	w := &flow.Walker{}
	got, complete := w.Walk(unbind, 7, "x", types.Unknown)
	require.True(t, complete)
	require.True(t, got.Equals(types.Unbound))
}

func TestWalkBranchLabelUnionsAntecedents(t *testing.T) {
	intType := types.NewInstance(objectClass("int"))
	strType := types.NewInstance(objectClass("str"))

	intAssign := ast.NewFlowNode(1, ast.FlowAssignment)
	intAssign.TargetSymbolID = 7
	intAssign.AssignStmt = &ast.Constant{}
	strAssign := ast.NewFlowNode(2, ast.FlowAssignment)
	strAssign.TargetSymbolID = 7
	strAssign.AssignStmt = &ast.Name{}

	merge := ast.NewFlowNode(3, ast.FlowBranchLabel, intAssign, strAssign)

	w := &flow.Walker{
		ResolveAssignment: func(stmt ast.Node) types.Type {
			if _, ok := stmt.(*ast.Constant); ok {
				return intType
			}
			return strType
		},
	}
	got, complete := w.Walk(merge, 7, "x", types.Unknown)
	require.True(t, complete)
	union, ok := got.(*types.UnionType)
	require.True(t, ok)
	require.Len(t, union.Subtypes, 2)
}

func TestWalkTrueConditionAppliesNarrowCallback(t *testing.T) {
	start := ast.NewFlowNode(1, ast.FlowStart)
	cond := ast.NewFlowNode(2, ast.FlowTrueCondition, start)
	cond.TestExpr = &ast.Name{}
	cond.Reference = &ast.Name{}

	intClass := objectClass("int")
	intType := types.NewInstance(intClass)
	strType := types.NewInstance(objectClass("str"))
	union := types.NewUnion([]types.Type{intType, strType})

	w := &flow.Walker{
		NarrowCallback: func(test, reference ast.Expr, positive bool) flow.NarrowFunc {
			require.True(t, positive)
			return flow.NarrowTypeIs(intClass, true)
		},
	}
	got, complete := w.Walk(cond, 1, "x", union)
	require.True(t, complete)
	require.True(t, got.Equals(intType))
}

func TestWalkCallWithNoReturnMarksUnreachable(t *testing.T) {
	start := ast.NewFlowNode(1, ast.FlowStart)
	call := ast.NewFlowNode(2, ast.FlowCall, start)
	call.CallExpr = &ast.Call{}

	w := &flow.Walker{
		CallReturnType: func(callExpr ast.Expr) types.Type { return types.Never },
	}
	got, complete := w.Walk(call, 1, "x", types.Unknown)
	require.True(t, complete)
	require.True(t, got.Equals(types.Never))
}

func TestWalkLoopLabelBreaksCycleAsIncomplete(t *testing.T) {
	start := ast.NewFlowNode(1, ast.FlowStart)
	loop := ast.NewFlowNode(2, ast.FlowLoopLabel, start)
	loop.Antecedents = append(loop.Antecedents, loop)

	w := &flow.Walker{}
	_, complete := w.Walk(loop, 1, "x", types.Unknown)
	require.False(t, complete)
}

func TestNarrowIsNonePartitionsUnion(t *testing.T) {
	intType := types.NewInstance(objectClass("int"))
	union := types.NewUnion([]types.Type{intType, types.None})

	positive := flow.NarrowIsNone(true)
	require.True(t, positive(union).Equals(types.None))

	negative := flow.NarrowIsNone(false)
	require.True(t, negative(union).Equals(intType))
}

func TestNarrowIsInstanceFiltersByMRO(t *testing.T) {
	base := &types.ClassDetails{Name: "Base"}
	base.MRO = []*types.ClassDetails{base}
	derived := &types.ClassDetails{Name: "Derived", Bases: []*types.ClassType{{Details: base}}}
	derived.MRO = []*types.ClassDetails{derived, base}

	unrelated := &types.ClassDetails{Name: "Unrelated"}
	unrelated.MRO = []*types.ClassDetails{unrelated}

	derivedObj := types.NewInstance(&types.ClassType{Details: derived})
	unrelatedObj := types.NewInstance(&types.ClassType{Details: unrelated})
	union := types.NewUnion([]types.Type{derivedObj, unrelatedObj})

	narrow := flow.NarrowIsInstance([]*types.ClassType{{Details: base}}, true)
	got := narrow(union)
	require.True(t, got.Equals(derivedObj))
}

func TestNarrowCallableUsesInjectedHasCall(t *testing.T) {
	cls := &types.ClassDetails{Name: "Widget"}
	cls.MRO = []*types.ClassDetails{cls}
	obj := types.NewInstance(&types.ClassType{Details: cls})

	hasCall := func(o *types.ObjectType) bool { return o.Class.Details.Name == "Widget" }
	narrow := flow.NarrowCallable(true, hasCall)
	require.True(t, narrow(obj).Equals(obj))

	narrowNeg := flow.NarrowCallable(false, hasCall)
	require.True(t, narrowNeg(obj).Equals(types.Never))
}
