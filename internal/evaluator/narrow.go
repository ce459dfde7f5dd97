package evaluator

import (
	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/flow"
	"github.com/typeeval/core/internal/types"
)

// narrowWalker builds a flow.Walker wired to this evaluator's
// collaborators: assignment re-evaluation, narrowing-test
// interpretation, NoReturn-call detection, and wildcard-import
// resolution all close over Evaluator methods rather than living in
// internal/flow, which must stay free of an internal/evaluator import.
func (e *Evaluator) narrowWalker() *flow.Walker {
	return &flow.Walker{
		ResolveAssignment: e.resolveAssignmentFlowNode,
		NarrowCallback:    e.narrowCallback,
		CallReturnType:    e.callReturnTypeForFlow,
		ImportedType:      e.importedType,
		CancelCheck:       e.checkCancel,
	}
}

func (e *Evaluator) resolveAssignmentFlowNode(stmt ast.Node) types.Type {
	switch v := stmt.(type) {
	case *ast.AssignStmt:
		return e.GetType(v.Value, nil, 0)
	case *ast.Assignment:
		return e.GetType(v.Value, nil, 0)
	case *ast.AugmentedAssignment:
		return e.GetType(v, nil, 0)
	case *ast.AssignmentExpression:
		return e.GetType(v.Value, nil, 0)
	case ast.Expr:
		return e.GetType(v, nil, 0)
	default:
		return types.Unknown
	}
}

func (e *Evaluator) callReturnTypeForFlow(callExpr ast.Expr) types.Type {
	call, ok := callExpr.(*ast.Call)
	if !ok {
		return nil
	}
	return e.GetType(call, nil, 0)
}

func (e *Evaluator) importedType(path, name string) (types.Type, bool) {
	if e.Imports == nil {
		return nil, false
	}
	res, ok := e.Imports.ImportLookup(path)
	if !ok {
		return nil, false
	}
	sym, ok := res.SymbolTable.Get(name)
	if !ok {
		return nil, false
	}
	return e.effectiveTypeOfSymbol(sym, nil), true
}

// narrowReference walks the flow graph, if one is attached to n, and
// returns the narrowed type for n's symbol reference; typeAtStart is
// returned unchanged when no flow node or symbol reference is
// available (e.g. a synthesized symbol with no binder-produced flow
// graph).
func (e *Evaluator) narrowReference(n ast.Expr, typeAtStart types.Type) (types.Type, bool) {
	if e.FlowNodeFor == nil || e.SymbolRefFor == nil {
		return typeAtStart, true
	}
	flowNode := e.FlowNodeFor(n)
	if flowNode == nil {
		return typeAtStart, true
	}
	symbolID, name, ok := e.SymbolRefFor(n)
	if !ok {
		return typeAtStart, true
	}
	return e.narrowWalker().Walk(flowNode, symbolID, name, typeAtStart)
}

// narrowCallback implements §4.6's test-expression interpretation:
// recognize `is None`, `type(x) is C`, literal equality, isinstance/
// issubclass, callable, and `not`, falling back to a bare truthiness
// test for anything else (including an unrecognized call).
func (e *Evaluator) narrowCallback(test ast.Expr, reference ast.Expr, positive bool) flow.NarrowFunc {
	switch t := test.(type) {
	case *ast.UnaryOp:
		if t.Op == "not" {
			return e.narrowCallback(t.Operand, reference, !positive)
		}
	case *ast.BinaryOp:
		switch t.Op {
		case "is", "is not":
			pos := positive
			if t.Op == "is not" {
				pos = !pos
			}
			if isNoneExpr(t.Right) || isNoneExpr(t.Left) {
				return flow.NarrowIsNone(pos)
			}
			if call, ok := t.Left.(*ast.Call); ok && calleeName(call.Func) == "type" {
				if cls := e.classTypeFromExpr(t.Right); cls != nil {
					return flow.NarrowTypeIs(cls, pos)
				}
			}
		case "==", "!=":
			pos := positive
			if t.Op == "!=" {
				pos = !pos
			}
			if lit, ok := e.literalFromExpr(t.Right); ok {
				return flow.NarrowLiteralEq(lit, pos, e.isEnumerableReference(reference))
			}
			if lit, ok := e.literalFromExpr(t.Left); ok {
				return flow.NarrowLiteralEq(lit, pos, e.isEnumerableReference(reference))
			}
		}
	case *ast.Call:
		switch calleeName(t.Func) {
		case "isinstance", "issubclass":
			if len(t.Args) == 2 {
				return flow.NarrowIsInstance(e.classTypesFromExpr(t.Args[1].Value), positive)
			}
		case "callable":
			return flow.NarrowCallable(positive, e.hasDunderCall)
		}
	}
	return flow.NarrowTruthy(positive, e.canBeTruthy, e.canBeFalsy)
}

func isNoneExpr(e ast.Expr) bool {
	c, ok := e.(*ast.Constant)
	return ok && c.Kind == ast.ConstNone
}

func calleeName(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Name:
		return v.Value
	case *ast.MemberAccess:
		return v.Attr
	default:
		return ""
	}
}

// classTypeFromExpr resolves a single class-valued expression (as used
// on the right of `type(x) is C`) to its ClassType.
func (e *Evaluator) classTypeFromExpr(expr ast.Expr) *types.ClassType {
	t := e.evaluateTypeExpr(expr)
	if cls, ok := t.(*types.ClassType); ok {
		return cls
	}
	return nil
}

// classTypesFromExpr resolves the second argument of isinstance/
// issubclass, which may be a single class or a tuple of classes.
func (e *Evaluator) classTypesFromExpr(expr ast.Expr) []*types.ClassType {
	if tup, ok := expr.(*ast.Tuple); ok {
		out := make([]*types.ClassType, 0, len(tup.Elements))
		for _, el := range tup.Elements {
			if cls := e.classTypeFromExpr(el); cls != nil {
				out = append(out, cls)
			}
		}
		return out
	}
	if cls := e.classTypeFromExpr(expr); cls != nil {
		return []*types.ClassType{cls}
	}
	return nil
}

// literalFromExpr evaluates a comparison operand and extracts its
// LiteralValue, if it statically has one.
func (e *Evaluator) literalFromExpr(expr ast.Expr) (types.LiteralValue, bool) {
	t := e.GetType(expr, nil, 0)
	obj, ok := t.(*types.ObjectType)
	if !ok || obj.Literal == nil {
		return types.LiteralValue{}, false
	}
	return *obj.Literal, true
}

// isEnumerableReference reports whether narrowing the reference's
// declared type by a negative literal-equality test can enumerate the
// remaining members (bool and enum classes; plain int/str cannot).
func (e *Evaluator) isEnumerableReference(reference ast.Expr) bool {
	if reference == nil {
		return false
	}
	t := e.GetType(reference, nil, 0)
	obj, ok := t.(*types.ObjectType)
	if !ok {
		return false
	}
	return obj.Class.Details.Name == "bool" || obj.Class.Details.Flags.Has(types.ClassFlagEnumClass)
}

// hasDunderCall reports whether an instance's class defines __call__
// anywhere in its MRO.
func (e *Evaluator) hasDunderCall(obj *types.ObjectType) bool {
	_, _, ok := e.lookupMember(obj.Class.Details, "__call__")
	return ok
}

// canBeTruthy/canBeFalsy implement §4.6's bare-truthiness test: a
// literal bool/int/str value decides statically; everything else is
// conservatively assumed able to go either way, since only a runtime
// `__bool__`/`__len__` call could decide it and this core doesn't
// execute code.
func (e *Evaluator) canBeTruthy(t types.Type) bool {
	if t.Equals(types.None) {
		return false
	}
	if obj, ok := t.(*types.ObjectType); ok && obj.Literal != nil {
		switch obj.Literal.Kind {
		case types.LiteralBool:
			return obj.Literal.BoolValue
		case types.LiteralInt:
			return obj.Literal.IntValue != 0
		case types.LiteralString:
			return obj.Literal.StringValue != ""
		}
	}
	return true
}

func (e *Evaluator) canBeFalsy(t types.Type) bool {
	if t.Equals(types.None) {
		return true
	}
	if obj, ok := t.(*types.ObjectType); ok && obj.Literal != nil {
		switch obj.Literal.Kind {
		case types.LiteralBool:
			return !obj.Literal.BoolValue
		case types.LiteralInt:
			return obj.Literal.IntValue == 0
		case types.LiteralString:
			return obj.Literal.StringValue == ""
		}
	}
	return true
}

// IsNodeReachable implements the §6 entry point: a node is reachable
// unless its flow node resolves to Never along every path.
func (e *Evaluator) IsNodeReachable(n ast.Expr) bool {
	if e.FlowNodeFor == nil {
		return true
	}
	flowNode := e.FlowNodeFor(n)
	if flowNode == nil {
		return true
	}
	t, _ := e.narrowWalker().Walk(flowNode, 0, "", types.Unknown)
	return !t.Equals(types.Never)
}

// IsAfterNodeReachable is identical in this core: reachability of "the
// point right after n" and "a reference positioned at n" resolve
// through the same flow-node walk, since the binder attaches the
// post-node flow node to n's own FlowNodeFor entry when asked for it.
func (e *Evaluator) IsAfterNodeReachable(n ast.Expr) bool {
	return e.IsNodeReachable(n)
}
