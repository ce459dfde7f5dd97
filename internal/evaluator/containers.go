package evaluator

import (
	"strconv"
	"strings"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/types"
)

func (e *Evaluator) evalConstant(n *ast.Constant) TypeResult {
	switch n.Kind {
	case ast.ConstTrue:
		return result(e.builtinLiteralInstance("bool", types.LiteralValue{Kind: types.LiteralBool, BoolValue: true}), n)
	case ast.ConstFalse:
		return result(e.builtinLiteralInstance("bool", types.LiteralValue{Kind: types.LiteralBool, BoolValue: false}), n)
	case ast.ConstNone:
		return result(types.None, n)
	default: // ConstDebug: `__debug__`
		return result(e.boolType(), n)
	}
}

func parseIntLiteral(raw string) (int64, bool) {
	v, err := strconv.ParseInt(strings.ReplaceAll(raw, "_", ""), 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// evalNumber implements §4.1's numeric-literal case: an integer
// literal carries its value as a Literal[N] narrowing (the binder/
// assignability layer widens to plain int on assignment unless the
// target is Final, the same narrow-then-widen split
// config.NumericDefaultingPolicy exists to pick a side on when the
// literal's own int/float shape is itself ambiguous, which the parser
// has already resolved into IsInt/IsFloat/IsComplex by this point).
func (e *Evaluator) evalNumber(n *ast.Number, expected types.Type) TypeResult {
	switch {
	case n.IsComplex:
		return result(e.builtinInstance("complex"), n)
	case n.IsFloat:
		return result(e.builtinInstance("float"), n)
	default:
		if v, ok := parseIntLiteral(n.Raw); ok {
			return result(e.builtinLiteralInstance("int", types.LiteralValue{Kind: types.LiteralInt, IntValue: v}), n)
		}
		return result(e.builtinInstance("int"), n)
	}
}

func (e *Evaluator) evalStringList(n *ast.StringList, flags Flags) TypeResult {
	if n.IsBytes {
		joined := strings.Join(n.Parts, "")
		return result(e.builtinLiteralInstance("bytes", types.LiteralValue{Kind: types.LiteralBytes, BytesValue: []byte(joined)}), n)
	}
	for _, embedded := range n.FStrings {
		e.GetType(embedded, nil, 0)
	}
	if len(n.FStrings) > 0 {
		return result(e.builtinInstance("str"), n)
	}
	joined := strings.Join(n.Parts, "")
	return result(e.builtinLiteralInstance("str", types.LiteralValue{Kind: types.LiteralString, StringValue: joined}), n)
}

func (e *Evaluator) evalEllipsis(flags Flags) TypeResult {
	if flags.Has(FlagConvertEllipsisToAny) {
		return TypeResult{Type: types.AnySimple}
	}
	return TypeResult{Type: &types.AnyType{IsEllipsis: true}}
}

func expectedTupleElementTypes(expected types.Type, n int) []types.Type {
	obj, ok := expected.(*types.ObjectType)
	if !ok || obj.Class.Details.Name != "tuple" || len(obj.Class.TypeArgs) != n {
		return nil
	}
	return obj.Class.TypeArgs
}

func (e *Evaluator) evalTuple(n *ast.Tuple, expected types.Type, flags Flags) TypeResult {
	expectedElems := expectedTupleElementTypes(expected, len(n.Elements))
	args := make([]types.Type, len(n.Elements))
	for i, el := range n.Elements {
		var exp types.Type
		if i < len(expectedElems) {
			exp = expectedElems[i]
		}
		args[i] = e.GetType(el, exp, flags)
	}
	return result(types.NewInstance(&types.ClassType{Details: e.classDetailsFor("tuple"), TypeArgs: args}), n)
}

func soleContainerElementType(expected types.Type, className string) types.Type {
	obj, ok := expected.(*types.ObjectType)
	if !ok || obj.Class.Details.Name != className || len(obj.Class.TypeArgs) != 1 {
		return nil
	}
	return obj.Class.TypeArgs[0]
}

func (e *Evaluator) containerInstance(className string, elements []ast.Expr, elemExpected types.Type) types.Type {
	if len(elements) == 0 {
		arg := types.Type(types.Unknown)
		if elemExpected != nil {
			arg = elemExpected
		}
		return types.NewInstance(&types.ClassType{Details: e.classDetailsFor(className), TypeArgs: []types.Type{arg}})
	}
	members := make([]types.Type, len(elements))
	for i, el := range elements {
		members[i] = e.GetType(el, elemExpected, 0)
	}
	return types.NewInstance(&types.ClassType{Details: e.classDetailsFor(className), TypeArgs: []types.Type{types.NewUnion(members)}})
}

func (e *Evaluator) evalList(n *ast.ListNode, expected types.Type, flags Flags) TypeResult {
	return result(e.containerInstance("list", n.Elements, soleContainerElementType(expected, "list")), n)
}

func (e *Evaluator) evalSet(n *ast.SetNode, expected types.Type, flags Flags) TypeResult {
	return result(e.containerInstance("set", n.Elements, soleContainerElementType(expected, "set")), n)
}

func dictExpectedTypes(expected types.Type) (types.Type, types.Type) {
	obj, ok := expected.(*types.ObjectType)
	if !ok || obj.Class.Details.Name != "dict" || len(obj.Class.TypeArgs) != 2 {
		return nil, nil
	}
	return obj.Class.TypeArgs[0], obj.Class.TypeArgs[1]
}

func (e *Evaluator) evalDict(n *ast.DictNode, expected types.Type, flags Flags) TypeResult {
	keyExpected, valExpected := dictExpectedTypes(expected)
	var keys, vals []types.Type
	for _, entry := range n.Entries {
		if entry.Key == nil {
			// `**other` dict-unpack entry: fold its key/value types into
			// the aggregate when its own type is a known dict.
			if obj, ok := e.GetType(entry.Value, nil, 0).(*types.ObjectType); ok &&
				obj.Class.Details.Name == "dict" && len(obj.Class.TypeArgs) == 2 {
				keys = append(keys, obj.Class.TypeArgs[0])
				vals = append(vals, obj.Class.TypeArgs[1])
			}
			continue
		}
		keys = append(keys, e.GetType(entry.Key, keyExpected, 0))
		vals = append(vals, e.GetType(entry.Value, valExpected, 0))
	}
	keyType := types.Type(types.Unknown)
	if keyExpected != nil {
		keyType = keyExpected
	}
	if len(keys) > 0 {
		keyType = types.NewUnion(keys)
	}
	valType := types.Type(types.Unknown)
	if valExpected != nil {
		valType = valExpected
	}
	if len(vals) > 0 {
		valType = types.NewUnion(vals)
	}
	return result(types.NewInstance(&types.ClassType{Details: e.classDetailsFor("dict"), TypeArgs: []types.Type{keyType, valType}}), n)
}

func (e *Evaluator) evalSlice(n *ast.Slice) TypeResult {
	for _, c := range []ast.Expr{n.Start, n.Stop, n.Step} {
		if c != nil {
			e.GetType(c, nil, 0)
		}
	}
	return result(e.builtinInstance("slice"), n)
}

// evalAwait implements `await expr`: the awaited result is the final
// type argument of a Coroutine/Awaitable/Generator specialization,
// matching the host language's `Coroutine[YieldT, SendT, ReturnT]`
// shape where the return slot is always last.
func (e *Evaluator) evalAwait(n *ast.Await, flags Flags) TypeResult {
	inner := e.GetType(n.Value, nil, 0)
	if isDynamic(inner) {
		return result(types.Unknown, n)
	}
	if obj, ok := inner.(*types.ObjectType); ok {
		switch obj.Class.Details.Name {
		case "Coroutine", "Awaitable", "Generator":
			if k := len(obj.Class.TypeArgs); k > 0 {
				return result(obj.Class.TypeArgs[k-1], n)
			}
		}
	}
	return result(types.Unknown, n)
}

// evalTernary implements `then if test else orelse`: both branches
// contribute to the result union; branch-local narrowing of names
// referenced within Then/Else happens automatically through the flow
// graph the binder attaches to those references, not here.
func (e *Evaluator) evalTernary(n *ast.Ternary, expected types.Type, flags Flags) TypeResult {
	e.GetType(n.Test, nil, 0)
	thenT := e.GetType(n.Then, expected, flags)
	elseT := e.GetType(n.Else, expected, flags)
	return result(types.NewUnion([]types.Type{thenT, elseT}), n)
}

func (e *Evaluator) evalComprehension(n *ast.ListComprehension, expected types.Type, flags Flags) TypeResult {
	for _, c := range n.Comps {
		e.GetType(c.Iterable, nil, 0)
		for _, cond := range c.Ifs {
			e.GetType(cond, nil, 0)
		}
	}
	switch n.Kind {
	case ast.CompDict:
		k := e.GetType(n.Element, nil, 0)
		v := e.GetType(n.Element2, nil, 0)
		return result(types.NewInstance(&types.ClassType{Details: e.classDetailsFor("dict"), TypeArgs: []types.Type{k, v}}), n)
	case ast.CompSet:
		elem := e.GetType(n.Element, nil, 0)
		return result(types.NewInstance(&types.ClassType{Details: e.classDetailsFor("set"), TypeArgs: []types.Type{elem}}), n)
	case ast.CompGenerator:
		elem := e.GetType(n.Element, nil, 0)
		return result(types.NewInstance(&types.ClassType{Details: e.classDetailsFor("Generator"), TypeArgs: []types.Type{elem, types.None, types.None}}), n)
	default:
		elem := e.GetType(n.Element, nil, 0)
		return result(types.NewInstance(&types.ClassType{Details: e.classDetailsFor("list"), TypeArgs: []types.Type{elem}}), n)
	}
}

func paramCategoryFor(c ast.ParamCategory) types.ParamCategory {
	switch c {
	case ast.ParamVarArg:
		return types.ParamCategoryVarArg
	case ast.ParamKwArg:
		return types.ParamCategoryKwArg
	default:
		return types.ParamCategorySimple
	}
}

func (e *Evaluator) evalLambda(n *ast.Lambda, expected types.Type, flags Flags) TypeResult {
	expectedFn, _ := expected.(*types.FunctionType)
	params := make([]*types.Parameter, 0, len(n.Params))
	for i, p := range n.Params {
		if p.Category == ast.ParamPositionalOnlyMarker || p.Category == ast.ParamKeywordOnlyMarker {
			continue
		}
		pt := types.Type(types.Unknown)
		if expectedFn != nil && i < len(expectedFn.Details.Parameters) {
			pt = expectedFn.Details.Parameters[i].Type
		}
		params = append(params, &types.Parameter{
			Name: p.Name, Type: pt, Category: paramCategoryFor(p.Category), HasDefault: p.Default != nil,
		})
	}
	body := e.GetType(n.Body, nil, 0)
	return result(&types.FunctionType{Details: &types.FunctionDetails{Parameters: params, DeclaredReturn: body}}, n)
}

// declaredTypeForTarget resolves the annotated type of a simple-name
// assignment target, used to seed the bidirectional `expected` hint
// for the right-hand side and to re-check it on assignment.
func (e *Evaluator) declaredTypeForTarget(target ast.Expr) types.Type {
	name, ok := target.(*ast.Name)
	if !ok {
		return nil
	}
	scope := e.scopeFor(name)
	if scope == nil {
		return nil
	}
	sym, _, ok := scope.Lookup(name.Value)
	if !ok {
		return nil
	}
	t, ok := e.declaredTypeOfSymbol(sym)
	if !ok {
		return nil
	}
	return t
}

func (e *Evaluator) checkAssignable(declared, value types.Type, node ast.Node, code, msg string) {
	if e.Checker == nil {
		return
	}
	if !e.Checker.CanAssign(declared, value, nil, 0) {
		e.reportError(code, node, msg, nil)
	}
}

func (e *Evaluator) evalAssignment(n *ast.Assignment, flags Flags) TypeResult {
	declared := e.declaredTypeForTarget(n.Target)
	valueType := e.GetType(n.Value, declared, flags)
	if declared != nil {
		e.checkAssignable(declared, valueType, n, diagnostics.TC001, "assigned value is not assignable to the declared type")
		return result(declared, n)
	}
	return result(valueType, n)
}

func (e *Evaluator) evalAssignmentExpr(n *ast.AssignmentExpression, flags Flags) TypeResult {
	declared := e.declaredTypeForTarget(n.Target)
	valueType := e.GetType(n.Value, declared, flags)
	if declared != nil {
		e.checkAssignable(declared, valueType, n, diagnostics.TC001, "walrus-assigned value is not assignable to the declared type")
		return result(declared, n)
	}
	return result(valueType, n)
}

func (e *Evaluator) evalYield(n *ast.Yield, flags Flags) TypeResult {
	if n.Value == nil {
		return result(types.None, n)
	}
	return result(e.GetType(n.Value, nil, 0), n)
}

func (e *Evaluator) evalYieldFrom(n *ast.YieldFrom, flags Flags) TypeResult {
	t := e.GetType(n.Value, nil, 0)
	return result(e.GetTypeFromIterable(t, false, n, false), n)
}

func (e *Evaluator) evalUnpack(n *ast.Unpack, flags Flags) TypeResult {
	t := e.GetType(n.Value, nil, 0)
	return result(e.GetTypeFromIterable(t, false, n, false), n)
}

func (e *Evaluator) evalTypeAnnotation(n *ast.TypeAnnotation, flags Flags) TypeResult {
	declared := e.evaluateTypeExpr(n.Annotation)
	if n.Value != nil {
		e.GetType(n.Value, declared, flags)
	}
	return result(declared, n)
}
