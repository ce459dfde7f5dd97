package evaluator

import (
	"fmt"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/types"
)

// evaluateTypeExpr evaluates an expression in annotation position: a
// base-class expression, a parameter/return annotation, a subscript
// item of a generic class, or a TypeAnnotation's Annotation slot.
// Recognizes the handful of typing special forms every evaluator in
// the pack special-cases (Union, Optional, Literal, Callable) rather
// than treating them as ordinary generic classes.
func (e *Evaluator) evaluateTypeExpr(expr ast.Expr) types.Type {
	if expr == nil {
		return types.Unknown
	}
	switch v := expr.(type) {
	case *ast.Constant:
		if v.Kind == ast.ConstNone {
			return types.None
		}
		return e.GetType(v, nil, FlagExpectingType)
	case *ast.Ellipsis:
		return &types.AnyType{IsEllipsis: true}
	case *ast.Name:
		return e.typeExprForName(v)
	case *ast.MemberAccess:
		// Dotted names (`typing.List`, `collections.abc.Mapping`) resolve
		// the same as a bare name once qualified: fall through to normal
		// member access and treat the result as a class reference.
		return e.asTypeValue(e.GetType(v, nil, FlagExpectingType))
	case *ast.BinaryOp:
		if v.Op == "|" {
			left := e.evaluateTypeExpr(v.Left)
			right := e.evaluateTypeExpr(v.Right)
			return types.NewUnion([]types.Type{left, right})
		}
		return types.Unknown
	case *ast.Index:
		return e.evaluateSubscriptedTypeExpr(v)
	case *ast.StringList:
		// Forward reference: resolving the string's contents requires a
		// parser this core doesn't own (spec.md §1 non-goal); treated as
		// Unknown unless a caller has already re-parsed it into a node.
		return types.Unknown
	default:
		return e.asTypeValue(e.GetType(expr, nil, FlagExpectingType))
	}
}

// typeExprForName resolves a bare name used in annotation position,
// recognizing the handful of typing-module bare forms (`Any`, `None`,
// `NoReturn`) that don't round-trip through ordinary class lookup.
func (e *Evaluator) typeExprForName(n *ast.Name) types.Type {
	switch n.Value {
	case "Any":
		return types.AnySimple
	case "None":
		return types.None
	case "NoReturn", "Never":
		return types.Never
	}
	return e.asTypeValue(e.GetType(n, nil, FlagExpectingType|FlagDoNotSpecialize))
}

// asTypeValue converts a name/member-access evaluation result (which,
// outside annotation position, would be the *instance* of `type`) into
// the class it names: a bare `int` reference evaluates to the Class
// object already (per evalName's ExpectingType handling), so this is
// mostly a pass-through guard against Unknown/Any leaking through.
func (e *Evaluator) asTypeValue(t types.Type) types.Type {
	if t == nil {
		return types.Unknown
	}
	return t
}

// evaluateSubscriptedTypeExpr handles `X[...]` in annotation position:
// the typing special forms Union/Optional/Literal/Callable, else an
// ordinary generic class specialization.
func (e *Evaluator) evaluateSubscriptedTypeExpr(idx *ast.Index) types.Type {
	name, ok := idx.Value.(*ast.Name)
	dotted := ""
	if ma, isMA := idx.Value.(*ast.MemberAccess); isMA {
		dotted = ma.Attr
	}
	formName := dotted
	if ok {
		formName = name.Value
	}

	switch formName {
	case "Union":
		members := make([]types.Type, len(idx.Items))
		for i, it := range idx.Items {
			members[i] = e.evaluateTypeExpr(it)
		}
		return types.NewUnion(members)
	case "Optional":
		if len(idx.Items) != 1 {
			return types.Unknown
		}
		return types.NewUnion([]types.Type{e.evaluateTypeExpr(idx.Items[0]), types.None})
	case "Literal":
		members := make([]types.Type, 0, len(idx.Items))
		for _, it := range idx.Items {
			members = append(members, e.literalTypeFromExpr(it))
		}
		return types.NewUnion(members)
	case "Callable":
		return e.callableTypeExprFromSubscript(idx)
	case "Type":
		if len(idx.Items) != 1 {
			return types.Unknown
		}
		inner := e.evaluateTypeExpr(idx.Items[0])
		if obj, isObj := inner.(*types.ObjectType); isObj {
			return obj.Class
		}
		return inner
	}

	base := e.evaluateTypeExpr(idx.Value)
	classType, ok := base.(*types.ClassType)
	if !ok {
		return types.Unknown
	}
	args := make([]types.Type, len(idx.Items))
	for i, it := range idx.Items {
		args[i] = e.evaluateTypeExpr(it)
	}
	return &types.ClassType{Details: classType.Details, TypeArgs: args}
}

// literalTypeFromExpr builds the ObjectType carrying a LiteralValue
// for one Literal[...] member; only the constant shapes the language
// allows as literal values are recognized.
func (e *Evaluator) literalTypeFromExpr(expr ast.Expr) types.Type {
	switch v := expr.(type) {
	case *ast.Number:
		return e.GetType(v, nil, 0)
	case *ast.StringList:
		return e.GetType(v, nil, 0)
	case *ast.Constant:
		return e.GetType(v, nil, 0)
	default:
		return types.Unknown
	}
}

// callableTypeExprFromSubscript builds a bare function shape from
// `Callable[[P1, P2], R]` or `Callable[..., R]`.
func (e *Evaluator) callableTypeExprFromSubscript(idx *ast.Index) types.Type {
	if len(idx.Items) != 2 {
		return types.Unknown
	}
	ret := e.evaluateTypeExpr(idx.Items[1])
	var params []*types.Parameter
	if _, isEllipsis := idx.Items[0].(*ast.Ellipsis); isEllipsis {
		return &types.FunctionType{Details: &types.FunctionDetails{DeclaredReturn: ret}}
	}
	paramList, ok := idx.Items[0].(*ast.ListNode)
	if !ok {
		return types.Unknown
	}
	for i, p := range paramList.Elements {
		params = append(params, &types.Parameter{
			Name: fmt.Sprintf("arg%d", i), Type: e.evaluateTypeExpr(p), Category: types.ParamCategorySimple,
		})
	}
	return &types.FunctionType{Details: &types.FunctionDetails{Parameters: params, DeclaredReturn: ret}}
}
