package evaluator

import (
	"fmt"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/classbuilder"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/types"
)

// evalCall implements §4.3: the callee's own shape decides how the
// call resolves — class construction, ordinary/overloaded function
// call, or a `__call__` dunder dispatch for callable instances.
func (e *Evaluator) evalCall(n *ast.Call, expected types.Type, flags Flags) TypeResult {
	callee := e.GetType(n.Func, nil, FlagDoNotSpecialize)
	if isDynamic(callee) {
		e.evaluateArgsForDiagnosticsOnly(n)
		return result(types.Unknown, n)
	}

	switch v := callee.(type) {
	case *types.ClassType:
		return result(e.resolveConstructorCall(v, n, expected), n)
	case *types.FunctionType:
		t, _ := e.CallResolver.ResolveCall(v, n)
		return result(t, n)
	case *types.OverloadedFunctionType:
		overloads, fallback := splitOverloads(v.Overloads)
		fn, _ := e.CallResolver.ResolveOverload(overloads, fallback, n)
		if fn == nil {
			return result(types.Unknown, n)
		}
		return result(fn.EffectiveReturn(), n)
	case *types.ObjectType:
		return result(e.resolveCallableObject(v, n), n)
	default:
		e.reportError(diagnostics.TC003, n, fmt.Sprintf("%s is not callable", callee.String()), nil)
		e.evaluateArgsForDiagnosticsOnly(n)
		return result(types.Unknown, n)
	}
}

func splitOverloads(fns []*types.FunctionType) (overloads []*types.FunctionType, fallback *types.FunctionType) {
	for _, fn := range fns {
		if fn.Details.Flags.Has(types.FuncFlagOverload) {
			overloads = append(overloads, fn)
		} else {
			fallback = fn
		}
	}
	return overloads, fallback
}

func (e *Evaluator) evaluateArgsForDiagnosticsOnly(n *ast.Call) {
	for _, a := range n.Args {
		e.GetType(a.Value, nil, 0)
	}
}

// resolveConstructorCall implements §4.3's constructor flow: look up
// `__init__`/`__new__` on the class's own MRO (there's no instance yet
// to look them up through) and hand the raw, unbound signatures to
// ResolveConstructor, which strips self itself and, per §4.1's
// bidirectional propagation, re-specializes the result against expected
// (e.g. `xs: list[int] = list()` fills the otherwise-unresolved element
// TypeVar from the annotation rather than defaulting it to Unknown).
func (e *Evaluator) resolveConstructorCall(class *types.ClassType, n *ast.Call, expected types.Type) types.Type {
	if class.Details.Flags.Has(types.ClassFlagAbstract) {
		e.reportError(diagnostics.TC005, n, fmt.Sprintf("cannot instantiate abstract class %q", class.Details.Name), nil)
	}
	var init, newFn *types.FunctionType
	if sym, owner, ok := e.lookupMember(class.Details, "__init__"); ok {
		init, _ = e.specializeMemberType(e.memberTypeOf(sym), class, owner).(*types.FunctionType)
	}
	if sym, owner, ok := e.lookupMember(class.Details, "__new__"); ok {
		newFn, _ = e.specializeMemberType(e.memberTypeOf(sym), class, owner).(*types.FunctionType)
	}
	t, _ := e.CallResolver.ResolveConstructor(class, init, newFn, n, expected)
	return t
}

func (e *Evaluator) resolveCallableObject(obj *types.ObjectType, n *ast.Call) types.Type {
	sym, owner, ok := e.lookupMember(obj.Class.Details, "__call__")
	if !ok {
		e.reportError(diagnostics.TC003, n, fmt.Sprintf("%q is not callable", obj.Class.Details.Name), nil)
		e.evaluateArgsForDiagnosticsOnly(n)
		return types.Unknown
	}
	fn, ok := e.specializeMemberType(e.memberTypeOf(sym), obj.Class, owner).(*types.FunctionType)
	if !ok {
		e.evaluateArgsForDiagnosticsOnly(n)
		return types.Unknown
	}
	bound := classbuilder.BindMethod(fn, false)
	t, _ := e.CallResolver.ResolveCall(bound, n)
	return t
}

// iterableElementClasses are the builtin container names whose sole
// (or first) TypeArg is already the per-iteration element type,
// avoiding a dunder-protocol round trip for the common containers.
var iterableElementClasses = map[string]bool{
	"list": true, "set": true, "frozenset": true, "Iterable": true,
	"Iterator": true, "Sequence": true, "Generator": true, "Coroutine": true,
}

// GetTypeFromIterable implements the `get_type_of_iterable` entry
// point (§6): unwrap one iteration step's element type, honoring the
// builtin containers directly and falling back to the `__iter__`/
// `__next__` protocol (or `__aiter__`/`__anext__` under isAsync) for
// everything else, with an optional legacy `__getitem__` fallback for
// old-style sequence iteration.
func (e *Evaluator) GetTypeFromIterable(t types.Type, isAsync bool, errorNode ast.Node, supportGetItem bool) types.Type {
	if isDynamic(t) {
		return types.Unknown
	}
	switch v := t.(type) {
	case *types.UnionType:
		members := make([]types.Type, 0, len(v.Subtypes))
		for _, m := range v.Subtypes {
			members = append(members, e.GetTypeFromIterable(m, isAsync, errorNode, supportGetItem))
		}
		return types.NewUnion(members)
	case *types.ObjectType:
		return e.elementTypeOfObject(v, isAsync, errorNode, supportGetItem)
	default:
		e.reportError(diagnostics.TC003, errorNode, fmt.Sprintf("%s is not iterable", t.String()), nil)
		return types.Unknown
	}
}

func (e *Evaluator) elementTypeOfObject(obj *types.ObjectType, isAsync bool, errorNode ast.Node, supportGetItem bool) types.Type {
	details := obj.Class.Details
	if iterableElementClasses[details.Name] && len(obj.Class.TypeArgs) > 0 {
		return obj.Class.TypeArgs[0]
	}
	if details.Name == "dict" && len(obj.Class.TypeArgs) == 2 {
		return obj.Class.TypeArgs[0]
	}
	if details.Name == "tuple" && len(obj.Class.TypeArgs) > 0 {
		return types.NewUnion(obj.Class.TypeArgs)
	}

	iterDunder, nextDunder := "__iter__", "__next__"
	if isAsync {
		iterDunder, nextDunder = "__aiter__", "__anext__"
	}
	if iteratorType, ok := e.callUnaryDunder(obj, iterDunder); ok {
		if iterObj, ok := iteratorType.(*types.ObjectType); ok {
			if elem, ok := e.callUnaryDunder(iterObj, nextDunder); ok {
				return elem
			}
		}
	}
	if supportGetItem {
		if sym, owner, ok := e.lookupMember(details, "__getitem__"); ok {
			if fn, ok := e.specializeMemberType(e.memberTypeOf(sym), obj.Class, owner).(*types.FunctionType); ok {
				return classbuilder.BindMethod(fn, false).EffectiveReturn()
			}
		}
	}
	e.reportError(diagnostics.TC003, errorNode, fmt.Sprintf("%q is not iterable", details.Name), nil)
	return types.Unknown
}
