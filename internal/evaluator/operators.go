package evaluator

import (
	"fmt"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/classbuilder"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/types"
)

var unaryDunders = map[string]string{"-": "__neg__", "+": "__pos__", "~": "__invert__"}

var binaryDunders = map[string]string{
	"+": "__add__", "-": "__sub__", "*": "__mul__", "/": "__truediv__", "//": "__floordiv__",
	"%": "__mod__", "**": "__pow__", "@": "__matmul__",
	"&": "__and__", "|": "__or__", "^": "__xor__", "<<": "__lshift__", ">>": "__rshift__",
	"==": "__eq__", "!=": "__ne__", "<": "__lt__", "<=": "__le__", ">": "__gt__", ">=": "__ge__",
	"in": "__contains__", "not in": "__contains__",
}

var reflectedDunders = map[string]string{
	"+": "__radd__", "-": "__rsub__", "*": "__rmul__", "/": "__rtruediv__", "//": "__rfloordiv__",
	"%": "__rmod__", "**": "__rpow__", "@": "__rmatmul__",
	"&": "__rand__", "|": "__ror__", "^": "__rxor__", "<<": "__rlshift__", ">>": "__rrshift__",
}

// comparisonOps always produce bool regardless of the dunder's
// declared return, matching the host language's guarantee that rich
// comparisons coerce through `bool()`. Equality/ordering dunders are
// still probed for operand-type compatibility; only the result type is
// fixed.
var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"in": true, "not in": true,
}

// evalUnary implements §4.1's unary-operator case: `not` always
// produces bool without consulting `__bool__` (narrowing handles
// truthiness separately); the arithmetic/bitwise forms dispatch
// through the operand's matching dunder.
func (e *Evaluator) evalUnary(n *ast.UnaryOp, flags Flags) TypeResult {
	if n.Op == "not" {
		return result(e.boolType(), n)
	}
	operand := e.GetType(n.Operand, nil, 0)
	if isDynamic(operand) {
		return result(types.Unknown, n)
	}
	dunder, ok := unaryDunders[n.Op]
	if ok {
		if t, ok := e.callUnaryDunder(operand, dunder); ok {
			return result(t, n)
		}
	}
	e.reportError(diagnostics.TC002, n, fmt.Sprintf("unsupported operand type for unary %s", n.Op), nil)
	return result(types.Unknown, n)
}

func (e *Evaluator) callUnaryDunder(operand types.Type, dunder string) (types.Type, bool) {
	obj, ok := operand.(*types.ObjectType)
	if !ok {
		return nil, false
	}
	sym, owner, ok := e.lookupMember(obj.Class.Details, dunder)
	if !ok {
		return nil, false
	}
	fn, ok := e.specializeMemberType(e.memberTypeOf(sym), obj.Class, owner).(*types.FunctionType)
	if !ok {
		return nil, false
	}
	return classbuilder.BindMethod(fn, false).EffectiveReturn(), true
}

// evalBinary implements §4.1's binary-operator case: `and`/`or` apply
// their truthiness-narrowing semantics rather than calling a dunder;
// every other operator dispatches left-dunder-then-right-reflected,
// Any/Unknown absorbing through unchanged.
func (e *Evaluator) evalBinary(n *ast.BinaryOp, expected types.Type, flags Flags) TypeResult {
	switch n.Op {
	case "and":
		return e.evalBoolOp(n, true, flags)
	case "or":
		return e.evalBoolOp(n, false, flags)
	}

	left := e.GetType(n.Left, nil, 0)
	right := e.GetType(n.Right, nil, 0)
	if isDynamic(left) || isDynamic(right) {
		return result(types.Unknown, n)
	}
	if t, ok := e.applyOperator(left, right, n.Op); ok {
		if comparisonOps[n.Op] {
			return result(e.boolType(), n)
		}
		return result(t, n)
	}
	e.reportError(diagnostics.TC002, n, fmt.Sprintf("unsupported operand types for %s", n.Op), nil)
	return result(types.Unknown, n)
}

// evalBoolOp implements `a and b` / `a or b`: the result is the union
// of a's members that survive the short-circuit test with b's full
// type, since either operand may be the one actually returned at
// runtime.
func (e *Evaluator) evalBoolOp(n *ast.BinaryOp, isAnd bool, flags Flags) TypeResult {
	left := e.GetType(n.Left, nil, flags)
	right := e.GetType(n.Right, nil, flags)
	keep := e.canBeTruthy
	if isAnd {
		keep = e.canBeFalsy
	}
	kept := filterUnion(left, keep)
	return result(types.NewUnion([]types.Type{kept, right}), n)
}

func filterUnion(t types.Type, keep func(types.Type) bool) types.Type {
	var out []types.Type
	for _, m := range unionMembers(t) {
		if keep(m) {
			out = append(out, m)
		}
	}
	return types.NewUnion(out)
}

func unionMembers(t types.Type) []types.Type {
	if u, ok := t.(*types.UnionType); ok {
		return u.Subtypes
	}
	return []types.Type{t}
}

func (e *Evaluator) applyOperator(left, right types.Type, op string) (types.Type, bool) {
	name, ok := binaryDunders[op]
	if !ok {
		return nil, false
	}
	if t, ok := e.tryDunderCall(left, name, right); ok {
		return t, true
	}
	if rname, ok2 := reflectedDunders[op]; ok2 {
		if t, ok := e.tryDunderCall(right, rname, left); ok {
			return t, true
		}
	}
	return nil, false
}

// tryDunderCall probes recv's dunder method against arg, suppressing
// any diagnostic the probe's own assignability check would otherwise
// report — the caller only learns whether the attempt succeeded, the
// same speculate-then-report-once shape internal/callresolver uses for
// overload candidates.
func (e *Evaluator) tryDunderCall(recv types.Type, dunder string, arg types.Type) (types.Type, bool) {
	obj, ok := recv.(*types.ObjectType)
	if !ok {
		return nil, false
	}
	sym, owner, ok := e.lookupMember(obj.Class.Details, dunder)
	if !ok {
		return nil, false
	}
	fn, ok := e.specializeMemberType(e.memberTypeOf(sym), obj.Class, owner).(*types.FunctionType)
	if !ok {
		return nil, false
	}
	bound := classbuilder.BindMethod(fn, false)
	if len(bound.Details.Parameters) == 0 {
		return nil, false
	}
	paramType := bound.Details.Parameters[0].Type

	assignable := false
	if e.Sink != nil {
		release := e.Sink.Suppress()
		assignable = e.Checker.CanAssign(paramType, arg, nil, 0)
		release()
	} else if e.Checker != nil {
		assignable = e.Checker.CanAssign(paramType, arg, nil, 0)
	}
	if !assignable {
		return nil, false
	}
	return bound.EffectiveReturn(), true
}

// evalAugmented implements `target op= value`: resolved the same way
// as the corresponding binary operator's in-place dunder
// (`__iadd__`, etc.), falling back to the plain dunder when no
// in-place form is defined, then re-checking the result against the
// target's declared type.
func (e *Evaluator) evalAugmented(n *ast.AugmentedAssignment, flags Flags) TypeResult {
	target := e.GetType(n.Target, nil, 0)
	value := e.GetType(n.Value, nil, 0)
	if isDynamic(target) || isDynamic(value) {
		return result(types.Unknown, n)
	}

	inplaceDunder := "__i" + binaryDunders[n.Op][2:]
	if obj, ok := target.(*types.ObjectType); ok {
		if t, ok := e.callInplaceDunder(obj, inplaceDunder, value); ok {
			return result(t, n)
		}
	}
	if t, ok := e.applyOperator(target, value, n.Op); ok {
		return result(t, n)
	}
	e.reportError(diagnostics.TC002, n, fmt.Sprintf("unsupported operand types for %s=", n.Op), nil)
	return result(types.Unknown, n)
}

func (e *Evaluator) callInplaceDunder(obj *types.ObjectType, dunder string, arg types.Type) (types.Type, bool) {
	sym, owner, ok := e.lookupMember(obj.Class.Details, dunder)
	if !ok {
		return nil, false
	}
	fn, ok := e.specializeMemberType(e.memberTypeOf(sym), obj.Class, owner).(*types.FunctionType)
	if !ok {
		return nil, false
	}
	bound := classbuilder.BindMethod(fn, false)
	if len(bound.Details.Parameters) == 0 {
		return nil, false
	}
	assignable := false
	if e.Sink != nil {
		release := e.Sink.Suppress()
		assignable = e.Checker.CanAssign(bound.Details.Parameters[0].Type, arg, nil, 0)
		release()
	} else if e.Checker != nil {
		assignable = e.Checker.CanAssign(bound.Details.Parameters[0].Type, arg, nil, 0)
	}
	if !assignable {
		return nil, false
	}
	return bound.EffectiveReturn(), true
}
