// Package flow implements the code-flow narrower: a walk over the
// binder-produced FlowNode DAG that refines a reference's type along
// control-flow edges using runtime tests (is-None, isinstance, literal
// equality, callable, truthiness). Grounded on the decision-tree walk
// shape in the pack's evaluation-order analyzers and on
// internal/elaborate/scc.go's fixed-point handling for cyclic graphs.
package flow

import (
	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/types"
)

// NarrowFunc refines a type along one control-flow edge. Represented
// as a closure, the natural shape for a closure-capable language,
// rather than an enum of narrowing kinds dispatched in a switch.
type NarrowFunc func(types.Type) types.Type

// Walker owns the callbacks needed to interpret flow-node payloads
// without internal/flow importing internal/evaluator (which must
// import internal/flow to invoke it) or internal/symbols (which the
// evaluator also drives): every payload that requires re-evaluating an
// expression is injected, the same seam internal/typevars uses for
// assignability.
type Walker struct {
	// ResolveAssignment evaluates an Assignment flow node's right-hand
	// side and returns its type, as if §4.1's expression evaluator had
	// been invoked on that statement.
	ResolveAssignment func(stmt ast.Node) types.Type
	// NarrowCallback builds the NarrowFunc for one TrueCondition/
	// FalseCondition test, given the test expression, the reference
	// being narrowed, and the edge's polarity.
	NarrowCallback func(test ast.Expr, reference ast.Expr, positive bool) NarrowFunc
	// CallReturnType returns the declared return type of a Call flow
	// node's callee, used to detect a NoReturn call that makes its
	// predecessor unreachable.
	CallReturnType func(callExpr ast.Expr) types.Type
	// ImportedType resolves one name from a wildcard import's source
	// module, via the import resolver's ImportLookup contract.
	ImportedType func(path, name string) (types.Type, bool)
	// CancelCheck is polled at every node, matching §5's cooperative
	// cancellation model; nil means never cancel.
	CancelCheck func() error
}

// unreachable is a sentinel returned internally to mark "no
// contribution" (the Unreachable flow-node case); it never escapes
// Walk, which treats it as an empty union member.
type unreachableMarker struct{}

func (unreachableMarker) String() string                       { return "<unreachable>" }
func (unreachableMarker) Equals(types.Type) bool                { return false }
func (unreachableMarker) Substitute(map[string]types.Type) types.Type { return unreachableMarker{} }

var unreachable types.Type = unreachableMarker{}

func isUnreachable(t types.Type) bool {
	_, ok := t.(unreachableMarker)
	return ok
}

// Walk starts from a reference's flow node and walks antecedents back
// to Start, returning the narrowed type and whether the walk completed
// without hitting an in-progress LoopLabel fixed point (false means the
// result is provisional, matching §4.8's incomplete-type tracking).
func (w *Walker) Walk(node *ast.FlowNode, targetSymbolID uint64, targetName string, typeAtStart types.Type) (types.Type, bool) {
	active := map[*ast.FlowNode]bool{}
	t, complete := w.walk(node, targetSymbolID, targetName, typeAtStart, active)
	if isUnreachable(t) {
		return types.Never, complete
	}
	return t, complete
}

func (w *Walker) walk(node *ast.FlowNode, targetSymbolID uint64, targetName string, typeAtStart types.Type, active map[*ast.FlowNode]bool) (types.Type, bool) {
	if node == nil {
		return typeAtStart, true
	}
	if w.CancelCheck != nil {
		if err := w.CancelCheck(); err != nil {
			return types.Unknown, true
		}
	}

	switch node.Kind {
	case ast.FlowStart:
		return typeAtStart, true

	case ast.FlowUnreachable:
		return unreachable, true

	case ast.FlowCall:
		if w.CallReturnType != nil && node.CallExpr != nil {
			if ret := w.CallReturnType(node.CallExpr); ret != nil && ret.Equals(types.Never) {
				return unreachable, true
			}
		}
		return w.walkAntecedents(node, targetSymbolID, targetName, typeAtStart, active)

	case ast.FlowAssignment:
		if node.TargetSymbolID == targetSymbolID {
			if node.IsUnbind {
				return types.Unbound, true
			}
			if w.ResolveAssignment != nil {
				return w.ResolveAssignment(node.AssignStmt), true
			}
			return types.Unknown, true
		}
		return w.walkAntecedents(node, targetSymbolID, targetName, typeAtStart, active)

	case ast.FlowAssignmentAlias:
		next := targetSymbolID
		if node.TargetSymbolID == targetSymbolID {
			next = node.AliasSymbolID
		}
		return w.walkAntecedents(node, next, targetName, typeAtStart, active)

	case ast.FlowBranchLabel:
		return w.unionAntecedents(node, targetSymbolID, targetName, typeAtStart, active)

	case ast.FlowLoopLabel:
		if active[node] {
			return types.Unknown, false
		}
		active[node] = true
		t, complete := w.unionAntecedents(node, targetSymbolID, targetName, typeAtStart, active)
		delete(active, node)
		return t, complete

	case ast.FlowTrueCondition, ast.FlowFalseCondition:
		base, complete := w.walkAntecedents(node, targetSymbolID, targetName, typeAtStart, active)
		if isUnreachable(base) || w.NarrowCallback == nil || node.TestExpr == nil {
			return base, complete
		}
		narrow := w.NarrowCallback(node.TestExpr, node.Reference, node.Kind == ast.FlowTrueCondition)
		if narrow == nil {
			return base, complete
		}
		return narrow(base), complete

	case ast.FlowPreFinallyGate, ast.FlowPostFinally:
		// A simplified model of the try/finally data flow: the `finally`
		// route is always the last antecedent recorded by the binder, so
		// PostFinally resolves through it exclusively, without modeling
		// the gate as a distinct toggle.
		if len(node.Antecedents) == 0 {
			return typeAtStart, true
		}
		return w.walk(node.Antecedents[len(node.Antecedents)-1], targetSymbolID, targetName, typeAtStart, active)

	case ast.FlowWildcardImport:
		if node.ImportedNames[targetName] && w.ImportedType != nil {
			if t, ok := w.ImportedType(node.ImportPath, targetName); ok {
				return t, true
			}
		}
		return w.walkAntecedents(node, targetSymbolID, targetName, typeAtStart, active)

	case ast.FlowUnbind:
		if node.TargetSymbolID == targetSymbolID {
			return types.Unbound, true
		}
		return w.walkAntecedents(node, targetSymbolID, targetName, typeAtStart, active)

	default:
		return w.walkAntecedents(node, targetSymbolID, targetName, typeAtStart, active)
	}
}

// walkAntecedents follows the single (or first) antecedent, the shape
// every non-merging node uses.
func (w *Walker) walkAntecedents(node *ast.FlowNode, targetSymbolID uint64, targetName string, typeAtStart types.Type, active map[*ast.FlowNode]bool) (types.Type, bool) {
	if len(node.Antecedents) == 0 {
		return typeAtStart, true
	}
	return w.walk(node.Antecedents[0], targetSymbolID, targetName, typeAtStart, active)
}

// unionAntecedents computes the union across every antecedent,
// dropping unreachable contributions, used by BranchLabel and
// LoopLabel.
func (w *Walker) unionAntecedents(node *ast.FlowNode, targetSymbolID uint64, targetName string, typeAtStart types.Type, active map[*ast.FlowNode]bool) (types.Type, bool) {
	var members []types.Type
	complete := true
	for _, ant := range node.Antecedents {
		t, c := w.walk(ant, targetSymbolID, targetName, typeAtStart, active)
		if !c {
			complete = false
		}
		if !isUnreachable(t) {
			members = append(members, t)
		}
	}
	if len(members) == 0 {
		return unreachable, complete
	}
	return types.NewUnion(members), complete
}
