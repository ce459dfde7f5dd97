package ast

import "fmt"

// FlowNodeKind tags the shape of a control-flow-graph node the binder
// attaches to every statement and expression capable of affecting
// narrowing. The core only ever walks this DAG read-only, starting from
// a reference's flow node and following Antecedents back to Start.
type FlowNodeKind int

const (
	FlowStart FlowNodeKind = iota
	FlowAssignment
	FlowAssignmentAlias
	FlowCall
	FlowBranchLabel
	FlowLoopLabel
	FlowTrueCondition
	FlowFalseCondition
	FlowPreFinallyGate
	FlowPostFinally
	FlowWildcardImport
	FlowUnreachable
	FlowUnbind
)

func (k FlowNodeKind) String() string {
	switch k {
	case FlowStart:
		return "Start"
	case FlowAssignment:
		return "Assignment"
	case FlowAssignmentAlias:
		return "AssignmentAlias"
	case FlowCall:
		return "Call"
	case FlowBranchLabel:
		return "BranchLabel"
	case FlowLoopLabel:
		return "LoopLabel"
	case FlowTrueCondition:
		return "TrueCondition"
	case FlowFalseCondition:
		return "FalseCondition"
	case FlowPreFinallyGate:
		return "PreFinallyGate"
	case FlowPostFinally:
		return "PostFinally"
	case FlowWildcardImport:
		return "WildcardImport"
	case FlowUnreachable:
		return "Unreachable"
	case FlowUnbind:
		return "Unbind"
	default:
		return fmt.Sprintf("FlowNodeKind(%d)", int(k))
	}
}

// FlowNode is one node of the binder-produced flow graph. Fields not
// meaningful for a given Kind are left zero; callers switch on Kind
// first and walk Antecedents from there.
type FlowNode struct {
	ID          uint64
	Kind        FlowNodeKind
	Antecedents []*FlowNode

	// Assignment / AssignmentAlias: the target reference's symbol id and,
	// for an assignment, the statement whose right-hand side produces the
	// new type. IsUnbind marks a deliberate `del` rather than a value
	// assignment.
	TargetSymbolID uint64
	AliasSymbolID  uint64
	AssignStmt     Node
	IsUnbind       bool

	// Call: the called expression, consulted for a NoReturn declared
	// return type to mark the predecessor unreachable.
	CallExpr Expr

	// TrueCondition / FalseCondition: the test expression a narrowing
	// callback is derived from, and the reference being narrowed.
	TestExpr Expr
	Reference Expr

	// WildcardImport: names brought into scope by `from m import *`.
	ImportedNames map[string]bool
	ImportPath    string
}

// NewFlowNode builds a bare flow node of the given kind with the given
// antecedents; callers fill in kind-specific fields directly afterward.
func NewFlowNode(id uint64, kind FlowNodeKind, antecedents ...*FlowNode) *FlowNode {
	return &FlowNode{ID: id, Kind: kind, Antecedents: antecedents}
}
