// Package evaluator implements the bidirectional expression evaluator
// and the external entry-point surface a driver
// calls into. It is the integration point for every other package in
// this module — classbuilder, synthesis, callresolver, assignability,
// typevars, flow, cache, diagnostics, symbols, importresolver, config —
// dispatching on AST node kind from one method per kind rather than one
// pass per elaboration phase.
package evaluator

import (
	"fmt"

	"github.com/typeeval/core/internal/assignability"
	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/cache"
	"github.com/typeeval/core/internal/callresolver"
	"github.com/typeeval/core/internal/classbuilder"
	"github.com/typeeval/core/internal/config"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/importresolver"
	"github.com/typeeval/core/internal/symbols"
	"github.com/typeeval/core/internal/types"
)

// Flags carries the per-call evaluation flags GetType accepts.
type Flags uint32

const (
	FlagConvertEllipsisToAny Flags = 1 << iota
	FlagDoNotSpecialize
	FlagAllowForwardReferences
	FlagDoNotCheckForUnknownArgs
	FlagEvaluateStringLiteralAsType
	FlagFinalDisallowed
	FlagParameterSpecificationDisallowed
	FlagExpectingType
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// TypeResult is the per-expression evaluation result.
type TypeResult struct {
	Type                 types.Type
	Node                 ast.Expr
	UnpackedType         types.Type
	TypeList             []types.Type
	IsResolutionCyclical bool
	ExpectedTypeDiag     string
}

func result(t types.Type, n ast.Expr) TypeResult { return TypeResult{Type: t, Node: n} }

// Evaluator is the single stateful instance a driver constructs once
// per compilation unit (or per file, for this core's scope); it owns
// every cache and collaborator the type-evaluation components need and
// exposes the external entry-point surface as methods.
type Evaluator struct {
	Sink         *diagnostics.Sink
	Cache        *cache.Cache
	Canceller    *cache.Canceller
	Checker      *assignability.Checker
	ClassBuilder *classbuilder.Builder
	CallResolver *callresolver.Resolver
	Imports      *importresolver.Resolver
	Config       *config.EvaluatorConfig
	ResStack     *symbols.ResolutionStack

	// DebugMode gates internal tracing as an explicit field on the
	// owning struct rather than a package-level logger.
	DebugMode bool

	// ScopeOf, FlowNodeFor, and SymbolRefFor are the read-only binder
	// contracts (Scope/FlowNode are produced by external collaborators,
	// consumed read-only here). Injected as callbacks, the same seam
	// internal/flow and internal/symbols use, so this package never has
	// to define its own scope/flow-graph builder — a test fixture or a
	// real binder supplies them.
	ScopeOf      func(ast.Node) *symbols.Scope
	FlowNodeFor  func(ref ast.Expr) *ast.FlowNode
	SymbolRefFor func(ref ast.Expr) (symbolID uint64, name string, ok bool)

	// BuiltinClass resolves a builtin class by name (`"int"`, `"bool"`,
	// `"str"`, ...) against the real builtins.pyi-derived registry a
	// driver owns. When nil, literal/operator evaluation falls back to
	// a bare internally-synthesized ClassDetails per name (builtins.go)
	// so this package is still self-sufficient for unit tests.
	BuiltinClass func(name string) *types.ClassDetails

	trace []string
}

// New builds an Evaluator with every collaborator wired: the call
// resolver's ArgType callback closes over e.GetType so
// internal/callresolver never has to import this package, and the
// assignability checker's MemberType callback closes over
// e.effectiveTypeOfSymbol so structural (protocol/TypedDict) matching
// sees flow-narrowed, cycle-safe member types instead of only the
// synthesized fallback internal/assignability.New defaults to.
func New(imports *importresolver.Resolver, cfg *config.EvaluatorConfig) *Evaluator {
	if cfg == nil {
		cfg = config.Default()
	}
	sink := diagnostics.NewSink()
	e := &Evaluator{
		Sink:      sink,
		Cache:     cache.New(),
		Canceller: &cache.Canceller{},
		Imports:   imports,
		Config:    cfg,
		ResStack:  symbols.NewResolutionStack(),
	}
	e.ClassBuilder = classbuilder.New(sink)
	e.Checker = assignability.New(sink, e.memberTypeOf)
	e.CallResolver = callresolver.New(e.Checker, e.Cache, sink, e.argType)
	return e
}

func (e *Evaluator) debugf(format string, args ...any) {
	if e.DebugMode {
		e.trace = append(e.trace, fmt.Sprintf(format, args...))
	}
}

// Trace returns every debug line recorded while DebugMode is set.
func (e *Evaluator) Trace() []string { return e.trace }

// argType is the internal/callresolver.ArgType callback: resolve one
// call argument's expression type with the parameter's declared type
// as the bidirectional `expected` hint.
func (e *Evaluator) argType(expr ast.Expr, expected types.Type) types.Type {
	return e.GetType(expr, expected, 0)
}

// memberTypeOf is the internal/assignability.MemberTyper callback:
// resolve a symbol's effective type through the same cycle-safe,
// flow-aware machinery §4.9 describes rather than only its
// SynthesizedType.
func (e *Evaluator) memberTypeOf(sym *types.Symbol) types.Type {
	return e.effectiveTypeOfSymbol(sym, nil)
}

// GetType implements the `get_type_of_expression` entry point:
// cache-first, then dispatch on node kind. expected feeds the
// bidirectional propagation described in §4.1 for containers, calls,
// and ternaries; it may be nil.
func (e *Evaluator) GetType(n ast.Expr, expected types.Type, flags Flags) types.Type {
	if n == nil {
		return types.Unknown
	}
	if cached, ok := e.Cache.Get(n.ID()); ok {
		return cached
	}

	tr := e.evaluate(n, expected, flags)
	if tr.Type == nil {
		tr.Type = types.Unknown
	}
	if !tr.IsResolutionCyclical {
		e.Cache.Set(n.ID(), tr.Type)
	}
	return tr.Type
}

// evaluate is the per-node-kind switch; each case is implemented in a
// sibling file grouped by concern (names.go, operators.go,
// containers.go, calls.go).
func (e *Evaluator) evaluate(n ast.Expr, expected types.Type, flags Flags) TypeResult {
	if err := e.checkCancel(); err != nil {
		return result(types.Unknown, n)
	}

	switch v := n.(type) {
	case *ast.Name:
		return e.evalName(v, flags)
	case *ast.MemberAccess:
		return e.evalMemberAccess(v, expected, flags)
	case *ast.Index:
		return e.evalIndex(v, expected, flags)
	case *ast.Call:
		return e.evalCall(v, expected, flags)
	case *ast.Tuple:
		return e.evalTuple(v, expected, flags)
	case *ast.Constant:
		return e.evalConstant(v)
	case *ast.Number:
		return e.evalNumber(v, expected)
	case *ast.StringList:
		return e.evalStringList(v, flags)
	case *ast.Ellipsis:
		return e.evalEllipsis(flags)
	case *ast.UnaryOp:
		return e.evalUnary(v, flags)
	case *ast.BinaryOp:
		return e.evalBinary(v, expected, flags)
	case *ast.AugmentedAssignment:
		return e.evalAugmented(v, flags)
	case *ast.ListNode:
		return e.evalList(v, expected, flags)
	case *ast.SetNode:
		return e.evalSet(v, expected, flags)
	case *ast.DictNode:
		return e.evalDict(v, expected, flags)
	case *ast.Slice:
		return e.evalSlice(v)
	case *ast.Await:
		return e.evalAwait(v, flags)
	case *ast.Ternary:
		return e.evalTernary(v, expected, flags)
	case *ast.ListComprehension:
		return e.evalComprehension(v, expected, flags)
	case *ast.Lambda:
		return e.evalLambda(v, expected, flags)
	case *ast.Assignment:
		return e.evalAssignment(v, flags)
	case *ast.AssignmentExpression:
		return e.evalAssignmentExpr(v, flags)
	case *ast.Yield:
		return e.evalYield(v, flags)
	case *ast.YieldFrom:
		return e.evalYieldFrom(v, flags)
	case *ast.Unpack:
		return e.evalUnpack(v, flags)
	case *ast.TypeAnnotation:
		return e.evalTypeAnnotation(v, flags)
	case *ast.FuncDecl:
		ft, _ := e.GetTypeOfFunction(v)
		return result(ft, v)
	case *ast.ErrorNode:
		return result(types.Unknown, v)
	default:
		e.debugf("evaluate: unhandled node kind %T", n)
		return result(types.Unknown, n)
	}
}

func (e *Evaluator) checkCancel() error {
	if e.Canceller == nil {
		return nil
	}
	return e.Canceller.CheckCancel()
}
