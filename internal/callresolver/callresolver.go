// Package callresolver implements call-site argument binding, overload
// selection via the sink's speculative-probe idiom, the
// two-speculative-pass TypeVar matching structure, and constructor
// resolution (__init__ then __new__). Grounded on
// internal/assignability's canAssign-as-the-single-predicate design —
// this package calls it rather than reimplementing any compatibility
// logic — and on internal/cache's Speculate scope for the
// diagnostics-suppressed, cache-undone probing overload selection
// needs.
package callresolver

import (
	"fmt"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/assignability"
	"github.com/typeeval/core/internal/cache"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/typevars"
	"github.com/typeeval/core/internal/types"
)

// ArgType resolves the static type of one call argument's expression.
// Injected rather than imported so this package need not depend on
// internal/evaluator (which in turn drives call resolution).
type ArgType func(expr ast.Expr, expected types.Type) types.Type

// Resolver binds call-site arguments against candidate signatures.
type Resolver struct {
	Checker *assignability.Checker
	Cache   *cache.Cache
	Sink    *diagnostics.Sink
	ArgType ArgType
}

// New builds a Resolver.
func New(checker *assignability.Checker, c *cache.Cache, sink *diagnostics.Sink, argType ArgType) *Resolver {
	return &Resolver{Checker: checker, Cache: c, Sink: sink, ArgType: argType}
}

// boundParam pairs a signature parameter with the argument expression
// feeding it (nil when a default applies).
type boundParam struct {
	param *types.Parameter
	arg   *ast.Argument
}

// segments is a parameter list split at the `/`, `*`, `*args`, and
// `**kwargs` boundaries §4.3 describes. The external AST contract
// doesn't carry explicit positional-only/keyword-only marker nodes —
// those are folded into Parameter.PositionalOnly/KeywordOnly by the
// binder — so segmentation here only needs to separate by category.
type segments struct {
	positional []*types.Parameter // PositionalOnly or plain, in order
	varArg     *types.Parameter
	named      map[string]*types.Parameter // KeywordOnly, or plain (name-addressable)
	kwArg      *types.Parameter
}

func segment(params []*types.Parameter) segments {
	s := segments{named: map[string]*types.Parameter{}}
	for _, p := range params {
		switch {
		case p.Category == types.ParamCategoryVarArg:
			v := p
			s.varArg = v
		case p.Category == types.ParamCategoryKwArg:
			v := p
			s.kwArg = v
		default:
			s.positional = append(s.positional, p)
			if !p.PositionalOnly {
				s.named[p.Name] = p
			}
		}
	}
	return s
}

// BindArguments implements §4.3's positional/named matching for one
// candidate signature against one call-site's arguments. It does not
// stop at the first unresolvable argument (arity/name mismatch): every
// one is reported and makes the result false; type mismatches on
// individually bound arguments are checked via canAssignType and
// contribute to the boolean result the same way. A bound-method view
// (IgnoreFirstParam) binds without its first parameter.
func (r *Resolver) BindArguments(fn *types.FunctionType, call *ast.Call, tvMap *typevars.Map) bool {
	params := fn.Details.Parameters
	if fn.IgnoreFirstParam && len(params) > 0 {
		params = params[1:]
	}
	seg := segment(params)
	ok := true

	posIdx := 0
	usedNamed := map[string]bool{}
	for _, a := range call.Args {
		if a.IsStarArg {
			// An unpacked iterable consumes all remaining positional
			// slots. Its element and tuple-arity types are not read:
			// each remaining simple positional parameter accepts
			// Unknown, per §4.3's tuple-arity note for the case where
			// arity can't be determined statically.
			if r.ArgType != nil {
				r.ArgType(a.Value, nil)
			}
			for posIdx < len(seg.positional) {
				p := seg.positional[posIdx]
				usedNamed[p.Name] = true
				ok = r.Checker.CanAssign(p.Type, types.Unknown, tvMap, 0) && ok
				posIdx++
			}
			continue
		}
		if a.IsKwArg {
			continue // validated structurally only when kwArg sink's value type is known
		}
		if a.Name != "" {
			p, exists := seg.named[a.Name]
			if !exists {
				if seg.kwArg == nil {
					r.reportArity(call, fmt.Sprintf("unexpected keyword argument %q", a.Name))
					ok = false
					continue
				}
				ok = r.checkArg(seg.kwArg.Type, a.Value, tvMap) && ok
				continue
			}
			usedNamed[a.Name] = true
			ok = r.checkArg(p.Type, a.Value, tvMap) && ok
			continue
		}
		switch {
		case posIdx < len(seg.positional):
			p := seg.positional[posIdx]
			usedNamed[p.Name] = true
			ok = r.checkArg(p.Type, a.Value, tvMap) && ok
			posIdx++
		case seg.varArg != nil:
			ok = r.checkArg(seg.varArg.Type, a.Value, tvMap) && ok
		default:
			r.reportArity(call, "too many positional arguments")
			ok = false
		}
	}

	for _, p := range seg.positional[posIdx:] {
		if !p.HasDefault && !usedNamed[p.Name] {
			r.reportArity(call, fmt.Sprintf("missing required argument %q", p.Name))
			ok = false
		}
	}
	for name, p := range seg.named {
		if !p.HasDefault && !usedNamed[name] {
			r.reportArity(call, fmt.Sprintf("missing required argument %q", name))
			ok = false
		}
	}
	return ok
}

func (r *Resolver) checkArg(paramType types.Type, expr ast.Expr, tvMap *typevars.Map) bool {
	var argType types.Type
	if r.ArgType != nil {
		argType = r.ArgType(expr, paramType)
	} else {
		argType = types.Unknown
	}
	return r.Checker.CanAssign(paramType, argType, tvMap, 0)
}

func (r *Resolver) reportArity(call *ast.Call, msg string) {
	if r.Sink == nil {
		return
	}
	span := call.Position()
	r.Sink.AddError(diagnostics.TC004, &ast.Span{Start: span, End: span}, msg, nil)
}

// speculate runs f with diagnostics suppressed and cache writes
// undone afterward, the probe shape §4.3 calls for during overload
// selection and TypeVar matching passes.
func (r *Resolver) speculate(f func() bool) bool {
	var result bool
	run := func() {
		if r.Sink != nil {
			release := r.Sink.Suppress()
			result = f()
			release()
		} else {
			result = f()
		}
	}
	if r.Cache != nil {
		r.Cache.Speculate(run)
	} else {
		run()
	}
	return result
}

// ResolveOverload implements §4.3's overload-selection loop: only
// `@overload`-flagged candidates participate; the final
// non-overloaded implementation (fallback, possibly nil) is tried only
// once every decorated candidate has failed.
func (r *Resolver) ResolveOverload(overloads []*types.FunctionType, fallback *types.FunctionType, call *ast.Call) (*types.FunctionType, *typevars.Map) {
	for _, candidate := range overloads {
		if !candidate.Details.Flags.Has(types.FuncFlagOverload) {
			continue
		}
		m := typevars.NewMap()
		matched := r.speculate(func() bool { return r.BindArguments(candidate, call, m) })
		if matched {
			m.Lock()
			return candidate, m
		}
	}
	if fallback != nil {
		m := typevars.NewMap()
		if r.BindArguments(fallback, call, m) {
			m.Lock()
			return fallback, m
		}
	}
	if r.Sink != nil {
		span := call.Position()
		r.Sink.AddError(diagnostics.OVL001, &ast.Span{Start: span, End: span}, "no overload matches the supplied arguments", nil)
	}
	return nil, nil
}

// ResolveCall runs the full single-signature flow for a (possibly
// generic) function: two speculative TypeVar-matching passes, then a
// locked re-validation, then return-type specialization.
func (r *Resolver) ResolveCall(fn *types.FunctionType, call *ast.Call) (types.Type, bool) {
	if !needsTypeVarMatching(fn) {
		m := typevars.NewMap()
		ok := r.BindArguments(fn, call, m)
		return fn.EffectiveReturn(), ok
	}

	m := typevars.NewMap()
	for pass := 0; pass < 2; pass++ {
		r.speculate(func() bool { return r.BindArguments(fn, call, m) })
	}
	m.Lock()
	ok := r.BindArguments(fn, call, m)
	return m.Specialize(fn.EffectiveReturn(), true), ok
}

func needsTypeVarMatching(fn *types.FunctionType) bool {
	for _, p := range fn.Details.Parameters {
		if containsTypeVar(p.Type) {
			return true
		}
	}
	return containsTypeVar(fn.EffectiveReturn())
}

func containsTypeVar(t types.Type) bool {
	switch v := t.(type) {
	case *types.TypeVarType:
		return true
	case *types.UnionType:
		for _, m := range v.Subtypes {
			if containsTypeVar(m) {
				return true
			}
		}
	case *types.ClassType:
		for _, a := range v.TypeArgs {
			if containsTypeVar(a) {
				return true
			}
		}
	case *types.ObjectType:
		return containsTypeVar(v.Class)
	}
	return false
}

// ResolveConstructor implements §4.3's constructor flow: __init__
// validated first, then __new__ unless either is flagged
// skip-constructor-check; the result is the owning class specialized
// through the collected TypeVar map and then adjusted toward expected
// (the caller-supplied target type, e.g. the annotated variable a
// constructor call is being assigned to) via seedFromExpected.
func (r *Resolver) ResolveConstructor(class *types.ClassType, init, newFn *types.FunctionType, call *ast.Call, expected types.Type) (types.Type, bool) {
	class = instantiationTemplate(class)
	m := typevars.NewMap()
	r.seedFromExpected(class, m, expected)
	ok := true

	if init != nil && !init.Details.Flags.Has(types.FuncFlagSkipConstructorCheck) {
		bound := classbuilderBindMethod(init)
		if needsTypeVarMatching(bound) {
			for pass := 0; pass < 2; pass++ {
				r.speculate(func() bool { return r.BindArguments(bound, call, m) })
			}
			m.Lock()
		}
		ok = r.BindArguments(bound, call, m) && ok
	}
	if newFn != nil && !newFn.Details.Flags.Has(types.FuncFlagSkipConstructorCheck) {
		bound := classbuilderBindMethod(newFn)
		ok = r.BindArguments(bound, call, m) && ok
	}

	specialized := m.Specialize(class, true)
	return types.NewInstance(specialized.(*types.ClassType)), ok
}

// instantiationTemplate gives a bare generic class reference (type[X],
// TypeArgs unset) one TypeVar-valued arg slot per TypeParam, so that
// m.Specialize below has something to substitute through: Substitute
// only rewrites entries already present in TypeArgs, so a class passed
// through with no args would specialize to an empty TypeArgs no matter
// what the TypeVar map resolved.
func instantiationTemplate(class *types.ClassType) *types.ClassType {
	if len(class.TypeArgs) != 0 || len(class.Details.TypeParams) == 0 {
		return class
	}
	args := make([]types.Type, len(class.Details.TypeParams))
	for i, tv := range class.Details.TypeParams {
		args[i] = tv
	}
	return &types.ClassType{Details: class.Details, TypeArgs: args, Literal: class.Literal}
}

// seedFromExpected implements the constructor side of §4.1's
// bidirectional propagation: when the caller supplies an expected
// type that is an instance of the same class (e.g. `xs: list[int] =
// list()`), its type arguments seed the map before any constructor
// argument is bound. A class TypeParam left unmatched by the
// constructor's own arguments then specializes to the expected hint
// instead of falling back to Unknown; a TypeParam the arguments do
// pin down still wins, since Widen keeps the existing mapping whenever
// it already accepts the later-bound argument type.
func (r *Resolver) seedFromExpected(class *types.ClassType, m *typevars.Map, expected types.Type) {
	if expected == nil || len(class.Details.TypeParams) == 0 {
		return
	}
	var expectedArgs []types.Type
	switch t := expected.(type) {
	case *types.ObjectType:
		if t.Class.Details == class.Details {
			expectedArgs = t.Class.TypeArgs
		}
	case *types.ClassType:
		if t.Details == class.Details {
			expectedArgs = t.TypeArgs
		}
	}
	if len(expectedArgs) != len(class.Details.TypeParams) {
		return
	}
	checker := func(dst, src types.Type) bool {
		return r.Checker.CanAssign(dst, src, nil, assignability.FlagSuppressDiagnostics)
	}
	for i, tv := range class.Details.TypeParams {
		if expectedArgs[i] != nil {
			m.Assign(tv, expectedArgs[i], typevars.Widen, checker)
		}
	}
}

// classbuilderBindMethod strips the leading self/cls parameter the
// same way internal/classbuilder.BindMethod does; duplicated here in
// miniature (IgnoreFirstParam alone, no decorator bookkeeping) to
// avoid a dependency cycle, since internal/classbuilder doesn't need
// to know about call resolution.
func classbuilderBindMethod(fn *types.FunctionType) *types.FunctionType {
	return &types.FunctionType{Details: fn.Details, InferredReturn: fn.InferredReturn, IgnoreFirstParam: true}
}
