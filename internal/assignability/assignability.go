// Package assignability implements canAssignType: the single predicate
// every other component (call binding, override
// checking, narrowing) calls to decide whether one type fits where
// another is expected. It populates a caller-supplied TypeVar map as a
// side effect and reports failures through a diagnostics.Sink.
package assignability

import (
	"fmt"

	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/typevars"
	"github.com/typeeval/core/internal/types"
)

// Flags mirror the bit-set the algorithm consults at each step.
type Flags uint32

const (
	// FlagInvariant forces structural class-argument and Union-to-Union
	// comparisons to require equality rather than one-directional
	// assignability (used for TypedDict values and invariant generic
	// parameters).
	FlagInvariant Flags = 1 << iota
	// FlagReverseTypeVarMatching assigns into the map when src (not dst)
	// is the TypeVar, used when matching a callback parameter's inferred
	// type back against a declared TypeVar bound on the caller's side.
	FlagReverseTypeVarMatching
	// FlagSuppressDiagnostics mutes sink writes for this call tree,
	// matching the overload-probing/narrowing-callback suppression the
	// evaluator's diagnostics.Sink.Suppress already does at the sink
	// level; exposed here too so a caller that doesn't own the sink
	// (internal/typevars's AssignabilityChecker closures) can opt out of
	// double-reporting without touching the sink's own counter.
	FlagSuppressDiagnostics
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// MemberTyper resolves a Symbol's type for protocol/TypedDict structural
// comparison. internal/symbols.EffectiveType (driven by the evaluator)
// is the real implementation; tests can supply SynthesizedType-only
// lookups directly.
type MemberTyper func(*types.Symbol) types.Type

// Checker is the stateful entry point; Sink and MemberType may be left
// nil (diagnostics are dropped, members resolve via SynthesizedType
// only).
type Checker struct {
	Sink       *diagnostics.Sink
	MemberType MemberTyper
}

// New creates a Checker reporting through sink and resolving member
// types through memberType (nil is fine for both).
func New(sink *diagnostics.Sink, memberType MemberTyper) *Checker {
	if memberType == nil {
		memberType = func(s *types.Symbol) types.Type {
			if s.SynthesizedType != nil {
				return s.SynthesizedType
			}
			return types.Unknown
		}
	}
	return &Checker{Sink: sink, MemberType: memberType}
}

// CanAssign implements the structural/nominal compatibility algorithm.
// tvMap may be nil when the caller doesn't need TypeVar solving (e.g.
// checking two fully concrete types).
func (c *Checker) CanAssign(dst, src types.Type, tvMap *typevars.Map, flags Flags) bool {
	if flags.has(FlagSuppressDiagnostics) {
		return c.canAssignQuiet(dst, src, tvMap, flags)
	}
	return c.canAssign(dst, src, tvMap, flags)
}

func (c *Checker) canAssign(dst, src types.Type, tvMap *typevars.Map, flags Flags) bool {
	// 1. Identity / Unbound.
	if src == types.Unbound || dst.Equals(src) {
		return true
	}

	// 2. dst is TypeVar: delegate to the solver.
	if dtv, ok := dst.(*types.TypeVarType); ok {
		return c.assignTypeVar(dtv, src, tvMap, flags)
	}

	// 3. Any/Unknown absorb both ways.
	if isAnyOrUnknown(dst) || isAnyOrUnknown(src) {
		return true
	}

	// 4. src is TypeVar.
	if stv, ok := src.(*types.TypeVarType); ok {
		if flags.has(FlagReverseTypeVarMatching) {
			return c.assignTypeVar(stv, dst, tvMap, flags&^FlagReverseTypeVarMatching)
		}
		concrete := stv.Bound
		if concrete == nil {
			concrete = types.Unknown
		}
		return c.canAssign(dst, concrete, tvMap, flags)
	}

	// 6. src is Union: every member must fit.
	if su, ok := src.(*types.UnionType); ok {
		du, dstIsUnion := dst.(*types.UnionType)
		if dstIsUnion && flags.has(FlagInvariant) {
			return dst.Equals(src)
		}
		_ = du
		for _, m := range su.Subtypes {
			if !c.canAssign(dst, m, tvMap, flags) {
				c.report(dst, src)
				return false
			}
		}
		return true
	}

	// 7. dst is Union: at least one subtype matches.
	if du, ok := dst.(*types.UnionType); ok {
		for _, m := range du.Subtypes {
			if c.canAssignQuiet(m, src, tvMap, flags) {
				return true
			}
		}
		c.report(dst, src)
		return false
	}

	// 8. Literal match when dst carries one.
	if do, ok := dst.(*types.ObjectType); ok && do.Literal != nil {
		so, ok := src.(*types.ObjectType)
		if !ok || so.Literal == nil || !do.Literal.Equals(*so.Literal) {
			c.report(dst, src)
			return false
		}
		return do.Class.Equals(so.Class) || c.canAssignQuiet(do.Class, so.Class, tvMap, flags)
	}

	// 9. class-to-class (both Object, or Class-to-Class for `type[X]`).
	if ok := c.classToClass(dst, src, tvMap, flags); ok != nil {
		return *ok
	}

	// 10. dst is Function: adapt src into a callable shape first.
	if dfn, ok := dst.(*types.FunctionType); ok {
		return c.assignFunction(dfn, src, tvMap, flags)
	}
	if do, ok := dst.(*types.OverloadedFunctionType); ok {
		for _, overload := range do.Overloads {
			if c.assignFunction(overload, src, tvMap, flags) {
				return true
			}
		}
		c.report(dst, src)
		return false
	}

	// 11. dst is the built-in `object`.
	if isBuiltinObject(dst) {
		return true
	}

	c.report(dst, src)
	return false
}

// canAssignQuiet runs CanAssign without emitting a diagnostic on
// failure, for the branch-probing steps of rules 7 and 10 where only
// the outer call should report.
func (c *Checker) canAssignQuiet(dst, src types.Type, tvMap *typevars.Map, flags Flags) bool {
	saved := c.Sink
	c.Sink = nil
	defer func() { c.Sink = saved }()
	return c.canAssign(dst, src, tvMap, flags)
}

func isAnyOrUnknown(t types.Type) bool {
	if t == types.Unknown {
		return true
	}
	_, ok := t.(*types.AnyType)
	return ok
}

func isBuiltinObject(t types.Type) bool {
	switch v := t.(type) {
	case *types.ObjectType:
		return v.Class.Details.Name == "object"
	case *types.ClassType:
		return v.Details.Name == "object"
	}
	return false
}

func (c *Checker) report(dst, src types.Type) {
	if c.Sink == nil {
		return
	}
	c.Sink.AddError(diagnostics.TC001, nil,
		fmt.Sprintf("%q is not assignable to %q", src.String(), dst.String()), nil)
}

// assignTypeVar is rule 2 (and the reverse-matching half of rule 4):
// delegate dst/src resolution to the solver. With tvMap == nil this
// degrades to a compatibility check against the TypeVar's existing
// constraints, using Widen semantics against a throwaway map.
func (c *Checker) assignTypeVar(tv *types.TypeVarType, src types.Type, tvMap *typevars.Map, flags Flags) bool {
	m := tvMap
	if m == nil {
		m = typevars.NewMap()
	}
	checker := func(d, s types.Type) bool { return c.canAssignQuiet(d, s, nil, flags) }
	mode := typevars.Widen
	if tv.IsContravariant {
		mode = typevars.Narrow
	}
	ok := m.Assign(tv, src, mode, checker)
	if !ok {
		c.report(tv, src)
	}
	return ok
}
