// Package typevars implements the constraint-map solver: a TypeVar ->
// Type mapping with narrow/widen assignment
// rules, bound enforcement, constraint-set matching, and a second slot
// for ParameterSpecification variables. It is deliberately independent
// of internal/assignability — the solver needs a "can src be assigned
// to dst" predicate to decide whether to keep, replace, or widen a
// mapping, but assignability needs the solver to populate a map when
// its destination is a TypeVar. Wiring that predicate in by function
// value (AssignabilityChecker) rather than an import breaks the cycle,
// the same way internal/symbols takes a flow-reachability callback
// instead of depending on internal/flow.
package typevars

import "github.com/typeeval/core/internal/types"

// AssignabilityChecker reports whether src can be assigned to dst,
// without populating any TypeVar map itself (the solver only ever asks
// this about already-concrete types while deciding how to widen or
// narrow its own mapping).
type AssignabilityChecker func(dst, src types.Type) bool

// entry is one mapped TypeVar's current solution.
type entry struct {
	typ        types.Type
	narrowable bool
}

// Map is the constraint map one call-site or class-specialization
// solves into. The zero value is a usable empty, unlocked map.
type Map struct {
	vars      map[string]*entry
	paramSpecs map[string]*types.FunctionDetails // ParameterSpecification -> bound signature
	locked    bool
}

// NewMap creates an empty, unlocked map.
func NewMap() *Map {
	return &Map{vars: map[string]*entry{}, paramSpecs: map[string]*types.FunctionDetails{}}
}

// Clone makes an independent copy, used before a speculative TypeVar
// matching pass so a failed attempt can be discarded without disturbing
// the caller's map.
func (m *Map) Clone() *Map {
	out := NewMap()
	for k, v := range m.vars {
		cp := *v
		out.vars[k] = &cp
	}
	for k, v := range m.paramSpecs {
		out.paramSpecs[k] = v
	}
	out.locked = m.locked
	return out
}

// Lock freezes the map: further Assign calls still validate
// compatibility against the existing mapping but no longer write.
func (m *Map) Lock() { m.locked = true }

// IsLocked reports whether the map has been locked.
func (m *Map) IsLocked() bool { return m.locked }

// Get returns the current solution for a TypeVar, if any.
func (m *Map) Get(tv *types.TypeVarType) (types.Type, bool) {
	e, ok := m.vars[tv.Key()]
	if !ok {
		return nil, false
	}
	return e.typ, true
}

// GetParamSpec returns the bound signature for a ParameterSpecification
// variable, if any.
func (m *Map) GetParamSpec(tv *types.TypeVarType) (*types.FunctionDetails, bool) {
	d, ok := m.paramSpecs[tv.Key()]
	return d, ok
}

// SetParamSpec binds an entire parameter list to a ParameterSpecification
// variable. Function-shape assignability (internal/assignability §4.4.d)
// calls this directly rather than going through Assign, since a
// ParameterSpecification's "value" isn't a Type.
func (m *Map) SetParamSpec(tv *types.TypeVarType, sig *types.FunctionDetails) bool {
	if m.locked {
		_, ok := m.paramSpecs[tv.Key()]
		return ok
	}
	m.paramSpecs[tv.Key()] = sig
	return true
}

// Entries returns every currently-solved TypeVar, keyed the same way
// Type.Substitute expects (Scope+"::"+Name).
func (m *Map) Entries() map[string]types.Type {
	out := make(map[string]types.Type, len(m.vars))
	for k, v := range m.vars {
		out[k] = v.typ
	}
	return out
}

// Mode selects narrowing vs widening assignment semantics, which a
// TypeVar's use-site variance/position (contravariant parameter
// position vs covariant return position) determines.
type Mode int

const (
	// Widen is the default, covariant-position rule: keep the current
	// mapping if it already accepts src, otherwise replace it if src
	// accepts the current mapping, otherwise form a union of both.
	Widen Mode = iota
	// Narrow is the contravariant-position rule: prefer the more
	// specific of the current mapping and src.
	Narrow
)

// Assign implements the assignment rule for dst = TypeVar, current
// mapping m, incoming src. canAssign must not itself try to
// write into m (it's expected to be a plain structural/assignability
// check with typeVarMap=nil, or with writes directed at an unrelated
// map) — passing the same map recursively would re-enter this call.
func (m *Map) Assign(tv *types.TypeVarType, src types.Type, mode Mode, canAssign AssignabilityChecker) bool {
	key := tv.Key()

	if len(tv.Constraints) > 0 {
		var matched types.Type
		for _, c := range tv.Constraints {
			if canAssign(c, src) {
				matched = c
				break
			}
		}
		if matched == nil {
			return false
		}
		if existing, ok := m.vars[key]; ok && !existing.typ.Equals(matched) {
			return false
		}
		return m.write(key, matched, false, tv)
	}

	existing, hasExisting := m.vars[key]
	var result types.Type
	narrowable := mode == Narrow

	switch {
	case !hasExisting:
		result = src
	case mode == Narrow:
		cur := existing.typ
		if existing.narrowable && canAssign(cur, src) {
			if cur == types.Unknown {
				result = src
			} else {
				result = cur
			}
		} else if canAssign(src, cur) {
			if existing.narrowable {
				result = src
			} else {
				result = cur
			}
		} else {
			return false
		}
	default: // Widen
		cur := existing.typ
		if cur != types.Unknown && canAssign(cur, src) {
			result = cur
		} else if canAssign(src, cur) {
			result = src
		} else {
			result = types.NewUnion([]types.Type{cur, src})
		}
	}

	if tv.Bound != nil && !canAssign(tv.Bound, result) {
		return false
	}
	return m.write(key, result, narrowable, tv)
}

func (m *Map) write(key string, typ types.Type, narrowable bool, tv *types.TypeVarType) bool {
	if m.locked {
		existing, ok := m.vars[key]
		return ok && existing.typ.Equals(typ)
	}
	m.vars[key] = &entry{typ: typ, narrowable: narrowable}
	return true
}

// Specialize substitutes every solved TypeVar in t with its mapping,
// leaving unsolved variables as Unknown (an unconstrained generic
// call whose TypeVar never appeared in the arguments defaults to
// Unknown rather than itself, matching the evaluator's "fill unknowns"
// auto-specialization). The defaulting applies wherever an unsolved
// TypeVar still appears after substitution, not only when t itself is
// one, since a constructor's class-level specialization (type[box[T]])
// or a generic function's container-shaped return (list[T]) just as
// often leaves one buried inside a ClassType/ObjectType/UnionType.
func (m *Map) Specialize(t types.Type, defaultUnsolved bool) types.Type {
	subs := m.Entries()
	out := t.Substitute(subs)
	if !defaultUnsolved {
		return out
	}
	return eraseUnresolved(out)
}

// eraseUnresolved walks a substituted type and replaces any TypeVar
// left over (one Entries() held no solution for) with Unknown. Only
// the composite shapes specialization actually produces — unions,
// class instantiations, and their object instances — need to recurse;
// everything else either can't carry a TypeVar (scalars) or isn't
// produced by a Specialize call site yet (e.g. a returned function
// type), so it passes through unchanged.
func eraseUnresolved(t types.Type) types.Type {
	switch v := t.(type) {
	case *types.TypeVarType:
		return types.Unknown
	case *types.UnionType:
		members := make([]types.Type, len(v.Subtypes))
		for i, m := range v.Subtypes {
			members[i] = eraseUnresolved(m)
		}
		return types.NewUnion(members)
	case *types.ClassType:
		if len(v.TypeArgs) == 0 {
			return v
		}
		args := make([]types.Type, len(v.TypeArgs))
		for i, a := range v.TypeArgs {
			args[i] = eraseUnresolved(a)
		}
		return &types.ClassType{Details: v.Details, TypeArgs: args, Literal: v.Literal}
	case *types.ObjectType:
		class, ok := eraseUnresolved(v.Class).(*types.ClassType)
		if !ok {
			return v
		}
		return &types.ObjectType{Class: class, Literal: v.Literal}
	default:
		return t
	}
}
