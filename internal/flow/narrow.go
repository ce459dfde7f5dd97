package flow

import "github.com/typeeval/core/internal/types"

// mapUnion applies keep to every member of t (treating a non-Union as
// a one-element union), rebuilding the result via NewUnion so it
// collapses/empties the same way ordinary union construction does.
func mapUnion(t types.Type, keep func(types.Type) bool) types.Type {
	members := unionMembers(t)
	var out []types.Type
	for _, m := range members {
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

// NarrowIsNone builds the `X is None` / `X is not None` / `X == None` /
// `X != None` callback: partition the type by None.
func NarrowIsNone(positive bool) NarrowFunc {
	return func(t types.Type) types.Type {
		return mapUnion(t, func(m types.Type) bool {
			isNone := m.Equals(types.None)
			return isNone == positive
		})
	}
}

// NarrowTypeIs builds the `type(X) is C` / `type(X) is not C` callback:
// filter object subtypes by exact generic-class identity (not
// subclassing — a subclass instance has a different runtime `type()`).
func NarrowTypeIs(class *types.ClassType, positive bool) NarrowFunc {
	return func(t types.Type) types.Type {
		return mapUnion(t, func(m types.Type) bool {
			obj, ok := m.(*types.ObjectType)
			isExact := ok && obj.Class.Details == class.Details
			return isExact == positive
		})
	}
}

// NarrowLiteralEq builds the `X == <literal>` / `X != <literal>`
// callback. In the negative case, non-enumerable types (plain int/str,
// where the full inhabitant set can't be listed) are left unrefined;
// only enumerable types (bool, enums, literal unions) narrow on !=.
func NarrowLiteralEq(lit types.LiteralValue, positive bool, enumerable bool) NarrowFunc {
	return func(t types.Type) types.Type {
		if !positive && !enumerable {
			return t
		}
		return mapUnion(t, func(m types.Type) bool {
			obj, ok := m.(*types.ObjectType)
			matches := ok && obj.Literal != nil && obj.Literal.Equals(lit)
			return matches == positive
		})
	}
}

// classMatches reports whether v's class is class or a descendant of
// it, consulting v's class MRO; returns (result, indeterminate).
// The MRO is taken as complete, so indeterminate is always false and a
// class not found in it counts as a non-match.
func classMatches(v *types.ObjectType, class *types.ClassType) (matches bool, indeterminate bool) {
	order := v.Class.Details.MRO
	if len(order) == 0 {
		order = []*types.ClassDetails{v.Class.Details}
	}
	for _, anc := range order {
		if anc == class.Details {
			return true, false
		}
	}
	return false, false
}

// NarrowIsInstance builds the `isinstance(X, C)` / `isinstance(X,
// (C1, C2))` callback (and, identically shaped, `issubclass`): retain
// subclasses in the positive case, retain non-subclasses in the
// negative case, leaving indeterminate members unrefined.
func NarrowIsInstance(classes []*types.ClassType, positive bool) NarrowFunc {
	return func(t types.Type) types.Type {
		return mapUnion(t, func(m types.Type) bool {
			obj, ok := m.(*types.ObjectType)
			if !ok {
				return !positive
			}
			anyMatch, anyIndeterminate := false, false
			for _, c := range classes {
				matches, indeterminate := classMatches(obj, c)
				if indeterminate {
					anyIndeterminate = true
				}
				if matches {
					anyMatch = true
				}
			}
			if anyIndeterminate {
				return true // leave unrefined: keep the member either way
			}
			return anyMatch == positive
		})
	}
}

// NarrowCallable builds the `callable(X)` callback: positive retains
// functions, classes, and objects with `__call__`; negative retains
// modules and objects lacking one. hasCall is supplied by the caller
// (internal/evaluator, which owns member lookup) rather than looked up
// here, keeping this package free of a classbuilder dependency.
func NarrowCallable(positive bool, hasCall func(*types.ObjectType) bool) NarrowFunc {
	return func(t types.Type) types.Type {
		return mapUnion(t, func(m types.Type) bool {
			switch v := m.(type) {
			case *types.FunctionType, *types.OverloadedFunctionType, *types.ClassType:
				return positive
			case *types.ObjectType:
				callable := hasCall != nil && hasCall(v)
				return callable == positive
			case *types.ModuleType:
				return !positive
			default:
				return !positive
			}
		})
	}
}

// NarrowTruthy builds a bare truthy-test callback (`if X:` / `if not
// X:`), using caller-supplied canBeTruthy/canBeFalsy predicates since
// only the evaluator knows how to call `__bool__`/`__len__` on an
// arbitrary class.
func NarrowTruthy(positive bool, canBeTruthy, canBeFalsy func(types.Type) bool) NarrowFunc {
	return func(t types.Type) types.Type {
		return mapUnion(t, func(m types.Type) bool {
			if positive {
				return canBeTruthy == nil || canBeTruthy(m)
			}
			return canBeFalsy == nil || canBeFalsy(m)
		})
	}
}
