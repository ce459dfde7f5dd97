package evaluator

import "github.com/typeeval/core/internal/types"

// fallbackBuiltins is the bare-bones class registry used when no
// BuiltinClass callback is wired: one ClassDetails per primitive name,
// with no fields beyond its own MRO. Real field tables (`__add__`,
// `__len__`, and so on) come from a driver's builtins.pyi-backed
// registry; without one, operator/member lookups against these
// fallbacks simply miss and the evaluator degrades to Unknown, which
// is still sound (never silently wrong), just less precise.
var fallbackBuiltins = map[string]*types.ClassDetails{}

func fallbackBuiltinClass(name string) *types.ClassDetails {
	if d, ok := fallbackBuiltins[name]; ok {
		return d
	}
	d := &types.ClassDetails{Name: name, Flags: types.ClassFlagBuiltin, Fields: types.NewSymbolTable()}
	d.MRO = []*types.ClassDetails{d}
	fallbackBuiltins[name] = d
	return d
}

// classDetailsFor resolves one builtin class by name, preferring the
// injected registry over the bare fallback.
func (e *Evaluator) classDetailsFor(name string) *types.ClassDetails {
	if e.BuiltinClass != nil {
		if d := e.BuiltinClass(name); d != nil {
			return d
		}
	}
	return fallbackBuiltinClass(name)
}

func (e *Evaluator) builtinInstance(name string) *types.ObjectType {
	return types.NewInstance(&types.ClassType{Details: e.classDetailsFor(name)})
}

func (e *Evaluator) builtinLiteralInstance(name string, lit types.LiteralValue) *types.ObjectType {
	return &types.ObjectType{Class: &types.ClassType{Details: e.classDetailsFor(name)}, Literal: &lit}
}

func (e *Evaluator) boolType() types.Type          { return e.builtinInstance("bool") }
func (e *Evaluator) noneType() types.Type          { return types.None }
func (e *Evaluator) ellipsisAsAny() types.Type     { return &types.AnyType{IsEllipsis: true} }
