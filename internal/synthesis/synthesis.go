// Package synthesis builds the compiler-generated members a class gets
// from being a dataclass, TypedDict, NamedTuple, or Enum: constructors,
// comparison methods, and the synthetic fields those protocols imply.
// Each synthesizer reads ClassDetails/SymbolTable state already
// assembled by internal/classbuilder and only adds SymbolFlagSynthesized
// members; it never mutates a class's explicitly declared symbols.
package synthesis

import (
	"fmt"

	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/types"
)

// Dataclass collects fields across the reverse-MRO (base classes
// first, most-derived last so a subclass's re-declaration wins) and
// synthesizes __init__ with one parameter per non-ClassVar field in
// declaration order, each carrying its default when the field has one.
// A field without a default following one that has a default is a
// SYN001 error, matching the language's own constructor-field rule.
func Dataclass(sink *diagnostics.Sink, details *types.ClassDetails) *types.FunctionType {
	fields := collectDataclassFields(details)
	details.DataClassInfo = &types.DataClassInfo{Fields: fields}

	seenDefault := false
	params := make([]*types.Parameter, 0, len(fields))
	for _, f := range fields {
		if f.IsClassVar || !f.IncludeInInit {
			continue
		}
		if f.HasDefault {
			seenDefault = true
		} else if seenDefault {
			if sink != nil {
				sink.AddError(diagnostics.SYN001, nil,
					fmt.Sprintf("field %q without a default follows a field with one in %q", f.Name, details.Name),
					map[string]any{"class": details.Name, "field": f.Name})
			}
		}
		params = append(params, &types.Parameter{
			Name: f.Name, Type: f.Type, Category: types.ParamCategorySimple, HasDefault: f.HasDefault,
		})
	}

	init := &types.FunctionDetails{Name: "__init__", Parameters: selfParam(details, params)}
	return &types.FunctionType{Details: init}
}

// collectDataclassFields walks details.MRO from the tail (most distant
// ancestor) toward details itself, accumulating fields keyed by name so
// a re-declaration in a more derived class keeps its position from the
// ancestor but takes the derived class's type and default.
func collectDataclassFields(details *types.ClassDetails) []*types.DataClassField {
	order := []*types.ClassDetails{details}
	if len(details.MRO) > 1 {
		order = details.MRO
	}

	var names []string
	byName := map[string]*types.DataClassField{}
	for i := len(order) - 1; i >= 0; i-- {
		ancestor := order[i]
		if ancestor.DataClassInfo == nil && ancestor != details {
			continue
		}
		for _, name := range ancestor.Fields.Names() {
			sym, _ := ancestor.Fields.Get(name)
			if sym.Flags.Has(types.SymbolFlagSynthesized) {
				continue
			}
			if _, seen := byName[name]; !seen {
				names = append(names, name)
			}
			fieldType := types.Unknown
			if sym.SynthesizedType != nil {
				fieldType = sym.SynthesizedType
			}
			byName[name] = &types.DataClassField{
				Name:          name,
				Type:          fieldType,
				HasDefault:    len(sym.Declarations) > 0 && sym.Declarations[len(sym.Declarations)-1].InferredTypeSource != nil,
				IncludeInInit: !sym.Flags.Has(types.SymbolFlagClassVar),
				IsClassVar:    sym.Flags.Has(types.SymbolFlagClassVar),
			}
		}
	}

	out := make([]*types.DataClassField, len(names))
	for i, name := range names {
		out[i] = byName[name]
	}
	return out
}

func selfParam(details *types.ClassDetails, rest []*types.Parameter) []*types.Parameter {
	self := &types.Parameter{Name: "self", Type: types.NewInstance(&types.ClassType{Details: details}), Category: types.ParamCategorySimple}
	return append([]*types.Parameter{self}, rest...)
}

// TypedDictMembers returns the symbol table a TypedDict class exposes
// to structural matching, flagging duplicate keys inherited from more
// than one base with conflicting types as SYN002. TypedDict field
// values are checked invariantly by the assignability engine, not
// here; this only assembles the member set.
func TypedDictMembers(sink *diagnostics.Sink, details *types.ClassDetails) *types.SymbolTable {
	merged := types.NewSymbolTable()
	required := map[string]bool{}
	seenFrom := map[string]string{}
	for _, base := range details.Bases {
		for _, name := range base.Details.Fields.Names() {
			sym, _ := base.Details.Fields.Get(name)
			if existing, ok := merged.Get(name); ok {
				if !sameType(existing.SynthesizedType, sym.SynthesizedType) {
					if sink != nil {
						sink.AddError(diagnostics.SYN002, nil,
							fmt.Sprintf("TypedDict key %q inherited from %q and %q with conflicting types", name, seenFrom[name], base.Details.Name),
							map[string]any{"class": details.Name, "key": name})
					}
				}
				continue
			}
			merged.Set(name, sym)
			required[name] = !sym.Flags.Has(types.SymbolFlagTypedDictNotRequired)
			seenFrom[name] = base.Details.Name
		}
	}
	for _, name := range details.Fields.Names() {
		sym, _ := details.Fields.Get(name)
		merged.Set(name, sym)
		required[name] = !sym.Flags.Has(types.SymbolFlagTypedDictNotRequired)
	}
	details.TypedDictInfo = &types.TypedDictInfo{Required: required}
	return merged
}

func sameType(a, b types.Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equals(b)
}

// NamedTuple synthesizes the positional __new__/__init__ signature and
// the index-based field access a NamedTuple class provides, in field
// declaration order (no reverse-MRO merge: NamedTuple forbids multiple
// inheritance beyond the synthesized base).
func NamedTuple(details *types.ClassDetails) *types.FunctionType {
	var params []*types.Parameter
	for _, name := range details.Fields.Names() {
		sym, _ := details.Fields.Get(name)
		if sym.Flags.Has(types.SymbolFlagSynthesized) {
			continue
		}
		fieldType := types.Unknown
		if sym.SynthesizedType != nil {
			fieldType = sym.SynthesizedType
		}
		params = append(params, &types.Parameter{Name: name, Type: fieldType, Category: types.ParamCategorySimple})
	}
	return &types.FunctionType{Details: &types.FunctionDetails{Name: "__new__", Parameters: selfParam(details, params)}}
}

// EnumMembers produces one Symbol per enum member, each carrying a
// Literal narrowing its declared type to EnumLiteral(class, member) so
// exhaustiveness narrowing over `match` can distinguish members.
func EnumMembers(details *types.ClassDetails, memberNames []string) map[string]*types.Symbol {
	out := make(map[string]*types.Symbol, len(memberNames))
	classType := &types.ClassType{Details: details}
	for _, name := range memberNames {
		literal := types.EnumLiteral(details.Name, name)
		out[name] = &types.Symbol{
			Name:            name,
			Flags:           types.SymbolFlagSynthesized | types.SymbolFlagClassVar | types.SymbolFlagFinal,
			SynthesizedType: &types.ObjectType{Class: classType, Literal: &literal},
		}
	}
	return out
}
