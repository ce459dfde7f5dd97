// Package types implements the tagged-union Type model: the algebraic
// representation every other package in the evaluator operates over,
// plus the Symbol/Declaration records shared by class and module
// detail records.
package types

import (
	"fmt"
	"strings"
)

// Type is satisfied by every concrete type variant. Polymorphic
// operations (print, equality, specialization) dispatch on the
// concrete Go type rather than a numeric tag, one struct per variant
// in place of a TVar/TCon/TFunc split.
type Type interface {
	String() string
	Equals(Type) bool
	// Substitute replaces every TypeVar named in subs with its mapped
	// type, recursing through containers. Implementations that hold no
	// TypeVar-shaped children return themselves unchanged.
	Substitute(subs map[string]Type) Type
}

// ---- Unbound / Unknown / Any / None / Never ----
//
// These five carry no payload besides Any's ellipsis flag, so they're
// represented as pointer singletons rather than re-allocated per site;
// Equals compares by concrete type, not pointer identity, so a second
// construction (e.g. after JSON round-trip in a fixture) still compares
// equal.

type unboundType struct{}

func (unboundType) String() string              { return "Unbound" }
func (unboundType) Equals(o Type) bool           { _, ok := o.(unboundType); return ok }
func (t unboundType) Substitute(map[string]Type) Type { return t }

// Unbound is the single instance of the Unbound variant: a name
// declared but not yet assigned on some path.
var Unbound Type = unboundType{}

type unknownType struct{}

func (unknownType) String() string              { return "Unknown" }
func (unknownType) Equals(o Type) bool           { _, ok := o.(unknownType); return ok }
func (t unknownType) Substitute(map[string]Type) Type { return t }

// Unknown is the dynamically-typed value whose type could not be
// inferred. It behaves like Any in assignability but is diagnostically
// distinct so warnings can single it out.
var Unknown Type = unknownType{}

// AnyType is the dynamic top/bottom type. IsEllipsis renders as "..."
// (used for Callable[..., R] and bare-ellipsis annotations).
type AnyType struct {
	IsEllipsis bool
}

func (a *AnyType) String() string {
	if a.IsEllipsis {
		return "..."
	}
	return "Any"
}
func (a *AnyType) Equals(o Type) bool {
	other, ok := o.(*AnyType)
	return ok && other.IsEllipsis == a.IsEllipsis
}
func (a *AnyType) Substitute(map[string]Type) Type { return a }

// AnySimple is the canonical non-ellipsis Any singleton value.
var AnySimple Type = &AnyType{}

type noneType struct{}

func (noneType) String() string              { return "None" }
func (noneType) Equals(o Type) bool           { _, ok := o.(noneType); return ok }
func (t noneType) Substitute(map[string]Type) Type { return t }

// None is the unit type.
var None Type = noneType{}

type neverType struct{}

func (neverType) String() string              { return "Never" }
func (neverType) Equals(o Type) bool           { _, ok := o.(neverType); return ok }
func (t neverType) Substitute(map[string]Type) Type { return t }

// Never is the bottom type: the empty Union collapses to this.
var Never Type = neverType{}

// ---- Union ----

// UnionType is always flattened and never a singleton; construct it
// via NewUnion rather than the struct literal to preserve that shape.
type UnionType struct {
	Subtypes []Type
}

func (u *UnionType) String() string {
	parts := make([]string, len(u.Subtypes))
	for i, t := range u.Subtypes {
		parts[i] = t.String()
	}
	return strings.Join(parts, " | ")
}

func (u *UnionType) Equals(o Type) bool {
	other, ok := o.(*UnionType)
	if !ok || len(other.Subtypes) != len(u.Subtypes) {
		return false
	}
	used := make([]bool, len(other.Subtypes))
	for _, t := range u.Subtypes {
		found := false
		for i, ot := range other.Subtypes {
			if !used[i] && t.Equals(ot) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (u *UnionType) Substitute(subs map[string]Type) Type {
	out := make([]Type, len(u.Subtypes))
	for i, t := range u.Subtypes {
		out[i] = t.Substitute(subs)
	}
	return NewUnion(out)
}

// NewUnion flattens nested unions, deduplicates equal members (an
// Object carrying a literal stays distinct from the same class's
// unliteral Object and from other literals of that class), collapses a
// singleton result to its element, and collapses the empty union to
// Never.
func NewUnion(members []Type) Type {
	var flat []Type
	var walk func(Type)
	walk = func(t Type) {
		if u, ok := t.(*UnionType); ok {
			for _, m := range u.Subtypes {
				walk(m)
			}
			return
		}
		flat = append(flat, t)
	}
	for _, m := range members {
		walk(m)
	}

	var deduped []Type
	for _, t := range flat {
		dup := false
		for _, existing := range deduped {
			if unionMembersEquivalent(existing, t) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, t)
		}
	}

	switch len(deduped) {
	case 0:
		return Never
	case 1:
		return deduped[0]
	default:
		return &UnionType{Subtypes: deduped}
	}
}

// unionMembersEquivalent treats two unliteral Object types over the
// same class as the same union member; when either side carries a
// literal, the two are the same member only if they are Equal.
func unionMembersEquivalent(a, b Type) bool {
	ao, aIsObj := a.(*ObjectType)
	bo, bIsObj := b.(*ObjectType)
	if aIsObj && bIsObj {
		if ao.Literal != nil || bo.Literal != nil {
			return a.Equals(b)
		}
		return ao.Class.Equals(bo.Class)
	}
	return a.Equals(b)
}

// ---- Class / Object ----

// ClassFlags are boolean facts about a class derived from its
// definition, decorators, and base classes.
type ClassFlags uint32

const (
	ClassFlagBuiltin ClassFlags = 1 << iota
	ClassFlagProtocol
	ClassFlagDataClass
	ClassFlagTypedDict
	ClassFlagNamedTuple
	ClassFlagEnumClass
	ClassFlagFinal
	ClassFlagAbstract
	ClassFlagPropertyClass
	ClassFlagPseudoGeneric
)

func (f ClassFlags) Has(bit ClassFlags) bool { return f&bit != 0 }

// ClassDetails is the shared record behind every specialization of a
// class: two ClassType values over the same details differ only in
// TypeArgs — detail records are shared by reference, never copied.
type ClassDetails struct {
	Name          string
	Flags         ClassFlags
	Bases         []*ClassType
	MRO           []*ClassDetails // nil until computed at class creation
	MROError      string          // non-empty iff C3 linearization failed
	Fields        *SymbolTable
	TypeParams    []*TypeVarType
	Metaclass     *ClassType
	DataClassInfo *DataClassInfo // non-nil iff ClassFlagDataClass is set
	TypedDictInfo *TypedDictInfo // non-nil iff ClassFlagTypedDict is set
	Declaration   *Declaration
	Doc           string
}

// TypedDictInfo records which keys a TypedDict class requires, the
// synthesis inputs internal/assignability's structural match consults.
type TypedDictInfo struct {
	Required map[string]bool
}

// DataClassInfo holds the synthesis inputs collected by the dataclass
// pipeline, merged reverse-MRO-first across base classes.
type DataClassInfo struct {
	Fields []*DataClassField
}

// DataClassField is one collected dataclass field entry.
type DataClassField struct {
	Name          string
	Type          Type
	HasDefault    bool
	IncludeInInit bool
	IsClassVar    bool
}

// ClassType is the class object itself, distinct from its instance
// type.
type ClassType struct {
	Details  *ClassDetails
	TypeArgs []Type // unset (nil) means unspecialized
	Literal  *LiteralValue
}

func (c *ClassType) String() string {
	if len(c.TypeArgs) == 0 {
		return fmt.Sprintf("type[%s]", c.Details.Name)
	}
	parts := make([]string, len(c.TypeArgs))
	for i, a := range c.TypeArgs {
		parts[i] = a.String()
	}
	return fmt.Sprintf("type[%s[%s]]", c.Details.Name, strings.Join(parts, ", "))
}

func (c *ClassType) Equals(o Type) bool {
	other, ok := o.(*ClassType)
	if !ok || other.Details != c.Details || len(other.TypeArgs) != len(c.TypeArgs) {
		return false
	}
	for i := range c.TypeArgs {
		if !c.TypeArgs[i].Equals(other.TypeArgs[i]) {
			return false
		}
	}
	return true
}

func (c *ClassType) Substitute(subs map[string]Type) Type {
	args := make([]Type, len(c.TypeArgs))
	for i, a := range c.TypeArgs {
		args[i] = a.Substitute(subs)
	}
	return &ClassType{Details: c.Details, TypeArgs: args, Literal: c.Literal}
}

// ObjectType is an instance of a class. Literal narrows the instance
// to a single compile-time-known value; only a restricted set of
// classes may carry one.
type ObjectType struct {
	Class   *ClassType
	Literal *LiteralValue
}

func (o *ObjectType) String() string {
	if o.Literal != nil {
		return fmt.Sprintf("Literal[%s]", o.Literal.String())
	}
	if len(o.Class.TypeArgs) == 0 {
		return o.Class.Details.Name
	}
	parts := make([]string, len(o.Class.TypeArgs))
	for i, a := range o.Class.TypeArgs {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", o.Class.Details.Name, strings.Join(parts, ", "))
}

func (o *ObjectType) Equals(t Type) bool {
	other, ok := t.(*ObjectType)
	if !ok || !o.Class.Equals(other.Class) {
		return false
	}
	if o.Literal == nil && other.Literal == nil {
		return true
	}
	if o.Literal == nil || other.Literal == nil {
		return false
	}
	return o.Literal.Equals(*other.Literal)
}

func (o *ObjectType) Substitute(subs map[string]Type) Type {
	class := o.Class.Substitute(subs).(*ClassType)
	return &ObjectType{Class: class, Literal: o.Literal}
}

// NewInstance builds the instance of a class: Object over the same
// details and type arguments as the Class value it was created from.
func NewInstance(class *ClassType) *ObjectType {
	return &ObjectType{Class: class}
}

// ---- Function / OverloadedFunction ----

// FunctionFlags are boolean facts derived from decorators and AST shape.
type FunctionFlags uint32

const (
	FuncFlagAbstract FunctionFlags = 1 << iota
	FuncFlagStatic
	FuncFlagClassMethod
	FuncFlagFinal
	FuncFlagOverload
	FuncFlagProperty
	FuncFlagAsync
	FuncFlagGenerator
	FuncFlagConstructor // __init__/__new__, used by skip-constructor-check synthesis
	FuncFlagSkipConstructorCheck
)

func (f FunctionFlags) Has(bit FunctionFlags) bool { return f&bit != 0 }

// ParamCategory mirrors ast.ParamCategory but at the type level, since
// a Parameter here describes a resolved signature slot, not syntax.
type ParamCategory int

const (
	ParamCategorySimple ParamCategory = iota
	ParamCategoryVarArg
	ParamCategoryKwArg
)

// Parameter is one resolved parameter slot of a FunctionDetails.
type Parameter struct {
	Name           string
	Type           Type
	Category       ParamCategory
	HasDefault     bool
	KeywordOnly    bool
	PositionalOnly bool
}

// FunctionDetails is the shared record behind a function type.
type FunctionDetails struct {
	Name          string
	Flags         FunctionFlags
	Parameters    []*Parameter
	DeclaredReturn Type // nil if unannotated
	Declaration   *Declaration
	BuiltinName   string
	ParamSpec     *TypeVarType // non-nil iff the signature ends in **P.args/P.kwargs
	FGetter       *FunctionDetails // property getter, when Flags has FuncFlagProperty
	FSetter       *FunctionDetails
	FDeleter      *FunctionDetails
}

// FunctionType is one callable signature. InferredReturn is filled at
// most once by return-type inference's depth-bounded stack;
// IgnoreFirstParam is set on a bound-method view so assignability and
// printing skip `self`/`cls`.
type FunctionType struct {
	Details          *FunctionDetails
	InferredReturn   Type
	IgnoreFirstParam bool
}

func (f *FunctionType) effectiveReturn() Type {
	return f.EffectiveReturn()
}

// EffectiveReturn is the declared return type if one was annotated,
// else the inferred return type if return-type inference has run, else
// Unknown.
func (f *FunctionType) EffectiveReturn() Type {
	if f.Details.DeclaredReturn != nil {
		return f.Details.DeclaredReturn
	}
	if f.InferredReturn != nil {
		return f.InferredReturn
	}
	return Unknown
}

func (f *FunctionType) String() string {
	params := f.Details.Parameters
	if f.IgnoreFirstParam && len(params) > 0 {
		params = params[1:]
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, p.Type.String())
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.effectiveReturn().String())
}

func (f *FunctionType) Equals(o Type) bool {
	other, ok := o.(*FunctionType)
	return ok && other.Details == f.Details && other.IgnoreFirstParam == f.IgnoreFirstParam
}

func (f *FunctionType) Substitute(subs map[string]Type) Type {
	params := make([]*Parameter, len(f.Details.Parameters))
	for i, p := range f.Details.Parameters {
		params[i] = &Parameter{
			Name: p.Name, Type: p.Type.Substitute(subs), Category: p.Category,
			HasDefault: p.HasDefault, KeywordOnly: p.KeywordOnly, PositionalOnly: p.PositionalOnly,
		}
	}
	var ret Type
	if f.Details.DeclaredReturn != nil {
		ret = f.Details.DeclaredReturn.Substitute(subs)
	}
	details := &FunctionDetails{
		Name: f.Details.Name, Flags: f.Details.Flags, Parameters: params,
		DeclaredReturn: ret, Declaration: f.Details.Declaration,
		BuiltinName: f.Details.BuiltinName, ParamSpec: f.Details.ParamSpec,
	}
	return &FunctionType{Details: details, InferredReturn: f.InferredReturn, IgnoreFirstParam: f.IgnoreFirstParam}
}

// OverloadedFunctionType is an ordered list of overload candidates.
// Only members decorated @overload belong here; the final
// implementation definition is tracked separately by the caller.
type OverloadedFunctionType struct {
	Overloads []*FunctionType
}

func (o *OverloadedFunctionType) String() string {
	parts := make([]string, len(o.Overloads))
	for i, f := range o.Overloads {
		parts[i] = f.String()
	}
	return "Overload[" + strings.Join(parts, "; ") + "]"
}

func (o *OverloadedFunctionType) Equals(t Type) bool {
	other, ok := t.(*OverloadedFunctionType)
	if !ok || len(other.Overloads) != len(o.Overloads) {
		return false
	}
	for i := range o.Overloads {
		if !o.Overloads[i].Equals(other.Overloads[i]) {
			return false
		}
	}
	return true
}

func (o *OverloadedFunctionType) Substitute(subs map[string]Type) Type {
	out := make([]*FunctionType, len(o.Overloads))
	for i, f := range o.Overloads {
		out[i] = f.Substitute(subs).(*FunctionType)
	}
	return &OverloadedFunctionType{Overloads: out}
}

// ---- Module ----

// ModuleType is the type of an imported module object.
type ModuleType struct {
	Fields       *SymbolTable
	LoaderFields *SymbolTable
	Doc          string
}

func (m *ModuleType) String() string { return "module" }
func (m *ModuleType) Equals(o Type) bool {
	other, ok := o.(*ModuleType)
	return ok && other.Fields == m.Fields
}
func (m *ModuleType) Substitute(map[string]Type) Type { return m }

// ---- TypeVar ----

// TypeVarType is a named placeholder, identified by Name+Scope rather
// than structurally: two distinct TypeVarType values with the same
// name in different scopes are different variables.
type TypeVarType struct {
	Name             string
	Scope            string
	Constraints      []Type // non-empty means "constrained"; mutually exclusive with Bound
	Bound            Type   // nil unless bounded
	IsCovariant      bool
	IsContravariant  bool
	IsSynthesized    bool // e.g. synthesized `self`/`cls` or pseudo-generic param
	IsParamSpec      bool
}

func (t *TypeVarType) String() string { return t.Name }

func (t *TypeVarType) Equals(o Type) bool {
	other, ok := o.(*TypeVarType)
	return ok && other.Name == t.Name && other.Scope == t.Scope
}

func (t *TypeVarType) Substitute(subs map[string]Type) Type {
	if sub, ok := subs[t.Key()]; ok {
		return sub
	}
	return t
}

// Key is the map key identity used throughout substitution and the
// TypeVarMap: name scoped by declaring context.
func (t *TypeVarType) Key() string { return t.Scope + "::" + t.Name }
