package evaluator

import (
	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/synthesis"
	"github.com/typeeval/core/internal/types"
)

// baseClassFlags maps a base class name recognized structurally
// (rather than through a decorator) to the ClassFlags bit it implies.
// classbuilder.DecoratorFlags covers the decorator-driven flags
// (@dataclass, @final, @runtime_checkable); these four are instead
// signaled by inheriting a special-form base class.
var baseClassFlags = map[string]types.ClassFlags{
	"Protocol":   types.ClassFlagProtocol,
	"TypedDict":  types.ClassFlagTypedDict,
	"NamedTuple": types.ClassFlagNamedTuple,
	"Enum":       types.ClassFlagEnumClass,
	"IntEnum":    types.ClassFlagEnumClass,
	"StrEnum":    types.ClassFlagEnumClass,
	"Flag":       types.ClassFlagEnumClass,
}

// GetTypeOfClass implements the `get_type_of_class` entry point
// (§4.2/§6): resolve base classes, apply decorator- and special-base-
// driven flags, linearize the MRO, and synthesize the compiler-
// generated members a dataclass/TypedDict/NamedTuple gets. Cached by
// node identity like every other expression, since a class body can
// reference its own name recursively (a method's own forward-declared
// return annotation, a classmethod constructor pattern).
func (e *Evaluator) GetTypeOfClass(cd *ast.ClassDecl) types.Type {
	if cached, ok := e.Cache.Get(cd.ID()); ok {
		return cached
	}

	details := &types.ClassDetails{Name: cd.Name, Fields: types.NewSymbolTable()}
	if scope := e.scopeFor(cd); scope != nil && scope.Symbols != nil {
		details.Fields = scope.Symbols
	}
	ct := &types.ClassType{Details: details}
	// Cache the bare shell before resolving bases/decorators so a
	// self-reference inside the class body sees a stable identity
	// instead of recursing back into GetTypeOfClass.
	e.Cache.Set(cd.ID(), ct)

	for _, baseExpr := range cd.Bases {
		baseClass, ok := e.evaluateTypeExpr(baseExpr).(*types.ClassType)
		if !ok {
			continue
		}
		details.Bases = append(details.Bases, baseClass)
		if flag, ok := baseClassFlags[baseClass.Details.Name]; ok {
			details.Flags |= flag
		}
	}

	decoratorNames := make([]string, 0, len(cd.Decorators))
	for _, d := range cd.Decorators {
		if name := calleeName(d); name != "" {
			decoratorNames = append(decoratorNames, name)
		}
	}
	e.ClassBuilder.ApplyDecorators(details, decoratorNames)
	e.ClassBuilder.BuildMRO(details)

	e.synthesizeClassMembers(details)
	if e.classHasAbstractMember(details) {
		details.Flags |= types.ClassFlagAbstract
	}
	return ct
}

func (e *Evaluator) synthesizeClassMembers(details *types.ClassDetails) {
	if details.Flags.Has(types.ClassFlagDataClass) {
		if _, exists := details.Fields.Get("__init__"); !exists {
			fn := synthesis.Dataclass(e.Sink, details)
			details.Fields.Set("__init__", &types.Symbol{Name: "__init__", Flags: types.SymbolFlagSynthesized, SynthesizedType: fn})
		}
	}
	if details.Flags.Has(types.ClassFlagTypedDict) {
		details.Fields = synthesis.TypedDictMembers(e.Sink, details)
	}
	if details.Flags.Has(types.ClassFlagNamedTuple) {
		if _, exists := details.Fields.Get("__new__"); !exists {
			fn := synthesis.NamedTuple(details)
			details.Fields.Set("__new__", &types.Symbol{Name: "__new__", Flags: types.SymbolFlagSynthesized, SynthesizedType: fn})
		}
	}
	// Enum classes get no synthesized members here: each member keeps
	// whatever type its assigned value infers to, not a per-member
	// Literal[Class.MEMBER] type.
}

func (e *Evaluator) classHasAbstractMember(details *types.ClassDetails) bool {
	for _, name := range details.Fields.Names() {
		sym, _ := details.Fields.Get(name)
		if fn, ok := e.memberTypeOf(sym).(*types.FunctionType); ok && fn.Details.Flags.Has(types.FuncFlagAbstract) {
			return true
		}
	}
	for _, base := range details.Bases {
		if base.Details.Flags.Has(types.ClassFlagAbstract) {
			return true
		}
	}
	return false
}
