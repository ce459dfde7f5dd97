package evaluator

import (
	"strings"

	"github.com/typeeval/core/internal/types"
)

// PrintType implements §6's print-flags-aware rendering. Type.String()
// bakes in one fixed spelling per kind (always PEP604 unions, always
// "Unknown"); PrintType recurses instead, substituting the configured
// spelling at every type that carries a print-flag-sensitive choice
// and delegating to String() for the rest (functions, TypeVars,
// modules, literals), which have none.
func (e *Evaluator) PrintType(t types.Type) string {
	if t == nil {
		return "Unknown"
	}
	flags := e.Config.Print

	if t == types.Unknown {
		if flags.PrintUnknownWithAny {
			return "Any"
		}
		return "Unknown"
	}
	if _, ok := t.(*types.AnyType); ok {
		return "Any"
	}
	switch v := t.(type) {
	case *types.UnionType:
		parts := make([]string, len(v.Subtypes))
		for i, m := range v.Subtypes {
			parts[i] = e.PrintType(m)
		}
		if flags.PEP604 {
			return strings.Join(parts, " | ")
		}
		return "Union[" + strings.Join(parts, ", ") + "]"
	case *types.ClassType:
		return e.printClassType(v)
	case *types.ObjectType:
		return e.printObjectType(v)
	default:
		return t.String()
	}
}

func allAny(args []types.Type) bool {
	if len(args) == 0 {
		return false
	}
	for _, a := range args {
		if a != types.Unknown {
			if _, ok := a.(*types.AnyType); !ok {
				return false
			}
		}
	}
	return true
}

func (e *Evaluator) printClassType(ct *types.ClassType) string {
	if len(ct.TypeArgs) == 0 || (e.Config.Print.OmitTypeArgumentsIfAny && allAny(ct.TypeArgs)) {
		return "type[" + ct.Details.Name + "]"
	}
	parts := make([]string, len(ct.TypeArgs))
	for i, a := range ct.TypeArgs {
		parts[i] = e.PrintType(a)
	}
	return "type[" + ct.Details.Name + "[" + strings.Join(parts, ", ") + "]]"
}

func (e *Evaluator) printObjectType(obj *types.ObjectType) string {
	if obj.Literal != nil {
		return "Literal[" + obj.Literal.String() + "]"
	}
	if len(obj.Class.TypeArgs) == 0 || (e.Config.Print.OmitTypeArgumentsIfAny && allAny(obj.Class.TypeArgs)) {
		return obj.Class.Details.Name
	}
	parts := make([]string, len(obj.Class.TypeArgs))
	for i, a := range obj.Class.TypeArgs {
		parts[i] = e.PrintType(a)
	}
	return obj.Class.Details.Name + "[" + strings.Join(parts, ", ") + "]"
}

// PrintFunctionParts renders a callable's parameter list and return
// type with the same print-flags-aware element rendering PrintType
// gives ordinary types, for a driver's signature-help surface
// (GetCallSignatureInfo's result).
func (e *Evaluator) PrintFunctionParts(fn *types.FunctionType) (params []string, ret string) {
	list := fn.Details.Parameters
	if fn.IgnoreFirstParam && len(list) > 0 {
		list = list[1:]
	}
	params = make([]string, len(list))
	for i, p := range list {
		prefix := ""
		switch p.Category {
		case types.ParamCategoryVarArg:
			prefix = "*"
		case types.ParamCategoryKwArg:
			prefix = "**"
		}
		params[i] = prefix + p.Name + ": " + e.PrintType(p.Type)
	}
	return params, e.PrintType(fn.EffectiveReturn())
}
