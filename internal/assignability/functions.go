package assignability

import (
	"github.com/typeeval/core/internal/classbuilder"
	"github.com/typeeval/core/internal/typevars"
	"github.com/typeeval/core/internal/types"
)

// assignFunction handles rule 10: adapt src into a callable shape (an
// overload's matching candidate, an object's __call__, a class's
// synthesized constructor) before running function-shape assignability.
func (c *Checker) assignFunction(dst *types.FunctionType, src types.Type, tvMap *typevars.Map, flags Flags) bool {
	switch s := src.(type) {
	case *types.FunctionType:
		return c.functionShape(dst, s, tvMap, flags)
	case *types.OverloadedFunctionType:
		for _, candidate := range s.Overloads {
			if m := tvMap; m != nil {
				m = m.Clone()
				if c.functionShape(dst, candidate, m, flags) {
					return true
				}
				continue
			}
			if c.canAssignQuiet(dst, candidate, nil, flags) {
				return true
			}
		}
		c.report(dst, src)
		return false
	case *types.ObjectType:
		sym, _, ok := classbuilder.LookupMember(s.Class.Details, "__call__")
		if !ok {
			c.report(dst, src)
			return false
		}
		callable, ok := c.MemberType(sym).(*types.FunctionType)
		if !ok {
			c.report(dst, src)
			return false
		}
		return c.functionShape(dst, classbuilder.BindMethod(callable, false), tvMap, flags)
	case *types.ClassType:
		ctor := syntheticConstructor(s)
		return c.functionShape(dst, ctor, tvMap, flags)
	default:
		c.report(dst, src)
		return false
	}
}

// syntheticConstructor builds a bare `(...) -> Instance` signature for a
// class object used where a callable is expected, e.g. passing a class
// itself as a factory argument. Real constructor argument checking goes
// through internal/callresolver, not this path.
func syntheticConstructor(class *types.ClassType) *types.FunctionType {
	return &types.FunctionType{
		Details: &types.FunctionDetails{
			Name:           "__init__",
			DeclaredReturn: types.NewInstance(class),
			Flags:          types.FuncFlagConstructor | types.FuncFlagSkipConstructorCheck,
		},
	}
}

// functionShape implements §4.4.d: positional-by-index (contravariant),
// named-only-by-name, required-count capacity, covariant return.
func (c *Checker) functionShape(dst, src *types.FunctionType, tvMap *typevars.Map, flags Flags) bool {
	dstParams := effectiveParams(dst)
	srcParams := effectiveParams(src)

	if dst.Details.ParamSpec != nil && tvMap != nil {
		tvMap.SetParamSpec(dst.Details.ParamSpec, src.Details)
		return c.canAssignQuiet(dst.EffectiveReturn(), src.EffectiveReturn(), tvMap, flags)
	}

	dstPos, dstNamed, dstVarArg, dstKwArg := splitParams(dstParams)
	srcPos, srcNamed, srcVarArg, srcKwArg := splitParams(srcParams)

	for i, dp := range dstPos {
		var sp *types.Parameter
		switch {
		case i < len(srcPos):
			sp = srcPos[i]
		case srcVarArg != nil:
			sp = srcVarArg
		default:
			c.report(dst, src)
			return false
		}
		// Contravariance: the source's parameter type must accept the
		// destination's.
		if !c.canAssignQuiet(sp.Type, dp.Type, tvMap, flags) {
			c.report(dst, src)
			return false
		}
	}
	if len(srcPos) > len(dstPos) {
		extraRequired := 0
		for _, sp := range srcPos[len(dstPos):] {
			if !sp.HasDefault {
				extraRequired++
			}
		}
		if extraRequired > 0 && dstVarArg == nil {
			c.report(dst, src)
			return false
		}
	}

	for name, dp := range dstNamed {
		sp, ok := srcNamed[name]
		if !ok {
			if srcKwArg != nil {
				sp = srcKwArg
			} else {
				c.report(dst, src)
				return false
			}
		}
		if !c.canAssignQuiet(sp.Type, dp.Type, tvMap, flags) {
			c.report(dst, src)
			return false
		}
	}
	for name, sp := range srcNamed {
		if !sp.HasDefault {
			if _, ok := dstNamed[name]; !ok && dstKwArg == nil {
				c.report(dst, src)
				return false
			}
		}
	}

	return c.canAssignQuiet(dst.EffectiveReturn(), src.EffectiveReturn(), tvMap, flags)
}

func effectiveParams(f *types.FunctionType) []*types.Parameter {
	params := f.Details.Parameters
	if f.IgnoreFirstParam && len(params) > 0 {
		return params[1:]
	}
	return params
}

func splitParams(params []*types.Parameter) (positional []*types.Parameter, named map[string]*types.Parameter, varArg, kwArg *types.Parameter) {
	named = map[string]*types.Parameter{}
	for _, p := range params {
		switch {
		case p.Category == types.ParamCategoryVarArg:
			v := p
			varArg = v
		case p.Category == types.ParamCategoryKwArg:
			v := p
			kwArg = v
		case p.KeywordOnly:
			named[p.Name] = p
		default:
			positional = append(positional, p)
		}
	}
	return
}
