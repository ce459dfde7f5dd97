package assignability

import (
	"fmt"
	"sort"

	"github.com/typeeval/core/internal/classbuilder"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/typevars"
	"github.com/typeeval/core/internal/types"
)

// classToClass handles rule 9 (both Object, or both the `type[X]` class
// form) and returns nil when neither operand is class-shaped, telling
// the caller to fall through to the function/object-catch-all rules.
func (c *Checker) classToClass(dst, src types.Type, tvMap *typevars.Map, flags Flags) *bool {
	if do, ok := dst.(*types.ObjectType); ok {
		if so, ok := src.(*types.ObjectType); ok {
			r := c.objectToObject(do, so, tvMap, flags)
			return &r
		}
		return nil
	}
	if dc, ok := dst.(*types.ClassType); ok {
		if sc, ok := src.(*types.ClassType); ok {
			r := c.classObjToClassObj(dc, sc, tvMap, flags)
			return &r
		}
		return nil
	}
	return nil
}

func (c *Checker) objectToObject(dst, src *types.ObjectType, tvMap *typevars.Map, flags Flags) bool {
	dd, sd := dst.Class.Details, src.Class.Details

	if dd.Flags.Has(types.ClassFlagProtocol) {
		return c.protocolMatch(dst.Class, src.Class, tvMap, flags)
	}
	if dd.Flags.Has(types.ClassFlagTypedDict) && sd.Flags.Has(types.ClassFlagTypedDict) {
		return c.typedDictMatch(dst.Class, src.Class, tvMap)
	}
	if dd.Flags.Has(types.ClassFlagPropertyClass) && sd.Flags.Has(types.ClassFlagPropertyClass) {
		return c.propertyMatch(dst.Class, src.Class, tvMap, flags)
	}
	if ok, handled := numericTower(dd.Name, sd.Name, flags); handled {
		return ok
	}
	return c.inheritanceChain(dst.Class, src.Class, tvMap, flags)
}

func (c *Checker) classObjToClassObj(dst, src *types.ClassType, tvMap *typevars.Map, flags Flags) bool {
	if isBuiltinObject(dst) {
		return true
	}
	return c.inheritanceChain(dst, src, tvMap, flags)
}

// numericTower implements the `int -> float`, `int|float -> complex`
// widening the host language grants its numeric builtins, suppressed
// under FlagInvariant.
func numericTower(dstName, srcName string, flags Flags) (ok bool, handled bool) {
	if flags.has(FlagInvariant) {
		return false, false
	}
	tower := map[string][]string{
		"float":   {"int"},
		"complex": {"int", "float"},
	}
	for _, allowed := range tower[dstName] {
		if allowed == srcName {
			return true, true
		}
	}
	return false, false
}

// protocolMatch implements §4.4.a: every non-ignored member of the
// destination protocol must be present on src with an assignable type.
// Protocol base classes other than object/Protocol are walked via MRO.
func (c *Checker) protocolMatch(dst, src *types.ClassType, tvMap *typevars.Map, flags Flags) bool {
	names := protocolMemberNames(dst.Details)
	subs := specializationSubs(dst)
	for _, name := range names {
		dstSym, _, ok := classbuilder.LookupMember(dst.Details, name)
		if !ok || dstSym.Flags.Has(types.SymbolFlagIgnoredForProtocolMatch) {
			continue
		}
		srcSym, _, ok := classbuilder.LookupMember(src.Details, name)
		if !ok {
			c.reportMissingMember(src, name)
			return false
		}
		if dstSym.Flags.Has(types.SymbolFlagClassVar) && !srcSym.Flags.Has(types.SymbolFlagClassMember) {
			c.reportMissingMember(src, name)
			return false
		}
		dstType := c.MemberType(dstSym)
		if len(subs) > 0 {
			dstType = dstType.Substitute(subs)
		}
		srcType := c.MemberType(srcSym)
		if !c.canAssignQuiet(dstType, srcType, tvMap, flags) {
			c.reportMissingMember(src, name)
			return false
		}
	}
	return true
}

func (c *Checker) reportMissingMember(class *types.ClassType, name string) {
	if c.Sink == nil {
		return
	}
	c.Sink.AddError(diagnostics.TC003, nil,
		fmt.Sprintf("%q is missing member %q", class.Details.Name, name), map[string]any{"member": name})
}

func protocolMemberNames(details *types.ClassDetails) []string {
	order := details.MRO
	if len(order) == 0 {
		order = []*types.ClassDetails{details}
	}
	seen := map[string]bool{}
	var names []string
	for _, anc := range order {
		if anc.Name == "object" || anc.Name == "Protocol" || anc.Fields == nil {
			continue
		}
		for _, n := range anc.Fields.Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names
}

// specializationSubs builds the TypeVar substitution for a specialized
// class (type[X[int]]) from its own TypeParams paired against TypeArgs,
// used to specialize a protocol member's declared type before comparing
// it against the source's member.
func specializationSubs(class *types.ClassType) map[string]types.Type {
	if len(class.TypeArgs) == 0 || len(class.Details.TypeParams) == 0 {
		return nil
	}
	subs := map[string]types.Type{}
	for i, tp := range class.Details.TypeParams {
		if i >= len(class.TypeArgs) {
			break
		}
		subs[tp.Key()] = class.TypeArgs[i]
	}
	return subs
}

// typedDictMatch implements §4.4.b: structural over the union of keys,
// required-ness must not loosen, values compared invariantly per the
// Open Question decision recorded in DESIGN.md.
func (c *Checker) typedDictMatch(dst, src *types.ClassType, tvMap *typevars.Map) bool {
	dstRequired := map[string]bool{}
	if dst.Details.TypedDictInfo != nil {
		dstRequired = dst.Details.TypedDictInfo.Required
	}
	srcRequired := map[string]bool{}
	if src.Details.TypedDictInfo != nil {
		srcRequired = src.Details.TypedDictInfo.Required
	}

	names := protocolMemberNames(dst.Details)
	for _, name := range names {
		dstSym, _, _ := classbuilder.LookupMember(dst.Details, name)
		srcSym, _, ok := classbuilder.LookupMember(src.Details, name)
		if !ok {
			c.reportMissingMember(src, name)
			return false
		}
		if dstRequired[name] && !srcRequired[name] {
			c.reportMissingMember(src, name)
			return false
		}
		dstType, srcType := c.MemberType(dstSym), c.MemberType(srcSym)
		if !c.canAssignQuiet(dstType, srcType, tvMap, FlagInvariant) || !c.canAssignQuiet(srcType, dstType, tvMap, FlagInvariant) {
			c.reportMissingMember(src, name)
			return false
		}
	}
	return true
}

// propertyMatch compares two `property` objects by their getter's
// return type, covariantly.
func (c *Checker) propertyMatch(dst, src *types.ClassType, tvMap *typevars.Map, flags Flags) bool {
	dstGet, _, dok := classbuilder.LookupMember(dst.Details, "fget")
	srcGet, _, sok := classbuilder.LookupMember(src.Details, "fget")
	if !dok || !sok {
		return dok == sok
	}
	return c.canAssignQuiet(c.MemberType(dstGet), c.MemberType(srcGet), tvMap, flags)
}

// inheritanceChain implements §4.4.c: walk from src up to dst along the
// MRO, specializing at each hop, then compare dst's own type arguments
// against the matched ancestor's under each parameter's declared
// variance.
func (c *Checker) inheritanceChain(dst, src *types.ClassType, tvMap *typevars.Map, flags Flags) bool {
	ancestor, subs, ok := findAncestor(src, dst.Details)
	if !ok {
		c.report(dst, src)
		return false
	}
	if len(dst.TypeArgs) == 0 {
		return true // unspecialized destination accepts any specialization
	}
	specializedArgs := make([]types.Type, len(ancestor))
	for i, a := range ancestor {
		specializedArgs[i] = a.Substitute(subs)
	}
	for i, param := range dst.Details.TypeParams {
		if i >= len(dst.TypeArgs) || i >= len(specializedArgs) {
			break
		}
		wantArg, gotArg := dst.TypeArgs[i], specializedArgs[i]
		var ok bool
		switch {
		case param.IsCovariant:
			ok = c.canAssignQuiet(wantArg, gotArg, tvMap, flags)
		case param.IsContravariant:
			ok = c.canAssignQuiet(gotArg, wantArg, tvMap, flags)
		default:
			ok = wantArg.Equals(gotArg) ||
				(c.canAssignQuiet(wantArg, gotArg, tvMap, flags) && c.canAssignQuiet(gotArg, wantArg, nil, flags))
		}
		if !ok {
			c.report(dst, src)
			return false
		}
	}
	return true
}

// findAncestor walks src's MRO looking for target, accumulating a
// TypeVar substitution at each hop from that hop's own specialization,
// so a diamond of generic specializations resolves correctly.
func findAncestor(src *types.ClassType, target *types.ClassDetails) (typeArgs []types.Type, subs map[string]types.Type, ok bool) {
	if src.Details == target {
		return src.TypeArgs, map[string]types.Type{}, true
	}
	order := src.Details.MRO
	if len(order) == 0 {
		order = []*types.ClassDetails{src.Details}
	}
	for _, anc := range order {
		if anc == target {
			return src.TypeArgs, map[string]types.Type{}, true
		}
	}
	// Fall back to a direct Bases walk (MRO not yet computed, e.g. while
	// resolving the class currently under construction).
	curSubs := specializationSubs(src)
	for _, base := range src.Details.Bases {
		specializedBase := &types.ClassType{Details: base.Details, TypeArgs: substituteAll(base.TypeArgs, curSubs)}
		if args, baseSubs, ok := findAncestor(specializedBase, target); ok {
			merged := map[string]types.Type{}
			for k, v := range curSubs {
				merged[k] = v
			}
			for k, v := range baseSubs {
				merged[k] = v
			}
			return args, merged, true
		}
	}
	return nil, nil, false
}

func substituteAll(ts []types.Type, subs map[string]types.Type) []types.Type {
	if len(subs) == 0 {
		return ts
	}
	out := make([]types.Type, len(ts))
	for i, t := range ts {
		out[i] = t.Substitute(subs)
	}
	return out
}
