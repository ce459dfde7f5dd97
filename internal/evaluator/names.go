package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/classbuilder"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/symbols"
	"github.com/typeeval/core/internal/types"
)

// scopeFor is the ScopeOf callback guarded against a test fixture or
// driver that hasn't wired one up yet.
func (e *Evaluator) scopeFor(n ast.Node) *symbols.Scope {
	if e.ScopeOf == nil {
		return nil
	}
	return e.ScopeOf(n)
}

// isDynamic reports whether t is Unknown or Any, the two types every
// member/index/call operation passes through unchanged.
func isDynamic(t types.Type) bool {
	if t == types.Unknown {
		return true
	}
	_, ok := t.(*types.AnyType)
	return ok
}

// evalName implements §4.1's name-resolution case: scope lookup,
// effective-type resolution (declared-type-first, cycle-tracked),
// code-flow narrowing, and auto-specialization of an un-specialized
// class reference.
func (e *Evaluator) evalName(n *ast.Name, flags Flags) TypeResult {
	scope := e.scopeFor(n)
	if scope == nil {
		return result(types.Unknown, n)
	}
	sym, _, ok := scope.Lookup(n.Value)
	if !ok {
		if !flags.Has(FlagAllowForwardReferences) {
			e.reportError(diagnostics.TC006, n, fmt.Sprintf("%q is not defined", n.Value), nil)
		}
		return result(types.Unknown, n)
	}

	t, cyclical := e.effectiveTypeOfSymbolWithCycle(sym, n)
	narrowed, complete := e.narrowReference(n, t)
	tr := result(e.maybeAutoSpecialize(narrowed, flags), n)
	tr.IsResolutionCyclical = cyclical || !complete
	return tr
}

// maybeAutoSpecialize fills an unspecialized generic class reference's
// type arguments with Unknown, unless the caller asked not to (§4.1's
// FlagDoNotSpecialize, used when the caller is about to subscript the
// class itself).
func (e *Evaluator) maybeAutoSpecialize(t types.Type, flags Flags) types.Type {
	if flags.Has(FlagDoNotSpecialize) {
		return t
	}
	ct, ok := t.(*types.ClassType)
	if !ok || len(ct.TypeArgs) != 0 || len(ct.Details.TypeParams) == 0 {
		return t
	}
	args := make([]types.Type, len(ct.Details.TypeParams))
	for i := range args {
		args[i] = types.Unknown
	}
	return &types.ClassType{Details: ct.Details, TypeArgs: args, Literal: ct.Literal}
}

// effectiveTypeOfSymbolWithCycle is the full §4.9 algorithm: declared
// type wins outright; otherwise every reachable declaration's inferred
// type is unioned, tracking whether a cycle was hit along the way.
func (e *Evaluator) effectiveTypeOfSymbolWithCycle(sym *types.Symbol, ref ast.Expr) (types.Type, bool) {
	if sym == nil {
		return types.Unknown, false
	}
	if len(sym.Declarations) == 0 && sym.SynthesizedType != nil {
		return sym.SynthesizedType, false
	}
	return symbols.EffectiveType(e.ResStack, sym,
		func(d *types.Declaration) types.Type { return e.inferDeclaredForDecl(sym, d) },
		func(d *types.Declaration) types.Type { return e.inferAssignedForDecl(sym, d) },
		nil,
	)
}

// effectiveTypeOfSymbol is the single-value form used where a cyclical
// flag isn't meaningful (member lookup, the assignability MemberTyper
// callback).
func (e *Evaluator) effectiveTypeOfSymbol(sym *types.Symbol, ref ast.Expr) types.Type {
	t, _ := e.effectiveTypeOfSymbolWithCycle(sym, ref)
	return t
}

// declaredTypeOfSymbol implements the declared-type-only half of §4.9,
// used by the `getDeclaredTypeForExpression` entry point.
func (e *Evaluator) declaredTypeOfSymbol(sym *types.Symbol) (types.Type, bool) {
	if sym == nil {
		return types.Unknown, false
	}
	return symbols.DeclaredType(e.ResStack, sym, func(d *types.Declaration) types.Type {
		return e.inferDeclaredForDecl(sym, d)
	})
}

// inferDeclaredForDecl dispatches on Declaration.Kind to resolve one
// declaration's *declared* (annotated) type, returning nil when this
// declaration carries none so DeclaredType's backward scan continues
// to the next.
func (e *Evaluator) inferDeclaredForDecl(sym *types.Symbol, d *types.Declaration) types.Type {
	switch d.Kind {
	case types.DeclVariable, types.DeclParameter:
		if d.TypeAnnotationNode == nil {
			return nil
		}
		return e.evaluateTypeExpr(d.TypeAnnotationNode)
	case types.DeclFunction:
		fd, ok := d.Node.(*ast.FuncDecl)
		if !ok {
			return nil
		}
		ft, _ := e.GetTypeOfFunction(fd)
		return ft
	case types.DeclClass:
		cd, ok := d.Node.(*ast.ClassDecl)
		if !ok {
			return nil
		}
		return e.GetTypeOfClass(cd)
	case types.DeclAlias:
		return e.resolveAliasType(d)
	case types.DeclIntrinsic, types.DeclSpecialBuiltInClass:
		if sym == nil {
			return nil
		}
		return sym.SynthesizedType
	default:
		return nil
	}
}

// inferAssignedForDecl resolves one declaration's *inferred* (assigned
// value) type, used when no declaration in the symbol carries an
// annotation. Function/class/alias/intrinsic declarations have no
// separate "assigned" shape distinct from their declared one, so they
// delegate back to inferDeclaredForDecl.
func (e *Evaluator) inferAssignedForDecl(sym *types.Symbol, d *types.Declaration) types.Type {
	switch d.Kind {
	case types.DeclVariable, types.DeclParameter:
		if d.InferredTypeSource != nil {
			return e.GetType(d.InferredTypeSource, nil, 0)
		}
		return types.Unknown
	default:
		return e.inferDeclaredForDecl(sym, d)
	}
}

// resolveAliasType follows an import alias to its target declaration
// and resolves that declaration's type directly (not the whole
// target symbol's effective type, which could itself still be an
// alias chain DeclaredType would re-walk).
func (e *Evaluator) resolveAliasType(d *types.Declaration) types.Type {
	target := symbols.ResolveAlias(d, false, e.lookupModuleTable)
	if target == nil || target == d {
		return types.Unknown
	}
	if target.Kind == types.DeclAlias {
		return types.Unknown
	}
	return e.inferDeclaredForDecl(nil, target)
}

func (e *Evaluator) lookupModuleTable(modulePath string) (*types.SymbolTable, bool) {
	if e.Imports == nil {
		return nil, false
	}
	res, ok := e.Imports.ImportLookup(modulePath)
	if !ok {
		return nil, false
	}
	return res.SymbolTable, true
}

// lookupMember is the classbuilder.LookupMember free function, exposed
// as a method so other evaluator files (narrow.go, classes.go) can
// call it without importing classbuilder themselves.
func (e *Evaluator) lookupMember(details *types.ClassDetails, name string) (*types.Symbol, *types.ClassDetails, bool) {
	return classbuilder.LookupMember(details, name)
}

// reportError centers one diagnostic at node's position, the shape
// every evaluator-internal diagnostic call uses.
func (e *Evaluator) reportError(code string, node ast.Node, msg string, data map[string]any) {
	if e.Sink == nil {
		return
	}
	span := node.Position()
	e.Sink.AddError(code, &ast.Span{Start: span, End: span}, msg, data)
}

func (e *Evaluator) reportMissingMember(node ast.Expr, owner, attr string) {
	e.reportError(diagnostics.TC003, node, fmt.Sprintf("%q has no attribute %q", owner, attr), map[string]any{"attr": attr})
}

// evalMemberAccess implements §4.1's member-access case: evaluate the
// base, resolve through the member table (union-distributing,
// descriptor-aware, module-__getattr__-falling-back), then narrow.
func (e *Evaluator) evalMemberAccess(n *ast.MemberAccess, expected types.Type, flags Flags) TypeResult {
	base := e.GetType(n.Value, nil, flags&^FlagExpectingType)
	t := e.memberAccessOn(base, n.Attr, n, flags)
	narrowed, complete := e.narrowReference(n, t)
	tr := result(e.maybeAutoSpecialize(narrowed, flags), n)
	tr.IsResolutionCyclical = !complete
	return tr
}

func (e *Evaluator) memberAccessOn(base types.Type, attr string, node ast.Expr, flags Flags) types.Type {
	if isDynamic(base) {
		return types.Unknown
	}
	switch v := base.(type) {
	case *types.UnionType:
		members := make([]types.Type, 0, len(v.Subtypes))
		for _, m := range v.Subtypes {
			members = append(members, e.memberAccessOn(m, attr, node, flags))
		}
		return types.NewUnion(members)
	case *types.ObjectType:
		return e.memberAccessOnObject(v, attr, node)
	case *types.ClassType:
		return e.memberAccessOnClass(v, attr, node)
	case *types.ModuleType:
		return e.memberAccessOnModule(v, attr, node)
	default:
		// Function values and other non-class-backed types expose no
		// member table this core models; treat access as Unknown without
		// a diagnostic, since e.g. `fn.__name__` is legal at runtime.
		return types.Unknown
	}
}

func (e *Evaluator) memberAccessOnObject(obj *types.ObjectType, attr string, node ast.Expr) types.Type {
	sym, owner, ok := e.lookupMember(obj.Class.Details, attr)
	if !ok {
		e.reportMissingMember(node, obj.Class.Details.Name, attr)
		return types.Unknown
	}
	memberType := e.specializeMemberType(e.memberTypeOf(sym), obj.Class, owner)
	return e.bindMemberAccess(memberType, false)
}

func (e *Evaluator) memberAccessOnClass(cls *types.ClassType, attr string, node ast.Expr) types.Type {
	sym, owner, ok := e.lookupMember(cls.Details, attr)
	if !ok {
		e.reportMissingMember(node, cls.Details.Name, attr)
		return types.Unknown
	}
	memberType := e.specializeMemberType(e.memberTypeOf(sym), cls, owner)
	return e.bindMemberAccess(memberType, true)
}

func (e *Evaluator) memberAccessOnModule(mod *types.ModuleType, attr string, node ast.Expr) types.Type {
	if mod.Fields != nil {
		if sym, ok := mod.Fields.Get(attr); ok {
			return e.memberTypeOf(sym)
		}
	}
	if mod.LoaderFields != nil {
		if sym, ok := mod.LoaderFields.Get(attr); ok {
			return e.memberTypeOf(sym)
		}
	}
	if mod.Fields != nil {
		if sym, ok := mod.Fields.Get("__getattr__"); ok {
			if fn, ok := e.memberTypeOf(sym).(*types.FunctionType); ok {
				return fn.EffectiveReturn()
			}
		}
	}
	e.reportMissingMember(node, "module", attr)
	return types.Unknown
}

// specializeMemberType substitutes a class's own type parameters into
// a member's declared type when the member was found directly on the
// instance's own (specialized) class; an inherited generic member from
// an ancestor is returned as the ancestor declared it, without
// substitution.
func (e *Evaluator) specializeMemberType(t types.Type, instanceClass *types.ClassType, owner *types.ClassDetails) types.Type {
	if t == nil || owner != instanceClass.Details || len(instanceClass.TypeArgs) == 0 {
		return t
	}
	subs := map[string]types.Type{}
	for i, tp := range owner.TypeParams {
		if i < len(instanceClass.TypeArgs) {
			subs[tp.Key()] = instanceClass.TypeArgs[i]
		}
	}
	if len(subs) == 0 {
		return t
	}
	return t.Substitute(subs)
}

// bindMemberAccess applies descriptor and method-binding rules: a
// property resolves to its getter's return type, a function accessed
// off an instance is bound (self/cls hidden) unless static,
// classmethod-ness decides binding when accessed off the class object
// itself per staticClassAccess.
func (e *Evaluator) bindMemberAccess(t types.Type, staticClassAccess bool) types.Type {
	switch fn := t.(type) {
	case *types.FunctionType:
		if fn.Details.Flags.Has(types.FuncFlagProperty) {
			if fn.Details.FGetter == nil {
				return types.Unknown
			}
			getter := &types.FunctionType{Details: fn.Details.FGetter}
			return getter.EffectiveReturn()
		}
		if fn.Details.Flags.Has(types.FuncFlagStatic) {
			return fn
		}
		if staticClassAccess && !fn.Details.Flags.Has(types.FuncFlagClassMethod) {
			return fn
		}
		return classbuilder.BindMethod(fn, false)
	case *types.OverloadedFunctionType:
		bound := make([]*types.FunctionType, 0, len(fn.Overloads))
		for _, o := range fn.Overloads {
			if b, ok := e.bindMemberAccess(o, staticClassAccess).(*types.FunctionType); ok {
				bound = append(bound, b)
			}
		}
		return &types.OverloadedFunctionType{Overloads: bound}
	default:
		return t
	}
}

// evalIndex implements §4.1's subscript case: `Class[Args]` generic
// specialization in annotation position, otherwise runtime
// subscripting (TypedDict literal-key lookup, tuple literal-index
// element extraction, `__getitem__` dispatch).
func (e *Evaluator) evalIndex(n *ast.Index, expected types.Type, flags Flags) TypeResult {
	if flags.Has(FlagExpectingType) {
		return result(e.evaluateSubscriptedTypeExpr(n), n)
	}
	base := e.GetType(n.Value, nil, 0)
	t := e.indexOn(base, n)
	narrowed, complete := e.narrowReference(n, t)
	tr := result(narrowed, n)
	tr.IsResolutionCyclical = !complete
	return tr
}

func (e *Evaluator) indexOn(base types.Type, n *ast.Index) types.Type {
	if isDynamic(base) {
		return types.Unknown
	}
	switch v := base.(type) {
	case *types.ClassType:
		args := make([]types.Type, len(n.Items))
		for i, it := range n.Items {
			args[i] = e.evaluateTypeExpr(it)
		}
		return &types.ClassType{Details: v.Details, TypeArgs: args}
	case *types.ObjectType:
		return e.indexOnObject(v, n)
	case *types.UnionType:
		members := make([]types.Type, 0, len(v.Subtypes))
		for _, m := range v.Subtypes {
			members = append(members, e.indexOn(m, n))
		}
		return types.NewUnion(members)
	default:
		return types.Unknown
	}
}

func (e *Evaluator) indexOnObject(obj *types.ObjectType, n *ast.Index) types.Type {
	details := obj.Class.Details
	if details.Flags.Has(types.ClassFlagTypedDict) && len(n.Items) == 1 {
		if key, ok := stringLiteralKey(n.Items[0]); ok {
			return e.typedDictFieldType(details, key, n)
		}
	}
	if details.Name == "tuple" && len(n.Items) == 1 && len(obj.Class.TypeArgs) > 0 {
		if idx, ok := intLiteralIndex(n.Items[0]); ok && idx >= 0 && idx < len(obj.Class.TypeArgs) {
			return obj.Class.TypeArgs[idx]
		}
	}

	sym, owner, ok := e.lookupMember(details, "__getitem__")
	if !ok {
		e.reportMissingMember(n, details.Name, "__getitem__")
		return types.Unknown
	}
	memberType := e.specializeMemberType(e.memberTypeOf(sym), obj.Class, owner)
	fn, ok := memberType.(*types.FunctionType)
	if !ok {
		return types.Unknown
	}
	bound := classbuilder.BindMethod(fn, false)

	argExpr := n.Items[0]
	if len(n.Items) > 1 {
		argExpr = &ast.Tuple{Elements: n.Items}
	}
	call := &ast.Call{Args: []*ast.Argument{{Value: argExpr}}}
	t, _ := e.CallResolver.ResolveCall(bound, call)
	return t
}

func (e *Evaluator) typedDictFieldType(details *types.ClassDetails, key string, node ast.Expr) types.Type {
	sym, _, ok := e.lookupMember(details, key)
	if !ok {
		e.reportMissingMember(node, details.Name, key)
		return types.Unknown
	}
	return e.memberTypeOf(sym)
}

func stringLiteralKey(expr ast.Expr) (string, bool) {
	sl, ok := expr.(*ast.StringList)
	if !ok || len(sl.Parts) == 0 {
		return "", false
	}
	return strings.Join(sl.Parts, ""), true
}

func intLiteralIndex(expr ast.Expr) (int, bool) {
	num, ok := expr.(*ast.Number)
	if !ok || !num.IsInt {
		return 0, false
	}
	n, err := strconv.Atoi(num.Raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
