package evaluator

import (
	"fmt"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/classbuilder"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/symbols"
	"github.com/typeeval/core/internal/types"
)

// EvaluateTypesForStatement implements the `evaluateTypesForStatement`
// entry point: drive every top-level expression a statement carries
// through GetType, so a full-file walk surfaces every diagnostic
// without a caller having to know each statement kind's expression
// slots.
func (e *Evaluator) EvaluateTypesForStatement(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.ExprStmt:
		e.GetType(v.Value, nil, 0)
	case *ast.AssignStmt:
		target := firstTarget(v.Targets)
		for _, t := range v.Targets {
			if t != target {
				e.GetType(t, nil, 0)
			}
		}
		e.GetType(v.Value, e.declaredTypeForTarget(target), 0)
	case *ast.ReturnStmt:
		if v.Value != nil {
			e.GetType(v.Value, nil, 0)
		}
	case *ast.DeleteStmt:
		for _, t := range v.Targets {
			e.VerifyDeleteExpression(t)
		}
	case *ast.IfStmt:
		e.GetType(v.Test, nil, 0)
	case *ast.WhileStmt:
		e.GetType(v.Test, nil, 0)
	case *ast.ForStmt:
		e.GetType(v.Iterable, nil, 0)
	case *ast.FuncDecl:
		e.GetTypeOfFunction(v)
	case *ast.ClassDecl:
		e.GetTypeOfClass(v)
	}
}

func firstTarget(targets []ast.Expr) ast.Expr {
	if len(targets) == 0 {
		return nil
	}
	return targets[0]
}

// VerifyDeleteExpression implements the delete-expression half of
// §6's statement surface: a `del name` target must already be bound;
// attribute/subscript targets are checked the same way a read of them
// would be, since `del obj.attr` still requires `obj` to expose `attr`.
func (e *Evaluator) VerifyDeleteExpression(target ast.Expr) {
	switch v := target.(type) {
	case *ast.Name:
		scope := e.scopeFor(v)
		if scope == nil {
			return
		}
		if _, _, ok := scope.Lookup(v.Value); !ok {
			e.reportError(diagnostics.TC006, v, fmt.Sprintf("%q is not defined", v.Value), nil)
		}
	case *ast.MemberAccess:
		e.GetType(v, nil, 0)
	case *ast.Index:
		e.GetType(v, nil, 0)
		e.verifyTypedDictKeyDeletable(v)
	}
}

// verifyTypedDictKeyDeletable implements §4.1's "isRequired enforcement
// on delete" for the TypedDict subscript-index mode: `del td['key']`
// is only valid when the key is not required.
func (e *Evaluator) verifyTypedDictKeyDeletable(n *ast.Index) {
	if len(n.Items) != 1 {
		return
	}
	key, ok := stringLiteralKey(n.Items[0])
	if !ok {
		return
	}
	obj, ok := e.GetType(n.Value, nil, FlagDoNotSpecialize).(*types.ObjectType)
	if !ok {
		return
	}
	info := obj.Class.Details.TypedDictInfo
	if info == nil || !info.Required[key] {
		return
	}
	e.reportError(diagnostics.TC011, n, fmt.Sprintf("cannot delete required TypedDict key %q", key), nil)
}

// GetDeclarationsForNameNode implements the `getDeclarationsForNameNode`
// entry point: the raw declaration list behind a name reference, for a
// driver's go-to-definition support.
func (e *Evaluator) GetDeclarationsForNameNode(n *ast.Name) []*types.Declaration {
	scope := e.scopeFor(n)
	if scope == nil {
		return nil
	}
	sym, _, ok := scope.Lookup(n.Value)
	if !ok {
		return nil
	}
	return sym.Declarations
}

// GetCallSignatureInfo implements the `getCallSignatureInfo` entry
// point: resolve the call's active signature (choosing the matching
// overload, or the relevant constructor/`__call__` member, the same
// way evalCall does) and report which parameter index the cursor
// offset falls under, for a driver's signature-help support.
func (e *Evaluator) GetCallSignatureInfo(call *ast.Call, offset int) (*types.FunctionType, int) {
	callee := e.GetType(call.Func, nil, FlagDoNotSpecialize)
	var fn *types.FunctionType
	switch v := callee.(type) {
	case *types.FunctionType:
		fn = v
	case *types.OverloadedFunctionType:
		overloads, fallback := splitOverloads(v.Overloads)
		fn, _ = e.CallResolver.ResolveOverload(overloads, fallback, call)
	case *types.ClassType:
		if sym, owner, ok := e.lookupMember(v.Details, "__init__"); ok {
			fn, _ = e.specializeMemberType(e.memberTypeOf(sym), v, owner).(*types.FunctionType)
		}
	case *types.ObjectType:
		if sym, owner, ok := e.lookupMember(v.Class.Details, "__call__"); ok {
			fn, _ = e.specializeMemberType(e.memberTypeOf(sym), v.Class, owner).(*types.FunctionType)
		}
	}
	if fn == nil {
		return nil, -1
	}
	activeParam := 0
	for i, a := range call.Args {
		if a.Value != nil && a.Value.Position().Offset <= offset {
			activeParam = i
		}
	}
	return fn, activeParam
}

// CanAssignType implements the `canAssignType` entry point directly:
// every other component already calls through internal/assignability,
// this just exposes that single predicate at the evaluator's own
// external surface.
func (e *Evaluator) CanAssignType(dst, src types.Type) bool {
	if e.Checker == nil {
		return true
	}
	return e.Checker.CanAssign(dst, src, nil, 0)
}

// CanOverrideMethod implements the `canOverrideMethod` entry point:
// an override is valid exactly when its signature is assignable where
// the base method's signature is expected (contravariant parameters,
// covariant return), the same function-shape rule CanAssign already
// applies when the destination is a FunctionType.
func (e *Evaluator) CanOverrideMethod(base, override *types.FunctionType) bool {
	if e.Checker == nil {
		return true
	}
	return e.Checker.CanAssign(base, override, nil, 0)
}

// AddWarning and AddInformation complete the diagnostic-reporting
// surface reportError (names.go) provides for errors, for callers
// (synthesis hooks, a driver's own checks) that need the other two
// severities centered at a node's position.
func (e *Evaluator) AddWarning(code string, node ast.Node, msg string, data map[string]any) {
	if e.Sink == nil {
		return
	}
	span := node.Position()
	e.Sink.AddWarning(code, &ast.Span{Start: span, End: span}, msg, data)
}

func (e *Evaluator) AddInformation(code string, node ast.Node, msg string, data map[string]any) {
	if e.Sink == nil {
		return
	}
	span := node.Position()
	e.Sink.AddInformation(code, &ast.Span{Start: span, End: span}, msg, data)
}

// GetDeclaredTypeForExpression implements the
// `getDeclaredTypeForExpression` entry point: the declared (not
// flow-narrowed, not inferred-from-assignment) type behind a
// reference, for callers that want the annotation a name was given
// rather than its narrowed-at-this-point type.
func (e *Evaluator) GetDeclaredTypeForExpression(expr ast.Expr) types.Type {
	switch v := expr.(type) {
	case *ast.Name:
		scope := e.scopeFor(v)
		if scope == nil {
			return nil
		}
		sym, _, ok := scope.Lookup(v.Value)
		if !ok {
			return nil
		}
		t, ok := e.declaredTypeOfSymbol(sym)
		if !ok {
			return nil
		}
		return t
	case *ast.MemberAccess:
		base := e.GetType(v.Value, nil, FlagDoNotSpecialize)
		obj, ok := base.(*types.ObjectType)
		if !ok {
			return nil
		}
		sym, owner, ok := e.lookupMember(obj.Class.Details, v.Attr)
		if !ok {
			return nil
		}
		return e.specializeMemberType(e.memberTypeOf(sym), obj.Class, owner)
	default:
		return nil
	}
}

// GetTypedDictMembersForClass implements `getTypedDictMembersForClass`:
// the key -> {value type, required} map internal/synthesis's
// TypedDictMembers already computed onto the class's symbol table,
// reshaped into the entry point's documented return value.
func (e *Evaluator) GetTypedDictMembersForClass(details *types.ClassDetails) map[string]TypedDictMember {
	out := map[string]TypedDictMember{}
	if details == nil || details.Fields == nil || details.TypedDictInfo == nil {
		return out
	}
	for _, name := range details.Fields.Names() {
		sym, _ := details.Fields.Get(name)
		out[name] = TypedDictMember{
			ValueType:  e.memberTypeOf(sym),
			IsRequired: details.TypedDictInfo.Required[name],
		}
	}
	return out
}

// TypedDictMember is one entry of GetTypedDictMembersForClass's result.
type TypedDictMember struct {
	ValueType  types.Type
	IsRequired bool
}

// BindFunctionToClassOrObject implements `bindFunctionToClassOrObject`:
// produce the bound-method view of member (stripping self/cls the way
// ordinary member access does), optionally against a base instance/
// class for generic specialization, per §4.2's method-binding rule.
func (e *Evaluator) BindFunctionToClassOrObject(base types.Type, member *types.FunctionType, treatAsClassMember bool) types.Type {
	if member == nil {
		return nil
	}
	isStatic := member.Details.Flags.Has(types.FuncFlagStatic) ||
		(treatAsClassMember && member.Details.Flags.Has(types.FuncFlagClassMethod))
	bound := classbuilder.BindMethod(member, isStatic)
	switch v := base.(type) {
	case *types.ObjectType:
		return e.specializeMemberType(bound, v.Class, v.Class.Details)
	case *types.ClassType:
		return e.specializeMemberType(bound, v, v.Details)
	default:
		return bound
	}
}

// ResolveAliasDeclaration implements `resolveAliasDeclaration`: follow
// an import-alias declaration across modules via the evaluator's own
// ImportLookup collaborator, stopping at a local rename unless
// resolveLocalNames is set, per internal/symbols.ResolveAlias.
func (e *Evaluator) ResolveAliasDeclaration(decl *types.Declaration, resolveLocalNames bool) *types.Declaration {
	return symbols.ResolveAlias(decl, resolveLocalNames, e.lookupModuleTable)
}

// RunWithCancellationToken implements §4.8's cancellation contract:
// every cache write f makes is provisional until f returns cleanly; a
// cancellation error unwinds them all, so `Cache.Size()` after a
// cancelled entry point equals its size before the call.
func (e *Evaluator) RunWithCancellationToken(f func() error) error {
	e.Cache.PushSpeculative()
	if err := f(); err != nil {
		e.Cache.PopSpeculative()
		return err
	}
	e.Cache.CommitSpeculative()
	return nil
}
