package evaluator

import (
	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/types"
)

var functionDecoratorFlags = map[string]types.FunctionFlags{
	"staticmethod":        types.FuncFlagStatic,
	"classmethod":         types.FuncFlagClassMethod,
	"property":            types.FuncFlagProperty,
	"abstractmethod":      types.FuncFlagAbstract,
	"abc.abstractmethod":  types.FuncFlagAbstract,
	"final":               types.FuncFlagFinal,
	"typing.final":        types.FuncFlagFinal,
	"overload":            types.FuncFlagOverload,
	"typing.overload":     types.FuncFlagOverload,
}

// GetTypeOfFunction implements the `get_type_of_function` entry point
// (§4.2/§6): build a FunctionType from the declaration's parameter
// list, return annotation (or inferred return/yield union when
// unannotated), and decorator-driven flags. Cached by node identity so
// a recursive function sees a stable, if still-incomplete, signature
// rather than looping back into its own inference.
func (e *Evaluator) GetTypeOfFunction(fd *ast.FuncDecl) (types.Type, bool) {
	if cached, ok := e.Cache.Get(fd.ID()); ok {
		return cached, false
	}

	flags := types.FunctionFlags(0)
	if fd.IsAsync {
		flags |= types.FuncFlagAsync
	}
	if fd.IsGenerator {
		flags |= types.FuncFlagGenerator
	}
	for _, d := range fd.Decorators {
		if f, ok := functionDecoratorFlags[calleeName(d)]; ok {
			flags |= f
		}
	}

	fn := &types.FunctionType{Details: &types.FunctionDetails{Name: fd.Name, Flags: flags}}
	// Cache the shell before resolving parameters/return so a call
	// within the function's own body (direct recursion) resolves
	// against a stable signature instead of re-entering this method.
	e.Cache.Set(fd.ID(), fn)

	fn.Details.Parameters = e.functionParameters(fd)
	if fd.ReturnAnnot != nil {
		fn.Details.DeclaredReturn = e.evaluateTypeExpr(fd.ReturnAnnot)
	} else {
		fn.Details.InferredReturn = e.inferredReturnOfBody(fd)
	}
	return fn, false
}

func (e *Evaluator) functionParameters(fd *ast.FuncDecl) []*types.Parameter {
	slashIdx, starIdx := -1, -1
	for i, p := range fd.Params {
		switch p.Category {
		case ast.ParamPositionalOnlyMarker:
			slashIdx = i
		case ast.ParamKeywordOnlyMarker, ast.ParamVarArg:
			if starIdx == -1 {
				starIdx = i
			}
		}
	}

	params := make([]*types.Parameter, 0, len(fd.Params))
	for i, p := range fd.Params {
		if p.Category == ast.ParamPositionalOnlyMarker || p.Category == ast.ParamKeywordOnlyMarker {
			continue
		}
		pt := types.Type(types.Unknown)
		switch {
		case p.Annotation != nil:
			pt = e.evaluateTypeExpr(p.Annotation)
		case p.Default != nil:
			pt = e.GetType(p.Default, nil, 0)
		}
		params = append(params, &types.Parameter{
			Name:           p.Name,
			Type:           pt,
			Category:       paramCategoryFor(p.Category),
			HasDefault:     p.Default != nil,
			PositionalOnly: slashIdx != -1 && i < slashIdx,
			KeywordOnly:    starIdx != -1 && i > starIdx && p.Category != ast.ParamVarArg,
		})
	}
	return params
}

// inferredReturnOfBody unions the types of every return/yield reachable
// lexically within fd's own body (not descending into a nested
// function or class, which start a new return scope). This is a
// lexical scan rather than a flow-sensitive one — it may union in a
// branch's return that a stricter reachability analysis would exclude
// as dead, but a union only ever widens the inferred type, never
// produces an unsound one.
func (e *Evaluator) inferredReturnOfBody(fd *ast.FuncDecl) types.Type {
	returns, yields := e.collectReturnsAndYields(fd.Body)
	if fd.IsGenerator {
		return e.wrapGeneratorReturn(unionOrNone(yields), fd.IsAsync)
	}
	return unionOrNone(returns)
}

func unionOrNone(ts []types.Type) types.Type {
	if len(ts) == 0 {
		return types.None
	}
	return types.NewUnion(ts)
}

func (e *Evaluator) collectReturnsAndYields(body []ast.Stmt) (returns, yields []types.Type) {
	var walk func([]ast.Stmt)
	walk = func(stmts []ast.Stmt) {
		for _, s := range stmts {
			switch v := s.(type) {
			case *ast.ReturnStmt:
				if v.Value == nil {
					returns = append(returns, types.None)
				} else {
					returns = append(returns, e.GetType(v.Value, nil, 0))
				}
			case *ast.ExprStmt:
				e.collectYieldFromExpr(v.Value, &yields)
			case *ast.AssignStmt:
				e.collectYieldFromExpr(v.Value, &yields)
			case *ast.IfStmt:
				walk(v.Body)
				walk(v.Orelse)
			case *ast.WhileStmt:
				walk(v.Body)
				walk(v.Orelse)
			case *ast.ForStmt:
				walk(v.Body)
				walk(v.Orelse)
			case *ast.TryStmt:
				walk(v.Body)
				for _, h := range v.Handlers {
					walk(h.Body)
				}
				walk(v.Orelse)
				walk(v.Finally)
			}
		}
	}
	walk(body)
	return returns, yields
}

func (e *Evaluator) collectYieldFromExpr(expr ast.Expr, yields *[]types.Type) {
	switch v := expr.(type) {
	case *ast.Yield:
		if v.Value == nil {
			*yields = append(*yields, types.None)
		} else {
			*yields = append(*yields, e.GetType(v.Value, nil, 0))
		}
	case *ast.YieldFrom:
		t := e.GetType(v.Value, nil, 0)
		*yields = append(*yields, e.GetTypeFromIterable(t, false, v, false))
	}
}

func (e *Evaluator) wrapGeneratorReturn(elem types.Type, isAsync bool) types.Type {
	name, args := "Generator", []types.Type{elem, types.None, types.None}
	if isAsync {
		name, args = "AsyncGenerator", []types.Type{elem, types.None}
	}
	return types.NewInstance(&types.ClassType{Details: e.classDetailsFor(name), TypeArgs: args})
}
