package main

import (
	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/symbols"
	"github.com/typeeval/core/internal/types"
)

// bindModule builds the one scope this driver needs: every top-level
// name the file assigns, defines a function for, or defines a class
// for, all visible from a single flat module scope. The real binder
// builds one scope per suite and a flow graph per branch (spec.md
// §3); reproducing that here would mean re-implementing a binder just
// to demo the evaluator, so this driver only goes as deep as a
// single-file, single-scope fixture needs and leaves ScopeOf's other
// callbacks (FlowNodeFor, SymbolRefFor) unset, which narrowReference
// already treats as "no flow graph attached" (narrow.go).
func bindModule(file *ast.File) *symbols.Scope {
	scope := symbols.NewScope(symbols.ScopeModule, nil)
	for _, stmt := range file.Body {
		bindStmt(scope, stmt)
	}
	return scope
}

func bindStmt(scope *symbols.Scope, stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		for _, target := range s.Targets {
			bindAssignTarget(scope, target, s.Value)
		}
	case *ast.FuncDecl:
		scope.Define(s.Name, &types.Symbol{
			Name:         s.Name,
			Declarations: []*types.Declaration{{Kind: types.DeclFunction, Node: s}},
		})
	case *ast.ClassDecl:
		scope.Define(s.Name, &types.Symbol{
			Name:         s.Name,
			Declarations: []*types.Declaration{{Kind: types.DeclClass, Node: s}},
		})
	case *ast.IfStmt:
		for _, sub := range s.Body {
			bindStmt(scope, sub)
		}
		for _, sub := range s.Orelse {
			bindStmt(scope, sub)
		}
	case *ast.WhileStmt:
		for _, sub := range s.Body {
			bindStmt(scope, sub)
		}
	case *ast.ForStmt:
		bindAssignTarget(scope, s.Target, nil)
		for _, sub := range s.Body {
			bindStmt(scope, sub)
		}
	}
}

func bindAssignTarget(scope *symbols.Scope, target ast.Expr, value ast.Expr) {
	switch t := target.(type) {
	case *ast.Name:
		scope.Define(t.Value, &types.Symbol{
			Name: t.Value,
			Declarations: []*types.Declaration{{
				Kind:               types.DeclVariable,
				InferredTypeSource: value,
			}},
		})
	case *ast.TypeAnnotation:
		name, ok := t.Value.(*ast.Name)
		if !ok {
			return
		}
		scope.Define(name.Value, &types.Symbol{
			Name: name.Value,
			Declarations: []*types.Declaration{{
				Kind:               types.DeclVariable,
				TypeAnnotationNode: t.Annotation,
				InferredTypeSource: value,
			}},
		})
	case *ast.Tuple:
		for _, elem := range t.Elements {
			bindAssignTarget(scope, elem, nil)
		}
	}
}
