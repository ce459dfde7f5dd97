package main

import "github.com/typeeval/core/internal/ast"

// collectNodes flattens a file's statement tree into every node it
// contains, in source order, for the hover/print-type subcommands'
// by-offset and by-id lookups. There's no general Visitor over
// ast.Node (package ast only promises ID/Position/String, the
// external-collaborator contract spec.md §1 and §3 describe), so this
// driver walks the concrete shapes it needs directly.
func collectNodes(stmts []ast.Stmt) []ast.Node {
	var out []ast.Node
	for _, s := range stmts {
		walkStmt(s, &out)
	}
	return out
}

func walkExpr(e ast.Expr, out *[]ast.Node) {
	if e == nil {
		return
	}
	*out = append(*out, e)
	switch n := e.(type) {
	case *ast.MemberAccess:
		walkExpr(n.Value, out)
	case *ast.Index:
		walkExpr(n.Value, out)
		for _, it := range n.Items {
			walkExpr(it, out)
		}
	case *ast.Call:
		walkExpr(n.Func, out)
		for _, a := range n.Args {
			walkExpr(a.Value, out)
		}
	case *ast.Tuple:
		for _, el := range n.Elements {
			walkExpr(el, out)
		}
	case *ast.UnaryOp:
		walkExpr(n.Operand, out)
	case *ast.BinaryOp:
		walkExpr(n.Left, out)
		walkExpr(n.Right, out)
	case *ast.AugmentedAssignment:
		walkExpr(n.Target, out)
		walkExpr(n.Value, out)
	case *ast.ListNode:
		for _, el := range n.Elements {
			walkExpr(el, out)
		}
	case *ast.SetNode:
		for _, el := range n.Elements {
			walkExpr(el, out)
		}
	case *ast.DictNode:
		for _, entry := range n.Entries {
			walkExpr(entry.Key, out)
			walkExpr(entry.Value, out)
		}
	case *ast.Slice:
		walkExpr(n.Start, out)
		walkExpr(n.Stop, out)
		walkExpr(n.Step, out)
	case *ast.Await:
		walkExpr(n.Value, out)
	case *ast.Ternary:
		walkExpr(n.Test, out)
		walkExpr(n.Then, out)
		walkExpr(n.Else, out)
	case *ast.ListComprehension:
		walkExpr(n.Element, out)
		walkExpr(n.Element2, out)
		for _, c := range n.Comps {
			walkExpr(c.Target, out)
			walkExpr(c.Iterable, out)
			for _, cond := range c.Ifs {
				walkExpr(cond, out)
			}
		}
	case *ast.Lambda:
		walkExpr(n.Body, out)
	case *ast.Assignment:
		walkExpr(n.Target, out)
		walkExpr(n.Value, out)
	case *ast.AssignmentExpression:
		walkExpr(n.Target, out)
		walkExpr(n.Value, out)
	case *ast.Yield:
		walkExpr(n.Value, out)
	case *ast.YieldFrom:
		walkExpr(n.Value, out)
	case *ast.Unpack:
		walkExpr(n.Value, out)
	case *ast.TypeAnnotation:
		walkExpr(n.Value, out)
		walkExpr(n.Annotation, out)
	case *ast.FuncDecl:
		for _, b := range n.Body {
			walkStmt(b, out)
		}
	}
}

func walkStmt(s ast.Stmt, out *[]ast.Node) {
	if s == nil {
		return
	}
	*out = append(*out, s)
	switch n := s.(type) {
	case *ast.FuncDecl:
		for _, b := range n.Body {
			walkStmt(b, out)
		}
	case *ast.ClassDecl:
		for _, b := range n.Body {
			walkStmt(b, out)
		}
	case *ast.AssignStmt:
		for _, t := range n.Targets {
			walkExpr(t, out)
		}
		walkExpr(n.Value, out)
	case *ast.ExprStmt:
		walkExpr(n.Value, out)
	case *ast.ReturnStmt:
		walkExpr(n.Value, out)
	case *ast.DeleteStmt:
		for _, t := range n.Targets {
			walkExpr(t, out)
		}
	case *ast.IfStmt:
		walkExpr(n.Test, out)
		for _, b := range n.Body {
			walkStmt(b, out)
		}
		for _, b := range n.Orelse {
			walkStmt(b, out)
		}
	case *ast.WhileStmt:
		walkExpr(n.Test, out)
		for _, b := range n.Body {
			walkStmt(b, out)
		}
		for _, b := range n.Orelse {
			walkStmt(b, out)
		}
	case *ast.ForStmt:
		walkExpr(n.Target, out)
		walkExpr(n.Iterable, out)
		for _, b := range n.Body {
			walkStmt(b, out)
		}
		for _, b := range n.Orelse {
			walkStmt(b, out)
		}
	case *ast.TryStmt:
		for _, b := range n.Body {
			walkStmt(b, out)
		}
		for _, h := range n.Handlers {
			walkExpr(h.Type, out)
			for _, b := range h.Body {
				walkStmt(b, out)
			}
		}
		for _, b := range n.Orelse {
			walkStmt(b, out)
		}
		for _, b := range n.Finally {
			walkStmt(b, out)
		}
	}
}

// nodeAtOffset returns the innermost node (last in walk order whose
// own position is at or before offset) covering offset; good enough
// for a line-based hover demo without a true innermost-span search.
func nodeAtOffset(nodes []ast.Node, offset int) ast.Node {
	var best ast.Node
	for _, n := range nodes {
		if n.Position().Offset <= offset {
			best = n
		}
	}
	return best
}

func nodeByID(nodes []ast.Node, id uint64) ast.Node {
	for _, n := range nodes {
		if n.ID() == id {
			return n
		}
	}
	return nil
}
