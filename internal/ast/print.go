package ast

import (
	"encoding/json"
	"fmt"
)

// Print produces a deterministic JSON representation of an AST node,
// used by this package's snapshot tests. Node identity and source
// positions are omitted so snapshots stay stable across re-parses.
func Print(node Node) string {
	if node == nil {
		return "null"
	}
	data, err := json.MarshalIndent(simplify(node), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

// Compact returns a single-line JSON representation of an AST node.
func Compact(node Node) string {
	data, err := json.Marshal(simplify(node))
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

func simplify(node interface{}) interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *File:
		return map[string]interface{}{
			"type": "File",
			"path": "test://unit",
			"body": simplifyStmtSlice(n.Body),
		}

	case *Name:
		return map[string]interface{}{"type": "Name", "value": n.Value}

	case *MemberAccess:
		return map[string]interface{}{
			"type":  "MemberAccess",
			"value": simplify(n.Value),
			"attr":  n.Attr,
		}

	case *Index:
		return map[string]interface{}{
			"type":  "Index",
			"value": simplify(n.Value),
			"items": simplifyExprSlice(n.Items),
		}

	case *Call:
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			args[i] = simplifyArgument(a)
		}
		return map[string]interface{}{
			"type": "Call",
			"func": simplify(n.Func),
			"args": args,
		}

	case *Tuple:
		return map[string]interface{}{"type": "Tuple", "elements": simplifyExprSlice(n.Elements)}

	case *Constant:
		return map[string]interface{}{"type": "Constant", "value": n.String()}

	case *Number:
		return map[string]interface{}{"type": "Number", "raw": n.Raw}

	case *StringList:
		return map[string]interface{}{"type": "StringList", "value": n.String(), "isBytes": n.IsBytes}

	case *Ellipsis:
		return map[string]interface{}{"type": "Ellipsis"}

	case *UnaryOp:
		return map[string]interface{}{"type": "UnaryOp", "op": n.Op, "operand": simplify(n.Operand)}

	case *BinaryOp:
		return map[string]interface{}{
			"type":  "BinaryOp",
			"op":    n.Op,
			"left":  simplify(n.Left),
			"right": simplify(n.Right),
		}

	case *AugmentedAssignment:
		return map[string]interface{}{
			"type":   "AugmentedAssignment",
			"op":     n.Op,
			"target": simplify(n.Target),
			"value":  simplify(n.Value),
		}

	case *ListNode:
		return map[string]interface{}{"type": "List", "elements": simplifyExprSlice(n.Elements)}

	case *SetNode:
		return map[string]interface{}{"type": "Set", "elements": simplifyExprSlice(n.Elements)}

	case *DictNode:
		entries := make([]interface{}, len(n.Entries))
		for i, e := range n.Entries {
			m := map[string]interface{}{"value": simplify(e.Value)}
			if e.Key != nil {
				m["key"] = simplify(e.Key)
			}
			entries[i] = m
		}
		return map[string]interface{}{"type": "Dict", "entries": entries}

	case *Slice:
		return map[string]interface{}{
			"type":  "Slice",
			"start": simplify(n.Start),
			"stop":  simplify(n.Stop),
			"step":  simplify(n.Step),
		}

	case *Await:
		return map[string]interface{}{"type": "Await", "value": simplify(n.Value)}

	case *Ternary:
		return map[string]interface{}{
			"type": "Ternary",
			"test": simplify(n.Test),
			"then": simplify(n.Then),
			"else": simplify(n.Else),
		}

	case *ListComprehension:
		comps := make([]interface{}, len(n.Comps))
		for i, c := range n.Comps {
			comps[i] = map[string]interface{}{
				"target":  simplify(c.Target),
				"iter":    simplify(c.Iterable),
				"ifs":     simplifyExprSlice(c.Ifs),
				"isAsync": c.IsAsync,
			}
		}
		m := map[string]interface{}{
			"type":    "Comprehension",
			"kind":    n.Kind,
			"element": simplify(n.Element),
			"comps":   comps,
		}
		if n.Element2 != nil {
			m["element2"] = simplify(n.Element2)
		}
		return m

	case *Lambda:
		return map[string]interface{}{
			"type":   "Lambda",
			"params": simplifyParamSlice(n.Params),
			"body":   simplify(n.Body),
		}

	case *Assignment:
		return map[string]interface{}{
			"type":   "Assignment",
			"target": simplify(n.Target),
			"value":  simplify(n.Value),
		}

	case *AssignmentExpression:
		return map[string]interface{}{
			"type":   "AssignmentExpression",
			"target": simplify(n.Target),
			"value":  simplify(n.Value),
		}

	case *Yield:
		return map[string]interface{}{"type": "Yield", "value": simplify(n.Value)}

	case *YieldFrom:
		return map[string]interface{}{"type": "YieldFrom", "value": simplify(n.Value)}

	case *Unpack:
		return map[string]interface{}{"type": "Unpack", "value": simplify(n.Value)}

	case *TypeAnnotation:
		return map[string]interface{}{
			"type":       "TypeAnnotation",
			"value":      simplify(n.Value),
			"annotation": simplify(n.Annotation),
		}

	case *ErrorNode:
		return map[string]interface{}{"type": "Error"}

	case *FuncDecl:
		m := map[string]interface{}{
			"type":        "FuncDecl",
			"name":        n.Name,
			"params":      simplifyParamSlice(n.Params),
			"isAsync":     n.IsAsync,
			"isGenerator": n.IsGenerator,
			"decorators":  simplifyExprSlice(n.Decorators),
			"body":        simplifyStmtSlice(n.Body),
		}
		if n.ReturnAnnot != nil {
			m["returns"] = simplify(n.ReturnAnnot)
		}
		return m

	case *ClassDecl:
		return map[string]interface{}{
			"type":       "ClassDecl",
			"name":       n.Name,
			"bases":      simplifyExprSlice(n.Bases),
			"decorators": simplifyExprSlice(n.Decorators),
			"body":       simplifyStmtSlice(n.Body),
		}

	case *AssignStmt:
		return map[string]interface{}{
			"type":    "AssignStmt",
			"targets": simplifyExprSlice(n.Targets),
			"value":   simplify(n.Value),
		}

	case *ExprStmt:
		return map[string]interface{}{"type": "ExprStmt", "value": simplify(n.Value)}

	case *ReturnStmt:
		return map[string]interface{}{"type": "ReturnStmt", "value": simplify(n.Value)}

	case *DeleteStmt:
		return map[string]interface{}{"type": "DeleteStmt", "targets": simplifyExprSlice(n.Targets)}

	case *IfStmt:
		return map[string]interface{}{
			"type":   "IfStmt",
			"test":   simplify(n.Test),
			"body":   simplifyStmtSlice(n.Body),
			"orelse": simplifyStmtSlice(n.Orelse),
		}

	case *WhileStmt:
		return map[string]interface{}{
			"type":   "WhileStmt",
			"test":   simplify(n.Test),
			"body":   simplifyStmtSlice(n.Body),
			"orelse": simplifyStmtSlice(n.Orelse),
		}

	case *ForStmt:
		return map[string]interface{}{
			"type":   "ForStmt",
			"target": simplify(n.Target),
			"iter":   simplify(n.Iterable),
			"body":   simplifyStmtSlice(n.Body),
			"orelse": simplifyStmtSlice(n.Orelse),
		}

	case *TryStmt:
		handlers := make([]interface{}, len(n.Handlers))
		for i, h := range n.Handlers {
			handlers[i] = map[string]interface{}{
				"type": simplify(h.Type),
				"name": h.Name,
				"body": simplifyStmtSlice(h.Body),
			}
		}
		return map[string]interface{}{
			"type":     "TryStmt",
			"body":     simplifyStmtSlice(n.Body),
			"handlers": handlers,
			"orelse":   simplifyStmtSlice(n.Orelse),
			"finally":  simplifyStmtSlice(n.Finally),
		}

	case *MatchStmt:
		cases := make([]interface{}, len(n.Cases))
		for i, c := range n.Cases {
			m := map[string]interface{}{
				"pattern": simplify(c.Pattern),
				"body":    simplifyStmtSlice(c.Body),
			}
			if c.Guard != nil {
				m["guard"] = simplify(c.Guard)
			}
			cases[i] = m
		}
		return map[string]interface{}{
			"type":    "MatchStmt",
			"subject": simplify(n.Subject),
			"cases":   cases,
		}

	// Patterns
	case *WildcardPattern:
		return map[string]interface{}{"type": "WildcardPattern"}

	case *CapturePattern:
		return map[string]interface{}{"type": "CapturePattern", "name": n.Name}

	case *LiteralPattern:
		return map[string]interface{}{"type": "LiteralPattern", "value": simplify(n.Value)}

	case *ValuePattern:
		return map[string]interface{}{"type": "ValuePattern", "value": simplify(n.Value)}

	case *SequencePattern:
		return map[string]interface{}{"type": "SequencePattern", "elements": simplifyPatternSlice(n.Elements)}

	case *StarPattern:
		return map[string]interface{}{"type": "StarPattern", "name": n.Name}

	case *MappingPattern:
		entries := make([]interface{}, len(n.Entries))
		for i, e := range n.Entries {
			entries[i] = map[string]interface{}{
				"key":     simplify(e.Key),
				"pattern": simplify(e.Pattern),
			}
		}
		return map[string]interface{}{"type": "MappingPattern", "entries": entries, "rest": n.Rest}

	case *ClassPattern:
		kws := make([]interface{}, len(n.Keywords))
		for i, k := range n.Keywords {
			kws[i] = map[string]interface{}{"name": k.Name, "pattern": simplify(k.Pattern)}
		}
		return map[string]interface{}{
			"type":       "ClassPattern",
			"class":      simplify(n.Class),
			"positional": simplifyPatternSlice(n.Positional),
			"keywords":   kws,
		}

	case *AsPattern:
		return map[string]interface{}{"type": "AsPattern", "sub": simplify(n.Sub), "name": n.Name}

	case *OrPattern:
		return map[string]interface{}{"type": "OrPattern", "alternatives": simplifyPatternSlice(n.Alternatives)}

	case *Param:
		m := map[string]interface{}{"type": "Param", "name": n.Name, "category": n.Category}
		if n.Annotation != nil {
			m["annotation"] = simplify(n.Annotation)
		}
		if n.Default != nil {
			m["default"] = simplify(n.Default)
		}
		return m

	default:
		return map[string]interface{}{
			"type":  fmt.Sprintf("%T", node),
			"_note": "not yet handled by printer",
		}
	}
}

func simplifyArgument(a *Argument) interface{} {
	m := map[string]interface{}{"value": simplify(a.Value)}
	if a.Name != "" {
		m["name"] = a.Name
	}
	if a.IsStarArg {
		m["star"] = true
	}
	if a.IsKwArg {
		m["kwstar"] = true
	}
	return m
}

func simplifyExprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = simplify(e)
	}
	return result
}

func simplifyStmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = simplify(s)
	}
	return result
}

func simplifyPatternSlice(patterns []Pattern) []interface{} {
	result := make([]interface{}, len(patterns))
	for i, p := range patterns {
		result[i] = simplify(p)
	}
	return result
}

func simplifyParamSlice(params []*Param) []interface{} {
	result := make([]interface{}, len(params))
	for i, p := range params {
		result[i] = simplify(p)
	}
	return result
}
