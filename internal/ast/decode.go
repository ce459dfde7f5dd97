package ast

import (
	"encoding/json"
	"fmt"
)

// Decode reconstructs a *File from the JSON shape Print/simplify
// produce (plus an optional "span" object per node for real
// positions), the reciprocal half of print.go's encoder. It is used
// only by cmd/typecheck to load a JSON-serialized fixture in place of
// a real parser, which is an external collaborator (package doc, §1).
//
// Node identity isn't carried in the interchange format (Print already
// omits it so snapshots stay stable across re-parses), so Decode
// assigns ids itself: a per-decode Arena hashes each node's (path,
// span, kind), falling back to a monotonic synthetic span when a node
// has no "span" object, which still gives every node a distinct,
// deterministic id within one decode call.
func Decode(data []byte, path string) (*File, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding AST JSON: %w", err)
	}
	d := &decoder{arena: NewArena(path), path: path}
	node := d.node(raw)
	f, ok := node.(*File)
	if !ok {
		return nil, fmt.Errorf("decoding AST JSON: root node is %T, not File", node)
	}
	return f, nil
}

type decoder struct {
	arena   *Arena
	path    string
	counter int
}

func (d *decoder) nextSpan(m map[string]interface{}) Span {
	if raw, ok := m["span"].(map[string]interface{}); ok {
		return Span{
			Start: Pos{Line: intField(raw, "startLine"), Column: intField(raw, "startCol"), Offset: intField(raw, "startOffset"), File: d.path},
			End:   Pos{Line: intField(raw, "endLine"), Column: intField(raw, "endCol"), Offset: intField(raw, "endOffset"), File: d.path},
		}
	}
	d.counter++
	return Span{
		Start: Pos{Line: d.counter, File: d.path},
		End:   Pos{Line: d.counter, File: d.path},
	}
}

func intField(m map[string]interface{}, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

func strField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolField(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func (d *decoder) expr(raw interface{}) Expr {
	n := d.node(raw)
	if n == nil {
		return nil
	}
	e, ok := n.(Expr)
	if !ok {
		return nil
	}
	return e
}

func (d *decoder) exprSlice(raw interface{}) []Expr {
	items, _ := raw.([]interface{})
	out := make([]Expr, 0, len(items))
	for _, it := range items {
		if e := d.expr(it); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (d *decoder) stmtSlice(raw interface{}) []Stmt {
	items, _ := raw.([]interface{})
	out := make([]Stmt, 0, len(items))
	for _, it := range items {
		n := d.node(it)
		if s, ok := n.(Stmt); ok {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) argSlice(raw interface{}) []*Argument {
	items, _ := raw.([]interface{})
	out := make([]*Argument, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, &Argument{
			Name:      strField(m, "name"),
			Value:     d.expr(m["value"]),
			IsStarArg: boolField(m, "star"),
			IsKwArg:   boolField(m, "kwstar"),
		})
	}
	return out
}

func (d *decoder) paramSlice(raw interface{}) []*Param {
	items, _ := raw.([]interface{})
	out := make([]*Param, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, &Param{
			Name:       strField(m, "name"),
			Annotation: d.expr(m["annotation"]),
			Default:    d.expr(m["default"]),
			Category:   ParamCategory(intField(m, "category")),
		})
	}
	return out
}

// node decodes any JSON value tagged with a "type" field into its
// matching concrete ast.Node. Kinds print.go never needs to emit for a
// round trip through a real typechecker fixture (the match/pattern
// family) aren't reconstructed here; a fixture exercising those
// statements is out of scope for this CLI's demo AST loader.
func (d *decoder) node(raw interface{}) Node {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	kind, _ := m["type"].(string)
	span := d.nextSpan(m)

	switch kind {
	case "File":
		return &File{base: d.arena.Base(span, kind), Path: strField(m, "path"), Body: d.stmtSlice(m["body"])}
	case "Name":
		return &Name{base: d.arena.Base(span, kind), Value: strField(m, "value")}
	case "MemberAccess":
		return &MemberAccess{base: d.arena.Base(span, kind), Value: d.expr(m["value"]), Attr: strField(m, "attr")}
	case "Index":
		return &Index{base: d.arena.Base(span, kind), Value: d.expr(m["value"]), Items: d.exprSlice(m["items"])}
	case "Call":
		return &Call{base: d.arena.Base(span, kind), Func: d.expr(m["func"]), Args: d.argSlice(m["args"])}
	case "Tuple":
		return &Tuple{base: d.arena.Base(span, kind), Elements: d.exprSlice(m["elements"])}
	case "Constant":
		k := ConstNone
		switch strField(m, "value") {
		case "True":
			k = ConstTrue
		case "False":
			k = ConstFalse
		case "__debug__":
			k = ConstDebug
		}
		return &Constant{base: d.arena.Base(span, kind), Kind: k}
	case "Number":
		raw := strField(m, "raw")
		return &Number{base: d.arena.Base(span, kind), Raw: raw, IsInt: isIntLiteral(raw), IsFloat: isFloatLiteral(raw)}
	case "StringList":
		return &StringList{base: d.arena.Base(span, kind), Parts: []string{strField(m, "value")}, IsBytes: boolField(m, "isBytes")}
	case "Ellipsis":
		return &Ellipsis{base: d.arena.Base(span, kind)}
	case "UnaryOp":
		return &UnaryOp{base: d.arena.Base(span, kind), Op: strField(m, "op"), Operand: d.expr(m["operand"])}
	case "BinaryOp":
		return &BinaryOp{base: d.arena.Base(span, kind), Op: strField(m, "op"), Left: d.expr(m["left"]), Right: d.expr(m["right"])}
	case "AugmentedAssignment":
		return &AugmentedAssignment{base: d.arena.Base(span, kind), Op: strField(m, "op"), Target: d.expr(m["target"]), Value: d.expr(m["value"])}
	case "List":
		return &ListNode{base: d.arena.Base(span, kind), Elements: d.exprSlice(m["elements"])}
	case "Set":
		return &SetNode{base: d.arena.Base(span, kind), Elements: d.exprSlice(m["elements"])}
	case "Dict":
		items, _ := m["entries"].([]interface{})
		entries := make([]*DictEntry, 0, len(items))
		for _, it := range items {
			em, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			entries = append(entries, &DictEntry{Key: d.expr(em["key"]), Value: d.expr(em["value"])})
		}
		return &DictNode{base: d.arena.Base(span, kind), Entries: entries}
	case "Slice":
		return &Slice{base: d.arena.Base(span, kind), Start: d.expr(m["start"]), Stop: d.expr(m["stop"]), Step: d.expr(m["step"])}
	case "Await":
		return &Await{base: d.arena.Base(span, kind), Value: d.expr(m["value"])}
	case "Ternary":
		return &Ternary{base: d.arena.Base(span, kind), Test: d.expr(m["test"]), Then: d.expr(m["then"]), Else: d.expr(m["else"])}
	case "Comprehension":
		items, _ := m["comps"].([]interface{})
		comps := make([]*Comprehension, 0, len(items))
		for _, it := range items {
			cm, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			comps = append(comps, &Comprehension{
				Target:   d.expr(cm["target"]),
				Iterable: d.expr(cm["iter"]),
				Ifs:      d.exprSlice(cm["ifs"]),
				IsAsync:  boolField(cm, "isAsync"),
			})
		}
		return &ListComprehension{
			base:     d.arena.Base(span, kind),
			Kind:     ComprehensionKind(intField(m, "kind")),
			Element:  d.expr(m["element"]),
			Element2: d.expr(m["element2"]),
			Comps:    comps,
		}
	case "Lambda":
		return &Lambda{base: d.arena.Base(span, kind), Params: d.paramSlice(m["params"]), Body: d.expr(m["body"])}
	case "Assignment":
		return &Assignment{base: d.arena.Base(span, kind), Target: d.expr(m["target"]), Value: d.expr(m["value"])}
	case "AssignmentExpression":
		target, _ := d.expr(m["target"]).(*Name)
		return &AssignmentExpression{base: d.arena.Base(span, kind), Target: target, Value: d.expr(m["value"])}
	case "Yield":
		return &Yield{base: d.arena.Base(span, kind), Value: d.expr(m["value"])}
	case "YieldFrom":
		return &YieldFrom{base: d.arena.Base(span, kind), Value: d.expr(m["value"])}
	case "Unpack":
		return &Unpack{base: d.arena.Base(span, kind), Value: d.expr(m["value"])}
	case "TypeAnnotation":
		return &TypeAnnotation{base: d.arena.Base(span, kind), Value: d.expr(m["value"]), Annotation: d.expr(m["annotation"])}
	case "Error":
		return &ErrorNode{base: d.arena.Base(span, kind)}
	case "FuncDecl":
		return &FuncDecl{
			base:        d.arena.Base(span, kind),
			Name:        strField(m, "name"),
			Params:      d.paramSlice(m["params"]),
			ReturnAnnot: d.expr(m["returns"]),
			Decorators:  d.exprSlice(m["decorators"]),
			IsAsync:     boolField(m, "isAsync"),
			IsGenerator: boolField(m, "isGenerator"),
			Body:        d.stmtSlice(m["body"]),
		}
	case "ClassDecl":
		return &ClassDecl{
			base:       d.arena.Base(span, kind),
			Name:       strField(m, "name"),
			Bases:      d.exprSlice(m["bases"]),
			Decorators: d.exprSlice(m["decorators"]),
			Body:       d.stmtSlice(m["body"]),
		}
	case "AssignStmt":
		return &AssignStmt{base: d.arena.Base(span, kind), Targets: d.exprSlice(m["targets"]), Value: d.expr(m["value"])}
	case "ExprStmt":
		return &ExprStmt{base: d.arena.Base(span, kind), Value: d.expr(m["value"])}
	case "ReturnStmt":
		return &ReturnStmt{base: d.arena.Base(span, kind), Value: d.expr(m["value"])}
	case "DeleteStmt":
		return &DeleteStmt{base: d.arena.Base(span, kind), Targets: d.exprSlice(m["targets"])}
	case "IfStmt":
		return &IfStmt{base: d.arena.Base(span, kind), Test: d.expr(m["test"]), Body: d.stmtSlice(m["body"]), Orelse: d.stmtSlice(m["orelse"])}
	case "WhileStmt":
		return &WhileStmt{base: d.arena.Base(span, kind), Test: d.expr(m["test"]), Body: d.stmtSlice(m["body"]), Orelse: d.stmtSlice(m["orelse"])}
	case "ForStmt":
		return &ForStmt{base: d.arena.Base(span, kind), Target: d.expr(m["target"]), Iterable: d.expr(m["iter"]), Body: d.stmtSlice(m["body"]), Orelse: d.stmtSlice(m["orelse"])}
	case "TryStmt":
		items, _ := m["handlers"].([]interface{})
		handlers := make([]*ExceptHandler, 0, len(items))
		for _, it := range items {
			hm, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			handlers = append(handlers, &ExceptHandler{Type: d.expr(hm["type"]), Name: strField(hm, "name"), Body: d.stmtSlice(hm["body"])})
		}
		return &TryStmt{base: d.arena.Base(span, kind), Body: d.stmtSlice(m["body"]), Handlers: handlers, Orelse: d.stmtSlice(m["orelse"]), Finally: d.stmtSlice(m["finally"])}
	default:
		return &ErrorNode{base: d.arena.Base(span, "Error")}
	}
}

func isIntLiteral(raw string) bool {
	for _, c := range raw {
		if c == '.' || c == 'e' || c == 'E' || c == 'j' || c == 'J' {
			return false
		}
	}
	return raw != ""
}

func isFloatLiteral(raw string) bool {
	return !isIntLiteral(raw) && raw != ""
}
