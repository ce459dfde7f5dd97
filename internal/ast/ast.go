// Package ast defines the read-only external AST contract the type
// evaluator core consumes. The parser, binder, and scope builder that
// populate these nodes are external collaborators; this package only
// describes the shape they hand to the evaluator.
package ast

import (
	"fmt"
	"strings"
)

// Node is the base interface every AST node satisfies.
type Node interface {
	ID() uint64
	Position() Pos
	String() string
}

// Pos represents a position in the source code.
type Pos struct {
	Line   int
	Column int
	File   string
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open range in source text, the unit diagnostics and
// forward-reference re-parsing attach to.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.Start, s.End.Line, s.End.Column)
}

// base carries the fields every concrete node embeds: a stable,
// binder-assigned identity and its source span. The arena that owns
// node identity (an append-only slice) lives with the binder; the
// core only ever reads NodeID/Span off nodes it is handed.
type base struct {
	NodeID uint64
	Span   Span
}

func (b base) ID() uint64    { return b.NodeID }
func (b base) Position() Pos { return b.Span.Start }

// Expr is any expression-position node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement-position node.
type Stmt interface {
	Node
	stmtNode()
}

// ---- Expression node kinds ----

// Name is a bare identifier reference, resolved against the enclosing
// scope's symbol table.
type Name struct {
	base
	Value string
}

func (n *Name) String() string { return n.Value }
func (*Name) exprNode()        {}

// MemberAccess is `value.attr`.
type MemberAccess struct {
	base
	Value Expr
	Attr  string
}

func (m *MemberAccess) String() string { return fmt.Sprintf("%s.%s", m.Value, m.Attr) }
func (*MemberAccess) exprNode()        {}

// Index is `value[items...]`, one node per subscript expression.
type Index struct {
	base
	Value Expr
	Items []Expr
}

func (i *Index) String() string {
	parts := make([]string, len(i.Items))
	for idx, it := range i.Items {
		parts[idx] = it.String()
	}
	return fmt.Sprintf("%s[%s]", i.Value, strings.Join(parts, ", "))
}
func (*Index) exprNode() {}

// Argument is a single call argument, optionally named or starred.
type Argument struct {
	Name      string // empty for positional
	Value     Expr
	IsStarArg bool // *args unpack
	IsKwArg   bool // **kwargs unpack
}

// Call is a function/constructor application.
type Call struct {
	base
	Func Expr
	Args []*Argument
}

func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.Value.String()
	}
	return fmt.Sprintf("%s(%s)", c.Func, strings.Join(parts, ", "))
}
func (*Call) exprNode() {}

// Tuple is a tuple display.
type Tuple struct {
	base
	Elements []Expr
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (*Tuple) exprNode() {}

// ConstantKind tags the shape of a Constant node.
type ConstantKind int

const (
	ConstTrue ConstantKind = iota
	ConstFalse
	ConstNone
	ConstDebug
)

// Constant is a `True`/`False`/`None`/`__debug__` literal.
type Constant struct {
	base
	Kind ConstantKind
}

func (c *Constant) String() string {
	switch c.Kind {
	case ConstTrue:
		return "True"
	case ConstFalse:
		return "False"
	case ConstDebug:
		return "__debug__"
	default:
		return "None"
	}
}
func (*Constant) exprNode() {}

// Number is an int/float/complex numeric literal.
type Number struct {
	base
	IsInt     bool
	IsFloat   bool
	IsComplex bool
	Raw       string
}

func (n *Number) String() string { return n.Raw }
func (*Number) exprNode()        {}

// StringList is one or more adjacent string literals, concatenated;
// also the node re-evaluated as a forward-reference type annotation
// when the evaluator's EvaluateStringLiteralAsType flag is set.
type StringList struct {
	base
	Parts    []string
	IsBytes  bool
	FStrings []Expr // embedded expressions in f-strings, if any
}

func (s *StringList) String() string { return strings.Join(s.Parts, "") }
func (*StringList) exprNode()        {}

// Ellipsis is the literal `...`.
type Ellipsis struct{ base }

func (*Ellipsis) String() string { return "..." }
func (*Ellipsis) exprNode()      {}

// UnaryOp is a prefix operator (`-x`, `not x`, `~x`).
type UnaryOp struct {
	base
	Op      string
	Operand Expr
}

func (u *UnaryOp) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }
func (*UnaryOp) exprNode()        {}

// BinaryOp is an infix operator, including the type-union `|` form.
type BinaryOp struct {
	base
	Left  Expr
	Op    string
	Right Expr
}

func (b *BinaryOp) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }
func (*BinaryOp) exprNode()        {}

// AugmentedAssignment is `target op= value`.
type AugmentedAssignment struct {
	base
	Target Expr
	Op     string
	Value  Expr
}

func (a *AugmentedAssignment) String() string {
	return fmt.Sprintf("%s %s= %s", a.Target, a.Op, a.Value)
}
func (*AugmentedAssignment) exprNode() {}

// ListNode is a list display.
type ListNode struct {
	base
	Elements []Expr
}

func (l *ListNode) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (*ListNode) exprNode() {}

// SetNode is a set display.
type SetNode struct {
	base
	Elements []Expr
}

func (s *SetNode) String() string {
	parts := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (*SetNode) exprNode() {}

// DictEntry is a single `key: value` pair, or `**expr` when Key is nil.
type DictEntry struct {
	Key   Expr // nil for a dict-unpack entry
	Value Expr
}

// DictNode is a dict display.
type DictNode struct {
	base
	Entries []*DictEntry
}

func (d *DictNode) String() string {
	parts := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		if e.Key == nil {
			parts[i] = fmt.Sprintf("**%s", e.Value)
		} else {
			parts[i] = fmt.Sprintf("%s: %s", e.Key, e.Value)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (*DictNode) exprNode() {}

// Slice is `start:stop:step`; any component may be nil.
type Slice struct {
	base
	Start, Stop, Step Expr
}

func (s *Slice) String() string {
	part := func(e Expr) string {
		if e == nil {
			return ""
		}
		return e.String()
	}
	return fmt.Sprintf("%s:%s:%s", part(s.Start), part(s.Stop), part(s.Step))
}
func (*Slice) exprNode() {}

// Await is `await expr`.
type Await struct {
	base
	Value Expr
}

func (a *Await) String() string { return fmt.Sprintf("await %s", a.Value) }
func (*Await) exprNode()        {}

// Ternary is `then if test else orelse`.
type Ternary struct {
	base
	Test, Then, Else Expr
}

func (t *Ternary) String() string {
	return fmt.Sprintf("(%s if %s else %s)", t.Then, t.Test, t.Else)
}
func (*Ternary) exprNode() {}

// Comprehension is one `for target in iter if cond...` clause of a
// list/set/dict/generator comprehension.
type Comprehension struct {
	Target   Expr
	Iterable Expr
	Ifs      []Expr
	IsAsync  bool
}

// ComprehensionKind distinguishes the display a comprehension builds.
type ComprehensionKind int

const (
	CompList ComprehensionKind = iota
	CompSet
	CompDict
	CompGenerator
)

// ListComprehension covers list/set/dict/generator comprehensions;
// Element2 is set only for Kind == CompDict (`{k: v for ...}`).
type ListComprehension struct {
	base
	Element  Expr
	Element2 Expr
	Comps    []*Comprehension
	Kind     ComprehensionKind
}

func (l *ListComprehension) String() string { return fmt.Sprintf("<comprehension %d>", l.NodeID) }
func (*ListComprehension) exprNode()         {}

// Lambda is a lambda expression.
type Lambda struct {
	base
	Params []*Param
	Body   Expr
}

func (l *Lambda) String() string { return fmt.Sprintf("lambda: %s", l.Body) }
func (*Lambda) exprNode()        {}

// Assignment is `target = value` read in expression position; the flow
// graph's Assignment antecedent walks these.
type Assignment struct {
	base
	Target Expr
	Value  Expr
}

func (a *Assignment) String() string { return fmt.Sprintf("%s = %s", a.Target, a.Value) }
func (*Assignment) exprNode()        {}

// AssignmentExpression is the walrus operator `target := value`.
type AssignmentExpression struct {
	base
	Target *Name
	Value  Expr
}

func (a *AssignmentExpression) String() string {
	return fmt.Sprintf("(%s := %s)", a.Target, a.Value)
}
func (*AssignmentExpression) exprNode() {}

// Yield is `yield value` or bare `yield`.
type Yield struct {
	base
	Value Expr // nil for bare yield
}

func (y *Yield) String() string { return "yield" }
func (*Yield) exprNode()        {}

// YieldFrom is `yield from expr`.
type YieldFrom struct {
	base
	Value Expr
}

func (y *YieldFrom) String() string { return fmt.Sprintf("yield from %s", y.Value) }
func (*YieldFrom) exprNode()        {}

// Unpack is `*expr` in a call argument or assignment target list.
type Unpack struct {
	base
	Value Expr
}

func (u *Unpack) String() string { return fmt.Sprintf("*%s", u.Value) }
func (*Unpack) exprNode()        {}

// TypeAnnotation is `value: annotation`, e.g. a variable declaration
// with an explicit type, or a Param's annotation slot read generically.
type TypeAnnotation struct {
	base
	Value      Expr
	Annotation Expr
}

func (t *TypeAnnotation) String() string { return fmt.Sprintf("%s: %s", t.Value, t.Annotation) }
func (*TypeAnnotation) exprNode()        {}

// ErrorNode is a parse-error placeholder the evaluator treats as
// Unknown without emitting a secondary diagnostic.
type ErrorNode struct{ base }

func (*ErrorNode) String() string { return "<error>" }
func (*ErrorNode) exprNode()      {}

// ParamCategory distinguishes the parameter-list marker kinds.
type ParamCategory int

const (
	ParamSimple ParamCategory = iota
	ParamPositionalOnlyMarker // bare `/`
	ParamKeywordOnlyMarker    // bare `*`
	ParamVarArg               // *args
	ParamKwArg                // **kwargs
)

// Param is one function parameter.
type Param struct {
	Name       string
	Annotation Expr // nil if unannotated
	Default    Expr // nil if no default
	Category   ParamCategory
	Pos        Pos
}

// ---- Statement / declaration node kinds ----

// FuncDecl is a function or method definition.
type FuncDecl struct {
	base
	Name        string
	Params      []*Param
	ReturnAnnot Expr // nil if unannotated
	Decorators  []Expr
	IsAsync     bool
	IsGenerator bool
	Body        []Stmt
}

func (f *FuncDecl) String() string { return fmt.Sprintf("def %s(...)", f.Name) }
func (*FuncDecl) stmtNode()        {}
func (*FuncDecl) exprNode()        {} // a FuncDecl is itself addressable as a value

// ClassDecl is a class definition.
type ClassDecl struct {
	base
	Name       string
	Bases      []Expr // base-class expressions
	Keywords   []*Argument // e.g. `metaclass=...`, `Protocol[T]` bound keywords
	Decorators []Expr
	Body       []Stmt
}

func (c *ClassDecl) String() string { return fmt.Sprintf("class %s", c.Name) }
func (*ClassDecl) stmtNode()        {}

// AssignStmt is a top-level/suite-level assignment statement.
type AssignStmt struct {
	base
	Targets []Expr
	Value   Expr
}

func (a *AssignStmt) String() string { return fmt.Sprintf("%v = %s", a.Targets, a.Value) }
func (*AssignStmt) stmtNode()        {}

// ExprStmt wraps a bare expression statement.
type ExprStmt struct {
	base
	Value Expr
}

func (e *ExprStmt) String() string { return e.Value.String() }
func (*ExprStmt) stmtNode()        {}

// ReturnStmt and DeleteStmt are the two statement kinds the external
// entry points reason about directly, for return-type inference and
// delete-expression verification respectively.
type ReturnStmt struct {
	base
	Value Expr // nil for bare `return`
}

func (r *ReturnStmt) String() string { return "return" }
func (*ReturnStmt) stmtNode()        {}

type DeleteStmt struct {
	base
	Targets []Expr
}

func (d *DeleteStmt) String() string { return "del ..." }
func (*DeleteStmt) stmtNode()        {}

// IfStmt, WhileStmt, ForStmt, TryStmt carry the suites the flow graph
// builder walks to produce BranchLabel/LoopLabel/PreFinallyGate nodes;
// the core never interprets their control structure directly, only the
// FlowNode DAG attached to each contained expression.
type IfStmt struct {
	base
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (i *IfStmt) String() string { return "if ..." }
func (*IfStmt) stmtNode()        {}

type WhileStmt struct {
	base
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (w *WhileStmt) String() string { return "while ..." }
func (*WhileStmt) stmtNode()        {}

type ForStmt struct {
	base
	Target   Expr
	Iterable Expr
	Body     []Stmt
	Orelse   []Stmt
	IsAsync  bool
}

func (f *ForStmt) String() string { return "for ..." }
func (*ForStmt) stmtNode()        {}

type TryStmt struct {
	base
	Body     []Stmt
	Handlers []*ExceptHandler
	Orelse   []Stmt
	Finally  []Stmt
}

func (t *TryStmt) String() string { return "try ..." }
func (*TryStmt) stmtNode()        {}

// ExceptHandler is one `except <type> as <name>:` clause.
type ExceptHandler struct {
	Type Expr // nil for a bare `except:`
	Name string
	Body []Stmt
}

// File is the root of one module's AST.
type File struct {
	base
	Path string
	Body []Stmt
}

func (f *File) String() string { return f.Path }
func (*File) stmtNode()        {}
