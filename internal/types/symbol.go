package types

import "github.com/typeeval/core/internal/ast"

// DeclarationKind tags the kind of binding a Declaration records.
type DeclarationKind int

const (
	DeclVariable DeclarationKind = iota
	DeclParameter
	DeclFunction
	DeclClass
	DeclAlias
	DeclIntrinsic
	DeclSpecialBuiltInClass
)

// Declaration is an immutable record with a stable reference back to
// its AST node. Kind-specific fields not shared by every kind (alias
// module path, variable constness) are optional and only meaningful
// for their matching Kind.
type Declaration struct {
	Kind DeclarationKind
	Node ast.Node

	// Alias-specific.
	ModulePath       string
	IsLocalRename    bool
	SubmoduleFallback bool
	TargetSymbolName string

	// Variable-specific.
	IsConstant          bool
	TypeAnnotationNode  ast.Expr
	InferredTypeSource  ast.Expr
}

// SymbolFlags are boolean facts about a Symbol's binding.
type SymbolFlags uint32

const (
	SymbolFlagClassMember SymbolFlags = 1 << iota
	SymbolFlagInstanceMember
	SymbolFlagClassVar
	SymbolFlagFinal
	SymbolFlagPrivate
	SymbolFlagSynthesized
	SymbolFlagIgnoredForProtocolMatch
	// SymbolFlagTypedDictNotRequired marks a TypedDict key declared with
	// NotRequired[...] (or total=False): absent on the Required side of
	// the structural comparison internal/assignability performs.
	SymbolFlagTypedDictNotRequired
)

func (f SymbolFlags) Has(bit SymbolFlags) bool { return f&bit != 0 }

// Symbol is a named binding carrying its ordered declarations.
type Symbol struct {
	Name            string
	Declarations    []*Declaration
	Flags           SymbolFlags
	SynthesizedType Type // non-nil for compiler-synthesized members
}

// TypedDeclarations returns the subset of s.Declarations that carry an
// explicit type annotation, preserving declaration order.
func (s *Symbol) TypedDeclarations() []*Declaration {
	var out []*Declaration
	for _, d := range s.Declarations {
		if d.TypeAnnotationNode != nil {
			out = append(out, d)
		}
	}
	return out
}

// SymbolTable is a name -> Symbol map owned by its containing scope,
// class, or module. Names() preserves first-insertion order, since
// dataclass/NamedTuple synthesis (internal/synthesis) depends on field
// declaration order to build a positional constructor.
type SymbolTable struct {
	entries map[string]*Symbol
	order   []string
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]*Symbol)}
}

// Get looks up a symbol by name in this table only (no parent walk;
// that's a Scope-level concern owned by internal/symbols).
func (t *SymbolTable) Get(name string) (*Symbol, bool) {
	s, ok := t.entries[name]
	return s, ok
}

// Set inserts or replaces a symbol. Re-setting an existing name does
// not move its position in Names().
func (t *SymbolTable) Set(name string, sym *Symbol) {
	if _, exists := t.entries[name]; !exists {
		t.order = append(t.order, name)
	}
	t.entries[name] = sym
}

// Names returns every bound name in first-insertion order.
func (t *SymbolTable) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len reports the number of bound names.
func (t *SymbolTable) Len() int { return len(t.entries) }
