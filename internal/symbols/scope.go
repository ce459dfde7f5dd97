// Package symbols implements scope chains and the symbol-resolution
// algorithms (declared-type lookup, effective-type union, alias
// resolution, cycle detection) over the Symbol/Declaration records held
// in internal/types. Scope itself is produced by the binder, an
// external collaborator, and consumed read-only here.
package symbols

import "github.com/typeeval/core/internal/types"

// ScopeKind tags the kind of binding region a Scope represents.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeFunction
	ScopeComprehension
	ScopeLambda
)

// Scope is the parent-linked chain the binder attaches to every
// statement and expression: a parent-pointer chain generalized from a
// pure type environment to a full symbol table per level.
type Scope struct {
	Kind    ScopeKind
	Parent  *Scope
	Symbols *types.SymbolTable
}

// NewScope creates a scope linked to the given parent (nil for the
// module's root scope).
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, Symbols: types.NewSymbolTable()}
}

// Lookup walks from this scope outward to the module root, returning
// the first matching Symbol. Class scopes are skipped when resolving
// a name from within a nested function scope, mirroring the host
// language's rule that a method body does not see its class's other
// attributes as bare names — callers that need a class's own members
// resolve through the class's Fields table directly instead of through
// Lookup.
func (s *Scope) Lookup(name string) (*types.Symbol, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == ScopeClass && cur != s {
			continue
		}
		if sym, ok := cur.Symbols.Get(name); ok {
			return sym, cur, true
		}
	}
	return nil, nil, false
}

// Define binds name in this scope, overwriting any existing entry.
func (s *Scope) Define(name string, sym *types.Symbol) {
	s.Symbols.Set(name, sym)
}
