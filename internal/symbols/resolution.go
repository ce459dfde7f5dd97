package symbols

import "github.com/typeeval/core/internal/types"

// stackEntry is one frame of the symbol-resolution stack: a
// symbol/declaration pair currently being resolved, used to detect
// self-referential resolution (a class referencing itself in a base
// expression, a variable whose inferred type depends on itself).
type stackEntry struct {
	symbol      *types.Symbol
	declaration *types.Declaration
	valid       bool
	partial     types.Type // non-nil: the partial type offered to recursive requesters
}

// ResolutionStack detects symbol <-> declaration resolution cycles.
// One instance is owned by the evaluator and shared across every
// Effective/DeclaredType call in a single evaluation, the same way the
// evaluator shares one incomplete-type tracker across a run.
type ResolutionStack struct {
	frames []*stackEntry
}

// NewResolutionStack creates an empty stack.
func NewResolutionStack() *ResolutionStack {
	return &ResolutionStack{}
}

// Push attempts to begin resolving (symbol, decl). If the same pair is
// already present deeper in the stack, every intermediate entry is
// marked invalid and Push returns false without pushing a new frame —
// the caller must then fall back to Unknown (or the recursive-class
// partial type, if one was registered) rather than recursing further.
func (r *ResolutionStack) Push(symbol *types.Symbol, decl *types.Declaration, partial types.Type) bool {
	for _, f := range r.frames {
		if f.symbol == symbol && f.declaration == decl {
			for _, mid := range r.frames {
				mid.valid = false
				if mid == f {
					break
				}
			}
			return false
		}
	}
	r.frames = append(r.frames, &stackEntry{symbol: symbol, declaration: decl, valid: true, partial: partial})
	return true
}

// Pop removes the most recently pushed frame. Callers must always Pop
// after a successful Push, in a defer, so the stack unwinds correctly
// even when resolution panics on an internal assertion failure.
func (r *ResolutionStack) Pop() {
	if len(r.frames) == 0 {
		return
	}
	r.frames = r.frames[:len(r.frames)-1]
}

// PartialFor returns the partial type registered for (symbol, decl) if
// it is currently on the stack, used to let a recursive class
// reference resolve to the in-progress Class type instead of Unknown.
func (r *ResolutionStack) PartialFor(symbol *types.Symbol, decl *types.Declaration) (types.Type, bool) {
	for _, f := range r.frames {
		if f.symbol == symbol && f.declaration == decl && f.partial != nil {
			return f.partial, true
		}
	}
	return nil, false
}

// DeclaredType scans typed declarations from the end backward, skipping
// any currently under resolution (as recorded by the resolution
// stack), returning the first valid declared type found.
func DeclaredType(stack *ResolutionStack, symbol *types.Symbol, resolve func(*types.Declaration) types.Type) (types.Type, bool) {
	typed := symbol.TypedDeclarations()
	for i := len(typed) - 1; i >= 0; i-- {
		decl := typed[i]
		if partial, ok := stack.PartialFor(symbol, decl); ok {
			return partial, true
		}
		if !stack.Push(symbol, decl, nil) {
			continue
		}
		t := resolve(decl)
		stack.Pop()
		if t != nil {
			return t, true
		}
	}
	return nil, false
}

// EffectiveType prefers the declared type; otherwise unions the
// inferred type of every declaration, optionally filtering out
// declarations a usage site cannot reach via isReachable (a flow-graph
// reachability check supplied by the caller so this package need not
// depend on internal/flow). cyclical is set when resolution detected a
// cycle, so the caller can attach that fact to the result it reports.
func EffectiveType(
	stack *ResolutionStack,
	symbol *types.Symbol,
	inferDeclared func(*types.Declaration) types.Type,
	inferAssigned func(*types.Declaration) types.Type,
	isReachable func(*types.Declaration) bool,
) (result types.Type, cyclical bool) {
	if t, ok := DeclaredType(stack, symbol, inferDeclared); ok {
		return t, false
	}

	var members []types.Type
	for _, decl := range symbol.Declarations {
		if isReachable != nil && !isReachable(decl) {
			continue
		}
		if !stack.Push(symbol, decl, nil) {
			cyclical = true
			continue
		}
		t := inferAssigned(decl)
		stack.Pop()
		if t != nil {
			members = append(members, t)
		}
	}
	if len(members) == 0 {
		return types.Unknown, cyclical
	}
	return types.NewUnion(members), cyclical
}

// ResolveAlias follows import aliases across modules via the supplied
// lookup, stopping at a local rename unless resolveLocalNames is true.
// A visited set breaks loops by returning the input declaration
// unchanged.
func ResolveAlias(
	decl *types.Declaration,
	resolveLocalNames bool,
	lookup func(modulePath string) (*types.SymbolTable, bool),
) *types.Declaration {
	visited := map[*types.Declaration]bool{}
	cur := decl
	for cur != nil && cur.Kind == types.DeclAlias {
		if visited[cur] {
			return decl
		}
		visited[cur] = true

		if cur.IsLocalRename && !resolveLocalNames {
			return cur
		}

		table, ok := lookup(cur.ModulePath)
		if !ok {
			return cur
		}
		name := cur.TargetSymbolName
		if name == "" {
			return cur
		}
		sym, ok := table.Get(name)
		if !ok || len(sym.Declarations) == 0 {
			return cur
		}
		next := sym.Declarations[len(sym.Declarations)-1]
		if next == cur {
			return cur
		}
		cur = next
	}
	return cur
}
