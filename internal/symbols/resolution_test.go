package symbols

import (
	"testing"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/types"
)

func TestScopeLookupSkipsNonImmediateClassScope(t *testing.T) {
	module := NewScope(ScopeModule, nil)
	module.Define("helper", &types.Symbol{Name: "helper"})

	class := NewScope(ScopeClass, module)
	class.Define("field", &types.Symbol{Name: "field"})

	method := NewScope(ScopeFunction, class)

	if _, _, ok := method.Lookup("field"); ok {
		t.Fatal("expected method scope not to see class field as a bare name")
	}
	if _, found, ok := method.Lookup("helper"); !ok || found != module {
		t.Fatal("expected method scope to resolve helper from module scope")
	}
	if sym, found, ok := class.Lookup("field"); !ok || found != class || sym.Name != "field" {
		t.Fatal("expected class scope to resolve its own field directly")
	}
}

func TestDeclaredTypePrefersLastTypedDeclaration(t *testing.T) {
	stack := NewResolutionStack()
	earlier := &types.Declaration{TypeAnnotationNode: &ast.Name{}}
	later := &types.Declaration{TypeAnnotationNode: &ast.Name{}}
	sym := &types.Symbol{Name: "x", Declarations: []*types.Declaration{earlier, later}}

	got, ok := DeclaredType(stack, sym, func(d *types.Declaration) types.Type {
		if d == later {
			return types.AnySimple
		}
		return types.None
	})
	if !ok || got != types.AnySimple {
		t.Fatalf("expected the last typed declaration to win, got %v, ok=%v", got, ok)
	}
}

func TestDeclaredTypeSkipsCyclicalDeclaration(t *testing.T) {
	stack := NewResolutionStack()
	decl := &types.Declaration{TypeAnnotationNode: &ast.Name{}}
	sym := &types.Symbol{Name: "x", Declarations: []*types.Declaration{decl}}

	calls := 0
	resolve := func(d *types.Declaration) types.Type {
		calls++
		// Simulate re-entrant resolution of the same (symbol, decl) pair.
		if !stack.Push(sym, decl, nil) {
			return nil
		}
		stack.Pop()
		return types.AnySimple
	}

	stack.Push(sym, decl, nil)
	_, ok := DeclaredType(stack, sym, resolve)
	stack.Pop()

	if ok {
		t.Fatal("expected a cyclical declaration lookup to fail rather than recurse forever")
	}
}

func TestEffectiveTypeUnionsReachableAssignments(t *testing.T) {
	stack := NewResolutionStack()
	d1 := &types.Declaration{}
	d2 := &types.Declaration{}
	d3 := &types.Declaration{}
	sym := &types.Symbol{Name: "x", Declarations: []*types.Declaration{d1, d2, d3}}

	reachable := map[*types.Declaration]bool{d1: true, d2: false, d3: true}
	assigned := map[*types.Declaration]types.Type{
		d1: types.NewInstance(intClass()),
		d3: types.None,
	}

	result, cyclical := EffectiveType(
		stack, sym,
		func(*types.Declaration) types.Type { return nil },
		func(d *types.Declaration) types.Type { return assigned[d] },
		func(d *types.Declaration) bool { return reachable[d] },
	)
	if cyclical {
		t.Fatal("did not expect a cycle")
	}
	union, ok := result.(*types.UnionType)
	if !ok || len(union.Subtypes) != 2 {
		t.Fatalf("expected a two-member union of reachable assignments, got %v", result)
	}
}

func TestEffectiveTypeFallsBackToUnknownWithNoDeclarations(t *testing.T) {
	stack := NewResolutionStack()
	sym := &types.Symbol{Name: "x"}

	result, cyclical := EffectiveType(stack, sym,
		func(*types.Declaration) types.Type { return nil },
		func(*types.Declaration) types.Type { return nil },
		nil,
	)
	if cyclical {
		t.Fatal("did not expect a cycle")
	}
	if result != types.Unknown {
		t.Fatalf("expected Unknown, got %v", result)
	}
}

func TestResolveAliasFollowsChainAcrossModules(t *testing.T) {
	targetSym := &types.Symbol{
		Name: "real",
		Declarations: []*types.Declaration{
			{Kind: types.DeclFunction},
		},
	}
	targetTable := types.NewSymbolTable()
	targetTable.Set("real", targetSym)

	alias := &types.Declaration{
		Kind:             types.DeclAlias,
		ModulePath:       "pkg.mod",
		TargetSymbolName: "real",
	}

	lookup := func(path string) (*types.SymbolTable, bool) {
		if path == "pkg.mod" {
			return targetTable, true
		}
		return nil, false
	}

	resolved := ResolveAlias(alias, true, lookup)
	if resolved != targetSym.Declarations[0] {
		t.Fatal("expected alias to resolve through to the target declaration")
	}
}

func TestResolveAliasStopsAtLocalRenameUnlessRequested(t *testing.T) {
	alias := &types.Declaration{
		Kind:          types.DeclAlias,
		IsLocalRename: true,
		ModulePath:    "pkg.mod",
	}
	lookup := func(string) (*types.SymbolTable, bool) {
		t.Fatal("lookup should not be called for a local rename when not requested")
		return nil, false
	}
	if got := ResolveAlias(alias, false, lookup); got != alias {
		t.Fatal("expected local rename to be returned unchanged")
	}
}

func TestResolveAliasBreaksLoops(t *testing.T) {
	a := &types.Declaration{Kind: types.DeclAlias, ModulePath: "m", TargetSymbolName: "b"}
	var bSym *types.Symbol
	table := types.NewSymbolTable()
	lookup := func(string) (*types.SymbolTable, bool) { return table, true }

	b := &types.Declaration{Kind: types.DeclAlias, ModulePath: "m", TargetSymbolName: "a"}
	bSym = &types.Symbol{Name: "b", Declarations: []*types.Declaration{b}}
	table.Set("b", bSym)
	aSym := &types.Symbol{Name: "a", Declarations: []*types.Declaration{a}}
	table.Set("a", aSym)

	got := ResolveAlias(a, true, lookup)
	if got != a {
		t.Fatalf("expected loop to be broken and the original declaration returned, got %v", got)
	}
}

func intClass() *types.ClassType {
	return &types.ClassType{Details: &types.ClassDetails{Name: "int", Fields: types.NewSymbolTable()}}
}
