package synthesis

import (
	"testing"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/types"
)

func fieldSymbol(hasDefault, isClassVar bool) *types.Symbol {
	decl := &types.Declaration{}
	if hasDefault {
		decl.InferredTypeSource = &ast.Constant{}
	}
	flags := types.SymbolFlags(0)
	if isClassVar {
		flags |= types.SymbolFlagClassVar
	}
	return &types.Symbol{Declarations: []*types.Declaration{decl}, Flags: flags, SynthesizedType: types.AnySimple}
}

func TestDataclassOrdersParamsAndFlagsMissingDefault(t *testing.T) {
	details := &types.ClassDetails{Name: "Point", Fields: types.NewSymbolTable()}
	details.Fields.Set("x", fieldSymbol(false, false))
	details.Fields.Set("y", fieldSymbol(true, false))
	details.Fields.Set("z", fieldSymbol(false, false))

	sink := diagnostics.NewSink()
	fn := Dataclass(sink, details)

	if fn.Details.Name != "__init__" {
		t.Fatalf("expected __init__, got %s", fn.Details.Name)
	}
	if len(fn.Details.Parameters) != 4 {
		t.Fatalf("expected self + 3 fields, got %d", len(fn.Details.Parameters))
	}
	if fn.Details.Parameters[0].Name != "self" {
		t.Fatalf("expected self first, got %s", fn.Details.Parameters[0].Name)
	}

	found := false
	for _, r := range sink.Reports() {
		if r.Code == diagnostics.SYN001 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a SYN001 report for z following a defaulted field")
	}
}

func TestDataclassSkipsClassVarFields(t *testing.T) {
	details := &types.ClassDetails{Name: "Config", Fields: types.NewSymbolTable()}
	details.Fields.Set("count", fieldSymbol(false, false))
	details.Fields.Set("VERSION", fieldSymbol(true, true))

	fn := Dataclass(nil, details)
	if len(fn.Details.Parameters) != 2 {
		t.Fatalf("expected self + count only, got %d params", len(fn.Details.Parameters))
	}
}

func TestTypedDictMembersFlagsConflictingInheritedKeys(t *testing.T) {
	base1 := &types.ClassDetails{Name: "A", Fields: types.NewSymbolTable()}
	sym1 := &types.Symbol{SynthesizedType: types.None}
	base1.Fields.Set("id", sym1)

	base2 := &types.ClassDetails{Name: "B", Fields: types.NewSymbolTable()}
	sym2 := &types.Symbol{SynthesizedType: types.AnySimple}
	base2.Fields.Set("id", sym2)

	details := &types.ClassDetails{
		Name:  "Merged",
		Bases: []*types.ClassType{{Details: base1}, {Details: base2}},
		Fields: types.NewSymbolTable(),
	}

	sink := diagnostics.NewSink()
	members := TypedDictMembers(sink, details)
	if members.Len() != 1 {
		t.Fatalf("expected one merged key, got %d", members.Len())
	}
	if len(sink.Reports()) != 1 || sink.Reports()[0].Code != diagnostics.SYN002 {
		t.Fatalf("expected a SYN002 conflict report, got %v", sink.Reports())
	}
}

func TestEnumMembersCarryDistinctLiterals(t *testing.T) {
	details := &types.ClassDetails{Name: "Color", Fields: types.NewSymbolTable()}
	members := EnumMembers(details, []string{"RED", "GREEN"})

	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	red := members["RED"].SynthesizedType.(*types.ObjectType)
	green := members["GREEN"].SynthesizedType.(*types.ObjectType)
	if red.Equals(green) {
		t.Fatal("expected distinct enum members to carry distinct literal types")
	}
	if !members["RED"].Flags.Has(types.SymbolFlagFinal) {
		t.Fatal("expected enum members to be final")
	}
}

func TestNamedTupleBuildsPositionalConstructor(t *testing.T) {
	details := &types.ClassDetails{Name: "Pair", Fields: types.NewSymbolTable()}
	details.Fields.Set("first", fieldSymbol(false, false))
	details.Fields.Set("second", fieldSymbol(false, false))

	fn := NamedTuple(details)
	if len(fn.Details.Parameters) != 3 {
		t.Fatalf("expected self + 2 fields, got %d", len(fn.Details.Parameters))
	}
}
