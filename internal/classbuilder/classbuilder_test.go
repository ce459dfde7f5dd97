package classbuilder

import (
	"testing"

	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/types"
)

func objectDetails() *types.ClassDetails {
	d := &types.ClassDetails{Name: "object", Fields: types.NewSymbolTable()}
	d.MRO = []*types.ClassDetails{d}
	return d
}

func classOver(name string, bases ...*types.ClassDetails) *types.ClassDetails {
	classTypes := make([]*types.ClassType, len(bases))
	for i, b := range bases {
		classTypes[i] = &types.ClassType{Details: b}
	}
	return &types.ClassDetails{Name: name, Bases: classTypes, Fields: types.NewSymbolTable()}
}

func TestBuildMRO_LinearDiamond(t *testing.T) {
	object := objectDetails()
	a := classOver("A", object)
	b := New(nil)
	b.BuildMRO(a)

	base := classOver("Base", object)
	bld := New(nil)
	bld.BuildMRO(base)

	left := classOver("Left", base)
	New(nil).BuildMRO(left)
	right := classOver("Right", base)
	New(nil).BuildMRO(right)

	child := classOver("Child", left, right)
	New(nil).BuildMRO(child)

	if child.MROError != "" {
		t.Fatalf("unexpected MRO error: %s", child.MROError)
	}
	names := make([]string, len(child.MRO))
	for i, d := range child.MRO {
		names[i] = d.Name
	}
	want := []string{"Child", "Left", "Right", "Base", "object"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestBuildMRO_InconsistentOrderReportsError(t *testing.T) {
	object := objectDetails()
	x := classOver("X", object)
	New(nil).BuildMRO(x)
	y := classOver("Y", object)
	New(nil).BuildMRO(y)

	// A declares (X, Y); B declares (Y, X) - conflicting precedence.
	a := classOver("A", x, y)
	New(nil).BuildMRO(a)
	bOnly := classOver("B", y, x)
	New(nil).BuildMRO(bOnly)

	sink := diagnostics.NewSink()
	conflict := classOver("Conflict", a, bOnly)
	New(sink).BuildMRO(conflict)

	if conflict.MROError == "" {
		t.Fatal("expected an MRO error for inconsistent base ordering")
	}
	if len(sink.Reports()) != 1 || sink.Reports()[0].Code != diagnostics.MRO001 {
		t.Fatalf("expected one MRO001 report, got %v", sink.Reports())
	}
}

func TestApplyDecoratorsSetsDataClassFlag(t *testing.T) {
	d := &types.ClassDetails{Name: "Point", Fields: types.NewSymbolTable()}
	New(nil).ApplyDecorators(d, []string{"dataclass"})
	if !d.Flags.Has(types.ClassFlagDataClass) {
		t.Fatal("expected ClassFlagDataClass to be set")
	}
}

func TestIsPseudoGeneric(t *testing.T) {
	object := objectDetails()
	generic := classOver("Box", object)
	generic.TypeParams = []*types.TypeVarType{{Name: "T", Scope: "Box"}}

	specialized := &types.ClassType{Details: generic, TypeArgs: []types.Type{types.NewInstance(&types.ClassType{Details: &types.ClassDetails{Name: "int"}})}}
	intBox := &types.ClassDetails{Name: "IntBox", Bases: []*types.ClassType{specialized}, Fields: types.NewSymbolTable()}

	if !IsPseudoGeneric(intBox) {
		t.Fatal("expected IntBox to be pseudo-generic")
	}
	if IsPseudoGeneric(generic) {
		t.Fatal("did not expect Box itself to be pseudo-generic")
	}
}

func TestBindMethodHidesFirstParamUnlessStatic(t *testing.T) {
	fn := &types.FunctionType{Details: &types.FunctionDetails{Name: "m"}}
	bound := BindMethod(fn, false)
	if !bound.IgnoreFirstParam {
		t.Fatal("expected instance method binding to ignore the first parameter")
	}
	static := BindMethod(fn, true)
	if static.IgnoreFirstParam {
		t.Fatal("expected staticmethod binding to leave parameters untouched")
	}
}
