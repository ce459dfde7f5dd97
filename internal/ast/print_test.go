package ast

import (
	"strings"
	"testing"
)

func TestClassDecl_Print(t *testing.T) {
	decl := &ClassDecl{
		Name:  "Point",
		Bases: []Expr{&Name{Value: "object"}},
		Body: []Stmt{
			&AssignStmt{
				Targets: []Expr{&Name{Value: "x"}},
				Value:   &Number{Raw: "0", IsInt: true},
			},
		},
	}

	output := Print(decl)
	if output == "" {
		t.Fatal("Print returned empty string")
	}
	for _, want := range []string{"ClassDecl", "Point", "object"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestFuncDecl_WithReturnAnnotation(t *testing.T) {
	decl := &FuncDecl{
		Name: "identity",
		Params: []*Param{
			{Name: "x", Annotation: &Name{Value: "int"}},
		},
		ReturnAnnot: &Name{Value: "int"},
		Body: []Stmt{
			&ReturnStmt{Value: &Name{Value: "x"}},
		},
	}

	output := Print(decl)
	for _, want := range []string{"FuncDecl", "identity", "returns", "params"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestTuple_Print(t *testing.T) {
	tuple := &Tuple{
		Elements: []Expr{
			&Number{Raw: "1", IsInt: true},
			&Number{Raw: "2", IsInt: true},
			&Number{Raw: "3", IsInt: true},
		},
	}

	output := Print(tuple)
	for _, want := range []string{"Tuple", "elements"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestMatchStmt_ClassPattern(t *testing.T) {
	stmt := &MatchStmt{
		Subject: &Name{Value: "shape"},
		Cases: []*MatchCase{
			{
				Pattern: &ClassPattern{
					Class: &Name{Value: "Circle"},
					Keywords: []*ClassKeywordPattern{
						{Name: "radius", Pattern: &CapturePattern{Name: "r"}},
					},
				},
				Body: []Stmt{&ExprStmt{Value: &Name{Value: "r"}}},
			},
			{
				Pattern: &WildcardPattern{},
				Body:    []Stmt{&ExprStmt{Value: &Constant{Kind: ConstNone}}},
			},
		},
	}

	output := Print(stmt)
	for _, want := range []string{"MatchStmt", "ClassPattern", "Circle", "radius", "WildcardPattern"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestDeterministicMarshaling(t *testing.T) {
	decl := &ClassDecl{
		Name:  "Result",
		Bases: []Expr{&Name{Value: "Generic"}},
	}

	baseline := Print(decl)
	for i := 0; i < 50; i++ {
		if got := Print(decl); got != baseline {
			t.Fatalf("iteration %d produced different output:\nbaseline: %s\ngot: %s", i, baseline, got)
		}
	}
}
