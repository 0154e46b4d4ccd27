package hast

import (
	"testing"

	"reincarnate/internal/ir"
)

func TestRewriteTernaryMatches(t *testing.T) {
	cond := Ident{Name: "c"}
	body := []Stmt{
		If{
			Cond:     cond,
			ThenBody: []Stmt{Assign{Target: Ident{Name: "x"}, Value: Ident{Name: "a"}}},
			ElseBody: []Stmt{Assign{Target: Ident{Name: "x"}, Value: Ident{Name: "b"}}},
		},
	}
	got := RewriteTernary(body)
	if len(got) != 1 {
		t.Fatalf("expected 1 stmt, got %d: %#v", len(got), got)
	}
	assign, ok := got[0].(Assign)
	if !ok {
		t.Fatalf("expected Assign, got %#v", got[0])
	}
	tern, ok := assign.Value.(Ternary)
	if !ok {
		t.Fatalf("expected Ternary value, got %#v", assign.Value)
	}
	if tern.ThenVal != (Ident{Name: "a"}) || tern.ElseVal != (Ident{Name: "b"}) {
		t.Fatalf("unexpected ternary operands: %#v", tern)
	}
}

func TestRewriteTernaryDoesNotMatchDifferentTargets(t *testing.T) {
	body := []Stmt{
		If{
			Cond:     Ident{Name: "c"},
			ThenBody: []Stmt{Assign{Target: Ident{Name: "x"}, Value: Ident{Name: "a"}}},
			ElseBody: []Stmt{Assign{Target: Ident{Name: "y"}, Value: Ident{Name: "b"}}},
		},
	}
	got := RewriteTernary(body)
	if _, ok := got[0].(If); !ok {
		t.Fatalf("expected the If to survive unmatched, got %#v", got[0])
	}
}

func TestRewriteMinMaxRecognizesMax(t *testing.T) {
	a, bVal := Ident{Name: "a"}, Ident{Name: "b"}
	body := []Stmt{
		Assign{
			Target: Ident{Name: "m"},
			Value: Ternary{
				Cond:    Cmp{Kind: ir.CmpGe, Lhs: a, Rhs: bVal},
				ThenVal: a,
				ElseVal: bVal,
			},
		},
	}
	got := RewriteMinMax(body)
	assign := got[0].(Assign)
	call, ok := assign.Value.(Call)
	if !ok || call.Func != "Math.max" {
		t.Fatalf("expected Math.max call, got %#v", assign.Value)
	}
}

func TestRewriteMinMaxRecognizesMinWhenReversed(t *testing.T) {
	a, bVal := Ident{Name: "a"}, Ident{Name: "b"}
	// a >= b ? b : a  ==  min(a, b)
	body := []Stmt{
		Assign{
			Target: Ident{Name: "m"},
			Value: Ternary{
				Cond:    Cmp{Kind: ir.CmpGe, Lhs: a, Rhs: bVal},
				ThenVal: bVal,
				ElseVal: a,
			},
		},
	}
	got := RewriteMinMax(body)
	assign := got[0].(Assign)
	call, ok := assign.Value.(Call)
	if !ok || call.Func != "Math.min" {
		t.Fatalf("expected Math.min call, got %#v", assign.Value)
	}
}

func TestRewriteMinMaxDoesNotMatchUnrelatedTernary(t *testing.T) {
	body := []Stmt{
		Assign{
			Target: Ident{Name: "m"},
			Value: Ternary{
				Cond:    Cmp{Kind: ir.CmpGe, Lhs: Ident{Name: "a"}, Rhs: Ident{Name: "b"}},
				ThenVal: Ident{Name: "c"},
				ElseVal: Ident{Name: "d"},
			},
		},
	}
	got := RewriteMinMax(body)
	if _, ok := got[0].(Assign).Value.(Ternary); !ok {
		t.Fatalf("expected ternary to survive unmatched, got %#v", got[0])
	}
}

func TestRewriteCompoundAssignMatchesLeftOperand(t *testing.T) {
	x := Ident{Name: "x"}
	body := []Stmt{
		Assign{Target: x, Value: Binary{Op: ir.OpAdd, Lhs: x, Rhs: Ident{Name: "y"}}},
	}
	got := RewriteCompoundAssign(body)
	ca, ok := got[0].(CompoundAssign)
	if !ok || ca.Op != ir.OpAdd {
		t.Fatalf("expected CompoundAssign(+=), got %#v", got[0])
	}
}

func TestRewriteCompoundAssignDoesNotMatchRightOperand(t *testing.T) {
	// x = y - x : x is the RIGHT operand of a non-commutative op, so
	// rewriting to `x -= y` would change the computed value.
	x := Ident{Name: "x"}
	body := []Stmt{
		Assign{Target: x, Value: Binary{Op: ir.OpSub, Lhs: Ident{Name: "y"}, Rhs: x}},
	}
	got := RewriteCompoundAssign(body)
	if _, ok := got[0].(Assign); !ok {
		t.Fatalf("expected the Assign to survive unmatched, got %#v", got[0])
	}
}
