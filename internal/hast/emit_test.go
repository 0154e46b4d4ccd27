package hast

import (
	"testing"

	"reincarnate/internal/ir"
	"reincarnate/internal/linear"
	"reincarnate/internal/structurize"
)

func lowerFull(f *ir.Function) []Stmt {
	shape := structurize.Structurize(f)
	stmts := linear.Linearize(f, shape)
	resolved := linear.Resolve(f, stmts)
	return Emit(f, resolved, EmitConfig{WhileConditionHoisting: true, LogicalOperators: true})
}

func TestEmitSimpleBlock(t *testing.T) {
	b := ir.NewFunctionBuilder("add", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}, ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	a := b.Param(0)
	bb := b.Param(1)
	sum := b.Add(a, bb)
	b.Ret(&sum)
	f := b.Build()

	got := lowerFull(f)
	if len(got) != 1 {
		t.Fatalf("expected a single Return (the sum is single-use and inlines), got %d: %#v", len(got), got)
	}
	ret, ok := got[0].(Return)
	if !ok {
		t.Fatalf("expected Return, got %#v", got[0])
	}
	bin, ok := ret.Value.(Binary)
	if !ok || bin.Op != ir.OpAdd {
		t.Fatalf("expected inlined Binary(add), got %#v", ret.Value)
	}
}

func TestEmitIfElse(t *testing.T) {
	b := ir.NewFunctionBuilder("choose", ir.FunctionSig{Params: []ir.Type{ir.TBool{}, ir.TInt{Bits: 64}, ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	cond := b.Param(0)
	x := b.Param(1)
	y := b.Param(2)

	thenBlk, thenVals := b.CreateBlockWithParams([]ir.Type{ir.TInt{Bits: 64}})
	elseBlk, elseVals := b.CreateBlockWithParams([]ir.Type{ir.TInt{Bits: 64}})

	b.BrIf(cond, thenBlk, []ir.ValueId{x}, elseBlk, []ir.ValueId{y})

	b.SwitchToBlock(thenBlk)
	b.Ret(&thenVals[0])

	b.SwitchToBlock(elseBlk)
	b.Ret(&elseVals[0])

	f := b.Build()
	got := lowerFull(f)

	var ifStmt If
	found := false
	for _, s := range got {
		if iff, ok := s.(If); ok {
			ifStmt = iff
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an If in emitted output: %#v", got)
	}
	if len(ifStmt.ThenBody) != 2 || len(ifStmt.ElseBody) != 2 {
		t.Fatalf("expected each branch to assign its block param and then return, got then=%#v else=%#v", ifStmt.ThenBody, ifStmt.ElseBody)
	}
	for _, branch := range [][]Stmt{ifStmt.ThenBody, ifStmt.ElseBody} {
		if _, ok := branch[0].(Assign); !ok {
			t.Fatalf("expected the branch to start with the block-param Assign, got %#v", branch[0])
		}
		if _, ok := branch[1].(Return); !ok {
			t.Fatalf("expected the branch to end with a Return, got %#v", branch[1])
		}
	}
}

func TestEmitWhileLoopHeaderRunsEveryIteration(t *testing.T) {
	// while (i < n) { i = i + 1 }
	b := ir.NewFunctionBuilder("countUp", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	n := b.Param(0)
	zero := b.ConstInt(0)

	header, headerParams := b.CreateBlockWithParams([]ir.Type{ir.TInt{Bits: 64}})
	body := b.CreateBlock()
	exit, exitParams := b.CreateBlockWithParams([]ir.Type{ir.TInt{Bits: 64}})

	b.Br(header, []ir.ValueId{zero})

	b.SwitchToBlock(header)
	i := headerParams[0]
	cond := b.Cmp(ir.CmpLt, i, n)
	b.BrIf(cond, body, nil, exit, []ir.ValueId{i})

	b.SwitchToBlock(body)
	one := b.ConstInt(1)
	next := b.Add(i, one)
	b.Br(header, []ir.ValueId{next})

	b.SwitchToBlock(exit)
	b.Ret(&exitParams[0])

	f := b.Build()
	got := lowerFull(f)

	var while While
	found := false
	for _, s := range got {
		if w, ok := s.(While); ok {
			while = w
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a While in emitted output: %#v", got)
	}
	// The header recomputes cond; it must appear again at the tail of
	// the body so the condition is re-evaluated every iteration.
	hasLet := false
	for _, s := range while.Body {
		if _, ok := s.(Let); ok {
			hasLet = true
		}
	}
	if !hasLet {
		t.Fatalf("expected the rotated header's Let(s) inside the while body, got %#v", while.Body)
	}
}

func TestEmitWhileNotHoistedUsesLoopAndBreak(t *testing.T) {
	b := ir.NewFunctionBuilder("countUp", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	n := b.Param(0)
	zero := b.ConstInt(0)

	header, headerParams := b.CreateBlockWithParams([]ir.Type{ir.TInt{Bits: 64}})
	body := b.CreateBlock()
	exit, exitParams := b.CreateBlockWithParams([]ir.Type{ir.TInt{Bits: 64}})

	b.Br(header, []ir.ValueId{zero})

	b.SwitchToBlock(header)
	i := headerParams[0]
	cond := b.Cmp(ir.CmpLt, i, n)
	b.BrIf(cond, body, nil, exit, []ir.ValueId{i})

	b.SwitchToBlock(body)
	one := b.ConstInt(1)
	next := b.Add(i, one)
	b.Br(header, []ir.ValueId{next})

	b.SwitchToBlock(exit)
	b.Ret(&exitParams[0])

	f := b.Build()
	shape := structurize.Structurize(f)
	stmts := linear.Linearize(f, shape)
	resolved := linear.Resolve(f, stmts)
	got := Emit(f, resolved, EmitConfig{WhileConditionHoisting: false})

	var loop Loop
	found := false
	for _, s := range got {
		if l, ok := s.(Loop); ok {
			loop = l
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Loop (unhoisted form) in emitted output: %#v", got)
	}
	hasBreakGuard := false
	for _, s := range loop.Body {
		if iff, ok := s.(If); ok {
			for _, t := range iff.ThenBody {
				if _, ok := t.(Break); ok {
					hasBreakGuard = true
				}
			}
		}
	}
	if !hasBreakGuard {
		t.Fatalf("expected a leading if/break guard inside the loop body, got %#v", loop.Body)
	}
}

func TestEmitLetForMultiUseValue(t *testing.T) {
	// v = a + b; return v * v  (v has two uses, so it must get a Let)
	b := ir.NewFunctionBuilder("square_sum", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}, ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	a := b.Param(0)
	x := b.Param(1)
	v := b.Add(a, x)
	sq := b.Mul(v, v)
	b.Ret(&sq)
	f := b.Build()

	got := lowerFull(f)
	hasLet := false
	for _, s := range got {
		if _, ok := s.(Let); ok {
			hasLet = true
		}
	}
	if !hasLet {
		t.Fatalf("expected a Let binding for the multi-use sum, got %#v", got)
	}
}
