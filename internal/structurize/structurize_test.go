package structurize

import (
	"testing"

	"reincarnate/internal/ir"
)

// buildDiamond builds entry -> (then, else) -> merge -> ret.
func buildDiamond() (*ir.Function, map[string]ir.BlockId) {
	b := ir.NewFunctionBuilder("diamond", ir.FunctionSig{Params: []ir.Type{ir.TBool{}}, ReturnTy: ir.TVoid{}}, ir.VisPublic)
	cond := b.Param(0)
	thenBlk := b.CreateBlock()
	elseBlk := b.CreateBlock()
	merge := b.CreateBlock()

	b.BrIf(cond, thenBlk, nil, elseBlk, nil)

	b.SwitchToBlock(thenBlk)
	b.Br(merge, nil)

	b.SwitchToBlock(elseBlk)
	b.Br(merge, nil)

	b.SwitchToBlock(merge)
	b.Ret(nil)

	f := b.Build()
	return f, map[string]ir.BlockId{"entry": f.Entry, "then": thenBlk, "else": elseBlk, "merge": merge}
}

func TestStructurizeSingleBlock(t *testing.T) {
	b := ir.NewFunctionBuilder("id", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	a := b.Param(0)
	b.Ret(&a)
	f := b.Build()

	shape := Structurize(f)
	blk, ok := shape.(Block)
	if !ok {
		t.Fatalf("expected Block, got %T", shape)
	}
	if blk.BlockId != f.Entry {
		t.Fatalf("expected entry block, got %v", blk.BlockId)
	}
}

func TestStructurizeDiamondProducesIfElse(t *testing.T) {
	f, blk := buildDiamond()
	shape := Structurize(f)

	seq, ok := shape.(Seq)
	if !ok || len(seq.Shapes) != 2 {
		t.Fatalf("expected Seq[IfElse, merge block] at top level, got %#v", shape)
	}
	ifElse, ok := seq.Shapes[0].(IfElse)
	if !ok {
		t.Fatalf("expected IfElse first in the top-level Seq, got %T", seq.Shapes[0])
	}
	if mergeBody, ok := seq.Shapes[1].(Block); !ok || mergeBody.BlockId != blk["merge"] {
		t.Fatalf("expected the merge block to follow the if/else, got %#v", seq.Shapes[1])
	}
	if ifElse.BlockId != blk["entry"] {
		t.Fatalf("expected if/else rooted at entry, got %v", ifElse.BlockId)
	}
	thenBody, ok := ifElse.ThenBody.(Block)
	if !ok || thenBody.BlockId != blk["then"] {
		t.Fatalf("expected then body to be the then block, got %#v", ifElse.ThenBody)
	}
	elseBody, ok := ifElse.ElseBody.(Block)
	if !ok || elseBody.BlockId != blk["else"] {
		t.Fatalf("expected else body to be the else block, got %#v", ifElse.ElseBody)
	}
}

func TestStructurizeIsIdempotent(t *testing.T) {
	f, _ := buildDiamond()
	first := Structurize(f)
	second := Structurize(f)

	if !shapesEqual(first, second) {
		t.Fatal("expected two runs over the same function to produce equal shape trees")
	}
}

// buildCountingLoop builds a for-style counting loop:
//
//	entry: br header(0)
//	header(i): brif (i < n) body else exit
//	body: br header(i+1)
//	exit: ret i
func buildCountingLoop() (*ir.Function, map[string]ir.BlockId) {
	b := ir.NewFunctionBuilder("count", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	n := b.Param(0)
	header, headerParams := b.CreateBlockWithParams([]ir.Type{ir.TInt{Bits: 64}})
	body := b.CreateBlock()
	exit := b.CreateBlock()

	zero := b.ConstInt(0)
	b.Br(header, []ir.ValueId{zero})

	b.SwitchToBlock(header)
	i := headerParams[0]
	cond := b.Cmp(ir.CmpLt, i, n)
	b.BrIf(cond, body, nil, exit, nil)

	b.SwitchToBlock(body)
	one := b.ConstInt(1)
	next := b.Add(i, one)
	b.Br(header, []ir.ValueId{next})

	b.SwitchToBlock(exit)
	b.Ret(&i)

	f := b.Build()
	return f, map[string]ir.BlockId{"entry": f.Entry, "header": header, "body": body, "exit": exit}
}

func TestStructurizeRecognizesForLoop(t *testing.T) {
	f, blk := buildCountingLoop()
	shape := Structurize(f)

	seq, ok := shape.(Seq)
	if !ok {
		t.Fatalf("expected a Seq of [entry block, loop, exit], got %T", shape)
	}
	var found *ForLoop
	for _, part := range seq.Shapes {
		if fl, ok := part.(ForLoop); ok {
			found = &fl
		}
	}
	if found == nil {
		t.Fatalf("expected a ForLoop shape among %#v", seq.Shapes)
	}
	if found.Header != blk["header"] {
		t.Fatalf("expected loop header %v, got %v", blk["header"], found.Header)
	}
	if len(found.InitAssigns) != 1 || len(found.UpdateAssigns) != 1 {
		t.Fatalf("expected one init and one update assign, got %d/%d", len(found.InitAssigns), len(found.UpdateAssigns))
	}
}

func shapesEqual(a, b Shape) bool {
	switch av := a.(type) {
	case Block:
		bv, ok := b.(Block)
		return ok && av.BlockId == bv.BlockId
	case Seq:
		bv, ok := b.(Seq)
		if !ok || len(av.Shapes) != len(bv.Shapes) {
			return false
		}
		for i := range av.Shapes {
			if !shapesEqual(av.Shapes[i], bv.Shapes[i]) {
				return false
			}
		}
		return true
	case IfElse:
		bv, ok := b.(IfElse)
		return ok && av.BlockId == bv.BlockId && av.Cond == bv.Cond &&
			shapesEqual(av.ThenBody, bv.ThenBody) && shapesEqual(av.ElseBody, bv.ElseBody)
	case ForLoop:
		bv, ok := b.(ForLoop)
		return ok && av.Header == bv.Header && shapesEqual(av.Body, bv.Body)
	case WhileLoop:
		bv, ok := b.(WhileLoop)
		return ok && av.Header == bv.Header && shapesEqual(av.Body, bv.Body)
	case Loop:
		bv, ok := b.(Loop)
		return ok && av.Header == bv.Header && shapesEqual(av.Body, bv.Body)
	case Dispatch:
		bv, ok := b.(Dispatch)
		return ok && av.Entry == bv.Entry && len(av.Blocks) == len(bv.Blocks)
	default:
		return a == b
	}
}
