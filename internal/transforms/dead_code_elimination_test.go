package transforms

import (
	"testing"

	"reincarnate/internal/ir"
)

func TestDeadCodeEliminationRemovesUnusedPureValue(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPrivate)
	live := fb.ConstInt(1)
	_ = fb.ConstInt(2) // dead: never read
	fb.Ret(&live)
	module := buildModule(fb.Build())

	result, err := (DeadCodeElimination{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Fatal("expected the unused const to be removed")
	}
	f := result.Module.Functions.Get(0)
	entry := f.Blocks.Get(f.Entry)
	if len(entry.Insts) != 2 {
		t.Fatalf("expected 2 surviving insts (live const + return), got %d", len(entry.Insts))
	}
}

func TestDeadCodeEliminationKeepsSideEffects(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TVoid{}}, ir.VisPrivate)
	ptr := fb.Alloc(ir.TInt{Bits: 64})
	v := fb.ConstInt(7)
	fb.Store(ptr, v) // impure, result discarded but must survive
	fb.Ret(nil)
	module := buildModule(fb.Build())

	result, err := (DeadCodeElimination{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	f := result.Module.Functions.Get(0)
	entry := f.Blocks.Get(f.Entry)
	foundStore := false
	for _, iid := range entry.Insts {
		if _, ok := f.Insts.Get(iid).Op.(ir.OpStoreInst); ok {
			foundStore = true
		}
	}
	if !foundStore {
		t.Fatal("Store must never be eliminated as dead code")
	}
}

func TestDeadCodeEliminationIdempotent(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPrivate)
	live := fb.ConstInt(1)
	_ = fb.ConstInt(2)
	fb.Ret(&live)
	module := buildModule(fb.Build())

	once, _ := (DeadCodeElimination{}).Apply(module)
	twice, _ := (DeadCodeElimination{}).Apply(once.Module)
	if twice.Changed {
		t.Fatal("DeadCodeElimination composed with itself should report no further change")
	}
}
