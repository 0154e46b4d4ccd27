package transforms

import (
	"testing"

	"reincarnate/internal/ir"
)

func buildModule(fn *ir.Function) *ir.Module {
	mb := ir.NewModuleBuilder("test")
	mb.AddFunction(fn)
	return mb.Build()
}

func TestConstantFoldingAddition(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPrivate)
	a := fb.ConstInt(2)
	b := fb.ConstInt(3)
	sum := fb.Add(a, b)
	fb.Ret(&sum)
	module := buildModule(fb.Build())

	result, err := (ConstantFolding{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Fatal("expected a change")
	}

	f := result.Module.Functions.Get(0)
	entry := f.Blocks.Get(f.Entry)
	retInst := f.Insts.Get(entry.Insts[len(entry.Insts)-1])
	ret := retInst.Op.(ir.OpReturnInst)
	foldedInst := f.Insts.Get(findDefiningInst(&f, *ret.Value))
	c, ok := foldedInst.Op.(ir.OpConstInst)
	if !ok {
		t.Fatalf("expected folded result to be a Const, got %T", foldedInst.Op)
	}
	if c.Value.Int != 5 {
		t.Fatalf("expected 5, got %d", c.Value.Int)
	}
}

func TestConstantFoldingDivisionByZeroNotFolded(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPrivate)
	a := fb.ConstInt(10)
	zero := fb.ConstInt(0)
	q := fb.Div(a, zero)
	fb.Ret(&q)
	module := buildModule(fb.Build())

	result, err := (ConstantFolding{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Fatal("division by zero must never be folded")
	}
}

func TestConstantFoldingNaNComparison(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TBool{}}, ir.VisPrivate)
	nan := fb.ConstFloat(nan())
	eq := fb.Cmp(ir.CmpEq, nan, nan)
	fb.Ret(&eq)
	module := buildModule(fb.Build())

	result, _ := (ConstantFolding{}).Apply(module)
	if !result.Changed {
		t.Fatal("expected NaN==NaN to fold")
	}
	f := result.Module.Functions.Get(0)
	inst := f.Insts.Get(findDefiningInst(&f, eq))
	c := inst.Op.(ir.OpConstInst)
	if c.Value.Bool {
		t.Fatal("NaN == NaN must fold to false")
	}
}

func TestConstantFoldingIdempotent(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPrivate)
	a := fb.ConstInt(2)
	b := fb.ConstInt(3)
	sum := fb.Add(a, b)
	fb.Ret(&sum)
	module := buildModule(fb.Build())

	once, _ := (ConstantFolding{}).Apply(module)
	twice, _ := (ConstantFolding{}).Apply(once.Module)
	if twice.Changed {
		t.Fatal("ConstantFolding composed with itself should report no further change")
	}
}

func findDefiningInst(f *ir.Function, v ir.ValueId) ir.InstId {
	var found ir.InstId
	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			if inst := f.Insts.Get(iid); inst.Result != nil && *inst.Result == v {
				found = iid
			}
		}
	})
	return found
}

func nan() float64 {
	var zero float64
	return zero / zero
}
