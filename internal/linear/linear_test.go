package linear

import (
	"testing"

	"reincarnate/internal/ir"
	"reincarnate/internal/structurize"
)

func TestLinearizeSimpleBlock(t *testing.T) {
	b := ir.NewFunctionBuilder("add", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}, ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	a := b.Param(0)
	bb := b.Param(1)
	sum := b.Add(a, bb)
	b.Ret(&sum)
	f := b.Build()

	stmts := Linearize(f, structurize.Block{BlockId: f.Entry})
	if len(stmts) != 2 {
		t.Fatalf("expected 2 stmts, got %d: %#v", len(stmts), stmts)
	}
	def, ok := stmts[0].(Def)
	if !ok || def.Result != sum {
		t.Fatalf("expected Def(sum), got %#v", stmts[0])
	}
	ret, ok := stmts[1].(Return)
	if !ok || ret.Value == nil || *ret.Value != sum {
		t.Fatalf("expected Return(sum), got %#v", stmts[1])
	}
}

func TestLinearizeIfElse(t *testing.T) {
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
	shape := structurize.Structurize(f)
	stmts := Linearize(f, shape)

	hasIf := false
	for _, s := range stmts {
		if _, ok := s.(If); ok {
			hasIf = true
		}
	}
	if !hasIf {
		t.Fatalf("expected an If in linearized output: %#v", stmts)
	}
}

func TestLinearizeConstantDef(t *testing.T) {
	b := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	c := b.ConstInt(42)
	b.Ret(&c)
	f := b.Build()

	stmts := Linearize(f, structurize.Block{BlockId: f.Entry})
	if len(stmts) != 2 {
		t.Fatalf("expected 2 stmts, got %d", len(stmts))
	}
	def, ok := stmts[0].(Def)
	if !ok || def.Result != c {
		t.Fatalf("expected Def(c), got %#v", stmts[0])
	}
}

func TestResolveInlinesConstantsAndSingleUseValues(t *testing.T) {
	b := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	one := b.ConstInt(1)
	two := b.ConstInt(2)
	sum := b.Add(one, two)
	b.Ret(&sum)
	f := b.Build()

	stmts := Linearize(f, structurize.Block{BlockId: f.Entry})
	resolved := Resolve(f, stmts)

	if !resolved.Inline[one] || !resolved.Inline[two] {
		t.Fatal("expected both constants to be marked inline")
	}
	if !resolved.Inline[sum] {
		t.Fatal("expected the single-use sum to be marked inline")
	}
}

func TestResolveDropsDeadPureDef(t *testing.T) {
	b := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	a := b.ConstInt(1)
	dead := b.ConstInt(99)
	b.Ret(&a)
	f := b.Build()

	stmts := Linearize(f, structurize.Block{BlockId: f.Entry})
	resolved := Resolve(f, stmts)

	for _, s := range resolved.Stmts {
		if d, ok := s.(Def); ok && d.Result == dead {
			t.Fatal("expected the dead constant def to be dropped")
		}
	}
}

func TestResolveKeepsMultiUseValueUninlined(t *testing.T) {
	b := ir.NewFunctionBuilder("f", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPublic)
	x := b.Param(0)
	one := b.ConstInt(1)
	doubled := b.Add(x, x)
	sum := b.Add(doubled, one)
	b.Ret(&sum)
	f := b.Build()

	stmts := Linearize(f, structurize.Block{BlockId: f.Entry})
	resolved := Resolve(f, stmts)

	if resolved.Inline[x] {
		t.Fatal("a function parameter used twice is not a pure Def and must never be marked inline")
	}
}
