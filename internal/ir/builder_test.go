package ir

import "testing"

func buildAddFunction() *Function {
	b := NewFunctionBuilder("add_consts", FunctionSig{ReturnTy: TInt{Bits: 64}}, VisPublic)
	v1 := b.ConstInt(1)
	v2 := b.ConstInt(2)
	v3 := b.Add(v1, v2)
	b.Ret(&v3)
	return b.Build()
}

func TestBuilderProducesWellFormedFunction(t *testing.T) {
	f := buildAddFunction()
	if err := Verify(f); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if f.Blocks.Len() != 1 {
		t.Fatalf("expected 1 block, got %d", f.Blocks.Len())
	}
	if f.Insts.Len() != 4 {
		t.Fatalf("expected 4 insts (2 const, 1 add, 1 ret), got %d", f.Insts.Len())
	}
}

func TestEmitAfterTerminatorPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when emitting after a terminator")
		}
	}()
	b := NewFunctionBuilder("bad", FunctionSig{ReturnTy: TVoid{}}, VisPublic)
	b.Ret(nil)
	b.ConstInt(1)
}

func TestBranchToBlockWithParams(t *testing.T) {
	b := NewFunctionBuilder("diamond", FunctionSig{Params: []Type{TBool{}}, ReturnTy: TInt{Bits: 64}}, VisPublic)
	cond := b.Param(0)
	thenBlk := b.CreateBlock()
	elseBlk := b.CreateBlock()
	merge, mergeArgs := b.CreateBlockWithParams([]Type{TInt{Bits: 64}})

	b.BrIf(cond, thenBlk, nil, elseBlk, nil)

	b.SwitchToBlock(thenBlk)
	one := b.ConstInt(1)
	b.Br(merge, []ValueId{one})

	b.SwitchToBlock(elseBlk)
	two := b.ConstInt(2)
	b.Br(merge, []ValueId{two})

	b.SwitchToBlock(merge)
	b.Ret(&mergeArgs[0])

	f := b.Build()
	if err := Verify(f); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
}

func TestVerifyCatchesDanglingBranchTarget(t *testing.T) {
	b := NewFunctionBuilder("bad_branch", FunctionSig{ReturnTy: TVoid{}}, VisPublic)
	b.Br(BlockId(99), nil)
	f := b.BuildUnchecked()
	if err := Verify(f); err == nil {
		t.Fatal("expected invariant violation for dangling branch target")
	}
}

func TestMeetLattice(t *testing.T) {
	cases := []struct {
		a, b, want Type
	}{
		{TInt{Bits: 64}, TInt{Bits: 64}, TInt{Bits: 64}},
		{TInt{Bits: 64}, TDynamic{}, TInt{Bits: 64}},
		{TDynamic{}, TString{}, TString{}},
		{TInt{Bits: 64}, TString{}, TDynamic{}},
	}
	for _, c := range cases {
		got := Meet(c.a, c.b)
		if !TypesEqual(got, c.want) {
			t.Errorf("Meet(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
