package cmd

import "reincarnate/internal/ir"

// buildSampleModule constructs a small in-process ir.Module exercising
// the middle end's interesting shapes, standing in for the frontend
// lowering this repo has no part in (spec §1): a ternary/minmax
// candidate (max), a compound-assign candidate (accumulate), and a
// head-tested loop (sumTo).
func buildSampleModule() *ir.Module {
	m := ir.NewModuleBuilder("sample")

	m.AddFunction(buildMax())
	m.AddFunction(buildAccumulate())
	m.AddFunction(buildSumTo())

	return m.Build()
}

// max(a, b int64) int64 { if a >= b { return a } else { return b } }
func buildMax() *ir.Function {
	i64 := ir.TInt{Bits: 64}
	b := ir.NewFunctionBuilder("max", ir.FunctionSig{Params: []ir.Type{i64, i64}, ReturnTy: i64}, ir.VisPublic)
	a := b.Param(0)
	bv := b.Param(1)

	thenBlk := b.CreateBlock()
	elseBlk := b.CreateBlock()
	cond := b.Cmp(ir.CmpGe, a, bv)
	b.BrIf(cond, thenBlk, nil, elseBlk, nil)

	b.SwitchToBlock(thenBlk)
	b.Ret(&a)

	b.SwitchToBlock(elseBlk)
	b.Ret(&bv)

	return b.Build()
}

// accumulate(total, delta int64) int64 { total = total + delta; return total }
func buildAccumulate() *ir.Function {
	i64 := ir.TInt{Bits: 64}
	b := ir.NewFunctionBuilder("accumulate", ir.FunctionSig{Params: []ir.Type{i64, i64}, ReturnTy: i64}, ir.VisPublic)
	total := b.Param(0)
	delta := b.Param(1)
	sum := b.Add(total, delta)
	b.SetValueName(sum, "total")
	b.Ret(&sum)
	return b.Build()
}

// sumTo(n int64) int64 { i, acc := 0, 0; while i < n { acc += i; i += 1 }; return acc }
func buildSumTo() *ir.Function {
	i64 := ir.TInt{Bits: 64}
	b := ir.NewFunctionBuilder("sumTo", ir.FunctionSig{Params: []ir.Type{i64}, ReturnTy: i64}, ir.VisPublic)
	n := b.Param(0)
	zero := b.ConstInt(0)

	header, headerParams := b.CreateBlockWithParams([]ir.Type{i64, i64})
	body := b.CreateBlock()
	exit, exitParams := b.CreateBlockWithParams([]ir.Type{i64})

	b.Br(header, []ir.ValueId{zero, zero})

	b.SwitchToBlock(header)
	i := headerParams[0]
	acc := headerParams[1]
	b.SetValueName(i, "i")
	b.SetValueName(acc, "acc")
	cond := b.Cmp(ir.CmpLt, i, n)
	b.BrIf(cond, body, nil, exit, []ir.ValueId{acc})

	b.SwitchToBlock(body)
	one := b.ConstInt(1)
	nextAcc := b.Add(acc, i)
	nextI := b.Add(i, one)
	b.Br(header, []ir.ValueId{nextI, nextAcc})

	b.SwitchToBlock(exit)
	b.Ret(&exitParams[0])

	return b.Build()
}
