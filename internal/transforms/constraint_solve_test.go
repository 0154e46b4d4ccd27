package transforms

import (
	"testing"

	"reincarnate/internal/ir"
)

func TestConstraintSolveNarrowsViaEq(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{Params: []ir.Type{ir.TDynamic{}}, ReturnTy: ir.TBool{}}, ir.VisPrivate)
	param := fb.Param(0)
	c := fb.ConstInt(5)
	eq := fb.Cmp(ir.CmpEq, param, c)
	fb.Ret(&eq)

	module := buildModule(fb.Build())
	result, err := (ConstraintSolve{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Fatal("expected cmp.eq(param, const_int) to narrow param")
	}
	f := result.Module.Functions.Get(0)
	if _, ok := f.ValueTypes.Get(param).(ir.TInt); !ok {
		t.Fatalf("expected param to narrow to Int, got %#v", f.ValueTypes.Get(param))
	}
}

func TestConstraintSolveIgnoresNonEqCmp(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{Params: []ir.Type{ir.TDynamic{}}, ReturnTy: ir.TBool{}}, ir.VisPrivate)
	param := fb.Param(0)
	c := fb.ConstInt(5)
	lt := fb.Cmp(ir.CmpLt, param, c)
	fb.Ret(&lt)

	module := buildModule(fb.Build())
	result, err := (ConstraintSolve{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Fatal("a non-Eq comparison must not narrow its operands")
	}
}
