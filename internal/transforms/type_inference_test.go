package transforms

import (
	"testing"

	"reincarnate/internal/ir"
)

func TestTypeInferenceNarrowsThroughBinary(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{Params: []ir.Type{ir.TDynamic{}}, ReturnTy: ir.TDynamic{}}, ir.VisPrivate)
	param := fb.Param(0)
	c := fb.ConstInt(1)
	sum := fb.Add(param, c)
	fb.Ret(&sum)

	module := buildModule(fb.Build())
	result, err := (TypeInference{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Fatal("expected the dynamic param to narrow")
	}
	f := result.Module.Functions.Get(0)
	if _, ok := f.ValueTypes.Get(param).(ir.TInt); !ok {
		t.Fatalf("expected param to narrow to Int, got %#v", f.ValueTypes.Get(param))
	}
}

func TestTypeInferenceMonotonicNonWidening(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPrivate)
	c := fb.ConstInt(1)
	fb.Ret(&c)

	module := buildModule(fb.Build())
	result, err := (TypeInference{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Fatal("an already-concrete, consistent value must not be touched")
	}
}

func TestTypeInferenceIdempotent(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{Params: []ir.Type{ir.TDynamic{}}, ReturnTy: ir.TDynamic{}}, ir.VisPrivate)
	param := fb.Param(0)
	c := fb.ConstInt(1)
	sum := fb.Add(param, c)
	fb.Ret(&sum)

	module := buildModule(fb.Build())
	once, _ := (TypeInference{}).Apply(module)
	twice, _ := (TypeInference{}).Apply(once.Module)
	if twice.Changed {
		t.Fatal("TypeInference composed with itself should report no further change")
	}
}
