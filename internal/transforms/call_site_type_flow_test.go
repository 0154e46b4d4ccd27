package transforms

import (
	"testing"

	"reincarnate/internal/ir"
)

func TestCallSiteTypeFlowNarrowsWhenCallersAgree(t *testing.T) {
	callee := ir.NewFunctionBuilder("callee", ir.FunctionSig{Params: []ir.Type{ir.TDynamic{}}, ReturnTy: ir.TVoid{}}, ir.VisPrivate)
	calleeParam := callee.Param(0)
	callee.Ret(nil)

	caller := ir.NewFunctionBuilder("caller", ir.FunctionSig{ReturnTy: ir.TVoid{}}, ir.VisPrivate)
	arg := caller.ConstInt(1)
	caller.Call("callee", []ir.ValueId{arg}, ir.TVoid{})
	caller.Ret(nil)

	mb := ir.NewModuleBuilder("test")
	mb.AddFunction(callee.Build())
	mb.AddFunction(caller.Build())
	module := mb.Build()

	result, err := (CallSiteTypeFlow{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Fatal("expected the callee param to narrow")
	}
	f := result.Module.Functions.Get(0)
	if _, ok := f.ValueTypes.Get(calleeParam).(ir.TInt); !ok {
		t.Fatalf("expected Int, got %#v", f.ValueTypes.Get(calleeParam))
	}
}

func TestCallSiteTypeFlowDisagreementStaysDynamic(t *testing.T) {
	callee := ir.NewFunctionBuilder("callee", ir.FunctionSig{Params: []ir.Type{ir.TDynamic{}}, ReturnTy: ir.TVoid{}}, ir.VisPrivate)
	callee.Ret(nil)

	caller1 := ir.NewFunctionBuilder("caller1", ir.FunctionSig{ReturnTy: ir.TVoid{}}, ir.VisPrivate)
	intArg := caller1.ConstInt(1)
	caller1.Call("callee", []ir.ValueId{intArg}, ir.TVoid{})
	caller1.Ret(nil)

	caller2 := ir.NewFunctionBuilder("caller2", ir.FunctionSig{ReturnTy: ir.TVoid{}}, ir.VisPrivate)
	strArg := caller2.ConstString("x")
	caller2.Call("callee", []ir.ValueId{strArg}, ir.TVoid{})
	caller2.Ret(nil)

	mb := ir.NewModuleBuilder("test")
	mb.AddFunction(callee.Build())
	mb.AddFunction(caller1.Build())
	mb.AddFunction(caller2.Build())
	module := mb.Build()

	result, err := (CallSiteTypeFlow{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Fatal("disagreeing call sites must not narrow the param")
	}
}

func TestCallSiteTypeFlowNoCallersNoChange(t *testing.T) {
	callee := ir.NewFunctionBuilder("callee", ir.FunctionSig{Params: []ir.Type{ir.TDynamic{}}, ReturnTy: ir.TVoid{}}, ir.VisPrivate)
	callee.Ret(nil)

	mb := ir.NewModuleBuilder("test")
	mb.AddFunction(callee.Build())
	module := mb.Build()

	result, err := (CallSiteTypeFlow{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Fatal("a callee with no observed call sites must not change")
	}
}
