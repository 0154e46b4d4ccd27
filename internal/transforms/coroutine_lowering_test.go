package transforms

import (
	"testing"

	"reincarnate/internal/ir"
)

// buildSingleYieldCoroutine builds: coro(x) { y := x+1; yield y; z := y+1; return z }
// with one Yield splitting the function into two states: state0 computes
// and yields y (spilling x and y across the boundary since both are
// needed downstream: x for nothing further here, y for the final add),
// state1 resumes, adds 1 to the resumed y, and returns.
func buildSingleYieldCoroutine() (*ir.Function, ir.ValueId) {
	fb := ir.NewFunctionBuilder("coro", ir.FunctionSig{Params: []ir.Type{ir.TInt{Bits: 64}}, ReturnTy: ir.TInt{Bits: 64}}, ir.VisPrivate)
	x := fb.Param(0)
	one := fb.ConstInt(1)
	y := fb.Add(x, one)
	fb.Yield(&y)
	two := fb.ConstInt(1)
	z := fb.Add(y, two)
	fb.Ret(&z)
	fb.MarkCoroutine("CoroState")
	return fb.Build(), x
}

func TestCoroutineLoweringProducesVerifiedStateMachine(t *testing.T) {
	f, _ := buildSingleYieldCoroutine()
	mb := ir.NewModuleBuilder("test")
	mb.AddFunction(f)
	module := mb.Build()

	result, err := (CoroutineLowering{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Fatal("expected a change")
	}

	lowered := result.Module.Functions.Get(0)
	if verr := ir.Verify(&lowered); verr != nil {
		t.Fatalf("lowered coroutine violates an SSA invariant: %v", verr)
	}

	if len(lowered.Sig.Params) != 1 {
		t.Fatalf("expected the lowered function to take exactly the state struct, got %d params", len(lowered.Sig.Params))
	}
	if _, ok := lowered.Sig.Params[0].(ir.TClassRef); !ok {
		t.Fatalf("expected the sole param to be a ClassRef to the state struct, got %#v", lowered.Sig.Params[0])
	}

	var found *ir.StructDef
	for i := range result.Module.Structs {
		if result.Module.Structs[i].Name == "CoroState" {
			found = &result.Module.Structs[i]
		}
	}
	if found == nil {
		t.Fatal("expected a CoroState struct to be generated")
	}
	hasStateField := false
	for _, field := range found.Fields {
		if field.Name == "state" {
			hasStateField = true
		}
	}
	if !hasStateField {
		t.Fatal("expected the generated struct to carry a state field")
	}

	entry := lowered.Blocks.Get(lowered.Entry)
	term := lowered.Insts.Get(entry.Insts[len(entry.Insts)-1])
	if _, ok := term.Op.(ir.OpSwitchInst); !ok {
		t.Fatalf("expected the new entry to dispatch via Switch, got %T", term.Op)
	}
}

func TestCoroutineLoweringNoOpWithoutCoroutineMarker(t *testing.T) {
	fb := ir.NewFunctionBuilder("plain", ir.FunctionSig{ReturnTy: ir.TVoid{}}, ir.VisPrivate)
	fb.Ret(nil)
	module := buildModule(fb.Build())

	result, err := (CoroutineLowering{}).Apply(module)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Fatal("a non-coroutine function must never be lowered")
	}
}
