package transforms

import (
	"testing"

	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

func TestAllPassesMatchesPassNameVocabulary(t *testing.T) {
	passes := allPasses()
	if len(passes) != len(pipeline.PassNames) {
		t.Fatalf("expected %d passes, got %d", len(pipeline.PassNames), len(passes))
	}
	for i, p := range passes {
		if p.Name() != pipeline.PassNames[i] {
			t.Fatalf("pass %d: expected name %q, got %q", i, pipeline.PassNames[i], p.Name())
		}
	}
}

func TestDefaultPipelineOmitsDisabledPasses(t *testing.T) {
	cfg := pipeline.FromSkipList([]string{"coroutine-lowering", "mem2reg"})
	p := DefaultPipeline(cfg)
	for _, name := range p.ValidPassNames() {
		if name == "coroutine-lowering" || name == "mem2reg" {
			t.Fatalf("expected %q to be excluded from the pipeline", name)
		}
	}
	if len(p.ValidPassNames()) != len(pipeline.PassNames)-2 {
		t.Fatalf("expected %d passes, got %d", len(pipeline.PassNames)-2, len(p.ValidPassNames()))
	}
}

func TestDefaultPipelineRunFoldsAndEliminates(t *testing.T) {
	fb := ir.NewFunctionBuilder("f", ir.FunctionSig{ReturnTy: ir.TInt{Bits: 64}}, ir.VisPrivate)
	a := fb.ConstInt(2)
	b := fb.ConstInt(3)
	sum := fb.Add(a, b)
	_ = fb.ConstInt(99) // dead
	fb.Ret(&sum)

	module := buildModule(fb.Build())
	p := DefaultPipeline(pipeline.DefaultPassConfig())
	out, err := p.Run(module)
	if err != nil {
		t.Fatal(err)
	}
	if out.StoppedEarly {
		t.Fatal("a plain run without dump-after should not stop early")
	}

	f := out.Module.Functions.Get(0)
	if verr := ir.Verify(&f); verr != nil {
		t.Fatalf("pipeline output violates an SSA invariant: %v", verr)
	}
	entry := f.Blocks.Get(f.Entry)
	if len(entry.Insts) != 2 {
		t.Fatalf("expected the pipeline to fold the addition and drop the dead const, leaving 2 insts, got %d", len(entry.Insts))
	}
}
