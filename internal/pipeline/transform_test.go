package pipeline

import (
	"testing"

	"reincarnate/internal/ir"
)

// countingPass is a mock Transform used to exercise the pipeline's
// fixpoint and run_once semantics, mirroring the original's mock
// transforms in pipeline/transform.rs's test suite.
type countingPass struct {
	name     string
	runOnce  bool
	maxRuns  int
	runCount int
}

func (p *countingPass) Name() string { return p.name }
func (p *countingPass) RunOnce() bool { return p.runOnce }
func (p *countingPass) Apply(m *ir.Module) (TransformResult, error) {
	p.runCount++
	changed := p.runCount <= p.maxRuns
	return TransformResult{Module: m, Changed: changed}, nil
}

func emptyModule() *ir.Module { return ir.NewModule("test") }

func TestPipelineSinglePassNoFixpoint(t *testing.T) {
	pass := &countingPass{name: "p1", maxRuns: 1}
	pl := NewTransformPipeline(false, pass)
	_, err := pl.Run(emptyModule())
	if err != nil {
		t.Fatal(err)
	}
	if pass.runCount != 1 {
		t.Errorf("expected exactly 1 run without fixpoint, got %d", pass.runCount)
	}
}

func TestPipelineFixpointStopsWhenUnchanged(t *testing.T) {
	pass := &countingPass{name: "p1", maxRuns: 3}
	pl := NewTransformPipeline(true, pass)
	_, err := pl.Run(emptyModule())
	if err != nil {
		t.Fatal(err)
	}
	if pass.runCount != 4 {
		t.Errorf("expected 4 runs (3 changing + 1 confirming fixpoint), got %d", pass.runCount)
	}
}

func TestPipelineRunOncePassSkippedAfterFirstIteration(t *testing.T) {
	oscillating := &countingPass{name: "osc", maxRuns: 1000, runOnce: true}
	other := &countingPass{name: "other", maxRuns: 3}
	pl := NewTransformPipeline(true, oscillating, other)
	_, err := pl.Run(emptyModule())
	if err != nil {
		t.Fatal(err)
	}
	if oscillating.runCount != 1 {
		t.Errorf("run_once pass should run exactly once, ran %d times", oscillating.runCount)
	}
}

func TestPipelineFixpointOverflowWarns(t *testing.T) {
	pass := &countingPass{name: "never-settles", maxRuns: 1000}
	pl := NewTransformPipeline(true, pass)
	out, err := pl.Run(emptyModule())
	if err != nil {
		t.Fatal(err)
	}
	if out.Warning == nil {
		t.Fatal("expected a budget-exceeded warning when fixpoint never converges")
	}
	if out.Module == nil {
		t.Fatal("module must still be returned on fixpoint overflow")
	}
}

func TestRunWithDebugFrontendSentinelStopsBeforeAnyPass(t *testing.T) {
	pass := &countingPass{name: "p1", maxRuns: 1}
	pl := NewTransformPipeline(false, pass)
	out, err := pl.RunWithDebug(emptyModule(), DebugConfig{DumpIRAfter: "frontend"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.StoppedEarly {
		t.Error("expected StoppedEarly for the frontend sentinel")
	}
	if pass.runCount != 0 {
		t.Errorf("no pass should run before the frontend sentinel, ran %d", pass.runCount)
	}
}

func TestRunWithDebugStopsAfterNamedPass(t *testing.T) {
	first := &countingPass{name: "first", maxRuns: 1}
	second := &countingPass{name: "second", maxRuns: 1}
	pl := NewTransformPipeline(false, first, second)
	out, err := pl.RunWithDebug(emptyModule(), DebugConfig{DumpIRAfter: "first"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.StoppedEarly {
		t.Error("expected StoppedEarly after the named pass")
	}
	if first.runCount != 1 || second.runCount != 0 {
		t.Errorf("expected only 'first' to run, got first=%d second=%d", first.runCount, second.runCount)
	}
}

func TestRunWithDebugUnknownPassRunsToCompletion(t *testing.T) {
	first := &countingPass{name: "first", maxRuns: 1}
	pl := NewTransformPipeline(false, first)
	out, err := pl.RunWithDebug(emptyModule(), DebugConfig{DumpIRAfter: "does-not-exist"})
	if err != nil {
		t.Fatal(err)
	}
	if out.StoppedEarly {
		t.Error("unknown dump_ir_after name should run to completion, not stop early")
	}
	if first.runCount != 1 {
		t.Errorf("expected the pipeline's one pass to run, ran %d times", first.runCount)
	}
}

func TestDebugConfigShouldDumpFuzzyMatch(t *testing.T) {
	cases := []struct {
		filter, name string
		want         bool
	}{
		{"", "anything", true},
		{"foo", "foo_bar", true},
		{"FOO", "foo_bar", true},
		{"Mod.Func", "mod.func", true},
		{"Mod::Func", "func.mod", true},
		{"Gun.step", "Gun::event_step_2", true},
		{"xyz", "foo_bar", false},
	}
	for _, c := range cases {
		d := DebugConfig{FunctionFilter: c.filter}
		if got := d.ShouldDump(c.name); got != c.want {
			t.Errorf("ShouldDump(filter=%q, name=%q) = %t, want %t", c.filter, c.name, got, c.want)
		}
	}
}

func TestPresetLiteralDisablesOptimizations(t *testing.T) {
	cfg, lowering, ok := PresetLiteral.Resolve(nil)
	if !ok {
		t.Fatal("literal preset should resolve")
	}
	if cfg.ConstantFolding || cfg.CfgSimplify || cfg.DeadCodeElimination {
		t.Error("literal preset must disable constant-folding, cfg-simplify, dead-code-elimination")
	}
	if !cfg.TypeInference || !cfg.Mem2Reg || !cfg.CoroutineLowering || !cfg.RedundantCastElimination {
		t.Error("literal preset must keep structural passes enabled")
	}
	if cfg.Fixpoint {
		t.Error("literal preset must disable fixpoint iteration")
	}
	if lowering.Minmax {
		t.Error("literal preset must disable the minmax AST rewrite")
	}
	if !lowering.Ternary || !lowering.LogicalOperators || !lowering.WhileConditionHoisting {
		t.Error("literal preset must still emit ternary, logical operators, and hoist while-conditions")
	}
}

func TestPresetOptimizedEnablesEverything(t *testing.T) {
	cfg, lowering, ok := PresetOptimized.Resolve(nil)
	if !ok {
		t.Fatal("optimized preset should resolve")
	}
	if !cfg.ConstantFolding || !cfg.CfgSimplify || !cfg.DeadCodeElimination {
		t.Error("optimized preset must enable every pass")
	}
	if !lowering.Ternary || !lowering.Minmax {
		t.Error("optimized preset must enable every AST rewrite")
	}
}

func TestPresetResolveAppliesSkipOnTopOfBase(t *testing.T) {
	cfg, _, ok := PresetOptimized.Resolve([]string{"mem2reg"})
	if !ok {
		t.Fatal("optimized preset should resolve")
	}
	if cfg.Mem2Reg {
		t.Error("skip override should disable mem2reg even though the optimized preset enables it")
	}
	if !cfg.ConstantFolding {
		t.Error("skip override must not disable unrelated passes")
	}
}

func TestFromSkipListIgnoresUnknownNames(t *testing.T) {
	cfg := FromSkipList([]string{"not-a-real-pass", "mem2reg"})
	if cfg.Mem2Reg {
		t.Error("mem2reg should be disabled")
	}
	if !cfg.ConstantFolding {
		t.Error("unknown skip names must not disable other passes")
	}
}
