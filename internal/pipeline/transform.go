package pipeline

import (
	"strings"

	"reincarnate/internal/diag"
	"reincarnate/internal/ir"
)

// MaxFixpointIterations bounds TransformPipeline.Run's fixpoint loop
// (spec §4.14, §5).
const MaxFixpointIterations = 100

// Transform is the pass contract of spec §6.2.
type Transform interface {
	// Name is the pass's stable kebab-case identifier (spec §6.5).
	Name() string
	// Apply runs the pass over module and reports whether it changed
	// anything.
	Apply(module *ir.Module) (TransformResult, error)
	// RunOnce, when true, means the pass only runs on the first
	// fixpoint iteration (the safety valve for narrow/widen pairs,
	// spec §4.10, §4.12).
	RunOnce() bool
}

// TransformResult is a pass's output: the (possibly rewritten) module
// and whether it changed anything.
type TransformResult struct {
	Module  *ir.Module
	Changed bool
}

// PipelineOutput is TransformPipeline.Run's return value.
// StoppedEarly signals a caller (a backend driver) that structurization
// and emission should be skipped, because the pipeline stopped midway
// for a debug dump rather than running to completion (spec §4.14, §3
// of SPEC_FULL.md).
type PipelineOutput struct {
	Module       *ir.Module
	StoppedEarly bool
	Warning      *diag.Error
}

// TransformPipeline holds an ordered list of passes and a fixpoint
// flag (spec §4.14). Logf, when non-nil, is called once per pass with
// its name and changed/unchanged, and once per fixpoint iteration —
// the texture of Kanso's OptimizationPipeline.Run progress
// printing, generalized into an injectable hook instead of a bare
// fmt.Printf so the core has no required stdout dependency.
type TransformPipeline struct {
	passes   []Transform
	fixpoint bool
	Logf     func(format string, args ...any)
}

// NewTransformPipeline creates a pipeline running passes in the given
// order.
func NewTransformPipeline(fixpoint bool, passes ...Transform) *TransformPipeline {
	return &TransformPipeline{passes: passes, fixpoint: fixpoint}
}

func (p *TransformPipeline) logf(format string, args ...any) {
	if p.Logf != nil {
		p.Logf(format, args...)
	}
}

// Run drives module through every pass, in fixpoint mode if p.fixpoint
// is set, and compacts instruction arenas at the end (spec §4.14,
// §3.5). Fixpoint overflow is reported as PipelineOutput.Warning, not
// an error return — the module as of the last iteration is still
// returned (spec §7 "Budget-exceeded").
func (p *TransformPipeline) Run(module *ir.Module) (PipelineOutput, error) {
	out, err := p.runWithDebug(module, DebugConfig{}, "")
	return out, err
}

// RunWithDebug supports the "dump_ir_after" stop point and function
// filtering of spec §4.14: the sentinel "frontend" dumps before any
// pass runs; if the named pass is absent from the pipeline, it runs to
// completion.
func (p *TransformPipeline) RunWithDebug(module *ir.Module, debug DebugConfig) (PipelineOutput, error) {
	return p.runWithDebug(module, debug, debug.DumpIRAfter)
}

func (p *TransformPipeline) dumpModule(module *ir.Module, debug DebugConfig, after string) {
	if !debug.DumpIR {
		return
	}
	module.Functions.Range(func(_ ir.FuncId, f ir.Function) {
		if debug.ShouldDump(f.Name) {
			p.logf("-- dump-ir-after %s : %s --\n%s", after, f.Name, ir.PrintFunction(&f))
		}
	})
}

func (p *TransformPipeline) runWithDebug(module *ir.Module, debug DebugConfig, dumpAfter string) (PipelineOutput, error) {
	if dumpAfter == "frontend" {
		p.dumpModule(module, debug, "frontend")
		return PipelineOutput{Module: module, StoppedEarly: true}, nil
	}

	stopAfterKnown := dumpAfter != "" && p.hasPass(dumpAfter)

	iterations := 1
	if p.fixpoint {
		iterations = MaxFixpointIterations
	}

	var warning *diag.Error
	overflowed := p.fixpoint

	for iter := 0; iter < iterations; iter++ {
		changedThisIteration := false
		for _, pass := range p.passes {
			if iter > 0 && pass.RunOnce() {
				continue
			}
			res, err := pass.Apply(module)
			if err != nil {
				return PipelineOutput{Module: module}, err
			}
			module = res.Module
			if res.Changed {
				changedThisIteration = true
			}
			p.logf("  - %s: changed=%t", pass.Name(), res.Changed)

			if stopAfterKnown && pass.Name() == dumpAfter {
				p.dumpModule(module, debug, dumpAfter)
				return PipelineOutput{Module: module, StoppedEarly: true}, nil
			}
		}
		p.logf("fixpoint iteration %d: changed=%t", iter, changedThisIteration)
		if !p.fixpoint || !changedThisIteration {
			overflowed = false
			break
		}
	}

	if overflowed {
		warning = diag.BudgetExceeded("fixpoint did not converge within %d iterations", MaxFixpointIterations)
	}

	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		f.CompactInsts()
		module.Functions.Set(fid, f)
	}

	// Unknown dumpAfter name: stopAfterKnown is false, so the loop
	// above ran to completion and the caller may warn (spec §4.14, §7).
	return PipelineOutput{Module: module, Warning: warning}, nil
}

func (p *TransformPipeline) hasPass(name string) bool {
	for _, pass := range p.passes {
		if pass.Name() == name {
			return true
		}
	}
	return false
}

// ValidPassNames returns the pass-name vocabulary this pipeline
// instance actually runs, for CLI help text / validation.
func (p *TransformPipeline) ValidPassNames() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name()
	}
	return names
}

// FrontendInput/FrontendOutput/Frontend are the external frontend
// contract (spec §6.1). Reincarnate's core never constructs these
// itself; a frontend (out of this spec's scope) implements Frontend.
type EngineOrigin string

type FrontendInput struct {
	Source  string
	Engine  EngineOrigin
	Options map[string]any
}

type FrontendOutput struct {
	Modules        []*ir.Module
	Assets         []string
	RuntimeVariant string
	ExtraPasses    []Transform
}

type Frontend interface {
	Extract(in FrontendInput) (FrontendOutput, error)
}

// BackendInput/Backend are the external backend contract (spec §6.4).
type BackendInput struct {
	Modules        []*ir.Module
	Assets         []string
	OutputDir      string
	LoweringConfig LoweringConfig
	RuntimeDir     string
}

type Backend interface {
	Emit(in BackendInput) error
}

// FormatSkipList renders a skip-list for diagnostics/help text.
func FormatSkipList(skip []string) string {
	return strings.Join(skip, ",")
}
