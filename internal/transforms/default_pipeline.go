package transforms

import "reincarnate/internal/pipeline"

// allPasses in the default pipeline order of spec §4.14: type
// inference, interprocedural call-site narrowing, constraint solving,
// interprocedural call-site widening, constant folding, CFG
// simplification, coroutine lowering, redundant-cast elimination,
// Mem2Reg, and dead-code elimination.
func allPasses() []pipeline.Transform {
	return []pipeline.Transform{
		TypeInference{},
		CallSiteTypeFlow{},
		ConstraintSolve{},
		CallSiteTypeWiden{},
		ConstantFolding{},
		CfgSimplify{},
		CoroutineLowering{},
		RedundantCastElimination{},
		Mem2Reg{},
		DeadCodeElimination{},
	}
}

// DefaultPipeline builds the fixpointed pipeline of spec §4.14, gated
// by cfg: a pass absent from cfg is simply omitted from the pipeline
// rather than included and always reporting unchanged, so
// ValidPassNames reflects exactly what will run.
func DefaultPipeline(cfg pipeline.PassConfig) *pipeline.TransformPipeline {
	var enabled []pipeline.Transform
	for _, p := range allPasses() {
		if cfg.Enabled(p.Name()) {
			enabled = append(enabled, p)
		}
	}
	return pipeline.NewTransformPipeline(cfg.Fixpoint, enabled...)
}
