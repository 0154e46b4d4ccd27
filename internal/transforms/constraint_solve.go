package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// ConstraintSolve is the pass of spec §4.11: runs after TypeInference
// and applies algebraic refinements — both sides of a Cmp::Eq unify
// their types via the same union-find mechanism, so e.g.
// cmp.eq(param, const_int) narrows param from Dynamic to Int(64).
type ConstraintSolve struct{}

func (ConstraintSolve) Name() string  { return "constraint-solve" }
func (ConstraintSolve) RunOnce() bool { return false }

func (ConstraintSolve) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	changed := false
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		if solveFunction(&f) {
			changed = true
		}
		module.Functions.Set(fid, f)
	}
	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

func solveFunction(f *ir.Function) bool {
	uf := newTypeUnionFind(f)
	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			cmp, ok := inst.Op.(ir.OpCmpInst)
			if !ok || cmp.Kind != ir.CmpEq {
				continue
			}
			uf.union(cmp.A, cmp.B)
		}
	})
	return uf.writeBack(f)
}
