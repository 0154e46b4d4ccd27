package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// TypeInference is the pass of spec §4.9: generate type equivalences
// from every instruction (Cmp results are Bool; arithmetic results
// join their operands; Load inherits value_types; Const and Cast pin
// precisely), merge them via union-find, and write the resolved types
// back into value_types and the entry block's params (keeping sig in
// sync via Function.SetValueType).
type TypeInference struct{}

func (TypeInference) Name() string  { return "type-inference" }
func (TypeInference) RunOnce() bool { return false }

func (TypeInference) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	changed := false
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		if inferFunction(&f) {
			changed = true
		}
		module.Functions.Set(fid, f)
	}
	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

func inferFunction(f *ir.Function) bool {
	uf := newTypeUnionFind(f)
	generateTypeEquivalences(f, uf)
	return uf.writeBack(f)
}

// generateTypeEquivalences walks every instruction in f, merging or
// pinning type-variable classes per the rules of spec §4.9.1. Only
// TypeInference calls it; ConstraintSolve (constraint_solve.go) applies
// its Cmp::Eq unions directly and shares only the typeUnionFind
// write-back mechanism.
func generateTypeEquivalences(f *ir.Function, uf *typeUnionFind) {
	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			switch o := inst.Op.(type) {
			case ir.OpCmpInst:
				if inst.Result != nil {
					uf.pin(*inst.Result, ir.TBool{})
				}
			case ir.OpBinaryInst:
				if inst.Result != nil {
					uf.union(*inst.Result, o.A)
					uf.union(*inst.Result, o.B)
				}
			case ir.OpUnaryInst:
				if inst.Result != nil && o.Kind != ir.OpLogicalNot {
					uf.union(*inst.Result, o.A)
				} else if inst.Result != nil {
					uf.pin(*inst.Result, ir.TBool{})
				}
			case ir.OpLoadInst:
				if inst.Result != nil {
					uf.pin(*inst.Result, f.ValueTypes.Get(*inst.Result))
				}
			case ir.OpConstInst:
				if inst.Result != nil {
					uf.pin(*inst.Result, o.Value.Type())
				}
			case ir.OpCastInst:
				if inst.Result != nil {
					uf.pin(*inst.Result, o.Ty)
				}
			}
		}
	})
}
