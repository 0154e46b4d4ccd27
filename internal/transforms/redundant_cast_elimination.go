package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// RedundantCastElimination is the pass of spec §4.8: a Cast(v, T)
// where value_types[v] already equals T becomes a Copy(v); a
// TypeCheck(v, T) where value_types[v] is a known, structurally equal
// concrete type becomes Const(true), or Const(false) when it is a
// known, structurally distinct concrete type. Never rewrites when the
// source type is Dynamic, since Dynamic could resolve to anything at
// the backend.
type RedundantCastElimination struct{}

func (RedundantCastElimination) Name() string  { return "redundant-cast-elimination" }
func (RedundantCastElimination) RunOnce() bool { return false }

func (RedundantCastElimination) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	changed := false
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		if eliminateFunction(&f) {
			changed = true
		}
		module.Functions.Set(fid, f)
	}
	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

func eliminateFunction(f *ir.Function) bool {
	changed := false
	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.Result == nil {
				continue
			}
			switch o := inst.Op.(type) {
			case ir.OpCastInst:
				srcTy := f.ValueTypes.Get(o.Value)
				if ir.IsDynamic(srcTy) || !ir.TypesEqual(srcTy, o.Ty) {
					continue
				}
				result := *inst.Result
				f.Insts.Set(iid, ir.Inst{Op: ir.OpCopyInst{Src: o.Value}, Result: &result})
				changed = true
			case ir.OpTypeCheckInst:
				srcTy := f.ValueTypes.Get(o.Value)
				if ir.IsDynamic(srcTy) {
					continue
				}
				result := *inst.Result
				satisfies := ir.TypesEqual(srcTy, o.Ty)
				f.Insts.Set(iid, ir.Inst{Op: ir.OpConstInst{Value: ir.ConstBoolVal(satisfies)}, Result: &result})
				f.SetValueType(result, ir.TBool{})
				changed = true
			}
		}
	})
	return changed
}
