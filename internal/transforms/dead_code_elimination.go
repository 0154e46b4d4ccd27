package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// DeadCodeElimination is the pass of spec §4.5: a value is live if it
// appears in a terminator or in the operands of a side-effectful or
// live instruction; remove every non-side-effectful instruction whose
// result is dead from its block's instruction list (the arena entry
// survives until pipeline compaction). Grounded on Kanso's
// internal/ir/optimizations.go DeadCodeElimination
// (eliminateDeadInstructions / markUsedValues backward closure),
// adapted to the arena model.
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string  { return "dead-code-elimination" }
func (DeadCodeElimination) RunOnce() bool { return false }

func (DeadCodeElimination) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	changed := false
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		if dceFunction(&f) {
			changed = true
		}
		module.Functions.Set(fid, f)
	}
	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

func dceFunction(f *ir.Function) bool {
	live := livenessClosure(f)

	changed := false
	for _, bid := range f.Blocks.Keys() {
		b := f.Blocks.Ptr(bid)
		kept := b.Insts[:0:0]
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if !inst.IsPure() {
				kept = append(kept, iid)
				continue
			}
			if inst.Result != nil && !live[*inst.Result] {
				changed = true
				continue
			}
			kept = append(kept, iid)
		}
		b.Insts = kept
	}
	return changed
}

// livenessClosure computes every ValueId reachable by backward
// traversal from terminator args and side-effectful instruction
// operands (the DCE root set of spec §4.5).
func livenessClosure(f *ir.Function) map[ir.ValueId]bool {
	live := map[ir.ValueId]bool{}
	var worklist []ir.ValueId

	markRoot := func(v ir.ValueId) {
		if !live[v] {
			live[v] = true
			worklist = append(worklist, v)
		}
	}

	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.IsTerminator() || !inst.IsPure() {
				for _, v := range ir.Operands(inst.Op) {
					markRoot(v)
				}
			}
		}
	})

	defOf := map[ir.ValueId]ir.InstId{}
	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.Result != nil {
				defOf[*inst.Result] = iid
			}
		}
	})

	for len(worklist) > 0 {
		v := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if iid, ok := defOf[v]; ok {
			inst := f.Insts.Get(iid)
			for _, operand := range ir.Operands(inst.Op) {
				markRoot(operand)
			}
		}
	}
	return live
}
