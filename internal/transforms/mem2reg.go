package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// Mem2Reg is the pass of spec §4.7: promote Alloc values used only as
// the Ptr operand of Load/Store to SSA block parameters via the
// standard iterated-dominance-frontier phi-placement algorithm,
// followed by a dominator-tree-walk renaming pass. Allocs that escape
// (used anywhere else — calls, fields, stored-as-a-value, branch args)
// are left untouched (testable property §8.14).
type Mem2Reg struct{}

func (Mem2Reg) Name() string  { return "mem2reg" }
func (Mem2Reg) RunOnce() bool { return false }

func (Mem2Reg) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	changed := false
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		if mem2regFunction(&f) {
			changed = true
		}
		module.Functions.Set(fid, f)
	}
	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

type allocInfo struct {
	id     ir.ValueId
	ty     ir.Type
	loads  []ir.InstId
	stores []ir.InstId
}

func mem2regFunction(f *ir.Function) bool {
	allocs := findPromotableAllocs(f)
	if len(allocs) == 0 {
		return false
	}

	idom := ir.Dominators(f)
	domChildren := map[ir.BlockId][]ir.BlockId{}
	f.Blocks.Range(func(bid ir.BlockId, _ ir.Block) {
		if p, ok := idom[bid]; ok && p != bid {
			domChildren[p] = append(domChildren[p], bid)
		}
	})
	df := dominanceFrontier(f, idom)

	// Phi placement: iterate to fixpoint over each alloc's def blocks.
	phiParam := map[ir.BlockId]map[ir.ValueId]ir.ValueId{} // block -> alloc -> new param value
	phiOrder := map[ir.BlockId][]ir.ValueId{}               // block -> allocs in param-insertion order

	for _, a := range allocs {
		defBlocks := map[ir.BlockId]bool{}
		for _, sid := range a.stores {
			defBlocks[instBlock(f, sid)] = true
		}
		hasPhi := map[ir.BlockId]bool{}
		worklist := make([]ir.BlockId, 0, len(defBlocks))
		for b := range defBlocks {
			worklist = append(worklist, b)
		}
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for d := range df[b] {
				if hasPhi[d] {
					continue
				}
				hasPhi[d] = true
				newVal := f.ValueTypes.Push(a.ty)
				blk := f.Blocks.Ptr(d)
				blk.Params = append(blk.Params, ir.Param{Value: newVal, Ty: a.ty})
				if phiParam[d] == nil {
					phiParam[d] = map[ir.ValueId]ir.ValueId{}
				}
				phiParam[d][a.id] = newVal
				phiOrder[d] = append(phiOrder[d], a.id)
				if !defBlocks[d] {
					worklist = append(worklist, d)
				}
			}
		}
	}

	// Rename: dominator-tree DFS with a per-alloc value stack.
	stacks := map[ir.ValueId][]ir.ValueId{}
	for _, a := range allocs {
		stacks[a.id] = nil
	}
	allocSet := map[ir.ValueId]ir.Type{}
	for _, a := range allocs {
		allocSet[a.id] = a.ty
	}

	var walk func(b ir.BlockId)
	walk = func(b ir.BlockId) {
		pushed := map[ir.ValueId]int{}
		if params, ok := phiParam[b]; ok {
			for allocID, newVal := range params {
				stacks[allocID] = append(stacks[allocID], newVal)
				pushed[allocID]++
			}
		}

		blk := f.Blocks.Ptr(b)
		kept := blk.Insts[:0:0]
		for _, iid := range blk.Insts {
			inst := f.Insts.Get(iid)
			switch o := inst.Op.(type) {
			case ir.OpAllocInst:
				if inst.Result != nil {
					if _, ok := allocSet[*inst.Result]; ok {
						continue // promoted Alloc is removed from the block entirely
					}
				}
			case ir.OpLoadInst:
				if ty, ok := allocSet[o.Ptr]; ok {
					cur := topOf(stacks[o.Ptr])
					result := *inst.Result
					f.Insts.Set(iid, ir.Inst{Op: ir.OpCopyInst{Src: cur}, Result: &result})
					f.SetValueType(result, ty)
					kept = append(kept, iid)
					continue
				}
			case ir.OpStoreInst:
				if _, ok := allocSet[o.Ptr]; ok {
					stacks[o.Ptr] = append(stacks[o.Ptr], o.Value)
					pushed[o.Ptr]++
					continue // Store is removed from the block entirely
				}
			}
			kept = append(kept, iid)
		}
		blk.Insts = kept

		// Fix up branch args into successors that carry phi params for
		// our allocs, appending the current top-of-stack value.
		if len(blk.Insts) > 0 {
			tid := blk.Insts[len(blk.Insts)-1]
			term := f.Insts.Get(tid)
			for _, target := range ir.BranchTargets(term.Op) {
				order, ok := phiOrder[target]
				if !ok {
					continue
				}
				extra := make([]ir.ValueId, len(order))
				for i, allocID := range order {
					extra[i] = topOf(stacks[allocID])
				}
				newOp := appendBranchArgs(term.Op, target, extra)
				f.Insts.Set(tid, ir.Inst{Op: newOp})
				term = f.Insts.Get(tid)
			}
		}

		for _, child := range domChildren[b] {
			walk(child)
		}

		for allocID, n := range pushed {
			stacks[allocID] = stacks[allocID][:len(stacks[allocID])-n]
		}
	}
	walk(f.Entry)

	return true
}

func topOf(stack []ir.ValueId) ir.ValueId {
	if len(stack) == 0 {
		return ir.ValueId(ir.Invalid)
	}
	return stack[len(stack)-1]
}

// appendBranchArgs rewrites op to append extra args to whichever
// successor edge(s) target target.
func appendBranchArgs(op ir.Op, target ir.BlockId, extra []ir.ValueId) ir.Op {
	switch o := op.(type) {
	case ir.OpBrInst:
		if o.Target == target {
			o.Args = append(append([]ir.ValueId{}, o.Args...), extra...)
		}
		return o
	case ir.OpBrIfInst:
		if o.ThenTarget == target {
			o.ThenArgs = append(append([]ir.ValueId{}, o.ThenArgs...), extra...)
		}
		if o.ElseTarget == target {
			o.ElseArgs = append(append([]ir.ValueId{}, o.ElseArgs...), extra...)
		}
		return o
	case ir.OpSwitchInst:
		for i, c := range o.Cases {
			if c.Target == target {
				o.Cases[i].Args = append(append([]ir.ValueId{}, c.Args...), extra...)
			}
		}
		if o.Default.Target == target {
			o.Default.Args = append(append([]ir.ValueId{}, o.Default.Args...), extra...)
		}
		return o
	default:
		return op
	}
}

func instBlock(f *ir.Function, target ir.InstId) ir.BlockId {
	var found ir.BlockId
	f.Blocks.Range(func(bid ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			if iid == target {
				found = bid
			}
		}
	})
	return found
}

// findPromotableAllocs identifies Alloc values used only as the Ptr
// operand of Load/Store (never escaping to calls, fields, or as a
// stored value itself).
func findPromotableAllocs(f *ir.Function) []allocInfo {
	allocTy := map[ir.ValueId]ir.Type{}
	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if a, ok := inst.Op.(ir.OpAllocInst); ok && inst.Result != nil {
				allocTy[*inst.Result] = a.Ty
			}
		}
	})
	if len(allocTy) == 0 {
		return nil
	}

	escapes := map[ir.ValueId]bool{}
	loads := map[ir.ValueId][]ir.InstId{}
	stores := map[ir.ValueId][]ir.InstId{}

	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			switch o := inst.Op.(type) {
			case ir.OpLoadInst:
				if _, ok := allocTy[o.Ptr]; ok {
					loads[o.Ptr] = append(loads[o.Ptr], iid)
					continue
				}
			case ir.OpStoreInst:
				if _, ok := allocTy[o.Ptr]; ok {
					stores[o.Ptr] = append(stores[o.Ptr], iid)
				}
				if _, ok := allocTy[o.Value]; ok {
					escapes[o.Value] = true // stored as a value, not just addressed
				}
				continue
			}
			for _, v := range ir.Operands(inst.Op) {
				if _, ok := allocTy[v]; ok {
					escapes[v] = true
				}
			}
		}
	})

	var result []allocInfo
	for v, ty := range allocTy {
		if escapes[v] {
			continue
		}
		result = append(result, allocInfo{id: v, ty: ty, loads: loads[v], stores: stores[v]})
	}
	return result
}

// dominanceFrontier computes DF(b) for every block using the standard
// Cytron-et-al. algorithm over predecessor edges and the dominator
// tree.
func dominanceFrontier(f *ir.Function, idom map[ir.BlockId]ir.BlockId) map[ir.BlockId]map[ir.BlockId]bool {
	preds := map[ir.BlockId][]ir.BlockId{}
	f.Blocks.Range(func(bid ir.BlockId, b ir.Block) {
		if len(b.Insts) == 0 {
			return
		}
		term := f.Insts.Get(b.Insts[len(b.Insts)-1])
		for _, t := range ir.BranchTargets(term.Op) {
			preds[t] = append(preds[t], bid)
		}
	})

	df := map[ir.BlockId]map[ir.BlockId]bool{}
	for _, bid := range f.Blocks.Keys() {
		ps := preds[bid]
		if len(ps) < 2 {
			continue
		}
		for _, p := range ps {
			runner := p
			for runner != idom[bid] {
				if df[runner] == nil {
					df[runner] = map[ir.BlockId]bool{}
				}
				df[runner][bid] = true
				next, ok := idom[runner]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}
	return df
}
