package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// CfgSimplify is the pass of spec §4.6: iteratively, to fixpoint within
// a single Apply call, (a) collapses empty-forwarding blocks, (b)
// removes blocks unreachable from entry, (c) collapses a BrIf whose
// cond is constant to an unconditional Br, and (d) collapses a BrIf
// whose two successors and args are identical to a Br.
type CfgSimplify struct{}

func (CfgSimplify) Name() string  { return "cfg-simplify" }
func (CfgSimplify) RunOnce() bool { return false }

func (CfgSimplify) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	changed := false
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		if simplifyFunction(&f) {
			changed = true
		}
		module.Functions.Set(fid, f)
	}
	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

func simplifyFunction(f *ir.Function) bool {
	overall := false
	for {
		changedThisRound := false
		if collapseConstantBrIf(f) {
			changedThisRound = true
		}
		if collapseDuplicateBrIf(f) {
			changedThisRound = true
		}
		if collapseEmptyForwarders(f) {
			changedThisRound = true
		}
		if removeUnreachable(f) {
			changedThisRound = true
		}
		if changedThisRound {
			overall = true
		} else {
			break
		}
	}
	return overall
}

func collapseConstantBrIf(f *ir.Function) bool {
	changed := false
	for _, bid := range f.Blocks.Keys() {
		b := f.Blocks.Ptr(bid)
		if len(b.Insts) == 0 {
			continue
		}
		tid := b.Insts[len(b.Insts)-1]
		inst := f.Insts.Get(tid)
		brIf, ok := inst.Op.(ir.OpBrIfInst)
		if !ok {
			continue
		}
		c, ok := constBoolOperand(f, brIf.Cond)
		if !ok {
			continue
		}
		if c {
			f.Insts.Set(tid, ir.Inst{Op: ir.OpBrInst{Target: brIf.ThenTarget, Args: brIf.ThenArgs}})
		} else {
			f.Insts.Set(tid, ir.Inst{Op: ir.OpBrInst{Target: brIf.ElseTarget, Args: brIf.ElseArgs}})
		}
		changed = true
	}
	return changed
}

func constBoolOperand(f *ir.Function, v ir.ValueId) (bool, bool) {
	found := false
	var result bool
	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		if found {
			return
		}
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.Result != nil && *inst.Result == v {
				if c, ok := inst.Op.(ir.OpConstInst); ok && c.Value.Kind == ir.ConstBool {
					result, found = c.Value.Bool, true
				}
				return
			}
		}
	})
	return result, found
}

func collapseDuplicateBrIf(f *ir.Function) bool {
	changed := false
	for _, bid := range f.Blocks.Keys() {
		b := f.Blocks.Ptr(bid)
		if len(b.Insts) == 0 {
			continue
		}
		tid := b.Insts[len(b.Insts)-1]
		inst := f.Insts.Get(tid)
		brIf, ok := inst.Op.(ir.OpBrIfInst)
		if !ok {
			continue
		}
		if brIf.ThenTarget != brIf.ElseTarget || !sameValueList(brIf.ThenArgs, brIf.ElseArgs) {
			continue
		}
		f.Insts.Set(tid, ir.Inst{Op: ir.OpBrInst{Target: brIf.ThenTarget, Args: brIf.ThenArgs}})
		changed = true
	}
	return changed
}

func sameValueList(a, b []ir.ValueId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// collapseEmptyForwarders eliminates a block whose only instruction is
// an unconditional Br{target, args} forwarding its own params
// unchanged, retargeting every predecessor directly to target.
func collapseEmptyForwarders(f *ir.Function) bool {
	changed := false
	for _, bid := range f.Blocks.Keys() {
		if bid == f.Entry {
			continue
		}
		b := f.Blocks.Get(bid)
		if len(b.Insts) != 1 {
			continue
		}
		inst := f.Insts.Get(b.Insts[0])
		br, ok := inst.Op.(ir.OpBrInst)
		if !ok {
			continue
		}
		if !isIdentityForward(b.Params, br.Args) {
			continue
		}
		retargetAll(f, bid, br.Target, br.Args)
		changed = true
	}
	return changed
}

func isIdentityForward(params []ir.Param, args []ir.ValueId) bool {
	if len(params) != len(args) {
		return false
	}
	for i, p := range params {
		if p.Value != args[i] {
			return false
		}
	}
	return true
}

// retargetAll rewrites every branch in f that targets oldTarget to
// target newTarget, keeping each branch's own args (forwardedParams is
// not consulted). This is sound because collapseEmptyForwarders only
// calls it for a forwarder that passes its own params through unchanged
// and in order, so it contributes nothing but the args it received.
func retargetAll(f *ir.Function, oldTarget, newTarget ir.BlockId, forwardedParams []ir.ValueId) {
	for _, bid := range f.Blocks.Keys() {
		b := f.Blocks.Ptr(bid)
		if len(b.Insts) == 0 {
			continue
		}
		tid := b.Insts[len(b.Insts)-1]
		inst := f.Insts.Get(tid)
		switch o := inst.Op.(type) {
		case ir.OpBrInst:
			if o.Target == oldTarget {
				f.Insts.Set(tid, ir.Inst{Op: ir.OpBrInst{Target: newTarget, Args: o.Args}})
			}
		case ir.OpBrIfInst:
			n := o
			if o.ThenTarget == oldTarget {
				n.ThenTarget = newTarget
			}
			if o.ElseTarget == oldTarget {
				n.ElseTarget = newTarget
			}
			f.Insts.Set(tid, ir.Inst{Op: n})
		case ir.OpSwitchInst:
			n := o
			for i, c := range n.Cases {
				if c.Target == oldTarget {
					n.Cases[i].Target = newTarget
				}
			}
			if n.Default.Target == oldTarget {
				n.Default.Target = newTarget
			}
			f.Insts.Set(tid, ir.Inst{Op: n})
		}
	}
}

// removeUnreachable clears the instruction list of every block not
// reachable from entry by a forward CFG walk; the block itself stays
// in the arena.
func removeUnreachable(f *ir.Function) bool {
	reachable := map[ir.BlockId]bool{f.Entry: true}
	stack := []ir.BlockId{f.Entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		blk := f.Blocks.Get(b)
		if len(blk.Insts) == 0 {
			continue
		}
		term := f.Insts.Get(blk.Insts[len(blk.Insts)-1])
		for _, t := range ir.BranchTargets(term.Op) {
			if !reachable[t] {
				reachable[t] = true
				stack = append(stack, t)
			}
		}
	}
	changed := false
	for _, bid := range f.Blocks.Keys() {
		if !reachable[bid] {
			b := f.Blocks.Ptr(bid)
			if len(b.Insts) > 0 {
				b.Insts = nil
				changed = true
			}
		}
	}
	return changed
}
