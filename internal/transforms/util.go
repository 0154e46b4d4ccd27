package transforms

import "reincarnate/internal/ir"

// mapOperands returns a copy of op with every ValueId it reads —
// operands and branch-arg lists alike — rewritten through f. Branch
// target BlockIds and field/type names are left untouched. This is the
// write counterpart to ir.Operands, used wherever a pass needs to
// rename a value within a bounded region of a function (CoroutineLowering's
// per-state spill rewrite; Mem2Reg's phi renaming uses the narrower
// appendBranchArgs instead since it only ever appends, never replaces).
func mapOperands(op ir.Op, f func(ir.ValueId) ir.ValueId) ir.Op {
	mapList := func(vs []ir.ValueId) []ir.ValueId {
		if vs == nil {
			return nil
		}
		out := make([]ir.ValueId, len(vs))
		for i, v := range vs {
			out[i] = f(v)
		}
		return out
	}
	switch o := op.(type) {
	case ir.OpBinaryInst:
		o.A, o.B = f(o.A), f(o.B)
		return o
	case ir.OpUnaryInst:
		o.A = f(o.A)
		return o
	case ir.OpCmpInst:
		o.A, o.B = f(o.A), f(o.B)
		return o
	case ir.OpLoadInst:
		o.Ptr = f(o.Ptr)
		return o
	case ir.OpStoreInst:
		o.Ptr, o.Value = f(o.Ptr), f(o.Value)
		return o
	case ir.OpGetFieldInst:
		o.Object = f(o.Object)
		return o
	case ir.OpSetFieldInst:
		o.Object, o.Value = f(o.Object), f(o.Value)
		return o
	case ir.OpGetIndexInst:
		o.Collection, o.Index = f(o.Collection), f(o.Index)
		return o
	case ir.OpSetIndexInst:
		o.Collection, o.Index, o.Value = f(o.Collection), f(o.Index), f(o.Value)
		return o
	case ir.OpStructInitInst:
		fields := make([]ir.FieldInit, len(o.Fields))
		for i, fi := range o.Fields {
			fields[i] = ir.FieldInit{Name: fi.Name, Value: f(fi.Value)}
		}
		o.Fields = fields
		return o
	case ir.OpArrayInitInst:
		o.Elems = mapList(o.Elems)
		return o
	case ir.OpTupleInitInst:
		o.Elems = mapList(o.Elems)
		return o
	case ir.OpCallInst:
		o.Args = mapList(o.Args)
		return o
	case ir.OpCallIndirectInst:
		o.Callee = f(o.Callee)
		o.Args = mapList(o.Args)
		return o
	case ir.OpSystemCallInst:
		o.Args = mapList(o.Args)
		return o
	case ir.OpCastInst:
		o.Value = f(o.Value)
		return o
	case ir.OpTypeCheckInst:
		o.Value = f(o.Value)
		return o
	case ir.OpCoroutineCreateInst:
		o.Args = mapList(o.Args)
		return o
	case ir.OpCoroutineResumeInst:
		o.Value = f(o.Value)
		return o
	case ir.OpCopyInst:
		o.Src = f(o.Src)
		return o
	case ir.OpYieldInst:
		if o.Value != nil {
			v := f(*o.Value)
			o.Value = &v
		}
		return o
	case ir.OpBrInst:
		o.Args = mapList(o.Args)
		return o
	case ir.OpBrIfInst:
		o.Cond = f(o.Cond)
		o.ThenArgs = mapList(o.ThenArgs)
		o.ElseArgs = mapList(o.ElseArgs)
		return o
	case ir.OpSwitchInst:
		o.Value = f(o.Value)
		cases := make([]ir.SwitchCase, len(o.Cases))
		for i, c := range o.Cases {
			cases[i] = ir.SwitchCase{Value: c.Value, Target: c.Target, Args: mapList(c.Args)}
		}
		o.Cases = cases
		o.Default = ir.SwitchCase{Value: o.Default.Value, Target: o.Default.Target, Args: mapList(o.Default.Args)}
		return o
	case ir.OpReturnInst:
		if o.Value != nil {
			v := f(*o.Value)
			o.Value = &v
		}
		return o
	default:
		return op
	}
}

// blockSuccessors returns the successor BlockIds of b's terminator, or
// nil if b is empty or its last instruction is not a terminator.
func blockSuccessors(f *ir.Function, b ir.BlockId) []ir.BlockId {
	blk := f.Blocks.Get(b)
	if len(blk.Insts) == 0 {
		return nil
	}
	term := f.Insts.Get(blk.Insts[len(blk.Insts)-1])
	return ir.BranchTargets(term.Op)
}
