package ir

import "reincarnate/internal/diag"

// Verify checks the invariants of spec §3.4 for f — no dangling ids,
// single terminator, branch-arg arity and typing, entry-sig
// consistency, and SSA dominance — and returns a diag.Error
// (KindInvariant) describing the first violation found, or nil if none
// is found. Value-type coherence (invariant 4) is not checked. Builder.Build panics with this error;
// passes call Verify in tests to assert their output stayed well-formed.
func Verify(f *Function) *diag.Error {
	if err := verifyNoDangling(f); err != nil {
		return err
	}
	if err := verifyTerminators(f); err != nil {
		return err
	}
	if err := verifyBranchArgs(f); err != nil {
		return err
	}
	if err := verifyEntrySig(f); err != nil {
		return err
	}
	if err := verifyDominance(f); err != nil {
		return err
	}
	return nil
}

func verifyNoDangling(f *Function) *diag.Error {
	nBlocks := f.Blocks.Len()
	nInsts := f.Insts.Len()
	nValues := f.ValueTypes.Len()
	if uint32(f.Entry) >= uint32(nBlocks) {
		return diag.Invariant(f.Name, "entry block %d out of range", f.Entry)
	}
	var err *diag.Error
	f.Blocks.Range(func(_ BlockId, b Block) {
		if err != nil {
			return
		}
		for _, p := range b.Params {
			if uint32(p.Value) >= uint32(nValues) {
				err = diag.Invariant(f.Name, "dangling value id %d in block param", p.Value)
				return
			}
		}
		for _, iid := range b.Insts {
			if uint32(iid) >= uint32(nInsts) {
				err = diag.Invariant(f.Name, "dangling inst id %d", iid)
				return
			}
			inst := f.Insts.Get(iid)
			if inst.Result != nil && uint32(*inst.Result) >= uint32(nValues) {
				err = diag.Invariant(f.Name, "dangling result value id %d", *inst.Result)
				return
			}
			for _, v := range Operands(inst.Op) {
				if uint32(v) >= uint32(nValues) {
					err = diag.Invariant(f.Name, "dangling operand value id %d", v)
					return
				}
			}
			for _, t := range BranchTargets(inst.Op) {
				if uint32(t) >= uint32(nBlocks) {
					err = diag.Invariant(f.Name, "dangling branch target block id %d", t)
					return
				}
			}
		}
	})
	return err
}

// verifyTerminators enforces invariant §3.4.2 on every block reachable
// from entry; unreachable blocks may be left emptied by CfgSimplify
// until pipeline compaction drops their dead instructions, so they are
// excluded here ("every reachable block ends with exactly one
// terminator").
func verifyTerminators(f *Function) *diag.Error {
	reachable := reachableBlocks(f)
	var err *diag.Error
	f.Blocks.Range(func(bid BlockId, b Block) {
		if err != nil || !reachable[bid] {
			return
		}
		for i, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			isLast := i == len(b.Insts)-1
			if inst.IsTerminator() && !isLast {
				err = diag.Invariant(f.Name, "instruction follows terminator in block %d", bid)
				return
			}
			if !inst.IsTerminator() && isLast {
				err = diag.Invariant(f.Name, "block %d does not end with a terminator", bid)
				return
			}
		}
		if len(b.Insts) == 0 {
			err = diag.Invariant(f.Name, "block %d has no terminator", bid)
		}
	})
	return err
}

func reachableBlocks(f *Function) map[BlockId]bool {
	reachable := map[BlockId]bool{f.Entry: true}
	stack := []BlockId{f.Entry}
	succ := blockSucc(f)
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range succ(b) {
			if !reachable[t] {
				reachable[t] = true
				stack = append(stack, t)
			}
		}
	}
	return reachable
}

func verifyBranchArgs(f *Function) *diag.Error {
	var err *diag.Error
	checkTarget := func(target BlockId, args []ValueId) bool {
		params := f.Blocks.Get(target).Params
		if len(args) != len(params) {
			return false
		}
		for i, a := range args {
			if !Compatible(f.ValueTypes.Get(a), params[i].Ty) {
				return false
			}
		}
		return true
	}
	f.Blocks.Range(func(bid BlockId, b Block) {
		if err != nil || len(b.Insts) == 0 {
			return
		}
		term := f.Insts.Get(b.Insts[len(b.Insts)-1])
		switch o := term.Op.(type) {
		case OpBrInst:
			if !checkTarget(o.Target, o.Args) {
				err = diag.Invariant(f.Name, "branch-arg arity/type mismatch at block %d -> %d", bid, o.Target)
			}
		case OpBrIfInst:
			if !checkTarget(o.ThenTarget, o.ThenArgs) || !checkTarget(o.ElseTarget, o.ElseArgs) {
				err = diag.Invariant(f.Name, "branch-arg arity/type mismatch in br_if at block %d", bid)
			}
		case OpSwitchInst:
			for _, c := range o.Cases {
				if !checkTarget(c.Target, c.Args) {
					err = diag.Invariant(f.Name, "branch-arg arity/type mismatch in switch case at block %d", bid)
					return
				}
			}
			if !checkTarget(o.Default.Target, o.Default.Args) {
				err = diag.Invariant(f.Name, "branch-arg arity/type mismatch in switch default at block %d", bid)
			}
		}
	})
	return err
}

func verifyEntrySig(f *Function) *diag.Error {
	entry := f.Blocks.Get(f.Entry)
	if len(entry.Params) != len(f.Sig.Params) {
		return diag.Invariant(f.Name, "entry param count %d does not match sig param count %d", len(entry.Params), len(f.Sig.Params))
	}
	for i, p := range entry.Params {
		if !TypesEqual(p.Ty, f.Sig.Params[i]) {
			return diag.Invariant(f.Name, "entry param %d type disagrees with sig", i)
		}
		if !TypesEqual(f.ValueTypes.Get(p.Value), p.Ty) {
			return diag.Invariant(f.Name, "entry param %d type disagrees with value_types", i)
		}
	}
	return nil
}

// verifyDominance checks that every value's use is dominated by its
// definition (invariant §3.4.1): entry params dominate the whole
// function; an instruction result dominates every use not in its own
// defining block, and precedes the use within its own block.
func verifyDominance(f *Function) *diag.Error {
	idom := Dominators(f)
	defBlock := map[ValueId]BlockId{}
	defIndex := map[ValueId]int{} // position within def block, -1 for params
	for _, p := range f.Blocks.Get(f.Entry).Params {
		defBlock[p.Value] = f.Entry
		defIndex[p.Value] = -1
	}
	f.Blocks.Range(func(bid BlockId, b Block) {
		for _, p := range b.Params {
			if _, ok := defBlock[p.Value]; !ok {
				defBlock[p.Value] = bid
				defIndex[p.Value] = -1
			}
		}
		for i, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.Result != nil {
				defBlock[*inst.Result] = bid
				defIndex[*inst.Result] = i
			}
		}
	})

	var err *diag.Error
	checkUse := func(useBlock BlockId, useIndex int, v ValueId) {
		if err != nil {
			return
		}
		db, ok := defBlock[v]
		if !ok {
			return // reported separately by verifyNoDangling
		}
		if db == useBlock {
			if defIndex[v] >= 0 && defIndex[v] >= useIndex {
				err = diag.Invariant(f.Name, "value %d used before its definition in block %d", v, useBlock)
			}
			return
		}
		if !Dominates(idom, db, useBlock) {
			err = diag.Invariant(f.Name, "definition of value %d does not dominate use in block %d", v, useBlock)
		}
	}

	f.Blocks.Range(func(bid BlockId, b Block) {
		for i, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			for _, v := range Operands(inst.Op) {
				checkUse(bid, i, v)
			}
		}
	})
	return err
}
