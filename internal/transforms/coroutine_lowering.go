package transforms

import (
	"fmt"

	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// CoroutineLowering is the pass of spec §4.13: a function marked as a
// coroutine is rewritten into an explicit state machine. Each
// Yield becomes a state boundary; every value live across a boundary
// is spilled into a generated state struct; the lowered function
// takes that struct as its sole parameter and, on every invocation,
// dispatches via a Switch on the struct's `state` field to the right
// continuation, running to the next Yield (or the terminal Return)
// before handing control back. The exact encoding is backend-defined
// (spec §4.13); this lowering keeps the whole function in one SSA
// body reachable from a single dispatch block rather than splitting
// it into N separate functions, which keeps invariant §3.4 checkable
// in the usual way.
type CoroutineLowering struct{}

func (CoroutineLowering) Name() string  { return "coroutine-lowering" }
func (CoroutineLowering) RunOnce() bool { return false }

func (CoroutineLowering) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	changed := false
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		if f.Coroutine == nil {
			continue
		}
		lowerCoroutine(module, &f)
		module.Functions.Set(fid, f)
		changed = true
	}
	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

func lowerCoroutine(module *ir.Module, f *ir.Function) {
	originalEntry := f.Entry
	originalParams := append([]ir.Param{}, f.Blocks.Get(originalEntry).Params...)

	continuations := splitAtYields(f)
	roots := append([]ir.BlockId{originalEntry}, continuations...)

	stateOf := assignStates(f, roots)

	stateTypeName := f.Coroutine.StateTypeName
	if stateTypeName == "" {
		stateTypeName = f.Name + "State"
	}
	selfTy := ir.TClassRef{Name: stateTypeName}

	// Every original parameter must be fetched from the state struct,
	// since the lowered function no longer receives them positionally.
	spilled := map[ir.ValueId]ir.Type{}
	for _, p := range originalParams {
		spilled[p.Value] = p.Ty
	}
	collectCrossStateSpills(f, stateOf, spilled)

	fields := []ir.FieldDef{{Name: "state", Ty: ir.TInt{Bits: 32}}}
	for v, ty := range spilled {
		fields = append(fields, ir.FieldDef{Name: stateFieldName(v), Ty: ty})
	}
	module.Structs = append(module.Structs, ir.StructDef{Name: stateTypeName, Fields: fields})

	selfParam := f.ValueTypes.Push(selfTy)

	// Clear the original entry's params; the lowered function takes
	// only the state struct.
	entryBlk := f.Blocks.Ptr(originalEntry)
	entryBlk.Params = nil

	originalParamIds := map[ir.ValueId]bool{}
	for _, p := range originalParams {
		originalParamIds[p.Value] = true
	}

	// At the root of every state, fetch every spilled value this state
	// uses via GetField, rewriting its uses within that state to the
	// freshly fetched value (a fresh ValueId keeps the IR in SSA form:
	// each state-local fetch is its own, non-conflicting definition).
	// Original parameters are fetched in every state that uses them: the
	// entry block's params were cleared above, so nothing else defines
	// them any more. liveInState records, per state, the id that
	// currently holds each spilled variable's value — the fetch result
	// where one was fetched, or the original defining id where the
	// variable is native to this state — so a later outgoing spill
	// writes the right value instead of a stale, no-longer-defined one.
	liveInState := map[int]map[ir.ValueId]ir.ValueId{}
	for i, root := range roots {
		usesInState := valuesUsedInState(f, stateOf, i)
		live := map[ir.ValueId]ir.ValueId{}
		var prelude []ir.InstId
		for v, ty := range spilled {
			if !usesInState[v] {
				continue
			}
			if !originalParamIds[v] && stateOf[defBlockOf(f, v, originalEntry, originalParams)] == i {
				live[v] = v // defined in this very state; no fetch needed
				continue
			}
			fresh := f.ValueTypes.Push(ty)
			getField := f.Insts.Push(ir.Inst{
				Op:     ir.OpGetFieldInst{Object: selfParam, Field: stateFieldName(v)},
				Result: &fresh,
			})
			prelude = append(prelude, getField)
			renameInState(f, stateOf, i, v, fresh)
			live[v] = fresh
		}
		if len(prelude) > 0 {
			blk := f.Blocks.Ptr(root)
			blk.Insts = append(prelude, blk.Insts...)
		}
		liveInState[i] = live
	}

	// Rewrite every Yield (always immediately followed by the Br that
	// splitAtYields inserted to its continuation) into: spill live
	// values, set state to that continuation, and return the yielded
	// value in its place — dropping the now-redundant Br so the new
	// Return remains the block's sole terminator.
	yieldRets := map[ir.InstId]bool{}
	for _, bid := range f.Blocks.Keys() {
		blk := f.Blocks.Ptr(bid)
		state := stateOf[bid]
		for idx, iid := range blk.Insts {
			yieldOp, ok := f.Insts.Get(iid).Op.(ir.OpYieldInst)
			if !ok {
				continue
			}
			br := f.Insts.Get(blk.Insts[idx+1]).Op.(ir.OpBrInst)
			nextState := stateOf[br.Target]
			spillWrites := spillPrelude(f, selfParam, liveInState[state], nextState)
			ret := f.Insts.Push(ir.Inst{Op: ir.OpReturnInst{Value: yieldOp.Value}})
			yieldRets[ret] = true
			tail := append(append([]ir.InstId{}, spillWrites...), ret)
			blk.Insts = append(append([]ir.InstId{}, blk.Insts[:idx]...), tail...)
			break
		}
	}

	// Every original Return gets the terminal-state spill prelude
	// inserted just before it (it already is, and remains, the block's
	// sole terminator).
	// A terminal Return ends the coroutine for good: no state will ever
	// read the spilled fields again, so only the sentinel state marker
	// needs writing, not the (possibly stale) data fields themselves.
	const terminalState = -1
	for _, bid := range f.Blocks.Keys() {
		blk := f.Blocks.Ptr(bid)
		if len(blk.Insts) == 0 {
			continue
		}
		last := len(blk.Insts) - 1
		if _, ok := f.Insts.Get(blk.Insts[last]).Op.(ir.OpReturnInst); !ok || yieldRets[blk.Insts[last]] {
			continue
		}
		spillWrites := spillPrelude(f, selfParam, nil, terminalState)
		blk.Insts = append(append(append([]ir.InstId{}, blk.Insts[:last]...), spillWrites...), blk.Insts[last])
	}

	// Build the dispatch entry: fetch state, switch on it to each root.
	dispatchBid := f.Blocks.Push(ir.Block{Params: []ir.Param{{Value: selfParam, Ty: selfTy}}})
	stateVal := f.ValueTypes.Push(ir.TInt{Bits: 32})
	getState := f.Insts.Push(ir.Inst{Op: ir.OpGetFieldInst{Object: selfParam, Field: "state"}, Result: &stateVal})
	cases := make([]ir.SwitchCase, len(roots))
	for i, root := range roots {
		cases[i] = ir.SwitchCase{Value: ir.ConstIntVal(int64(i)), Target: root}
	}
	sw := f.Insts.Push(ir.Inst{Op: ir.OpSwitchInst{Value: stateVal, Cases: cases, Default: cases[len(cases)-1]}})
	dispatch := f.Blocks.Ptr(dispatchBid)
	dispatch.Insts = []ir.InstId{getState, sw}

	f.Entry = dispatchBid
	f.Sig = ir.FunctionSig{Params: []ir.Type{selfTy}, ReturnTy: f.Sig.ReturnTy}
}

func stateFieldName(v ir.ValueId) string { return fmt.Sprintf("v%d", uint32(v)) }

// splitAtYields rewrites every block containing a non-trailing Yield
// into two blocks joined by an unconditional Br, returning the new
// continuation blocks in split order.
func splitAtYields(f *ir.Function) []ir.BlockId {
	var continuations []ir.BlockId
	for _, bid := range f.Blocks.Keys() {
		cur := bid
		for {
			b := f.Blocks.Get(cur)
			idx := -1
			for i, iid := range b.Insts {
				if _, ok := f.Insts.Get(iid).Op.(ir.OpYieldInst); ok {
					idx = i
					break
				}
			}
			if idx == -1 || idx == len(b.Insts)-1 {
				break
			}
			newBid := f.Blocks.Push(ir.Block{})
			newBlk := f.Blocks.Ptr(newBid)
			newBlk.Insts = append([]ir.InstId{}, b.Insts[idx+1:]...)
			blk := f.Blocks.Ptr(cur)
			brID := f.Insts.Push(ir.Inst{Op: ir.OpBrInst{Target: newBid}})
			blk.Insts = append(blk.Insts[:idx+1], brID)
			continuations = append(continuations, newBid)
			cur = newBid
		}
	}
	return continuations
}

// assignStates partitions every block into the state rooted at the
// nearest dominating root, via forward BFS that stops at other roots.
func assignStates(f *ir.Function, roots []ir.BlockId) map[ir.BlockId]int {
	stateOf := map[ir.BlockId]int{}
	isRoot := map[ir.BlockId]bool{}
	for _, r := range roots {
		isRoot[r] = true
	}
	for i, r := range roots {
		if _, ok := stateOf[r]; ok {
			continue
		}
		stateOf[r] = i
		queue := []ir.BlockId{r}
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			for _, s := range blockSuccessors(f, b) {
				if isRoot[s] {
					continue
				}
				if _, ok := stateOf[s]; ok {
					continue
				}
				stateOf[s] = i
				queue = append(queue, s)
			}
		}
	}
	return stateOf
}

// defBlockOf finds the block a value is defined in: the original
// entry for one of its original params, or a scan over every
// instruction result otherwise.
func defBlockOf(f *ir.Function, v ir.ValueId, originalEntry ir.BlockId, originalParams []ir.Param) ir.BlockId {
	for _, p := range originalParams {
		if p.Value == v {
			return originalEntry
		}
	}
	var found ir.BlockId
	f.Blocks.Range(func(bid ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.Result != nil && *inst.Result == v {
				found = bid
			}
		}
	})
	return found
}

// collectCrossStateSpills adds to spilled every value defined in one
// state and used (as an operand) in another.
func collectCrossStateSpills(f *ir.Function, stateOf map[ir.BlockId]int, spilled map[ir.ValueId]ir.Type) {
	defState := map[ir.ValueId]int{}
	f.Blocks.Range(func(bid ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.Result != nil {
				defState[*inst.Result] = stateOf[bid]
			}
		}
	})
	f.Blocks.Range(func(bid ir.BlockId, b ir.Block) {
		useState := stateOf[bid]
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			for _, v := range ir.Operands(inst.Op) {
				if ds, ok := defState[v]; ok && ds != useState {
					spilled[v] = f.ValueTypes.Get(v)
				}
			}
		}
	})
}

func valuesUsedInState(f *ir.Function, stateOf map[ir.BlockId]int, state int) map[ir.ValueId]bool {
	used := map[ir.ValueId]bool{}
	f.Blocks.Range(func(bid ir.BlockId, b ir.Block) {
		if stateOf[bid] != state {
			return
		}
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			for _, v := range ir.Operands(inst.Op) {
				used[v] = true
			}
		}
	})
	return used
}

// renameInState rewrites every use of old within blocks belonging to
// state to new.
func renameInState(f *ir.Function, stateOf map[ir.BlockId]int, state int, old, new ir.ValueId) {
	for _, bid := range f.Blocks.Keys() {
		if stateOf[bid] != state {
			continue
		}
		blk := f.Blocks.Ptr(bid)
		for _, iid := range blk.Insts {
			inst := f.Insts.Get(iid)
			newOp := mapOperands(inst.Op, func(v ir.ValueId) ir.ValueId {
				if v == old {
					return new
				}
				return v
			})
			f.Insts.Set(iid, ir.Inst{Op: newOp, Result: inst.Result})
		}
	}
}

// spillPrelude returns the SetField instructions needed to persist
// every variable live in the outgoing state (keyed by its original
// spilled id, valued by whatever id currently holds it — see
// liveInState) plus the new state number, before a state transition.
func spillPrelude(f *ir.Function, self ir.ValueId, live map[ir.ValueId]ir.ValueId, nextState int) []ir.InstId {
	var out []ir.InstId
	for orig, cur := range live {
		out = append(out, f.Insts.Push(ir.Inst{Op: ir.OpSetFieldInst{Object: self, Field: stateFieldName(orig), Value: cur}}))
	}
	stateConst := f.ValueTypes.Push(ir.TInt{Bits: 32})
	constInst := f.Insts.Push(ir.Inst{Op: ir.OpConstInst{Value: ir.ConstIntVal(int64(nextState))}, Result: &stateConst})
	out = append(out, constInst)
	out = append(out, f.Insts.Push(ir.Inst{Op: ir.OpSetFieldInst{Object: self, Field: "state", Value: stateConst}}))
	return out
}
