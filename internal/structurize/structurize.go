package structurize

import "reincarnate/internal/ir"

// MaxDepth bounds structurize_region recursion. Real-world decompiled
// functions can have thousands of blocks forming deep if/else chains;
// without a limit the recursion overflows the goroutine stack (spec
// §4.15, "Recursion budget").
const MaxDepth = 200

// cfg holds per-function successor/predecessor adjacency, built once
// per Structurize call and shared by every recursive step.
type cfg struct {
	succs map[ir.BlockId][]ir.BlockId
	preds map[ir.BlockId][]ir.BlockId
}

func buildCfg(f *ir.Function) cfg {
	c := cfg{succs: map[ir.BlockId][]ir.BlockId{}, preds: map[ir.BlockId][]ir.BlockId{}}
	for _, bid := range f.Blocks.Keys() {
		c.succs[bid] = nil
		c.preds[bid] = nil
	}
	for _, bid := range f.Blocks.Keys() {
		blk := f.Blocks.Get(bid)
		tid, ok := blk.Terminator(&f.Insts)
		if !ok {
			continue
		}
		for _, target := range ir.BranchTargets(f.Insts.Get(tid).Op) {
			c.succs[bid] = append(c.succs[bid], target)
			c.preds[target] = append(c.preds[target], bid)
		}
	}
	return c
}

// naturalLoop is a back-edge-derived loop: a header block plus the set
// of blocks in its body (spec §4.15, "Natural loops").
type naturalLoop struct {
	header ir.BlockId
	body   map[ir.BlockId]bool
}

// detectLoops finds natural loops via back edges u->v where v
// dominates u, then walks backward from u to collect the loop body.
func detectLoops(c cfg, idom map[ir.BlockId]ir.BlockId) []naturalLoop {
	bodies := map[ir.BlockId]map[ir.BlockId]bool{}
	var headers []ir.BlockId

	for block, targets := range c.succs {
		for _, target := range targets {
			if !ir.Dominates(idom, target, block) {
				continue
			}
			body, ok := bodies[target]
			if !ok {
				body = map[ir.BlockId]bool{}
				bodies[target] = body
				headers = append(headers, target)
			}
			var queue []ir.BlockId
			if block != target {
				if !body[block] {
					body[block] = true
					queue = append(queue, block)
				}
			}
			body[target] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				for _, pred := range c.preds[cur] {
					if !body[pred] {
						body[pred] = true
						if pred != target {
							queue = append(queue, pred)
						}
					}
				}
			}
		}
	}

	loops := make([]naturalLoop, 0, len(headers))
	for _, h := range headers {
		loops = append(loops, naturalLoop{header: h, body: bodies[h]})
	}
	return loops
}

// structurizer is the recursive-descent context threaded through
// structurize_region and its helpers (ported from the original's
// Structurizer<'a>).
type structurizer struct {
	f         *ir.Function
	cfg       cfg
	idom      map[ir.BlockId]ir.BlockId
	ipdom     map[ir.BlockId]ir.BlockId
	loops     []naturalLoop
	loopStack []ir.BlockId
	depth     int
}

func newStructurizer(f *ir.Function) *structurizer {
	c := buildCfg(f)
	idom := ir.Dominators(f)
	ipdom := ir.PostDominators(f)
	return &structurizer{
		f:     f,
		cfg:   c,
		idom:  idom,
		ipdom: ipdom,
		loops: detectLoops(c, idom),
	}
}

func (s *structurizer) loopHeaderFor(b ir.BlockId) (naturalLoop, bool) {
	for _, l := range s.loops {
		if l.header == b {
			return l, true
		}
	}
	return naturalLoop{}, false
}

func (s *structurizer) isLoopHeader(b ir.BlockId) bool {
	_, ok := s.loopHeaderFor(b)
	return ok
}

func (s *structurizer) inLoopStack(b ir.BlockId) bool {
	for _, h := range s.loopStack {
		if h == b {
			return true
		}
	}
	return false
}

// terminator returns the first control-flow terminator in block's
// instruction list, falling back to the last instruction. Defensive
// against dead instructions emitted after a terminator.
func (s *structurizer) terminator(b ir.BlockId) ir.Op {
	blk := s.f.Blocks.Get(b)
	for _, iid := range blk.Insts {
		op := s.f.Insts.Get(iid).Op
		if s.f.Insts.Get(iid).IsTerminator() {
			return op
		}
	}
	return s.f.Insts.Get(blk.Insts[len(blk.Insts)-1]).Op
}

func (s *structurizer) branchAssigns(target ir.BlockId, args []ir.ValueId) []BlockArgAssign {
	params := s.f.Blocks.Get(target).Params
	n := len(params)
	if len(args) < n {
		n = len(args)
	}
	assigns := make([]BlockArgAssign, 0, n)
	for i := 0; i < n; i++ {
		assigns = append(assigns, BlockArgAssign{Dst: params[i].Value, Src: args[i]})
	}
	return assigns
}

func asSeq(parts []Shape) Shape {
	if len(parts) == 1 {
		return parts[0]
	}
	return Seq{Shapes: parts}
}

// appendShape appends other to parts, flattening a nested Seq so
// structurize_region never nests Seq inside Seq (mirrors the
// original's Shape::Seq(inner) => parts.extend(inner) arms).
func appendShape(parts []Shape, other Shape) []Shape {
	if seq, ok := other.(Seq); ok {
		return append(parts, seq.Shapes...)
	}
	return append(parts, other)
}

// structurizeRegion is the depth-guarded entry point for recursive
// structuring (spec §4.15, "Recursion budget").
func (s *structurizer) structurizeRegion(block ir.BlockId, until *ir.BlockId, loopBody map[ir.BlockId]bool) Shape {
	if until != nil && block == *until {
		return Seq{}
	}
	s.depth++
	if s.depth > MaxDepth {
		s.depth--
		return s.fallbackDispatch(block, until, loopBody)
	}
	result := s.structurizeRegionInner(block, until, loopBody)
	s.depth--
	return result
}

func (s *structurizer) structurizeRegionInner(block ir.BlockId, until *ir.BlockId, loopBody map[ir.BlockId]bool) Shape {
	if s.isLoopHeader(block) && !s.inLoopStack(block) {
		return s.structurizeLoop(block, until)
	}

	term := s.terminator(block)

	switch op := term.(type) {
	case ir.OpReturnInst:
		return Block{BlockId: block}

	case ir.OpBrInst:
		// Branch-arg assigns are identical across the break/continue
		// arms below regardless of content (mirrors the original's
		// duplicated match arms); block plus the jump shape suffices.
		if loopBody != nil && !loopBody[op.Target] {
			return Seq{Shapes: []Shape{Block{BlockId: block}, Break{}}}
		}
		if s.inLoopStack(op.Target) {
			return Seq{Shapes: []Shape{Block{BlockId: block}, Continue{}}}
		}
		if until != nil && op.Target == *until {
			return Block{BlockId: block}
		}

		rest := s.structurizeRegion(op.Target, until, loopBody)
		parts := appendShape([]Shape{Block{BlockId: block}}, rest)
		return asSeq(parts)

	case ir.OpBrIfInst:
		cond := op.Cond
		thenTarget, elseTarget := op.ThenTarget, op.ElseTarget
		thenAssigns := s.branchAssigns(thenTarget, op.ThenArgs)
		elseAssigns := s.branchAssigns(elseTarget, op.ElseArgs)

		if loopBody != nil {
			thenIn := loopBody[thenTarget]
			elseIn := loopBody[elseTarget]
			var currentHeader *ir.BlockId
			if len(s.loopStack) > 0 {
				h := s.loopStack[len(s.loopStack)-1]
				currentHeader = &h
			}
			thenIsHeader := currentHeader != nil && thenTarget == *currentHeader
			elseIsHeader := currentHeader != nil && elseTarget == *currentHeader

			switch {
			case !thenIn && !elseIn:
				return Seq{Shapes: []Shape{Block{BlockId: block}, Break{}}}
			case !thenIn && elseIsHeader:
				return IfElse{BlockId: block, Cond: cond,
					ThenAssigns: thenAssigns, ThenBody: Break{},
					ElseAssigns: elseAssigns, ElseBody: Continue{}}
			case thenIsHeader && !elseIn:
				return IfElse{BlockId: block, Cond: cond,
					ThenAssigns: thenAssigns, ThenBody: Continue{},
					ElseAssigns: elseAssigns, ElseBody: Break{}}
			case !thenIn && elseIn:
				elseBody := s.structurizeRegion(elseTarget, nil, loopBody)
				return IfElse{BlockId: block, Cond: cond,
					ThenAssigns: thenAssigns, ThenBody: Break{},
					ElseAssigns: elseAssigns, ElseBody: elseBody}
			case thenIn && !elseIn:
				thenBody := s.structurizeRegion(thenTarget, nil, loopBody)
				return IfElse{BlockId: block, Cond: cond,
					ThenAssigns: thenAssigns, ThenBody: thenBody,
					ElseAssigns: elseAssigns, ElseBody: Break{}}
			case thenIsHeader:
				elseBody := s.structurizeRegion(elseTarget, nil, loopBody)
				return IfElse{BlockId: block, Cond: cond,
					ThenAssigns: thenAssigns, ThenBody: Continue{},
					ElseAssigns: elseAssigns, ElseBody: elseBody}
			case elseIsHeader:
				thenBody := s.structurizeRegion(thenTarget, nil, loopBody)
				return IfElse{BlockId: block, Cond: cond,
					ThenAssigns: thenAssigns, ThenBody: thenBody,
					ElseAssigns: elseAssigns, ElseBody: Continue{}}
			}
		}

		merge := s.findMerge(block, until)

		var thenBody Shape
		if merge != nil && thenTarget == *merge {
			thenBody = Seq{}
		} else {
			thenBody = s.structurizeRegion(thenTarget, orUntil(merge, until), loopBody)
		}
		var elseBody Shape
		if merge != nil && elseTarget == *merge {
			elseBody = Seq{}
		} else {
			elseBody = s.structurizeRegion(elseTarget, orUntil(merge, until), loopBody)
		}

		ifShape := s.maybeLogical(block, cond, thenAssigns, thenBody, elseAssigns, elseBody)

		if merge != nil && (until == nil || *merge != *until) {
			rest := s.structurizeRegion(*merge, until, loopBody)
			parts := appendShape([]Shape{ifShape}, rest)
			return asSeq(parts)
		}
		return ifShape

	case ir.OpSwitchInst:
		// Fallback: emit block as-is; the Switch's successors are not
		// structured here.
		return Block{BlockId: block}

	default:
		return Block{BlockId: block}
	}
}

func orUntil(merge, until *ir.BlockId) *ir.BlockId {
	if merge != nil {
		return merge
	}
	return until
}

// maybeLogical recognizes LogicalOr/LogicalAnd: an IfElse whose
// trivial (empty-body) side hands the condition straight through to a
// single merge-point assignment (spec §4.15).
func (s *structurizer) maybeLogical(block ir.BlockId, cond ir.ValueId, thenAssigns []BlockArgAssign, thenBody Shape, elseAssigns []BlockArgAssign, elseBody Shape) Shape {
	thenEmpty := isEmptySeq(thenBody)
	elseEmpty := isEmptySeq(elseBody)

	if thenEmpty && !elseEmpty && len(thenAssigns) == 1 && thenAssigns[0].Src == cond {
		return LogicalOr{BlockId: block, Cond: cond, Phi: thenAssigns[0].Dst, RhsBody: elseBody, Rhs: singleSrc(elseAssigns)}
	}
	if elseEmpty && !thenEmpty && len(elseAssigns) == 1 && elseAssigns[0].Src == cond {
		return LogicalAnd{BlockId: block, Cond: cond, Phi: elseAssigns[0].Dst, RhsBody: thenBody, Rhs: singleSrc(thenAssigns)}
	}
	return IfElse{BlockId: block, Cond: cond,
		ThenAssigns: thenAssigns, ThenBody: thenBody,
		ElseAssigns: elseAssigns, ElseBody: elseBody}
}

func isEmptySeq(sh Shape) bool {
	seq, ok := sh.(Seq)
	return ok && len(seq.Shapes) == 0
}

func singleSrc(assigns []BlockArgAssign) ir.ValueId {
	if len(assigns) != 1 {
		return 0
	}
	return assigns[0].Src
}

// findMerge returns the immediate post-dominator of block, if any —
// the merge point for its IfElse (spec §4.15).
func (s *structurizer) findMerge(block ir.BlockId, until *ir.BlockId) *ir.BlockId {
	ip, ok := s.ipdom[block]
	if !ok || ip == block {
		return nil
	}
	return &ip
}

// fallbackDispatch collects all blocks reachable from block (bounded
// by until and loopBody) for a Dispatch shape. It is used only when
// recursion depth is exceeded; irreducible regions are not detected
// separately.
func (s *structurizer) fallbackDispatch(block ir.BlockId, until *ir.BlockId, loopBody map[ir.BlockId]bool) Shape {
	var blocks []ir.BlockId
	visited := map[ir.BlockId]bool{}
	queue := []ir.BlockId{block}

	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if visited[b] {
			continue
		}
		visited[b] = true
		if until != nil && b == *until {
			continue
		}
		if loopBody != nil && !loopBody[b] {
			continue
		}
		blocks = append(blocks, b)
		queue = append(queue, s.cfg.succs[b]...)
	}

	if len(blocks) == 0 {
		return Seq{}
	}
	return Dispatch{Entry: block, Blocks: blocks}
}

func (s *structurizer) structurizeLoop(header ir.BlockId, until *ir.BlockId) Shape {
	loop, _ := s.loopHeaderFor(header)
	loopBody := loop.body

	term := s.terminator(header)

	exit := s.findLoopExit(header, loopBody)

	s.loopStack = append(s.loopStack, header)

	var shape Shape
	if op, ok := term.(ir.OpBrIfInst); ok {
		thenIn := loopBody[op.ThenTarget]
		elseIn := loopBody[op.ElseTarget]
		switch {
		case thenIn && !elseIn:
			body := s.structurizeRegion(op.ThenTarget, nil, loopBody)
			shape = s.tryForLoop(header, op.Cond, false, body, loopBody)
		case !thenIn && elseIn:
			body := s.structurizeRegion(op.ElseTarget, nil, loopBody)
			shape = s.tryForLoop(header, op.Cond, true, body, loopBody)
		default:
			shape = s.structurizeGeneralLoop(header, loopBody)
		}
	} else {
		shape = s.structurizeGeneralLoop(header, loopBody)
	}

	s.loopStack = s.loopStack[:len(s.loopStack)-1]

	if exit != nil && (until == nil || *exit != *until) {
		rest := s.structurizeRegion(*exit, until, nil)
		parts := appendShape([]Shape{shape}, rest)
		return asSeq(parts)
	}
	return shape
}

func (s *structurizer) findLoopExit(header ir.BlockId, loopBody map[ir.BlockId]bool) *ir.BlockId {
	if op, ok := s.terminator(header).(ir.OpBrIfInst); ok {
		if !loopBody[op.ThenTarget] {
			t := op.ThenTarget
			return &t
		}
		if !loopBody[op.ElseTarget] {
			t := op.ElseTarget
			return &t
		}
	}
	return s.findExitInBody(loopBody)
}

func (s *structurizer) findExitInBody(loopBody map[ir.BlockId]bool) *ir.BlockId {
	for b := range loopBody {
		for _, succ := range s.cfg.succs[b] {
			if !loopBody[succ] {
				r := succ
				return &r
			}
		}
	}
	return nil
}

// tryForLoop upgrades a WhileLoop to a ForLoop when the header carries
// block parameters fed by a unique pre-loop predecessor and the
// back-edge predecessor (spec §4.15).
func (s *structurizer) tryForLoop(header ir.BlockId, cond ir.ValueId, negated bool, body Shape, loopBody map[ir.BlockId]bool) Shape {
	headerBlock := s.f.Blocks.Get(header)
	if len(headerBlock.Params) == 0 {
		return WhileLoop{Header: header, Cond: cond, CondNegated: negated, Body: body}
	}

	init := s.findPreLoopAssigns(header, loopBody)
	update := s.findBackEdgeAssigns(header, loopBody)
	if init != nil && update != nil {
		return ForLoop{Header: header, InitAssigns: init, Cond: cond, CondNegated: negated, UpdateAssigns: update, Body: body}
	}
	return WhileLoop{Header: header, Cond: cond, CondNegated: negated, Body: body}
}

func (s *structurizer) findPreLoopAssigns(header ir.BlockId, loopBody map[ir.BlockId]bool) []BlockArgAssign {
	for _, pred := range s.cfg.preds[header] {
		if loopBody[pred] {
			continue
		}
		if op, ok := s.terminator(pred).(ir.OpBrInst); ok && op.Target == header {
			return s.branchAssigns(header, op.Args)
		}
	}
	return nil
}

func (s *structurizer) findBackEdgeAssigns(header ir.BlockId, loopBody map[ir.BlockId]bool) []BlockArgAssign {
	for _, pred := range s.cfg.preds[header] {
		if !loopBody[pred] || pred == header {
			continue
		}
		if op, ok := s.terminator(pred).(ir.OpBrInst); ok && op.Target == header {
			return s.branchAssigns(header, op.Args)
		}
	}
	return nil
}

func (s *structurizer) structurizeGeneralLoop(header ir.BlockId, loopBody map[ir.BlockId]bool) Shape {
	body := s.structurizeRegion(header, nil, loopBody)
	return Loop{Header: header, Body: body}
}

// Structurize analyzes f's block-based CFG and recovers a Shape tree
// (spec §4.15). Single-block functions return Block(entry) directly.
// The analysis is pure and idempotent: running it twice on the same
// function produces equal shape trees (spec §4.15, "Termination
// contract"; spec §8 law 8).
func Structurize(f *ir.Function) Shape {
	if f.Blocks.Len() == 1 {
		return Block{BlockId: f.Entry}
	}
	s := newStructurizer(f)
	return s.structurizeRegion(f.Entry, nil, nil)
}
