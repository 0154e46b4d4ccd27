// Package linear implements the structured linear IR that sits
// between Shape recovery and AST emission (spec §4.16, phases 1-2):
// Linearize turns a Shape tree plus its Function into a flat
// []LinearStmt, and Resolve applies the pure, side-effect-agnostic
// inlining rewrites that handle most of the work before AST emission
// has to reason about side-effect ordering.
package linear

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/structurize"
)

// LinearStmt is one statement of the structured linear IR. It
// references IR entities (ir.ValueId, ir.InstId) rather than
// materialized expressions; the owning Function supplies the
// instruction bodies. Following the house convention of internal/ir's
// Op/Type and internal/structurize's Shape, every concrete stmt
// implements a private marker method.
type LinearStmt interface {
	linearStmtMarker()
}

// Def is `result = op(...)`, ported 1-to-1 from an instruction that
// produces a value.
type Def struct {
	Result ir.ValueId
	InstId ir.InstId
}

// Effect is an instruction kept for its side effect alone (store,
// void call, set-field, ...).
type Effect struct {
	InstId ir.InstId
}

// Assign is a branch-argument assignment `dst = src`.
type Assign struct {
	Dst ir.ValueId
	Src ir.ValueId
}

// If is `if (cond) { then } else { else }`.
type If struct {
	Cond     ir.ValueId
	ThenBody []LinearStmt
	ElseBody []LinearStmt
}

// While is a head-controlled loop; Header recomputes the condition
// every iteration.
type While struct {
	Header      []LinearStmt
	Cond        ir.ValueId
	CondNegated bool
	Body        []LinearStmt
}

// For is `init; header+cond; body; update`.
type For struct {
	Init        []LinearStmt
	Header      []LinearStmt
	Cond        ir.ValueId
	CondNegated bool
	Update      []LinearStmt
	Body        []LinearStmt
}

// Loop is `while (true) { body }`.
type Loop struct {
	Body []LinearStmt
}

// Return returns Value, or nothing if Value is nil.
type Return struct {
	Value *ir.ValueId
}

// Break exits the innermost loop.
type Break struct{}

// Continue restarts the innermost loop.
type Continue struct{}

// LabeledBreak exits an outer loop Depth levels up.
type LabeledBreak struct {
	Depth int
}

// LogicalOr is `phi = cond || rhs`.
type LogicalOr struct {
	Cond    ir.ValueId
	Phi     ir.ValueId
	RhsBody []LinearStmt
	Rhs     ir.ValueId
}

// LogicalAnd is `phi = cond && rhs`.
type LogicalAnd struct {
	Cond    ir.ValueId
	Phi     ir.ValueId
	RhsBody []LinearStmt
	Rhs     ir.ValueId
}

// DispatchBlock is one case of a Dispatch: the original block's dense
// index and its linearized (terminator-inclusive) statements.
type DispatchBlock struct {
	Index int
	Stmts []LinearStmt
}

// Dispatch is the fallback switch over Blocks, entered at Entry.
type Dispatch struct {
	Blocks []DispatchBlock
	Entry  int
}

func (Def) linearStmtMarker()          {}
func (Effect) linearStmtMarker()       {}
func (Assign) linearStmtMarker()       {}
func (If) linearStmtMarker()           {}
func (While) linearStmtMarker()        {}
func (For) linearStmtMarker()          {}
func (Loop) linearStmtMarker()         {}
func (Return) linearStmtMarker()       {}
func (Break) linearStmtMarker()        {}
func (Continue) linearStmtMarker()     {}
func (LabeledBreak) linearStmtMarker() {}
func (LogicalOr) linearStmtMarker()    {}
func (LogicalAnd) linearStmtMarker()   {}
func (Dispatch) linearStmtMarker()     {}

// Linearize walks shape and produces a flat []LinearStmt (spec §4.16
// phase 1). This is a faithful translation with no inlining decisions:
// every non-terminator instruction becomes a Def or Effect, every
// branch arg becomes an Assign, and control-flow shapes map 1-to-1 to
// LinearStmt variants.
func Linearize(f *ir.Function, shape structurize.Shape) []LinearStmt {
	var out []LinearStmt
	linearizeInto(f, shape, &out, false)
	return out
}

func linearizeInto(f *ir.Function, shape structurize.Shape, out *[]LinearStmt, skipInit bool) {
	switch sh := shape.(type) {
	case structurize.Block:
		emitBlockInsts(f, sh.BlockId, out)

	case structurize.Seq:
		for i, part := range sh.Shapes {
			_, nextIsLoop := loopKind(atIndex(sh.Shapes, i+1))

			thisSkipInit := false
			if i > 0 {
				_, isLoop := loopKind(part)
				_, prevIsBlock := sh.Shapes[i-1].(structurize.Block)
				thisSkipInit = isLoop && !prevIsBlock
			}

			linearizeInto(f, part, out, thisSkipInit)

			if blk, ok := part.(structurize.Block); ok && !nextIsLoop {
				emitBrAssigns(f, blk.BlockId, out)
			}
		}

	case structurize.IfElse:
		emitBlockInsts(f, sh.BlockId, out)

		var thenStmts []LinearStmt
		emitArgAssigns(sh.ThenAssigns, &thenStmts)
		linearizeInto(f, sh.ThenBody, &thenStmts, false)

		var elseStmts []LinearStmt
		emitArgAssigns(sh.ElseAssigns, &elseStmts)
		linearizeInto(f, sh.ElseBody, &elseStmts, false)

		*out = append(*out, If{Cond: sh.Cond, ThenBody: thenStmts, ElseBody: elseStmts})

	case structurize.WhileLoop:
		var header []LinearStmt
		emitBlockInsts(f, sh.Header, &header)

		var body []LinearStmt
		linearizeInto(f, sh.Body, &body, false)

		*out = append(*out, While{Header: header, Cond: sh.Cond, CondNegated: sh.CondNegated, Body: body})

	case structurize.ForLoop:
		var init []LinearStmt
		if !skipInit {
			emitArgAssigns(sh.InitAssigns, &init)
		}

		var header []LinearStmt
		emitBlockInsts(f, sh.Header, &header)

		var body []LinearStmt
		linearizeInto(f, sh.Body, &body, false)

		var update []LinearStmt
		emitArgAssigns(sh.UpdateAssigns, &update)

		*out = append(*out, For{Init: init, Header: header, Cond: sh.Cond, CondNegated: sh.CondNegated, Update: update, Body: body})

	case structurize.Loop:
		var body []LinearStmt
		linearizeInto(f, sh.Body, &body, false)
		*out = append(*out, Loop{Body: body})

	case structurize.Break:
		*out = append(*out, Break{})
	case structurize.Continue:
		*out = append(*out, Continue{})
	case structurize.LabeledBreak:
		*out = append(*out, LabeledBreak{Depth: sh.Depth})

	case structurize.LogicalOr:
		emitBlockInsts(f, sh.BlockId, out)
		var rhs []LinearStmt
		linearizeInto(f, sh.RhsBody, &rhs, false)
		*out = append(*out, LogicalOr{Cond: sh.Cond, Phi: sh.Phi, RhsBody: rhs, Rhs: sh.Rhs})

	case structurize.LogicalAnd:
		emitBlockInsts(f, sh.BlockId, out)
		var rhs []LinearStmt
		linearizeInto(f, sh.RhsBody, &rhs, false)
		*out = append(*out, LogicalAnd{Cond: sh.Cond, Phi: sh.Phi, RhsBody: rhs, Rhs: sh.Rhs})

	case structurize.Dispatch:
		blocks := make([]DispatchBlock, 0, len(sh.Blocks))
		for _, bid := range sh.Blocks {
			var stmts []LinearStmt
			emitDispatchBlockInsts(f, bid, &stmts)
			blocks = append(blocks, DispatchBlock{Index: int(bid), Stmts: stmts})
		}
		*out = append(*out, Dispatch{Blocks: blocks, Entry: int(sh.Entry)})
	}
}

func atIndex(shapes []structurize.Shape, i int) structurize.Shape {
	if i < 0 || i >= len(shapes) {
		return nil
	}
	return shapes[i]
}

func loopKind(sh structurize.Shape) (structurize.Shape, bool) {
	switch sh.(type) {
	case structurize.WhileLoop, structurize.ForLoop, structurize.Loop:
		return sh, true
	default:
		return nil, false
	}
}

// emitBlockInsts emits a block's non-terminator instructions as
// Def/Effect, absorbing Br/BrIf/Switch terminators into the
// surrounding Shape and emitting Return directly.
func emitBlockInsts(f *ir.Function, blockId ir.BlockId, out *[]LinearStmt) {
	blk := f.Blocks.Get(blockId)
	for _, instId := range blk.Insts {
		inst := f.Insts.Get(instId)
		switch op := inst.Op.(type) {
		case ir.OpBrInst, ir.OpBrIfInst, ir.OpSwitchInst:
			return
		case ir.OpReturnInst:
			*out = append(*out, Return{Value: op.Value})
		default:
			if inst.Result != nil {
				*out = append(*out, Def{Result: *inst.Result, InstId: instId})
			} else {
				*out = append(*out, Effect{InstId: instId})
			}
		}
	}
}

// emitDispatchBlockInsts is emitBlockInsts but keeps any terminator
// (a Dispatch block's own control flow is not otherwise represented).
func emitDispatchBlockInsts(f *ir.Function, blockId ir.BlockId, out *[]LinearStmt) {
	blk := f.Blocks.Get(blockId)
	for _, instId := range blk.Insts {
		inst := f.Insts.Get(instId)
		if op, ok := inst.Op.(ir.OpReturnInst); ok {
			*out = append(*out, Return{Value: op.Value})
			continue
		}
		if inst.Result != nil {
			*out = append(*out, Def{Result: *inst.Result, InstId: instId})
		} else {
			*out = append(*out, Effect{InstId: instId})
		}
	}
}

// emitBrAssigns emits the Assign statements implied by block's
// unconditional Br terminator, skipping any param that already holds
// its own value.
func emitBrAssigns(f *ir.Function, blockId ir.BlockId, out *[]LinearStmt) {
	blk := f.Blocks.Get(blockId)
	if len(blk.Insts) == 0 {
		return
	}
	last := f.Insts.Get(blk.Insts[len(blk.Insts)-1])
	br, ok := last.Op.(ir.OpBrInst)
	if !ok {
		return
	}
	target := f.Blocks.Get(br.Target)
	n := len(target.Params)
	if len(br.Args) < n {
		n = len(br.Args)
	}
	for i := 0; i < n; i++ {
		param := target.Params[i]
		src := br.Args[i]
		if param.Value == src {
			continue
		}
		*out = append(*out, Assign{Dst: param.Value, Src: src})
	}
}

func emitArgAssigns(assigns []structurize.BlockArgAssign, out *[]LinearStmt) {
	for _, a := range assigns {
		*out = append(*out, Assign{Dst: a.Dst, Src: a.Src})
	}
}
