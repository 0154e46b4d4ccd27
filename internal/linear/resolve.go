package linear

import "reincarnate/internal/ir"

// Resolved is the output of Resolve: the pruned statement list plus
// the set of values phase 3 (AST emission) must inline at their single
// use site rather than bind to a name.
type Resolved struct {
	Stmts  []LinearStmt
	Inline map[ir.ValueId]bool
}

// Resolve applies the pure, side-effect-agnostic rewrites of spec
// §4.16 phase 2: constants are always marked for inlining, pure
// single-use values are marked for substitution into their one use
// site, and pure defs with no remaining use are dropped outright.
// Side-effecting values are left exactly as linearized — ordering
// concerns are phase 3's job.
func Resolve(f *ir.Function, stmts []LinearStmt) Resolved {
	uses := map[ir.ValueId]int{}
	countUses(stmts, uses)

	inline := map[ir.ValueId]bool{}
	markInline(f, stmts, uses, inline)

	return Resolved{Stmts: dropDead(f, stmts, uses, inline), Inline: inline}
}

// countUses tallies every read of a ValueId across stmts, recursing
// into nested bodies. A Def's own result is not counted as a use of
// itself; only operands of the underlying instruction count (those of
// Defs and Effects are added by countDefOperands).
func countUses(stmts []LinearStmt, uses map[ir.ValueId]int) {
	count := func(v ir.ValueId) { uses[v]++ }
	countOpt := func(v *ir.ValueId) {
		if v != nil {
			uses[*v]++
		}
	}

	for _, st := range stmts {
		switch s := st.(type) {
		case Def, Effect:
			// Operand reads are counted when walking the instruction's
			// own operand list, not here — see markInline, which reads
			// ir.Operands lazily per Def/Effect to avoid double bookkeeping.
		case Assign:
			count(s.Src)
		case If:
			count(s.Cond)
			countUses(s.ThenBody, uses)
			countUses(s.ElseBody, uses)
		case While:
			count(s.Cond)
			countUses(s.Header, uses)
			countUses(s.Body, uses)
		case For:
			count(s.Cond)
			countUses(s.Init, uses)
			countUses(s.Header, uses)
			countUses(s.Update, uses)
			countUses(s.Body, uses)
		case Loop:
			countUses(s.Body, uses)
		case Return:
			countOpt(s.Value)
		case LogicalOr:
			count(s.Cond)
			count(s.Rhs)
			countUses(s.RhsBody, uses)
		case LogicalAnd:
			count(s.Cond)
			count(s.Rhs)
			countUses(s.RhsBody, uses)
		case Dispatch:
			for _, b := range s.Blocks {
				countUses(b.Stmts, uses)
			}
		}
	}
}

// countDefOperands adds one use for every operand a Def's or Effect's
// underlying instruction reads.
func countDefOperands(f *ir.Function, stmts []LinearStmt, uses map[ir.ValueId]int) {
	for _, st := range stmts {
		switch s := st.(type) {
		case Def:
			for _, v := range ir.Operands(f.Insts.Get(s.InstId).Op) {
				uses[v]++
			}
		case Effect:
			for _, v := range ir.Operands(f.Insts.Get(s.InstId).Op) {
				uses[v]++
			}
		case If:
			countDefOperands(f, s.ThenBody, uses)
			countDefOperands(f, s.ElseBody, uses)
		case While:
			countDefOperands(f, s.Header, uses)
			countDefOperands(f, s.Body, uses)
		case For:
			countDefOperands(f, s.Init, uses)
			countDefOperands(f, s.Header, uses)
			countDefOperands(f, s.Update, uses)
			countDefOperands(f, s.Body, uses)
		case Loop:
			countDefOperands(f, s.Body, uses)
		case LogicalOr:
			countDefOperands(f, s.RhsBody, uses)
		case LogicalAnd:
			countDefOperands(f, s.RhsBody, uses)
		case Dispatch:
			for _, b := range s.Blocks {
				countDefOperands(f, b.Stmts, uses)
			}
		}
	}
}

func markInline(f *ir.Function, stmts []LinearStmt, uses map[ir.ValueId]int, inline map[ir.ValueId]bool) {
	countDefOperands(f, stmts, uses)

	var walk func([]LinearStmt)
	walk = func(ss []LinearStmt) {
		for _, st := range ss {
			switch s := st.(type) {
			case Def:
				inst := f.Insts.Get(s.InstId)
				if _, isConst := inst.Op.(ir.OpConstInst); isConst {
					inline[s.Result] = true
				} else if inst.IsPure() && uses[s.Result] == 1 {
					inline[s.Result] = true
				}
			case If:
				walk(s.ThenBody)
				walk(s.ElseBody)
			case While:
				walk(s.Header)
				walk(s.Body)
			case For:
				walk(s.Init)
				walk(s.Header)
				walk(s.Update)
				walk(s.Body)
			case Loop:
				walk(s.Body)
			case LogicalOr:
				walk(s.RhsBody)
			case LogicalAnd:
				walk(s.RhsBody)
			case Dispatch:
				for _, b := range s.Blocks {
					walk(b.Stmts)
				}
			}
		}
	}
	walk(stmts)
}

// dropDead removes pure Defs with zero remaining uses; everything else
// (including every Def now marked Inline, which phase 3 still needs to
// find at its single use site) passes through unchanged.
func dropDead(f *ir.Function, stmts []LinearStmt, uses map[ir.ValueId]int, inline map[ir.ValueId]bool) []LinearStmt {
	out := make([]LinearStmt, 0, len(stmts))
	for _, st := range stmts {
		switch s := st.(type) {
		case Def:
			if uses[s.Result] == 0 && f.Insts.Get(s.InstId).IsPure() {
				continue
			}
			out = append(out, s)
		case If:
			s.ThenBody = dropDead(f, s.ThenBody, uses, inline)
			s.ElseBody = dropDead(f, s.ElseBody, uses, inline)
			out = append(out, s)
		case While:
			s.Header = dropDead(f, s.Header, uses, inline)
			s.Body = dropDead(f, s.Body, uses, inline)
			out = append(out, s)
		case For:
			s.Init = dropDead(f, s.Init, uses, inline)
			s.Header = dropDead(f, s.Header, uses, inline)
			s.Update = dropDead(f, s.Update, uses, inline)
			s.Body = dropDead(f, s.Body, uses, inline)
			out = append(out, s)
		case Loop:
			s.Body = dropDead(f, s.Body, uses, inline)
			out = append(out, s)
		case LogicalOr:
			s.RhsBody = dropDead(f, s.RhsBody, uses, inline)
			out = append(out, s)
		case LogicalAnd:
			s.RhsBody = dropDead(f, s.RhsBody, uses, inline)
			out = append(out, s)
		case Dispatch:
			blocks := make([]DispatchBlock, len(s.Blocks))
			for i, b := range s.Blocks {
				blocks[i] = DispatchBlock{Index: b.Index, Stmts: dropDead(f, b.Stmts, uses, inline)}
			}
			s.Blocks = blocks
			out = append(out, s)
		default:
			out = append(out, st)
		}
	}
	return out
}
