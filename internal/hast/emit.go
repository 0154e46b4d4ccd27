package hast

import (
	"fmt"

	"reincarnate/internal/ir"
	"reincarnate/internal/linear"
)

// EmitConfig mirrors pipeline.LoweringConfig's Emit-time decisions:
// whether a loop's guard condition is hoisted into the `while (cond)`
// head versus left as a leading `if (!cond) break;`, and whether
// LogicalOr/LogicalAnd shapes are lowered to `||`/`&&` statements
// versus kept as explicit `if` (spec §4.16, SPEC_FULL.md §3).
type EmitConfig struct {
	WhileConditionHoisting bool
	LogicalOperators       bool
}

// Emit walks resolved and materializes the high-level statement AST
// (spec §4.16 phase 3). Values Resolve marked Inline are substituted
// directly into their use site; every other Def gets a named Let
// binding. f supplies instruction bodies and optional debug names.
func Emit(f *ir.Function, resolved linear.Resolved, cfg EmitConfig) []Stmt {
	e := &emitter{f: f, inline: resolved.Inline, env: map[ir.ValueId]Expr{}, cfg: cfg}
	return e.walk(resolved.Stmts)
}

type emitter struct {
	f      *ir.Function
	inline map[ir.ValueId]bool
	env    map[ir.ValueId]Expr
	cfg    EmitConfig
}

// breakIf builds the `if (<loop should stop>) break;` guard used when
// WhileConditionHoisting is off. cond/condNegated follow linear.While's
// convention: the loop continues while cond holds, unless condNegated
// is set, in which case cond already denotes the stop condition.
func (e *emitter) breakIf(cond Expr, condNegated bool) Stmt {
	stop := cond
	if !condNegated {
		stop = Unary{Op: ir.OpLogicalNot, Operand: cond}
	}
	return If{Cond: stop, ThenBody: []Stmt{Break{}}}
}

func nameFor(f *ir.Function, v ir.ValueId) string {
	if f.ValueNames != nil {
		if n, ok := f.ValueNames[v]; ok && n != "" {
			return n
		}
	}
	return fmt.Sprintf("v%d", uint32(v))
}

// lookup resolves a ValueId read to an Expr: an inlined value's cached
// expression, a named binding's Ident, or (for values never seen as a
// Def — function params and raw block-param phis) a fresh Ident by
// name.
func (e *emitter) lookup(v ir.ValueId) Expr {
	if expr, ok := e.env[v]; ok {
		return expr
	}
	return Ident{Name: nameFor(e.f, v)}
}

func (e *emitter) lookupOpt(v *ir.ValueId) Expr {
	if v == nil {
		return nil
	}
	return e.lookup(*v)
}

// exprFromOp builds the Expr a value-producing op denotes, resolving
// every operand through lookup so an inlined operand's own expression
// is substituted transitively.
func (e *emitter) exprFromOp(op ir.Op) Expr {
	switch o := op.(type) {
	case ir.OpConstInst:
		return Const{Value: o.Value}
	case ir.OpBinaryInst:
		return Binary{Op: o.Kind, Lhs: e.lookup(o.A), Rhs: e.lookup(o.B)}
	case ir.OpUnaryInst:
		return Unary{Op: o.Kind, Operand: e.lookup(o.A)}
	case ir.OpCmpInst:
		return Cmp{Kind: o.Kind, Lhs: e.lookup(o.A), Rhs: e.lookup(o.B)}
	case ir.OpLoadInst:
		return e.lookup(o.Ptr)
	case ir.OpGetFieldInst:
		return FieldAccess{Object: e.lookup(o.Object), Field: o.Field}
	case ir.OpGetIndexInst:
		return IndexAccess{Collection: e.lookup(o.Collection), Index: e.lookup(o.Index)}
	case ir.OpStructInitInst:
		fields := make([]FieldValue, len(o.Fields))
		for i, fv := range o.Fields {
			fields[i] = FieldValue{Name: fv.Name, Value: e.lookup(fv.Value)}
		}
		return StructInit{Name: o.Name, Fields: fields}
	case ir.OpArrayInitInst:
		return ArrayInit{Elems: e.lookupAll(o.Elems)}
	case ir.OpTupleInitInst:
		return TupleInit{Elems: e.lookupAll(o.Elems)}
	case ir.OpCallInst:
		return Call{Func: o.Func, Args: e.lookupAll(o.Args)}
	case ir.OpCallIndirectInst:
		return CallIndirect{Callee: e.lookup(o.Callee), Args: e.lookupAll(o.Args)}
	case ir.OpSystemCallInst:
		return SystemCall{System: o.System, Method: o.Method, Args: e.lookupAll(o.Args)}
	case ir.OpCastInst:
		return Cast{Value: e.lookup(o.Value), Ty: o.Ty}
	case ir.OpTypeCheckInst:
		return TypeCheck{Value: e.lookup(o.Value), Ty: o.Ty}
	case ir.OpCoroutineCreateInst:
		return CoroutineCreate{Func: o.Func, Args: e.lookupAll(o.Args)}
	case ir.OpCoroutineResumeInst:
		return CoroutineResume{Value: e.lookup(o.Value)}
	case ir.OpGlobalRefInst:
		return GlobalRef{Name: o.Name}
	case ir.OpCopyInst:
		return e.lookup(o.Src)
	case ir.OpAllocInst:
		return Ident{Name: "<alloc>"}
	default:
		return Ident{Name: "<unsupported>"}
	}
}

func (e *emitter) lookupAll(vs []ir.ValueId) []Expr {
	out := make([]Expr, len(vs))
	for i, v := range vs {
		out[i] = e.lookup(v)
	}
	return out
}

// effectStmt builds the Stmt a side-effecting op denotes (spec §4.2's
// side-effectful ops, plus a void-result Call/SystemCall kept for its
// effect).
func (e *emitter) effectStmt(op ir.Op) Stmt {
	switch o := op.(type) {
	case ir.OpStoreInst:
		return Store{Ptr: e.lookup(o.Ptr), Value: e.lookup(o.Value)}
	case ir.OpSetFieldInst:
		return SetField{Object: e.lookup(o.Object), Field: o.Field, Value: e.lookup(o.Value)}
	case ir.OpSetIndexInst:
		return SetIndex{Collection: e.lookup(o.Collection), Index: e.lookup(o.Index), Value: e.lookup(o.Value)}
	case ir.OpYieldInst:
		return Yield{Value: e.lookupOpt(o.Value)}
	default:
		return ExprStmt{Expr: e.exprFromOp(op)}
	}
}

// explicitShortCircuit lowers a LogicalOr/LogicalAnd shape into a
// plain if/else when LogicalOperators is off: `||` takes cond's value
// and short-circuits when cond is true; `&&` short-circuits when cond
// is false, otherwise both fall through to the rhs side.
func (e *emitter) explicitShortCircuit(phi string, cond Expr, rhsBody []Stmt, rhs Expr, isOr bool) []Stmt {
	shortCircuit := []Stmt{Assign{Target: Ident{Name: phi}, Value: cond}}
	evalRhs := append(append([]Stmt{}, rhsBody...), Assign{Target: Ident{Name: phi}, Value: rhs})
	if isOr {
		return []Stmt{If{Cond: cond, ThenBody: shortCircuit, ElseBody: evalRhs}}
	}
	return []Stmt{If{Cond: cond, ThenBody: evalRhs, ElseBody: shortCircuit}}
}

func (e *emitter) walk(stmts []linear.LinearStmt) []Stmt {
	out := make([]Stmt, 0, len(stmts))
	for _, st := range stmts {
		switch s := st.(type) {
		case linear.Def:
			inst := e.f.Insts.Get(s.InstId)
			expr := e.exprFromOp(inst.Op)
			if e.inline[s.Result] {
				e.env[s.Result] = expr
				continue
			}
			name := nameFor(e.f, s.Result)
			e.env[s.Result] = Ident{Name: name}
			out = append(out, Let{Name: name, Value: expr})

		case linear.Effect:
			out = append(out, e.effectStmt(e.f.Insts.Get(s.InstId).Op))

		case linear.Assign:
			name := nameFor(e.f, s.Dst)
			out = append(out, Assign{Target: Ident{Name: name}, Value: e.lookup(s.Src)})
			e.env[s.Dst] = Ident{Name: name}

		case linear.If:
			out = append(out, If{Cond: e.lookup(s.Cond), ThenBody: e.walk(s.ThenBody), ElseBody: e.walk(s.ElseBody)})

		case linear.While:
			// The header recomputes cond on every iteration, including
			// the first. When WhileConditionHoisting is on, it is
			// rotated into the while head itself: run once before the
			// loop and again at the end of each body pass (header;
			// while(cond) { body; header }), matching how a head-tested
			// CFG loop actually executes. Off, the header stays a
			// leading statement inside an unconditional Loop, guarded
			// by an explicit break.
			header := e.walk(s.Header)
			cond := e.lookup(s.Cond)
			body := e.walk(s.Body)
			if e.cfg.WhileConditionHoisting {
				out = append(out, header...)
				bodyThenHeader := append(append([]Stmt{}, body...), e.walk(s.Header)...)
				out = append(out, While{Cond: cond, CondNegated: s.CondNegated, Body: bodyThenHeader})
			} else {
				loopBody := append(append([]Stmt{}, header...), e.breakIf(cond, s.CondNegated))
				loopBody = append(loopBody, body...)
				out = append(out, Loop{Body: loopBody})
			}

		case linear.For:
			init := e.walk(s.Init)
			header := e.walk(s.Header)
			cond := e.lookup(s.Cond)
			body := e.walk(s.Body)
			update := e.walk(s.Update)
			out = append(out, init...)
			if e.cfg.WhileConditionHoisting {
				out = append(out, header...)
				updateThenHeader := append(append([]Stmt{}, update...), e.walk(s.Header)...)
				out = append(out, For{Init: nil, Cond: cond, CondNegated: s.CondNegated, Update: updateThenHeader, Body: body})
			} else {
				loopBody := append(append([]Stmt{}, header...), e.breakIf(cond, s.CondNegated))
				loopBody = append(loopBody, body...)
				loopBody = append(loopBody, update...)
				out = append(out, Loop{Body: loopBody})
			}

		case linear.Loop:
			out = append(out, Loop{Body: e.walk(s.Body)})

		case linear.Return:
			out = append(out, Return{Value: e.lookupOpt(s.Value)})

		case linear.Break:
			out = append(out, Break{})
		case linear.Continue:
			out = append(out, Continue{})
		case linear.LabeledBreak:
			out = append(out, LabeledBreak{Depth: s.Depth})

		case linear.LogicalOr:
			cond := e.lookup(s.Cond)
			rhsBody := e.walk(s.RhsBody)
			rhs := e.lookup(s.Rhs)
			name := nameFor(e.f, s.Phi)
			if e.cfg.LogicalOperators {
				out = append(out, LogicalOr{Phi: name, Cond: cond, RhsBody: rhsBody, Rhs: rhs})
			} else {
				out = append(out, e.explicitShortCircuit(name, cond, rhsBody, rhs, true)...)
			}
			e.env[s.Phi] = Ident{Name: name}

		case linear.LogicalAnd:
			cond := e.lookup(s.Cond)
			rhsBody := e.walk(s.RhsBody)
			rhs := e.lookup(s.Rhs)
			name := nameFor(e.f, s.Phi)
			if e.cfg.LogicalOperators {
				out = append(out, LogicalAnd{Phi: name, Cond: cond, RhsBody: rhsBody, Rhs: rhs})
			} else {
				out = append(out, e.explicitShortCircuit(name, cond, rhsBody, rhs, false)...)
			}
			e.env[s.Phi] = Ident{Name: name}

		case linear.Dispatch:
			blocks := make([]DispatchBlock, len(s.Blocks))
			for i, b := range s.Blocks {
				blocks[i] = DispatchBlock{Index: b.Index, Body: e.walk(b.Stmts)}
			}
			out = append(out, Dispatch{Blocks: blocks, Entry: s.Entry})
		}
	}
	return out
}
