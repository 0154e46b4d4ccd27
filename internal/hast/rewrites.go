package hast

import "reincarnate/internal/ir"

// RewriteTernary rewrites single-assign if/else into a ternary
// expression (spec §4.17): `if (c) { x = a } else { x = b }` becomes
// `x = c ? a : b`. Only matches when both branches are exactly one
// assignment to structurally-equal targets. Recurses into every nested
// statement body first (ported from the original's rewrite_ternary).
func RewriteTernary(body []Stmt) []Stmt {
	for i, st := range body {
		recurseInto(st, RewriteTernary)
		if replacement, ok := matchTernary(st); ok {
			body[i] = replacement
		}
	}
	return body
}

func matchTernary(st Stmt) (Stmt, bool) {
	ifStmt, ok := st.(If)
	if !ok || len(ifStmt.ThenBody) != 1 || len(ifStmt.ElseBody) != 1 {
		return nil, false
	}
	thenAssign, ok := ifStmt.ThenBody[0].(Assign)
	if !ok {
		return nil, false
	}
	elseAssign, ok := ifStmt.ElseBody[0].(Assign)
	if !ok {
		return nil, false
	}
	if !exprEqual(thenAssign.Target, elseAssign.Target) {
		return nil, false
	}
	return Assign{
		Target: thenAssign.Target,
		Value: Ternary{
			Cond:    ifStmt.Cond,
			ThenVal: thenAssign.Value,
			ElseVal: elseAssign.Value,
		},
	}, true
}

// RewriteMinMax rewrites a ternary over a comparison into a
// Math.max/Math.min call (spec §4.17). Must run after RewriteTernary.
func RewriteMinMax(body []Stmt) []Stmt {
	for i, st := range body {
		recurseInto(st, RewriteMinMax)
		assign, ok := st.(Assign)
		if !ok {
			continue
		}
		if replacement, ok := matchMinMax(assign); ok {
			body[i] = replacement
		}
	}
	return body
}

func matchMinMax(assign Assign) (Stmt, bool) {
	tern, ok := assign.Value.(Ternary)
	if !ok {
		return nil, false
	}
	cmp, ok := tern.Cond.(Cmp)
	if !ok {
		return nil, false
	}

	var funcName string
	switch cmp.Kind {
	case ir.CmpGe, ir.CmpGt:
		switch {
		case exprEqual(tern.ThenVal, cmp.Lhs) && exprEqual(tern.ElseVal, cmp.Rhs):
			funcName = "Math.max"
		case exprEqual(tern.ThenVal, cmp.Rhs) && exprEqual(tern.ElseVal, cmp.Lhs):
			funcName = "Math.min"
		default:
			return nil, false
		}
	case ir.CmpLe, ir.CmpLt:
		switch {
		case exprEqual(tern.ThenVal, cmp.Lhs) && exprEqual(tern.ElseVal, cmp.Rhs):
			funcName = "Math.min"
		case exprEqual(tern.ThenVal, cmp.Rhs) && exprEqual(tern.ElseVal, cmp.Lhs):
			funcName = "Math.max"
		default:
			return nil, false
		}
	default:
		return nil, false
	}

	return Assign{
		Target: assign.Target,
		Value:  Call{Func: funcName, Args: []Expr{tern.ThenVal, tern.ElseVal}},
	}, true
}

// RewriteCompoundAssign rewrites `x = x op y` into `x op= y`, matching
// only when x is the binary's left operand — preserving operand order
// for non-commutative ops (spec §4.17).
func RewriteCompoundAssign(body []Stmt) []Stmt {
	for i, st := range body {
		recurseInto(st, RewriteCompoundAssign)
		assign, ok := st.(Assign)
		if !ok {
			continue
		}
		if replacement, ok := matchCompoundAssign(assign); ok {
			body[i] = replacement
		}
	}
	return body
}

func matchCompoundAssign(assign Assign) (Stmt, bool) {
	bin, ok := assign.Value.(Binary)
	if !ok {
		return nil, false
	}
	if !exprEqual(bin.Lhs, assign.Target) {
		return nil, false
	}
	return CompoundAssign{Target: assign.Target, Op: bin.Op, Value: bin.Rhs}, true
}

// recurseInto applies pass to every nested statement body of st
// (ported from the original's recurse_into_stmt).
func recurseInto(st Stmt, pass func([]Stmt) []Stmt) {
	switch s := st.(type) {
	case If:
		s.ThenBody = pass(s.ThenBody)
		s.ElseBody = pass(s.ElseBody)
	case While:
		s.Body = pass(s.Body)
	case For:
		s.Init = pass(s.Init)
		s.Update = pass(s.Update)
		s.Body = pass(s.Body)
	case Loop:
		s.Body = pass(s.Body)
	case LogicalOr:
		s.RhsBody = pass(s.RhsBody)
	case LogicalAnd:
		s.RhsBody = pass(s.RhsBody)
	case Dispatch:
		for i := range s.Blocks {
			s.Blocks[i].Body = pass(s.Blocks[i].Body)
		}
	}
}
