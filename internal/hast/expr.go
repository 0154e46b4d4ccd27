// Package hast implements the high-level statement/expression AST that
// is the final stage of the hybrid lowering pipeline (spec §4.16 phase
// 3), plus the AST-to-AST rewrites that run after emission (spec
// §4.17): ternary, Math.min/max, and compound assignment.
package hast

import "reincarnate/internal/ir"

// Expr is a high-level expression. Concrete variants follow the house
// convention of internal/ir's Op/Type and internal/structurize's
// Shape: every variant implements a private marker method.
type Expr interface {
	exprMarker()
}

// Const is a materialized literal.
type Const struct {
	Value ir.Constant
}

// Ident is a named reference to a let/const binding introduced during
// emission, or to a function parameter.
type Ident struct {
	Name string
}

// Binary is `lhs op rhs`.
type Binary struct {
	Op       ir.BinOpKind
	Lhs, Rhs Expr
}

// Unary is `op operand`.
type Unary struct {
	Op      ir.UnOpKind
	Operand Expr
}

// Cmp is a comparison `lhs kind rhs`.
type Cmp struct {
	Kind     ir.CmpKind
	Lhs, Rhs Expr
}

// Ternary is `cond ? then_val : else_val`, introduced by the ternary
// rewrite (spec §4.17) and consumed by the min/max rewrite.
type Ternary struct {
	Cond    Expr
	ThenVal Expr
	ElseVal Expr
}

// Call is a named function call, also used to represent the
// synthesized `Math.max`/`Math.min` calls the min/max rewrite produces.
type Call struct {
	Func string
	Args []Expr
}

// CallIndirect is a call through a function-pointer value.
type CallIndirect struct {
	Callee Expr
	Args   []Expr
}

// SystemCall is a call into a host/engine-provided system API.
type SystemCall struct {
	System, Method string
	Args           []Expr
}

// FieldAccess is `object.field`.
type FieldAccess struct {
	Object Expr
	Field  string
}

// IndexAccess is `collection[index]`.
type IndexAccess struct {
	Collection Expr
	Index      Expr
}

// StructInit is `Name { field: value, ... }`.
type StructInit struct {
	Name   string
	Fields []FieldValue
}

// FieldValue is one field initializer of a StructInit.
type FieldValue struct {
	Name  string
	Value Expr
}

// ArrayInit is `[elems...]`.
type ArrayInit struct {
	Elems []Expr
}

// TupleInit is `(elems...)`.
type TupleInit struct {
	Elems []Expr
}

// Cast is `value as ty`.
type Cast struct {
	Value Expr
	Ty    ir.Type
}

// TypeCheck is `value is ty`.
type TypeCheck struct {
	Value Expr
	Ty    ir.Type
}

// CoroutineCreate instantiates a coroutine state machine.
type CoroutineCreate struct {
	Func string
	Args []Expr
}

// CoroutineResume resumes a suspended coroutine.
type CoroutineResume struct {
	Value Expr
}

// GlobalRef is a reference to a module-level global.
type GlobalRef struct {
	Name string
}

func (Const) exprMarker()           {}
func (Ident) exprMarker()           {}
func (Binary) exprMarker()          {}
func (Unary) exprMarker()           {}
func (Cmp) exprMarker()             {}
func (Ternary) exprMarker()         {}
func (Call) exprMarker()            {}
func (CallIndirect) exprMarker()    {}
func (SystemCall) exprMarker()      {}
func (FieldAccess) exprMarker()     {}
func (IndexAccess) exprMarker()     {}
func (StructInit) exprMarker()      {}
func (ArrayInit) exprMarker()       {}
func (TupleInit) exprMarker()       {}
func (Cast) exprMarker()            {}
func (TypeCheck) exprMarker()       {}
func (CoroutineCreate) exprMarker() {}
func (CoroutineResume) exprMarker() {}
func (GlobalRef) exprMarker()       {}

// exprEqual is the structural equality the ternary and compound-assign
// matchers need (Rust's derived PartialEq on Expr). Reflect-free since
// Expr's variant set is closed and small.
func exprEqual(a, b Expr) bool {
	switch av := a.(type) {
	case Ident:
		bv, ok := b.(Ident)
		return ok && av.Name == bv.Name
	case Const:
		bv, ok := b.(Const)
		return ok && av.Value.Eq(bv.Value)
	case FieldAccess:
		bv, ok := b.(FieldAccess)
		return ok && av.Field == bv.Field && exprEqual(av.Object, bv.Object)
	case IndexAccess:
		bv, ok := b.(IndexAccess)
		return ok && exprEqual(av.Collection, bv.Collection) && exprEqual(av.Index, bv.Index)
	case GlobalRef:
		bv, ok := b.(GlobalRef)
		return ok && av.Name == bv.Name
	default:
		return false
	}
}
