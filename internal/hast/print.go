package hast

import (
	"fmt"
	"strings"
)

// Printer renders a Stmt tree as readable, deterministic text —
// grounded on internal/ir's Printer (indent + strings.Builder).
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

// Print renders a statement list, as emitted by Emit and rewritten by
// RewriteTernary/RewriteMinMax/RewriteCompoundAssign.
func Print(stmts []Stmt) string {
	p := NewPrinter()
	p.printStmts(stmts)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...any) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printStmts(stmts []Stmt) {
	for _, s := range stmts {
		p.printStmt(s)
	}
}

func (p *Printer) printStmt(st Stmt) {
	switch s := st.(type) {
	case ExprStmt:
		p.writeLine("%s", printExpr(s.Expr))
	case Let:
		p.writeLine("let %s = %s", s.Name, printExpr(s.Value))
	case Assign:
		p.writeLine("%s = %s", printExpr(s.Target), printExpr(s.Value))
	case CompoundAssign:
		p.writeLine("%s %v= %s", printExpr(s.Target), s.Op, printExpr(s.Value))
	case Store:
		p.writeLine("*%s = %s", printExpr(s.Ptr), printExpr(s.Value))
	case SetField:
		p.writeLine("%s.%s = %s", printExpr(s.Object), s.Field, printExpr(s.Value))
	case SetIndex:
		p.writeLine("%s[%s] = %s", printExpr(s.Collection), printExpr(s.Index), printExpr(s.Value))
	case Yield:
		if s.Value != nil {
			p.writeLine("yield %s", printExpr(s.Value))
		} else {
			p.writeLine("yield")
		}
	case If:
		p.writeLine("if %s {", printExpr(s.Cond))
		p.indent++
		p.printStmts(s.ThenBody)
		p.indent--
		p.writeLine("} else {")
		p.indent++
		p.printStmts(s.ElseBody)
		p.indent--
		p.writeLine("}")
	case While:
		cond := printExpr(s.Cond)
		if s.CondNegated {
			cond = "!(" + cond + ")"
		}
		p.writeLine("while %s {", cond)
		p.indent++
		p.printStmts(s.Body)
		p.indent--
		p.writeLine("}")
	case For:
		p.writeLine("for {")
		p.indent++
		p.printStmts(s.Init)
		cond := printExpr(s.Cond)
		if s.CondNegated {
			cond = "!(" + cond + ")"
		}
		p.writeLine("while %s {", cond)
		p.indent++
		p.printStmts(s.Body)
		p.printStmts(s.Update)
		p.indent--
		p.writeLine("}")
		p.indent--
		p.writeLine("}")
	case Loop:
		p.writeLine("loop {")
		p.indent++
		p.printStmts(s.Body)
		p.indent--
		p.writeLine("}")
	case Return:
		if s.Value != nil {
			p.writeLine("return %s", printExpr(s.Value))
		} else {
			p.writeLine("return")
		}
	case Break:
		p.writeLine("break")
	case Continue:
		p.writeLine("continue")
	case LabeledBreak:
		p.writeLine("break@%d", s.Depth)
	case LogicalOr:
		p.writeLine("%s = %s || {", s.Phi, printExpr(s.Cond))
		p.indent++
		p.printStmts(s.RhsBody)
		p.indent--
		p.writeLine("} (%s)", printExpr(s.Rhs))
	case LogicalAnd:
		p.writeLine("%s = %s && {", s.Phi, printExpr(s.Cond))
		p.indent++
		p.printStmts(s.RhsBody)
		p.indent--
		p.writeLine("} (%s)", printExpr(s.Rhs))
	case Dispatch:
		p.writeLine("dispatch entry=%d {", s.Entry)
		p.indent++
		for _, b := range s.Blocks {
			p.writeLine("case %d:", b.Index)
			p.indent++
			p.printStmts(b.Body)
			p.indent--
		}
		p.indent--
		p.writeLine("}")
	}
}

func printExpr(e Expr) string {
	switch v := e.(type) {
	case Const:
		return fmt.Sprintf("%v", v.Value)
	case Ident:
		return v.Name
	case Binary:
		return fmt.Sprintf("(%s %v %s)", printExpr(v.Lhs), v.Op, printExpr(v.Rhs))
	case Unary:
		return fmt.Sprintf("(%v %s)", v.Op, printExpr(v.Operand))
	case Cmp:
		return fmt.Sprintf("(%s %v %s)", printExpr(v.Lhs), v.Kind, printExpr(v.Rhs))
	case Ternary:
		return fmt.Sprintf("(%s ? %s : %s)", printExpr(v.Cond), printExpr(v.ThenVal), printExpr(v.ElseVal))
	case Call:
		return fmt.Sprintf("%s(%s)", v.Func, joinExprs(v.Args))
	case CallIndirect:
		return fmt.Sprintf("%s(%s)", printExpr(v.Callee), joinExprs(v.Args))
	case SystemCall:
		return fmt.Sprintf("%s.%s(%s)", v.System, v.Method, joinExprs(v.Args))
	case FieldAccess:
		return fmt.Sprintf("%s.%s", printExpr(v.Object), v.Field)
	case IndexAccess:
		return fmt.Sprintf("%s[%s]", printExpr(v.Collection), printExpr(v.Index))
	case StructInit:
		parts := make([]string, len(v.Fields))
		for i, fv := range v.Fields {
			parts[i] = fmt.Sprintf("%s: %s", fv.Name, printExpr(fv.Value))
		}
		return fmt.Sprintf("%s { %s }", v.Name, strings.Join(parts, ", "))
	case ArrayInit:
		return fmt.Sprintf("[%s]", joinExprs(v.Elems))
	case TupleInit:
		return fmt.Sprintf("(%s)", joinExprs(v.Elems))
	case Cast:
		return fmt.Sprintf("(%s as %s)", printExpr(v.Value), v.Ty)
	case TypeCheck:
		return fmt.Sprintf("(%s is %s)", printExpr(v.Value), v.Ty)
	case CoroutineCreate:
		return fmt.Sprintf("coroutine_create %s(%s)", v.Func, joinExprs(v.Args))
	case CoroutineResume:
		return fmt.Sprintf("coroutine_resume %s", printExpr(v.Value))
	case GlobalRef:
		return v.Name
	default:
		return "<unknown-expr>"
	}
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = printExpr(e)
	}
	return strings.Join(parts, ", ")
}
