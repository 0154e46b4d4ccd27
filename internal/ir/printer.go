package ir

import (
	"fmt"
	"strings"
)

// Printer renders a Module as readable, deterministic text — grounded
// on Kanso's internal/ir/printer.go Printer (indent + strings.Builder).
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

// Print renders an entire module.
func Print(m *Module) string {
	p := NewPrinter()
	p.printModule(m)
	return p.output.String()
}

// PrintFunction renders a single function, for dump-ir-after output.
func PrintFunction(f *Function) string {
	p := NewPrinter()
	p.printFunction(f)
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

func (p *Printer) printModule(m *Module) {
	p.writeLine("MODULE %s", m.Name)
	for _, s := range m.Structs {
		p.writeLine("STRUCT %s %s", s.Name, s.Visibility)
		p.indent++
		for _, fld := range s.Fields {
			p.writeLine("%s: %s", fld.Name, fld.Ty)
		}
		p.indent--
	}
	for _, e := range m.Enums {
		p.writeLine("ENUM %s %s", e.Name, e.Visibility)
	}
	for _, g := range m.Globals {
		mut := ""
		if g.Mutable {
			mut = "mut "
		}
		p.writeLine("GLOBAL %s%s: %s", mut, g.Name, g.Ty)
	}
	m.Functions.Range(func(_ FuncId, f Function) {
		p.writeLine("")
		p.printFunction(&f)
	})
}

func (p *Printer) printFunction(f *Function) {
	params := make([]string, len(f.Sig.Params))
	for i, t := range f.Sig.Params {
		params[i] = t.String()
	}
	p.writeLine("FUNCTION %s(%s) -> %s %s", f.Name, strings.Join(params, ", "), f.Sig.ReturnTy, f.Visibility)
	p.indent++
	order := f.Blocks.Keys()
	for _, bid := range order {
		p.printBlock(f, bid)
	}
	p.indent--
}

func (p *Printer) printBlock(f *Function, bid BlockId) {
	b := f.Blocks.Get(bid)
	paramStrs := make([]string, len(b.Params))
	for i, pm := range b.Params {
		paramStrs[i] = fmt.Sprintf("%s: %s", p.valueName(f, pm.Value), pm.Ty)
	}
	p.writeLine("block%d(%s):", bid, strings.Join(paramStrs, ", "))
	p.indent++
	for _, iid := range b.Insts {
		p.printInst(f, iid)
	}
	p.indent--
}

func (p *Printer) valueName(f *Function, v ValueId) string {
	if n, ok := f.ValueNames[v]; ok {
		return n
	}
	return fmt.Sprintf("%%%d", v)
}

func (p *Printer) printInst(f *Function, iid InstId) {
	inst := f.Insts.Get(iid)
	rhs := formatOp(p, f, inst.Op)
	if inst.Result != nil {
		p.writeLine("%s = %s", p.valueName(f, *inst.Result), rhs)
	} else {
		p.writeLine("%s", rhs)
	}
}

func (p *Printer) vs(f *Function, vals []ValueId) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = p.valueName(f, v)
	}
	return strings.Join(parts, ", ")
}

func formatOp(p *Printer, f *Function, op Op) string {
	switch o := op.(type) {
	case OpConstInst:
		return fmt.Sprintf("const %s", o.Value)
	case OpBinaryInst:
		return fmt.Sprintf("%s %s, %s", o.Kind, p.valueName(f, o.A), p.valueName(f, o.B))
	case OpUnaryInst:
		return fmt.Sprintf("%s %s", o.Kind, p.valueName(f, o.A))
	case OpCmpInst:
		return fmt.Sprintf("cmp.%s %s, %s", o.Kind, p.valueName(f, o.A), p.valueName(f, o.B))
	case OpAllocInst:
		return fmt.Sprintf("alloc %s", o.Ty)
	case OpLoadInst:
		return fmt.Sprintf("load %s", p.valueName(f, o.Ptr))
	case OpStoreInst:
		return fmt.Sprintf("store %s, %s", p.valueName(f, o.Ptr), p.valueName(f, o.Value))
	case OpGetFieldInst:
		return fmt.Sprintf("get_field %s, %s", p.valueName(f, o.Object), o.Field)
	case OpSetFieldInst:
		return fmt.Sprintf("set_field %s, %s, %s", p.valueName(f, o.Object), o.Field, p.valueName(f, o.Value))
	case OpGetIndexInst:
		return fmt.Sprintf("get_index %s, %s", p.valueName(f, o.Collection), p.valueName(f, o.Index))
	case OpSetIndexInst:
		return fmt.Sprintf("set_index %s, %s, %s", p.valueName(f, o.Collection), p.valueName(f, o.Index), p.valueName(f, o.Value))
	case OpStructInitInst:
		parts := make([]string, len(o.Fields))
		for i, fl := range o.Fields {
			parts[i] = fmt.Sprintf("%s: %s", fl.Name, p.valueName(f, fl.Value))
		}
		return fmt.Sprintf("struct_init %s { %s }", o.Name, strings.Join(parts, ", "))
	case OpArrayInitInst:
		return fmt.Sprintf("array_init [%s]", p.vs(f, o.Elems))
	case OpTupleInitInst:
		return fmt.Sprintf("tuple_init (%s)", p.vs(f, o.Elems))
	case OpCallInst:
		return fmt.Sprintf("call %s(%s)", o.Func, p.vs(f, o.Args))
	case OpCallIndirectInst:
		return fmt.Sprintf("call_indirect %s(%s)", p.valueName(f, o.Callee), p.vs(f, o.Args))
	case OpSystemCallInst:
		return fmt.Sprintf("syscall %s.%s(%s)", o.System, o.Method, p.vs(f, o.Args))
	case OpCastInst:
		return fmt.Sprintf("cast %s, %s", p.valueName(f, o.Value), o.Ty)
	case OpTypeCheckInst:
		return fmt.Sprintf("type_check %s, %s", p.valueName(f, o.Value), o.Ty)
	case OpCoroutineCreateInst:
		return fmt.Sprintf("coroutine_create %s(%s)", o.Func, p.vs(f, o.Args))
	case OpCoroutineResumeInst:
		return fmt.Sprintf("coroutine_resume %s", p.valueName(f, o.Value))
	case OpGlobalRefInst:
		return fmt.Sprintf("global_ref %s", o.Name)
	case OpCopyInst:
		return fmt.Sprintf("copy %s", p.valueName(f, o.Src))
	case OpYieldInst:
		if o.Value != nil {
			return fmt.Sprintf("yield %s", p.valueName(f, *o.Value))
		}
		return "yield"
	case OpBrInst:
		return fmt.Sprintf("br block%d(%s)", o.Target, p.vs(f, o.Args))
	case OpBrIfInst:
		return fmt.Sprintf("br_if %s, block%d(%s), block%d(%s)",
			p.valueName(f, o.Cond), o.ThenTarget, p.vs(f, o.ThenArgs), o.ElseTarget, p.vs(f, o.ElseArgs))
	case OpSwitchInst:
		parts := make([]string, len(o.Cases))
		for i, c := range o.Cases {
			parts[i] = fmt.Sprintf("%s: block%d(%s)", c.Value, c.Target, p.vs(f, c.Args))
		}
		return fmt.Sprintf("switch %s [%s] default block%d(%s)",
			p.valueName(f, o.Value), strings.Join(parts, ", "), o.Default.Target, p.vs(f, o.Default.Args))
	case OpReturnInst:
		if o.Value != nil {
			return fmt.Sprintf("ret %s", p.valueName(f, *o.Value))
		}
		return "ret"
	default:
		return "<unknown-op>"
	}
}
