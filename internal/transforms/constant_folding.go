// Package transforms implements the ten concrete passes of spec
// §4.4-§4.13 plus the default pipeline assembly of §4.14.
package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// ConstantFolding is the pass of spec §4.4: replace any pure
// arithmetic/bitwise/comparison/logic instruction whose operands are
// all Const with a single Const of the computed value. Integer
// overflow wraps (two's complement, i.e. plain Go int64/uint64
// arithmetic); division by zero is never folded; float comparison is
// IEEE-754 (NaN != NaN). Grounded on Kanso's
// internal/ir/optimizations.go ConstantFolding pass, adapted from its
// pointer-graph Instruction model to the arena Inst/Op model.
type ConstantFolding struct{}

func (ConstantFolding) Name() string  { return "constant-folding" }
func (ConstantFolding) RunOnce() bool { return false }

func (ConstantFolding) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	changed := false
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		if foldFunction(&f) {
			changed = true
		}
		module.Functions.Set(fid, f)
	}
	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

func foldFunction(f *ir.Function) bool {
	changed := false
	for _, bid := range f.Blocks.Keys() {
		b := f.Blocks.Get(bid)
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.Result == nil {
				continue
			}
			folded, ok := tryFold(f, inst)
			if !ok {
				continue
			}
			result := *inst.Result
			f.Insts.Set(iid, ir.Inst{Op: ir.OpConstInst{Value: folded}, Result: &result})
			f.SetValueType(result, folded.Type())
			changed = true
		}
	}
	return changed
}

func constOperand(f *ir.Function, v ir.ValueId) (ir.Constant, bool) {
	for _, fid := range allInstsDefining(f, v) {
		inst := f.Insts.Get(fid)
		if c, ok := inst.Op.(ir.OpConstInst); ok {
			return c.Value, true
		}
	}
	return ir.Constant{}, false
}

// allInstsDefining returns the (at most one) instruction defining v,
// found by scanning every block — acceptable since folding runs
// intra-procedurally over one function at a time and the arena is
// small relative to a full-program scan.
func allInstsDefining(f *ir.Function, v ir.ValueId) []ir.InstId {
	var out []ir.InstId
	f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
		for _, iid := range b.Insts {
			inst := f.Insts.Get(iid)
			if inst.Result != nil && *inst.Result == v {
				out = append(out, iid)
			}
		}
	})
	return out
}

func tryFold(f *ir.Function, inst ir.Inst) (ir.Constant, bool) {
	switch o := inst.Op.(type) {
	case ir.OpBinaryInst:
		a, aok := constOperand(f, o.A)
		b, bok := constOperand(f, o.B)
		if !aok || !bok {
			return ir.Constant{}, false
		}
		return foldBinary(o.Kind, a, b)
	case ir.OpUnaryInst:
		a, aok := constOperand(f, o.A)
		if !aok {
			return ir.Constant{}, false
		}
		return foldUnary(o.Kind, a)
	case ir.OpCmpInst:
		a, aok := constOperand(f, o.A)
		b, bok := constOperand(f, o.B)
		if !aok || !bok {
			return ir.Constant{}, false
		}
		return foldCmp(o.Kind, a, b)
	default:
		return ir.Constant{}, false
	}
}

func foldBinary(kind ir.BinOpKind, a, b ir.Constant) (ir.Constant, bool) {
	if a.Kind == ir.ConstFloat || b.Kind == ir.ConstFloat {
		af, bf := asFloat(a), asFloat(b)
		switch kind {
		case ir.OpAdd:
			return ir.ConstFloatVal(af + bf), true
		case ir.OpSub:
			return ir.ConstFloatVal(af - bf), true
		case ir.OpMul:
			return ir.ConstFloatVal(af * bf), true
		case ir.OpDiv:
			if bf == 0 {
				return ir.Constant{}, false
			}
			return ir.ConstFloatVal(af / bf), true
		default:
			return ir.Constant{}, false
		}
	}
	if a.Kind == ir.ConstUInt || b.Kind == ir.ConstUInt {
		au, bu := asUInt(a), asUInt(b)
		switch kind {
		case ir.OpAdd:
			return ir.ConstUIntVal(au + bu), true
		case ir.OpSub:
			return ir.ConstUIntVal(au - bu), true
		case ir.OpMul:
			return ir.ConstUIntVal(au * bu), true
		case ir.OpDiv:
			if bu == 0 {
				return ir.Constant{}, false
			}
			return ir.ConstUIntVal(au / bu), true
		case ir.OpRem:
			if bu == 0 {
				return ir.Constant{}, false
			}
			return ir.ConstUIntVal(au % bu), true
		case ir.OpBitAnd:
			return ir.ConstUIntVal(au & bu), true
		case ir.OpBitOr:
			return ir.ConstUIntVal(au | bu), true
		case ir.OpBitXor:
			return ir.ConstUIntVal(au ^ bu), true
		case ir.OpShl:
			return ir.ConstUIntVal(au << bu), true
		case ir.OpShr:
			return ir.ConstUIntVal(au >> bu), true
		}
		return ir.Constant{}, false
	}
	if a.Kind == ir.ConstInt && b.Kind == ir.ConstInt {
		ai, bi := a.Int, b.Int
		switch kind {
		case ir.OpAdd:
			return ir.ConstIntVal(ai + bi), true
		case ir.OpSub:
			return ir.ConstIntVal(ai - bi), true
		case ir.OpMul:
			return ir.ConstIntVal(ai * bi), true
		case ir.OpDiv:
			if bi == 0 {
				return ir.Constant{}, false
			}
			return ir.ConstIntVal(ai / bi), true
		case ir.OpRem:
			if bi == 0 {
				return ir.Constant{}, false
			}
			return ir.ConstIntVal(ai % bi), true
		case ir.OpBitAnd:
			return ir.ConstIntVal(ai & bi), true
		case ir.OpBitOr:
			return ir.ConstIntVal(ai | bi), true
		case ir.OpBitXor:
			return ir.ConstIntVal(ai ^ bi), true
		case ir.OpShl:
			return ir.ConstIntVal(ai << uint(bi)), true
		case ir.OpShr:
			return ir.ConstIntVal(ai >> uint(bi)), true
		}
	}
	return ir.Constant{}, false
}

func foldUnary(kind ir.UnOpKind, a ir.Constant) (ir.Constant, bool) {
	switch kind {
	case ir.OpNeg:
		switch a.Kind {
		case ir.ConstInt:
			return ir.ConstIntVal(-a.Int), true
		case ir.ConstFloat:
			return ir.ConstFloatVal(-a.Flt), true
		}
	case ir.OpBitNot:
		switch a.Kind {
		case ir.ConstInt:
			return ir.ConstIntVal(^a.Int), true
		case ir.ConstUInt:
			return ir.ConstUIntVal(^a.UInt), true
		}
	case ir.OpLogicalNot:
		if a.Kind == ir.ConstBool {
			return ir.ConstBoolVal(!a.Bool), true
		}
	}
	return ir.Constant{}, false
}

func foldCmp(kind ir.CmpKind, a, b ir.Constant) (ir.Constant, bool) {
	if a.Kind == ir.ConstFloat || b.Kind == ir.ConstFloat {
		// IEEE-754 semantics throughout: NaN compares false against
		// everything, including itself (spec §4.4, §9).
		af, bf := asFloat(a), asFloat(b)
		switch kind {
		case ir.CmpEq:
			return ir.ConstBoolVal(af == bf), true
		case ir.CmpNe:
			return ir.ConstBoolVal(af != bf), true
		case ir.CmpLt:
			return ir.ConstBoolVal(af < bf), true
		case ir.CmpLe:
			return ir.ConstBoolVal(af <= bf), true
		case ir.CmpGt:
			return ir.ConstBoolVal(af > bf), true
		case ir.CmpGe:
			return ir.ConstBoolVal(af >= bf), true
		}
		return ir.Constant{}, false
	}
	var cmp int
	switch {
	case a.Kind == ir.ConstUInt || b.Kind == ir.ConstUInt:
		au, bu := asUInt(a), asUInt(b)
		switch {
		case au < bu:
			cmp = -1
		case au > bu:
			cmp = 1
		}
	case a.Kind == ir.ConstString && b.Kind == ir.ConstString:
		switch {
		case a.Str < b.Str:
			cmp = -1
		case a.Str > b.Str:
			cmp = 1
		}
	case a.Kind == ir.ConstBool && b.Kind == ir.ConstBool:
		if kind == ir.CmpEq {
			return ir.ConstBoolVal(a.Bool == b.Bool), true
		}
		if kind == ir.CmpNe {
			return ir.ConstBoolVal(a.Bool != b.Bool), true
		}
		return ir.Constant{}, false
	default:
		ai, bi := a.Int, b.Int
		switch {
		case ai < bi:
			cmp = -1
		case ai > bi:
			cmp = 1
		}
	}
	switch kind {
	case ir.CmpEq:
		return ir.ConstBoolVal(cmp == 0), true
	case ir.CmpNe:
		return ir.ConstBoolVal(cmp != 0), true
	case ir.CmpLt:
		return ir.ConstBoolVal(cmp < 0), true
	case ir.CmpLe:
		return ir.ConstBoolVal(cmp <= 0), true
	case ir.CmpGt:
		return ir.ConstBoolVal(cmp > 0), true
	case ir.CmpGe:
		return ir.ConstBoolVal(cmp >= 0), true
	}
	return ir.Constant{}, false
}

func asFloat(c ir.Constant) float64 {
	switch c.Kind {
	case ir.ConstFloat:
		return c.Flt
	case ir.ConstInt:
		return float64(c.Int)
	case ir.ConstUInt:
		return float64(c.UInt)
	default:
		return 0
	}
}

func asUInt(c ir.Constant) uint64 {
	switch c.Kind {
	case ir.ConstUInt:
		return c.UInt
	case ir.ConstInt:
		return uint64(c.Int)
	default:
		return 0
	}
}
