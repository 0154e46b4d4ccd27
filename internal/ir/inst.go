package ir

// Op is the instruction-set variant of spec §4.2. Every concrete Op
// type implements opMarker; Inst wraps one Op plus its optional result.
type Op interface {
	opMarker()
}

// BinOpKind enumerates the arithmetic/bitwise binary ops. Grouping
// them under one Op (rather than one Go type per op, as Kanso's
// BinaryInstruction{Op string} does with a string tag) keeps the
// switch in every pass exhaustive over a closed, typed enum instead of
// string comparisons.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

func (k BinOpKind) String() string {
	return [...]string{"add", "sub", "mul", "div", "rem", "band", "bor", "bxor", "shl", "shr"}[k]
}

// UnOpKind enumerates the unary ops.
type UnOpKind int

const (
	OpNeg UnOpKind = iota
	OpBitNot
	OpLogicalNot
)

func (k UnOpKind) String() string { return [...]string{"neg", "bnot", "not"}[k] }

// CmpKind enumerates comparison kinds (spec §4.2).
type CmpKind int

const (
	CmpEq CmpKind = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

func (k CmpKind) String() string {
	return [...]string{"eq", "ne", "lt", "le", "gt", "ge"}[k]
}

// Negate returns the comparison that holds exactly when k does not
// (used by the structurizer to normalize a negated loop guard).
func (k CmpKind) Negate() CmpKind {
	switch k {
	case CmpEq:
		return CmpNe
	case CmpNe:
		return CmpEq
	case CmpLt:
		return CmpGe
	case CmpLe:
		return CmpGt
	case CmpGt:
		return CmpLe
	case CmpGe:
		return CmpLt
	}
	return k
}

// --- value-producing ops ---

type OpConstInst struct{ Value Constant }
type OpBinaryInst struct {
	Kind BinOpKind
	A, B ValueId
}
type OpUnaryInst struct {
	Kind UnOpKind
	A    ValueId
}
type OpCmpInst struct {
	Kind CmpKind
	A, B ValueId
}
type OpAllocInst struct{ Ty Type }
type OpLoadInst struct{ Ptr ValueId }
type OpGetFieldInst struct {
	Object ValueId
	Field  string
}
type OpGetIndexInst struct{ Collection, Index ValueId }
type FieldInit struct {
	Name  string
	Value ValueId
}
type OpStructInitInst struct {
	Name   string
	Fields []FieldInit
}
type OpArrayInitInst struct{ Elems []ValueId }
type OpTupleInitInst struct{ Elems []ValueId }
type OpCallInst struct {
	Func string
	Args []ValueId
}
type OpCallIndirectInst struct {
	Callee ValueId
	Args   []ValueId
}
type OpSystemCallInst struct {
	System, Method string
	Args           []ValueId
}
type OpCastInst struct {
	Value ValueId
	Ty    Type
}
type OpTypeCheckInst struct {
	Value ValueId
	Ty    Type
}
type OpCoroutineCreateInst struct {
	Func string
	Args []ValueId
}
type OpCoroutineResumeInst struct{ Value ValueId }
type OpGlobalRefInst struct{ Name string }
type OpCopyInst struct{ Src ValueId }

// --- side-effectful, no-result ops ---

type OpStoreInst struct{ Ptr, Value ValueId }
type OpSetFieldInst struct {
	Object ValueId
	Field  string
	Value  ValueId
}
type OpSetIndexInst struct{ Collection, Index, Value ValueId }
type OpYieldInst struct{ Value *ValueId }

// --- terminators ---

type OpBrInst struct {
	Target BlockId
	Args   []ValueId
}
type OpBrIfInst struct {
	Cond                             ValueId
	ThenTarget                       BlockId
	ThenArgs                         []ValueId
	ElseTarget                       BlockId
	ElseArgs                         []ValueId
}
type SwitchCase struct {
	Value  Constant
	Target BlockId
	Args   []ValueId
}
type OpSwitchInst struct {
	Value   ValueId
	Cases   []SwitchCase
	Default SwitchCase
}
type OpReturnInst struct{ Value *ValueId }

func (OpConstInst) opMarker()           {}
func (OpBinaryInst) opMarker()          {}
func (OpUnaryInst) opMarker()           {}
func (OpCmpInst) opMarker()             {}
func (OpAllocInst) opMarker()           {}
func (OpLoadInst) opMarker()            {}
func (OpGetFieldInst) opMarker()        {}
func (OpGetIndexInst) opMarker()        {}
func (OpStructInitInst) opMarker()      {}
func (OpArrayInitInst) opMarker()       {}
func (OpTupleInitInst) opMarker()       {}
func (OpCallInst) opMarker()            {}
func (OpCallIndirectInst) opMarker()    {}
func (OpSystemCallInst) opMarker()      {}
func (OpCastInst) opMarker()            {}
func (OpTypeCheckInst) opMarker()       {}
func (OpCoroutineCreateInst) opMarker() {}
func (OpCoroutineResumeInst) opMarker() {}
func (OpGlobalRefInst) opMarker()       {}
func (OpCopyInst) opMarker()            {}
func (OpStoreInst) opMarker()           {}
func (OpSetFieldInst) opMarker()        {}
func (OpSetIndexInst) opMarker()        {}
func (OpYieldInst) opMarker()           {}
func (OpBrInst) opMarker()              {}
func (OpBrIfInst) opMarker()            {}
func (OpSwitchInst) opMarker()          {}
func (OpReturnInst) opMarker()          {}

// Inst pairs an Op with its optional result value (spec §3.3).
type Inst struct {
	Op     Op
	Result *ValueId
}

// IsTerminator reports whether this instruction ends a block.
func (i Inst) IsTerminator() bool {
	switch i.Op.(type) {
	case OpBrInst, OpBrIfInst, OpSwitchInst, OpReturnInst:
		return true
	default:
		return false
	}
}

// IsPure implements the purity table of spec §4.2/§4.5 ("`*` marks
// side-effectful ops"): every op not explicitly marked side-effectful
// here is pure and thus removable by DCE when dead. Any new Op must
// add a case (mirrors Kanso's per-instruction GetEffects table).
func (i Inst) IsPure() bool {
	switch i.Op.(type) {
	case OpStoreInst, OpSetFieldInst, OpSetIndexInst,
		OpCallInst, OpCallIndirectInst, OpSystemCallInst,
		OpYieldInst, OpCoroutineCreateInst, OpCoroutineResumeInst,
		OpAllocInst:
		return false
	default:
		return true
	}
}

// Operands returns every ValueId this instruction reads.
func Operands(op Op) []ValueId {
	switch o := op.(type) {
	case OpBinaryInst:
		return []ValueId{o.A, o.B}
	case OpUnaryInst:
		return []ValueId{o.A}
	case OpCmpInst:
		return []ValueId{o.A, o.B}
	case OpLoadInst:
		return []ValueId{o.Ptr}
	case OpStoreInst:
		return []ValueId{o.Ptr, o.Value}
	case OpGetFieldInst:
		return []ValueId{o.Object}
	case OpSetFieldInst:
		return []ValueId{o.Object, o.Value}
	case OpGetIndexInst:
		return []ValueId{o.Collection, o.Index}
	case OpSetIndexInst:
		return []ValueId{o.Collection, o.Index, o.Value}
	case OpStructInitInst:
		vs := make([]ValueId, len(o.Fields))
		for i, f := range o.Fields {
			vs[i] = f.Value
		}
		return vs
	case OpArrayInitInst:
		return o.Elems
	case OpTupleInitInst:
		return o.Elems
	case OpCallInst:
		return o.Args
	case OpCallIndirectInst:
		return append([]ValueId{o.Callee}, o.Args...)
	case OpSystemCallInst:
		return o.Args
	case OpCastInst:
		return []ValueId{o.Value}
	case OpTypeCheckInst:
		return []ValueId{o.Value}
	case OpCoroutineCreateInst:
		return o.Args
	case OpCoroutineResumeInst:
		return []ValueId{o.Value}
	case OpCopyInst:
		return []ValueId{o.Src}
	case OpYieldInst:
		if o.Value != nil {
			return []ValueId{*o.Value}
		}
		return nil
	case OpBrInst:
		return o.Args
	case OpBrIfInst:
		vs := append([]ValueId{o.Cond}, o.ThenArgs...)
		return append(vs, o.ElseArgs...)
	case OpSwitchInst:
		vs := []ValueId{o.Value}
		for _, c := range o.Cases {
			vs = append(vs, c.Args...)
		}
		return append(vs, o.Default.Args...)
	case OpReturnInst:
		if o.Value != nil {
			return []ValueId{*o.Value}
		}
		return nil
	default:
		return nil
	}
}

// BranchTargets returns the BlockIds a terminator op may jump to, in
// successor order (grounded on the Rust original's
// transforms::util::branch_targets).
func BranchTargets(op Op) []BlockId {
	switch o := op.(type) {
	case OpBrInst:
		return []BlockId{o.Target}
	case OpBrIfInst:
		return []BlockId{o.ThenTarget, o.ElseTarget}
	case OpSwitchInst:
		ts := make([]BlockId, 0, len(o.Cases)+1)
		for _, c := range o.Cases {
			ts = append(ts, c.Target)
		}
		return append(ts, o.Default.Target)
	default:
		return nil
	}
}

// BranchArgsTo returns the arg list sent to a given successor target by
// a Br/BrIf/Switch terminator op. No pass in this repository calls it.
func BranchArgsTo(op Op, target BlockId) ([]ValueId, bool) {
	switch o := op.(type) {
	case OpBrInst:
		if o.Target == target {
			return o.Args, true
		}
	case OpBrIfInst:
		if o.ThenTarget == target {
			return o.ThenArgs, true
		}
		if o.ElseTarget == target {
			return o.ElseArgs, true
		}
	case OpSwitchInst:
		for _, c := range o.Cases {
			if c.Target == target {
				return c.Args, true
			}
		}
		if o.Default.Target == target {
			return o.Default.Args, true
		}
	}
	return nil, false
}
