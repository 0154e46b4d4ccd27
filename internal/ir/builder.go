package ir

// FunctionBuilder is the fluent construction API of spec §4.3: it
// threads a "current block" cursor, allocates values/instructions, and
// enforces the one-terminator-per-block rule at build time — grounded
// on Kanso's internal/ir/builder.go Builder, generalized from its
// contract-specific SSA renaming machinery to a plain cursor-based
// emitter since callers here already hand us blocks in SSA form.
type FunctionBuilder struct {
	fn  *Function
	cur BlockId
}

// NewFunctionBuilder creates a function with an entry block whose
// params mirror sig.Params.
func NewFunctionBuilder(name string, sig FunctionSig, vis Visibility) *FunctionBuilder {
	fn := &Function{
		Name:       name,
		Sig:        sig,
		Visibility: vis,
		ValueNames: map[ValueId]string{},
	}
	entry := fn.Blocks.Push(Block{})
	fn.Entry = entry

	params := make([]Param, len(sig.Params))
	for i, ty := range sig.Params {
		v := fn.ValueTypes.Push(ty)
		params[i] = Param{Value: v, Ty: ty}
	}
	fn.Blocks.Ptr(entry).Params = params

	return &FunctionBuilder{fn: fn, cur: entry}
}

// Param returns the ValueId of the i'th entry parameter.
func (b *FunctionBuilder) Param(i int) ValueId {
	return b.fn.Blocks.Get(b.fn.Entry).Params[i].Value
}

// CreateBlock allocates a parameterless block.
func (b *FunctionBuilder) CreateBlock() BlockId {
	return b.fn.Blocks.Push(Block{})
}

// CreateBlockWithParams allocates a block with fresh params of the
// given types, returning the block id and the params' ValueIds.
func (b *FunctionBuilder) CreateBlockWithParams(tys []Type) (BlockId, []ValueId) {
	vals := make([]ValueId, len(tys))
	params := make([]Param, len(tys))
	for i, ty := range tys {
		v := b.fn.ValueTypes.Push(ty)
		vals[i] = v
		params[i] = Param{Value: v, Ty: ty}
	}
	return b.fn.Blocks.Push(Block{Params: params}), vals
}

// SwitchToBlock moves the cursor to block id.
func (b *FunctionBuilder) SwitchToBlock(id BlockId) { b.cur = id }

// CurrentBlock returns the cursor's current block.
func (b *FunctionBuilder) CurrentBlock() BlockId { return b.cur }

func (b *FunctionBuilder) assertOpen() {
	blk := b.fn.Blocks.Get(b.cur)
	if len(blk.Insts) == 0 {
		return
	}
	last := blk.Insts[len(blk.Insts)-1]
	if b.fn.Insts.Get(last).IsTerminator() {
		panic("ir: attempt to emit into a block after its terminator")
	}
}

func (b *FunctionBuilder) emit(op Op, resultTy *Type) *ValueId {
	b.assertOpen()
	var result *ValueId
	if resultTy != nil {
		v := b.fn.ValueTypes.Push(*resultTy)
		result = &v
	}
	id := b.fn.Insts.Push(Inst{Op: op, Result: result})
	blk := b.fn.Blocks.Ptr(b.cur)
	blk.Insts = append(blk.Insts, id)
	return result
}

func (b *FunctionBuilder) emitTerm(op Op) {
	b.assertOpen()
	id := b.fn.Insts.Push(Inst{Op: op})
	blk := b.fn.Blocks.Ptr(b.cur)
	blk.Insts = append(blk.Insts, id)
}

// ValueType returns the recorded type of a value.
func (b *FunctionBuilder) ValueType(v ValueId) Type { return b.fn.ValueTypes.Get(v) }

// --- value-producing instruction constructors ---

func (b *FunctionBuilder) ConstInt(v int64) ValueId {
	r := b.emit(OpConstInst{Value: ConstIntVal(v)}, typePtr(TInt{Bits: 64}))
	return *r
}
func (b *FunctionBuilder) ConstUInt(v uint64) ValueId {
	r := b.emit(OpConstInst{Value: ConstUIntVal(v)}, typePtr(TUInt{Bits: 64}))
	return *r
}
func (b *FunctionBuilder) ConstFloat(v float64) ValueId {
	r := b.emit(OpConstInst{Value: ConstFloatVal(v)}, typePtr(TFloat{Bits: 64}))
	return *r
}
func (b *FunctionBuilder) ConstBool(v bool) ValueId {
	r := b.emit(OpConstInst{Value: ConstBoolVal(v)}, typePtr(TBool{}))
	return *r
}
func (b *FunctionBuilder) ConstString(v string) ValueId {
	r := b.emit(OpConstInst{Value: ConstStringVal(v)}, typePtr(TString{}))
	return *r
}
func (b *FunctionBuilder) Const(c Constant, ty Type) ValueId {
	r := b.emit(OpConstInst{Value: c}, &ty)
	return *r
}

func (b *FunctionBuilder) binary(kind BinOpKind, a, bv ValueId, resultTy Type) ValueId {
	r := b.emit(OpBinaryInst{Kind: kind, A: a, B: bv}, &resultTy)
	return *r
}

func (b *FunctionBuilder) Add(a, bv ValueId) ValueId {
	return b.binary(OpAdd, a, bv, Meet(b.ValueType(a), b.ValueType(bv)))
}
func (b *FunctionBuilder) Sub(a, bv ValueId) ValueId {
	return b.binary(OpSub, a, bv, Meet(b.ValueType(a), b.ValueType(bv)))
}
func (b *FunctionBuilder) Mul(a, bv ValueId) ValueId {
	return b.binary(OpMul, a, bv, Meet(b.ValueType(a), b.ValueType(bv)))
}
func (b *FunctionBuilder) Div(a, bv ValueId) ValueId {
	return b.binary(OpDiv, a, bv, Meet(b.ValueType(a), b.ValueType(bv)))
}
func (b *FunctionBuilder) Rem(a, bv ValueId) ValueId {
	return b.binary(OpRem, a, bv, Meet(b.ValueType(a), b.ValueType(bv)))
}
func (b *FunctionBuilder) BitAnd(a, bv ValueId) ValueId {
	return b.binary(OpBitAnd, a, bv, Meet(b.ValueType(a), b.ValueType(bv)))
}
func (b *FunctionBuilder) BitOr(a, bv ValueId) ValueId {
	return b.binary(OpBitOr, a, bv, Meet(b.ValueType(a), b.ValueType(bv)))
}
func (b *FunctionBuilder) BitXor(a, bv ValueId) ValueId {
	return b.binary(OpBitXor, a, bv, Meet(b.ValueType(a), b.ValueType(bv)))
}
func (b *FunctionBuilder) Shl(a, bv ValueId) ValueId {
	return b.binary(OpShl, a, bv, b.ValueType(a))
}
func (b *FunctionBuilder) Shr(a, bv ValueId) ValueId {
	return b.binary(OpShr, a, bv, b.ValueType(a))
}

func (b *FunctionBuilder) unary(kind UnOpKind, a ValueId, resultTy Type) ValueId {
	r := b.emit(OpUnaryInst{Kind: kind, A: a}, &resultTy)
	return *r
}
func (b *FunctionBuilder) Neg(a ValueId) ValueId    { return b.unary(OpNeg, a, b.ValueType(a)) }
func (b *FunctionBuilder) BitNot(a ValueId) ValueId { return b.unary(OpBitNot, a, b.ValueType(a)) }
func (b *FunctionBuilder) Not(a ValueId) ValueId    { return b.unary(OpLogicalNot, a, TBool{}) }

func (b *FunctionBuilder) Cmp(kind CmpKind, a, bv ValueId) ValueId {
	r := b.emit(OpCmpInst{Kind: kind, A: a, B: bv}, typePtr(TBool{}))
	return *r
}

func (b *FunctionBuilder) Alloc(ty Type) ValueId {
	r := b.emit(OpAllocInst{Ty: ty}, typePtr(ty))
	return *r
}
func (b *FunctionBuilder) Load(ptr ValueId, ty Type) ValueId {
	r := b.emit(OpLoadInst{Ptr: ptr}, &ty)
	return *r
}
func (b *FunctionBuilder) Store(ptr, value ValueId) {
	b.emit(OpStoreInst{Ptr: ptr, Value: value}, nil)
}

func (b *FunctionBuilder) GetField(object ValueId, field string, ty Type) ValueId {
	r := b.emit(OpGetFieldInst{Object: object, Field: field}, &ty)
	return *r
}
func (b *FunctionBuilder) SetField(object ValueId, field string, value ValueId) {
	b.emit(OpSetFieldInst{Object: object, Field: field, Value: value}, nil)
}
func (b *FunctionBuilder) GetIndex(collection, index ValueId, ty Type) ValueId {
	r := b.emit(OpGetIndexInst{Collection: collection, Index: index}, &ty)
	return *r
}
func (b *FunctionBuilder) SetIndex(collection, index, value ValueId) {
	b.emit(OpSetIndexInst{Collection: collection, Index: index, Value: value}, nil)
}
func (b *FunctionBuilder) StructInit(name string, fields []FieldInit) ValueId {
	ty := TStruct{Name: name}
	r := b.emit(OpStructInitInst{Name: name, Fields: fields}, typePtr(ty))
	return *r
}
func (b *FunctionBuilder) ArrayInit(elems []ValueId, elemTy Type) ValueId {
	ty := TArray{Elem: elemTy}
	r := b.emit(OpArrayInitInst{Elems: elems}, typePtr(ty))
	return *r
}
func (b *FunctionBuilder) TupleInit(elems []ValueId, tys []Type) ValueId {
	ty := TTuple{Elems: tys}
	r := b.emit(OpTupleInitInst{Elems: elems}, typePtr(ty))
	return *r
}

func (b *FunctionBuilder) Call(name string, args []ValueId, retTy Type) *ValueId {
	return b.emit(OpCallInst{Func: name, Args: args}, nonVoid(retTy))
}
func (b *FunctionBuilder) CallIndirect(callee ValueId, args []ValueId, retTy Type) *ValueId {
	return b.emit(OpCallIndirectInst{Callee: callee, Args: args}, nonVoid(retTy))
}
func (b *FunctionBuilder) SystemCall(system, method string, args []ValueId, retTy Type) *ValueId {
	return b.emit(OpSystemCallInst{System: system, Method: method, Args: args}, nonVoid(retTy))
}

func (b *FunctionBuilder) Cast(v ValueId, ty Type) ValueId {
	r := b.emit(OpCastInst{Value: v, Ty: ty}, &ty)
	return *r
}
func (b *FunctionBuilder) TypeCheck(v ValueId, ty Type) ValueId {
	r := b.emit(OpTypeCheckInst{Value: v, Ty: ty}, typePtr(TBool{}))
	return *r
}

func (b *FunctionBuilder) Yield(v *ValueId) {
	b.emit(OpYieldInst{Value: v}, nil)
}
func (b *FunctionBuilder) CoroutineCreate(fn string, args []ValueId, ty Type) ValueId {
	r := b.emit(OpCoroutineCreateInst{Func: fn, Args: args}, &ty)
	return *r
}
func (b *FunctionBuilder) CoroutineResume(v ValueId, ty Type) ValueId {
	r := b.emit(OpCoroutineResumeInst{Value: v}, &ty)
	return *r
}

func (b *FunctionBuilder) GlobalRef(name string, ty Type) ValueId {
	r := b.emit(OpGlobalRefInst{Name: name}, &ty)
	return *r
}
func (b *FunctionBuilder) Copy(src ValueId) ValueId {
	r := b.emit(OpCopyInst{Src: src}, typePtr(b.ValueType(src)))
	return *r
}

// --- terminators ---

func (b *FunctionBuilder) Br(target BlockId, args []ValueId) {
	b.emitTerm(OpBrInst{Target: target, Args: args})
}
func (b *FunctionBuilder) BrIf(cond ValueId, thenTarget BlockId, thenArgs []ValueId, elseTarget BlockId, elseArgs []ValueId) {
	b.emitTerm(OpBrIfInst{Cond: cond, ThenTarget: thenTarget, ThenArgs: thenArgs, ElseTarget: elseTarget, ElseArgs: elseArgs})
}
func (b *FunctionBuilder) Switch(value ValueId, cases []SwitchCase, def SwitchCase) {
	b.emitTerm(OpSwitchInst{Value: value, Cases: cases, Default: def})
}
func (b *FunctionBuilder) Ret(v *ValueId) {
	b.emitTerm(OpReturnInst{Value: v})
}

// SetValueName attaches a debug name to a value.
func (b *FunctionBuilder) SetValueName(v ValueId, name string) {
	b.fn.ValueNames[v] = name
}

// MarkCoroutine flags the function as a coroutine (spec §4.13).
func (b *FunctionBuilder) MarkCoroutine(stateTypeName string) {
	b.fn.Coroutine = &CoroutineInfo{StateTypeName: stateTypeName}
}

// Build asserts well-formedness (spec §4.3: "well-formedness is
// asserted") and returns the immutable function.
func (b *FunctionBuilder) Build() *Function {
	if err := Verify(b.fn); err != nil {
		panic(err)
	}
	return b.fn
}

// BuildUnchecked returns the function without verifying it — used by
// tests that deliberately construct malformed IR to exercise Verify.
func (b *FunctionBuilder) BuildUnchecked() *Function { return b.fn }

func typePtr(t Type) *Type { return &t }
func nonVoid(t Type) *Type {
	if _, ok := t.(TVoid); ok {
		return nil
	}
	return &t
}

// ModuleBuilder collects functions and definitions into a Module.
type ModuleBuilder struct {
	mod *Module
}

func NewModuleBuilder(name string) *ModuleBuilder {
	return &ModuleBuilder{mod: NewModule(name)}
}

func (m *ModuleBuilder) AddFunction(f *Function) FuncId { return m.mod.Functions.Push(*f) }
func (m *ModuleBuilder) AddStruct(s StructDef)          { m.mod.Structs = append(m.mod.Structs, s) }
func (m *ModuleBuilder) AddEnum(e EnumDef)              { m.mod.Enums = append(m.mod.Enums, e) }
func (m *ModuleBuilder) AddGlobal(g Global)              { m.mod.Globals = append(m.mod.Globals, g) }
func (m *ModuleBuilder) AddImport(i Import)              { m.mod.Imports = append(m.mod.Imports, i) }
func (m *ModuleBuilder) AddClass(c ClassDef)             { m.mod.Classes = append(m.mod.Classes, c) }
func (m *ModuleBuilder) Build() *Module                  { return m.mod }
