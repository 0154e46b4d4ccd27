package ir

// Visibility mirrors the original's per-item visibility (used by
// Function, StructDef, EnumDef, Global, ClassDef).
type Visibility int

const (
	VisPrivate Visibility = iota
	VisPublic
	VisProtected
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "public"
	case VisProtected:
		return "protected"
	default:
		return "private"
	}
}

// FunctionSig is the externally visible shape of a function: its
// parameter types and return type (spec §3.3).
type FunctionSig struct {
	Params   []Type
	ReturnTy Type
}

// CoroutineInfo marks a function as a coroutine (spec §4.13). The
// lowered encoding is backend-defined; the core only needs to know a
// function is a coroutine so CoroutineLowering can target it and so
// the eventual state-holder type has a name to print.
type CoroutineInfo struct {
	StateTypeName string
}

// Function owns its blocks, instructions and value-type table
// exclusively (spec §3.5). Entry-block parameters are the function's
// parameters.
type Function struct {
	Name       string
	Sig        FunctionSig
	Visibility Visibility
	Namespace  []string
	Class      string

	Blocks     PrimaryMap[BlockId, Block]
	Insts      PrimaryMap[InstId, Inst]
	ValueTypes PrimaryMap[ValueId, Type]

	Entry     BlockId
	Coroutine *CoroutineInfo

	// ValueNames holds optional debug names, keyed by ValueId.
	ValueNames map[ValueId]string
}

// EntryParams returns the entry block's params, which by construction
// are exactly the function's formal parameters.
func (f *Function) EntryParams() []Param {
	return f.Blocks.Get(f.Entry).Params
}

// SetValueType updates a value's recorded type, and — if the value is
// an entry-block parameter — keeps FunctionSig and the entry block's
// Param.Ty in lockstep, per invariant §3.4.5.
func (f *Function) SetValueType(v ValueId, ty Type) {
	f.ValueTypes.Set(v, ty)
	entry := f.Blocks.Ptr(f.Entry)
	for i, p := range entry.Params {
		if p.Value == v {
			entry.Params[i].Ty = ty
			f.Sig.Params[i] = ty
			return
		}
	}
}

// CompactInsts rewrites the instruction arena to drop entries no
// longer referenced by any block's instruction list, as required at
// pipeline end (spec §3.5, §4.14).
func (f *Function) CompactInsts() {
	used := make(map[InstId]bool, f.Insts.Len())
	f.Blocks.Range(func(_ BlockId, b Block) {
		for _, id := range b.Insts {
			used[id] = true
		}
	})
	remap := f.Insts.Compact(func(id InstId) bool { return used[id] })
	for _, bid := range f.Blocks.Keys() {
		b := f.Blocks.Ptr(bid)
		for i, id := range b.Insts {
			b.Insts[i] = remap[id]
		}
	}
}
