package ir

// Param is a block's typed formal input — the SSA equivalent of a phi
// node (spec §3.3, glossary "Block parameter").
type Param struct {
	Value ValueId
	Ty    Type
}

// Block is an ordered list of typed params and an ordered list of
// instruction ids. A well-formed block ends with exactly one
// terminator and no instruction follows it (spec §3.3).
type Block struct {
	Params []Param
	Insts  []InstId
}

// Terminator returns the id of the block's terminating instruction, if
// the block is non-empty and well-formed.
func (b Block) Terminator(insts *PrimaryMap[InstId, Inst]) (InstId, bool) {
	if len(b.Insts) == 0 {
		return 0, false
	}
	last := b.Insts[len(b.Insts)-1]
	if insts.Get(last).IsTerminator() {
		return last, true
	}
	return 0, false
}
