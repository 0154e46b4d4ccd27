// Package structurize reconstructs structured control flow (if/else,
// while, for, general loops) from a function's block-based CFG,
// falling back to a flat dispatch switch once the recursion budget
// (MaxDepth) is exceeded; irreducible subgraphs are not detected
// separately (spec §4.15). The analysis is read-only: it never mutates
// the IR.
package structurize

import "reincarnate/internal/ir"

// BlockArgAssign is the explicit `dst = src` assignment a branch site
// performs to satisfy a target block's parameters. Shape recovery
// replaces block parameters with these assignments (spec §4.15,
// "Branch-arg handling"), ported from the original's BlockArgAssign.
type BlockArgAssign struct {
	Dst ir.ValueId
	Src ir.ValueId
}

// Shape is the recovered structured-control-flow tree (spec §4.15,
// glossary "Shape"). Every concrete shape implements shapeMarker;
// following the house convention of internal/ir's Op/Type interfaces
// keeps consuming switches exhaustive over a closed, typed set.
type Shape interface {
	shapeMarker()
}

// Block emits one block's non-terminator instructions.
type Block struct {
	BlockId ir.BlockId
}

// Seq executes shapes in order.
type Seq struct {
	Shapes []Shape
}

// IfElse is `if (cond) { then_body } else { else_body }`. The merge
// point is the immediate post-dominator of block.
type IfElse struct {
	BlockId     ir.BlockId
	Cond        ir.ValueId
	ThenAssigns []BlockArgAssign
	ThenBody    Shape
	ElseAssigns []BlockArgAssign
	ElseBody    Shape
}

// WhileLoop is a head-controlled `while (cond) { body }`: the header's
// BrIf has exactly one successor inside the loop body and one outside.
type WhileLoop struct {
	Header      ir.BlockId
	Cond        ir.ValueId
	CondNegated bool
	Body        Shape
}

// ForLoop is a WhileLoop upgraded when the header carries block
// parameters fed by a unique pre-loop predecessor (Init) and the
// back-edge predecessor (Update).
type ForLoop struct {
	Header        ir.BlockId
	InitAssigns   []BlockArgAssign
	Cond          ir.ValueId
	CondNegated   bool
	UpdateAssigns []BlockArgAssign
	Body          Shape
}

// Loop is a general head-controlled `while (true) { body }` with
// explicit Break/Continue, used when a loop header's branches don't
// fit the WhileLoop/ForLoop shape (both successors stay in the loop,
// or both leave it).
type Loop struct {
	Header ir.BlockId
	Body   Shape
}

// Break exits the innermost loop.
type Break struct{}

// Continue restarts the innermost loop.
type Continue struct{}

// LabeledBreak exits an outer loop Depth levels up (0 = innermost).
type LabeledBreak struct {
	Depth int
}

// LogicalOr is `phi = cond || rhs`: recognized when an IfElse's then
// side is empty and passes cond unchanged to the merge (spec §4.15).
type LogicalOr struct {
	BlockId ir.BlockId
	Cond    ir.ValueId
	Phi     ir.ValueId
	RhsBody Shape
	Rhs     ir.ValueId
}

// LogicalAnd is `phi = cond && rhs`: recognized when an IfElse's else
// side is empty and passes cond unchanged to the merge.
type LogicalAnd struct {
	BlockId ir.BlockId
	Cond    ir.ValueId
	Phi     ir.ValueId
	RhsBody Shape
	Rhs     ir.ValueId
}

// Dispatch is the fallback shape: a flat switch over Blocks, starting
// from Entry. It is emitted only once recursion depth exceeds
// MaxDepth; irreducible CFG regions are not detected on their own.
type Dispatch struct {
	Blocks []ir.BlockId
	Entry  ir.BlockId
}

func (Block) shapeMarker()        {}
func (Seq) shapeMarker()          {}
func (IfElse) shapeMarker()       {}
func (WhileLoop) shapeMarker()    {}
func (ForLoop) shapeMarker()      {}
func (Loop) shapeMarker()         {}
func (Break) shapeMarker()        {}
func (Continue) shapeMarker()     {}
func (LabeledBreak) shapeMarker() {}
func (LogicalOr) shapeMarker()    {}
func (LogicalAnd) shapeMarker()   {}
func (Dispatch) shapeMarker()     {}
