package ir

import (
	"fmt"
	"math"
)

// ConstKind tags the active field of a Constant (spec §3.2).
type ConstKind int

const (
	ConstNull ConstKind = iota
	ConstBool
	ConstInt
	ConstUInt
	ConstFloat
	ConstString
)

// Constant is the closed set of literal values the IR carries.
// Equality is structural; floats compare bitwise for constant-pool
// dedup (DedupKey) but IEEE-754-wise for folded comparisons (Eq).
type Constant struct {
	Kind ConstKind
	Bool bool
	Int  int64
	UInt uint64
	Flt  float64
	Str  string
}

func ConstNullVal() Constant          { return Constant{Kind: ConstNull} }
func ConstBoolVal(b bool) Constant    { return Constant{Kind: ConstBool, Bool: b} }
func ConstIntVal(i int64) Constant    { return Constant{Kind: ConstInt, Int: i} }
func ConstUIntVal(u uint64) Constant  { return Constant{Kind: ConstUInt, UInt: u} }
func ConstFloatVal(f float64) Constant { return Constant{Kind: ConstFloat, Flt: f} }
func ConstStringVal(s string) Constant { return Constant{Kind: ConstString, Str: s} }

// Eq is value equality, used when folding `==`/`!=` over constants:
// IEEE-754 semantics, so NaN != NaN (spec §4.4, §9).
func (c Constant) Eq(o Constant) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case ConstNull:
		return true
	case ConstBool:
		return c.Bool == o.Bool
	case ConstInt:
		return c.Int == o.Int
	case ConstUInt:
		return c.UInt == o.UInt
	case ConstFloat:
		return c.Flt == o.Flt
	case ConstString:
		return c.Str == o.Str
	default:
		return false
	}
}

// DedupKey returns a comparable value suitable for use as a map key in
// a constant-pool cache. Floats dedup bitwise (math.Float64bits) so
// distinct NaN payloads and +0/-0 are kept as distinct pool entries,
// unlike Eq's IEEE-754 comparison semantics (spec §9, open question 2).
func (c Constant) DedupKey() any {
	switch c.Kind {
	case ConstNull:
		return struct{ k ConstKind }{c.Kind}
	case ConstBool:
		return struct {
			k ConstKind
			v bool
		}{c.Kind, c.Bool}
	case ConstInt:
		return struct {
			k ConstKind
			v int64
		}{c.Kind, c.Int}
	case ConstUInt:
		return struct {
			k ConstKind
			v uint64
		}{c.Kind, c.UInt}
	case ConstFloat:
		return struct {
			k ConstKind
			v uint64
		}{c.Kind, math.Float64bits(c.Flt)}
	case ConstString:
		return struct {
			k ConstKind
			v string
		}{c.Kind, c.Str}
	default:
		return c.Kind
	}
}

// Type returns the Type a constant of this shape records in
// value_types when built via Const (spec §4.9.1: "Const pins the
// value type precisely"). Struct/Enum/ClassRef-typed constants are
// not representable as literals, so Null has no single canonical
// type here; callers that need one pick it from context.
func (c Constant) Type() Type {
	switch c.Kind {
	case ConstBool:
		return TBool{}
	case ConstInt:
		return TInt{Bits: 64}
	case ConstUInt:
		return TUInt{Bits: 64}
	case ConstFloat:
		return TFloat{Bits: 64}
	case ConstString:
		return TString{}
	default:
		return TDynamic{}
	}
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstNull:
		return "null"
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstUInt:
		return fmt.Sprintf("%d", c.UInt)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Flt)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	default:
		return "<const>"
	}
}
