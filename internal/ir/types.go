package ir

import "fmt"

// Type is the tagged variant described in spec §3.1. Dynamic is the
// top of the lattice: it equals itself and is compatible with every
// concrete type on either side of a use; concrete types are otherwise
// incomparable with each other.
type Type interface {
	isType()
	String() string
}

type TVoid struct{}
type TBool struct{}
type TDynamic struct{}
type TString struct{}

// TInt, TUInt, TFloat carry a bit width from {8,16,32,64}.
type TInt struct{ Bits int }
type TUInt struct{ Bits int }
type TFloat struct{ Bits int }

// TStruct, TEnum, TClassRef are named references resolved against the
// owning Module's definitions.
type TStruct struct{ Name string }
type TEnum struct{ Name string }
type TClassRef struct{ Name string }

// TArray, TTuple, TFuncPtr are compound types. The spec treats these as
// opaque leaves: no pass looks inside them.
type TArray struct{ Elem Type }
type TTuple struct{ Elems []Type }
type TFuncPtr struct {
	Params []Type
	Return Type
}

func (TVoid) isType()     {}
func (TBool) isType()     {}
func (TDynamic) isType()  {}
func (TString) isType()   {}
func (TInt) isType()      {}
func (TUInt) isType()     {}
func (TFloat) isType()    {}
func (TStruct) isType()   {}
func (TEnum) isType()     {}
func (TClassRef) isType() {}
func (TArray) isType()    {}
func (TTuple) isType()    {}
func (TFuncPtr) isType()  {}

func (TVoid) String() string    { return "void" }
func (TBool) String() string    { return "bool" }
func (TDynamic) String() string { return "dynamic" }
func (TString) String() string  { return "string" }
func (t TInt) String() string   { return fmt.Sprintf("int%d", t.Bits) }
func (t TUInt) String() string  { return fmt.Sprintf("uint%d", t.Bits) }
func (t TFloat) String() string { return fmt.Sprintf("float%d", t.Bits) }
func (t TStruct) String() string   { return "struct " + t.Name }
func (t TEnum) String() string     { return "enum " + t.Name }
func (t TClassRef) String() string { return "class " + t.Name }
func (t TArray) String() string    { return "[" + t.Elem.String() + "]" }
func (t TTuple) String() string {
	s := "("
	for i, e := range t.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}
func (t TFuncPtr) String() string { return "fn(...)" + t.Return.String() }

// IsDynamic reports whether t is the top of the lattice.
func IsDynamic(t Type) bool {
	_, ok := t.(TDynamic)
	return ok
}

// TypesEqual is structural equality: a type equals itself, and
// concrete types are incomparable with each other even when Dynamic
// is involved — that comparison goes through Compatible instead.
func TypesEqual(a, b Type) bool {
	switch av := a.(type) {
	case TVoid:
		_, ok := b.(TVoid)
		return ok
	case TBool:
		_, ok := b.(TBool)
		return ok
	case TDynamic:
		_, ok := b.(TDynamic)
		return ok
	case TString:
		_, ok := b.(TString)
		return ok
	case TInt:
		bv, ok := b.(TInt)
		return ok && bv.Bits == av.Bits
	case TUInt:
		bv, ok := b.(TUInt)
		return ok && bv.Bits == av.Bits
	case TFloat:
		bv, ok := b.(TFloat)
		return ok && bv.Bits == av.Bits
	case TStruct:
		bv, ok := b.(TStruct)
		return ok && bv.Name == av.Name
	case TEnum:
		bv, ok := b.(TEnum)
		return ok && bv.Name == av.Name
	case TClassRef:
		bv, ok := b.(TClassRef)
		return ok && bv.Name == av.Name
	case TArray:
		bv, ok := b.(TArray)
		return ok && TypesEqual(av.Elem, bv.Elem)
	case TTuple:
		bv, ok := b.(TTuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !TypesEqual(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case TFuncPtr:
		bv, ok := b.(TFuncPtr)
		if !ok || len(av.Params) != len(bv.Params) || !TypesEqual(av.Return, bv.Return) {
			return false
		}
		for i := range av.Params {
			if !TypesEqual(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compatible reports whether a value of type `have` may flow to a
// site expecting `want` — equal, or either side Dynamic (invariants
// §3.4.3, §3.4.4).
func Compatible(have, want Type) bool {
	if IsDynamic(have) || IsDynamic(want) {
		return true
	}
	return TypesEqual(have, want)
}

// Meet combines two recorded types for the same SSA value/type
// variable: equal types meet to themselves, Dynamic is neutral
// (concrete dominates Dynamic per §4.9.1), and two distinct concrete
// types meet to Dynamic (the union-find conflict rule of §4.9.2).
func Meet(a, b Type) Type {
	if TypesEqual(a, b) {
		return a
	}
	if IsDynamic(a) {
		return b
	}
	if IsDynamic(b) {
		return a
	}
	return TDynamic{}
}
