package ir

// FieldDef is a named, typed struct field.
type FieldDef struct {
	Name string
	Ty   Type
}

// StructDef is a module-level struct definition (spec §3.3 "a Module
// owns ... struct/enum definitions").
type StructDef struct {
	Name       string
	Namespace  []string
	Fields     []FieldDef
	Visibility Visibility
}

// EnumVariant is one case of an EnumDef, carrying zero or more
// payload types.
type EnumVariant struct {
	Name   string
	Fields []Type
}

// EnumDef is a module-level enum definition.
type EnumDef struct {
	Name       string
	Variants   []EnumVariant
	Visibility Visibility
}

// Global is a module-level storage slot.
type Global struct {
	Name       string
	Ty         Type
	Visibility Visibility
	Mutable    bool
}

// Import records a module-level import (name resolution is a frontend
// concern; the core only needs the record for printing/debugging).
type Import struct {
	Module string
	Name   string
	Alias  string
}

// MethodKind distinguishes ordinary methods from constructors in a
// ClassDef's method grouping.
type MethodKind int

const (
	MethodOrdinary MethodKind = iota
	MethodConstructor
	MethodStatic
)

// ClassDef groups a struct with its methods and an optional
// superclass, mirroring the original's class-grouping concept on top
// of the plain struct/function data model.
type ClassDef struct {
	Name       string
	Namespace  []string
	SuperClass string
	Methods    map[FuncId]MethodKind
	Visibility Visibility
}

// Module owns its functions exclusively; cross-function references
// inside it are by function name only (spec §3.3, §3.5).
type Module struct {
	Name      string
	Functions PrimaryMap[FuncId, Function]
	Structs   []StructDef
	Enums     []EnumDef
	Globals   []Global
	Imports   []Import
	Classes   []ClassDef
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// FindFunction looks up a function by name, returning its id and ok.
func (m *Module) FindFunction(name string) (FuncId, bool) {
	var id FuncId
	found := false
	m.Functions.Range(func(k FuncId, f Function) {
		if !found && f.Name == name {
			id, found = k, true
		}
	})
	return id, found
}
