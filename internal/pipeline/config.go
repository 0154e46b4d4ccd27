// Package pipeline implements the Transform contract, the fixpointed
// pass pipeline, and the configuration surface (PassConfig,
// LoweringConfig, DebugConfig, Preset) — a direct port of the Rust
// original's pipeline::config module onto Kanso's plain-struct,
// no-framework configuration style.
package pipeline

import "strings"

// PassConfig enables or disables each of the ten passes plus the
// pipeline's fixpoint mode (spec §6.3).
type PassConfig struct {
	TypeInference           bool
	CallSiteTypeFlow        bool
	ConstraintSolve         bool
	CallSiteTypeWiden       bool
	ConstantFolding         bool
	CfgSimplify             bool
	CoroutineLowering       bool
	RedundantCastElimination bool
	Mem2Reg                 bool
	DeadCodeElimination     bool
	Fixpoint                bool
}

// DefaultPassConfig enables every pass with fixpoint iteration on.
func DefaultPassConfig() PassConfig {
	return PassConfig{
		TypeInference:            true,
		CallSiteTypeFlow:         true,
		ConstraintSolve:          true,
		CallSiteTypeWiden:        true,
		ConstantFolding:          true,
		CfgSimplify:              true,
		CoroutineLowering:        true,
		RedundantCastElimination: true,
		Mem2Reg:                  true,
		DeadCodeElimination:      true,
		Fixpoint:                 true,
	}
}

// PassNames is the closed, stable pass-name vocabulary of spec §6.5.
// Every Transform.Name() used by default_pipeline must appear here
// verbatim.
var PassNames = []string{
	"type-inference",
	"call-site-type-flow",
	"constraint-solve",
	"call-site-type-widen",
	"constant-folding",
	"cfg-simplify",
	"coroutine-lowering",
	"redundant-cast-elimination",
	"mem2reg",
	"dead-code-elimination",
}

// Enabled reports whether a pass named by its kebab-case Transform
// name is enabled in this config.
func (c PassConfig) Enabled(name string) bool {
	switch name {
	case "type-inference":
		return c.TypeInference
	case "call-site-type-flow":
		return c.CallSiteTypeFlow
	case "constraint-solve":
		return c.ConstraintSolve
	case "call-site-type-widen":
		return c.CallSiteTypeWiden
	case "constant-folding":
		return c.ConstantFolding
	case "cfg-simplify":
		return c.CfgSimplify
	case "coroutine-lowering":
		return c.CoroutineLowering
	case "redundant-cast-elimination":
		return c.RedundantCastElimination
	case "mem2reg":
		return c.Mem2Reg
	case "dead-code-elimination":
		return c.DeadCodeElimination
	default:
		return true
	}
}

func (c PassConfig) disable(name string) PassConfig {
	switch name {
	case "type-inference":
		c.TypeInference = false
	case "call-site-type-flow":
		c.CallSiteTypeFlow = false
	case "constraint-solve":
		c.ConstraintSolve = false
	case "call-site-type-widen":
		c.CallSiteTypeWiden = false
	case "constant-folding":
		c.ConstantFolding = false
	case "cfg-simplify":
		c.CfgSimplify = false
	case "coroutine-lowering":
		c.CoroutineLowering = false
	case "redundant-cast-elimination":
		c.RedundantCastElimination = false
	case "mem2reg":
		c.Mem2Reg = false
	case "dead-code-elimination":
		c.DeadCodeElimination = false
		// unknown names are silently ignored (spec §6.3, §7)
	}
	return c
}

// FromSkipList builds a config with every pass enabled except those
// named in skip (kebab-case Transform names). Unknown names are
// silently ignored.
func FromSkipList(skip []string) PassConfig {
	c := DefaultPassConfig()
	for _, name := range skip {
		c = c.disable(name)
	}
	return c
}

// LoweringConfig gates the AST-lowering-stage decisions of spec §4.16-
// §4.17, plus two fields present in the Rust original but only
// implied by spec.md's structurizer shapes (§3 of SPEC_FULL.md):
// LogicalOperators and WhileConditionHoisting.
type LoweringConfig struct {
	Ternary               bool
	Minmax                bool
	LogicalOperators      bool
	WhileConditionHoisting bool
}

// LiteralLowering matches Preset "literal": a faithful 1:1 translation
// that still hoists while-conditions and emits ternary and logical
// operators, but skips the minmax AST rewrite.
func LiteralLowering() LoweringConfig {
	return LoweringConfig{Ternary: true, LogicalOperators: true, WhileConditionHoisting: true}
}

// OptimizedLowering matches Preset "optimized": every rewrite enabled.
func OptimizedLowering() LoweringConfig {
	return LoweringConfig{Ternary: true, Minmax: true, LogicalOperators: true, WhileConditionHoisting: true}
}

// DebugConfig controls IR/AST dumping (spec §4.14, §6.3).
type DebugConfig struct {
	DumpIR        bool
	DumpAST       bool
	FunctionFilter string
	DumpIRAfter   string
}

// ShouldDump applies the three-tier fuzzy match of the Rust original's
// DebugConfig::should_dump: case-sensitive substring, then
// case-insensitive substring, then `.`/`::`-split filter parts each
// matched as a substring of the lowercased, unsplit function name. An
// empty FunctionFilter matches everything.
func (d DebugConfig) ShouldDump(funcName string) bool {
	if d.FunctionFilter == "" {
		return true
	}
	if strings.Contains(funcName, d.FunctionFilter) {
		return true
	}
	lowerName := strings.ToLower(funcName)
	if strings.Contains(lowerName, strings.ToLower(d.FunctionFilter)) {
		return true
	}
	parts := splitQualified(d.FunctionFilter)
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !strings.Contains(lowerName, strings.ToLower(p)) {
			return false
		}
	}
	return true
}

func splitQualified(s string) []string {
	s = strings.ReplaceAll(s, "::", ".")
	return strings.Split(s, ".")
}

// Preset is the closed set of named configuration bundles (spec §6.3).
type Preset string

const (
	PresetLiteral   Preset = "literal"
	PresetOptimized Preset = "optimized"
)

// Resolve returns the (PassConfig, LoweringConfig) pair for a preset,
// with skip overrides applied on top of the preset base — following
// the Rust original's Preset::resolve contract rather than requiring
// the caller to apply skips separately.
func (p Preset) Resolve(skip []string) (PassConfig, LoweringConfig, bool) {
	var base PassConfig
	var lowering LoweringConfig
	switch p {
	case PresetLiteral:
		base = DefaultPassConfig()
		base.ConstantFolding = false
		base.CfgSimplify = false
		base.DeadCodeElimination = false
		base.Fixpoint = false
		lowering = LiteralLowering()
	case PresetOptimized:
		base = DefaultPassConfig()
		lowering = OptimizedLowering()
	default:
		return PassConfig{}, LoweringConfig{}, false
	}
	for _, name := range skip {
		base = base.disable(name)
	}
	return base, lowering, true
}
