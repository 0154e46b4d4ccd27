package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// CallSiteTypeWiden is the pass of spec §4.12: the counterpart to
// CallSiteTypeFlow, run after ConstraintSolve. If a callee parameter
// was narrowed to a concrete type T but some call site passes a
// different concrete type U, widen the parameter back to Dynamic.
// Dynamic call-site arguments never trigger widening, and this pass
// only ever widens concrete -> Dynamic. run_once = true to prevent a
// narrow/widen oscillation with ConstraintSolve.
type CallSiteTypeWiden struct{}

func (CallSiteTypeWiden) Name() string  { return "call-site-type-widen" }
func (CallSiteTypeWiden) RunOnce() bool { return true }

func (CallSiteTypeWiden) Apply(module *ir.Module) (pipeline.TransformResult, error) {
	observations := collectCallSiteTypes(module)
	changed := false

	byCallee := map[string]map[int][]ir.Type{}
	for key, types := range observations {
		if byCallee[key.callee] == nil {
			byCallee[key.callee] = map[int][]ir.Type{}
		}
		byCallee[key.callee][key.index] = types
	}

	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		perParam, ok := byCallee[f.Name]
		if !ok {
			module.Functions.Set(fid, f)
			continue
		}
		for idx, callerTypes := range perParam {
			paramTy, val, ok := entryParamType(&f, idx)
			if !ok || ir.IsDynamic(paramTy) {
				continue
			}
			if !anyIncompatible(callerTypes, paramTy) {
				continue
			}
			f.SetValueType(val, ir.TDynamic{})
			changed = true
		}
		module.Functions.Set(fid, f)
	}

	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

// anyIncompatible reports whether any non-Dynamic observed type
// differs from paramTy.
func anyIncompatible(observed []ir.Type, paramTy ir.Type) bool {
	for _, t := range observed {
		if ir.IsDynamic(t) {
			continue
		}
		if !ir.TypesEqual(t, paramTy) {
			return true
		}
	}
	return false
}
