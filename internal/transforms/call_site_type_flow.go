package transforms

import (
	"reincarnate/internal/ir"
	"reincarnate/internal/pipeline"
)

// CallSiteTypeFlow is the pass of spec §4.10: narrow a callee
// parameter to a single concrete type when every observed call-site
// argument for that position agrees on it; leave it Dynamic when
// observations disagree. run_once = true: only runs in the pipeline's
// first fixpoint iteration to avoid oscillating with CallSiteTypeWiden.
type CallSiteTypeFlow struct{}

func (CallSiteTypeFlow) Name() string  { return "call-site-type-flow" }
func (CallSiteTypeFlow) RunOnce() bool { return true }

func (CallSiteTypeFlow) Apply(module *ir.Module) (pipeline.TransformResult, error) {
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
		for idx, observed := range perParam {
			curTy, val, ok := entryParamType(&f, idx)
			if !ok {
				continue
			}
			narrowed, agree := singleConcreteType(observed)
			if !agree || ir.TypesEqual(curTy, narrowed) {
				continue
			}
			f.SetValueType(val, narrowed)
			changed = true
		}
		module.Functions.Set(fid, f)
	}

	return pipeline.TransformResult{Module: module, Changed: changed}, nil
}

// singleConcreteType reports the one concrete type present in
// observed, ignoring Dynamic observations, and whether every non-
// Dynamic observation agreed on it.
func singleConcreteType(observed []ir.Type) (ir.Type, bool) {
	var found ir.Type
	for _, t := range observed {
		if ir.IsDynamic(t) {
			continue
		}
		if found == nil {
			found = t
			continue
		}
		if !ir.TypesEqual(found, t) {
			return nil, false
		}
	}
	if found == nil {
		return nil, false
	}
	return found, true
}
