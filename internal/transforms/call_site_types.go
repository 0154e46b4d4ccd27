package transforms

import "reincarnate/internal/ir"

// callSiteObservation keys an observed call-argument type by the
// callee name and the positional argument index (spec §4.10 phase 1).
type callSiteObservation struct {
	callee string
	index  int
}

// collectCallSiteTypes walks every Call in every function of module,
// grouping the observed value_types of its arguments by (callee name,
// arg index). Shared by CallSiteTypeFlow (narrowing) and
// CallSiteTypeWiden (widening), both of which read this same
// observation set (grounded on the Rust original's
// transforms::call_site_flow::collect_call_site_types, shared between
// call_site_flow.rs and call_site_widen.rs).
func collectCallSiteTypes(module *ir.Module) map[callSiteObservation][]ir.Type {
	observations := map[callSiteObservation][]ir.Type{}
	for _, fid := range module.Functions.Keys() {
		f := module.Functions.Get(fid)
		f.Blocks.Range(func(_ ir.BlockId, b ir.Block) {
			for _, iid := range b.Insts {
				inst := f.Insts.Get(iid)
				call, ok := inst.Op.(ir.OpCallInst)
				if !ok {
					continue
				}
				for i, arg := range call.Args {
					key := callSiteObservation{callee: call.Func, index: i}
					observations[key] = append(observations[key], f.ValueTypes.Get(arg))
				}
			}
		})
	}
	return observations
}

// entryParamType returns the callee's currently recorded type for
// parameter i, preferring the entry block's param (which
// ConstraintSolve/TypeInference update) over sig.params as the
// canonical post-narrowing source of truth.
func entryParamType(f *ir.Function, i int) (ir.Type, ir.ValueId, bool) {
	entry := f.Blocks.Get(f.Entry)
	if i >= len(entry.Params) {
		return nil, 0, false
	}
	return entry.Params[i].Ty, entry.Params[i].Value, true
}
