package ir

// VirtualExit is the sentinel post-dominator-tree root every return
// block flows into (spec §4.1, §4.15: "a reserved sentinel (u32::MAX)
// ... for virtual nodes used by algorithms").
const VirtualExit BlockId = BlockId(Invalid)

// ltDominators computes the immediate-dominator map for the graph
// reachable from root via succ, using the iterative Lengauer-Tarjan
// algorithm with path-compressed union-find (spec §4.15), ported from
// the structure of the original's compute_dominators_lt/lt_eval/
// lt_compress.
func ltDominators(root BlockId, succ func(BlockId) []BlockId) map[BlockId]BlockId {
	var order []BlockId
	parent := map[BlockId]BlockId{}
	dfsNum := map[BlockId]int{}
	visited := map[BlockId]bool{}

	visited[root] = true
	var dfs func(v BlockId)
	dfs = func(v BlockId) {
		dfsNum[v] = len(order)
		order = append(order, v)
		for _, w := range succ(v) {
			if !visited[w] {
				visited[w] = true
				parent[w] = v
				dfs(w)
			}
		}
	}
	dfs(root)

	n := len(order)
	semi := make([]int, n)
	idomIdx := make([]int, n)
	ancestor := make([]int, n)
	label := make([]int, n)
	bucket := make([][]int, n)
	for i := range semi {
		semi[i] = i
		ancestor[i] = -1
		label[i] = i
	}

	var compress func(v int)
	compress = func(v int) {
		if ancestor[ancestor[v]] != -1 {
			compress(ancestor[v])
			if semi[label[ancestor[v]]] < semi[label[v]] {
				label[v] = label[ancestor[v]]
			}
			ancestor[v] = ancestor[ancestor[v]]
		}
	}
	eval := func(v int) int {
		if ancestor[v] == -1 {
			return v
		}
		compress(v)
		return label[v]
	}

	pred := make([][]int, n)
	for i, v := range order {
		for _, s := range succ(v) {
			if j, ok := dfsNum[s]; ok {
				pred[j] = append(pred[j], i)
			}
		}
	}

	for w := n - 1; w >= 1; w-- {
		for _, v := range pred[w] {
			u := eval(v)
			if semi[u] < semi[w] {
				semi[w] = semi[u]
			}
		}
		bucket[semi[w]] = append(bucket[semi[w]], w)
		pIdx := dfsNum[parent[order[w]]]
		ancestor[w] = pIdx
		for _, v := range bucket[pIdx] {
			u := eval(v)
			if semi[u] < semi[v] {
				idomIdx[v] = u
			} else {
				idomIdx[v] = pIdx
			}
		}
		bucket[pIdx] = nil
	}
	for i := 1; i < n; i++ {
		if idomIdx[i] != semi[i] {
			idomIdx[i] = idomIdx[idomIdx[i]]
		}
	}
	idomIdx[0] = 0

	result := make(map[BlockId]BlockId, n)
	for i, v := range order {
		result[v] = order[idomIdx[i]]
	}
	return result
}

func blockSucc(f *Function) func(BlockId) []BlockId {
	return func(b BlockId) []BlockId {
		blk := f.Blocks.Get(b)
		tid, ok := blk.Terminator(&f.Insts)
		if !ok {
			return nil
		}
		return BranchTargets(f.Insts.Get(tid).Op)
	}
}

// Dominators computes the immediate-dominator map for f, keyed by
// every block reachable from the entry.
func Dominators(f *Function) map[BlockId]BlockId {
	return ltDominators(f.Entry, blockSucc(f))
}

// PostDominators computes the immediate-post-dominator map for f via a
// virtual exit vertex that every Return block flows into; mappings
// through the virtual exit itself are filtered out (spec §4.15).
func PostDominators(f *Function) map[BlockId]BlockId {
	preds := map[BlockId][]BlockId{}
	var exitPreds []BlockId
	for _, bid := range f.Blocks.Keys() {
		blk := f.Blocks.Get(bid)
		tid, ok := blk.Terminator(&f.Insts)
		if !ok {
			continue
		}
		op := f.Insts.Get(tid).Op
		if _, isRet := op.(OpReturnInst); isRet {
			exitPreds = append(exitPreds, bid)
			continue
		}
		for _, t := range BranchTargets(op) {
			preds[t] = append(preds[t], bid)
		}
	}
	succR := func(b BlockId) []BlockId {
		if b == VirtualExit {
			return exitPreds
		}
		return preds[b]
	}
	raw := ltDominators(VirtualExit, succR)
	result := make(map[BlockId]BlockId, len(raw))
	for k, v := range raw {
		if k == VirtualExit || v == VirtualExit {
			continue
		}
		result[k] = v
	}
	return result
}

// Dominates reports whether a dominates b in the tree described by
// idom (as returned by Dominators). A block dominates itself.
func Dominates(idom map[BlockId]BlockId, a, b BlockId) bool {
	for {
		if a == b {
			return true
		}
		p, ok := idom[b]
		if !ok || p == b {
			return a == b
		}
		b = p
	}
}
