package adapter

import "patchspec/internal/ir"

// BranchStep records one conditional branch a block's execution is
// control-dependent on, and which edge was taken to reach it.
type BranchStep struct {
	Branch   *ir.BrInst
	TookTrue bool
}

// ControlDeps returns, in entry-to-target order, every conditional
// branch that target is control-dependent on: the set of branch
// decisions that must hold for control to reach target at all. It is
// the input the condition engine (C5) conjoins into a path condition.
func (a *Adapter) ControlDeps(fn *ir.Function, target *ir.BasicBlock) []BranchStep {
	pdom := postDominators(fn)

	type edge struct {
		branch *ir.BasicBlock
		idx    int
	}
	visited := make(map[*ir.BasicBlock]bool)
	var order []edge

	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		for _, cand := range fn.Blocks {
			br, ok := cand.Terminator.(*ir.BrInst)
			if !ok || br.Cond == nil || len(cand.Successors) != 2 {
				continue
			}
			for i, succ := range cand.Successors {
				if pdom[succ][b] && !pdom[cand][b] {
					key := cand
					if visited[key] {
						continue
					}
					visited[key] = true
					order = append(order, edge{branch: cand, idx: i})
					visit(cand)
				}
			}
		}
	}
	visit(target)

	// visit recurses outward from target, so the collected edges are
	// target-to-entry; reverse for an entry-to-target path condition.
	steps := make([]BranchStep, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		e := order[i]
		br := e.branch.Terminator.(*ir.BrInst)
		steps = append(steps, BranchStep{Branch: br, TookTrue: e.idx == 0})
	}
	return steps
}

// postDominators computes, for every block, the set of blocks that
// postdominate it via the standard iterative meet-over-all-successors
// fixpoint, with exit blocks (no successors) postdominating only
// themselves.
func postDominators(fn *ir.Function) map[*ir.BasicBlock]map[*ir.BasicBlock]bool {
	blocks := fn.Blocks
	all := make(map[*ir.BasicBlock]bool, len(blocks))
	for _, b := range blocks {
		all[b] = true
	}

	pdom := make(map[*ir.BasicBlock]map[*ir.BasicBlock]bool, len(blocks))
	for _, b := range blocks {
		if len(b.Successors) == 0 {
			pdom[b] = map[*ir.BasicBlock]bool{b: true}
		} else {
			pdom[b] = cloneSet(all)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			if len(b.Successors) == 0 {
				continue
			}
			next := intersectSuccessors(b, pdom)
			next[b] = true
			if !setsEqual(next, pdom[b]) {
				pdom[b] = next
				changed = true
			}
		}
	}
	return pdom
}

func intersectSuccessors(b *ir.BasicBlock, pdom map[*ir.BasicBlock]map[*ir.BasicBlock]bool) map[*ir.BasicBlock]bool {
	var result map[*ir.BasicBlock]bool
	for _, succ := range b.Successors {
		if result == nil {
			result = cloneSet(pdom[succ])
			continue
		}
		for k := range result {
			if !pdom[succ][k] {
				delete(result, k)
			}
		}
	}
	if result == nil {
		result = make(map[*ir.BasicBlock]bool)
	}
	return result
}

func cloneSet(s map[*ir.BasicBlock]bool) map[*ir.BasicBlock]bool {
	out := make(map[*ir.BasicBlock]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func setsEqual(a, b map[*ir.BasicBlock]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
