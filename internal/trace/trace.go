package trace

import (
	"context"
	"strings"

	"patchspec/internal/adapter"
	"patchspec/internal/cond"
	"patchspec/internal/ir"
	"patchspec/internal/seg"
	"patchspec/internal/slicer"
)

// EnhancedTrace is one semantic (input, output) value-flow path found
// inside a slice, together with the condition under which it fires
// and its position in the trace's output ordering (spec.md §4.6).
type EnhancedTrace struct {
	Func      *ir.Function
	Nodes     []*seg.Node
	Blocks    []*ir.BasicBlock
	Condition *cond.Tree
	Input     InputNode
	Output    OutputNode
	Order     int
}

// Equal implements spec.md §4.6: two enhanced traces are equal iff
// their node sequence, block sequence, I/O node+site pairs, and
// condition tree are all equal.
func (t *EnhancedTrace) Equal(o *EnhancedTrace) bool {
	if len(t.Nodes) != len(o.Nodes) || len(t.Blocks) != len(o.Blocks) {
		return false
	}
	for i := range t.Nodes {
		if t.Nodes[i] != o.Nodes[i] {
			return false
		}
	}
	for i := range t.Blocks {
		if t.Blocks[i] != o.Blocks[i] {
			return false
		}
	}
	if t.Input.String() != o.Input.String() || t.Output.siteKey() != o.Output.siteKey() {
		return false
	}
	return t.Condition.Equal(o.Condition)
}

// Build trims sl to the span between the input and output node,
// computes the related basic-block sequence, and builds and prunes a
// condition tree across the block sequence. It returns false if the
// span is empty (input/output not found in the slice) or the
// condition simplifies to an infeasible Const(false).
func Build(ctx context.Context, a *adapter.Adapter, fn *ir.Function, sl *slicer.Slice, input InputNode, output OutputNode) (*EnhancedTrace, bool) {
	trimmed, ok := trim(sl.Nodes, input.Node, output.Node)
	if !ok {
		return nil, false
	}

	blocks := slicer.RelatedBlocks(&slicer.Slice{Nodes: trimmed})
	tree := buildCondition(ctx, a, fn, blocks)

	feasible, err := cond.Feasible(ctx, tree)
	if err != nil || !feasible {
		if err == nil {
			return nil, false
		}
		// AnalysisBudget: Unknown is treated conservatively, i.e. kept.
	}

	return &EnhancedTrace{
		Func:      fn,
		Nodes:     trimmed,
		Blocks:    blocks,
		Condition: cond.Simplify(tree),
		Input:     input,
		Output:    output,
	}, true
}

func trim(nodes []*seg.Node, input, output *seg.Node) ([]*seg.Node, bool) {
	start, end := -1, -1
	for i, n := range nodes {
		if n == input && start == -1 {
			start = i
		}
		if n == output {
			end = i
		}
	}
	if start == -1 || end == -1 {
		return nil, false
	}
	if start > end {
		start, end = end, start
	}
	return nodes[start : end+1], true
}

// buildCondition implements spec.md §4.6 steps 3-4: for every related
// block the trace passes through, conjoin the branch decisions that
// block is control-dependent on into a per-block path condition,
// prune any path condition the SMT solver proves infeasible, and
// disjoin what survives — the trace fires if any related block's
// path condition holds, not just the last one's.
func buildCondition(ctx context.Context, a *adapter.Adapter, fn *ir.Function, blocks []*ir.BasicBlock) *cond.Tree {
	if len(blocks) == 0 {
		return cond.NewConst(true)
	}

	seen := make(map[string]bool)
	var disjuncts []*cond.Tree
	for _, target := range blocks {
		path := blockPathCondition(a, fn, target)
		key := path.String()
		if seen[key] {
			continue
		}
		seen[key] = true

		feasible, err := cond.Feasible(ctx, path)
		if err != nil {
			// AnalysisBudget: Unknown is kept rather than pruned.
			disjuncts = append(disjuncts, path)
			continue
		}
		if feasible {
			disjuncts = append(disjuncts, path)
		}
	}

	if len(disjuncts) == 0 {
		return cond.NewConst(false)
	}
	if len(disjuncts) == 1 {
		return disjuncts[0]
	}
	return cond.NewOr(disjuncts...)
}

// blockPathCondition And-chains the branch decisions target is
// control-dependent on, spec.md §4.6 step 3's per-path condition.
func blockPathCondition(a *adapter.Adapter, fn *ir.Function, target *ir.BasicBlock) *cond.Tree {
	branchSteps := a.ControlDeps(fn, target)
	if len(branchSteps) == 0 {
		return cond.NewConst(true)
	}
	steps := make([]cond.PathStep, 0, len(branchSteps))
	for _, bs := range branchSteps {
		v, ok := varFromBranch(bs.Branch)
		if !ok {
			continue
		}
		steps = append(steps, cond.PathStep{Var: v, TookTrue: bs.TookTrue})
	}
	return cond.BuildFromPath(steps)
}

func varFromBranch(br *ir.BrInst) (cond.Var, bool) {
	if br.Cond == nil {
		return cond.Var{}, false
	}
	if icmp, ok := br.Cond.DefInst.(*ir.ICmpInst); ok {
		return cond.Var{
			Pred: icmp.Pred,
			Lhs:  icmp.Left.Name,
			Rhs:  icmp.Right.Name,
			Line: br.DebugInfo(),
		}, true
	}
	return cond.Var{Pred: "bool", Lhs: br.Cond.Name, Rhs: "true", Line: br.DebugInfo()}, true
}

// Dedup suppresses duplicate traces on insertion, spec.md §4.6's
// closing sentence.
func Dedup(traces []*EnhancedTrace) []*EnhancedTrace {
	var out []*EnhancedTrace
	for _, t := range traces {
		dup := false
		for _, existing := range out {
			if t.Equal(existing) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// String renders a compact summary used in log lines and test output.
func (t *EnhancedTrace) String() string {
	return t.Input.String() + " -> " + t.Output.String() + " [" + blockLabels(t.Blocks) + "] " + t.Condition.String()
}

func blockLabels(blocks []*ir.BasicBlock) string {
	labels := make([]string, len(blocks))
	for i, b := range blocks {
		labels[i] = b.Label
	}
	return strings.Join(labels, ",")
}
