// Package differ implements C7, the Trace Differ: classifying pairs
// of enhanced traces from the before/after builds into added,
// removed, condition-changed, order-changed, or unchanged.
package differ

import (
	"context"

	"patchspec/internal/cond"
	"patchspec/internal/errors"
	"patchspec/internal/ir"
	"patchspec/internal/seg"
	"patchspec/internal/trace"
	"patchspec/internal/xlog"
)

type Classification int

const (
	Unchanged Classification = iota
	Added
	Removed
	ConditionChanged
	OrderChanged
)

func (c Classification) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case ConditionChanged:
		return "condition-changed"
	case OrderChanged:
		return "order-changed"
	default:
		return "unknown"
	}
}

// Result pairs a before/after trace (either may be nil, for pure
// additions/removals) with its classification.
type Result struct {
	Before *trace.EnhancedTrace
	After  *trace.EnhancedTrace
	Kind   Classification
}

// Classify implements spec.md §4.7's matching and classification.
func Classify(ctx context.Context, before, after []*trace.EnhancedTrace) []Result {
	usedAfter := make([]bool, len(after))
	var results []Result

	for _, bt := range before {
		matchIdx := -1
		for j, at := range after {
			if usedAfter[j] {
				continue
			}
			if matchIOAndShape(bt, at) {
				matchIdx = j
				break
			}
		}
		if matchIdx == -1 {
			results = append(results, Result{Before: bt, Kind: Removed})
			continue
		}
		usedAfter[matchIdx] = true
		at := after[matchIdx]

		switch {
		case bt.Order != at.Order:
			results = append(results, Result{Before: bt, After: at, Kind: OrderChanged})
		case conditionChanged(ctx, bt.Condition, at.Condition):
			results = append(results, Result{Before: bt, After: at, Kind: ConditionChanged})
		default:
			results = append(results, Result{Before: bt, After: at, Kind: Unchanged})
		}
	}

	for j, at := range after {
		if !usedAfter[j] {
			results = append(results, Result{After: at, Kind: Added})
		}
	}

	return results
}

// conditionChanged decides spec.md §4.7's condition dimension: the
// fast path is string-identity of the simplified trees; when that
// disagrees, it falls back to an SMT check of (before xor after) for
// unsatisfiability before trusting the disagreement, so a pair left
// over from a rewrite the simplifier's fixed point didn't reach (e.g.
// a double negation) still classifies as Unchanged.
func conditionChanged(ctx context.Context, before, after *cond.Tree) bool {
	if before.Equal(after) {
		return false
	}
	diff, err := cond.DiffTrees(ctx, before, after)
	if err != nil {
		xlog.Recoverable(errors.KindAnalysisBudget, "condition diff", err)
		return true
	}
	return diff.Changed
}

// matchIOAndShape checks the non-condition matching dimensions of
// spec.md §4.7: I/O node+site identity, slice structural match with
// phi tolerance, and equal-length related basic-block sequences.
func matchIOAndShape(b, a *trace.EnhancedTrace) bool {
	if b.Input.String() != a.Input.String() {
		return false
	}
	if b.Output.String() != a.Output.String() {
		return false
	}
	if len(b.Blocks) != len(a.Blocks) {
		return false
	}
	for i := range b.Blocks {
		if !blocksMatch(b.Blocks[i], a.Blocks[i]) {
			return false
		}
	}
	return sliceMatches(b.Nodes, a.Nodes)
}

// blocksMatch compares two related basic blocks by their cleaned
// label, since before/after block pairing already happened in C2
// (patch.MatchBlocks) — by the time a trace reaches the differ, a
// matched pair shares the same label modulo the before./after. split.
func blocksMatch(x, y *ir.BasicBlock) bool {
	return x.Label == y.Label
}

// sliceMatches compares two node sequences by kind, one-for-one, with
// phi-tolerant matching (spec.md §4.7): a phi pair matches if its
// incoming-block sets overlap rather than requiring pointer identity.
func sliceMatches(before, after []*seg.Node) bool {
	if len(before) != len(after) {
		return false
	}
	for i := range before {
		if before[i].Kind != after[i].Kind {
			return false
		}
		if before[i].Kind != seg.KindPhi {
			continue
		}
		bp, bok := before[i].Inst.(*ir.PhiInst)
		ap, aok := after[i].Inst.(*ir.PhiInst)
		if !bok || !aok {
			continue
		}
		overlap := false
		for _, be := range bp.Incoming {
			for _, ae := range ap.Incoming {
				overlap = overlap || (be.Block != nil && ae.Block != nil && be.Block.Label == ae.Block.Label)
			}
		}
		if !overlap {
			return false
		}
	}
	return true
}
