package cond

import "context"

// Diff is the result of comparing a before/after condition tree pair
// (spec.md §4.5/§4.7). Leaves the two sides agree on are cleared out
// before simplifying, so Residual names only the branch decisions
// that actually differ; Changed is decided by checking (Before xor
// After) for satisfiability rather than by string identity, so two
// syntactically different but logically equivalent trees (e.g. a
// double negation the simplifier's fixed point didn't reach) still
// come back Unchanged.
type Diff struct {
	Changed  bool
	Residual *Tree
	Before   string
	After    string
}

// DiffTrees implements spec.md §4.5's tree-difference step: clear the
// leaves shared by both trees, simplify what is left into Residual,
// then settle Changed with an SMT check of (Before xor After) instead
// of trusting syntactic disagreement alone.
func DiffTrees(ctx context.Context, before, after *Tree) (Diff, error) {
	b, a := Simplify(before), Simplify(after)
	cb, ca := clearMatched(b, a)
	residual := Simplify(NewAnd(NewNot(cb), ca))

	xor := NewOr(NewAnd(b, NewNot(a)), NewAnd(NewNot(b), a))
	feasible, err := Feasible(ctx, xor)
	diff := Diff{Residual: residual, Before: b.String(), After: a.String()}
	if err != nil {
		diff.Changed = true
		return diff, err
	}
	diff.Changed = feasible
	return diff, nil
}

// clearMatched drops, from each side, every leaf variable present on
// both sides — a decision the patch left untouched carries no
// information about what changed.
func clearMatched(b, a *Tree) (*Tree, *Tree) {
	bLeaves, aLeaves := leafKeys(b), leafKeys(a)
	shared := make(map[string]bool)
	for k := range bLeaves {
		if aLeaves[k] {
			shared[k] = true
		}
	}
	if len(shared) == 0 {
		return b, a
	}
	return dropLeaves(b, shared, false), dropLeaves(a, shared, false)
}

func leafKeys(t *Tree) map[string]bool {
	out := make(map[string]bool)
	var walk func(*Tree)
	walk = func(n *Tree) {
		switch n.Kind {
		case KindVar:
			out[n.Var.key()] = true
		case KindNot:
			walk(n.Children[0])
		case KindAnd, KindOr:
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	walk(t)
	return out
}

// dropLeaves rewrites t, neutralising every Var leaf whose key is in
// matched to the identity element of its immediate parent (true under
// an And, false under an Or) so a matched leaf contributes nothing to
// the residual. parentIsOr tracks which identity applies at the root,
// where there is no parent node to read it from.
func dropLeaves(t *Tree, matched map[string]bool, parentIsOr bool) *Tree {
	switch t.Kind {
	case KindVar:
		if matched[t.Var.key()] {
			return NewConst(!parentIsOr)
		}
		return t
	case KindNot:
		return NewNot(dropLeaves(t.Children[0], matched, !parentIsOr))
	case KindAnd:
		children := make([]*Tree, len(t.Children))
		for i, c := range t.Children {
			children[i] = dropLeaves(c, matched, false)
		}
		return Simplify(NewAnd(children...))
	case KindOr:
		children := make([]*Tree, len(t.Children))
		for i, c := range t.Children {
			children[i] = dropLeaves(c, matched, true)
		}
		return Simplify(NewOr(children...))
	default:
		return t
	}
}
