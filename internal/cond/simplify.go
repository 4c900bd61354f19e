package cond

import "context"

// maxDistributionDepth bounds the rewrite that pushes Or inside And
// (and vice versa); without a bound, pathological trees from long
// linear chains of branches would blow up combinatorially.
const maxDistributionDepth = 5

// Simplify applies a fixed-point sequence of syntactic rewrites
// (constant elimination, double-negation removal, flattening of
// nested And/Or of the same kind, duplicate-child merging, conflict
// detection, absorption, bounded distribution), then runs one SMT-
// backed Reduce pass (spec.md §4.5 P5) to drop implied siblings that
// the syntactic rewrites can't see. It terminates because each
// syntactic rewrite strictly shrinks the tree's node count or hits
// the depth bound, and Reduce runs exactly once over an already
// fixed-point tree.
func Simplify(t *Tree) *Tree {
	if t == nil {
		return NewConst(true)
	}
	prev := t
	for i := 0; i < 32; i++ {
		next := simplifyOnce(prev, 0)
		if next.String() == prev.String() {
			prev = next
			break
		}
		prev = next
	}
	return Reduce(context.Background(), prev)
}

// Reduce implements spec.md §4.5 P5's remaining rewrite: for a
// disjunction, drop a disjunct once it is proven to imply a sibling
// (A=>B means A contributes nothing A∨B doesn't already get from B);
// symmetrically, for a conjunction, drop a conjunct once a sibling is
// proven to imply it. Implication is decided by SMT ((x and not y) is
// unsat iff x implies y) rather than by syntax, per "or by SMT".
func Reduce(ctx context.Context, t *Tree) *Tree {
	if t == nil {
		return NewConst(true)
	}
	switch t.Kind {
	case KindConst, KindVar:
		return t
	case KindNot:
		return NewNot(Reduce(ctx, t.Children[0]))
	case KindAnd, KindOr:
		children := make([]*Tree, len(t.Children))
		for i, c := range t.Children {
			children[i] = Reduce(ctx, c)
		}
		children = reduceAssoc(ctx, children, t.Kind)
		if len(children) == 1 {
			return children[0]
		}
		return &Tree{Kind: t.Kind, Children: children}
	default:
		return t
	}
}

// reduceAssoc drops subsumed siblings from an already-reduced child
// list: for an Or, the implying (stronger) sibling is redundant; for
// an And, the implied (weaker) sibling is redundant.
func reduceAssoc(ctx context.Context, children []*Tree, kind Kind) []*Tree {
	if len(children) < 2 {
		return children
	}
	kept := append([]*Tree(nil), children...)
	for i := 0; i < len(kept); i++ {
		droppedSelf := false
		for j := 0; j < len(kept); j++ {
			if i == j {
				continue
			}
			if !implies(ctx, kept[i], kept[j]) {
				continue
			}
			var dropIdx int
			if kind == KindAnd {
				dropIdx = j // kept[j] is implied by kept[i], so it's redundant
			} else {
				dropIdx = i // kept[i] implies kept[j], so it's redundant
			}
			kept = append(kept[:dropIdx], kept[dropIdx+1:]...)
			if dropIdx <= i {
				droppedSelf = true
			}
			break
		}
		if droppedSelf {
			i = -1 // indices shifted under us; restart the scan
		}
	}
	if len(kept) == 0 {
		return children
	}
	return kept
}

// implies decides a=>b via the SMT solver: a=>b iff (a and not b) is
// unsatisfiable. It works directly off already-simplified subtrees
// without calling Simplify again, so Reduce never recurses back into
// itself through Feasible.
func implies(ctx context.Context, a, b *Tree) bool {
	feasible, err := feasibleRaw(ctx, NewAnd(a, NewNot(b)))
	if err != nil {
		return false
	}
	return !feasible
}

func simplifyOnce(t *Tree, depth int) *Tree {
	switch t.Kind {
	case KindConst, KindVar:
		return t
	case KindNot:
		return simplifyNot(t, depth)
	case KindAnd:
		return simplifyAssoc(t, KindAnd, depth)
	case KindOr:
		return simplifyAssoc(t, KindOr, depth)
	default:
		return t
	}
}

func simplifyNot(t *Tree, depth int) *Tree {
	inner := simplifyOnce(t.Children[0], depth)
	if inner.Kind == KindNot {
		return inner.Children[0] // double negation
	}
	if inner.Kind == KindConst {
		return NewConst(!inner.BoolVal)
	}
	return NewNot(inner)
}

func simplifyAssoc(t *Tree, kind Kind, depth int) *Tree {
	identity, annihilator := true, false
	if kind == KindOr {
		identity, annihilator = false, true
	}

	var flat []*Tree
	for _, c := range t.Children {
		sc := simplifyOnce(c, depth)
		if sc.Kind == kind {
			flat = append(flat, sc.Children...)
			continue
		}
		flat = append(flat, sc)
	}

	// Constant elimination.
	var kept []*Tree
	for _, c := range flat {
		if c.Kind == KindConst {
			if c.BoolVal == annihilator {
				return NewConst(annihilator)
			}
			if c.BoolVal == identity {
				continue // drop identity elements
			}
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return NewConst(identity)
	}

	// Merge duplicates and detect conflicts (x, !x present together).
	seen := make(map[string]*Tree)
	order := make([]string, 0, len(kept))
	for _, c := range kept {
		key := c.String()
		if _, ok := seen[key]; !ok {
			seen[key] = c
			order = append(order, key)
		}
	}
	for _, key := range order {
		c := seen[key]
		var negKey string
		if c.Kind == KindNot {
			negKey = c.Children[0].String()
		} else {
			negKey = NewNot(c).String()
		}
		if _, conflict := seen[negKey]; conflict {
			return NewConst(annihilator)
		}
	}

	merged := make([]*Tree, 0, len(order))
	for _, key := range order {
		merged = append(merged, seen[key])
	}

	merged = absorb(merged, kind)

	if len(merged) == 1 {
		return merged[0]
	}

	if depth < maxDistributionDepth {
		merged = distribute(merged, kind, depth+1)
	}

	return &Tree{Kind: kind, Children: merged}
}

// absorb drops a compound sibling when one of its own children is
// already present as a literal sibling: x and (x or y) == x.
func absorb(children []*Tree, kind Kind) []*Tree {
	opposite := KindOr
	if kind == KindOr {
		opposite = KindAnd
	}
	literals := make(map[string]bool, len(children))
	for _, c := range children {
		if c.Kind != opposite {
			literals[c.String()] = true
		}
	}
	keep := make([]*Tree, 0, len(children))
	for _, c := range children {
		if c.Kind != opposite {
			keep = append(keep, c)
			continue
		}
		redundant := false
		for _, oc := range c.Children {
			if literals[oc.String()] {
				redundant = true
				break
			}
		}
		if !redundant {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		return children
	}
	return keep
}

// distribute pushes Or one level inside And (or And inside Or) when
// doing so strictly reduces duplicate shared leaves; bounded by depth
// to keep the transform terminating and small.
func distribute(children []*Tree, kind Kind, depth int) []*Tree {
	opposite := KindOr
	if kind == KindOr {
		opposite = KindAnd
	}
	// Only distribute the simple two-child case: a (op) (b opposite c)
	// with exactly two children total, which is the only shape that
	// reliably shrinks rather than grows the tree.
	if len(children) != 2 {
		return children
	}
	a, b := children[0], children[1]
	if b.Kind == opposite && len(b.Children) == 2 {
		var result []*Tree
		for _, bc := range b.Children {
			result = append(result, &Tree{Kind: kind, Children: []*Tree{a, bc}})
		}
		combined := &Tree{Kind: opposite, Children: result}
		return []*Tree{simplifyOnce(combined, depth)}
	}
	return children
}
