package cond

import (
	"context"

	"patchspec/internal/smt"
)

// Encode lowers a simplified condition tree into CNF clauses in s via
// Tseitin-style introduction of one atom per internal node, and
// returns the atom standing for the whole tree's truth value.
func Encode(t *Tree, s *smt.Solver) smt.Atom {
	switch t.Kind {
	case KindConst:
		a := s.NewAtom("const")
		if t.BoolVal {
			s.Add(smt.Positive(a))
		} else {
			s.Add(smt.Negative(a))
		}
		return a
	case KindVar:
		return s.EncodeCompare(t.Var.Pred, t.Var.Lhs, t.Var.Rhs)
	case KindNot:
		child := Encode(t.Children[0], s)
		a := s.NewAtom("not")
		// a <-> !child
		s.Add(smt.Negative(a), smt.Negative(child))
		s.Add(smt.Positive(a), smt.Positive(child))
		return a
	case KindAnd:
		return encodeAssoc(t, s, true)
	case KindOr:
		return encodeAssoc(t, s, false)
	default:
		return s.NewAtom("unknown")
	}
}

func encodeAssoc(t *Tree, s *smt.Solver, isAnd bool) smt.Atom {
	childAtoms := make([]smt.Atom, len(t.Children))
	for i, c := range t.Children {
		childAtoms[i] = Encode(c, s)
	}
	a := s.NewAtom("assoc")
	if isAnd {
		// a -> each child
		for _, ca := range childAtoms {
			s.Add(smt.Negative(a), smt.Positive(ca))
		}
		// all children -> a
		clause := []smt.Lit{smt.Positive(a)}
		for _, ca := range childAtoms {
			clause = append(clause, smt.Negative(ca))
		}
		s.Add(clause...)
	} else {
		// each child -> a
		for _, ca := range childAtoms {
			s.Add(smt.Negative(ca), smt.Positive(a))
		}
		// a -> some child
		clause := []smt.Lit{smt.Negative(a)}
		for _, ca := range childAtoms {
			clause = append(clause, smt.Positive(ca))
		}
		s.Add(clause...)
	}
	return a
}

// Feasible reports whether t can ever be true: Simplify it (folding
// in the Reduce pass) and then check satisfiability. An Unknown
// result (the SMT check timed out) is treated as feasible — when the
// solver cannot decide, pruning a real path is the worse mistake.
func Feasible(ctx context.Context, t *Tree) (bool, error) {
	return feasibleRaw(ctx, Simplify(t))
}

// feasibleRaw checks satisfiability directly off t, without routing
// through Simplify first. Reduce's implication checks call this
// instead of Feasible so that Simplify never recurses back into
// itself through its own Reduce pass.
func feasibleRaw(ctx context.Context, t *Tree) (bool, error) {
	if t.Kind == KindConst {
		return t.BoolVal, nil
	}
	s := smt.New()
	root := Encode(t, s)
	s.Add(smt.Positive(root))
	res, err := s.Check(ctx)
	if err != nil {
		return true, err
	}
	return res != smt.Unsat, nil
}
