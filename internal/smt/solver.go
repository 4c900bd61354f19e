// Package smt provides the minimal boolean satisfiability engine the
// condition engine needs to decide whether a simplified condition
// tree is still feasible. No SAT/SMT library appears anywhere in the
// retrieved example corpus (checked by exhaustive grep across every
// go.mod and vendored source under _examples/); the contract below is
// the one this module is built against, implemented directly on the
// standard library rather than faking a dependency that does not
// exist in the corpus. It only ever needs to reason about boolean
// atoms — the condition trees it checks are trees of comparisons, not
// linear arithmetic — so a DPLL loop over CNF clauses is sufficient.
package smt

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Result is the outcome of Check.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Atom names a boolean variable, typically standing for one leaf
// comparison in a condition tree (spec.md §5 "Var" node).
type Atom int

// Lit is a literal: an atom or its negation.
type Lit struct {
	Atom Atom
	Neg  bool
}

func Positive(a Atom) Lit { return Lit{Atom: a} }
func Negative(a Atom) Lit { return Lit{Atom: a, Neg: true} }

func (l Lit) String() string {
	if l.Neg {
		return fmt.Sprintf("(not a%d)", l.Atom)
	}
	return fmt.Sprintf("a%d", l.Atom)
}

// Clause is a disjunction of literals.
type Clause []Lit

// Solver is a scoped collection of CNF clauses plus an expression
// cache that implements get_or_insert_expr: the same comparison or
// opcode expression always maps to the same atom, so two condition
// trees that mention "x < 0" twice share one boolean variable.
type Solver struct {
	nextAtom  Atom
	labels    map[Atom]string
	exprCache map[string]Atom
	clauses   []Clause
	marks     []int // push() checkpoints: len(clauses) at time of push
}

func New() *Solver {
	return &Solver{
		labels:    make(map[Atom]string),
		exprCache: make(map[string]Atom),
	}
}

// NewAtom allocates a fresh boolean variable with a human-readable
// label for to_smt2 output; it is not memoised.
func (s *Solver) NewAtom(label string) Atom {
	s.nextAtom++
	s.labels[s.nextAtom] = label
	return s.nextAtom
}

// GetOrInsertExpr returns the atom standing for the canonical
// expression key, allocating one on first sight.
func (s *Solver) GetOrInsertExpr(key string) Atom {
	if a, ok := s.exprCache[key]; ok {
		return a
	}
	a := s.NewAtom(key)
	s.exprCache[key] = a
	return a
}

// EncodeCompare builds the canonical key for a comparison
// pred(lhs, rhs) and resolves it to a (possibly shared) atom.
func (s *Solver) EncodeCompare(pred, lhs, rhs string) Atom {
	return s.GetOrInsertExpr(fmt.Sprintf("%s(%s,%s)", pred, lhs, rhs))
}

// EncodeOpcode builds the canonical key for an opcode applied to a
// sequence of operand expressions.
func (s *Solver) EncodeOpcode(op string, operands ...string) Atom {
	return s.GetOrInsertExpr(fmt.Sprintf("%s(%s)", op, strings.Join(operands, ",")))
}

// Add asserts a clause (a disjunction of literals) into the current
// scope.
func (s *Solver) Add(lits ...Lit) {
	s.clauses = append(s.clauses, Clause(append([]Lit(nil), lits...)))
}

// Push opens a new backtracking scope.
func (s *Solver) Push() {
	s.marks = append(s.marks, len(s.clauses))
}

// Pop discards every clause asserted since the matching Push. Popping
// past the bottom of the stack clears all clauses.
func (s *Solver) Pop() {
	if len(s.marks) == 0 {
		s.clauses = nil
		return
	}
	mark := s.marks[len(s.marks)-1]
	s.marks = s.marks[:len(s.marks)-1]
	s.clauses = s.clauses[:mark]
}

// Check runs DPLL over the current clause set, returning Unknown if
// ctx is cancelled before a definite answer is reached. This is the
// recoverable AnalysisBudget outcome of spec.md §7.
func (s *Solver) Check(ctx context.Context) (Result, error) {
	atoms := s.allAtoms()
	assign := make(map[Atom]bool, len(atoms))
	ok, err := s.dpll(ctx, s.clauses, atoms, assign, 0)
	if err != nil {
		return Unknown, err
	}
	if ok {
		return Sat, nil
	}
	return Unsat, nil
}

func (s *Solver) allAtoms() []Atom {
	seen := make(map[Atom]bool)
	var atoms []Atom
	for _, c := range s.clauses {
		for _, l := range c {
			if !seen[l.Atom] {
				seen[l.Atom] = true
				atoms = append(atoms, l.Atom)
			}
		}
	}
	sort.Slice(atoms, func(i, j int) bool { return atoms[i] < atoms[j] })
	return atoms
}

func (s *Solver) dpll(ctx context.Context, clauses []Clause, atoms []Atom, assign map[Atom]bool, depth int) (bool, error) {
	if depth%64 == 0 {
		select {
		case <-ctx.Done():
			return false, fmt.Errorf("smt: check cancelled: %w", ctx.Err())
		default:
		}
	}

	status, unresolved := evalClauses(clauses, assign)
	switch status {
	case clausesFalse:
		return false, nil
	case clausesTrue:
		return true, nil
	}

	var next Atom
	found := false
	for _, a := range atoms {
		if _, ok := assign[a]; !ok {
			next = a
			found = true
			break
		}
	}
	if !found {
		// Every atom assigned but evalClauses didn't resolve: shouldn't
		// happen, but treat conservatively as unsatisfiable under this
		// branch rather than looping.
		_ = unresolved
		return false, nil
	}

	for _, v := range []bool{true, false} {
		assign[next] = v
		ok, err := s.dpll(ctx, clauses, atoms, assign, depth+1)
		if err != nil {
			delete(assign, next)
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	delete(assign, next)
	return false, nil
}

type clauseStatus int

const (
	clausesUndetermined clauseStatus = iota
	clausesTrue
	clausesFalse
)

func evalClauses(clauses []Clause, assign map[Atom]bool) (clauseStatus, []Clause) {
	allTrue := true
	var pending []Clause
	for _, c := range clauses {
		sat := false
		allAssigned := true
		for _, l := range c {
			v, ok := assign[l.Atom]
			if !ok {
				allAssigned = false
				continue
			}
			if v != l.Neg {
				sat = true
				break
			}
		}
		if sat {
			continue
		}
		if allAssigned {
			return clausesFalse, nil
		}
		allTrue = false
		pending = append(pending, c)
	}
	if allTrue {
		return clausesTrue, nil
	}
	return clausesUndetermined, pending
}
