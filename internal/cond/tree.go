// Package cond implements the condition engine (spec.md C5): boolean
// trees of branch conditions reaching a site, simplified and checked
// for feasibility before they are attached to a mined specification.
package cond

import (
	"fmt"
	"sort"
	"strings"

	"patchspec/internal/ir"
)

// Kind tags a condition tree node.
type Kind int

const (
	KindAnd Kind = iota
	KindOr
	KindNot
	KindConst
	KindVar
)

// Var is a leaf condition: a single comparison guarding a branch,
// tied back to the icmp instruction it came from so the differ can
// recognise when the same comparison moved to a different branch
// outcome between before/after IR.
type Var struct {
	Pred string
	Lhs  string
	Rhs  string
	Line ir.DebugLine
}

func (v Var) key() string { return fmt.Sprintf("%s(%s,%s)", v.Pred, v.Lhs, v.Rhs) }

func (v Var) String() string { return v.key() }

// Tree is a boolean condition tree: And/Or are n-ary, Not is unary,
// Const is a leaf literal true/false, Var is a leaf comparison.
type Tree struct {
	Kind     Kind
	Children []*Tree // And, Or, Not (len 1)
	BoolVal  bool    // Const
	Var      Var     // Var
}

func NewConst(v bool) *Tree  { return &Tree{Kind: KindConst, BoolVal: v} }
func NewVar(v Var) *Tree     { return &Tree{Kind: KindVar, Var: v} }
func NewNot(c *Tree) *Tree   { return &Tree{Kind: KindNot, Children: []*Tree{c}} }
func NewAnd(cs ...*Tree) *Tree {
	return &Tree{Kind: KindAnd, Children: cs}
}
func NewOr(cs ...*Tree) *Tree {
	return &Tree{Kind: KindOr, Children: cs}
}

// String renders the tree as an s-expression, stable for tests and
// for the CSV condition column (spec.md §6).
func (t *Tree) String() string {
	if t == nil {
		return "true"
	}
	switch t.Kind {
	case KindConst:
		if t.BoolVal {
			return "true"
		}
		return "false"
	case KindVar:
		return t.Var.String()
	case KindNot:
		return "!(" + t.Children[0].String() + ")"
	case KindAnd:
		return joinChildren(t.Children, "&&")
	case KindOr:
		return joinChildren(t.Children, "||")
	default:
		return "?"
	}
}

func joinChildren(cs []*Tree, op string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	sort.Strings(parts)
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

// Equal reports structural equality after both trees have been run
// through Simplify — used by the trace differ's condition-changed
// classification (spec.md §4.2.1 "condition tree equality").
func (t *Tree) Equal(o *Tree) bool {
	return Simplify(t).String() == Simplify(o).String()
}

// BuildFromPath conjoins one Var per branch step, negated when the
// path took the false edge, into a single And tree describing the
// conditions under which control reaches the end of the path.
func BuildFromPath(steps []PathStep) *Tree {
	if len(steps) == 0 {
		return NewConst(true)
	}
	children := make([]*Tree, 0, len(steps))
	for _, s := range steps {
		leaf := NewVar(s.Var)
		if !s.TookTrue {
			leaf = NewNot(leaf)
		}
		children = append(children, leaf)
	}
	if len(children) == 1 {
		return children[0]
	}
	return NewAnd(children...)
}

// PathStep records one conditional branch taken while walking from a
// function's entry to a site in the control-dependence graph.
type PathStep struct {
	Var      Var
	TookTrue bool
}
