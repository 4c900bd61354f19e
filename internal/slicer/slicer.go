// Package slicer implements C4: def-use value-flow slicing over the
// symbolic expression graph, both within a function and across call
// boundaries, forward and backward.
package slicer

import (
	"patchspec/internal/adapter"
	"patchspec/internal/ir"
	"patchspec/internal/seg"
)

// Slice is an ordered, deduplicated sequence of SEG nodes reached by a
// def-use walk from a criterion node.
type Slice struct {
	Nodes []*seg.Node
	// Trace is the call-context stack active when the slice crossed a
	// function boundary, caller-to-callee order, spec.md §4.4.
	Trace []Frame
}

// Frame pins one crossing of a call boundary: the call site in the
// caller and the function entered or left.
type Frame struct {
	CallSite *ir.CallInst
	Callee   string
}

// Slicer owns the memoisation caches spec.md §5 requires ("shared
// resources... mutated monotonically"): once a slice from a given
// start node has been computed, later requests reuse it verbatim.
type Slicer struct {
	adapter *adapter.Adapter

	backwardIntra map[*seg.Node]*Slice
	forwardIntra  map[*seg.Node]*Slice
}

func New(a *adapter.Adapter) *Slicer {
	return &Slicer{
		adapter:       a,
		backwardIntra: make(map[*seg.Node]*Slice),
		forwardIntra:  make(map[*seg.Node]*Slice),
	}
}

// BackwardIntra walks operands recursively from start, skipping
// constant operands of opcode nodes, stopping at external-copy
// markers, and detecting cycles via a per-call visited set
// (spec.md §4.4).
func (s *Slicer) BackwardIntra(start *seg.Node) *Slice {
	if cached, ok := s.backwardIntra[start]; ok {
		return cached
	}
	visited := make(map[*seg.Node]bool)
	var nodes []*seg.Node
	var walk func(n *seg.Node)
	walk = func(n *seg.Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		nodes = append(nodes, n)
		if isExternalCopy(n) {
			return
		}
		for _, c := range n.Children() {
			if n.Kind.IsOpcode() && isConstantLeaf(c) {
				continue
			}
			walk(c)
		}
	}
	walk(start)
	result := &Slice{Nodes: nodes}
	s.backwardIntra[start] = result
	return result
}

// ForwardIntra walks users recursively from start, stopping at Region
// nodes and external-copy markers, and memoises results.
func (s *Slicer) ForwardIntra(start *seg.Node) *Slice {
	if cached, ok := s.forwardIntra[start]; ok {
		return cached
	}
	visited := make(map[*seg.Node]bool)
	var nodes []*seg.Node
	var walk func(n *seg.Node)
	walk = func(n *seg.Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		nodes = append(nodes, n)
		if n.Kind == seg.KindRegion || isExternalCopy(n) {
			return
		}
		for _, u := range n.Users() {
			walk(u)
		}
	}
	walk(start)
	result := &Slice{Nodes: nodes}
	s.forwardIntra[start] = result
	return result
}

func isExternalCopy(n *seg.Node) bool {
	return n.Value != nil && n.Value.ExCopy
}

func isConstantLeaf(n *seg.Node) bool {
	return n.Value != nil && n.Value.Kind == ir.ValueConstant
}

// NeedsBackward reports whether a criterion node requires extending
// the slice into its function's callers: arguments of functions that
// are not themselves indirect-call targets, and every call-site pseudo
// input, whatever its callee (spec.md §4.4 "needs-backward").
func NeedsBackward(fn *ir.Function, n *seg.Node) bool {
	switch n.Kind {
	case seg.KindArgument, seg.KindCommonArgument:
		return !fn.IsIndirectCallTarget()
	case seg.KindCallSitePseudoInput:
		return true
	default:
		return false
	}
}

// NeedsForward reports whether a criterion node requires extending
// the slice into its function's callers or callees in the forward
// direction: return nodes extend to callers. No other kind extends
// forward; call-site inputs are not followed into the callee (spec.md
// §4.4 "needs-forward").
func NeedsForward(n *seg.Node) bool {
	switch n.Kind {
	case seg.KindReturn, seg.KindCommonReturn, seg.KindPseudoReturn:
		return true
	case seg.KindCallSiteCommonOutput, seg.KindCallSitePseudoOutput:
		return false // call-site outputs of API callees stop here
	default:
		return false
	}
}
