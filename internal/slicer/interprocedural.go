package slicer

import (
	"patchspec/internal/ir"
	"patchspec/internal/seg"
)

// maxCrossings bounds how many call boundaries a single inter-
// procedural slice may cross, guarding against runaway recursion
// through a call graph cycle the SCC collapse upstream didn't fully
// flatten for this particular pair of functions.
const maxCrossings = 12

// contextValid implements spec.md §4.4 "context matching": a call
// trace is valid iff every crossing instance re-binds the same
// (caller call-site, callee) pair.
func contextValid(trace []Frame, next Frame) bool {
	for _, f := range trace {
		if f.CallSite == next.CallSite && f.Callee != next.Callee {
			return false
		}
	}
	return true
}

// BackwardInter extends BackwardIntra across call boundaries: from an
// argument node of a non-indirect-call-target function back to the
// matching actual argument at each call site in every caller.
func (s *Slicer) BackwardInter(fn *ir.Function, start *seg.Node, trace []Frame) *Slice {
	return s.backwardInter(fn, start, trace, 0)
}

func (s *Slicer) backwardInter(fn *ir.Function, start *seg.Node, trace []Frame, depth int) *Slice {
	base := s.BackwardIntra(start)
	nodes := append([]*seg.Node(nil), base.Nodes...)
	result := &Slice{Nodes: nodes, Trace: trace}
	if depth >= maxCrossings {
		return result
	}

	for _, n := range base.Nodes {
		if !NeedsBackward(fn, n) {
			continue
		}
		idx := argumentIndex(fn, n)
		if idx < 0 {
			continue
		}
		for _, callerName := range s.adapter.Callers(fn.CleanName()) {
			callerFn := s.adapter.FunctionByCleanName(fn.Prefix, callerName)
			if callerFn == nil {
				continue
			}
			callerGraph := s.adapter.SEG(callerFn)
			for _, callNode := range callerGraph.Nodes() {
				call := callSiteCallee(callNode)
				if call == nil || ir.CleanName(call.Callee) != fn.CleanName() {
					continue
				}
				if idx >= len(call.Args) {
					continue
				}
				frame := Frame{CallSite: call, Callee: fn.CleanName()}
				if !contextValid(trace, frame) {
					continue
				}
				argNode, ok := callerGraph.NodeForValue(call.Args[idx])
				if !ok {
					continue
				}
				sub := s.backwardInter(callerFn, argNode, append(append([]Frame(nil), trace...), frame), depth+1)
				result.Nodes = append(result.Nodes, sub.Nodes...)
			}
		}
	}
	return result
}

// ForwardInter extends ForwardIntra across call boundaries: from a
// return node back up to the call-site output in every caller.
func (s *Slicer) ForwardInter(fn *ir.Function, start *seg.Node, trace []Frame) *Slice {
	return s.forwardInter(fn, start, trace, 0)
}

func (s *Slicer) forwardInter(fn *ir.Function, start *seg.Node, trace []Frame, depth int) *Slice {
	base := s.ForwardIntra(start)
	nodes := append([]*seg.Node(nil), base.Nodes...)
	result := &Slice{Nodes: nodes, Trace: trace}
	if depth >= maxCrossings || !NeedsForward(start) {
		return result
	}

	for _, callerName := range s.adapter.Callers(fn.CleanName()) {
		callerFn := s.adapter.FunctionByCleanName(fn.Prefix, callerName)
		if callerFn == nil {
			continue
		}
		callerGraph := s.adapter.SEG(callerFn)
		for _, callNode := range callerGraph.Nodes() {
			call := callSiteCallee(callNode)
			if call == nil || ir.CleanName(call.Callee) != fn.CleanName() {
				continue
			}
			frame := Frame{CallSite: call, Callee: fn.CleanName()}
			if !contextValid(trace, frame) {
				continue
			}
			sub := s.forwardInter(callerFn, callNode, append(append([]Frame(nil), trace...), frame), depth+1)
			result.Nodes = append(result.Nodes, sub.Nodes...)
		}
	}
	return result
}

func callSiteCallee(n *seg.Node) *ir.CallInst {
	for _, site := range n.Sites {
		if cs, ok := site.(seg.CallSite); ok {
			return cs.Call
		}
	}
	return nil
}

func argumentIndex(fn *ir.Function, n *seg.Node) int {
	if n.Value == nil {
		return -1
	}
	for _, arg := range fn.Params {
		if arg.Value() == n.Value || arg.Name == n.Value.Name {
			return arg.Index
		}
	}
	return -1
}
