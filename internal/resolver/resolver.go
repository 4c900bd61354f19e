// Package resolver implements C3: resolving IR values to symbolic
// expression graph nodes, and deriving an acyclic view of the call
// graph that the slicer and trace builder can walk without looping
// through recursion.
package resolver

import (
	"patchspec/internal/adapter"
	"patchspec/internal/ir"
	"patchspec/internal/seg"
)

// Resolve maps an IR value to the node that stands for it in fn's
// symbolic expression graph, building the graph on first use via a.
func Resolve(a *adapter.Adapter, fn *ir.Function, v *ir.Value) (*seg.Node, bool) {
	return a.SEG(fn).NodeForValue(v)
}

// IsIndirectCallTarget re-exposes the address-taken heuristic of
// spec.md §4.3 so callers that only have a resolver handle do not
// need to import adapter as well.
func IsIndirectCallTarget(fn *ir.Function) bool {
	return fn.IsIndirectCallTarget()
}
