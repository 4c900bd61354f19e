package slicer

import (
	"patchspec/internal/ir"
	"patchspec/internal/seg"
)

// RelatedBlocks walks a slice's elements in order and collects the
// basic blocks that own their instructions, deduplicated and in first
// -seen order (spec.md §4.4). Phi inputs whose value is a constant
// attach the block named by the phi's incoming edge, so the block
// sequence still reflects the concrete control-flow path even though
// a constant carries no instruction of its own.
func RelatedBlocks(sl *Slice) []*ir.BasicBlock {
	var order []*ir.BasicBlock
	seen := make(map[*ir.BasicBlock]bool)
	add := func(b *ir.BasicBlock) {
		if b == nil || seen[b] {
			return
		}
		seen[b] = true
		order = append(order, b)
	}

	inSlice := make(map[*seg.Node]bool, len(sl.Nodes))
	for _, n := range sl.Nodes {
		inSlice[n] = true
	}
	for _, n := range sl.Nodes {
		if n.Inst != nil {
			add(n.Inst.GetBlock())
			continue
		}
		if n.Kind == seg.KindPhi {
			continue
		}
		if n.Value != nil && n.Value.Kind == ir.ValueConstant {
			// No owning instruction: attach the incoming block of
			// every phi in the slice that uses this constant.
			for _, u := range n.Users() {
				if phi, ok := u.Inst.(*ir.PhiInst); ok && inSlice[u] {
					if b, ok := PhiConstantBlock(phi, n.Value); ok {
						add(b)
					}
				}
			}
			continue
		}
	}
	return order
}

// PhiConstantBlock returns the block a phi's incoming edge attaches
// to a constant value, so RelatedBlocks can respect the concrete flow
// even though the constant itself owns no instruction.
func PhiConstantBlock(phi *ir.PhiInst, value *ir.Value) (*ir.BasicBlock, bool) {
	for _, edge := range phi.Incoming {
		if edge.Value == value {
			return edge.Block, true
		}
	}
	return nil, false
}
