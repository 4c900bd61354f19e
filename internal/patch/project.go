package patch

import "patchspec/internal/ir"

// ChangedFunctions returns the clean (prefix-stripped) names of every
// function whose before or after variant has a line scope overlapping
// a changed line for its source file (spec.md §4.2 step 1-2).
func ChangedFunctions(p *Patch, program *ir.Program) []string {
	seen := make(map[string]bool)
	var names []string
	for _, fn := range program.Functions {
		if fn.Declared || fn.External {
			continue
		}
		fc, ok := p.Files[fn.SourceFile]
		if !ok {
			continue
		}
		start, end, ok := fn.LineScope()
		if !ok {
			continue
		}
		if fc.Touches(start, end) {
			name := fn.CleanName()
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// BlockMatch pairs a before/after basic block whose line scopes agree,
// spec.md §4.2 step 3 "match basic blocks by line scope".
type BlockMatch struct {
	Before *ir.BasicBlock
	After  *ir.BasicBlock
}

// MatchBlocks pairs blocks from before and after whose [start,end]
// line scopes are identical. Blocks with no valid line scope (no
// debug info survived) are dropped silently per spec.md §4.2 "Errors".
func MatchBlocks(before, after *ir.Function) []BlockMatch {
	type scope struct{ start, end int }
	byScope := make(map[scope]*ir.BasicBlock)
	for _, b := range after.Blocks {
		start, end, ok := b.LineScope()
		if !ok {
			continue
		}
		byScope[scope{start, end}] = b
	}

	var matches []BlockMatch
	for _, b := range before.Blocks {
		start, end, ok := b.LineScope()
		if !ok {
			continue
		}
		if afterBlock, ok := byScope[scope{start, end}]; ok {
			matches = append(matches, BlockMatch{Before: b, After: afterBlock})
		}
	}
	return matches
}

// StructurallyEqual implements spec.md §4.2.1: two instructions are
// equal if they have the same opcode, operands of the same kind and
// cleaned type, and a result of the same cleaned type. Constant
// operands compare by (type, value); every other operand compares by
// its prefix-cleaned name. Result names and numeric IDs are ignored.
func StructurallyEqual(a, b ir.Instruction) bool {
	if a.Opcode() != b.Opcode() {
		return false
	}
	if ap, ok := a.(*ir.PhiInst); ok {
		bp, ok := b.(*ir.PhiInst)
		if !ok {
			return false
		}
		return phisStructurallyEqual(ap, bp)
	}
	aOps, bOps := a.GetOperands(), b.GetOperands()
	if len(aOps) != len(bOps) {
		return false
	}
	for i := range aOps {
		if !valuesEqual(aOps[i], bOps[i]) {
			return false
		}
	}
	aRes, bRes := a.GetResult(), b.GetResult()
	if (aRes == nil) != (bRes == nil) {
		return false
	}
	if aRes != nil && ir.CleanType(aRes.Type) != ir.CleanType(bRes.Type) {
		return false
	}
	return true
}

// phisStructurallyEqual implements spec.md §4.2.1's Phi exception:
// incoming operands may be matched in any permutation up to bijection,
// since a compiler is free to reorder a phi's incoming edges without
// changing its meaning. Block identity across before/after IR isn't
// comparable directly, so the bijection is found on incoming values
// alone rather than on (block, value) pairs.
func phisStructurallyEqual(a, b *ir.PhiInst) bool {
	if len(a.Incoming) != len(b.Incoming) {
		return false
	}
	aRes, bRes := a.GetResult(), b.GetResult()
	if (aRes == nil) != (bRes == nil) {
		return false
	}
	if aRes != nil && ir.CleanType(aRes.Type) != ir.CleanType(bRes.Type) {
		return false
	}

	usedB := make([]bool, len(b.Incoming))
	for _, ae := range a.Incoming {
		matched := false
		for j, be := range b.Incoming {
			if usedB[j] {
				continue
			}
			if valuesEqual(ae.Value, be.Value) {
				usedB[j] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func valuesEqual(a, b *ir.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if ir.CleanType(a.Type) != ir.CleanType(b.Type) {
		return false
	}
	if a.Kind == ir.ValueConstant {
		return constantsEqual(a.Constant, b.Constant)
	}
	return ir.CleanName(a.Name) == ir.CleanName(b.Name)
}

func constantsEqual(a, b *ir.ConstantData) bool {
	if a == nil || b == nil {
		return a == b
	}
	return ir.CleanType(a.Type) == ir.CleanType(b.Type) && a.Value == b.Value
}

// InstPair is one matched before/after instruction pair.
type InstPair struct {
	Before ir.Instruction
	After  ir.Instruction
}

// InstructionDiff performs spec.md §4.2 step 5: within a matched
// block pair, structurally match instructions and classify the
// leftovers as added (post-only) or removed (pre-only).
func InstructionDiff(m BlockMatch) (matched []InstPair, added, removed []ir.Instruction) {
	beforeInsts := allInstructions(m.Before)
	afterInsts := allInstructions(m.After)
	usedAfter := make([]bool, len(afterInsts))

	for _, bi := range beforeInsts {
		matchedIdx := -1
		for j, ai := range afterInsts {
			if usedAfter[j] {
				continue
			}
			if StructurallyEqual(bi, ai) {
				matchedIdx = j
				break
			}
		}
		if matchedIdx >= 0 {
			usedAfter[matchedIdx] = true
			matched = append(matched, InstPair{Before: bi, After: afterInsts[matchedIdx]})
		} else {
			removed = append(removed, bi)
		}
	}
	for j, ai := range afterInsts {
		if !usedAfter[j] {
			added = append(added, ai)
		}
	}
	return matched, added, removed
}

func allInstructions(b *ir.BasicBlock) []ir.Instruction {
	all := make([]ir.Instruction, 0, len(b.Instructions)+1)
	all = append(all, b.Instructions...)
	if b.Terminator != nil {
		all = append(all, b.Terminator)
	}
	return all
}
