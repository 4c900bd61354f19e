package seg

import "patchspec/internal/ir"

// Build lifts a function's IR into a symbolic expression graph. Every
// argument, global reference and instruction result becomes exactly
// one Node; operand edges follow the instruction's GetOperands().
// Calls, returns, divisions, dereferences and stores additionally get
// a Site attached so the condition engine and slicer can recognise
// them as potential sinks without re-inspecting the IR.
func Build(fn *ir.Function) *Graph {
	g := NewGraph(fn)

	for _, arg := range fn.Params {
		n := g.newNode(KindArgument)
		g.Bind(arg.Value(), n)
	}

	for _, block := range fn.Blocks {
		for _, inst := range block.Instructions {
			g.liftInstruction(inst)
		}
		if term := block.Terminator; term != nil {
			g.liftInstruction(term)
		}
	}

	// Second pass: wire operand edges now that every defining
	// instruction has a node, including forward references from phi
	// nodes to values defined in successor blocks.
	for _, block := range fn.Blocks {
		for _, inst := range block.Instructions {
			g.wireOperands(inst)
		}
		if block.Terminator != nil {
			g.wireOperands(block.Terminator)
		}
	}

	return g
}

func (g *Graph) liftInstruction(inst ir.Instruction) {
	if ir.IsDebugIntrinsic(inst) {
		return
	}

	var n *Node
	switch v := inst.(type) {
	case *ir.LoadInst:
		n = g.newNode(KindLoadMem)
		n.Sites = append(n.Sites, DereferenceSite{Access: inst})
	case *ir.StoreInst:
		n = g.newNode(KindStoreMem)
		n.Sites = append(n.Sites, StoreSite{Store: v}, DereferenceSite{Access: inst})
	case *ir.PhiInst:
		n = g.newNode(KindPhi)
	case *ir.BinaryInst:
		n = g.newNode(KindOpcodeBinary)
		n.Opcode = v.Op
		if v.Op == "sdiv" || v.Op == "udiv" || v.Op == "srem" || v.Op == "urem" {
			n.Sites = append(n.Sites, DivSite{Bin: v})
		}
	case *ir.ICmpInst:
		n = g.newNode(KindOpcodeIcmp)
		n.Opcode = v.Pred
	case *ir.CastInst:
		n = g.newNode(KindOpcodeCast)
		n.Opcode = v.Op
	case *ir.SelectInst:
		n = g.newNode(KindOpcodeSelect)
	case *ir.GepInst:
		n = g.newNode(KindOpcodeGep)
	case *ir.CallInst:
		if v.IsIndirect() {
			n = g.newNode(KindCallSitePseudoOutput)
		} else {
			n = g.newNode(KindCallSiteCommonOutput)
		}
		n.Sites = append(n.Sites, CallSite{Call: v})
	case *ir.AllocaInst:
		n = g.newNode(KindSimpleOperand)
	case *ir.RetInst:
		n = g.newNode(KindReturn)
		n.Sites = append(n.Sites, ReturnSite{Ret: v})
	case *ir.BrInst:
		n = g.newNode(KindRegion)
	case *ir.UnreachableInst:
		n = g.newNode(KindRegion)
	default:
		n = g.newNode(KindSimpleOperand)
	}

	n.Inst = inst
	g.byInst[inst] = n
	if res := inst.GetResult(); res != nil {
		g.Bind(res, n)
	}
}

func (g *Graph) wireOperands(inst ir.Instruction) {
	if ir.IsDebugIntrinsic(inst) {
		return
	}
	n, ok := g.nodeForInst(inst)
	if !ok {
		return
	}
	for _, operand := range inst.GetOperands() {
		if operand == nil {
			continue
		}
		child, ok := g.byValue[operand]
		if !ok {
			child = g.newNode(kindForOperandValue(operand))
			g.Bind(operand, child)
		}
		n.AddChild(child)
	}
}

func kindForOperandValue(v *ir.Value) NodeKind {
	switch v.Kind {
	case ir.ValueArgument:
		return KindArgument
	case ir.ValueGlobal:
		return KindCommonArgument
	case ir.ValueConstant:
		return KindSimpleOperand
	case ir.ValueFunction, ir.ValueBlock:
		return KindRegion
	default:
		return KindSimpleOperand
	}
}

func (g *Graph) nodeForInst(inst ir.Instruction) (*Node, bool) {
	n, ok := g.byInst[inst]
	return n, ok
}
