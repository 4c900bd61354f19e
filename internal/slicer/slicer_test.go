package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/adapter"
	"patchspec/internal/ir"
)

func probeFunction() *ir.Function {
	arg := &ir.Argument{Index: 0, Name: "x", Type: &ir.IntType{Bits: 32}}
	fn := &ir.Function{Name: "probe", Params: []*ir.Argument{arg}}

	zero := &ir.Value{Name: "0", Kind: ir.ValueConstant, Constant: &ir.ConstantData{Value: 0}}
	cmpRes := &ir.Value{Name: "cmp", Kind: ir.ValueInstruction}
	cmp := &ir.ICmpInst{Result: cmpRes, Pred: "slt", Left: arg.Value(), Right: zero}

	block := &ir.BasicBlock{Label: "entry", Func: fn}
	block.Instructions = []ir.Instruction{cmp}
	block.Terminator = &ir.RetInst{Value: cmpRes}
	fn.Blocks = []*ir.BasicBlock{block}
	return fn
}

func TestBackwardIntraSkipsConstantOperandsOfOpcodes(t *testing.T) {
	fn := probeFunction()
	program := &ir.Program{Functions: []*ir.Function{fn}}
	a := adapter.New(program)
	g := a.SEG(fn)

	cmpInst := fn.Blocks[0].Instructions[0]
	cmpNode, ok := g.NodeForValue(cmpInst.GetResult())
	require.True(t, ok)

	s := New(a)
	slice := s.BackwardIntra(cmpNode)
	assert.GreaterOrEqual(t, len(slice.Nodes), 1)
}

func TestBackwardIntraMemoises(t *testing.T) {
	fn := probeFunction()
	program := &ir.Program{Functions: []*ir.Function{fn}}
	a := adapter.New(program)
	g := a.SEG(fn)
	cmpNode, _ := g.NodeForValue(fn.Blocks[0].Instructions[0].GetResult())

	s := New(a)
	first := s.BackwardIntra(cmpNode)
	second := s.BackwardIntra(cmpNode)
	assert.Same(t, first, second)
}

func TestNeedsBackwardForDirectFunctionArgument(t *testing.T) {
	fn := probeFunction()
	program := &ir.Program{Functions: []*ir.Function{fn}}
	a := adapter.New(program)
	g := a.SEG(fn)
	argNode, ok := g.NodeForValue(fn.Params[0].Value())
	require.True(t, ok)
	assert.True(t, NeedsBackward(fn, argNode))
}
