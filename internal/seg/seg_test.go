package seg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/ir"
)

func sampleFunction() *ir.Function {
	xVal := &ir.Value{Name: "x", Kind: ir.ValueArgument}
	zero := &ir.Value{Name: "0", Kind: ir.ValueConstant, Constant: &ir.ConstantData{Value: 0}}

	fn := &ir.Function{Name: "clamp"}
	arg := &ir.Argument{Index: 0, Name: "x", Type: &ir.IntType{Bits: 32}}
	fn.Params = []*ir.Argument{arg}
	_ = xVal
	_ = zero

	cmpResult := &ir.Value{Name: "cmp", Kind: ir.ValueInstruction}
	cmp := &ir.ICmpInst{Result: cmpResult, Pred: "slt", Left: arg.Value(), Right: zero}

	retVal := &ir.Value{Name: "sel", Kind: ir.ValueInstruction}
	sel := &ir.SelectInst{Result: retVal, Cond: cmpResult, TrueVal: zero, FalseVal: arg.Value()}

	block := &ir.BasicBlock{Label: "entry", Func: fn}
	block.Instructions = []ir.Instruction{cmp, sel}
	block.Terminator = &ir.RetInst{Value: retVal}
	fn.Blocks = []*ir.BasicBlock{block}
	return fn
}

func TestBuildLiftsOneNodePerInstruction(t *testing.T) {
	g := Build(sampleFunction())
	require.NotNil(t, g)

	// argument + icmp + select + ret = 4 nodes minimum (constants get
	// their own synthetic nodes too).
	assert.GreaterOrEqual(t, len(g.Nodes()), 4)
}

func TestBuildWiresOperandEdges(t *testing.T) {
	fn := sampleFunction()
	g := Build(fn)

	selInst := fn.Blocks[0].Instructions[1]
	selNode, ok := g.nodeForInst(selInst)
	require.True(t, ok)
	assert.Equal(t, KindOpcodeSelect, selNode.Kind)
	assert.Len(t, selNode.Children(), 3)
}

func TestBuildAttachesDivSite(t *testing.T) {
	fn := sampleFunction()
	left := fn.Params[0].Value()
	right := &ir.Value{Name: "d", Kind: ir.ValueConstant}
	divResult := &ir.Value{Name: "q", Kind: ir.ValueInstruction}
	div := &ir.BinaryInst{Result: divResult, Op: "sdiv", Left: left, Right: right}
	fn.Blocks[0].Instructions = append([]ir.Instruction{div}, fn.Blocks[0].Instructions...)

	g := Build(fn)
	node, ok := g.nodeForInst(div)
	require.True(t, ok)
	require.Len(t, node.Sites, 1)
	assert.Equal(t, "div", node.Sites[0].SiteKind())
}

func TestNodeKindClassification(t *testing.T) {
	assert.True(t, KindArgument.IsOperand())
	assert.True(t, KindOpcodeBinary.IsOpcode())
	assert.True(t, KindPseudoArgument.IsPseudo())
	assert.False(t, KindArgument.IsPseudo())
}

func TestGraphRoots(t *testing.T) {
	g := Build(sampleFunction())
	roots := g.Roots()
	require.NotEmpty(t, roots)
	for _, r := range roots {
		assert.Empty(t, r.Users())
	}
}
