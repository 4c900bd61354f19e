package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/ir"
)

func TestParseNativeGrammar(t *testing.T) {
	p, err := Parse("p.diff", "+driver/x.c:42\n-driver/x.c:40\n")
	require.NoError(t, err)
	fc := p.Files["driver/x.c"]
	require.NotNil(t, fc)
	assert.Equal(t, []int{42}, fc.Added)
	assert.Equal(t, []int{40}, fc.Removed)
}

func TestParseIgnoresBlankLines(t *testing.T) {
	p, err := Parse("p.diff", "+driver/x.c:1\n\n\n-driver/x.c:2\n")
	require.NoError(t, err)
	assert.False(t, p.IsEmpty())
}

func TestParseFallsBackToUnifiedDiff(t *testing.T) {
	unified := "--- a/driver/x.c\n+++ b/driver/x.c\n@@ -10,2 +10,3 @@\n-old line\n+new line\n+new line 2\n context\n"
	p, err := Parse("p.diff", unified)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Files)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("p.diff", "this is not a patch at all !!! ###")
	assert.Error(t, err)
}

func TestChangedFunctionsSkipsFunctionWithoutLineScope(t *testing.T) {
	p := newPatch()
	p.add(Line{File: "x.c", Line: 42, Kind: Added})

	fn := &ir.Function{Name: "probe", SourceFile: "x.c"}
	block := &ir.BasicBlock{Label: "entry"}
	block.Instructions = []ir.Instruction{&ir.RetInst{}}
	block.Terminator = &ir.UnreachableInst{}
	fn.Blocks = []*ir.BasicBlock{block}
	// the ret instruction carries no debug line, although x.c:42 changed
	ret := block.Instructions[0].(*ir.RetInst)
	_ = ret

	program := &ir.Program{Functions: []*ir.Function{fn}}
	names := ChangedFunctions(p, program)
	assert.Empty(t, names) // no debug info attached, so no valid line scope
}

func TestStructurallyEqualIgnoresNames(t *testing.T) {
	i32 := &ir.IntType{Bits: 32}
	a := &ir.BinaryInst{Op: "add", Left: &ir.Value{Name: "a", Type: i32}, Right: &ir.Value{Name: "b", Type: i32}, Result: &ir.Value{Name: "r1", Type: i32}}
	b := &ir.BinaryInst{Op: "add", Left: &ir.Value{Name: "x", Type: i32}, Right: &ir.Value{Name: "y", Type: i32}, Result: &ir.Value{Name: "r2", Type: i32}}
	assert.True(t, StructurallyEqual(a, b))
}

func TestStructurallyEqualDetectsOpcodeDifference(t *testing.T) {
	i32 := &ir.IntType{Bits: 32}
	a := &ir.BinaryInst{Op: "add", Left: &ir.Value{Type: i32}, Right: &ir.Value{Type: i32}, Result: &ir.Value{Type: i32}}
	b := &ir.BinaryInst{Op: "sub", Left: &ir.Value{Type: i32}, Right: &ir.Value{Type: i32}, Result: &ir.Value{Type: i32}}
	assert.False(t, StructurallyEqual(a, b))
}

func TestStructurallyEqualPhiToleratesIncomingPermutation(t *testing.T) {
	i32 := &ir.IntType{Bits: 32}
	left, right := &ir.Value{Name: "l", Type: i32}, &ir.Value{Name: "r", Type: i32}
	bLeft, bRight := &ir.BasicBlock{Label: "left"}, &ir.BasicBlock{Label: "right"}

	a := &ir.PhiInst{
		Result: &ir.Value{Type: i32},
		Incoming: []ir.PhiEdge{
			{Block: bLeft, Value: left},
			{Block: bRight, Value: right},
		},
	}
	b := &ir.PhiInst{
		Result: &ir.Value{Type: i32},
		Incoming: []ir.PhiEdge{
			{Block: bRight, Value: right},
			{Block: bLeft, Value: left},
		},
	}
	assert.True(t, StructurallyEqual(a, b))
}

func TestStructurallyEqualPhiDetectsRealDifference(t *testing.T) {
	i32 := &ir.IntType{Bits: 32}
	left, right, other := &ir.Value{Name: "l", Type: i32}, &ir.Value{Name: "r", Type: i32}, &ir.Value{Name: "o", Type: i32}
	bLeft, bRight := &ir.BasicBlock{Label: "left"}, &ir.BasicBlock{Label: "right"}

	a := &ir.PhiInst{
		Result:   &ir.Value{Type: i32},
		Incoming: []ir.PhiEdge{{Block: bLeft, Value: left}, {Block: bRight, Value: right}},
	}
	b := &ir.PhiInst{
		Result:   &ir.Value{Type: i32},
		Incoming: []ir.PhiEdge{{Block: bLeft, Value: left}, {Block: bRight, Value: other}},
	}
	assert.False(t, StructurallyEqual(a, b))
}
