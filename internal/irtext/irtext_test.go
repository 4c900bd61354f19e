package irtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/ir"
)

const sampleFunc = `
FUNC before.patch.withdraw i32 vault.c
ARG amount i32
ARG ok i1
BLOCK entry
  ALLOCA slot i32 @10
  STORE amount slot @11
  ICMP cond sgt amount 0 @12
  BR cond taken skipped @12
BLOCK taken
  LOAD v slot @14
  CALL _ transfer v @15
  RET amount @16
BLOCK skipped
  UNREACHABLE @18
ENDFUNC
`

func parseSample(t *testing.T, src string) *programAST {
	t.Helper()
	ast, err := astParser.ParseString("", src)
	require.NoError(t, err)
	return ast
}

func TestParseSampleProducesOneFunction(t *testing.T) {
	ast := parseSample(t, sampleFunc)
	require.Len(t, ast.Funcs, 1)
	fn := ast.Funcs[0]
	assert.Equal(t, "before.patch.withdraw", fn.Name)
	assert.Len(t, fn.Args, 2)
	assert.Len(t, fn.Blocks, 3)
}

func TestBuildLowersFunctionSkeleton(t *testing.T) {
	ast := parseSample(t, sampleFunc)
	prog, err := Build(ast)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)

	fn := prog.Functions[0]
	assert.Equal(t, ir.PrefixBefore, fn.Prefix)
	assert.Equal(t, "withdraw", fn.CleanName())
	assert.Equal(t, "vault.c", fn.SourceFile)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "amount", fn.Params[0].Name)
	assert.Len(t, fn.Blocks, 3)
}

func TestBuildLinksBlockSuccessorsFromBr(t *testing.T) {
	ast := parseSample(t, sampleFunc)
	prog, err := Build(ast)
	require.NoError(t, err)

	entry := prog.Functions[0].Blocks[0]
	taken := prog.Functions[0].Blocks[1]
	skipped := prog.Functions[0].Blocks[2]

	require.Len(t, entry.Successors, 2)
	assert.Contains(t, entry.Successors, taken)
	assert.Contains(t, entry.Successors, skipped)
	assert.Contains(t, taken.Predecessors, entry)
	assert.Contains(t, skipped.Predecessors, entry)
}

func TestBuildResolvesOperandsAcrossInstructions(t *testing.T) {
	ast := parseSample(t, sampleFunc)
	prog, err := Build(ast)
	require.NoError(t, err)

	entry := prog.Functions[0].Blocks[0]
	alloca := entry.Instructions[0].(*ir.AllocaInst)
	store := entry.Instructions[1].(*ir.StoreInst)

	assert.Same(t, alloca.Result, store.Address)

	taken := prog.Functions[0].Blocks[1]
	load := taken.Instructions[0].(*ir.LoadInst)
	assert.Same(t, alloca.Result, load.Address)

	ret := taken.Terminator.(*ir.RetInst)
	amount := prog.Functions[0].Params[0].Value()
	assert.Same(t, amount, ret.Value)
}

func TestBuildTreatsNumericOperandAsConstant(t *testing.T) {
	ast := parseSample(t, sampleFunc)
	prog, err := Build(ast)
	require.NoError(t, err)

	entry := prog.Functions[0].Blocks[0]
	icmp := entry.Instructions[2].(*ir.ICmpInst)
	require.NotNil(t, icmp.Right.Constant)
	assert.Equal(t, 0, icmp.Right.Constant.Value)
}

func TestBuildUnreachableBlockHasNoSuccessors(t *testing.T) {
	ast := parseSample(t, sampleFunc)
	prog, err := Build(ast)
	require.NoError(t, err)

	skipped := prog.Functions[0].Blocks[2]
	assert.Empty(t, skipped.Successors)
	_, ok := skipped.Terminator.(*ir.UnreachableInst)
	assert.True(t, ok)
}
