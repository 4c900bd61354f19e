package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/adapter"
	"patchspec/internal/ir"
	"patchspec/internal/irtext"
	"patchspec/internal/seg"
)

func TestTrimReturnsSubsequence(t *testing.T) {
	nodes := []*seg.Node{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	got, ok := trim(nodes, nodes[1], nodes[2])
	assert.True(t, ok)
	assert.Equal(t, nodes[1:3], got)
}

func TestTrimMissingInputFails(t *testing.T) {
	nodes := []*seg.Node{{ID: 1}, {ID: 2}}
	_, ok := trim(nodes, &seg.Node{ID: 99}, nodes[1])
	assert.False(t, ok)
}

func TestInputNodeStringHasPrefix(t *testing.T) {
	n := InputNode{Kind: InputErrorCode, Description: "cause=arg_0"}
	assert.Equal(t, "Error code:cause=arg_0", n.String())
}

func TestOutputNodeStringHasPrefix(t *testing.T) {
	n := OutputNode{Kind: OutputSensitiveAPI, Description: "probe"}
	assert.Equal(t, "Used in sensitive API:probe", n.String())
}

func TestAssignOutputOrderIncreasesAlongReach(t *testing.T) {
	a := &EnhancedTrace{Input: InputNode{Description: "x"}, Output: OutputNode{Description: "a"}}
	b := &EnhancedTrace{Input: InputNode{Description: "x"}, Output: OutputNode{Description: "b"}}
	reach := func(x, y *EnhancedTrace) bool { return x == a && y == b }

	AssignOutputOrder([]*EnhancedTrace{a, b}, reach)
	assert.Less(t, a.Order, b.Order)
}

func TestAssignOutputOrderSharesPriorityWhenUnrelated(t *testing.T) {
	a := &EnhancedTrace{Input: InputNode{Description: "x"}, Output: OutputNode{Description: "a"}}
	b := &EnhancedTrace{Input: InputNode{Description: "x"}, Output: OutputNode{Description: "b"}}
	reach := func(x, y *EnhancedTrace) bool { return false }

	AssignOutputOrder([]*EnhancedTrace{a, b}, reach)
	assert.Equal(t, a.Order, b.Order)
}

func TestBuildConditionOrsPathsAcrossRelatedBlocks(t *testing.T) {
	src := `
FUNC probe void vault.c
ARG x i32
BLOCK entry
  ICMP c1 slt x 0 @1
  BR c1 left right @2
BLOCK left
  RET x @3
BLOCK right
  RET x @4
ENDFUNC
`
	prog, err := irtext.Parse(src)
	require.NoError(t, err)
	fn := prog.Functions[0]
	a := adapter.New(prog)

	var left, right *ir.BasicBlock
	for _, b := range fn.Blocks {
		switch b.Label {
		case "left":
			left = b
		case "right":
			right = b
		}
	}
	require.NotNil(t, left)
	require.NotNil(t, right)

	tree := buildCondition(context.Background(), a, fn, []*ir.BasicBlock{left, right})
	s := tree.String()
	assert.Contains(t, s, "slt(x,0)")
	assert.Contains(t, s, "||")
}

func TestBuildConditionSingleBlockHasNoDisjunction(t *testing.T) {
	src := `
FUNC probe void vault.c
ARG x i32
BLOCK entry
  RET x @1
ENDFUNC
`
	prog, err := irtext.Parse(src)
	require.NoError(t, err)
	fn := prog.Functions[0]
	a := adapter.New(prog)

	tree := buildCondition(context.Background(), a, fn, []*ir.BasicBlock{fn.Blocks[0]})
	assert.Equal(t, "true", tree.String())
}
