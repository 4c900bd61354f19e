package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/cond"
	"patchspec/internal/differ"
	"patchspec/internal/ir"
	"patchspec/internal/seg"
	"patchspec/internal/trace"
)

func mkEnhanced(fn *ir.Function, desc string, order int, tree *cond.Tree, nodes []*seg.Node) *trace.EnhancedTrace {
	return &trace.EnhancedTrace{
		Func:      fn,
		Nodes:     nodes,
		Input:     trace.InputNode{Kind: trace.InputErrorCode, Description: "cause=x"},
		Output:    trace.OutputNode{Kind: trace.OutputSensitiveAPI, Description: desc},
		Order:     order,
		Condition: tree,
	}
}

func TestFromResultsAddedIsNotBuggy(t *testing.T) {
	fn := &ir.Function{Name: "after.patch.probe", SourceFile: "driver/x.c"}
	after := mkEnhanced(fn, "sink", 1, cond.NewConst(true), nil)
	results := []differ.Result{{After: after, Kind: differ.Added}}

	single, multi := FromResults(results)
	require.Len(t, single, 1)
	assert.Empty(t, multi)
	assert.False(t, single[0].IsBuggy)
	assert.Equal(t, SrcMustReachSink, single[0].Type())
}

func TestFromResultsRemovedIsBuggy(t *testing.T) {
	fn := &ir.Function{Name: "before.patch.probe", SourceFile: "driver/x.c"}
	before := mkEnhanced(fn, "sink", 1, cond.NewConst(true), nil)
	results := []differ.Result{{Before: before, Kind: differ.Removed}}

	single, _ := FromResults(results)
	require.Len(t, single, 1)
	assert.True(t, single[0].IsBuggy)
	assert.Equal(t, SrcMustNotReachSink, single[0].Type())
}

func TestFromResultsConditionChangedEmitsPair(t *testing.T) {
	fn := &ir.Function{Name: "probe", SourceFile: "driver/x.c"}
	before := mkEnhanced(fn, "sink", 1, cond.NewConst(true), nil)
	after := mkEnhanced(fn, "sink", 1, cond.NewVar(cond.Var{Pred: "slt", Lhs: "x", Rhs: "0"}), nil)
	results := []differ.Result{{Before: before, After: after, Kind: differ.ConditionChanged}}

	single, _ := FromResults(results)
	require.Len(t, single, 2)
	assert.True(t, single[0].IsBuggy)
	assert.False(t, single[1].IsBuggy)
}

func TestFromResultsOrderChangedGroupsByInput(t *testing.T) {
	fn := &ir.Function{Name: "probe", SourceFile: "driver/x.c"}
	before := mkEnhanced(fn, "kfree", 2, cond.NewConst(true), nil)
	after := mkEnhanced(fn, "kfree", 1, cond.NewConst(true), nil)

	results := []differ.Result{{Before: before, After: after, Kind: differ.OrderChanged}}
	_, multi := FromResults(results)
	require.Len(t, multi, 1)
	assert.Len(t, multi[0].Outputs, 1)
	pair := multi[0].Orders[before.Output.String()]
	assert.Equal(t, 2, pair.Before)
	assert.Equal(t, 1, pair.After)
}

func TestFromResultsUnchangedEmitsNothing(t *testing.T) {
	fn := &ir.Function{Name: "probe"}
	tr := mkEnhanced(fn, "sink", 1, cond.NewConst(true), nil)
	results := []differ.Result{{Before: tr, After: tr, Kind: differ.Unchanged}}

	single, multi := FromResults(results)
	assert.Empty(t, single)
	assert.Empty(t, multi)
}

func TestFilterInvalidConditionDropsUnrelatedVar(t *testing.T) {
	related := &ir.Value{Name: "bad"}
	nodes := []*seg.Node{{ID: 1, Value: related}}
	tr := &trace.EnhancedTrace{Nodes: nodes}

	tree := cond.NewAnd(
		cond.NewVar(cond.Var{Pred: "ne", Lhs: "bad", Rhs: "0"}),
		cond.NewVar(cond.Var{Pred: "ne", Lhs: "unrelated", Rhs: "1"}),
	)

	filtered := FilterInvalidCondition(tree, tr)
	assert.Equal(t, "ne(bad,0)", filtered.String())
}

func TestFilterInvalidConditionKeepsFullyUnrelatedAsTrue(t *testing.T) {
	tr := &trace.EnhancedTrace{Nodes: nil}
	tree := cond.NewVar(cond.Var{Pred: "ne", Lhs: "x", Rhs: "0"})

	filtered := FilterInvalidCondition(tree, tr)
	assert.Equal(t, "true", filtered.String())
}
