package differ

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/cond"
	"patchspec/internal/trace"
)

func mkTrace(desc string, order int, tree *cond.Tree) *trace.EnhancedTrace {
	return &trace.EnhancedTrace{
		Input:     trace.InputNode{Description: "x"},
		Output:    trace.OutputNode{Description: desc},
		Order:     order,
		Condition: tree,
	}
}

func TestClassifyUnchanged(t *testing.T) {
	c := cond.NewConst(true)
	before := []*trace.EnhancedTrace{mkTrace("sink", 1, c)}
	after := []*trace.EnhancedTrace{mkTrace("sink", 1, c)}

	results := Classify(context.Background(), before, after)
	require.Len(t, results, 1)
	assert.Equal(t, Unchanged, results[0].Kind)
}

func TestClassifyConditionChanged(t *testing.T) {
	before := []*trace.EnhancedTrace{mkTrace("sink", 1, cond.NewConst(true))}
	after := []*trace.EnhancedTrace{mkTrace("sink", 1, cond.NewVar(cond.Var{Pred: "slt", Lhs: "x", Rhs: "0"}))}

	results := Classify(context.Background(), before, after)
	require.Len(t, results, 1)
	assert.Equal(t, ConditionChanged, results[0].Kind)
}

func TestClassifyRemoved(t *testing.T) {
	before := []*trace.EnhancedTrace{mkTrace("sink", 1, cond.NewConst(true))}
	results := Classify(context.Background(), before, nil)
	require.Len(t, results, 1)
	assert.Equal(t, Removed, results[0].Kind)
}

func TestClassifyAdded(t *testing.T) {
	after := []*trace.EnhancedTrace{mkTrace("sink", 1, cond.NewConst(true))}
	results := Classify(context.Background(), nil, after)
	require.Len(t, results, 1)
	assert.Equal(t, Added, results[0].Kind)
}

func TestClassifyOrderChanged(t *testing.T) {
	before := []*trace.EnhancedTrace{mkTrace("sink", 1, cond.NewConst(true))}
	after := []*trace.EnhancedTrace{mkTrace("sink", 2, cond.NewConst(true))}
	results := Classify(context.Background(), before, after)
	require.Len(t, results, 1)
	assert.Equal(t, OrderChanged, results[0].Kind)
}
