package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/cond"
	"patchspec/internal/trace"
)

func TestWriteCSVThenLoadCSVRoundTripsSingleSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	single := []*SingleSrcSingleSinkSpec{{
		IndirectCall: "driver/x.c:probe",
		Input:        trace.InputNode{Kind: trace.InputErrorCode, Description: "cause=arg_0"},
		Output:       trace.OutputNode{Kind: trace.OutputReturnOfIndirectCall, Description: "driver/x.c:probe"},
		Cond:         cond.NewVar(cond.Var{Pred: "ne", Lhs: "bad", Rhs: "0"}),
		IsBuggy:      false,
	}}

	require.NoError(t, WriteCSV(path, single, nil))

	loaded, multi, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Empty(t, multi)
	require.Len(t, loaded, 1)
	assert.Equal(t, single[0].Input.String(), loaded[0].Input.String())
	assert.Equal(t, single[0].Output.String(), loaded[0].Output.String())
	assert.Equal(t, single[0].IsBuggy, loaded[0].IsBuggy)
}

func TestWriteCSVThenLoadCSVRoundTripsMultiSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	multi := []*SingleSrcMultiSinkSpec{{
		IndirectCall: "driver/x.c:probe",
		Input:        trace.InputNode{Kind: trace.InputGlobalVariable, Description: "m"},
		Outputs: []trace.OutputNode{
			{Kind: trace.OutputCustomizedAPI, Description: "mutex_unlock,0"},
			{Kind: trace.OutputCustomizedAPI, Description: "kfree,0"},
		},
		Orders: map[string]OrderPair{
			"Used in customized API:mutex_unlock,0": {Before: 1, After: 2},
			"Used in customized API:kfree,0":        {Before: 2, After: 1},
		},
	}}

	require.NoError(t, WriteCSV(path, nil, multi))

	single, loaded, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Empty(t, single)
	require.Len(t, loaded, 1)
	assert.Len(t, loaded[0].Outputs, 2)
	assert.Equal(t, OrderPair{Before: 1, After: 2}, loaded[0].Orders["Used in customized API:mutex_unlock,0"])
}

func TestLoadCSVSkipsMalformedSpecType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	content := "Spec Type,Indirect Call,Spec Input,Spec Output,Spec Cond SMT,Spec Orders\n" +
		"Bogus Type,driver/x.c:probe,Error code:x,Return of indirect call:y,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	single, multi, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Empty(t, single)
	assert.Empty(t, multi)
}
