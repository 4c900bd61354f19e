package checker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/spec"
	"patchspec/internal/trace"
)

func sampleSpec() *spec.SingleSrcSingleSinkSpec {
	return &spec.SingleSrcSingleSinkSpec{
		IndirectCall: "vault.c:withdraw",
		Input:        trace.InputNode{Kind: trace.InputIndirectCall, Description: "withdraw:cb"},
		Output:       trace.OutputNode{Kind: trace.OutputSensitiveOpcode, Description: "withdraw:11"},
		IsBuggy:      true,
	}
}

func TestMatchesSourceAndSinkByDescription(t *testing.T) {
	m := NewManager([]*spec.SingleSrcSingleSinkSpec{sampleSpec()}, nil, nil, false)

	in := trace.InputNode{Kind: trace.InputIndirectCall, Description: "withdraw:cb"}
	hits := m.MatchesSource("vault.c:withdraw", in)
	assert.Len(t, hits, 1)

	out := trace.OutputNode{Kind: trace.OutputSensitiveOpcode, Description: "withdraw:11"}
	assert.Len(t, m.MatchesSink("vault.c:withdraw", out), 1)

	other := trace.OutputNode{Kind: trace.OutputSensitiveOpcode, Description: "deposit:3"}
	assert.Empty(t, m.MatchesSink("vault.c:withdraw", other))
}

func TestFastModeRestrictsToPeerGroup(t *testing.T) {
	path := writePeerFile(t, "vault.c:withdraw vault.c:deposit")
	peers, err := spec.LoadPeerFile(path)
	require.NoError(t, err)

	m := NewManager([]*spec.SingleSrcSingleSinkSpec{sampleSpec()}, nil, peers, true)
	in := trace.InputNode{Kind: trace.InputIndirectCall, Description: "withdraw:cb"}

	assert.Empty(t, m.MatchesSource("unrelated.c:transfer", in), "fast mode must reject a call outside the checker's own indirect call or peer group")
	assert.Len(t, m.MatchesSource("vault.c:withdraw", in), 1)
	assert.Len(t, m.MatchesSource("vault.c:deposit", in), 1, "peer group widening should let a sibling dispatch slot match too")
}

func TestFastModeRejectsEverythingWithoutACallName(t *testing.T) {
	m := NewManager([]*spec.SingleSrcSingleSinkSpec{sampleSpec()}, nil, nil, true)
	in := trace.InputNode{Kind: trace.InputIndirectCall, Description: "withdraw:cb"}
	assert.Empty(t, m.MatchesSource("", in))
}

func TestLenCountsBothSpecKinds(t *testing.T) {
	m := NewManager([]*spec.SingleSrcSingleSinkSpec{sampleSpec()}, []*spec.SingleSrcMultiSinkSpec{{}}, nil, false)
	assert.Equal(t, 2, m.Len())
}

func writePeerFile(t *testing.T, line string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "peers.txt")
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))
	return path
}
