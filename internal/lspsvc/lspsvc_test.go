package lspsvc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"patchspec/internal/differ"
)

const irFixture = `
FUNC before.patch.withdraw void vault.c
ARG cb ptr
ARG amount i32
BLOCK entry
  CALL _ *cb amount @10
  RET @11
ENDFUNC
FUNC after.patch.withdraw void vault.c
ARG cb ptr
ARG amount i32
BLOCK entry
  CALL _ *cb amount @10
  BINOP r sdiv amount 2 @11
  RET @12
ENDFUNC
`

const patchFixture = "+vault.c:11\n"

func writePair(t *testing.T, dir, base string) (irPath, patchPath string) {
	t.Helper()
	irPath = filepath.Join(dir, base+irSuffix)
	patchPath = filepath.Join(dir, base+patchSuffix)
	require.NoError(t, os.WriteFile(irPath, []byte(irFixture), 0o644))
	require.NoError(t, os.WriteFile(patchPath, []byte(patchFixture), 0o644))
	return
}

func TestPairOfStripsKnownSuffixes(t *testing.T) {
	dir, base, ok := pairOf("/ws/vault.ir")
	require.True(t, ok)
	assert.Equal(t, "/ws", dir)
	assert.Equal(t, "vault", base)

	dir, base, ok = pairOf("/ws/vault.patch.diff")
	require.True(t, ok)
	assert.Equal(t, "/ws", dir)
	assert.Equal(t, "vault", base)

	_, _, ok = pairOf("/ws/vault.txt")
	assert.False(t, ok)
}

func TestRunPipelineFindsAddedSensitiveOpcode(t *testing.T) {
	dir := t.TempDir()
	irPath, patchPath := writePair(t, dir, "vault")

	results, err := runPipeline(irPath, patchPath)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var sawAdded bool
	for _, r := range results {
		if r.Kind == differ.Added {
			sawAdded = true
		}
	}
	assert.True(t, sawAdded)
}

func TestRunPipelineRejectsEmptyPatch(t *testing.T) {
	dir := t.TempDir()
	irPath, patchPath := writePair(t, dir, "vault")
	require.NoError(t, os.WriteFile(patchPath, []byte(""), 0o644))

	_, err := runPipeline(irPath, patchPath)
	assert.Error(t, err)
}

func TestDiagnosticsForMapsSeverityByClassification(t *testing.T) {
	dir := t.TempDir()
	irPath, patchPath := writePair(t, dir, "vault")

	results, err := runPipeline(irPath, patchPath)
	require.NoError(t, err)

	var wantSeverities []protocol.DiagnosticSeverity
	for _, r := range results {
		if _, ok := diagnosticLine(r); ok {
			wantSeverities = append(wantSeverities, severityFor(r.Kind))
		}
	}

	diags := diagnosticsFor(results)
	require.Len(t, diags, len(wantSeverities))
	for i, want := range wantSeverities {
		assert.Equal(t, want, *diags[i].Severity)
	}
}
