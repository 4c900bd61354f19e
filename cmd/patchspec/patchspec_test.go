package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const callGraphFixture = `
FUNC dispatch_read i32 vault.c
ARG x i32
BLOCK entry
  RET x @1
ENDFUNC

FUNC helper void vault.c
ARG x i32
BLOCK entry
  CALL _ *dispatch_read x @5
  RET @6
ENDFUNC

FUNC main void vault.c
ARG x i32
BLOCK entry
  CALL _ helper x @10
  RET @11
ENDFUNC
`

const pairIRFixture = `
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

const pairPatchFixture = "+vault.c:11\n"

// captureStdout runs fn with os.Stdout redirected to a pipe and
// returns everything it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDumpIndirectCallPrintsAddressTakenFunction(t *testing.T) {
	dir := t.TempDir()
	dumpIR = writeFixture(t, dir, "vault.ir", callGraphFixture)

	out := captureStdout(t, func() {
		require.NoError(t, dumpIndirectCallCmd.RunE(dumpIndirectCallCmd, nil))
	})

	assert.Contains(t, out, "Indirect Call: vault.c:dispatch_read;")
	assert.NotContains(t, out, "Indirect Call: vault.c:helper;")
	assert.NotContains(t, out, "Indirect Call: vault.c:main;")
}

func TestDumpCallGraphEmitsOnlyDirectEdges(t *testing.T) {
	dir := t.TempDir()
	dumpIR = writeFixture(t, dir, "vault.ir", callGraphFixture)

	out := captureStdout(t, func() {
		require.NoError(t, dumpCallGraphCmd.RunE(dumpCallGraphCmd, nil))
	})

	assert.Contains(t, out, `"vault.c:main" -> "vault.c:helper";`)
	assert.NotContains(t, out, "helper\" -> \"vault.c:dispatch_read")
}

func TestInferPatchSpecWritesCSV(t *testing.T) {
	dir := t.TempDir()
	inferIR = writeFixture(t, dir, "vault.ir", pairIRFixture)
	inferPatch = writeFixture(t, dir, "vault.patch.diff", pairPatchFixture)
	inferOutput = filepath.Join(dir, "out.csv")
	inferFastMode = false

	out := captureStdout(t, func() {
		require.NoError(t, inferPatchSpecCmd.RunE(inferPatchSpecCmd, nil))
	})
	assert.Contains(t, out, "wrote")

	csvBytes, err := os.ReadFile(inferOutput)
	require.NoError(t, err)
	assert.Contains(t, string(csvBytes), "Spec Type,Indirect Call,Spec Input,Spec Output,Spec Cond SMT,Spec Orders")
}

func TestInferPatchSpecRejectsEmptyPatch(t *testing.T) {
	dir := t.TempDir()
	inferIR = writeFixture(t, dir, "vault.ir", pairIRFixture)
	inferPatch = writeFixture(t, dir, "vault.patch.diff", "")
	inferOutput = filepath.Join(dir, "out.csv")
	inferFastMode = false

	err := inferPatchSpecCmd.RunE(inferPatchSpecCmd, nil)
	assert.Error(t, err)
}

func TestDetectPatchBugRegistersCheckers(t *testing.T) {
	dir := t.TempDir()
	inferIR = writeFixture(t, dir, "vault.ir", pairIRFixture)
	inferPatch = writeFixture(t, dir, "vault.patch.diff", pairPatchFixture)
	inferOutput = filepath.Join(dir, "out.csv")
	inferFastMode = false
	require.NoError(t, inferPatchSpecCmd.RunE(inferPatchSpecCmd, nil))

	detectSpecs = inferOutput
	detectPeer = ""
	detectFastMode = false

	out := captureStdout(t, func() {
		require.NoError(t, detectPatchBugCmd.RunE(detectPatchBugCmd, nil))
	})
	assert.Contains(t, out, "registered")
}
