package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchspec/internal/adapter"
	"patchspec/internal/differ"
	"patchspec/internal/irtext"
	"patchspec/internal/session"
)

const beforeSrc = `
FUNC before.patch.handle void vault.c
ARG cb ptr
ARG user i32
BLOCK entry
  CALL _ *cb user @10
  RET @11
ENDFUNC
`

const afterSrc = `
FUNC after.patch.handle void vault.c
ARG cb ptr
ARG user i32
BLOCK entry
  CALL _ *cb user @10
  BINOP r sdiv user 2 @11
  RET @12
ENDFUNC
`

func buildAdapter(t *testing.T, src string) *adapter.Adapter {
	t.Helper()
	prog, err := irtext.Parse(src)
	require.NoError(t, err)
	return adapter.New(prog)
}

func TestRunDetectsAddedSensitiveOpcodeTrace(t *testing.T) {
	before := buildAdapter(t, beforeSrc)
	after := buildAdapter(t, afterSrc)

	s := session.New(before, after)
	s.MarkChanged("handle")

	results := Run(context.Background(), s)
	require.NotEmpty(t, results)

	var sawAdded bool
	for _, r := range results {
		if r.Kind == differ.Added {
			sawAdded = true
		}
	}
	assert.True(t, sawAdded, "expected the new division sink to classify as Added")
}

func TestTraceFunctionFindsIndirectCallInput(t *testing.T) {
	before := buildAdapter(t, beforeSrc)
	fn := before.FunctionByName("before.patch.handle")
	require.NotNil(t, fn)

	traces := TraceFunction(context.Background(), before, fn)
	for _, tr := range traces {
		assert.Contains(t, tr.Input.String(), "Indirect call:")
	}
}
