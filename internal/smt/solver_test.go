package smt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrInsertExprMemoises(t *testing.T) {
	s := New()
	a1 := s.EncodeCompare("slt", "x", "0")
	a2 := s.EncodeCompare("slt", "x", "0")
	assert.Equal(t, a1, a2)
}

func TestCheckSatisfiable(t *testing.T) {
	s := New()
	a := s.EncodeCompare("slt", "x", "0")
	s.Add(Positive(a))

	res, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sat, res)
}

func TestCheckUnsatisfiable(t *testing.T) {
	s := New()
	a := s.EncodeCompare("slt", "x", "0")
	s.Add(Positive(a))
	s.Add(Negative(a))

	res, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unsat, res)
}

func TestPushPopRestoresScope(t *testing.T) {
	s := New()
	a := s.EncodeCompare("slt", "x", "0")
	s.Add(Positive(a))

	s.Push()
	s.Add(Negative(a))
	res, _ := s.Check(context.Background())
	assert.Equal(t, Unsat, res)

	s.Pop()
	res, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sat, res)
}

func TestCheckRespectsContextCancellation(t *testing.T) {
	s := New()
	for i := 0; i < 20; i++ {
		a := s.NewAtom("v")
		b := s.NewAtom("v")
		s.Add(Positive(a), Positive(b))
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	res, err := s.Check(ctx)
	assert.Error(t, err)
	assert.Equal(t, Unknown, res)
}

func TestToSMT2RoundTrip(t *testing.T) {
	s := New()
	a := s.EncodeCompare("slt", "x", "0")
	b := s.EncodeCompare("sgt", "x", "10")
	s.Add(Positive(a), Negative(b))

	rendered := s.ToSMT2()
	assert.True(t, strings.Contains(rendered, "declare-const"))
	assert.True(t, strings.Contains(rendered, "check-sat"))

	parsed, err := Parse(strings.NewReader(rendered))
	require.NoError(t, err)
	res, err := parsed.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sat, res)
}
