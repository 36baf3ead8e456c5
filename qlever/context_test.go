package qlever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ad-freiburg/qlever-engine/memlimit"
)

func TestNewContextDefaults(t *testing.T) {
	ctx := NewContext(context.Background(), nil, nil, memlimit.Unlimited())
	require.NotNil(t, ctx.Log())
	require.NoError(t, ctx.ThrowIfCancelled())
	require.NotNil(t, ctx.GoContext())
}

func TestSpanFinishIsSafeOnZeroValue(t *testing.T) {
	var s Span
	s.Finish() // must not panic
}

func TestSpanReturnsDerivedContextSharingState(t *testing.T) {
	ctx := NewContext(context.Background(), nil, nil, memlimit.Unlimited())
	span, derived := ctx.Span("test.op")
	defer span.Finish()

	require.Same(t, ctx.Cancel, derived.Cancel)
	require.Same(t, ctx.Memory, derived.Memory)

	ctx.Cancel.Cancel("stop")
	require.Error(t, derived.ThrowIfCancelled())
}
