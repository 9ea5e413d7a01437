package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_ReturnsEmbeddedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Info("hello from test.")

	assert.Same(t, logger, FromContext(ctx))
	assert.Contains(t, buf.String(), "hello from test.")
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestLookup(t *testing.T) {
	_, ok := Lookup(context.Background())
	assert.False(t, ok)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	got, ok := Lookup(WithLogger(context.Background(), logger))
	assert.True(t, ok)
	assert.Same(t, logger, got)
}
