package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithWorkspace(ctx, "ws-1")
	WithRequestID(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "ws-1", fields["workspace_id"])
}

func TestWithRequestID_NoValues(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, WithRequestID(context.Background(), base))
	assert.Empty(t, WorkspaceFromContext(context.Background()))
}

func TestNew_FallsBackOnBadLevel(t *testing.T) {
	log, err := New(Config{Level: "chatty", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
