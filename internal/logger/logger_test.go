package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNew_DefaultsToInfo(t *testing.T) {
	lvl, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)
}

func TestZapLogger_WritesEventAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.WarnObj("publish failed", "notify_error", map[string]any{
		"id":    "abc",
		"error": errors.New("boom"),
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "publish failed", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "notify_error", ctx["event"])
	assert.Equal(t, "abc", ctx["id"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestEnsure(t *testing.T) {
	assert.IsType(t, NopLogger{}, Ensure(nil))
	assert.IsType(t, NopLogger{}, FromZap(nil))
}
