package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var log Logger = &ZapLogger{sugar: zap.New(core).Sugar()}

	log.Debug("hidden")
	log.Warn("Store write failed", "operation", "reorder", "changed", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Store write failed", entries[0].Message)
	assert.Equal(t, map[string]any{"operation": "reorder", "changed": int64(3)}, entries[0].ContextMap())
}

func TestNewLoggerLevels(t *testing.T) {
	assert.True(t, NewLogger(true).sugar.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.False(t, NewLogger(false).sugar.Desugar().Core().Enabled(zapcore.DebugLevel))
}
