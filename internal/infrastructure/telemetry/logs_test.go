package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{ServiceName: "cineman-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(context.Background()))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "cineman-test"})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	core = NewZapOTELCore(ZapBridgeConfig{LoggerProvider: lp})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	log := zap.New(core).With(zap.String("component", "consumption"))
	log.Info("dropped")
	log.Warn("negative stock", zap.String("item", "Aceite"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "negative stock", entry.Message)
	assert.Equal(t, "consumption", entry.ContextMap()["component"])
}
