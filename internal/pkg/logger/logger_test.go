package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in    string
		level zapcore.Level
		ok    bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"INFO", zapcore.InfoLevel, true},
		{"", zapcore.InfoLevel, true},
		{"warning", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			level, ok := ParseLevel(tc.in)
			assert.Equal(t, tc.level, level)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestNewBuildsLogger(t *testing.T) {
	zl, err := New("debug")
	require.NoError(t, err)
	assert.True(t, zl.Core().Enabled(zapcore.DebugLevel))

	zl, err = New("warn")
	require.NoError(t, err)
	assert.False(t, zl.Core().Enabled(zapcore.InfoLevel))
}

func TestZapAdapterWritesKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.Info("chain scanned", "chain", "ethereum", "positions", 3)
	log.Warn("read failed", "token", "USDC")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "chain scanned", entries[0].Message)
	assert.Equal(t, "ethereum", entries[0].ContextMap()["chain"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["positions"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNewZapAdapterNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewZapAdapter(nil).Error("ignored")
	})
}
