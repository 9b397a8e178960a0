package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		production bool
		enabled    zapcore.Level
		disabled   zapcore.Level
	}{
		{"development debug", "debug", false, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"production info", "info", true, zapcore.InfoLevel, zapcore.DebugLevel},
		{"upper case warn", " WARN ", false, zapcore.WarnLevel, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.production)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.enabled))
			assert.False(t, log.Core().Enabled(tt.disabled))
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", false)
	assert.Error(t, err)
}

func TestInitReplacesGlobals(t *testing.T) {
	log, undo, err := Init("error", false)
	require.NoError(t, err)
	defer undo()

	assert.Same(t, log, zap.L())
	assert.False(t, zap.L().Core().Enabled(zapcore.InfoLevel))
}
