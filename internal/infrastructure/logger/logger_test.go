package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, "json")
			require.NotNil(t, l)
			assert.Equal(t, tt.expected == zapcore.DebugLevel, l.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.expected <= zapcore.InfoLevel, l.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	l := New("info", "console")
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNewForEnvironment(t *testing.T) {
	prod := NewForEnvironment("production")
	require.NotNil(t, prod)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev := NewForEnvironment("development")
	require.NotNil(t, dev)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}
