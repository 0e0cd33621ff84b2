package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestSplitOutputs(t *testing.T) {
	assert.Nil(t, splitOutputs(""))
	assert.Equal(t, []string{"stdout"}, splitOutputs("stdout"))
	assert.Equal(t, []string{"stdout", "/tmp/bot.log"}, splitOutputs(" stdout , /tmp/bot.log ,"))
}

func TestNewStructured_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	log := NewStructured("debug", "json", path)

	log.WithFields(map[string]interface{}{"session": "abc"}).
		WithError(errors.New("boom")).
		Info("turn processed", map[string]interface{}{"intent": "greet"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session":"abc"`)
	assert.Contains(t, string(data), `"intent":"greet"`)
	assert.Contains(t, string(data), `"error":"boom"`)
}

func TestNoOpAndTestLoggers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoOpLogger().Warn("ignored", nil)
		NewTestLogger(t).Debug("visible in -v", map[string]interface{}{"k": 1})
	})
}
