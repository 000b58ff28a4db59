package jwtmiddleware

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("debug message", "kind", "TokenExpired")
	assert.Equal(t, 0, recorded.Len(), "Debug message should not be recorded at Info level")

	logger.Info("info message", "kind", "TokenExpired")
	logger.Warn("warn message", "kind", "TokenExpired")
	logger.Error("error message", "kind", "TokenExpired")
	require.Equal(t, 3, recorded.Len())

	for i, entry := range recorded.All() {
		assert.Equal(t, []string{"info message", "warn message", "error message"}[i], entry.Message)
		assert.Equal(t, "TokenExpired", entry.ContextMap()["kind"])
	}
	assert.Equal(t, zapcore.WarnLevel, recorded.All()[1].Level)
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Debug("debug message", "kid", "k1")
	logger.Info("info message", "kid", "k1")
	logger.Warn("warn message", "kid", "k1")
	logger.Error("error message", "kid", "k1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	for i, want := range []struct{ level, msg string }{
		{"debug", "debug message"},
		{"info", "info message"},
		{"warn", "warn message"},
		{"error", "error message"},
	} {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[i]), &entry))
		assert.Equal(t, want.level, entry["level"])
		assert.Equal(t, want.msg, entry["message"])
		assert.Equal(t, "k1", entry["kid"])
	}
}

func TestLogrusLogger(t *testing.T) {
	logrusLogger, hook := test.NewNullLogger()
	logrusLogger.SetLevel(logrus.InfoLevel)

	logger := NewLogrusLogger(logrusLogger)

	logger.Debug("debug message")
	assert.Empty(t, hook.AllEntries(), "Debug message should not be recorded at Info level")

	logger.Warn("warn message", "path", "/api/me", "status", 401)
	require.Len(t, hook.AllEntries(), 1)

	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "warn message", entry.Message)
	assert.Equal(t, logrus.Fields{"path": "/api/me", "status": 401}, entry.Data)

	logger.Error("error message")
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func Test_fields(t *testing.T) {
	testCases := []struct {
		name string
		args []any
		want logrus.Fields
	}{
		{
			name: "no args",
			want: logrus.Fields{},
		},
		{
			name: "pairs",
			args: []any{"kid", "k1", "fetches", 2},
			want: logrus.Fields{"kid": "k1", "fetches": 2},
		},
		{
			name: "non string key",
			args: []any{42, "answer"},
			want: logrus.Fields{"42": "answer"},
		},
		{
			name: "dangling key",
			args: []any{"kid", "k1", "orphan"},
			want: logrus.Fields{"kid": "k1", "!BADKEY": "orphan"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, fields(testCase.args))
		})
	}
}
