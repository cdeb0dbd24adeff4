package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "unknown", Level(99).String())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)

	l.Info("test message", "key1", "value1", "key2", 42, "err", errors.New("boom"), "dangling")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "value1", entry["key1"])
	assert.Equal(t, float64(42), entry["key2"])
	assert.Equal(t, "boom", entry["err"])
	assert.Contains(t, entry, "time")
	assert.NotContains(t, entry, "dangling")
}

func TestLoggerText(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "debug", Format: "text"}, &buf)

	l.Info("test message", "key1", "value1")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "test message")
	assert.Contains(t, out, "key1=value1")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "warn", Format: "text"}, &buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoggerWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Format: "json"}, &buf)

	l.WithRequestID("req-123").Info("test message")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Format: "json"}, &buf)

	child := l.WithFields("client", "192.168.1.100", "tls", true)
	child.Info("test message", "op", "search")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "192.168.1.100", entry["client"])
	assert.Equal(t, true, entry["tls"])
	assert.Equal(t, "search", entry["op"])

	buf.Reset()
	l.Info("parent")
	entry = decodeLine(t, &buf)
	assert.NotContains(t, entry, "client")
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x", "k", "v")
		l.Warn("x")
		l.Error("x")
		l.WithRequestID("id").WithFields("a", 1).Info("x")
		_ = l.Close()
	})
}

func TestNewFileOutput(t *testing.T) {
	path := t.TempDir() + "/aci.log"
	l := New(Config{Level: "info", Format: "json", Output: path})
	l.Info("written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written"`)

	require.NoError(t, l.WithRequestID("r1").Close())
	assert.ErrorIs(t, l.Close(), os.ErrClosed)
}

func TestCloseLeavesStandardStreams(t *testing.T) {
	assert.NoError(t, New(Config{Output: "stderr"}).Close())
	assert.NoError(t, NewWithWriter(Config{}, &bytes.Buffer{}).Close())
	assert.NoError(t, NewNop().Close())

	_, err := os.Stderr.Stat()
	assert.NoError(t, err)
}
