// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/triage-cli/internal/config"
)

// initCaptured initializes the global logger against a buffer. The
// logger is a global singleton, so every test resets it first.
func initCaptured(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("Console Format Colorizes Levels", func(t *testing.T) {
		buf := initCaptured(t, config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "triage-test"})

		GetLogger().Info("hello from the console")
		out := buf.String()
		assert.Contains(t, out, "hello from the console")
		assert.Contains(t, out, "triage-test")
		// Info renders green.
		assert.Contains(t, out, colorGreen+"INFO"+colorReset)
	})

	t.Run("JSON Format Emits Valid JSON", func(t *testing.T) {
		buf := initCaptured(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "triage-test"})

		GetLogger().Info("structured entry", zap.Int("issue", 42))

		line := strings.TrimSpace(buf.String())
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "structured entry", entry["msg"])
		assert.Equal(t, float64(42), entry["issue"])
	})

	t.Run("Level Filtering", func(t *testing.T) {
		buf := initCaptured(t, config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "triage-test"})

		GetLogger().Info("dropped")
		GetLogger().Warn("kept")
		out := buf.String()
		assert.NotContains(t, out, "dropped")
		assert.Contains(t, out, "kept")
	})

	t.Run("Invalid Level Falls Back To Info", func(t *testing.T) {
		buf := initCaptured(t, config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "triage-test"})

		GetLogger().Debug("too fine")
		GetLogger().Info("visible")
		out := buf.String()
		assert.NotContains(t, out, "too fine")
		assert.Contains(t, out, "visible")
	})

	t.Run("Second Initialize Is A No-Op", func(t *testing.T) {
		buf := initCaptured(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})

		var second bytes.Buffer
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, zapcore.AddSync(&second))

		GetLogger().Info("still the first logger")
		assert.Contains(t, buf.String(), "still the first logger")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	// Must be safe to call, returning a usable no-op logger.
	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("goes nowhere")
}
