package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCreateLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "displayctl.log")
	logger := CreateLogger(path, zapcore.InfoLevel)

	logger.Debugw("hidden", "bus", 3)
	logger.Infow("set brightness", "display", "backlight")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"set brightness"`)
	assert.Contains(t, string(data), `"display":"backlight"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestCreateLoggerStderrOnly(t *testing.T) {
	logger := CreateLogger("", zapcore.ErrorLevel)
	assert.False(t, logger.Desugar().Core().Enabled(zapcore.WarnLevel))
	assert.True(t, logger.Desugar().Core().Enabled(zapcore.ErrorLevel))
}
