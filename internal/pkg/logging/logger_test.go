package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_FileAndLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	logger, err := NewLogger("storefront", "test", Options{Level: "warn", File: path})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger("storefront", "test", Options{Level: "loud"})
	require.Error(t, err)
}

func TestWithTrace_NilLoggerFallsBack(t *testing.T) {
	assert.NotPanics(t, func() {
		WithTrace(nil, "", "").Info("system_event")
	})
}
