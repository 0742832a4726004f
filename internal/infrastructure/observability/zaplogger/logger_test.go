package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core), observability.F("service", "order-service"))

	log.With(observability.F("use_case", "order.place")).Info("use_case_done",
		observability.F("outcome", "success"),
		observability.F("error", errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "use_case_done", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "order-service", ctx["service"])
	assert.Equal(t, "order.place", ctx["use_case"])
	assert.Equal(t, "success", ctx["outcome"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := New(zap.New(core))

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")

	assert.Equal(t, 2, logs.Len())
}
