package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Init(Config{Level: level, Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), "log line: %s", buf.String())
	return m
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, parseLevel("disabled"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "warn")
	Info().Msg("hidden")
	assert.Empty(t, buf.String())

	Warn().Msg("shown")
	assert.Equal(t, "shown", decodeLine(t, buf)["message"])
}

func TestCtxCarriesIDs(t *testing.T) {
	buf := capture(t, "info")

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = withCorrelationID(ctx, "corr-1")
	ctx = ContextWithUserID(ctx, "user-1")
	Ctx(ctx).Info().Msg("hello")

	line := decodeLine(t, buf)
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "corr-1", line["correlation_id"])
	assert.Equal(t, "user-1", line["user_id"])
}

func TestEnsureCorrelationID(t *testing.T) {
	ctx := EnsureCorrelationID(context.Background())
	id := correlationIDFrom(ctx)
	assert.Len(t, id, 8)
	assert.Equal(t, id, correlationIDFrom(EnsureCorrelationID(ctx)))
}

func TestSlogBridge(t *testing.T) {
	buf := capture(t, "debug")

	logger := NewSlogLogger("watermill").WithGroup("msg").With("topic", "reviews")
	logger.Error("handler failed", slog.Int("attempt", 2), slog.Any("err", errors.New("boom")))

	line := decodeLine(t, buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "watermill", line["component"])
	assert.Equal(t, "reviews", line["msg.topic"])
	assert.EqualValues(t, 2, line["msg.attempt"])
	assert.Equal(t, "boom", line["msg.err"])
}

func TestSlogBridgeRespectsLevel(t *testing.T) {
	buf := capture(t, "error")
	h := NewSlogHandler(current())
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	slog.New(h).Info("dropped")
	assert.Empty(t, buf.String())
}
