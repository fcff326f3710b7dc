package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	userIDKey        contextKey = "user_id"
)

// newCorrelationID returns a short id for tying together the log lines of
// one pipeline run.
func newCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a fresh id for an inbound request.
func GenerateRequestID() string {
	return uuid.New().String()
}

// withCorrelationID attaches a correlation id to ctx.
func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// EnsureCorrelationID keeps an existing correlation id or adds a new one.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if correlationIDFrom(ctx) != "" {
		return ctx
	}
	return withCorrelationID(ctx, newCorrelationID())
}

func correlationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// ContextWithRequestID attaches a request id to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithUserID attaches the acting user id to ctx.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Ctx returns the global logger enriched with whatever ids ctx carries.
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := current().With()
	if id := correlationIDFrom(ctx); id != "" {
		lc = lc.Str("correlation_id", id)
	}
	if id := requestIDFrom(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if id := userIDFrom(ctx); id != "" {
		lc = lc.Str("user_id", id)
	}
	l := lc.Logger()
	return &l
}
