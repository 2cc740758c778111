package log

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type correlationIDType int

const (
	requestIDKey correlationIDType = iota
	requestFieldsKey
)

// WithRequestID returns a context which knows its request ID.
// A request ID tracks the lifecycle of a single request across all execution contexts,
// including multiple goroutines. The canonical example is an incoming message received
// on a category subscription.
func WithRequestID(ctx context.Context, requestID string, fields ...zap.Field) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	if len(fields) > 0 {
		ctx = context.WithValue(ctx, requestFieldsKey, fields)
	}
	return ctx
}

// WithNewRequestID does the same thing as WithRequestID but generates a new, random request ID.
func WithNewRequestID(ctx context.Context, fields ...zap.Field) context.Context {
	return WithRequestID(ctx, uuid.NewString(), fields...)
}

// ExtractRequestID extracts the request id from a context object.
func ExtractRequestID(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id, true
	}
	return "", false
}

// ZContext returns a zap field with the request id and request fields stored in ctx.
func ZContext(ctx context.Context) zap.Field {
	id, ok := ExtractRequestID(ctx)
	if !ok {
		return zap.Skip()
	}
	fields, _ := ctx.Value(requestFieldsKey).([]zap.Field)
	if len(fields) == 0 {
		return zap.String("requestId", id)
	}
	return zap.Dict("request", append([]zap.Field{zap.String("id", id)}, fields...)...)
}
