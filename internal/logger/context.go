package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	orderIDKey
)

// WithRequestID stores the delivery's request id for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithOrder records the order a notification resolved to, so every log line
// written after resolution carries the order id.
func WithOrder(ctx context.Context, orderID uint) context.Context {
	return context.WithValue(ctx, orderIDKey, orderID)
}

func OrderIDFrom(ctx context.Context) (uint, bool) {
	v, ok := ctx.Value(orderIDKey).(uint)
	return v, ok
}

// FromCtx returns the process logger annotated with whatever identifiers the
// context carries.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if id := RequestIDFrom(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if orderID, ok := OrderIDFrom(ctx); ok {
		l = l.With(zap.Uint("order_id", orderID))
	}
	return l
}
