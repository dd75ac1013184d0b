package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const RequestIDKey = "request_id"

const localsKey = "X-Request-ID"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// FromFiberCtx derives a context carrying the request ID. It builds on the
// app's user context so server shutdown cancels in-flight predictions.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	requestID, ok := c.Locals(localsKey).(string)
	if !ok || requestID == "" {
		requestID = c.Get(localsKey)
	}
	if requestID == "" {
		requestID = "unknown"
	}

	return WithRequestID(c.UserContext(), requestID)
}
