package middleware

import (
	"TakaDetect/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const RequestIDKey = "X-Request-ID"

// NewRequestIDMiddleware tags every request with a ULID. An inbound header is
// honored only if it parses as one, so clients cannot inject arbitrary trace IDs.
func NewRequestIDMiddleware() fiber.Handler {
	utilsInstance := utils.New()

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if _, err := ulid.ParseStrict(requestID); err != nil {
			requestID, _ = utilsInstance.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}
