package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/healthalyze/healthalyze_backend/pkg/reqctx"
)

const HeaderRequestID = "X-Request-Id"

// RequestID echoes the caller's X-Request-Id, or a fresh UUID when absent,
// and attaches the request metadata used in log records to the context.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		rid := strings.Clone(c.Get(HeaderRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)

		c.SetContext(reqctx.WithRequestMeta(c.Context(), &reqctx.RequestMeta{
			RequestID: rid,
			ClientIP:  strings.Clone(c.IP()),
			UserAgent: strings.Clone(c.Get(fiber.HeaderUserAgent)),
		}))
		return c.Next()
	}
}
