package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/healthalyze/healthalyze_backend/pkg/reqctx"
)

const (
	DefaultSubjectHeader = "X-Subject-Id"
	LocalSubjectID       = "subject_id"

	MaxSubjectLen = 255
)

// SubjectRequired reads the caller's subject identifier from the header set by
// the upstream identity provider. Requests without one are rejected with 401.
// On success the subject is stored in c.Locals(LocalSubjectID) and in the
// request context.
func SubjectRequired(header string) fiber.Handler {
	if header == "" {
		header = DefaultSubjectHeader
	}
	return func(c fiber.Ctx) error {
		// c.Get aliases the request buffer, which fasthttp reuses.
		subject := strings.Clone(strings.TrimSpace(c.Get(header)))
		if subject == "" || len(subject) > MaxSubjectLen {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		c.Locals(LocalSubjectID, subject)
		c.SetContext(reqctx.WithSubject(c.Context(), subject))
		return c.Next()
	}
}

// SubjectFromFiber retrieves the subject identifier stored by SubjectRequired.
func SubjectFromFiber(c fiber.Ctx) (string, bool) {
	s, ok := c.Locals(LocalSubjectID).(string)
	return s, ok && s != ""
}
