package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthalyze/healthalyze_backend/internal/api/http/handler"
)

func (r *Router) registerQuestionnaireRoutes(
	api fiber.Router,
	h *handler.QuestionnaireHandler,
	subjectRequired fiber.Handler,
) {
	// public, and registered ahead of the group so the subject check does not apply
	api.Get("/questionnaire/fields", h.Fields)

	q := api.Group("/questionnaire", subjectRequired)
	q.Get("/", h.State)
	q.Delete("/", h.Reset)
	q.Put("/answers/:field", h.SetAnswer)
	q.Post("/advance", h.Advance)
	q.Post("/retreat", h.Retreat)
	q.Post("/submit", h.Submit)
}
