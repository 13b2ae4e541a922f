package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthalyze/healthalyze_backend/internal/api/http/handler"
)

func (r *Router) registerAssessmentRoutes(
	api fiber.Router,
	h *handler.AssessmentHandler,
	subjectRequired fiber.Handler,
) {
	a := api.Group("/assessments", subjectRequired)
	a.Get("/", h.List)

	// "me" routes must be registered before the :id ones
	a.Get("/me", h.GetMine)
	a.Put("/me", h.PutMine)
	a.Delete("/me", h.DeleteMine)

	a.Get("/:id", h.Get)
	a.Patch("/:id", h.Patch)
	a.Delete("/:id", h.Delete)
}
