package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthalyze/healthalyze_backend/internal/api/http/handler"
)

func (r *Router) registerStatisticsRoutes(
	api fiber.Router,
	h *handler.StatisticsHandler,
	subjectRequired fiber.Handler,
) {
	api.Get("/statistics", subjectRequired, h.Get)
}
