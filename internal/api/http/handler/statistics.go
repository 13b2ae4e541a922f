package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/healthalyze/healthalyze_backend/internal/service/statistics"
)

type StatisticsHandler struct {
	svc statistics.Service
}

func NewStatisticsHandler(svc statistics.Service) *StatisticsHandler {
	return &StatisticsHandler{svc: svc}
}

// GET /statistics
func (h *StatisticsHandler) Get(c fiber.Ctx) error {
	snap, err := h.svc.Snapshot(c.Context())
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, snap)
}
