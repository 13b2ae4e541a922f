package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/healthalyze/healthalyze_backend/internal/api/http/middleware"
	"github.com/healthalyze/healthalyze_backend/internal/repo"
	"github.com/healthalyze/healthalyze_backend/internal/service/assessment"
	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

type AssessmentHandler struct {
	svc assessment.Service
}

func NewAssessmentHandler(svc assessment.Service) *AssessmentHandler {
	return &AssessmentHandler{svc: svc}
}

// assessmentBody is the writable part of a stored assessment. The subject
// comes from the route and the timestamps from the store.
type assessmentBody struct {
	Age              int        `json:"age"`
	Hypertension     int        `json:"hypertension"`
	HeartDisease     int        `json:"heart_disease"`
	AvgGlucoseLevel  float64    `json:"avg_glucose_level"`
	BMI              float64    `json:"bmi"`
	Gender           string     `json:"gender"`
	SmokingStatus    string     `json:"smoking_status"`
	Residence        string     `json:"residence"`
	WorkType         string     `json:"work_type"`
	EverMarried      string     `json:"ever_married"`
	PhysicalActivity string     `json:"physical_activity"`
	RiskProbability  float64    `json:"risk_probability"`
	RiskLevel        risk.Level `json:"risk_level"`
	Advice           string     `json:"advice"`
}

func (b assessmentBody) toAssessment(subjectID string) *repo.Assessment {
	return &repo.Assessment{
		SubjectID:        subjectID,
		Age:              b.Age,
		Hypertension:     b.Hypertension,
		HeartDisease:     b.HeartDisease,
		AvgGlucoseLevel:  b.AvgGlucoseLevel,
		BMI:              b.BMI,
		Gender:           b.Gender,
		SmokingStatus:    b.SmokingStatus,
		Residence:        b.Residence,
		WorkType:         b.WorkType,
		EverMarried:      b.EverMarried,
		PhysicalActivity: b.PhysicalActivity,
		RiskProbability:  b.RiskProbability,
		RiskLevel:        b.RiskLevel,
		Advice:           b.Advice,
	}
}

// GET /assessments
func (h *AssessmentHandler) List(c fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return badRequest(c, "limit must be a positive integer")
		}
		limit = n
	}
	items, err := h.svc.List(c.Context(), limit)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, items)
}

// GET /assessments/me
func (h *AssessmentHandler) GetMine(c fiber.Ctx) error {
	subjectID, valid := subjectFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	return h.get(c, subjectID)
}

// PUT /assessments/me
func (h *AssessmentHandler) PutMine(c fiber.Ctx) error {
	subjectID, valid := subjectFromLocals(c)
	if !valid {
		return unauthorized(c)
	}

	var body assessmentBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	a, err := h.svc.Save(c.Context(), body.toAssessment(subjectID))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, a)
}

// DELETE /assessments/me
func (h *AssessmentHandler) DeleteMine(c fiber.Ctx) error {
	subjectID, valid := subjectFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	return h.delete(c, subjectID)
}

// GET /assessments/:id
func (h *AssessmentHandler) Get(c fiber.Ctx) error {
	id, valid := subjectParam(c)
	if !valid {
		return badRequest(c, "invalid subject id")
	}
	return h.get(c, id)
}

// PATCH /assessments/:id
func (h *AssessmentHandler) Patch(c fiber.Ctx) error {
	id, valid := subjectParam(c)
	if !valid {
		return badRequest(c, "invalid subject id")
	}

	var fields map[string]any
	if err := c.Bind().JSON(&fields); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(fields) == 0 {
		return badRequest(c, "no fields to update")
	}

	a, err := h.svc.Update(c.Context(), id, fields)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, a)
}

// DELETE /assessments/:id
func (h *AssessmentHandler) Delete(c fiber.Ctx) error {
	id, valid := subjectParam(c)
	if !valid {
		return badRequest(c, "invalid subject id")
	}
	return h.delete(c, id)
}

func (h *AssessmentHandler) get(c fiber.Ctx, subjectID string) error {
	a, err := h.svc.Get(c.Context(), subjectID)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, a)
}

func (h *AssessmentHandler) delete(c fiber.Ctx, subjectID string) error {
	if err := h.svc.Delete(c.Context(), subjectID); err != nil {
		return mapError(c, err)
	}
	return noContent(c)
}

// subjectParam returns a copy of the :id parameter. Ids are stored exactly as
// SubjectRequired accepted them, already trimmed, so an id with surrounding
// whitespace can never match and is rejected.
func subjectParam(c fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if id == "" || len(id) > middleware.MaxSubjectLen || strings.TrimSpace(id) != id {
		return "", false
	}
	return strings.Clone(id), true
}
