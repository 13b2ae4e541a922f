package handler

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/healthalyze/healthalyze_backend/internal/service/intake"
	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
)

type QuestionnaireHandler struct {
	svc intake.Service
}

func NewQuestionnaireHandler(svc intake.Service) *QuestionnaireHandler {
	return &QuestionnaireHandler{svc: svc}
}

// GET /questionnaire/fields
func (h *QuestionnaireHandler) Fields(c fiber.Ctx) error {
	return ok(c, h.svc.Fields())
}

// GET /questionnaire
func (h *QuestionnaireHandler) State(c fiber.Ctx) error {
	subjectID, valid := subjectFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	view, err := h.svc.State(c.Context(), subjectID)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, view)
}

// PUT /questionnaire/answers/:field
func (h *QuestionnaireHandler) SetAnswer(c fiber.Ctx) error {
	subjectID, valid := subjectFromLocals(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	var value wizard.Value
	if len(body.Value) > 0 {
		if err := json.Unmarshal(body.Value, &value); err != nil {
			return badRequest(c, "value must be a number or a string")
		}
	}

	// The field name keys the stored answers; detach it from the request buffer.
	field := strings.Clone(c.Params("field"))
	view, err := h.svc.SetAnswer(c.Context(), subjectID, field, value)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, view)
}

// POST /questionnaire/advance
func (h *QuestionnaireHandler) Advance(c fiber.Ctx) error {
	return h.step(c, h.svc.Advance)
}

// POST /questionnaire/retreat
func (h *QuestionnaireHandler) Retreat(c fiber.Ctx) error {
	return h.step(c, h.svc.Retreat)
}

// DELETE /questionnaire
func (h *QuestionnaireHandler) Reset(c fiber.Ctx) error {
	return h.step(c, h.svc.Reset)
}

// POST /questionnaire/submit
func (h *QuestionnaireHandler) Submit(c fiber.Ctx) error {
	subjectID, valid := subjectFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	res, err := h.svc.Submit(c.Context(), subjectID)
	if err != nil {
		return mapError(c, err)
	}
	return created(c, res)
}

func (h *QuestionnaireHandler) step(c fiber.Ctx, fn func(ctx context.Context, subjectID string) (*wizard.View, error)) error {
	subjectID, valid := subjectFromLocals(c)
	if !valid {
		return unauthorized(c)
	}
	view, err := fn(c.Context(), subjectID)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, view)
}
