package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/healthalyze/healthalyze_backend/internal/api/http/middleware"
	"github.com/healthalyze/healthalyze_backend/internal/repo"
	"github.com/healthalyze/healthalyze_backend/internal/service/assessment"
	"github.com/healthalyze/healthalyze_backend/internal/service/intake"
	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
	"github.com/healthalyze/healthalyze_backend/pkg/bmi"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

// unprocessable reports a value that was well-formed JSON but broke a field
// rule. step is included when the client has to navigate back to fix it.
func unprocessable(c fiber.Ctx, msg, field, constraint string, step *int) error {
	body := fiber.Map{"error": msg, "field": field}
	if constraint != "" {
		body["constraint"] = constraint
	}
	if step != nil {
		body["step"] = *step
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
}

func badGateway(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": msg})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func subjectFromLocals(c fiber.Ctx) (string, bool) {
	return middleware.SubjectFromFiber(c)
}

// mapError translates domain errors into HTTP responses. Unknown errors are
// logged and hidden behind a 500.
func mapError(c fiber.Ctx, err error) error {
	var (
		incomplete  *wizard.IncompleteSubmissionError
		validation  *wizard.ValidationError
		measurement *bmi.InvalidMeasurementError
		unknown     *repo.UnknownFieldError
		fieldValue  *repo.FieldValueError
		prediction  *wizard.PredictionServiceError
	)

	switch {
	case errors.As(err, &incomplete):
		step := incomplete.Step
		constraint := ""
		if errors.As(incomplete.Cause, &validation) {
			constraint = string(validation.Constraint)
		}
		return unprocessable(c, err.Error(), incomplete.Field, constraint, &step)
	case errors.As(err, &validation):
		return unprocessable(c, err.Error(), validation.Field, string(validation.Constraint), nil)
	case errors.As(err, &measurement):
		return unprocessable(c, err.Error(), measurement.Field, string(wizard.ConstraintBounds), nil)
	case errors.As(err, &unknown):
		return unprocessable(c, err.Error(), unknown.Field, "unknown", nil)
	case errors.As(err, &fieldValue):
		return unprocessable(c, err.Error(), fieldValue.Field, string(wizard.ConstraintType), nil)
	case errors.Is(err, wizard.ErrUnknownField):
		return unprocessable(c, err.Error(), c.Params("field"), "unknown", nil)
	case errors.Is(err, repo.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, wizard.ErrSubmissionInProgress):
		return conflict(c, err.Error())
	case errors.Is(err, intake.ErrInvalidSubject), errors.Is(err, assessment.ErrInvalidSubject):
		return badRequest(c, err.Error())
	case errors.As(err, &prediction):
		slog.WarnContext(c.Context(), "prediction service failed", "error", err)
		return badGateway(c, "prediction service unavailable, please try again")
	default:
		slog.ErrorContext(c.Context(), "request failed", "path", c.Path(), "error", err)
		return internalError(c)
	}
}
