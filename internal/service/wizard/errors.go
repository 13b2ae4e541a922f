package wizard

import (
	"errors"
	"fmt"

	"github.com/healthalyze/healthalyze_backend/pkg/bmi"
)

var (
	ErrUnknownField         = errors.New("unknown questionnaire field")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrNoResult             = errors.New("questionnaire has no completed result")
)

// Constraint names the rule a value broke.
type Constraint string

const (
	ConstraintRequired Constraint = "required"
	ConstraintType     Constraint = "type"
	ConstraintBounds   Constraint = "bounds"
	ConstraintInteger  Constraint = "integer"
	ConstraintChoice   Constraint = "choice"
)

// ValidationError reports a single field whose value violates its
// definition.
type ValidationError struct {
	Field      string
	Constraint Constraint
	Detail     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Detail)
}

// IncompleteSubmissionError is returned by Submit when a field is still
// missing or invalid. Step is where the user should go back to.
type IncompleteSubmissionError struct {
	Field string
	Step  int
	Cause error
}

func (e *IncompleteSubmissionError) Error() string {
	return fmt.Sprintf("questionnaire incomplete: return to step %d (%s): %v", e.Step+1, e.Field, e.Cause)
}

func (e *IncompleteSubmissionError) Unwrap() error { return e.Cause }

// PredictionServiceError wraps any failure of the external predictor.
// It is transient: the same answers may be submitted again.
type PredictionServiceError struct {
	Err error
}

func (e *PredictionServiceError) Error() string {
	return fmt.Sprintf("prediction service failed: %v", e.Err)
}

func (e *PredictionServiceError) Unwrap() error { return e.Err }

// InvalidMeasurementError is raised when height or weight cannot produce a
// body-mass index.
type InvalidMeasurementError = bmi.InvalidMeasurementError
