// Package wizard implements the one-question-at-a-time stroke-risk
// questionnaire as an explicit state machine:
//
//	Collecting(step) -> Collecting(step±1)      via Advance / Retreat
//	Collecting       -> Submitting              via Submit
//	Submitting       -> Completed | Failed
//	Failed           -> Submitting              via Submit (retry)
//
// A Wizard is single-session state and is not safe for concurrent use;
// callers serialize access per subject.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/healthalyze/healthalyze_backend/pkg/bmi"
	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

// Phase is the wizard's lifecycle state.
type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseSubmitting Phase = "submitting"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// ---------------------------------------------------------------------------
// Submission contract
// ---------------------------------------------------------------------------

// Submission is a complete answer set with binary fields encoded as 0/1 and
// the derived BMI attached. It is what the predictor receives.
type Submission struct {
	Age              float64 `json:"age"`
	Hypertension     int     `json:"hypertension"`
	HeartDisease     int     `json:"heart_disease"`
	AvgGlucoseLevel  float64 `json:"avg_glucose_level"`
	BMI              float64 `json:"bmi"`
	Height           float64 `json:"height"`
	Weight           float64 `json:"weight"`
	Gender           string  `json:"gender"`
	SmokingStatus    string  `json:"smoking_status"`
	Residence        string  `json:"residence"`
	WorkType         string  `json:"work_type"`
	EverMarried      string  `json:"ever_married"`
	PhysicalActivity string  `json:"physical_activity"`
}

// Prediction is the predictor's verdict. Probability is a percentage.
type Prediction struct {
	Probability float64    `json:"probability"`
	RiskLevel   risk.Level `json:"risk_level"`
	Advice      string     `json:"advice"`
}

func (p *Prediction) validate() error {
	if p == nil {
		return errors.New("empty prediction")
	}
	if math.IsNaN(p.Probability) || p.Probability < 0 || p.Probability > 100 {
		return fmt.Errorf("probability %v outside [0,100]", p.Probability)
	}
	if !p.RiskLevel.Valid() {
		return fmt.Errorf("unknown risk level %q", p.RiskLevel)
	}
	return nil
}

// Predictor scores a submission. Implementations call the external
// prediction service.
type Predictor interface {
	Predict(ctx context.Context, s Submission) (*Prediction, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, s Submission) (*Prediction, error)

func (f PredictorFunc) Predict(ctx context.Context, s Submission) (*Prediction, error) {
	return f(ctx, s)
}

// Outcome is the result of a completed submission.
type Outcome struct {
	Submission Submission `json:"submission"`
	Prediction Prediction `json:"prediction"`
}

// ---------------------------------------------------------------------------
// Wizard
// ---------------------------------------------------------------------------

type Wizard struct {
	catalog Catalog
	step    int
	answers AnswerSet
	phase   Phase
	outcome *Outcome
	failure error
}

// New returns a wizard at step 0 with no answers. It panics on an empty
// catalog.
func New(catalog Catalog) *Wizard {
	if len(catalog) == 0 {
		panic("wizard: empty catalog")
	}
	return &Wizard{
		catalog: catalog,
		answers: AnswerSet{},
		phase:   PhaseCollecting,
	}
}

func (w *Wizard) Catalog() Catalog   { return w.catalog }
func (w *Wizard) Step() int          { return w.step }
func (w *Wizard) Phase() Phase       { return w.phase }
func (w *Wizard) Answers() AnswerSet { return w.answers.Clone() }
func (w *Wizard) Current() Field     { return w.catalog[w.step] }

// Outcome returns the last completed result, or nil.
func (w *Wizard) Outcome() *Outcome { return w.outcome }

// Failure returns the error that moved the wizard to Failed, or nil.
func (w *Wizard) Failure() error { return w.failure }

// SetAnswer stores v for the named field without moving. Editing a
// finished wizard discards its result and resumes collecting.
func (w *Wizard) SetAnswer(name string, v Value) error {
	if _, _, ok := w.catalog.Lookup(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if w.phase == PhaseSubmitting {
		return ErrSubmissionInProgress
	}
	w.answers[name] = v
	if w.phase != PhaseCollecting {
		w.phase = PhaseCollecting
		w.outcome = nil
		w.failure = nil
	}
	return nil
}

// Advance validates the current field and moves forward one step. It is a
// no-op on the last step, whose action is Submit.
func (w *Wizard) Advance() error {
	f := w.Current()
	v, ok := w.answers[f.Name]
	if err := f.Validate(v, ok); err != nil {
		return err
	}
	if w.step < len(w.catalog)-1 {
		w.step++
	}
	return nil
}

// Retreat moves back one step without validation.
func (w *Wizard) Retreat() {
	if w.step > 0 {
		w.step--
	}
}

// Submit validates every answer, derives BMI and asks p for a prediction.
// Input problems are returned without leaving Collecting; a predictor
// failure moves the wizard to Failed and is returned as a
// *PredictionServiceError. Calling Submit again retries.
func (w *Wizard) Submit(ctx context.Context, p Predictor) (*Outcome, error) {
	if w.phase == PhaseSubmitting {
		return nil, ErrSubmissionInProgress
	}
	for i, f := range w.catalog {
		v, ok := w.answers[f.Name]
		if err := f.Validate(v, ok); err != nil {
			return nil, &IncompleteSubmissionError{Field: f.Name, Step: i, Cause: err}
		}
	}

	answers := w.answers.Clone()
	bmiValue, err := bmi.Calculate(answers.number(FieldHeight), answers.number(FieldWeight))
	if err != nil {
		return nil, err
	}
	sub := buildSubmission(answers, bmiValue)

	w.phase = PhaseSubmitting
	w.outcome = nil
	w.failure = nil

	pred, err := p.Predict(ctx, sub)
	if err == nil {
		err = pred.validate()
	}
	if err != nil {
		var pse *PredictionServiceError
		if !errors.As(err, &pse) {
			pse = &PredictionServiceError{Err: err}
		}
		w.phase = PhaseFailed
		w.failure = pse
		return nil, pse
	}

	w.phase = PhaseCompleted
	w.outcome = &Outcome{Submission: sub, Prediction: *pred}
	return w.outcome, nil
}

// Fail moves a completed wizard to Failed, keeping its answers, when the
// result could not be kept (for example, persisting it failed).
func (w *Wizard) Fail(err error) error {
	if w.phase != PhaseCompleted {
		return ErrNoResult
	}
	w.phase = PhaseFailed
	w.failure = err
	return nil
}

// Prefill sets every known value in values, ignoring unknown names. It is
// used to start a wizard from a previous assessment.
func (w *Wizard) Prefill(values AnswerSet) {
	for name, v := range values {
		if _, _, ok := w.catalog.Lookup(name); ok {
			w.answers[name] = v
		}
	}
}

// yesNoFlag encodes a binary field for the predictor.
func yesNoFlag(answers AnswerSet, name string) int {
	if answers.text(name) == "Yes" {
		return 1
	}
	return 0
}

func buildSubmission(answers AnswerSet, bmiValue float64) Submission {
	return Submission{
		Age:              answers.number(FieldAge),
		Hypertension:     yesNoFlag(answers, FieldHypertension),
		HeartDisease:     yesNoFlag(answers, FieldHeartDisease),
		AvgGlucoseLevel:  answers.number(FieldAvgGlucoseLevel),
		BMI:              bmiValue,
		Height:           answers.number(FieldHeight),
		Weight:           answers.number(FieldWeight),
		Gender:           answers.text(FieldGender),
		SmokingStatus:    answers.text(FieldSmokingStatus),
		Residence:        answers.text(FieldResidence),
		WorkType:         answers.text(FieldWorkType),
		EverMarried:      answers.text(FieldEverMarried),
		PhysicalActivity: answers.text(FieldPhysicalActivity),
	}
}
