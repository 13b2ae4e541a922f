// Package intake runs a subject's questionnaire across requests: it keeps
// the draft, submits completed answers to the predictor and stores the
// resulting assessment.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/healthalyze/healthalyze_backend/internal/repo"
	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
	"github.com/healthalyze/healthalyze_backend/pkg/events"
	"github.com/healthalyze/healthalyze_backend/pkg/keylock"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Result is returned by a successful submission.
type Result struct {
	View       wizard.View      `json:"view"`
	Assessment *repo.Assessment `json:"assessment"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Store is the part of the assessment store intake needs.
type Store interface {
	Get(ctx context.Context, subjectID string) (*repo.Assessment, error)
	Upsert(ctx context.Context, a *repo.Assessment) (*repo.Assessment, error)
}

type Service interface {
	Fields() wizard.Catalog
	State(ctx context.Context, subjectID string) (*wizard.View, error)
	SetAnswer(ctx context.Context, subjectID, field string, v wizard.Value) (*wizard.View, error)
	Advance(ctx context.Context, subjectID string) (*wizard.View, error)
	Retreat(ctx context.Context, subjectID string) (*wizard.View, error)
	Submit(ctx context.Context, subjectID string) (*Result, error)
	Reset(ctx context.Context, subjectID string) (*wizard.View, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type intakeService struct {
	catalog   wizard.Catalog
	drafts    DraftStore
	store     Store
	predictor wizard.Predictor
	events    events.Publisher
	locks     *keylock.Locker
}

type Option func(*intakeService)

// WithEvents publishes an event after every stored assessment.
func WithEvents(p events.Publisher) Option {
	return func(s *intakeService) { s.events = p }
}

func New(catalog wizard.Catalog, drafts DraftStore, store Store, p wizard.Predictor, opts ...Option) Service {
	s := &intakeService{
		catalog:   catalog,
		drafts:    drafts,
		store:     store,
		predictor: p,
		events:    events.Nop{},
		locks:     keylock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *intakeService) Fields() wizard.Catalog {
	return s.catalog
}

func (s *intakeService) State(ctx context.Context, subjectID string) (*wizard.View, error) {
	return s.with(ctx, subjectID, false, func(*wizard.Wizard) error { return nil })
}

func (s *intakeService) SetAnswer(ctx context.Context, subjectID, field string, v wizard.Value) (*wizard.View, error) {
	return s.with(ctx, subjectID, true, func(w *wizard.Wizard) error {
		return w.SetAnswer(field, v)
	})
}

func (s *intakeService) Advance(ctx context.Context, subjectID string) (*wizard.View, error) {
	return s.with(ctx, subjectID, true, func(w *wizard.Wizard) error {
		return w.Advance()
	})
}

func (s *intakeService) Retreat(ctx context.Context, subjectID string) (*wizard.View, error) {
	return s.with(ctx, subjectID, true, func(w *wizard.Wizard) error {
		w.Retreat()
		return nil
	})
}

// Reset discards the draft. The next questionnaire starts from the stored
// assessment, if any.
func (s *intakeService) Reset(ctx context.Context, subjectID string) (*wizard.View, error) {
	if err := checkSubject(subjectID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(subjectID)
	defer unlock()

	if err := s.drafts.Delete(ctx, subjectID); err != nil {
		return nil, err
	}
	w, err := s.fresh(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	v := w.View()
	return &v, nil
}

// Submit scores the answers and stores the assessment. A predictor failure
// or a storage failure leaves the questionnaire in the failed phase so the
// subject can retry.
func (s *intakeService) Submit(ctx context.Context, subjectID string) (*Result, error) {
	if err := checkSubject(subjectID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(subjectID)
	defer unlock()

	w, err := s.load(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	out, err := w.Submit(ctx, s.predictor)
	if err != nil {
		var pse *wizard.PredictionServiceError
		if errors.As(err, &pse) {
			slog.WarnContext(ctx, "prediction failed", "subject", subjectID, "error", err)
			if saveErr := s.drafts.Save(ctx, subjectID, w.Snapshot()); saveErr != nil {
				slog.ErrorContext(ctx, "failed to save draft", "subject", subjectID, "error", saveErr)
			}
		}
		return nil, err
	}

	stored, err := s.store.Upsert(ctx, assessmentFromOutcome(subjectID, out))
	if err != nil {
		slog.ErrorContext(ctx, "failed to store assessment", "subject", subjectID, "error", err)
		_ = w.Fail(fmt.Errorf("%w: %v", ErrNotSubmitted, err))
		if saveErr := s.drafts.Save(ctx, subjectID, w.Snapshot()); saveErr != nil {
			slog.ErrorContext(ctx, "failed to save draft", "subject", subjectID, "error", saveErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrNotSubmitted, err)
	}

	if err := s.drafts.Save(ctx, subjectID, w.Snapshot()); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "assessment stored",
		"subject", subjectID,
		"risk_level", stored.RiskLevel,
		"probability", stored.RiskProbability,
	)

	// the assessment is already stored; a lost event is only logged
	if err := s.events.PublishAssessmentStored(ctx, events.AssessmentStored{
		SubjectID:   stored.SubjectID,
		RiskLevel:   stored.RiskLevel,
		Probability: stored.RiskProbability,
		StoredAt:    stored.UpdatedAt,
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish assessment event", "subject", subjectID, "error", err)
	}
	return &Result{View: w.View(), Assessment: stored}, nil
}

// with runs fn on the subject's wizard under the subject lock and persists
// the draft when mutate is set and fn succeeded.
func (s *intakeService) with(ctx context.Context, subjectID string, mutate bool, fn func(*wizard.Wizard) error) (*wizard.View, error) {
	if err := checkSubject(subjectID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(subjectID)
	defer unlock()

	w, err := s.load(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if mutate {
		if err := s.drafts.Save(ctx, subjectID, w.Snapshot()); err != nil {
			return nil, err
		}
	}
	v := w.View()
	return &v, nil
}

func (s *intakeService) load(ctx context.Context, subjectID string) (*wizard.Wizard, error) {
	snap, err := s.drafts.Load(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return wizard.Restore(s.catalog, *snap), nil
	}
	return s.fresh(ctx, subjectID)
}

// fresh starts a questionnaire, prefilled from the stored assessment.
func (s *intakeService) fresh(ctx context.Context, subjectID string) (*wizard.Wizard, error) {
	w := wizard.New(s.catalog)
	prev, err := s.store.Get(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load previous assessment: %w", err)
	}
	if prev != nil {
		w.Prefill(answersFromAssessment(prev))
	}
	return w, nil
}

func checkSubject(subjectID string) error {
	if strings.TrimSpace(subjectID) == "" {
		return ErrInvalidSubject
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func assessmentFromOutcome(subjectID string, out *wizard.Outcome) *repo.Assessment {
	sub := out.Submission
	return &repo.Assessment{
		SubjectID:        subjectID,
		Age:              int(math.Round(sub.Age)),
		Hypertension:     sub.Hypertension,
		HeartDisease:     sub.HeartDisease,
		AvgGlucoseLevel:  sub.AvgGlucoseLevel,
		BMI:              sub.BMI,
		Gender:           sub.Gender,
		SmokingStatus:    sub.SmokingStatus,
		Residence:        sub.Residence,
		WorkType:         sub.WorkType,
		EverMarried:      sub.EverMarried,
		PhysicalActivity: sub.PhysicalActivity,
		RiskProbability:  out.Prediction.Probability,
		RiskLevel:        out.Prediction.RiskLevel,
		Advice:           out.Prediction.Advice,
	}
}

// answersFromAssessment maps a stored record back to answers. Height and
// weight are not stored and stay unanswered.
func answersFromAssessment(a *repo.Assessment) wizard.AnswerSet {
	yesNo := func(flag int) wizard.Value {
		if flag == 1 {
			return wizard.Choice("Yes")
		}
		return wizard.Choice("No")
	}
	return wizard.AnswerSet{
		wizard.FieldGender:           wizard.Choice(a.Gender),
		wizard.FieldAge:              wizard.Number(float64(a.Age)),
		wizard.FieldHypertension:     yesNo(a.Hypertension),
		wizard.FieldHeartDisease:     yesNo(a.HeartDisease),
		wizard.FieldAvgGlucoseLevel:  wizard.Number(a.AvgGlucoseLevel),
		wizard.FieldSmokingStatus:    wizard.Choice(a.SmokingStatus),
		wizard.FieldResidence:        wizard.Choice(a.Residence),
		wizard.FieldWorkType:         wizard.Choice(a.WorkType),
		wizard.FieldEverMarried:      wizard.Choice(a.EverMarried),
		wizard.FieldPhysicalActivity: wizard.Choice(a.PhysicalActivity),
	}
}
