package assessment

import (
	"context"
	"strings"

	"github.com/healthalyze/healthalyze_backend/internal/repo"
	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Store is the persistence surface the service drives; *repo.Store
// implements it.
type Store interface {
	Upsert(ctx context.Context, a *repo.Assessment) (*repo.Assessment, error)
	Get(ctx context.Context, subjectID string) (*repo.Assessment, error)
	Delete(ctx context.Context, subjectID string) (bool, error)
	Update(ctx context.Context, subjectID string, fields map[string]any) (*repo.Assessment, error)
	List(ctx context.Context, limit int) ([]*repo.Assessment, error)
}

type Service interface {
	Get(ctx context.Context, subjectID string) (*repo.Assessment, error)
	List(ctx context.Context, limit int) ([]*repo.Assessment, error)
	Save(ctx context.Context, a *repo.Assessment) (*repo.Assessment, error)
	Update(ctx context.Context, subjectID string, fields map[string]any) (*repo.Assessment, error)
	Delete(ctx context.Context, subjectID string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type assessmentService struct {
	store   Store
	catalog wizard.Catalog
}

func New(store Store, catalog wizard.Catalog) Service {
	return &assessmentService{store: store, catalog: catalog}
}

func (s *assessmentService) Get(ctx context.Context, subjectID string) (*repo.Assessment, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrInvalidSubject
	}
	a, err := s.store.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *assessmentService) List(ctx context.Context, limit int) ([]*repo.Assessment, error) {
	return s.store.List(ctx, limit)
}

// Save validates a against the questionnaire and stores it, replacing any
// previous record for the subject.
func (s *assessmentService) Save(ctx context.Context, a *repo.Assessment) (*repo.Assessment, error) {
	if strings.TrimSpace(a.SubjectID) == "" {
		return nil, ErrInvalidSubject
	}
	values := map[string]any{
		repo.ColumnAge:              a.Age,
		repo.ColumnAvgGlucoseLevel:  a.AvgGlucoseLevel,
		repo.ColumnGender:           a.Gender,
		repo.ColumnSmokingStatus:    a.SmokingStatus,
		repo.ColumnResidence:        a.Residence,
		repo.ColumnWorkType:         a.WorkType,
		repo.ColumnEverMarried:      a.EverMarried,
		repo.ColumnPhysicalActivity: a.PhysicalActivity,
	}
	if err := s.checkAnswers(values); err != nil {
		return nil, err
	}
	return s.store.Upsert(ctx, a)
}

// Update applies a partial update. Columns that mirror a question are held
// to that question's bounds and choices.
func (s *assessmentService) Update(ctx context.Context, subjectID string, fields map[string]any) (*repo.Assessment, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrInvalidSubject
	}
	if err := s.checkAnswers(fields); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, subjectID, fields)
}

func (s *assessmentService) Delete(ctx context.Context, subjectID string) error {
	if strings.TrimSpace(subjectID) == "" {
		return ErrInvalidSubject
	}
	if _, err := s.store.Delete(ctx, subjectID); err != nil {
		return err
	}
	return nil
}

// checkAnswers validates values whose column shares a name with a
// non-binary question. Binary questions are stored as 0/1 and checked by
// the store.
func (s *assessmentService) checkAnswers(values map[string]any) error {
	for _, f := range s.catalog {
		raw, ok := values[f.Name]
		if !ok || f.Binary {
			continue
		}
		v, ok := toValue(raw)
		if !ok {
			continue
		}
		if err := f.Validate(v, true); err != nil {
			return err
		}
	}
	return nil
}

// toValue converts a decoded value into an answer. Values of other types
// are left to the store's type checks.
func toValue(raw any) (wizard.Value, bool) {
	switch v := raw.(type) {
	case string:
		return wizard.Choice(v), true
	case float64:
		return wizard.Number(v), true
	case int:
		return wizard.Number(float64(v)), true
	default:
		return wizard.Value{}, false
	}
}
