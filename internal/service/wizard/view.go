package wizard

import (
	"errors"

	"github.com/healthalyze/healthalyze_backend/pkg/bmi"
)

// View is the presentation-neutral state of one step.
type View struct {
	Step       int       `json:"step"`
	Total      int       `json:"total"`
	Field      Field     `json:"field"`
	Value      *Value    `json:"value,omitempty"`
	Progress   float64   `json:"progress"`
	Message    string    `json:"message"`
	Phase      Phase     `json:"phase"`
	CanRetreat bool      `json:"can_retreat"`
	IsLast     bool      `json:"is_last"`
	Answers    AnswerSet `json:"answers"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
	Failure    string    `json:"failure,omitempty"`
}

func (w *Wizard) View() View {
	f := w.Current()
	v := View{
		Step:       w.step,
		Total:      len(w.catalog),
		Field:      f,
		Progress:   bmi.Round2(float64(w.step+1) / float64(len(w.catalog)) * 100),
		Message:    EncouragingMessage(w.step),
		Phase:      w.phase,
		CanRetreat: w.step > 0,
		IsLast:     w.step == len(w.catalog)-1,
		Answers:    w.answers.Clone(),
		Outcome:    w.outcome,
	}
	if cur, ok := w.answers[f.Name]; ok {
		v.Value = &cur
	}
	if w.failure != nil {
		v.Failure = w.failure.Error()
	}
	return v
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// Snapshot is the serializable state of a wizard.
type Snapshot struct {
	Step    int       `json:"step"`
	Answers AnswerSet `json:"answers"`
	Phase   Phase     `json:"phase"`
	Outcome *Outcome  `json:"outcome,omitempty"`
	Failure string    `json:"failure,omitempty"`
}

func (w *Wizard) Snapshot() Snapshot {
	s := Snapshot{
		Step:    w.step,
		Answers: w.answers.Clone(),
		Phase:   w.phase,
		Outcome: w.outcome,
	}
	if w.failure != nil {
		s.Failure = w.failure.Error()
	}
	return s
}

// errInterrupted marks a snapshot taken while a prediction was in flight.
var errInterrupted = errors.New("submission was interrupted")

// Restore rebuilds a wizard from s. Out-of-range steps are clamped and
// answers for unknown fields dropped. A snapshot caught mid-submission
// restores as Failed so the user can retry.
func Restore(catalog Catalog, s Snapshot) *Wizard {
	w := New(catalog)
	w.step = min(max(s.Step, 0), len(catalog)-1)
	w.Prefill(s.Answers)

	switch s.Phase {
	case PhaseCompleted:
		if s.Outcome != nil {
			w.phase = PhaseCompleted
			out := *s.Outcome
			w.outcome = &out
		}
	case PhaseFailed:
		w.phase = PhaseFailed
		w.failure = errors.New(s.Failure)
	case PhaseSubmitting:
		w.phase = PhaseFailed
		w.failure = &PredictionServiceError{Err: errInterrupted}
	}
	return w
}
