package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

func validAnswers() AnswerSet {
	return AnswerSet{
		FieldGender:           Choice("Female"),
		FieldAge:              Number(45),
		FieldHypertension:     Choice("Yes"),
		FieldHeartDisease:     Choice("No"),
		FieldAvgGlucoseLevel:  Number(105.5),
		FieldHeight:           Number(170),
		FieldWeight:           Number(70),
		FieldSmokingStatus:    Choice("Formerly smoked"),
		FieldResidence:        Choice("Urban"),
		FieldWorkType:         Choice("Private"),
		FieldEverMarried:      Choice("Yes"),
		FieldPhysicalActivity: Choice("Moderate"),
	}
}

func fixedPredictor(p Prediction) PredictorFunc {
	return func(context.Context, Submission) (*Prediction, error) {
		return &p, nil
	}
}

func failingPredictor(err error) PredictorFunc {
	return func(context.Context, Submission) (*Prediction, error) {
		return nil, err
	}
}

// answerAll walks the questionnaire front to back.
func answerAll(t *testing.T, w *Wizard, answers AnswerSet) {
	t.Helper()
	for i := range w.Catalog() {
		f := w.Current()
		require.Equal(t, i, w.Step())
		require.NoError(t, w.SetAnswer(f.Name, answers[f.Name]))
		require.NoError(t, w.Advance())
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Len(t, c, 12)
	assert.Equal(t, FieldGender, c[0].Name)
	assert.Equal(t, FieldPhysicalActivity, c[len(c)-1].Name)

	seen := map[string]bool{}
	for _, f := range c {
		assert.False(t, seen[f.Name], "duplicate field %s", f.Name)
		seen[f.Name] = true
		if f.Kind == KindChoice {
			assert.NotEmpty(t, f.Choices, f.Name)
		}
	}

	_, step, ok := c.Lookup(FieldHeight)
	require.True(t, ok)
	assert.Equal(t, 5, step)

	_, _, ok = c.Lookup("education")
	assert.False(t, ok)
}

func TestFieldValidate(t *testing.T) {
	c := DefaultCatalog()
	age, _, _ := c.Lookup(FieldAge)
	glucose, _, _ := c.Lookup(FieldAvgGlucoseLevel)
	gender, _, _ := c.Lookup(FieldGender)

	tests := []struct {
		name    string
		field   Field
		value   Value
		present bool
		want    Constraint
	}{
		{"missing", age, Value{}, false, ConstraintRequired},
		{"wrong type", age, Choice("45"), true, ConstraintType},
		{"not integer", age, Number(45.5), true, ConstraintInteger},
		{"zero age", age, Number(0), true, ConstraintBounds},
		{"too old", age, Number(121), true, ConstraintBounds},
		{"max age", age, Number(120), true, ""},
		{"fractional glucose", glucose, Number(99.9), true, ""},
		{"glucose over max", glucose, Number(300.01), true, ConstraintBounds},
		{"bad choice", gender, Choice("male"), true, ConstraintChoice},
		{"good choice", gender, Choice("Other"), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate(tt.value, tt.present)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field.Name, ve.Field)
			assert.Equal(t, tt.want, ve.Constraint)
		})
	}
}

func TestAdvanceRejectsInvalidCurrentField(t *testing.T) {
	w := New(DefaultCatalog())
	answerAll(t, w, validAnswers())
	w.Retreat()
	w.Retreat()
	step := w.Step()

	require.NoError(t, w.SetAnswer(FieldWorkType, Choice("Astronaut")))
	err := w.Advance()

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, FieldWorkType, ve.Field)
	assert.Equal(t, ConstraintChoice, ve.Constraint)
	assert.Equal(t, step, w.Step())
}

func TestAdvanceAndRetreatClamp(t *testing.T) {
	w := New(DefaultCatalog())
	w.Retreat()
	assert.Equal(t, 0, w.Step())

	answerAll(t, w, validAnswers())
	last := len(w.Catalog()) - 1
	assert.Equal(t, last, w.Step())

	require.NoError(t, w.Advance())
	assert.Equal(t, last, w.Step(), "advance past last step is a no-op")
	assert.True(t, w.View().IsLast)
}

func TestSetAnswerUnknownField(t *testing.T) {
	w := New(DefaultCatalog())
	err := w.SetAnswer("education", Choice("PhD"))
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Empty(t, w.Answers())
}

func TestSubmitIncomplete(t *testing.T) {
	w := New(DefaultCatalog())
	answers := validAnswers()
	delete(answers, FieldHeight)
	w.Prefill(answers)

	_, err := w.Submit(context.Background(), fixedPredictor(Prediction{}))

	var ie *IncompleteSubmissionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FieldHeight, ie.Field)
	assert.Equal(t, 5, ie.Step)
	assert.Equal(t, PhaseCollecting, w.Phase())

	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSubmitCompleted(t *testing.T) {
	w := New(DefaultCatalog())
	answerAll(t, w, validAnswers())

	var got Submission
	p := PredictorFunc(func(_ context.Context, s Submission) (*Prediction, error) {
		got = s
		return &Prediction{Probability: 42.5, RiskLevel: risk.Moderate, Advice: "Keep moving."}, nil
	})

	out, err := w.Submit(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, w.Phase())
	assert.Equal(t, risk.Moderate, out.Prediction.RiskLevel)

	assert.Equal(t, 24.22, got.BMI)
	assert.Equal(t, 1, got.Hypertension)
	assert.Equal(t, 0, got.HeartDisease)
	assert.Equal(t, "Yes", got.EverMarried)
	assert.Equal(t, float64(45), got.Age)
	assert.Equal(t, got, out.Submission)
}

func TestSubmitFailureIsRetryable(t *testing.T) {
	w := New(DefaultCatalog())
	answerAll(t, w, validAnswers())
	before := w.Answers()

	_, err := w.Submit(context.Background(), failingPredictor(errors.New("connection refused")))
	var pse *PredictionServiceError
	require.ErrorAs(t, err, &pse)
	assert.Equal(t, PhaseFailed, w.Phase())
	assert.Equal(t, before, w.Answers())
	assert.Contains(t, w.View().Failure, "connection refused")

	out, err := w.Submit(context.Background(), fixedPredictor(Prediction{Probability: 5, RiskLevel: risk.VeryLow}))
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, w.Phase())
	assert.Equal(t, risk.VeryLow, out.Prediction.RiskLevel)
	assert.Nil(t, w.Failure())
}

func TestSubmitRejectsMalformedPrediction(t *testing.T) {
	tests := []struct {
		name string
		pred Prediction
	}{
		{"unknown level", Prediction{Probability: 10, RiskLevel: "Extreme"}},
		{"probability over 100", Prediction{Probability: 140, RiskLevel: risk.High}},
		{"negative probability", Prediction{Probability: -1, RiskLevel: risk.Low}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(DefaultCatalog())
			w.Prefill(validAnswers())
			_, err := w.Submit(context.Background(), fixedPredictor(tt.pred))
			var pse *PredictionServiceError
			require.ErrorAs(t, err, &pse)
			assert.Equal(t, PhaseFailed, w.Phase())
		})
	}
}

func TestEditingResultReturnsToCollecting(t *testing.T) {
	w := New(DefaultCatalog())
	w.Prefill(validAnswers())
	_, err := w.Submit(context.Background(), fixedPredictor(Prediction{Probability: 70, RiskLevel: risk.High}))
	require.NoError(t, err)

	require.NoError(t, w.SetAnswer(FieldAge, Number(30)))
	assert.Equal(t, PhaseCollecting, w.Phase())
	assert.Nil(t, w.Outcome())
}

func TestFail(t *testing.T) {
	w := New(DefaultCatalog())
	assert.ErrorIs(t, w.Fail(errors.New("db down")), ErrNoResult)

	w.Prefill(validAnswers())
	_, err := w.Submit(context.Background(), fixedPredictor(Prediction{Probability: 70, RiskLevel: risk.High}))
	require.NoError(t, err)

	require.NoError(t, w.Fail(errors.New("db down")))
	assert.Equal(t, PhaseFailed, w.Phase())
	assert.Equal(t, validAnswers(), w.Answers())
}

func TestViewProgressAndMessages(t *testing.T) {
	w := New(DefaultCatalog())
	v := w.View()
	assert.Equal(t, 0, v.Step)
	assert.Equal(t, 12, v.Total)
	assert.Equal(t, 8.33, v.Progress)
	assert.False(t, v.CanRetreat)
	assert.Nil(t, v.Value)
	assert.Equal(t, encouragingMessages[0], v.Message)

	assert.Equal(t, encouragingMessages[1], EncouragingMessage(3))
	assert.Equal(t, encouragingMessages[3], EncouragingMessage(11))
	assert.Equal(t, encouragingMessages[4], EncouragingMessage(40))
}

func TestSnapshotRestore(t *testing.T) {
	w := New(DefaultCatalog())
	answerAll(t, w, validAnswers())
	w.Retreat()

	raw, err := json.Marshal(w.Snapshot())
	require.NoError(t, err)

	var s Snapshot
	require.NoError(t, json.Unmarshal(raw, &s))
	r := Restore(DefaultCatalog(), s)

	assert.Equal(t, w.Step(), r.Step())
	assert.Equal(t, w.Answers(), r.Answers())
	assert.Equal(t, PhaseCollecting, r.Phase())
}

func TestRestoreInterruptedSubmission(t *testing.T) {
	r := Restore(DefaultCatalog(), Snapshot{
		Step:    99,
		Answers: AnswerSet{FieldAge: Number(50), "education": Choice("PhD")},
		Phase:   PhaseSubmitting,
	})

	assert.Equal(t, 11, r.Step())
	assert.Equal(t, PhaseFailed, r.Phase())
	assert.NotContains(t, r.Answers(), "education")

	var pse *PredictionServiceError
	assert.ErrorAs(t, r.Failure(), &pse)
}

func TestValueJSON(t *testing.T) {
	var a AnswerSet
	require.NoError(t, json.Unmarshal([]byte(`{"age": 45, "gender": "Male", "height": null}`), &a))

	assert.Equal(t, Number(45), a[FieldAge])
	assert.Equal(t, Choice("Male"), a[FieldGender])
	assert.Equal(t, Value{}, a[FieldHeight])

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &v))
}
