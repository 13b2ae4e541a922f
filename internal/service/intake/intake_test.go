package intake

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthalyze/healthalyze_backend/internal/repo"
	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
	"github.com/healthalyze/healthalyze_backend/pkg/database"
	"github.com/healthalyze/healthalyze_backend/pkg/events"
	"github.com/healthalyze/healthalyze_backend/pkg/predictor"
	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

type fakeClient struct {
	calls atomic.Int32
	last  predictor.Request
	resp  *predictor.Response
	err   error
}

func (f *fakeClient) Predict(_ context.Context, req predictor.Request) (*predictor.Response, error) {
	f.calls.Add(1)
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	r := *f.resp
	return &r, nil
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.AssessmentStored
}

func (r *recordingPublisher) PublishAssessmentStored(_ context.Context, e events.AssessmentStored) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return nil
}

type fixture struct {
	svc    Service
	store  *repo.Store
	drafts *MemoryDrafts
	client *fakeClient
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(database.Config{Driver: dialect.SQLite, Path: filepath.Join(t.TempDir(), "intake.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := repo.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))

	client := &fakeClient{resp: &predictor.Response{StrokeProbability: 12.5, RiskLevel: risk.VeryLow, Advice: "Keep it up."}}
	drafts := NewMemoryDrafts(time.Hour)
	pub := &recordingPublisher{}
	return &fixture{
		svc:    New(wizard.DefaultCatalog(), drafts, store, WizardPredictor(client), WithEvents(pub)),
		store:  store,
		drafts: drafts,
		client: client,
		events: pub,
	}
}

var answers = []struct {
	field string
	value wizard.Value
}{
	{wizard.FieldGender, wizard.Choice("Male")},
	{wizard.FieldAge, wizard.Number(67)},
	{wizard.FieldHypertension, wizard.Choice("No")},
	{wizard.FieldHeartDisease, wizard.Choice("Yes")},
	{wizard.FieldAvgGlucoseLevel, wizard.Number(228.69)},
	{wizard.FieldHeight, wizard.Number(175)},
	{wizard.FieldWeight, wizard.Number(112)},
	{wizard.FieldSmokingStatus, wizard.Choice("Formerly smoked")},
	{wizard.FieldResidence, wizard.Choice("Urban")},
	{wizard.FieldWorkType, wizard.Choice("Private")},
	{wizard.FieldEverMarried, wizard.Choice("Yes")},
	{wizard.FieldPhysicalActivity, wizard.Choice("Low")},
}

func (f *fixture) answerAll(t *testing.T, subject string) {
	t.Helper()
	ctx := context.Background()
	for _, a := range answers {
		_, err := f.svc.SetAnswer(ctx, subject, a.field, a.value)
		require.NoError(t, err)
		_, err = f.svc.Advance(ctx, subject)
		require.NoError(t, err)
	}
}

func TestStateStartsFresh(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.State(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Step)
	assert.Equal(t, wizard.PhaseCollecting, v.Phase)
	assert.Empty(t, v.Answers)

	_, err = f.svc.State(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidSubject)
}

func TestDraftSurvivesRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.SetAnswer(ctx, "user_1", wizard.FieldGender, wizard.Choice("Female"))
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, "user_1")
	require.NoError(t, err)

	v, err := f.svc.State(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, wizard.Choice("Female"), v.Answers[wizard.FieldGender])

	other, err := f.svc.State(ctx, "user_2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Step)
}

func TestAdvanceValidationKeepsStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Advance(ctx, "user_1")
	var ve *wizard.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, wizard.ConstraintRequired, ve.Constraint)

	v, err := f.svc.State(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Step)
}

func TestSubmitStoresAssessment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.answerAll(t, "user_1")

	res, err := f.svc.Submit(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, wizard.PhaseCompleted, res.View.Phase)
	assert.Equal(t, risk.VeryLow, res.Assessment.RiskLevel)
	assert.Equal(t, 36.57, res.Assessment.BMI)
	assert.Equal(t, 1, res.Assessment.HeartDisease)

	assert.Equal(t, 36.57, f.client.last.BMI)
	assert.Equal(t, 0, f.client.last.Hypertension)
	assert.Equal(t, float64(175), f.client.last.Height)

	stored, err := f.store.Get(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 67, stored.Age)

	v, err := f.svc.State(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, wizard.PhaseCompleted, v.Phase)
	require.NotNil(t, v.Outcome)

	require.Len(t, f.events.got, 1)
	assert.Equal(t, "user_1", f.events.got[0].SubjectID)
	assert.Equal(t, risk.VeryLow, f.events.got[0].RiskLevel)
	assert.Equal(t, 12.5, f.events.got[0].Probability)
}

func TestResubmitReplacesRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.answerAll(t, "user_1")
	_, err := f.svc.Submit(ctx, "user_1")
	require.NoError(t, err)

	f.client.resp = &predictor.Response{StrokeProbability: 70, RiskLevel: risk.High, Advice: "See a doctor."}
	_, err = f.svc.SetAnswer(ctx, "user_1", wizard.FieldSmokingStatus, wizard.Choice("Smokes"))
	require.NoError(t, err)
	res, err := f.svc.Submit(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, risk.High, res.Assessment.RiskLevel)

	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.store.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Smokes", stored.SmokingStatus)
}

func TestSubmitIncomplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.SetAnswer(ctx, "user_1", wizard.FieldGender, wizard.Choice("Male"))
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "user_1")
	var ie *wizard.IncompleteSubmissionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, wizard.FieldAge, ie.Field)
	assert.Zero(t, f.client.calls.Load())
}

func TestSubmitPredictorFailureThenRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.answerAll(t, "user_1")

	f.client.err = &predictor.Error{Op: "call", StatusCode: 503}
	_, err := f.svc.Submit(ctx, "user_1")
	var pse *wizard.PredictionServiceError
	require.ErrorAs(t, err, &pse)

	v, err := f.svc.State(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, wizard.PhaseFailed, v.Phase)
	assert.Len(t, v.Answers, len(answers))

	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.events.got)

	f.client.err = nil
	res, err := f.svc.Submit(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, wizard.PhaseCompleted, res.View.Phase)
}

type failingStore struct {
	Store
}

func (failingStore) Upsert(context.Context, *repo.Assessment) (*repo.Assessment, error) {
	return nil, errors.New("disk full")
}

func TestSubmitStorageFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := New(wizard.DefaultCatalog(), f.drafts, failingStore{Store: f.store}, WizardPredictor(f.client))
	for _, a := range answers {
		_, err := svc.SetAnswer(ctx, "user_1", a.field, a.value)
		require.NoError(t, err)
	}

	_, err := svc.Submit(ctx, "user_1")
	require.ErrorIs(t, err, ErrNotSubmitted)

	v, err := svc.State(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, wizard.PhaseFailed, v.Phase)
	assert.Contains(t, v.Failure, "disk full")
}

func TestResetPrefillsFromStoredAssessment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.answerAll(t, "user_1")
	_, err := f.svc.Submit(ctx, "user_1")
	require.NoError(t, err)

	v, err := f.svc.Reset(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Step)
	assert.Equal(t, wizard.PhaseCollecting, v.Phase)
	assert.Equal(t, wizard.Choice("Yes"), v.Answers[wizard.FieldHeartDisease])
	assert.Equal(t, wizard.Number(67), v.Answers[wizard.FieldAge])
	assert.NotContains(t, v.Answers, wizard.FieldHeight)
	assert.NotContains(t, v.Answers, wizard.FieldWeight)
}

func TestMemoryDraftsExpire(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDrafts(time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	require.NoError(t, d.Save(ctx, "user_1", wizard.Snapshot{Step: 3}))
	snap, err := d.Load(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 3, snap.Step)

	now = now.Add(2 * time.Minute)
	snap, err = d.Load(ctx, "user_1")
	require.NoError(t, err)
	assert.Nil(t, snap)
}
