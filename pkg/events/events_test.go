package events

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

func TestStoredSubject(t *testing.T) {
	assert.Equal(t, "healthalyze.assessment.stored", StoredSubject("healthalyze"))
	assert.Equal(t, "assessment.stored", StoredSubject(""))
}

func TestDecodeAssessmentStored(t *testing.T) {
	e, err := DecodeAssessmentStored([]byte(`{"subject_id":"p-1","risk_level":"High","probability":71.2,"stored_at":"2026-01-02T03:04:05Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "p-1", e.SubjectID)
	assert.Equal(t, risk.High, e.RiskLevel)
	assert.Equal(t, 71.2, e.Probability)
	assert.True(t, e.StoredAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	_, err = DecodeAssessmentStored([]byte(`{"risk_level":"High"}`))
	assert.Error(t, err)

	_, err = DecodeAssessmentStored([]byte(`not json`))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishAssessmentStored(context.Background(), AssessmentStored{SubjectID: "p-1"}))
}

func TestExtractContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x1b, 0x2c, 0x3d, 0x4e, 0x5f, 0x60, 0x71, 0x82, 0x93, 0xa4, 0xb5, 0xc6, 0xd7, 0xe8, 0xf9},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	msg := nats.NewMsg(StoredSubject("healthalyze"))
	otel.GetTextMapPropagator().Inject(trace.ContextWithSpanContext(context.Background(), sc), propagation.HeaderCarrier(msg.Header))

	got := trace.SpanContextFromContext(ExtractContext(context.Background(), msg))
	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.Equal(t, sc.SpanID(), got.SpanID())
	assert.True(t, got.IsRemote())

	bare := &nats.Msg{Subject: "healthalyze.assessment.stored"}
	assert.False(t, trace.SpanContextFromContext(ExtractContext(context.Background(), bare)).IsValid())
}
