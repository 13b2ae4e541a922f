package app

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthalyze/healthalyze_backend/pkg/events"
)

func TestRiskWorkerCountsByLevel(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	w, err := newRiskWorker(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	w.record(ctx, []byte(`{"subject_id":"a","risk_level":"High","probability":80}`))
	w.record(ctx, []byte(`{"subject_id":"b","risk_level":"High","probability":70}`))
	w.record(ctx, []byte(`{"subject_id":"c","risk_level":"Low","probability":30}`))
	w.record(ctx, []byte(`{"subject_id":"d","risk_level":"Severe","probability":99}`))
	w.record(ctx, []byte(`garbage`))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		level, _ := dp.Attributes.Value(attribute.Key("risk_level"))
		got[level.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"High": 2, "Low": 1, "unknown": 1}, got)
}

func TestRiskWorkerContinuesPublisherTrace(t *testing.T) {
	prevProp, prevTP := otel.GetTextMapPropagator(), otel.GetTracerProvider()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTextMapPropagator(prevProp)
		otel.SetTracerProvider(prevTP)
		_ = tp.Shutdown(context.Background())
	})

	provider := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	w, err := newRiskWorker(provider.Meter("test"))
	require.NoError(t, err)

	pubCtx, pubSpan := tp.Tracer("publisher").Start(context.Background(), "intake.Submit")
	msg := nats.NewMsg(events.StoredSubject("healthalyze"))
	msg.Data = []byte(`{"subject_id":"a","risk_level":"Moderate","probability":50}`)
	otel.GetTextMapPropagator().Inject(pubCtx, propagation.HeaderCarrier(msg.Header))
	pubSpan.End()

	w.handle(msg)

	var consumer sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "risk_worker.record" {
			consumer = s
		}
	}
	require.NotNil(t, consumer)
	assert.Equal(t, trace.SpanKindConsumer, consumer.SpanKind())
	assert.Equal(t, pubSpan.SpanContext().TraceID(), consumer.SpanContext().TraceID())
	assert.Equal(t, pubSpan.SpanContext().SpanID(), consumer.Parent().SpanID())
}
