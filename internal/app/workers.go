package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/healthalyze/healthalyze_backend/config"
	"github.com/healthalyze/healthalyze_backend/pkg/events"
	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

const (
	workerInstrumentation = "github.com/healthalyze/healthalyze_backend/internal/app"

	// queue group so that only one replica handles each event
	riskWorkerQueue = "risk-worker"
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg *config.Config
	NC  *nats.Conn
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		slog.Info("risk_worker: events disabled, not started")
		return
	}

	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w, err := newRiskWorker(otel.Meter(workerInstrumentation))
			if err != nil {
				return err
			}
			sub, err = p.NC.QueueSubscribe(events.StoredSubject(p.Cfg.Events.SubjectPrefix), riskWorkerQueue, w.handle)
			if err != nil {
				return err
			}
			slog.Info("risk_worker: started", "subject", sub.Subject)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// connection drain is handled by ProvideNatsClient
			if sub == nil {
				return nil
			}
			return sub.Unsubscribe()
		},
	})
}

// ---------------------------------------------------------------------------
// risk_worker
// ---------------------------------------------------------------------------

// riskWorker counts stored assessments by risk level and flags high-risk
// results in the log for the care team.
type riskWorker struct {
	stored metric.Int64Counter
}

func newRiskWorker(meter metric.Meter) (*riskWorker, error) {
	stored, err := meter.Int64Counter(
		"assessments_stored_total",
		metric.WithDescription("Stored stroke-risk assessments by risk level"),
		metric.WithUnit("{assessment}"),
	)
	if err != nil {
		return nil, err
	}
	return &riskWorker{stored: stored}, nil
}

// handle continues the publisher's trace, so the record span hangs off the
// request that stored the assessment.
func (w *riskWorker) handle(msg *nats.Msg) {
	ctx := events.ExtractContext(context.Background(), msg)
	ctx, span := otel.Tracer(workerInstrumentation).Start(ctx, "risk_worker.record",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("messaging.destination.name", msg.Subject)),
	)
	defer span.End()

	w.record(ctx, msg.Data)
}

func (w *riskWorker) record(ctx context.Context, data []byte) {
	e, err := events.DecodeAssessmentStored(data)
	if err != nil {
		slog.WarnContext(ctx, "risk_worker: dropping malformed event", "err", err)
		return
	}

	level := e.RiskLevel.String()
	if !e.RiskLevel.Valid() {
		level = "unknown"
	}
	w.stored.Add(ctx, 1, metric.WithAttributes(attribute.String("risk_level", level)))

	if e.RiskLevel == risk.High {
		slog.WarnContext(ctx, "risk_worker: high stroke risk recorded",
			"subject", e.SubjectID,
			"probability", e.Probability,
			"stored_at", e.StoredAt,
		)
	}
}
