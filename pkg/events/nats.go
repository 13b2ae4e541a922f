package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/healthalyze/healthalyze_backend/config"
)

const (
	topicAssessmentStored = "assessment.stored"

	connectTimeout = 5 * time.Second
)

// StoredSubject returns the NATS subject carrying AssessmentStored events.
func StoredSubject(prefix string) string {
	if prefix == "" {
		return topicAssessmentStored
	}
	return prefix + "." + topicAssessmentStored
}

// Connect opens a NATS connection that reconnects forever.
func Connect(cfg config.EventsConfig, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", cfg.NatsURL, err)
	}
	return nc, nil
}

// NatsPublisher publishes JSON encoded events on a NATS connection. The
// caller's trace context travels in the message headers.
type NatsPublisher struct {
	nc     *nats.Conn
	prefix string
}

func NewNatsPublisher(nc *nats.Conn, prefix string) *NatsPublisher {
	return &NatsPublisher{nc: nc, prefix: prefix}
}

func (p *NatsPublisher) PublishAssessmentStored(ctx context.Context, e AssessmentStored) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := nats.NewMsg(StoredSubject(p.prefix))
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// ExtractContext returns ctx carrying the trace context published with msg.
func ExtractContext(ctx context.Context, msg *nats.Msg) context.Context {
	if msg == nil || msg.Header == nil {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))
}

// DecodeAssessmentStored parses an AssessmentStored payload.
func DecodeAssessmentStored(data []byte) (AssessmentStored, error) {
	var e AssessmentStored
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decode %s event: %w", topicAssessmentStored, err)
	}
	if e.SubjectID == "" {
		return e, fmt.Errorf("decode %s event: missing subject_id", topicAssessmentStored)
	}
	return e, nil
}
