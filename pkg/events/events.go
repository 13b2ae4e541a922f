// Package events publishes assessment lifecycle events for downstream
// consumers such as care-team dashboards.
package events

import (
	"context"
	"time"

	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

// AssessmentStored is emitted after a questionnaire result was written.
type AssessmentStored struct {
	SubjectID   string     `json:"subject_id"`
	RiskLevel   risk.Level `json:"risk_level"`
	Probability float64    `json:"probability"`
	StoredAt    time.Time  `json:"stored_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishAssessmentStored(ctx context.Context, e AssessmentStored) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishAssessmentStored(context.Context, AssessmentStored) error { return nil }
