package statistics

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/healthalyze/healthalyze_backend/internal/repo"
	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Histogram holds one bucket per observed label; unobserved labels are
// never zero-filled.
type Histogram []Bucket

// Map returns the histogram as label -> count.
func (h Histogram) Map() map[string]int {
	return lo.SliceToMap(h, func(b Bucket) (string, int) { return b.Label, b.Count })
}

// Snapshot is computed on every call and never cached.
type Snapshot struct {
	Count int `json:"count"`
	// AvgAge is nil for an empty store.
	AvgAge        *float64           `json:"avg_age"`
	RiskLevels    Histogram          `json:"risk_levels"`
	SmokingStatus Histogram          `json:"smoking_status"`
	Rows          []*repo.Assessment `json:"rows"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Source is the read side of the assessment store.
type Source interface {
	Aggregate(ctx context.Context) (*repo.Aggregates, error)
}

type Service interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type statisticsService struct {
	src Source
	now func() time.Time
}

func New(src Source) Service {
	return &statisticsService{src: src, now: time.Now}
}

func (s *statisticsService) Snapshot(ctx context.Context) (*Snapshot, error) {
	agg, err := s.src.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics snapshot: %w", err)
	}

	rows := agg.Rows
	if rows == nil {
		rows = []*repo.Assessment{}
	}
	return &Snapshot{
		Count:         agg.Count,
		AvgAge:        agg.AvgAge,
		RiskLevels:    riskHistogram(agg.RiskLevels),
		SmokingStatus: countHistogram(agg.SmokingStatus),
		Rows:          rows,
		GeneratedAt:   s.now().UTC(),
	}, nil
}

// riskHistogram orders buckets by risk rank; unknown labels sort last.
func riskHistogram(counts map[string]int) Histogram {
	h := toHistogram(counts)
	rank := func(label string) int {
		if r := risk.Level(label).Rank(); r >= 0 {
			return r
		}
		return len(risk.Levels())
	}
	slices.SortStableFunc(h, func(a, b Bucket) int {
		return cmp.Or(cmp.Compare(rank(a.Label), rank(b.Label)), cmp.Compare(a.Label, b.Label))
	})
	return h
}

// countHistogram orders buckets by count, largest first.
func countHistogram(counts map[string]int) Histogram {
	h := toHistogram(counts)
	slices.SortStableFunc(h, func(a, b Bucket) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Label, b.Label))
	})
	return h
}

func toHistogram(counts map[string]int) Histogram {
	h := lo.MapToSlice(counts, func(label string, n int) Bucket {
		return Bucket{Label: label, Count: n}
	})
	if h == nil {
		h = Histogram{}
	}
	return h
}
