package repo

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// Aggregates are the dashboard figures computed from one consistent read.
type Aggregates struct {
	Count int
	// AvgAge is nil when there are no records.
	AvgAge        *float64
	RiskLevels    map[string]int
	SmokingStatus map[string]int
	Rows          []*Assessment
}

// Aggregate reads every figure inside a single read transaction.
func (s *Store) Aggregate(ctx context.Context) (*Aggregates, error) {
	tx, err := s.db.BeginTx(ctx, s.readTxOptions())
	if err != nil {
		return nil, fmt.Errorf("aggregate assessments: begin: %w", err)
	}
	defer tx.Rollback()

	agg := &Aggregates{}
	if agg.Count, agg.AvgAge, err = s.countAndAvgAge(ctx, tx); err != nil {
		return nil, err
	}
	if agg.RiskLevels, err = s.histogram(ctx, tx, ColumnRiskLevel); err != nil {
		return nil, err
	}
	if agg.SmokingStatus, err = s.histogram(ctx, tx, ColumnSmokingStatus); err != nil {
		return nil, err
	}

	b := s.builder()
	query, args := b.Select(columns...).
		From(b.Table(Table)).
		OrderBy(entsql.Desc(ColumnCreatedAt), entsql.Asc(ColumnSubjectID)).
		Query()
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate assessments: rows: %w", err)
	}
	if agg.Rows, err = scanAssessments(rows); err != nil {
		return nil, fmt.Errorf("aggregate assessments: rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("aggregate assessments: commit: %w", err)
	}
	return agg, nil
}

func (s *Store) countAndAvgAge(ctx context.Context, q querier) (int, *float64, error) {
	b := s.builder()
	query, args := b.Select(entsql.Count("*"), entsql.Avg(ColumnAge)).
		From(b.Table(Table)).
		Query()

	var (
		n   int
		avg sql.NullFloat64
	)
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n, &avg); err != nil {
		return 0, nil, fmt.Errorf("aggregate assessments: count: %w", err)
	}
	if n == 0 || !avg.Valid {
		return n, nil, nil
	}
	return n, &avg.Float64, nil
}

// histogram counts rows per distinct value of column. Unobserved values
// get no bucket.
func (s *Store) histogram(ctx context.Context, q querier, column string) (map[string]int, error) {
	b := s.builder()
	query, args := b.Select(column, entsql.Count("*")).
		From(b.Table(Table)).
		GroupBy(column).
		Query()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate assessments: %s histogram: %w", column, err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("aggregate assessments: %s histogram: %w", column, err)
		}
		out[label] = n
	}
	return out, rows.Err()
}
