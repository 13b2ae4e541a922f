package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

type columnKind int

const (
	kindPositiveInt columnKind = iota
	kindFlag
	kindPositiveFloat
	kindPercent
	kindLabel
	kindText
	kindRiskLevel
)

// updatable enumerates the columns Update may change; identity and
// timestamp columns are not in it.
var updatable = map[string]columnKind{
	ColumnAge:              kindPositiveInt,
	ColumnHypertension:     kindFlag,
	ColumnHeartDisease:     kindFlag,
	ColumnAvgGlucoseLevel:  kindPositiveFloat,
	ColumnBMI:              kindPositiveFloat,
	ColumnGender:           kindLabel,
	ColumnSmokingStatus:    kindLabel,
	ColumnResidence:        kindLabel,
	ColumnWorkType:         kindLabel,
	ColumnEverMarried:      kindLabel,
	ColumnPhysicalActivity: kindLabel,
	ColumnRiskProbability:  kindPercent,
	ColumnRiskLevel:        kindRiskLevel,
	ColumnAdvice:           kindText,
}

// UpdatableFields lists the column names accepted by Update, sorted.
func UpdatableFields() []string {
	return slices.Sorted(maps.Keys(updatable))
}

// Update replaces only the named columns of subjectID's record and returns
// the result. Unknown names fail with *UnknownFieldError, bad values with
// *FieldValueError and a missing record with ErrNotFound. Nothing is
// written unless every field is acceptable.
func (s *Store) Update(ctx context.Context, subjectID string, fields map[string]any) (*Assessment, error) {
	names := slices.Sorted(maps.Keys(fields))
	values := make([]any, len(names))
	for i, name := range names {
		kind, ok := updatable[name]
		if !ok {
			return nil, &UnknownFieldError{Field: name}
		}
		v, err := coerce(name, kind, fields[name])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	unlock := s.locks.Lock(subjectID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update assessment: begin: %w", err)
	}
	defer tx.Rollback()

	if len(names) > 0 {
		u := s.builder().Update(Table)
		for i, name := range names {
			u.Set(name, values[i])
		}
		query, args := u.Set(ColumnUpdatedAt, s.timestamp()).
			Where(entsql.EQ(ColumnSubjectID, subjectID)).
			Query()

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("update assessment: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("update assessment: %w", err)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
	}

	a, err := s.get(ctx, tx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("update assessment: read back: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update assessment: commit: %w", err)
	}
	return a, nil
}

func coerce(name string, kind columnKind, v any) (any, error) {
	invalid := func(reason string) error {
		return &FieldValueError{Field: name, Reason: reason}
	}

	switch kind {
	case kindPositiveInt:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) || f <= 0 {
			return nil, invalid("must be a positive whole number")
		}
		return int(f), nil
	case kindFlag:
		if b, ok := v.(bool); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		f, ok := toFloat(v)
		if !ok || (f != 0 && f != 1) {
			return nil, invalid("must be 0 or 1")
		}
		return int(f), nil
	case kindPositiveFloat:
		f, ok := toFloat(v)
		if !ok || !positiveFinite(f) {
			return nil, invalid("must be a positive number")
		}
		return f, nil
	case kindPercent:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || f < 0 || f > 100 {
			return nil, invalid("must be within [0, 100]")
		}
		return f, nil
	case kindLabel:
		str, ok := v.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return nil, invalid("must be a non-empty string")
		}
		return str, nil
	case kindText:
		str, ok := v.(string)
		if !ok {
			return nil, invalid("must be a string")
		}
		return str, nil
	case kindRiskLevel:
		str, ok := v.(string)
		if !ok {
			return nil, invalid("must be a string")
		}
		l, err := risk.Parse(str)
		if err != nil {
			return nil, invalid(err.Error())
		}
		return string(l), nil
	}
	return nil, invalid("unsupported column")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
