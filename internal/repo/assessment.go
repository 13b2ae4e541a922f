package repo

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

// Table is the assessments table name.
const Table = "stroke_predictions"

// Column names.
const (
	ColumnSubjectID        = "subject_id"
	ColumnAge              = "age"
	ColumnHypertension     = "hypertension"
	ColumnHeartDisease     = "heart_disease"
	ColumnAvgGlucoseLevel  = "avg_glucose_level"
	ColumnBMI              = "bmi"
	ColumnGender           = "gender"
	ColumnSmokingStatus    = "smoking_status"
	ColumnResidence        = "residence"
	ColumnWorkType         = "work_type"
	ColumnEverMarried      = "ever_married"
	ColumnPhysicalActivity = "physical_activity"
	ColumnRiskProbability  = "risk_probability"
	ColumnRiskLevel        = "risk_level"
	ColumnAdvice           = "advice"
	ColumnCreatedAt        = "created_at"
	ColumnUpdatedAt        = "updated_at"
)

// columns is the select order used by scan.
var columns = []string{
	ColumnSubjectID,
	ColumnAge,
	ColumnHypertension,
	ColumnHeartDisease,
	ColumnAvgGlucoseLevel,
	ColumnBMI,
	ColumnGender,
	ColumnSmokingStatus,
	ColumnResidence,
	ColumnWorkType,
	ColumnEverMarried,
	ColumnPhysicalActivity,
	ColumnRiskProbability,
	ColumnRiskLevel,
	ColumnAdvice,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

// Assessment is the durable record for one subject.
type Assessment struct {
	SubjectID        string     `json:"subject_id"`
	Age              int        `json:"age"`
	Hypertension     int        `json:"hypertension"`
	HeartDisease     int        `json:"heart_disease"`
	AvgGlucoseLevel  float64    `json:"avg_glucose_level"`
	BMI              float64    `json:"bmi"`
	Gender           string     `json:"gender"`
	SmokingStatus    string     `json:"smoking_status"`
	Residence        string     `json:"residence"`
	WorkType         string     `json:"work_type"`
	EverMarried      string     `json:"ever_married"`
	PhysicalActivity string     `json:"physical_activity"`
	RiskProbability  float64    `json:"risk_probability"`
	RiskLevel        risk.Level `json:"risk_level"`
	Advice           string     `json:"advice"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// values returns the non-timestamp column values in columns order.
func (a *Assessment) values() []any {
	return []any{
		a.SubjectID,
		a.Age,
		a.Hypertension,
		a.HeartDisease,
		a.AvgGlucoseLevel,
		a.BMI,
		a.Gender,
		a.SmokingStatus,
		a.Residence,
		a.WorkType,
		a.EverMarried,
		a.PhysicalActivity,
		a.RiskProbability,
		string(a.RiskLevel),
		a.Advice,
	}
}

// Validate checks that every required column holds a storable value.
func (a *Assessment) Validate() error {
	if strings.TrimSpace(a.SubjectID) == "" {
		return &FieldValueError{Field: ColumnSubjectID, Reason: "must not be empty"}
	}
	if a.Age <= 0 {
		return &FieldValueError{Field: ColumnAge, Reason: "must be positive"}
	}
	if a.Hypertension != 0 && a.Hypertension != 1 {
		return &FieldValueError{Field: ColumnHypertension, Reason: "must be 0 or 1"}
	}
	if a.HeartDisease != 0 && a.HeartDisease != 1 {
		return &FieldValueError{Field: ColumnHeartDisease, Reason: "must be 0 or 1"}
	}
	if !positiveFinite(a.AvgGlucoseLevel) {
		return &FieldValueError{Field: ColumnAvgGlucoseLevel, Reason: "must be a positive number"}
	}
	if !positiveFinite(a.BMI) {
		return &FieldValueError{Field: ColumnBMI, Reason: "must be a positive number"}
	}
	texts := []struct{ col, v string }{
		{ColumnGender, a.Gender},
		{ColumnSmokingStatus, a.SmokingStatus},
		{ColumnResidence, a.Residence},
		{ColumnWorkType, a.WorkType},
		{ColumnEverMarried, a.EverMarried},
		{ColumnPhysicalActivity, a.PhysicalActivity},
	}
	for _, t := range texts {
		if strings.TrimSpace(t.v) == "" {
			return &FieldValueError{Field: t.col, Reason: "must not be empty"}
		}
	}
	if math.IsNaN(a.RiskProbability) || a.RiskProbability < 0 || a.RiskProbability > 100 {
		return &FieldValueError{Field: ColumnRiskProbability, Reason: "must be within [0, 100]"}
	}
	if !a.RiskLevel.Valid() {
		return &FieldValueError{Field: ColumnRiskLevel, Reason: fmt.Sprintf("unknown risk level %q", a.RiskLevel)}
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(r rowScanner) (*Assessment, error) {
	var (
		a     Assessment
		level string
	)
	err := r.Scan(
		&a.SubjectID,
		&a.Age,
		&a.Hypertension,
		&a.HeartDisease,
		&a.AvgGlucoseLevel,
		&a.BMI,
		&a.Gender,
		&a.SmokingStatus,
		&a.Residence,
		&a.WorkType,
		&a.EverMarried,
		&a.PhysicalActivity,
		&a.RiskProbability,
		&level,
		&a.Advice,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.RiskLevel = risk.Level(level)
	return &a, nil
}

func scanAssessments(rows *sql.Rows) ([]*Assessment, error) {
	defer rows.Close()

	out := []*Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
