package wizard

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// Field names. The order of the default catalog is the order the
// questionnaire asks them in.
const (
	FieldGender           = "gender"
	FieldAge              = "age"
	FieldHypertension     = "hypertension"
	FieldHeartDisease     = "heart_disease"
	FieldAvgGlucoseLevel  = "avg_glucose_level"
	FieldHeight           = "height"
	FieldWeight           = "weight"
	FieldSmokingStatus    = "smoking_status"
	FieldResidence        = "residence"
	FieldWorkType         = "work_type"
	FieldEverMarried      = "ever_married"
	FieldPhysicalActivity = "physical_activity"
)

// Bounds constrain a numeric field. Min is exclusive when MinExclusive is
// set; Max is always inclusive.
type Bounds struct {
	Min          float64 `json:"min"`
	MinExclusive bool    `json:"min_exclusive"`
	Max          float64 `json:"max"`
	Integer      bool    `json:"integer"`
}

// Field is one immutable question definition.
type Field struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Prompt  string   `json:"prompt"`
	Kind    Kind     `json:"kind"`
	Choices []string `json:"choices,omitempty"`
	Bounds  *Bounds  `json:"bounds,omitempty"`
	// Binary marks a No/Yes choice that the predictor receives as 0/1.
	Binary bool `json:"binary,omitempty"`
}

// Validate checks v against the field. present reports whether the answer
// set holds a value for the field at all.
func (f Field) Validate(v Value, present bool) error {
	if !present || v.kind == "" {
		return &ValidationError{Field: f.Name, Constraint: ConstraintRequired, Detail: "a value is required"}
	}
	if v.kind != f.Kind {
		return &ValidationError{Field: f.Name, Constraint: ConstraintType, Detail: fmt.Sprintf("expected a %s", f.Kind)}
	}

	switch f.Kind {
	case KindNumber:
		return f.validateNumber(v.number)
	case KindChoice:
		if !lo.Contains(f.Choices, v.choice) {
			return &ValidationError{Field: f.Name, Constraint: ConstraintChoice, Detail: fmt.Sprintf("%q is not one of %v", v.choice, f.Choices)}
		}
	}
	return nil
}

func (f Field) validateNumber(n float64) error {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return &ValidationError{Field: f.Name, Constraint: ConstraintBounds, Detail: "must be a finite number"}
	}
	b := f.Bounds
	if b == nil {
		return nil
	}
	if b.Integer && n != math.Trunc(n) {
		return &ValidationError{Field: f.Name, Constraint: ConstraintInteger, Detail: "must be a whole number"}
	}
	if n < b.Min || (b.MinExclusive && n == b.Min) {
		op := ">="
		if b.MinExclusive {
			op = ">"
		}
		return &ValidationError{Field: f.Name, Constraint: ConstraintBounds, Detail: fmt.Sprintf("must be %s %v", op, b.Min)}
	}
	if n > b.Max {
		return &ValidationError{Field: f.Name, Constraint: ConstraintBounds, Detail: fmt.Sprintf("must be <= %v", b.Max)}
	}
	return nil
}

// Catalog is the ordered list of questions.
type Catalog []Field

// Lookup finds a field by name and returns its step index.
func (c Catalog) Lookup(name string) (Field, int, bool) {
	f, i, ok := lo.FindIndexOf(c, func(f Field) bool { return f.Name == name })
	return f, i, ok
}

func (c Catalog) Names() []string {
	return lo.Map(c, func(f Field, _ int) string { return f.Name })
}

var yesNo = []string{"No", "Yes"}

func positive(max float64, integer bool) *Bounds {
	return &Bounds{Min: 0, MinExclusive: true, Max: max, Integer: integer}
}

// DefaultCatalog returns a fresh copy of the stroke-risk questionnaire.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: FieldGender, Title: "Gender", Prompt: "Let's start with your gender.", Kind: KindChoice, Choices: []string{"Male", "Female", "Other"}},
		{Name: FieldAge, Title: "Age", Prompt: "What's your age?", Kind: KindNumber, Bounds: positive(120, true)},
		{Name: FieldHypertension, Title: "Hypertension", Prompt: "Do you have hypertension?", Kind: KindChoice, Choices: yesNo, Binary: true},
		{Name: FieldHeartDisease, Title: "Heart Disease", Prompt: "What about heart disease?", Kind: KindChoice, Choices: yesNo, Binary: true},
		{Name: FieldAvgGlucoseLevel, Title: "Average Glucose Level", Prompt: "Okay! Let's check your average glucose level.", Kind: KindNumber, Bounds: positive(300, false)},
		{Name: FieldHeight, Title: "Height", Prompt: "What's your height? (in cm)", Kind: KindNumber, Bounds: positive(250, false)},
		{Name: FieldWeight, Title: "Weight", Prompt: "What's your weight? (in kg)", Kind: KindNumber, Bounds: positive(300, false)},
		{Name: FieldSmokingStatus, Title: "Smoking Status", Prompt: "Do you smoke?", Kind: KindChoice, Choices: []string{"Never smoked", "Formerly smoked", "Smokes"}},
		{Name: FieldResidence, Title: "Residence", Prompt: "And where do you live?", Kind: KindChoice, Choices: []string{"Urban", "Rural"}},
		{Name: FieldWorkType, Title: "Work Type", Prompt: "What kind of work do you do?", Kind: KindChoice, Choices: []string{"Private", "Self-employed", "Govt_job", "children", "Never_worked"}},
		{Name: FieldEverMarried, Title: "Ever Married", Prompt: "Are you married?", Kind: KindChoice, Choices: []string{"Yes", "No"}},
		{Name: FieldPhysicalActivity, Title: "Physical Activity", Prompt: "Final one: do you do any physical activity regularly?", Kind: KindChoice, Choices: []string{"Low", "Moderate", "High"}},
	}
}

var encouragingMessages = []string{
	"Hello! Let's learn more about you.",
	"I want to learn more.",
	"Halfway there! Your input is valuable.",
	"Almost done! Just a few more questions.",
	"Last stretch! You're providing crucial information.",
}

// EncouragingMessage returns the banner shown for a step; it changes every
// three steps.
func EncouragingMessage(step int) string {
	i := max(step, 0) / 3
	return encouragingMessages[min(i, len(encouragingMessages)-1)]
}
