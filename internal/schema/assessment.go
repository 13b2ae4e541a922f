package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Assessment is one subject's latest stroke-risk assessment: the answers
// flattened to columns plus the predictor's verdict. At most one row exists
// per subject.
type Assessment struct {
	ent.Schema
}

func (Assessment) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("subject_id").
			NotEmpty().
			MaxLen(255).
			Immutable().
			Comment("Opaque subject identity from the identity provider"),

		field.Int("age").
			Positive(),

		field.Int("hypertension").
			Range(0, 1).
			Comment("0 = No, 1 = Yes"),

		field.Int("heart_disease").
			Range(0, 1).
			Comment("0 = No, 1 = Yes"),

		field.Float("avg_glucose_level").
			Positive(),

		field.Float("bmi").
			Positive().
			Comment("Derived from height and weight, two decimals"),

		field.String("gender").
			NotEmpty(),

		field.String("smoking_status").
			NotEmpty(),

		field.String("residence").
			NotEmpty(),

		field.String("work_type").
			NotEmpty(),

		field.String("ever_married").
			NotEmpty(),

		field.String("physical_activity").
			NotEmpty(),

		field.Float("risk_probability").
			Min(0).
			Max(100).
			Comment("Stroke probability in percent"),

		field.String("risk_level").
			NotEmpty().
			Comment("Very Low | Low | Moderate | High"),

		field.Text("advice"),
	}
}

func (Assessment) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeStampedMixin{},
	}
}

func (Assessment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
		index.Fields("risk_level"),
	}
}
