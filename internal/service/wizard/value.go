package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// Kind is the value kind a field accepts.
type Kind string

const (
	KindNumber Kind = "number"
	KindChoice Kind = "choice"
)

// Value is a typed scalar answer: a number or one of a field's choices.
// The zero Value has no kind and never validates.
type Value struct {
	kind   Kind
	number float64
	choice string
}

func Number(f float64) Value { return Value{kind: KindNumber, number: f} }

func Choice(s string) Value { return Value{kind: KindChoice, choice: s} }

func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric payload; ok is false for non-numbers.
func (v Value) Float() (float64, bool) {
	return v.number, v.kind == KindNumber
}

// Text returns the choice payload; ok is false for non-choices.
func (v Value) Text() (string, bool) {
	return v.choice, v.kind == KindChoice
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case KindChoice:
		return v.choice
	default:
		return "<empty>"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.number)
	case KindChoice:
		return json.Marshal(v.choice)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Choice(s)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("answer must be a number or a string: %w", err)
		}
		*v = Number(f)
	}
	return nil
}

// AnswerSet maps field names to answers.
type AnswerSet map[string]Value

// Clone returns an independent copy of a.
func (a AnswerSet) Clone() AnswerSet {
	if a == nil {
		return AnswerSet{}
	}
	return maps.Clone(a)
}

func (a AnswerSet) number(name string) float64 {
	f, _ := a[name].Float()
	return f
}

func (a AnswerSet) text(name string) string {
	s, _ := a[name].Text()
	return s
}
