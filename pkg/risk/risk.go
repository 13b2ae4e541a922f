// Package risk defines the ordered stroke-risk categories shared by the
// predictor contract, the questionnaire and the assessment store.
package risk

import "fmt"

// Level is an ordered risk category: VeryLow < Low < Moderate < High.
type Level string

const (
	VeryLow  Level = "Very Low"
	Low      Level = "Low"
	Moderate Level = "Moderate"
	High     Level = "High"
)

var ordered = []Level{VeryLow, Low, Moderate, High}

// Levels returns the known levels in ascending order.
func Levels() []Level {
	out := make([]Level, len(ordered))
	copy(out, ordered)
	return out
}

// Rank returns the position of l in the ordering, or -1 if l is unknown.
func (l Level) Rank() int {
	for i, o := range ordered {
		if o == l {
			return i
		}
	}
	return -1
}

func (l Level) Valid() bool {
	return l.Rank() >= 0
}

func (l Level) String() string {
	return string(l)
}

// Parse converts s into a known Level.
func Parse(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return l, nil
}

// FromProbability buckets a probability expressed in percent using the
// predictor's published cut-offs (20, 40, 65).
func FromProbability(percent float64) Level {
	switch {
	case percent < 20:
		return VeryLow
	case percent < 40:
		return Low
	case percent < 65:
		return Moderate
	default:
		return High
	}
}
