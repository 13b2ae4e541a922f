// Package bmi derives body-mass index from height and weight.
package bmi

import (
	"fmt"
	"math"
)

// InvalidMeasurementError reports a height or weight that cannot yield a finite BMI.
type InvalidMeasurementError struct {
	Field string
	Value float64
}

func (e *InvalidMeasurementError) Error() string {
	return fmt.Sprintf("invalid measurement: %s must be a positive finite number, got %v", e.Field, e.Value)
}

// Calculate returns weight / (height/100)^2 rounded to two decimals.
// heightCM is in centimetres, weightKG in kilograms.
func Calculate(heightCM, weightKG float64) (float64, error) {
	if !(heightCM > 0) || math.IsInf(heightCM, 0) {
		return 0, &InvalidMeasurementError{Field: "height", Value: heightCM}
	}
	if !(weightKG > 0) || math.IsInf(weightKG, 0) {
		return 0, &InvalidMeasurementError{Field: "weight", Value: weightKG}
	}

	m := heightCM / 100
	return Round2(weightKG / (m * m)), nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
