package vitals

import (
	"fmt"
	"math"
)

// InvalidMeasurementError reports a measurement field that is out of its
// physical domain (negative or NaN). Classification of such values would
// silently misreport, so they are rejected up front.
type InvalidMeasurementError struct {
	Field string
	Value float64
}

func (e *InvalidMeasurementError) Error() string {
	return fmt.Sprintf("invalid measurement: %s = %g", e.Field, e.Value)
}

// Validate checks the snapshot's fields for physical plausibility. It returns
// an *InvalidMeasurementError naming the first offending field.
func (s MeasurementSnapshot) Validate() error {
	checks := []struct {
		field string
		value float64
	}{
		{"systolic", s.Systolic},
		{"diastolic", s.Diastolic},
		{"heart_rate", s.HeartRate},
	}
	for _, c := range checks {
		if c.value < 0 || math.IsNaN(c.value) {
			return &InvalidMeasurementError{Field: c.field, Value: c.value}
		}
	}
	if math.IsNaN(s.Temperature) {
		return &InvalidMeasurementError{Field: "temperature", Value: s.Temperature}
	}
	if s.Height != nil && (*s.Height <= 0 || math.IsNaN(*s.Height)) {
		return &InvalidMeasurementError{Field: "height", Value: *s.Height}
	}
	if s.Weight != nil && (*s.Weight <= 0 || math.IsNaN(*s.Weight)) {
		return &InvalidMeasurementError{Field: "weight", Value: *s.Weight}
	}
	return nil
}
