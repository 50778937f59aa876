package vitals

import "fmt"

// IdentifyRiskFactors derives risk factors from a snapshot. Emission order is
// a contract: BMI first, then blood pressure.
func IdentifyRiskFactors(snapshot MeasurementSnapshot) []RiskFactor {
	var factors []RiskFactor

	if snapshot.Height != nil && snapshot.Weight != nil && *snapshot.Height > 0 {
		bmi := *snapshot.Weight / (*snapshot.Height * *snapshot.Height)
		if bmi >= 25 {
			category, priority := CategoryOverweight, PriorityMedium
			if bmi >= 30 {
				category, priority = CategoryObese, PriorityHigh
			}
			factors = append(factors, RiskFactor{
				Factor:   "BMI",
				Value:    bmi,
				Category: category,
				Priority: priority,
			})
		}
	}

	bp := ClassifyBloodPressure(snapshot.Systolic, snapshot.Diastolic)
	switch bp.Category {
	case CategoryStage1, CategoryStage2, CategoryCrisis:
		priority := PriorityMedium
		if bp.NeedsAttention {
			priority = PriorityHigh
		}
		factors = append(factors, RiskFactor{
			Factor:   "Blood Pressure",
			Value:    fmt.Sprintf("%g/%g", snapshot.Systolic, snapshot.Diastolic),
			Category: bp.Category,
			Priority: priority,
		})
	}

	return factors
}
