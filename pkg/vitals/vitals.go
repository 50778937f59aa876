// Package vitals evaluates vital-sign measurements against fixed clinical
// threshold tables. It produces categorical assessments per sign, a derived
// risk-factor list, and per-metric trend direction over an ordered history of
// measurements. All functions are pure and safe for concurrent use.
package vitals

// Category is a categorical assessment label for a vital sign.
type Category string

const (
	CategoryNormal   Category = "normal"
	CategoryElevated Category = "elevated"
	CategoryStage1   Category = "stage1"
	CategoryStage2   Category = "stage2"
	CategoryCrisis   Category = "crisis"
	CategoryAbnormal Category = "abnormal"
	// CategoryUnknown is the blood-pressure fallback when no rule matches.
	// The rule table covers the full non-negative range, so this should not
	// be observable in practice.
	CategoryUnknown Category = "unknown"

	CategoryOverweight Category = "overweight"
	CategoryObese      Category = "obese"
)

// Priority ranks a risk factor for downstream presentation.
type Priority string

const (
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// MeasurementSnapshot is one point-in-time set of vital-sign readings.
// Height (metres) and Weight (kilograms) are optional and only participate in
// BMI risk assessment and trend analysis when present.
type MeasurementSnapshot struct {
	Systolic    float64  `json:"systolic"`
	Diastolic   float64  `json:"diastolic"`
	HeartRate   float64  `json:"heart_rate"`
	Temperature float64  `json:"temperature"`
	Height      *float64 `json:"height,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
}

// BloodPressureResult is the categorical assessment of one reading.
type BloodPressureResult struct {
	Systolic       float64  `json:"systolic"`
	Diastolic      float64  `json:"diastolic"`
	Category       Category `json:"category"`
	NeedsAttention bool     `json:"needs_attention"`
}

// HeartRateResult is the categorical assessment of a heart-rate reading.
type HeartRateResult struct {
	Value          float64  `json:"value"`
	Category       Category `json:"category"`
	NeedsAttention bool     `json:"needs_attention"`
}

// TemperatureResult is the categorical assessment of a temperature reading.
type TemperatureResult struct {
	Value          float64  `json:"value"`
	Category       Category `json:"category"`
	NeedsAttention bool     `json:"needs_attention"`
}

// RiskFactor flags a metric (or combination) exceeding a clinically
// significant threshold. Value is a float64 for BMI and a
// "systolic/diastolic" string for blood pressure.
type RiskFactor struct {
	Factor   string      `json:"factor"`
	Value    interface{} `json:"value"`
	Category Category    `json:"category"`
	Priority Priority    `json:"priority"`
}

// VitalSigns groups the per-sign assessments of a single snapshot.
type VitalSigns struct {
	BloodPressure BloodPressureResult `json:"blood_pressure"`
	HeartRate     HeartRateResult     `json:"heart_rate"`
	Temperature   TemperatureResult   `json:"temperature"`
}

// Report is the full output of Analyze. Field names are a stable contract
// consumed by the tool layer and external report generators.
type Report struct {
	VitalSigns  VitalSigns   `json:"vital_signs"`
	Trends      TrendReport  `json:"trends"`
	RiskFactors []RiskFactor `json:"risk_factors"`
}

// bpRule pairs a blood-pressure category with its matching predicate. Rules
// are evaluated in declaration order and the first match wins; the ranges
// overlap intentionally, so the order itself encodes clinical precedence.
type bpRule struct {
	category Category
	matches  func(systolic, diastolic float64) bool
}

// stage2 precedes crisis in evaluation order, so a reading above 180/120
// reports as stage2. Flagged with clinical owners; do not reorder without
// sign-off.
var bpRules = []bpRule{
	{CategoryNormal, func(sys, dia float64) bool { return sys < 120 && dia < 80 }},
	{CategoryElevated, func(sys, dia float64) bool { return sys >= 120 && sys <= 129 && dia < 80 }},
	{CategoryStage1, func(sys, dia float64) bool { return (sys >= 130 && sys <= 139) || (dia >= 80 && dia <= 89) }},
	{CategoryStage2, func(sys, dia float64) bool { return sys >= 140 || dia >= 90 }},
	{CategoryCrisis, func(sys, dia float64) bool { return sys > 180 || dia > 120 }},
}

// ClassifyBloodPressure stages a blood-pressure reading using the AHA
// threshold table. NeedsAttention is set for stage2 and crisis.
func ClassifyBloodPressure(systolic, diastolic float64) BloodPressureResult {
	category := CategoryUnknown
	for _, r := range bpRules {
		if r.matches(systolic, diastolic) {
			category = r.category
			break
		}
	}
	return BloodPressureResult{
		Systolic:       systolic,
		Diastolic:      diastolic,
		Category:       category,
		NeedsAttention: category == CategoryStage2 || category == CategoryCrisis,
	}
}

// ClassifyHeartRate bands a resting heart rate. The normal range is
// 60–100 bpm inclusive.
func ClassifyHeartRate(bpm float64) HeartRateResult {
	normal := bpm >= 60 && bpm <= 100
	category := CategoryAbnormal
	if normal {
		category = CategoryNormal
	}
	return HeartRateResult{
		Value:          bpm,
		Category:       category,
		NeedsAttention: !normal,
	}
}

// ClassifyTemperature bands a body temperature in °C. The normal range is
// 36.1–37.2. NeedsAttention fires only above 38.0, independent of the
// category boundary: a low-grade 37.5 reads abnormal without being flagged.
func ClassifyTemperature(celsius float64) TemperatureResult {
	normal := celsius >= 36.1 && celsius <= 37.2
	category := CategoryAbnormal
	if normal {
		category = CategoryNormal
	}
	return TemperatureResult{
		Value:          celsius,
		Category:       category,
		NeedsAttention: celsius > 38.0,
	}
}

// Analyze validates the snapshot and produces the full assessment: per-sign
// categories, trends over the history (the snapshot itself is the final
// point when history is given), and risk factors.
func Analyze(snapshot MeasurementSnapshot, history []MeasurementSnapshot) (*Report, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	series := history
	if len(series) == 0 {
		series = []MeasurementSnapshot{snapshot}
	}

	return &Report{
		VitalSigns: VitalSigns{
			BloodPressure: ClassifyBloodPressure(snapshot.Systolic, snapshot.Diastolic),
			HeartRate:     ClassifyHeartRate(snapshot.HeartRate),
			Temperature:   ClassifyTemperature(snapshot.Temperature),
		},
		Trends:      ComputeTrends(series),
		RiskFactors: IdentifyRiskFactors(snapshot),
	}, nil
}
