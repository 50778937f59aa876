package vitals

// Trend is the sign of the best-fit linear slope of a metric.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
)

// TrendResult holds the fitted direction and slope for one metric.
type TrendResult struct {
	Trend Trend   `json:"trend"`
	Slope float64 `json:"slope"`
}

// TrendReport maps metric names to trend results. When the history holds
// fewer than two snapshots, InsufficientData is set and Metrics is empty.
type TrendReport struct {
	InsufficientData bool                   `json:"insufficient_data,omitempty"`
	Metrics          map[string]TrendResult `json:"metrics,omitempty"`
}

// trendMetrics enumerates the numeric series extracted from a history, in a
// fixed order. Optional metrics return (0, false) where missing.
var trendMetrics = []struct {
	name  string
	value func(s MeasurementSnapshot) (float64, bool)
}{
	{"systolic", func(s MeasurementSnapshot) (float64, bool) { return s.Systolic, true }},
	{"diastolic", func(s MeasurementSnapshot) (float64, bool) { return s.Diastolic, true }},
	{"heart_rate", func(s MeasurementSnapshot) (float64, bool) { return s.HeartRate, true }},
	{"temperature", func(s MeasurementSnapshot) (float64, bool) { return s.Temperature, true }},
	{"height", func(s MeasurementSnapshot) (float64, bool) { return deref(s.Height) }},
	{"weight", func(s MeasurementSnapshot) (float64, bool) { return deref(s.Weight) }},
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// ComputeTrends fits a degree-1 least-squares line per metric against the
// snapshot index and reports the slope's direction. A zero slope classifies
// as decreasing. Metrics with fewer than two present values are omitted.
func ComputeTrends(history []MeasurementSnapshot) TrendReport {
	if len(history) < 2 {
		return TrendReport{InsufficientData: true}
	}

	metrics := make(map[string]TrendResult)
	for _, m := range trendMetrics {
		var xs, ys []float64
		for i, snap := range history {
			if v, ok := m.value(snap); ok {
				xs = append(xs, float64(i))
				ys = append(ys, v)
			}
		}
		if len(ys) < 2 {
			continue
		}
		slope := leastSquaresSlope(xs, ys)
		trend := TrendDecreasing
		if slope > 0 {
			trend = TrendIncreasing
		}
		metrics[m.name] = TrendResult{Trend: trend, Slope: slope}
	}
	return TrendReport{Metrics: metrics}
}

// leastSquaresSlope returns the slope of the ordinary least-squares line
// through (xs[i], ys[i]). Callers guarantee len >= 2.
func leastSquaresSlope(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
