package timeline

import "github.com/renalview/monitor/pkg/common/models"

// DefinedCount reports in how many cycle months the metric was measured.
func DefinedCount(series []models.CyclePoint, metric string) int {
	count := 0
	for _, point := range series {
		if _, ok := point.Values[metric]; ok {
			count++
		}
	}
	return count
}

// TrendEligible reports whether the metric has enough distinct measurements
// to justify a trend view. A lone baseline draw reads as "no trend yet", not
// a one-point graph.
func TrendEligible(series []models.CyclePoint, metric string) bool {
	return DefinedCount(series, metric) > 1
}

// Latest returns the most recent measured value for the metric with its
// month label, scanning the sorted series from the end. ok is false when the
// metric was never measured.
func Latest(series []models.CyclePoint, metric string) (float64, string, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if value, ok := series[i].Values[metric]; ok {
			return value, series[i].Date, true
		}
	}
	return 0, "", false
}
