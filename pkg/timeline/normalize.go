package timeline

import (
	"sort"
	"time"

	"github.com/renalview/monitor/pkg/common/logger"
	"github.com/renalview/monitor/pkg/common/models"
)

// Result is the canonical per-cycle series folded from a raw observation
// stream, plus the number of records excluded for bad dates.
type Result struct {
	Series  []models.CyclePoint
	Skipped int
}

// dateLayouts are the observation_date formats the simulation backend has
// been seen to emit. Anything else skips the record.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// monthKey normalizes month_number: absent and zero both mean the baseline
// draw, cycle 1.
func monthKey(obs models.Observation) int {
	if obs.MonthNumber != nil && *obs.MonthNumber > 0 {
		return *obs.MonthNumber
	}
	return 1
}

// Normalize folds an unordered observation stream into one sparse wide row
// per cycle month. Records without a parseable observation_date are excluded
// one by one; the transform itself never fails. Within a month, the last
// value per metric in input order wins. The month's date label is fixed by
// the first observation that creates the row.
func Normalize(observations []models.Observation) Result {
	points := make(map[int]*models.CyclePoint)
	skipped := 0

	for _, obs := range observations {
		when, ok := parseDate(obs.ObservationDate)
		if !ok {
			skipped++
			logger.Log.WithFields(map[string]interface{}{
				"observation_type": obs.ObservationType,
				"observation_date": obs.ObservationDate,
			}).Debug("Skipping observation with unparseable date")
			continue
		}

		month := monthKey(obs)
		point, exists := points[month]
		if !exists {
			point = &models.CyclePoint{
				Month:  month,
				Date:   when.Format("Jan 2006"),
				Values: make(map[string]float64),
			}
			points[month] = point
		}

		if obs.ValueNumeric != nil && obs.ObservationType != "" {
			point.Values[obs.ObservationType] = *obs.ValueNumeric
		}
	}

	series := make([]models.CyclePoint, 0, len(points))
	for _, point := range points {
		series = append(series, *point)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })

	return Result{Series: series, Skipped: skipped}
}
