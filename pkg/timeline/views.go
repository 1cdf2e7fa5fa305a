package timeline

import (
	"sort"

	"github.com/renalview/monitor/pkg/common/models"
	"github.com/renalview/monitor/pkg/terminology"
)

const (
	ModeTrend  = "trend"
	ModeStatic = "static"
)

type TrendPoint struct {
	Month int     `json:"month"`
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MetricView is the display-ready form of one metric: a trend with points
// when more than one measurement exists, otherwise the single most recent
// value. Metrics never measured are not emitted at all.
type MetricView struct {
	Metric     string       `json:"metric"`
	Label      string       `json:"label"`
	Unit       string       `json:"unit,omitempty"`
	Better     string       `json:"better,omitempty"`
	Decimals   int          `json:"decimals"`
	Mode       string       `json:"mode"`
	Points     []TrendPoint `json:"points,omitempty"`
	Latest     *float64     `json:"latest,omitempty"`
	LatestDate string       `json:"latest_date,omitempty"`
}

// BuildViews classifies every metric present in the series. Metrics the
// catalog does not know still render under their raw key; catalog misses
// must not drop data.
func BuildViews(series []models.CyclePoint, catalog terminology.Catalog) []MetricView {
	names := make(map[string]struct{})
	for _, point := range series {
		for name := range point.Values {
			names[name] = struct{}{}
		}
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	views := make([]MetricView, 0, len(ordered))
	for _, name := range ordered {
		view := MetricView{Metric: name, Label: name}
		if metric, ok := catalog.Lookup(name); ok {
			view.Label = metric.Display
			view.Unit = metric.Unit
			view.Better = metric.Better
			view.Decimals = metric.Decimals
		}

		if TrendEligible(series, name) {
			view.Mode = ModeTrend
			for _, point := range series {
				if value, ok := point.Values[name]; ok {
					view.Points = append(view.Points, TrendPoint{
						Month: point.Month,
						Date:  point.Date,
						Value: value,
					})
				}
			}
		} else {
			value, date, ok := Latest(series, name)
			if !ok {
				continue
			}
			view.Mode = ModeStatic
			view.Latest = &value
			view.LatestDate = date
		}

		views = append(views, view)
	}

	return views
}
