package timeline

import (
	"testing"

	"github.com/renalview/monitor/pkg/common/models"
	"github.com/renalview/monitor/pkg/terminology"
)

func TestBuildViewsSplitsTrendAndStatic(t *testing.T) {
	series := Normalize([]models.Observation{
		obs("egfr", 58, "2025-03-14", month(3)),
		obs("egfr", 60, "2025-04-11", month(4)),
		obs("uacr", 150, "2025-04-11", month(4)),
	}).Series

	views := BuildViews(series, terminology.DefaultCatalog())
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}

	byMetric := make(map[string]MetricView)
	for _, view := range views {
		byMetric[view.Metric] = view
	}

	egfr := byMetric["egfr"]
	if egfr.Mode != ModeTrend {
		t.Fatalf("expected egfr trend view, got %q", egfr.Mode)
	}
	if len(egfr.Points) != 2 {
		t.Fatalf("expected 2 trend points, got %d", len(egfr.Points))
	}
	if egfr.Label != "eGFR" || egfr.Better != "higher" {
		t.Fatalf("expected catalog labelling, got %+v", egfr)
	}

	uacr := byMetric["uacr"]
	if uacr.Mode != ModeStatic {
		t.Fatalf("expected uacr static view, got %q", uacr.Mode)
	}
	if uacr.Latest == nil || *uacr.Latest != 150 || uacr.LatestDate != "Apr 2025" {
		t.Fatalf("expected latest uacr 150 from Apr 2025, got %+v", uacr)
	}
	if len(uacr.Points) != 0 {
		t.Fatal("expected no points on a static view")
	}
}

func TestBuildViewsTrendPointsSkipUnmeasuredMonths(t *testing.T) {
	series := Normalize([]models.Observation{
		obs("egfr", 58, "2025-01-14", month(1)),
		obs("potassium", 4.4, "2025-02-02", month(2)),
		obs("egfr", 55, "2025-03-14", month(3)),
	}).Series

	views := BuildViews(series, terminology.DefaultCatalog())
	for _, view := range views {
		if view.Metric != "egfr" {
			continue
		}
		if len(view.Points) != 2 {
			t.Fatalf("expected points only for measured months, got %d", len(view.Points))
		}
		if view.Points[0].Month != 1 || view.Points[1].Month != 3 {
			t.Fatalf("expected months 1 and 3, got %+v", view.Points)
		}
	}
}

func TestBuildViewsUnknownMetricKeepsRawKey(t *testing.T) {
	series := Normalize([]models.Observation{
		obs("novel_biomarker", 12.5, "2025-03-14", month(3)),
	}).Series

	views := BuildViews(series, terminology.DefaultCatalog())
	if len(views) != 1 {
		t.Fatalf("expected the unknown metric to render, got %d views", len(views))
	}
	if views[0].Label != "novel_biomarker" {
		t.Fatalf("expected raw key as label, got %q", views[0].Label)
	}
}

func TestBuildViewsOmitsNeverMeasuredMetrics(t *testing.T) {
	series := Normalize([]models.Observation{
		obs("egfr", 58, "2025-03-14", month(3)),
	}).Series

	views := BuildViews(series, terminology.DefaultCatalog())
	for _, view := range views {
		if view.Metric == "hemoglobin" {
			t.Fatal("expected unmeasured metric to be omitted entirely")
		}
	}
	if len(views) != 1 {
		t.Fatalf("expected exactly one view, got %d", len(views))
	}
}
