package risksummary

import (
	"testing"

	"github.com/renalview/monitor/pkg/common/models"
)

func TestTierMapping(t *testing.T) {
	cases := []struct {
		tier  int
		label string
		color string
	}{
		{1, "Low", ColorGreen},
		{2, "Moderate", ColorYellow},
		{3, "High", ColorRed},
		{0, "Unknown", ColorGray},
		{4, "Unknown", ColorGray},
	}
	for _, c := range cases {
		if got := TierLabel(c.tier); got != c.label {
			t.Fatalf("tier %d: expected label %q, got %q", c.tier, c.label, got)
		}
		if got := TierColor(c.tier); got != c.color {
			t.Fatalf("tier %d: expected color %q, got %q", c.tier, c.color, got)
		}
	}
}

func TestLevelColor(t *testing.T) {
	cases := map[string]string{
		"low":      ColorGreen,
		"medium":   ColorYellow,
		"high":     ColorRed,
		"HIGH":     ColorRed,
		"critical": ColorGray,
		"":         ColorGray,
	}
	for level, want := range cases {
		if got := LevelColor(level); got != want {
			t.Fatalf("level %q: expected %q, got %q", level, want, got)
		}
	}
}

func TestSummarizeConsistentAssessment(t *testing.T) {
	summary := Summarize(models.RiskAssessment{
		PatientID: "p-1",
		RiskScore: 0.734,
		RiskLevel: "high",
		RiskTier:  3,
	})
	if !summary.Consistent {
		t.Fatal("expected tier 3 with level high to be consistent")
	}
	if summary.HeaderColor != ColorRed || summary.BadgeColor != ColorRed {
		t.Fatalf("expected both colors red, got header %q badge %q", summary.HeaderColor, summary.BadgeColor)
	}
	if summary.ScorePercent != 73.4 {
		t.Fatalf("expected score percent 73.4, got %v", summary.ScorePercent)
	}
	if summary.SeverityLabel != "High" {
		t.Fatalf("expected severity High, got %q", summary.SeverityLabel)
	}
}

func TestSummarizeDisagreementRendersBothSides(t *testing.T) {
	// Inconsistent backend data: the level drives the header, the tier
	// drives the badge, and nothing is fixed up.
	summary := Summarize(models.RiskAssessment{
		PatientID: "p-2",
		RiskScore: 0.9,
		RiskLevel: "high",
		RiskTier:  1,
	})
	if summary.Consistent {
		t.Fatal("expected tier 1 with level high to be inconsistent")
	}
	if summary.HeaderColor != ColorRed {
		t.Fatalf("expected header color from level, got %q", summary.HeaderColor)
	}
	if summary.BadgeColor != ColorGreen {
		t.Fatalf("expected badge color from tier, got %q", summary.BadgeColor)
	}
	if summary.SeverityLabel != "Low" {
		t.Fatalf("expected severity label from tier, got %q", summary.SeverityLabel)
	}
}

func TestSummarizeUnknownTierAndLevel(t *testing.T) {
	summary := Summarize(models.RiskAssessment{RiskTier: 9, RiskLevel: "unheard-of"})
	if summary.SeverityLabel != "Unknown" || summary.BadgeColor != ColorGray || summary.HeaderColor != ColorGray {
		t.Fatalf("expected Unknown/gray rendering, got %+v", summary)
	}
}

func TestProgressPercentage(t *testing.T) {
	progress := Progress(models.CycleMetadata{CurrentCycle: 6, TotalCycles: 24})
	if progress.ProgressPercentage != 25.0 {
		t.Fatalf("expected 25.0, got %v", progress.ProgressPercentage)
	}
	if progress.Complete {
		t.Fatal("expected cycle 6 of 24 to be incomplete")
	}
}

func TestProgressClampsAndHandlesDegenerateTotals(t *testing.T) {
	over := Progress(models.CycleMetadata{CurrentCycle: 30, TotalCycles: 24})
	if over.ProgressPercentage != 100 {
		t.Fatalf("expected clamp to 100, got %v", over.ProgressPercentage)
	}
	if !over.Complete {
		t.Fatal("expected past-total cycle to read complete")
	}

	zero := Progress(models.CycleMetadata{CurrentCycle: 5, TotalCycles: 0})
	if zero.ProgressPercentage != 0 || zero.Complete {
		t.Fatalf("expected degenerate total to read 0%% incomplete, got %+v", zero)
	}
}

func TestProgressAtReset(t *testing.T) {
	progress := Progress(models.CycleMetadata{CurrentCycle: 0, TotalCycles: 24})
	if progress.ProgressPercentage != 0 || progress.Complete {
		t.Fatalf("expected fresh simulation at 0%%, got %+v", progress)
	}
}
