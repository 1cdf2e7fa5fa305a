package risksummary

import (
	"math"
	"strings"
	"time"

	"github.com/renalview/monitor/pkg/common/models"
)

const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorGray   = "gray"
)

// Summary is the display-ready shape of a risk assessment. The header color
// follows risk_level and the badge color follows risk_tier; when the backend
// sends a disagreeing pair both are rendered as-is and Consistent goes
// false. No reconciliation is attempted here.
type Summary struct {
	PatientID       string    `json:"patient_id"`
	Score           float64   `json:"score"`
	ScorePercent    float64   `json:"score_percent"`
	Level           string    `json:"level"`
	Tier            int       `json:"tier"`
	SeverityLabel   string    `json:"severity_label"`
	HeaderColor     string    `json:"header_color"`
	BadgeColor      string    `json:"badge_color"`
	Consistent      bool      `json:"consistent"`
	KeyFindings     []string  `json:"key_findings,omitempty"`
	CKDAnalysis     string    `json:"ckd_analysis,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// TierLabel maps a risk tier to its severity label. Tiers outside 1-3 render
// as Unknown, never as an error.
func TierLabel(tier int) string {
	switch tier {
	case 1:
		return "Low"
	case 2:
		return "Moderate"
	case 3:
		return "High"
	default:
		return "Unknown"
	}
}

func TierColor(tier int) string {
	switch tier {
	case 1:
		return ColorGreen
	case 2:
		return ColorYellow
	case 3:
		return ColorRed
	default:
		return ColorGray
	}
}

func LevelColor(level string) string {
	switch strings.ToLower(level) {
	case "low":
		return ColorGreen
	case "medium":
		return ColorYellow
	case "high":
		return ColorRed
	default:
		return ColorGray
	}
}

// Consistent reports whether tier and level agree under the fixed mapping
// 1-low, 2-medium, 3-high.
func Consistent(tier int, level string) bool {
	switch tier {
	case 1:
		return strings.EqualFold(level, "low")
	case 2:
		return strings.EqualFold(level, "medium")
	case 3:
		return strings.EqualFold(level, "high")
	default:
		return false
	}
}

func Summarize(a models.RiskAssessment) Summary {
	return Summary{
		PatientID:       a.PatientID,
		Score:           a.RiskScore,
		ScorePercent:    math.Round(a.RiskScore*1000) / 10,
		Level:           a.RiskLevel,
		Tier:            a.RiskTier,
		SeverityLabel:   TierLabel(a.RiskTier),
		HeaderColor:     LevelColor(a.RiskLevel),
		BadgeColor:      TierColor(a.RiskTier),
		Consistent:      Consistent(a.RiskTier, a.RiskLevel),
		KeyFindings:     a.KeyFindings,
		CKDAnalysis:     a.CKDAnalysis,
		Recommendations: a.Recommendations,
		ConfidenceScore: a.ConfidenceScore,
		AnalyzedAt:      a.AnalyzedAt,
	}
}

// CycleProgress is the display-ready shape of cohort-wide simulation
// progress.
type CycleProgress struct {
	CurrentCycle       int     `json:"current_cycle"`
	TotalCycles        int     `json:"total_cycles"`
	ProgressPercentage float64 `json:"progress_percentage"`
	Complete           bool    `json:"complete"`
	LastAdvanceDate    *string `json:"last_advance_date,omitempty"`
}

// Progress computes the clamped completion percentage. A non-positive
// total_cycles is degenerate backend data and reads as 0% rather than an
// error.
func Progress(meta models.CycleMetadata) CycleProgress {
	progress := CycleProgress{
		CurrentCycle:    meta.CurrentCycle,
		TotalCycles:     meta.TotalCycles,
		LastAdvanceDate: meta.LastAdvanceDate,
	}
	if meta.TotalCycles > 0 {
		pct := 100 * float64(meta.CurrentCycle) / float64(meta.TotalCycles)
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		progress.ProgressPercentage = pct
		progress.Complete = meta.CurrentCycle >= meta.TotalCycles
	}
	return progress
}
