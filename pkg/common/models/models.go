package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Observation is one raw lab/vital record emitted by the simulation backend.
// observation_date is carried as the backend sent it and parsed during
// normalization, so a single malformed date skips one record instead of
// failing the whole payload decode.
type Observation struct {
	ObservationType string   `json:"observation_type"`
	ValueNumeric    *float64 `json:"value_numeric,omitempty"`
	ValueText       string   `json:"value_text,omitempty"`
	Unit            string   `json:"unit,omitempty"`
	ObservationDate string   `json:"observation_date"`
	MonthNumber     *int     `json:"month_number,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// CyclePoint is one row of the per-patient wide series: a simulation month
// with every metric measured in it. Cells absent from Values were not
// measured that month.
type CyclePoint struct {
	Month  int
	Date   string
	Values map[string]float64
}

// MarshalJSON flattens Values into the object so chart consumers can key
// columns by metric name: {"month":3,"date":"Mar 2025","egfr":55}.
func (p CyclePoint) MarshalJSON() ([]byte, error) {
	row := make(map[string]interface{}, len(p.Values)+2)
	for metric, value := range p.Values {
		if metric == "month" || metric == "date" {
			continue
		}
		row[metric] = value
	}
	row["month"] = p.Month
	row["date"] = p.Date
	return json.Marshal(row)
}

// CycleMetadata tracks cohort-wide simulation progress. The backend owns it;
// the monitor holds a read-only snapshot refreshed after every advance.
type CycleMetadata struct {
	ID                  int64     `json:"id"`
	CurrentCycle        int       `json:"current_cycle"`
	TotalCycles         int       `json:"total_cycles"`
	CycleDurationMonths int       `json:"cycle_duration_months"`
	SimulationStartDate string    `json:"simulation_start_date"`
	LastAdvanceDate     *string   `json:"last_advance_date,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// AdvanceResult is the outcome of one cohort-wide cycle advance. Ephemeral:
// retained for display until the next advance or a reset.
type AdvanceResult struct {
	NewCycle            int   `json:"new_cycle"`
	PatientsProcessed   int   `json:"patients_processed"`
	TransitionsDetected int   `json:"transitions_detected"`
	AlertsGenerated     int   `json:"alerts_generated"`
	TreatmentChanges    int   `json:"treatment_changes"`
	ProcessingTimeMs    int64 `json:"processing_time_ms"`
}

// RiskAssessment is the AI risk-scoring payload for one patient. The monitor
// never re-derives risk_score; it only shapes the payload for display.
type RiskAssessment struct {
	PatientID       string    `json:"patient_id"`
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       string    `json:"risk_level"`
	RiskTier        int       `json:"risk_tier"`
	KeyFindings     []string  `json:"key_findings"`
	CKDAnalysis     string    `json:"ckd_analysis"`
	Recommendations []string  `json:"recommendations"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// HealthStateHistory is one entry of a patient's per-cycle progression
// trace as recorded by the simulation backend.
type HealthStateHistory struct {
	CycleNumber      int       `json:"cycle_number"`
	MeasuredAt       time.Time `json:"measured_at"`
	EGFRValue        float64   `json:"egfr_value"`
	UACRValue        float64   `json:"uacr_value"`
	HealthState      string    `json:"health_state"`
	RiskLevel        string    `json:"risk_level"`
	RiskColor        string    `json:"risk_color"`
	IsTreated        bool      `json:"is_treated"`
	AverageAdherence *float64  `json:"average_adherence,omitempty"`
	ActiveTreatments []string  `json:"active_treatments"`
}

// Treatment is one active or historical medication course.
type Treatment struct {
	ID               int64   `json:"id"`
	MedicationName   string  `json:"medication_name"`
	MedicationClass  string  `json:"medication_class"`
	StartedCycle     int     `json:"started_cycle"`
	CurrentAdherence float64 `json:"current_adherence"`
	Status           string  `json:"status"`
}

// PatientRecord is the records-backend view of one patient: demographics,
// latest labs, comorbidities and medication flags. Optional numerics are
// pointers because an absent lab means unknown, never zero.
type PatientRecord struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Age                *int      `json:"age,omitempty"`
	Sex                string    `json:"sex,omitempty"`
	CKDStage           *int      `json:"ckd_stage,omitempty"`
	HeightCm           *float64  `json:"height_cm,omitempty"`
	WeightKg           *float64  `json:"weight_kg,omitempty"`
	BMI                *float64  `json:"bmi,omitempty"`
	Potassium          *float64  `json:"potassium,omitempty"`
	Hemoglobin         *float64  `json:"hemoglobin,omitempty"`
	Phosphorus         *float64  `json:"phosphorus,omitempty"`
	SystolicBP         *float64  `json:"systolic_bp,omitempty"`
	DiastolicBP        *float64  `json:"diastolic_bp,omitempty"`
	EGFR               *float64  `json:"egfr,omitempty"`
	UACR               *float64  `json:"uacr,omitempty"`
	Diabetes           bool      `json:"diabetes"`
	Hypertension       bool      `json:"hypertension"`
	OnACEInhibitor     bool      `json:"on_ace_inhibitor"`
	NephrologyReferral bool      `json:"nephrology_referral"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AnalyzeOptions is the request body for POST /api/analyze/:patientId.
// The analysis API takes camelCase keys, unlike the rest of the backend.
type AnalyzeOptions struct {
	StoreResults       bool `json:"storeResults"`
	IncludePatientData bool `json:"includePatientData"`
	SkipCache          bool `json:"skipCache"`
}

// AnalysisResponse is the raw analyze payload before validation. Use
// Outcome to convert it into its checked success/failure variant.
type AnalysisResponse struct {
	Success          bool            `json:"success"`
	PatientID        string          `json:"patient_id"`
	Analysis         *RiskAssessment `json:"analysis,omitempty"`
	Error            string          `json:"error,omitempty"`
	Cached           bool            `json:"cached,omitempty"`
	ProcessingTimeMs int64           `json:"processing_time_ms,omitempty"`
}

// AnalysisOutcome is the validated shape of an analyze round trip: exactly
// one of Assessment (success) or Message (failure) is meaningful.
type AnalysisOutcome struct {
	PatientID        string          `json:"patient_id"`
	Assessment       *RiskAssessment `json:"assessment,omitempty"`
	Message          string          `json:"message,omitempty"`
	Cached           bool            `json:"cached"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// Outcome validates the tagged shape of the response: a success without an
// analysis payload, or a failure without an error message, is malformed.
func (r AnalysisResponse) Outcome() (*AnalysisOutcome, error) {
	if r.Success {
		if r.Analysis == nil {
			return nil, fmt.Errorf("analysis response for %s marked success without analysis payload", r.PatientID)
		}
		return &AnalysisOutcome{
			PatientID:        r.PatientID,
			Assessment:       r.Analysis,
			Cached:           r.Cached,
			ProcessingTimeMs: r.ProcessingTimeMs,
		}, nil
	}
	if r.Error == "" {
		return nil, fmt.Errorf("analysis response for %s marked failure without error message", r.PatientID)
	}
	return &AnalysisOutcome{
		PatientID:        r.PatientID,
		Message:          r.Error,
		ProcessingTimeMs: r.ProcessingTimeMs,
	}, nil
}

// Event types published on the cohort event bus.
const (
	EventCycleAdvanced = "cycle.advanced"
	EventCycleReset    = "cycle.reset"
)

// Event is the envelope published on the cohort event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}
