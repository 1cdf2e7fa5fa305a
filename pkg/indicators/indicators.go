package indicators

import (
	"math"

	"github.com/renalview/monitor/pkg/common/models"
)

// Snapshot is the flattened view of one patient used for flag derivation.
// Numeric fields are pointers: an absent lab is unknown and must neither
// trigger nor suppress an alert.
type Snapshot struct {
	CKDStage           *int
	HeightCm           *float64
	WeightKg           *float64
	BMI                *float64
	Potassium          *float64
	Hemoglobin         *float64
	Phosphorus         *float64
	SystolicBP         *float64
	DiastolicBP        *float64
	NephrologyReferral bool
}

// FromRecord flattens a records-backend patient into a Snapshot.
func FromRecord(rec models.PatientRecord) Snapshot {
	return Snapshot{
		CKDStage:           rec.CKDStage,
		HeightCm:           rec.HeightCm,
		WeightKg:           rec.WeightKg,
		BMI:                rec.BMI,
		Potassium:          rec.Potassium,
		Hemoglobin:         rec.Hemoglobin,
		Phosphorus:         rec.Phosphorus,
		SystolicBP:         rec.SystolicBP,
		DiastolicBP:        rec.DiastolicBP,
		NephrologyReferral: rec.NephrologyReferral,
	}
}

// Indicators is the set of derived clinical flags for one patient. All
// thresholds are strict: a value sitting exactly on the threshold does not
// raise the flag.
type Indicators struct {
	BMI                      *float64 `json:"bmi,omitempty"`
	HighPotassium            bool     `json:"high_potassium"`
	LowHemoglobin            bool     `json:"low_hemoglobin"`
	HighBloodPressure        bool     `json:"high_blood_pressure"`
	HighPhosphorus           bool     `json:"high_phosphorus"`
	NephrologyReferralNeeded bool     `json:"nephrology_referral_needed"`
}

// Derive computes the flag set from a snapshot. Pure: identical snapshots
// always produce identical indicators.
func Derive(s Snapshot) Indicators {
	out := Indicators{}

	// A supplied BMI is used unchanged; only the computed fallback rounds.
	if s.BMI != nil {
		bmi := *s.BMI
		out.BMI = &bmi
	} else if s.WeightKg != nil && s.HeightCm != nil && *s.HeightCm > 0 {
		meters := *s.HeightCm / 100
		bmi := math.Round(*s.WeightKg/(meters*meters)*100) / 100
		out.BMI = &bmi
	}

	if s.Potassium != nil && *s.Potassium > 5.5 {
		out.HighPotassium = true
	}
	if s.Hemoglobin != nil && *s.Hemoglobin < 11 {
		out.LowHemoglobin = true
	}
	if (s.SystolicBP != nil && *s.SystolicBP > 140) || (s.DiastolicBP != nil && *s.DiastolicBP > 90) {
		out.HighBloodPressure = true
	}
	// Phosphorus elevation is only clinically notable from stage 3 on.
	if s.Phosphorus != nil && *s.Phosphorus > 4.5 && s.CKDStage != nil && *s.CKDStage >= 3 {
		out.HighPhosphorus = true
	}
	if !s.NephrologyReferral && s.CKDStage != nil && *s.CKDStage >= 4 {
		out.NephrologyReferralNeeded = true
	}

	return out
}

// ActiveFlags lists the raised flag names in display order.
func (i Indicators) ActiveFlags() []string {
	flags := make([]string, 0, 5)
	if i.HighPotassium {
		flags = append(flags, "high_potassium")
	}
	if i.LowHemoglobin {
		flags = append(flags, "low_hemoglobin")
	}
	if i.HighBloodPressure {
		flags = append(flags, "high_blood_pressure")
	}
	if i.HighPhosphorus {
		flags = append(flags, "high_phosphorus")
	}
	if i.NephrologyReferralNeeded {
		flags = append(flags, "nephrology_referral_needed")
	}
	return flags
}
