package indicators

import (
	"reflect"
	"testing"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestBMIComputedFromHeightAndWeight(t *testing.T) {
	got := Derive(Snapshot{WeightKg: f(70), HeightCm: f(175)})
	if got.BMI == nil {
		t.Fatal("expected BMI to be computed")
	}
	if *got.BMI != 22.86 {
		t.Fatalf("expected BMI 22.86, got %v", *got.BMI)
	}
}

func TestBMISuppliedValueWinsUnchanged(t *testing.T) {
	got := Derive(Snapshot{BMI: f(24.135), WeightKg: f(70), HeightCm: f(175)})
	if got.BMI == nil || *got.BMI != 24.135 {
		t.Fatalf("expected supplied BMI 24.135 untouched, got %v", got.BMI)
	}
}

func TestBMIRequiresBothMeasurements(t *testing.T) {
	if got := Derive(Snapshot{WeightKg: f(70)}); got.BMI != nil {
		t.Fatalf("expected no BMI without height, got %v", *got.BMI)
	}
	if got := Derive(Snapshot{HeightCm: f(175)}); got.BMI != nil {
		t.Fatalf("expected no BMI without weight, got %v", *got.BMI)
	}
}

func TestPotassiumBoundaryIsExclusive(t *testing.T) {
	if Derive(Snapshot{Potassium: f(5.5)}).HighPotassium {
		t.Fatal("potassium exactly 5.5 must not flag")
	}
	if !Derive(Snapshot{Potassium: f(5.6)}).HighPotassium {
		t.Fatal("potassium 5.6 must flag")
	}
}

func TestHemoglobinBoundaryIsExclusive(t *testing.T) {
	if Derive(Snapshot{Hemoglobin: f(11)}).LowHemoglobin {
		t.Fatal("hemoglobin exactly 11 must not flag")
	}
	if !Derive(Snapshot{Hemoglobin: f(10.9)}).LowHemoglobin {
		t.Fatal("hemoglobin 10.9 must flag")
	}
}

func TestBloodPressureEitherSideTriggers(t *testing.T) {
	if Derive(Snapshot{SystolicBP: f(140), DiastolicBP: f(90)}).HighBloodPressure {
		t.Fatal("140/90 exactly must not flag")
	}
	if !Derive(Snapshot{SystolicBP: f(141)}).HighBloodPressure {
		t.Fatal("systolic 141 must flag")
	}
	if !Derive(Snapshot{DiastolicBP: f(91)}).HighBloodPressure {
		t.Fatal("diastolic 91 must flag")
	}
}

func TestHighPhosphorusGatedOnStage(t *testing.T) {
	if Derive(Snapshot{Phosphorus: f(4.6), CKDStage: i(2)}).HighPhosphorus {
		t.Fatal("stage 2 must not flag phosphorus")
	}
	if !Derive(Snapshot{Phosphorus: f(4.6), CKDStage: i(3)}).HighPhosphorus {
		t.Fatal("stage 3 with phosphorus 4.6 must flag")
	}
	if Derive(Snapshot{Phosphorus: f(4.5), CKDStage: i(4)}).HighPhosphorus {
		t.Fatal("phosphorus exactly 4.5 must not flag at any stage")
	}
	if Derive(Snapshot{Phosphorus: f(4.6)}).HighPhosphorus {
		t.Fatal("unknown stage must not flag phosphorus")
	}
}

func TestNephrologyReferralNeeded(t *testing.T) {
	if !Derive(Snapshot{CKDStage: i(4)}).NephrologyReferralNeeded {
		t.Fatal("stage 4 without referral must flag")
	}
	if Derive(Snapshot{CKDStage: i(4), NephrologyReferral: true}).NephrologyReferralNeeded {
		t.Fatal("existing referral must suppress the flag")
	}
	if Derive(Snapshot{CKDStage: i(3)}).NephrologyReferralNeeded {
		t.Fatal("stage 3 must not flag")
	}
	if Derive(Snapshot{}).NephrologyReferralNeeded {
		t.Fatal("unknown stage must not flag")
	}
}

func TestUnknownValuesNeverTrigger(t *testing.T) {
	got := Derive(Snapshot{})
	if got.BMI != nil {
		t.Fatal("expected no BMI on an empty snapshot")
	}
	if len(got.ActiveFlags()) != 0 {
		t.Fatalf("expected no flags on an empty snapshot, got %v", got.ActiveFlags())
	}
}

func TestActiveFlagsListsRaisedFlags(t *testing.T) {
	got := Derive(Snapshot{
		Potassium:  f(6.1),
		Hemoglobin: f(9.8),
		CKDStage:   i(4),
	})
	want := []string{"high_potassium", "low_hemoglobin", "nephrology_referral_needed"}
	if !reflect.DeepEqual(got.ActiveFlags(), want) {
		t.Fatalf("expected %v, got %v", want, got.ActiveFlags())
	}
}
