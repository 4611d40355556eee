// Package domain contains core business entities and types for multi-disease
// cardiovascular risk assessment from structured patient measurements.
//
// The attribute set follows the 13-feature clinical vector popularized by the
// UCI Heart Disease dataset (age, sex, chest pain type, resting blood pressure,
// serum cholesterol, fasting blood sugar, resting ECG, maximum heart rate,
// exercise-induced angina, ST depression, ST slope, vessels colored, thalassemia).
package domain

// Disease identifies one of the scored cardiovascular conditions.
type Disease string

const (
	CORONARY_ARTERY_DISEASE Disease = "coronary_artery_disease"
	HEART_ATTACK            Disease = "heart_attack"
	ARRHYTHMIA              Disease = "arrhythmia"
	GENERAL_CARDIOVASCULAR  Disease = "general_cardiovascular"
)

// DiseasePriority is the fixed tie-break ordering for primary-concern selection:
// earlier entries win when probability and confidence are both equal.
var DiseasePriority = []Disease{
	CORONARY_ARTERY_DISEASE,
	HEART_ATTACK,
	ARRHYTHMIA,
	GENERAL_CARDIOVASCULAR,
}

// RiskLevel represents the discrete risk tier derived from a probability.
type RiskLevel string

const (
	RISK_LOW    RiskLevel = "LOW"
	RISK_MEDIUM RiskLevel = "MEDIUM"
	RISK_HIGH   RiskLevel = "HIGH"
)

// Risk tier boundaries shared by per-disease levels and the overall score.
const (
	RiskThresholdLow  = 0.33
	RiskThresholdHigh = 0.66
)

// Urgency represents the action tier of a recommendation.
type Urgency string

const (
	URGENT    Urgency = "URGENT"
	FOLLOW_UP Urgency = "FOLLOW_UP"
	ROUTINE   Urgency = "ROUTINE"
)

// Sex represents biological sex as recorded on the patient intake form.
type Sex string

const (
	MALE   Sex = "male"
	FEMALE Sex = "female"
)

// ChestPainType represents the reported chest pain pattern.
type ChestPainType string

const (
	TYPICAL_ANGINA  ChestPainType = "typical-angina"
	ATYPICAL_ANGINA ChestPainType = "atypical-angina"
	NON_ANGINAL     ChestPainType = "non-anginal"
	ASYMPTOMATIC    ChestPainType = "asymptomatic"
)

// RestingECG represents the resting electrocardiogram finding.
type RestingECG string

const (
	ECG_NORMAL       RestingECG = "normal"
	ST_T_ABNORMALITY RestingECG = "st-t-abnormality"
	LV_HYPERTROPHY   RestingECG = "lv-hypertrophy"
)

// STSlope represents the slope of the peak exercise ST segment.
type STSlope string

const (
	SLOPE_UP   STSlope = "up"
	SLOPE_FLAT STSlope = "flat"
	SLOPE_DOWN STSlope = "down"
)

// Thalassemia represents the thalassemia stress test result.
type Thalassemia string

const (
	THAL_NORMAL       Thalassemia = "normal"
	FIXED_DEFECT      Thalassemia = "fixed-defect"
	REVERSIBLE_DEFECT Thalassemia = "reversible-defect"
)

// RiskLevelForProbability maps a probability to its discrete tier using the
// fixed 0.33/0.66 boundaries.
func RiskLevelForProbability(p float64) RiskLevel {
	switch {
	case p < RiskThresholdLow:
		return RISK_LOW
	case p < RiskThresholdHigh:
		return RISK_MEDIUM
	default:
		return RISK_HIGH
	}
}

// IsValid reports whether the disease identifier is one of the scored conditions.
func (d Disease) IsValid() bool {
	switch d {
	case CORONARY_ARTERY_DISEASE, HEART_ATTACK, ARRHYTHMIA, GENERAL_CARDIOVASCULAR:
		return true
	default:
		return false
	}
}

// String returns the string representation of the disease identifier.
func (d Disease) String() string {
	return string(d)
}

// DisplayName returns the clinical display name used in reports.
func (d Disease) DisplayName() string {
	switch d {
	case CORONARY_ARTERY_DISEASE:
		return "Coronary Artery Disease"
	case HEART_ATTACK:
		return "Heart Attack"
	case ARRHYTHMIA:
		return "Arrhythmia"
	case GENERAL_CARDIOVASCULAR:
		return "General Cardiovascular"
	default:
		return string(d)
	}
}

// IsValid reports whether the risk level is a known tier.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RISK_LOW, RISK_MEDIUM, RISK_HIGH:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	return string(r)
}

// IsValid reports whether the urgency is a known action tier.
func (u Urgency) IsValid() bool {
	switch u {
	case URGENT, FOLLOW_UP, ROUTINE:
		return true
	default:
		return false
	}
}

// Rank orders urgencies for recommendation sorting: urgent first.
func (u Urgency) Rank() int {
	switch u {
	case URGENT:
		return 0
	case FOLLOW_UP:
		return 1
	default:
		return 2
	}
}

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	return string(u)
}

func (s Sex) IsValid() bool {
	return s == MALE || s == FEMALE
}

func (c ChestPainType) IsValid() bool {
	switch c {
	case TYPICAL_ANGINA, ATYPICAL_ANGINA, NON_ANGINAL, ASYMPTOMATIC:
		return true
	default:
		return false
	}
}

func (e RestingECG) IsValid() bool {
	switch e {
	case ECG_NORMAL, ST_T_ABNORMALITY, LV_HYPERTROPHY:
		return true
	default:
		return false
	}
}

func (s STSlope) IsValid() bool {
	switch s {
	case SLOPE_UP, SLOPE_FLAT, SLOPE_DOWN:
		return true
	default:
		return false
	}
}

func (t Thalassemia) IsValid() bool {
	switch t {
	case THAL_NORMAL, FIXED_DEFECT, REVERSIBLE_DEFECT:
		return true
	default:
		return false
	}
}
