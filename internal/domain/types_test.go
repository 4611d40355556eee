package domain

import (
	"testing"
)

func TestRiskLevelForProbability(t *testing.T) {
	tests := []struct {
		name     string
		p        float64
		expected RiskLevel
	}{
		{"zero", 0.0, RISK_LOW},
		{"low band", 0.20, RISK_LOW},
		{"just below low boundary", 0.3299, RISK_LOW},
		{"low boundary", 0.33, RISK_MEDIUM},
		{"medium band", 0.50, RISK_MEDIUM},
		{"high boundary", 0.66, RISK_HIGH},
		{"high band", 0.90, RISK_HIGH},
		{"one", 1.0, RISK_HIGH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RiskLevelForProbability(tt.p); got != tt.expected {
				t.Errorf("RiskLevelForProbability(%v) = %s, want %s", tt.p, got, tt.expected)
			}
		})
	}
}

func TestDiseaseValidity(t *testing.T) {
	tests := []struct {
		name    string
		disease Disease
		valid   bool
	}{
		{"CAD", CORONARY_ARTERY_DISEASE, true},
		{"heart attack", HEART_ATTACK, true},
		{"arrhythmia", ARRHYTHMIA, true},
		{"general", GENERAL_CARDIOVASCULAR, true},
		{"unknown", Disease("heart_failure"), false},
		{"empty", Disease(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.disease.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestDiseaseDisplayName(t *testing.T) {
	tests := []struct {
		disease  Disease
		expected string
	}{
		{CORONARY_ARTERY_DISEASE, "Coronary Artery Disease"},
		{HEART_ATTACK, "Heart Attack"},
		{ARRHYTHMIA, "Arrhythmia"},
		{GENERAL_CARDIOVASCULAR, "General Cardiovascular"},
	}

	for _, tt := range tests {
		t.Run(string(tt.disease), func(t *testing.T) {
			if got := tt.disease.DisplayName(); got != tt.expected {
				t.Errorf("DisplayName() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestDiseasePriorityOrdering(t *testing.T) {
	expected := []Disease{
		CORONARY_ARTERY_DISEASE,
		HEART_ATTACK,
		ARRHYTHMIA,
		GENERAL_CARDIOVASCULAR,
	}

	if len(DiseasePriority) != len(expected) {
		t.Fatalf("DiseasePriority has %d entries, want %d", len(DiseasePriority), len(expected))
	}
	for i, d := range expected {
		if DiseasePriority[i] != d {
			t.Errorf("DiseasePriority[%d] = %s, want %s", i, DiseasePriority[i], d)
		}
	}
}

func TestUrgencyRank(t *testing.T) {
	if URGENT.Rank() >= FOLLOW_UP.Rank() || FOLLOW_UP.Rank() >= ROUTINE.Rank() {
		t.Errorf("urgency ranks out of order: urgent=%d follow-up=%d routine=%d",
			URGENT.Rank(), FOLLOW_UP.Rank(), ROUTINE.Rank())
	}
}
