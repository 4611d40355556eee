package service

import (
	"fmt"
	"sort"

	"github.com/cardio-risk-server/internal/domain"
)

// Recommender maps aggregated risk and per-disease tiers to an ordered set of
// clinical action items. The rule table is deterministic: the overall score
// selects a base urgency via the shared 0.33/0.66 thresholds, and every
// high-risk disease adds an urgent specialist referral regardless of the
// base tier.
type Recommender struct{}

// NewRecommender creates a recommendation engine.
func NewRecommender() *Recommender {
	return &Recommender{}
}

// Recommend produces the recommendation list, ordered urgent first, then
// follow-up, then routine; within a tier, input disease order is preserved.
func (r *Recommender) Recommend(overall float64, results []domain.DiseaseResult) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(results)+4)

	// Disease-specific referrals first so they lead their tier in input order.
	for _, result := range results {
		if result.RiskLevel == domain.RISK_HIGH {
			recs = append(recs, domain.Recommendation{
				Urgency:            domain.URGENT,
				Text:               referralText(result.Disease),
				SpecialistReferral: true,
				Disease:            result.Disease,
			})
		}
	}

	recs = append(recs, baseRecommendations(domain.RiskLevelForProbability(overall))...)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Urgency.Rank() < recs[j].Urgency.Rank()
	})

	return recs
}

func referralText(d domain.Disease) string {
	switch d {
	case domain.CORONARY_ARTERY_DISEASE:
		return "Cardiology consultation for coronary artery disease evaluation"
	case domain.HEART_ATTACK:
		return "Urgent cardiology evaluation for acute event risk"
	case domain.ARRHYTHMIA:
		return "Electrophysiology consultation with Holter monitor study"
	case domain.GENERAL_CARDIOVASCULAR:
		return "Comprehensive cardiovascular specialist evaluation"
	default:
		return fmt.Sprintf("Specialist referral for %s", d.DisplayName())
	}
}

func baseRecommendations(tier domain.RiskLevel) []domain.Recommendation {
	switch tier {
	case domain.RISK_HIGH:
		return []domain.Recommendation{
			{Urgency: domain.URGENT, Text: "Schedule immediate medical consultation"},
			{Urgency: domain.FOLLOW_UP, Text: "Implement heart-healthy lifestyle changes (diet and exercise)"},
			{Urgency: domain.FOLLOW_UP, Text: "Begin weekly blood pressure self-monitoring"},
			{Urgency: domain.ROUTINE, Text: "Keep detailed records of symptoms and measurements"},
		}
	case domain.RISK_MEDIUM:
		return []domain.Recommendation{
			{Urgency: domain.FOLLOW_UP, Text: "Follow-up with primary care physician within two weeks"},
			{Urgency: domain.FOLLOW_UP, Text: "Adopt heart-healthy lifestyle changes (diet and exercise)"},
			{Urgency: domain.ROUTINE, Text: "Monitor cholesterol every three months"},
			{Urgency: domain.ROUTINE, Text: "Discuss results with healthcare provider"},
		}
	default:
		return []domain.Recommendation{
			{Urgency: domain.ROUTINE, Text: "Maintain heart-healthy lifestyle"},
			{Urgency: domain.ROUTINE, Text: "Discuss results at next scheduled medical visit"},
			{Urgency: domain.ROUTINE, Text: "Annual cardiovascular risk assessment"},
		}
	}
}
