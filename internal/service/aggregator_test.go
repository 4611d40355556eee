package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-server/internal/domain"
)

func result(disease domain.Disease, probability, confidence float64) domain.DiseaseResult {
	return domain.DiseaseResult{
		Disease:     disease,
		DiseaseName: disease.DisplayName(),
		Probability: probability,
		Confidence:  confidence,
		RiskLevel:   domain.RiskLevelForProbability(probability),
	}
}

func TestAggregateEmptyResults(t *testing.T) {
	agg := NewAggregator(testLogger(), domain.EngineConfig{})

	overall, primary := agg.Aggregate(nil)
	assert.Equal(t, 0.0, overall)
	assert.Nil(t, primary)
}

func TestAggregateRenormalizesOverPresentDiseases(t *testing.T) {
	agg := NewAggregator(testLogger(), domain.EngineConfig{})

	// Coronary and heart attack carry equal default weight, so scoring only
	// those two must average them instead of deflating by the absent pair.
	overall, primary := agg.Aggregate([]domain.DiseaseResult{
		result(domain.CORONARY_ARTERY_DISEASE, 0.8, 0.85),
		result(domain.HEART_ATTACK, 0.2, 0.78),
	})

	assert.InDelta(t, 0.5, overall, 1e-9)
	require.NotNil(t, primary)
	assert.Equal(t, domain.CORONARY_ARTERY_DISEASE, primary.Disease)
}

func TestAggregateFullDefaultSet(t *testing.T) {
	agg := NewAggregator(testLogger(), domain.EngineConfig{})

	overall, primary := agg.Aggregate([]domain.DiseaseResult{
		result(domain.CORONARY_ARTERY_DISEASE, 0.9, 0.85),
		result(domain.HEART_ATTACK, 0.6, 0.78),
		result(domain.ARRHYTHMIA, 0.3, 0.72),
		result(domain.GENERAL_CARDIOVASCULAR, 0.5, 0.75),
	})

	// 0.30*0.9 + 0.30*0.6 + 0.20*0.3 + 0.20*0.5 = 0.61
	assert.InDelta(t, 0.61, overall, 1e-9)
	assert.Equal(t, domain.CORONARY_ARTERY_DISEASE, primary.Disease)
}

func TestAggregateUnknownDiseaseGetsUnitWeight(t *testing.T) {
	agg := NewAggregator(testLogger(), domain.EngineConfig{})

	overall, _ := agg.Aggregate([]domain.DiseaseResult{
		{Disease: domain.Disease("myocarditis"), Probability: 0.4, Confidence: 0.5},
	})
	assert.InDelta(t, 0.4, overall, 1e-9)
}

func TestPrimaryConcernTieBreaks(t *testing.T) {
	agg := NewAggregator(testLogger(), domain.EngineConfig{})

	t.Run("higher confidence wins on equal probability", func(t *testing.T) {
		_, primary := agg.Aggregate([]domain.DiseaseResult{
			result(domain.ARRHYTHMIA, 0.7, 0.72),
			result(domain.HEART_ATTACK, 0.7, 0.78),
		})
		assert.Equal(t, domain.HEART_ATTACK, primary.Disease)
	})

	t.Run("priority order wins on full tie", func(t *testing.T) {
		_, primary := agg.Aggregate([]domain.DiseaseResult{
			result(domain.GENERAL_CARDIOVASCULAR, 0.7, 0.75),
			result(domain.CORONARY_ARTERY_DISEASE, 0.7, 0.75),
		})
		assert.Equal(t, domain.CORONARY_ARTERY_DISEASE, primary.Disease)
	})
}

func TestAggregateConfiguredWeightsOverrideDefaults(t *testing.T) {
	agg := NewAggregator(testLogger(), domain.EngineConfig{
		AggregationWeights: map[domain.Disease]float64{
			domain.CORONARY_ARTERY_DISEASE: 1.0,
			domain.HEART_ATTACK:            3.0,
		},
	})

	overall, _ := agg.Aggregate([]domain.DiseaseResult{
		result(domain.CORONARY_ARTERY_DISEASE, 0.8, 0.85),
		result(domain.HEART_ATTACK, 0.2, 0.78),
	})
	// (1*0.8 + 3*0.2) / 4
	assert.InDelta(t, 0.35, overall, 1e-9)
}
