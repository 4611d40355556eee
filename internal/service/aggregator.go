package service

import (
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-server/internal/domain"
)

// DefaultAggregationWeights returns the per-disease weights used for the
// overall risk score when the configuration does not override them. The
// weights are renormalized over whichever diseases are actually present, so
// scoring a subset does not deflate the overall score.
func DefaultAggregationWeights() map[domain.Disease]float64 {
	return map[domain.Disease]float64{
		domain.CORONARY_ARTERY_DISEASE: 0.30,
		domain.HEART_ATTACK:            0.30,
		domain.ARRHYTHMIA:              0.20,
		domain.GENERAL_CARDIOVASCULAR:  0.20,
	}
}

// Aggregator combines per-disease results into one overall risk score and a
// primary concern.
type Aggregator struct {
	logger  *logrus.Logger
	weights map[domain.Disease]float64
}

// NewAggregator creates an aggregator with the configured per-disease
// weights, falling back to the defaults when none are configured.
func NewAggregator(logger *logrus.Logger, cfg domain.EngineConfig) *Aggregator {
	weights := cfg.AggregationWeights
	if len(weights) == 0 {
		weights = DefaultAggregationWeights()
	}
	return &Aggregator{logger: logger, weights: weights}
}

// Aggregate computes the weighted overall risk score and selects the primary
// concern. An empty result set is not an error: the overall score is 0.0 and
// there is no primary concern.
func (a *Aggregator) Aggregate(results []domain.DiseaseResult) (float64, *domain.DiseaseResult) {
	if len(results) == 0 {
		return 0.0, nil
	}

	weightedSum := 0.0
	totalWeight := 0.0
	for _, r := range results {
		w, ok := a.weights[r.Disease]
		if !ok {
			// Externally submitted results may name diseases outside the
			// configured set; give them unit weight rather than dropping them.
			w = 1.0
		}
		weightedSum += w * r.Probability
		totalWeight += w
	}

	overall := 0.0
	if totalWeight > 0 {
		overall = weightedSum / totalWeight
	}

	primary := a.selectPrimaryConcern(results)

	a.logger.WithFields(logrus.Fields{
		"overall_risk_score": overall,
		"primary_concern":    primary.Disease,
		"result_count":       len(results),
	}).Debug("Aggregated disease results")

	return overall, primary
}

// selectPrimaryConcern picks the result with the highest probability, broken
// by highest confidence, then by the fixed disease priority ordering.
func (a *Aggregator) selectPrimaryConcern(results []domain.DiseaseResult) *domain.DiseaseResult {
	best := 0
	for i := 1; i < len(results); i++ {
		if higherConcern(&results[i], &results[best]) {
			best = i
		}
	}
	chosen := results[best]
	return &chosen
}

func higherConcern(candidate, current *domain.DiseaseResult) bool {
	if candidate.Probability != current.Probability {
		return candidate.Probability > current.Probability
	}
	if candidate.Confidence != current.Confidence {
		return candidate.Confidence > current.Confidence
	}
	return priorityIndex(candidate.Disease) < priorityIndex(current.Disease)
}

func priorityIndex(d domain.Disease) int {
	for i, p := range domain.DiseasePriority {
		if p == d {
			return i
		}
	}
	return len(domain.DiseasePriority)
}
