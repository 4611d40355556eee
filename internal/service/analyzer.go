package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-server/internal/domain"
)

// RemoteScorer delegates disease scoring to an external algorithm service.
// Implementations must be safe for concurrent use; a failure makes the
// analyzer fall back to the local models.
type RemoteScorer interface {
	Score(ctx context.Context, record *domain.PatientRecord, diseases []domain.Disease) ([]domain.DiseaseResult, error)
}

// Analyzer is the full assessment pipeline: validation, parallel disease
// scoring, aggregation, recommendation and report assembly. It is stateless
// between calls and safe for concurrent use.
type Analyzer struct {
	logger       *logrus.Logger
	diseases     []domain.Disease
	orchestrator *Orchestrator
	aggregator   *Aggregator
	recommender  *Recommender
	assembler    *ReportAssembler
	remote       RemoteScorer
}

// NewAnalyzer wires the pipeline stages from the engine configuration. An
// empty disease list selects the full default set.
func NewAnalyzer(logger *logrus.Logger, cfg domain.EngineConfig) *Analyzer {
	diseases := cfg.Diseases
	if len(diseases) == 0 {
		diseases = domain.DiseasePriority
		cfg.Diseases = diseases
	}
	return &Analyzer{
		logger:       logger,
		diseases:     diseases,
		orchestrator: NewOrchestrator(logger, cfg, NewRegistry(cfg)),
		aggregator:   NewAggregator(logger, cfg),
		recommender:  NewRecommender(),
		assembler:    NewReportAssembler(),
	}
}

// WithRemoteScorer enables delegation to an external algorithm service. The
// local models remain the fallback path.
func (a *Analyzer) WithRemoteScorer(remote RemoteScorer) *Analyzer {
	a.remote = remote
	return a
}

// Diseases returns the disease set this analyzer scores.
func (a *Analyzer) Diseases() []domain.Disease {
	return a.diseases
}

// Analyze runs the complete pipeline for one patient record and returns the
// assembled report. Validation failures are returned as *ValidationError with
// every offending field listed.
func (a *Analyzer) Analyze(ctx context.Context, record *domain.PatientRecord) (*domain.Report, error) {
	if record == nil {
		return nil, fmt.Errorf("patient record is required")
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	results, scoringTime, err := a.score(ctx, record)
	if err != nil {
		return nil, err
	}

	overall, primary := a.aggregator.Aggregate(results)
	recommendations := a.recommender.Recommend(overall, results)
	// processing_time reports the scoring phase only; aggregation and
	// assembly are not part of it.
	report := a.assembler.Assemble(record, results, overall, primary, recommendations, scoringTime)
	report.PatientID = record.PatientID

	a.logger.WithFields(logrus.Fields{
		"report_id":          report.ID,
		"patient_id":         record.PatientID,
		"overall_risk_score": overall,
		"overall_risk_level": report.OverallRiskLevel,
		"scoring_time":       scoringTime,
	}).Info("Completed risk assessment")

	return report, nil
}

// score delegates to the remote algorithm service when one is configured and
// falls back to the local models if the call fails.
func (a *Analyzer) score(ctx context.Context, record *domain.PatientRecord) ([]domain.DiseaseResult, time.Duration, error) {
	if a.remote != nil {
		start := time.Now()
		results, err := a.remote.Score(ctx, record, a.diseases)
		if err == nil {
			return results, time.Since(start), nil
		}
		a.logger.WithError(err).Warn("Remote scoring failed, falling back to local models")
	}
	return a.orchestrator.Run(ctx, record, a.diseases)
}

// AnalyzeSubmitted builds a report from externally computed disease results,
// entering the pipeline at the aggregation stage. Results are range-checked
// and missing risk levels are derived from the probability; there is no
// patient record, so the report carries no patient summary.
func (a *Analyzer) AnalyzeSubmitted(patientID string, results []domain.DiseaseResult) (*domain.Report, error) {
	if len(results) == 0 {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "results", Message: "at least one disease result is required"},
		}}
	}

	start := time.Now()
	checked := make([]domain.DiseaseResult, 0, len(results))
	var fields []domain.FieldError
	for i, r := range results {
		if r.Disease == "" {
			fields = append(fields, domain.FieldError{
				Field:   fmt.Sprintf("results[%d].disease", i),
				Message: "disease is required",
			})
			continue
		}
		if r.Probability < 0 || r.Probability > 1 {
			fields = append(fields, domain.FieldError{
				Field:   fmt.Sprintf("results[%d].probability", i),
				Message: fmt.Sprintf("must be in [0,1], got %v", r.Probability),
			})
			continue
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			fields = append(fields, domain.FieldError{
				Field:   fmt.Sprintf("results[%d].confidence", i),
				Message: fmt.Sprintf("must be in [0,1], got %v", r.Confidence),
			})
			continue
		}
		if r.RiskLevel != "" && !r.RiskLevel.IsValid() {
			fields = append(fields, domain.FieldError{
				Field:   fmt.Sprintf("results[%d].risk_level", i),
				Message: fmt.Sprintf("unknown risk level %q", r.RiskLevel),
			})
			continue
		}
		if r.DiseaseName == "" {
			r.DiseaseName = r.Disease.DisplayName()
		}
		if r.RiskLevel == "" {
			r.RiskLevel = domain.RiskLevelForProbability(r.Probability)
		}
		checked = append(checked, r)
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	overall, primary := a.aggregator.Aggregate(checked)
	recommendations := a.recommender.Recommend(overall, checked)
	report := a.assembler.Assemble(nil, checked, overall, primary, recommendations, time.Since(start))
	report.PatientID = patientID

	a.logger.WithFields(logrus.Fields{
		"report_id":          report.ID,
		"patient_id":         patientID,
		"overall_risk_score": overall,
		"submitted_results":  len(checked),
	}).Info("Completed assessment from submitted results")

	return report, nil
}
