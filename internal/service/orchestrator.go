package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-server/internal/domain"
)

const (
	defaultWorkers      = 4
	defaultModelTimeout = 2 * time.Second
)

// Orchestrator runs the configured disease models against one immutable
// patient record. Models execute fork-join across a bounded worker pool; a
// model panic or timeout is absorbed into a degraded result so the remaining
// diseases are unaffected. Output order is request order, not completion or
// score order.
type Orchestrator struct {
	logger   *logrus.Logger
	registry *Registry
	workers  int
	timeout  time.Duration
}

// NewOrchestrator creates an orchestrator over the given model registry.
func NewOrchestrator(logger *logrus.Logger, cfg domain.EngineConfig, registry *Registry) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := cfg.ModelTimeout
	if timeout <= 0 {
		timeout = defaultModelTimeout
	}
	return &Orchestrator{
		logger:   logger,
		registry: registry,
		workers:  workers,
		timeout:  timeout,
	}
}

// Run scores the record against every requested disease and returns the
// results in request order plus the scoring-phase duration. A requested
// disease with no registered model is a ConfigurationError surfaced before
// any scoring starts.
func (o *Orchestrator) Run(ctx context.Context, record *domain.PatientRecord, diseases []domain.Disease) ([]domain.DiseaseResult, time.Duration, error) {
	models := make([]ScoringModel, len(diseases))
	for i, disease := range diseases {
		model, ok := o.registry.Lookup(disease)
		if !ok {
			return nil, 0, &domain.ConfigurationError{
				Message: fmt.Sprintf("no scoring model registered for disease %q", disease),
			}
		}
		models[i] = model
	}

	start := time.Now()

	results := make([]domain.DiseaseResult, len(diseases))
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup

	for i, model := range models {
		wg.Add(1)
		go func(index int, m ScoringModel) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[index] = o.scoreOne(ctx, m, record)
		}(i, model)
	}

	// Workers exit promptly on cancellation (scoreOne watches ctx), so
	// waiting here never blocks an abandoned request for long and each
	// result slot is written exactly once.
	wg.Wait()

	duration := time.Since(start)
	if err := ctx.Err(); err != nil {
		return results, duration, err
	}
	o.logger.WithFields(logrus.Fields{
		"diseases":        len(diseases),
		"processing_time": duration,
	}).Debug("Completed disease scoring run")

	return results, duration, nil
}

// scoreOne invokes a single model with panic recovery and a per-model
// timeout. Failures never propagate past the orchestrator; they become
// zero-confidence results.
func (o *Orchestrator) scoreOne(ctx context.Context, model ScoringModel, record *domain.PatientRecord) domain.DiseaseResult {
	type outcome struct {
		result *domain.DiseaseResult
		err    error
	}

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("model panic: %v", r)}
			}
		}()
		result, err := model.Score(record)
		ch <- outcome{result: result, err: err}
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		if out.err != nil {
			o.logger.WithError(out.err).WithField("disease", model.Disease()).Warn("Scoring model failed, substituting degraded result")
			return degradedFor(model.Disease(), "model unavailable")
		}
		return *out.result
	case <-timer.C:
		o.logger.WithFields(logrus.Fields{
			"disease": model.Disease(),
			"timeout": o.timeout,
		}).Warn("Scoring model timed out, substituting degraded result")
		return degradedFor(model.Disease(), "model unavailable")
	case <-ctx.Done():
		return degradedFor(model.Disease(), "model unavailable")
	}
}

// degradedFor is the substitute result for a failed, timed-out or cancelled
// model invocation.
func degradedFor(disease domain.Disease, reason string) domain.DiseaseResult {
	return domain.DiseaseResult{
		Disease:       disease,
		DiseaseName:   disease.DisplayName(),
		Probability:   0,
		Confidence:    0,
		RiskLevel:     domain.RISK_LOW,
		KeyFactors:    []string{reason},
		FactorWeights: map[string]float64{reason: 1.0},
	}
}
