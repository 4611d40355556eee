// Package remote delegates disease scoring to an external algorithm service
// over HTTP, wrapping calls with rate limiting and a circuit breaker so a
// degraded service never takes down the local pipeline.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cardio-risk-server/internal/domain"
)

// Client calls the external scoring endpoint. It satisfies the analyzer's
// RemoteScorer contract; errors trigger fallback to the local models.
type Client struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// scoreRequest is the wire format posted to the scoring endpoint: the flat
// numeric feature vector plus the diseases to score.
type scoreRequest struct {
	PatientID string           `json:"patient_id,omitempty"`
	Features  []float64        `json:"features"`
	Diseases  []domain.Disease `json:"diseases"`
}

// scoreResponse is the wire format returned by the scoring endpoint.
type scoreResponse struct {
	Results []domain.DiseaseResult `json:"results"`
}

// NewClient creates a remote scoring client from configuration.
func NewClient(logger *logrus.Logger, cfg domain.RemoteConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RateLimit
	if rps == 0 {
		rps = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "AlgorithmService",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(rps), 1),
		breaker:   breaker,
		logger:    logger,
	}
}

// Score posts the patient's feature vector and returns the remotely computed
// disease results. Risk levels missing from the response are derived locally.
func (c *Client) Score(ctx context.Context, record *domain.PatientRecord, diseases []domain.Disease) ([]domain.DiseaseResult, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doScore(ctx, record, diseases)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("algorithm service unavailable (circuit breaker open)")
		}
		return nil, fmt.Errorf("algorithm service query failed: %w", err)
	}

	return result.([]domain.DiseaseResult), nil
}

func (c *Client) doScore(ctx context.Context, record *domain.PatientRecord, diseases []domain.Disease) ([]domain.DiseaseResult, error) {
	payload, err := json.Marshal(scoreRequest{
		PatientID: record.PatientID,
		Features:  record.Features(),
		Diseases:  diseases,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("algorithm service returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode score response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return nil, fmt.Errorf("algorithm service returned no results")
	}

	for i := range decoded.Results {
		r := &decoded.Results[i]
		if r.Probability < 0 || r.Probability > 1 {
			return nil, fmt.Errorf("algorithm service returned out-of-range probability %v for %s", r.Probability, r.Disease)
		}
		if r.DiseaseName == "" {
			r.DiseaseName = r.Disease.DisplayName()
		}
		if r.RiskLevel == "" {
			r.RiskLevel = domain.RiskLevelForProbability(r.Probability)
		}
	}

	return decoded.Results, nil
}

// State exposes the circuit breaker state for health reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
