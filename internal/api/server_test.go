package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-server/internal/domain"
	"github.com/cardio-risk-server/internal/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &domain.Config{
		Server:  domain.ServerConfig{CacheSize: 16},
		Logging: domain.LoggingConfig{Level: "error"},
	}
	analyzer := service.NewAnalyzer(logger, cfg.Engine)

	server, err := NewServer(logger, cfg, analyzer)
	require.NoError(t, err)
	return server
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"patient_id":               "patient-42",
		"age":                      54,
		"sex":                      "male",
		"chest_pain_type":          "typical-angina",
		"resting_blood_pressure":   140,
		"cholesterol":              280,
		"fasting_blood_sugar_high": false,
		"resting_ecg":              "normal",
		"max_heart_rate":           150,
		"exercise_angina":          true,
		"st_depression":            1.2,
		"st_slope":                 "flat",
		"vessels_colored":          1,
		"thalassemia":              "normal",
	}
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Len(t, body["diseases"], 4)
}

func TestAnalyzeEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/v1/analyze", validPayload())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report domain.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "patient-42", report.PatientID)
	assert.Len(t, report.Results, 4)
	assert.Equal(t, domain.RISK_HIGH, report.OverallRiskLevel)
	assert.NotNil(t, report.PrimaryConcern)
	assert.NotEmpty(t, report.Recommendations)
	assert.NotEmpty(t, report.Charts.Probabilities)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestAnalyzeAssignsPatientIDWhenMissing(t *testing.T) {
	server := newTestServer(t)

	payload := validPayload()
	delete(payload, "patient_id")

	w := doJSON(t, server, http.MethodPost, "/api/v1/analyze", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var report domain.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.NotEmpty(t, report.PatientID)
}

func TestAnalyzeValidationErrorListsAllFields(t *testing.T) {
	server := newTestServer(t)

	payload := validPayload()
	payload["age"] = 300
	payload["cholesterol"] = 900

	w := doJSON(t, server, http.MethodPost, "/api/v1/analyze", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error  domain.APIError     `json:"error"`
		Fields []domain.FieldError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.ErrValidation, body.Error.Code)
	require.Len(t, body.Fields, 2)
	assert.Equal(t, "age", body.Fields[0].Field)
	assert.Equal(t, "cholesterol", body.Fields[1].Field)
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrInvalidInput)
}

func TestPatientDataRoundTrip(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/v1/analyze", validPayload())
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/v1/patient_data/patient-42", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var record domain.PatientRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, 54, record.Age)
	assert.Equal(t, domain.MALE, record.Sex)
}

func TestPatientDataNotFound(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/patient_data/nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportRoundTrip(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/v1/analyze", validPayload())
	require.Equal(t, http.StatusOK, w.Code)

	var report domain.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	w = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/report/%s", report.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched domain.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, report.ID, fetched.ID)
	assert.Equal(t, report.OverallRiskScore, fetched.OverallRiskScore)
}

func TestReportNotFound(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/report/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitResultsEndpoint(t *testing.T) {
	server := newTestServer(t)

	payload := map[string]interface{}{
		"results": []map[string]interface{}{
			{"disease": "coronary_artery_disease", "probability": 0.8, "confidence": 0.9},
			{"disease": "heart_attack", "probability": 0.2, "confidence": 0.7},
		},
	}

	w := doJSON(t, server, http.MethodPost, "/api/v1/submit_results/ext-1", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report domain.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "ext-1", report.PatientID)
	assert.InDelta(t, 0.5, report.OverallRiskScore, 1e-9)
	assert.Equal(t, domain.RISK_MEDIUM, report.OverallRiskLevel)
}

func TestAnalyzeTimesOutWhenRequestDeadlineExpires(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &domain.Config{
		Server:  domain.ServerConfig{CacheSize: 16, WriteTimeout: time.Nanosecond},
		Logging: domain.LoggingConfig{Level: "error"},
	}
	analyzer := service.NewAnalyzer(logger, cfg.Engine)
	server, err := NewServer(logger, cfg, analyzer)
	require.NoError(t, err)

	w := doJSON(t, server, http.MethodPost, "/api/v1/analyze", validPayload())
	require.Equal(t, http.StatusRequestTimeout, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), domain.ErrInternalServer)
}

func TestSubmitResultsValidation(t *testing.T) {
	server := newTestServer(t)

	payload := map[string]interface{}{
		"results": []map[string]interface{}{
			{"disease": "arrhythmia", "probability": 2.5},
		},
	}

	w := doJSON(t, server, http.MethodPost, "/api/v1/submit_results/ext-2", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "probability")
}
