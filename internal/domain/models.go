package domain

import (
	"time"
)

// DiseaseResult is the structured output of one disease scoring model for one
// patient record.
type DiseaseResult struct {
	Disease       Disease            `json:"disease"`
	DiseaseName   string             `json:"disease_name"`
	Probability   float64            `json:"probability"` // [0,1]
	Confidence    float64            `json:"confidence"`  // [0,1]
	RiskLevel     RiskLevel          `json:"risk_level"`
	KeyFactors    []string           `json:"key_factors"`
	FactorWeights map[string]float64 `json:"factor_weights"` // normalized, sums to 1.0
}

// Recommendation is a single clinical action item.
type Recommendation struct {
	Urgency            Urgency `json:"urgency"`
	Text               string  `json:"text"`
	SpecialistReferral bool    `json:"specialist_referral,omitempty"`
	Disease            Disease `json:"disease,omitempty"` // set for disease-specific referrals
}

// SeriesPoint is one (label, value) pair of a chart-ready numeric series.
// Rendering is the presentation layer's concern; the engine only supplies data.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// FactorSeries carries the per-disease factor/weight series for explanation charts.
type FactorSeries struct {
	Disease Disease       `json:"disease"`
	Points  []SeriesPoint `json:"points"`
}

// ChartData bundles every visualization-ready series derived from a report.
type ChartData struct {
	Probabilities    []SeriesPoint  `json:"probabilities"`     // disease display name -> probability
	Confidences      []SeriesPoint  `json:"confidences"`       // disease display name -> confidence
	FactorWeights    []FactorSeries `json:"factor_weights"`    // per disease, weight-descending
	RiskDistribution []SeriesPoint  `json:"risk_distribution"` // tier -> count
}

// PatientSummary is the display block of key measurements and risk indicators
// carried on the report for the presentation layer.
type PatientSummary struct {
	Age                  int    `json:"age"`
	Sex                  Sex    `json:"sex"`
	RestingBloodPressure string `json:"resting_blood_pressure"`
	Cholesterol          string `json:"cholesterol"`
	MaxHeartRate         string `json:"max_heart_rate"`
	ChestPainType        string `json:"chest_pain_type"`
	ExerciseAngina       bool   `json:"exercise_angina"`
	FastingBloodSugar    bool   `json:"fasting_blood_sugar_high"`
	STDepression         string `json:"st_depression"`
	VesselsColored       int    `json:"vessels_colored"`
}

// Report is the final structured output of the full pipeline, consumed by the
// presentation layer. Created once per analysis run and held only in memory.
type Report struct {
	ID               string            `json:"id"`
	PatientID        string            `json:"patient_id,omitempty"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Patient          PatientSummary    `json:"patient_summary"`
	OverallRiskScore float64           `json:"overall_risk_score"`
	OverallRiskLevel RiskLevel         `json:"overall_risk_level"`
	PrimaryConcern   *DiseaseResult    `json:"primary_concern,omitempty"`
	Results          []DiseaseResult   `json:"results"`
	Recommendations  []Recommendation  `json:"recommendations"`
	Interpretations  map[string]string `json:"interpretations,omitempty"`   // disease -> clinical narrative
	MonitoringPlan   map[string]string `json:"monitoring_plan,omitempty"`   // measurement -> cadence
	Charts           ChartData         `json:"charts"`
	ProcessingTime   time.Duration     `json:"processing_time"`
}

// Configuration models, loaded by internal/config via viper.

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst    int           `mapstructure:"rate_burst"`
	CacheSize    int           `mapstructure:"cache_size"` // recent patient/report LRU entries
}

// EngineConfig enumerates every tunable of the scoring pipeline: the disease
// set, per-disease weight tables, aggregation weights, and execution limits.
// There is no global simulation state; the orchestrator receives this object
// at construction.
type EngineConfig struct {
	Diseases           []Disease                      `mapstructure:"diseases"`
	ModelWeights       map[Disease]map[string]float64 `mapstructure:"model_weights"`
	AggregationWeights map[Disease]float64            `mapstructure:"aggregation_weights"`
	ModelTimeout       time.Duration                  `mapstructure:"model_timeout"`
	Workers            int                            `mapstructure:"workers"`
	TopFactors         int                            `mapstructure:"top_factors"`
}

// RemoteConfig configures the optional external algorithm service. When
// Enabled, scoring is delegated to the remote endpoint and falls back to the
// local simulation models if the call fails or the circuit breaker is open.
type RemoteConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"` // requests per second
}

// LoggingConfig holds logrus settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}
