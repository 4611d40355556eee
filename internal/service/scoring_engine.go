package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/cardio-risk-server/internal/domain"
)

// ScoringModel is the capability every disease scorer provides: a pure,
// deterministic function from a validated patient record to a DiseaseResult.
// Real trained models can be substituted behind this contract.
type ScoringModel interface {
	Disease() domain.Disease
	Score(record *domain.PatientRecord) (*domain.DiseaseResult, error)
}

// probabilityGain is the slope of the clipped-linear squashing function that
// maps the weighted raw score to a probability. Chosen so that a profile
// meeting roughly half of a model's weighted criteria lands in the upper
// medium band, mirroring the additive-then-clip behavior of the reference
// simulation.
const probabilityGain = 1.4

// defaultTopFactors is the key_factors truncation count when the engine
// configuration does not override it.
const defaultTopFactors = 5

// factorScorer normalizes one patient attribute to a [0,1] sub-score using
// clinically motivated thresholds.
type factorScorer func(r *domain.PatientRecord) float64

// factorScorers binds stable factor names to their sub-score functions.
// Weight tables reference these names; an unknown name in a table is treated
// as a missing model input and degrades the result instead of failing.
var factorScorers = map[string]factorScorer{
	"age":                 ageScore,
	"sex":                 sexScore,
	"chest_pain":          chestPainScore,
	"blood_pressure":      bloodPressureScore,
	"cholesterol":         cholesterolScore,
	"fasting_blood_sugar": fastingBloodSugarScore,
	"resting_ecg":         restingECGScore,
	"max_heart_rate":      heartRateInstabilityScore,
	"heart_rate_reserve":  chronotropicDeficitScore,
	"exercise_angina":     exerciseAnginaScore,
	"st_depression":       stDepressionScore,
	"st_slope":            stSlopeScore,
	"major_vessels":       majorVesselsScore,
	"thalassemia":         thalassemiaScore,
}

func ageScore(r *domain.PatientRecord) float64 {
	switch {
	case r.Age > 60:
		return 1.0
	case r.Age > 45:
		return 0.5
	default:
		return 0.0
	}
}

func sexScore(r *domain.PatientRecord) float64 {
	if r.Sex == domain.MALE {
		return 1.0
	}
	return 0.0
}

func chestPainScore(r *domain.PatientRecord) float64 {
	switch r.ChestPainType {
	case domain.TYPICAL_ANGINA:
		return 1.0
	case domain.ATYPICAL_ANGINA:
		return 0.85
	case domain.NON_ANGINAL:
		return 0.25
	default:
		return 0.1
	}
}

func bloodPressureScore(r *domain.PatientRecord) float64 {
	switch {
	case r.RestingBloodPressure > 140:
		return 1.0
	case r.RestingBloodPressure > 130:
		return 0.5
	case r.RestingBloodPressure > 120:
		return 0.25
	default:
		return 0.0
	}
}

func cholesterolScore(r *domain.PatientRecord) float64 {
	switch {
	case r.Cholesterol > 240:
		return 1.0
	case r.Cholesterol > 200:
		return 0.5
	default:
		return 0.0
	}
}

func fastingBloodSugarScore(r *domain.PatientRecord) float64 {
	if r.FastingBloodSugar {
		return 1.0
	}
	return 0.0
}

func restingECGScore(r *domain.PatientRecord) float64 {
	switch r.RestingECG {
	case domain.ST_T_ABNORMALITY:
		return 1.0
	case domain.LV_HYPERTROPHY:
		return 0.8
	default:
		return 0.0
	}
}

// heartRateInstabilityScore flags both an abnormally blunted and an
// abnormally exaggerated heart rate response relative to the age-predicted
// maximum, the pattern the arrhythmia model cares about.
func heartRateInstabilityScore(r *domain.PatientRecord) float64 {
	predicted := r.PredictedMaxHeartRate()
	ratio := float64(r.MaxHeartRate) / predicted
	switch {
	case ratio < 0.6:
		return 1.0
	case ratio > 0.95:
		return 0.8
	case ratio < 0.8:
		return 0.5
	default:
		return 0.0
	}
}

// chronotropicDeficitScore flags only the blunted response, the ischemia
// marker used by the coronary and general models.
func chronotropicDeficitScore(r *domain.PatientRecord) float64 {
	predicted := r.PredictedMaxHeartRate()
	ratio := float64(r.MaxHeartRate) / predicted
	switch {
	case ratio < 0.6:
		return 1.0
	case ratio < 0.8:
		return 0.5
	default:
		return 0.0
	}
}

func exerciseAnginaScore(r *domain.PatientRecord) float64 {
	if r.ExerciseAngina {
		return 1.0
	}
	return 0.0
}

func stDepressionScore(r *domain.PatientRecord) float64 {
	switch {
	case r.STDepression > 2.0:
		return 1.0
	case r.STDepression > 1.0:
		return 0.5
	case r.STDepression > 0.5:
		return 0.25
	default:
		return 0.0
	}
}

func stSlopeScore(r *domain.PatientRecord) float64 {
	switch r.STSlope {
	case domain.SLOPE_DOWN:
		return 1.0
	case domain.SLOPE_FLAT:
		return 0.6
	default:
		return 0.0
	}
}

func majorVesselsScore(r *domain.PatientRecord) float64 {
	return float64(r.VesselsColored) / float64(domain.MaxVessels)
}

func thalassemiaScore(r *domain.PatientRecord) float64 {
	switch r.Thalassemia {
	case domain.REVERSIBLE_DEFECT:
		return 1.0
	case domain.FIXED_DEFECT:
		return 0.8
	default:
		return 0.0
	}
}

// DefaultModelWeights returns the static weight table for each disease. The
// tables are configuration, not logic: callers may override any of them via
// EngineConfig to substitute tuned or trained weights.
func DefaultModelWeights() map[domain.Disease]map[string]float64 {
	return map[domain.Disease]map[string]float64{
		domain.CORONARY_ARTERY_DISEASE: {
			"age":                0.15,
			"chest_pain":         0.25,
			"cholesterol":        0.20,
			"major_vessels":      0.25,
			"thalassemia":        0.15,
			"heart_rate_reserve": 0.10,
		},
		domain.HEART_ATTACK: {
			"age":             0.20,
			"blood_pressure":  0.25,
			"cholesterol":     0.20,
			"exercise_angina": 0.25,
			"st_depression":   0.10,
		},
		domain.ARRHYTHMIA: {
			"resting_ecg":     0.30,
			"max_heart_rate":  0.25,
			"exercise_angina": 0.25,
			"age":             0.20,
		},
		domain.GENERAL_CARDIOVASCULAR: {
			"age":                 0.15,
			"sex":                 0.10,
			"blood_pressure":      0.20,
			"cholesterol":         0.20,
			"fasting_blood_sugar": 0.10,
			"st_slope":            0.10,
			"st_depression":       0.15,
		},
	}
}

// baseConfidence is the per-disease starting confidence, adjusted downward as
// the record's inputs move toward clinical extremes.
var baseConfidence = map[domain.Disease]float64{
	domain.CORONARY_ARTERY_DISEASE: 0.85,
	domain.HEART_ATTACK:            0.78,
	domain.ARRHYTHMIA:              0.72,
	domain.GENERAL_CARDIOVASCULAR:  0.75,
}

// WeightedModel scores one disease from an injectable weight table.
type WeightedModel struct {
	disease    domain.Disease
	weights    map[string]float64
	topFactors int
}

// NewWeightedModel creates a scoring model for the given disease and weight
// table. topFactors bounds the key_factors list; zero selects the default.
func NewWeightedModel(disease domain.Disease, weights map[string]float64, topFactors int) *WeightedModel {
	if topFactors <= 0 {
		topFactors = defaultTopFactors
	}
	return &WeightedModel{
		disease:    disease,
		weights:    weights,
		topFactors: topFactors,
	}
}

// Disease returns the disease this model scores.
func (m *WeightedModel) Disease() domain.Disease {
	return m.disease
}

// Score computes the disease result for a validated record. Pure: no I/O, no
// shared state, identical input yields an identical result.
func (m *WeightedModel) Score(record *domain.PatientRecord) (*domain.DiseaseResult, error) {
	if len(m.weights) == 0 {
		return m.degradedResult("weight table unavailable"), nil
	}

	// Accumulate in sorted factor order: float addition is not associative,
	// and map iteration order would make repeated runs differ in the last bit.
	names := make([]string, 0, len(m.weights))
	for name := range m.weights {
		names = append(names, name)
	}
	sort.Strings(names)

	contributions := make(map[string]float64, len(m.weights))
	raw := 0.0
	for _, name := range names {
		scorer, ok := factorScorers[name]
		if !ok {
			// A table referencing an input this record shape cannot supply is
			// a defended configuration gap, not a scoring failure.
			return m.degradedResult(fmt.Sprintf("missing input: %s", name)), nil
		}
		c := m.weights[name] * scorer(record)
		contributions[name] = c
		raw += c
	}

	probability := clip01(raw * probabilityGain)
	factorWeights := normalizeContributions(contributions)
	keyFactors := m.describeTopFactors(factorWeights, record)

	return &domain.DiseaseResult{
		Disease:       m.disease,
		DiseaseName:   m.disease.DisplayName(),
		Probability:   probability,
		Confidence:    m.confidence(record),
		RiskLevel:     domain.RiskLevelForProbability(probability),
		KeyFactors:    keyFactors,
		FactorWeights: factorWeights,
	}, nil
}

// confidence reflects how typical the model's inputs are for this record.
// Boundary or clinically extreme values reduce trust in the fixed thresholds.
func (m *WeightedModel) confidence(record *domain.PatientRecord) float64 {
	conf := baseConfidence[m.disease]
	if conf == 0 {
		conf = 0.70
	}

	extremes := 0
	if record.Age > 100 || record.Age < 18 {
		extremes++
	}
	if record.Cholesterol > 500 || record.Cholesterol == 0 {
		extremes++
	}
	if record.RestingBloodPressure > 220 || record.RestingBloodPressure < 80 {
		extremes++
	}
	if record.MaxHeartRate <= domain.MinMaxHeartRate+5 || record.MaxHeartRate >= domain.MaxMaxHeartRate-5 {
		extremes++
	}
	if record.STDepression > 4.0 {
		extremes++
	}

	conf -= 0.05 * float64(extremes)
	if conf < 0.35 {
		conf = 0.35
	}
	return conf
}

// degradedResult is the defensive zero-confidence result used when the model
// cannot score the record.
func (m *WeightedModel) degradedResult(reason string) *domain.DiseaseResult {
	return &domain.DiseaseResult{
		Disease:       m.disease,
		DiseaseName:   m.disease.DisplayName(),
		Probability:   0,
		Confidence:    0,
		RiskLevel:     domain.RISK_LOW,
		KeyFactors:    []string{reason},
		FactorWeights: map[string]float64{reason: 1.0},
	}
}

// describeTopFactors renders the highest-weight contributing factors as
// human-readable strings, weight-descending with a name-ascending tie-break
// for determinism.
func (m *WeightedModel) describeTopFactors(factorWeights map[string]float64, record *domain.PatientRecord) []string {
	type fw struct {
		name   string
		weight float64
	}
	ranked := make([]fw, 0, len(factorWeights))
	for name, w := range factorWeights {
		if w <= 0 {
			continue
		}
		ranked = append(ranked, fw{name, w})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].name < ranked[j].name
	})

	if len(ranked) > m.topFactors {
		ranked = ranked[:m.topFactors]
	}

	factors := make([]string, 0, len(ranked))
	for _, f := range ranked {
		factors = append(factors, describeFactor(f.name, record))
	}
	return factors
}

// describeFactor turns a factor name into the record-specific explanation
// string carried on the report.
func describeFactor(name string, r *domain.PatientRecord) string {
	switch name {
	case "age":
		return fmt.Sprintf("Advanced age (%d years)", r.Age)
	case "sex":
		return "Male sex"
	case "chest_pain":
		return "Chest pain pattern consistent with angina"
	case "blood_pressure":
		return fmt.Sprintf("Elevated blood pressure (%d mmHg)", r.RestingBloodPressure)
	case "cholesterol":
		return fmt.Sprintf("High cholesterol (%d mg/dl)", r.Cholesterol)
	case "fasting_blood_sugar":
		return "Elevated fasting blood sugar"
	case "resting_ecg":
		return "Abnormal resting ECG"
	case "max_heart_rate":
		return fmt.Sprintf("Abnormal heart rate response (%d bpm)", r.MaxHeartRate)
	case "heart_rate_reserve":
		return fmt.Sprintf("Reduced heart rate reserve (%d bpm)", r.MaxHeartRate)
	case "exercise_angina":
		return "Exercise-induced chest pain"
	case "st_depression":
		return fmt.Sprintf("ST depression of %.1f", r.STDepression)
	case "st_slope":
		return "Abnormal ST segment slope"
	case "major_vessels":
		return fmt.Sprintf("Blocked major vessels (%d)", r.VesselsColored)
	case "thalassemia":
		return "Abnormal thalassemia test"
	default:
		return name
	}
}

// normalizeContributions rescales the record-specific contributions so they
// are non-negative and sum to 1.0. A record with no contributing factor gets
// uniform weights, keeping the invariant without inventing a ranking.
func normalizeContributions(contributions map[string]float64) map[string]float64 {
	names := make([]string, 0, len(contributions))
	for name := range contributions {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0.0
	for _, name := range names {
		if c := contributions[name]; c > 0 {
			total += c
		}
	}

	normalized := make(map[string]float64, len(contributions))
	if total <= 0 {
		uniform := 1.0 / float64(len(contributions))
		for name := range contributions {
			normalized[name] = uniform
		}
		return normalized
	}
	for name, c := range contributions {
		if c < 0 {
			c = 0
		}
		normalized[name] = c / total
	}
	return normalized
}

func clip01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Registry holds the scoring models available to the orchestrator, keyed by
// disease.
type Registry struct {
	models map[domain.Disease]ScoringModel
}

// NewRegistry builds a registry from the engine configuration: one weighted
// model per configured disease, falling back to the default weight tables for
// diseases the configuration does not override.
func NewRegistry(cfg domain.EngineConfig) *Registry {
	defaults := DefaultModelWeights()
	models := make(map[domain.Disease]ScoringModel, len(cfg.Diseases))
	for _, disease := range cfg.Diseases {
		weights, ok := cfg.ModelWeights[disease]
		if !ok {
			weights = defaults[disease]
		}
		models[disease] = NewWeightedModel(disease, weights, cfg.TopFactors)
	}
	return &Registry{models: models}
}

// Register adds or replaces a model, letting callers substitute trained
// implementations behind the ScoringModel contract.
func (r *Registry) Register(model ScoringModel) {
	r.models[model.Disease()] = model
}

// Lookup returns the model for a disease.
func (r *Registry) Lookup(disease domain.Disease) (ScoringModel, bool) {
	m, ok := r.models[disease]
	return m, ok
}
