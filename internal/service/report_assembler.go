package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardio-risk-server/internal/domain"
)

// displayPrecision is the documented rounding applied to chart series values
// only; the result fields themselves are carried unmodified.
const displayPrecision = 4

// ReportAssembler packages aggregated results, recommendations and chart-ready
// series into the final report. Pure packaging: no new risk computation
// happens here.
type ReportAssembler struct{}

// NewReportAssembler creates a report assembler.
func NewReportAssembler() *ReportAssembler {
	return &ReportAssembler{}
}

// Assemble builds the report. record may be nil for the externally-submitted
// results path, in which case the patient summary block is omitted.
func (ra *ReportAssembler) Assemble(
	record *domain.PatientRecord,
	results []domain.DiseaseResult,
	overall float64,
	primary *domain.DiseaseResult,
	recommendations []domain.Recommendation,
	duration time.Duration,
) *domain.Report {
	report := &domain.Report{
		ID:               uuid.New().String(),
		GeneratedAt:      time.Now().UTC(),
		OverallRiskScore: overall,
		OverallRiskLevel: domain.RiskLevelForProbability(overall),
		PrimaryConcern:   primary,
		Results:          results,
		Recommendations:  recommendations,
		Interpretations:  interpretations(results),
		MonitoringPlan:   monitoringPlan(domain.RiskLevelForProbability(overall)),
		Charts:           chartData(results),
		ProcessingTime:   duration,
	}

	if record != nil {
		report.Patient = patientSummary(record)
	}

	return report
}

func patientSummary(r *domain.PatientRecord) domain.PatientSummary {
	return domain.PatientSummary{
		Age:                  r.Age,
		Sex:                  r.Sex,
		RestingBloodPressure: fmt.Sprintf("%d mmHg", r.RestingBloodPressure),
		Cholesterol:          fmt.Sprintf("%d mg/dl", r.Cholesterol),
		MaxHeartRate:         fmt.Sprintf("%d bpm", r.MaxHeartRate),
		ChestPainType:        strings.ReplaceAll(string(r.ChestPainType), "-", " "),
		ExerciseAngina:       r.ExerciseAngina,
		FastingBloodSugar:    r.FastingBloodSugar,
		STDepression:         fmt.Sprintf("%.1f", r.STDepression),
		VesselsColored:       r.VesselsColored,
	}
}

// chartData derives the visualization-ready series. Values are rounded to the
// display precision; the underlying results keep full precision.
func chartData(results []domain.DiseaseResult) domain.ChartData {
	probabilities := make([]domain.SeriesPoint, 0, len(results))
	confidences := make([]domain.SeriesPoint, 0, len(results))
	factorSeries := make([]domain.FactorSeries, 0, len(results))
	distribution := map[domain.RiskLevel]int{
		domain.RISK_LOW:    0,
		domain.RISK_MEDIUM: 0,
		domain.RISK_HIGH:   0,
	}

	for _, r := range results {
		probabilities = append(probabilities, domain.SeriesPoint{
			Label: r.DiseaseName,
			Value: roundDisplay(r.Probability),
		})
		confidences = append(confidences, domain.SeriesPoint{
			Label: r.DiseaseName,
			Value: roundDisplay(r.Confidence),
		})
		factorSeries = append(factorSeries, domain.FactorSeries{
			Disease: r.Disease,
			Points:  factorPoints(r.FactorWeights),
		})
		distribution[r.RiskLevel]++
	}

	return domain.ChartData{
		Probabilities: probabilities,
		Confidences:   confidences,
		FactorWeights: factorSeries,
		RiskDistribution: []domain.SeriesPoint{
			{Label: domain.RISK_LOW.String(), Value: float64(distribution[domain.RISK_LOW])},
			{Label: domain.RISK_MEDIUM.String(), Value: float64(distribution[domain.RISK_MEDIUM])},
			{Label: domain.RISK_HIGH.String(), Value: float64(distribution[domain.RISK_HIGH])},
		},
	}
}

// factorPoints orders a factor-weight map descending by weight with a
// label-ascending tie-break, matching the key_factors ordering.
func factorPoints(weights map[string]float64) []domain.SeriesPoint {
	points := make([]domain.SeriesPoint, 0, len(weights))
	for name, w := range weights {
		points = append(points, domain.SeriesPoint{Label: name, Value: roundDisplay(w)})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Label < points[j].Label
	})
	return points
}

// interpretations renders the per-disease clinical narrative carried on the
// report for the presentation layer.
func interpretations(results []domain.DiseaseResult) map[string]string {
	out := make(map[string]string, len(results))
	for _, r := range results {
		factors := "the provided clinical parameters"
		if len(r.KeyFactors) > 0 {
			n := len(r.KeyFactors)
			if n > 3 {
				n = 3
			}
			factors = strings.Join(r.KeyFactors[:n], ", ")
		}
		out[string(r.Disease)] = fmt.Sprintf(
			"%s shows %s risk (%.1f%% probability, %.1f%% confidence). Contributing factors: %s.",
			r.DiseaseName,
			strings.ToLower(r.RiskLevel.String()),
			r.Probability*100,
			r.Confidence*100,
			factors,
		)
	}
	return out
}

// monitoringPlan returns the measurement cadence map for the overall tier.
func monitoringPlan(tier domain.RiskLevel) map[string]string {
	switch tier {
	case domain.RISK_HIGH:
		return map[string]string{
			"blood_pressure": "Weekly self-monitoring, monthly clinical check",
			"cholesterol":    "Every 3 months",
			"ecg":            "Every 6 months or as clinically indicated",
			"symptoms":       "Daily awareness, immediate reporting of changes",
		}
	case domain.RISK_MEDIUM:
		return map[string]string{
			"blood_pressure": "Monthly self-monitoring",
			"cholesterol":    "Every 6 months",
			"ecg":            "As clinically indicated",
			"symptoms":       "Report new or worsening symptoms",
		}
	default:
		return map[string]string{
			"blood_pressure": "Monthly self-monitoring",
			"cholesterol":    "Annually",
			"general":        "Annual comprehensive exam",
		}
	}
}

func roundDisplay(v float64) float64 {
	factor := math.Pow10(displayPrecision)
	return math.Round(v*factor) / factor
}
