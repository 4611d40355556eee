package domain

// PatientRecord is the validated 13-attribute input to the scoring pipeline.
// A record is immutable once constructed; use NewPatientRecord so that an
// out-of-range or unknown-enum record can never reach scoring.
type PatientRecord struct {
	PatientID            string        `json:"patient_id,omitempty"` // caller-supplied, assigned when absent
	Age                  int           `json:"age" binding:"required"`
	Sex                  Sex           `json:"sex" binding:"required"`
	ChestPainType        ChestPainType `json:"chest_pain_type" binding:"required"`
	RestingBloodPressure int           `json:"resting_blood_pressure" binding:"required"` // mmHg
	Cholesterol          int           `json:"cholesterol"`                               // mg/dl
	FastingBloodSugar    bool          `json:"fasting_blood_sugar_high"`                  // > 120 mg/dl
	RestingECG           RestingECG    `json:"resting_ecg" binding:"required"`
	MaxHeartRate         int           `json:"max_heart_rate" binding:"required"` // bpm
	ExerciseAngina       bool          `json:"exercise_angina"`
	STDepression         float64       `json:"st_depression"` // oldpeak
	STSlope              STSlope       `json:"st_slope" binding:"required"`
	VesselsColored       int           `json:"vessels_colored"` // 0-3, fluoroscopy
	Thalassemia          Thalassemia   `json:"thalassemia" binding:"required"`
}

// Clinical validation ranges for the numeric attributes.
const (
	MinAge          = 1
	MaxAge          = 120
	MinRestingBP    = 50
	MaxRestingBP    = 250
	MinCholesterol  = 0
	MaxCholesterol  = 600
	MinMaxHeartRate = 60
	MaxMaxHeartRate = 220
	MaxVessels      = 3
)

// NewPatientRecord validates every field and returns the constructed record,
// or a ValidationError naming all offending fields.
func NewPatientRecord(r PatientRecord) (*PatientRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks every field's range or enum membership. All violations are
// collected so the caller sees the full list in one pass.
func (r *PatientRecord) Validate() error {
	var fields []FieldError

	if r.Age < MinAge || r.Age > MaxAge {
		fields = append(fields, FieldError{Field: "age", Message: "must be between 1 and 120", Value: r.Age})
	}
	if !r.Sex.IsValid() {
		fields = append(fields, FieldError{Field: "sex", Message: "must be 'male' or 'female'", Value: r.Sex})
	}
	if !r.ChestPainType.IsValid() {
		fields = append(fields, FieldError{Field: "chest_pain_type", Message: "unknown chest pain type", Value: r.ChestPainType})
	}
	if r.RestingBloodPressure < MinRestingBP || r.RestingBloodPressure > MaxRestingBP {
		fields = append(fields, FieldError{Field: "resting_blood_pressure", Message: "must be between 50 and 250 mmHg", Value: r.RestingBloodPressure})
	}
	if r.Cholesterol < MinCholesterol || r.Cholesterol > MaxCholesterol {
		fields = append(fields, FieldError{Field: "cholesterol", Message: "must be between 0 and 600 mg/dl", Value: r.Cholesterol})
	}
	if !r.RestingECG.IsValid() {
		fields = append(fields, FieldError{Field: "resting_ecg", Message: "unknown resting ECG result", Value: r.RestingECG})
	}
	if r.MaxHeartRate < MinMaxHeartRate || r.MaxHeartRate > MaxMaxHeartRate {
		fields = append(fields, FieldError{Field: "max_heart_rate", Message: "must be between 60 and 220 bpm", Value: r.MaxHeartRate})
	}
	if r.STDepression < 0 {
		fields = append(fields, FieldError{Field: "st_depression", Message: "must be non-negative", Value: r.STDepression})
	}
	if !r.STSlope.IsValid() {
		fields = append(fields, FieldError{Field: "st_slope", Message: "must be 'up', 'flat' or 'down'", Value: r.STSlope})
	}
	if r.VesselsColored < 0 || r.VesselsColored > MaxVessels {
		fields = append(fields, FieldError{Field: "vessels_colored", Message: "must be between 0 and 3", Value: r.VesselsColored})
	}
	if !r.Thalassemia.IsValid() {
		fields = append(fields, FieldError{Field: "thalassemia", Message: "unknown thalassemia result", Value: r.Thalassemia})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Features flattens the record to the 13-element numeric vector used by the
// external algorithm service, in the canonical UCI column order.
func (r *PatientRecord) Features() []float64 {
	return []float64{
		float64(r.Age),
		boolToFloat(r.Sex == MALE),
		chestPainOrdinal(r.ChestPainType),
		float64(r.RestingBloodPressure),
		float64(r.Cholesterol),
		boolToFloat(r.FastingBloodSugar),
		ecgOrdinal(r.RestingECG),
		float64(r.MaxHeartRate),
		boolToFloat(r.ExerciseAngina),
		r.STDepression,
		slopeOrdinal(r.STSlope),
		float64(r.VesselsColored),
		thalOrdinal(r.Thalassemia),
	}
}

// PredictedMaxHeartRate is the age-predicted maximum (220 - age), used by
// several scoring models to judge chronotropic response.
func (r *PatientRecord) PredictedMaxHeartRate() float64 {
	return 220 - float64(r.Age)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func chestPainOrdinal(c ChestPainType) float64 {
	switch c {
	case TYPICAL_ANGINA:
		return 1
	case ATYPICAL_ANGINA:
		return 2
	case NON_ANGINAL:
		return 3
	default:
		return 4
	}
}

func ecgOrdinal(e RestingECG) float64 {
	switch e {
	case ECG_NORMAL:
		return 0
	case ST_T_ABNORMALITY:
		return 1
	default:
		return 2
	}
}

func slopeOrdinal(s STSlope) float64 {
	switch s {
	case SLOPE_UP:
		return 1
	case SLOPE_FLAT:
		return 2
	default:
		return 3
	}
}

func thalOrdinal(t Thalassemia) float64 {
	// Legacy dataset encoding: 3 normal, 6 fixed defect, 7 reversible defect.
	switch t {
	case THAL_NORMAL:
		return 3
	case FIXED_DEFECT:
		return 6
	default:
		return 7
	}
}
