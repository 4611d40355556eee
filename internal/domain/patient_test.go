package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() PatientRecord {
	return PatientRecord{
		Age:                  54,
		Sex:                  MALE,
		ChestPainType:        TYPICAL_ANGINA,
		RestingBloodPressure: 140,
		Cholesterol:          280,
		FastingBloodSugar:    false,
		RestingECG:           ECG_NORMAL,
		MaxHeartRate:         150,
		ExerciseAngina:       true,
		STDepression:         1.2,
		STSlope:              SLOPE_FLAT,
		VesselsColored:       1,
		Thalassemia:          THAL_NORMAL,
	}
}

func TestNewPatientRecordValid(t *testing.T) {
	r, err := NewPatientRecord(validRecord())
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 54, r.Age)
	assert.Equal(t, MALE, r.Sex)
}

func TestNewPatientRecordInvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PatientRecord)
		field  string
	}{
		{"age too low", func(r *PatientRecord) { r.Age = 0 }, "age"},
		{"age too high", func(r *PatientRecord) { r.Age = 121 }, "age"},
		{"bad sex", func(r *PatientRecord) { r.Sex = "other" }, "sex"},
		{"bad chest pain", func(r *PatientRecord) { r.ChestPainType = "crushing" }, "chest_pain_type"},
		{"bp too low", func(r *PatientRecord) { r.RestingBloodPressure = 40 }, "resting_blood_pressure"},
		{"bp too high", func(r *PatientRecord) { r.RestingBloodPressure = 260 }, "resting_blood_pressure"},
		{"cholesterol too high", func(r *PatientRecord) { r.Cholesterol = 700 }, "cholesterol"},
		{"bad ecg", func(r *PatientRecord) { r.RestingECG = "inverted" }, "resting_ecg"},
		{"heart rate too low", func(r *PatientRecord) { r.MaxHeartRate = 50 }, "max_heart_rate"},
		{"negative st depression", func(r *PatientRecord) { r.STDepression = -0.1 }, "st_depression"},
		{"bad slope", func(r *PatientRecord) { r.STSlope = "sideways" }, "st_slope"},
		{"too many vessels", func(r *PatientRecord) { r.VesselsColored = 4 }, "vessels_colored"},
		{"bad thalassemia", func(r *PatientRecord) { r.Thalassemia = "unknown" }, "thalassemia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			_, err := NewPatientRecord(rec)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Contains(t, verr.Error(), tt.field)
		})
	}
}

func TestValidateCollectsAllOffendingFields(t *testing.T) {
	rec := validRecord()
	rec.Age = 0
	rec.Cholesterol = 700
	rec.STSlope = "sideways"

	err := rec.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
}

func TestFeaturesVector(t *testing.T) {
	rec := validRecord()
	features := rec.Features()

	require.Len(t, features, 13)
	assert.Equal(t, 54.0, features[0])  // age
	assert.Equal(t, 1.0, features[1])   // male
	assert.Equal(t, 1.0, features[2])   // typical angina
	assert.Equal(t, 140.0, features[3]) // resting bp
	assert.Equal(t, 280.0, features[4]) // cholesterol
	assert.Equal(t, 1.0, features[8])   // exercise angina
	assert.Equal(t, 3.0, features[12])  // thal normal legacy code
}

func TestPredictedMaxHeartRate(t *testing.T) {
	rec := validRecord()
	assert.Equal(t, 166.0, rec.PredictedMaxHeartRate())
}
