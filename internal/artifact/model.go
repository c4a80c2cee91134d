package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
)

const logisticKind = "logistic_regression"

// FeatureColumns is the column order the classifier was trained with.
var FeatureColumns = []string{
	"doctor_id_encoded",
	"appointment_hour",
	"appointment_day_of_week",
	"delay_mins",
	"appointment_type_encoded",
}

type Features struct {
	DoctorCode          int
	Hour                int
	DayOfWeek           int
	DelayMins           int
	AppointmentTypeCode int
}

// Vector lays the features out in FeatureColumns order.
func (f Features) Vector() []float64 {
	return []float64{
		float64(f.DoctorCode),
		float64(f.Hour),
		float64(f.DayOfWeek),
		float64(f.DelayMins),
		float64(f.AppointmentTypeCode),
	}
}

// Classifier returns the probability of the positive (no-show) class.
type Classifier interface {
	PredictProba(f Features) (float64, error)
}

type LogisticModel struct {
	Kind         string    `json:"kind"`
	Version      string    `json:"version"`
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func LoadModel(path string) (*LogisticModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var m LogisticModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LogisticModel) validate() error {
	if m.Kind != logisticKind {
		return fmt.Errorf("unsupported model kind %q", m.Kind)
	}
	if len(m.Features) != len(FeatureColumns) {
		return fmt.Errorf("%w: model declares %d features, want %d", ErrFeatureMismatch, len(m.Features), len(FeatureColumns))
	}
	for i, name := range FeatureColumns {
		if m.Features[i] != name {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrFeatureMismatch, i, m.Features[i], name)
		}
	}
	if len(m.Coefficients) != len(m.Features) {
		return fmt.Errorf("model has %d coefficients for %d features", len(m.Coefficients), len(m.Features))
	}
	return nil
}

func (m *LogisticModel) PredictProba(f Features) (float64, error) {
	z := floats.Dot(m.Coefficients, f.Vector()) + m.Intercept
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0, fmt.Errorf("model produced NaN for %+v", f)
	}
	return p, nil
}
