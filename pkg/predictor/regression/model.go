package regression

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/machine"
)

const (
	FeatureHour     = "hour"
	FeatureDay      = "day"
	FeatureMachineB = "machine_Machine_B"
	FeatureMachineC = "machine_Machine_C"
)

// Features is the fixed input order. Machine_A is the implicit reference category.
var Features = []string{FeatureHour, FeatureDay, FeatureMachineB, FeatureMachineC}

var ErrInvalidModel = errors.New("invalid model")

// Model is a linear regression over Features, stored as JSON.
type Model struct {
	Version      string             `json:"version"`
	Features     []string           `json:"features"`
	Coefficients map[string]float64 `json:"coefficients"`
	Intercept    float64            `json:"intercept"`
	TrainedAt    time.Time          `json:"trained_at"`
	Samples      int                `json:"samples"`
	R2Train      float64            `json:"r2_train"`
	R2Test       float64            `json:"r2_test"`
}

// Vector encodes the model inputs in Features order.
func Vector(machineID string, hour, day int) []float64 {
	oneHot := machine.OneHot(machineID)
	return []float64{float64(hour), float64(day), oneHot[0], oneHot[1]}
}

// Evaluate returns the raw regression output for x, which must be in Features order.
func (m *Model) Evaluate(x []float64) float64 {
	score := m.Intercept
	for i, name := range Features {
		score += m.Coefficients[name] * x[i]
	}
	return score
}

func (m *Model) Validate() error {
	for _, name := range Features {
		if _, ok := m.Coefficients[name]; !ok {
			return fmt.Errorf("%w: missing coefficient %q", ErrInvalidModel, name)
		}
	}
	return nil
}

func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model file: %w", err)
	}

	m := &Model{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing model file: %w", err)
	}
	return nil
}
