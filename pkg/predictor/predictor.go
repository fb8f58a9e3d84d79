// Package predictor defines the prediction capability shared by every estimation strategy.
package predictor

import (
	"errors"
	"math"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/types"
)

var (
	ErrUnknownMachine   = errors.New("unknown machine")
	ErrModelUnavailable = errors.New("ML model not available")
	ErrMissingReading   = errors.New("temperature and humidity are required")
	ErrOutOfRange       = errors.New("estimate is not a finite number")
)

// Input is the validated context a prediction is computed for.
// Hour is expected in 0-23 and Day in 1-31 but neither is enforced.
type Input struct {
	Machine     string
	Hour        int
	Day         int
	Temperature *float64
	Humidity    *float64
}

// Estimate is the outcome of a single prediction. Derived fields are only set by strategies that compute them.
type Estimate struct {
	Energy   float64
	Machine  string
	Hour     int
	Day      int
	Strategy types.Strategy

	Temperature         *float64
	Humidity            *float64
	WorkHours           *bool
	TemperatureCategory string
	HumidityFactor      *float64
	DayFactor           *float64

	ModelVersion string
}

type Predictor interface {
	Predict(in Input) (*Estimate, error)
	Strategy() types.Strategy

	// Ready reports whether Predict can succeed. Only the model strategy can be not ready.
	Ready() bool
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Finite returns ErrOutOfRange when v overflowed or is NaN.
func Finite(v float64) error {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ErrOutOfRange
	}
	return nil
}

// Mod is the floor modulo of a by n, always in [0, n) for positive n.
func Mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func Pointer[K any](val K) *K {
	return &val
}
