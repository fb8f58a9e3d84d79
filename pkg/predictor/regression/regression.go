// Package regression serves predictions from a linear model trained offline by cmd/trainer.
package regression

import (
	"fmt"
	"math"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/types"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
	"github.com/sirupsen/logrus"
)

// Regression is safe for concurrent use. The model is set once at construction and never written again.
type Regression struct {
	model *Model
}

// New wraps an already loaded model. A nil model yields a predictor that is never ready.
func New(model *Model) *Regression {
	return &Regression{model: model}
}

// Open loads the model at path. A missing or invalid file is logged and leaves the predictor not ready
// so the service can still start and answer with 503.
func Open(path string) *Regression {
	model, err := Load(path)
	if err != nil {
		logrus.WithField("path", path).Errorf("model not loaded: %s", err)
		return New(nil)
	}
	logrus.WithFields(logrus.Fields{
		"path":    path,
		"version": model.Version,
		"samples": model.Samples,
		"r2_test": model.R2Test,
	}).Info("loaded regression model")
	return New(model)
}

func (r *Regression) Strategy() types.Strategy {
	return types.StrategyModel
}

func (r *Regression) Ready() bool {
	return r.model != nil
}

// Predict falls back to machine.Default for unknown machines since they one-hot encode as the reference category.
func (r *Regression) Predict(in predictor.Input) (*predictor.Estimate, error) {
	if r.model == nil {
		return nil, predictor.ErrModelUnavailable
	}

	id := in.Machine
	if !machine.Valid(id) {
		id = machine.Default
	}

	energy := predictor.Round2(math.Max(0, r.model.Evaluate(Vector(id, in.Hour, in.Day))))
	if err := predictor.Finite(energy); err != nil {
		return nil, fmt.Errorf("%w: hour %d day %d", err, in.Hour, in.Day)
	}

	return &predictor.Estimate{
		Energy:       energy,
		Machine:      id,
		Hour:         in.Hour,
		Day:          in.Day,
		Strategy:     types.StrategyModel,
		ModelVersion: r.model.Version,
	}, nil
}
