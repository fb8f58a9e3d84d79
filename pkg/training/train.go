package training

import (
	"fmt"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/predictor/regression"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ridge keeps the normal equations positive definite when a machine is absent from the data.
const Ridge = 1e-6

type Options struct {
	TestFraction float64
	Seed         int64
	Version      string
}

func DefaultOptions() Options {
	return Options{TestFraction: 0.2, Seed: 42, Version: "1"}
}

// Train splits samples, fits on the train part and scores both parts.
func Train(samples []Sample, opts Options) (*regression.Model, error) {
	train, test := Split(samples, opts.TestFraction, opts.Seed)
	m, err := Fit(train)
	if err != nil {
		return nil, err
	}

	m.Version = opts.Version
	m.Samples = len(samples)
	m.TrainedAt = time.Now().UTC()
	m.R2Train = Score(m, train)
	if len(test) > 0 {
		m.R2Test = Score(m, test)
	}

	logrus.WithFields(logrus.Fields{
		"train":    len(train),
		"test":     len(test),
		"r2_train": m.R2Train,
		"r2_test":  m.R2Test,
	}).Info("model trained")
	return m, nil
}

func design(samples []Sample) (*mat.Dense, *mat.VecDense) {
	cols := len(regression.Features) + 1
	x := mat.NewDense(len(samples), cols, nil)
	y := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		x.Set(i, 0, 1)
		for j, v := range regression.Vector(s.Machine, s.Hour, s.Day) {
			x.Set(i, j+1, v)
		}
		y.SetVec(i, s.Energy)
	}
	return x, y
}

// Fit solves (XᵀX + Ridge·I)β = Xᵀy for the intercept and the Features weights.
func Fit(samples []Sample) (*regression.Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	x, y := design(samples)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	n, _ := xtx.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := xtx.At(i, j)
			if i == j {
				v += Ridge
			}
			sym.SetSym(i, j, v)
		}
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("error fitting model: normal equations are not positive definite")
	}
	if c := chol.Cond(); c > 1e12 {
		logrus.Warnf("ill conditioned training data (condition number %.3g)", c)
	}

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("error fitting model: %w", err)
	}

	m := &regression.Model{
		Features:     append([]string(nil), regression.Features...),
		Coefficients: make(map[string]float64, len(regression.Features)),
		Intercept:    beta.AtVec(0),
	}
	for i, name := range regression.Features {
		m.Coefficients[name] = beta.AtVec(i + 1)
	}
	return m, nil
}

// Score returns the coefficient of determination of m on samples.
func Score(m *regression.Model, samples []Sample) float64 {
	estimates := make([]float64, len(samples))
	values := make([]float64, len(samples))
	for i, s := range samples {
		estimates[i] = m.Evaluate(regression.Vector(s.Machine, s.Hour, s.Day))
		values[i] = s.Energy
	}
	return stat.RSquaredFrom(estimates, values, nil)
}
