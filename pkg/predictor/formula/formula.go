// Package formula estimates energy from per-machine constants scaled by hour and day.
package formula

import (
	"github.com/nergy-se/factoryenergy/pkg/api/v1/types"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
)

type Constants struct {
	Base       float64
	HourFactor float64
	DayFactor  float64
}

var constants = map[string]Constants{
	machine.MachineA: {Base: 85.5, HourFactor: 0.8, DayFactor: 0.3},
	machine.MachineB: {Base: 142.3, HourFactor: 1.2, DayFactor: 0.5},
	machine.MachineC: {Base: 198.7, HourFactor: 1.5, DayFactor: 0.7},
}

type Formula struct{}

func New() *Formula {
	return &Formula{}
}

func (f *Formula) Strategy() types.Strategy {
	return types.StrategyFormula
}

func (f *Formula) Ready() bool {
	return true
}

// Predict never fails. Unknown machines use the constants of machine.Default.
func (f *Formula) Predict(in predictor.Input) (*predictor.Estimate, error) {
	id := in.Machine
	c, ok := constants[id]
	if !ok {
		id = machine.Default
		c = constants[id]
	}

	return &predictor.Estimate{
		Energy:   predictor.Round2(Compute(c, in.Hour, in.Day)),
		Machine:  id,
		Hour:     in.Hour,
		Day:      in.Day,
		Strategy: types.StrategyFormula,
	}, nil
}

// Compute returns base + hourFactor*(1+0.1*(hour mod 8)) + dayFactor*(1+0.05*(day mod 7)) unrounded.
func Compute(c Constants, hour, day int) float64 {
	// explicit conversions stop the compiler from fusing multiply-add, keeping results identical on every arch.
	hourVariation := float64(c.HourFactor * (1 + float64(0.1*float64(predictor.Mod(hour, 8)))))
	dayVariation := float64(c.DayFactor * (1 + float64(0.05*float64(predictor.Mod(day, 7)))))
	return float64(c.Base+hourVariation) + dayVariation
}
