// Package lookup estimates energy from a per-machine table of base values keyed by work hours and
// temperature category, scaled by humidity and day.
package lookup

import (
	"fmt"
	"math"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/types"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
)

const (
	CategoryLow    = "low_temp"
	CategoryNormal = "normal_temp"
	CategoryHigh   = "high_temp"

	workStart = 8
	workEnd   = 18

	lowBelow  = 20.0
	highAbove = 30.0

	referenceHumidity = 60.0
)

type key struct {
	machine   string
	workHours bool
}

var table = map[key]map[string]float64{
	{machine.MachineA, true}:  {CategoryLow: 95.2, CategoryNormal: 102.8, CategoryHigh: 118.6},
	{machine.MachineA, false}: {CategoryLow: 58.4, CategoryNormal: 62.1, CategoryHigh: 71.3},
	{machine.MachineB, true}:  {CategoryLow: 148.7, CategoryNormal: 156.3, CategoryHigh: 179.5},
	{machine.MachineB, false}: {CategoryLow: 88.2, CategoryNormal: 94.6, CategoryHigh: 108.9},
	{machine.MachineC, true}:  {CategoryLow: 205.4, CategoryNormal: 218.9, CategoryHigh: 246.2},
	{machine.MachineC, false}: {CategoryLow: 121.5, CategoryNormal: 130.7, CategoryHigh: 149.8},
}

type Lookup struct{}

func New() *Lookup {
	return &Lookup{}
}

func (l *Lookup) Strategy() types.Strategy {
	return types.StrategyLookup
}

func (l *Lookup) Ready() bool {
	return true
}

func (l *Lookup) Predict(in predictor.Input) (*predictor.Estimate, error) {
	if !machine.Valid(in.Machine) {
		return nil, fmt.Errorf("%w: %s", predictor.ErrUnknownMachine, in.Machine)
	}
	if in.Temperature == nil || in.Humidity == nil {
		return nil, predictor.ErrMissingReading
	}

	work := WorkHours(in.Hour)
	category := TemperatureCategory(*in.Temperature)
	base := table[key{in.Machine, work}][category]
	hf := HumidityFactor(*in.Humidity)
	df := DayFactor(in.Day)
	energy := predictor.Round2(float64(base*hf) * df)
	if err := predictor.Finite(energy); err != nil {
		return nil, fmt.Errorf("%w: temperature %g humidity %g", err, *in.Temperature, *in.Humidity)
	}

	return &predictor.Estimate{
		Energy:              energy,
		Machine:             in.Machine,
		Hour:                in.Hour,
		Day:                 in.Day,
		Strategy:            types.StrategyLookup,
		Temperature:         predictor.Pointer(*in.Temperature),
		Humidity:            predictor.Pointer(*in.Humidity),
		WorkHours:           &work,
		TemperatureCategory: category,
		HumidityFactor:      &hf,
		DayFactor:           &df,
	}, nil
}

// WorkHours is true for hours 8 through 18 inclusive.
func WorkHours(hour int) bool {
	return hour >= workStart && hour <= workEnd
}

func TemperatureCategory(temperature float64) string {
	switch {
	case temperature < lowBelow:
		return CategoryLow
	case temperature > highAbove:
		return CategoryHigh
	}
	return CategoryNormal
}

// HumidityFactor grows by half a percent per point of distance from 60% humidity.
func HumidityFactor(humidity float64) float64 {
	return 1 + float64(0.005*math.Abs(humidity-referenceHumidity))
}

// DayFactor treats days 1-5 as weekdays.
func DayFactor(day int) float64 {
	if day >= 1 && day <= 5 {
		return 1.1
	}
	return 0.9
}
