// Package simulator produces synthetic machine energy readings.
package simulator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
)

type Range struct {
	Min float64
	Max float64
}

func (r Range) draw(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// BaseConsumption is the per machine base energy range in kWh.
var BaseConsumption = map[string]Range{
	machine.MachineA: {Min: 50, Max: 200},
	machine.MachineB: {Min: 100, Max: 300},
	machine.MachineC: {Min: 150, Max: 450},
}

// Multiplier returns the time of day multiplier range for hour.
func Multiplier(hour int) Range {
	switch {
	case hour >= 8 && hour <= 18:
		return Range{Min: 1.2, Max: 1.5}
	case hour >= 6 && hour <= 7, hour >= 19 && hour <= 21:
		return Range{Min: 0.8, Max: 1.2}
	}
	return Range{Min: 0.3, Max: 0.8}
}

type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New returns a generator. A zero seed seeds from the clock, a nil now uses time.Now.
func New(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: now,
	}
}

func (g *Generator) Name() string {
	return "simulated"
}

// Read returns one reading per machine, all stamped with the same time.
func (g *Generator) Read(ctx context.Context) ([]meter.Reading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	mult := Multiplier(ts.Hour())
	readings := make([]meter.Reading, 0, len(BaseConsumption))
	for _, id := range machine.All() {
		m := mult.draw(g.rng)
		base := BaseConsumption[id].draw(g.rng)
		readings = append(readings, meter.New(id, predictor.Round2(base*m), ts))
	}
	return readings, nil
}
