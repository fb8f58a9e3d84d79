package simulator

import (
	"sync"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type MachineSummary struct {
	Machine string
	Count   int
	Avg     float64
	Min     float64
	Max     float64
}

type Summary struct {
	Machines []MachineSummary
	Total    int
	First    time.Time
	Last     time.Time
}

// Stats accumulates readings for periodic summaries. It is safe for concurrent use.
type Stats struct {
	mu     sync.Mutex
	energy map[string][]float64
	first  time.Time
	last   time.Time
}

func NewStats() *Stats {
	return &Stats{energy: make(map[string][]float64)}
}

func (s *Stats) Add(readings ...meter.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range readings {
		s.energy[r.Machine] = append(s.energy[r.Machine], r.Energy)
		if s.first.IsZero() || r.Timestamp.Before(s.first) {
			s.first = r.Timestamp
		}
		if r.Timestamp.After(s.last) {
			s.last = r.Timestamp
		}
	}
}

// Summary lists known machines in fixed order, skipping machines without readings.
func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{First: s.first, Last: s.last}
	for _, id := range machine.All() {
		values := s.energy[id]
		if len(values) == 0 {
			continue
		}
		sum.Machines = append(sum.Machines, MachineSummary{
			Machine: id,
			Count:   len(values),
			Avg:     stat.Mean(values, nil),
			Min:     floats.Min(values),
			Max:     floats.Max(values),
		})
	}
	for _, values := range s.energy {
		sum.Total += len(values)
	}
	return sum
}

func (s Summary) Log() {
	for _, m := range s.Machines {
		logrus.WithFields(logrus.Fields{
			"machine": m.Machine,
			"count":   m.Count,
			"avg":     m.Avg,
			"min":     m.Min,
			"max":     m.Max,
		}).Info("energy summary")
	}
	logrus.WithFields(logrus.Fields{
		"total": s.Total,
		"from":  s.First,
		"to":    s.Last,
	}).Info("energy summary totals")
}
