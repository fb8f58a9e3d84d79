package meter

import (
	"strconv"
	"time"
)

// TimeLayout is the timestamp layout written to csv and sql sinks.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Reading is one energy sample for a machine.
type Reading struct {
	Machine   string    `json:"machine"`
	Energy    float64   `json:"energy"`
	Timestamp time.Time `json:"timestamp"`
	Hour      int       `json:"hour"`
}

func New(machine string, energy float64, ts time.Time) Reading {
	return Reading{
		Machine:   machine,
		Energy:    energy,
		Timestamp: ts,
		Hour:      ts.Hour(),
	}
}

var CSVHeader = []string{"machine", "energy", "timestamp", "hour"}

func (r Reading) CSVRecord() []string {
	return []string{
		r.Machine,
		strconv.FormatFloat(r.Energy, 'f', 2, 64),
		r.Timestamp.Format(TimeLayout),
		strconv.Itoa(r.Hour),
	}
}
