package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/sirupsen/logrus"
)

// Sample is one training row.
type Sample struct {
	Machine string
	Hour    int
	Day     int
	Energy  float64
}

var ErrNoSamples = errors.New("no samples")

var timeLayouts = []string{
	time.RFC3339Nano,
	meter.TimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

// ReadCSV reads machine,energy,timestamp[,hour] rows. A header row is optional and, when present,
// may order the columns freely. Rows for unknown machines are skipped.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cols := map[string]int{"machine": 0, "energy": 1, "timestamp": 2}
	var samples []Sample
	line := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv: %w", err)
		}
		line++

		if line == 1 && isHeader(record) {
			cols = headerColumns(record)
			if err := requireColumns(cols); err != nil {
				return nil, err
			}
			continue
		}

		s, ok, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			logrus.WithFields(logrus.Fields{"line": line, "machine": record[cols["machine"]]}).Warn("skipping unknown machine")
			continue
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func isHeader(record []string) bool {
	for _, f := range record {
		if strings.EqualFold(strings.TrimSpace(f), "energy") {
			return true
		}
	}
	return false
}

func headerColumns(record []string) map[string]int {
	cols := make(map[string]int)
	for i, f := range record {
		cols[strings.ToLower(strings.TrimSpace(f))] = i
	}
	return cols
}

func requireColumns(cols map[string]int) error {
	for _, name := range []string{"machine", "energy", "timestamp"} {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("csv header is missing column %q", name)
		}
	}
	return nil
}

func parseRecord(record []string, cols map[string]int) (Sample, bool, error) {
	for _, name := range []string{"machine", "energy", "timestamp"} {
		if cols[name] >= len(record) {
			return Sample{}, false, fmt.Errorf("missing column %q", name)
		}
	}

	id := strings.TrimSpace(record[cols["machine"]])
	if !machine.Valid(id) {
		return Sample{}, false, nil
	}
	energy, err := strconv.ParseFloat(strings.TrimSpace(record[cols["energy"]]), 64)
	if err != nil {
		return Sample{}, false, fmt.Errorf("invalid energy: %w", err)
	}
	ts, err := parseTime(record[cols["timestamp"]])
	if err != nil {
		return Sample{}, false, err
	}
	return Sample{Machine: id, Hour: ts.Hour(), Day: ts.Day(), Energy: energy}, true, nil
}

// FromReadings takes the hour recorded with each reading and the day of its timestamp in the timestamp's own zone.
func FromReadings(readings []meter.Reading) []Sample {
	samples := make([]Sample, 0, len(readings))
	for _, r := range readings {
		if !machine.Valid(r.Machine) {
			continue
		}
		samples = append(samples, Sample{
			Machine: r.Machine,
			Hour:    r.Hour,
			Day:     r.Timestamp.Day(),
			Energy:  r.Energy,
		})
	}
	return samples
}

var syntheticBase = map[string]float64{
	machine.MachineA: 100,
	machine.MachineB: 150,
	machine.MachineC: 200,
}

// Synthetic generates n samples with a work hour bump of 50 kWh and N(0, 20) noise.
func Synthetic(n int, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	machines := machine.All()
	samples := make([]Sample, n)
	for i := range samples {
		id := machines[rng.Intn(len(machines))]
		hour := rng.Intn(24)
		day := 1 + rng.Intn(31)

		energy := syntheticBase[id]
		if hour >= 8 && hour <= 18 {
			energy += 50
		}
		energy = math.Max(0, energy+rng.NormFloat64()*20)
		samples[i] = Sample{Machine: id, Hour: hour, Day: day, Energy: energy}
	}
	return samples
}

// Split shuffles samples and returns train and test sets. The train set is never empty.
func Split(samples []Sample, testFraction float64, seed int64) (train, test []Sample) {
	if testFraction < 0 || testFraction >= 1 {
		testFraction = 0
	}
	nTest := int(math.Round(float64(len(samples)) * testFraction))
	if nTest > 0 && nTest >= len(samples) {
		nTest = len(samples) - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(len(samples))
	for i, idx := range perm {
		if i < nTest {
			test = append(test, samples[idx])
			continue
		}
		train = append(train, samples[idx])
	}
	return train, test
}
