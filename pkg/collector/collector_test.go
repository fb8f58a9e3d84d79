package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/nergy-se/factoryenergy/pkg/metrics"
	"github.com/nergy-se/factoryenergy/pkg/modbusclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 5, 14, 7, 9, 500000000, time.UTC)

func readings() []meter.Reading {
	return []meter.Reading{
		meter.New(machine.MachineA, 120.5, t0),
		meter.New(machine.MachineB, 201.25, t0),
		meter.New(machine.MachineC, 310, t0),
	}
}

type fakeSource struct {
	err   error
	calls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Read(ctx context.Context) ([]meter.Reading, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return readings(), nil
}

type fakeSink struct {
	name    string
	err     error
	written []meter.Reading
	closed  bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Write(ctx context.Context, r []meter.Reading) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, r...)
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func TestCollectFansOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector(reg)
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", err: errors.New("disk full")}
	c := New(&fakeSource{}, []Sink{bad, good}, m, 2)

	require.NoError(t, c.Collect(context.Background()))
	require.NoError(t, c.Collect(context.Background()))

	assert.Equal(t, 2, c.Iterations())
	assert.Len(t, good.written, 6)
	assert.Equal(t, []string{"bad"}, c.FailingSinks())

	bad.err = nil
	require.NoError(t, c.Collect(context.Background()))
	assert.Empty(t, c.FailingSinks())

	sum := c.Summary()
	assert.Equal(t, 9, sum.Total)
	require.Len(t, sum.Machines, 3)
	assert.Equal(t, 3, sum.Machines[0].Count)
	assert.Equal(t, 120.5, sum.Machines[0].Avg)

	expected := `
		# HELP factory_collector_sink_errors_total Total failed sink writes by sink.
		# TYPE factory_collector_sink_errors_total counter
		factory_collector_sink_errors_total{sink="bad"} 2
	`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "factory_collector_sink_errors_total"))
}

func TestCollectSourceError(t *testing.T) {
	sink := &fakeSink{name: "sink"}
	c := New(&fakeSource{err: errors.New("timeout")}, []Sink{sink}, nil, 10)

	err := c.Collect(context.Background())
	assert.ErrorContains(t, err, "error reading from fake: timeout")
	assert.Equal(t, 0, c.Iterations())
	assert.Empty(t, sink.written)
}

func TestRunCollectsImmediatelyAndClosesSinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{}
	sink := &fakeSink{name: "sink"}
	c := New(source, []Sink{sink}, nil, 10)

	require.NoError(t, c.Run(ctx, "@every 1h"))
	assert.Equal(t, 1, source.calls)
	assert.Len(t, sink.written, 3)
	assert.True(t, sink.closed)
}

func TestSkippedRunIsLoggedThroughLogrus(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())
	logrus.SetLevel(logrus.DebugLevel)
	hooks := logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	defer logrus.StandardLogger().ReplaceHooks(hooks)
	hook := test.NewGlobal()

	started := make(chan struct{})
	release := make(chan struct{})
	job := cron.SkipIfStillRunning(cronLogger{})(cron.FuncJob(func() {
		close(started)
		<-release
	}))

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-started
	job.Run()
	close(release)
	<-done

	entries := hook.AllEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "skipping scheduled run")

	cronLogger{}.Info("wake", "now", t0)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, t0, hook.LastEntry().Data["now"])
}

func TestRunInvalidSchedule(t *testing.T) {
	sink := &fakeSink{name: "sink"}
	c := New(&fakeSource{}, []Sink{sink}, nil, 10)

	err := c.Run(context.Background(), "every now and then")
	assert.ErrorContains(t, err, "error parsing schedule")
	assert.True(t, sink.closed)
}

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy_data.csv")
	s := NewCSV(path)

	require.NoError(t, s.Write(context.Background(), readings()[:1]))
	require.NoError(t, s.Write(context.Background(), readings()[1:]))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `machine,energy,timestamp,hour
Machine_A,120.50,2024-03-05 14:07:09.500000,14
Machine_B,201.25,2024-03-05 14:07:09.500000,14
Machine_C,310.00,2024-03-05 14:07:09.500000,14
`, string(b))
}

func TestCSVExistingFileKeepsHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("machine,energy,timestamp,hour\n"), 0644))

	require.NoError(t, NewCSV(path).Write(context.Background(), readings()[:1]))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b), "machine,energy"))
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "readings.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Write(context.Background(), readings()))
	require.NoError(t, s.Write(context.Background(), readings()[:1]))

	got, err := s.Readings(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, machine.MachineB, got[1].Machine)
	assert.Equal(t, 201.25, got[1].Energy)
	assert.Equal(t, 14, got[1].Hour)
	assert.True(t, t0.Equal(got[3].Timestamp))
}

func TestSQLiteKeepsLocalOffset(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "readings.db"))
	require.NoError(t, err)
	defer s.Close()

	ts := time.Date(2025, 3, 1, 0, 30, 0, 0, time.FixedZone("EET", 2*60*60))
	require.NoError(t, s.Write(context.Background(), []meter.Reading{meter.New(machine.MachineA, 70, ts)}))

	got, err := s.Readings(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, ts.Equal(got[0].Timestamp))
	assert.Equal(t, 0, got[0].Hour)
	assert.Equal(t, 0, got[0].Timestamp.Hour())
	assert.Equal(t, 1, got[0].Timestamp.Day())
	_, offset := got[0].Timestamp.Zone()
	assert.Equal(t, 2*60*60, offset)
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafka(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{w: w}

	require.NoError(t, k.Write(context.Background(), readings()))
	require.Len(t, w.msgs, 3)

	assert.Equal(t, "Machine_B", string(w.msgs[1].Key))
	var r meter.Reading
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &r))
	assert.Equal(t, 201.25, r.Energy)
	assert.Equal(t, 14, r.Hour)
}

type fakeMeter struct {
	values map[uint16]int
	fail   map[uint16]bool
	calls  []string
}

func (f *fakeMeter) read(kind string, address uint16) (int, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", kind, address))
	if f.fail[address] {
		return 0, errors.New("modbus: exception '2' (illegal data address)")
	}
	return f.values[address], nil
}

func (f *fakeMeter) ReadHoldingRegister32(address uint16) (int, error) {
	return f.read("holding32", address)
}

func (f *fakeMeter) ReadHoldingRegister16(address uint16) (int, error) {
	return f.read("holding16", address)
}

func (f *fakeMeter) ReadInputRegister(address uint16) (int, error) {
	return f.read("input", address)
}

func (f *fakeMeter) Close() error { return nil }

func TestModbusSource(t *testing.T) {
	client := &fakeMeter{
		values: map[uint16]int{100: 18745, 102: 20050, 104: 5},
		fail:   map[uint16]bool{},
	}
	s := NewModbusSource(client, map[string]modbusclient.Register{
		machine.MachineA: {Address: 100, Type: modbusclient.Holding32},
		machine.MachineB: {Address: 102, Type: modbusclient.Holding16},
		machine.MachineC: {Address: 104, Type: modbusclient.Input},
	})
	s.now = func() time.Time { return t0 }

	got, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []meter.Reading{
		meter.New(machine.MachineA, 187.45, t0),
		meter.New(machine.MachineB, 200.5, t0),
		meter.New(machine.MachineC, 0.05, t0),
	}, got)
	assert.Equal(t, []string{"holding32:100", "holding16:102", "input:104"}, client.calls)

	client.fail[102] = true
	got, err = s.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	client.fail[100], client.fail[104] = true, true
	_, err = s.Read(context.Background())
	assert.ErrorContains(t, err, "Machine_A")
}
