// Package collector reads machine energy on a schedule and fans the readings out to sinks.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nergy-se/factoryenergy/pkg/alarm"
	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/nergy-se/factoryenergy/pkg/metrics"
	"github.com/nergy-se/factoryenergy/pkg/simulator"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Source interface {
	Name() string
	Read(ctx context.Context) ([]meter.Reading, error)
}

type Sink interface {
	Name() string
	Write(ctx context.Context, readings []meter.Reading) error
	Close() error
}

type Collector struct {
	source       Source
	sinks        []Sink
	stats        *simulator.Stats
	metrics      *metrics.Collector
	summaryEvery int
	alarms       alarm.ActiveAlarms

	mu        sync.Mutex
	iteration int
}

// New returns a collector logging a summary every summaryEvery iterations. m may be nil.
func New(source Source, sinks []Sink, m *metrics.Collector, summaryEvery int) *Collector {
	return &Collector{
		source:       source,
		sinks:        sinks,
		stats:        simulator.NewStats(),
		metrics:      m,
		summaryEvery: summaryEvery,
	}
}

// Collect runs one iteration. Sink failures are logged and counted, only a failing source is returned.
func (c *Collector) Collect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	readings, err := c.source.Read(ctx)
	if err != nil {
		return fmt.Errorf("error reading from %s: %w", c.source.Name(), err)
	}
	c.iteration++

	for _, s := range c.sinks {
		err := s.Write(ctx, readings)
		if err == nil {
			if c.alarms.Resolve(s.Name()) {
				logrus.WithField("sink", s.Name()).Info("sink recovered")
			}
			continue
		}
		if c.metrics != nil {
			c.metrics.SinkError(s.Name())
		}
		entry := logrus.WithFields(logrus.Fields{"sink": s.Name(), "count": len(readings)})
		if c.alarms.Raise(s.Name(), err.Error()) {
			entry.Errorf("error writing readings: %s", err)
		} else {
			entry.Debugf("error writing readings: %s", err)
		}
	}

	c.stats.Add(readings...)
	for _, r := range readings {
		if c.metrics != nil {
			c.metrics.Reading(r.Machine)
		}
		logrus.WithFields(logrus.Fields{
			"iteration": c.iteration,
			"machine":   r.Machine,
			"energy":    r.Energy,
		}).Info("reading collected")
	}

	if c.summaryEvery > 0 && c.iteration%c.summaryEvery == 0 {
		c.stats.Summary().Log()
	}
	return nil
}

func (c *Collector) Iterations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iteration
}

// FailingSinks lists sinks whose last write failed.
func (c *Collector) FailingSinks() []string {
	return c.alarms.Active()
}

func (c *Collector) Summary() simulator.Summary {
	return c.stats.Summary()
}

// Run collects once immediately and then on schedule until ctx is done. Sinks are closed on return.
func (c *Collector) Run(ctx context.Context, schedule string) error {
	defer c.close()

	if err := c.Collect(ctx); err != nil {
		logrus.Error(err)
	}

	cr := cron.New(cron.WithLogger(cronLogger{}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
	_, err := cr.AddFunc(schedule, func() {
		if err := c.Collect(ctx); err != nil {
			logrus.Error(err)
		}
	})
	if err != nil {
		return fmt.Errorf("error parsing schedule %q: %w", schedule, err)
	}

	logrus.WithFields(logrus.Fields{"schedule": schedule, "source": c.source.Name()}).Info("collector started")
	cr.Start()
	<-ctx.Done()
	<-cr.Stop().Done()

	logrus.Info("collector stopped")
	c.stats.Summary().Log()
	return nil
}

func (c *Collector) close() {
	var errs []error
	for _, s := range c.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		logrus.Errorf("error closing sinks: %s", err)
	}
}
