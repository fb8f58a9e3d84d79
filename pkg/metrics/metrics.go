// Package metrics defines the prometheus collectors of the service and the reading collector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK          = "ok"
	OutcomeBadRequest  = "bad_request"
	OutcomeUnavailable = "unavailable"
	OutcomeInvalid     = "invalid"
)

type Service struct {
	predictions  *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	modelLoaded  prometheus.Gauge
}

func NewService(reg prometheus.Registerer) *Service {
	m := &Service{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factory_predictions_total",
			Help: "Total predictions by strategy, machine and outcome.",
		}, []string{"strategy", "machine", "outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factory_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "factory_model_loaded",
			Help: "1 when the configured prediction strategy is ready.",
		}),
	}
	reg.MustRegister(m.predictions, m.httpDuration, m.modelLoaded)
	return m
}

func (m *Service) Prediction(strategy, machine, outcome string) {
	m.predictions.WithLabelValues(strategy, machine, outcome).Inc()
}

func (m *Service) ObserveRequest(route, method, status string, seconds float64) {
	m.httpDuration.WithLabelValues(route, method, status).Observe(seconds)
}

func (m *Service) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
		return
	}
	m.modelLoaded.Set(0)
}

type Collector struct {
	readings   *prometheus.CounterVec
	sinkErrors *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	m := &Collector{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factory_collector_readings_total",
			Help: "Total readings collected by machine.",
		}, []string{"machine"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factory_collector_sink_errors_total",
			Help: "Total failed sink writes by sink.",
		}, []string{"sink"}),
	}
	reg.MustRegister(m.readings, m.sinkErrors)
	return m
}

func (m *Collector) Reading(machine string) {
	m.readings.WithLabelValues(machine).Inc()
}

func (m *Collector) SinkError(sink string) {
	m.sinkErrors.WithLabelValues(sink).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
