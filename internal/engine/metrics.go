package engine

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes a recorder's counters on its own Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry
}

func NewMetrics(rec *Recorder, namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_done_total",
			Help:      "Total number of records written",
		}, func() float64 { return float64(rec.DoneCount()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_lost_total",
			Help:      "Total number of records dropped or failed",
		}, func() float64 { return float64(rec.LostCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recorder_queue_depth",
			Help:      "Number of records waiting for a worker",
		}, func() float64 { return float64(rec.QueueLen()) }),
	)
	return &Metrics{registry: reg}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an HTTP handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
