package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the Prometheus collectors of one server. Each server owns its
// registry so several servers can live in one process.
type metrics struct {
	registry *prometheus.Registry

	jobsCreated  prometheus.Counter
	jobsFinished *prometheus.CounterVec
	jobsRunning  prometheus.Gauge
	dynasties    *prometheus.CounterVec
	reseeds      *prometheus.CounterVec
	bestFitness  *prometheus.GaugeVec
	runDuration  *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		jobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sagaopt_jobs_created_total",
			Help: "Jobs accepted by the server.",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sagaopt_jobs_finished_total",
			Help: "Jobs that reached a terminal state.",
		}, []string{"state"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sagaopt_jobs_running",
			Help: "Jobs currently running.",
		}),
		dynasties: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sagaopt_dynasties_total",
			Help: "Dynasties completed across all jobs.",
		}, []string{"problem"}),
		reseeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sagaopt_reseeds_total",
			Help: "Population reseeds across all jobs.",
		}, []string{"problem"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sagaopt_best_fitness",
			Help: "Best fitness seen by a job.",
		}, []string{"job_id"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sagaopt_run_duration_seconds",
			Help:    "Wall time of finished runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"problem", "reason"}),
	}

	m.registry.MustRegister(
		m.jobsCreated,
		m.jobsFinished,
		m.jobsRunning,
		m.dynasties,
		m.reseeds,
		m.bestFitness,
		m.runDuration,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
