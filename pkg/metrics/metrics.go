// Package metrics defines the Prometheus metric collectors used by the
// indexer and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the indexer.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	PhaseDuration      *prometheus.HistogramVec
	FilesTotal         *prometheus.CounterVec
	DocFreqTerms       prometheus.Gauge
	WorkersBusy        prometheus.Gauge
	FileVectorDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcevec_runs_total",
				Help: "Total indexing runs by status (ok, failed).",
			},
			[]string{"status"},
		),
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sourcevec_phase_duration_seconds",
				Help:    "Duration of each indexing phase in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
			},
			[]string{"phase"},
		),
		FilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcevec_files_total",
				Help: "Files processed by the vectorizing pass by outcome (vectorized, skipped, failed).",
			},
			[]string{"outcome"},
		),
		DocFreqTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sourcevec_document_frequency_terms",
				Help: "Distinct terms in the last document-frequency table built.",
			},
		),
		WorkersBusy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sourcevec_workers_busy",
				Help: "Number of workers currently vectorizing a file.",
			},
		),
		FileVectorDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sourcevec_file_vector_duration_seconds",
				Help:    "Time spent vectorizing a single file.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.PhaseDuration,
		m.FilesTotal,
		m.DocFreqTerms,
		m.WorkersBusy,
		m.FileVectorDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
