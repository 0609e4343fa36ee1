// Package metrics exposes the scan's Prometheus registry and ops endpoints.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds all tapescan collectors.
type Metrics struct {
	registry *prometheus.Registry

	FetchOutcomes  *prometheus.CounterVec
	Drops          *prometheus.CounterVec
	CategoryCounts *prometheus.GaugeVec
	StageDuration  *prometheus.HistogramVec
	ScansTotal     prometheus.Counter
}

// New builds and registers the collector set.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapescan_fetch_outcomes_total",
				Help: "Tape fetch outcomes by result",
			},
			[]string{"outcome"},
		),
		Drops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapescan_instrument_drops_total",
				Help: "Instruments excluded from the batch by cause",
			},
			[]string{"cause"},
		),
		CategoryCounts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tapescan_category_instruments",
				Help: "Instruments per pattern category in the last run",
			},
			[]string{"category"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tapescan_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 180},
			},
			[]string{"stage"},
		),
		ScansTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tapescan_scans_total",
				Help: "Completed scan runs",
			},
		),
	}
	m.registry.MustRegister(
		m.FetchOutcomes, m.Drops, m.CategoryCounts, m.StageDuration, m.ScansTotal,
	)
	return m
}

// Handler returns the ops router with /health and /metrics.
func (m *Metrics) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// Serve starts the ops endpoint in the background. The scan does not block
// on it; listen failures are logged, not fatal.
func (m *Metrics) Serve(addr string) {
	go func() {
		if err := http.ListenAndServe(addr, m.Handler()); err != nil {
			log.Error().Str("addr", addr).Err(err).Msg("metrics server stopped")
		}
	}()
}
