package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the timetable API.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generationRuns     *prometheus.CounterVec
	generatedSlots     *prometheus.GaugeVec
	forcedPlacements   *prometheus.CounterVec
	cellEdits          *prometheus.CounterVec
	cellWarnings       *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of full timetable generation runs",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"mode"})

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Completed timetable generation runs",
	}, []string{"mode", "outcome"})

	generatedSlots := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "timetable_generated_slots",
		Help: "Slots written by the latest generation run",
	}, []string{"mode"})

	forcedPlacements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_forced_placements_total",
		Help: "Slots filled in spite of a teacher clash or subject day cap",
	}, []string{"mode"})

	cellEdits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_cell_edits_total",
		Help: "Manual cell edits by operation",
	}, []string{"mode", "op"})

	cellWarnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_cell_edit_warnings_total",
		Help: "Constraint warnings raised by accepted manual edits",
	}, []string{"mode", "code"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationDuration, generationRuns, generatedSlots, forcedPlacements, cellEdits, cellWarnings, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationDuration: generationDuration,
		generationRuns:     generationRuns,
		generatedSlots:     generatedSlots,
		forcedPlacements:   forcedPlacements,
		cellEdits:          cellEdits,
		cellWarnings:       cellWarnings,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGeneration records a finished generation run.
func (m *MetricsService) ObserveGeneration(mode string, duration time.Duration, slots, forced int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case forced > 0:
		outcome = "degraded"
	}
	m.generationRuns.WithLabelValues(mode, outcome).Inc()
	if err != nil {
		return
	}
	m.generationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.generatedSlots.WithLabelValues(mode).Set(float64(slots))
	m.forcedPlacements.WithLabelValues(mode).Add(float64(forced))
}

// RecordCellEdit counts a manual set/clear and the warning codes it raised.
func (m *MetricsService) RecordCellEdit(mode, op string, warningCodes []string) {
	if m == nil {
		return
	}
	m.cellEdits.WithLabelValues(mode, op).Inc()
	for _, code := range warningCodes {
		m.cellWarnings.WithLabelValues(mode, code).Inc()
	}
}
