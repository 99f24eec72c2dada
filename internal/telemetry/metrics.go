package telemetry

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transmute/internal/logging"
)

const Namespace = "transmute"

// Cache outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeBypass   = "bypass"
	OutcomeUncached = "uncached"
	OutcomeFailed   = "failed"
)

// Execution outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	TransformCacheRequests = MustRegisterCounterVec(Namespace, "transform_cache", "requests_total",
		"Transformed variant requests by source path and cache outcome.", "path", "outcome")
	TransformCacheEntries = MustRegisterGauge(Namespace, "transform_cache", "entries",
		"Transformed external artifact sets held by the cache.")
	WorkerExecutions = MustRegisterCounterVec(Namespace, "worker", "executions_total",
		"Action executions by isolation strategy and outcome.", "strategy", "outcome")
	WorkerStrategyConstructions = MustRegisterCounterVec(Namespace, "worker", "strategy_constructions_total",
		"Isolation strategies constructed by the daemon.", "strategy")
	WorkerExecutionDuration = MustRegisterHistogramVec(Namespace, "worker", "execution_duration_seconds",
		"Duration of action executions.", prometheus.DefBuckets, "strategy")
)

// MustRegisterCounterVec creates and registers a counter vector.
// Must be called from `init`.
func MustRegisterCounterVec(namespace, component, name, help string, labelNames ...string) *prometheus.CounterVec {
	m := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name,
		Help:      help,
	}, labelNames)
	prometheus.MustRegister(m)
	return m
}

// MustRegisterGauge creates and registers a gauge.
// Must be called from `init`.
func MustRegisterGauge(namespace, component, name, help string) prometheus.Gauge {
	m := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name,
		Help:      help,
	})
	prometheus.MustRegister(m)
	return m
}

// MustRegisterHistogramVec creates and registers a histogram vector.
// Must be called from `init`.
func MustRegisterHistogramVec(namespace, component, name, help string, buckets []float64, labelNames ...string) *prometheus.HistogramVec {
	m := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labelNames)
	prometheus.MustRegister(m)
	return m
}

// Expose serves /metrics on port in the background. A port <= 0 disables it.
func Expose(port int) *http.Server {
	if port <= 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Error("metrics endpoint stopped", "port", port, "err", err)
		}
	}()
	return srv
}
