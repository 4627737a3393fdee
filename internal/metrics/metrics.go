// Package metrics exposes prometheus collectors for solver runs, optimization
// jobs and the HTTP layer.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chaitanya176/aco-last-mile/internal/optimization/aco"
)

var (
	registerOnce sync.Once

	iterations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aco",
			Subsystem: "solver",
			Name:      "iterations_total",
			Help:      "Completed solver iterations.",
		},
	)
	improvements = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aco",
			Subsystem: "solver",
			Name:      "improvements_total",
			Help:      "Iterations that replaced the elite tour.",
		},
	)
	stalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aco",
			Subsystem: "solver",
			Name:      "stall_fallbacks_total",
			Help:      "Next-node choices that fell back to uniform sampling because every candidate had zero desirability.",
		},
	)
	iterationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aco",
			Subsystem: "solver",
			Name:      "iteration_duration_seconds",
			Help:      "Wall time of one iteration: construction, pheromone update and snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)
	bestDistance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "aco",
			Subsystem: "solver",
			Name:      "best_distance",
			Help:      "Best tour length of a running job.",
		},
		[]string{"run"},
	)

	jobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aco",
			Subsystem: "jobs",
			Name:      "active",
			Help:      "Optimization jobs currently running.",
		},
	)
	jobsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aco",
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Optimization jobs by terminal status.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aco",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aco",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterMetrics registers every collector with the default registry. It is
// safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			iterations,
			improvements,
			stalls,
			iterationDuration,
			bestDistance,
			jobsActive,
			jobsFinished,
			httpRequests,
			httpDuration,
		)
	})
}

// RunObserver records solver progress. It implements aco.Observer.
type RunObserver struct {
	run string
}

var _ aco.Observer = (*RunObserver)(nil)

// NewRunObserver returns an observer labelling its best distance with run.
// An empty run skips the per-run gauge.
func NewRunObserver(run string) *RunObserver {
	return &RunObserver{run: run}
}

// ObserveIteration implements aco.Observer.
func (o *RunObserver) ObserveIteration(s aco.IterationStats) {
	iterations.Inc()
	iterationDuration.Observe(s.Duration.Seconds())
	if s.Improved {
		improvements.Inc()
	}
	if s.Stalls > 0 {
		stalls.Add(float64(s.Stalls))
	}
	if o.run != "" {
		bestDistance.WithLabelValues(o.run).Set(s.BestDistance)
	}
}

// Forget drops the per-run gauge once the run is over.
func (o *RunObserver) Forget() {
	if o.run != "" {
		bestDistance.DeleteLabelValues(o.run)
	}
}

// JobStarted marks an optimization job as running.
func JobStarted() {
	jobsActive.Inc()
}

// JobFinished marks a running job as done with the given terminal status.
func JobFinished(status string) {
	jobsActive.Dec()
	jobsFinished.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, code).Inc()
	httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}
