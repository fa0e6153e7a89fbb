package fiber

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	availableFibers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "arbiter",
			Subsystem: "fiber",
			Name:      "available_fibers",
			Help:      "The number of idle fibers in a pool.",
		}, []string{"pool"})
	busyFibers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "arbiter",
			Subsystem: "fiber",
			Name:      "busy_fibers",
			Help:      "The number of fibers running or suspended in a pool.",
		}, []string{"pool"})
	pendingJobs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "arbiter",
			Subsystem: "fiber",
			Name:      "pending_jobs",
			Help:      "The number of submissions waiting for a fiber.",
		}, []string{"pool"})
	spawnedFibers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbiter",
			Subsystem: "fiber",
			Name:      "spawned_fibers_total",
			Help:      "The number of fibers created by a pool.",
		}, []string{"pool"})
	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbiter",
			Subsystem: "fiber",
			Name:      "submissions_total",
			Help:      "The number of submissions by outcome.",
		}, []string{"pool", "outcome"})
)

const (
	outcomeResolved = "resolved"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

// InitMetrics registers all metrics in this file
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(availableFibers)
	registry.MustRegister(busyFibers)
	registry.MustRegister(pendingJobs)
	registry.MustRegister(spawnedFibers)
	registry.MustRegister(submissions)
}
