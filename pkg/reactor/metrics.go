package reactor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	loopCallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbiter",
			Subsystem: "reactor",
			Name:      "callbacks_total",
			Help:      "The number of callbacks executed by an event loop.",
		}, []string{"loop"})
	loopPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbiter",
			Subsystem: "reactor",
			Name:      "callback_panics_total",
			Help:      "The number of callbacks that panicked in an event loop.",
		}, []string{"loop"})
)

// InitMetrics registers all metrics in this file
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(loopCallbacks)
	registry.MustRegister(loopPanics)
}
