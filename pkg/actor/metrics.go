package actor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	activeActors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "arbiter",
			Subsystem: "actor",
			Name:      "number_of_actors",
			Help:      "The number of actors registered in an arbiter.",
		}, []string{"arbiter"})
	messageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arbiter",
			Subsystem: "actor",
			Name:      "messages_total",
			Help:      "The number of messages by outcome.",
		}, []string{"arbiter", "outcome"})
	handleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arbiter",
			Subsystem: "actor",
			Name:      "handle_duration_seconds",
			Help:      "Bucketed histogram of message handling time.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 18),
		}, []string{"arbiter"})
)

const (
	outcomeHandled       = "handled"
	outcomeFailed        = "failed"
	outcomeDropped       = "dropped"
	outcomeUndeliverable = "undeliverable"
)

// InitMetrics registers all metrics in this file
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(activeActors)
	registry.MustRegister(messageCounter)
	registry.MustRegister(handleDuration)
}
