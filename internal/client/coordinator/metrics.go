package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartsync_pushes_total",
			Help: "Push attempts that reached the store, by outcome",
		},
		[]string{"outcome"},
	)

	conflictsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cartsync_conflicts_resolved_total",
			Help: "Version conflicts resolved by the deterministic policy",
		},
	)

	transportFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cartsync_transport_failures_total",
			Help: "Transport failures (timeouts, unreachable, malformed responses)",
		},
	)

	eventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartsync_events_applied_total",
			Help: "Events folded into the acknowledged cart state, by source",
		},
		[]string{"source"},
	)
)
