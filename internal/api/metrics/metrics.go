// Package metrics defines the custom Prometheus metrics for the shipment
// tracking service. It is the single source of truth for metric names,
// labels, and help strings; all metrics register with the default registry at
// package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// JobsCreatedTotal counts successfully created job/shipment pairings.
// Label:
//   - status: the creator-supplied initial status (e.g. "ADDED")
var JobsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_created_total",
		Help:      "Total number of jobs created, by initial status.",
	},
	[]string{"status"},
)

// LocationUpdatesTotal counts location webhook outcomes.
// Label:
//   - result: "applied" (written), "skipped" (insignificant move, no write),
//     or "replay" (duplicate webhook delivery suppressed via the dedup store)
var LocationUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_updates_total",
		Help:      "Total number of location webhook deliveries, by outcome.",
	},
	[]string{"result"},
)

// WebhookErrorsTotal counts failed webhook requests.
// Label:
//   - reason: "validation", "not_found", "conflict", or "internal"
var WebhookErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_errors_total",
		Help:      "Total number of webhook requests that failed, by reason.",
	},
	[]string{"reason"},
)
