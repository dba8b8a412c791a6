// Package metrics defines the custom Prometheus metrics of the webinar API.
// All metrics register with the default registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "webinars"

// Operation label values.
const (
	OpOrganize    = "organize"
	OpChangeSeats = "change_seats"
)

// WebinarsOrganizedTotal counts webinars created successfully.
var WebinarsOrganizedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "organized_total",
		Help:      "Total number of webinars organized.",
	},
)

// SeatChangesTotal counts successful seat changes.
var SeatChangesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seat_changes_total",
		Help:      "Total number of successful seat capacity changes.",
	},
)

// RejectionsTotal counts requests refused by a business rule.
// Labels:
//   - operation: "organize" or "change_seats"
//   - kind: rejection kind (e.g. "too_many_seats", "not_organizer")
var RejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejections_total",
		Help:      "Total number of webinar commands rejected by a business rule.",
	},
	[]string{"operation", "kind"},
)

// IdempotentReplaysTotal counts organize requests answered from the idempotency store.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of organize requests served from a previous Idempotency-Key.",
	},
)
