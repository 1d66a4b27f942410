// Package metrics defines the Prometheus collectors shared by the services.
// Collectors register with the default registry; cmd/server exposes them
// through promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequisitionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "supply",
		Name:      "requisitions_created_total",
		Help:      "Requisitions submitted by organizations.",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supply",
		Name:      "requisition_transitions_total",
		Help:      "Requisition status changes by ledger effect (none, issue, revert).",
	}, []string{"effect"})

	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supply",
		Name:      "ledger_entries_total",
		Help:      "Stock transactions appended, by direction.",
	}, []string{"direction"})

	NotifierFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supply",
		Name:      "notifier_failures_total",
		Help:      "Failed or dropped notifications, by notifier.",
	}, []string{"notifier"})
)
