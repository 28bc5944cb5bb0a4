package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CollectionCount tracks the number of stored collections.
	CollectionCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mini_ipam_collections",
			Help: "Number of stored collections",
		},
	)

	// NodeCount tracks the number of stored nodes, split by whether they are
	// assigned to a collection.
	NodeCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mini_ipam_nodes",
			Help: "Number of stored nodes",
		},
		[]string{"assigned"},
	)

	// ValidationFailures counts rejected writes by failure kind
	// (invalid_cidr, not_private, overlap, outside_collection, ...).
	ValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mini_ipam_validation_failures_total",
			Help: "Total number of rejected collection and node writes",
		},
		[]string{"resource", "reason"},
	)

	// Lookups counts most-specific-collection lookups by result (match, none).
	Lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mini_ipam_lookups_total",
			Help: "Total number of most specific collection lookups",
		},
		[]string{"result"},
	)
)

func registerBusinessMetrics() error {
	return register(
		CollectionCount,
		NodeCount,
		ValidationFailures,
		Lookups,
	)
}

// RecordLookup counts one lookup outcome.
func RecordLookup(matched bool) {
	if matched {
		Lookups.WithLabelValues("match").Inc()
		return
	}
	Lookups.WithLabelValues("none").Inc()
}
