package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RateLimitChecks counts rate limit checks by type and result.
	RateLimitChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mini_ipam_ratelimit_checks_total",
			Help: "Total number of rate limit checks",
		},
		[]string{"limit_type", "allowed"},
	)

	// RateLimitBlocks counts rate limit blocks by type.
	RateLimitBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mini_ipam_ratelimit_blocks_total",
			Help: "Total number of rate limit blocks",
		},
		[]string{"limit_type"},
	)

	// RateLimitBucketCapacity tracks the maximum capacity of rate limit buckets.
	RateLimitBucketCapacity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mini_ipam_ratelimit_bucket_capacity",
			Help: "Maximum capacity of rate limit buckets",
		},
		[]string{"limit_type"},
	)
)

func registerRateLimitMetrics() error {
	return register(
		RateLimitChecks,
		RateLimitBlocks,
		RateLimitBucketCapacity,
	)
}

// RecordRateLimit records the outcome of one rate limit check.
func RecordRateLimit(limitType string, allowed bool) {
	if allowed {
		RateLimitChecks.WithLabelValues(limitType, "true").Inc()
		return
	}
	RateLimitChecks.WithLabelValues(limitType, "false").Inc()
	RateLimitBlocks.WithLabelValues(limitType).Inc()
}
