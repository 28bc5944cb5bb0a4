// Package ratelimit implements per-key token buckets for write, lookup,
// health check and authentication failure limits.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// LimitType represents the type of rate limit to apply.
type LimitType string

const (
	// LimitTypeAuthFailure is for rejected API tokens per IP.
	LimitTypeAuthFailure LimitType = "auth_failure"

	// LimitTypeWrite is for collection and node mutations per IP.
	LimitTypeWrite LimitType = "write"

	// LimitTypeLookup is for most-specific collection lookups per IP.
	LimitTypeLookup LimitType = "lookup"

	// LimitTypeHealthCheck is for unauthenticated health check requests per IP.
	LimitTypeHealthCheck LimitType = "health_check"
)

// Config holds per-minute budgets for each limit type. Each bucket starts
// full, so the budget is also the burst size.
type Config struct {
	AuthFailuresPerMin int
	WritesPerMin       int
	LookupsPerMin      int
	HealthChecksPerMin int
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		AuthFailuresPerMin: 10,
		WritesPerMin:       120,
		LookupsPerMin:      600,
		HealthChecksPerMin: 60,
	}
}

func (c Config) perMinute(limitType LimitType) int {
	switch limitType {
	case LimitTypeAuthFailure:
		return c.AuthFailuresPerMin
	case LimitTypeWrite:
		return c.WritesPerMin
	case LimitTypeLookup:
		return c.LookupsPerMin
	case LimitTypeHealthCheck:
		return c.HealthChecksPerMin
	default:
		return c.WritesPerMin
	}
}

// Limiter implements token bucket rate limiting with support for multiple limit types.
type Limiter struct {
	storage *Storage
	config  Config
	now     func() time.Time
	mu      sync.Mutex
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	for _, lt := range []LimitType{LimitTypeAuthFailure, LimitTypeWrite, LimitTypeLookup, LimitTypeHealthCheck} {
		metrics.RateLimitBucketCapacity.WithLabelValues(string(lt)).Set(float64(config.perMinute(lt)))
	}
	return &Limiter{
		storage: NewStorage(DefaultStorageOptions()),
		config:  config,
		now:     time.Now,
	}
}

// Allow takes one token from the bucket for key. It returns false and the
// number of seconds until a token is available when the bucket is empty.
func (l *Limiter) Allow(key string, limitType LimitType) (allowed bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket := l.storage.Get(key)
	if bucket == nil {
		bucket = l.newBucket(limitType, now)
		l.storage.Set(key, bucket)
	}

	bucket.refill(now)

	if bucket.Tokens >= 1.0 {
		bucket.Tokens--
		metrics.RecordRateLimit(string(limitType), true)
		return true, 0
	}

	metrics.RecordRateLimit(string(limitType), false)
	if bucket.RefillRate <= 0 {
		return false, 60
	}
	retrySeconds := int((1.0 - bucket.Tokens) / bucket.RefillRate)
	if retrySeconds < 1 {
		retrySeconds = 1
	}
	return false, retrySeconds
}

func (l *Limiter) newBucket(limitType LimitType, now time.Time) *Bucket {
	capacity := float64(l.config.perMinute(limitType))
	return &Bucket{
		Tokens:     capacity,
		LastRefill: now,
		Capacity:   capacity,
		RefillRate: capacity / 60.0,
	}
}

// BuildKey creates a rate limit key from identifier and limit type.
func BuildKey(identifier string, limitType LimitType) string {
	return fmt.Sprintf("%s:%s", limitType, identifier)
}

// Stop gracefully stops the limiter and cleans up resources.
func (l *Limiter) Stop() {
	l.storage.Stop()
}
