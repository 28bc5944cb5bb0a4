package ratelimit

import (
	"sync"
	"time"
)

// Bucket represents a token bucket for rate limiting.
type Bucket struct {
	// Tokens is the current number of available tokens.
	Tokens float64

	// LastRefill is the timestamp of the last token refill.
	LastRefill time.Time

	// Capacity is the maximum number of tokens the bucket can hold.
	Capacity float64

	// RefillRate is the number of tokens added per second.
	RefillRate float64
}

func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.LastRefill).Seconds()
	if elapsed > 0 {
		b.Tokens += elapsed * b.RefillRate
		if b.Tokens > b.Capacity {
			b.Tokens = b.Capacity
		}
	}
	b.LastRefill = now
}

// StorageOptions controls how idle buckets are evicted.
type StorageOptions struct {
	// CleanupInterval is how often the sweeper runs.
	CleanupInterval time.Duration

	// IdleTTL is how long a bucket may go unused before it is evicted.
	IdleTTL time.Duration
}

// DefaultStorageOptions sweeps every five minutes and evicts buckets idle
// for an hour.
func DefaultStorageOptions() StorageOptions {
	return StorageOptions{
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
	}
}

// Storage provides thread-safe in-memory storage for rate limit buckets.
type Storage struct {
	mu      sync.Mutex
	buckets map[string]*Bucket
	opts    StorageOptions
	stopCh  chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewStorage creates a new rate limit storage and starts the cleanup goroutine.
func NewStorage(opts StorageOptions) *Storage {
	s := &Storage{
		buckets: make(map[string]*Bucket),
		opts:    opts,
		stopCh:  make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop()
	}
	return s
}

// Get retrieves a bucket by key. Returns nil if not found.
func (s *Storage) Get(key string) *Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buckets[key]
}

// Set stores or updates a bucket by key.
func (s *Storage) Set(key string, bucket *Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[key] = bucket
}

// Delete removes a bucket by key.
func (s *Storage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
}

// Count returns the number of buckets currently stored.
func (s *Storage) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *Storage) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.evictIdle(now)
		case <-s.stopCh:
			return
		}
	}
}

// evictIdle removes buckets last refilled before now minus IdleTTL.
func (s *Storage) evictIdle(now time.Time) int {
	threshold := now.Add(-s.opts.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, bucket := range s.buckets {
		if bucket.LastRefill.Before(threshold) {
			delete(s.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Stop gracefully stops the storage cleanup goroutine. It is safe to call
// more than once.
func (s *Storage) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}
