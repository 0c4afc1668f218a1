// Package ratelimit provides an in-memory per-key request-rate limiter.
//
// State is single-process by design: per-key cells share nothing across
// keys, so concurrent requests from different clients never contend beyond
// the map lock.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports a limiter decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter implements GCRA (Generic Cell Rate Algorithm) in memory, keyed by
// client network address. A background cleanup pass drops idle keys so the
// cell map cannot grow without bound.
type Limiter struct {
	rate   int           // requests allowed per period
	period time.Duration // window the rate applies to
	burst  int

	cells map[string]time.Time // Theoretical Arrival Time per key
	mu    sync.Mutex

	stopChan        chan struct{}
	wg              sync.WaitGroup
	once            sync.Once
	cleanupInterval time.Duration
	maxTTL          time.Duration
}

// New creates a limiter allowing rate requests per period with default
// cleanup settings (every 5 minutes, idle keys dropped after 1 hour).
func New(rate int, period time.Duration) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	return &Limiter{
		rate:            rate,
		period:          period,
		burst:           rate,
		cells:           make(map[string]time.Time),
		stopChan:        make(chan struct{}),
		cleanupInterval: 5 * time.Minute,
		maxTTL:          time.Hour,
	}
}

// Allow reports whether one more request from key fits under the rate.
// Updates to a key are atomic with respect to concurrent calls for the
// same key.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	// Emission interval: time between allowed requests
	emission := l.period / time.Duration(l.rate)

	// Delay tolerance: burst requests may arrive at once, no more
	burstOffset := time.Duration(l.burst-1) * emission

	// Get or initialize TAT (Theoretical Arrival Time)
	tat, exists := l.cells[key]
	if !exists || tat.Before(now) {
		tat = now
	}

	allowAt := tat.Add(-burstOffset)
	if allowAt.After(now) {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: allowAt.Sub(now),
		}
	}

	// Allow the request, advance TAT
	newTAT := tat.Add(emission)
	if newTAT.Before(now) {
		newTAT = now.Add(emission)
	}
	l.cells[key] = newTAT

	remaining := int((burstOffset-newTAT.Sub(now))/emission) + 1
	if remaining < 0 {
		remaining = 0
	}
	if remaining > l.burst {
		remaining = l.burst
	}

	return Result{Allowed: true, Remaining: remaining}
}

// StartCleanup starts the background cleanup goroutine. It stops when ctx
// is cancelled or Stop is called.
func (l *Limiter) StartCleanup(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-l.stopChan:
				return
			case <-ticker.C:
				l.cleanup()
			}
		}
	}()
}

// cleanup removes keys whose TAT is older than maxTTL.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.maxTTL)
	for key, tat := range l.cells {
		if tat.Before(cutoff) {
			delete(l.cells, key)
		}
	}
}

// Stop gracefully stops the cleanup goroutine. Safe to call multiple times.
func (l *Limiter) Stop() {
	l.once.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
}

// Size returns the current number of tracked keys.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cells)
}
