// Package limiter paces outbound webhook deliveries with token buckets: one
// global bucket shared by every destination plus a smaller bucket per
// destination URL, with bounded waiting and retry-after penalties.
package limiter

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrQueueFull is returned when too many deliveries are already waiting for
// the same destination.
var ErrQueueFull = errors.New("rate limit queue overflow")

// Config tunes a Limiter. Zero values fall back to the defaults below.
type Config struct {
	GlobalRate float64       // tokens per second shared across destinations
	DestRate   float64       // deliveries per destination per window
	DestWindow time.Duration // per-destination window
	MaxWaiting int           // max deliveries waiting per destination
	Enabled    bool
}

const (
	defaultGlobalRate = 50.0
	defaultDestRate   = 5.0
	defaultDestWindow = 5 * time.Second
	defaultMaxWaiting = 100
)

// Stats is a snapshot of limiter counters.
type Stats struct {
	RateLimitHits      uint64         `json:"rate_limit_hits"`
	Queued             uint64         `json:"messages_queued"`
	Sent               uint64         `json:"messages_sent"`
	QueueOverflows     uint64         `json:"queue_overflows"`
	WaitingPerDest     map[string]int `json:"waiting_per_destination"`
	ActiveDestinations int            `json:"active_destinations"`
}

// Limiter coordinates delivery pacing across goroutines.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	global  *bucket
	perDest map[string]*bucket
	waiting map[string]int

	rateLimitHits  uint64
	queued         uint64
	sent           uint64
	queueOverflows uint64
}

func New(cfg Config) *Limiter {
	if cfg.GlobalRate <= 0 {
		cfg.GlobalRate = defaultGlobalRate
	}
	if cfg.DestRate <= 0 {
		cfg.DestRate = defaultDestRate
	}
	if cfg.DestWindow <= 0 {
		cfg.DestWindow = defaultDestWindow
	}
	if cfg.MaxWaiting <= 0 {
		cfg.MaxWaiting = defaultMaxWaiting
	}
	return &Limiter{
		cfg:     cfg,
		global:  newBucket(cfg.GlobalRate, cfg.GlobalRate),
		perDest: make(map[string]*bucket),
		waiting: make(map[string]int),
	}
}

func (l *Limiter) destBucket(dest string) *bucket {
	b, ok := l.perDest[dest]
	if !ok {
		b = newBucket(l.cfg.DestRate, l.cfg.DestRate/l.cfg.DestWindow.Seconds())
		l.perDest[dest] = b
	}
	return b
}

// Acquire blocks until a delivery to dest may proceed, or fails with
// ErrQueueFull when the destination already has MaxWaiting deliveries queued,
// or with the context error on cancellation.
func (l *Limiter) Acquire(ctx context.Context, dest string) error {
	if !l.cfg.Enabled {
		return nil
	}

	l.mu.Lock()
	if l.waiting[dest] >= l.cfg.MaxWaiting {
		l.queueOverflows++
		l.mu.Unlock()
		log.Printf("[limiter] queue overflow for %s (%d waiting)", dest, l.cfg.MaxWaiting)
		return ErrQueueFull
	}
	l.waiting[dest]++
	l.queued++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.waiting[dest]--
		if l.waiting[dest] <= 0 {
			delete(l.waiting, dest)
		}
		l.mu.Unlock()
	}()

	for {
		l.mu.Lock()
		now := time.Now()
		b := l.destBucket(dest)
		wait := l.global.waitTime(now, 1)
		if dw := b.waitTime(now, 1); dw > wait {
			wait = dw
		}
		if wait == 0 {
			l.global.consume(now, 1)
			b.consume(now, 1)
			l.mu.Unlock()
			return nil
		}
		l.rateLimitHits++
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RecordSent counts a completed delivery.
func (l *Limiter) RecordSent() {
	l.mu.Lock()
	l.sent++
	l.mu.Unlock()
}

// Penalize applies an upstream retry-after to a destination's bucket so
// subsequent deliveries back off. An empty dest penalizes the global bucket.
func (l *Limiter) Penalize(dest string, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rateLimitHits++
	now := time.Now()
	if dest == "" {
		l.global.penalize(now, retryAfter)
		log.Printf("[limiter] global rate limit hit, retry after %s", retryAfter)
		return
	}
	l.destBucket(dest).penalize(now, retryAfter)
	log.Printf("[limiter] rate limited on destination, retry after %s", retryAfter)
}

// Snapshot returns the current counters.
func (l *Limiter) Snapshot() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	waiting := make(map[string]int, len(l.waiting))
	for d, n := range l.waiting {
		waiting[d] = n
	}
	return Stats{
		RateLimitHits:      l.rateLimitHits,
		Queued:             l.queued,
		Sent:               l.sent,
		QueueOverflows:     l.queueOverflows,
		WaitingPerDest:     waiting,
		ActiveDestinations: len(l.perDest),
	}
}
