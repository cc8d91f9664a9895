package limiter

import "time"

// bucket is a token bucket. Not safe for concurrent use on its own; the
// Limiter serializes access.
type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newBucket(capacity, refillRate float64) *bucket {
	return &bucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill credits tokens accrued since the last refill and returns the balance.
func (b *bucket) refill(now time.Time) float64 {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.refillRate)
		b.lastRefill = now
	}
	return b.tokens
}

// consume takes n tokens if available.
func (b *bucket) consume(now time.Time, n float64) bool {
	if b.refill(now) >= n {
		b.tokens -= n
		return true
	}
	return false
}

// waitTime reports how long until n tokens will be available.
func (b *bucket) waitTime(now time.Time, n float64) time.Duration {
	available := b.refill(now)
	if available >= n {
		return 0
	}
	needed := n - available
	return time.Duration(needed / b.refillRate * float64(time.Second))
}

// penalize empties the bucket and pushes the next refill out by retryAfter,
// honoring an upstream retry-after response.
func (b *bucket) penalize(now time.Time, retryAfter time.Duration) {
	b.tokens = 0
	b.lastRefill = now.Add(retryAfter)
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
