package redis

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a process-local Counter for single-instance deployments
// and tests. It mirrors the Redis counter's fixed-window behavior.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
	now     func() time.Time
}

type memoryBucket struct {
	count   int64
	resetAt time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		buckets: make(map[string]*memoryBucket),
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (c *MemoryCounter) WithClock(now func() time.Time) *MemoryCounter {
	c.now = now
	return c
}

func (c *MemoryCounter) Incr(_ context.Context, key string, limit int, window time.Duration) (int64, bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	bucket, ok := c.buckets[key]
	if !ok || !now.Before(bucket.resetAt) {
		bucket = &memoryBucket{resetAt: now.Add(window)}
		c.buckets[key] = bucket
	}

	count := bucket.count
	resetIn := bucket.resetAt.Sub(now)
	if count >= int64(limit) {
		return count, false, resetIn, nil
	}
	bucket.count++
	return count, true, resetIn, nil
}
