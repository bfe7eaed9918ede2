package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/stallkit/stall/errors"
	"github.com/stallkit/stall/web"
)

// RateLimiter defines the interface for rate limiting.
type RateLimiter interface {
	// Allow checks if a request for the key is allowed.
	Allow(key string) bool

	// Reset resets the limiter for a key.
	Reset(key string)
}

// limiterEntry holds a limiter and its last access time.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryStore is an in-memory rate limiter store keyed by client,
// evicting limiters idle past their TTL.
type MemoryStore struct {
	rate  rate.Limit
	burst int
	ttl   time.Duration

	mu       sync.Mutex
	limiters map[string]*limiterEntry

	cleanup  *time.Ticker
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store allowing r requests per second with
// the given burst.
func NewMemoryStore(r int, burst int) *MemoryStore {
	st := &MemoryStore{
		rate:     rate.Limit(r),
		burst:    burst,
		ttl:      10 * time.Minute,
		limiters: make(map[string]*limiterEntry),
		cleanup:  time.NewTicker(time.Minute),
		stopped:  make(chan struct{}),
	}
	go st.cleanupLoop()
	return st
}

// Allow implements RateLimiter.
func (st *MemoryStore) Allow(key string) bool {
	st.mu.Lock()
	entry, ok := st.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(st.rate, st.burst)}
		st.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	st.mu.Unlock()
	return entry.limiter.Allow()
}

// Reset implements RateLimiter.
func (st *MemoryStore) Reset(key string) {
	st.mu.Lock()
	delete(st.limiters, key)
	st.mu.Unlock()
}

// Close stops the background cleanup.
func (st *MemoryStore) Close() {
	st.stopOnce.Do(func() {
		st.cleanup.Stop()
		close(st.stopped)
	})
}

func (st *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-st.stopped:
			return
		case <-st.cleanup.C:
			cutoff := time.Now().Add(-st.ttl)
			st.mu.Lock()
			for key, entry := range st.limiters {
				if entry.lastAccess.Before(cutoff) {
					delete(st.limiters, key)
				}
			}
			st.mu.Unlock()
		}
	}
}

// RateLimit short-circuits clients exceeding the per-IP request rate
// with a 429 error response.
type RateLimit struct {
	Store RateLimiter
}

// NewRateLimit creates the rate-limit middleware over a store.
func NewRateLimit(store RateLimiter) *RateLimit {
	return &RateLimit{Store: store}
}

// Handle implements web.Middleware.
func (rl *RateLimit) Handle(req *web.Request, next web.Next) (*web.Response, error) {
	key := req.RealIP()
	if key == "" {
		key = "unknown"
	}
	if !rl.Store.Allow(key) {
		return errors.Respond(req, errors.CodeRateLimitExceeded), nil
	}
	return next()
}
