package handler

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimitObserver is told about every rejected request
type RateLimitObserver interface {
	RateLimitHit(route string)
}

// RateLimiter keeps one token bucket per route and client IP.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*client
	limit      rate.Limit
	burst      int
	trustProxy bool
	lastSweep  time.Time
	observer   RateLimitObserver
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client with the given burst.
// A non-positive perMinute disables limiting. trustProxy selects how the
// client address is read, see clientIP.
func NewRateLimiter(perMinute, burst int, trustProxy bool, observer RateLimitObserver) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients:    make(map[string]*client),
		limit:      limit,
		burst:      burst,
		trustProxy: trustProxy,
		lastSweep:  time.Now(),
		observer:   observer,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

// Limit wraps next. Each route draws from its own buckets.
func (rl *RateLimiter) Limit(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(route + "|" + clientIP(r, rl.trustProxy)) {
			if rl.observer != nil {
				rl.observer.RateLimitHit(route)
			}
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many requests, please slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
