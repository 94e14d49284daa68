package httpx

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type rateClient struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies a per-caller token bucket, keyed by client
// address. Buckets idle longer than idleAfter are dropped so the map stays
// bounded under churning clients.
type RateLimitMiddleware struct {
	mu        sync.Mutex
	clients   map[string]*rateClient
	rps       rate.Limit
	burst     int
	idleAfter time.Duration
}

func NewRateLimitMiddleware(rps float64, burst int) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		clients:   make(map[string]*rateClient),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleAfter: 5 * time.Minute,
	}
	go rl.reap()
	return rl
}

func (rl *RateLimitMiddleware) reap() {
	ticker := time.NewTicker(rl.idleAfter)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for key, c := range rl.clients {
			if time.Since(c.lastSeen) > rl.idleAfter {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

func (rl *RateLimitMiddleware) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &rateClient{bucket: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.bucket.Allow()
}

func (rl *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			JSONError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests, slow down", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
