package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxTrackedClients bounds the per-IP limiter map; past this the map is
	// dropped wholesale, which at worst grants each client one fresh burst.
	maxTrackedClients = 10000
	cleanupInterval   = 10 * time.Minute
)

// RateLimiter hands out a token-bucket limiter per client IP.
type RateLimiter struct {
	mu    sync.RWMutex
	byIP  map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		byIP:  make(map[string]*rate.Limiter),
		limit: rate.Limit(rps),
		burst: burst,
	}
}

// Allow reports whether a request from ip fits its bucket right now.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.limiter(ip).Allow()
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.RLock()
	lim, ok := rl.byIP[ip]
	rl.mu.RUnlock()
	if ok {
		return lim
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if lim, ok = rl.byIP[ip]; ok {
		return lim
	}
	lim = rate.NewLimiter(rl.limit, rl.burst)
	rl.byIP[ip] = lim
	return lim
}

// Cleanup resets the map once it passes maxTrackedClients.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.byIP) > maxTrackedClients {
		rl.byIP = make(map[string]*rate.Limiter)
	}
}

// RateLimit limits requests per client IP, answering 429 with a Retry-After
// once the bucket is empty. The IP comes from X-Real-IP (set by chi's RealIP
// earlier in the chain) with RemoteAddr as the fallback.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rps, burst)

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Cleanup()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.Header.Get("X-Real-IP")
			if ip == "" {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
