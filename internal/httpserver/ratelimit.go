package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/fdg312/preppair/internal/config"
	"golang.org/x/time/rate"
)

// sweepEvery is the number of lookups between sweeps of idle clients.
const sweepEvery = 1000

type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	lookups  int
}

func newClientLimiters(rps int, burst int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

func (c *clientLimiters) get(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[ip]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[ip] = l
	}

	c.lookups++
	if c.lookups%sweepEvery == 0 {
		c.sweep()
	}
	return l
}

// sweep drops clients whose bucket has refilled. Caller holds mu.
func (c *clientLimiters) sweep() {
	for ip, l := range c.limiters {
		if l.Tokens() >= float64(c.burst) {
			delete(c.limiters, ip)
		}
	}
}

// RateLimitMiddleware applies a per-IP token bucket of RATE_LIMIT_RPS with
// RATE_LIMIT_BURST. Health checks are never limited. RPS <= 0 disables it.
func RateLimitMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	if cfg.RateLimitRPS <= 0 {
		return next
	}

	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = cfg.RateLimitRPS
	}
	clients := newClientLimiters(cfg.RateLimitRPS, burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || clients.get(extractIP(r)).Allow() {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"code":    "rate_limited",
				"message": "Too many requests",
			},
		})
	})
}

// extractIP prefers the first X-Forwarded-For hop, then RemoteAddr.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
