package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies a token bucket per client IP. Idle buckets expire.
type RateLimitMiddleware struct {
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

// NewRateLimitMiddleware creates a limiter allowing rps requests per second with the given burst.
func NewRateLimitMiddleware(rps float64, burst int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (m *RateLimitMiddleware) limiter(ip string) *rate.Limiter {
	if l, ok := m.limiters.Get(ip); ok {
		m.limiters.SetDefault(ip, l)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(m.limit, m.burst)
	if err := m.limiters.Add(ip, l, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if existing, ok := m.limiters.Get(ip); ok {
			return existing.(*rate.Limiter)
		}
	}
	return l
}

// RateLimit rejects requests beyond the client's budget with 429.
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter(getClientIP(r)).Allow() {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
