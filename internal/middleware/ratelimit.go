package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/fueltrack/internal/metrics"
)

// RateLimitMiddleware is a sliding-window limiter keyed by client IP.
type RateLimitMiddleware struct {
	maxRequests int
	window      time.Duration
	metrics     *metrics.Metrics
	now         func() time.Time

	// TrustProxy keys clients on X-Forwarded-For / X-Real-IP instead of the
	// connection's remote address.
	TrustProxy bool

	mu        sync.Mutex
	requests  map[string][]time.Time
	lastSweep time.Time
}

// NewRateLimitMiddleware allows maxRequests per client within window.
func NewRateLimitMiddleware(maxRequests int, window time.Duration, m *metrics.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		maxRequests: maxRequests,
		window:      window,
		metrics:     m,
		now:         time.Now,
		requests:    make(map[string][]time.Time),
	}
}

// Limit wraps next with the limiter.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(m.clientIP(r)) {
			m.metrics.RateLimited()
			w.Header().Set("Retry-After", retryAfter(m.window))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(clientIP string) bool {
	now := m.now()
	windowStart := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= m.window {
		m.sweep(windowStart)
		m.lastSweep = now
	}

	recent := prune(m.requests[clientIP], windowStart)
	if len(recent) >= m.maxRequests {
		m.requests[clientIP] = recent
		return false
	}
	m.requests[clientIP] = append(recent, now)
	return true
}

// sweep drops clients with no requests inside the current window.
func (m *RateLimitMiddleware) sweep(windowStart time.Time) {
	for ip, stamps := range m.requests {
		if recent := prune(stamps, windowStart); len(recent) == 0 {
			delete(m.requests, ip)
		} else {
			m.requests[ip] = recent
		}
	}
}

// tracked reports how many clients currently hold limiter state.
func (m *RateLimitMiddleware) tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func prune(stamps []time.Time, windowStart time.Time) []time.Time {
	recent := stamps[:0]
	for _, ts := range stamps {
		if ts.After(windowStart) {
			recent = append(recent, ts)
		}
	}
	return recent
}

// clientIP identifies the caller. Forwarding headers are only honoured when
// TrustProxy is set, since any client can send them.
func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	if m.TrustProxy {
		if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
			return strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
