package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/okian/pumpcurve/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	// maxTrackedClients bounds the limiter table before idle clients are swept.
	maxTrackedClients = 10000
	clientIdleTTL     = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	ips map[string]*clientLimiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
	now func() time.Time
}

// NewIPRateLimiter allows each client rps requests per second with burst b.
func NewIPRateLimiter(rps float64, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*clientLimiter),
		r:   rate.Limit(rps),
		b:   b,
		now: time.Now,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	c, exists := i.ips[ip]
	if !exists {
		if len(i.ips) >= maxTrackedClients {
			i.sweep(now)
		}
		c = &clientLimiter{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// sweep drops clients idle for longer than clientIdleTTL. Callers hold mu.
func (i *IPRateLimiter) sweep(now time.Time) {
	for ip, c := range i.ips {
		if now.Sub(c.lastSeen) > clientIdleTTL {
			delete(i.ips, ip)
		}
	}
}

// LimitMiddleware refuses requests over the client's budget with 429.
// Health and metrics probes are never limited.
func (i *IPRateLimiter) LimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		if !i.getLimiter(clientIP(r)).Allow() {
			metrics.RecordHTTPRateLimited()
			writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind("api.rate_limit", ErrRateLimited))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
