// Package middleware provides the console's HTTP middleware.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shashiranjanraj/muestras/pkg/response"
)

// bucket tracks a fixed-window request count for one client.
type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per client address in fixed windows.
type Limiter struct {
	max    int
	window time.Duration
	clock  clockwork.Clock
	// proxies may set X-Forwarded-For; nobody else is believed.
	proxies []netip.Prefix

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter allows max requests per window for each client. A nil clock
// uses the real one.
func NewLimiter(max int, window time.Duration, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{max: max, window: window, clock: clock, buckets: map[string]*bucket{}}
}

// TrustProxies lets requests arriving from prefixes (CIDRs or bare
// addresses) name the client through X-Forwarded-For. Call it before serving.
func (l *Limiter) TrustProxies(prefixes ...string) error {
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			addr, err := netip.ParseAddr(p)
			if err != nil {
				return fmt.Errorf("middleware: trusted proxy %q: %w", p, err)
			}
			addr = addr.Unmap()
			l.proxies = append(l.proxies, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		pfx, err := netip.ParsePrefix(p)
		if err != nil {
			return fmt.Errorf("middleware: trusted proxy %q: %w", p, err)
		}
		l.proxies = append(l.proxies, pfx.Masked())
	}
	return nil
}

func (l *Limiter) trusted(host string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(host))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP is the key r is counted under: the peer address, or when the
// peer is a trusted proxy the nearest untrusted X-Forwarded-For hop.
func (l *Limiter) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !l.trusted(host) {
		return host
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !l.trusted(hop) {
			return hop
		}
	}
	return host
}

// Allow records one request from key and reports whether it is within the
// limit. Expired buckets are dropped as they are met.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for k, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, k)
		}
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count <= l.max
}

// RateLimit rejects clients that exceed l with 429.
//
//	api.Post("/login", "auth.login", ctrl.Login, middleware.RateLimit(middleware.NewLimiter(10, time.Minute, nil)))
func RateLimit(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(l.ClientIP(r)) {
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
