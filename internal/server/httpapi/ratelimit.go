package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"finledger/internal/common"
)

const limiterCleanupInterval = 5 * time.Minute

// Limiter throttles clients with a fixed window: up to max requests per
// window, counted from the first request after the previous window expired.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientWindow
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	max    int
	window time.Duration

	now func() time.Time // overridable in tests
}

type clientWindow struct {
	windowStart time.Time
	requests    int
}

// NewLimiter creates a limiter allowing max requests per window per client
// and starts its cleanup goroutine. Call Stop when done.
func NewLimiter(max int, window time.Duration) *Limiter {
	l := &Limiter{
		clients:     make(map[string]*clientWindow),
		stopCleanup: make(chan struct{}),
		max:         max,
		window:      window,
		now:         time.Now,
	}
	go l.startCleanup()
	return l
}

// Allow reports whether a request from the client may proceed. When it may
// not, retryAfter says how long until the current window expires.
func (l *Limiter) Allow(clientKey string) (allowed bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	c, exists := l.clients[clientKey]
	if !exists || now.Sub(c.windowStart) >= l.window {
		l.clients[clientKey] = &clientWindow{windowStart: now, requests: 1}
		return true, 0
	}

	c.requests++
	if c.requests > l.max {
		return false, c.windowStart.Add(l.window).Sub(now)
	}
	return true, 0
}

func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupStale()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) cleanupStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.window)
	for key, c := range l.clients {
		if c.windowStart.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Stop shuts down the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// clientIP identifies the caller for throttling purposes.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects over-limit requests with 429 and a Retry-After header.
func (l *Limiter) Middleware(env *Env) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := l.Allow(clientIP(r))
			if !allowed {
				seconds := int(retryAfter.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
				env.writeError(w, r, common.ErrorRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
