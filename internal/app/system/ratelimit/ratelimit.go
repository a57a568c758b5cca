// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
)

// Limiter counts attempts per key in fixed windows.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit attempts per key every duration.
// Call Close to stop its sweeper.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go l.sweep(duration * 2)
	return l
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	if n := l.limit - w.count; n > 0 {
		return n
	}
	return 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Close stops the sweeper. The limiter keeps working afterwards.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// PerIP rejects requests from a client address that exhausted its window
// with a TOO_MANY_ATTEMPTS JSON error. A nil limiter passes everything.
func (l *Limiter) PerIP(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			auth.WriteError(w, identity.ErrTooManyAttempts)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client address, preferring X-Forwarded-For and
// X-Real-IP over RemoteAddr.
//
// The service is expected to run behind one trusted reverse proxy that
// appends the peer address to X-Forwarded-For. Only the right-most hop is
// used; earlier hops are whatever the client sent and would let it pick a
// fresh throttle key per request. Without such a proxy the headers must be
// stripped at the edge.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// CredentialLimiter throttles password attempts by client address and by
// target email, so neither a single client nor a spread of clients can
// grind one account.
type CredentialLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewCredentialLimiter builds a limiter from per-address and per-email budgets.
func NewCredentialLimiter(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *CredentialLimiter {
	return &CredentialLimiter{
		ip:    New(ipLimit, ipWindow),
		email: New(emailLimit, emailWindow),
	}
}

// Check records an attempt and returns ErrTooManyAttempts when either budget
// is spent. A nil limiter never throttles.
func (c *CredentialLimiter) Check(r *http.Request, email string) error {
	if c == nil {
		return nil
	}
	if !c.ip.Allow(ClientIP(r)) {
		return identity.WithMessage(identity.ErrTooManyAttempts,
			"too many login attempts, wait a minute before trying again")
	}
	if key := emailKey(email); key != "" && !c.email.Allow(key) {
		return identity.WithMessage(identity.ErrTooManyAttempts,
			"too many login attempts for this account, wait a few minutes")
	}
	return nil
}

// Succeeded clears the email budget after a successful sign-in.
func (c *CredentialLimiter) Succeeded(email string) {
	if c == nil {
		return
	}
	if key := emailKey(email); key != "" {
		c.email.Reset(key)
	}
}

func (c *CredentialLimiter) Close() {
	if c == nil {
		return
	}
	c.ip.Close()
	c.email.Close()
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
