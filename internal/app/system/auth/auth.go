// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sessionIDKey = "sid"

// Resolver is the identity service as seen by the HTTP layer.
type Resolver interface {
	Resolve(ctx context.Context, p identity.Proofs) (identity.Identity, error)
}

// SessionManager owns the session cookie. The cookie is signed and carries
// only the server-side session id; the session payload lives in the
// sessions collection.
type SessionManager struct {
	store    *sessions.CookieStore
	name     string
	resolver Resolver
	log      *zap.Logger
}

// NewSessionManager creates a session manager.
//
// Cookies are HttpOnly and SameSite=Lax with MaxAge ttl; secure marks them
// Secure, which production requires. Use secure=false for local http.
func NewSessionManager(sessionKey, name, domain string, ttl time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "learnhub-session"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	// Sets both the cookie MaxAge and the signed timestamp check.
	store.MaxAge(int(ttl.Seconds()))

	logger.Info("session manager initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("ttl", ttl))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetResolver installs the identity service. It is set after construction
// because the service and the manager are built from different config.
func (sm *SessionManager) SetResolver(r Resolver) {
	sm.resolver = r
}

func (sm *SessionManager) session(r *http.Request) *sessions.Session {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// A tampered, expired or foreign cookie yields a fresh session.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Debug("session cookie rejected", zap.Error(err))
		} else {
			sm.log.Warn("session cookie error", zap.Error(err))
		}
	}
	return sess
}

// SessionID returns the server-side session id carried by the request's
// cookie, or "" when there is no valid cookie.
func (sm *SessionManager) SessionID(r *http.Request) string {
	if v, ok := sm.session(r).Values[sessionIDKey].(string); ok {
		return v
	}
	return ""
}

// SetSessionID writes the cookie for a newly established session.
func (sm *SessionManager) SetSessionID(w http.ResponseWriter, r *http.Request, sid string) error {
	sess := sm.session(r)
	sess.Values[sessionIDKey] = sid
	return sess.Save(r, w)
}

// Clear expires the cookie in the browser.
func (sm *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess := sm.session(r)
	delete(sess.Values, sessionIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
