// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type ctxKey string

const (
	currentIdentityKey ctxKey = "currentIdentity"
	federatedKey       ctxKey = "federatedPrincipal"
)

// CurrentIdentity returns the resolved identity and a "found?" flag.
func CurrentIdentity(r *http.Request) (identity.Identity, bool) {
	id, ok := r.Context().Value(currentIdentityKey).(identity.Identity)
	return id, ok
}

// WithIdentity attaches a resolved identity to the request.
func WithIdentity(r *http.Request, id identity.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentIdentityKey, id))
}

// WithFederatedPrincipal records a principal established by a provider
// callback earlier in the pipeline. Authenticate accepts it as the last proof.
func WithFederatedPrincipal(r *http.Request, id identity.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), federatedKey, id))
}

// Proofs collects every identity proof the request carries.
func (sm *SessionManager) Proofs(r *http.Request) identity.Proofs {
	p := identity.Proofs{
		SessionID: sm.SessionID(r),
		Token:     identity.TokenFromRequest(r),
	}
	if fed, ok := r.Context().Value(federatedKey).(identity.Identity); ok {
		p.Federated = &fed
	}
	return p
}

// Authenticate resolves the caller and injects the identity into the
// request context. Requests that cannot be resolved are answered with the
// JSON error for the failure and do not reach next.
func (sm *SessionManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.resolver == nil {
			sm.log.Error("authenticate called before a resolver was installed")
			WriteError(w, identity.ErrSystem)
			return
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), sm.log, "resolve identity")
		defer cancel()

		id, err := sm.resolver.Resolve(ctx, sm.Proofs(r))
		if err != nil {
			sm.logFailure(r, err)
			WriteError(w, err)
			return
		}

		sm.log.Debug("identity resolved",
			zap.String("user_id", id.ID),
			zap.String("via", string(id.Via)))
		next.ServeHTTP(w, WithIdentity(r, id))
	})
}

// RequireAdmin allows only identities with the admin role. It must run
// after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := CurrentIdentity(r)
		if err := identity.RequireAdmin(id); err != nil {
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) logFailure(r *http.Request, err error) {
	if errors.Is(err, identity.ErrSystem) {
		sm.log.Error("identity resolution failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return
	}
	sm.log.Debug("request not authorized",
		zap.String("path", r.URL.Path),
		zap.String("code", string(identity.AsError(err).Code)))
}
