// internal/app/features/authgoogle/routes.go
package authgoogle

import (
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for Google OAuth endpoints.
// These routes are public (no authentication required).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// GET /api/auth/google - Initiate Google OAuth flow
	r.Get("/", h.ServeLogin)

	// GET /api/auth/google/callback - Handle Google OAuth callback
	r.With(h.Federate, sm.Authenticate).Get("/callback", h.ServeCallback)

	return r
}
