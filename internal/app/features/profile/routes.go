// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts GET /me behind authentication.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.Authenticate)
	r.Get("/", h.ServeMe)
	return r
}
