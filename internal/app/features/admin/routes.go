// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the account administration router. Every route requires
// authentication; the listings also require the admin role, and the role
// update enforces superadmin in the service.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.Authenticate)

	r.With(auth.RequireAdmin).Get("/users", h.ServeUsers)
	r.With(auth.RequireAdmin).Get("/audit", h.ServeAudit)
	r.Put("/user/{id}", h.HandleUpdateRole)

	return r
}
