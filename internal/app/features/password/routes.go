// internal/app/features/password/routes.go
package password

import "github.com/go-chi/chi/v5"

// MountRoutes registers the public password-reset endpoints.
func MountRoutes(r chi.Router, h *Handler) {
	r.With(h.Limiter.PerIP).Post("/forgot", h.HandleForgot)
	r.Post("/reset", h.HandleReset)
}
