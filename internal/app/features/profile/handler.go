// internal/app/features/profile/handler.go
package profile

import (
	"net/http"

	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Identity *identity.Service
	Log      *zap.Logger
}

func NewHandler(svc *identity.Service, logger *zap.Logger) *Handler {
	return &Handler{Identity: svc, Log: logger}
}

type profileResponse struct {
	User *models.Account `json:"user"`
}

// ServeMe returns the caller's stored account. Hashes, tokens and reset
// state are never serialized.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		auth.WriteError(w, identity.ErrAuthRequired)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load profile")
	defer cancel()

	acct, err := h.Identity.Profile(ctx, id)
	if err != nil {
		h.Log.Debug("profile lookup failed", zap.String("user_id", id.ID), zap.Error(err))
		auth.WriteError(w, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, profileResponse{User: acct})
}
