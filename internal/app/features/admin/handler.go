// internal/app/features/admin/handler.go
package admin

import (
	"net/http"

	"github.com/dalemusser/learnhub/internal/app/system/auditlog"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Identity *identity.Service
	AuditLog *auditlog.Logger
	Events   EventReader
	Log      *zap.Logger
}

func NewHandler(svc *identity.Service, audit *auditlog.Logger, events EventReader, logger *zap.Logger) *Handler {
	return &Handler{Identity: svc, AuditLog: audit, Events: events, Log: logger}
}

type usersResponse struct {
	Users []models.Account `json:"users"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type roleResponse struct {
	Message string          `json:"message"`
	User    *models.Account `json:"user"`
}

// ServeUsers lists every account except the caller's.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentIdentity(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list accounts")
	defer cancel()

	users, err := h.Identity.ListAccounts(ctx, actor)
	if err != nil {
		h.Log.Error("list accounts failed", zap.Error(err))
		auth.WriteError(w, err)
		return
	}
	if users == nil {
		users = []models.Account{}
	}
	auth.WriteJSON(w, http.StatusOK, usersResponse{Users: users})
}

// HandleUpdateRole sets the elevated role of the account named in the path.
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentIdentity(r)

	var req roleRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, identity.ErrInvalidRole)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update main role")
	defer cancel()

	target, err := h.Identity.UpdateMainRole(ctx, actor, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.Log.Info("role update rejected",
			zap.String("actor_id", actor.ID),
			zap.String("code", string(identity.AsError(err).Code)))
		auth.WriteError(w, err)
		return
	}

	if actorID, err := primitive.ObjectIDFromHex(actor.ID); err == nil {
		h.AuditLog.MainRoleChanged(ctx, r, actorID, target.ID, req.Role)
	}
	auth.WriteJSON(w, http.StatusOK, roleResponse{Message: "Role Updated", User: target})
}
