// internal/app/features/password/handler.go
package password

import (
	"errors"
	"net/http"

	"github.com/dalemusser/learnhub/internal/app/system/auditlog"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/ratelimit"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Identity *identity.Service
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.Limiter // per-address budget for /forgot
	Log      *zap.Logger
}

func NewHandler(svc *identity.Service, audit *auditlog.Logger, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{Identity: svc, AuditLog: audit, Limiter: limiter, Log: logger}
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/user/forgot                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleForgot mails a reset link when the email belongs to an account.
func (h *Handler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, identity.ErrMissingCredentials)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "forgot password")
	defer cancel()

	if _, err := h.Identity.ForgotPassword(ctx, req.Email); err != nil {
		if errors.Is(err, identity.ErrSystem) {
			h.Log.Error("forgot password failed", zap.Error(err))
		}
		auth.WriteError(w, err)
		return
	}

	h.AuditLog.PasswordResetRequested(ctx, r, req.Email)
	auth.WriteJSON(w, http.StatusOK, messageResponse{Message: "Reset Password Link is send to you mail"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/user/reset?token=…                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleReset redeems the reset proof from the query string.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, identity.ErrMissingCredentials)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reset password")
	defer cancel()

	userID, err := h.Identity.ResetPassword(ctx, query.Get(r, "token"), req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrSystem) {
			h.Log.Error("password reset failed", zap.Error(err))
		}
		auth.WriteError(w, err)
		return
	}

	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		h.AuditLog.PasswordReset(ctx, r, oid)
	}
	h.Log.Info("password reset", zap.String("user_id", userID))
	auth.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password Reset"})
}
