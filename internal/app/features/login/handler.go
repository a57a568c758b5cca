// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/learnhub/internal/app/system/auditlog"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/ratelimit"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Identity   *identity.Service
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.CredentialLimiter
	Log        *zap.Logger
}

func NewHandler(svc *identity.Service, sessionMgr *auth.SessionManager, audit *auditlog.Logger, limiter *ratelimit.CredentialLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Identity:   svc,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	User      identity.Identity `json:"user"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/user/login                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogin verifies email and password, rotates the browser's session
// and answers with the signed-in user.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, identity.ErrMissingCredentials)
		return
	}

	if err := h.Limiter.Check(r, req.Email); err != nil {
		h.Log.Warn("login throttled", zap.String("email", req.Email), zap.String("ip", ratelimit.ClientIP(r)))
		auth.WriteError(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	login, err := h.Identity.Login(ctx, req.Email, req.Password, h.SessionMgr.SessionID(r))
	if err != nil {
		h.auditFailure(ctx, r, req.Email, login, err)
		auth.WriteError(w, err)
		return
	}

	if err := h.SessionMgr.SetSessionID(w, r, login.Session.ID); err != nil {
		h.Log.Error("save session cookie failed", zap.Error(err), zap.String("user_id", login.Identity.ID))
		auth.WriteError(w, identity.ErrSystem)
		return
	}

	h.Limiter.Succeeded(req.Email)
	h.AuditLog.LoginSuccess(ctx, r, login.Account.ID, "password", login.Identity.Email)
	h.Log.Info("user logged in", zap.String("user_id", login.Identity.ID))

	auth.WriteJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Message:   "Welcome back " + login.Identity.Name,
		User:      login.Identity,
		ExpiresAt: login.Session.ExpiresAt,
	})
}

func (h *Handler) auditFailure(ctx context.Context, r *http.Request, email string, login identity.Login, err error) {
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
	case errors.Is(err, identity.ErrInvalidCredentials) && login.Account != nil:
		h.AuditLog.LoginFailedWrongPassword(ctx, r, login.Account.ID, email)
	case errors.Is(err, identity.ErrSystem):
		h.Log.Error("login failed", zap.Error(err))
	}
}
