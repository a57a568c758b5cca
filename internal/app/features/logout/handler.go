// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/learnhub/internal/app/system/auditlog"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Identity   *identity.Service
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(svc *identity.Service, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Identity:   svc,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Log:        logger,
	}
}

// HandleLogout destroys the server-side session and expires the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
	defer cancel()

	sid := h.SessionMgr.SessionID(r)
	sess, ok, err := h.Identity.Session(ctx, sid)
	if err != nil {
		h.Log.Warn("logout: session lookup failed", zap.Error(err))
	}
	if err := h.Identity.Logout(ctx, sid); err != nil {
		h.Log.Error("logout: destroy session failed", zap.Error(err))
		auth.WriteError(w, err)
		return
	}
	if ok && sess.User != nil {
		h.AuditLog.Logout(ctx, r, sess.User.UserID)
	}

	if err := h.SessionMgr.Clear(w, r); err != nil {
		h.Log.Warn("logout: clear cookie failed", zap.Error(err))
	}

	auth.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}
