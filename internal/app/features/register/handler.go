// internal/app/features/register/handler.go
package register

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dalemusser/learnhub/internal/app/system/auditlog"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves self-service registration and email verification.
type Handler struct {
	Identity *identity.Service
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(svc *identity.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Identity: svc, AuditLog: audit, Log: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message         string `json:"message"`
	ActivationToken string `json:"activationToken"`
}

type verifyRequest struct {
	OTP             otpCode `json:"otp"`
	ActivationToken string `json:"activationToken"`
}

// otpCode accepts the six-digit code as a JSON string or number.
type otpCode string

func (c *otpCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = otpCode(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = otpCode(fmt.Sprintf("%06d", n))
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

// HandleRegister creates the account and mails the activation code.
// The activation token in the response must accompany the code on verify.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, identity.ErrMissingCredentials)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	reg, err := h.Identity.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		h.Log.Debug("registration rejected", zap.String("email", req.Email), zap.Error(err))
		auth.WriteError(w, err)
		return
	}

	h.AuditLog.Registered(ctx, r, reg.Account.ID, reg.Account.Email)
	h.Log.Info("account registered", zap.String("user_id", reg.Account.ID.Hex()))

	auth.WriteJSON(w, http.StatusOK, registerResponse{
		Message:         "Otp send to your mail",
		ActivationToken: reg.ActivationToken,
	})
}

// HandleVerify redeems an activation token and its code.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, identity.ErrInvalidOTP)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "verify activation")
	defer cancel()

	acct, err := h.Identity.Verify(ctx, req.ActivationToken, string(req.OTP))
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	h.AuditLog.Verified(ctx, r, acct.ID)
	auth.WriteJSON(w, http.StatusOK, messageResponse{Message: "User Registered"})
}
