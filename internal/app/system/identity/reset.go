// internal/app/system/identity/reset.go
package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/dalemusser/learnhub/internal/app/system/authutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ForgotPassword issues a signed reset proof for the account with this
// email, records the matching expiry on the account and mails the link.
// An unknown email fails with USER_NOT_FOUND and nothing is issued.
// The proof is returned for callers that deliver it themselves.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", WithMessage(ErrMissingCredentials, "email is required")
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", systemError("find account by email", err)
	}

	claims := resetClaims{RegisteredClaims: s.registered(s.cfg.ResetTTL), Email: a.Email}
	proof, err := s.sign(claims, s.cfg.ResetSecret)
	if err != nil {
		return "", systemError("sign reset proof", err)
	}
	if err := s.accounts.SetResetExpiry(ctx, a.ID, claims.ExpiresAt.Time); err != nil {
		return "", systemError("store reset expiry", err)
	}

	link := s.cfg.FrontendURL + "/reset-password?token=" + url.QueryEscape(proof)
	if s.mail == nil {
		s.log.Debug("no mailer configured, reset link not sent", zap.String("user_id", a.ID.Hex()))
		return proof, nil
	}
	if err := s.mail.SendPasswordReset(ctx, a.Email, a.Name, link); err != nil {
		return "", systemError("send reset mail", err)
	}
	return proof, nil
}

// ResetPassword redeems a reset proof. It fails with TOKEN_EXPIRED when the
// proof has lapsed, when the account's stored expiry has lapsed, or when no
// expiry is stored. On success the hash is replaced and the expiry cleared,
// so a proof can be redeemed once, and every session of the account is
// revoked.
func (s *Service) ResetPassword(ctx context.Context, proof, password string) (string, error) {
	if password == "" {
		return "", WithMessage(ErrMissingCredentials, "password is required")
	}

	var claims resetClaims
	if err := s.parse(proof, &claims, s.cfg.ResetSecret); err != nil {
		return "", err
	}

	a, err := s.accounts.GetByEmail(ctx, claims.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", systemError("find account by email", err)
	}

	if a.ResetPasswordExpire == nil || !s.now().Before(*a.ResetPasswordExpire) {
		return "", ErrTokenExpired
	}

	if err := authutil.ValidatePassword(password); err != nil {
		return "", WithMessage(ErrWeakPassword, err.Error())
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", systemError("hash password", err)
	}
	if err := s.accounts.ResetPassword(ctx, a.ID, hash); err != nil {
		return "", systemError("store password", err)
	}

	// The password has changed; a revocation failure leaves sessions to expire.
	revoked, err := s.sessions.DeleteByUser(ctx, a.ID.Hex())
	if err != nil {
		s.log.Error("revoke sessions after password reset failed",
			zap.String("user_id", a.ID.Hex()), zap.Error(err))
	} else {
		s.log.Debug("sessions revoked after password reset",
			zap.String("user_id", a.ID.Hex()), zap.Int64("count", revoked))
	}
	return a.ID.Hex(), nil
}
