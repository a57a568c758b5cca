// internal/app/system/identity/register.go
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	accountstore "github.com/dalemusser/learnhub/internal/app/store/accounts"
	"github.com/dalemusser/learnhub/internal/app/system/authutil"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Registration is the result of Register.
type Registration struct {
	Account *models.Account
	// ActivationToken carries the mailed code; Verify needs both.
	ActivationToken string
}

// Register creates a password account and issues an activation token
// embedding a six-digit code, which is mailed to the user.
//
// The account is stored already verified, so it can sign in before the
// code is redeemed.
func (s *Service) Register(ctx context.Context, name, email, password string) (Registration, error) {
	name = s.cleanName(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Registration{}, WithMessage(ErrMissingCredentials, "name, email and password are required")
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return Registration{}, WithMessage(ErrWeakPassword, err.Error())
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Registration{}, systemError("hash password", err)
	}
	created, err := s.accounts.Create(ctx, models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Verified:     true,
	})
	if errors.Is(err, accountstore.ErrDuplicateEmail) {
		return Registration{}, ErrEmailTaken
	}
	if err != nil {
		return Registration{}, systemError("create account", err)
	}

	otp, err := newOTP()
	if err != nil {
		return Registration{}, systemError("generate code", err)
	}
	token, err := s.sign(activationClaims{
		RegisteredClaims: s.registered(s.cfg.ActivationTTL),
		Email:            created.Email,
		OTP:              otp,
	}, s.cfg.ActivationSecret)
	if err != nil {
		return Registration{}, systemError("sign activation token", err)
	}

	if s.mail != nil {
		if err := s.mail.SendActivation(ctx, created.Email, created.Name, otp); err != nil {
			// The account exists; the caller can still redeem a resent code.
			s.log.Error("activation mail failed", zap.String("user_id", created.ID.Hex()), zap.Error(err))
		}
	} else {
		s.log.Debug("no mailer configured, activation code not sent", zap.String("user_id", created.ID.Hex()))
	}

	return Registration{Account: &created, ActivationToken: token}, nil
}

// Verify redeems an activation token together with the mailed code and
// marks the account verified.
func (s *Service) Verify(ctx context.Context, activationToken, otp string) (*models.Account, error) {
	otp = strings.TrimSpace(otp)
	if activationToken == "" || otp == "" {
		return nil, WithMessage(ErrMissingCredentials, "activation token and code are required")
	}

	var claims activationClaims
	if err := s.parse(activationToken, &claims, s.cfg.ActivationSecret); err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(claims.OTP), []byte(otp)) != 1 {
		return nil, ErrInvalidOTP
	}

	a, err := s.accounts.GetByEmail(ctx, claims.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, systemError("find account by email", err)
	}
	if err := s.accounts.SetVerified(ctx, a.ID); err != nil {
		return nil, systemError("mark verified", err)
	}
	a.Verified = true
	return a, nil
}
