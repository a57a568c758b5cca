// internal/app/system/identity/credentials.go
package identity

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Login signs in with email and password.
//
// An unknown email fails with USER_NOT_FOUND and a wrong password with
// INVALID_CREDENTIALS; the two are deliberately distinct. The password is
// compared against the stored bcrypt hash in constant time.
func (s *Service) Login(ctx context.Context, email, password, previousSessionID string) (Login, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Login{}, ErrMissingCredentials
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Login{}, ErrUserNotFound
	}
	if err != nil {
		return Login{}, systemError("find account by email", err)
	}

	if !s.hasher.Compare(a.PasswordHash, password) {
		s.log.Debug("password mismatch", zap.String("user_id", a.ID.Hex()))
		// The account is returned so callers can audit the failed attempt.
		return Login{Account: a}, ErrInvalidCredentials
	}

	return s.establish(ctx, a, previousSessionID, ProofSession)
}
