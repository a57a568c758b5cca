// internal/app/system/identity/resolver.go
package identity

import (
	"context"
	"errors"

	"github.com/dalemusser/learnhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Resolve determines who is calling. Proofs are tried in a fixed order and
// the first one present decides the outcome:
//
//  1. session: the stored account named by the session snapshot, projected
//     from its current state. A snapshot whose account is gone fails with
//     ACCOUNT_NOT_FOUND.
//  2. token: the account holding the legacy token, else INVALID_TOKEN.
//  3. federated: a principal already established by the provider callback.
//
// With no proof present Resolve fails with AUTH_REQUIRED. Store failures
// surface as AUTH_SYSTEM_ERROR.
func (s *Service) Resolve(ctx context.Context, p Proofs) (Identity, error) {
	sess, ok, err := s.Session(ctx, p.SessionID)
	if err != nil {
		return Identity{}, err
	}
	if ok && sess.User != nil {
		a, err := s.accountByHex(ctx, sess.User.UserID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Info("session references missing account",
				zap.String("user_id", sess.User.UserID))
			return Identity{}, ErrAccountNotFound
		}
		if err != nil {
			return Identity{}, systemError("load session account", err)
		}
		return fromAccount(a, ProofSession), nil
	}

	if p.Token != "" {
		a, err := s.accounts.GetByToken(ctx, p.Token)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Identity{}, ErrInvalidToken
		}
		if err != nil {
			return Identity{}, systemError("load token account", err)
		}
		return fromAccount(a, ProofToken), nil
	}

	if p.Federated != nil && p.Federated.ID != "" {
		id := *p.Federated
		id.Via = ProofFederated
		return id, nil
	}

	return Identity{}, ErrAuthRequired
}

// RequireAdmin allows only identities whose role is admin.
func RequireAdmin(id Identity) error {
	if id.ID == "" {
		return ErrAuthRequired
	}
	if !id.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// RequireSuperAdmin checks the caller's stored elevated role. The elevated
// role is never carried in the session snapshot, so it is always read fresh.
func (s *Service) RequireSuperAdmin(ctx context.Context, id Identity) (*models.Account, error) {
	if id.ID == "" {
		return nil, ErrAuthRequired
	}
	a, err := s.accountByHex(ctx, id.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, systemError("load actor", err)
	}
	if a.MainRole != models.MainRoleSuperAdmin {
		return nil, ErrSuperAdminRequired
	}
	return a, nil
}
