// internal/app/system/identity/accounts.go
package identity

import (
	"context"
	"errors"

	"github.com/dalemusser/learnhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Profile returns the caller's stored account.
func (s *Service) Profile(ctx context.Context, id Identity) (*models.Account, error) {
	if id.ID == "" {
		return nil, ErrAuthRequired
	}
	a, err := s.accountByHex(ctx, id.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, systemError("load profile", err)
	}
	return a, nil
}

// ListAccounts returns every account except the caller's. Admins only.
func (s *Service) ListAccounts(ctx context.Context, actor Identity) ([]models.Account, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(actor.ID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	list, err := s.accounts.ListExcept(ctx, oid)
	if err != nil {
		return nil, systemError("list accounts", err)
	}
	return list, nil
}

// UpdateMainRole sets another account's elevated role. Only a superadmin
// may do this.
func (s *Service) UpdateMainRole(ctx context.Context, actor Identity, targetID, mainRole string) (*models.Account, error) {
	if _, err := s.RequireSuperAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if !models.IsValidMainRole(mainRole) {
		return nil, ErrInvalidRole
	}

	target, err := s.accountByHex(ctx, targetID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, systemError("load target", err)
	}
	if err := s.accounts.SetMainRole(ctx, target.ID, mainRole); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, systemError("set main role", err)
	}
	target.MainRole = mainRole
	return target, nil
}
