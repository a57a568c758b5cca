// internal/app/system/identity/federated.go
package identity

import (
	"context"
	"errors"
	"strings"

	accountstore "github.com/dalemusser/learnhub/internal/app/store/accounts"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// FederatedOutcome says what FederatedLogin did to the account.
type FederatedOutcome string

const (
	FederatedCreated  FederatedOutcome = "created"
	FederatedLinked   FederatedOutcome = "linked"
	FederatedExisting FederatedOutcome = "existing"
)

// FederatedLogin signs in the owner of a provider-verified profile.
//
// The account is matched by email. A missing account is created verified,
// with the external id attached and an unusable placeholder password. An
// account without an external id gets this one attached, adopting the
// avatar if it has none. An account already carrying this external id is
// left untouched. An external id bound to another account, or an account
// bound to another external id, fails with IDENTITY_CONFLICT and nothing is
// written. Linking is a single conditional store write; the unique index
// on the external id decides races.
func (s *Service) FederatedLogin(ctx context.Context, p Profile, previousSessionID string) (Login, FederatedOutcome, error) {
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	p.Email = strings.TrimSpace(p.Email)
	if p.ExternalID == "" || p.Email == "" {
		return Login{}, "", WithMessage(ErrMissingCredentials, "provider profile has no id or email")
	}

	a, outcome, err := s.federatedAccount(ctx, p)
	if err != nil {
		return Login{}, "", err
	}

	login, err := s.establish(ctx, a, previousSessionID, ProofFederated)
	if err != nil {
		return Login{}, "", err
	}
	s.log.Debug("federated login",
		zap.String("user_id", login.Identity.ID),
		zap.String("outcome", string(outcome)))
	return login, outcome, nil
}

func (s *Service) federatedAccount(ctx context.Context, p Profile) (*models.Account, FederatedOutcome, error) {
	a, err := s.accounts.GetByEmail(ctx, p.Email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := s.createFederated(ctx, p)
		if errors.Is(err, accountstore.ErrDuplicateEmail) {
			// Another request created the account first; continue as a link.
			a, err = s.accounts.GetByEmail(ctx, p.Email)
			if err != nil {
				return nil, "", systemError("reload account", err)
			}
			return s.linkFederated(ctx, a, p)
		}
		if err != nil {
			return nil, "", err
		}
		return created, FederatedCreated, nil
	case err != nil:
		return nil, "", systemError("find account by email", err)
	}
	return s.linkFederated(ctx, a, p)
}

func (s *Service) createFederated(ctx context.Context, p Profile) (*models.Account, error) {
	hash, err := s.hasher.Placeholder()
	if err != nil {
		return nil, systemError("placeholder hash", err)
	}
	ext := p.ExternalID
	name := s.cleanName(p.Name)
	if name == "" {
		name = p.Email
	}
	created, err := s.accounts.Create(ctx, models.Account{
		Name:         name,
		Email:        p.Email,
		PasswordHash: hash,
		Avatar:       p.AvatarURL,
		Verified:     true,
		ExternalID:   &ext,
		Federated:    true,
	})
	switch {
	case errors.Is(err, accountstore.ErrDuplicateEmail):
		return nil, err
	case errors.Is(err, accountstore.ErrExternalIDTaken):
		s.log.Warn("federated sign-up rejected, external id bound to another account",
			zap.String("email", p.Email))
		return nil, ErrIdentityConflict
	case err != nil:
		return nil, systemError("create account", err)
	}
	return &created, nil
}

func (s *Service) linkFederated(ctx context.Context, a *models.Account, p Profile) (*models.Account, FederatedOutcome, error) {
	if a.HasExternalID() {
		if *a.ExternalID == p.ExternalID {
			return a, FederatedExisting, nil
		}
		// Refused rather than signing the email owner in unchanged under another provider id.
		s.log.Warn("federated login rejected, account bound to a different external id",
			zap.String("user_id", a.ID.Hex()))
		return nil, "", ErrIdentityConflict
	}

	owner, err := s.accounts.GetByExternalID(ctx, p.ExternalID)
	switch {
	case err == nil && owner.ID != a.ID:
		s.log.Warn("link rejected, external id bound to another account",
			zap.String("user_id", a.ID.Hex()),
			zap.String("owner_id", owner.ID.Hex()))
		return nil, "", ErrIdentityConflict
	case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
		return nil, "", systemError("find account by external id", err)
	}

	avatar := ""
	if a.Avatar == "" {
		avatar = p.AvatarURL
	}
	err = s.accounts.LinkExternalID(ctx, a.ID, p.ExternalID, avatar)
	switch {
	case errors.Is(err, accountstore.ErrExternalIDTaken):
		// Bound by a concurrent request after the lookup above.
		s.log.Warn("link rejected, external id bound to another account",
			zap.String("user_id", a.ID.Hex()))
		return nil, "", ErrIdentityConflict
	case errors.Is(err, accountstore.ErrAlreadyLinked):
		// Lost a race with a concurrent link; accept it only if it bound the same id.
		fresh, gerr := s.accounts.GetByID(ctx, a.ID)
		if gerr != nil {
			return nil, "", systemError("reload account", gerr)
		}
		if fresh.HasExternalID() && *fresh.ExternalID == p.ExternalID {
			return fresh, FederatedExisting, nil
		}
		return nil, "", ErrIdentityConflict
	case err != nil:
		return nil, "", systemError("link external id", err)
	}

	ext := p.ExternalID
	a.ExternalID = &ext
	a.Federated = true
	if avatar != "" {
		a.Avatar = avatar
	}
	return a, FederatedLinked, nil
}
