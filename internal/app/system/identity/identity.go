// internal/app/system/identity/identity.go
package identity

import (
	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"github.com/dalemusser/learnhub/internal/domain/models"
)

// Proof names the mechanism that produced an Identity.
type Proof string

const (
	ProofSession   Proof = "session"
	ProofToken     Proof = "token"
	ProofFederated Proof = "federated"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Via   Proof  `json:"-"`
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin
}

func fromAccount(a *models.Account, via Proof) Identity {
	return Identity{
		ID:    a.ID.Hex(),
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
		Via:   via,
	}
}

func (id Identity) snapshot() sessions.Snapshot {
	return sessions.Snapshot{
		UserID: id.ID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   id.Role,
	}
}

// Proofs is everything an inbound request offers as evidence of identity.
// Zero values mean the proof is absent.
type Proofs struct {
	// SessionID is the server-side session id carried by the session cookie.
	SessionID string
	// Token is the legacy bearer token.
	Token string
	// Federated is a principal established earlier in the request pipeline
	// by the provider callback.
	Federated *Identity
}

// Profile is the normalized profile delivered by an external identity provider.
type Profile struct {
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
}

// Login is the outcome of a successful login: who signed in, and the
// session that now represents them.
type Login struct {
	Identity Identity
	Session  sessions.Session
	Account  *models.Account
}
