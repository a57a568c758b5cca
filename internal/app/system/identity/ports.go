// internal/app/system/identity/ports.go
package identity

import (
	"context"
	"time"

	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountStore is the account persistence the service needs.
// Lookups report a missing account as mongo.ErrNoDocuments.
// *accountstore.Store satisfies it.
type AccountStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Account, error)
	GetByToken(ctx context.Context, token string) (*models.Account, error)
	Create(ctx context.Context, a models.Account) (models.Account, error)
	LinkExternalID(ctx context.Context, id primitive.ObjectID, externalID, avatar string) error
	SetVerified(ctx context.Context, id primitive.ObjectID) error
	SetResetExpiry(ctx context.Context, id primitive.ObjectID, expiresAt time.Time) error
	ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetMainRole(ctx context.Context, id primitive.ObjectID, mainRole string) error
	ListExcept(ctx context.Context, excludeID primitive.ObjectID) ([]models.Account, error)
}

// SessionStore persists sessions. Get reports a missing or expired session
// as mongo.ErrNoDocuments. *sessions.Store satisfies it.
type SessionStore interface {
	Create(ctx context.Context, snap sessions.Snapshot) (sessions.Session, error)
	Get(ctx context.Context, id string) (sessions.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Hasher hashes and compares passwords. authutil.Hasher satisfies it.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
	Placeholder() (string, error)
}

// Mailer delivers out-of-band codes and links. *mailer.Mailer satisfies it.
type Mailer interface {
	SendActivation(ctx context.Context, to, name, otp string) error
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}
