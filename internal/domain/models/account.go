// internal/domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles used for authorization checks.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Elevated roles, only consulted for role-escalation actions.
const (
	MainRoleUser       = "user"
	MainRoleSuperAdmin = "superadmin"
)

// Account represents a registered learner or administrator.
//
// NOTE:
//   - Email is unique and compared exactly as stored.
//   - ExternalID is the federated (Google) subject. Once set it is never cleared,
//     and a partial unique index keeps it bound to at most one account.
//   - PasswordHash is always present. Federated sign-ups receive a random
//     placeholder hash that no password can match.
type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	Role     string `bson:"role" json:"role"`         // user | admin
	MainRole string `bson:"main_role" json:"mainrole"` // user | superadmin

	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`

	// Token is the legacy bearer token. It has no expiry.
	Token *string `bson:"token,omitempty" json:"-"`

	Verified bool `bson:"verified" json:"is_verified"`

	ExternalID *string `bson:"external_id,omitempty" json:"-"`
	Federated  bool    `bson:"federated" json:"is_google_user"`

	ResetPasswordExpire *time.Time `bson:"reset_password_expire,omitempty" json:"-"`

	Subscriptions         []primitive.ObjectID `bson:"subscriptions,omitempty" json:"subscription"`
	WorkshopSubscriptions []primitive.ObjectID `bson:"workshop_subscriptions,omitempty" json:"workshop_subscription"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasExternalID reports whether a federated identity is attached.
func (a *Account) HasExternalID() bool {
	return a.ExternalID != nil && *a.ExternalID != ""
}

// IsValidRole checks if a value is a valid authorization role.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// IsValidMainRole checks if a value is a valid elevated role.
func IsValidMainRole(role string) bool {
	return role == MainRoleUser || role == MainRoleSuperAdmin
}
