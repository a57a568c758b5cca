// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/learnhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when attempting to create an account with an email that already exists.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	// ErrExternalIDTaken is returned when the external identity is already attached to another account.
	ErrExternalIDTaken = errors.New("external identity is bound to another account")
	// ErrAlreadyLinked is returned by LinkExternalID when the account no longer
	// exists or already carries an external identity.
	ErrAlreadyLinked = errors.New("account already has an external identity")

	errBadRole     = errors.New(`role must be "user"|"admin"`)
	errBadMainRole = errors.New(`main role must be "user"|"superadmin"`)
	errNoHash      = errors.New("password hash is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("accounts")}
}

// EnsureIndexes creates the uniqueness constraints the identity core relies on.
//
// external_id uses a partial unique index so any number of accounts may lack
// one while a present value can belong to only one account. Linking relies on
// this index, not on a prior read, to reject concurrent double-binding.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_accounts_email"),
		},
		{
			Keys: bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"external_id": bson.M{"$type": "string"}}).
				SetName("uniq_accounts_external_id"),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_accounts_token"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads an account by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var a models.Account
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail looks up an account by exact email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := s.c.FindOne(ctx, bson.M{"email": strings.TrimSpace(email)}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByExternalID looks up an account by its federated identity.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	var a models.Account
	if err := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByToken looks up an account by its legacy bearer token.
func (s *Store) GetByToken(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, mongo.ErrNoDocuments
	}
	var a models.Account
	if err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account after validating role fields.
// Blank roles default to "user".
func (s *Store) Create(ctx context.Context, a models.Account) (models.Account, error) {
	a.ID = primitive.NewObjectID()
	a.Email = strings.TrimSpace(a.Email)
	a.Name = strings.TrimSpace(a.Name)
	if a.Role == "" {
		a.Role = models.RoleUser
	}
	if a.MainRole == "" {
		a.MainRole = models.MainRoleUser
	}
	if !models.IsValidRole(a.Role) {
		return models.Account{}, errBadRole
	}
	if !models.IsValidMainRole(a.MainRole) {
		return models.Account{}, errBadMainRole
	}
	if a.PasswordHash == "" {
		return models.Account{}, errNoHash
	}
	if a.HasExternalID() {
		a.Federated = true
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			if a.HasExternalID() && strings.Contains(err.Error(), "external_id") {
				return models.Account{}, ErrExternalIDTaken
			}
			return models.Account{}, ErrDuplicateEmail
		}
		return models.Account{}, err
	}
	return a, nil
}

// LinkExternalID attaches externalID to the account as one conditional write.
// The filter only matches while the account has no external identity, and the
// partial unique index rejects an externalID already bound elsewhere.
// avatar is adopted only when non-empty; callers pass "" to keep the current one.
func (s *Store) LinkExternalID(ctx context.Context, id primitive.ObjectID, externalID, avatar string) error {
	set := bson.M{
		"external_id": externalID,
		"federated":   true,
		"updated_at":  time.Now().UTC(),
	}
	if avatar != "" {
		set["avatar"] = avatar
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "external_id": bson.M{"$exists": false}},
		bson.M{"$set": set},
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrExternalIDTaken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyLinked
	}
	return nil
}

// SetVerified marks the account's email as verified.
func (s *Store) SetVerified(ctx context.Context, id primitive.ObjectID) error {
	return s.updateFields(ctx, id, bson.M{"verified": true})
}

// SetResetExpiry stores the secondary expiry guard for a pending password reset.
func (s *Store) SetResetExpiry(ctx context.Context, id primitive.ObjectID, expiresAt time.Time) error {
	return s.updateFields(ctx, id, bson.M{"reset_password_expire": expiresAt.UTC()})
}

// ResetPassword overwrites the password hash and clears the reset expiry.
func (s *Store) ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	if hash == "" {
		return errNoHash
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"reset_password_expire": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetRole changes the authorization role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if !models.IsValidRole(role) {
		return errBadRole
	}
	return s.updateFields(ctx, id, bson.M{"role": role})
}

// SetMainRole changes the elevated role used for role-escalation checks.
func (s *Store) SetMainRole(ctx context.Context, id primitive.ObjectID, mainRole string) error {
	if !models.IsValidMainRole(mainRole) {
		return errBadMainRole
	}
	return s.updateFields(ctx, id, bson.M{"main_role": mainRole})
}

// ListExcept returns every account other than the given one, newest first,
// without password hashes or tokens.
func (s *Store) ListExcept(ctx context.Context, excludeID primitive.ObjectID) ([]models.Account, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"password_hash": 0, "token": 0})

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$ne": excludeID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) updateFields(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
