package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/learnhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateAccount inserts a password account with the given role.
// The hash uses bcrypt's minimum cost to keep tests fast.
func (f *Fixtures) CreateAccount(ctx context.Context, name, email, password, role string) models.Account {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	acct := models.Account{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		MainRole:     models.MainRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("accounts").InsertOne(ctx, acct); err != nil {
		f.t.Fatalf("failed to create test account: %v", err)
	}
	return acct
}

// CreateUser creates a test account with the "user" role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, password string) models.Account {
	f.t.Helper()
	return f.CreateAccount(ctx, name, email, password, models.RoleUser)
}

// CreateAdmin creates a test account with the "admin" role.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email, password string) models.Account {
	f.t.Helper()
	return f.CreateAccount(ctx, name, email, password, models.RoleAdmin)
}
