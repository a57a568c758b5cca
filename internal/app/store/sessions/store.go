// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultTTL is how long a session lives after it is established.
const DefaultTTL = 24 * time.Hour

// Snapshot is the account identity captured when the session was established.
// Only UserID is trusted on later requests; the rest is informational.
type Snapshot struct {
	UserID string `bson:"user_id"`
	Email  string `bson:"email"`
	Name   string `bson:"name"`
	Role   string `bson:"role"`
}

// Session is the server-side payload correlated with the session cookie.
type Session struct {
	ID        string    `bson:"_id"`
	User      *Snapshot `bson:"user,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Store persists sessions in MongoDB with TTL expiry.
type Store struct {
	c   *mongo.Collection
	ttl time.Duration
}

// New creates a sessions Store. If ttl is 0 or negative, DefaultTTL is used.
func New(db *mongo.Database, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{c: db.Collection("sessions"), ttl: ttl}
}

// EnsureIndexes creates the TTL index and the per-user lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_sessions_ttl"),
		},
		{
			Keys:    bson.D{{Key: "user.user_id", Value: 1}},
			Options: options.Index().SetName("idx_sessions_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create stores a new session for the snapshot and returns it.
func (s *Store) Create(ctx context.Context, snap Snapshot) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		User:      &snap,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get loads a live session. Expired sessions are reported as
// mongo.ErrNoDocuments even before the TTL monitor removes them.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{
		"_id":        id,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&sess)
	return sess, err
}

// Delete destroys a session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByUser destroys every session belonging to a user and reports
// how many were removed.
func (s *Store) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user.user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CleanupExpired removes expired sessions.
// This is a backup for when TTL index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lte": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
