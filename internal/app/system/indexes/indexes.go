// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	accountstore "github.com/dalemusser/learnhub/internal/app/store/accounts"
	"github.com/dalemusser/learnhub/internal/app/store/audit"
	"github.com/dalemusser/learnhub/internal/app/store/oauthstate"
	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"go.mongodb.org/mongo-driver/mongo"
)

type ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

/*
EnsureAll is called at startup. Each store's EnsureIndexes is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		name string
		s    ensurer
	}{
		{"accounts", accountstore.New(db)},
		{"sessions", sessions.New(db, 0)},
		{"oauth_states", oauthstate.New(db)},
		{"audit_events", audit.New(db)},
	}

	var problems []string
	for _, set := range sets {
		if err := set.s.EnsureIndexes(ctx); err != nil {
			problems = append(problems, set.name+": "+describe(err))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// describe adds a hint for the two failures an operator can act on.
func describe(err error) string {
	s := err.Error()
	switch {
	case isDuplicateKeyErr(err):
		// A unique index cannot be built over existing duplicates.
		return s + " (existing documents violate a unique index; deduplicate before restarting)"
	case strings.Contains(s, "IndexOptionsConflict") || strings.Contains(s, "IndexKeySpecsConflict"):
		return s + " (an index with the same keys exists with different options; drop it and restart)"
	}
	return s
}

func isDuplicateKeyErr(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}
