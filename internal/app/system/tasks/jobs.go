// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/learnhub/internal/app/store/oauthstate"
	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"go.uber.org/zap"
)

// ExpiredSessionCleanupJob deletes sessions past their expiry.
// Backs up the TTL index, whose monitor only runs about once a minute.
func ExpiredSessionCleanupJob(sessStore *sessions.Store, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "expired-session-cleanup",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := sessStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("removed expired sessions", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob removes expired OAuth state tokens.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}
