// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"strings"

	accountstore "github.com/dalemusser/learnhub/internal/app/store/accounts"
	"github.com/dalemusser/learnhub/internal/app/store/oauthstate"
	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"github.com/dalemusser/learnhub/internal/app/system/authutil"
	"github.com/dalemusser/learnhub/internal/app/system/tasks"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after the database is connected and
// the schema is in place, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})

	if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
		logger.Error("superadmin bootstrap failed", zap.Error(err))
		return err
	}

	db := deps.LearnHubMongoDatabase
	runner := tasks.NewRunner(logger,
		tasks.ExpiredSessionCleanupJob(sessions.New(db, appCfg.SessionTTL), logger, appCfg.SessionCleanupInterval),
		tasks.OAuthStateCleanupJob(oauthstate.New(db), logger, appCfg.OAuthStateCleanupInterval),
	)
	runner.Start()
	onShutdown(runner.Stop)

	return nil
}

// ensureSuperAdmin makes the configured email a superadmin. An existing
// account is promoted in place. A missing one is created with an unusable
// password; its owner gets in through Google or a password reset.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	accounts := accountstore.New(deps.LearnHubMongoDatabase)

	acct, err := accounts.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		hash, err := authutil.PlaceholderHash()
		if err != nil {
			return err
		}
		created, err := accounts.Create(ctx, models.Account{
			Name:         "Super Admin",
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			MainRole:     models.MainRoleSuperAdmin,
			Verified:     true,
		})
		if err != nil {
			return err
		}
		logger.Info("created superadmin account",
			zap.String("email", email),
			zap.String("user_id", created.ID.Hex()))
		return nil
	}
	if err != nil {
		return err
	}

	if acct.Role != models.RoleAdmin {
		if err := accounts.SetRole(ctx, acct.ID, models.RoleAdmin); err != nil {
			return err
		}
	}
	if acct.MainRole != models.MainRoleSuperAdmin {
		if err := accounts.SetMainRole(ctx, acct.ID, models.MainRoleSuperAdmin); err != nil {
			return err
		}
		logger.Info("promoted account to superadmin",
			zap.String("email", email),
			zap.String("user_id", acct.ID.Hex()))
	}
	return nil
}
