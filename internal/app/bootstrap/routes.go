// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	adminfeature "github.com/dalemusser/learnhub/internal/app/features/admin"
	authgooglefeature "github.com/dalemusser/learnhub/internal/app/features/authgoogle"
	healthfeature "github.com/dalemusser/learnhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/learnhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/learnhub/internal/app/features/logout"
	passwordfeature "github.com/dalemusser/learnhub/internal/app/features/password"
	profilefeature "github.com/dalemusser/learnhub/internal/app/features/profile"
	registerfeature "github.com/dalemusser/learnhub/internal/app/features/register"
	accountstore "github.com/dalemusser/learnhub/internal/app/store/accounts"
	"github.com/dalemusser/learnhub/internal/app/store/audit"
	"github.com/dalemusser/learnhub/internal/app/store/oauthstate"
	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"github.com/dalemusser/learnhub/internal/app/system/auditlog"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/authutil"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/mailer"
	"github.com/dalemusser/learnhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// LearnHub builds the identity service over the account and session stores,
// installs it as the session manager's resolver, and mounts the JSON API:
// /api/user (credentials, registration, reset, profile), /api/auth/google
// and /api/admin.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.LearnHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	mail := mailer.New(mailer.Config{
		Host:       appCfg.MailSMTPHost,
		Port:       appCfg.MailSMTPPort,
		Username:   appCfg.MailSMTPUser,
		Password:   appCfg.MailSMTPPass,
		From:       appCfg.MailFrom,
		FromName:   appCfg.MailFromName,
		SiteName:   "LearnHub",
		CodeExpiry: appCfg.ActivationTTL,
		LinkExpiry: appCfg.ResetTTL,
	}, logger)

	svc := identity.NewService(identity.Config{
		ResetSecret:      appCfg.ResetSecret,
		ActivationSecret: appCfg.ActivationSecret,
		ResetTTL:         appCfg.ResetTTL,
		ActivationTTL:    appCfg.ActivationTTL,
		FrontendURL:      appCfg.FrontendURL,
	}, accountstore.New(db), sessions.New(db, appCfg.SessionTTL), authutil.Hasher{}, mail, logger)

	// Every authenticated route resolves through the identity service.
	sessionMgr.SetResolver(svc)

	auditStore := audit.New(db)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	loginLimiter := ratelimit.NewCredentialLimiter(
		appCfg.LoginIPLimit, appCfg.LoginIPWindow,
		appCfg.LoginEmailLimit, appCfg.LoginEmailWindow)
	onShutdown(loginLimiter.Close)
	forgotLimiter := ratelimit.New(appCfg.ForgotIPLimit, appCfg.ForgotIPWindow)
	onShutdown(forgotLimiter.Close)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// The browser app runs on its own origin and sends the session cookie.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{strings.TrimRight(appCfg.FrontendURL, "/")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.LearnHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api/user", func(ur chi.Router) {
		loginHandler := loginfeature.NewHandler(svc, sessionMgr, auditLog, loginLimiter, logger)
		ur.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(svc, sessionMgr, auditLog, logger)
		ur.Mount("/logout", logoutfeature.Routes(logoutHandler))

		profileHandler := profilefeature.NewHandler(svc, logger)
		ur.Mount("/me", profilefeature.Routes(profileHandler, sessionMgr))

		registerfeature.MountRoutes(ur, registerfeature.NewHandler(svc, auditLog, logger))
		passwordfeature.MountRoutes(ur, passwordfeature.NewHandler(svc, auditLog, forgotLimiter, logger))
	})

	googleHandler := authgooglefeature.NewHandler(svc, sessionMgr, oauthstate.New(db), auditLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		strings.TrimRight(appCfg.BaseURL, "/")+"/api/auth/google/callback",
		strings.TrimRight(appCfg.FrontendURL, "/"), logger)
	if !appCfg.GoogleEnabled() {
		logger.Info("Google sign-in disabled (no client credentials)")
	}
	r.Mount("/api/auth/google", authgooglefeature.Routes(googleHandler, sessionMgr))

	adminHandler := adminfeature.NewHandler(svc, auditLog, auditStore, logger)
	r.Mount("/api/admin", adminfeature.Routes(adminHandler, sessionMgr))

	return r, nil
}
