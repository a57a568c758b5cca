// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devSessionKey       = "dev-only-change-me-please-0123456789ABCDEF"
	devResetSecret      = "dev-only-reset-secret"
	devActivationSecret = "dev-only-activation-secret"
)

// appConfigKeys defines the configuration keys for LearnHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: LEARNHUB_MONGO_URI, LEARNHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "learnhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "learnhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "24h", Desc: "Session lifetime (e.g., 24h, 90m)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public URL of this API (OAuth callback base)"},
	{Name: "frontend_url", Default: "http://localhost:5173", Desc: "Browser app URL for reset links and OAuth redirects"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs mail instead of sending)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@learnhub.dev", Desc: "From email address"},
	{Name: "mail_from_name", Default: "LearnHub", Desc: "From display name"},

	// Signed proofs
	{Name: "reset_secret", Default: devResetSecret, Desc: "Signing secret for password-reset links"},
	{Name: "activation_secret", Default: devActivationSecret, Desc: "Signing secret for activation tokens"},
	{Name: "reset_ttl", Default: "5m", Desc: "Password-reset link lifetime"},
	{Name: "activation_ttl", Default: "5m", Desc: "Activation code lifetime"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Credential throttling
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts allowed per client address per window"},
	{Name: "login_ip_window", Default: "1m", Desc: "Window for login_ip_limit"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts allowed per email per window"},
	{Name: "login_email_window", Default: "5m", Desc: "Window for login_email_limit"},
	{Name: "forgot_ip_limit", Default: 5, Desc: "Password-reset requests allowed per client address per window"},
	{Name: "forgot_ip_window", Default: "15m", Desc: "Window for forgot_ip_limit"},

	// Timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Timeout for health pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single lookups and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for operations that also send mail"},

	// Background cleanup
	{Name: "session_cleanup_interval", Default: "5m", Desc: "How often expired sessions are purged"},
	{Name: "oauth_state_cleanup_interval", Default: "1h", Desc: "How often expired OAuth states are purged"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, LEARNHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LEARNHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionTTL:    appValues.Duration("session_ttl", sessions.DefaultTTL),

		BaseURL:     appValues.String("base_url"),
		FrontendURL: appValues.String("frontend_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		ResetSecret:      appValues.String("reset_secret"),
		ActivationSecret: appValues.String("activation_secret"),
		ResetTTL:         appValues.Duration("reset_ttl", identity.DefaultResetTTL),
		ActivationTTL:    appValues.Duration("activation_ttl", identity.DefaultActivationTTL),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", time.Minute),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginEmailWindow: appValues.Duration("login_email_window", 5*time.Minute),
		ForgotIPLimit:    appValues.Int("forgot_ip_limit"),
		ForgotIPWindow:   appValues.Duration("forgot_ip_window", 15*time.Minute),

		TimeoutPing:   appValues.Duration("timeout_ping", 2*time.Second),
		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),

		SessionCleanupInterval:    appValues.Duration("session_cleanup_interval", 5*time.Minute),
		OAuthStateCleanupInterval: appValues.Duration("oauth_state_cleanup_interval", time.Hour),

		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before connecting. In production the
// development signing secrets are refused, and Google credentials must come
// as a pair.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	var problems []error

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		problems = append(problems, errors.New("google_client_id and google_client_secret must be set together"))
	}
	if _, err := url.ParseRequestURI(appCfg.FrontendURL); err != nil {
		problems = append(problems, fmt.Errorf("frontend_url: %w", err))
	}
	if _, err := url.ParseRequestURI(appCfg.BaseURL); err != nil {
		problems = append(problems, fmt.Errorf("base_url: %w", err))
	}
	if appCfg.SessionTTL <= 0 {
		problems = append(problems, errors.New("session_ttl must be positive"))
	}
	if appCfg.LoginIPLimit <= 0 || appCfg.LoginEmailLimit <= 0 || appCfg.ForgotIPLimit <= 0 {
		problems = append(problems, errors.New("rate limits must be positive"))
	}

	if coreCfg.Env == "prod" {
		if appCfg.SessionKey == "" || appCfg.SessionKey == devSessionKey {
			problems = append(problems, errors.New("session_key must be set in production"))
		}
		if appCfg.ResetSecret == "" || appCfg.ResetSecret == devResetSecret {
			problems = append(problems, errors.New("reset_secret must be set in production"))
		}
		if appCfg.ActivationSecret == "" || appCfg.ActivationSecret == devActivationSecret {
			problems = append(problems, errors.New("activation_secret must be set in production"))
		}
	}

	if err := errors.Join(problems...); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}
