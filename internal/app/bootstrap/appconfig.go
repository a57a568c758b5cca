// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, body limits); everything
// specific to the LearnHub API lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey    string        // Signing key for the session cookie
	SessionName   string        // Cookie name
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // Lifetime of a server-side session and its cookie

	// URLs
	BaseURL     string // Public URL of this API, used for the OAuth callback
	FrontendURL string // Browser app; reset links and OAuth redirects land here

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Email/SMTP
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Signed one-time proofs
	ResetSecret      string
	ActivationSecret string
	ResetTTL         time.Duration
	ActivationTTL    time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Credential throttling
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration
	ForgotIPLimit    int
	ForgotIPWindow   time.Duration

	// Operation timeouts
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration

	// Background cleanup
	SessionCleanupInterval    time.Duration
	OAuthStateCleanupInterval time.Duration

	// SuperAdmin bootstrap
	SuperAdminEmail string
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
