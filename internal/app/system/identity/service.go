// internal/app/system/identity/service.go
package identity

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Default lifetimes for the signed proofs issued by the service.
const (
	DefaultResetTTL      = 5 * time.Minute
	DefaultActivationTTL = 5 * time.Minute
)

// Config is built once at startup and passed by value to NewService.
type Config struct {
	// ResetSecret signs password-reset proofs.
	ResetSecret string
	// ActivationSecret signs activation tokens issued at registration.
	ActivationSecret string
	ResetTTL         time.Duration
	ActivationTTL    time.Duration
	// FrontendURL is the base of the reset link mailed to the user.
	FrontendURL string
}

func (c Config) withDefaults() Config {
	if c.ResetTTL <= 0 {
		c.ResetTTL = DefaultResetTTL
	}
	if c.ActivationTTL <= 0 {
		c.ActivationTTL = DefaultActivationTTL
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	return c
}

// Service resolves request identities and runs the login, linking,
// registration and reset flows over the account and session stores.
type Service struct {
	cfg      Config
	accounts AccountStore
	sessions SessionStore
	hasher   Hasher
	mail     Mailer
	log      *zap.Logger
	names    *bluemonday.Policy
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for proof expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the service. mail may be nil, in which case codes and
// links are only logged at debug level.
func NewService(cfg Config, accounts AccountStore, sess SessionStore, hasher Hasher, mail Mailer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cfg:      cfg.withDefaults(),
		accounts: accounts,
		sessions: sess,
		hasher:   hasher,
		mail:     mail,
		log:      logger,
		names:    bluemonday.StrictPolicy(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// cleanName reduces a display name to plain text. Entities are decoded
// before the policy runs so encoded markup is stripped as well, and angle
// brackets that survive as text are dropped.
func (s *Service) cleanName(name string) string {
	plain := html.UnescapeString(s.names.Sanitize(html.UnescapeString(name)))
	plain = nameBrackets.Replace(plain)
	return strings.Join(strings.Fields(plain), " ")
}

var nameBrackets = strings.NewReplacer("<", "", ">", "")

// establish creates a session for the account, first destroying the
// browser's previous session so each browser holds at most one.
func (s *Service) establish(ctx context.Context, a *models.Account, previousSessionID string, via Proof) (Login, error) {
	if previousSessionID != "" {
		if err := s.sessions.Delete(ctx, previousSessionID); err != nil {
			return Login{}, systemError("delete previous session", err)
		}
	}
	id := fromAccount(a, via)
	sess, err := s.sessions.Create(ctx, id.snapshot())
	if err != nil {
		return Login{}, systemError("create session", err)
	}
	return Login{Identity: id, Session: sess, Account: a}, nil
}

// Logout destroys the session. An empty or unknown id is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return systemError("delete session", err)
	}
	return nil
}

// Session loads a live session; ok is false when it is missing or expired.
func (s *Service) Session(ctx context.Context, sessionID string) (sessions.Session, bool, error) {
	if sessionID == "" {
		return sessions.Session{}, false, nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sessions.Session{}, false, nil
	}
	if err != nil {
		return sessions.Session{}, false, systemError("load session", err)
	}
	return sess, true, nil
}

// accountByHex loads an account by hex id. A malformed id is reported as
// mongo.ErrNoDocuments, the same as an id that matches nothing.
func (s *Service) accountByHex(ctx context.Context, hex string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	return s.accounts.GetByID(ctx, oid)
}
