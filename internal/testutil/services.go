package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	accountstore "github.com/dalemusser/learnhub/internal/app/store/accounts"
	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/authutil"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TestSessionKey signs session cookies in handler tests.
const TestSessionKey = "test-session-key-for-testing-only-32b"

// Services bundles the identity stack wired over a test database.
type Services struct {
	Accounts   *accountstore.Store
	Sessions   *sessions.Store
	Mail       *RecordingMailer
	Identity   *identity.Service
	SessionMgr *auth.SessionManager
}

// NewServices wires the stores, the identity service and a session manager
// over db, with indexes in place.
func NewServices(t *testing.T, db *mongo.Database) *Services {
	t.Helper()

	ctx, cancel := TestContext()
	defer cancel()

	accts := accountstore.New(db)
	sess := sessions.New(db, sessions.DefaultTTL)
	if err := accts.EnsureIndexes(ctx); err != nil {
		t.Fatalf("account indexes: %v", err)
	}
	if err := sess.EnsureIndexes(ctx); err != nil {
		t.Fatalf("session indexes: %v", err)
	}

	mail := &RecordingMailer{}
	svc := identity.NewService(identity.Config{
		ResetSecret:      "test-reset-secret",
		ActivationSecret: "test-activation-secret",
		FrontendURL:      "http://localhost:5173",
	}, accts, sess, authutil.Hasher{}, mail, zap.NewNop())

	sm, err := auth.NewSessionManager(TestSessionKey, "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	sm.SetResolver(svc)

	return &Services{
		Accounts:   accts,
		Sessions:   sess,
		Mail:       mail,
		Identity:   svc,
		SessionMgr: sm,
	}
}

// RecordingMailer keeps the last code and link sent to each address.
type RecordingMailer struct {
	mu     sync.Mutex
	otps   map[string]string
	resets map[string]string
}

func (m *RecordingMailer) SendActivation(_ context.Context, to, _, otp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.otps == nil {
		m.otps = map[string]string{}
	}
	m.otps[to] = otp
	return nil
}

func (m *RecordingMailer) SendPasswordReset(_ context.Context, to, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resets == nil {
		m.resets = map[string]string{}
	}
	m.resets[to] = resetURL
	return nil
}

// OTP returns the last activation code sent to addr.
func (m *RecordingMailer) OTP(addr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.otps[addr]
}

// ResetLink returns the last reset link sent to addr.
func (m *RecordingMailer) ResetLink(addr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[addr]
}
