package identity_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	accountstore "github.com/dalemusser/learnhub/internal/app/store/accounts"
	"github.com/dalemusser/learnhub/internal/app/store/sessions"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// fakeAccounts mirrors the Mongo account store: unique email, unique
// external id, and a conditional link that only matches unlinked accounts.
type fakeAccounts struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]models.Account
	writes int
	links  int
	fail   error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[primitive.ObjectID]models.Account{}}
}

func (f *fakeAccounts) find(match func(models.Account) bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	for _, a := range f.byID {
		if match(a) {
			c := a
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeAccounts) GetByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	return f.find(func(a models.Account) bool { return a.ID == id })
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	return f.find(func(a models.Account) bool { return a.Email == email })
}

func (f *fakeAccounts) GetByExternalID(_ context.Context, externalID string) (*models.Account, error) {
	return f.find(func(a models.Account) bool { return a.ExternalID != nil && *a.ExternalID == externalID })
}

func (f *fakeAccounts) GetByToken(_ context.Context, token string) (*models.Account, error) {
	return f.find(func(a models.Account) bool { return a.Token != nil && *a.Token == token })
}

func (f *fakeAccounts) Create(_ context.Context, a models.Account) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return models.Account{}, f.fail
	}
	for _, other := range f.byID {
		if other.Email == a.Email {
			return models.Account{}, accountstore.ErrDuplicateEmail
		}
		if a.HasExternalID() && other.HasExternalID() && *other.ExternalID == *a.ExternalID {
			return models.Account{}, accountstore.ErrExternalIDTaken
		}
	}
	a.ID = primitive.NewObjectID()
	if a.Role == "" {
		a.Role = models.RoleUser
	}
	if a.MainRole == "" {
		a.MainRole = models.MainRoleUser
	}
	f.byID[a.ID] = a
	f.writes++
	return a, nil
}

func (f *fakeAccounts) LinkExternalID(_ context.Context, id primitive.ObjectID, externalID, avatar string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links++
	for oid, other := range f.byID {
		if oid != id && other.HasExternalID() && *other.ExternalID == externalID {
			return accountstore.ErrExternalIDTaken
		}
	}
	a, ok := f.byID[id]
	if !ok || a.HasExternalID() {
		return accountstore.ErrAlreadyLinked
	}
	ext := externalID
	a.ExternalID = &ext
	a.Federated = true
	if avatar != "" {
		a.Avatar = avatar
	}
	f.byID[id] = a
	f.writes++
	return nil
}

func (f *fakeAccounts) update(id primitive.ObjectID, fn func(*models.Account)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	fn(&a)
	f.byID[id] = a
	f.writes++
	return nil
}

func (f *fakeAccounts) SetVerified(_ context.Context, id primitive.ObjectID) error {
	return f.update(id, func(a *models.Account) { a.Verified = true })
}

func (f *fakeAccounts) SetResetExpiry(_ context.Context, id primitive.ObjectID, t time.Time) error {
	return f.update(id, func(a *models.Account) { a.ResetPasswordExpire = &t })
}

func (f *fakeAccounts) ResetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return f.update(id, func(a *models.Account) {
		a.PasswordHash = hash
		a.ResetPasswordExpire = nil
	})
}

func (f *fakeAccounts) SetMainRole(_ context.Context, id primitive.ObjectID, role string) error {
	return f.update(id, func(a *models.Account) { a.MainRole = role })
}

func (f *fakeAccounts) setRole(id primitive.ObjectID, role string) error {
	return f.update(id, func(a *models.Account) { a.Role = role })
}

func (f *fakeAccounts) ListExcept(_ context.Context, exclude primitive.ObjectID) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Account
	for id, a := range f.byID {
		if id != exclude {
			a.PasswordHash = ""
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakeAccounts) linkAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links
}

func (f *fakeAccounts) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeAccounts) put(t *testing.T, a models.Account) models.Account {
	t.Helper()
	if a.PasswordHash == "" {
		a.PasswordHash = "hashed:secret1"
	}
	created, err := f.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return created
}

// fakeSessions is an in-memory session store that honors expiry.
type fakeSessions struct {
	mu   sync.Mutex
	m    map[string]sessions.Session
	now  func() time.Time
	ttl  time.Duration
	fail error
}

func newFakeSessions(now func() time.Time) *fakeSessions {
	return &fakeSessions{m: map[string]sessions.Session{}, now: now, ttl: sessions.DefaultTTL}
}

func (f *fakeSessions) Create(_ context.Context, snap sessions.Snapshot) (sessions.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	s := sessions.Session{ID: uuid.NewString(), User: &snap, CreatedAt: now, ExpiresAt: now.Add(f.ttl)}
	f.m[s.ID] = s
	return s, nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (sessions.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return sessions.Session{}, f.fail
	}
	s, ok := f.m[id]
	if !ok || !s.ExpiresAt.After(f.now()) {
		return sessions.Session{}, mongo.ErrNoDocuments
	}
	return s, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, id)
	return nil
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.m {
		if s.User != nil && s.User.UserID == userID {
			delete(f.m, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) activeFor(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.m {
		if s.User != nil && s.User.UserID == userID && s.ExpiresAt.After(f.now()) {
			n++
		}
	}
	return n
}

// fakeHasher avoids bcrypt cost in unit tests.
type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }
func (fakeHasher) Compare(hash, pw string) bool { return pw != "" && hash == "hashed:"+pw }
func (fakeHasher) Placeholder() (string, error) { return "placeholder:" + uuid.NewString(), nil }

// fakeMailer records what would have been sent.
type fakeMailer struct {
	mu     sync.Mutex
	otps   map[string]string
	resets map[string]string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{otps: map[string]string{}, resets: map[string]string{}}
}

func (m *fakeMailer) SendActivation(_ context.Context, to, _, otp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[to] = otp
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[to] = link
	return nil
}

// clock is a controllable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	svc      *identity.Service
	accounts *fakeAccounts
	sessions *fakeSessions
	mail     *fakeMailer
	clock    *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	h := &harness{
		accounts: newFakeAccounts(),
		sessions: newFakeSessions(c.Now),
		mail:     newFakeMailer(),
		clock:    c,
	}
	h.svc = identity.NewService(identity.Config{
		ResetSecret:      "reset-secret",
		ActivationSecret: "activation-secret",
		FrontendURL:      "https://learn.example.com/",
	}, h.accounts, h.sessions, fakeHasher{}, h.mail, zap.NewNop(), identity.WithClock(c.Now))
	return h
}

var errStoreDown = errors.New("connection refused")
