package identity_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	tests := []struct {
		name     string
		email    string
		password string
		want     *identity.Error
	}{
		{"missing email", "", "secret1", identity.ErrMissingCredentials},
		{"missing password", "a@x.com", "", identity.ErrMissingCredentials},
		{"unknown email", "nobody@x.com", "secret1", identity.ErrUserNotFound},
		{"email is case sensitive", "A@x.com", "secret1", identity.ErrUserNotFound},
		{"wrong password", "a@x.com", "nope", identity.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Login(ctx, tt.email, tt.password, "")
			require.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 404, identity.ErrUserNotFound.Status)
	assert.Equal(t, 401, identity.ErrInvalidCredentials.Status)
	assert.Equal(t, 400, identity.ErrMissingCredentials.Status)

	login, err := h.svc.Login(ctx, " a@x.com ", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID.Hex(), login.Identity.ID)
	assert.Equal(t, a.ID.Hex(), login.Session.User.UserID)
	assert.Equal(t, 1, h.sessions.activeFor(a.ID.Hex()))
}

func TestLogin_RotatesPreviousSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	first, err := h.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)
	second, err := h.svc.Login(ctx, "a@x.com", "secret1", first.Session.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.Session.ID, second.Session.ID)
	assert.Equal(t, 1, h.sessions.activeFor(a.ID.Hex()))
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	login, err := h.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)
	require.NoError(t, h.svc.Logout(ctx, login.Session.ID))
	require.NoError(t, h.svc.Logout(ctx, ""))

	_, err = h.svc.Resolve(ctx, identity.Proofs{SessionID: login.Session.ID})
	require.ErrorIs(t, err, identity.ErrAuthRequired)
}

// resetProof pulls the proof out of the mailed link.
func resetProof(t *testing.T, h *harness, email string) string {
	t.Helper()
	link, ok := h.mail.resets[email]
	require.True(t, ok, "reset mail sent")
	require.True(t, strings.HasPrefix(link, "https://learn.example.com/reset-password?token="))
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	issued, err := h.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	proof := resetProof(t, h, "a@x.com")
	assert.Equal(t, issued, proof)

	stored, _ := h.accounts.GetByID(ctx, a.ID)
	require.NotNil(t, stored.ResetPasswordExpire)
	assert.True(t, stored.ResetPasswordExpire.Equal(h.clock.Now().Add(5*time.Minute)))

	h.clock.Advance(4 * time.Minute)
	userID, err := h.svc.ResetPassword(ctx, proof, "newsecret")
	require.NoError(t, err)
	assert.Equal(t, a.ID.Hex(), userID)

	stored, _ = h.accounts.GetByID(ctx, a.ID)
	assert.Nil(t, stored.ResetPasswordExpire)
	_, err = h.svc.Login(ctx, "a@x.com", "newsecret", "")
	require.NoError(t, err)

	// The cleared expiry makes the same proof unusable.
	_, err = h.svc.ResetPassword(ctx, proof, "another1")
	require.ErrorIs(t, err, identity.ErrTokenExpired)
}

func TestPasswordReset_RevokesSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})
	b := h.accounts.put(t, models.Account{Name: "Bob", Email: "b@x.com"})

	laptop, err := h.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)
	_, err = h.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)
	_, err = h.svc.Login(ctx, "b@x.com", "secret1", "")
	require.NoError(t, err)
	require.Equal(t, 2, h.sessions.activeFor(a.ID.Hex()))

	_, err = h.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = h.svc.ResetPassword(ctx, resetProof(t, h, "a@x.com"), "newsecret")
	require.NoError(t, err)

	assert.Equal(t, 0, h.sessions.activeFor(a.ID.Hex()), "every session of the account is revoked")
	assert.Equal(t, 1, h.sessions.activeFor(b.ID.Hex()), "other accounts keep their sessions")

	_, err = h.svc.Resolve(ctx, identity.Proofs{SessionID: laptop.Session.ID})
	require.ErrorIs(t, err, identity.ErrAuthRequired)
}

func TestRegister_StripsEncodedMarkup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Register(ctx, "&lt;img src=x onerror=alert(1)&gt;", "p@x.com", "secret1")
	require.ErrorIs(t, err, identity.ErrMissingCredentials, "a name that is only markup is empty")
	assert.Equal(t, 0, h.accounts.count())

	reg, err := h.svc.Register(ctx, "Ada &lt;b&gt;Lovelace&lt;/b&gt;", "ada@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", reg.Account.Name)
}

func TestPasswordReset_AfterWindow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	_, err := h.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	proof := resetProof(t, h, "a@x.com")

	h.clock.Advance(5*time.Minute + time.Second)
	_, err = h.svc.ResetPassword(ctx, proof, "newsecret")
	require.ErrorIs(t, err, identity.ErrTokenExpired)
	assert.Equal(t, 400, identity.AsError(err).Status)
}

func TestPasswordReset_StoredExpiryLapsed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	_, err := h.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	proof := resetProof(t, h, "a@x.com")

	// Signed proof is still valid but the stored guard has passed.
	require.NoError(t, h.accounts.SetResetExpiry(ctx, a.ID, h.clock.Now().Add(-time.Second)))
	_, err = h.svc.ResetPassword(ctx, proof, "newsecret")
	require.ErrorIs(t, err, identity.ErrTokenExpired)
}

func TestPasswordReset_NoStoredExpiry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	_, err := h.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	proof := resetProof(t, h, "a@x.com")

	require.NoError(t, h.accounts.update(a.ID, func(a *models.Account) { a.ResetPasswordExpire = nil }))
	_, err = h.svc.ResetPassword(ctx, proof, "newsecret")
	require.ErrorIs(t, err, identity.ErrTokenExpired)

	stored, _ := h.accounts.GetByID(ctx, a.ID)
	assert.Equal(t, "hashed:secret1", stored.PasswordHash, "password unchanged")
}

func TestPasswordReset_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	_, err := h.svc.ForgotPassword(ctx, "nobody@x.com")
	require.ErrorIs(t, err, identity.ErrUserNotFound)
	assert.Empty(t, h.mail.resets)

	_, err = h.svc.ResetPassword(ctx, "not-a-jwt", "newsecret")
	require.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = h.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	proof := resetProof(t, h, "a@x.com")

	_, err = h.svc.ResetPassword(ctx, proof, "")
	require.ErrorIs(t, err, identity.ErrMissingCredentials)
	_, err = h.svc.ResetPassword(ctx, proof, "abc")
	require.ErrorIs(t, err, identity.ErrWeakPassword)

	// A proof signed with another secret does not verify.
	other := identity.NewService(identity.Config{ResetSecret: "other"}, h.accounts, h.sessions, fakeHasher{}, nil, nil, identity.WithClock(h.clock.Now))
	_, err = other.ResetPassword(ctx, proof, "newsecret")
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestRegister_ActivationAndEarlyLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.svc.Register(ctx, "Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.ActivationToken)
	assert.True(t, reg.Account.Verified, "accounts are stored verified")

	otp := h.mail.otps["a@x.com"]
	require.Len(t, otp, 6)

	// Signing in before the code is redeemed is allowed.
	_, err = h.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)

	_, err = h.svc.Verify(ctx, reg.ActivationToken, "000000x")
	require.ErrorIs(t, err, identity.ErrInvalidOTP)

	a, err := h.svc.Verify(ctx, reg.ActivationToken, otp)
	require.NoError(t, err)
	assert.True(t, a.Verified)
}

func TestRegister_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	_, err := h.svc.Register(ctx, "Alice", "a@x.com", "secret1")
	require.ErrorIs(t, err, identity.ErrEmailTaken)
	assert.Equal(t, 1, h.accounts.count(), "email stays unique")

	_, err = h.svc.Register(ctx, "", "b@x.com", "secret1")
	require.ErrorIs(t, err, identity.ErrMissingCredentials)

	_, err = h.svc.Register(ctx, "Bob", "b@x.com", "123")
	require.ErrorIs(t, err, identity.ErrWeakPassword)
}

func TestVerify_ExpiredActivation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.svc.Register(ctx, "Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	h.clock.Advance(6 * time.Minute)

	_, err = h.svc.Verify(ctx, reg.ActivationToken, h.mail.otps["a@x.com"])
	require.ErrorIs(t, err, identity.ErrTokenExpired)
}

func TestUpdateMainRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	super := h.accounts.put(t, models.Account{Name: "Root", Email: "root@x.com", Role: models.RoleAdmin, MainRole: models.MainRoleSuperAdmin})
	admin := h.accounts.put(t, models.Account{Name: "Admin", Email: "admin@x.com", Role: models.RoleAdmin})
	target := h.accounts.put(t, models.Account{Name: "T", Email: "t@x.com"})

	asAdmin := identity.Identity{ID: admin.ID.Hex(), Role: models.RoleAdmin}
	_, err := h.svc.UpdateMainRole(ctx, asAdmin, target.ID.Hex(), models.MainRoleSuperAdmin)
	require.ErrorIs(t, err, identity.ErrSuperAdminRequired)
	assert.Equal(t, 403, identity.AsError(err).Status)

	asSuper := identity.Identity{ID: super.ID.Hex(), Role: models.RoleAdmin}
	_, err = h.svc.UpdateMainRole(ctx, asSuper, primitive.NewObjectID().Hex(), models.MainRoleSuperAdmin)
	require.ErrorIs(t, err, identity.ErrUserNotFound)

	_, err = h.svc.UpdateMainRole(ctx, asSuper, target.ID.Hex(), "owner")
	require.ErrorIs(t, err, identity.ErrInvalidRole)

	updated, err := h.svc.UpdateMainRole(ctx, asSuper, target.ID.Hex(), models.MainRoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.MainRoleSuperAdmin, updated.MainRole)
}

func TestListAccounts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.accounts.put(t, models.Account{Name: "Admin", Email: "admin@x.com", Role: models.RoleAdmin})
	user := h.accounts.put(t, models.Account{Name: "U", Email: "u@x.com"})

	_, err := h.svc.ListAccounts(ctx, identity.Identity{ID: user.ID.Hex(), Role: models.RoleUser})
	require.ErrorIs(t, err, identity.ErrAdminRequired)

	list, err := h.svc.ListAccounts(ctx, identity.Identity{ID: admin.ID.Hex(), Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u@x.com", list[0].Email)
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.accounts.put(t, models.Account{Name: "Alice", Email: "a@x.com"})

	got, err := h.svc.Profile(ctx, identity.Identity{ID: a.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = h.svc.Profile(ctx, identity.Identity{ID: primitive.NewObjectID().Hex()})
	require.ErrorIs(t, err, identity.ErrAccountNotFound)
}
