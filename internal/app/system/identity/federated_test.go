package identity_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func googleProfile() identity.Profile {
	return identity.Profile{
		ExternalID: "google-123",
		Email:      "g@x.com",
		Name:       "Grace <b>Hopper</b>",
		AvatarURL:  "https://img.example.com/g.png",
	}
}

func TestFederatedLogin_CreatesVerifiedAccount(t *testing.T) {
	h := newHarness(t)
	login, outcome, err := h.svc.FederatedLogin(context.Background(), googleProfile(), "")
	require.NoError(t, err)
	assert.Equal(t, identity.FederatedCreated, outcome)

	a := login.Account
	assert.True(t, a.Verified)
	assert.True(t, a.Federated)
	require.NotNil(t, a.ExternalID)
	assert.Equal(t, "google-123", *a.ExternalID)
	assert.NotEmpty(t, a.PasswordHash)
	assert.Equal(t, "Grace Hopper", a.Name, "markup is stripped")
	assert.Equal(t, "https://img.example.com/g.png", a.Avatar)
	assert.Equal(t, models.RoleUser, login.Identity.Role)

	// The placeholder can never be used as a password.
	_, err = h.svc.Login(context.Background(), "g@x.com", a.PasswordHash, "")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestFederatedLogin_StripsEncodedMarkupFromName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags", "Grace <b>Hopper</b>", "Grace Hopper"},
		{"encoded tag", "&lt;img src=x onerror=alert(1)&gt;Grace", "Grace"},
		{"double encoded", "&amp;lt;script&amp;gt;Grace", "scriptGrace"},
		{"encoded script", "&lt;script&gt;alert(1)&lt;/script&gt;Grace", "Grace"},
		{"bare brackets", "Grace < Hopper >", "Grace Hopper"},
		{"apostrophe", "Grace O&#39;Hopper", "Grace O'Hopper"},
		{"only markup", "&lt;img src=x&gt;", "g@x.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			p := googleProfile()
			p.Name = tt.in

			login, _, err := h.svc.FederatedLogin(context.Background(), p, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, login.Account.Name)
			assert.NotContains(t, login.Account.Name, "<")
			assert.NotContains(t, login.Account.Name, ">")
		})
	}
}

func TestFederatedLogin_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, _, err := h.svc.FederatedLogin(ctx, googleProfile(), "")
	require.NoError(t, err)
	writes := h.accounts.writeCount()

	second, outcome, err := h.svc.FederatedLogin(ctx, googleProfile(), first.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.FederatedExisting, outcome)
	assert.Equal(t, first.Identity.ID, second.Identity.ID)

	assert.Equal(t, 1, h.accounts.count())
	assert.Equal(t, writes, h.accounts.writeCount(), "no mutation on repeat login")
	assert.Equal(t, 1, h.sessions.activeFor(first.Identity.ID))
}

func TestFederatedLogin_LinksExistingAccount(t *testing.T) {
	h := newHarness(t)
	a := h.accounts.put(t, models.Account{Name: "Grace", Email: "g@x.com"})

	login, outcome, err := h.svc.FederatedLogin(context.Background(), googleProfile(), "")
	require.NoError(t, err)
	assert.Equal(t, identity.FederatedLinked, outcome)
	assert.Equal(t, a.ID.Hex(), login.Identity.ID)

	stored, err := h.accounts.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExternalID)
	assert.Equal(t, "google-123", *stored.ExternalID)
	assert.True(t, stored.Federated)
	assert.Equal(t, "https://img.example.com/g.png", stored.Avatar)
	assert.Equal(t, "hashed:secret1", stored.PasswordHash, "password login keeps working")
}

func TestFederatedLogin_KeepsExistingAvatar(t *testing.T) {
	h := newHarness(t)
	a := h.accounts.put(t, models.Account{Name: "Grace", Email: "g@x.com", Avatar: "mine.png"})

	_, _, err := h.svc.FederatedLogin(context.Background(), googleProfile(), "")
	require.NoError(t, err)

	stored, err := h.accounts.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine.png", stored.Avatar)
}

func TestFederatedLogin_ExternalIDBoundElsewhere(t *testing.T) {
	h := newHarness(t)
	ext := "google-123"
	h.accounts.put(t, models.Account{Name: "Other", Email: "other@x.com", ExternalID: &ext})
	target := h.accounts.put(t, models.Account{Name: "Grace", Email: "g@x.com"})
	writes := h.accounts.writeCount()

	_, _, err := h.svc.FederatedLogin(context.Background(), googleProfile(), "")
	require.ErrorIs(t, err, identity.ErrIdentityConflict)
	assert.Equal(t, 409, identity.AsError(err).Status)

	assert.Equal(t, writes, h.accounts.writeCount(), "no mutation on conflict")
	assert.Equal(t, 0, h.accounts.linkAttempts(), "conflict is found before any write is attempted")
	stored, err := h.accounts.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ExternalID)
	assert.Equal(t, 0, h.sessions.activeFor(target.ID.Hex()))
}

func TestFederatedLogin_AccountBoundToDifferentID(t *testing.T) {
	h := newHarness(t)
	ext := "google-999"
	h.accounts.put(t, models.Account{Name: "Grace", Email: "g@x.com", ExternalID: &ext})

	_, _, err := h.svc.FederatedLogin(context.Background(), googleProfile(), "")
	require.ErrorIs(t, err, identity.ErrIdentityConflict)
}

func TestFederatedLogin_NewEmailWithTakenExternalID(t *testing.T) {
	h := newHarness(t)
	ext := "google-123"
	h.accounts.put(t, models.Account{Name: "Old", Email: "old@x.com", ExternalID: &ext})

	_, _, err := h.svc.FederatedLogin(context.Background(), googleProfile(), "")
	require.ErrorIs(t, err, identity.ErrIdentityConflict)
	assert.Equal(t, 1, h.accounts.count())
}

func TestFederatedLogin_RejectsIncompleteProfile(t *testing.T) {
	h := newHarness(t)
	p := googleProfile()
	p.Email = ""
	_, _, err := h.svc.FederatedLogin(context.Background(), p, "")
	require.ErrorIs(t, err, identity.ErrMissingCredentials)
}

func TestFederatedLogin_ConcurrentFirstLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = h.svc.FederatedLogin(ctx, googleProfile(), "")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, h.accounts.count(), "email stays unique")
}
