// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/learnhub/internal/app/store/oauthstate"
	"github.com/dalemusser/learnhub/internal/app/system/auditlog"
	"github.com/dalemusser/learnhub/internal/app/system/auth"
	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	provider = "google"

	// DefaultUserInfoURL is Google's OAuth2 v2 userinfo endpoint.
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type ctxKey string

const returnKey ctxKey = "googleReturn"

// Handler handles Google OAuth authentication.
type Handler struct {
	Identity   *identity.Service
	SessionMgr *auth.SessionManager
	StateStore *oauthstate.Store
	AuditLog   *auditlog.Logger
	Log        *zap.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://api.learnhub.dev/api/auth/google/callback"
	Endpoint     oauth2.Endpoint
	UserInfoURL  string

	// FrontendURL is where the browser lands after the flow, success or not.
	FrontendURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	svc *identity.Service,
	sessionMgr *auth.SessionManager,
	stateStore *oauthstate.Store,
	audit *auditlog.Logger,
	clientID, clientSecret, redirectURL, frontendURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Identity:     svc,
		SessionMgr:   sessionMgr,
		StateStore:   stateStore,
		AuditLog:     audit,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		UserInfoURL:  DefaultUserInfoURL,
		FrontendURL:  frontendURL,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google                                                         |
| Redirects to Google's consent screen with a one-time state token.            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToLogin(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "google login state")
	defer cancel()

	expiresAt := time.Now().UTC().Add(oauthstate.DefaultExpiry)
	if err := h.StateStore.Save(ctx, state, provider, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))

	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google/callback                                                |
| Federate exchanges the code, fetches the profile and signs the owner in,     |
| leaving the principal on the request. Authenticate then resolves it and      |
| ServeCallback redirects to the frontend.                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Federate is the callback middleware that establishes the federated
// principal. Failures redirect to the frontend login page.
func (h *Handler) Federate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if errParam := r.URL.Query().Get("error"); errParam != "" {
			h.Log.Warn("Google OAuth error",
				zap.String("error", errParam),
				zap.String("description", r.URL.Query().Get("error_description")))
			h.redirectToLogin(w, r, "google_denied")
			return
		}

		state := r.URL.Query().Get("state")
		if state == "" {
			h.Log.Warn("missing OAuth state parameter")
			h.redirectToLogin(w, r, "invalid_state")
			return
		}

		ctxTimeout, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), h.Log, "google callback")
		defer cancel()

		returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state, provider)
		if err != nil {
			h.Log.Error("failed to validate OAuth state", zap.Error(err))
			h.redirectToLogin(w, r, "internal")
			return
		}
		if !valid {
			h.Log.Warn("invalid or expired OAuth state")
			h.redirectToLogin(w, r, "invalid_state")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			h.Log.Warn("missing OAuth code parameter")
			h.redirectToLogin(w, r, "invalid_code")
			return
		}

		token, err := h.oauth2Config().Exchange(ctx, code)
		if err != nil {
			h.Log.Error("failed to exchange OAuth code", zap.Error(err))
			h.redirectToLogin(w, r, "token_exchange")
			return
		}

		gu, err := h.fetchUserInfo(ctx, token)
		if err != nil {
			h.Log.Error("failed to fetch Google user info", zap.Error(err))
			h.redirectToLogin(w, r, "user_info")
			return
		}

		h.Log.Debug("Google user info fetched",
			zap.String("google_id", gu.ID),
			zap.String("email", gu.Email))

		login, outcome, err := h.Identity.FederatedLogin(ctxTimeout, identity.Profile{
			ExternalID: gu.ID,
			Email:      gu.Email,
			Name:       gu.Name,
			AvatarURL:  gu.Picture,
		}, h.SessionMgr.SessionID(r))
		if err != nil {
			h.handleFederationError(w, r, gu.Email, err)
			return
		}

		if err := h.SessionMgr.SetSessionID(w, r, login.Session.ID); err != nil {
			h.Log.Error("save session cookie failed", zap.Error(err), zap.String("user_id", login.Identity.ID))
			h.redirectToLogin(w, r, "session")
			return
		}

		switch outcome {
		case identity.FederatedCreated:
			h.AuditLog.Registered(ctx, r, login.Account.ID, login.Account.Email)
		case identity.FederatedLinked:
			h.AuditLog.FederatedLinked(ctx, r, login.Account.ID, login.Account.Email)
		}

		r = auth.WithFederatedPrincipal(r, login.Identity)
		r = r.WithContext(context.WithValue(r.Context(), returnKey, returnURL))
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleFederationError(w http.ResponseWriter, r *http.Request, email string, err error) {
	switch {
	case errors.Is(err, identity.ErrIdentityConflict):
		h.Log.Info("Google OAuth: identity conflict", zap.String("email", email))
		h.AuditLog.FederatedConflict(r.Context(), r, email)
		h.redirectToLogin(w, r, "identity_conflict")
	case errors.Is(err, identity.ErrMissingCredentials):
		h.Log.Warn("Google OAuth: incomplete profile", zap.String("email", email))
		h.redirectToLogin(w, r, "user_info")
	default:
		h.Log.Error("Google OAuth: federated login failed", zap.Error(err))
		h.redirectToLogin(w, r, "auth_failed")
	}
}

// ServeCallback runs after Authenticate and sends the browser to the
// frontend.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.CurrentIdentity(r)
	if oid, err := primitive.ObjectIDFromHex(id.ID); err == nil {
		h.AuditLog.LoginSuccess(r.Context(), r, oid, provider, id.Email)
	}
	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", id.ID),
		zap.String("via", string(id.Via)))

	returnURL, _ := r.Context().Value(returnKey).(string)
	http.Redirect(w, r, h.FrontendURL+urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

// redirectToLogin sends the browser to the frontend login page with an error code.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, h.FrontendURL+"/login?error="+errorCode, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchUserInfo retrieves the signed-in user's profile.
func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
