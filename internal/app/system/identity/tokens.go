// internal/app/system/identity/tokens.go
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenFromRequest extracts the legacy token: the "token" header, else the
// second segment of the Authorization header ("Bearer <token>").
func TokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get("token")); t != "" {
		return t
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}

// resetClaims is the payload of a password-reset proof.
type resetClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// activationClaims is the payload of an activation token.
type activationClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Service) sign(claims jwt.Claims, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret not configured")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// parse verifies a signed proof. An expired proof fails with TOKEN_EXPIRED,
// anything else that does not verify with INVALID_TOKEN.
func (s *Service) parse(raw string, claims jwt.Claims, secret string) error {
	if raw == "" {
		return ErrInvalidToken
	}
	if secret == "" {
		return systemError("parse token", errors.New("signing secret not configured"))
	}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return &Error{Code: CodeInvalidToken, Status: ErrInvalidToken.Status, Message: ErrInvalidToken.Message, Err: err}
	}
}

// newOTP returns a uniformly random six-digit code.
func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
