// internal/app/system/authutil/authutil.go
package authutil

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the bcrypt work factor for stored password hashes.
const BcryptCost = 10

// MinPasswordLength is the shortest password accepted at registration and reset.
const MinPasswordLength = 6

var (
	// ErrPasswordTooShort is returned when a password is below MinPasswordLength.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	// ErrPasswordTooLong is returned when a password exceeds what bcrypt will hash.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

// ValidatePassword applies the password rules.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash.
// bcrypt compares in constant time with respect to the stored hash.
func CheckPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PlaceholderHash hashes 32 random bytes that are immediately discarded.
// Accounts created through federated sign-in get this so the password
// field is never empty yet no password can ever match it.
func PlaceholderHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	// base64 of 32 bytes is 44 chars, under bcrypt's 72-byte limit.
	return HashPassword(base64.RawURLEncoding.EncodeToString(b))
}

// Hasher is the bcrypt credential hasher handed to the identity service.
type Hasher struct{}

// Hash hashes a plaintext password.
func (Hasher) Hash(password string) (string, error) { return HashPassword(password) }

// Compare reports whether password matches hash.
func (Hasher) Compare(hash, password string) bool { return CheckPassword(password, hash) }

// Placeholder returns an unguessable hash for accounts without a password.
func (Hasher) Placeholder() (string, error) { return PlaceholderHash() }
