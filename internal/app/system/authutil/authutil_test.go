package authutil

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword("secret1", hash) {
		t.Error("expected password to match its hash")
	}
	if CheckPassword("secret2", hash) {
		t.Error("expected wrong password not to match")
	}
}

func TestCheckPassword_EmptyInputs(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if CheckPassword("", hash) {
		t.Error("empty password must not match")
	}
	if CheckPassword("secret1", "") {
		t.Error("empty hash must not match")
	}
}

func TestPlaceholderHash_IsUniqueAndValid(t *testing.T) {
	a, err := PlaceholderHash()
	if err != nil {
		t.Fatalf("PlaceholderHash failed: %v", err)
	}
	b, err := PlaceholderHash()
	if err != nil {
		t.Fatalf("PlaceholderHash failed: %v", err)
	}
	if a == b {
		t.Error("expected two placeholder hashes to differ")
	}
	if !strings.HasPrefix(a, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", a)
	}
	if CheckPassword("", a) {
		t.Error("empty password must not match placeholder")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("12345"); err != ErrPasswordTooShort {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := ValidatePassword("123456"); err != nil {
		t.Errorf("expected 6 chars to be accepted, got %v", err)
	}
	if err := ValidatePassword(strings.Repeat("a", 73)); err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestHasher_Compare(t *testing.T) {
	var h Hasher
	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !h.Compare(hash, "secret1") {
		t.Error("expected Compare to accept the right password")
	}
	if h.Compare(hash, "nope123") {
		t.Error("expected Compare to reject the wrong password")
	}
}
