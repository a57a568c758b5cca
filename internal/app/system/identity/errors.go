// internal/app/system/identity/errors.go
package identity

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable failure code sent to clients.
type Code string

const (
	CodeAuthRequired       Code = "AUTH_REQUIRED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeAccountNotFound    Code = "ACCOUNT_NOT_FOUND"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeMissingCredentials Code = "MISSING_CREDENTIALS"
	CodeAdminRequired      Code = "ADMIN_REQUIRED"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeIdentityConflict   Code = "IDENTITY_CONFLICT"
	CodeSystemError        Code = "AUTH_SYSTEM_ERROR"

	CodeSuperAdminRequired Code = "SUPERADMIN_REQUIRED"
	CodeEmailTaken         Code = "EMAIL_TAKEN"
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeInvalidOTP         Code = "INVALID_OTP"
	CodeInvalidRole        Code = "INVALID_ROLE"
	CodeTooManyAttempts    Code = "TOO_MANY_ATTEMPTS"
)

// Error is a classified identity failure. Two Errors match under errors.Is
// when their codes are equal, so callers compare against the sentinels below.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Policy failures.
var (
	ErrAuthRequired       = &Error{Code: CodeAuthRequired, Status: http.StatusUnauthorized, Message: "authentication required"}
	ErrInvalidToken       = &Error{Code: CodeInvalidToken, Status: http.StatusUnauthorized, Message: "invalid token"}
	ErrAccountNotFound    = &Error{Code: CodeAccountNotFound, Status: http.StatusUnauthorized, Message: "account no longer exists, sign in again"}
	ErrUserNotFound       = &Error{Code: CodeUserNotFound, Status: http.StatusNotFound, Message: "user not found"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"}
	ErrMissingCredentials = &Error{Code: CodeMissingCredentials, Status: http.StatusBadRequest, Message: "email and password are required"}
	ErrAdminRequired      = &Error{Code: CodeAdminRequired, Status: http.StatusForbidden, Message: "admin access required"}
	ErrTokenExpired       = &Error{Code: CodeTokenExpired, Status: http.StatusBadRequest, Message: "token expired"}
	ErrIdentityConflict   = &Error{Code: CodeIdentityConflict, Status: http.StatusConflict, Message: "this external identity is linked to another account"}
	ErrSuperAdminRequired = &Error{Code: CodeSuperAdminRequired, Status: http.StatusForbidden, Message: "superadmin access required"}
	ErrEmailTaken         = &Error{Code: CodeEmailTaken, Status: http.StatusConflict, Message: "an account with this email already exists"}
	ErrWeakPassword       = &Error{Code: CodeWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet requirements"}
	ErrInvalidOTP         = &Error{Code: CodeInvalidOTP, Status: http.StatusBadRequest, Message: "invalid verification code"}
	ErrInvalidRole        = &Error{Code: CodeInvalidRole, Status: http.StatusBadRequest, Message: "invalid role"}
	ErrTooManyAttempts    = &Error{Code: CodeTooManyAttempts, Status: http.StatusTooManyRequests, Message: "too many attempts, try again later"}
)

// ErrSystem is the infrastructure failure class. Match it with errors.Is;
// concrete failures are built by systemError and carry the cause.
var ErrSystem = &Error{Code: CodeSystemError, Status: http.StatusInternalServerError, Message: "authentication system error"}

func systemError(op string, err error) *Error {
	return &Error{
		Code:    CodeSystemError,
		Status:  http.StatusInternalServerError,
		Message: "authentication system error",
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// WithMessage copies a sentinel with a more specific human message.
func WithMessage(e *Error, msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// AsError classifies any error. Unclassified errors become AUTH_SYSTEM_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return systemError("unclassified", err)
}
