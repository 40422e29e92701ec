// Package common defines shared constants, sentinel errors and small helpers
// used across the client and backend layers of InsightPulse. Callers should
// use errors.Is to match the sentinel values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrInvalidFilter  = errors.New("unsupported lookup filter")

	// Session errors surfaced to the view layer.
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found, please check your email address")
	ErrCodeMismatch        = errors.New("invalid verification code, please try again")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrEmailDispatchFailed = errors.New("failed to send email")
	ErrMalformedAssertion  = errors.New("malformed identity assertion")
	ErrBackendUnavailable  = errors.New("backend unavailable")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
