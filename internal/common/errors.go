// Package common defines shared constants, helpers and sentinel errors used
// across the service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Request validation.
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidDuration = errors.New("invalid duration class")

	// Key issuance.
	ErrKeySpaceExhausted = errors.New("key space exhausted")

	// Registration.
	ErrInvalidKey     = errors.New("invalid key")
	ErrKeyAlreadyUsed = errors.New("key already used")
	ErrUsernameTaken  = errors.New("username already taken")

	// Login.
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountExpired     = errors.New("account expired")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStorageFailure marks a failed read or write against the record store.
	// It is always wrapped together with the underlying cause.
	ErrStorageFailure = errors.New("storage failure")

	// Transport-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)
