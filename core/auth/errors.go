package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown user, wrong password and
	// inactive accounts alike, so callers reveal nothing about which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrWeakPassword       = errors.New("password too weak")
)
