package auth

import "github.com/pkg/errors"

var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidTokenType     = errors.New("invalid token type")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	// ErrInvalidCredentials hides whether the hash or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
