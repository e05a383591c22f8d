package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// User is the identity the credential directory resolves a bearer token to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Directory resolves bearer tokens to users. Implementations return
// ErrInvalidToken (possibly wrapped) when the token is rejected.
type Directory interface {
	GetUser(ctx context.Context, token string) (*User, error)
}
