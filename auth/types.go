package auth

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Config holds the token options fixed at startup
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetTokenExpiration() time.Duration
	GetIssuer() string
}

// TokenService issues and validates access tokens
type TokenService interface {
	Issue(username string, ttl time.Duration) (string, error)
	Generate(username string) (string, error)
	Validate(token string) (string, error)
	ParseClaims(token string) (*Claims, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
	RandomPasswordHash() string
}

// Identity is the stored account a token is issued for
type Identity struct {
	ID           int64
	Username     string
	PasswordHash string
}

// IdentityStore persists identities inside the caller's unit of work
type IdentityStore interface {
	RegisterTx(ctx context.Context, tx bun.IDB, username, passwordHash string) (*Identity, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Identity, error)
}
