package auth

import (
	"context"
	"sync"

	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// UserProvider registers identities and verifies their passwords
type UserProvider struct {
	store     IdentityStore
	passwords PasswordAuthenticator
	logger    logging.Logger
	dummyOnce sync.Once
	dummyHash string
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store IdentityStore, passwords PasswordAuthenticator, logger logging.Logger) *UserProvider {
	if passwords == nil {
		passwords = Bcrypt{}
	}
	return &UserProvider{
		store:     store,
		passwords: passwords,
		logger:    logging.Resolve("auth", logger),
	}
}

// Register hashes password and stores a new identity
func (u *UserProvider) Register(ctx context.Context, tx bun.IDB, username, password string) (*Identity, error) {
	hash, err := u.passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}

	identity, err := u.store.RegisterTx(ctx, tx, username, hash)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to register identity")
	}

	return identity, nil
}

// VerifyIdentity will find the identity and compare the password. Unknown
// usernames still pay for a hash comparison.
func (u *UserProvider) VerifyIdentity(ctx context.Context, tx bun.IDB, username, password string) (*Identity, error) {
	identity, err := u.store.GetByUsernameTx(ctx, tx, username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			_ = u.passwords.ComparePasswordAndHash(password, u.fakeHash())
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve identity during verification")
	}

	if err := u.passwords.ComparePasswordAndHash(password, identity.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrMismatchedHashAndPassword
		}
		u.logger.Error("stored password hash is unusable", "username", username, "error", err)
		return nil, ErrMismatchedHashAndPassword
	}

	return identity, nil
}

func (u *UserProvider) fakeHash() string {
	u.dummyOnce.Do(func() {
		u.dummyHash = u.passwords.RandomPasswordHash()
	})
	return u.dummyHash
}
