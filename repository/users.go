package repository

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-blog/auth"
	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users stores identities
type Users interface {
	auth.IdentityStore
}

type users struct{}

var _ Users = users{}

// NewUsersRepository creates the identity store
func NewUsersRepository() Users {
	return users{}
}

func (users) RegisterTx(ctx context.Context, tx bun.IDB, username, passwordHash string) (*auth.Identity, error) {
	record := &User{
		Username:     username,
		PasswordHash: passwordHash,
	}

	if _, err := tx.NewInsert().Model(record).Returning("*").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, auth.ErrUsernameTaken
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to register user")
	}

	return toIdentity(record), nil
}

func (users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*auth.Identity, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to get user by username")
	}
	return toIdentity(record), nil
}

func toIdentity(u *User) *auth.Identity {
	return &auth.Identity{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
	}
}
