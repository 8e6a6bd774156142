package auth

import (
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt is the credential store. The zero value hashes with the default cost.
type Bcrypt struct {
	Cost int
}

var _ PasswordAuthenticator = Bcrypt{}

// NewBcrypt returns a Bcrypt hashing with cost. Out of range costs are clamped.
func NewBcrypt(cost int) Bcrypt {
	return Bcrypt{Cost: cost}
}

func (b Bcrypt) cost() int {
	c := b.Cost
	if c == 0 {
		c = bcrypt.DefaultCost
	}
	if c < bcrypt.MinCost {
		c = bcrypt.MinCost
	}
	if c > bcrypt.MaxCost {
		c = bcrypt.MaxCost
	}
	return capCost(c)
}

// HashPassword will generate a salted password hash
func (b Bcrypt) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func (b Bcrypt) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}
	return nil
}

// VerifyPassword reports whether plain produced hash. A hash that is not a
// bcrypt hash never verifies.
func (b Bcrypt) VerifyPassword(plain, hash string) bool {
	return b.ComparePasswordAndHash(plain, hash) == nil
}

// RandomPasswordHash is a hash nobody knows the password for. Comparing
// against it costs as much as comparing against a real hash.
func (b Bcrypt) RandomPasswordHash() string {
	h, err := b.HashPassword(uuid.NewString())
	if err != nil {
		return b.RandomPasswordHash()
	}
	return h
}
