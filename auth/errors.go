package auth

import "github.com/goliatone/go-errors"

const (
	TextCodeInvalidSignature   = "token_invalid_signature"
	TextCodeTokenExpired       = "token_expired"
	TextCodeMalformedClaim     = "token_malformed_claim"
	TextCodeUnauthorized       = "unauthorized"
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodePasswordTooLong    = "password_too_long"
)

// ErrInvalidSignature is returned when a token was tampered with, signed
// with a different key or algorithm, or cannot be parsed at all.
var ErrInvalidSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned once the current time reaches the token expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrMalformedClaim is returned when the identity claim is absent or empty.
var ErrMalformedClaim = errors.New("token identity claim is missing", errors.CategoryAuth).
	WithTextCode(TextCodeMalformedClaim).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthorized is the only failure the gate lets through.
var ErrUnauthorized = errors.New("could not validate credentials", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned for unknown usernames and wrong
// passwords alike.
var ErrMismatchedHashAndPassword = errors.New("incorrect username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrPasswordTooLong is returned for passwords bcrypt refuses to hash.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes", errors.CategoryBadInput).
	WithTextCode(TextCodePasswordTooLong).
	WithCode(errors.CodeBadRequest)

// IsTokenError reports whether err is one of the token validation failures.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrMalformedClaim)
}

// ErrIdentityNotFound is returned by identity stores for unknown usernames
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("identity_not_found").
	WithCode(errors.CodeNotFound)

// ErrUsernameTaken is returned when registering an existing username
var ErrUsernameTaken = errors.New("username already registered", errors.CategoryConflict).
	WithTextCode("username_taken").
	WithCode(errors.CodeConflict)
