package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-errors"
)

// DefaultTokenExpiration is used when the config does not set one
const DefaultTokenExpiration = 30 * time.Minute

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	method          jwt.SigningMethod
	tokenExpiration time.Duration
	issuer          string
	logger          logging.Logger
	now             func() time.Time
}

// NewTokenService creates a new TokenService instance. Only HMAC signing
// methods are accepted and the key must not be empty.
func NewTokenService(cfg Config, logger logging.Logger) (*TokenServiceImpl, error) {
	if cfg.GetSigningKey() == "" {
		return nil, errors.New("signing key must not be empty", errors.CategoryBadInput)
	}

	alg := cfg.GetSigningMethod()
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}

	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, errors.New("unsupported signing method", errors.CategoryBadInput).
			WithMetadata(map[string]any{"alg": alg})
	}

	exp := cfg.GetTokenExpiration()
	if exp <= 0 {
		exp = DefaultTokenExpiration
	}

	return &TokenServiceImpl{
		signingKey:      []byte(cfg.GetSigningKey()),
		method:          method,
		tokenExpiration: exp,
		issuer:          cfg.GetIssuer(),
		logger:          logging.Resolve("auth", logger),
		now:             time.Now,
	}, nil
}

// WithClock overrides the time source, for tests
func (ts *TokenServiceImpl) WithClock(now func() time.Time) *TokenServiceImpl {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Generate issues a token with the configured expiration
func (ts *TokenServiceImpl) Generate(username string) (string, error) {
	return ts.Issue(username, ts.tokenExpiration)
}

// Issue signs a token for username that expires ttl after now. A ttl of
// zero yields a token that is already expired.
func (ts *TokenServiceImpl) Issue(username string, ttl time.Duration) (string, error) {
	now := ts.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the configured key and method.
func (ts *TokenServiceImpl) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(ts.method, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate returns the identity claim carried by tokenString
func (ts *TokenServiceImpl) Validate(tokenString string) (string, error) {
	claims, err := ts.ParseClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Username(), nil
}

// ParseClaims verifies tokenString and returns its claims. Failures are one
// of ErrInvalidSignature, ErrTokenExpired or ErrMalformedClaim.
func (ts *TokenServiceImpl) ParseClaims(tokenString string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
			errors.Is(err, jwt.ErrTokenInvalidIssuer),
			errors.Is(err, jwt.ErrTokenInvalidClaims):
			ts.logger.Debug("token claims rejected", "error", err)
			return nil, ErrMalformedClaim
		default:
			ts.logger.Debug("token rejected", "error", err)
			return nil, ErrInvalidSignature
		}
	}

	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.Username() == "" {
		return nil, ErrMalformedClaim
	}

	return claims, nil
}
