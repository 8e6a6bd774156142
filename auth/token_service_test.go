package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-blog/auth"
	"github.com/goliatone/go-blog/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	key    string
	alg    string
	exp    time.Duration
	issuer string
}

func (c testConfig) GetSigningKey() string             { return c.key }
func (c testConfig) GetSigningMethod() string          { return c.alg }
func (c testConfig) GetTokenExpiration() time.Duration { return c.exp }
func (c testConfig) GetIssuer() string                 { return c.issuer }

func newTokenService(t *testing.T, cfg testConfig) *auth.TokenServiceImpl {
	t.Helper()
	ts, err := auth.NewTokenService(cfg, logging.Nop{})
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     testConfig
		wantErr bool
	}{
		{name: "defaults to HS256", cfg: testConfig{key: "mysecret"}},
		{name: "HS512", cfg: testConfig{key: "mysecret", alg: "HS512"}},
		{name: "empty key", cfg: testConfig{alg: "HS256"}, wantErr: true},
		{name: "asymmetric method", cfg: testConfig{key: "mysecret", alg: "RS256"}, wantErr: true},
		{name: "none method", cfg: testConfig{key: "mysecret", alg: "none"}, wantErr: true},
		{name: "unknown method", cfg: testConfig{key: "mysecret", alg: "XX999"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := auth.NewTokenService(tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, ts)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, ts)
		})
	}
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	ts := newTokenService(t, testConfig{key: "mysecret"})

	token, err := ts.Issue("alice", 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	username, err := ts.Validate(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestTokenService_Generate(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return issuedAt }
	ts := newTokenService(t, testConfig{key: "mysecret", issuer: "go-blog"}).WithClock(clock)

	token, err := ts.Generate("bob")
	require.NoError(t, err)

	claims, err := ts.ParseClaims(token)
	require.NoError(t, err)

	assert.Equal(t, "bob", claims.Username())
	assert.Equal(t, "go-blog", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.IssuedAt().Equal(issuedAt))
	assert.True(t, claims.Expires().Equal(issuedAt.Add(auth.DefaultTokenExpiration)))
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	ts := newTokenService(t, testConfig{key: "mysecret"})

	first, err := ts.Generate("alice")
	require.NoError(t, err)
	second, err := ts.Generate("alice")
	require.NoError(t, err)

	a, err := ts.ParseClaims(first)
	require.NoError(t, err)
	b, err := ts.ParseClaims(second)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenService_Expiry(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	ts := newTokenService(t, testConfig{key: "mysecret"}).WithClock(clock)

	t.Run("zero ttl is already expired", func(t *testing.T) {
		now = start
		token, err := ts.Issue("alice", 0)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("past expiry", func(t *testing.T) {
		now = start
		token, err := ts.Issue("alice", -time.Minute)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("valid until expiry", func(t *testing.T) {
		now = start
		token, err := ts.Issue("alice", 30*time.Minute)
		require.NoError(t, err)

		now = start.Add(29 * time.Minute)
		username, err := ts.Validate(token)
		assert.NoError(t, err)
		assert.Equal(t, "alice", username)

		now = start.Add(30 * time.Minute)
		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})
}

func TestTokenService_InvalidSignature(t *testing.T) {
	ts := newTokenService(t, testConfig{key: "mysecret"})

	t.Run("different key", func(t *testing.T) {
		other := newTokenService(t, testConfig{key: "othersecret"})
		token, err := other.Generate("alice")
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrInvalidSignature)
	})

	t.Run("different algorithm same key", func(t *testing.T) {
		other := newTokenService(t, testConfig{key: "mysecret", alg: "HS512"})
		token, err := other.Generate("alice")
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := ts.Generate("alice")
		require.NoError(t, err)

		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "mallory",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("mysecret"))
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		forgedParts := strings.Split(forged, ".")
		tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

		_, err = ts.Validate(tampered)
		assert.ErrorIs(t, err, auth.ErrInvalidSignature)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "alice",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrInvalidSignature)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
			_, err := ts.Validate(raw)
			assert.ErrorIs(t, err, auth.ErrInvalidSignature, raw)
		}
	})
}

func TestTokenService_MalformedClaim(t *testing.T) {
	ts := newTokenService(t, testConfig{key: "mysecret"})

	t.Run("empty subject", func(t *testing.T) {
		token, err := ts.Issue("", time.Minute)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrMalformedClaim)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("mysecret"))
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrMalformedClaim)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "alice",
		}).SignedString([]byte("mysecret"))
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, auth.ErrMalformedClaim)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		strict := newTokenService(t, testConfig{key: "mysecret", issuer: "go-blog"})
		token, err := ts.Generate("alice")
		require.NoError(t, err)

		_, err = strict.Validate(token)
		assert.ErrorIs(t, err, auth.ErrMalformedClaim)
	})
}

func TestIsTokenError(t *testing.T) {
	assert.True(t, auth.IsTokenError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenError(auth.ErrInvalidSignature))
	assert.True(t, auth.IsTokenError(auth.ErrMalformedClaim))
	assert.False(t, auth.IsTokenError(auth.ErrUnauthorized))
	assert.False(t, auth.IsTokenError(nil))
}
