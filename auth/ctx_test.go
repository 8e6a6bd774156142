package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-blog/auth"
	"github.com/stretchr/testify/assert"
)

func TestIdentityContext(t *testing.T) {
	_, ok := auth.IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithIdentityContext(context.Background(), "alice")
	username, ok := auth.IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	_, ok = auth.IdentityFromContext(auth.WithIdentityContext(context.Background(), ""))
	assert.False(t, ok)
}
