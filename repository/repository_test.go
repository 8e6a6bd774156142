package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-blog/auth"
	"github.com/goliatone/go-blog/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, persistence.CreateSchema(context.Background(), db, Models()...))

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestBlogsCreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewBlogsRepository()

	created, err := repo.CreateTx(ctx, db, "Hello", "First post", 1)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(1), created.OwnerID)

	found, err := repo.GetByIDTx(ctx, db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", found.Title)
	assert.Equal(t, "First post", found.Content)
	assert.Equal(t, created.ID, found.ID)
}

func TestBlogsGetMissing(t *testing.T) {
	db := setupDB(t)

	blog, err := NewBlogsRepository().GetByIDTx(context.Background(), db, 9999)
	assert.Nil(t, blog)
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestBlogsList(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewBlogsRepository()

	list, err := repo.ListTx(ctx, db)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, title := range []string{"a", "b", "c"} {
		_, err := repo.CreateTx(ctx, db, title, "body "+title, 42)
		require.NoError(t, err)
	}

	list, err = repo.ListTx(ctx, db)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Title)
	assert.Equal(t, "c", list[2].Title)
	assert.Less(t, list[0].ID, list[1].ID)
}

func TestBlogsOwnerNeedNotExist(t *testing.T) {
	db := setupDB(t)

	blog, err := NewBlogsRepository().CreateTx(context.Background(), db, "orphan", "no owner row", 777)
	require.NoError(t, err)
	assert.Equal(t, int64(777), blog.OwnerID)
}

func TestBlogsConcurrentCreateDistinctIDs(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	mgr := NewRepositoryManager(db)

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				blog, err := mgr.Blogs().CreateTx(ctx, tx, "t", "c", 1)
				if err != nil {
					return err
				}
				ids <- blog.ID
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestUsersRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewUsersRepository()

	identity, err := repo.RegisterTx(ctx, db, "alice", "hash")
	require.NoError(t, err)
	assert.NotZero(t, identity.ID)

	found, err := repo.GetByUsernameTx(ctx, db, "alice")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)
	assert.Equal(t, "alice", found.Username)
}

func TestUsersDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewUsersRepository()

	_, err := repo.RegisterTx(ctx, db, "alice", "hash")
	require.NoError(t, err)

	_, err = repo.RegisterTx(ctx, db, "alice", "other")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestUsersMissing(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewUsersRepository()

	_, err := repo.GetByUsernameTx(ctx, db, "ghost")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)")))
	assert.False(t, isUniqueViolation(errors.New("no such table: users")))
}

func TestManagerValidate(t *testing.T) {
	assert.NoError(t, NewRepositoryManager(setupDB(t)).Validate())
	assert.Error(t, NewRepositoryManager(nil).Validate())
}
