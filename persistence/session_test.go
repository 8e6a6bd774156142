package persistence_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-blog/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type note struct {
	bun.BaseModel `bun:"table:notes"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Body          string `bun:"body"`
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, persistence.CreateSchema(context.Background(), db, (*note)(nil)))

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countNotes(t *testing.T, db *bun.DB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*note)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

type countingObserver struct {
	opened    atomic.Int32
	closed    atomic.Int32
	committed atomic.Int32
	failed    atomic.Int32
}

func (o *countingObserver) SessionOpened() { o.opened.Add(1) }
func (o *countingObserver) SessionFailed() { o.failed.Add(1) }
func (o *countingObserver) SessionClosed(committed bool) {
	o.closed.Add(1)
	if committed {
		o.committed.Add(1)
	}
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, persistence.CreateSchema(context.Background(), db, (*note)(nil)))
}

func TestSession_CloseRollsBack(t *testing.T) {
	db := newTestDB(t)
	obs := &countingObserver{}
	provider := persistence.NewProvider(db, logging.Nop{}).WithObserver(obs)

	s, err := provider.Acquire(context.Background())
	require.NoError(t, err)

	_, err = s.DB().NewInsert().Model(&note{Body: "draft"}).Exec(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.Equal(t, 0, countNotes(t, db))
	assert.Equal(t, int32(1), obs.opened.Load())
	assert.Equal(t, int32(1), obs.closed.Load())
	assert.Equal(t, int32(0), obs.committed.Load())
}

func TestSession_CommitPersists(t *testing.T) {
	db := newTestDB(t)
	provider := persistence.NewProvider(db, logging.Nop{})

	s, err := provider.Acquire(context.Background())
	require.NoError(t, err)

	_, err = s.DB().NewInsert().Model(&note{Body: "kept"}).Exec(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, countNotes(t, db))
}

func TestSession_ClosedExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	obs := &countingObserver{}
	provider := persistence.NewProvider(db, logging.Nop{}).WithObserver(obs)

	s, err := provider.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), persistence.ErrSessionClosed)
	assert.ErrorIs(t, s.Commit(), persistence.ErrSessionClosed)
	assert.Equal(t, int32(1), obs.closed.Load())
}

func TestProvider_AcquireUnavailable(t *testing.T) {
	db := newTestDB(t)
	obs := &countingObserver{}
	provider := persistence.NewProvider(db, logging.Nop{}).WithObserver(obs)
	require.NoError(t, db.Close())

	s, err := provider.Acquire(context.Background())
	assert.Nil(t, s)
	assert.ErrorIs(t, err, persistence.ErrUnavailable)
	assert.Equal(t, int32(1), obs.failed.Load())
	assert.Equal(t, int32(0), obs.opened.Load())
}

func TestWithSession(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db := newTestDB(t)
		provider := persistence.NewProvider(db, logging.Nop{})

		err := persistence.WithSession(ctx, provider, func(ctx context.Context, s persistence.Session) error {
			_, err := s.DB().NewInsert().Model(&note{Body: "a"}).Exec(ctx)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countNotes(t, db))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := newTestDB(t)
		obs := &countingObserver{}
		provider := persistence.NewProvider(db, logging.Nop{}).WithObserver(obs)
		boom := errors.New("boom")

		err := persistence.WithSession(ctx, provider, func(ctx context.Context, s persistence.Session) error {
			if _, err := s.DB().NewInsert().Model(&note{Body: "a"}).Exec(ctx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countNotes(t, db))
		assert.Equal(t, int32(1), obs.closed.Load())
	})

	t.Run("closes on panic", func(t *testing.T) {
		db := newTestDB(t)
		obs := &countingObserver{}
		provider := persistence.NewProvider(db, logging.Nop{}).WithObserver(obs)

		assert.Panics(t, func() {
			_ = persistence.WithSession(ctx, provider, func(ctx context.Context, s persistence.Session) error {
				panic("handler exploded")
			})
		})
		assert.Equal(t, int32(1), obs.opened.Load())
		assert.Equal(t, int32(1), obs.closed.Load())
	})
}

func TestScope(t *testing.T) {
	db := newTestDB(t)
	obs := &countingObserver{}
	provider := persistence.NewProvider(db, logging.Nop{}).WithObserver(obs)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})
	app.Use(recover.New())
	app.Use(persistence.Scope(provider))

	insert := func(c *fiber.Ctx) error {
		s, err := persistence.SessionFrom(c)
		if err != nil {
			return err
		}
		_, err = s.DB().NewInsert().Model(&note{Body: c.Path()}).Exec(c.UserContext())
		return err
	}

	app.Post("/ok", func(c *fiber.Ctx) error {
		if err := insert(c); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Post("/fail", func(c *fiber.Ctx) error {
		if err := insert(c); err != nil {
			return err
		}
		return errors.New("handler failed")
	})
	app.Post("/notfound", func(c *fiber.Ctx) error {
		if err := insert(c); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNotFound)
	})
	app.Post("/panic", func(c *fiber.Ctx) error {
		if err := insert(c); err != nil {
			return err
		}
		panic("boom")
	})

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/ok", fiber.StatusCreated},
		{"/fail", fiber.StatusInternalServerError},
		{"/notfound", fiber.StatusNotFound},
		{"/panic", fiber.StatusInternalServerError},
	} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, tc.path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
	}

	assert.Equal(t, 1, countNotes(t, db))
	assert.Equal(t, int32(4), obs.opened.Load())
	assert.Equal(t, int32(4), obs.closed.Load())
	assert.Equal(t, int32(1), obs.committed.Load())
}

func TestSessionFromWithoutScope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := persistence.SessionFrom(c)
		assert.ErrorIs(t, err, persistence.ErrNoSession)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
