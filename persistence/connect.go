package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DefaultMaxRetries = 30
	DefaultRetryDelay = 2 * time.Second
)

// DatabaseConfig describes how to reach the database
type DatabaseConfig struct {
	URL          string
	MaxRetries   int
	RetryDelay   time.Duration
	MaxOpenConns int
}

// RetryPolicy bounds how long startup waits for the database
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

func (c DatabaseConfig) policy() RetryPolicy {
	p := RetryPolicy{MaxRetries: c.MaxRetries, Delay: c.RetryDelay}
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.Delay < 0 {
		p.Delay = DefaultRetryDelay
	}
	return p
}

// Do calls fn until it succeeds, MaxRetries attempts have failed, or ctx is
// done. It returns ErrUnavailable when the budget runs out.
func (p RetryPolicy) Do(ctx context.Context, logger logging.Logger, fn func(context.Context) error) error {
	logger = logging.Resolve("persistence", logger)

	attempts := p.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if lastErr = fn(ctx); lastErr == nil {
			if i > 1 {
				logger.Info("database is ready", "attempt", i)
			}
			return nil
		}

		logger.Warn("database not ready, retrying",
			"attempt", i,
			"max_retries", attempts,
			"error", lastErr,
		)

		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			logger.Error("database wait cancelled", "error", ctx.Err())
			return ErrUnavailable
		case <-time.After(p.Delay):
		}
	}

	logger.Error("could not connect to the database", "attempts", attempts, "error", lastErr)
	return ErrUnavailable
}

// Open builds a bun.DB for url without contacting the database. postgres
// URLs use pgx, sqlite and file URLs use the sqlite shim.
func Open(rawURL string) (*bun.DB, error) {
	driver, dsn, err := driverFor(rawURL)
	if err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open database")
	}

	switch driver {
	case sqliteshim.ShimName:
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}
}

// Connect opens the database and blocks until it answers a probe, retrying
// according to cfg.
func Connect(ctx context.Context, cfg DatabaseConfig, logger logging.Logger) (*bun.DB, error) {
	logger = logging.Resolve("persistence", logger)

	db, err := Open(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := cfg.policy().Do(ctx, logger, func(ctx context.Context) error {
		return Ping(ctx, db)
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("connected to the database", "driver", db.Dialect().Name().String())
	return db, nil
}

// Ping runs a trivial query against db
func Ping(ctx context.Context, db bun.IDB) error {
	var one int
	return db.NewRaw("SELECT 1").Scan(ctx, &one)
}

func driverFor(rawURL string) (driver, dsn string, err error) {
	switch {
	case rawURL == "":
		return "", "", errors.New("database url must not be empty", errors.CategoryBadInput)
	case rawURL == ":memory:", strings.HasPrefix(rawURL, "file:"):
		return sqliteshim.ShimName, rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Wrap(err, errors.CategoryBadInput, "invalid database url")
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return "pgx", rawURL, nil
	case "sqlite", "sqlite3":
		return sqliteshim.ShimName, strings.TrimPrefix(rawURL, u.Scheme+"://"), nil
	default:
		return "", "", errors.New(fmt.Sprintf("unsupported database scheme %q", u.Scheme), errors.CategoryBadInput)
	}
}
