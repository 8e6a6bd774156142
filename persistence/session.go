package persistence

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Session is a unit of work bound to one request. Close must be called
// exactly once; it rolls back anything not committed.
type Session interface {
	DB() bun.IDB
	Commit() error
	Close() error
}

// Provider hands out sessions
type Provider interface {
	Acquire(ctx context.Context) (Session, error)
}

// Observer is told about session lifecycle events
type Observer interface {
	SessionOpened()
	SessionClosed(committed bool)
	SessionFailed()
}

type noopObserver struct{}

func (noopObserver) SessionOpened()     {}
func (noopObserver) SessionClosed(bool) {}
func (noopObserver) SessionFailed()     {}

// BunProvider opens a transaction per session on a shared bun.DB pool
type BunProvider struct {
	db       *bun.DB
	logger   logging.Logger
	observer Observer
}

// NewProvider creates a Provider backed by db
func NewProvider(db *bun.DB, logger logging.Logger) *BunProvider {
	return &BunProvider{
		db:       db,
		logger:   logging.Resolve("persistence", logger),
		observer: noopObserver{},
	}
}

// WithObserver sets the lifecycle observer
func (p *BunProvider) WithObserver(o Observer) *BunProvider {
	if o != nil {
		p.observer = o
	}
	return p
}

// DB returns the underlying pool
func (p *BunProvider) DB() *bun.DB {
	return p.db
}

// Acquire begins a transaction. It fails with ErrUnavailable when the
// database cannot be reached.
func (p *BunProvider) Acquire(ctx context.Context) (Session, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		p.logger.Error("failed to open session", "error", err)
		p.observer.SessionFailed()
		return nil, ErrUnavailable
	}
	p.observer.SessionOpened()
	return &txSession{tx: tx, logger: p.logger, observer: p.observer}, nil
}

type txSession struct {
	mu        sync.Mutex
	tx        bun.Tx
	closed    bool
	committed bool
	logger    logging.Logger
	observer  Observer
}

func (s *txSession) DB() bun.IDB {
	return s.tx
}

func (s *txSession) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.committed {
		return nil
	}
	if err := s.tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to commit session")
	}
	s.committed = true
	return nil
}

func (s *txSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	defer s.observer.SessionClosed(s.committed)

	if s.committed {
		return nil
	}
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.Error("failed to roll back session", "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "failed to roll back session")
	}
	return nil
}

// WithSession acquires a session, runs fn, commits when fn succeeds and
// always closes the session, also when fn panics.
func WithSession(ctx context.Context, p Provider, fn func(ctx context.Context, s Session) error) (err error) {
	s, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = fn(ctx, s); err != nil {
		return err
	}
	return s.Commit()
}
