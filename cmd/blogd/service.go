package main

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/goliatone/go-blog/api"
	"github.com/goliatone/go-blog/auth"
	"github.com/goliatone/go-blog/config"
	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-blog/metrics"
	"github.com/goliatone/go-blog/persistence"
	"github.com/goliatone/go-blog/repository"
	"github.com/goliatone/go-blog/views"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
)

const queueProbeTimeout = 2 * time.Second

// service holds every long lived dependency of the process
type service struct {
	cfg     *config.Config
	logger  logging.Logger
	db      *bun.DB
	metrics *metrics.Metrics

	sessions *persistence.BunProvider
	repo     repository.Manager
	tokens   *auth.TokenServiceImpl
	auther   *auth.Auther
	gate     *auth.Gate

	dispatcher *views.Dispatcher
	queue      *views.QueueRecorder
	worker     *views.QueueWorker
}

func newService(ctx context.Context, cfg *config.Config, logger logging.Logger) (*service, error) {
	if cfg.Debug {
		logger.Debug("configuration", "config", print.MaybePrettyJSON(cfg.Redacted()))
	}

	db, err := persistence.Connect(ctx, cfg.Database(), logger)
	if err != nil {
		return nil, err
	}

	if err := persistence.CreateSchema(ctx, db, repository.Models()...); err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &service{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(metrics.DefaultNamespace),
		repo:    repository.NewRepositoryManager(db),
		tokens:  tokens,
	}
	s.repo.MustValidate()

	s.sessions = persistence.NewProvider(db, logger).WithObserver(s.metrics)

	users := auth.NewUserProvider(s.repo.Users(), auth.NewBcrypt(cfg.BcryptCost), logger)
	s.auther = auth.NewAuthenticator(users, tokens).
		WithLogger(logger).
		WithActivitySink(s.metrics)
	s.gate = auth.NewGate(tokens, logger).OnReject(s.metrics.TokenRejected)

	s.dispatcher = views.NewDispatcher(s.viewRecorder(ctx),
		views.WithBufferSize(cfg.ViewsBuffer),
		views.WithWorkers(cfg.ViewsWorkers),
		views.WithObserver(s.metrics),
		views.WithLogger(logger),
	)

	return s, nil
}

// viewRecorder picks the redis queue when it answers and the local log
// file otherwise. The queue worker writes to the same file.
func (s *service) viewRecorder(ctx context.Context) views.Recorder {
	file := views.NewFileRecorder(s.cfg.ViewsLogPath)

	queueURL := s.cfg.ViewsQueueURL
	if queueURL == "" {
		return file
	}

	if err := views.ProbeQueue(ctx, queueURL, queueProbeTimeout); err != nil {
		s.logger.Warn("view queue unreachable, writing views locally", "error", err)
		return file
	}

	queue, err := views.NewQueueRecorder(queueURL)
	if err != nil {
		s.logger.Warn("view queue disabled", "error", err)
		return file
	}

	worker, err := views.NewQueueWorker(queueURL, file, s.cfg.ViewsWorkers, s.logger)
	if err != nil {
		_ = queue.Close()
		s.logger.Warn("view queue disabled", "error", err)
		return file
	}
	worker.Start()

	s.queue = queue
	s.worker = worker
	s.logger.Info("recording views through the queue", "file", file.Path())
	return queue
}

func (s *service) apiConfig() api.Config {
	return api.Config{
		Debug:              s.cfg.Debug,
		Logger:             s.logger,
		Sessions:           s.sessions,
		Repo:               s.repo,
		Auther:             s.auther,
		Gate:               s.gate,
		Notifier:           s.dispatcher,
		Metrics:            s.metrics,
		CreateRequiresAuth: s.cfg.BlogCreateRequiresAuth,
		DefaultOwnerID:     s.cfg.BlogDefaultOwnerID,
		Pingers: []api.Pinger{
			func(ctx context.Context) error { return persistence.Ping(ctx, s.db) },
		},
	}
}

// Close drains pending views before releasing the queue and the database
func (s *service) Close(ctx context.Context) error {
	var errs []error

	if s.dispatcher != nil {
		if err := s.dispatcher.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if s.worker != nil {
		s.worker.Shutdown()
	}

	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}

	return stderrors.Join(errs...)
}
