package views

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-errors"
	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
)

const (
	TaskTypeView = "blog:view"
	QueueName    = "views"
)

// QueueRecorder enqueues every view as an asynq task. It is meant to sit
// behind a Dispatcher so Redis latency never reaches the request path.
type QueueRecorder struct {
	client *asynq.Client
}

// NewQueueRecorder creates a QueueRecorder for the redis at redisURL
func NewQueueRecorder(redisURL string) (*QueueRecorder, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse view queue url")
	}
	return &QueueRecorder{client: asynq.NewClient(opt)}, nil
}

func (q *QueueRecorder) Record(ctx context.Context, v View) error {
	task, err := NewViewTask(v)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueName), asynq.MaxRetry(3)); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to enqueue view")
	}
	return nil
}

// Close releases the redis connection
func (q *QueueRecorder) Close() error {
	return q.client.Close()
}

// NewViewTask wraps v in an asynq task
func NewViewTask(v View) (*asynq.Task, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to encode view")
	}
	return asynq.NewTask(TaskTypeView, body), nil
}

// QueueWorker consumes view tasks and hands them to a Recorder
type QueueWorker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	recorder Recorder
	logger   logging.Logger
}

// NewQueueWorker creates a worker for the redis at redisURL
func NewQueueWorker(redisURL string, recorder Recorder, concurrency int, logger logging.Logger) (*QueueWorker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse view queue url")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	w := &QueueWorker{
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{QueueName: 1},
		}),
		mux:      asynq.NewServeMux(),
		recorder: recorder,
		logger:   logging.Resolve("views", logger),
	}
	w.mux.HandleFunc(TaskTypeView, w.HandleTask)
	return w, nil
}

// Start runs the worker in the background
func (w *QueueWorker) Start() {
	go func() {
		if err := w.server.Run(w.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			w.logger.Error("view worker stopped", "error", err)
		}
	}()
}

// Shutdown stops the worker
func (w *QueueWorker) Shutdown() {
	w.server.Shutdown()
}

// HandleTask decodes a view task and records it
func (w *QueueWorker) HandleTask(ctx context.Context, task *asynq.Task) error {
	var v View
	if err := json.Unmarshal(task.Payload(), &v); err != nil {
		w.logger.Error("dropping undecodable view task", "error", err)
		return fmt.Errorf("invalid view payload: %v: %w", err, asynq.SkipRetry)
	}
	return w.recorder.Record(ctx, v)
}

// ProbeQueue pings the redis behind redisURL
func ProbeQueue(ctx context.Context, redisURL string, timeout time.Duration) error {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse view queue url")
	}

	client := redis.NewClient(opt)
	defer client.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return ErrQueueUnreachable
	}
	return nil
}
