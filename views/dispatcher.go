package views

import (
	"context"
	"sync"

	"github.com/goliatone/go-blog/logging"
)

const (
	DefaultBufferSize = 256
	DefaultWorkers    = 1
)

// Dispatcher hands views to a Recorder on background workers. Notify never
// blocks: when the buffer is full the view is dropped.
type Dispatcher struct {
	recorder Recorder
	logger   logging.Logger
	observer Observer
	workers  int

	mu     sync.RWMutex
	queue  chan View
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithBufferSize sets how many views may wait for a worker
func WithBufferSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan View, n)
		}
	}
}

// WithWorkers sets the number of background workers
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithObserver sets the observer notified for every view
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logging.Resolve("views", l)
	}
}

// NewDispatcher creates a Dispatcher and starts its workers
func NewDispatcher(recorder Recorder, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		recorder: recorder,
		logger:   logging.Default("views"),
		observer: noopObserver{},
		workers:  DefaultWorkers,
		queue:    make(chan View, DefaultBufferSize),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}

	return d
}

// Notify queues v for recording
func (d *Dispatcher) Notify(_ context.Context, v View) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("view dropped, dispatcher closed", "blog_id", v.BlogID)
		d.observer.ViewDropped()
		return
	}

	select {
	case d.queue <- v:
		d.observer.ViewQueued()
	default:
		d.logger.Warn("view dropped, buffer full", "blog_id", v.BlogID, "username", v.Username)
		d.observer.ViewDropped()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for v := range d.queue {
		err := d.record(v)
		if err != nil {
			d.logger.Error("failed to record view", "blog_id", v.BlogID, "error", err)
		}
		d.observer.ViewRecorded(err)
	}
}

func (d *Dispatcher) record(v View) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("view recorder panicked", "panic", r)
			err = errRecorderPanic
		}
	}()
	return d.recorder.Record(context.Background(), v)
}

// Close stops accepting views and waits for queued ones to be recorded or
// for ctx to be done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
