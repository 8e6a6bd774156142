package views

import "github.com/goliatone/go-errors"

var errRecorderPanic = errors.New("view recorder panicked", errors.CategoryInternal)

// ErrQueueUnreachable is returned when the view queue broker does not answer
var ErrQueueUnreachable = errors.New("view queue is unreachable", errors.CategoryOperation).
	WithTextCode("view_queue_unreachable")
