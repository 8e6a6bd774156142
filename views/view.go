package views

import (
	"context"
	"fmt"
	"time"
)

// View is one successful read of a blog entry
type View struct {
	BlogID   int64     `json:"blog_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// Line renders v the way the view log stores it
func (v View) Line() string {
	return fmt.Sprintf("[%s] Blog %d viewed by %s\n", v.At.Format(time.ANSIC), v.BlogID, v.Username)
}

// Notifier accepts views without blocking the caller. It never fails.
type Notifier interface {
	Notify(ctx context.Context, v View)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, v View)

// Notify implements Notifier
func (f NotifierFunc) Notify(ctx context.Context, v View) {
	if f != nil {
		f(ctx, v)
	}
}

// Recorder persists a view somewhere. It may block.
type Recorder interface {
	Record(ctx context.Context, v View) error
}

// RecorderFunc adapts a function to the Recorder interface
type RecorderFunc func(ctx context.Context, v View) error

// Record implements Recorder
func (f RecorderFunc) Record(ctx context.Context, v View) error {
	return f(ctx, v)
}

// Observer is told what happened to each view
type Observer interface {
	ViewQueued()
	ViewDropped()
	ViewRecorded(err error)
}

type noopObserver struct{}

func (noopObserver) ViewQueued()        {}
func (noopObserver) ViewDropped()       {}
func (noopObserver) ViewRecorded(error) {}

// Nop discards every view
var Nop Notifier = NotifierFunc(func(context.Context, View) {})
