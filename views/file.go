package views

import (
	"context"
	"os"
	"sync"

	"github.com/goliatone/go-errors"
)

// DefaultLogPath is where views are appended when nothing else is configured
const DefaultLogPath = "blog_views.log"

// FileRecorder appends one line per view to a file
type FileRecorder struct {
	mu   sync.Mutex
	path string
}

// NewFileRecorder creates a FileRecorder writing to path
func NewFileRecorder(path string) *FileRecorder {
	if path == "" {
		path = DefaultLogPath
	}
	return &FileRecorder{path: path}
}

// Path returns the file views are appended to
func (r *FileRecorder) Path() string {
	return r.path
}

func (r *FileRecorder) Record(_ context.Context, v View) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to open view log")
	}

	if _, err := f.WriteString(v.Line()); err != nil {
		_ = f.Close()
		return errors.Wrap(err, errors.CategoryInternal, "failed to write view log")
	}

	return f.Close()
}
