package persistence

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUnavailable   = "storage_unavailable"
	TextCodeSessionClosed = "session_closed"
)

// ErrUnavailable is returned when the database cannot be reached
var ErrUnavailable = errors.New("storage is unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeUnavailable).
	WithCode(http.StatusServiceUnavailable)

// ErrSessionClosed is returned when a session is used after Close
var ErrSessionClosed = errors.New("session already closed", errors.CategoryInternal).
	WithTextCode(TextCodeSessionClosed).
	WithCode(errors.CodeInternal)

// ErrNoSession is returned when a handler runs outside a session scope
var ErrNoSession = errors.New("no session bound to request", errors.CategoryInternal).
	WithTextCode("session_missing").
	WithCode(errors.CodeInternal)
