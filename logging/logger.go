package logging

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// Logger is the logging surface every package in this module accepts.
// Messages are followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Resolve returns l, or a default logger tagged with name when l is nil.
func Resolve(name string, l Logger) Logger {
	if l != nil {
		return l
	}
	return Default(name)
}

// Default returns the console logger used when nothing else is configured.
func Default(name string) Logger {
	return defLogger{name: strings.ToUpper(name)}
}

type defLogger struct {
	name string
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Fprint(os.Stderr, d.line("ERR", msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Fprint(os.Stderr, d.line("WRN", msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(d.line("INF", msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print(d.line("DBG", msg, args...))
}

func (d defLogger) line(level, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString("[" + level + "] ")
	if d.name != "" {
		b.WriteString(d.name + " ")
	}
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

type logrLogger struct {
	l logr.Logger
}

// FromLogr adapts a logr.Logger. Debug maps to V(1) and Warn to V(0) with a
// level key, since logr has no warn level.
func FromLogr(l logr.Logger) Logger {
	if l.GetSink() == nil {
		l = logr.Discard()
	}
	return logrLogger{l: l}
}

func (g logrLogger) Debug(msg string, args ...any) {
	g.l.V(1).Info(msg, args...)
}

func (g logrLogger) Info(msg string, args ...any) {
	g.l.Info(msg, args...)
}

func (g logrLogger) Warn(msg string, args ...any) {
	g.l.Info(msg, append([]any{"level", "warn"}, args...)...)
}

func (g logrLogger) Error(msg string, args ...any) {
	var err error
	rest := make([]any, 0, len(args))
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) && args[i] == "error" {
			if e, ok := args[i+1].(error); ok && err == nil {
				err = e
				continue
			}
		}
		rest = append(rest, args[i])
		if i+1 < len(args) {
			rest = append(rest, args[i+1])
		}
	}
	g.l.Error(err, msg, rest...)
}

// NewStd builds a stdr backed Logger named name. verbosity controls which
// V levels are emitted; 1 enables Debug.
func NewStd(name string, verbosity int) Logger {
	stdr.SetVerbosity(verbosity)
	l := stdr.NewWithOptions(log.New(os.Stderr, "", log.LstdFlags), stdr.Options{LogCaller: stdr.None})
	return FromLogr(l.WithName(name))
}
