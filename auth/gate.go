package auth

import (
	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-errors"
)

// TokenValidator is the part of TokenService the gate needs
type TokenValidator interface {
	Validate(token string) (string, error)
}

// RejectionRecorder is notified with the internal reason a token was refused.
type RejectionRecorder func(reason string)

// Gate turns a raw bearer token into an identity claim. Every failure is
// reported as ErrUnauthorized.
type Gate struct {
	tokens   TokenValidator
	logger   logging.Logger
	onReject RejectionRecorder
}

// NewGate creates a Gate backed by tokens
func NewGate(tokens TokenValidator, logger logging.Logger) *Gate {
	return &Gate{
		tokens:   tokens,
		logger:   logging.Resolve("auth", logger),
		onReject: func(string) {},
	}
}

// OnReject sets the hook called for every refused token
func (g *Gate) OnReject(fn RejectionRecorder) *Gate {
	if fn != nil {
		g.onReject = fn
	}
	return g
}

// Authenticate validates raw and returns the identity claim it carries
func (g *Gate) Authenticate(raw string) (string, error) {
	if raw == "" {
		g.reject("missing_token", nil)
		return "", ErrUnauthorized
	}

	username, err := g.tokens.Validate(raw)
	if err != nil {
		g.reject(rejectionReason(err), err)
		return "", ErrUnauthorized
	}

	return username, nil
}

func (g *Gate) reject(reason string, err error) {
	g.logger.Debug("token refused", "reason", reason, "error", err)
	g.onReject(reason)
}

func rejectionReason(err error) string {
	if !IsTokenError(err) {
		return "unknown"
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode != "" {
		return richErr.TextCode
	}
	return "unknown"
}
