package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-blog/logging"
	"github.com/uptrace/bun"
)

// Auther exchanges credentials for access tokens
type Auther struct {
	provider     *UserProvider
	tokenService TokenService
	logger       logging.Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(provider *UserProvider, tokens TokenService) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: tokens,
		logger:       logging.Default("auth"),
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger logging.Logger) *Auther {
	s.logger = logging.Resolve("auth", logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates a new identity
func (s *Auther) Register(ctx context.Context, tx bun.IDB, username, password string) (*Identity, error) {
	identity, err := s.provider.Register(ctx, tx, username, password)
	if err != nil {
		return nil, err
	}
	s.emitAuthEvent(ctx, ActivityEventRegistered, identity.Username, nil)
	return identity, nil
}

// Login verifies the credentials and returns a signed token
func (s *Auther) Login(ctx context.Context, tx bun.IDB, username, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, tx, username, password)
	if err != nil {
		s.logger.Info("login verify identity error", "username", username, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, username, map[string]any{
			"error": err.Error(),
		})
		return "", err
	}

	token, err := s.tokenService.Generate(identity.Username)
	if err != nil {
		s.logger.Error("login token generation error", "username", username, "error", err)
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, identity.Username, nil)
	return token, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, username string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Username:   username,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}
