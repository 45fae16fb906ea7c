package services

import (
	"context"
	"time"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/metrics"
	"github.com/iyunix/go-soliloquy/internal/services/conversation"
	"github.com/iyunix/go-soliloquy/internal/services/directory"
	"github.com/iyunix/go-soliloquy/internal/store"
)

// ChatService bundles the chat directory and the conversation service over
// one store, the way the HTTP layer and the commands consume them.
type ChatService struct {
	Directory    *directory.Service
	Conversation *conversation.Service

	store   *store.Store
	metrics *metrics.Metrics
	logger  Logger
}

func NewChatService(
	st *store.Store,
	directoryConfig *directory.Config,
	conversationConfig *conversation.Config,
	m *metrics.Metrics,
	logger Logger,
) (*ChatService, error) {
	// Validate dependencies
	if st == nil {
		return nil, domain.NewValidationError("constructor", "store is required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	var dirObserver directory.Observer
	if m != nil {
		dirObserver = m
	}
	dirService, err := directory.NewService(st, directoryConfig, logger, dirObserver)
	if err != nil {
		return nil, err
	}
	convService, err := conversation.NewService(st, conversationConfig, logger)
	if err != nil {
		return nil, err
	}

	return &ChatService{
		Directory:    dirService,
		Conversation: convService,
		store:        st,
		metrics:      m,
		logger:       logger,
	}, nil
}

// Bootstrap migrates the schema and, when asked, seeds a brand new database.
func (s *ChatService) Bootstrap(ctx context.Context, seed bool) error {
	if err := s.store.Migrate(ctx); err != nil {
		return err
	}
	if !seed {
		return nil
	}
	seeded, err := s.store.SeedIfEmpty(ctx, time.Now())
	if err != nil {
		return err
	}
	if seeded {
		s.logger.Info("first run, welcome chats created")
	}
	return nil
}

// LiveOptions names a live query and attaches logging and metrics to it.
func (s *ChatService) LiveOptions(name string) []live.Option {
	opts := []live.Option{live.WithName(name), live.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, live.WithObserver(s.metrics))
	}
	return opts
}

// NewSession opens the chat window state used by the local API.
func (s *ChatService) NewSession(ctx context.Context) *conversation.Session {
	return s.Conversation.NewSession(ctx, s.LiveOptions("session_messages")...)
}

func (s *ChatService) Audit(ctx context.Context) ([]store.Violation, error) {
	return s.store.Audit(ctx)
}

// Shutdown writes pending drafts and stops the draft timers.
func (s *ChatService) Shutdown() {
	if n := s.Conversation.FlushDrafts(); n > 0 {
		s.logger.Info("pending drafts flushed", "count", n)
	}
	s.Conversation.Close()
}
