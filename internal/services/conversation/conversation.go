// Package conversation manages the notes of one chat: sending, editing,
// deleting and pinning them, per-chat drafts, and the derived pin
// navigation, search and date jump state.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/store"
)

type Service struct {
	config *Config
	store  *store.Store
	logger Logger
	drafts *draftDebouncer
}

func NewService(st *store.Store, config *Config, logger Logger) (*Service, error) {
	if st == nil {
		return nil, domain.NewValidationError("conversation_constructor", "store is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, domain.NewValidationError("conversation_config", err.Error())
	}
	if logger == nil {
		logger = noopLogger{}
	}

	s := &Service{config: config, store: st, logger: logger}
	s.drafts = newDraftDebouncer(config.DraftDebounce, s.persistDraft)
	return s, nil
}

func (s *Service) now() time.Time { return s.config.Clock() }

// Messages returns the chat's notes in chronological order.
func (s *Service) Messages(ctx context.Context, chatID uint) ([]domain.Message, error) {
	if chatID == 0 {
		return nil, nil
	}
	return s.store.Messages().FindByChatID(ctx, chatID)
}

// Watch keeps the message list of the currently bound chat live.
func (s *Service) Watch(ctx context.Context, opts ...live.Option) *live.Binding[uint, []domain.Message] {
	return live.Bind(ctx, s.store.Bus(), []live.Table{live.Messages}, s.Messages, opts...)
}

// SendOrUpdate appends a note, or rewrites the note editingID when it is
// non-zero. Blank text is ignored and returns a nil message.
func (s *Service) SendOrUpdate(ctx context.Context, chatID uint, text string, editingID uint) (*domain.Message, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return nil, nil
	}
	// a pending draft must not resurrect text that was just sent
	s.drafts.Cancel(chatID)

	if editingID != 0 {
		return s.edit(ctx, chatID, editingID, content)
	}

	now := s.now()
	var sent *domain.Message
	err := s.store.Update(ctx, "send_message", []live.Table{live.Chats, live.Messages}, func(tx *store.Tx) error {
		if _, err := s.writableChat(ctx, tx, chatID, "send_message"); err != nil {
			return err
		}
		msg, err := tx.Messages.Create(ctx, &domain.Message{ChatID: chatID, Content: content, CreatedAt: now})
		if err != nil {
			return err
		}
		sent = msg
		return tx.Chats.UpdateFields(ctx, chatID, map[string]interface{}{
			"last_modified": now.UTC(),
			"preview_text":  content,
			"draft":         "",
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("message sent", "chat_id", chatID, "message_id", sent.ID)
	return sent, nil
}

func (s *Service) edit(ctx context.Context, chatID, messageID uint, content string) (*domain.Message, error) {
	now := s.now()
	var edited *domain.Message
	err := s.store.Update(ctx, "edit_message", []live.Table{live.Chats, live.Messages}, func(tx *store.Tx) error {
		if _, err := s.writableChat(ctx, tx, chatID, "edit_message"); err != nil {
			return err
		}
		msg, err := s.messageInChat(ctx, tx, chatID, messageID, "edit_message")
		if err != nil {
			return err
		}
		if err := tx.Messages.UpdateFields(ctx, messageID, map[string]interface{}{"content": content, "is_edited": true}); err != nil {
			return err
		}
		msg.Content = content
		msg.IsEdited = true
		edited = msg

		fields := map[string]interface{}{"last_modified": now.UTC()}
		last, err := tx.Messages.FindLastByChatID(ctx, chatID)
		if err != nil {
			return err
		}
		if last != nil && last.ID == messageID {
			fields["preview_text"] = content
		}
		return tx.Chats.UpdateFields(ctx, chatID, fields)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("message edited", "chat_id", chatID, "message_id", messageID)
	return edited, nil
}

// DeleteMessage removes one note and re-derives the chat preview from the
// note that is now last.
func (s *Service) DeleteMessage(ctx context.Context, chatID, messageID uint) error {
	now := s.now()
	return s.store.Update(ctx, "delete_message", []live.Table{live.Chats, live.Messages}, func(tx *store.Tx) error {
		if _, err := s.writableChat(ctx, tx, chatID, "delete_message"); err != nil {
			return err
		}
		if err := tx.Messages.Delete(ctx, messageID, chatID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewMessageNotFoundError("delete_message", chatID, messageID)
			}
			return err
		}
		return s.refreshPreview(ctx, tx, chatID, now)
	})
}

func (s *Service) refreshPreview(ctx context.Context, tx *store.Tx, chatID uint, now time.Time) error {
	last, err := tx.Messages.FindLastByChatID(ctx, chatID)
	if err != nil {
		return err
	}
	preview := ""
	if last != nil {
		preview = last.Content
	}
	return tx.Chats.UpdateFields(ctx, chatID, map[string]interface{}{
		"preview_text":  preview,
		"last_modified": now.UTC(),
	})
}

// TogglePinMessage flips the pin of one note. The chat's own pin is unaffected.
func (s *Service) TogglePinMessage(ctx context.Context, messageID uint) (*domain.Message, error) {
	var toggled *domain.Message
	err := s.store.Update(ctx, "toggle_pin_message", []live.Table{live.Messages}, func(tx *store.Tx) error {
		msg, err := tx.Messages.FindByID(ctx, messageID)
		if err != nil {
			return err
		}
		if _, err := s.writableChat(ctx, tx, msg.ChatID, "toggle_pin_message"); err != nil {
			return err
		}
		msg.IsPinned = !msg.IsPinned
		toggled = msg
		return tx.Messages.UpdateFields(ctx, messageID, map[string]interface{}{"is_pinned": msg.IsPinned})
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// UnpinAll clears every note pin of the chat and returns how many were pinned.
func (s *Service) UnpinAll(ctx context.Context, chatID uint) (int64, error) {
	var unpinned int64
	err := s.store.Update(ctx, "unpin_all", []live.Table{live.Messages}, func(tx *store.Tx) error {
		if _, err := s.writableChat(ctx, tx, chatID, "unpin_all"); err != nil {
			return err
		}
		var err error
		unpinned, err = tx.Messages.UnpinAllByChatID(ctx, chatID)
		return err
	})
	return unpinned, err
}

// ClearHistory deletes every note of the chat but keeps the chat itself.
func (s *Service) ClearHistory(ctx context.Context, chatID uint) error {
	s.drafts.Cancel(chatID)
	now := s.now()
	err := s.store.Update(ctx, "clear_history", []live.Table{live.Chats, live.Messages}, func(tx *store.Tx) error {
		if _, err := s.writableChat(ctx, tx, chatID, "clear_history"); err != nil {
			return err
		}
		if _, err := tx.Messages.DeleteByChatIDs(ctx, []uint{chatID}); err != nil {
			return err
		}
		return tx.Chats.UpdateFields(ctx, chatID, map[string]interface{}{
			"preview_text":  "",
			"draft":         "",
			"last_modified": now.UTC(),
		})
	})
	if err == nil {
		s.logger.Info("chat history cleared", "chat_id", chatID)
	}
	return err
}

// writableChat loads the chat and rejects system chats.
func (s *Service) writableChat(ctx context.Context, tx *store.Tx, chatID uint, operation string) (*domain.Chat, error) {
	chat, err := tx.Chats.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewChatNotFoundError(operation, chatID)
		}
		return nil, err
	}
	if chat.IsSystem {
		return nil, domain.NewSystemChatError(operation, chatID)
	}
	return chat, nil
}

func (s *Service) messageInChat(ctx context.Context, tx *store.Tx, chatID, messageID uint, operation string) (*domain.Message, error) {
	msg, err := tx.Messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewMessageNotFoundError(operation, chatID, messageID)
		}
		return nil, err
	}
	if msg.ChatID != chatID {
		return nil, domain.NewMessageNotFoundError(operation, chatID, messageID)
	}
	return msg, nil
}
