// File: internal/repository/message/message_repository.go
package message

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrMessageNotFound = domain.NewNotFoundError("message_repository", "message not found")

// chronological is the message order within a chat; id breaks timestamp ties.
const chronological = "created_at ASC, id ASC"

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if err := r.validateMessageInput(message); err != nil {
		log.Error().Err(err).Str("component", "MessageRepository").Msg("Validation failed")
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		log.Error().Err(err).Str("component", "MessageRepository").Uint("chat_id", message.ChatID).Msg("Database error during message creation")
		return nil, fmt.Errorf("database error creating message: %w", err)
	}
	return message, nil
}

// CreateInBatch - bulk message creation, all messages are validated before the first insert
func (r *gormMessageRepository) CreateInBatch(ctx context.Context, messages []*domain.Message, batchSize int) error {
	if len(messages) == 0 {
		return nil
	}

	if batchSize <= 0 || batchSize > 1000 {
		batchSize = 100
	}

	for i, message := range messages {
		if err := r.validateMessageInput(message); err != nil {
			return fmt.Errorf("validation failed for message %d: %w", i, err)
		}
	}

	if err := r.db.WithContext(ctx).CreateInBatches(messages, batchSize).Error; err != nil {
		log.Error().Err(err).Str("component", "MessageRepository").Int("count", len(messages)).Msg("Batch creation failed")
		return fmt.Errorf("database error creating message batch: %w", err)
	}
	return nil
}

func (r *gormMessageRepository) FindByID(ctx context.Context, messageID uint) (*domain.Message, error) {
	if messageID == 0 {
		return nil, ErrMessageNotFound
	}

	var message domain.Message
	err := r.db.WithContext(ctx).First(&message, messageID).Error
	return r.handleFindError(err, &message, "FindByID")
}

// FindByChatID returns the chat's messages in chronological order.
func (r *gormMessageRepository) FindByChatID(ctx context.Context, chatID uint) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order(chronological).
		Find(&messages).Error
	if err != nil {
		log.Error().Err(err).Str("component", "MessageRepository").Uint("chat_id", chatID).Msg("Database error finding messages")
		return nil, fmt.Errorf("database error fetching messages: %w", err)
	}
	return messages, nil
}

func (r *gormMessageRepository) FindPinnedByChatID(ctx context.Context, chatID uint) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND is_pinned = ?", chatID, true).
		Order(chronological).
		Find(&messages).Error
	if err != nil {
		log.Error().Err(err).Str("component", "MessageRepository").Uint("chat_id", chatID).Msg("Database error finding pinned messages")
		return nil, fmt.Errorf("database error fetching pinned messages: %w", err)
	}
	return messages, nil
}

// FindLastByChatID returns the chronologically-last message, or nil when the chat is empty.
func (r *gormMessageRepository) FindLastByChatID(ctx context.Context, chatID uint) (*domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&messages).Error
	if err != nil {
		log.Error().Err(err).Str("component", "MessageRepository").Uint("chat_id", chatID).Msg("Database error finding last message")
		return nil, fmt.Errorf("database error fetching last message: %w", err)
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

func (r *gormMessageRepository) FindAll(ctx context.Context) ([]domain.Message, error) {
	var messages []domain.Message
	if err := r.db.WithContext(ctx).Order("chat_id ASC, " + chronological).Find(&messages).Error; err != nil {
		log.Error().Err(err).Str("component", "MessageRepository").Msg("Database error listing messages")
		return nil, fmt.Errorf("database error fetching messages: %w", err)
	}
	return messages, nil
}

func (r *gormMessageRepository) UpdateFields(ctx context.Context, messageID uint, fields map[string]interface{}) error {
	if messageID == 0 {
		return ErrMessageNotFound
	}
	if content, ok := fields["content"].(string); ok {
		if err := r.validateContent(content); err != nil {
			return err
		}
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", messageID).
		Updates(fields)
	if result.Error != nil {
		log.Error().Err(result.Error).Str("component", "MessageRepository").Uint("message_id", messageID).Msg("Database error updating message")
		return fmt.Errorf("database error updating message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Delete removes a message only if it belongs to the given chat.
func (r *gormMessageRepository) Delete(ctx context.Context, messageID, chatID uint) error {
	if messageID == 0 || chatID == 0 {
		return ErrMessageNotFound
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND chat_id = ?", messageID, chatID).
		Delete(&domain.Message{})
	if result.Error != nil {
		log.Error().Err(result.Error).Str("component", "MessageRepository").Uint("message_id", messageID).Uint("chat_id", chatID).Msg("Database error deleting message")
		return fmt.Errorf("database error deleting message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *gormMessageRepository) DeleteByChatIDs(ctx context.Context, chatIDs []uint) (int64, error) {
	if len(chatIDs) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Where("chat_id IN ?", chatIDs).
		Delete(&domain.Message{})
	if result.Error != nil {
		log.Error().Err(result.Error).Str("component", "MessageRepository").Int("count", len(chatIDs)).Msg("Database error in bulk delete")
		return 0, fmt.Errorf("database error in bulk message deletion: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormMessageRepository) UnpinAllByChatID(ctx context.Context, chatID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ? AND is_pinned = ?", chatID, true).
		Update("is_pinned", false)
	if result.Error != nil {
		log.Error().Err(result.Error).Str("component", "MessageRepository").Uint("chat_id", chatID).Msg("Database error unpinning messages")
		return 0, fmt.Errorf("database error unpinning messages: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormMessageRepository) CountByChatID(ctx context.Context, chatID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("chat_id = ?", chatID).Count(&count).Error
	if err != nil {
		log.Error().Err(err).Str("component", "MessageRepository").Uint("chat_id", chatID).Msg("Database error counting messages")
		return 0, fmt.Errorf("database error counting chat messages: %w", err)
	}
	return count, nil
}

// ===== VALIDATION HELPERS =====

func (r *gormMessageRepository) validateMessageInput(message *domain.Message) error {
	if message == nil {
		return domain.NewValidationError("message_repository", "message cannot be nil")
	}
	if message.ChatID == 0 {
		return domain.NewValidationError("message_repository", "chat ID is required")
	}
	return r.validateContent(message.Content)
}

func (r *gormMessageRepository) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.NewValidationError("message_repository", "message content cannot be empty")
	}
	return nil
}

func (r *gormMessageRepository) handleFindError(err error, message *domain.Message, operation string) (*domain.Message, error) {
	if err == nil {
		return message, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	log.Error().Err(err).Str("component", "MessageRepository").Str("operation", operation).Msg("database error")
	return nil, fmt.Errorf("database query failed: %w", err)
}
