// File: internal/repository/chat/chat_repository.go
package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrChatNotFound = domain.NewNotFoundError("chat_repository", "chat not found")

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

// Create inserts a chat after validating its title.
func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if err := r.validateChatInput(chat); err != nil {
		log.Error().Err(err).Str("component", "ChatRepository").Msg("Validation failed")
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		log.Error().Err(err).Str("component", "ChatRepository").Msg("Database error during chat creation")
		return nil, fmt.Errorf("database error creating chat: %w", err)
	}
	return chat, nil
}

func (r *gormChatRepository) FindByID(ctx context.Context, chatID uint) (*domain.Chat, error) {
	if chatID == 0 {
		return nil, ErrChatNotFound
	}

	var chat domain.Chat
	err := r.db.WithContext(ctx).First(&chat, chatID).Error
	return r.handleFindError(err, &chat, "FindByID")
}

// FindByIDs silently skips ids that do not exist.
func (r *gormChatRepository) FindByIDs(ctx context.Context, chatIDs []uint) ([]domain.Chat, error) {
	if len(chatIDs) == 0 {
		return nil, nil
	}

	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("id IN ?", chatIDs).
		Order("id ASC").
		Find(&chats).Error
	if err != nil {
		log.Error().Err(err).Str("component", "ChatRepository").Int("count", len(chatIDs)).Msg("Database error finding chats by id")
		return nil, fmt.Errorf("database error fetching chats: %w", err)
	}
	return chats, nil
}

// FindAll returns every chat in insertion order. Display ordering is applied by the directory.
func (r *gormChatRepository) FindAll(ctx context.Context) ([]domain.Chat, error) {
	var chats []domain.Chat
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&chats).Error; err != nil {
		log.Error().Err(err).Str("component", "ChatRepository").Msg("Database error listing chats")
		return nil, fmt.Errorf("database error fetching chats: %w", err)
	}
	return chats, nil
}

// FindGroup returns the non-system chats of the pinned or regular group.
func (r *gormChatRepository) FindGroup(ctx context.Context, pinned bool) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("is_system = ? AND is_pinned = ?", false, pinned).
		Order("id ASC").
		Find(&chats).Error
	if err != nil {
		log.Error().Err(err).Str("component", "ChatRepository").Bool("pinned", pinned).Msg("Database error loading chat group")
		return nil, fmt.Errorf("database error fetching chat group: %w", err)
	}
	return chats, nil
}

func (r *gormChatRepository) MinOrder(ctx context.Context, pinned bool) (*int, error) {
	return r.aggregateOrder(ctx, "MIN", pinned)
}

func (r *gormChatRepository) MaxOrder(ctx context.Context, pinned bool) (*int, error) {
	return r.aggregateOrder(ctx, "MAX", pinned)
}

// aggregateOrder returns nil when no chat of the group has an order yet.
func (r *gormChatRepository) aggregateOrder(ctx context.Context, fn string, pinned bool) (*int, error) {
	var value sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Select(fn+"(sort_order)").
		Where("is_system = ? AND is_pinned = ? AND sort_order IS NOT NULL", false, pinned).
		Scan(&value).Error
	if err != nil {
		log.Error().Err(err).Str("component", "ChatRepository").Str("aggregate", fn).Msg("Database error computing order")
		return nil, fmt.Errorf("database error computing chat order: %w", err)
	}
	if !value.Valid {
		return nil, nil
	}
	order := int(value.Int64)
	return &order, nil
}

// UpdateFields applies a partial update and fails with ErrChatNotFound if the row is gone.
func (r *gormChatRepository) UpdateFields(ctx context.Context, chatID uint, fields map[string]interface{}) error {
	if chatID == 0 {
		return ErrChatNotFound
	}
	if len(fields) == 0 {
		return nil
	}
	if title, ok := fields["title"].(string); ok {
		if err := r.validateChatTitle(title); err != nil {
			return err
		}
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Updates(fields)
	if result.Error != nil {
		log.Error().Err(result.Error).Str("component", "ChatRepository").Uint("chat_id", chatID).Msg("Database error updating chat")
		return fmt.Errorf("database error updating chat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *gormChatRepository) Delete(ctx context.Context, chatID uint) error {
	if chatID == 0 {
		return ErrChatNotFound
	}

	result := r.db.WithContext(ctx).Delete(&domain.Chat{}, chatID)
	if result.Error != nil {
		log.Error().Err(result.Error).Str("component", "ChatRepository").Uint("chat_id", chatID).Msg("Database error deleting chat")
		return fmt.Errorf("database error deleting chat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

// DeleteByIDs - bulk deletion, returns the number of removed rows
func (r *gormChatRepository) DeleteByIDs(ctx context.Context, chatIDs []uint) (int64, error) {
	if len(chatIDs) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Where("id IN ?", chatIDs).
		Delete(&domain.Chat{})
	if result.Error != nil {
		log.Error().Err(result.Error).Str("component", "ChatRepository").Int("count", len(chatIDs)).Msg("Database error in bulk delete of chats")
		return 0, fmt.Errorf("database error in bulk chat deletion: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormChatRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Chat{}).Count(&count).Error; err != nil {
		log.Error().Err(err).Str("component", "ChatRepository").Msg("Database error counting chats")
		return 0, fmt.Errorf("database error counting chats: %w", err)
	}
	return count, nil
}

// ===== VALIDATION HELPERS =====

func (r *gormChatRepository) validateChatInput(chat *domain.Chat) error {
	if chat == nil {
		return domain.NewValidationError("chat_repository", "chat cannot be nil")
	}
	return r.validateChatTitle(chat.Title)
}

func (r *gormChatRepository) validateChatTitle(title string) error {
	if title == "" {
		return domain.NewValidationError("chat_repository", "title is required")
	}
	if len(title) > 500 {
		return domain.NewValidationError("chat_repository", "title must be 500 characters or less")
	}
	return nil
}

// handleFindError maps gorm's not-found error onto the domain taxonomy.
func (r *gormChatRepository) handleFindError(err error, chat *domain.Chat, operation string) (*domain.Chat, error) {
	if err == nil {
		return chat, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}

	log.Error().Err(err).Str("component", "ChatRepository").Str("operation", operation).Msg("database error")
	return nil, fmt.Errorf("database query failed: %w", err)
}
