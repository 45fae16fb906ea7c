package chat

import (
	"context"

	"github.com/iyunix/go-soliloquy/internal/domain"
)

// ChatRepository handles chat data operations.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, id uint) (*domain.Chat, error)
	FindByIDs(ctx context.Context, ids []uint) ([]domain.Chat, error)
	FindAll(ctx context.Context) ([]domain.Chat, error)
	FindGroup(ctx context.Context, pinned bool) ([]domain.Chat, error)
	MinOrder(ctx context.Context, pinned bool) (*int, error)
	MaxOrder(ctx context.Context, pinned bool) (*int, error)
	UpdateFields(ctx context.Context, chatID uint, fields map[string]interface{}) error
	Delete(ctx context.Context, chatID uint) error
	DeleteByIDs(ctx context.Context, chatIDs []uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}
