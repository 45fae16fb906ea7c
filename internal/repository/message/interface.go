// File: internal/repository/message/interface.go
package message

import (
	"context"

	"github.com/iyunix/go-soliloquy/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	CreateInBatch(ctx context.Context, messages []*domain.Message, batchSize int) error
	FindByID(ctx context.Context, messageID uint) (*domain.Message, error)
	FindByChatID(ctx context.Context, chatID uint) ([]domain.Message, error)
	FindPinnedByChatID(ctx context.Context, chatID uint) ([]domain.Message, error)
	FindLastByChatID(ctx context.Context, chatID uint) (*domain.Message, error)
	FindAll(ctx context.Context) ([]domain.Message, error)
	UpdateFields(ctx context.Context, messageID uint, fields map[string]interface{}) error
	Delete(ctx context.Context, messageID, chatID uint) error
	DeleteByChatIDs(ctx context.Context, chatIDs []uint) (int64, error)
	UnpinAllByChatID(ctx context.Context, chatID uint) (int64, error)
	CountByChatID(ctx context.Context, chatID uint) (int64, error)
}
