// File: internal/domain/message.go
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message represents a single note within a chat.
type Message struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	ChatID    uint      `json:"chatId" gorm:"not null;index"` // The ID of the chat this note belongs to
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	IsEdited  bool      `json:"isEdited" gorm:"not null"`
	IsPinned  bool      `json:"isPinned" gorm:"not null"`
}

func (m *Message) BeforeSave(tx *gorm.DB) error {
	if !m.CreatedAt.IsZero() {
		m.CreatedAt = m.CreatedAt.UTC()
	}
	return nil
}
