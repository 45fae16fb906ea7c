// File: internal/domain/chat.go
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Chat represents a single note thread in the sidebar.
type Chat struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	Title        string    `json:"title" gorm:"not null"`
	IsPinned     bool      `json:"isPinned" gorm:"not null;index"`
	IsSystem     bool      `json:"isSystem" gorm:"not null"`
	Order        *int      `json:"order,omitempty" gorm:"column:sort_order"` // manual sort key inside the pinned or regular group
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified" gorm:"index"`
	PreviewText  string    `json:"previewText"`
	Draft        string    `json:"draft,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	Color        string    `json:"color,omitempty"`
}

// ChatGroup identifies the sidebar section a chat is listed in.
type ChatGroup int

const (
	GroupSystem ChatGroup = iota
	GroupPinned
	GroupRegular
)

func (g ChatGroup) String() string {
	switch g {
	case GroupSystem:
		return "system"
	case GroupPinned:
		return "pinned"
	default:
		return "regular"
	}
}

// Group returns the ordering namespace of the chat.
func (c *Chat) Group() ChatGroup {
	switch {
	case c.IsSystem:
		return GroupSystem
	case c.IsPinned:
		return GroupPinned
	default:
		return GroupRegular
	}
}

// Orderable reports whether the chat takes part in manual ordering.
func (c *Chat) Orderable() bool {
	return !c.IsSystem
}

// BeforeSave keeps timestamps in UTC so that text-stored times sort chronologically.
func (c *Chat) BeforeSave(tx *gorm.DB) error {
	if !c.CreatedAt.IsZero() {
		c.CreatedAt = c.CreatedAt.UTC()
	}
	if !c.LastModified.IsZero() {
		c.LastModified = c.LastModified.UTC()
	}
	return nil
}
