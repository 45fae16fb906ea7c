package store

import (
	"context"
	"time"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
)

const (
	SystemChatTitle  = "Soliloquy Info"
	DefaultChatTitle = "Notes"
)

var onboardingNotes = []string{
	"# Welcome to Soliloquy\n\nA local-first space for your thoughts, written as a monologue with yourself.\n\nEverything you write here lives **only** in your local database. No servers, no tracking.",
	"### **Controls Guide**\n\n- **New Note:** create a thread from the sidebar.\n- **Pin, Edit, Delete:** available on every note and thread.\n- **Pinned Navigation:** the pinned bar cycles through pinned notes, newest first.",
	"### **Markdown Support**\n\n- **Bold**: `**text**`\n- *Italic*: `*text*`\n- [Links](https://example.com): `[Link](url)`\n\n> Blockquotes highlight ideas (`> text`)",
	"### **About**\n\nExport any thread as JSON or Markdown and import it back later.\n\n*Note: This is a system chat (read-only).*",
}

// SeedIfEmpty populates a brand new database with the read-only system chat
// and the default notes chat. It reports whether anything was inserted.
func (s *Store) SeedIfEmpty(ctx context.Context, now time.Time) (bool, error) {
	seeded := false
	err := s.Update(ctx, "seed", []live.Table{live.Chats, live.Messages}, func(tx *Tx) error {
		count, err := tx.Chats.Count(ctx)
		if err != nil || count > 0 {
			return err
		}

		system, err := tx.Chats.Create(ctx, &domain.Chat{
			Title:        SystemChatTitle,
			IsPinned:     true,
			IsSystem:     true,
			CreatedAt:    now,
			LastModified: now,
			PreviewText:  "Contacts, Roadmap & Guide",
		})
		if err != nil {
			return err
		}

		notes := make([]*domain.Message, 0, len(onboardingNotes))
		for i, content := range onboardingNotes {
			age := time.Duration(len(onboardingNotes)-1-i) * 5 * time.Second
			notes = append(notes, &domain.Message{
				ChatID:    system.ID,
				Content:   content,
				CreatedAt: now.Add(-age),
				IsPinned:  i == 0,
			})
		}
		if err := tx.Messages.CreateInBatch(ctx, notes, len(notes)); err != nil {
			return err
		}

		const welcome = "Your first note space."
		order := 0
		defaultChat, err := tx.Chats.Create(ctx, &domain.Chat{
			Title:        DefaultChatTitle,
			Order:        &order,
			CreatedAt:    now,
			LastModified: now,
			PreviewText:  welcome,
		})
		if err != nil {
			return err
		}
		if _, err := tx.Messages.Create(ctx, &domain.Message{ChatID: defaultChat.ID, Content: welcome, CreatedAt: now}); err != nil {
			return err
		}

		seeded = true
		return nil
	})
	if err == nil && seeded {
		s.logger.Info("seeded first-run chats")
	}
	return seeded, err
}
