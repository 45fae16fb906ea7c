package store

import (
	"context"
	"fmt"

	"github.com/iyunix/go-soliloquy/internal/domain"
)

type ViolationKind string

const (
	ViolationOrphanMessage  ViolationKind = "orphan_message"
	ViolationPreviewText    ViolationKind = "preview_text"
	ViolationDuplicateOrder ViolationKind = "duplicate_order"
)

// Violation describes one broken cross-table invariant.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	ChatID    uint          `json:"chatId"`
	MessageID uint          `json:"messageId,omitempty"`
	Detail    string        `json:"detail"`
}

// Audit checks, in one snapshot, that no message is orphaned, that every
// user chat previews its last message and that manual orders are unique within
// the pinned and regular groups. System chats carry a curated preview and are
// exempt from the preview check.
func (s *Store) Audit(ctx context.Context) ([]Violation, error) {
	var violations []Violation

	err := s.View(ctx, func(tx *Tx) error {
		chats, err := tx.Chats.FindAll(ctx)
		if err != nil {
			return err
		}
		messages, err := tx.Messages.FindAll(ctx)
		if err != nil {
			return err
		}

		byID := make(map[uint]domain.Chat, len(chats))
		for _, c := range chats {
			byID[c.ID] = c
		}

		// messages are ordered by chat then chronologically, so the last one seen wins
		last := make(map[uint]domain.Message)
		for _, m := range messages {
			if _, ok := byID[m.ChatID]; !ok {
				violations = append(violations, Violation{Kind: ViolationOrphanMessage, ChatID: m.ChatID, MessageID: m.ID, Detail: "message references a missing chat"})
				continue
			}
			last[m.ChatID] = m
		}

		seen := map[domain.ChatGroup]map[int]uint{
			domain.GroupPinned:  {},
			domain.GroupRegular: {},
		}
		for _, c := range chats {
			if c.IsSystem {
				continue
			}
			want := ""
			if m, ok := last[c.ID]; ok {
				want = m.Content
			}
			if c.PreviewText != want {
				violations = append(violations, Violation{Kind: ViolationPreviewText, ChatID: c.ID, Detail: "preview text does not match the last message"})
			}
			if c.Order == nil {
				continue
			}
			group := seen[c.Group()]
			if other, dup := group[*c.Order]; dup {
				violations = append(violations, Violation{Kind: ViolationDuplicateOrder, ChatID: c.ID, Detail: fmt.Sprintf("order %d shared with chat %d in the %s group", *c.Order, other, c.Group())})
				continue
			}
			group[*c.Order] = c.ID
		}
		return nil
	})
	return violations, err
}
