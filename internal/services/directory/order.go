package directory

import (
	"context"
	"math"
	"sort"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/store"
)

// SortChats puts chats in sidebar order: system chats by recency, then the
// pinned group and the regular group by manual order. A chat without an order
// goes last in its group; ties fall back to recency.
func SortChats(chats []domain.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return displayLess(&chats[i], &chats[j])
	})
}

func displayLess(a, b *domain.Chat) bool {
	ga, gb := a.Group(), b.Group()
	if ga != gb {
		return ga < gb
	}
	if ga != domain.GroupSystem {
		if oa, ob := orderKey(a), orderKey(b); oa != ob {
			return oa < ob
		}
	}
	if !a.LastModified.Equal(b.LastModified) {
		return a.LastModified.After(b.LastModified)
	}
	return a.ID < b.ID
}

func orderKey(c *domain.Chat) int64 {
	if c.Order == nil {
		return math.MaxInt64
	}
	return int64(*c.Order)
}

// MoveID removes the element at from and reinserts it at to.
func MoveID(ids []uint, from, to int) []uint {
	out := make([]uint, 0, len(ids))
	out = append(out, ids...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]uint{moved}, out[to:]...)...)
	return out
}

func needsBackfill(chats []domain.Chat) bool {
	for i := range chats {
		if chats[i].Orderable() && chats[i].Order == nil {
			return true
		}
	}
	return false
}

// Reorder moves the dragged chat onto the position of the drop target and
// renumbers the whole group 0..n-1. Chats from different groups, or system
// chats, are left untouched.
func (s *Service) Reorder(ctx context.Context, activeID, overID uint) error {
	if activeID == overID {
		return nil
	}

	return s.store.Update(ctx, "reorder", []live.Table{live.Chats}, func(tx *store.Tx) error {
		active, err := tx.Chats.FindByID(ctx, activeID)
		if err != nil {
			return err
		}
		over, err := tx.Chats.FindByID(ctx, overID)
		if err != nil {
			return err
		}
		if !active.Orderable() || !over.Orderable() || active.Group() != over.Group() {
			s.logger.Debug("reorder across groups ignored", "active_id", activeID, "over_id", overID)
			return nil
		}

		group, err := tx.Chats.FindGroup(ctx, active.IsPinned)
		if err != nil {
			return err
		}
		SortChats(group)

		ids := make([]uint, len(group))
		from, to := -1, -1
		for i := range group {
			ids[i] = group[i].ID
			switch group[i].ID {
			case activeID:
				from = i
			case overID:
				to = i
			}
		}

		for i, id := range MoveID(ids, from, to) {
			if err := tx.Chats.UpdateFields(ctx, id, map[string]interface{}{"sort_order": i}); err != nil {
				return err
			}
		}
		return nil
	})
}

// backfillOrder numbers the pinned and regular groups 0..n-1 in their current
// display order when any of their chats lacks an order. It returns the
// refreshed, sorted list.
func (s *Service) backfillOrder(ctx context.Context) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := s.store.Update(ctx, "backfill_order", []live.Table{live.Chats}, func(tx *store.Tx) error {
		var err error
		if chats, err = tx.Chats.FindAll(ctx); err != nil {
			return err
		}
		SortChats(chats)
		if !needsBackfill(chats) {
			return nil
		}

		next := map[domain.ChatGroup]int{}
		for i := range chats {
			c := &chats[i]
			if !c.Orderable() {
				continue
			}
			index := next[c.Group()]
			next[c.Group()]++
			if c.Order != nil && *c.Order == index {
				continue
			}
			if err := tx.Chats.UpdateFields(ctx, c.ID, map[string]interface{}{"sort_order": index}); err != nil {
				return err
			}
			value := index
			c.Order = &value
		}
		s.logger.Info("backfilled chat order", "chats", len(chats))
		return nil
	})
	return chats, err
}
