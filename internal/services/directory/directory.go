// Package directory manages the chat list: creation, renaming, pinning,
// deletion, manual ordering, search, import and export.
package directory

import (
	"context"
	"strings"
	"time"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/store"
)

type Service struct {
	config   *Config
	store    *store.Store
	logger   Logger
	observer Observer
}

// DeleteResult reports which chats were removed and whether the caller's
// active selection was among them.
type DeleteResult struct {
	Deleted        []uint
	ClearSelection bool
}

func NewService(st *store.Store, config *Config, logger Logger, observer Observer) (*Service, error) {
	if st == nil {
		return nil, domain.NewValidationError("directory_constructor", "store is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, domain.NewValidationError("directory_config", err.Error())
	}
	if logger == nil {
		logger = noopLogger{}
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{config: config, store: st, logger: logger, observer: observer}, nil
}

func (s *Service) now() time.Time { return s.config.Clock() }

// Create inserts an empty chat at the top of the regular group and returns its id.
func (s *Service) Create(ctx context.Context) (uint, error) {
	now := s.now()
	var id uint
	err := s.store.Update(ctx, "create_chat", []live.Table{live.Chats}, func(tx *store.Tx) error {
		lowest, err := tx.Chats.MinOrder(ctx, false)
		if err != nil {
			return err
		}
		order := 0
		if lowest != nil {
			order = *lowest - 1
		}

		created, err := tx.Chats.Create(ctx, &domain.Chat{
			Title:        s.config.DefaultTitle,
			Order:        &order,
			CreatedAt:    now,
			LastModified: now,
		})
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("chat created", "chat_id", id)
	return id, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*domain.Chat, error) {
	return s.store.Chats().FindByID(ctx, id)
}

// Rename sets a new title. A blank title is ignored.
func (s *Service) Rename(ctx context.Context, id uint, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return s.store.Update(ctx, "rename_chat", []live.Table{live.Chats}, func(tx *store.Tx) error {
		chat, err := tx.Chats.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if chat.IsSystem {
			return domain.NewSystemChatError("rename_chat", id)
		}
		return tx.Chats.UpdateFields(ctx, id, map[string]interface{}{"title": title})
	})
}

// TogglePin flips the pinned state. A newly pinned chat joins the end of the
// pinned group; an unpinned chat drops its order and is renumbered at the end
// of the regular group on the next listing.
func (s *Service) TogglePin(ctx context.Context, id uint) (*domain.Chat, error) {
	var updated *domain.Chat
	err := s.store.Update(ctx, "toggle_pin", []live.Table{live.Chats}, func(tx *store.Tx) error {
		chat, err := tx.Chats.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if chat.IsSystem {
			return domain.NewSystemChatError("toggle_pin", id)
		}
		if err := s.setPinned(ctx, tx, chat, !chat.IsPinned); err != nil {
			return err
		}
		updated = chat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) setPinned(ctx context.Context, tx *store.Tx, chat *domain.Chat, pinned bool) error {
	fields := map[string]interface{}{"is_pinned": pinned, "sort_order": nil}
	chat.IsPinned = pinned
	chat.Order = nil

	if pinned {
		highest, err := tx.Chats.MaxOrder(ctx, true)
		if err != nil {
			return err
		}
		order := 0
		if highest != nil {
			order = *highest + 1
		}
		fields["sort_order"] = order
		chat.Order = &order
	}
	return tx.Chats.UpdateFields(ctx, chat.ID, fields)
}

// BatchSetPinned pins or unpins every listed chat, skipping system chats and
// chats already in the requested state. It returns the number of chats changed.
func (s *Service) BatchSetPinned(ctx context.Context, ids []uint, pinned bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	changed := 0
	err := s.store.Update(ctx, "batch_set_pinned", []live.Table{live.Chats}, func(tx *store.Tx) error {
		chats, err := tx.Chats.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for i := range chats {
			chat := &chats[i]
			if chat.IsSystem || chat.IsPinned == pinned {
				continue
			}
			if err := s.setPinned(ctx, tx, chat, pinned); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("batch pin applied", "requested", len(ids), "changed", changed, "pinned", pinned)
	return changed, nil
}

// DeleteChat removes a chat together with its messages.
func (s *Service) DeleteChat(ctx context.Context, id, activeID uint) (*DeleteResult, error) {
	err := s.store.Update(ctx, "delete_chat", []live.Table{live.Chats, live.Messages}, func(tx *store.Tx) error {
		chat, err := tx.Chats.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if chat.IsSystem {
			return domain.NewSystemChatError("delete_chat", id)
		}
		if _, err := tx.Messages.DeleteByChatIDs(ctx, []uint{id}); err != nil {
			return err
		}
		return tx.Chats.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("chat deleted", "chat_id", id)
	return &DeleteResult{Deleted: []uint{id}, ClearSelection: activeID != 0 && activeID == id}, nil
}

// BatchDelete removes every listed non-system chat and their messages in one
// transaction. System chats and unknown ids are skipped without error.
func (s *Service) BatchDelete(ctx context.Context, ids []uint, activeID uint) (*DeleteResult, error) {
	result := &DeleteResult{}
	if len(ids) == 0 {
		return result, nil
	}

	err := s.store.Update(ctx, "batch_delete", []live.Table{live.Chats, live.Messages}, func(tx *store.Tx) error {
		chats, err := tx.Chats.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		var doomed []uint
		for _, c := range chats {
			if !c.IsSystem {
				doomed = append(doomed, c.ID)
			}
		}
		if len(doomed) == 0 {
			return nil
		}
		if _, err := tx.Messages.DeleteByChatIDs(ctx, doomed); err != nil {
			return err
		}
		if _, err := tx.Chats.DeleteByIDs(ctx, doomed); err != nil {
			return err
		}
		result.Deleted = doomed
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range result.Deleted {
		if activeID != 0 && id == activeID {
			result.ClearSelection = true
		}
	}
	s.logger.Info("batch delete applied", "requested", len(ids), "deleted", len(result.Deleted))
	return result, nil
}

// List returns every chat in sidebar order, assigning missing orders first.
func (s *Service) List(ctx context.Context) ([]domain.Chat, error) {
	chats, err := s.store.Chats().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	SortChats(chats)
	if !needsBackfill(chats) {
		return chats, nil
	}
	return s.backfillOrder(ctx)
}

// Search filters the sidebar by a case-insensitive title match. A blank
// query returns every chat.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Chat, error) {
	chats, err := s.List(ctx)
	if err != nil || strings.TrimSpace(query) == "" {
		return chats, err
	}

	needle := strings.ToLower(query)
	matches := make([]domain.Chat, 0, len(chats))
	for _, c := range chats {
		if strings.Contains(strings.ToLower(c.Title), needle) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// Watch keeps the search results for the latest query text live.
func (s *Service) Watch(ctx context.Context, opts ...live.Option) *live.Binding[string, []domain.Chat] {
	return live.Bind(ctx, s.store.Bus(), []live.Table{live.Chats}, s.Search, opts...)
}
