package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/store"
)

type pendingDraft struct {
	timer *time.Timer
	text  string
}

// draftDebouncer keeps at most one pending write per chat. A newer text
// restarts the timer so only the latest input is persisted.
type draftDebouncer struct {
	delay time.Duration
	save  func(chatID uint, text string)

	mu       sync.Mutex
	pending  map[uint]*pendingDraft
	inflight map[uint]chan struct{}
	closed   bool
}

func newDraftDebouncer(delay time.Duration, save func(chatID uint, text string)) *draftDebouncer {
	return &draftDebouncer{
		delay:    delay,
		save:     save,
		pending:  make(map[uint]*pendingDraft),
		inflight: make(map[uint]chan struct{}),
	}
}

func (d *draftDebouncer) Schedule(chatID uint, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if p, ok := d.pending[chatID]; ok {
		p.timer.Stop()
	}
	p := &pendingDraft{text: text}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(chatID, p) })
	d.pending[chatID] = p
}

func (d *draftDebouncer) fire(chatID uint, p *pendingDraft) {
	d.mu.Lock()
	if d.pending[chatID] != p {
		d.mu.Unlock()
		return
	}
	delete(d.pending, chatID)
	done := make(chan struct{})
	d.inflight[chatID] = done
	d.mu.Unlock()

	d.save(chatID, p.text)

	d.mu.Lock()
	delete(d.inflight, chatID)
	d.mu.Unlock()
	close(done)
}

// Cancel drops the pending write of a chat and waits for one that already started.
func (d *draftDebouncer) Cancel(chatID uint) {
	d.mu.Lock()
	if p, ok := d.pending[chatID]; ok {
		p.timer.Stop()
		delete(d.pending, chatID)
	}
	done := d.inflight[chatID]
	d.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Pending returns the text waiting to be written for a chat.
func (d *draftDebouncer) Pending(chatID uint) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[chatID]
	if !ok {
		return "", false
	}
	return p.text, true
}

// Flush writes every pending draft now.
func (d *draftDebouncer) Flush() int {
	d.mu.Lock()
	due := make(map[uint]string, len(d.pending))
	for chatID, p := range d.pending {
		p.timer.Stop()
		due[chatID] = p.text
	}
	d.pending = make(map[uint]*pendingDraft)
	d.mu.Unlock()

	for chatID, text := range due {
		d.save(chatID, text)
	}
	return len(due)
}

// FlushChat writes the pending draft of one chat now, or waits for a write
// that is already running.
func (d *draftDebouncer) FlushChat(chatID uint) {
	d.mu.Lock()
	p, ok := d.pending[chatID]
	if ok {
		p.timer.Stop()
		delete(d.pending, chatID)
	}
	done := d.inflight[chatID]
	d.mu.Unlock()

	if ok {
		d.save(chatID, p.text)
		return
	}
	if done != nil {
		<-done
	}
}

func (d *draftDebouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for chatID, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, chatID)
	}
}

// SaveDraft schedules a debounced write of in-progress input. While a note is
// being edited the input holds that note's text, so nothing is saved and any
// pending draft write is dropped.
func (s *Service) SaveDraft(chatID uint, text string, editing bool) {
	if chatID == 0 {
		return
	}
	if editing {
		s.drafts.Cancel(chatID)
		return
	}
	s.drafts.Schedule(chatID, text)
}

// LoadDraft returns the draft to restore when a chat is opened, preferring
// input that has not been written yet.
func (s *Service) LoadDraft(ctx context.Context, chatID uint) (string, error) {
	if text, ok := s.drafts.Pending(chatID); ok {
		return text, nil
	}
	chat, err := s.store.Chats().FindByID(ctx, chatID)
	if err != nil {
		return "", err
	}
	return chat.Draft, nil
}

// FlushDrafts writes all pending drafts immediately, typically on shutdown.
func (s *Service) FlushDrafts() int {
	return s.drafts.Flush()
}

// Close drops pending drafts without writing them.
func (s *Service) Close() {
	s.drafts.Close()
}

func (s *Service) persistDraft(chatID uint, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.DraftTimeout)
	defer cancel()

	err := s.store.Update(ctx, "save_draft", []live.Table{live.Chats}, func(tx *store.Tx) error {
		chat, err := tx.Chats.FindByID(ctx, chatID)
		if err != nil {
			return err
		}
		if chat.IsSystem || chat.Draft == text {
			return nil
		}
		return tx.Chats.UpdateFields(ctx, chatID, map[string]interface{}{"draft": text})
	})
	switch {
	case err == nil:
		s.logger.Debug("draft saved", "chat_id", chatID, "length", len(text))
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Debug("draft dropped for missing chat", "chat_id", chatID)
	default:
		s.logger.Error("failed to save draft", "chat_id", chatID, "error", err)
	}
}
