package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
)

// Session is the state of the chat window: the active chat, its live note
// list and the pin navigation and search derived from it. Switching chats
// drops the previous subscription, so results of the old chat never arrive.
type Session struct {
	svc     *Service
	binding *live.Binding[uint, []domain.Message]

	mu       sync.Mutex
	chatID   uint
	loaded   bool
	messages []domain.Message
	pins     PinNavigator
	search   MessageSearch
	version  uint64
	changed  chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// SessionState is a snapshot of a Session.
type SessionState struct {
	ChatID      uint             `json:"chatId"`
	Loaded      bool             `json:"loaded"`
	Messages    []domain.Message `json:"messages"`
	PinnedIDs   []uint           `json:"pinnedIds"`
	PinIndex    int              `json:"pinIndex"`
	SearchQuery string           `json:"searchQuery"`
	MatchIDs    []uint           `json:"matchIds"`
	MatchIndex  int              `json:"matchIndex"`
	Version     uint64           `json:"version"`
}

func (s *Service) NewSession(ctx context.Context, opts ...live.Option) *Session {
	ctx, cancel := context.WithCancel(ctx)
	se := &Session{
		svc:     s,
		binding: s.Watch(ctx, opts...),
		changed: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	se.search.current = -1
	go se.run(ctx)
	return se
}

func (se *Session) run(ctx context.Context) {
	defer close(se.done)
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-se.binding.Updates():
			se.apply(r)
		}
	}
}

func (se *Session) apply(r live.Result[uint, []domain.Message]) {
	se.mu.Lock()
	defer se.mu.Unlock()
	if r.Key != se.chatID {
		return
	}

	pinned := PinnedIDs(r.Value)
	if se.loaded {
		se.pins.Update(pinned)
	} else {
		se.pins.Reset(pinned)
	}
	se.messages = r.Value
	se.loaded = true
	if se.search.Active() {
		se.search.Update(se.search.Query(), r.Value)
	}
	se.bump()
}

// bump is called with se.mu held.
func (se *Session) bump() {
	se.version++
	select {
	case se.changed <- struct{}{}:
	default:
	}
}

// Open makes chatID the active chat. A pending draft of the chat being left
// is written first. Zero clears the selection.
func (se *Session) Open(chatID uint) {
	se.mu.Lock()
	previous := se.chatID
	if previous == chatID {
		se.mu.Unlock()
		return
	}
	se.chatID = chatID
	se.loaded = false
	se.messages = nil
	se.pins = PinNavigator{}
	se.search = MessageSearch{current: -1}
	se.bump()
	se.mu.Unlock()

	if previous != 0 {
		se.svc.drafts.FlushChat(previous)
	}
	if chatID != 0 {
		se.binding.SetKey(chatID)
	}
}

func (se *Session) ChatID() uint {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.chatID
}

// Changed signals after every state change; only the latest signal is kept.
func (se *Session) Changed() <-chan struct{} { return se.changed }

func (se *Session) State() SessionState {
	se.mu.Lock()
	defer se.mu.Unlock()
	return SessionState{
		ChatID:      se.chatID,
		Loaded:      se.loaded,
		Messages:    append([]domain.Message(nil), se.messages...),
		PinnedIDs:   append([]uint(nil), se.pins.pinned...),
		PinIndex:    se.pins.Index(),
		SearchQuery: se.search.Query(),
		MatchIDs:    se.search.Matches(),
		MatchIndex:  se.search.Index(),
		Version:     se.version,
	}
}

// CurrentPin is the pin shown in the pinned bar.
func (se *Session) CurrentPin() (uint, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.pins.Current()
}

// ActivatePin returns the pin to scroll to and moves the bar to the previous pin.
func (se *Session) ActivatePin() (uint, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	id, ok := se.pins.Activate()
	if ok {
		se.bump()
	}
	return id, ok
}

// Search sets the in-chat search query and returns the current match.
func (se *Session) Search(query string) (uint, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.search.Update(query, se.messages)
	se.bump()
	return se.search.Current()
}

func (se *Session) NextMatch() (uint, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	id, ok := se.search.Next()
	if ok {
		se.bump()
	}
	return id, ok
}

func (se *Session) PrevMatch() (uint, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	id, ok := se.search.Prev()
	if ok {
		se.bump()
	}
	return id, ok
}

// JumpToDate finds the first note of the active chat on or after day.
func (se *Session) JumpToDate(day time.Time) (uint, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	return JumpToDate(se.messages, day, se.svc.config.Location)
}

func (se *Session) Close() {
	se.cancel()
	<-se.done
	se.binding.Close()
}
