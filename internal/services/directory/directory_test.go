package directory

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/store"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

// Now advances one second per call so every write gets a distinct timestamp.
func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingObserver struct {
	mu      sync.Mutex
	imports []string
	exports []string
}

func (o *recordingObserver) ImportCompleted(format string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.imports = append(o.imports, format+":"+outcome(err))
}

func (o *recordingObserver) ExportCompleted(format string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exports = append(o.exports, format+":"+outcome(err))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "notes.db"), store.Options{})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestService(t *testing.T) (*Service, *store.Store, *recordingObserver) {
	t.Helper()
	st := newTestStore(t)
	clock := &testClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.Clock = clock.Now
	obs := &recordingObserver{}
	svc, err := NewService(st, cfg, nil, obs)
	require.NoError(t, err)
	return svc, st, obs
}

func addMessage(t *testing.T, st *store.Store, chatID uint, content string, at time.Time) uint {
	t.Helper()
	var id uint
	err := st.Update(context.Background(), "test_add_message", []live.Table{live.Chats, live.Messages}, func(tx *store.Tx) error {
		m, err := tx.Messages.Create(context.Background(), &domain.Message{ChatID: chatID, Content: content, CreatedAt: at})
		if err != nil {
			return err
		}
		id = m.ID
		return tx.Chats.UpdateFields(context.Background(), chatID, map[string]interface{}{"preview_text": content, "last_modified": at})
	})
	require.NoError(t, err)
	return id
}

func insertChat(t *testing.T, st *store.Store, chat domain.Chat) uint {
	t.Helper()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if chat.LastModified.IsZero() {
		chat.LastModified = chat.CreatedAt
	}
	err := st.Update(context.Background(), "test_insert_chat", []live.Table{live.Chats}, func(tx *store.Tx) error {
		_, err := tx.Chats.Create(context.Background(), &chat)
		return err
	})
	require.NoError(t, err)
	return chat.ID
}

func titles(chats []domain.Chat) []string {
	out := make([]string, len(chats))
	for i, c := range chats {
		out[i] = c.Title
	}
	return out
}

func systemChatID(t *testing.T, st *store.Store) uint {
	t.Helper()
	chats, err := st.Chats().FindAll(context.Background())
	require.NoError(t, err)
	for _, c := range chats {
		if c.IsSystem {
			return c.ID
		}
	}
	t.Fatal("no system chat seeded")
	return 0
}

func TestNewServiceValidatesConfig(t *testing.T) {
	st := newTestStore(t)

	_, err := NewService(nil, nil, nil, nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	cfg := DefaultConfig()
	cfg.AppName = ""
	_, err = NewService(st, cfg, nil, nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreatePlacesNewChatFirstInRegularGroup(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx)
	require.NoError(t, err)
	chat, err := svc.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "New Note", chat.Title)
	assert.False(t, chat.IsPinned)
	require.NotNil(t, chat.Order)
	assert.Equal(t, 0, *chat.Order)

	second, err := svc.Create(ctx)
	require.NoError(t, err)

	chats, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, second, chats[0].ID)
	assert.Equal(t, first, chats[1].ID)
}

func TestRename(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	_, err := st.SeedIfEmpty(ctx, time.Now())
	require.NoError(t, err)

	id, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Rename(ctx, id, "  Journal  "))
	chat, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Journal", chat.Title)

	require.NoError(t, svc.Rename(ctx, id, "   "))
	chat, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Journal", chat.Title)

	err = svc.Rename(ctx, systemChatID(t, st), "Mine now")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	err = svc.Rename(ctx, 9999, "Ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTogglePin(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx)
	require.NoError(t, err)
	b, err := svc.Create(ctx)
	require.NoError(t, err)

	pinned, err := svc.TogglePin(ctx, a)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)
	require.NotNil(t, pinned.Order)
	assert.Equal(t, 0, *pinned.Order)

	pinned, err = svc.TogglePin(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, *pinned.Order)

	chats, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{a, b}, []uint{chats[0].ID, chats[1].ID})

	unpinned, err := svc.TogglePin(ctx, a)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
	assert.Nil(t, unpinned.Order)

	// listing assigns the unpinned chat a fresh regular order
	chats, err = svc.List(ctx)
	require.NoError(t, err)
	for _, c := range chats {
		require.NotNil(t, c.Order)
	}
	violations, err := st.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestTogglePinRejectsSystemChat(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	_, err := st.SeedIfEmpty(ctx, time.Now())
	require.NoError(t, err)

	sys := systemChatID(t, st)
	_, err = svc.TogglePin(ctx, sys)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	chat, err := svc.Get(ctx, sys)
	require.NoError(t, err)
	assert.True(t, chat.IsPinned)
	assert.Nil(t, chat.Order)
}

func TestDeleteChatRemovesMessages(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	keep, err := svc.Create(ctx)
	require.NoError(t, err)
	doomed, err := svc.Create(ctx)
	require.NoError(t, err)
	addMessage(t, st, keep, "stay", time.Now())
	addMessage(t, st, doomed, "go", time.Now())

	res, err := svc.DeleteChat(ctx, doomed, doomed)
	require.NoError(t, err)
	assert.True(t, res.ClearSelection)
	assert.Equal(t, []uint{doomed}, res.Deleted)

	_, err = svc.Get(ctx, doomed)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	n, err := st.Messages().CountByChatID(ctx, doomed)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = st.Messages().CountByChatID(ctx, keep)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	res, err = svc.DeleteChat(ctx, keep, doomed)
	require.NoError(t, err)
	assert.False(t, res.ClearSelection)
}

func TestDeleteChatRejectsSystemChat(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	_, err := st.SeedIfEmpty(ctx, time.Now())
	require.NoError(t, err)

	sys := systemChatID(t, st)
	_, err = svc.DeleteChat(ctx, sys, 0)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	n, err := st.Messages().CountByChatID(ctx, sys)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestBatchDeleteSkipsSystemChats(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	_, err := st.SeedIfEmpty(ctx, time.Now())
	require.NoError(t, err)

	sys := systemChatID(t, st)
	regular, err := svc.Create(ctx)
	require.NoError(t, err)
	addMessage(t, st, regular, "bye", time.Now())

	res, err := svc.BatchDelete(ctx, []uint{sys, regular}, regular)
	require.NoError(t, err)
	assert.Equal(t, []uint{regular}, res.Deleted)
	assert.True(t, res.ClearSelection)

	_, err = svc.Get(ctx, sys)
	require.NoError(t, err)
	n, err := st.Messages().CountByChatID(ctx, sys)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	n, err = st.Messages().CountByChatID(ctx, regular)
	require.NoError(t, err)
	assert.Zero(t, n)

	res, err = svc.BatchDelete(ctx, []uint{sys}, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Deleted)
}

func TestBatchSetPinnedSkipsSystemChats(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	_, err := st.SeedIfEmpty(ctx, time.Now())
	require.NoError(t, err)

	sys := systemChatID(t, st)
	a, err := svc.Create(ctx)
	require.NoError(t, err)
	b, err := svc.Create(ctx)
	require.NoError(t, err)

	changed, err := svc.BatchSetPinned(ctx, []uint{sys, a, b}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	pinned, err := st.Chats().FindGroup(ctx, true)
	require.NoError(t, err)
	require.Len(t, pinned, 2)
	orders := map[int]bool{}
	for _, c := range pinned {
		require.NotNil(t, c.Order)
		orders[*c.Order] = true
	}
	assert.Len(t, orders, 2)

	changed, err = svc.BatchSetPinned(ctx, []uint{sys, a}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	sysChat, err := svc.Get(ctx, sys)
	require.NoError(t, err)
	assert.True(t, sysChat.IsPinned)
}

func TestSearchFiltersByTitle(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	insertChat(t, st, domain.Chat{Title: "My Notes"})
	insertChat(t, st, domain.Chat{Title: "Grocery List"})

	found, err := svc.Search(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, []string{"My Notes"}, titles(found))

	all, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWatchFollowsSearchText(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	insertChat(t, st, domain.Chat{Title: "My Notes"})

	binding := svc.Watch(ctx)
	defer binding.Close()
	binding.SetKey("grocery")

	select {
	case r := <-binding.Updates():
		assert.Equal(t, "grocery", r.Key)
		assert.Empty(t, r.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial result")
	}

	insertChat(t, st, domain.Chat{Title: "Grocery List"})
	require.Eventually(t, func() bool {
		r, ok := binding.Latest()
		return ok && len(r.Value) == 1 && r.Value[0].Title == "Grocery List"
	}, 2*time.Second, 10*time.Millisecond)
}
