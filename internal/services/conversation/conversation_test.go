package conversation

import (
	"context"
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

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "notes.db"), store.Options{})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	cfg := DefaultConfig()
	cfg.DraftDebounce = 20 * time.Millisecond
	cfg.Location = time.UTC
	cfg.Clock = (&testClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}).Now
	svc, err := NewService(st, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, st
}

func createChat(t *testing.T, st *store.Store, chat domain.Chat) uint {
	t.Helper()
	if chat.Title == "" {
		chat.Title = "Notes"
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	chat.CreatedAt, chat.LastModified = now, now
	err := st.Update(context.Background(), "test_create_chat", []live.Table{live.Chats}, func(tx *store.Tx) error {
		_, err := tx.Chats.Create(context.Background(), &chat)
		return err
	})
	require.NoError(t, err)
	return chat.ID
}

func getChat(t *testing.T, st *store.Store, id uint) *domain.Chat {
	t.Helper()
	chat, err := st.Chats().FindByID(context.Background(), id)
	require.NoError(t, err)
	return chat
}

func send(t *testing.T, svc *Service, chatID uint, text string) *domain.Message {
	t.Helper()
	msg, err := svc.SendOrUpdate(context.Background(), chatID, text, 0)
	require.NoError(t, err)
	require.NotNil(t, msg)
	return msg
}

func TestPreviewFollowsLastMessage(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	chatID := createChat(t, st, domain.Chat{})

	hello := send(t, svc, chatID, "hello")
	world := send(t, svc, chatID, "  world  ")
	assert.Equal(t, "world", world.Content)
	assert.Equal(t, "world", getChat(t, st, chatID).PreviewText)

	require.NoError(t, svc.DeleteMessage(ctx, chatID, world.ID))
	assert.Equal(t, "hello", getChat(t, st, chatID).PreviewText)

	require.NoError(t, svc.DeleteMessage(ctx, chatID, hello.ID))
	assert.Equal(t, "", getChat(t, st, chatID).PreviewText)

	err := svc.DeleteMessage(ctx, chatID, hello.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendUpdatesChat(t *testing.T) {
	svc, st := newTestService(t)
	chatID := createChat(t, st, domain.Chat{Draft: "half written"})
	before := getChat(t, st, chatID)

	msg := send(t, svc, chatID, "done")
	assert.False(t, msg.IsEdited)
	assert.False(t, msg.IsPinned)

	after := getChat(t, st, chatID)
	assert.Equal(t, "", after.Draft)
	assert.True(t, after.LastModified.After(before.LastModified))
}

func TestSendBlankIsNoop(t *testing.T) {
	svc, st := newTestService(t)
	chatID := createChat(t, st, domain.Chat{})

	msg, err := svc.SendOrUpdate(context.Background(), chatID, " \n\t ", 0)
	require.NoError(t, err)
	assert.Nil(t, msg)

	n, err := st.Messages().CountByChatID(context.Background(), chatID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSendToMissingChat(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SendOrUpdate(context.Background(), 42, "hi", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditMessage(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	chatID := createChat(t, st, domain.Chat{})
	first := send(t, svc, chatID, "first")
	last := send(t, svc, chatID, "last")

	edited, err := svc.SendOrUpdate(ctx, chatID, "first, revised", first.ID)
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, "last", getChat(t, st, chatID).PreviewText)

	_, err = svc.SendOrUpdate(ctx, chatID, "last, revised", last.ID)
	require.NoError(t, err)
	assert.Equal(t, "last, revised", getChat(t, st, chatID).PreviewText)

	msgs, err := svc.Messages(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first, revised", msgs[0].Content)
	assert.True(t, msgs[0].IsEdited)

	other := createChat(t, st, domain.Chat{Title: "Other"})
	_, err = svc.SendOrUpdate(ctx, other, "hijack", first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSystemChatIsReadOnly(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	_, err := st.SeedIfEmpty(ctx, time.Now())
	require.NoError(t, err)

	chats, err := st.Chats().FindAll(ctx)
	require.NoError(t, err)
	var sys domain.Chat
	for _, c := range chats {
		if c.IsSystem {
			sys = c
		}
	}
	require.NotZero(t, sys.ID)
	msgs, err := svc.Messages(ctx, sys.ID)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)

	_, err = svc.SendOrUpdate(ctx, sys.ID, "graffiti", 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.SendOrUpdate(ctx, sys.ID, "graffiti", msgs[0].ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteMessage(ctx, sys.ID, msgs[0].ID), domain.ErrForbidden)
	_, err = svc.TogglePinMessage(ctx, msgs[0].ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.ClearHistory(ctx, sys.ID), domain.ErrForbidden)

	after, err := svc.Messages(ctx, sys.ID)
	require.NoError(t, err)
	assert.Equal(t, msgs, after)
}

func TestPinningMessages(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	chatID := createChat(t, st, domain.Chat{})
	a := send(t, svc, chatID, "a")
	send(t, svc, chatID, "b")
	c := send(t, svc, chatID, "c")

	toggled, err := svc.TogglePinMessage(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPinned)
	_, err = svc.TogglePinMessage(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, getChat(t, st, chatID).IsPinned)

	pinned, err := st.Messages().FindPinnedByChatID(ctx, chatID)
	require.NoError(t, err)
	assert.Len(t, pinned, 2)

	n, err := svc.UnpinAll(ctx, chatID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = svc.UnpinAll(ctx, chatID)
	require.NoError(t, err)
	assert.Zero(t, n)

	pinned, err = st.Messages().FindPinnedByChatID(ctx, chatID)
	require.NoError(t, err)
	assert.Empty(t, pinned)

	_, err = svc.TogglePinMessage(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClearHistory(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	chatID := createChat(t, st, domain.Chat{Draft: "unsent"})
	send(t, svc, chatID, "one")
	send(t, svc, chatID, "two")
	before := getChat(t, st, chatID)

	require.NoError(t, svc.ClearHistory(ctx, chatID))

	after := getChat(t, st, chatID)
	assert.Equal(t, "", after.PreviewText)
	assert.Equal(t, "", after.Draft)
	assert.True(t, after.LastModified.After(before.LastModified))
	n, err := st.Messages().CountByChatID(ctx, chatID)
	require.NoError(t, err)
	assert.Zero(t, n)

	violations, err := st.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}
