package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-soliloquy/internal/domain"
)

func TestDebouncerKeepsOnlyLatestText(t *testing.T) {
	var mu sync.Mutex
	saved := map[uint][]string{}
	d := newDraftDebouncer(30*time.Millisecond, func(chatID uint, text string) {
		mu.Lock()
		defer mu.Unlock()
		saved[chatID] = append(saved[chatID], text)
	})
	defer d.Close()

	d.Schedule(1, "h")
	d.Schedule(1, "he")
	d.Schedule(1, "hello")
	d.Schedule(2, "other")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(saved[1]) == 1 && len(saved[2]) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hello"}, saved[1])
	assert.Equal(t, []string{"other"}, saved[2])
}

func TestDebouncerCancelAndFlush(t *testing.T) {
	var mu sync.Mutex
	var saved []string
	d := newDraftDebouncer(time.Hour, func(chatID uint, text string) {
		mu.Lock()
		defer mu.Unlock()
		saved = append(saved, text)
	})

	d.Schedule(1, "dropped")
	d.Cancel(1)
	_, pending := d.Pending(1)
	assert.False(t, pending)

	d.Schedule(2, "kept")
	text, pending := d.Pending(2)
	assert.True(t, pending)
	assert.Equal(t, "kept", text)

	assert.Equal(t, 1, d.Flush())
	assert.Equal(t, []string{"kept"}, saved)

	d.Close()
	d.Schedule(3, "after close")
	_, pending = d.Pending(3)
	assert.False(t, pending)
}

func TestSaveDraftPersistsAfterQuietPeriod(t *testing.T) {
	svc, st := newTestService(t)
	chatID := createChat(t, st, domain.Chat{})

	svc.SaveDraft(chatID, "dear diary", false)

	draft, err := svc.LoadDraft(context.Background(), chatID)
	require.NoError(t, err)
	assert.Equal(t, "dear diary", draft)

	require.Eventually(t, func() bool {
		return getChat(t, st, chatID).Draft == "dear diary"
	}, time.Second, 5*time.Millisecond)
}

func TestSaveDraftIgnoredWhileEditing(t *testing.T) {
	svc, st := newTestService(t)
	chatID := createChat(t, st, domain.Chat{})

	svc.SaveDraft(chatID, "typing", false)
	svc.SaveDraft(chatID, "editing an old note", true)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, "", getChat(t, st, chatID).Draft)
}

func TestSendCancelsPendingDraft(t *testing.T) {
	svc, st := newTestService(t)
	chatID := createChat(t, st, domain.Chat{})

	svc.SaveDraft(chatID, "about to send", false)
	send(t, svc, chatID, "about to send")

	time.Sleep(80 * time.Millisecond)
	chat := getChat(t, st, chatID)
	assert.Equal(t, "", chat.Draft)
	assert.Equal(t, "about to send", chat.PreviewText)
}

func TestFlushDraftsWritesImmediately(t *testing.T) {
	svc, st := newTestService(t)
	chatID := createChat(t, st, domain.Chat{})
	svc.drafts.delay = time.Hour

	svc.SaveDraft(chatID, "shutting down", false)
	assert.Equal(t, 1, svc.FlushDrafts())
	assert.Equal(t, "shutting down", getChat(t, st, chatID).Draft)
}

func TestDraftSkipsSystemAndMissingChats(t *testing.T) {
	svc, st := newTestService(t)
	sys := createChat(t, st, domain.Chat{Title: "Info", IsSystem: true, IsPinned: true})
	svc.drafts.delay = time.Hour

	svc.SaveDraft(sys, "nope", false)
	svc.SaveDraft(404, "ghost", false)
	assert.Equal(t, 2, svc.FlushDrafts())
	assert.Equal(t, "", getChat(t, st, sys).Draft)

	_, err := svc.LoadDraft(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
