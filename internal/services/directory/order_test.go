package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-soliloquy/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestMoveID(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []uint
	}{
		{"down", 0, 2, []uint{2, 3, 1, 4}},
		{"up", 3, 1, []uint{1, 4, 2, 3}},
		{"same", 1, 1, []uint{1, 2, 3, 4}},
		{"out of range", 5, 0, []uint{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []uint{1, 2, 3, 4}
			assert.Equal(t, tt.want, MoveID(ids, tt.from, tt.to))
			assert.Equal(t, []uint{1, 2, 3, 4}, ids)
		})
	}
}

func TestSortChats(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	chats := []domain.Chat{
		{ID: 1, Title: "regular-late", Order: intPtr(5), LastModified: base},
		{ID: 2, Title: "pinned-unordered", IsPinned: true, LastModified: base.Add(time.Hour)},
		{ID: 3, Title: "system-old", IsSystem: true, IsPinned: true, LastModified: base},
		{ID: 4, Title: "regular-first", Order: intPtr(-1), LastModified: base},
		{ID: 5, Title: "pinned-first", IsPinned: true, Order: intPtr(0), LastModified: base},
		{ID: 6, Title: "system-new", IsSystem: true, LastModified: base.Add(time.Hour)},
		{ID: 7, Title: "regular-tie-new", Order: intPtr(5), LastModified: base.Add(time.Minute)},
	}

	SortChats(chats)
	assert.Equal(t, []string{
		"system-new", "system-old",
		"pinned-first", "pinned-unordered",
		"regular-first", "regular-tie-new", "regular-late",
	}, titles(chats))
}

func TestReorderWithinRegularGroup(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	pinned := insertChat(t, st, domain.Chat{Title: "pinned", IsPinned: true, Order: intPtr(7)})
	first := insertChat(t, st, domain.Chat{Title: "first", Order: intPtr(0)})
	second := insertChat(t, st, domain.Chat{Title: "second", Order: intPtr(1)})

	require.NoError(t, svc.Reorder(ctx, second, first))

	regular, err := st.Chats().FindGroup(ctx, false)
	require.NoError(t, err)
	SortChats(regular)
	require.Len(t, regular, 2)
	assert.Equal(t, second, regular[0].ID)
	assert.Equal(t, 0, *regular[0].Order)
	assert.Equal(t, first, regular[1].ID)
	assert.Equal(t, 1, *regular[1].Order)

	p, err := svc.Get(ctx, pinned)
	require.NoError(t, err)
	assert.Equal(t, 7, *p.Order)
}

func TestReorderAcrossGroupsIsNoop(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	pinned := insertChat(t, st, domain.Chat{Title: "pinned", IsPinned: true, Order: intPtr(3)})
	regular := insertChat(t, st, domain.Chat{Title: "regular", Order: intPtr(4)})

	require.NoError(t, svc.Reorder(ctx, regular, pinned))
	require.NoError(t, svc.Reorder(ctx, regular, regular))

	p, err := svc.Get(ctx, pinned)
	require.NoError(t, err)
	assert.True(t, p.IsPinned)
	assert.Equal(t, 3, *p.Order)
	r, err := svc.Get(ctx, regular)
	require.NoError(t, err)
	assert.False(t, r.IsPinned)
	assert.Equal(t, 4, *r.Order)
}

func TestReorderUnknownChat(t *testing.T) {
	svc, st, _ := newTestService(t)
	id := insertChat(t, st, domain.Chat{Title: "only", Order: intPtr(0)})

	err := svc.Reorder(context.Background(), id, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBackfillsMissingOrders(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	older := insertChat(t, st, domain.Chat{Title: "older", LastModified: base})
	newer := insertChat(t, st, domain.Chat{Title: "newer", LastModified: base.Add(time.Hour)})
	ordered := insertChat(t, st, domain.Chat{Title: "ordered", Order: intPtr(10)})
	pinA := insertChat(t, st, domain.Chat{Title: "pin-a", IsPinned: true, LastModified: base})
	pinB := insertChat(t, st, domain.Chat{Title: "pin-b", IsPinned: true, Order: intPtr(4)})

	chats, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{pinB, pinA, ordered, newer, older}, []uint{chats[0].ID, chats[1].ID, chats[2].ID, chats[3].ID, chats[4].ID})

	for i, want := range []int{0, 1, 0, 1, 2} {
		require.NotNil(t, chats[i].Order)
		assert.Equal(t, want, *chats[i].Order, chats[i].Title)
	}

	stored, err := st.Chats().FindAll(ctx)
	require.NoError(t, err)
	for _, c := range stored {
		require.NotNil(t, c.Order, c.Title)
	}

	violations, err := st.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}
