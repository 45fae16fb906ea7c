package conversation

import "github.com/iyunix/go-soliloquy/internal/domain"

// PinNavigator cycles backwards through a chat's pinned notes, starting from
// the most recent one. The zero value has nothing pinned.
type PinNavigator struct {
	pinned []uint
	index  int
	ready  bool
}

// PinnedIDs filters the pinned notes of a chronological message list.
func PinnedIDs(messages []domain.Message) []uint {
	var ids []uint
	for _, m := range messages {
		if m.IsPinned {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Reset starts over for a newly opened chat.
func (n *PinNavigator) Reset(pinned []uint) {
	n.pinned = append([]uint(nil), pinned...)
	n.index = len(n.pinned) - 1
	n.ready = true
}

// Update takes a new pinned set of the same chat. The position is kept when
// it is still valid, otherwise it moves to the most recent pin.
func (n *PinNavigator) Update(pinned []uint) {
	if !n.ready {
		n.Reset(pinned)
		return
	}
	n.pinned = append([]uint(nil), pinned...)
	if n.index < 0 || n.index >= len(n.pinned) {
		n.index = len(n.pinned) - 1
	}
}

// Index is -1 when nothing is pinned.
func (n *PinNavigator) Index() int {
	if len(n.pinned) == 0 {
		return -1
	}
	return n.index
}

func (n *PinNavigator) Len() int { return len(n.pinned) }

func (n *PinNavigator) Current() (uint, bool) {
	if len(n.pinned) == 0 {
		return 0, false
	}
	return n.pinned[n.index], true
}

// Previous steps to the next older pin, wrapping from the oldest to the newest.
func (n *PinNavigator) Previous() (uint, bool) {
	if len(n.pinned) == 0 {
		return 0, false
	}
	n.index--
	if n.index < 0 {
		n.index = len(n.pinned) - 1
	}
	return n.pinned[n.index], true
}

// Activate returns the pin currently shown and moves on to the previous one,
// the way clicking the pinned bar does.
func (n *PinNavigator) Activate() (uint, bool) {
	id, ok := n.Current()
	if ok {
		n.Previous()
	}
	return id, ok
}
