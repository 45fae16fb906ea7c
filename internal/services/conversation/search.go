package conversation

import (
	"strings"
	"time"

	"github.com/iyunix/go-soliloquy/internal/domain"
)

// SearchMessages returns, in chronological order, the ids of notes whose
// content contains query regardless of case. A blank query matches nothing.
func SearchMessages(messages []domain.Message, query string) []uint {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	needle := strings.ToLower(query)
	var ids []uint
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// MessageSearch holds the matches of the in-chat search bar. The current
// match starts at the most recent one.
type MessageSearch struct {
	query   string
	matches []uint
	current int
}

// Update recomputes matches for query over messages.
func (s *MessageSearch) Update(query string, messages []domain.Message) {
	s.query = query
	s.matches = SearchMessages(messages, query)
	s.current = len(s.matches) - 1
}

func (s *MessageSearch) Query() string { return s.query }

// Active reports whether a non-blank query is set.
func (s *MessageSearch) Active() bool { return strings.TrimSpace(s.query) != "" }

func (s *MessageSearch) Matches() []uint { return append([]uint(nil), s.matches...) }

// Index is -1 when there is no match.
func (s *MessageSearch) Index() int { return s.current }

func (s *MessageSearch) Current() (uint, bool) {
	if len(s.matches) == 0 {
		return 0, false
	}
	return s.matches[s.current], true
}

func (s *MessageSearch) Next() (uint, bool) {
	if len(s.matches) == 0 {
		return 0, false
	}
	s.current = (s.current + 1) % len(s.matches)
	return s.matches[s.current], true
}

func (s *MessageSearch) Prev() (uint, bool) {
	if len(s.matches) == 0 {
		return 0, false
	}
	s.current = (s.current - 1 + len(s.matches)) % len(s.matches)
	return s.matches[s.current], true
}

// JumpToDate finds the first note written on or after the calendar day of
// day. Note timestamps are placed on days in loc; messages must be chronological.
func JumpToDate(messages []domain.Message, day time.Time, loc *time.Location) (uint, bool) {
	y, m, d := day.Date()
	target := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for _, m := range messages {
		if !startOfDay(m.CreatedAt, loc).Before(target) {
			return m.ID, true
		}
	}
	return 0, false
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
