package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/store"
)

const (
	importedSuffix    = " (Imported)"
	markdownSeparator = "\n---\n\n"
	pinMarker         = "> 📌 Pinned"
	// markdownTimeLayout is written by the markdown export.
	markdownTimeLayout = "2006-01-02 15:04:05 -0700"
)

var timestampHeader = regexp.MustCompile(`^###\s*\[(.*)\]\s*$`)

// zoned layouts are read in the configured location
var zonedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006, 3:04:05 PM",
}

type importPayload struct {
	chat     domain.Chat
	messages []domain.Message
}

// Import creates a new chat from an exported .json or .md file and returns
// its id. Nothing is written when the file cannot be parsed.
func (s *Service) Import(ctx context.Context, fileName string, data []byte) (id uint, err error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	format := strings.TrimPrefix(ext, ".")
	defer func() { s.observer.ImportCompleted(format, err) }()

	var payload *importPayload
	switch ext {
	case ".json":
		payload, err = s.parseJSON(data)
	case ".md":
		payload, err = s.parseMarkdown(fileName, data)
	default:
		format = "unsupported"
		return 0, domain.NewUnsupportedFormatError("import_chat", ext)
	}
	if err != nil {
		return 0, err
	}

	id, err = s.persistImport(ctx, payload)
	if err != nil {
		return 0, err
	}
	s.logger.Info("chat imported", "chat_id", id, "format", format, "messages", len(payload.messages))
	return id, nil
}

func (s *Service) parseJSON(data []byte) (*importPayload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewImportFormatError("import_json", "file is not valid JSON", err)
	}
	rawChat, ok := raw["chat"]
	if !ok || isNull(rawChat) {
		return nil, domain.NewImportFormatError("import_json", `missing "chat" object`, nil)
	}
	rawMessages, ok := raw["messages"]
	if !ok || isNull(rawMessages) {
		return nil, domain.NewImportFormatError("import_json", `missing "messages" array`, nil)
	}

	payload := &importPayload{}
	if err := json.Unmarshal(rawChat, &payload.chat); err != nil {
		return nil, domain.NewImportFormatError("import_json", `"chat" is not a chat record`, err)
	}
	if err := json.Unmarshal(rawMessages, &payload.messages); err != nil {
		return nil, domain.NewImportFormatError("import_json", `"messages" is not a list of messages`, err)
	}
	payload.chat.Title = payload.chat.Title + importedSuffix
	return payload, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (s *Service) parseMarkdown(fileName string, data []byte) (*importPayload, error) {
	body := strings.ReplaceAll(string(data), "\r\n", "\n")
	now := s.now()

	title, hasTitle := markdownTitle(body)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}

	payload := &importPayload{chat: domain.Chat{Title: title + importedSuffix, CreatedAt: now}}
	for i, chunk := range strings.Split(body, markdownSeparator) {
		if i == 0 && hasTitle {
			continue
		}
		if msg, ok := s.parseChunk(chunk, now); ok {
			payload.messages = append(payload.messages, msg)
		}
	}
	return payload, nil
}

// markdownTitle reads a level one heading from the first line.
func markdownTitle(body string) (string, bool) {
	first, _, _ := strings.Cut(body, "\n")
	if !strings.HasPrefix(first, "# ") {
		return "", false
	}

	source := []byte(first)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
	heading, ok := doc.FirstChild().(*ast.Heading)
	if !ok || heading.Level != 1 {
		return "", false
	}
	return strings.TrimSpace(string(heading.Lines().Value(source))), true
}

func (s *Service) parseChunk(chunk string, now time.Time) (domain.Message, bool) {
	lines := strings.Split(strings.TrimSpace(chunk), "\n")
	msg := domain.Message{CreatedAt: now}

	if m := timestampHeader.FindStringSubmatch(strings.TrimSpace(lines[0])); m != nil {
		msg.CreatedAt = s.parseTimestamp(m[1], now)
		lines = lines[1:]
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == pinMarker {
			msg.IsPinned = true
			lines = append(lines[:i:i], lines[i+1:]...)
			break
		}
	}

	msg.Content = strings.TrimSpace(strings.Join(lines, "\n"))
	return msg, msg.Content != ""
}

func (s *Service) parseTimestamp(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, markdownTimeLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.ParseInLocation(layout, value, s.config.Location); err == nil {
			return t
		}
	}
	s.logger.Debug("unparseable markdown timestamp", "value", value)
	return fallback
}

// persistImport writes the chat and its messages in one transaction. The
// preview is taken from the chronologically last imported message.
func (s *Service) persistImport(ctx context.Context, payload *importPayload) (uint, error) {
	now := s.now()
	messages := make([]*domain.Message, 0, len(payload.messages))
	for i := range payload.messages {
		m := payload.messages[i]
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		messages = append(messages, &domain.Message{
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			IsEdited:  m.IsEdited,
			IsPinned:  m.IsPinned,
		})
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	chat := &domain.Chat{
		Title:        payload.chat.Title,
		CreatedAt:    payload.chat.CreatedAt,
		LastModified: now,
		Icon:         payload.chat.Icon,
		Color:        payload.chat.Color,
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	if n := len(messages); n > 0 {
		chat.PreviewText = messages[n-1].Content
	}

	err := s.store.Update(ctx, "import_chat", []live.Table{live.Chats, live.Messages}, func(tx *store.Tx) error {
		if _, err := tx.Chats.Create(ctx, chat); err != nil {
			return err
		}
		for _, m := range messages {
			m.ChatID = chat.ID
		}
		return tx.Messages.CreateInBatch(ctx, messages, 0)
	})
	if err != nil {
		return 0, err
	}
	return chat.ID, nil
}
