package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/store"
)

// Export is a serialized chat ready to be written to a file or an HTTP response.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

type exportPayload struct {
	Chat     *domain.Chat     `json:"chat"`
	Messages []domain.Message `json:"messages"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Export serializes a chat and its messages as json, md or html.
func (s *Service) Export(ctx context.Context, id uint, format string) (export *Export, err error) {
	format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch format {
	case "json", "md", "html":
	default:
		s.observer.ExportCompleted("unsupported", domain.ErrUnsupportedFormat)
		return nil, domain.NewUnsupportedFormatError("export_chat", format)
	}
	defer func() { s.observer.ExportCompleted(format, err) }()

	payload := exportPayload{}
	err = s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		if payload.Chat, err = tx.Chats.FindByID(ctx, id); err != nil {
			return err
		}
		payload.Messages, err = tx.Messages.FindByChatID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if payload.Messages == nil {
		payload.Messages = []domain.Message{}
	}

	export = &Export{FileName: s.exportFileName(payload.Chat.Title, format)}
	switch format {
	case "json":
		export.ContentType = "application/json"
		export.Data, err = json.MarshalIndent(payload, "", "  ")
	case "md":
		export.ContentType = "text/markdown; charset=utf-8"
		export.Data = s.renderMarkdown(payload)
	case "html":
		export.ContentType = "text/html; charset=utf-8"
		export.Data, err = s.renderHTML(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}
	return export, nil
}

func (s *Service) exportFileName(title, ext string) string {
	date := s.now().UTC().Format("2006-01-02")
	return fmt.Sprintf("%s_export_%s_%s.%s", s.config.AppName, whitespaceRun.ReplaceAllString(title, "_"), date, ext)
}

func (s *Service) renderMarkdown(p exportPayload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Chat.Title)
	fmt.Fprintf(&b, "*Exported on %s*\n\n---\n\n", s.now().In(s.config.Location).Format(markdownTimeLayout))

	for _, m := range p.Messages {
		fmt.Fprintf(&b, "### [%s]\n%s\n\n", m.CreatedAt.In(s.config.Location).Format(markdownTimeLayout), m.Content)
		if m.IsPinned {
			b.WriteString(pinMarker + "\n\n")
		}
		b.WriteString("---\n\n")
	}
	return []byte(b.String())
}

func (s *Service) renderHTML(p exportPayload) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert(s.renderMarkdown(p), &body); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n</head>\n<body>\n", html.EscapeString(p.Chat.Title))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
