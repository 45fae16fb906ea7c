// File: internal/handlers/live_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/iyunix/go-soliloquy/internal/services"
	"github.com/iyunix/go-soliloquy/internal/services/conversation"
)

// LiveHandler streams live query results as server-sent events. Each event
// carries the complete latest result; superseded results are never sent.
type LiveHandler struct {
	ChatService *services.ChatService
	Session     *conversation.Session
}

func NewLiveHandler(cs *services.ChatService, session *conversation.Session) *LiveHandler {
	return &LiveHandler{ChatService: cs, Session: session}
}

// StreamChats pushes the sidebar for ?q= after every change to the chats table.
func (h *LiveHandler) StreamChats(w http.ResponseWriter, r *http.Request) {
	flusher, ok := startStream(w)
	if !ok {
		return
	}
	binding := h.ChatService.Directory.Watch(r.Context(), h.ChatService.LiveOptions("sidebar")...)
	defer binding.Close()
	binding.SetKey(r.URL.Query().Get("q"))

	for {
		select {
		case <-r.Context().Done():
			return
		case res := <-binding.Updates():
			if !writeEvent(w, flusher, "chats", res.Value) {
				return
			}
		}
	}
}

// StreamMessages pushes the note list of one chat after every change to the messages table.
func (h *LiveHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	flusher, ok := startStream(w)
	if !ok {
		return
	}
	binding := h.ChatService.Conversation.Watch(r.Context(), h.ChatService.LiveOptions("chat_messages")...)
	defer binding.Close()
	binding.SetKey(chatID)

	for {
		select {
		case <-r.Context().Done():
			return
		case res := <-binding.Updates():
			if !writeEvent(w, flusher, "messages", res.Value) {
				return
			}
		}
	}
}

// StreamSession pushes the chat window state whenever it changes.
func (h *LiveHandler) StreamSession(w http.ResponseWriter, r *http.Request) {
	flusher, ok := startStream(w)
	if !ok {
		return
	}
	if !writeEvent(w, flusher, "session", h.Session.State()) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.Session.Changed():
			if !writeEvent(w, flusher, "session", h.Session.State()) {
				return
			}
		}
	}
}

func startStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming unsupported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode live event")
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
