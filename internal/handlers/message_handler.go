// File: internal/handlers/message_handler.go
package handlers

import (
	"net/http"

	"github.com/iyunix/go-soliloquy/internal/services"
)

type MessageHandler struct {
	ChatService *services.ChatService
}

func NewMessageHandler(cs *services.ChatService) *MessageHandler {
	return &MessageHandler{ChatService: cs}
}

func (h *MessageHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.ChatService.Directory.Get(r.Context(), chatID); err != nil {
		writeServiceError(w, err)
		return
	}
	messages, err := h.ChatService.Conversation.Messages(r.Context(), chatID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage appends a note, or edits one when editingId is set.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Text      string `json:"text"`
		EditingID uint   `json:"editingId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.ChatService.Conversation.SendOrUpdate(r.Context(), chatID, req.Text, req.EditingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if msg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	status := http.StatusCreated
	if req.EditingID != 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, msg)
}

func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(w, r, "messageId")
	if !ok {
		return
	}
	if err := h.ChatService.Conversation.DeleteMessage(r.Context(), chatID, messageID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) TogglePinMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathID(w, r, "messageId")
	if !ok {
		return
	}
	msg, err := h.ChatService.Conversation.TogglePinMessage(r.Context(), messageID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) UnpinAll(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.ChatService.Conversation.UnpinAll(r.Context(), chatID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unpinned": n})
}

func (h *MessageHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.ChatService.Conversation.ClearHistory(r.Context(), chatID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveDraft schedules a debounced draft write and returns immediately.
func (h *MessageHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Text    string `json:"text"`
		Editing bool   `json:"editing"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.ChatService.Conversation.SaveDraft(chatID, req.Text, req.Editing)
	w.WriteHeader(http.StatusAccepted)
}

func (h *MessageHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	draft, err := h.ChatService.Conversation.LoadDraft(r.Context(), chatID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": draft})
}
