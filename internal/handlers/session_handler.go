// File: internal/handlers/session_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/iyunix/go-soliloquy/internal/services/conversation"
)

// SessionHandler exposes the chat window state of the single local user.
type SessionHandler struct {
	Session  *conversation.Session
	Location *time.Location
}

func NewSessionHandler(session *conversation.Session, loc *time.Location) *SessionHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SessionHandler{Session: session, Location: loc}
}

func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.State())
}

// OpenChat switches the active chat; chatId 0 clears the selection.
func (h *SessionHandler) OpenChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID uint `json:"chatId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.Session.Open(req.ChatID)
	writeJSON(w, http.StatusOK, h.Session.State())
}

func (h *SessionHandler) ActivatePin(w http.ResponseWriter, r *http.Request) {
	id, found := h.Session.ActivatePin()
	writeTarget(w, id, found)
}

func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, found := h.Session.Search(req.Query)
	writeTarget(w, id, found)
}

func (h *SessionHandler) NextMatch(w http.ResponseWriter, r *http.Request) {
	id, found := h.Session.NextMatch()
	writeTarget(w, id, found)
}

func (h *SessionHandler) PrevMatch(w http.ResponseWriter, r *http.Request) {
	id, found := h.Session.PrevMatch()
	writeTarget(w, id, found)
}

// JumpToDate takes ?date=YYYY-MM-DD.
func (h *SessionHandler) JumpToDate(w http.ResponseWriter, r *http.Request) {
	day, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), h.Location)
	if err != nil {
		writeError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	id, found := h.Session.JumpToDate(day)
	writeTarget(w, id, found)
}

// writeTarget answers with the message the client should scroll to, if any.
func writeTarget(w http.ResponseWriter, messageID uint, found bool) {
	if !found {
		writeJSON(w, http.StatusOK, map[string]interface{}{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"found": true, "messageId": messageID})
}
